package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerationNormalize(t *testing.T) {
	cases := map[string]struct {
		in   Generation
		want Generation
	}{
		"stale below timeout": {
			in:   Generation{Timeout: 5 * time.Minute, StaleAfter: time.Minute},
			want: Generation{Timeout: 5 * time.Minute, StaleAfter: 10 * time.Minute},
		},
		"stale equal to timeout": {
			in:   Generation{Timeout: time.Minute, StaleAfter: time.Minute},
			want: Generation{Timeout: time.Minute, StaleAfter: 2 * time.Minute},
		},
		"missing timeout": {
			in:   Generation{StaleAfter: 7 * time.Minute},
			want: Generation{Timeout: 5 * time.Minute, StaleAfter: 10 * time.Minute},
		},
		"already sane": {
			in:   Generation{Timeout: time.Minute, StaleAfter: 3 * time.Minute, LockBackend: "redis"},
			want: Generation{Timeout: time.Minute, StaleAfter: 3 * time.Minute, LockBackend: "redis"},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.in.Normalize())
		})
	}
}
