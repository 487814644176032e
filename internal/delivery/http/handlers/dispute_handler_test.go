package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/delivery/http/dto/dispute/response"
	"github.com/LavaJover/shvark-settlement-service/internal/delivery/http/middleware"
	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-settlement-service/internal/usecase/dto/dispute"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const secret = "test-secret"

type stubUsecase struct {
	err        error
	created    *disputedto.CreateDisputeInput
	listed     *disputedto.GetPartyDisputesInput
	retriedBy  string
	acceptedBy string
	modified   *disputedto.RequestModificationInput
	dispute    *domain.Dispute
}

func (s *stubUsecase) out() *disputedto.DisputeOutput {
	d := s.dispute
	if d == nil {
		d, _ = domain.NewDispute("d1", "alice", "late delivery", nil, nil, time.Now())
	}
	return &disputedto.DisputeOutput{Dispute: d, AcceptedBy: d.AcceptedBy()}
}

func (s *stubUsecase) CreateDispute(ctx context.Context, input *disputedto.CreateDisputeInput) (*disputedto.DisputeOutput, error) {
	s.created = input
	if s.err != nil {
		return nil, s.err
	}
	return s.out(), nil
}

func (s *stubUsecase) SubmitPosition(ctx context.Context, input *disputedto.SubmitPositionInput) (*disputedto.DisputeOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.out(), nil
}

func (s *stubUsecase) AcceptProposal(ctx context.Context, disputeID, partyID string) (*disputedto.DisputeOutput, error) {
	s.acceptedBy = partyID
	if s.err != nil {
		return nil, s.err
	}
	return s.out(), nil
}

func (s *stubUsecase) RequestModification(ctx context.Context, input *disputedto.RequestModificationInput) (*disputedto.DisputeOutput, error) {
	s.modified = input
	if s.err != nil {
		return nil, s.err
	}
	return s.out(), nil
}

func (s *stubUsecase) RetryGeneration(ctx context.Context, disputeID, partyID string) error {
	s.retriedBy = partyID
	return s.err
}

func (s *stubUsecase) GetDispute(ctx context.Context, disputeID, partyID string) (*disputedto.DisputeOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.out(), nil
}

func (s *stubUsecase) GetPartyDisputes(ctx context.Context, input *disputedto.GetPartyDisputesInput) (*disputedto.GetPartyDisputesOutput, error) {
	s.listed = input
	if s.err != nil {
		return nil, s.err
	}
	return &disputedto.GetPartyDisputesOutput{
		Disputes:   []*disputedto.DisputeOutput{s.out()},
		Pagination: disputedto.Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: 1, ItemsPerPage: 20},
	}, nil
}

func (s *stubUsecase) RegisterParty(ctx context.Context, input *disputedto.RegisterPartyInput) error {
	return s.err
}

func (s *stubUsecase) ReleaseStaleGenerationLeases(ctx context.Context) (int64, error) {
	return 0, s.err
}

func token(t *testing.T, subject string, expiresIn time.Duration) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "identity",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

type harness struct {
	uc     *stubUsecase
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	uc := &stubUsecase{}
	router := NewRouter(RouterConfig{
		ServiceName: "settlement-test",
		Auth:        middleware.AuthConfig{Secret: secret, Issuer: "identity"},
		Gatherer:    prometheus.NewRegistry(),
	}, NewDisputeHandler(uc), zaptest.NewLogger(t))
	return &harness{uc: uc, router: router}
}

func (h *harness) do(t *testing.T, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestAPIRequiresValidToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/disputes", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/disputes", "", token(t, "alice", -time.Minute))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/v1/disputes", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	rec = h.do(t, http.MethodGet, "/api/v1/disputes", "", forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndMetricsAreOpen(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateDispute(t *testing.T) {
	h := newHarness(t)

	body := `{
		"description": "late delivery",
		"value": {"amount": 120, "currency": "EUR"},
		"documents": [{"id": "doc1", "name": "invoice.pdf", "size": 10}],
		"counterpartyEmail": "bob@example.com",
		"position": {"description": "two weeks late"}
	}`
	rec := h.do(t, http.MethodPost, "/api/v1/disputes", body, token(t, "alice", time.Hour))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.NotNil(t, h.uc.created)
	assert.Equal(t, "alice", h.uc.created.CreatorID)
	assert.Equal(t, "bob@example.com", h.uc.created.CounterpartyEmail)
	require.NotNil(t, h.uc.created.Value)
	assert.Equal(t, "EUR", h.uc.created.Value.Currency)
	require.Len(t, h.uc.created.Documents, 1)
	require.NotNil(t, h.uc.created.Position)
	assert.Equal(t, "two weeks late", h.uc.created.Position.Description)

	var resp response.DisputeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "d1", resp.ID)
	assert.Equal(t, "alice", resp.CreatorID)
	assert.NotNil(t, resp.AcceptedBy)
}

func TestCreateDisputeValidation(t *testing.T) {
	h := newHarness(t)
	bearer := token(t, "alice", time.Hour)

	cases := map[string]string{
		"missing description": `{"counterpartyEmail": "bob@example.com"}`,
		"bad email":           `{"description": "x", "counterpartyEmail": "not-an-email"}`,
		"bad currency":        `{"description": "x", "value": {"amount": 1, "currency": "EURO"}}`,
		"document without id": `{"description": "x", "documents": [{"name": "a.pdf"}]}`,
		"malformed body":      `{"description": `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/api/v1/disputes", body, bearer)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDomainErrorsMapToStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrAlreadyAccepted, http.StatusConflict},
		{domain.ErrNotYourTurn, http.StatusConflict},
		{domain.ErrNoProposal, http.StatusConflict},
		{domain.ErrSettled, http.StatusConflict},
		{domain.ErrNotEligible, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := newHarness(t)
			h.uc.err = tc.err
			rec := h.do(t, http.MethodPost, "/api/v1/disputes/d1/accept", "", token(t, "bob", time.Hour))
			assert.Equal(t, tc.code, rec.Code)

			var resp response.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestPartyComesFromToken(t *testing.T) {
	h := newHarness(t)
	bearer := token(t, "bob", time.Hour)

	rec := h.do(t, http.MethodPost, "/api/v1/disputes/d1/accept", "", bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", h.uc.acceptedBy)

	rec = h.do(t, http.MethodPost, "/api/v1/disputes/d1/modifications", `{"feedback": "lower the fee"}`, bearer)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, h.uc.modified)
	assert.Equal(t, "d1", h.uc.modified.DisputeID)
	assert.Equal(t, "bob", h.uc.modified.PartyID)

	rec = h.do(t, http.MethodPost, "/api/v1/disputes/d1/generation", "", bearer)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "bob", h.uc.retriedBy)
}

func TestListDisputes(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/disputes?status=ACCEPTED_ALL&page=2&limit=5", "", token(t, "alice", time.Hour))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, h.uc.listed)
	assert.Equal(t, "alice", h.uc.listed.PartyID)
	assert.Equal(t, 2, h.uc.listed.Page)
	assert.Equal(t, 5, h.uc.listed.Limit)
	require.NotNil(t, h.uc.listed.Status)
	assert.Equal(t, domain.NegotiationAcceptedAll, *h.uc.listed.Status)

	var resp response.ListDisputesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Disputes, 1)
	assert.Equal(t, int32(1), resp.Pagination.TotalItems)

	rec = h.do(t, http.MethodGet, "/api/v1/disputes?status=BOGUS", "", token(t, "alice", time.Hour))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
