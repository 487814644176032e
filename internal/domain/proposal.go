package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type Point struct {
	Reference string `json:"reference"`
	Summary   string `json:"summary"`
	Rationale string `json:"rationale"`
}

// Settlement carries the generated text. Status is whatever the generator
// labelled it with and is only shown to users; NegotiationStatus on the
// dispute is authoritative.
type Settlement struct {
	Content string `json:"content"`
	Status  string `json:"status"`
}

type Proposal struct {
	AgreementPoints  []Point    `json:"agreementPoints"`
	NegotiablePoints []Point    `json:"negotiablePoints"`
	DisputedPoints   []Point    `json:"disputedPoints"`
	Settlement       Settlement `json:"settlement"`
	GeneratedAt      time.Time  `json:"generatedAt"`
}

var proposalKeys = []string{"agreementPoints", "negotiablePoints", "disputedPoints", "settlement"}

// ParseProposal validates raw generator output and decodes it. All four
// top-level keys must be present and the point fields must be lists.
func ParseProposal(raw []byte) (*Proposal, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: output is not a JSON object: %v", ErrMalformedProposal, err)
	}
	for _, key := range proposalKeys {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("%w: missing key %q", ErrMalformedProposal, key)
		}
	}

	proposal := &Proposal{}
	lists := map[string]*[]Point{
		"agreementPoints":  &proposal.AgreementPoints,
		"negotiablePoints": &proposal.NegotiablePoints,
		"disputedPoints":   &proposal.DisputedPoints,
	}
	for key, dst := range lists {
		var items []json.RawMessage
		if err := json.Unmarshal(fields[key], &items); err != nil || items == nil {
			return nil, fmt.Errorf("%w: %q is not a list", ErrMalformedProposal, key)
		}
		points := make([]Point, 0, len(items))
		for i, item := range items {
			var p Point
			if err := json.Unmarshal(item, &p); err != nil {
				return nil, fmt.Errorf("%w: %s[%d]: %v", ErrMalformedProposal, key, i, err)
			}
			points = append(points, p)
		}
		*dst = points
	}

	if string(fields["settlement"]) == "null" {
		return nil, fmt.Errorf("%w: settlement is null", ErrMalformedProposal)
	}
	if err := json.Unmarshal(fields["settlement"], &proposal.Settlement); err != nil {
		return nil, fmt.Errorf("%w: settlement: %v", ErrMalformedProposal, err)
	}
	return proposal, nil
}

type GenerationInput struct {
	DisputeID             string
	Description           string
	CreatorPosition       string
	CounterpartyPosition  string
	CreatorDocuments      []string
	CounterpartyDocuments []string
	ModificationFeedback  []string
}

// ProposalGenerator is the external AI function. It returns the raw JSON
// object produced by the model; validation happens in ParseProposal.
type ProposalGenerator interface {
	Generate(ctx context.Context, input GenerationInput) ([]byte, error)
}
