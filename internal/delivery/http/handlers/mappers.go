package handlers

import (
	"github.com/LavaJover/shvark-settlement-service/internal/delivery/http/dto/dispute/request"
	"github.com/LavaJover/shvark-settlement-service/internal/delivery/http/dto/dispute/response"
	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-settlement-service/internal/usecase/dto/dispute"
)

func toDomainDocuments(docs []request.DocumentRequest) []domain.Document {
	if len(docs) == 0 {
		return nil
	}
	out := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Document{
			ID:          d.ID,
			Name:        d.Name,
			Size:        d.Size,
			MimeType:    d.MimeType,
			Category:    d.Category,
			StoragePath: d.Path,
		})
	}
	return out
}

func toDocumentResponses(docs []domain.Document) []response.DocumentResponse {
	out := make([]response.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, response.DocumentResponse{
			ID:       d.ID,
			Name:     d.Name,
			Size:     d.Size,
			MimeType: d.MimeType,
			Category: d.Category,
			Path:     d.StoragePath,
		})
	}
	return out
}

func toPoints(points []domain.Point) []response.PointResponse {
	out := make([]response.PointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, response.PointResponse{Reference: p.Reference, Summary: p.Summary, Rationale: p.Rationale})
	}
	return out
}

func toDisputeResponse(out *disputedto.DisputeOutput) response.DisputeResponse {
	d := out.Dispute
	resp := response.DisputeResponse{
		ID:                   d.ID,
		Description:          d.Description,
		Documents:            toDocumentResponses(d.Documents),
		CreatorID:            d.CreatorID,
		CounterpartyID:       d.CounterpartyID,
		CounterpartyEmail:    d.CounterpartyEmail,
		NegotiationStatus:    string(d.Status),
		Participants:         make([]response.ParticipantResponse, 0, len(d.Participants)),
		AcceptedBy:           out.AcceptedBy,
		ModificationRequests: make([]response.ModificationRequestResponse, 0, len(d.PendingModificationRequests)),
		GenerationPending:    out.GenerationPending,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
	if resp.AcceptedBy == nil {
		resp.AcceptedBy = []string{}
	}
	if d.Value != nil {
		resp.Value = &response.MoneyResponse{Amount: d.Value.Amount, Currency: d.Value.Currency}
	}
	if d.Proposal != nil {
		p := &response.ProposalResponse{
			AgreementPoints:  toPoints(d.Proposal.AgreementPoints),
			NegotiablePoints: toPoints(d.Proposal.NegotiablePoints),
			DisputedPoints:   toPoints(d.Proposal.DisputedPoints),
			GeneratedAt:      d.Proposal.GeneratedAt,
		}
		p.Settlement.Content = d.Proposal.Settlement.Content
		p.Settlement.Status = d.Proposal.Settlement.Status
		resp.Proposal = p
	}
	for _, p := range d.Participants {
		pr := response.ParticipantResponse{
			PartyID:                 p.PartyID,
			ReactionStatus:          string(p.ReactionStatus),
			AcceptedAt:              p.AcceptedAt,
			ModificationRequestedAt: p.ModificationRequestedAt,
		}
		if !p.Position.IsEmpty() {
			pr.Position = &response.PositionResponse{
				Description: p.Position.Description,
				Documents:   toDocumentResponses(p.Position.Documents),
			}
		}
		resp.Participants = append(resp.Participants, pr)
	}
	for _, m := range d.PendingModificationRequests {
		resp.ModificationRequests = append(resp.ModificationRequests, response.ModificationRequestResponse{
			PartyID:     m.PartyID,
			Feedback:    m.Feedback,
			RequestedAt: m.RequestedAt,
		})
	}
	return resp
}
