package mappers

import (
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	"github.com/LavaJover/shvark-settlement-service/internal/infrastructure/postgres/models"
	"gorm.io/datatypes"
)

func ToDomainDispute(model *models.DisputeModel) *domain.Dispute {
	dispute := &domain.Dispute{
		ID:                          model.ID,
		Description:                 model.Description,
		Documents:                   []domain.Document(model.Documents),
		CreatorID:                   model.CreatorID,
		CounterpartyID:              deref(model.CounterpartyID),
		CounterpartyEmail:           model.CounterpartyEmail,
		InvitationToken:             deref(model.InvitationToken),
		Status:                      domain.NegotiationStatus(model.NegotiationStatus),
		PendingModificationRequests: []domain.ModificationRequest(model.PendingModificationRequests),
		RegenerationFeedback:        []string(model.RegenerationFeedback),
		InputRevision:               model.InputRevision,
		Generating:                  model.Generating,
		GenerationStartedAt:         model.GenerationStartedAt,
		CreatedAt:                   model.CreatedAt,
		UpdatedAt:                   model.UpdatedAt,
	}
	if model.ValueAmount != nil {
		dispute.Value = &domain.Money{Amount: *model.ValueAmount, Currency: model.ValueCurrency}
	}
	if model.ProposalGeneratedAt != nil {
		doc := model.Proposal.Data()
		dispute.Proposal = &domain.Proposal{
			AgreementPoints:  doc.AgreementPoints,
			NegotiablePoints: doc.NegotiablePoints,
			DisputedPoints:   doc.DisputedPoints,
			Settlement:       doc.Settlement,
			GeneratedAt:      *model.ProposalGeneratedAt,
		}
	}
	for i := range model.Participants {
		dispute.Participants = append(dispute.Participants, ToDomainParticipant(&model.Participants[i]))
	}
	return dispute
}

// ToGORMDispute maps the dispute row without its participants and without
// the lease columns, which only the lease queries write.
func ToGORMDispute(dispute *domain.Dispute) *models.DisputeModel {
	model := &models.DisputeModel{
		ID:                          dispute.ID,
		Description:                 dispute.Description,
		Documents:                   datatypes.NewJSONSlice(orEmpty(dispute.Documents)),
		CreatorID:                   dispute.CreatorID,
		CounterpartyID:              ref(dispute.CounterpartyID),
		CounterpartyEmail:           dispute.CounterpartyEmail,
		InvitationToken:             ref(dispute.InvitationToken),
		NegotiationStatus:           string(dispute.Status),
		Proposal:                    datatypes.NewJSONType(models.ProposalDocument{}),
		PendingModificationRequests: datatypes.NewJSONSlice(orEmpty(dispute.PendingModificationRequests)),
		RegenerationFeedback:        datatypes.NewJSONSlice(orEmpty(dispute.RegenerationFeedback)),
		InputRevision:               dispute.InputRevision,
		CreatedAt:                   dispute.CreatedAt,
		UpdatedAt:                   dispute.UpdatedAt,
	}
	if dispute.Value != nil {
		amount := dispute.Value.Amount
		model.ValueAmount = &amount
		model.ValueCurrency = dispute.Value.Currency
	}
	if p := dispute.Proposal; p != nil {
		model.Proposal = datatypes.NewJSONType(models.ProposalDocument{
			AgreementPoints:  orEmpty(p.AgreementPoints),
			NegotiablePoints: orEmpty(p.NegotiablePoints),
			DisputedPoints:   orEmpty(p.DisputedPoints),
			Settlement:       p.Settlement,
		})
		generatedAt := p.GeneratedAt
		model.ProposalGeneratedAt = &generatedAt
	}
	return model
}

func ToDomainParticipant(model *models.ParticipantModel) *domain.Participant {
	return &domain.Participant{
		ID:             model.ID,
		DisputeID:      model.DisputeID,
		PartyID:        model.PartyID,
		ReactionStatus: domain.ReactionStatus(model.ReactionStatus),
		Position: domain.Position{
			Description: model.PositionDescription,
			Documents:   []domain.Document(model.PositionDocuments),
		},
		AcceptedAt:              model.AcceptedAt,
		ModificationRequestedAt: model.ModificationRequestedAt,
		CreatedAt:               model.CreatedAt,
		UpdatedAt:               model.UpdatedAt,
	}
}

func ToGORMParticipant(participant *domain.Participant) *models.ParticipantModel {
	return &models.ParticipantModel{
		ID:                      participant.ID,
		DisputeID:               participant.DisputeID,
		PartyID:                 participant.PartyID,
		ReactionStatus:          string(participant.ReactionStatus),
		PositionDescription:     participant.Position.Description,
		PositionDocuments:       datatypes.NewJSONSlice(orEmpty(participant.Position.Documents)),
		AcceptedAt:              participant.AcceptedAt,
		ModificationRequestedAt: participant.ModificationRequestedAt,
		CreatedAt:               participant.CreatedAt,
		UpdatedAt:               participant.UpdatedAt,
	}
}

func ToGORMGenerationLog(entry *domain.GenerationLogEntry) *models.GenerationLogModel {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &models.GenerationLogModel{
		DisputeID:     entry.DisputeID,
		Outcome:       string(entry.Outcome),
		InputRevision: entry.InputRevision,
		DurationMs:    entry.Duration.Milliseconds(),
		Error:         entry.Error,
		CreatedAt:     createdAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ref keeps empty strings out of nullable unique columns.
func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
