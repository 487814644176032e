package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	"github.com/LavaJover/shvark-settlement-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-settlement-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultDisputeRepository struct {
	db *gorm.DB
}

func NewDefaultDisputeRepository(db *gorm.DB) *DefaultDisputeRepository {
	return &DefaultDisputeRepository{db: db}
}

func (r *DefaultDisputeRepository) BeginTx(ctx context.Context) (domain.DisputeTxRepository, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &disputeTxRepository{tx: tx}, nil
}

func (r *DefaultDisputeRepository) GetDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	var disputeModel models.DisputeModel
	err := r.db.WithContext(ctx).
		Preload("Participants", orderParticipants).
		Where("id = ?", disputeID).
		First(&disputeModel).Error
	if err != nil {
		return nil, notFound(err)
	}
	return mappers.ToDomainDispute(&disputeModel), nil
}

func (r *DefaultDisputeRepository) GetDisputesByParty(ctx context.Context, filter domain.DisputeFilter) ([]*domain.Dispute, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DisputeModel{}).
		Where("creator_id = ? OR counterparty_id = ?", filter.PartyID, filter.PartyID)
	if filter.Status != nil {
		query = query.Where("negotiation_status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count failed: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	var disputeModels []models.DisputeModel
	if err := query.
		Preload("Participants", orderParticipants).
		Order("updated_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&disputeModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find dispute models: %w", err)
	}

	disputes := make([]*domain.Dispute, len(disputeModels))
	for i := range disputeModels {
		disputes[i] = mappers.ToDomainDispute(&disputeModels[i])
	}
	return disputes, total, nil
}

// ReleaseStaleGenerationLeases clears leases whose holder has been silent
// for longer than staleAfter, which only happens when a process died
// mid-generation.
func (r *DefaultDisputeRepository) ReleaseStaleGenerationLeases(ctx context.Context, staleAfter time.Duration) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.DisputeModel{}).
		Where("generating = ? AND generation_started_at < ?", true, time.Now().Add(-staleAfter)).
		Updates(map[string]interface{}{
			"generating":            false,
			"generation_started_at": nil,
			"generation_lease_id":   nil,
		})
	return result.RowsAffected, result.Error
}

func (r *DefaultDisputeRepository) LogGeneration(ctx context.Context, entry *domain.GenerationLogEntry) error {
	return r.db.WithContext(ctx).Create(mappers.ToGORMGenerationLog(entry)).Error
}

type disputeTxRepository struct {
	tx *gorm.DB
}

func (r *disputeTxRepository) CreateDispute(dispute *domain.Dispute) error {
	disputeModel := mappers.ToGORMDispute(dispute)
	if err := r.tx.Omit(clause.Associations).Create(disputeModel).Error; err != nil {
		return err
	}
	return r.saveParticipants(dispute)
}

func (r *disputeTxRepository) GetDisputeForUpdate(disputeID string) (*domain.Dispute, error) {
	var disputeModel models.DisputeModel
	err := r.tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", disputeID).
		First(&disputeModel).Error
	if err != nil {
		return nil, notFound(err)
	}
	if err := r.tx.Scopes(orderParticipants).
		Where("dispute_id = ?", disputeID).
		Find(&disputeModel.Participants).Error; err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	return mappers.ToDomainDispute(&disputeModel), nil
}

func (r *disputeTxRepository) GetDisputeByInvitationTokenForUpdate(token string) (*domain.Dispute, error) {
	var disputeModel models.DisputeModel
	err := r.tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("invitation_token = ?", token).
		First(&disputeModel).Error
	if err != nil {
		return nil, notFound(err)
	}
	if err := r.tx.Scopes(orderParticipants).
		Where("dispute_id = ?", disputeModel.ID).
		Find(&disputeModel.Participants).Error; err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	return mappers.ToDomainDispute(&disputeModel), nil
}

// SaveDispute writes the dispute row and upserts its participants.
func (r *disputeTxRepository) SaveDispute(dispute *domain.Dispute) error {
	disputeModel := mappers.ToGORMDispute(dispute)
	err := r.tx.Model(&models.DisputeModel{ID: dispute.ID}).
		Select(
			"description", "value_amount", "value_currency", "documents",
			"counterparty_id", "counterparty_email", "invitation_token",
			"negotiation_status", "proposal", "proposal_generated_at",
			"pending_modification_requests", "regeneration_feedback",
			"input_revision", "updated_at",
		).
		Updates(disputeModel).Error
	if err != nil {
		return err
	}
	return r.saveParticipants(dispute)
}

func (r *disputeTxRepository) saveParticipants(dispute *domain.Dispute) error {
	if len(dispute.Participants) == 0 {
		return nil
	}
	participantModels := make([]*models.ParticipantModel, 0, len(dispute.Participants))
	for _, p := range dispute.Participants {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		p.DisputeID = dispute.ID
		participantModels = append(participantModels, mappers.ToGORMParticipant(p))
	}
	return r.tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "dispute_id"}, {Name: "party_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"reaction_status", "position_description", "position_documents",
			"accepted_at", "modification_requested_at", "updated_at",
		}),
	}).Create(&participantModels).Error
}

func (r *disputeTxRepository) FindPartyByEmail(email string) (string, error) {
	var entry models.PartyDirectoryModel
	if err := r.tx.Where("email = ?", email).First(&entry).Error; err != nil {
		return "", notFound(err)
	}
	return entry.PartyID, nil
}

func (r *disputeTxRepository) UpsertPartyDirectory(partyID, email string) error {
	return r.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "party_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
	}).Create(&models.PartyDirectoryModel{
		PartyID:   partyID,
		Email:     email,
		UpdatedAt: time.Now(),
	}).Error
}

func (r *disputeTxRepository) Commit() error {
	return r.tx.Commit().Error
}

func (r *disputeTxRepository) Rollback() error {
	err := r.tx.Rollback().Error
	if errors.Is(err, gorm.ErrInvalidTransaction) || errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func orderParticipants(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
