package repository

import (
	"context"
	"sync"
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
	"github.com/LavaJover/shvark-settlement-service/internal/infrastructure/postgres/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GenerationLease is the database-backed generation lease. Acquire is a
// single conditional UPDATE, so of several concurrent callers at most one
// sees a changed row. A lease older than staleAfter may be taken over.
type GenerationLease struct {
	db         *gorm.DB
	staleAfter time.Duration

	mu    sync.Mutex
	owned map[string]string
}

func NewGenerationLease(db *gorm.DB, staleAfter time.Duration) *GenerationLease {
	return &GenerationLease{
		db:         db,
		staleAfter: staleAfter,
		owned:      make(map[string]string),
	}
}

func (l *GenerationLease) StaleAfter() time.Duration {
	return l.staleAfter
}

func (l *GenerationLease) Acquire(ctx context.Context, disputeID string) (bool, error) {
	leaseID := uuid.New().String()
	now := time.Now()

	result := l.db.WithContext(ctx).Model(&models.DisputeModel{}).
		Where("id = ?", disputeID).
		Where("negotiation_status = ?", string(domain.NegotiationAwaitingBoth)).
		Where("proposal_generated_at IS NULL").
		Where("generating = ? OR generation_started_at < ?", false, now.Add(-l.staleAfter)).
		Updates(map[string]interface{}{
			"generating":            true,
			"generation_started_at": now,
			"generation_lease_id":   leaseID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	l.mu.Lock()
	l.owned[disputeID] = leaseID
	l.mu.Unlock()
	return true, nil
}

// Release drops the lease only if it is still the one this process took,
// so a holder that was taken over cannot release its successor.
func (l *GenerationLease) Release(ctx context.Context, disputeID string) error {
	l.mu.Lock()
	leaseID, ok := l.owned[disputeID]
	delete(l.owned, disputeID)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	return l.db.WithContext(ctx).Model(&models.DisputeModel{}).
		Where("id = ? AND generation_lease_id = ?", disputeID, leaseID).
		Updates(map[string]interface{}{
			"generating":            false,
			"generation_started_at": nil,
			"generation_lease_id":   nil,
		}).Error
}
