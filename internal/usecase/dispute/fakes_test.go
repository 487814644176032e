package dispute

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/domain"
)

// memoryRepo is an in-memory DisputeRepository. Transactions are
// serialized by txMu, which stands in for the row lock.
type memoryRepo struct {
	txMu sync.Mutex

	mu        sync.Mutex
	disputes  map[string]*domain.Dispute
	directory map[string]string
	logs      []domain.GenerationLogEntry
	leases    map[string]time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		disputes:  make(map[string]*domain.Dispute),
		directory: make(map[string]string),
		leases:    make(map[string]time.Time),
	}
}

func clone(d *domain.Dispute) *domain.Dispute {
	raw, err := json.Marshal(d)
	if err != nil {
		panic(err)
	}
	var out domain.Dispute
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

func (r *memoryRepo) get(id string) (*domain.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disputes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(d), nil
}

func (r *memoryRepo) generationLogs() []domain.GenerationLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.GenerationLogEntry(nil), r.logs...)
}

func (r *memoryRepo) BeginTx(ctx context.Context) (domain.DisputeTxRepository, error) {
	r.txMu.Lock()
	return &memoryTx{repo: r, staged: make(map[string]*domain.Dispute), directory: make(map[string]string)}, nil
}

func (r *memoryRepo) GetDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	return r.get(disputeID)
}

func (r *memoryRepo) GetDisputesByParty(ctx context.Context, filter domain.DisputeFilter) ([]*domain.Dispute, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Dispute
	for _, d := range r.disputes {
		if d.CreatorID != filter.PartyID && d.CounterpartyID != filter.PartyID {
			continue
		}
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		matched = append(matched, clone(d))
	}
	return matched, int64(len(matched)), nil
}

func (r *memoryRepo) ReleaseStaleGenerationLeases(ctx context.Context, staleAfter time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var released int64
	for id, since := range r.leases {
		if time.Since(since) > staleAfter {
			delete(r.leases, id)
			released++
		}
	}
	return released, nil
}

func (r *memoryRepo) LogGeneration(ctx context.Context, entry *domain.GenerationLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *entry)
	return nil
}

type memoryTx struct {
	repo      *memoryRepo
	staged    map[string]*domain.Dispute
	directory map[string]string
	done      bool
}

func (tx *memoryTx) CreateDispute(d *domain.Dispute) error {
	tx.staged[d.ID] = clone(d)
	return nil
}

func (tx *memoryTx) GetDisputeForUpdate(disputeID string) (*domain.Dispute, error) {
	return tx.repo.get(disputeID)
}

func (tx *memoryTx) GetDisputeByInvitationTokenForUpdate(token string) (*domain.Dispute, error) {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	for _, d := range tx.repo.disputes {
		if d.InvitationToken != "" && d.InvitationToken == token {
			return clone(d), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (tx *memoryTx) SaveDispute(d *domain.Dispute) error {
	tx.staged[d.ID] = clone(d)
	return nil
}

func (tx *memoryTx) FindPartyByEmail(email string) (string, error) {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	if id, ok := tx.repo.directory[email]; ok {
		return id, nil
	}
	return "", domain.ErrNotFound
}

func (tx *memoryTx) UpsertPartyDirectory(partyID, email string) error {
	tx.directory[email] = partyID
	return nil
}

func (tx *memoryTx) Commit() error {
	if tx.done {
		return errors.New("transaction already finished")
	}
	tx.repo.mu.Lock()
	for id, d := range tx.staged {
		tx.repo.disputes[id] = d
	}
	for email, id := range tx.directory {
		tx.repo.directory[email] = id
	}
	tx.repo.mu.Unlock()
	tx.done = true
	tx.repo.txMu.Unlock()
	return nil
}

func (tx *memoryTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.repo.txMu.Unlock()
	return nil
}

// memoryLease mirrors the conditional-update lease of the postgres store.
type memoryLease struct {
	repo       *memoryRepo
	staleAfter time.Duration
}

func (l *memoryLease) Acquire(ctx context.Context, disputeID string) (bool, error) {
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()
	d, ok := l.repo.disputes[disputeID]
	if !ok || d.Status != domain.NegotiationAwaitingBoth || d.Proposal != nil {
		return false, nil
	}
	if since, held := l.repo.leases[disputeID]; held && time.Since(since) < l.staleAfter {
		return false, nil
	}
	l.repo.leases[disputeID] = time.Now()
	return true, nil
}

func (l *memoryLease) Release(ctx context.Context, disputeID string) error {
	l.repo.mu.Lock()
	defer l.repo.mu.Unlock()
	delete(l.repo.leases, disputeID)
	return nil
}

const validProposal = `{
	"agreementPoints": [{"reference": "A1", "summary": "goods arrived", "rationale": "both agree"}],
	"negotiablePoints": [{"reference": "N1", "summary": "discount", "rationale": "delay"}],
	"disputedPoints": [],
	"settlement": {"content": "refund 10 percent", "status": "proposed"}
}`

type fakeGenerator struct {
	calls atomic.Int32

	mu     sync.Mutex
	inputs []domain.GenerationInput
	raw    string
	err    error
	// block, when set, holds every call until it is closed.
	block chan struct{}
	// onCall runs inside the call before it returns.
	onCall func(call int32)
}

func (g *fakeGenerator) Generate(ctx context.Context, input domain.GenerationInput) ([]byte, error) {
	call := g.calls.Add(1)
	g.mu.Lock()
	g.inputs = append(g.inputs, input)
	raw, err, block, onCall := g.raw, g.err, g.block, g.onCall
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if onCall != nil {
		onCall(call)
	}
	if err != nil {
		return nil, err
	}
	if raw == "" {
		raw = validProposal
	}
	return []byte(raw), nil
}

func (g *fakeGenerator) lastInput() domain.GenerationInput {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inputs[len(g.inputs)-1]
}

type fakePublisher struct {
	mu          sync.Mutex
	events      []domain.NegotiationEvent
	invitations []domain.Invitation
}

func (p *fakePublisher) PublishNegotiationEvent(ctx context.Context, event domain.NegotiationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) PublishInvitation(ctx context.Context, invitation domain.Invitation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invitations = append(p.invitations, invitation)
	return nil
}

func (p *fakePublisher) eventTypes() []domain.NegotiationEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]domain.NegotiationEventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func (p *fakePublisher) sentInvitations() []domain.Invitation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Invitation(nil), p.invitations...)
}
