package sessionRepo

import (
	"context"
	"sync"

	"soulseer/models"
)

// MemorySessionRepo is the in-memory Repository used for tests and
// single-node development. Upsert semantics match the Mongo implementation.
type MemorySessionRepo struct {
	mu          sync.RWMutex
	sessions    map[string]models.Session
	settlements map[string]models.SettlementRecord
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{
		sessions:    make(map[string]models.Session),
		settlements: make(map[string]models.SettlementRecord),
	}
}

func (r *MemorySessionRepo) Save(ctx context.Context, sess models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess
	return nil
}

func (r *MemorySessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (r *MemorySessionRepo) SaveSettlement(ctx context.Context, rec models.SettlementRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settlements[rec.SessionID] = rec
	return nil
}

// Settlement returns the stored settlement record, if any. Test helper.
func (r *MemorySessionRepo) Settlement(sessionID string) (models.SettlementRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.settlements[sessionID]
	return rec, ok
}
