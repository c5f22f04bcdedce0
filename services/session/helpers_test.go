package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	sessionRepo "soulseer/database/repository/session"
	"soulseer/services/payment"
	"soulseer/utils"

	"go.uber.org/zap"
)

// fakeGateway records holds, captures and releases, and can be primed to
// fail.
type fakeGateway struct {
	mu           sync.Mutex
	authorizeErr error
	captureErr   error
	failCaptures int // fail this many captures, then succeed
	nextHold     int
	captures     []int64
	releases     []int64
}

func (g *fakeGateway) Authorize(ctx context.Context, amount int64, payerRef string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.authorizeErr != nil {
		return "", g.authorizeErr
	}
	g.nextHold++
	return fmt.Sprintf("hold_%d", g.nextHold), nil
}

func (g *fakeGateway) Capture(ctx context.Context, holdID string, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCaptures > 0 {
		g.failCaptures--
		return payment.ErrGatewayTimeout
	}
	if g.captureErr != nil {
		return g.captureErr
	}
	g.captures = append(g.captures, amount)
	return nil
}

func (g *fakeGateway) Release(ctx context.Context, holdID string, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.releases = append(g.releases, amount)
	return nil
}

func (g *fakeGateway) captured() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int64(nil), g.captures...)
}

func (g *fakeGateway) released() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int64(nil), g.releases...)
}

func newTestManager(gw *fakeGateway) (*DefaultLifecycleManager, *sessionRepo.MemorySessionRepo, *utils.FakeClock, *Registry) {
	clock := utils.NewFakeClock(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	repo := sessionRepo.NewMemorySessionRepo()
	registry := NewRegistry(clock, time.Minute)
	mgr := NewLifecycleManager(registry, gw, repo, clock, utils.UUIDGenerator(), zap.NewNop(), ManagerConfig{
		HoldBufferMinutes: 10,
		TickInterval:      5 * time.Second,
		GatewayTimeout:    5 * time.Second,
		SettleMaxRetries:  3,
		RetryBackoff:      time.Millisecond,
		PendingTimeout:    5 * time.Minute,
	})
	return mgr, repo, clock, registry
}
