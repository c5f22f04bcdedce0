package session

import (
	"context"
	"fmt"
	"time"

	sessionRepo "soulseer/database/repository/session"
	"soulseer/models"
	"soulseer/services/payment"
	"soulseer/utils"

	"go.uber.org/zap"
)

// End reasons recorded on terminal sessions.
const (
	ReasonFundingExhausted = "funding-exhausted"
	ReasonClientCancelled  = "client-cancelled-before-start"
	ReasonClientEnded      = "client-ended"
	ReasonReaderEnded      = "reader-ended"
	ReasonPendingExpired   = "pending-expired"
)

// ManagerConfig tunes the lifecycle manager.
type ManagerConfig struct {
	HoldBufferMinutes int           // funding cap = buffer * rate
	TickInterval      time.Duration // billing meter granularity
	GatewayTimeout    time.Duration // bound on each gateway call
	SettleMaxRetries  int           // capture/release attempts before Failed
	RetryBackoff      time.Duration // base backoff between attempts
	PendingTimeout    time.Duration // Pending sessions cancel after this, releasing the hold
}

// DefaultLifecycleManager implements LifecycleService.
type DefaultLifecycleManager struct {
	registry *Registry
	gateway  payment.HoldGateway
	repo     sessionRepo.Repository
	clock    utils.Clock
	ids      utils.IDGenerator
	logger   *zap.Logger
	cfg      ManagerConfig
}

func NewLifecycleManager(
	registry *Registry,
	gateway payment.HoldGateway,
	repo sessionRepo.Repository,
	clock utils.Clock,
	ids utils.IDGenerator,
	logger *zap.Logger,
	cfg ManagerConfig,
) *DefaultLifecycleManager {
	if cfg.HoldBufferMinutes <= 0 {
		cfg.HoldBufferMinutes = 10
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 5 * time.Second
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 30 * time.Second
	}
	if cfg.SettleMaxRetries <= 0 {
		cfg.SettleMaxRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.PendingTimeout <= 0 {
		cfg.PendingTimeout = 5 * time.Minute
	}
	return &DefaultLifecycleManager{
		registry: registry,
		gateway:  gateway,
		repo:     repo,
		clock:    clock,
		ids:      ids,
		logger:   logger,
		cfg:      cfg,
	}
}

// RequestSession creates a session, authorizes the funding hold and registers
// it in Pending. A session can only reach Active through the hold authorized
// here.
func (m *DefaultLifecycleManager) RequestSession(ctx context.Context, clientID, readerID, sessionType string, ratePerMinute int64) (*models.Session, error) {
	if ratePerMinute <= 0 {
		return nil, fmt.Errorf("non-positive rate %d for session type %s", ratePerMinute, sessionType)
	}

	now := m.clock.Now()
	sess := models.Session{
		ID:            m.ids.NewID(),
		ClientID:      clientID,
		ReaderID:      readerID,
		SessionType:   sessionType,
		RatePerMinute: ratePerMinute,
		Status:        models.SessionRequested,
		FundingCap:    ratePerMinute * int64(m.cfg.HoldBufferMinutes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	authCtx, cancel := context.WithTimeout(ctx, m.cfg.GatewayTimeout)
	defer cancel()
	holdID, err := m.gateway.Authorize(authCtx, sess.FundingCap, clientID)
	if err != nil {
		m.logger.Warn("hold authorization failed",
			zap.String("clientID", clientID), zap.Int64("amount", sess.FundingCap), zap.Error(err))
		return nil, err
	}
	sess.HoldID = holdID
	sess.Status = models.SessionPending

	if err := m.registry.Create(sess); err != nil {
		// Should not happen with generated ids; give the money back.
		m.releaseBestEffort(sess.HoldID, sess.FundingCap)
		return nil, err
	}
	if err := m.repo.Save(ctx, sess); err != nil {
		m.logger.Error("failed to persist new session", zap.String("sessionID", sess.ID), zap.Error(err))
	}

	// A session nobody starts must not pin its hold until the processor
	// expires it; EndSession ignores this reason once the session is Active.
	sessionID := sess.ID
	m.clock.AfterFunc(m.cfg.PendingTimeout, func() {
		err := m.EndSession(context.Background(), sessionID, ReasonPendingExpired)
		if err != nil && err != ErrSessionNotFound {
			m.logger.Error("failed to expire pending session",
				zap.String("sessionID", sessionID), zap.Error(err))
		}
	})

	m.logger.Info("session requested",
		zap.String("sessionID", sess.ID), zap.String("readerID", readerID),
		zap.Int64("rate", ratePerMinute), zap.Int64("fundingCap", sess.FundingCap))
	return &sess, nil
}

// StartSession moves Pending to Active and starts the billing meter. Exactly
// one meter may run per session; the meterOn guard enforces that.
func (m *DefaultLifecycleManager) StartSession(ctx context.Context, sessionID string) error {
	var snap models.Session
	err := m.registry.withEntry(sessionID, func(e *entry) error {
		if e.sess.Status == models.SessionActive {
			return nil // idempotent
		}
		if e.sess.Status != models.SessionPending {
			return ErrInvalidTransition
		}
		now := m.clock.Now()
		e.sess.Status = models.SessionActive
		e.sess.StartTime = &now
		e.sess.UpdatedAt = now
		if !e.meterOn {
			m.startMeter(e)
		}
		m.registry.publish(e)
		snap = e.sess
		return nil
	})
	if err != nil {
		return err
	}
	if snap.ID != "" {
		if err := m.repo.Save(ctx, snap); err != nil {
			m.logger.Error("failed to persist session start", zap.String("sessionID", sessionID), zap.Error(err))
		}
		m.logger.Info("session started", zap.String("sessionID", sessionID))
	}
	return nil
}

// EndSession stops the meter, fixes the final accrued cost and settles the
// hold. Idempotent: only the caller that performs the terminal transition
// settles; later calls return immediately.
func (m *DefaultLifecycleManager) EndSession(ctx context.Context, sessionID, reason string) error {
	var snap models.Session
	transitioned := false

	err := m.registry.withEntry(sessionID, func(e *entry) error {
		if e.sess.Terminal() {
			return nil
		}
		if reason == ReasonPendingExpired && e.sess.Status != models.SessionPending {
			return nil
		}
		if e.sess.Status != models.SessionActive && e.sess.Status != models.SessionPending {
			return ErrInvalidTransition
		}

		haltMeter(e)
		now := m.clock.Now()
		if e.sess.StartTime != nil {
			e.elapsedSeconds = int64(now.Sub(*e.sess.StartTime).Seconds())
			cost := ProratedCost(e.elapsedSeconds, e.sess.RatePerMinute)
			if cost > e.sess.FundingCap {
				cost = e.sess.FundingCap
			}
			e.sess.AccruedCost = cost
		}
		e.sess.EndTime = &now
		e.sess.UpdatedAt = now
		e.sess.EndReason = reason
		cancelled := reason == ReasonClientCancelled || reason == ReasonPendingExpired
		if cancelled && e.sess.AccruedCost == 0 {
			e.sess.Status = models.SessionCancelled
		} else {
			e.sess.Status = models.SessionEnded
		}
		snap = e.sess
		transitioned = true
		return nil
	})
	if err != nil || !transitioned {
		return err
	}

	return m.settle(ctx, snap)
}

// settle captures the accrued cost and releases the remainder of the hold.
// Capture failures after bounded retries mark the session Failed with the
// accrued cost retained for manual reconciliation; release failures are
// logged only.
func (m *DefaultLifecycleManager) settle(ctx context.Context, sess models.Session) error {
	rec := models.SettlementRecord{
		SessionID: sess.ID,
		HoldID:    sess.HoldID,
		SettledAt: m.clock.Now(),
	}

	if sess.AccruedCost > 0 {
		attempts := 0
		err := payment.WithRetry(ctx, m.cfg.SettleMaxRetries, m.cfg.RetryBackoff, func(ctx context.Context) error {
			attempts++
			capCtx, cancel := context.WithTimeout(ctx, m.cfg.GatewayTimeout)
			defer cancel()
			return m.gateway.Capture(capCtx, sess.HoldID, sess.AccruedCost)
		})
		rec.RetryCount = attempts
		if err != nil {
			m.logger.Error("capture failed after retries, marking session failed",
				zap.String("sessionID", sess.ID), zap.Int("attempts", attempts), zap.Error(err))
			return m.markFailed(ctx, sess, rec, err)
		}
		rec.Captured = sess.AccruedCost
	}

	remainder := sess.FundingCap - sess.AccruedCost
	if remainder > 0 {
		err := payment.WithRetry(ctx, m.cfg.SettleMaxRetries, m.cfg.RetryBackoff, func(ctx context.Context) error {
			relCtx, cancel := context.WithTimeout(ctx, m.cfg.GatewayTimeout)
			defer cancel()
			return m.gateway.Release(relCtx, sess.HoldID, remainder)
		})
		if err != nil {
			// Best-effort: the hold expires processor-side eventually.
			m.logger.Warn("release failed, hold remainder left to expire",
				zap.String("sessionID", sess.ID), zap.Int64("remainder", remainder), zap.Error(err))
		} else {
			rec.Released = remainder
		}
	}

	m.finalize(ctx, sess.ID, rec)
	m.logger.Info("session settled",
		zap.String("sessionID", sess.ID), zap.String("status", sess.Status),
		zap.Int64("captured", rec.Captured), zap.Int64("released", rec.Released))
	return nil
}

// markFailed records an unrecoverable settlement error. The accrued cost is
// kept as-is so the discrepancy is visible to reconciliation.
func (m *DefaultLifecycleManager) markFailed(ctx context.Context, sess models.Session, rec models.SettlementRecord, cause error) error {
	rec.Failed = true
	rec.Error = cause.Error()

	_ = m.registry.withEntry(sess.ID, func(e *entry) error {
		e.sess.Status = models.SessionFailed
		e.sess.UpdatedAt = m.clock.Now()
		return nil
	})
	m.finalize(ctx, sess.ID, rec)
	return payment.ErrCaptureFailed
}

// finalize persists the terminal session and settlement record, then emits
// the terminal billing update.
func (m *DefaultLifecycleManager) finalize(ctx context.Context, sessionID string, rec models.SettlementRecord) {
	_ = m.registry.withEntry(sessionID, func(e *entry) error {
		if err := m.repo.Save(ctx, e.sess); err != nil {
			m.logger.Error("failed to persist terminal session", zap.String("sessionID", sessionID), zap.Error(err))
		}
		m.registry.publish(e)
		return nil
	})
	if err := m.repo.SaveSettlement(ctx, rec); err != nil {
		m.logger.Error("failed to persist settlement record", zap.String("sessionID", sessionID), zap.Error(err))
	}
}

// GetSession returns a snapshot from the registry, falling back to durable
// storage for sessions past their grace window.
func (m *DefaultLifecycleManager) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	sess, err := m.registry.Get(sessionID)
	if err == nil {
		return &sess, nil
	}
	stored, repoErr := m.repo.GetByID(ctx, sessionID)
	if repoErr != nil {
		return nil, repoErr
	}
	if stored == nil {
		return nil, ErrSessionNotFound
	}
	return stored, nil
}

// Subscribe exposes the registry's billing feed.
func (m *DefaultLifecycleManager) Subscribe(sessionID string) (<-chan models.BillingUpdate, func(), error) {
	return m.registry.Subscribe(sessionID)
}

func (m *DefaultLifecycleManager) releaseBestEffort(holdID string, amount int64) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.GatewayTimeout)
	defer cancel()
	if err := m.gateway.Release(ctx, holdID, amount); err != nil {
		m.logger.Warn("failed to release orphaned hold", zap.String("holdID", holdID), zap.Error(err))
	}
}
