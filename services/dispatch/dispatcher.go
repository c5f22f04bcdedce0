package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"soulseer/models"
	"soulseer/services/rates"
	"soulseer/services/session"
	"soulseer/services/tasks"
	"soulseer/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Dispatcher matches on-demand reading requests to readers. Requests live
// for a bounded TTL; acceptance is a compare-and-set on status, so a request
// is accepted at most once and an expired request can never be accepted.
type Dispatcher interface {
	SendReadingRequest(ctx context.Context, clientID, readerID, readingType, urgency, message string) (*models.ReadingRequest, error)
	AcceptRequest(ctx context.Context, requestID string) (*models.Session, error)
	DeclineRequest(ctx context.Context, requestID string) error
	GetRequest(ctx context.Context, requestID string) (*models.ReadingRequest, error)
	ExpireIfDue(ctx context.Context, requestID string) error
}

// DefaultDispatcher implements Dispatcher with an in-process table guarded
// per request, mirrored into Redis for cheap status polling by clients.
type DefaultDispatcher struct {
	sessions session.LifecycleService
	rates    *rates.Catalog
	cache    *redis.Client
	taskq    *asynq.Client
	clock    utils.Clock
	ids      utils.IDGenerator
	logger   *zap.Logger
	ttl      time.Duration

	mu       sync.RWMutex
	requests map[string]*requestEntry
}

type requestEntry struct {
	mu       sync.Mutex
	req      models.ReadingRequest
	evicting bool
}

func NewDispatcher(
	sessions session.LifecycleService,
	rateCatalog *rates.Catalog,
	cache *redis.Client,
	taskq *asynq.Client,
	clock utils.Clock,
	ids utils.IDGenerator,
	logger *zap.Logger,
	ttl time.Duration,
) *DefaultDispatcher {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &DefaultDispatcher{
		sessions: sessions,
		rates:    rateCatalog,
		cache:    cache,
		taskq:    taskq,
		clock:    clock,
		ids:      ids,
		logger:   logger,
		ttl:      ttl,
		requests: make(map[string]*requestEntry),
	}
}

func (d *DefaultDispatcher) SendReadingRequest(ctx context.Context, clientID, readerID, readingType, urgency, message string) (*models.ReadingRequest, error) {
	// Resolve up front so a request is never created for an unknown type.
	if _, err := d.rates.Resolve(readerID, readingType); err != nil {
		return nil, err
	}

	now := d.clock.Now()
	req := models.ReadingRequest{
		ID:          d.ids.NewID(),
		ClientID:    clientID,
		ReaderID:    readerID,
		ReadingType: readingType,
		Urgency:     urgency,
		Message:     message,
		Status:      models.RequestOpen,
		CreatedAt:   now,
		ExpiresAt:   now.Add(d.ttl),
	}

	d.mu.Lock()
	d.requests[req.ID] = &requestEntry{req: req}
	d.mu.Unlock()

	d.mirror(ctx, req)
	d.scheduleSweep(req)
	d.logger.Info("reading request sent",
		zap.String("requestID", req.ID), zap.String("readerID", readerID),
		zap.Time("expiresAt", req.ExpiresAt))
	return &req, nil
}

// AcceptRequest transitions Open to Accepted exactly once and creates the
// metered session. A request past its expiry is expired instead, whatever
// the stored status said.
func (d *DefaultDispatcher) AcceptRequest(ctx context.Context, requestID string) (*models.Session, error) {
	e, err := d.lookup(requestID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	d.lazyExpire(ctx, e)
	if e.req.Status != models.RequestOpen {
		return nil, ErrRequestClosed
	}

	rate, err := d.rates.Resolve(e.req.ReaderID, e.req.ReadingType)
	if err != nil {
		return nil, err
	}
	sess, err := d.sessions.RequestSession(ctx, e.req.ClientID, e.req.ReaderID, e.req.ReadingType, rate)
	if err != nil {
		// The request stays open; the client may retry until expiry.
		return nil, err
	}

	e.req.Status = models.RequestAccepted
	e.req.SessionID = sess.ID
	d.scheduleEviction(e)
	d.mirror(ctx, e.req)
	d.logger.Info("reading request accepted",
		zap.String("requestID", requestID), zap.String("sessionID", sess.ID))
	return sess, nil
}

func (d *DefaultDispatcher) DeclineRequest(ctx context.Context, requestID string) error {
	e, err := d.lookup(requestID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	d.lazyExpire(ctx, e)
	if e.req.Status != models.RequestOpen {
		return ErrRequestClosed
	}
	e.req.Status = models.RequestDeclined
	d.scheduleEviction(e)
	d.mirror(ctx, e.req)
	d.logger.Info("reading request declined", zap.String("requestID", requestID))
	return nil
}

func (d *DefaultDispatcher) GetRequest(ctx context.Context, requestID string) (*models.ReadingRequest, error) {
	e, err := d.lookup(requestID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	d.lazyExpire(ctx, e)
	req := e.req
	return &req, nil
}

// ExpireIfDue is the background sweep entry point, driven by a deferred
// task scheduled at the request's expiry instant.
func (d *DefaultDispatcher) ExpireIfDue(ctx context.Context, requestID string) error {
	e, err := d.lookup(requestID)
	if err != nil {
		if err == ErrRequestNotFound {
			return nil
		}
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	d.lazyExpire(ctx, e)
	return nil
}

// lazyExpire flips an overdue Open request to Expired. Caller holds e.mu.
func (d *DefaultDispatcher) lazyExpire(ctx context.Context, e *requestEntry) {
	if e.req.Status == models.RequestOpen && !d.clock.Now().Before(e.req.ExpiresAt) {
		e.req.Status = models.RequestExpired
		d.scheduleEviction(e)
		d.mirror(ctx, e.req)
		d.logger.Info("reading request expired", zap.String("requestID", e.req.ID))
	}
}

// scheduleEviction drops a terminal request from the in-process table after
// one more TTL. The Redis mirror keeps the status readable past that point.
// Caller holds e.mu.
func (d *DefaultDispatcher) scheduleEviction(e *requestEntry) {
	if e.evicting {
		return
	}
	e.evicting = true
	id := e.req.ID
	d.clock.AfterFunc(d.ttl, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.requests, id)
	})
}

// Len reports the number of tracked requests. Test helper.
func (d *DefaultDispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.requests)
}

func (d *DefaultDispatcher) lookup(requestID string) (*requestEntry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.requests[requestID]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return e, nil
}

// scheduleSweep enqueues the deferred expiry task. Best-effort; lazy expiry
// on read covers a lost task.
func (d *DefaultDispatcher) scheduleSweep(req models.ReadingRequest) {
	if d.taskq == nil {
		return
	}
	task, opts, err := tasks.NewExpireRequestTask(req.ID, req.ExpiresAt)
	if err != nil {
		d.logger.Error("failed to build expiry task", zap.String("requestID", req.ID), zap.Error(err))
		return
	}
	if _, err := d.taskq.Enqueue(task, opts...); err != nil {
		d.logger.Warn("failed to enqueue expiry task", zap.String("requestID", req.ID), zap.Error(err))
	}
}

// mirror writes the request into Redis so status polls do not hit the
// dispatcher. Failures are logged, never fatal.
func (d *DefaultDispatcher) mirror(ctx context.Context, req models.ReadingRequest) {
	if d.cache == nil {
		return
	}
	data, err := json.Marshal(req)
	if err != nil {
		d.logger.Error("failed to marshal reading request", zap.Error(err))
		return
	}
	// Keep the mirror a bit past expiry so terminal statuses stay readable.
	if err := d.cache.Set(ctx, "request:"+req.ID, data, d.ttl*2).Err(); err != nil {
		d.logger.Warn("failed to mirror reading request", zap.String("requestID", req.ID), zap.Error(err))
	}
}
