package session

import (
	"sync"
	"time"

	"soulseer/models"
	"soulseer/utils"
)

// entry couples a session with its meter state and subscribers. Each entry
// has its own mutex; sessions never block each other.
type entry struct {
	mu   sync.Mutex
	sess models.Session

	// Billing meter state, owned exclusively by this entry.
	elapsedSeconds int64
	lastTick       time.Time
	meterOn        bool
	stopMeter      chan struct{}

	subs    map[int]chan models.BillingUpdate
	nextSub int
	closed  bool
}

// Registry is the concurrency-safe store of in-flight sessions, one entry
// per session id. Entries outlive the terminal state by a grace window so
// late settlement confirmations still resolve.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	clock   utils.Clock
	grace   time.Duration
}

func NewRegistry(clock utils.Clock, grace time.Duration) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		clock:   clock,
		grace:   grace,
	}
}

// Create registers a new session. Fails with ErrDuplicateSession if an entry
// already exists for the id.
func (r *Registry) Create(sess models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[sess.ID]; exists {
		return ErrDuplicateSession
	}
	r.entries[sess.ID] = &entry{
		sess: sess,
		subs: make(map[int]chan models.BillingUpdate),
	}
	return nil
}

// Get returns a snapshot of the session.
func (r *Registry) Get(id string) (models.Session, error) {
	e, err := r.lookup(id)
	if err != nil {
		return models.Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess, nil
}

// withEntry runs fn while holding the entry's lock.
func (r *Registry) withEntry(id string, fn func(*entry) error) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e)
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

// Subscribe attaches a billing-update feed to the session. The current state
// is delivered immediately so a subscriber can join at any point; the channel
// closes after the terminal update.
func (r *Registry) Subscribe(id string) (<-chan models.BillingUpdate, func(), error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan models.BillingUpdate, 16)
	ch <- snapshot(e)
	if e.closed || e.sess.Terminal() {
		close(ch)
		return ch, func() {}, nil
	}

	key := e.nextSub
	e.nextSub++
	e.subs[key] = ch
	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if sub, ok := e.subs[key]; ok {
			delete(e.subs, key)
			close(sub)
		}
	}
	return ch, cancel, nil
}

// publish fans the current state out to subscribers. Caller holds e.mu.
// Slow subscribers are skipped rather than blocking the meter.
func (r *Registry) publish(e *entry) {
	u := snapshot(e)
	for _, ch := range e.subs {
		select {
		case ch <- u:
		default:
		}
	}
	if e.sess.Terminal() && !e.closed {
		e.closed = true
		for key, ch := range e.subs {
			delete(e.subs, key)
			close(ch)
		}
		r.scheduleRemoval(e.sess.ID)
	}
}

func snapshot(e *entry) models.BillingUpdate {
	return models.BillingUpdate{
		SessionID:      e.sess.ID,
		Status:         e.sess.Status,
		ElapsedSeconds: e.elapsedSeconds,
		AccruedCost:    e.sess.AccruedCost,
		EndReason:      e.sess.EndReason,
	}
}

// scheduleRemoval drops the entry once the grace window has passed.
func (r *Registry) scheduleRemoval(id string) {
	r.clock.AfterFunc(r.grace, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.entries, id)
	})
}

// Len reports the number of live entries. Test helper.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
