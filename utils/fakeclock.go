package utils

import (
	"sync"
	"time"
)

// FakeClock is a deterministic Clock for tests. Time moves only through
// Advance, which delivers every due tick and fires every due timer.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	timers  []*fakeTimer
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{interval: d, next: c.now.Add(d), ch: make(chan time.Time, 64)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward. Tick timestamps are the scheduled tick
// instants, not the final time. Timer callbacks run on the caller's
// goroutine with no clock lock held.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now

	for _, t := range c.tickers {
		t.deliverUpTo(now)
	}

	var due []func()
	remaining := c.timers[:0]
	for _, t := range c.timers {
		if f, fired := t.fireIfDue(now); fired {
			due = append(due, f)
		} else {
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

// BlockUntilTickers waits until at least n tickers exist. Tests use it to
// let a metering goroutine register its ticker before time is advanced.
func (c *FakeClock) BlockUntilTickers(n int) {
	for {
		c.mu.Lock()
		ready := len(c.tickers) >= n
		c.mu.Unlock()
		if ready {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

type fakeTicker struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	ch       chan time.Time
	stopped  bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) deliverUpTo(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for !t.stopped && !t.next.After(now) {
		select {
		case t.ch <- t.next:
		default:
			// Buffer full: drop the oldest pending tick so the newest
			// always lands; a consumer computing from tick timestamps
			// must see time reach `now`.
			select {
			case <-t.ch:
			default:
			}
			select {
			case t.ch <- t.next:
			default:
			}
		}
		t.next = t.next.Add(t.interval)
	}
}

type fakeTimer struct {
	mu       sync.Mutex
	deadline time.Time
	f        func()
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) fireIfDue(now time.Time) (func(), bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.deadline.After(now) {
		return nil, false
	}
	t.stopped = true
	return t.f, true
}
