package session

import (
	"context"

	"soulseer/models"

	"go.uber.org/zap"
)

// ProratedCost returns the cost in cents of elapsedSeconds at ratePerMinute
// cents, rounded half-up. Integer arithmetic only; monetary values never
// touch binary floating point.
func ProratedCost(elapsedSeconds, ratePerMinute int64) int64 {
	if elapsedSeconds <= 0 || ratePerMinute <= 0 {
		return 0
	}
	return (elapsedSeconds*ratePerMinute + 30) / 60
}

// startMeter launches the ticking goroutine for an Active session. Caller
// holds e.mu and has verified the session is Active with no meter running.
func (m *DefaultLifecycleManager) startMeter(e *entry) {
	e.meterOn = true
	e.stopMeter = make(chan struct{})
	e.lastTick = m.clock.Now()

	stop := e.stopMeter
	go m.runMeter(e, stop)
}

// runMeter drives one session's billing. Each tick recomputes cost from
// exact wall-clock elapsed time, not tick count. The tick itself never calls
// out to the gateway; exhaustion hands off to EndSession on a fresh
// goroutine so metering halts immediately regardless of settlement latency.
func (m *DefaultLifecycleManager) runMeter(e *entry, stop <-chan struct{}) {
	ticker := m.clock.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C():
			e.mu.Lock()
			if !e.meterOn || e.sess.Status != models.SessionActive {
				e.mu.Unlock()
				return
			}
			e.lastTick = now
			e.elapsedSeconds = int64(now.Sub(*e.sess.StartTime).Seconds())
			projected := ProratedCost(e.elapsedSeconds, e.sess.RatePerMinute)

			if projected > e.sess.FundingCap {
				// Clamp, signal exhaustion and stop ticking this instant.
				e.sess.AccruedCost = e.sess.FundingCap
				e.meterOn = false
				close(e.stopMeter)
				m.registry.publish(e)
				id := e.sess.ID
				e.mu.Unlock()

				m.logger.Info("funding exhausted, ending session", zap.String("sessionID", id))
				go func() {
					if err := m.EndSession(context.Background(), id, ReasonFundingExhausted); err != nil {
						m.logger.Error("failed to end exhausted session",
							zap.String("sessionID", id), zap.Error(err))
					}
				}()
				return
			}

			e.sess.AccruedCost = projected
			m.registry.publish(e)
			e.mu.Unlock()
		}
	}
}

// haltMeter stops the ticker if running. Caller holds e.mu.
func haltMeter(e *entry) {
	if e.meterOn {
		e.meterOn = false
		close(e.stopMeter)
	}
}
