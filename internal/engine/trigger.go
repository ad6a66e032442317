// SPDX-License-Identifier: MIT
package engine

import (
	"sync"
	"time"

	applog "github.com/W47K3R9/SpectralDev/internal/log"
)

// DefaultTuningInterval is the periodic tuning cadence used when the
// configured interval is invalid.
const DefaultTuningInterval = 500 * time.Millisecond

// TuningTrigger periodically requests a tuning pass while the engine
// is in triggered mode. In continuous mode its ticks are no-ops, since
// the transform worker requests tuning itself after every block. It
// runs in a separate goroutine managed by Start and Stop.
type TuningTrigger struct {
	calc     *calcRunner
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// newTuningTrigger creates a trigger ticking at the given interval.
// Non-positive intervals fall back to DefaultTuningInterval.
func newTuningTrigger(interval time.Duration, calc *calcRunner) *TuningTrigger {
	if interval <= 0 {
		applog.Warnf("TuningTrigger: invalid interval %s, defaulting to %s", interval, DefaultTuningInterval)
		interval = DefaultTuningInterval
	}
	return &TuningTrigger{calc: calc, interval: interval}
}

// Start launches the trigger goroutine. Calling Start on a running
// trigger is a no-op.
func (tr *TuningTrigger) Start() {
	tr.mu.Lock()
	if tr.ticker != nil {
		tr.mu.Unlock()
		applog.Warnf("TuningTrigger: Start called but already running")
		return
	}
	tr.ticker = time.NewTicker(tr.interval)
	tr.doneChan = make(chan struct{})
	ticker := tr.ticker
	doneChan := tr.doneChan
	tr.mu.Unlock()

	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		for {
			select {
			case <-ticker.C:
				tr.tick()
			case <-doneChan:
				return
			}
		}
	}()
	applog.Debugf("TuningTrigger: started (interval %s)", tr.interval)
}

// tick requests a tuning pass when triggered mode is active and the
// peaks changed since the last pass.
func (tr *TuningTrigger) tick() {
	if tr.calc.continuous.Load() {
		return
	}
	if tr.calc.tuneGate.completed() {
		tr.calc.requestTune()
	}
}

// SetInterval changes the tick cadence in place. Non-positive
// intervals are ignored.
func (tr *TuningTrigger) SetInterval(interval time.Duration) {
	if interval <= 0 {
		applog.Warnf("TuningTrigger: ignoring invalid interval %s", interval)
		return
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.interval = interval
	if tr.ticker != nil {
		tr.ticker.Reset(interval)
	}
}

// Interval returns the current cadence.
func (tr *TuningTrigger) Interval() time.Duration {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.interval
}

// Stop terminates the trigger goroutine and waits for it. Idempotent;
// a trigger that never started stops trivially.
func (tr *TuningTrigger) Stop() {
	tr.mu.Lock()
	if tr.ticker == nil {
		tr.mu.Unlock()
		return
	}
	ticker := tr.ticker
	doneChan := tr.doneChan
	tr.mu.Unlock()

	tr.stopOnce.Do(func() {
		ticker.Stop()
		close(doneChan)
		tr.wg.Wait()
		applog.Debugf("TuningTrigger: stopped")
	})
}
