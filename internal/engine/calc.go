// SPDX-License-Identifier: MIT
package engine

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/W47K3R9/SpectralDev/internal/analysis"
	"github.com/W47K3R9/SpectralDev/internal/fft"
	applog "github.com/W47K3R9/SpectralDev/internal/log"
	"github.com/W47K3R9/SpectralDev/internal/osc"
	"github.com/W47K3R9/SpectralDev/internal/ring"
)

func storeFloat(a *atomic.Uint64, v float64) { a.Store(math.Float64bits(v)) }
func loadFloat(a *atomic.Uint64) float64     { return math.Float64frombits(a.Load()) }

// calcRunner owns the transform worker and the tuning worker plus the
// state they share. The fft gate's completion flag doubles as the
// scratch ownership token: true means the audio thread may overwrite
// the scratch block, false means the transform still reads it.
type calcRunner struct {
	plan  *fft.Plan
	ring  *ring.Buffer
	bank  *osc.Bank
	peaks *analysis.PeakList

	fftGate  *gate // scratch handoff, audio thread to transform worker
	tuneGate *gate // fresh-peaks edge, transform worker to tuning worker

	threshold  atomic.Uint64
	voices     atomic.Int64
	continuous atomic.Bool

	// tuningIdle is false from the moment a tuning pass is requested
	// until the tuning worker finishes it. Together with the fft gate it
	// lets offline callers wait for a full analysis cycle to land.
	tuningIdle atomic.Bool

	// Serializes peak writes in the transform worker against peak
	// reads in the tuning worker, diagnostics and Reset.
	peaksMu sync.Mutex

	quit     chan struct{}
	stopped  atomic.Bool
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// newCalcRunner wires the shared state and starts both workers. The
// fft gate begins open so the very first completed block can be handed
// off; the tune gate begins closed because no peaks exist yet.
func newCalcRunner(plan *fft.Plan, rb *ring.Buffer, bank *osc.Bank, voices int, threshold float64, continuous bool) *calcRunner {
	c := &calcRunner{
		plan:     plan,
		ring:     rb,
		bank:     bank,
		peaks:    analysis.NewPeakList(plan.Size()),
		fftGate:  newGate(true),
		tuneGate: newGate(false),
		quit:     make(chan struct{}),
	}
	storeFloat(&c.threshold, threshold)
	c.voices.Store(int64(voices))
	c.continuous.Store(continuous)
	c.tuningIdle.Store(true)

	c.wg.Add(2)
	go c.transformWorker()
	go c.tuningWorker()
	return c
}

// transformWorker turns each handed-off block into a sorted peak list.
// One cycle per wakeup; a block boundary that arrives while a cycle is
// still running is dropped by the audio thread, not queued.
func (c *calcRunner) transformWorker() {
	defer c.wg.Done()
	applog.Debugf("CalcRunner: transform worker started")
	for {
		select {
		case <-c.quit:
			applog.Debugf("CalcRunner: transform worker stopping")
			return
		case <-c.fftGate.wake:
		}
		if c.stopped.Load() {
			applog.Debugf("CalcRunner: transform worker stopping")
			return
		}

		c.peaksMu.Lock()
		scratch := c.ring.Scratch()
		c.plan.Transform(scratch)
		c.peaks.Extract(scratch, loadFloat(&c.threshold))
		c.peaksMu.Unlock()

		// The peaks are fresh. A continuous-mode tuning pass is
		// requested before the fft gate reopens so that a caller
		// watching settled() never sees the gap between them.
		c.tuneGate.complete()
		if c.continuous.Load() {
			c.requestTune()
		}
		c.fftGate.complete()
	}
}

// tuningWorker re-aims the bank at the current peaks whenever a pass
// is requested.
func (c *calcRunner) tuningWorker() {
	defer c.wg.Done()
	applog.Debugf("CalcRunner: tuning worker started")
	for {
		select {
		case <-c.quit:
			applog.Debugf("CalcRunner: tuning worker stopping")
			return
		case <-c.tuneGate.wake:
		}
		if c.stopped.Load() {
			applog.Debugf("CalcRunner: tuning worker stopping")
			return
		}

		c.peaksMu.Lock()
		c.bank.Tune(c.peaks, int(c.voices.Load()))
		c.peaksMu.Unlock()
		c.tuningIdle.Store(true)
	}
}

// requestTune marks the current peaks consumed and wakes the tuning
// worker.
func (c *calcRunner) requestTune() {
	c.tuningIdle.Store(false)
	c.tuneGate.clear()
	c.tuneGate.notify()
}

// settled reports whether no analysis work is in flight: the transform
// worker has handed the scratch back and the last requested tuning
// pass has been applied.
func (c *calcRunner) settled() bool {
	return c.fftGate.completed() && c.tuningIdle.Load()
}

// peaksInto copies the most recent peak list into dst under the lock
// and returns the number of entries written.
func (c *calcRunner) peaksInto(dst []analysis.Peak) int {
	c.peaksMu.Lock()
	defer c.peaksMu.Unlock()
	return c.peaks.PeaksInto(dst)
}

// close stops both workers and waits for them. Idempotent. A worker
// woken by a stale notification checks the stopped flag and exits
// without running its cycle.
func (c *calcRunner) close() {
	c.stopOnce.Do(func() {
		c.stopped.Store(true)
		close(c.quit)
		c.wg.Wait()
		applog.Debugf("CalcRunner: workers joined")
	})
}
