// SPDX-License-Identifier: MIT

/*
Package engine ties the analysis and resynthesis cycle together and
coordinates its three threads: the audio thread that accumulates input
samples and renders voices, the transform worker that turns completed
blocks into spectral peaks, and the tuning worker that aims the
oscillator bank at those peaks.

The threads never block each other. Each handoff edge is a gate, an
atomic completion flag paired with a buffered wake channel. At a block
boundary the audio thread either hands the block to the transform
worker or, if the previous block is still in flight, drops it and
keeps accumulating. Peaks flow on to the tuning worker either after
every block (continuous mode) or on a periodic trigger.
*/
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/W47K3R9/SpectralDev/internal/analysis"
	"github.com/W47K3R9/SpectralDev/internal/fft"
	applog "github.com/W47K3R9/SpectralDev/internal/log"
	"github.com/W47K3R9/SpectralDev/internal/osc"
	"github.com/W47K3R9/SpectralDev/internal/ring"
)

// DefaultVoices is the number of audible voices until a caller
// configures its own limit.
const DefaultVoices = 4

// Config fixes the structural choices an Engine is built with. The
// runtime controls live in Params and their setters.
type Config struct {
	SampleRate    float64
	FFTSize       int // analysis block length, power of two
	WavetableSize int // cycle table length, power of two
	Window        ring.WindowFunc
	Waveform      osc.Waveform

	Voices           int
	Threshold        float64
	GlideSteps       int
	TuningInterval   time.Duration
	ContinuousTuning bool
}

// DefaultConfig returns the standing defaults: CD-rate analysis over
// 1024-sample blocks resynthesized by four sine voices retuned after
// every block.
func DefaultConfig() Config {
	return Config{
		SampleRate:       44100,
		FFTSize:          1024,
		WavetableSize:    256,
		Window:           ring.Hann,
		Waveform:         osc.Sine,
		Voices:           DefaultVoices,
		GlideSteps:       osc.DefaultGlideSteps,
		TuningInterval:   DefaultTuningInterval,
		ContinuousTuning: true,
	}
}

// Engine is the facade over the whole cycle. ProcessChunk is the only
// method meant for the audio thread; everything else is control or
// diagnostic surface.
type Engine struct {
	cfg Config

	plan    *fft.Plan
	ring    *ring.Buffer
	bank    *osc.Bank
	calc    *calcRunner
	buf     *bufferManager
	trigger *TuningTrigger

	closeOnce sync.Once
}

// New builds the cycle, starts the workers and the tuning trigger,
// and returns the engine ready for ProcessChunk calls.
func New(cfg Config) (*Engine, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("engine: sample rate must be positive, got %g", cfg.SampleRate)
	}
	plan, err := fft.NewPlan(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	rb, err := ring.New(cfg.FFTSize, cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	bank, err := osc.NewBank(cfg.SampleRate, cfg.WavetableSize, cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	voices := cfg.Voices
	if voices <= 0 {
		voices = DefaultVoices
	}
	bank.SelectWaveform(cfg.Waveform)
	if cfg.GlideSteps > 0 {
		bank.SetGlideSteps(cfg.GlideSteps)
	}

	calc := newCalcRunner(plan, rb, bank, voices, cfg.Threshold, cfg.ContinuousTuning)
	e := &Engine{
		cfg:     cfg,
		plan:    plan,
		ring:    rb,
		bank:    bank,
		calc:    calc,
		buf:     newBufferManager(rb, bank, calc, cfg.SampleRate),
		trigger: newTuningTrigger(cfg.TuningInterval, calc),
	}
	e.trigger.Start()

	applog.Infof("Engine: initialized (rate %g Hz, block %d, %.4f Hz/bin, %d voices)",
		cfg.SampleRate, cfg.FFTSize, bank.FrequencyResolution(), voices)
	return e, nil
}

// ProcessChunk analyzes one chunk of input and renders one chunk of
// output. Input past len(in) is taken as silence. Audio thread only.
func (e *Engine) ProcessChunk(in, out []float64) { e.buf.process(in, out) }

// SetVoices bounds the number of audible voices from the next tuning
// pass on, clamped to [0, osc.MaxOscillators].
func (e *Engine) SetVoices(n int) {
	if n < 0 {
		n = 0
	} else if n > osc.MaxOscillators {
		n = osc.MaxOscillators
	}
	e.calc.voices.Store(int64(n))
}

// SetThreshold sets the spectral magnitude floor below which bins are
// never considered peaks. Values at or below the built-in noise floor
// have no further effect.
func (e *Engine) SetThreshold(v float64) { storeFloat(&e.calc.threshold, v) }

// SetGlideSteps sets the retune ramp length in samples, minimum one.
func (e *Engine) SetGlideSteps(steps int) { e.bank.SetGlideSteps(steps) }

// SelectWaveform switches every voice to the given cycle shape.
func (e *Engine) SelectWaveform(w osc.Waveform) { e.bank.SelectWaveform(w) }

// SetFrequencyOffset shifts every tuned voice by hz on the next
// tuning pass.
func (e *Engine) SetFrequencyOffset(hz float64) { e.bank.SetFrequencyOffset(hz) }

// SetCutoff sets the output lowpass cutoff in Hz. Non-positive values
// bypass the filter.
func (e *Engine) SetCutoff(hz float64) { e.buf.setCutoff(hz) }

// SetGain sets the output gain, clamped to [0, 2].
func (e *Engine) SetGain(g float64) { e.buf.setGain(g) }

// SetFreeze holds the current spectrum: completed blocks stop being
// handed to the transform until released, while the voices keep
// playing what they were last tuned to.
func (e *Engine) SetFreeze(on bool) { e.buf.freeze.Store(on) }

// SetContinuousTuning switches between retuning after every analyzed
// block and retuning on the periodic trigger.
func (e *Engine) SetContinuousTuning(on bool) { e.calc.continuous.Store(on) }

// SetTuningInterval changes the triggered-mode cadence. Non-positive
// intervals are ignored.
func (e *Engine) SetTuningInterval(d time.Duration) { e.trigger.SetInterval(d) }

// TriggerTuning requests one tuning pass right now, regardless of
// mode or whether the peaks changed since the last pass.
func (e *Engine) TriggerTuning() { e.calc.requestTune() }

// Settle blocks until no analysis work is in flight or the timeout
// elapses, reporting whether it settled. Live callers never need this;
// offline rendering uses it so each block's tuning is applied before
// further output is synthesized.
func (e *Engine) Settle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for !e.calc.settled() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(50 * time.Microsecond)
	}
	return true
}

// Reset rewinds the whole cycle for a new sample rate: the ring and
// peaks are cleared, every voice is muted and the output stage
// recomputes its coefficient. Must not run concurrently with
// ProcessChunk.
func (e *Engine) Reset(sampleRate float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("engine: sample rate must be positive, got %g", sampleRate)
	}
	e.calc.peaksMu.Lock()
	e.ring.Reset()
	e.calc.peaks.Reset()
	e.bank.Reset(sampleRate)
	e.calc.peaksMu.Unlock()
	e.buf.reset(sampleRate)

	// The scratch is free again and there are no peaks to consume.
	e.calc.fftGate.complete()
	e.calc.tuneGate.clear()
	e.calc.tuningIdle.Store(true)

	e.cfg.SampleRate = sampleRate
	applog.Infof("Engine: reset to %g Hz (%.4f Hz/bin)", sampleRate, e.bank.FrequencyResolution())
	return nil
}

// RingIndex reports the write position inside the currently
// accumulating block. Approximate while audio runs; diagnostic only.
func (e *Engine) RingIndex() int { return e.ring.Index() }

// PeaksInto copies the most recent peak list into dst and returns the
// number of entries written.
func (e *Engine) PeaksInto(dst []analysis.Peak) int { return e.calc.peaksInto(dst) }

// FrequencyForBin maps a spectral bin index to its center frequency
// in Hz.
func (e *Engine) FrequencyForBin(bin int) float64 {
	return float64(bin) * e.bank.FrequencyResolution()
}

// SampleRate returns the rate the engine currently runs at.
func (e *Engine) SampleRate() float64 { return e.cfg.SampleRate }

// BlockSize returns the analysis block length in samples.
func (e *Engine) BlockSize() int { return e.plan.Size() }

// Close stops the tuning trigger and joins both workers. Idempotent.
// The audio thread must have stopped calling ProcessChunk first.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.trigger.Stop()
		e.calc.close()
		applog.Infof("Engine: closed")
	})
	return nil
}
