// SPDX-License-Identifier: MIT
package osc

import (
	"math"
	"sync/atomic"
)

func storeFloat(a *atomic.Uint64, v float64) { a.Store(math.Float64bits(v)) }
func loadFloat(a *atomic.Uint64) float64     { return math.Float64frombits(a.Load()) }

// glideParam is one linearly ramped oscillator field. The tuning
// worker writes target and step; the audio thread advances current.
// The fields are independently atomic, so a read during a retune may
// pair a fresh step with a stale target for one sample, which is the
// documented trade: bounded staleness instead of a lock on the audio
// path.
type glideParam struct {
	current atomic.Uint64
	target  atomic.Uint64
	step    atomic.Uint64
}

// set aims the ramp at a new target over the given number of samples,
// restarting from wherever the current value happens to be. The target
// is published before the step so an interleaved advance never ramps
// toward a stale bound with a fresh direction.
func (g *glideParam) set(target float64, steps int) {
	if steps < 1 {
		steps = 1
	}
	cur := loadFloat(&g.current)
	storeFloat(&g.target, target)
	storeFloat(&g.step, (target-cur)/float64(steps))
}

// advance moves current one step toward target and returns it,
// clamping in the direction of travel so the ramp never overshoots.
// A settled ramp (zero step) costs two atomic loads.
func (g *glideParam) advance() float64 {
	cur := loadFloat(&g.current)
	step := loadFloat(&g.step)
	if step == 0 {
		return cur
	}
	target := loadFloat(&g.target)
	cur += step
	if (step > 0 && cur >= target) || (step < 0 && cur <= target) {
		cur = target
		storeFloat(&g.step, 0)
	}
	storeFloat(&g.current, cur)
	return cur
}

// value returns the instantaneous position without advancing.
func (g *glideParam) value() float64 { return loadFloat(&g.current) }

// reset snaps the ramp to v immediately.
func (g *glideParam) reset(v float64) {
	storeFloat(&g.step, 0)
	storeFloat(&g.target, v)
	storeFloat(&g.current, v)
}

// Oscillator is one glide-capable wavetable voice. Next is called by
// the audio thread only; TuneAndSetAmp by the tuning worker only;
// Reset from a control context with audio stopped.
type Oscillator struct {
	table atomic.Pointer[Wavetable]

	inc glideParam
	amp glideParam

	// Audio-thread owned.
	pos float64

	// Control-time constants, rewritten only by Reset.
	invRate float64
	nyquist float64
	sizeF   float64
}

// NewOscillator creates a silent voice reading wt at the given sample
// rate. wt must not be nil; it is never checked again on the audio
// path.
func NewOscillator(sampleRate float64, wt *Wavetable) *Oscillator {
	o := &Oscillator{}
	o.table.Store(wt)
	o.sizeF = wt.sizeF
	o.Reset(sampleRate)
	return o
}

// TuneAndSetAmp aims the voice at a frequency and amplitude, both
// ramped over steps samples. The frequency is clamped to [0, nyquist]
// before being mapped to a table increment of size*f/rate steps per
// sample.
func (o *Oscillator) TuneAndSetAmp(freq, amp float64, steps int) {
	if freq < 0 {
		freq = 0
	} else if freq > o.nyquist {
		freq = o.nyquist
	}
	o.inc.set(o.sizeF*freq*o.invRate, steps)
	o.amp.set(amp, steps)
}

// SetWavetable swaps the cycle shape. The new table must have the same
// length as the one given at construction.
func (o *Oscillator) SetWavetable(wt *Wavetable) { o.table.Store(wt) }

// Next produces one output sample: linear interpolation between the
// two table entries around the fractional position, advanced by the
// possibly still-gliding increment, scaled by the possibly
// still-gliding amplitude. No allocation, no branches beyond the
// wrap.
func (o *Oscillator) Next() float64 {
	wt := o.table.Load()
	idx := int(o.pos)
	a := wt.samples[idx]
	b := wt.samples[(idx+1)&wt.mask]
	frac := o.pos - float64(idx)
	out := a + frac*(b-a)

	// The increment never exceeds half the table length (nyquist
	// clamp), so one subtraction is enough to wrap.
	o.pos += o.inc.advance()
	if o.pos >= o.sizeF {
		o.pos -= o.sizeF
	}
	return out * o.amp.advance()
}

// Increment returns the instantaneous table increment. Diagnostic.
func (o *Oscillator) Increment() float64 { return o.inc.value() }

// Amplitude returns the instantaneous amplitude. Diagnostic.
func (o *Oscillator) Amplitude() float64 { return o.amp.value() }

// Frequency returns the instantaneous frequency in Hz. Diagnostic.
func (o *Oscillator) Frequency() float64 {
	return o.inc.value() / (o.sizeF * o.invRate)
}

// Reset mutes the voice, rewinds its phase and rebinds the derived
// rate constants. Must not race the audio thread.
func (o *Oscillator) Reset(sampleRate float64) {
	o.pos = 0
	o.invRate = 1 / sampleRate
	o.nyquist = sampleRate / 2
	o.inc.reset(0)
	o.amp.reset(0)
}
