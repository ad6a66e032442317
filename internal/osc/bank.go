// SPDX-License-Identifier: MIT
package osc

import (
	"fmt"
	"sync/atomic"

	"github.com/W47K3R9/SpectralDev/internal/analysis"
)

// MaxOscillators caps the number of voices a bank carries. Beyond this
// the per-sample summing cost stops being worth additional partials.
const MaxOscillators = 46

// DefaultGlideSteps is the ramp length used until a caller configures
// its own.
const DefaultGlideSteps = 64

// Bank owns every voice plus one shared wavetable per shape. Tuning
// maps peak entries to voices loudest-first; voices beyond the
// requested count are ramped to silence, never cut.
type Bank struct {
	oscs   [MaxOscillators]*Oscillator
	tables [4]*Wavetable

	shape      atomic.Int64
	glideSteps atomic.Int64
	freqOffset atomic.Uint64

	// Derived constants, rewritten only by Reset.
	freqRes       float64
	ampCorrection float64
	blockSize     float64
}

// NewBank builds the four wavetables at tableSize and creates every
// voice, all reading the sine table, muted, at the given rate. The
// amplitude correction 2/blockSize undoes the transform's scaling so
// a full-scale sinusoid resynthesizes at unit amplitude.
func NewBank(sampleRate float64, tableSize, blockSize int) (*Bank, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", sampleRate)
	}
	b := &Bank{
		freqRes:       sampleRate / float64(blockSize),
		ampCorrection: 2 / float64(blockSize),
		blockSize:     float64(blockSize),
	}
	for i, shape := range []Waveform{Sine, Triangle, Square, Sawtooth} {
		wt, err := NewWavetable(shape, tableSize)
		if err != nil {
			return nil, err
		}
		b.tables[i] = wt
	}
	for i := range b.oscs {
		b.oscs[i] = NewOscillator(sampleRate, b.tables[Sine])
	}
	b.glideSteps.Store(DefaultGlideSteps)
	return b, nil
}

// Tune aims the first min(voices, valid peaks) voices at their peak's
// frequency and corrected magnitude and ramps every remaining voice to
// silence. Called from the tuning worker; the caller holds the peak
// list lock.
func (b *Bank) Tune(peaks *analysis.PeakList, voices int) {
	if voices > MaxOscillators {
		voices = MaxOscillators
	}
	active := peaks.Valid()
	if active > voices {
		active = voices
	}
	if active < 0 {
		active = 0
	}

	steps := int(b.glideSteps.Load())
	offset := loadFloat(&b.freqOffset)

	for i, o := range b.oscs {
		if i < active {
			p := peaks.At(i)
			o.TuneAndSetAmp(float64(p.Bin)*b.freqRes+offset, p.Mag*b.ampCorrection, steps)
		} else {
			o.TuneAndSetAmp(0, 0, steps)
		}
	}
}

// Next advances every voice and returns their sum. Audio thread only;
// no allocation.
func (b *Bank) Next() float64 {
	var sum float64
	for _, o := range b.oscs {
		sum += o.Next()
	}
	return sum
}

// SelectWaveform points every voice at the shape's shared table. Safe
// during playback; each voice picks up the new table on its next
// sample.
func (b *Bank) SelectWaveform(w Waveform) {
	if w < Sine || w > Sawtooth {
		w = Sine
	}
	b.shape.Store(int64(w))
	wt := b.tables[w]
	for _, o := range b.oscs {
		o.SetWavetable(wt)
	}
}

// Waveform returns the shape every voice currently reads.
func (b *Bank) Waveform() Waveform { return Waveform(b.shape.Load()) }

// SetGlideSteps configures the ramp length for subsequent retunes.
// Values below one sample are raised to one.
func (b *Bank) SetGlideSteps(steps int) {
	if steps < 1 {
		steps = 1
	}
	b.glideSteps.Store(int64(steps))
}

// GlideSteps returns the current ramp length.
func (b *Bank) GlideSteps() int { return int(b.glideSteps.Load()) }

// SetFrequencyOffset shifts every tuned frequency by hz, applied on
// the next tuning pass before the nyquist clamp.
func (b *Bank) SetFrequencyOffset(hz float64) { storeFloat(&b.freqOffset, hz) }

// FrequencyOffset returns the configured tuning shift in Hz.
func (b *Bank) FrequencyOffset() float64 { return loadFloat(&b.freqOffset) }

// FrequencyResolution returns the Hz width of one spectral bin.
func (b *Bank) FrequencyResolution() float64 { return b.freqRes }

// Voice exposes one voice for inspection. Diagnostic.
func (b *Bank) Voice(i int) *Oscillator { return b.oscs[i] }

// Reset mutes and rewinds every voice and rebinds the rate-derived
// constants. Must not race the audio thread or the tuning worker.
func (b *Bank) Reset(sampleRate float64) {
	b.freqRes = sampleRate / b.blockSize
	for _, o := range b.oscs {
		o.Reset(sampleRate)
	}
}
