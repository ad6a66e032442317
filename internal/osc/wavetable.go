// SPDX-License-Identifier: MIT

/*
Package osc implements the resynthesis side of the engine: a bank of
wavetable oscillators tuned to the extracted spectral peaks. The bank
is touched from two threads, the tuning worker writing glide targets
and the audio thread advancing phases, so every cross-thread field is
a per-field atomic; a briefly stale increment costs one sample of
pitch, never a torn value.
*/
package osc

import (
	"fmt"
	"math"
	"strings"

	"github.com/W47K3R9/SpectralDev/pkg/bitint"
)

// MinTableSize and MaxTableSize bound wavetable lengths the same way
// the transform bounds block sizes.
const (
	MinTableSize = 16
	MaxTableSize = 2048
)

// Waveform selects the cycle shape the bank resynthesizes with.
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Square
	Sawtooth
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Triangle:
		return "triangle"
	case Square:
		return "square"
	case Sawtooth:
		return "sawtooth"
	default:
		return "unknown"
	}
}

// ParseWaveform converts a string name (case-insensitive) to a
// Waveform. Returns Sine and an error if the name is unknown.
func ParseWaveform(name string) (Waveform, error) {
	switch strings.ToLower(name) {
	case "sine", "sin":
		return Sine, nil
	case "triangle", "tri":
		return Triangle, nil
	case "square":
		return Square, nil
	case "sawtooth", "saw":
		return Sawtooth, nil
	default:
		return Sine, fmt.Errorf("unknown waveform name: %q", name)
	}
}

// Wavetable is one immutable waveform cycle, read by oscillators with
// linear interpolation at a fractional index. Safe to share across any
// number of oscillators and threads once built.
type Wavetable struct {
	samples []float64
	mask    int
	sizeF   float64
}

// NewWavetable builds one cycle of the given shape at a power-of-two
// length.
func NewWavetable(shape Waveform, size int) (*Wavetable, error) {
	if size < MinTableSize || size > MaxTableSize || !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("wavetable size must be a power of two between %d and %d, got %d",
			MinTableSize, MaxTableSize, size)
	}
	t := &Wavetable{
		samples: make([]float64, size),
		mask:    size - 1,
		sizeF:   float64(size),
	}
	fillCycle(t.samples, shape)
	return t, nil
}

// At returns the sample at index i. No range check; the oscillator
// keeps its index valid by construction.
func (t *Wavetable) At(i int) float64 { return t.samples[i] }

// Len returns the table length.
func (t *Wavetable) Len() int { return len(t.samples) }

func fillCycle(samples []float64, shape Waveform) {
	n := len(samples)
	switch shape {
	case Triangle:
		// Rises to +1 at a quarter cycle, falls through zero to -1 at
		// three quarters, returns to zero.
		for i := range samples {
			phase := float64(i) / float64(n)
			switch {
			case phase < 0.25:
				samples[i] = 4 * phase
			case phase < 0.75:
				samples[i] = 2 - 4*phase
			default:
				samples[i] = 4*phase - 4
			}
		}
	case Square:
		for i := range samples {
			if i < n/2 {
				samples[i] = 1
			} else {
				samples[i] = -1
			}
		}
	case Sawtooth:
		// Rising ramp from -1 to just under +1.
		for i := range samples {
			samples[i] = 2*float64(i)/float64(n) - 1
		}
	default:
		for i := range samples {
			samples[i] = math.Sin(2 * math.Pi * float64(i) / float64(n))
		}
	}
}
