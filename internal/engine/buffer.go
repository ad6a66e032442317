// SPDX-License-Identifier: MIT
package engine

import (
	"math"
	"sync/atomic"

	"github.com/W47K3R9/SpectralDev/internal/osc"
	"github.com/W47K3R9/SpectralDev/internal/ring"
)

// bufferManager is the audio-thread side of the cycle. Per sample it
// feeds the ring, hands completed blocks to the transform worker when
// the scratch gate is open, and renders the bank through the output
// stage: gain, then a one-pole lowpass. All methods except process are
// called from a control context.
type bufferManager struct {
	ring *ring.Buffer
	bank *osc.Bank
	calc *calcRunner

	alpha  atomic.Uint64 // one-pole coefficient, 1 bypasses the filter
	cutoff atomic.Uint64 // configured cutoff in Hz, kept for reporting
	gain   atomic.Uint64
	freeze atomic.Bool

	// Audio-thread owned filter state.
	prev float64

	rate float64
}

func newBufferManager(rb *ring.Buffer, bank *osc.Bank, calc *calcRunner, sampleRate float64) *bufferManager {
	m := &bufferManager{ring: rb, bank: bank, calc: calc, rate: sampleRate}
	storeFloat(&m.alpha, 1)
	storeFloat(&m.gain, 1)
	return m
}

// process consumes input and renders len(out) samples of output.
// Input past len(in) is taken as silence. Audio thread only: no locks,
// no allocation, no logging.
func (m *bufferManager) process(in, out []float64) {
	alpha := loadFloat(&m.alpha)
	gain := loadFloat(&m.gain)
	frozen := m.freeze.Load()
	keep := 1 - alpha
	prev := m.prev

	n := len(in)
	if n > len(out) {
		n = len(out)
	}
	for i := range out {
		var v float64
		if i < n {
			v = in[i]
		}
		m.ring.FillInput(v)
		if m.ring.Advance() && !frozen && m.calc.fftGate.completed() {
			// Block complete and the scratch is free: hand it off. A
			// busy worker means this block is dropped and the next
			// wrap retries.
			m.calc.fftGate.clear()
			m.ring.CopyToScratch()
			m.calc.fftGate.notify()
		}
		prev = keep*prev + alpha*(m.bank.Next()*gain)
		out[i] = prev
	}
	m.prev = prev
}

// setCutoff maps a cutoff in Hz onto the one-pole coefficient. A
// non-positive cutoff bypasses the filter.
func (m *bufferManager) setCutoff(hz float64) {
	storeFloat(&m.cutoff, hz)
	if hz <= 0 {
		storeFloat(&m.alpha, 1)
		return
	}
	storeFloat(&m.alpha, 1-math.Exp(-2*math.Pi*hz/m.rate))
}

// setGain sets the output gain, clamped to [0, 2].
func (m *bufferManager) setGain(g float64) {
	if g < 0 {
		g = 0
	} else if g > 2 {
		g = 2
	}
	storeFloat(&m.gain, g)
}

// reset clears the filter state and rebinds the rate, recomputing the
// coefficient so the configured cutoff keeps its response.
func (m *bufferManager) reset(sampleRate float64) {
	m.rate = sampleRate
	m.prev = 0
	m.setCutoff(loadFloat(&m.cutoff))
}
