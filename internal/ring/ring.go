// SPDX-License-Identifier: MIT

/*
Package ring implements the sample accumulator between the audio thread
and the analysis cycle. Incoming samples land in a circular input array
sized to one analysis block; when the write index wraps, the block is
complete and can be copied out through the analysis window into a
scratch array of complex samples that the transform then mutates freely.

The input and scratch arrays are separate on purpose: the transform
works in place and destroys its buffer, while the input array keeps
accumulating the next block undisturbed.
*/
package ring

import (
	"fmt"

	"github.com/W47K3R9/SpectralDev/pkg/bitint"
)

// compensationGain lifts the input to offset the energy the analysis
// window removes from the block edges.
const compensationGain = 1.2

// Buffer is single-writer: all methods except construction are called
// from the audio thread only. No method allocates or locks.
type Buffer struct {
	input   []float64
	scratch []complex128
	coeffs  []float64
	mask    int
	idx     int
}

// New creates a buffer for blocks of the given power-of-two size,
// windowed by fn on copy-out.
func New(size int, fn WindowFunc) (*Buffer, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("ring size must be a power of two, got %d", size)
	}
	return &Buffer{
		input:   make([]float64, size),
		scratch: make([]complex128, size),
		coeffs:  coefficients(size, fn),
		mask:    size - 1,
	}, nil
}

// FillInput stores one sample at the current write position, scaled by
// the window compensation gain. It does not advance the position.
func (b *Buffer) FillInput(v float64) {
	b.input[b.idx] = v * compensationGain
}

// Advance moves the write position forward one sample and reports
// whether it wrapped, i.e. whether a full block has just completed.
// The mask keeps the index in [0, size) without a branch.
func (b *Buffer) Advance() bool {
	b.idx = (b.idx + 1) & b.mask
	return b.idx == 0
}

// CopyToScratch copies the accumulated block through the analysis
// window into the scratch array. This is the only point where input
// data crosses into the buffer the transform mutates.
func (b *Buffer) CopyToScratch() {
	for i, v := range b.input {
		b.scratch[i] = complex(v*b.coeffs[i], 0)
	}
}

// Scratch exposes the block handed to the transform. The caller owns
// it until the next CopyToScratch.
func (b *Buffer) Scratch() []complex128 { return b.scratch }

// Index returns the current write position. Diagnostic only.
func (b *Buffer) Index() int { return b.idx }

// Size returns the block size.
func (b *Buffer) Size() int { return len(b.input) }

// Reset zeroes both arrays and rewinds the write position. Called on
// sample-rate changes, never concurrently with the audio thread.
func (b *Buffer) Reset() {
	for i := range b.input {
		b.input[i] = 0
		b.scratch[i] = 0
	}
	b.idx = 0
}
