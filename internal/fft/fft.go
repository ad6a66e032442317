// SPDX-License-Identifier: MIT

/*
Package fft implements the in-place radix-2 transform that drives the
analysis cycle. The transform is iterative decimation in time: a
bit-reversal permutation followed by log2(n) butterfly stages of
increasing width. The twiddle factors for every stage are precomputed
once per plan, so the per-block work is limited to the permutation and
the butterfly arithmetic itself.
*/
package fft

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/W47K3R9/SpectralDev/pkg/bitint"
)

// MinSize and MaxSize bound the block sizes a plan accepts. The lower
// bound keeps degenerate two-point blocks out; the upper bound caps the
// latency of a single analysis block.
const (
	MinSize = 16
	MaxSize = 2048
)

// ErrInvalidSize reports a block size the transform cannot handle.
var ErrInvalidSize = errors.New("size must be a power of two between 16 and 2048")

// Plan holds the precomputed state for transforms of one fixed size:
// the per-stage twiddle tables and the bit-reversal shift. A plan is
// immutable after construction and safe for concurrent use by callers
// operating on distinct buffers.
type Plan struct {
	size     int
	revShift uint
	stages   [][]complex128
}

// NewPlan precomputes the twiddle tables for size-point transforms.
func NewPlan(size int) (*Plan, error) {
	if size < MinSize || size > MaxSize || !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("fft plan for %d points: %w", size, ErrInvalidSize)
	}
	degree := bitint.Log2(size)
	return &Plan{
		size:     size,
		revShift: uint(64 - degree),
		stages:   stageTables(degree),
	}, nil
}

// Size returns the number of points the plan transforms.
func (p *Plan) Size() int { return p.size }

// Transform computes the discrete Fourier transform of x in place.
// len(x) must equal Size(); the hot path does not check. No
// allocations, O(n log n).
func (p *Plan) Transform(x []complex128) {
	// Reorder into bit-reversed positions. Swapping only when i < r
	// visits every pair exactly once.
	for i := 0; i < p.size; i++ {
		r := int(bits.Reverse64(uint64(i)) >> p.revShift)
		if i < r {
			x[i], x[r] = x[r], x[i]
		}
	}

	// Butterfly stages, narrowest first. Stage tables double in length,
	// so the stage width is always twice the table length.
	for _, tw := range p.stages {
		half := len(tw)
		width := half << 1
		for base := 0; base < p.size; base += width {
			for k, w := range tw {
				lo := base + k
				hi := lo + half
				tau := w * x[hi]
				x[hi] = x[lo] - tau
				x[lo] += tau
			}
		}
	}
}
