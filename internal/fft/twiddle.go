// SPDX-License-Identifier: MIT
package fft

import (
	"math"
	"math/cmplx"
)

// stageTables builds one twiddle table per butterfly stage. Stage s
// combines points that are 2^s apart, so its table holds the 2^s
// factors exp(-iπk/2^s) for k in [0, 2^s). The first table is the
// single factor 1; the last spans half the block.
func stageTables(degree int) [][]complex128 {
	stages := make([][]complex128, degree)
	for s := 0; s < degree; s++ {
		half := 1 << s
		tw := make([]complex128, half)
		for k := 0; k < half; k++ {
			tw[k] = cmplx.Rect(1, -math.Pi*float64(k)/float64(half))
		}
		stages[s] = tw
	}
	return stages
}
