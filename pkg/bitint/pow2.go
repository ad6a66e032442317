// SPDX-License-Identifier: MIT

/*
Package bitint provides the power-of-two arithmetic shared by the FFT,
ring buffer and wavetable code. Block and table sizes in this module are
always powers of two, so index wrapping reduces to a bit mask and an
n-point transform decomposes into exactly Log2(n) butterfly stages.

All functions are allocation free and O(1). They are safe to call from
the audio thread, although in practice sizes are validated once at
construction time and never touched again.
*/
package bitint

import "math/bits"

// IsPowerOfTwo reports whether n is a positive power of two.
// Powers of two have exactly one bit set, so n&(n-1) clears that bit
// and leaves zero only for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// NextPowerOfTwo returns the smallest power of two >= size.
// Zero and negative sizes map to 1.
//
// The size-1 before Len64 is what keeps exact powers of two from
// doubling: for 8, Len64(7) = 3 and 1<<3 = 8, while Len64(8) = 4
// would have produced 16.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}

// Log2 returns the base-two logarithm of n for positive powers of two,
// i.e. the number of butterfly stages of an n-point transform and the
// bit width of its index permutation. The result is meaningless for
// other inputs; callers validate with IsPowerOfTwo first.
func Log2(n int) int {
	return bits.Len64(uint64(n)) - 1
}
