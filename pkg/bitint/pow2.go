// SPDX-License-Identifier: MIT
//
// Package bitint holds the power-of-two helpers used to validate analyser
// transform sizes. All functions are O(1) and allocation free.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size, or 1 for
// non-positive input. Subtracting one first keeps exact powers unchanged:
// bits.Len(7) is 3, so 8 maps to 1<<3 rather than 1<<4.
//
//	Input  Output
//	1000   1024
//	2048   2048
//	0      1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two. A power of two
// has one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the exponent of a power of two. The result for other values
// is floor(log2(n)); non-positive input returns -1.
func Log2(n int) int {
	if n <= 0 {
		return -1
	}
	return bits.Len(uint(n)) - 1
}
