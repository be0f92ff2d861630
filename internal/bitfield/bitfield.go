// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package bitfield has single-bit field operations on 64-bit register
// images, including images logically composed from two 32-bit words.
package bitfield

// Enabled returns true if the given bit of v is set.
func Enabled(v uint64, bit uint) bool {
	return v&(uint64(1)<<bit) != 0
}

// With returns v with the given bit set or cleared, leaving every other
// bit unchanged.
func With(v uint64, bit uint, set bool) uint64 {
	if set {
		return v | uint64(1)<<bit
	}
	return v &^ (uint64(1) << bit)
}

// Lo returns the low 32-bit word of v.
func Lo(v uint64) uint32 { return uint32(v) }

// Hi returns the high 32-bit word of v.
func Hi(v uint64) uint32 { return uint32(v >> 32) }

// Join assembles a 64-bit image from its high and low 32-bit words.
func Join(hi, lo uint32) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}
