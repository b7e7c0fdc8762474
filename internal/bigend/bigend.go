// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bigend reads and writes unsigned integers of arbitrary byte width
// in big-endian order.  Section headers store counts in widths derived from
// the file's global variables (1 to 8 bytes), which encoding/binary's
// fixed-width helpers don't cover.
package bigend

// PutUint64 stores the size low-order bytes of v into b, most significant
// byte first.
func PutUint64(b []byte, size int, v uint64) {
	for i := 0; i < size; i++ {
		b[i] = byte(v >> (8 * (size - 1 - i)))
	}
}

// Uint64 loads a size-byte big-endian unsigned integer from b.
func Uint64(b []byte, size int) uint64 {
	var v uint64
	for i := 0; i < size; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}
