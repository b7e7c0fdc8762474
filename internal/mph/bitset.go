// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mph

// bitset tracks occupied level-1 slots during the displacement search.
type bitset struct {
	bits []uint64
}

func newBitset(length int) *bitset {
	return &bitset{bits: make([]uint64, (length+63)/64)}
}

func (b *bitset) set(off uint64)        { b.bits[off/64] |= 1 << (off % 64) }
func (b *bitset) clear(off uint64)      { b.bits[off/64] &^= 1 << (off % 64) }
func (b *bitset) isSet(off uint64) bool { return b.bits[off/64]&(1<<(off%64)) != 0 }
