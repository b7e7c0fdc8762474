// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mph builds minimal perfect hash functions over sets of 64-bit
// keys using the "Hash, displace, and compress" algorithm described in
// http://cmph.sourceforge.net/papers/esa09.pdf.  Each distinct key maps to
// a unique ordinal in [0, n), so a parallel value slice of length n gives
// constant-time lookups with no stored keys.
package mph

import (
	"encoding/binary"
	"math/bits"
	"sort"

	"github.com/dgryski/go-farm"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	magicHeader   = uint32(0x6B4D5048) // "kMPH"
	formatVersion = uint32(1)

	maxUint32 = ^uint32(0)
)

var (
	ErrDuplicateKey = errors.New("mph: duplicate keys aren't supported")
	ErrNoSeed       = errors.New("mph: couldn't find 32-bit seed")
)

// Table is an immutable minimal perfect hash over the keys it was built
// from.  Eval is only defined for those keys; any other input returns an
// arbitrary ordinal.
type Table struct {
	level0     []uint32 // power of 2 size; displacement seeds
	level0Mask uint64
	level1     []uint32 // power of 2 size >= len(keys); key ordinals
	level1Mask uint64
}

func nextPow2(n int) int {
	if n < 1 {
		n = 1
	}
	return 1 << (64 - bits.LeadingZeros64(uint64(n)))
}

func keyBytes(buf *[8]byte, key uint64) []byte {
	binary.BigEndian.PutUint64(buf[:], key)
	return buf[:]
}

type bucket struct {
	n    int
	vals []uint32
}

// bySize sorts buckets from most full to least full.
type bySize []bucket

func (s bySize) Len() int           { return len(s) }
func (s bySize) Less(i, j int) bool { return len(s[i].vals) > len(s[j].vals) }
func (s bySize) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// Build constructs a Table mapping each key to its position in keys.
func Build(keys []uint64) (*Table, error) {
	var (
		entryLen   = len(keys)
		level0     = make([]uint32, nextPow2(entryLen/4))
		level0Mask = uint64(len(level0) - 1)
		level1     = make([]uint32, nextPow2(entryLen))
		level1Mask = uint64(len(level1) - 1)
	)

	seen := make(map[uint64]struct{}, entryLen)
	sparseBuckets := make([][]uint32, len(level0))
	var buf [8]byte
	for i, key := range keys {
		if _, ok := seen[key]; ok {
			return nil, errors.Wrapf(ErrDuplicateKey, "key %d", key)
		}
		seen[key] = struct{}{}
		n := farm.Hash64WithSeed(keyBytes(&buf, key), 0) & level0Mask
		sparseBuckets[n] = append(sparseBuckets[n], uint32(i))
	}

	var buckets []bucket
	for n, vals := range sparseBuckets {
		if len(vals) > 0 {
			buckets = append(buckets, bucket{n: n, vals: vals})
		}
	}
	sort.Sort(bySize(buckets))
	log.Debugf("mph: displacing %d buckets over %d keys", len(buckets), entryLen)

	occ := newBitset(len(level1))
	var tmpOcc []uint64
	for _, bucket := range buckets {
		seed := uint64(1)
	trySeed:
		if seed >= uint64(maxUint32) {
			return nil, ErrNoSeed
		}
		tmpOcc = tmpOcc[:0]
		for _, i := range bucket.vals {
			n := farm.Hash64WithSeed(keyBytes(&buf, keys[i]), seed) & level1Mask
			if occ.isSet(n) {
				for _, n := range tmpOcc {
					occ.clear(n)
					level1[n] = 0
				}
				seed++
				goto trySeed
			}
			occ.set(n)
			tmpOcc = append(tmpOcc, n)
			level1[n] = i
		}
		level0[bucket.n] = uint32(seed)
	}

	return &Table{
		level0:     level0,
		level0Mask: level0Mask,
		level1:     level1,
		level1Mask: level1Mask,
	}, nil
}

// Eval returns the ordinal assigned to key at build time.
func (t *Table) Eval(key uint64) uint64 {
	var buf [8]byte
	b := keyBytes(&buf, key)
	seed := uint64(t.level0[farm.Hash64WithSeed(b, 0)&t.level0Mask])
	return uint64(t.level1[farm.Hash64WithSeed(b, seed)&t.level1Mask])
}

// MarshalBinary serializes the table.  The layout is big-endian:
// magic, version, level0 length, level1 length, then both levels.
func (t *Table) MarshalBinary() ([]byte, error) {
	b := make([]byte, 16+4*len(t.level0)+4*len(t.level1))
	binary.BigEndian.PutUint32(b[0:4], magicHeader)
	binary.BigEndian.PutUint32(b[4:8], formatVersion)
	binary.BigEndian.PutUint32(b[8:12], uint32(len(t.level0)))
	binary.BigEndian.PutUint32(b[12:16], uint32(len(t.level1)))
	off := 16
	for _, v := range t.level0 {
		binary.BigEndian.PutUint32(b[off:], v)
		off += 4
	}
	for _, v := range t.level1 {
		binary.BigEndian.PutUint32(b[off:], v)
		off += 4
	}
	return b, nil
}

// UnmarshalBinary loads a table serialized by MarshalBinary.
func (t *Table) UnmarshalBinary(b []byte) error {
	if len(b) < 16 {
		return errors.Errorf("mph: table too short: %d bytes", len(b))
	}
	if magic := binary.BigEndian.Uint32(b[0:4]); magic != magicHeader {
		return errors.Errorf("mph: bad magic %x", magic)
	}
	if version := binary.BigEndian.Uint32(b[4:8]); version != formatVersion {
		return errors.Errorf("mph: can only read v%d tables; found v%d", formatVersion, version)
	}
	level0Len := int(binary.BigEndian.Uint32(b[8:12]))
	level1Len := int(binary.BigEndian.Uint32(b[12:16]))
	if want := 16 + 4*level0Len + 4*level1Len; len(b) != want {
		return errors.Errorf("mph: bad table length %d (expected %d)", len(b), want)
	}
	t.level0 = make([]uint32, level0Len)
	t.level1 = make([]uint32, level1Len)
	t.level0Mask = uint64(level0Len - 1)
	t.level1Mask = uint64(level1Len - 1)
	off := 16
	for i := range t.level0 {
		t.level0[i] = binary.BigEndian.Uint32(b[off:])
		off += 4
	}
	for i := range t.level1 {
		t.level1[i] = binary.BigEndian.Uint32(b[off:])
		off += 4
	}
	return nil
}

// HashTable pairs a Table with the values registered for its keys; the
// value for key i lives at Values[Eval(key_i)].
type HashTable struct {
	Table  Table
	Values []uint64
}

// BuildTable builds the MPH over keys and permutes values into evaluation
// order.
func BuildTable(keys, values []uint64) (*HashTable, error) {
	if len(keys) != len(values) {
		return nil, errors.Errorf("mph: %d keys but %d values", len(keys), len(values))
	}
	t, err := Build(keys)
	if err != nil {
		return nil, err
	}
	h := &HashTable{Table: *t, Values: make([]uint64, len(keys))}
	for i, key := range keys {
		h.Values[t.Eval(key)] = values[i]
	}
	return h, nil
}

// Lookup returns the value registered for key.  The result is only
// meaningful for keys present at build time.
func (h *HashTable) Lookup(key uint64) uint64 {
	return h.Values[h.Table.Eval(key)]
}

// Len returns the number of keys the table was built over.
func (h *HashTable) Len() int {
	return len(h.Values)
}
