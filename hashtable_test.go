// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package kero

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RC-Kanashii/kero-api/internal/bitops"
)

// Two minimizer sections; the footer hashtable must map each minimizer to
// the absolute offset of its section tag, and reading from that offset
// must yield the same super-k-mers.
func TestHashtableLookup(t *testing.T) {
	path := tmpPath(t)

	// With m=4, minimizer 42 packs as ATTT and 100 as CTCA.
	mini42 := []byte{nA, nT, nT, nT}
	mini100 := []byte{nC, nT, nC, nA}
	require.Equal(t, uint64(42), nucsValue(mini42))
	require.Equal(t, uint64(100), nucsValue(mini100))

	seq42 := append(append([]byte{nG, nC}, mini42...), nC, nA)
	seq100 := append(append([]byte{nT}, mini100...), nG, nG)

	f, err := Create(path)
	require.NoError(t, err)
	sv, err := NewSectionVars(f)
	require.NoError(t, err)
	sv.WriteVar("k", 5)
	sv.WriteVar("m", 4)
	sv.WriteVar("max", 8)
	sv.WriteVar("data_size", 0)
	require.NoError(t, sv.Close())

	o42 := f.Pos()
	sm, err := NewSectionMinimizer(f)
	require.NoError(t, err)
	sm.SetMinimizer(packNucs(mini42))
	require.NoError(t, sm.WriteCompactedSequence(packNucs(seq42), uint64(len(seq42)), 2, nil))
	require.NoError(t, sm.Close())

	o100 := f.Pos()
	sm2, err := NewSectionMinimizer(f)
	require.NoError(t, err)
	sm2.SetMinimizer(packNucs(mini100))
	require.NoError(t, sm2.WriteCompactedSequence(packNucs(seq100), uint64(len(seq100)), 1, nil))
	require.NoError(t, sm2.Close())

	require.NoError(t, f.Close())

	f2 := openPastVars(t, path)
	defer func() { _ = f2.Close() }()

	ht, err := f2.Hashtable()
	require.NoError(t, err)
	require.NotNil(t, ht)
	require.Equal(t, 2, ht.Len())

	got42, err := ht.Lookup(42)
	require.NoError(t, err)
	assert.Equal(t, o42, got42)
	got100, err := ht.Lookup(100)
	require.NoError(t, err)
	assert.Equal(t, o100, got100)

	// The offsets point at readable sections holding the same content.
	require.NoError(t, f2.JumpTo(got100))
	sec, err := NewSectionMinimizer(f2)
	require.NoError(t, err)
	seq := make([]byte, bitops.BytesFromBitArray(2, 5+8-1))
	n, err := sec.ReadCompactedSequence(seq, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(seq100))-5+1, n)
	assert.Equal(t, packNucs(seq100), seq[:(len(seq100)+3)/4])
	require.NoError(t, sec.Close())
}

func TestHashtableOmittedWithoutMinimizers(t *testing.T) {
	path := tmpPath(t)

	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f2.Close() }()
	ht, err := f2.Hashtable()
	require.NoError(t, err)
	assert.Nil(t, ht)
}

func TestHashtableFoundByWalkWhenUnindexed(t *testing.T) {
	path := tmpPath(t)

	// Indexed write, then reopen and locate the hashtable by walking the
	// sections instead of the index.
	writeMinimizerTestFile(t, path)

	f, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	f.index = nil

	ht, err := f.Hashtable()
	require.NoError(t, err)
	require.NotNil(t, ht)
	assert.Equal(t, 1, ht.Len())

	off, err := ht.Lookup(0x38) // GTA
	require.NoError(t, err)
	assert.Greater(t, off, uint64(0))
}
