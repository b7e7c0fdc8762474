// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package kero

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRawTestFile(t *testing.T, path string, vars map[string]uint64, write func(*SectionRaw)) {
	t.Helper()
	f, err := Create(path)
	require.NoError(t, err)
	sv, err := NewSectionVars(f)
	require.NoError(t, err)
	for name, v := range vars {
		sv.WriteVar(name, v)
	}
	require.NoError(t, sv.Close())
	sr, err := NewSectionRaw(f)
	require.NoError(t, err)
	write(sr)
	require.NoError(t, sr.Close())
	require.NoError(t, f.Close())
}

func TestRawSingleBlock(t *testing.T) {
	path := tmpPath(t)
	writeRawTestFile(t, path, map[string]uint64{"k": 3, "max": 2, "data_size": 1}, func(sr *SectionRaw) {
		require.NoError(t, sr.WriteCompactedSequence(packNucs([]byte{nA, nC, nG, nT}), 4, []byte{0x10, 0x20}))
	})

	// On disk: header (13 bytes), 'v' section (49 bytes), then the raw
	// section: tag, 8-byte count, and the block itself.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, byte('r'), raw[62])
	assert.Equal(t, byte(2), raw[71], "k-mer count")
	assert.Equal(t, byte(0x1E), raw[72], "packed ACGT")
	assert.Equal(t, []byte{0x10, 0x20}, raw[73:75], "k-mer data")

	f, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	sv, err := NewSectionVars(f)
	require.NoError(t, err)
	require.NoError(t, sv.Close())

	sr, err := NewSectionRaw(f)
	require.NoError(t, err)
	require.Equal(t, uint64(1), sr.NbBlocks())

	seq := make([]byte, 1)
	data := make([]byte, 2)
	n, err := sr.ReadCompactedSequence(seq, data)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	assert.Equal(t, []byte{0x1E}, seq)
	assert.Equal(t, []byte{0x10, 0x20}, data)
	require.NoError(t, sr.Close())
}

// With max == 1 the per-block k-mer count is implicit.
func TestRawImplicitKmerCount(t *testing.T) {
	path := tmpPath(t)
	writeRawTestFile(t, path, map[string]uint64{"k": 4, "max": 1, "data_size": 0}, func(sr *SectionRaw) {
		require.NoError(t, sr.WriteCompactedSequence(packNucs([]byte{nA, nC, nG, nT}), 4, nil))
		require.NoError(t, sr.WriteCompactedSequence(packNucs([]byte{nT, nG, nC, nA}), 4, nil))
	})

	f, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	sv, err := NewSectionVars(f)
	require.NoError(t, err)
	require.NoError(t, sv.Close())

	sr, err := NewSectionRaw(f)
	require.NoError(t, err)
	require.Equal(t, uint64(2), sr.NbBlocks())

	seq := make([]byte, 1)
	n, err := sr.ReadCompactedSequence(seq, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
	assert.Equal(t, packNucs([]byte{nA, nC, nG, nT}), seq)

	n, err = sr.ReadCompactedSequence(seq, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
	assert.Equal(t, packNucs([]byte{nT, nG, nC, nA}), seq)
	require.NoError(t, sr.Close())
}

func TestRawJumpSequence(t *testing.T) {
	path := tmpPath(t)
	writeRawTestFile(t, path, map[string]uint64{"k": 3, "max": 4, "data_size": 0}, func(sr *SectionRaw) {
		require.NoError(t, sr.WriteCompactedSequence(packNucs([]byte{nA, nC, nG}), 3, nil))
		require.NoError(t, sr.WriteCompactedSequence(packNucs([]byte{nT, nT, nG, nA}), 4, nil))
		require.NoError(t, sr.WriteCompactedSequence(packNucs([]byte{nG, nG, nC}), 3, nil))
	})

	f, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	sv, err := NewSectionVars(f)
	require.NoError(t, err)
	require.NoError(t, sv.Close())

	sr, err := NewSectionRaw(f)
	require.NoError(t, err)
	require.NoError(t, sr.JumpSequence())
	require.NoError(t, sr.JumpSequence())
	require.Equal(t, uint64(1), sr.RemainingBlocks())

	seq := make([]byte, 2)
	n, err := sr.ReadCompactedSequence(seq, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
	assert.Equal(t, packNucs([]byte{nG, nG, nC}), seq[:1])
	require.NoError(t, sr.Close())
}
