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

func TestEmptyFile(t *testing.T) {
	path := tmpPath(t)

	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.SetUniqueness(false))
	require.NoError(t, f.SetCanonicity(false))
	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f2.Close()) }()

	assert.Equal(t, uint8(VersionMajor), f2.MajorVersion)
	assert.Equal(t, uint8(VersionMinor), f2.MinorVersion)
	assert.False(t, f2.Uniqueness)
	assert.False(t, f2.Canonicity)
	metadata, err := f2.ReadMetadata()
	require.NoError(t, err)
	assert.Empty(t, metadata)
}

func TestFlagsRoundTrip(t *testing.T) {
	path := tmpPath(t)

	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.SetUniqueness(true))
	require.NoError(t, f.SetCanonicity(true))
	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f2.Close() }()
	assert.True(t, f2.Uniqueness)
	assert.True(t, f2.Canonicity)
}

func TestEncodingRoundTrip(t *testing.T) {
	path := tmpPath(t)

	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.SetEncoding(3, 2, 1, 0))
	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f2.Close() }()
	assert.Equal(t, [4]byte{3, 2, 1, 0}, f2.Encoding())
}

func TestEncodingRejectsSharedCodes(t *testing.T) {
	path := tmpPath(t)

	f, err := Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Discard() }()
	assert.ErrorIs(t, f.SetEncoding(0, 0, 1, 2), ErrCorrupted)
}

func TestMetadataRoundTrip(t *testing.T) {
	path := tmpPath(t)

	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.WriteMetadata([]byte("sample: SRR000001")))
	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f2.Close() }()
	metadata, err := f2.ReadMetadata()
	require.NoError(t, err)
	assert.Equal(t, []byte("sample: SRR000001"), metadata)
}

func TestOpenRejectsMissingHeadSignature(t *testing.T) {
	path := tmpPath(t)
	require.NoError(t, os.WriteFile(path, []byte("NOPE........KERO"), 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrSignature)
}

func TestOpenRejectsMissingTailSignature(t *testing.T) {
	path := tmpPath(t)
	content := append([]byte{'K', 'E', 'R', 'O', 0, 1, 0b00011110, 0, 0}, make([]byte, 8)...)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrSignature)
}

func TestOpenRejectsNewerVersion(t *testing.T) {
	path := tmpPath(t)
	content := []byte{
		'K', 'E', 'R', 'O', 9, 0, 0b00011110, 0, 0,
		0, 0, 0, 0,
		'K', 'E', 'R', 'O',
	}
	require.NoError(t, os.WriteFile(path, content, 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrVersion)
}

func TestOpenRejectsBadEncoding(t *testing.T) {
	path := tmpPath(t)
	content := []byte{
		'K', 'E', 'R', 'O', 0, 1, 0b00000000, 0, 0,
		0, 0, 0, 0,
		'K', 'E', 'R', 'O',
	}
	require.NoError(t, os.WriteFile(path, content, 0o644))

	_, err := Open(path)
	assert.ErrorIs(t, err, ErrCorrupted)
}

// Writing more than the buffer ceiling spills to disk; back-patching must
// then reach through to the spilled bytes.
func TestBufferSpillAndWriteAt(t *testing.T) {
	path := tmpPath(t)

	f, err := Create(path)
	require.NoError(t, err)

	sv, err := NewSectionVars(f)
	require.NoError(t, err)
	sv.WriteVar("k", 3)
	sv.WriteVar("max", 2)
	sv.WriteVar("data_size", 1)
	require.NoError(t, sv.Close())

	sr, err := NewSectionRaw(f)
	require.NoError(t, err)
	seq := packNucs([]byte{nA, nC, nG, nT})
	const nbBlocks = 400_000 // 4 bytes per block, well past the 1 MiB ceiling
	for i := 0; i < nbBlocks; i++ {
		require.NoError(t, sr.WriteCompactedSequence(seq, 4, []byte{byte(i), byte(i >> 8)}))
	}
	// Close back-patches the block count at the start of the section,
	// which now lives on disk.
	require.NoError(t, sr.Close())
	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f2.Close() }()

	typ, err := f2.ReadSectionType()
	require.NoError(t, err)
	require.Equal(t, byte('v'), typ)
	sv2, err := NewSectionVars(f2)
	require.NoError(t, err)
	require.NoError(t, sv2.Close())

	sr2, err := NewSectionRaw(f2)
	require.NoError(t, err)
	assert.Equal(t, uint64(nbBlocks), sr2.NbBlocks())

	gotSeq := make([]byte, 1)
	gotData := make([]byte, 2)
	n, err := sr2.ReadCompactedSequence(gotSeq, gotData)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	assert.Equal(t, seq, gotSeq)
	assert.Equal(t, []byte{0, 0}, gotData)
	require.NoError(t, sr2.Close())
}

func TestTmpCloseReopens(t *testing.T) {
	path := tmpPath(t)

	f, err := Create(path)
	require.NoError(t, err)
	// Spill past the ceiling so a descriptor exists to release.
	require.NoError(t, f.WriteMetadata(make([]byte, 2*maxBufferSize)))
	require.NoError(t, f.TmpClose())
	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)
	assert.NoError(t, f2.Close())
}

func TestDiscardRemovesSpilledFile(t *testing.T) {
	path := tmpPath(t)

	f, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, f.WriteMetadata(make([]byte, 2*maxBufferSize)))
	require.NoError(t, f.Discard())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSectionTagSequence(t *testing.T) {
	path := tmpPath(t)

	f, err := Create(path)
	require.NoError(t, err)

	sv, err := NewSectionVars(f)
	require.NoError(t, err)
	sv.WriteVar("k", 5)
	sv.WriteVar("max", 8)
	sv.WriteVar("data_size", 0)
	require.NoError(t, sv.Close())

	sr, err := NewSectionRaw(f)
	require.NoError(t, err)
	require.NoError(t, sr.WriteCompactedSequence(packNucs([]byte{nA, nC, nG, nT, nA}), 5, nil))
	require.NoError(t, sr.Close())

	sv2, err := NewSectionVars(f)
	require.NoError(t, err)
	sv2.WriteVar("m", 3)
	require.NoError(t, sv2.Close())

	sm, err := NewSectionMinimizer(f)
	require.NoError(t, err)
	sm.SetMinimizer(packNucs([]byte{nG, nT, nA}))
	require.NoError(t, sm.WriteCompactedSequence(packNucs([]byte{nA, nC, nG, nT, nA, nC, nG, nT}), 8, 2, nil))
	require.NoError(t, sm.Close())

	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f2.Close() }()

	var tags []byte
	for f2.Pos() < f2.endPos {
		typ, err := f2.ReadSectionType()
		require.NoError(t, err)
		tags = append(tags, typ)
		sec, err := NextSection(f2)
		require.NoError(t, err)
		if bs, ok := sec.(BlockSection); ok {
			require.NoError(t, bs.JumpSection())
		}
		require.NoError(t, sec.Close())
	}
	assert.Equal(t, []byte{'v', 'r', 'v', 'M', 'h', 'i', 'v'}, tags)
}

func TestGlobalVarOverride(t *testing.T) {
	path := tmpPath(t)

	f, err := Create(path)
	require.NoError(t, err)
	sv, err := NewSectionVars(f)
	require.NoError(t, err)
	sv.WriteVar("k", 3)
	require.NoError(t, sv.Close())
	sv2, err := NewSectionVars(f)
	require.NoError(t, err)
	sv2.WriteVar("k", 5)
	require.NoError(t, sv2.Close())
	require.NoError(t, f.Close())

	f2, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = f2.Close() }()
	for i := 0; i < 2; i++ {
		sv, err := NewSectionVars(f2)
		require.NoError(t, err)
		require.NoError(t, sv.Close())
	}
	k, ok := f2.GlobalVar("k")
	require.True(t, ok)
	assert.Equal(t, uint64(5), k)
}
