// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package kero

import (
	"io"

	"github.com/pkg/errors"

	"github.com/RC-Kanashii/kero-api/internal/bigend"
	"github.com/RC-Kanashii/kero-api/internal/bitops"
	"github.com/RC-Kanashii/kero-api/internal/codec"
)

// SectionMinimizer is a vertical minimizer section ('M', legacy tag 'm'):
// super-k-mers sharing one minimizer, stored column-wise.  Four columns are
// written in order: k-mer counts (n), minimizer offsets (m_idx), per-kmer
// data, and the residual sequences with the minimizer excised.  The first
// three are compressed with the integer codec; the sequence column is raw.
//
// The globals k, m, max and data_size must be declared before the section
// opens.
type SectionMinimizer struct {
	file      *File
	beginning uint64

	nbBlocks        uint64
	remainingBlocks uint64

	k        uint64
	m        uint64
	max      uint64
	dataSize uint64

	// minimizer holds the packed minimizer, right-aligned in
	// nbBytesMini bytes.
	minimizer   []byte
	nbBytesMini int

	// nbKmersBytes and miniPosBytes mirror the raw-section widths;
	// reserved for formats layered on this one.
	nbKmersBytes int
	miniPosBytes int

	// Column buffers.  On write they accumulate until Close; on read
	// they are decompressed on first access.
	nValues []uint64
	mIdx    []uint64
	dataBuf []byte
	seqBuf  []byte

	// Read cursors into the column buffers; lastSeqPos is an absolute
	// file offset since the sequence column streams from disk.
	columnsLoaded bool
	curSkmer      uint64
	lastNPos      uint64
	lastMIdxPos   uint64
	lastDataPos   uint64
	lastSeqPos    uint64

	// Absolute column offsets, resolved from the section-relative wire
	// values exactly once in readSectionHeader.
	nColOff    uint64
	mIdxColOff uint64
	dataColOff uint64
	seqColOff  uint64
}

// NewSectionMinimizer opens a minimizer section at the current position
// (read mode) or starts a new one (write mode; nothing reaches the file
// before Close).
func NewSectionMinimizer(f *File) (*SectionMinimizer, error) {
	if !f.headerOver && f.footerDiscoveryEnded {
		if err := f.completeHeader(); err != nil {
			return nil, err
		}
	}

	k, ok := f.GlobalVar("k")
	if !ok {
		return nil, errors.Wrap(ErrMissingVar, "minimizer section needs k")
	}
	m, ok := f.GlobalVar("m")
	if !ok {
		return nil, errors.Wrap(ErrMissingVar, "minimizer section needs m")
	}
	max, ok := f.GlobalVar("max")
	if !ok {
		return nil, errors.Wrap(ErrMissingVar, "minimizer section needs max")
	}
	dataSize, ok := f.GlobalVar("data_size")
	if !ok {
		return nil, errors.Wrap(ErrMissingVar, "minimizer section needs data_size")
	}

	sm := &SectionMinimizer{
		file:         f,
		beginning:    f.pos,
		k:            k,
		m:            m,
		max:          max,
		dataSize:     dataSize,
		nbBytesMini:  int(bitops.BytesFromBitArray(2, m)),
		nbKmersBytes: int(bitops.BytesFromBitArray(bitops.CeilLog2(max), 1)),
		miniPosBytes: int(bitops.BytesFromBitArray(bitops.CeilLog2(k+max-1), 1)),
	}
	sm.minimizer = make([]byte, sm.nbBytesMini)

	if f.isReader {
		if err := sm.readSectionHeader(); err != nil {
			return nil, err
		}
		if sm.nbBlocks == 0 {
			// All four columns are empty; land on the section end so a
			// sequential walk continues cleanly.
			if err := f.jumpTo(sm.seqColOff); err != nil {
				return nil, err
			}
		}
	}
	return sm, nil
}

func (sm *SectionMinimizer) readSectionHeader() error {
	var tag [1]byte
	if err := sm.file.read(tag[:]); err != nil {
		return err
	}
	if tag[0] != 'M' && tag[0] != 'm' {
		return errors.Wrapf(ErrCorrupted, "section starts with %q, not 'M'", tag[0])
	}

	if err := sm.file.read(sm.minimizer); err != nil {
		return err
	}

	nbBlocks, err := sm.file.readBigEndian(8)
	if err != nil {
		return err
	}
	sm.nbBlocks = nbBlocks
	sm.remainingBlocks = nbBlocks

	for _, off := range []*uint64{&sm.nColOff, &sm.mIdxColOff, &sm.dataColOff, &sm.seqColOff} {
		rel, err := sm.file.readBigEndian(8)
		if err != nil {
			return err
		}
		*off = sm.beginning + rel
	}
	return nil
}

// NbBlocks returns the number of super-k-mers in the section.
func (sm *SectionMinimizer) NbBlocks() uint64 { return sm.nbBlocks }

// RemainingBlocks returns the number of super-k-mers not yet read.
func (sm *SectionMinimizer) RemainingBlocks() uint64 { return sm.remainingBlocks }

// Minimizer returns the packed minimizer bytes.
func (sm *SectionMinimizer) Minimizer() []byte { return sm.minimizer }

// MinimizerValue returns the minimizer folded into a uint64 and masked to
// its 2m bits; this is the key registered in the file's hashtable.
func (sm *SectionMinimizer) MinimizerValue() uint64 {
	return bitops.MaskMini(sm.minimizer, sm.m)
}

// SetMinimizer records the section's minimizer.  It is written with the
// header on Close.
func (sm *SectionMinimizer) SetMinimizer(mini []byte) {
	copy(sm.minimizer, mini[:sm.nbBytesMini])
}

// ----- Write path -----

// WriteCompactedSequenceWithoutMini appends a super-k-mer whose minimizer
// was already excised: seq holds seqSize nucleotides (left-padded), the
// minimizer used to start at nucleotide miniPos of the full sequence.
func (sm *SectionMinimizer) WriteCompactedSequenceWithoutMini(seq []byte, seqSize, miniPos uint64, data []byte) error {
	if !sm.file.isWriter {
		return errors.Wrap(ErrMode, "cannot write a section in reading mode")
	}
	nbKmers := seqSize + sm.m - sm.k + 1

	sm.nValues = append(sm.nValues, nbKmers)
	sm.mIdx = append(sm.mIdx, miniPos)

	if dataBytes := sm.dataSize * nbKmers; dataBytes > 0 {
		sm.dataBuf = append(sm.dataBuf, data[:dataBytes]...)
	}

	seqBytes := bitops.BytesFromBitArray(2, seqSize)
	sm.seqBuf = append(sm.seqBuf, seq[:seqBytes]...)

	sm.nbBlocks++
	return nil
}

// WriteCompactedSequence appends a full super-k-mer, excising the m
// nucleotides of the minimizer at nucleotide offset miniPos before it is
// stored.
func (sm *SectionMinimizer) WriteCompactedSequence(seq []byte, seqSize, miniPos uint64, data []byte) error {
	seqBytes := bitops.BytesFromBitArray(2, seqSize)
	leftOffNucl := (4 - seqSize%4) % 4

	cp := make([]byte, seqBytes)
	copy(cp, seq[:seqBytes])

	// Move the suffix bytes onto the bytes where the minimizer started.
	miniStartByte := (miniPos + leftOffNucl) / 4
	suffStartByte := (miniPos + sm.m + leftOffNucl) / 4
	suffBytes := seqBytes - suffStartByte
	for i := uint64(0); i < suffBytes; i++ {
		cp[miniStartByte+i] = cp[suffStartByte+i]
	}

	// Align the suffix with the minimizer's sub-byte offset.
	miniOffset := (miniPos + leftOffNucl) % 4
	suffOffset := (miniPos + sm.m + leftOffNucl) % 4
	if miniOffset < suffOffset {
		bitops.LeftShift8(cp[miniStartByte:], uint(suffOffset-miniOffset)*2)
	} else {
		bitops.RightShift8(cp[miniStartByte:], uint(miniOffset-suffOffset)*2)
	}

	// Fuse the byte shared by prefix and suffix.
	cp[miniStartByte] = bitops.Fusion8(seq[miniStartByte], cp[miniStartByte], uint(miniOffset)*2)

	// Re-normalize to left padding for the residual size.
	bitops.LeftShift8(cp, uint(leftOffNucl)*2)
	bitops.RightShift8(cp, uint((4-(seqSize-sm.m)%4)%4)*2)

	return sm.WriteCompactedSequenceWithoutMini(cp, seqSize-sm.m, miniPos, data)
}

func (sm *SectionMinimizer) writeSectionHeader() error {
	if err := sm.file.write([]byte{'M'}); err != nil {
		return err
	}
	if err := sm.file.write(sm.minimizer); err != nil {
		return err
	}
	if err := sm.file.writeBigEndian(8, sm.nbBlocks); err != nil {
		return err
	}
	// Four column-offset placeholders, back-patched by Close.
	return sm.file.write(make([]byte, 32))
}

func (sm *SectionMinimizer) writeColumns() error {
	f := sm.file

	sm.nColOff = f.pos
	blob := codec.CompressUint64(sm.nValues)
	if err := f.writeBigEndian(8, uint64(len(blob))); err != nil {
		return err
	}
	if err := f.write(blob); err != nil {
		return err
	}

	sm.mIdxColOff = f.pos
	blob = codec.CompressUint64(sm.mIdx)
	if err := f.writeBigEndian(8, uint64(len(blob))); err != nil {
		return err
	}
	if err := f.write(blob); err != nil {
		return err
	}

	// The data column stores its decoded byte count explicitly; the codec
	// works per element, not per byte range.
	sm.dataColOff = f.pos
	if err := f.writeBigEndian(8, uint64(len(sm.dataBuf))); err != nil {
		return err
	}
	blob = codec.CompressBytes(sm.dataBuf)
	if err := f.writeBigEndian(8, uint64(len(blob))); err != nil {
		return err
	}
	if err := f.write(blob); err != nil {
		return err
	}

	sm.seqColOff = f.pos
	return f.write(sm.seqBuf)
}

func (sm *SectionMinimizer) backfillColumnOffsets() error {
	slot := sm.beginning + 1 + uint64(sm.nbBytesMini) + 8
	var buf [8]byte
	for i, off := range []uint64{sm.nColOff, sm.mIdxColOff, sm.dataColOff, sm.seqColOff} {
		bigend.PutUint64(buf[:], 8, off-sm.beginning)
		if err := sm.file.writeAt(buf[:], slot+uint64(8*i)); err != nil {
			return err
		}
	}
	return nil
}

// ----- Read path -----

// ensureColumns decompresses the n, m_idx and data columns into memory on
// the first block access and aims the sequence cursor at the seq column.
func (sm *SectionMinimizer) ensureColumns() error {
	if sm.columnsLoaded {
		return nil
	}
	sm.columnsLoaded = true
	sm.lastNPos, sm.lastMIdxPos, sm.lastDataPos = 0, 0, 0
	sm.lastSeqPos = sm.seqColOff
	if sm.nbBlocks == 0 {
		return nil
	}

	f := sm.file

	if err := f.jumpTo(sm.nColOff); err != nil {
		return err
	}
	csize, err := f.readBigEndian(8)
	if err != nil {
		return err
	}
	payload := make([]byte, csize)
	if err := f.read(payload); err != nil {
		return err
	}
	if sm.nValues, err = codec.UncompressUint64(payload, int(sm.nbBlocks)); err != nil {
		return errors.Wrap(err, "n column")
	}

	if err := f.jumpTo(sm.mIdxColOff); err != nil {
		return err
	}
	if csize, err = f.readBigEndian(8); err != nil {
		return err
	}
	payload = make([]byte, csize)
	if err := f.read(payload); err != nil {
		return err
	}
	if sm.mIdx, err = codec.UncompressUint64(payload, int(sm.nbBlocks)); err != nil {
		return errors.Wrap(err, "m_idx column")
	}

	if sm.dataSize > 0 {
		if err := f.jumpTo(sm.dataColOff); err != nil {
			return err
		}
		nbBytes, err := f.readBigEndian(8)
		if err != nil {
			return err
		}
		if csize, err = f.readBigEndian(8); err != nil {
			return err
		}
		payload = make([]byte, csize)
		if err := f.read(payload); err != nil {
			return err
		}
		if sm.dataBuf, err = codec.UncompressBytes(payload, int(nbBytes)); err != nil {
			return errors.Wrap(err, "data column")
		}
	}
	return nil
}

// PrecacheColumns decompresses the n, m_idx and data columns straight out
// of a memory-mapped view of the whole file, with no file I/O.  Meant to
// be called once before handing the section to readers.
func (sm *SectionMinimizer) PrecacheColumns(mapped []byte) error {
	if sm.columnsLoaded {
		return nil
	}
	sm.columnsLoaded = true
	sm.lastNPos, sm.lastMIdxPos, sm.lastDataPos = 0, 0, 0
	sm.lastSeqPos = sm.seqColOff
	if sm.nbBlocks == 0 {
		return nil
	}

	csize := bigend.Uint64(mapped[sm.nColOff:sm.nColOff+8], 8)
	var err error
	if sm.nValues, err = codec.UncompressUint64(mapped[sm.nColOff+8:sm.nColOff+8+csize], int(sm.nbBlocks)); err != nil {
		return errors.Wrap(err, "n column")
	}

	csize = bigend.Uint64(mapped[sm.mIdxColOff:sm.mIdxColOff+8], 8)
	if sm.mIdx, err = codec.UncompressUint64(mapped[sm.mIdxColOff+8:sm.mIdxColOff+8+csize], int(sm.nbBlocks)); err != nil {
		return errors.Wrap(err, "m_idx column")
	}

	if sm.dataSize > 0 {
		nbBytes := bigend.Uint64(mapped[sm.dataColOff:sm.dataColOff+8], 8)
		csize = bigend.Uint64(mapped[sm.dataColOff+8:sm.dataColOff+16], 8)
		if sm.dataBuf, err = codec.UncompressBytes(mapped[sm.dataColOff+16:sm.dataColOff+16+csize], int(nbBytes)); err != nil {
			return errors.Wrap(err, "data column")
		}
	}
	return nil
}

// ReadCompactedSequenceWithoutMini reads the next super-k-mer without
// re-inserting the minimizer.  seq receives the residual nucleotides
// (left-padded), data the per-kmer payloads; the returned miniPos is the
// nucleotide offset where the minimizer belongs.  Returns io.EOF when the
// section is exhausted.
func (sm *SectionMinimizer) ReadCompactedSequenceWithoutMini(seq, data []byte) (nbKmers, miniPos uint64, err error) {
	if sm.curSkmer >= sm.nbBlocks {
		return 0, 0, io.EOF
	}
	if err := sm.ensureColumns(); err != nil {
		return 0, 0, err
	}

	n := sm.nValues[sm.lastNPos]
	sm.lastNPos++
	miniPos = sm.mIdx[sm.lastMIdxPos]
	sm.lastMIdxPos++

	if data != nil && sm.dataSize > 0 {
		nbData := sm.dataSize * n
		copy(data, sm.dataBuf[sm.lastDataPos:sm.lastDataPos+nbData])
		sm.lastDataPos += nbData
	}

	seqBytes := bitops.BytesFromBitArray(2, n+sm.k-sm.m-1)
	if err := sm.file.jumpTo(sm.lastSeqPos); err != nil {
		return 0, 0, err
	}
	if err := sm.file.read(seq[:seqBytes]); err != nil {
		return 0, 0, err
	}
	sm.lastSeqPos += seqBytes

	sm.curSkmer++
	sm.remainingBlocks--
	return n, miniPos, nil
}

// ReadCompactedSequence reads the next super-k-mer and re-inserts its
// minimizer.  seq must hold the full sequence (max+k-1 nucleotides).
func (sm *SectionMinimizer) ReadCompactedSequence(seq, data []byte) (uint64, error) {
	nbKmers, miniPos, err := sm.ReadCompactedSequenceWithoutMini(seq, data)
	if err != nil {
		return 0, err
	}
	sm.addMinimizer(nbKmers, seq, miniPos)
	return nbKmers, nil
}

// ReadBlock reads the next super-k-mer into a single buffer: the full
// sequence (minimizer re-inserted) immediately followed by the data.
func (sm *SectionMinimizer) ReadBlock(seqData []byte) (uint64, error) {
	seq := make([]byte, bitops.BytesFromBitArray(2, sm.k+sm.max-1))
	data := make([]byte, sm.max*sm.dataSize)
	nbKmers, miniPos, err := sm.ReadCompactedSequenceWithoutMini(seq, data)
	if err != nil {
		return 0, err
	}

	residualBytes := bitops.BytesFromBitArray(2, nbKmers+sm.k-sm.m-1)
	copy(seqData, seq[:residualBytes])
	copy(seqData[residualBytes:], data[:sm.dataSize*nbKmers])

	// Shift the data right to open the hole the minimizer grows into.
	fullBytes := bitops.BytesFromBitArray(2, nbKmers+sm.k-1)
	if bytesNeeded := fullBytes - residualBytes; bytesNeeded > 0 {
		dataBytes := sm.dataSize * nbKmers
		for i := uint64(0); i < dataBytes; i++ {
			idx := residualBytes + dataBytes - 1 - i
			seqData[idx+bytesNeeded] = seqData[idx]
			seqData[idx] = 0
		}
	}

	sm.addMinimizer(nbKmers, seqData, miniPos)
	return nbKmers, nil
}

// addMinimizer rebuilds the full sequence in place: seq arrives as the
// left-padded residual and leaves as the left-padded full sequence with
// the minimizer inserted at nucleotide miniPos.
func (sm *SectionMinimizer) addMinimizer(nbKmers uint64, seq []byte, miniPos uint64) {
	seqSize := nbKmers + sm.k - 1
	seqBytes := bitops.BytesFromBitArray(2, seqSize)
	seqLeftOffset := (4 - seqSize%4) % 4
	noMiniSize := seqSize - sm.m
	noMiniBytes := bitops.BytesFromBitArray(2, noMiniSize)
	noMiniLeftOffset := (4 - noMiniSize%4) % 4

	// Left-align the residual.
	bitops.LeftShift8(seq[:noMiniBytes], uint(noMiniLeftOffset)*2)

	// Extract the suffix (everything after the insertion point),
	// left-aligned in its own scratch.
	suffix := make([]byte, seqBytes)
	suffNucl := seqSize - sm.m - miniPos
	noMiniSuffStartByte := miniPos / 4
	noMiniSuffBytes := noMiniBytes - noMiniSuffStartByte
	copy(suffix, seq[noMiniSuffStartByte:noMiniBytes])
	bitops.LeftShift8(suffix[:noMiniSuffBytes], uint(miniPos%4)*2)

	// Left-align the minimizer in its scratch.
	mini := make([]byte, seqBytes)
	copy(mini, sm.minimizer)
	bitops.LeftShift8(mini[:sm.nbBytesMini], uint((4-sm.m%4)%4)*2)

	// Merge the minimizer at its final position.
	finalMiniStartByte := miniPos / 4
	finalMiniOffset := miniPos % 4
	finalMiniByteSize := (sm.m + finalMiniOffset + 3) / 4
	bitops.RightShift8(mini, uint(finalMiniOffset)*2)
	seq[finalMiniStartByte] = bitops.Fusion8(seq[finalMiniStartByte], mini[0], uint(finalMiniOffset)*2)
	for idx := uint64(1); idx < finalMiniByteSize; idx++ {
		seq[finalMiniStartByte+idx] = mini[idx]
	}

	// Merge the suffix right after the minimizer.
	finalSuffStartNucl := miniPos + sm.m
	finalSuffStartByte := finalSuffStartNucl / 4
	finalSuffOffset := finalSuffStartNucl % 4
	finalSuffByteSize := (suffNucl + finalSuffOffset + 3) / 4
	if finalSuffByteSize > 0 {
		bitops.RightShift8(suffix, uint(finalSuffOffset)*2)
		seq[finalSuffStartByte] = bitops.Fusion8(seq[finalSuffStartByte], suffix[0], uint(finalSuffOffset)*2)
		for idx := uint64(1); idx < finalSuffByteSize; idx++ {
			seq[finalSuffStartByte+idx] = suffix[idx]
		}
	}

	// Restore left padding for the full size.
	bitops.RightShift8(seq[:seqBytes], uint(seqLeftOffset)*2)
}

// JumpSequence skips the next super-k-mer by advancing the column cursors
// and the on-disk sequence cursor.
func (sm *SectionMinimizer) JumpSequence() error {
	if sm.curSkmer >= sm.nbBlocks {
		return nil
	}
	if err := sm.ensureColumns(); err != nil {
		return err
	}
	n := sm.nValues[sm.lastNPos]
	sm.lastNPos++
	sm.lastMIdxPos++
	sm.lastDataPos += sm.dataSize * n
	sm.lastSeqPos += bitops.BytesFromBitArray(2, n+sm.k-sm.m-1)
	sm.curSkmer++
	sm.remainingBlocks--
	return sm.file.jumpTo(sm.lastSeqPos)
}

// JumpSection skips all remaining super-k-mers.
func (sm *SectionMinimizer) JumpSection() error {
	for sm.remainingBlocks > 0 {
		if err := sm.JumpSequence(); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes the section (write mode): the minimizer is registered for
// the footer hashtable, the header and columns are written, and the column
// offsets are back-patched.  In read mode the unread blocks are skipped.
func (sm *SectionMinimizer) Close() error {
	if sm.file == nil {
		return nil
	}
	if sm.file.isWriter {
		sm.file.registerMinimizerSection(sm.MinimizerValue())
		sm.file.registerPosition('M')
		if err := sm.writeSectionHeader(); err != nil {
			return err
		}
		if err := sm.writeColumns(); err != nil {
			return err
		}
		if err := sm.backfillColumnOffsets(); err != nil {
			return err
		}
	}
	if sm.file.isReader {
		if err := sm.JumpSection(); err != nil {
			return err
		}
	}
	sm.file = nil
	return nil
}
