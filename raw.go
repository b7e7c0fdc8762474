// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package kero

import (
	"github.com/pkg/errors"

	"github.com/RC-Kanashii/kero-api/internal/bigend"
	"github.com/RC-Kanashii/kero-api/internal/bitops"
)

// SectionRaw is a raw sequence section ('r'): sequential compacted k-mer
// blocks, each holding a k-mer count, the packed sequence, and the inline
// per-kmer data.  The globals k, max and data_size must be declared before
// the section opens.
type SectionRaw struct {
	file      *File
	beginning uint64

	nbBlocks        uint64
	remainingBlocks uint64

	k        uint64
	max      uint64
	dataSize uint64

	// nbKmersBytes is the width of the per-block k-mer count; 0 when
	// max == 1 and the count is implicit.
	nbKmersBytes int
}

// NewSectionRaw opens a raw section at the current position (read mode) or
// starts a new one (write mode).
func NewSectionRaw(f *File) (*SectionRaw, error) {
	if !f.headerOver && f.footerDiscoveryEnded {
		if err := f.completeHeader(); err != nil {
			return nil, err
		}
	}

	k, ok := f.GlobalVar("k")
	if !ok {
		return nil, errors.Wrap(ErrMissingVar, "raw section needs k")
	}
	max, ok := f.GlobalVar("max")
	if !ok {
		return nil, errors.Wrap(ErrMissingVar, "raw section needs max")
	}
	dataSize, ok := f.GlobalVar("data_size")
	if !ok {
		return nil, errors.Wrap(ErrMissingVar, "raw section needs data_size")
	}

	sr := &SectionRaw{
		file:         f,
		beginning:    f.pos,
		k:            k,
		max:          max,
		dataSize:     dataSize,
		nbKmersBytes: int(bitops.BytesFromBitArray(bitops.CeilLog2(max), 1)),
	}

	if f.isReader {
		if err := sr.readSectionHeader(); err != nil {
			return nil, err
		}
	}
	if f.isWriter {
		f.registerPosition('r')
		if err := f.write([]byte{'r'}); err != nil {
			return nil, err
		}
		// Block count placeholder, back-patched on Close.
		if err := f.write(make([]byte, 8)); err != nil {
			return nil, err
		}
	}
	return sr, nil
}

func (sr *SectionRaw) readSectionHeader() error {
	var tag [1]byte
	if err := sr.file.read(tag[:]); err != nil {
		return err
	}
	if tag[0] != 'r' {
		return errors.Wrapf(ErrCorrupted, "section starts with %q, not 'r'", tag[0])
	}
	nbBlocks, err := sr.file.readBigEndian(8)
	if err != nil {
		return err
	}
	sr.nbBlocks = nbBlocks
	sr.remainingBlocks = nbBlocks
	return nil
}

// NbBlocks returns the number of blocks in the section.
func (sr *SectionRaw) NbBlocks() uint64 { return sr.nbBlocks }

// RemainingBlocks returns the number of blocks not yet read.
func (sr *SectionRaw) RemainingBlocks() uint64 { return sr.remainingBlocks }

// WriteCompactedSequence writes one block: a compacted sequence of seqSize
// nucleotides and the data attached to its seqSize-k+1 k-mers.
func (sr *SectionRaw) WriteCompactedSequence(seq []byte, seqSize uint64, data []byte) error {
	nbKmers := seqSize - sr.k + 1
	if sr.nbKmersBytes > 0 {
		if err := sr.file.writeBigEndian(sr.nbKmersBytes, nbKmers); err != nil {
			return err
		}
	}
	seqBytes := (seqSize + 3) / 4
	if err := sr.file.write(seq[:seqBytes]); err != nil {
		return err
	}
	dataBytes := sr.dataSize * nbKmers
	if dataBytes > 0 {
		if err := sr.file.write(data[:dataBytes]); err != nil {
			return err
		}
	}
	sr.nbBlocks++
	return nil
}

func (sr *SectionRaw) readBlockHeader() (uint64, error) {
	nbKmers := uint64(1)
	if sr.nbKmersBytes != 0 {
		n, err := sr.file.readBigEndian(sr.nbKmersBytes)
		if err != nil {
			return 0, err
		}
		nbKmers = n
	}
	return nbKmers, nil
}

// ReadCompactedSequence reads the next block into seq and data, which must
// be large enough for max k-mers.  Returns the number of k-mers.
func (sr *SectionRaw) ReadCompactedSequence(seq, data []byte) (uint64, error) {
	nbKmers, err := sr.readBlockHeader()
	if err != nil {
		return 0, err
	}
	seqSize := nbKmers + sr.k - 1
	seqBytes := (seqSize + 3) / 4
	if err := sr.file.read(seq[:seqBytes]); err != nil {
		return 0, err
	}
	dataBytes := sr.dataSize * nbKmers
	if dataBytes > 0 {
		if err := sr.file.read(data[:dataBytes]); err != nil {
			return 0, err
		}
	}
	sr.remainingBlocks--
	return nbKmers, nil
}

// ReadBlock reads the next block into a single buffer: the compacted
// sequence immediately followed by the data.
func (sr *SectionRaw) ReadBlock(seqData []byte) (uint64, error) {
	nbKmers, err := sr.readBlockHeader()
	if err != nil {
		return 0, err
	}
	seqSize := nbKmers + sr.k - 1
	seqBytes := (seqSize + 3) / 4
	dataBytes := sr.dataSize * nbKmers
	if err := sr.file.read(seqData[:seqBytes+dataBytes]); err != nil {
		return 0, err
	}
	sr.remainingBlocks--
	return nbKmers, nil
}

// JumpSequence skips the next block, reading only its k-mer count.
func (sr *SectionRaw) JumpSequence() error {
	nbKmers, err := sr.readBlockHeader()
	if err != nil {
		return err
	}
	seqSize := nbKmers + sr.k - 1
	seqBytes := (seqSize + 3) / 4
	if err := sr.file.jump(int64(seqBytes + sr.dataSize*nbKmers)); err != nil {
		return err
	}
	sr.remainingBlocks--
	return nil
}

// JumpSection skips all remaining blocks.
func (sr *SectionRaw) JumpSection() error {
	for sr.remainingBlocks > 0 {
		if err := sr.JumpSequence(); err != nil {
			return err
		}
	}
	return nil
}

// Close back-patches the block count (write mode) or jumps the unread
// blocks (read mode), then releases the file.
func (sr *SectionRaw) Close() error {
	if sr.file == nil {
		return nil
	}
	if sr.file.isWriter {
		var buf [8]byte
		bigend.PutUint64(buf[:], 8, sr.nbBlocks)
		if err := sr.file.writeAt(buf[:], sr.beginning+1); err != nil {
			return err
		}
	}
	if sr.file.isReader {
		if err := sr.JumpSection(); err != nil {
			return err
		}
	}
	sr.file = nil
	return nil
}
