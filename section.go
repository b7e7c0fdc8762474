// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package kero

import "github.com/pkg/errors"

// Section is any typed byte range of a kero file.  Sections borrow their
// file exclusively; Close releases the borrow and, in write mode, flushes
// deferred data such as counters and column offsets.
type Section interface {
	Close() error
}

// BlockSection is a section containing compacted k-mer blocks: raw ('r')
// or vertical minimizer ('M', legacy 'm').
type BlockSection interface {
	Section

	// NbBlocks returns the number of blocks in the section.
	NbBlocks() uint64
	// RemainingBlocks returns the number of blocks not yet read.
	RemainingBlocks() uint64
	// ReadBlock reads the next block into seqData: the compacted
	// sequence immediately followed by its per-kmer data.  Returns the
	// number of k-mers in the block.
	ReadBlock(seqData []byte) (uint64, error)
	// ReadCompactedSequence reads the next block into separate sequence
	// and data buffers.
	ReadCompactedSequence(seq, data []byte) (uint64, error)
	// JumpSequence skips the next block.
	JumpSequence() error
	// JumpSection skips all remaining blocks.
	JumpSection() error
}

// NextSection peeks the tag at the current position and opens the matching
// section.  The position must be aligned on the first byte of a section.
func NextSection(f *File) (Section, error) {
	t, err := f.ReadSectionType()
	if err != nil {
		return nil, err
	}
	switch t {
	case 'v':
		return NewSectionVars(f)
	case 'i':
		return NewSectionIndex(f)
	case 'r':
		return NewSectionRaw(f)
	case 'm', 'M':
		return NewSectionMinimizer(f)
	case 'h':
		return NewSectionHashtable(f)
	default:
		return nil, errors.Wrapf(ErrCorrupted, "unknown section %q (%d)", t, t)
	}
}

// newBlockSection opens the block section at the current position.
func newBlockSection(f *File) (BlockSection, error) {
	if err := f.completeHeader(); err != nil {
		return nil, err
	}
	t, err := f.ReadSectionType()
	if err != nil {
		return nil, err
	}
	switch t {
	case 'r':
		return NewSectionRaw(f)
	case 'm', 'M':
		return NewSectionMinimizer(f)
	default:
		return nil, errors.Wrapf(ErrCorrupted, "section %q contains no blocks", t)
	}
}
