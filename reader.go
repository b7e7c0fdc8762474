// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package kero

import (
	"io"

	"github.com/pkg/errors"

	"github.com/RC-Kanashii/kero-api/internal/bitops"
)

// Reader walks a kero file section by section and yields its k-mers one at
// a time.  Four right-shifted copies of the current sequence are kept so
// that NextKmer can slice a k-mer out without shifting per call.
type Reader struct {
	file *File

	// currentKmer is the scratch handed to the caller by NextKmer.
	currentKmer []byte
	// currentSeqData holds the current sequence immediately followed by
	// its per-kmer data.
	currentSeqData []byte
	// currentShifts[i] is the current sequence right-shifted by 2*i
	// bits; shift 0 aliases currentSeqData.
	currentShifts [4][]byte

	currentSeqNucleotides uint64
	currentSeqBytes       uint64
	currentSeqKmers       uint64
	remainingKmers        uint64

	currentSection  BlockSection
	remainingBlocks uint64

	k        uint64
	max      uint64
	dataSize uint64
}

// NewReader opens path and positions itself on the first block.
func NewReader(path string) (*Reader, error) {
	file, err := Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{
		file:           file,
		currentKmer:    make([]byte, 1),
		currentSeqData: make([]byte, 1),
	}
	r.currentShifts[0] = r.currentSeqData
	for i := 1; i < 4; i++ {
		r.currentShifts[i] = make([]byte, 1)
	}
	if _, err := r.hasNext(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

// readUntilFirstSectionBlock consumes non-block sections until a block
// section with at least one block is current, or the end is reached.
func (r *Reader) readUntilFirstSectionBlock() error {
	for r.currentSection == nil || r.remainingBlocks == 0 {
		if r.file.pos >= r.file.endPos {
			break
		}
		t, err := r.file.ReadSectionType()
		if err != nil {
			return err
		}
		switch t {
		case 'v':
			sv, err := NewSectionVars(r.file)
			if err != nil {
				return err
			}
			if err := sv.Close(); err != nil {
				return err
			}
			r.resizeFor(sv)
		case 'i':
			si, err := NewSectionIndex(r.file)
			if err != nil {
				return err
			}
			if err := si.Close(); err != nil {
				return err
			}
		case 'h':
			sh, err := NewSectionHashtable(r.file)
			if err != nil {
				return err
			}
			if err := sh.Close(); err != nil {
				return err
			}
		default:
			sec, err := newBlockSection(r.file)
			if err != nil {
				return err
			}
			r.currentSection = sec
			r.remainingBlocks = sec.NbBlocks()
		}
	}
	return nil
}

// resizeFor reallocates the scratch buffers when a variable section
// changes the sequence or data geometry.
func (r *Reader) resizeFor(sv *SectionVars) {
	_, hasK := sv.Vars["k"]
	_, hasMax := sv.Vars["max"]
	_, hasDataSize := sv.Vars["data_size"]

	if hasK || hasMax {
		r.k, _ = r.file.GlobalVar("k")
		r.max, _ = r.file.GlobalVar("max")
		seqMax := bitops.BytesFromBitArray(2, r.max+r.k-1)
		dataMax := r.dataSize * r.max
		r.currentSeqData = make([]byte, seqMax+dataMax)
		r.currentShifts[0] = r.currentSeqData
		for i := 1; i < 4; i++ {
			r.currentShifts[i] = make([]byte, seqMax)
		}
		r.currentKmer = make([]byte, r.k/4+1)
	}
	if hasDataSize || hasMax {
		r.max, _ = r.file.GlobalVar("max")
		r.dataSize, _ = r.file.GlobalVar("data_size")
		seqMax := bitops.BytesFromBitArray(2, r.max+r.k-1)
		dataMax := r.dataSize * r.max
		r.currentSeqData = make([]byte, seqMax+dataMax)
		r.currentShifts[0] = r.currentSeqData
	}
}

// readNextBlock loads the next block and precomputes the four shifted
// copies of its sequence.
func (r *Reader) readNextBlock() error {
	n, err := r.currentSection.ReadBlock(r.currentSeqData)
	if err != nil {
		return err
	}
	r.currentSeqKmers = n
	r.remainingKmers = n
	r.currentSeqNucleotides = n + r.k - 1
	r.currentSeqBytes = bitops.BytesFromBitArray(2, r.currentSeqNucleotides)

	for i := uint64(1); i < 4 && i < r.remainingKmers; i++ {
		copy(r.currentShifts[i][:r.currentSeqBytes], r.currentShifts[0][:r.currentSeqBytes])
		bitops.RightShift8(r.currentShifts[i][:r.currentSeqBytes], uint(2*i))
	}
	return nil
}

func (r *Reader) hasNext() (bool, error) {
	if r.currentSection == nil && r.file.endPos > r.file.pos {
		if err := r.readUntilFirstSectionBlock(); err != nil {
			return false, err
		}
	}
	return r.file.endPos > r.file.pos || r.remainingKmers > 0 || r.remainingBlocks > 0, nil
}

// HasNext reports whether another k-mer is available.
func (r *Reader) HasNext() bool {
	ok, err := r.hasNext()
	return err == nil && ok
}

// NextKmer returns the next k-mer and its data.  Both slices point into
// reader-owned scratch and are only valid until the next call.  Returns
// io.EOF once the file is exhausted.
func (r *Reader) NextKmer() (kmer, data []byte, err error) {
	ok, err := r.hasNext()
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, io.EOF
	}

	if r.remainingKmers == 0 {
		if err := r.readNextBlock(); err != nil {
			return nil, nil, err
		}
	}

	rightShift := (r.remainingKmers - 1) % 4
	prefixOffset := (4 - r.currentSeqNucleotides%4) % 4
	kmerIdx := r.currentSeqKmers - r.remainingKmers

	startNucl := prefixOffset + rightShift + kmerIdx
	startByte := startNucl / 4
	endByte := (startNucl + r.k - 1) / 4

	copy(r.currentKmer[:endByte-startByte+1], r.currentShifts[rightShift][startByte:endByte+1])
	kmer = r.currentKmer[:endByte-startByte+1]
	data = r.currentSeqData[r.currentSeqBytes+kmerIdx*r.dataSize : r.currentSeqBytes+(kmerIdx+1)*r.dataSize]

	r.remainingKmers--
	if r.remainingKmers == 0 {
		r.remainingBlocks--
		if r.remainingBlocks == 0 {
			if err := r.currentSection.Close(); err != nil {
				return nil, nil, err
			}
			r.currentSection = nil
		}
	}
	return kmer, data, nil
}

// NextBlock reads a whole block into seq and data, bypassing per-kmer
// extraction.  The buffers must hold max k-mers.  Returns the number of
// k-mers in the block, or io.EOF.
func (r *Reader) NextBlock(seq, data []byte) (uint64, error) {
	ok, err := r.hasNext()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, io.EOF
	}
	if r.currentSection == nil {
		return 0, io.EOF
	}

	n, err := r.currentSection.ReadCompactedSequence(seq, data)
	if err != nil {
		return 0, err
	}

	r.remainingKmers = 0
	r.remainingBlocks--
	if r.remainingBlocks == 0 {
		if err := r.currentSection.Close(); err != nil {
			return 0, err
		}
		r.currentSection = nil
	}
	return n, nil
}

// GetVar returns a global variable of the file.
func (r *Reader) GetVar(name string) (uint64, error) {
	if v, ok := r.file.GlobalVar(name); ok {
		return v, nil
	}
	return 0, errors.Wrapf(ErrMissingVar, "variable %s is absent from the file", name)
}

// Encoding returns the 2-bit codes for A, C, G and T.
func (r *Reader) Encoding() [4]byte {
	return r.file.Encoding()
}

// File exposes the underlying container, e.g. for hashtable lookups.
func (r *Reader) File() *File {
	return r.file
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
