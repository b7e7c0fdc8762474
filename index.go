// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package kero

import (
	"sort"

	"github.com/pkg/errors"
)

const (
	// indexHeaderLen covers the tag, the 8-byte entry count and the
	// trailing 8-byte next_index link.  indexEntryLen covers one
	// (type, relative offset) pair.  The end-of-index arithmetic in
	// File.writeFooter depends on both; revise them together if an
	// entry ever grows.
	indexHeaderLen = 1 + 8 + 8
	indexEntryLen  = 1 + 8
)

// IndexEntry locates one section: its tag and the absolute offset of the
// tag byte.
type IndexEntry struct {
	Type   byte
	Offset uint64
}

// SectionIndex is an index section ('i'): a catalog of (section type,
// relative offset) pairs and a link to the next index section of the
// chain.  Offsets on the wire are relative to the end of the index
// section; Entries resolves them to absolute positions.
type SectionIndex struct {
	file      *File
	beginning uint64

	// entries maps wire-relative offsets to section tags.
	entries map[int64]byte

	// NextIndex is the chain link, relative to the position immediately
	// after it; 0 ends the chain.
	NextIndex int64
}

// NewSectionIndex opens an index section at the current position (read
// mode) or starts one for the footer (write mode writes on Close).
func NewSectionIndex(f *File) (*SectionIndex, error) {
	if !f.headerOver && f.footerDiscoveryEnded {
		if err := f.completeHeader(); err != nil {
			return nil, err
		}
	}
	si := &SectionIndex{
		file:      f,
		beginning: f.pos,
		entries:   make(map[int64]byte),
	}

	if f.isReader {
		if err := si.readSection(); err != nil {
			return nil, err
		}
	}
	return si, nil
}

func newSectionIndexWriter(f *File) *SectionIndex {
	return &SectionIndex{
		file:      f,
		beginning: f.pos,
		entries:   make(map[int64]byte),
	}
}

func (si *SectionIndex) readSection() error {
	var tag [1]byte
	if err := si.file.read(tag[:]); err != nil {
		return err
	}
	if tag[0] != 'i' {
		return errors.Wrapf(ErrCorrupted, "section starts with %q, not 'i'", tag[0])
	}
	nbEntries, err := si.file.readBigEndian(8)
	if err != nil {
		return err
	}
	for i := uint64(0); i < nbEntries; i++ {
		var t [1]byte
		if err := si.file.read(t[:]); err != nil {
			return err
		}
		off, err := si.file.readBigEndian(8)
		if err != nil {
			return err
		}
		si.entries[int64(off)] = t[0]
	}
	if uint64(len(si.entries)) != nbEntries {
		return errors.Wrap(ErrCorrupted, "offset collision in index section")
	}
	next, err := si.file.readBigEndian(8)
	if err != nil {
		return err
	}
	si.NextIndex = int64(next)
	return nil
}

// RegisterSection adds a section to the catalog.  The offset is relative
// to the end of this index section.
func (si *SectionIndex) RegisterSection(sectionType byte, offset int64) {
	si.entries[offset] = sectionType
}

// SetNextIndex links this catalog to the next one in the chain.
func (si *SectionIndex) SetNextIndex(offset int64) {
	si.NextIndex = offset
}

// Entries returns the catalog with offsets resolved to absolute positions.
func (si *SectionIndex) Entries() []IndexEntry {
	end := si.beginning + indexHeaderLen + indexEntryLen*uint64(len(si.entries))
	rels := make([]int64, 0, len(si.entries))
	for rel := range si.entries {
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i] < rels[j] })
	out := make([]IndexEntry, 0, len(rels))
	for _, rel := range rels {
		out = append(out, IndexEntry{
			Type:   si.entries[rel],
			Offset: uint64(int64(end) + rel),
		})
	}
	return out
}

// Close writes the catalog (write mode) and releases the file.
func (si *SectionIndex) Close() error {
	if si.file == nil {
		return nil
	}
	if si.file.isWriter {
		si.file.registerPosition('i')
		if err := si.file.write([]byte{'i'}); err != nil {
			return err
		}
		if err := si.file.writeBigEndian(8, uint64(len(si.entries))); err != nil {
			return err
		}
		rels := make([]int64, 0, len(si.entries))
		for rel := range si.entries {
			rels = append(rels, rel)
		}
		sort.Slice(rels, func(i, j int) bool { return rels[i] < rels[j] })
		for _, rel := range rels {
			if err := si.file.write([]byte{si.entries[rel]}); err != nil {
				return err
			}
			if err := si.file.writeBigEndian(8, uint64(rel)); err != nil {
				return err
			}
		}
		if err := si.file.writeBigEndian(8, uint64(si.NextIndex)); err != nil {
			return err
		}
	}
	si.file = nil
	return nil
}
