// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package kero

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/RC-Kanashii/kero-api/internal/mph"
)

// SectionHashtable is a hashtable section ('h'): a minimal perfect hash
// over every minimizer appearing in the file, plus a value table mapping
// each minimizer to the absolute offset of its 'M' section tag.  Lookups
// are only defined for minimizers present in the file.
type SectionHashtable struct {
	file      *File
	beginning uint64

	table *mph.HashTable

	// Registered pairs, consumed by the build on Close (write mode).
	keys    []uint64
	offsets []uint64
}

// NewSectionHashtable opens a hashtable section at the current position
// and loads the MPH and its value table (read mode).
func NewSectionHashtable(f *File) (*SectionHashtable, error) {
	if !f.headerOver && f.footerDiscoveryEnded {
		if err := f.completeHeader(); err != nil {
			return nil, err
		}
	}
	sh := &SectionHashtable{file: f, beginning: f.pos}

	if f.isReader {
		if err := sh.readSection(); err != nil {
			return nil, err
		}
		f.hashtable = sh
	}
	return sh, nil
}

func newSectionHashtableWriter(f *File) *SectionHashtable {
	return &SectionHashtable{file: f, beginning: f.pos}
}

func (sh *SectionHashtable) readSection() error {
	var tag [1]byte
	if err := sh.file.read(tag[:]); err != nil {
		return err
	}
	if tag[0] != 'h' {
		return errors.Wrapf(ErrCorrupted, "section starts with %q, not 'h'", tag[0])
	}

	mphSize, err := sh.file.readBigEndian(8)
	if err != nil {
		return err
	}
	mphBytes := make([]byte, mphSize)
	if err := sh.file.read(mphBytes); err != nil {
		return err
	}
	table := &mph.HashTable{}
	if err := table.Table.UnmarshalBinary(mphBytes); err != nil {
		return errors.Wrap(ErrCorrupted, err.Error())
	}

	nbEntries, err := sh.file.readBigEndian(8)
	if err != nil {
		return err
	}
	table.Values = make([]uint64, nbEntries)
	for i := uint64(0); i < nbEntries; i++ {
		if table.Values[i], err = sh.file.readBigEndian(8); err != nil {
			return err
		}
	}
	sh.table = table
	return nil
}

// Register records a minimizer and the absolute offset of its section.
func (sh *SectionHashtable) Register(minimizer, offset uint64) {
	sh.keys = append(sh.keys, minimizer)
	sh.offsets = append(sh.offsets, offset)
}

// Lookup returns the absolute file offset of the minimizer's section tag.
// The result is only meaningful for minimizers present in the file.
func (sh *SectionHashtable) Lookup(minimizer uint64) (uint64, error) {
	if sh.table == nil {
		return 0, errors.Wrap(ErrMode, "hashtable not built yet")
	}
	return sh.table.Lookup(minimizer), nil
}

// Len returns the number of minimizers indexed.
func (sh *SectionHashtable) Len() int {
	if sh.table == nil {
		return len(sh.keys)
	}
	return sh.table.Len()
}

// Close builds and writes the hashtable (write mode, skipped when no
// minimizer was registered) and releases the file.
func (sh *SectionHashtable) Close() error {
	if sh.file == nil {
		return nil
	}
	if sh.file.isWriter && len(sh.keys) > 0 {
		table, err := mph.BuildTable(sh.keys, sh.offsets)
		if err != nil {
			return errors.Wrap(err, "kero: hashtable build")
		}
		sh.table = table
		log.Debugf("kero: hashtable over %d minimizers", len(sh.keys))

		mphBytes, err := table.Table.MarshalBinary()
		if err != nil {
			return errors.Wrap(err, "kero: hashtable marshal")
		}

		sh.file.registerPosition('h')
		sh.beginning = sh.file.pos
		if err := sh.file.write([]byte{'h'}); err != nil {
			return err
		}
		if err := sh.file.writeBigEndian(8, uint64(len(mphBytes))); err != nil {
			return err
		}
		if err := sh.file.write(mphBytes); err != nil {
			return err
		}
		if err := sh.file.writeBigEndian(8, uint64(len(table.Values))); err != nil {
			return err
		}
		for _, v := range table.Values {
			if err := sh.file.writeBigEndian(8, v); err != nil {
				return err
			}
		}
	}
	sh.file = nil
	return nil
}
