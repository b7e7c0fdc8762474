// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package kero

import (
	"sort"

	"github.com/pkg/errors"
)

// SectionVars is a global-variable section ('v'): a list of named 64-bit
// values.  Reading one mirrors its variables into the file's global map,
// where later sections pick them up; a later section overrides earlier
// values name by name.
type SectionVars struct {
	file      *File
	beginning uint64

	// Vars holds the variables declared by this section.  In read mode
	// they are loaded during construction.
	Vars map[string]uint64
}

// NewSectionVars opens a variable section at the current position (read
// mode) or starts a new one (write mode).
func NewSectionVars(f *File) (*SectionVars, error) {
	if !f.headerOver && f.footerDiscoveryEnded {
		if err := f.completeHeader(); err != nil {
			return nil, err
		}
	}
	sv := &SectionVars{
		file:      f,
		beginning: f.pos,
		Vars:      make(map[string]uint64),
	}

	if f.isReader {
		if err := sv.readSection(); err != nil {
			return nil, err
		}
	}
	if f.isWriter {
		f.registerPosition('v')
		if err := f.write([]byte{'v'}); err != nil {
			return nil, err
		}
	}
	return sv, nil
}

// WriteVar declares a variable.  Values accumulate in memory and reach the
// file on Close, sorted by name.
func (sv *SectionVars) WriteVar(name string, value uint64) {
	sv.Vars[name] = value
	sv.file.globalVars[name] = value
}

func (sv *SectionVars) readSection() error {
	var tag [1]byte
	if err := sv.file.read(tag[:]); err != nil {
		return err
	}
	if tag[0] != 'v' {
		return errors.Wrapf(ErrCorrupted, "section starts with %q, not 'v'", tag[0])
	}
	nbVars, err := sv.file.readBigEndian(8)
	if err != nil {
		return err
	}
	for i := uint64(0); i < nbVars; i++ {
		if err := sv.readVar(); err != nil {
			return err
		}
	}
	return nil
}

func (sv *SectionVars) readVar() error {
	if sv.file.pos >= sv.file.endPos {
		return errors.Wrap(ErrCorrupted, "eof inside a variable section")
	}

	var name []byte
	var c [1]byte
	for {
		if err := sv.file.read(c[:]); err != nil {
			return err
		}
		if c[0] == 0 {
			break
		}
		name = append(name, c[0])
	}

	value, err := sv.file.readBigEndian(8)
	if err != nil {
		return err
	}

	sv.Vars[string(name)] = value
	sv.file.globalVars[string(name)] = value
	return nil
}

// Close writes the accumulated variables (write mode) and releases the
// file.
func (sv *SectionVars) Close() error {
	if sv.file == nil {
		return nil
	}
	if sv.file.isWriter {
		if err := sv.file.writeBigEndian(8, uint64(len(sv.Vars))); err != nil {
			return err
		}
		names := make([]string, 0, len(sv.Vars))
		for name := range sv.Vars {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := sv.file.write(append([]byte(name), 0)); err != nil {
				return err
			}
			if err := sv.file.writeBigEndian(8, sv.Vars[name]); err != nil {
				return err
			}
		}
	}
	sv.file = nil
	return nil
}
