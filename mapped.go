// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package kero

import (
	"github.com/RC-Kanashii/kero-api/internal/mmap"
)

// Mapped is a read-only memory map of a whole kero file, used to precache
// minimizer-section columns without file I/O.  The view may be shared by
// any number of readers.
type Mapped struct {
	ra *mmap.ReaderAt
}

// OpenMapped maps the file at path.
func OpenMapped(path string) (*Mapped, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return &Mapped{ra: ra}, nil
}

// Data returns the mapped bytes; valid until Close.
func (m *Mapped) Data() []byte {
	return m.ra.Data()
}

// Len returns the file size.
func (m *Mapped) Len() int {
	return m.ra.Len()
}

// Close unmaps the view.
func (m *Mapped) Close() error {
	return m.ra.Close()
}
