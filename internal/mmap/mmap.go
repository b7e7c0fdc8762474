// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmap provides a read-only memory map over a whole file.  The
// mapping is private, so nothing a caller does to the returned bytes can
// reach the disk.
package mmap

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ReaderAt is a read-only byte view over a mapped file.
type ReaderAt struct {
	data []byte
	f    *os.File
}

// Open maps the file at path.
func Open(path string) (*ReaderAt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "os.Open(%s)", path)
	}
	stats, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "f.Stat")
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(stats.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "unix.Mmap(%s)", path)
	}
	return &ReaderAt{data: data, f: f}, nil
}

// Data returns the mapped bytes.  They stay valid until Close.
func (r *ReaderAt) Data() []byte {
	return r.data
}

// Len returns the size of the mapped file.
func (r *ReaderAt) Len() int {
	return len(r.data)
}

// Close unmaps the view and closes the underlying file.
func (r *ReaderAt) Close() error {
	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil {
			return errors.Wrap(err, "unix.Munmap")
		}
		r.data = nil
	}
	if r.f != nil {
		err := r.f.Close()
		r.f = nil
		return err
	}
	return nil
}
