// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package kero

import "github.com/pkg/errors"

var (
	// ErrSignature reports a missing KERO signature at either end of the
	// file.
	ErrSignature = errors.New("kero: missing KERO signature")

	// ErrVersion reports a file written by a newer library version than
	// this reader.
	ErrVersion = errors.New("kero: file version newer than reader")

	// ErrCorrupted reports a structurally invalid file: an unknown section
	// tag, a truncated frame, or a malformed encoding.
	ErrCorrupted = errors.New("kero: corrupted file")

	// ErrMissingVar reports a block section opened before its required
	// global variables were declared.
	ErrMissingVar = errors.New("kero: missing global variable")

	// ErrOutOfRange reports a read or seek beyond the written extent of
	// the file.
	ErrOutOfRange = errors.New("kero: position out of range")

	// ErrClosed reports an operation on a closed file.
	ErrClosed = errors.New("kero: file is closed")

	// ErrMode reports a write on a reader, or a read on a writer.
	ErrMode = errors.New("kero: operation not valid in this mode")
)
