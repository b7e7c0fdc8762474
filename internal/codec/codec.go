// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package codec wraps the intcomp delta + binary-packing codec behind the
// byte-oriented interface the minimizer section columns need.  The
// compressed stream is opaque: its byte length is recorded by the caller
// next to the payload, and the decoded element count is recorded
// separately, so neither direction has to guess sizes.
package codec

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/ronanh/intcomp"
)

// ErrTruncated reports a compressed payload whose length is not a whole
// number of codec words.
var ErrTruncated = errors.New("codec: truncated compressed payload")

// CompressUint64 compresses vals and returns the payload as big-endian
// bytes.  An empty input yields an empty payload.
func CompressUint64(vals []uint64) []byte {
	if len(vals) == 0 {
		return nil
	}
	words := intcomp.CompressUint64(vals, nil)
	return wordsToBytes(words)
}

// UncompressUint64 reverses CompressUint64.  n is the expected element
// count; a mismatch means the payload does not belong to this column.
func UncompressUint64(b []byte, n int) ([]uint64, error) {
	if n == 0 {
		return nil, nil
	}
	words, err := bytesToWords(b)
	if err != nil {
		return nil, err
	}
	vals := intcomp.UncompressUint64(words, make([]uint64, 0, n))
	if len(vals) != n {
		return nil, errors.Errorf("codec: decoded %d elements, want %d", len(vals), n)
	}
	return vals, nil
}

// CompressBytes widens vals to uint64 and runs them through the same codec.
func CompressBytes(vals []byte) []byte {
	if len(vals) == 0 {
		return nil
	}
	wide := make([]uint64, len(vals))
	for i, v := range vals {
		wide[i] = uint64(v)
	}
	return CompressUint64(wide)
}

// UncompressBytes reverses CompressBytes.
func UncompressBytes(b []byte, n int) ([]byte, error) {
	wide, err := UncompressUint64(b, n)
	if err != nil {
		return nil, err
	}
	vals := make([]byte, n)
	for i, v := range wide {
		vals[i] = byte(v)
	}
	return vals, nil
}

func wordsToBytes(words []uint64) []byte {
	b := make([]byte, 8*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint64(b[8*i:], w)
	}
	return b
}

func bytesToWords(b []byte) ([]uint64, error) {
	if len(b)%8 != 0 {
		return nil, errors.Wrapf(ErrTruncated, "%d bytes", len(b))
	}
	words := make([]uint64, len(b)/8)
	for i := range words {
		words[i] = binary.BigEndian.Uint64(b[8*i:])
	}
	return words, nil
}
