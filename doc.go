// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package kero reads and writes KERO files: containers of compacted k-mer
// sequences grouped around their minimizers, with random access into
// minimizer groups through a minimal perfect hash.
//
// A KERO file generally looks like:
//
//	┌────────────────────────┐
//	│ 'K' 'E' 'R' 'O'        │
//	│ version, encoding,     │
//	│ flags, metadata        │
//	├────────────────────────┤
//	│ repeated sections      │
//	│   'v' global variables │
//	│   'r' raw blocks       │
//	│   'M' minimizer blocks │
//	├────────────────────────┤
//	│ 'h' hashtable          │
//	│ 'i' index chain        │
//	│ 'v' footer             │
//	├────────────────────────┤
//	│ 'K' 'E' 'R' 'O'        │
//	└────────────────────────┘
//
// All multi-byte integers are big-endian.  Nucleotides are packed two bits
// each, four per byte, with unused bits in the most significant positions
// of byte 0 (left padding).
//
// A File is exclusively owned by one writer or one reader; sections borrow
// the file for the duration of their lifetime and must be closed before
// the next section is opened.
package kero
