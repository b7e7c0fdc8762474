// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package codec

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint64RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 2, 100, 1000} {
		vals := make([]uint64, n)
		for i := range vals {
			vals[i] = uint64(rng.Int63n(1 << 20))
		}
		compressed := CompressUint64(vals)
		got, err := UncompressUint64(compressed, n)
		require.NoError(t, err)
		assert.Equal(t, vals, got, "n=%d", n)
	}
}

func TestUint64Empty(t *testing.T) {
	assert.Empty(t, CompressUint64(nil))
	got, err := UncompressUint64(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBytesRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{1, 3, 256, 4096} {
		vals := make([]byte, n)
		_, err := rng.Read(vals)
		require.NoError(t, err)
		compressed := CompressBytes(vals)
		got, err := UncompressBytes(compressed, n)
		require.NoError(t, err)
		assert.Equal(t, vals, got, "n=%d", n)
	}
}

func TestTruncatedPayload(t *testing.T) {
	compressed := CompressUint64([]uint64{1, 2, 3})
	_, err := UncompressUint64(compressed[:len(compressed)-1], 3)
	assert.ErrorIs(t, err, ErrTruncated)
}
