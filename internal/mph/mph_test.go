// Copyright 2025 The kero Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mph

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomKeys(t *testing.T, n int) []uint64 {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	seen := make(map[uint64]struct{}, n)
	keys := make([]uint64, 0, n)
	for len(keys) < n {
		k := rng.Uint64()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

func TestBuildIsMinimal(t *testing.T) {
	for _, n := range []int{1, 2, 10, 1000} {
		keys := randomKeys(t, n)
		table, err := Build(keys)
		require.NoError(t, err)

		seen := make(map[uint64]bool, n)
		for _, key := range keys {
			ord := table.Eval(key)
			require.Less(t, ord, uint64(n), "ordinal out of range for n=%d", n)
			require.False(t, seen[ord], "ordinal %d assigned twice", ord)
			seen[ord] = true
		}
	}
}

func TestBuildRejectsDuplicates(t *testing.T) {
	_, err := Build([]uint64{42, 100, 42})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestMarshalRoundTrip(t *testing.T) {
	keys := randomKeys(t, 500)
	table, err := Build(keys)
	require.NoError(t, err)

	b, err := table.MarshalBinary()
	require.NoError(t, err)

	var loaded Table
	require.NoError(t, loaded.UnmarshalBinary(b))
	for _, key := range keys {
		assert.Equal(t, table.Eval(key), loaded.Eval(key))
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	var table Table
	assert.Error(t, table.UnmarshalBinary([]byte{1, 2, 3}))
	assert.Error(t, table.UnmarshalBinary(make([]byte, 32)))
}

func TestHashTableLookup(t *testing.T) {
	keys := randomKeys(t, 100)
	values := make([]uint64, len(keys))
	for i := range values {
		values[i] = uint64(i) * 1000
	}
	h, err := BuildTable(keys, values)
	require.NoError(t, err)
	require.Equal(t, len(keys), h.Len())

	for i, key := range keys {
		assert.Equal(t, values[i], h.Lookup(key))
	}
}

func TestBuildTableLengthMismatch(t *testing.T) {
	_, err := BuildTable([]uint64{1, 2}, []uint64{3})
	assert.Error(t, err)
}
