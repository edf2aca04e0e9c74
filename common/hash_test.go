// Copyright 2024 The gtos Authors
// This file is part of the gtos library.
//
// The gtos library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The gtos library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the gtos library. If not, see <http://www.gnu.org/licenses/>.

package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashHexRoundTrip(t *testing.T) {
	h := HashData([]byte("test contract bytecode"))
	parsed, err := HexToHash(h.Hex())
	require.NoError(t, err)
	require.Equal(t, h, parsed)
}

func TestHashDataDeterministic(t *testing.T) {
	a := HashData([]byte("abc"), []byte("def"))
	b := HashData([]byte("abc"), []byte("def"))
	require.Equal(t, a, b)

	c := HashData([]byte("abcdef"))
	require.Equal(t, a, c, "HashData hashes the concatenation of its inputs")
}

func TestHashOrdering(t *testing.T) {
	tests := []struct {
		a, b Hash
		want int
	}{
		{BytesToHash([]byte{0x01}), BytesToHash([]byte{0x02}), -1},
		{BytesToHash([]byte{0x02}), BytesToHash([]byte{0x01}), 1},
		{BytesToHash([]byte{0xAA}), BytesToHash([]byte{0xAA}), 0},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, tc.a.Cmp(tc.b))
	}

	hashes := []Hash{
		BytesToHash([]byte{0xCC}),
		BytesToHash([]byte{0xAA}),
		BytesToHash([]byte{0xBB}),
	}
	SortHashes(hashes)
	require.True(t, hashes[0].Less(hashes[1]))
	require.True(t, hashes[1].Less(hashes[2]))
}

func TestBytesToHashPadsAndTruncates(t *testing.T) {
	short := BytesToHash([]byte{0x01, 0x02})
	require.Equal(t, byte(0x01), short[HashLength-2])
	require.Equal(t, byte(0x02), short[HashLength-1])
	require.Equal(t, byte(0), short[0])

	long := make([]byte, HashLength+4)
	for i := range long {
		long[i] = byte(i)
	}
	truncated := BytesToHash(long)
	require.Equal(t, long[4:], truncated.Bytes())
}
