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

// Package common holds fixed-size identifiers and small helpers shared by
// every package in the tree.
package common

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"

	"lukechampine.com/blake3"
)

// HashLength is the size in bytes of a Hash.
const HashLength = 32

// Hash is a fixed 32-byte opaque identifier with total ordering, hex
// display and serialization, per spec.md §3.
type Hash [HashLength]byte

// BytesToHash copies b into a Hash, left-padding with zero bytes if b is
// shorter than HashLength and truncating from the left if it is longer.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HexToHash parses a hex string (with or without 0x prefix) into a Hash.
func HexToHash(s string) (Hash, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("common: invalid hex hash %q: %w", s, err)
	}
	if len(b) != HashLength {
		return Hash{}, fmt.Errorf("common: hash %q has %d bytes, want %d", s, len(b), HashLength)
	}
	return BytesToHash(b), nil
}

// HashData returns BLAKE3(data...), the hash function used throughout the
// core (contract addresses, scheduled-execution identity, block hashing by
// embedders).
func HashData(data ...[]byte) Hash {
	h := blake3.New(HashLength, nil)
	for _, d := range data {
		h.Write(d)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Bytes returns a copy of h as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the 0x-prefixed lower-case hex encoding of h.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// Cmp returns -1, 0 or +1 comparing h to o lexicographically, used for the
// "lexicographically smallest hash" tiebreaks in spec.md §4.C and §4.E.
func (h Hash) Cmp(o Hash) int { return bytes.Compare(h[:], o[:]) }

// Less reports whether h sorts strictly before o.
func (h Hash) Less(o Hash) bool { return h.Cmp(o) < 0 }

// SortHashes sorts hashes in increasing lexicographic order in place.
func SortHashes(hashes []Hash) {
	sort.Slice(hashes, func(i, j int) bool { return hashes[i].Less(hashes[j]) })
}

// MarshalText implements encoding.TextMarshaler so Hash round-trips through
// JSON and other text encodings as its hex form.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := HexToHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
