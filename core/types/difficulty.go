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

package types

import "github.com/holiman/uint256"

// Difficulty and CumulativeDifficulty are fixed-width 256-bit unsigned
// integers (spec.md §3), using the type from go-ethereum's own dependency
// set (github.com/holiman/uint256) rather than math/big. Add on this type
// wraps modulo 2^256; it does not grow past 256 bits — see
// DESIGN.md for why the Kalman retarget filter (core/consensusdag) uses
// math/big instead, where intermediate products can exceed 256 bits.
type Difficulty = uint256.Int

// CumulativeDifficulty is the sum of block difficulties along a
// selected-parent chain (spec.md GLOSSARY).
type CumulativeDifficulty = uint256.Int

// NewDifficulty constructs a Difficulty from a uint64.
func NewDifficulty(v uint64) *Difficulty {
	return uint256.NewInt(v)
}

// AddDifficulty returns a + b as a new CumulativeDifficulty, per spec.md
// §4.C: "Cumulative difficulty of block X = X.difficulty + max over
// parents p of cumulative_difficulty(p)".
func AddDifficulty(a, b *Difficulty) *CumulativeDifficulty {
	out := new(uint256.Int)
	return out.Add(a, b)
}

// CmpDifficulty compares a and b, returning -1, 0 or +1.
func CmpDifficulty(a, b *Difficulty) int {
	return a.Cmp(b)
}
