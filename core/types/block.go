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

import (
	"math/big"

	"github.com/tos-network/gtos/common"
)

// BlockHeader holds the fields reachability and consensus care about
// (spec.md §3). Everything else about a block (transaction list, merkle
// roots, signatures) is out of scope here and left to the embedder.
type BlockHeader struct {
	Hash                 common.Hash
	Height               Height
	Parents              []common.Hash
	Timestamp            int64 // milliseconds since epoch
	Difficulty           *Difficulty
	CumulativeDifficulty *CumulativeDifficulty
	Version              uint32

	// EstimatedCovariance is the Kalman filter's covariance state,
	// carried block-to-block (spec.md §3, §4.C). Arbitrary precision:
	// core/consensusdag's retarget step multiplies it by quantities
	// that can exceed 256 bits before the final right-shift.
	EstimatedCovariance *big.Int
}

// IsGenesis reports whether h has no parents, the defining property of the
// genesis block (spec.md §3: "parents (set of hashes; ≥1 except genesis)").
func (h *BlockHeader) IsGenesis() bool { return len(h.Parents) == 0 }
