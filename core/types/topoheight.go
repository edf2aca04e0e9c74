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

// TopoHeight is the strictly increasing ordinal assigned to each block in
// the canonical topological order (spec.md §3). 0 is genesis.
type TopoHeight uint64

// GenesisTopoHeight is the topoheight assigned to the genesis block.
const GenesisTopoHeight TopoHeight = 0

// Height is a block's distance from genesis along a chain.
type Height uint64
