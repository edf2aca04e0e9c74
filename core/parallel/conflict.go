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

// Package parallel implements conflict-graph batched transaction execution
// (spec.md §4.D): GTOS has no VM opcode set to speculatively re-execute —
// every transaction's touched-account set is statically known up front
// (§3), so batching is exact, not optimistic.
package parallel

import "github.com/tos-network/gtos/core/types"

// BuildBatches partitions txs into an ordered list of index batches, each
// pairwise conflict-free on touched accounts, following spec.md §4.D's
// running-locked-set construction: walk txs in order, and whenever a tx's
// touched set intersects the accounts already locked by the current batch,
// close that batch and start a new one.
func BuildBatches(txs []types.Transaction) [][]int {
	if len(txs) == 0 {
		return nil
	}

	var batches [][]int
	var current []int
	locked := make(map[types.PublicKey]struct{})

	for i, tx := range txs {
		touched := types.TouchedAccounts(tx)
		if intersects(locked, touched) {
			batches = append(batches, current)
			current = nil
			locked = make(map[types.PublicKey]struct{})
		}
		current = append(current, i)
		for acc := range touched {
			locked[acc] = struct{}{}
		}
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func intersects(locked map[types.PublicKey]struct{}, touched map[types.PublicKey]struct{}) bool {
	for acc := range touched {
		if _, ok := locked[acc]; ok {
			return true
		}
	}
	return false
}
