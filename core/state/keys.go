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

package state

import (
	"github.com/tos-network/gtos/common"
	"github.com/tos-network/gtos/core/types"
)

// Namespace prefixes partition the flat key-value space VersionedStore
// sits on top of into the logical record kinds spec.md §3/§6 names:
// account nonce, account balance per asset, contract storage cell, asset
// supply, and the global counters (burned coins, total supply, per-block
// fee pot) that DESIGN NOTES §9 says must be versioned records rather than
// process-wide mutable state.
const (
	nsNonce   = "n:"
	nsBalance = "b:"
	nsStorage = "s:"
	nsSupply  = "a:"
	nsBurned  = "burned"
	nsTotal   = "total-supply"
	nsFees    = "block-fees"
)

// NonceKey builds the logical key for an account's nonce.
func NonceKey(account types.PublicKey) []byte {
	return append([]byte(nsNonce), account[:]...)
}

// BalanceKey builds the logical key for an account's balance of asset.
func BalanceKey(account types.PublicKey, asset types.Asset) []byte {
	k := append([]byte(nsBalance), account[:]...)
	return append(k, asset[:]...)
}

// ContractStorageKey builds the logical key for one contract storage cell.
func ContractStorageKey(contract types.PublicKey, cell types.StorageKey) []byte {
	k := append([]byte(nsStorage), contract[:]...)
	return append(k, cell[:]...)
}

// AssetSupplyKey builds the logical key for an asset's total supply.
func AssetSupplyKey(asset types.Asset) []byte {
	return append([]byte(nsSupply), asset[:]...)
}

// BurnedCoinsKey is the logical key for the monotone burned-coins counter.
func BurnedCoinsKey() []byte { return []byte(nsBurned) }

// BlockFeesKey is the logical key for the block fee pot: the running total
// of miner_fee credited from gas settlement (spec.md §4.D "miner_fee added
// to block fee pot"), keyed per-block so each block's own pot can be read
// independently and paid out to its miner.
func BlockFeesKey(block common.Hash) []byte {
	return append([]byte(nsFees+":"), block[:]...)
}

// TotalSupplyKey is the logical key for the native asset's total supply.
func TotalSupplyKey() []byte { return []byte(nsTotal) }
