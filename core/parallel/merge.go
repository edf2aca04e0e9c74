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

package parallel

import (
	"encoding/binary"

	"github.com/tos-network/gtos/core/state"
	"github.com/tos-network/gtos/core/types"
	"github.com/tos-network/gtos/core/vm"
)

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func decodeUint64(buf []byte) uint64 {
	if len(buf) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(buf)
}

// versionedWrite writes value for key at topo, tagging the record
// Updated(prev) if a prior version exists strictly before topo, else New
// (spec.md §4.D: "Each merged write produces a new versioned record tagged
// Updated(prev_topo) ... else New").
func versionedWrite(store *state.VersionedStore, key []byte, value []byte, topo types.TopoHeight) error {
	prev, err := loadPrevTopo(store, key, topo)
	if err != nil {
		return err
	}
	return store.Store(key, value, topo, prev)
}

// loadPrevTopo returns the topoheight of key's most recent version below
// topo, or nil if key has never been written. Shared by versionedWrite and
// by Invoker implementations that need to tag AccountCache writes with the
// right VersionedState before they reach mergeOutcome.
func loadPrevTopo(store *state.VersionedStore, key []byte, topo types.TopoHeight) (*types.TopoHeight, error) {
	if topo == 0 {
		return nil, nil
	}
	rec, err := store.Load(key, topo-1)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	p := rec.Topo
	return &p, nil
}

func loadUint64(store *state.VersionedStore, key []byte, topo types.TopoHeight) (uint64, error) {
	rec, err := store.Load(key, topo)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, nil
	}
	return decodeUint64(rec.Value), nil
}

// mergeOutcome commits one transaction's scratch into base storage at topo
// (spec.md §4.D "Deterministic merge"). A failed invocation (non-zero exit
// code) clears its outputs and discards its cache/account writes entirely
// — including any deposit debited into scratch — so the deposit is
// refunded to source simply by never reaching storage; only the refund and
// burn/fee settlement below still apply.
func mergeOutcome(store *state.VersionedStore, out *TxOutcome, topo types.TopoHeight) (GasSettlement, error) {
	settlement := SettleGas(out.MaxGas, out.GasUsed)

	if out.Succeeded() {
		if out.Cache != nil {
			for key, sv := range out.Cache.StorageWrites() {
				storageKey := state.ContractStorageKey(types.PublicKey(out.Contract), key)
				if err := versionedWrite(store, storageKey, sv.Value, topo); err != nil {
					return settlement, err
				}
			}
		}
		if out.Accounts != nil {
			for account, nonce := range out.Accounts.NonceWrites() {
				if err := versionedWrite(store, state.NonceKey(account), encodeUint64(nonce), topo); err != nil {
					return settlement, err
				}
			}
			for key, bv := range out.Accounts.BalanceWrites() {
				if err := versionedWrite(store, state.BalanceKey(key.Account, key.Asset), encodeUint64(bv.Balance), topo); err != nil {
					return settlement, err
				}
			}
		}
		if settlement.Refund > 0 {
			out.Outputs = append(out.Outputs, vm.Output{RefundGas: &vm.RefundGasOutput{Amount: settlement.Refund}})
		}
	} else {
		// Transaction failure (spec.md §4.D): outputs are cleared and
		// replaced with, at most, a RefundDeposits entry followed by the
		// ExitCode entry every outcome ends with (spec.md §7).
		out.Outputs = nil
		if out.Deposit > 0 {
			out.Outputs = append(out.Outputs, vm.Output{RefundDeposits: &vm.RefundDepositsOutput{Amount: out.Deposit}})
		}
	}
	out.Outputs = append(out.Outputs, vm.Output{ExitCode: &vm.ExitCodeOutput{Code: out.ExitCode}})

	// Refund the unspent max_gas - used_gas to the source as a
	// receiver-side adjustment, independent of nonce/sequence so it
	// never interacts with the source's own next transaction.
	if settlement.Refund > 0 {
		refundKey := state.BalanceKey(out.Source, out.GasAsset)
		current, err := loadUint64(store, refundKey, topo)
		if err != nil {
			return settlement, err
		}
		if err := versionedWrite(store, refundKey, encodeUint64(current+settlement.Refund), topo); err != nil {
			return settlement, err
		}
	}

	if settlement.Burned > 0 {
		burnedKey := state.BurnedCoinsKey()
		current, err := loadUint64(store, burnedKey, topo)
		if err != nil {
			return settlement, err
		}
		if err := versionedWrite(store, burnedKey, encodeUint64(current+settlement.Burned), topo); err != nil {
			return settlement, err
		}
	}

	if settlement.MinerFee > 0 {
		feesKey := state.BlockFeesKey(out.BlockHash)
		current, err := loadUint64(store, feesKey, topo)
		if err != nil {
			return settlement, err
		}
		if err := versionedWrite(store, feesKey, encodeUint64(current+settlement.MinerFee), topo); err != nil {
			return settlement, err
		}
	}

	return settlement, nil
}
