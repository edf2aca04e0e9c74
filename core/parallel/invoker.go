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
	"github.com/tos-network/gtos/common"
	"github.com/tos-network/gtos/core/state"
	"github.com/tos-network/gtos/core/types"
	"github.com/tos-network/gtos/core/vm"
)

// balanceOf reads account's asset balance from store at topo (it does not
// consult any scratch cache) and returns the write state the caller should
// use so a subsequent AccountCache.AddBalance call carries the correct
// Updated(prev)/New marker.
func balanceOf(store *state.VersionedStore, account types.PublicKey, asset types.Asset, topo types.TopoHeight) (uint64, *types.TopoHeight, error) {
	key := state.BalanceKey(account, asset)
	base, err := loadUint64(store, key, topo)
	if err != nil {
		return 0, nil, err
	}
	// Mirrors versionedWrite's own prevTopo lookup (core/parallel/merge.go):
	// mergeOutcome recomputes this independently when it actually commits
	// the AccountCache write, so this only keeps the scratch's
	// VersionedState tag internally consistent.
	prev, err := loadPrevTopo(store, key, topo)
	if err != nil {
		return 0, nil, err
	}
	return base, prev, nil
}

// NewStandardInvoker returns an Invoker that handles transfers and burns
// directly against store/accounts, and dispatches PayloadInvokeContract to
// executor, folding the returned vm.Result's Transfer outputs into the
// same AccountCache used for direct transfers so mergeOutcome's single
// write path (core/parallel/merge.go) covers both (spec.md §4.D, §6).
func NewStandardInvoker(store *state.VersionedStore, executor vm.ContractExecutor, blockHash common.Hash, gasAsset types.Asset) Invoker {
	return func(tx types.Transaction, topo types.TopoHeight, cache *types.ContractCache, accounts *types.AccountCache) (*TxOutcome, error) {
		payload := tx.Data()
		source := tx.Source()

		switch payload.Kind {
		case types.PayloadTransfer:
			for _, t := range payload.Transfers {
				if err := applyTransfer(store, accounts, source, t.Destination, t.Asset, t.Amount, topo); err != nil {
					return nil, err
				}
			}
			return &TxOutcome{Source: source, BlockHash: blockHash, GasAsset: gasAsset, Cache: cache, Accounts: accounts}, nil

		case types.PayloadBurn:
			baseBal, prevTopo, err := balanceOf(store, source, payload.BurnAsset, topo)
			if err != nil {
				return nil, err
			}
			accounts.AddBalance(source, payload.BurnAsset, baseBal, prevTopo, -int64(payload.BurnAmount))
			return &TxOutcome{Source: source, BlockHash: blockHash, GasAsset: gasAsset, Cache: cache, Accounts: accounts}, nil

		case types.PayloadInvokeContract:
			// The deposit moves into the contract's balance optimistically,
			// in scratch only: if the call fails, mergeOutcome never merges
			// this outcome's Accounts, so the debit never reaches storage
			// and the source keeps its deposit (spec.md §4.D "deposits are
			// refunded to source").
			if payload.Deposit > 0 {
				if err := applyTransfer(store, accounts, source, types.PublicKey(payload.Contract), gasAsset, payload.Deposit, topo); err != nil {
					return nil, err
				}
			}
			env := &vm.ContractEnvironment{
				TxHash:     tx.Hash(),
				BlockHash:  blockHash,
				TopoHeight: topo,
				Contract:   payload.Contract,
				Source:     source,
				MaxGas:     tx.Fee(),
				InputData:  payload.InputData,
				Cache:      cache,
				Accounts:   accounts,
			}
			result, err := executor.Execute(env)
			if err != nil {
				return nil, err
			}
			for _, o := range result.Outputs {
				if o.Transfer == nil {
					continue
				}
				if err := applyTransfer(store, accounts, types.PublicKey(payload.Contract), o.Transfer.Destination, o.Transfer.Asset, o.Transfer.Amount, topo); err != nil {
					return nil, err
				}
			}
			return &TxOutcome{
				Contract:  payload.Contract,
				Source:    source,
				BlockHash: blockHash,
				MaxGas:    tx.Fee(),
				GasUsed:   result.GasUsed,
				GasAsset:  gasAsset,
				Deposit:   payload.Deposit,
				ExitCode:  result.ExitCode,
				Outputs:   result.Outputs,
				Cache:     cache,
				Accounts:  accounts,
			}, nil

		case types.PayloadDeployContract:
			addr := vm.DeriveContractAddress(source, payload.Bytecode)
			cache.SetStorage(deployedCodeCell(), common.HashData(payload.Bytecode).Bytes(), types.NewState())
			return &TxOutcome{Contract: addr, Source: source, BlockHash: blockHash, GasAsset: gasAsset, Cache: cache, Accounts: accounts}, nil

		default:
			// Energy and Multisig payloads carry no balance effect this
			// core is responsible for; they exist solely for conflict
			// detection (types.TouchedAccounts already handles them).
			return &TxOutcome{Source: source, BlockHash: blockHash, GasAsset: gasAsset, Cache: cache, Accounts: accounts}, nil
		}
	}
}

// applyTransfer debits from and credits to within accounts, reading
// through store for whichever side has no scratch entry yet.
func applyTransfer(store *state.VersionedStore, accounts *types.AccountCache, from, to types.PublicKey, asset types.Asset, amount uint64, topo types.TopoHeight) error {
	fromBase, fromPrev, err := balanceOf(store, from, asset, topo)
	if err != nil {
		return err
	}
	accounts.AddBalance(from, asset, fromBase, fromPrev, -int64(amount))

	toBase, toPrev, err := balanceOf(store, to, asset, topo)
	if err != nil {
		return err
	}
	accounts.AddBalance(to, asset, toBase, toPrev, int64(amount))
	return nil
}

// deployedCodeCell is the well-known ContractCache storage cell a
// PayloadDeployContract write records its bytecode hash under.
func deployedCodeCell() types.StorageKey {
	return types.StorageKey(common.HashData([]byte("gtos:deployed-code")))
}
