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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tos-network/gtos/common"
	"github.com/tos-network/gtos/core/state"
	"github.com/tos-network/gtos/core/types"
	"github.com/tos-network/gtos/ethdb"
)

// simpleTx is a minimal V1-style transfer transaction used only by this
// package's tests.
type simpleTx struct {
	source types.PublicKey
	dest   types.PublicKey
	amount uint64
}

func (t *simpleTx) Version() types.TxVersion { return types.TxVersionV1 }
func (t *simpleTx) Source() types.PublicKey   { return t.source }
func (t *simpleTx) Nonce() uint64             { return 0 }
func (t *simpleTx) Fee() uint64               { return 0 }
func (t *simpleTx) Reference() types.Reference { return types.Reference{} }
func (t *simpleTx) Data() types.Payload {
	return types.Payload{Kind: types.PayloadTransfer, Transfers: []types.Transfer{{Destination: t.dest, Amount: t.amount}}}
}
func (t *simpleTx) AccountKeys() []types.AccountKey { return nil }
func (t *simpleTx) Signature() []byte               { return nil }
func (t *simpleTx) Hash() common.Hash {
	return common.HashData(append(append([]byte{}, t.source[:]...), t.dest[:]...))
}

func acct(b byte) types.PublicKey { return types.PublicKey(common.BytesToHash([]byte{b})) }

func TestBuildBatchesSplitsOnConflict(t *testing.T) {
	txs := []types.Transaction{
		&simpleTx{source: acct(1), dest: acct(2)},
		&simpleTx{source: acct(3), dest: acct(4)},
		&simpleTx{source: acct(2), dest: acct(5)}, // conflicts with tx 0's destination
	}
	batches := BuildBatches(txs)
	require.Len(t, batches, 2)
	require.ElementsMatch(t, []int{0, 1}, batches[0])
	require.Equal(t, []int{2}, batches[1])
}

func TestBuildBatchesAllDisjointIsOneBatch(t *testing.T) {
	txs := []types.Transaction{
		&simpleTx{source: acct(1), dest: acct(2)},
		&simpleTx{source: acct(3), dest: acct(4)},
		&simpleTx{source: acct(5), dest: acct(6)},
	}
	batches := BuildBatches(txs)
	require.Len(t, batches, 1)
	require.ElementsMatch(t, []int{0, 1, 2}, batches[0])
}

func TestExecuteBatchTransferMovesBalance(t *testing.T) {
	store := state.NewVersionedStore(ethdb.NewMemoryDB())
	asset := types.Asset{}
	src, dst := acct(1), acct(2)

	require.NoError(t, store.Store(state.BalanceKey(src, asset), encodeUint64(1000), 0, nil))

	txs := []types.Transaction{&simpleTx{source: src, dest: dst, amount: 100}}

	invoke := func(tx types.Transaction, topo types.TopoHeight, cache *types.ContractCache, accounts *types.AccountCache) (*TxOutcome, error) {
		payload := tx.Data()
		transfer := payload.Transfers[0]

		srcBal, err := loadUint64(store, state.BalanceKey(tx.Source(), asset), topo)
		require.NoError(t, err)
		dstBal, err := loadUint64(store, state.BalanceKey(transfer.Destination, asset), topo)
		require.NoError(t, err)

		accounts.SetBalance(tx.Source(), asset, srcBal-transfer.Amount, types.UpdatedState(0))
		accounts.SetBalance(transfer.Destination, asset, dstBal+transfer.Amount, types.NewState())

		return &TxOutcome{Contract: common.Hash{}, Source: tx.Source(), GasAsset: asset, Cache: cache, Accounts: accounts}, nil
	}

	results, err := ExecuteBatch(store, txs, 1, invoke)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Succeeded())

	srcBal, err := loadUint64(store, state.BalanceKey(src, asset), 1)
	require.NoError(t, err)
	require.Equal(t, uint64(900), srcBal)

	dstBal, err := loadUint64(store, state.BalanceKey(dst, asset), 1)
	require.NoError(t, err)
	require.Equal(t, uint64(100), dstBal)
}
