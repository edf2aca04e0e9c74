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
	"github.com/tos-network/gtos/core/vm"
	"github.com/tos-network/gtos/ethdb"
)

// payloadTx is a test double whose payload is configurable, exercising
// NewStandardInvoker's dispatch across PayloadKind.
type payloadTx struct {
	source  types.PublicKey
	fee     uint64
	payload types.Payload
}

func (t *payloadTx) Version() types.TxVersion      { return types.TxVersionV1 }
func (t *payloadTx) Source() types.PublicKey        { return t.source }
func (t *payloadTx) Nonce() uint64                  { return 0 }
func (t *payloadTx) Fee() uint64                    { return t.fee }
func (t *payloadTx) Reference() types.Reference     { return types.Reference{} }
func (t *payloadTx) Data() types.Payload            { return t.payload }
func (t *payloadTx) AccountKeys() []types.AccountKey { return nil }
func (t *payloadTx) Signature() []byte              { return nil }
func (t *payloadTx) Hash() common.Hash {
	return common.HashData(t.source[:])
}

func TestStandardInvokerTransfer(t *testing.T) {
	store := state.NewVersionedStore(ethdb.NewMemoryDB())
	asset := types.Asset{}
	src, dst := acct(10), acct(11)
	require.NoError(t, store.Store(state.BalanceKey(src, asset), encodeUint64(500), 0, nil))

	invoke := NewStandardInvoker(store, nil, common.Hash{}, asset)
	tx := &payloadTx{source: src, payload: types.Payload{Kind: types.PayloadTransfer, Transfers: []types.Transfer{{Destination: dst, Amount: 200}}}}

	results, err := ExecuteBatch(store, []types.Transaction{tx}, 1, invoke)
	require.NoError(t, err)
	require.True(t, results[0].Succeeded())

	srcBal, err := loadUint64(store, state.BalanceKey(src, asset), 1)
	require.NoError(t, err)
	require.Equal(t, uint64(300), srcBal)

	dstBal, err := loadUint64(store, state.BalanceKey(dst, asset), 1)
	require.NoError(t, err)
	require.Equal(t, uint64(200), dstBal)
}

func TestStandardInvokerBurn(t *testing.T) {
	store := state.NewVersionedStore(ethdb.NewMemoryDB())
	asset := types.Asset{}
	src := acct(20)
	require.NoError(t, store.Store(state.BalanceKey(src, asset), encodeUint64(1000), 0, nil))

	invoke := NewStandardInvoker(store, nil, common.Hash{}, asset)
	tx := &payloadTx{source: src, payload: types.Payload{Kind: types.PayloadBurn, BurnAsset: asset, BurnAmount: 400}}

	_, err := ExecuteBatch(store, []types.Transaction{tx}, 1, invoke)
	require.NoError(t, err)

	srcBal, err := loadUint64(store, state.BalanceKey(src, asset), 1)
	require.NoError(t, err)
	require.Equal(t, uint64(600), srcBal)
}

func TestStandardInvokerInvokeContractAppliesOutputTransfer(t *testing.T) {
	store := state.NewVersionedStore(ethdb.NewMemoryDB())
	asset := types.Asset{}
	contractHash := common.BytesToHash([]byte{1})
	src, dst := acct(30), acct(31)
	require.NoError(t, store.Store(state.BalanceKey(types.PublicKey(contractHash), asset), encodeUint64(1000), 0, nil))

	executor := vm.ExecutorFunc(func(env *vm.ContractEnvironment) (*vm.Result, error) {
		return &vm.Result{
			GasUsed:  50,
			ExitCode: 0,
			Outputs:  []vm.Output{{Transfer: &types.Transfer{Destination: dst, Asset: asset, Amount: 75}}},
		}, nil
	})

	invoke := NewStandardInvoker(store, executor, common.Hash{}, asset)
	tx := &payloadTx{
		source: src,
		fee:    100,
		payload: types.Payload{
			Kind:     types.PayloadInvokeContract,
			Contract: contractHash,
		},
	}

	results, err := ExecuteBatch(store, []types.Transaction{tx}, 1, invoke)
	require.NoError(t, err)
	require.True(t, results[0].Succeeded())
	require.Equal(t, uint64(50), results[0].GasUsed)

	contractBal, err := loadUint64(store, state.BalanceKey(types.PublicKey(contractHash), asset), 1)
	require.NoError(t, err)
	require.Equal(t, uint64(925), contractBal)

	dstBal, err := loadUint64(store, state.BalanceKey(dst, asset), 1)
	require.NoError(t, err)
	require.Equal(t, uint64(75), dstBal)
}

func TestStandardInvokerInvokeContractCreditsMinerFeeToBlockFeePot(t *testing.T) {
	store := state.NewVersionedStore(ethdb.NewMemoryDB())
	asset := types.Asset{}
	contractHash := common.BytesToHash([]byte{2})
	block := common.BytesToHash([]byte{0xaa})
	src := acct(32)

	executor := vm.ExecutorFunc(func(env *vm.ContractEnvironment) (*vm.Result, error) {
		return &vm.Result{GasUsed: 400, ExitCode: 0}, nil
	})

	invoke := NewStandardInvoker(store, executor, block, asset)
	tx := &payloadTx{
		source: src,
		fee:    1000,
		payload: types.Payload{
			Kind:     types.PayloadInvokeContract,
			Contract: contractHash,
		},
	}

	results, err := ExecuteBatch(store, []types.Transaction{tx}, 1, invoke)
	require.NoError(t, err)
	require.True(t, results[0].Succeeded())

	// BurnPercentGas defaults split 400 used gas into burned/miner_fee;
	// whatever the miner_fee share is, it must land in this block's fee pot.
	require.Greater(t, results[0].MinerFee, uint64(0))
	feePot, err := loadUint64(store, state.BlockFeesKey(block), 1)
	require.NoError(t, err)
	require.Equal(t, results[0].MinerFee, feePot)

	refundOut := findOutput(results[0].Outputs, func(o vm.Output) bool { return o.RefundGas != nil })
	require.NotNil(t, refundOut)
	require.Equal(t, results[0].Refund, refundOut.RefundGas.Amount)

	exitOut := results[0].Outputs[len(results[0].Outputs)-1]
	require.NotNil(t, exitOut.ExitCode)
	require.Equal(t, int32(0), exitOut.ExitCode.Code)
}

func TestStandardInvokerInvokeContractFailureClearsOutputsAndRefundsDeposit(t *testing.T) {
	store := state.NewVersionedStore(ethdb.NewMemoryDB())
	asset := types.Asset{}
	contractHash := common.BytesToHash([]byte{3})
	src, dst := acct(33), acct(34)
	require.NoError(t, store.Store(state.BalanceKey(src, asset), encodeUint64(1000), 0, nil))

	executor := vm.ExecutorFunc(func(env *vm.ContractEnvironment) (*vm.Result, error) {
		// A failing invocation may still report outputs it produced before
		// reverting; mergeOutcome must discard them regardless.
		return &vm.Result{
			GasUsed:  50,
			ExitCode: 7,
			Outputs:  []vm.Output{{Transfer: &types.Transfer{Destination: dst, Asset: asset, Amount: 999}}},
		}, nil
	})

	invoke := NewStandardInvoker(store, executor, common.Hash{}, asset)
	tx := &payloadTx{
		source: src,
		fee:    100,
		payload: types.Payload{
			Kind:     types.PayloadInvokeContract,
			Contract: contractHash,
			Deposit:  300,
		},
	}

	results, err := ExecuteBatch(store, []types.Transaction{tx}, 1, invoke)
	require.NoError(t, err)
	require.False(t, results[0].Succeeded())

	// The deposit debit was only ever applied to discarded scratch; the
	// only change to the source's stored balance is the unspent-gas refund
	// (fee 100 - gas used 50 = 50), which is settled even on failure.
	srcBal, err := loadUint64(store, state.BalanceKey(src, asset), 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1050), srcBal)

	dstBal, err := loadUint64(store, state.BalanceKey(dst, asset), 1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), dstBal, "failed invocation's transfer output must not be merged")

	require.Len(t, results[0].Outputs, 2)
	require.NotNil(t, results[0].Outputs[0].RefundDeposits)
	require.Equal(t, uint64(300), results[0].Outputs[0].RefundDeposits.Amount)
	require.NotNil(t, results[0].Outputs[1].ExitCode)
	require.Equal(t, int32(7), results[0].Outputs[1].ExitCode.Code)
}

func findOutput(outputs []vm.Output, match func(vm.Output) bool) *vm.Output {
	for i := range outputs {
		if match(outputs[i]) {
			return &outputs[i]
		}
	}
	return nil
}

func TestStandardInvokerDeployContractDerivesAddress(t *testing.T) {
	store := state.NewVersionedStore(ethdb.NewMemoryDB())
	asset := types.Asset{}
	src := acct(40)
	bytecode := []byte{0x60, 0x00}

	invoke := NewStandardInvoker(store, nil, common.Hash{}, asset)
	tx := &payloadTx{source: src, payload: types.Payload{Kind: types.PayloadDeployContract, Bytecode: bytecode}}

	results, err := ExecuteBatch(store, []types.Transaction{tx}, 1, invoke)
	require.NoError(t, err)
	require.Equal(t, vm.DeriveContractAddress(src, bytecode), results[0].Contract)
}
