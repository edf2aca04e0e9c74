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
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/tos-network/gtos/common"
	"github.com/tos-network/gtos/core/state"
	"github.com/tos-network/gtos/core/types"
	"github.com/tos-network/gtos/core/vm"
	"github.com/tos-network/gtos/log"
	"github.com/tos-network/gtos/metrics"
)

// TxOutcome is one transaction's result from ExecuteBatch, in input order.
type TxOutcome struct {
	Index     int
	Contract  common.Hash
	Source    types.PublicKey
	BlockHash common.Hash
	MaxGas    uint64
	GasUsed   uint64
	GasAsset  types.Asset
	Deposit   uint64 // native value attached to a PayloadInvokeContract call
	ExitCode  int32
	Outputs   []vm.Output
	Cache     *types.ContractCache
	Accounts  *types.AccountCache
	Err       error // non-nil only for a fatal, block-aborting failure
}

// Succeeded reports whether the invocation's exit code was zero. A
// transaction with no contract invocation (a plain transfer) always
// succeeds here; its GasUsed/ExitCode are left at zero.
func (o *TxOutcome) Succeeded() bool { return o.ExitCode == 0 }

// GasSettled is the burn/fee/refund split mergeOutcome actually applied,
// filled in by ExecuteBatch after commit.
type GasSettled struct {
	TxOutcome
	GasSettlement
}

// Invoker builds and runs the contract invocation (if any) for tx, writing
// into a freshly allocated per-tx scratch. A plain transfer with no
// contract payload returns a zero-value outcome with Err == nil.
type Invoker func(tx types.Transaction, topo types.TopoHeight, cache *types.ContractCache, accounts *types.AccountCache) (*TxOutcome, error)

// ExecuteBatch runs txs to completion against store at topo, implementing
// spec.md §4.D's execute_batch contract: conflict-graph batching, per-tx
// scratch, parallel execution within a batch over a pool bounded to CPU
// count (spec.md §5), and deterministic serial merge after each batch
// completes so later batches observe earlier ones.
func ExecuteBatch(store *state.VersionedStore, txs []types.Transaction, topo types.TopoHeight, invoke Invoker) ([]GasSettled, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	logger := log.New("pkg", "parallel")
	batches := BuildBatches(txs)
	results := make([]*TxOutcome, len(txs))
	finalSettled := make([]GasSettled, len(txs))

	for batchIdx, batch := range batches {
		var eg errgroup.Group
		eg.SetLimit(runtime.NumCPU())
		for _, idx := range batch {
			idx := idx
			eg.Go(func() error {
				cache := types.NewContractCache()
				accounts := types.NewAccountCache()
				outcome, err := invoke(txs[idx], topo, cache, accounts)
				if err != nil {
					results[idx] = &TxOutcome{Index: idx, Err: err}
					return nil
				}
				outcome.Index = idx
				results[idx] = outcome
				return nil
			})
		}
		_ = eg.Wait()

		logger.Debug("batch executed", "batch", batchIdx, "size", len(batch))
		metrics.DefaultRegistry.GetOrRegisterCounter("parallel/batches_executed").Inc(1)
		metrics.DefaultRegistry.GetOrRegisterCounter("parallel/transactions_executed").Inc(int64(len(batch)))

		// Batches commit sequentially so a later batch always observes an
		// earlier one's writes (spec.md §4.D ordering guarantees); within
		// this loop the merge itself is single-threaded, so concurrent
		// writes into the same key across the batch cannot race.
		for _, idx := range batch {
			out := results[idx]
			if out.Err != nil {
				return nil, fmt.Errorf("parallel: tx %d: %w", idx, out.Err)
			}
			settlement, err := mergeOutcome(store, out, topo)
			if err != nil {
				return nil, fmt.Errorf("parallel: merging tx %d: %w", idx, err)
			}
			finalSettled[idx] = GasSettled{TxOutcome: *out, GasSettlement: settlement}
		}
	}

	return finalSettled, nil
}
