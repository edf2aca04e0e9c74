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

// Package vm defines the boundary between core/parallel and the contract
// execution engine (spec.md §6): an opaque ContractExecutor collaborator
// and the ContractEnvironment it is handed, scoped to one transaction's
// scratch. No opcode set, gas schedule, or bytecode interpreter lives here
// — those are an out-of-scope embedder concern (spec.md §1 Non-goals).
package vm

import (
	"github.com/tos-network/gtos/common"
	"github.com/tos-network/gtos/core/types"
)

// Output is one side effect a contract invocation produced: an outgoing
// transfer, an emitted event, or one of the settlement annotations
// mergeOutcome appends once gas/deposit accounting is final (spec.md §4.D:
// "outputs: list<Transfer|Event|...>"; §7 "outputs[] always ends with an
// ExitCode entry and, if the tx had deposits, a RefundDeposits entry").
type Output struct {
	Transfer *types.Transfer
	Event    *types.LogRecord

	ExitCode       *ExitCodeOutput
	RefundGas      *RefundGasOutput
	RefundDeposits *RefundDepositsOutput
}

// ExitCodeOutput records the invocation's exit code. mergeOutcome appends
// exactly one as the last entry of every transaction's Outputs, success or
// failure (spec.md §7, §8 scenario 6: "ExitCode(Some(0))").
type ExitCodeOutput struct {
	Code int32
}

// RefundGasOutput records unspent max_gas - used_gas credited back to the
// transaction's source on a successful invocation (spec.md §8 scenario 6:
// "RefundGas{amount:600}").
type RefundGasOutput struct {
	Amount uint64
}

// RefundDepositsOutput records a deposit returned to source after a failed
// contract invocation, whose other outputs are cleared (spec.md §4.D
// "Transaction failure").
type RefundDepositsOutput struct {
	Amount uint64
}

// Result is everything ContractExecutor.Execute returns for one invocation
// (spec.md §4.D).
type Result struct {
	GasUsed  uint64
	ExitCode int32
	Outputs  []Output
}

// Succeeded reports whether the invocation's exit code indicates success.
func (r *Result) Succeeded() bool { return r.ExitCode == 0 }

// ContractEnvironment is the view of a transaction's scratch a contract
// invocation executes against: the per-contract cache, the per-account
// cache for balance/nonce reads that fall outside any one contract, and
// the identifying metadata every syscall needs.
type ContractEnvironment struct {
	TxHash      common.Hash
	BlockHash   common.Hash
	TopoHeight  types.TopoHeight
	Contract    common.Hash
	Source      types.PublicKey
	MaxGas      uint64
	InputData   []byte
	Cache       *types.ContractCache
	Accounts    *types.AccountCache
}

// ContractExecutor invokes a deployed contract's bytecode against env,
// returning the gas/exit-code/outputs triple ContractEnvironment's caller
// merges into the transaction's result (spec.md §4.D). Concrete bytecode
// interpretation, syscall dispatch, and gas metering are supplied by the
// embedder; core/parallel only needs this interface to drive conflict-free
// batches.
type ContractExecutor interface {
	Execute(env *ContractEnvironment) (*Result, error)
}

// ExecutorFunc adapts a plain function to ContractExecutor, mirroring
// net/http's HandlerFunc pattern for lightweight test doubles and simple
// embedders that don't need a stateful executor.
type ExecutorFunc func(env *ContractEnvironment) (*Result, error)

func (f ExecutorFunc) Execute(env *ContractEnvironment) (*Result, error) { return f(env) }
