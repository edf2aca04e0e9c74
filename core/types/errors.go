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

import "errors"

// Sentinel errors shared by every core package, named after the error
// kinds enumerated in spec.md §7. Callers inspect them with errors.Is;
// this package never wraps a sub-kind behind a generic error value.
var (
	// Not-found.
	ErrBlockNotFound              = errors.New("types: block not found")
	ErrContractNotFound           = errors.New("types: contract not found")
	ErrScheduledExecutionNotFound = errors.New("types: scheduled execution not found")

	// Invalid input.
	ErrInvalidFormat       = errors.New("types: invalid format")
	ErrInvalidParent       = errors.New("types: invalid parent")
	ErrInvalidReachability = errors.New("types: invalid reachability")
	ErrInvalidThreshold    = errors.New("types: invalid threshold")
	ErrInvalidValue        = errors.New("types: invalid value")

	// State violation.
	ErrNonceMismatch      = errors.New("types: nonce mismatch")
	ErrInsufficientBalance = errors.New("types: insufficient balance")
	ErrBalanceOverflow    = errors.New("types: balance overflow")
	ErrBalanceUnderflow   = errors.New("types: balance underflow")
	ErrGasOverflow        = errors.New("types: gas overflow")

	// Resource.
	ErrStorageError    = errors.New("types: storage error")
	ErrOverflow        = errors.New("types: arithmetic overflow")
	ErrReindexRequired = errors.New("types: reindex required")

	// Reachability-specific (spec.md §4.B: distinguished from other
	// storage errors).
	ErrReindexRootNotInitialized = errors.New("types: reindex root not initialized")

	// Consensus.
	ErrDifficultyUnderflow = errors.New("types: difficulty underflow")
)

// ModuleError carries a description of a VM failure or missing bytecode
// (spec.md §7: "ModuleError(text)").
type ModuleError struct {
	Text string
}

func (e *ModuleError) Error() string { return "types: module error: " + e.Text }

// NewModuleError constructs a ModuleError with the given description.
func NewModuleError(text string) error { return &ModuleError{Text: text} }
