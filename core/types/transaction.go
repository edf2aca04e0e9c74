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

import "github.com/tos-network/gtos/common"

// PublicKey identifies a transaction signer/account. A concrete encoding
// (Ed25519, secp256k1, ...) is an out-of-scope wallet concern (spec.md §1);
// the core only needs it as an opaque, comparable, hashable key.
type PublicKey common.Hash

// TxVersion distinguishes the conflict-detection strategy a transaction
// uses (spec.md §3): V1 transactions expose only source+transfer
// destinations; V2+ transactions carry an explicit account_keys list.
type TxVersion uint8

const (
	TxVersionV1 TxVersion = 1
	TxVersionV2 TxVersion = 2
)

// AccountKey is one entry of a V2+ transaction's account_keys list.
type AccountKey struct {
	PubKey     PublicKey
	Asset      Asset
	IsSigner   bool
	IsWritable bool
}

// PayloadKind is the closed, exhaustive tag of a transaction's payload
// union (spec.md §3, §9: "Keep it closed and exhaustive; every variant
// must be matched at the conflict-graph step so an unmatched variant is a
// compile-time/review-time error, not a silent 'no touched accounts'").
type PayloadKind uint8

const (
	PayloadTransfer PayloadKind = iota
	PayloadBurn
	PayloadInvokeContract
	PayloadDeployContract
	PayloadEnergy
	PayloadMultisig
)

// Transfer is one destination of a Transfer payload.
type Transfer struct {
	Destination PublicKey
	Asset       Asset
	Amount      uint64
}

// Payload is the tagged union of a transaction's data field. Exactly one
// of the slice/pointer fields relevant to Kind is populated; the conflict
// graph (core/parallel) switches over Kind exhaustively.
type Payload struct {
	Kind PayloadKind

	// PayloadTransfer
	Transfers []Transfer

	// PayloadBurn
	BurnAsset  Asset
	BurnAmount uint64

	// PayloadInvokeContract / PayloadDeployContract
	Contract   common.Hash
	ChunkID    uint16
	InputData  []byte
	Bytecode   []byte // PayloadDeployContract only
	Deposit    uint64 // PayloadInvokeContract only: native value sent along with the call

	// PayloadEnergy
	EnergyAmount uint64

	// PayloadMultisig
	MultisigThreshold uint8
	MultisigSigners   []PublicKey
}

// Reference anchors a transaction's validity window to a prior topoheight
// and block hash, used by the embedder's mempool/validity checks; the core
// only needs it to exist, it is not otherwise interpreted here.
type Reference struct {
	TopoHeight TopoHeight
	Hash       common.Hash
}

// Transaction is the interface view of a transaction the core needs
// (spec.md §3). Concrete wire encoding, signing, and fee-type semantics
// belong to the out-of-scope wallet/RPC layers.
type Transaction interface {
	Version() TxVersion
	Source() PublicKey
	Nonce() uint64
	Fee() uint64
	Reference() Reference
	Data() Payload
	AccountKeys() []AccountKey // V2+ only; nil for V1
	Signature() []byte
	Hash() common.Hash
}

// TouchedAccounts returns a transaction's touched account set (spec.md §3):
// for V1, {source} ∪ {destination of each transfer}; for V2+, the
// is_writable subset of account_keys. This is the single source of truth
// core/parallel's conflict graph reads from.
func TouchedAccounts(tx Transaction) map[PublicKey]struct{} {
	touched := make(map[PublicKey]struct{})
	if tx.Version() >= TxVersionV2 {
		for _, ak := range tx.AccountKeys() {
			if ak.IsWritable {
				touched[ak.PubKey] = struct{}{}
			}
		}
		return touched
	}

	touched[tx.Source()] = struct{}{}
	payload := tx.Data()
	switch payload.Kind {
	case PayloadTransfer:
		for _, t := range payload.Transfers {
			touched[t.Destination] = struct{}{}
		}
	case PayloadBurn, PayloadInvokeContract, PayloadDeployContract, PayloadEnergy:
		// Source only; no additional destination account.
	case PayloadMultisig:
		for _, s := range payload.MultisigSigners {
			touched[s] = struct{}{}
		}
	default:
		// Exhaustiveness guard: an unmatched PayloadKind panics rather
		// than being treated as touching nothing, so conflict detection
		// never silently allows an unsafe parallel merge.
		panic("types: TouchedAccounts: unmatched PayloadKind")
	}
	return touched
}
