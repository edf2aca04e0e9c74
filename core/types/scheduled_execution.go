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

import (
	"encoding/binary"

	"github.com/tos-network/gtos/common"
)

// ScheduledExecutionKindTag discriminates ScheduledExecutionKind for
// hashing, fixed by spec.md §6: 0x00 for AtTopoheight, 0x01 for BlockEnd.
type ScheduledExecutionKindTag byte

const (
	KindTagAtTopoheight ScheduledExecutionKindTag = 0x00
	KindTagBlockEnd     ScheduledExecutionKindTag = 0x01
)

// ScheduledExecutionKind is the tagged union of when a scheduled execution
// fires (spec.md §3).
type ScheduledExecutionKind struct {
	// IsBlockEnd, when true, means this entry fires at the end of the
	// current block rather than AtTopoheight.
	IsBlockEnd  bool
	AtTopoheight TopoHeight
}

// Tag returns the kind's wire tag byte.
func (k ScheduledExecutionKind) Tag() ScheduledExecutionKindTag {
	if k.IsBlockEnd {
		return KindTagBlockEnd
	}
	return KindTagAtTopoheight
}

// ScheduledExecutionStatus is the lifecycle state of a ScheduledExecution
// (spec.md §4.E).
type ScheduledExecutionStatus uint8

const (
	StatusPending ScheduledExecutionStatus = iota
	StatusExecuted
	StatusCancelled
	StatusExpired
)

func (s ScheduledExecutionStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusExecuted:
		return "Executed"
	case StatusCancelled:
		return "Cancelled"
	case StatusExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// GasSource identifies a payer that contributed toward a scheduled
// execution's gas/bounty pool (spec.md §3: "gas_sources").
type GasSource string

// ScheduledExecution is a deferred contract invocation paid for with an
// explicit offer amount (spec.md §3, §4.E). Two ScheduledExecutions are
// equal iff their Hash fields are equal (spec.md §9) — Equal below, not
// field-by-field comparison, is the only correct equality check.
type ScheduledExecution struct {
	ContractHash   common.Hash
	ChunkID        *uint16 // entry point, mutually exclusive with InputData
	InputData      []byte  // opaque bytes, mutually exclusive with ChunkID
	MaxGas         uint64
	Kind           ScheduledExecutionKind
	GasSources     []GasSourceAmount // ordered map, insertion order preserved
	OfferAmount    uint64
	SchedulerContract common.Hash
	RegistrationTopoHeight TopoHeight
	Status         ScheduledExecutionStatus
	DeferCount     uint8
}

// GasSourceAmount is one entry of ScheduledExecution.GasSources.
type GasSourceAmount struct {
	Source GasSource
	Amount uint64
}

// Hash computes the deterministic identity of the execution per spec.md §6:
//
//	BLAKE3(contract_32 ‖ kind_tag ‖ [topo_be_8 if AtTopoheight] ‖
//	       registration_topo_be_8 ‖ chunk_id_be_2)
//
// chunk_id is 0 when the entry targets InputData instead of a ChunkID, the
// same convention a dozen-variant tagged payload would use for "absent".
func (se *ScheduledExecution) Hash() common.Hash {
	parts := make([][]byte, 0, 5)
	parts = append(parts, se.ContractHash.Bytes())
	parts = append(parts, []byte{byte(se.Kind.Tag())})
	if !se.Kind.IsBlockEnd {
		var topoBuf [8]byte
		binary.BigEndian.PutUint64(topoBuf[:], uint64(se.Kind.AtTopoheight))
		parts = append(parts, topoBuf[:])
	}
	var regBuf [8]byte
	binary.BigEndian.PutUint64(regBuf[:], uint64(se.RegistrationTopoHeight))
	parts = append(parts, regBuf[:])

	var chunkBuf [2]byte
	if se.ChunkID != nil {
		binary.BigEndian.PutUint16(chunkBuf[:], *se.ChunkID)
	}
	parts = append(parts, chunkBuf[:])

	return common.HashData(parts...)
}

// Equal reports whether se and other share the same identity. Per
// spec.md §9, equality is defined by Hash alone, not full field equality,
// so two distinct invocations of the same contract/chunk never collide
// but re-hashing the same logical entry always compares equal.
func (se *ScheduledExecution) Equal(other *ScheduledExecution) bool {
	if se == nil || other == nil {
		return se == other
	}
	return se.Hash() == other.Hash()
}
