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

// Package state implements the VersionedState storage substrate spec.md
// §4.A describes: a topoheight-indexed key-value layout that the
// reachability engine, DAG consensus and parallel executor all build on.
package state

import (
	"encoding/binary"
	"fmt"

	"github.com/tos-network/gtos/core/types"
)

// record is the on-disk encoding of one versioned value.
type record struct {
	state types.VersionedState
	topo  types.TopoHeight
	value []byte // nil means deleted
}

// encodeRecord serializes r as:
//
//	1 byte kind | 8 bytes prevTopo (0 if not Updated) | 8 bytes topo |
//	1 byte hasValue | 4 bytes len(value) | value
func encodeRecord(r record) []byte {
	hasValue := byte(0)
	if r.value != nil {
		hasValue = 1
	}
	buf := make([]byte, 1+8+8+1+4+len(r.value))
	buf[0] = byte(r.state.Kind)
	binary.BigEndian.PutUint64(buf[1:9], uint64(r.state.PrevTopoHeight))
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.topo))
	buf[17] = hasValue
	binary.BigEndian.PutUint32(buf[18:22], uint32(len(r.value)))
	copy(buf[22:], r.value)
	return buf
}

func decodeRecord(buf []byte) (record, error) {
	if len(buf) < 22 {
		return record{}, fmt.Errorf("state: truncated record (%d bytes)", len(buf))
	}
	r := record{
		state: types.VersionedState{
			Kind:           types.VersionedStateKind(buf[0]),
			PrevTopoHeight: types.TopoHeight(binary.BigEndian.Uint64(buf[1:9])),
		},
		topo: types.TopoHeight(binary.BigEndian.Uint64(buf[9:17])),
	}
	hasValue := buf[17]
	n := binary.BigEndian.Uint32(buf[18:22])
	if uint32(len(buf)-22) != n {
		return record{}, fmt.Errorf("state: record value length mismatch: want %d, have %d", n, len(buf)-22)
	}
	if hasValue == 1 {
		r.value = append([]byte(nil), buf[22:]...)
	}
	return r, nil
}
