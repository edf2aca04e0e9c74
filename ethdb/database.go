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

// Package ethdb defines the key-value storage capability core/state's
// VersionedStore is built on,
// in the shape of go-ethereum's ethdb package: a narrow interface with
// swappable backends (in-memory for tests, LevelDB for a real node).
package ethdb

import "io"

// KeyValueReader wraps the Has and Get methods.
type KeyValueReader interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
}

// KeyValueWriter wraps the Put and Delete methods.
type KeyValueWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Iterator iterates over a KeyValueStore's key space, optionally restricted
// to keys sharing a prefix, in ascending byte order — used by every range
// scan over the topoheight-indexed key layout (§4.A).
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
}

// Batch is a write-only accumulator committed atomically, used by
// VersionedStore so each single-key write or delete lands as one storage
// transaction (spec.md §4.A: "the implementation may batch writes but must
// present single-writer semantics to callers").
type Batch interface {
	KeyValueWriter
	ValueSize() int
	Write() error
	Reset()
}

// KeyValueStore is the full capability surface a storage backend exposes.
type KeyValueStore interface {
	KeyValueReader
	KeyValueWriter
	io.Closer

	NewIterator(prefix []byte) Iterator
	NewBatch() Batch
}
