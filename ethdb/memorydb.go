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

package ethdb

import (
	"bytes"
	"errors"
	"sort"
	"sync"
)

// ErrMemoryDBClosed is returned by any operation on a closed MemoryDB.
var ErrMemoryDBClosed = errors.New("ethdb: memory database closed")

// ErrKeyNotFound is returned by Get when the key does not exist.
var ErrKeyNotFound = errors.New("ethdb: key not found")

// MemoryDB is an in-memory KeyValueStore, used by the tests in this
// repository and available to embedders that don't need persistence.
type MemoryDB struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryDB returns an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{data: make(map[string][]byte)}
}

func (db *MemoryDB) Has(key []byte) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return false, ErrMemoryDBClosed
	}
	_, ok := db.data[string(key)]
	return ok, nil
}

func (db *MemoryDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, ErrMemoryDBClosed
	}
	v, ok := db.data[string(key)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (db *MemoryDB) Put(key, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrMemoryDBClosed
	}
	v := make([]byte, len(value))
	copy(v, value)
	db.data[string(key)] = v
	return nil
}

func (db *MemoryDB) Delete(key []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return ErrMemoryDBClosed
	}
	delete(db.data, string(key))
	return nil
}

func (db *MemoryDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.closed = true
	return nil
}

func (db *MemoryDB) NewBatch() Batch {
	return &memoryBatch{db: db}
}

func (db *MemoryDB) NewIterator(prefix []byte) Iterator {
	db.mu.RLock()
	defer db.mu.RUnlock()

	keys := make([]string, 0, len(db.data))
	for k := range db.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = db.data[k]
	}
	return &memoryIterator{keys: keys, values: values, idx: -1}
}

type memoryIterator struct {
	keys   []string
	values [][]byte
	idx    int
}

func (it *memoryIterator) Next() bool {
	it.idx++
	return it.idx < len(it.keys)
}

func (it *memoryIterator) Key() []byte   { return []byte(it.keys[it.idx]) }
func (it *memoryIterator) Value() []byte { return it.values[it.idx] }
func (it *memoryIterator) Release()      {}

type keyValue struct {
	key     []byte
	value   []byte
	deleted bool
}

type memoryBatch struct {
	db   *MemoryDB
	ops  []keyValue
	size int
}

func (b *memoryBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, keyValue{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
	b.size += len(key) + len(value)
	return nil
}

func (b *memoryBatch) Delete(key []byte) error {
	b.ops = append(b.ops, keyValue{key: append([]byte(nil), key...), deleted: true})
	b.size += len(key)
	return nil
}

func (b *memoryBatch) ValueSize() int { return b.size }

func (b *memoryBatch) Write() error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	if b.db.closed {
		return ErrMemoryDBClosed
	}
	for _, op := range b.ops {
		if op.deleted {
			delete(b.db.data, string(op.key))
		} else {
			b.db.data[string(op.key)] = op.value
		}
	}
	return nil
}

func (b *memoryBatch) Reset() {
	b.ops = b.ops[:0]
	b.size = 0
}
