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

// StorageKey identifies one contract storage cell.
type StorageKey [32]byte

// Asset identifies a fungible token/coin type a balance is denominated in.
type Asset common.Hash

// LogRecord is one emitted contract event (spec.md §3: "events"), with up
// to four indexed topics, mirroring the LOG0-LOG4 syscalls named in §6.
type LogRecord struct {
	Contract common.Hash
	Topics   []common.Hash // length 0-4
	Data     []byte
}

// StorageValue is a versioned storage cell: None (nil Value) marks a
// deletion, per spec.md §3.
type StorageValue struct {
	State VersionedState
	Value []byte // nil means deleted
}

// BalanceValue is a versioned per-asset balance.
type BalanceValue struct {
	State   VersionedState
	Balance uint64
}

// ContractCache is the per-tx / per-contract scratch buffer a contract
// invocation reads and writes during execution (spec.md §3). It never
// touches base storage directly; core/parallel merges it in on commit.
type ContractCache struct {
	storage  map[StorageKey]StorageValue
	balances map[Asset]BalanceValue
	events   []LogRecord
	memory   map[uint32][]byte // transient scratch, never persisted
}

// NewContractCache returns an empty ContractCache.
func NewContractCache() *ContractCache {
	return &ContractCache{
		storage:  make(map[StorageKey]StorageValue),
		balances: make(map[Asset]BalanceValue),
		memory:   make(map[uint32][]byte),
	}
}

// SetStorage records a write to key. state must be StateNew or
// StateUpdated; a nil value marks a deletion.
func (c *ContractCache) SetStorage(key StorageKey, value []byte, state VersionedState) {
	c.storage[key] = StorageValue{State: state, Value: value}
}

// GetStorage returns the scratch value for key and whether it was written
// in this scratch at all (as opposed to falling through to base storage).
func (c *ContractCache) GetStorage(key StorageKey) (value []byte, state VersionedState, found bool) {
	v, ok := c.storage[key]
	if !ok {
		return nil, VersionedState{}, false
	}
	return v.Value, v.State, true
}

// StorageWrites returns every key this scratch touched, for merge-on-commit.
func (c *ContractCache) StorageWrites() map[StorageKey]StorageValue {
	return c.storage
}

// SetBalance records a write to an asset balance.
func (c *ContractCache) SetBalance(asset Asset, balance uint64, state VersionedState) {
	c.balances[asset] = BalanceValue{State: state, Balance: balance}
}

// GetBalance returns the scratch value for asset, if written in this
// scratch.
func (c *ContractCache) GetBalance(asset Asset) (balance uint64, found bool) {
	v, ok := c.balances[asset]
	if !ok {
		return 0, false
	}
	return v.Balance, true
}

// BalanceWrites returns every asset balance this scratch touched.
func (c *ContractCache) BalanceWrites() map[Asset]BalanceValue {
	return c.balances
}

// EmitEvent appends a LogRecord with up to four indexed topics.
func (c *ContractCache) EmitEvent(contract common.Hash, topics []common.Hash, data []byte) {
	if len(topics) > 4 {
		topics = topics[:4]
	}
	c.events = append(c.events, LogRecord{Contract: contract, Topics: topics, Data: data})
}

// Events returns every event emitted so far, in emission order.
func (c *ContractCache) Events() []LogRecord { return c.events }

// SetMemory writes transient per-invocation scratch at slot, never
// persisted past the invocation.
func (c *ContractCache) SetMemory(slot uint32, data []byte) {
	c.memory[slot] = data
}

// GetMemory reads transient scratch at slot.
func (c *ContractCache) GetMemory(slot uint32) ([]byte, bool) {
	v, ok := c.memory[slot]
	return v, ok
}

// Reset clears the cache for reuse across transactions.
func (c *ContractCache) Reset() {
	for k := range c.storage {
		delete(c.storage, k)
	}
	for k := range c.balances {
		delete(c.balances, k)
	}
	c.events = c.events[:0]
	for k := range c.memory {
		delete(c.memory, k)
	}
}
