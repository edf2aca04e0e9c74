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

package scheduler

import (
	"github.com/tos-network/gtos/common"
	"github.com/tos-network/gtos/core/types"
)

// MainKey addresses one ScheduledExecution in the main index: (contract,
// execution_topo) per spec.md §4.E.
type MainKey struct {
	Contract      common.Hash
	ExecutionTopo types.TopoHeight
}

// Storage is the three-index persistence surface spec.md §4.E requires:
// a main record store plus the registration and priority range-scan
// indexes used for rollback and for draining a topoheight's queue.
// Engine updates the three indexes through separate calls and takes no
// lock around them, so a reader running concurrently with Register,
// Cancel, Drain or a rollback can observe one index updated before
// another.
type Storage interface {
	GetMain(key MainKey) (*types.ScheduledExecution, error)
	SetMain(key MainKey, se *types.ScheduledExecution) error
	DeleteMain(key MainKey) error

	AddRegistration(registrationTopo types.TopoHeight, key MainKey) error
	RemoveRegistration(registrationTopo types.TopoHeight, key MainKey) error
	ForEachRegistration(registrationTopo types.TopoHeight, fn func(key MainKey) error) error

	AddPriority(executionTopo types.TopoHeight, key MainKey) error
	RemovePriority(executionTopo types.TopoHeight, key MainKey) error
	ListPriority(executionTopo types.TopoHeight) ([]MainKey, error)
}

// MemStorage is an in-memory Storage, the three indexes as three distinct
// maps (SPEC_FULL.md §3: kept separate so delete_at_topoheight /
// delete_above_topoheight can range-scan the registration index without
// touching the priority index's key space).
type MemStorage struct {
	main         map[MainKey]*types.ScheduledExecution
	registration map[types.TopoHeight]map[MainKey]struct{}
	priority     map[types.TopoHeight]map[MainKey]struct{}
}

// NewMemStorage returns an empty MemStorage.
func NewMemStorage() *MemStorage {
	return &MemStorage{
		main:         make(map[MainKey]*types.ScheduledExecution),
		registration: make(map[types.TopoHeight]map[MainKey]struct{}),
		priority:     make(map[types.TopoHeight]map[MainKey]struct{}),
	}
}

func (s *MemStorage) GetMain(key MainKey) (*types.ScheduledExecution, error) {
	se, ok := s.main[key]
	if !ok {
		return nil, types.ErrScheduledExecutionNotFound
	}
	return se, nil
}

func (s *MemStorage) SetMain(key MainKey, se *types.ScheduledExecution) error {
	s.main[key] = se
	return nil
}

func (s *MemStorage) DeleteMain(key MainKey) error {
	delete(s.main, key)
	return nil
}

func (s *MemStorage) AddRegistration(registrationTopo types.TopoHeight, key MainKey) error {
	bucket, ok := s.registration[registrationTopo]
	if !ok {
		bucket = make(map[MainKey]struct{})
		s.registration[registrationTopo] = bucket
	}
	bucket[key] = struct{}{}
	return nil
}

func (s *MemStorage) RemoveRegistration(registrationTopo types.TopoHeight, key MainKey) error {
	bucket, ok := s.registration[registrationTopo]
	if !ok {
		return nil
	}
	delete(bucket, key)
	if len(bucket) == 0 {
		delete(s.registration, registrationTopo)
	}
	return nil
}

func (s *MemStorage) ForEachRegistration(registrationTopo types.TopoHeight, fn func(key MainKey) error) error {
	bucket := s.registration[registrationTopo]
	keys := make([]MainKey, 0, len(bucket))
	for k := range bucket {
		keys = append(keys, k)
	}
	for _, k := range keys {
		if err := fn(k); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemStorage) AddPriority(executionTopo types.TopoHeight, key MainKey) error {
	bucket, ok := s.priority[executionTopo]
	if !ok {
		bucket = make(map[MainKey]struct{})
		s.priority[executionTopo] = bucket
	}
	bucket[key] = struct{}{}
	return nil
}

func (s *MemStorage) RemovePriority(executionTopo types.TopoHeight, key MainKey) error {
	bucket, ok := s.priority[executionTopo]
	if !ok {
		return nil
	}
	delete(bucket, key)
	if len(bucket) == 0 {
		delete(s.priority, executionTopo)
	}
	return nil
}

func (s *MemStorage) ListPriority(executionTopo types.TopoHeight) ([]MainKey, error) {
	bucket := s.priority[executionTopo]
	out := make([]MainKey, 0, len(bucket))
	for k := range bucket {
		out = append(out, k)
	}
	return out, nil
}
