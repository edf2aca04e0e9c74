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

// Package reachability implements the interval-tree ancestor/descendant
// index spec.md §4.B describes: O(1) is_chain_ancestor/is_dag_ancestor
// queries over the selected-parent tree, with reindexing on interval
// exhaustion and periodic reindex-root advancement.
package reachability

import (
	"github.com/tos-network/gtos/common"
	"github.com/tos-network/gtos/core/types"
)

// Storage is the persistence surface the reachability Engine needs: get/set
// ReachabilityData per block, get/set the reindex root (spec.md §9's
// ReachabilityStorage capability list). A concrete implementation layers
// this on core/state's VersionedStore or an ethdb.KeyValueStore directly;
// the engine holds no storage opinion beyond this interface.
type Storage interface {
	GetReachabilityData(hash common.Hash) (*types.ReachabilityData, error)
	SetReachabilityData(hash common.Hash, data *types.ReachabilityData) error

	ReindexRoot() (common.Hash, error)
	SetReindexRoot(hash common.Hash) error
}

// MemStorage is an in-memory Storage, used by tests and by embedders that
// keep the whole reachability tree resident.
type MemStorage struct {
	data  map[common.Hash]*types.ReachabilityData
	root  common.Hash
	hasRoot bool
}

// NewMemStorage returns an empty MemStorage.
func NewMemStorage() *MemStorage {
	return &MemStorage{data: make(map[common.Hash]*types.ReachabilityData)}
}

func (s *MemStorage) GetReachabilityData(hash common.Hash) (*types.ReachabilityData, error) {
	d, ok := s.data[hash]
	if !ok {
		return nil, types.ErrBlockNotFound
	}
	return d, nil
}

func (s *MemStorage) SetReachabilityData(hash common.Hash, data *types.ReachabilityData) error {
	s.data[hash] = data
	return nil
}

func (s *MemStorage) ReindexRoot() (common.Hash, error) {
	if !s.hasRoot {
		return common.Hash{}, types.ErrReindexRootNotInitialized
	}
	return s.root, nil
}

func (s *MemStorage) SetReindexRoot(hash common.Hash) error {
	s.root = hash
	s.hasRoot = true
	return nil
}
