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

package consensusdag

import (
	"github.com/tos-network/gtos/common"
	"github.com/tos-network/gtos/core/types"
)

// MemBlockStore is an in-memory BlockStore, used by tests and by embedders
// that keep the full DAG resident.
type MemBlockStore struct {
	headers map[common.Hash]*types.BlockHeader
	topos   map[common.Hash]types.TopoHeight
}

// NewMemBlockStore returns an empty MemBlockStore.
func NewMemBlockStore() *MemBlockStore {
	return &MemBlockStore{
		headers: make(map[common.Hash]*types.BlockHeader),
		topos:   make(map[common.Hash]types.TopoHeight),
	}
}

func (s *MemBlockStore) GetHeader(hash common.Hash) (*types.BlockHeader, error) {
	h, ok := s.headers[hash]
	if !ok {
		return nil, types.ErrBlockNotFound
	}
	return h, nil
}

func (s *MemBlockStore) SetHeader(hash common.Hash, header *types.BlockHeader) error {
	s.headers[hash] = header
	return nil
}

func (s *MemBlockStore) SetTopoHeight(hash common.Hash, topo types.TopoHeight) error {
	s.topos[hash] = topo
	return nil
}

// GetTopoHeight returns the topoheight assigned to hash.
func (s *MemBlockStore) GetTopoHeight(hash common.Hash) (types.TopoHeight, error) {
	t, ok := s.topos[hash]
	if !ok {
		return 0, types.ErrBlockNotFound
	}
	return t, nil
}
