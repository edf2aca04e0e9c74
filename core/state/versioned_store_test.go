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

package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tos-network/gtos/core/types"
	"github.com/tos-network/gtos/ethdb"
)

func topoPtr(t types.TopoHeight) *types.TopoHeight { return &t }

func TestVersionedStoreLoadFollowsUpdateChain(t *testing.T) {
	db := ethdb.NewMemoryDB()
	s := NewVersionedStore(db)
	key := []byte("acct-1-balance")

	require.NoError(t, s.Store(key, []byte("100"), 10, nil))
	require.NoError(t, s.Store(key, []byte("150"), 20, topoPtr(10)))
	require.NoError(t, s.Store(key, []byte("90"), 35, topoPtr(20)))

	rec, err := s.Load(key, 35)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, []byte("90"), rec.Value)

	rec, err = s.Load(key, 25)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, []byte("150"), rec.Value)

	rec, err = s.Load(key, 15)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, []byte("100"), rec.Value)

	rec, err = s.Load(key, 5)
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestVersionedStoreLoadMissingKey(t *testing.T) {
	s := NewVersionedStore(ethdb.NewMemoryDB())
	rec, err := s.Load([]byte("never-written"), 100)
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestVersionedStoreDeleteIsVersionedTombstone(t *testing.T) {
	db := ethdb.NewMemoryDB()
	s := NewVersionedStore(db)
	key := []byte("acct-2-balance")

	require.NoError(t, s.Store(key, []byte("42"), 1, nil))
	require.NoError(t, s.Delete(key, 2, topoPtr(1)))

	rec, err := s.Load(key, 2)
	require.NoError(t, err)
	require.Nil(t, rec, "deleted at topo 2 onward")

	rec, err = s.Load(key, 1)
	require.NoError(t, err)
	require.NotNil(t, rec, "still visible before the delete")
	require.Equal(t, []byte("42"), rec.Value)
}

func TestVersionedStoreDeleteAtTopoheightRelinksHead(t *testing.T) {
	db := ethdb.NewMemoryDB()
	s := NewVersionedStore(db)
	key := []byte("acct-3-balance")

	require.NoError(t, s.Store(key, []byte("1"), 10, nil))
	require.NoError(t, s.Store(key, []byte("2"), 20, topoPtr(10)))

	require.NoError(t, s.DeleteAtTopoheight(20))

	rec, err := s.Load(key, 100)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, []byte("1"), rec.Value, "head should relink to the surviving version at topo 10")
}

func TestVersionedStoreDeleteAboveTopoheightPrunesReorgedWrites(t *testing.T) {
	db := ethdb.NewMemoryDB()
	s := NewVersionedStore(db)
	keyA := []byte("acct-a")
	keyB := []byte("acct-b")

	require.NoError(t, s.Store(keyA, []byte("base"), 10, nil))
	require.NoError(t, s.Store(keyA, []byte("reorged"), 20, topoPtr(10)))
	require.NoError(t, s.Store(keyB, []byte("only-new"), 20, nil))

	require.NoError(t, s.DeleteAboveTopoheight(10))

	recA, err := s.Load(keyA, 100)
	require.NoError(t, err)
	require.NotNil(t, recA)
	require.Equal(t, []byte("base"), recA.Value)

	recB, err := s.Load(keyB, 100)
	require.NoError(t, err)
	require.Nil(t, recB, "keyB had no version at or below the cutoff, so it must vanish entirely")
}
