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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryDBPutGetDelete(t *testing.T) {
	db := NewMemoryDB()

	ok, err := db.Has([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	ok, err = db.Has([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)

	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, db.Delete([]byte("k")))
	_, err = db.Get([]byte("k"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryDBIteratorPrefixOrder(t *testing.T) {
	db := NewMemoryDB()
	for _, k := range []string{"ka3", "ka1", "kb1", "ka2"} {
		require.NoError(t, db.Put([]byte(k), []byte(k)))
	}

	it := db.NewIterator([]byte("ka"))
	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	it.Release()
	require.Equal(t, []string{"ka1", "ka2", "ka3"}, got)
}

func TestMemoryDBBatchAtomicity(t *testing.T) {
	db := NewMemoryDB()
	require.NoError(t, db.Put([]byte("keep"), []byte("1")))

	b := db.NewBatch()
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.NoError(t, b.Put([]byte("b"), []byte("2")))
	require.NoError(t, b.Delete([]byte("keep")))
	require.NoError(t, b.Write())

	_, err := db.Get([]byte("keep"))
	require.ErrorIs(t, err, ErrKeyNotFound)
	v, err := db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)
}

func TestMemoryDBClosed(t *testing.T) {
	db := NewMemoryDB()
	require.NoError(t, db.Close())
	_, err := db.Get([]byte("k"))
	require.ErrorIs(t, err, ErrMemoryDBClosed)
}
