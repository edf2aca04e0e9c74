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
	"encoding/binary"
	"fmt"

	"github.com/tos-network/gtos/core/types"
	"github.com/tos-network/gtos/ethdb"
	"github.com/tos-network/gtos/log"
)

// Record is the public view of one loaded version: the resolved value at
// or below the queried topoheight, together with the state tag and the
// topoheight it was actually written at.
type Record struct {
	Kind  types.VersionedStateKind
	Topo  types.TopoHeight
	Value []byte
}

// VersionedStore layers spec.md §4.A's VersionedState record format on top
// of a flat ethdb.KeyValueStore. Every logical key maps to a chain of
// per-topoheight records; Updated records carry a PrevTopoHeight pointer
// so Load can walk backward from the current head without a secondary
// topoheight->keys range index.
type VersionedStore struct {
	db  ethdb.KeyValueStore
	log log.Logger
}

// NewVersionedStore wraps db. db is not owned: callers are responsible for
// closing it.
func NewVersionedStore(db ethdb.KeyValueStore) *VersionedStore {
	return &VersionedStore{db: db, log: log.New("pkg", "state")}
}

// headKey is the index entry tracking the most recent topoheight a logical
// key was written at.
func headKey(key []byte) []byte {
	return append([]byte("h:"), key...)
}

// versionKey addresses the record written for key at topoheight topo.
func versionKey(key []byte, topo types.TopoHeight) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(topo))
	out := append([]byte("v:"), key...)
	out = append(out, ':')
	return append(out, buf...)
}

// allKeysEntry addresses the membership marker used by DeleteAboveTopoheight
// to enumerate every logical key without scanning version records.
func allKeysEntry(key []byte) []byte {
	return append([]byte("k:"), key...)
}

func encodeTopo(t types.TopoHeight) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t))
	return buf
}

func decodeTopo(buf []byte) (types.TopoHeight, error) {
	if len(buf) != 8 {
		return 0, fmt.Errorf("state: malformed head index entry (%d bytes)", len(buf))
	}
	return types.TopoHeight(binary.BigEndian.Uint64(buf)), nil
}

// Load returns the most recent version of key whose topoheight is <= at,
// following the Updated(prev) chain as far back as needed, or
// (nil, nil) if no such version exists (spec.md §4.A).
func (s *VersionedStore) Load(key []byte, at types.TopoHeight) (*Record, error) {
	headBuf, err := s.db.Get(headKey(key))
	if err == ethdb.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	head, err := decodeTopo(headBuf)
	if err != nil {
		return nil, err
	}

	topo := head
	for {
		raw, err := s.db.Get(versionKey(key, topo))
		if err == ethdb.ErrKeyNotFound {
			return nil, nil
		} else if err != nil {
			return nil, err
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return nil, err
		}
		if rec.topo <= at {
			if rec.value == nil {
				return nil, nil
			}
			return &Record{Kind: rec.state.Kind, Topo: rec.topo, Value: rec.value}, nil
		}
		if !rec.state.IsUpdate() {
			// This is the oldest version recorded for key and it postdates
			// the query: nothing qualifies.
			return nil, nil
		}
		topo = rec.state.PrevTopoHeight
	}
}

// Store writes value for key at newTopo. prevTopo, if non-nil, must be the
// topoheight of the version being superseded; the written record is tagged
// Updated(prevTopo) and the head index is advanced. A nil prevTopo tags the
// record New. Passing value == nil records a tombstone (a deletion that is
// itself versioned, so Load at an earlier topoheight still sees the prior
// value).
func (s *VersionedStore) Store(key []byte, value []byte, newTopo types.TopoHeight, prevTopo *types.TopoHeight) error {
	var st types.VersionedState
	if prevTopo != nil {
		st = types.UpdatedState(*prevTopo)
	} else {
		st = types.NewState()
	}
	rec := record{state: st, topo: newTopo, value: value}

	batch := s.db.NewBatch()
	if err := batch.Put(versionKey(key, newTopo), encodeRecord(rec)); err != nil {
		return err
	}
	if err := batch.Put(headKey(key), encodeTopo(newTopo)); err != nil {
		return err
	}
	if err := batch.Put(allKeysEntry(key), nil); err != nil {
		return err
	}
	return batch.Write()
}

// Delete records a tombstone for key at newTopo, chained from prevTopo the
// same way Store does. Load at or after newTopo then correctly reports "no
// value", while earlier queries still see history.
func (s *VersionedStore) Delete(key []byte, newTopo types.TopoHeight, prevTopo *types.TopoHeight) error {
	return s.Store(key, nil, newTopo, prevTopo)
}

// DeleteAtTopoheight removes exactly the version record written at topo
// for every logical key, relinking each key's head index back to that
// record's PrevTopoHeight when topo was the head. It is used to undo a
// single reorganized block's writes (spec.md §4.A, §8).
func (s *VersionedStore) DeleteAtTopoheight(topo types.TopoHeight) error {
	return s.forEachKey(func(key []byte) error {
		raw, err := s.db.Get(versionKey(key, topo))
		if err == ethdb.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return err
		}

		batch := s.db.NewBatch()
		if err := batch.Delete(versionKey(key, topo)); err != nil {
			return err
		}
		headBuf, err := s.db.Get(headKey(key))
		if err == nil {
			head, err := decodeTopo(headBuf)
			if err != nil {
				return err
			}
			if head == topo {
				if rec.state.IsUpdate() {
					if err := batch.Put(headKey(key), encodeTopo(rec.state.PrevTopoHeight)); err != nil {
						return err
					}
				} else {
					if err := batch.Delete(headKey(key)); err != nil {
						return err
					}
					if err := batch.Delete(allKeysEntry(key)); err != nil {
						return err
					}
				}
			}
		} else if err != ethdb.ErrKeyNotFound {
			return err
		}
		return batch.Write()
	})
}

// DeleteAboveTopoheight discards every version with topoheight strictly
// greater than topo across all logical keys, relinking each key's chain
// down to its most recent surviving ancestor. It implements the bulk
// rollback a DAG reindex/prune boundary move requires (spec.md §4.A/§4.B).
// It touches only this store; reachability data is not updated by it.
func (s *VersionedStore) DeleteAboveTopoheight(topo types.TopoHeight) error {
	return s.forEachKey(func(key []byte) error {
		headBuf, err := s.db.Get(headKey(key))
		if err == ethdb.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}
		head, err := decodeTopo(headBuf)
		if err != nil {
			return err
		}

		cur := head
		var lastSurviving *record
		batch := s.db.NewBatch()
		for {
			raw, err := s.db.Get(versionKey(key, cur))
			if err == ethdb.ErrKeyNotFound {
				break
			} else if err != nil {
				return err
			}
			rec, err := decodeRecord(raw)
			if err != nil {
				return err
			}
			if rec.topo <= topo {
				r := rec
				lastSurviving = &r
				break
			}
			if err := batch.Delete(versionKey(key, cur)); err != nil {
				return err
			}
			if !rec.state.IsUpdate() {
				break
			}
			cur = rec.state.PrevTopoHeight
		}

		if lastSurviving == nil {
			if err := batch.Delete(headKey(key)); err != nil {
				return err
			}
			if err := batch.Delete(allKeysEntry(key)); err != nil {
				return err
			}
		} else if lastSurviving.topo != head {
			if err := batch.Put(headKey(key), encodeTopo(lastSurviving.topo)); err != nil {
				return err
			}
		}
		return batch.Write()
	})
}

// forEachKey iterates the all-keys membership index, invoking fn once per
// logical key. Iteration order follows the underlying store's key
// ordering and carries no semantic meaning.
func (s *VersionedStore) forEachKey(fn func(key []byte) error) error {
	prefix := []byte("k:")
	it := s.db.NewIterator(prefix)
	defer it.Release()

	var keys [][]byte
	for it.Next() {
		k := append([]byte(nil), it.Key()[len(prefix):]...)
		keys = append(keys, k)
	}
	for _, k := range keys {
		if err := fn(k); err != nil {
			return err
		}
	}
	return nil
}
