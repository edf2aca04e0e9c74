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

// Package consensusdag implements spec.md §4.C: tip tracking, selected
// parent / cumulative difficulty choice, topological ordering and the
// Kalman V2 difficulty retarget, layered on top of core/reachability for
// ancestor queries.
package consensusdag

import (
	"bytes"
	"sort"

	"github.com/tos-network/gtos/common"
	"github.com/tos-network/gtos/core/reachability"
	"github.com/tos-network/gtos/core/types"
	"github.com/tos-network/gtos/event"
	"github.com/tos-network/gtos/log"
	"github.com/tos-network/gtos/metrics"
	"github.com/tos-network/gtos/params"
)

// headerCacheSize bounds the DAG's hot-header cache; tip-selection and
// best-tip queries re-read a small, recently-accepted set of headers far
// more often than the full history.
const headerCacheSize = 4096

// NewBestTip is sent on DAG.TipFeed whenever AddBlock changes the best
// tip, so an embedder's fork-choice display or RPC layer can react without
// polling BestTip on every block.
type NewBestTip struct {
	Hash common.Hash
}

// BlockStore is the metadata persistence surface the DAG needs per block:
// header lookup and topoheight assignment, layered independently of
// core/state's key-value substrate so callers may back it with either.
type BlockStore interface {
	GetHeader(hash common.Hash) (*types.BlockHeader, error)
	SetHeader(hash common.Hash, header *types.BlockHeader) error
	SetTopoHeight(hash common.Hash, topo types.TopoHeight) error
	GetTopoHeight(hash common.Hash) (types.TopoHeight, error)
}

// DAG tracks the BlockDAG's tip set and drives block acceptance (spec.md
// §4.C).
type DAG struct {
	blocks BlockStore
	reach  *reachability.Engine
	cfg    params.BPSConfig
	log    log.Logger
	tips   map[common.Hash]struct{}

	headers *common.HashCache

	// TipFeed publishes a NewBestTip every time AddBlock changes the
	// canonical tip. The zero Feed is ready to use; callers Subscribe
	// before accepting blocks if they want every change observed.
	TipFeed event.Feed

	bestTip common.Hash
	hasTip  bool

	metrics *metrics.Registry
}

// NewDAG wraps blocks/reach with a fresh, empty tip set.
func NewDAG(blocks BlockStore, reach *reachability.Engine, cfg params.BPSConfig) *DAG {
	return &DAG{
		blocks:  blocks,
		reach:   reach,
		cfg:     cfg,
		log:     log.New("pkg", "consensusdag"),
		tips:    make(map[common.Hash]struct{}),
		headers: common.NewHashCache(headerCacheSize),
		metrics: metrics.DefaultRegistry,
	}
}

// header returns hash's header, consulting the hot-header cache before
// falling back to blocks.
func (d *DAG) header(hash common.Hash) (*types.BlockHeader, error) {
	if v, ok := d.headers.Get(hash); ok {
		return v.(*types.BlockHeader), nil
	}
	h, err := d.blocks.GetHeader(hash)
	if err != nil {
		return nil, err
	}
	d.headers.Add(hash, h)
	return h, nil
}

// setHeader persists header and seeds the hot-header cache with it.
func (d *DAG) setHeader(hash common.Hash, header *types.BlockHeader) error {
	if err := d.blocks.SetHeader(hash, header); err != nil {
		return err
	}
	d.headers.Add(hash, header)
	return nil
}

// InitGenesis seeds the DAG with the genesis block as its sole tip at
// topoheight 0.
func (d *DAG) InitGenesis(hash common.Hash, difficulty *types.Difficulty) error {
	header := &types.BlockHeader{
		Hash:                 hash,
		Height:               0,
		Difficulty:           difficulty,
		CumulativeDifficulty: difficulty,
	}
	if err := d.setHeader(hash, header); err != nil {
		return err
	}
	if err := d.blocks.SetTopoHeight(hash, types.GenesisTopoHeight); err != nil {
		return err
	}
	if err := d.reach.InitGenesis(hash); err != nil {
		return err
	}
	d.tips[hash] = struct{}{}
	d.bestTip = hash
	d.hasTip = true
	d.metrics.GetOrRegisterCounter("consensusdag/blocks_accepted").Inc(1)
	d.TipFeed.Send(NewBestTip{Hash: hash})
	return nil
}

// SelectedParent returns the parent with the greatest cumulative
// difficulty among parents, breaking ties by lexicographically smallest
// hash (spec.md §4.C).
func (d *DAG) SelectedParent(parents []*types.BlockHeader) *types.BlockHeader {
	if len(parents) == 0 {
		return nil
	}
	best := parents[0]
	for _, p := range parents[1:] {
		if betterTip(p, best) {
			best = p
		}
	}
	return best
}

// betterTip reports whether a has strictly greater cumulative difficulty
// than b, or equal difficulty and a lexicographically smaller hash.
func betterTip(a, b *types.BlockHeader) bool {
	cmp := a.CumulativeDifficulty.Cmp(b.CumulativeDifficulty)
	if cmp != 0 {
		return cmp > 0
	}
	return bytes.Compare(a.Hash[:], b.Hash[:]) < 0
}

// AddBlock accepts a new block with the given parents (already-known
// headers, most-recent-first order not required), computing its
// cumulative difficulty, selected parent, height and topoheight, updating
// the reachability tree and the tip set (spec.md §4.C).
func (d *DAG) AddBlock(hash common.Hash, difficulty *types.Difficulty, parents []*types.BlockHeader) (*types.BlockHeader, error) {
	if len(parents) == 0 {
		return nil, types.ErrInvalidParent
	}
	selected := d.SelectedParent(parents)

	cumulative := types.AddDifficulty(difficulty, selected.CumulativeDifficulty)
	header := &types.BlockHeader{
		Hash:                 hash,
		Parents:              parentHashes(parents),
		Height:               selected.Height + 1,
		Difficulty:           difficulty,
		CumulativeDifficulty: cumulative,
	}

	if err := d.reach.AddBlock(hash, selected.Hash); err != nil {
		return nil, err
	}
	for _, p := range parents {
		if p.Hash == selected.Hash {
			continue
		}
		// Non-selected parents are merged into the new block's anticone;
		// record them as future-covering so is_dag_ancestor queries find
		// them through this block (spec.md §4.B).
		if err := d.reach.AddFutureCoveringBlock(hash, p.Hash); err != nil {
			return nil, err
		}
	}

	mergeSet, err := d.computeMergeSet(selected.Hash, parents)
	if err != nil {
		return nil, err
	}
	selectedTopo, err := d.blocks.GetTopoHeight(selected.Hash)
	if err != nil {
		return nil, err
	}
	next := selectedTopo + 1
	for _, merged := range mergeSet {
		if err := d.blocks.SetTopoHeight(merged, next); err != nil {
			return nil, err
		}
		next++
	}
	topo := next

	if err := d.setHeader(hash, header); err != nil {
		return nil, err
	}
	if err := d.blocks.SetTopoHeight(hash, topo); err != nil {
		return nil, err
	}

	for _, p := range parents {
		delete(d.tips, p.Hash)
	}
	d.tips[hash] = struct{}{}

	if err := d.reach.TryAdvanceReindexRoot(hash); err != nil {
		return nil, err
	}

	d.metrics.GetOrRegisterCounter("consensusdag/blocks_accepted").Inc(1)
	if prev := d.headerOrNil(d.bestTip); !d.hasTip || prev == nil || betterTip(header, prev) {
		d.bestTip = hash
		d.hasTip = true
		d.TipFeed.Send(NewBestTip{Hash: hash})
	}

	return header, nil
}

// computeMergeSet returns the blocks in the new block's anticone that
// become ordered for the first time by choosing it as their first-
// ordering descendant (spec.md §4.C "Topological order"): the block's
// non-selected parents and their ancestors, walked backward until a
// block already assigned a topoheight (already ordered via the
// selected-parent chain or an earlier merge set) is reached. The
// result is sorted by height then lexicographically smallest hash so
// topoheight assignment is deterministic and reproducible on every
// node (spec.md §4.C tiebreak rule, §8 "Topoheight uniqueness").
func (d *DAG) computeMergeSet(selectedHash common.Hash, parents []*types.BlockHeader) ([]common.Hash, error) {
	visited := make(map[common.Hash]struct{})
	var merged []common.Hash

	var walk func(h common.Hash) error
	walk = func(h common.Hash) error {
		if h == selectedHash {
			return nil
		}
		if _, ok := visited[h]; ok {
			return nil
		}
		visited[h] = struct{}{}

		if _, err := d.blocks.GetTopoHeight(h); err == nil {
			// Already ordered: reached either via the selected-parent
			// chain or a previously computed merge set.
			return nil
		}

		header, err := d.header(h)
		if err != nil {
			return err
		}
		merged = append(merged, h)
		for _, p := range header.Parents {
			if err := walk(p); err != nil {
				return err
			}
		}
		return nil
	}

	for _, p := range parents {
		if p.Hash == selectedHash {
			continue
		}
		if err := walk(p.Hash); err != nil {
			return nil, err
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		hi, hj := merged[i], merged[j]
		hdi, erri := d.header(hi)
		hdj, errj := d.header(hj)
		if erri == nil && errj == nil && hdi.Height != hdj.Height {
			return hdi.Height < hdj.Height
		}
		return bytes.Compare(hi[:], hj[:]) < 0
	})

	return merged, nil
}

// headerOrNil looks up hash's cached header, returning nil on any error;
// AddBlock then prefers the new block without calling betterTip when there
// is no readable prior best tip.
func (d *DAG) headerOrNil(hash common.Hash) *types.BlockHeader {
	h, err := d.header(hash)
	if err != nil {
		return nil
	}
	return h
}

func parentHashes(parents []*types.BlockHeader) []common.Hash {
	out := make([]common.Hash, len(parents))
	for i, p := range parents {
		out[i] = p.Hash
	}
	return out
}

// Tips returns the current tip set as a sorted slice, for deterministic
// iteration by callers (RPC listing, fork-choice display, tests).
func (d *DAG) Tips() []common.Hash {
	out := make([]common.Hash, 0, len(d.tips))
	for h := range d.tips {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

// BestTip returns the tip with the greatest cumulative difficulty, lex-min
// hash tiebreak — the head of the canonical chain (spec.md §4.C).
func (d *DAG) BestTip() (common.Hash, error) {
	tips := d.Tips()
	var best *types.BlockHeader
	for _, h := range tips {
		header, err := d.header(h)
		if err != nil {
			return common.Hash{}, err
		}
		if best == nil || betterTip(header, best) {
			best = header
		}
	}
	if best == nil {
		return common.Hash{}, types.ErrBlockNotFound
	}
	return best.Hash, nil
}
