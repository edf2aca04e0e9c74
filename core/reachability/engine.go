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

package reachability

import (
	"math"
	"math/bits"
	"sort"

	"github.com/tos-network/gtos/common"
	"github.com/tos-network/gtos/core/types"
	"github.com/tos-network/gtos/log"
	"github.com/tos-network/gtos/metrics"
	"github.com/tos-network/gtos/params"
)

// Engine maintains the reachability interval tree over a single Storage
// and answers ancestor queries in O(1) after O(log n) amortized insertion
// (spec.md §4.B).
type Engine struct {
	storage Storage
	cfg     params.BPSConfig
	log     log.Logger
	metrics *metrics.Registry
}

// NewEngine wraps storage with the default reindex depth/slack from cfg.
func NewEngine(storage Storage, cfg params.BPSConfig) *Engine {
	return &Engine{storage: storage, cfg: cfg, log: log.New("pkg", "reachability"), metrics: metrics.DefaultRegistry}
}

// InitGenesis seeds storage with the root record: the full 64-bit interval,
// height 0, and itself as the initial reindex root.
func (e *Engine) InitGenesis(hash common.Hash) error {
	data := &types.ReachabilityData{
		Interval: types.Interval{Start: 0, End: math.MaxUint64},
		Height:   0,
	}
	if err := e.storage.SetReachabilityData(hash, data); err != nil {
		return err
	}
	return e.storage.SetReindexRoot(hash)
}

// AddBlock inserts hash as a new child of parent, carving an interval out
// of parent's remaining capacity, reindexing the tree first if that
// capacity is exhausted (spec.md §4.B insertion algorithm).
func (e *Engine) AddBlock(hash, parent common.Hash) error {
	pdata, err := e.storage.GetReachabilityData(parent)
	if err != nil {
		if err == types.ErrBlockNotFound {
			return types.ErrInvalidParent
		}
		return err
	}

	remaining, err := e.remainingCapacity(pdata)
	if err != nil {
		return err
	}

	if remaining.Size() > 1 {
		allocated, _ := remaining.SplitHalf()
		return e.insertChild(hash, parent, pdata, allocated)
	}

	// Capacity exhausted: record the child with a minimal placeholder
	// interval, then reindex the subtree anchored at the current
	// reindex root (or at the nearer ancestor reindexAnchor picks within
	// DefaultReindexSlack levels) so every interval in it (including this
	// one) is recomputed with room to spare.
	placeholder := types.Interval{Start: remaining.Start, End: remaining.Start}
	if err := e.insertChild(hash, parent, pdata, placeholder); err != nil {
		return err
	}

	root, err := e.storage.ReindexRoot()
	if err != nil {
		return err
	}
	anchor, err := e.reindexAnchor(parent, root, params.DefaultReindexSlack)
	if err != nil {
		return err
	}
	return e.reindex(anchor)
}

// reindexAnchor picks the block a reindex triggered by parent's capacity
// exhaustion actually recomputes from. It walks from parent toward the
// global reindex root, but never further than slack levels: if root is
// reached (or passed) within that many steps, root is used exactly as
// before; otherwise the ancestor slack levels above parent is used
// instead, capping how deep the reindexed subtree can be. This is
// DefaultReindexSlack's purpose (spec.md §4.B): a reindex root left far
// behind by an in-flight reorg must not force recomputing an unboundedly
// large subtree on every subsequent insertion.
func (e *Engine) reindexAnchor(parent, root common.Hash, slack int) (common.Hash, error) {
	rootData, err := e.storage.GetReachabilityData(root)
	if err != nil {
		return common.Hash{}, err
	}

	cur := parent
	for i := 0; i < slack; i++ {
		if cur == root {
			return root, nil
		}
		data, err := e.storage.GetReachabilityData(cur)
		if err != nil {
			return common.Hash{}, err
		}
		if data.Height <= rootData.Height {
			return root, nil
		}
		cur = data.Parent
	}
	return cur, nil
}

func (e *Engine) insertChild(hash, parent common.Hash, pdata *types.ReachabilityData, interval types.Interval) error {
	if pdata.HasChild(hash) {
		return types.ErrInvalidReachability
	}
	pdata.Children = append(pdata.Children, hash)
	if err := e.storage.SetReachabilityData(parent, pdata); err != nil {
		return err
	}
	child := &types.ReachabilityData{Parent: parent, Interval: interval, Height: pdata.Height + 1}
	return e.storage.SetReachabilityData(hash, child)
}

// remainingCapacity computes the unallocated slice of pdata's interval
// available for a new child (spec.md §4.B step 1).
func (e *Engine) remainingCapacity(pdata *types.ReachabilityData) (types.Interval, error) {
	if len(pdata.Children) == 0 {
		return pdata.Interval.DecreaseEnd(1), nil
	}
	last := pdata.Children[len(pdata.Children)-1]
	lastData, err := e.storage.GetReachabilityData(last)
	if err != nil {
		return types.Interval{}, err
	}
	return types.Interval{Start: lastData.Interval.End + 1, End: pdata.Interval.End}, nil
}

// reindex recomputes intervals across the entire subtree rooted at anchor,
// proportionally to each child subtree's node count, preserving
// containment and disjointness (spec.md §4.B reindexing).
func (e *Engine) reindex(anchor common.Hash) error {
	e.metrics.GetOrRegisterCounter("reachability/reindex_count").Inc(1)
	data, err := e.storage.GetReachabilityData(anchor)
	if err != nil {
		return err
	}
	return e.reindexSubtree(anchor, data.Interval)
}

func (e *Engine) reindexSubtree(hash common.Hash, interval types.Interval) error {
	data, err := e.storage.GetReachabilityData(hash)
	if err != nil {
		return err
	}
	data.Interval = interval
	if err := e.storage.SetReachabilityData(hash, data); err != nil {
		return err
	}
	if len(data.Children) == 0 {
		return nil
	}

	sizes := make([]uint64, len(data.Children))
	for i, c := range data.Children {
		sz, err := e.subtreeSize(c)
		if err != nil {
			return err
		}
		sizes[i] = sz
	}

	childCapacity := interval.DecreaseEnd(1)
	spans := proportionalSplit(childCapacity.Size(), sizes)
	subIntervals := childCapacity.SplitExact(spans)

	for i, c := range data.Children {
		if err := e.reindexSubtree(c, subIntervals[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) subtreeSize(hash common.Hash) (uint64, error) {
	data, err := e.storage.GetReachabilityData(hash)
	if err != nil {
		return 0, err
	}
	size := uint64(1)
	for _, c := range data.Children {
		cs, err := e.subtreeSize(c)
		if err != nil {
			return 0, err
		}
		size += cs
	}
	return size, nil
}

// proportionalSplit divides total into len(weights) shares proportional to
// weights, each share at least 1, summing to exactly total whenever
// total >= len(weights) (largest remainder method, so rounding error never
// violates the sum invariant). With more weights than total, every share
// is 1 and the sum is len(weights).
func proportionalSplit(total uint64, weights []uint64) []uint64 {
	n := len(weights)
	out := make([]uint64, n)
	if n == 0 {
		return out
	}
	weightSum := uint64(0)
	for _, w := range weights {
		weightSum += w
	}
	if weightSum == 0 {
		weightSum = uint64(n)
		for i := range weights {
			weights[i] = 1
		}
	}

	assigned := uint64(0)
	type remainder struct {
		idx int
		rem uint64
	}
	rems := make([]remainder, n)
	for i, w := range weights {
		hi, lo := bits.Mul64(total, w)
		share, rem := bits.Div64(hi, lo, weightSum)
		if share == 0 {
			share = 1
		}
		out[i] = share
		assigned += share
		rems[i] = remainder{idx: i, rem: rem}
	}

	sort.Slice(rems, func(i, j int) bool { return rems[i].rem > rems[j].rem })

	if assigned > total {
		// Degenerate case (every weight forced up to the 1-share floor):
		// shrink from the smallest-remainder shares down, one unit per
		// pass, until the sum fits exactly or every share is at the floor.
		over := assigned - total
		for over > 0 {
			shrunk := false
			for i := n - 1; i >= 0 && over > 0; i-- {
				idx := rems[i].idx
				if out[idx] > 1 {
					out[idx]--
					over--
					shrunk = true
				}
			}
			if !shrunk {
				break
			}
		}
		return out
	}

	under := total - assigned
	for i := 0; i < n && under > 0; i++ {
		out[rems[i].idx]++
		under--
	}
	return out
}

// IsChainAncestor reports whether a's interval contains b's, i.e. a lies on
// b's selected-parent chain.
func (e *Engine) IsChainAncestor(a, b common.Hash) (bool, error) {
	da, err := e.storage.GetReachabilityData(a)
	if err != nil {
		return false, err
	}
	db, err := e.storage.GetReachabilityData(b)
	if err != nil {
		return false, err
	}
	return da.Interval.Contains(db.Interval), nil
}

// IsDagAncestor reports whether a is a chain-ancestor of b, or a appears in
// b's future covering set (spec.md §4.B).
func (e *Engine) IsDagAncestor(a, b common.Hash) (bool, error) {
	chain, err := e.IsChainAncestor(a, b)
	if err != nil {
		return false, err
	}
	if chain {
		return true, nil
	}
	db, err := e.storage.GetReachabilityData(b)
	if err != nil {
		return false, err
	}
	for _, h := range db.FutureCoveringSet {
		if h == a {
			return true, nil
		}
	}
	return false, nil
}

// AddFutureCoveringBlock records that a is reachable from b through a side
// branch, for is_dag_ancestor queries where a is not on b's chain. Callers
// in core/consensusdag populate this while computing a block's mergeset.
func (e *Engine) AddFutureCoveringBlock(b, a common.Hash) error {
	data, err := e.storage.GetReachabilityData(b)
	if err != nil {
		return err
	}
	for _, h := range data.FutureCoveringSet {
		if h == a {
			return nil
		}
	}
	data.FutureCoveringSet = append(data.FutureCoveringSet, a)
	return e.storage.SetReachabilityData(b, data)
}

// TryAdvanceReindexRoot moves the reindex root forward when tip has grown
// at least DefaultReindexDepth ahead of the current root, walking back that
// many selected-parent edges from tip (spec.md §4.B reindex root
// advancement). DefaultReindexSlack bounds how far behind the tip a
// reindex is still allowed to touch; callers invoke this on every
// selected-tip change.
func (e *Engine) TryAdvanceReindexRoot(tip common.Hash) error {
	root, err := e.storage.ReindexRoot()
	if err != nil {
		return err
	}
	rootData, err := e.storage.GetReachabilityData(root)
	if err != nil {
		return err
	}
	tipData, err := e.storage.GetReachabilityData(tip)
	if err != nil {
		return err
	}
	if tipData.Height < rootData.Height+uint64(params.DefaultReindexDepth) {
		return nil
	}

	cur := tip
	for i := 0; i < params.DefaultReindexDepth; i++ {
		d, err := e.storage.GetReachabilityData(cur)
		if err != nil {
			return err
		}
		cur = d.Parent
	}
	candidate, err := e.storage.GetReachabilityData(cur)
	if err != nil {
		return err
	}
	if candidate.Height <= rootData.Height {
		return nil
	}
	return e.storage.SetReindexRoot(cur)
}
