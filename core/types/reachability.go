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

// Interval is a closed [Start, End] range of 64-bit ordinals carved out of
// a parent's capacity (spec.md §3, §4.B). Ancestor queries reduce to
// containment checks over these ranges.
type Interval struct {
	Start uint64
	End   uint64
}

// Size is the number of ordinals the interval spans.
func (iv Interval) Size() uint64 { return iv.End - iv.Start + 1 }

// Contains reports whether other lies entirely within iv.
func (iv Interval) Contains(other Interval) bool {
	return iv.Start <= other.Start && other.End <= iv.End
}

// SplitHalf divides iv into two adjacent sub-intervals, the first getting
// the (possibly larger) lower half. Used by reachability insertion to hand
// a new child half of its parent's remaining capacity (spec.md §4.B step 2).
func (iv Interval) SplitHalf() (left, right Interval) {
	size := iv.Size()
	leftSize := size - size/2
	left = Interval{Start: iv.Start, End: iv.Start + leftSize - 1}
	right = Interval{Start: left.End + 1, End: iv.End}
	return left, right
}

// SplitExact divides iv into len(sizes) consecutive sub-intervals with
// exactly the requested sizes, which must sum to iv.Size(). Used by
// reindexing to redistribute a subtree's capacity proportionally.
func (iv Interval) SplitExact(sizes []uint64) []Interval {
	out := make([]Interval, len(sizes))
	cur := iv.Start
	for i, sz := range sizes {
		out[i] = Interval{Start: cur, End: cur + sz - 1}
		cur += sz
	}
	return out
}

// DecreaseEnd returns iv with its End reduced by n, used when a parent with
// no children yet must still reserve room to grow (spec.md §4.B step 1).
func (iv Interval) DecreaseEnd(n uint64) Interval {
	return Interval{Start: iv.Start, End: iv.End - n}
}

// ReachabilityData is the per-block record the reachability engine
// maintains (spec.md §3): the selected-parent tree edge, this block's
// carved-out interval, and the future covering set used for descendant
// queries across side branches.
type ReachabilityData struct {
	Parent            common.Hash
	Interval          Interval
	Height            uint64
	Children          []common.Hash
	FutureCoveringSet []common.Hash
}

// HasChild reports whether child already appears in d.Children.
func (d *ReachabilityData) HasChild(child common.Hash) bool {
	for _, c := range d.Children {
		if c == child {
			return true
		}
	}
	return false
}
