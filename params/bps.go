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

// Package params holds the compile-time-derived safety constants spec.md
// §4.C calls "BPS parameters": every GHOSTDAG-style constant is a function
// of blocks-per-second so wall-clock finality time is invariant across BPS
// choices, mirroring go-ethereum's params package role of centralizing
// protocol constants away from the consensus logic that uses them.
package params

// BPSConfig bundles the blocks-per-second-derived consensus constants for
// one network profile.
type BPSConfig struct {
	// BlocksPerSecond is the target block rate.
	BlocksPerSecond float64
	// K is the GHOSTDAG mergeset-size security parameter.
	K uint32
	// MaxParents bounds the number of parents a block may reference.
	MaxParents uint32
	// MergesetSizeLimit bounds the number of blocks a single block may
	// merge into the ordered chain.
	MergesetSizeLimit uint64
	// FinalityDepth is the number of blocks past which reorgs are
	// disallowed, expressed as a block count (wall-clock finality time
	// is FinalityDepth / BlocksPerSecond seconds, held constant below).
	FinalityDepth uint64
	// PruningDepth is the number of blocks of history retained before
	// storage may discard a branch permanently.
	PruningDepth uint64
	// CoinbaseMaturity is the number of blocks a coinbase output must
	// wait before it is spendable.
	CoinbaseMaturity uint64
}

// targetFinalitySeconds is the wall-clock finality time every BPS profile
// below is calibrated to preserve.
const targetFinalitySeconds = 3600.0

// NewBPSConfig derives a BPSConfig for the given target block rate. K grows
// with BPS (more blocks per second means a wider anticone is expected at
// the same network-delay bound), and every depth constant is scaled so that
// depth / bps stays equal to targetFinalitySeconds.
func NewBPSConfig(blocksPerSecond float64) BPSConfig {
	if blocksPerSecond <= 0 {
		blocksPerSecond = 1
	}
	k := uint32(18 * blocksPerSecond)
	if k < 1 {
		k = 1
	}
	finality := uint64(targetFinalitySeconds * blocksPerSecond)
	return BPSConfig{
		BlocksPerSecond:   blocksPerSecond,
		K:                 k,
		MaxParents:        10,
		MergesetSizeLimit: uint64(k) * 10,
		FinalityDepth:     finality,
		PruningDepth:      finality * 2,
		CoinbaseMaturity:  uint64(100 * blocksPerSecond),
	}
}

// DefaultBPSConfig is the 1 block/second profile used when an embedder
// does not specify one.
var DefaultBPSConfig = NewBPSConfig(1)

// Reachability tuning constants, fixed by spec.md §4.B regardless of BPS:
const (
	// DefaultReindexDepth is how far ahead of the reindex root the tip
	// must move before the root advances.
	DefaultReindexDepth = 100
	// DefaultReindexSlack bounds how deep a reindex may descend into a
	// subtree to protect against reorg-triggered thrash.
	DefaultReindexSlack = 16384
)

// Scheduled-execution tuning constants, spec.md §4.E / §8:
const (
	// MinCancellationWindow is the minimum number of topoheights an
	// AtTopoheight entry's target must still be in the future for it to
	// remain cancellable.
	MinCancellationWindow = 10
	// MaxDeferCount bounds how many times a pending entry may be
	// deferred before it is force-cancelled/expired.
	MaxDeferCount = 8
	// BurnPercentGas is the percentage of used_gas burned after a
	// contract call (spec.md §4.D).
	BurnPercentGas = 30
	// OfferBurnPercent is the percentage of a scheduled execution's
	// offer_amount burned at registration time (spec.md §4.E).
	OfferBurnPercent = 30
)
