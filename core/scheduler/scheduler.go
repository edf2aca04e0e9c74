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

// Package scheduler implements spec.md §4.E: the priority queue of
// deferred contract calls a contract enqueues with an offer amount, and
// the cancel/defer/expire lifecycle around it.
//
// BlockEnd entries do not get a distinguished queue: a BlockEnd entry is
// registered with its execution topoheight pinned to the topoheight of
// the block being produced, and sorts into the exact same priority
// index as an AtTopoheight entry targeting that same topoheight.
package scheduler

import (
	"errors"
	"sort"

	"github.com/tos-network/gtos/core/types"
	"github.com/tos-network/gtos/event"
	"github.com/tos-network/gtos/log"
	"github.com/tos-network/gtos/metrics"
	"github.com/tos-network/gtos/params"
)

// GasSourceRefund is one line of a pro-rata escrow refund, reported back
// to the caller rather than applied directly: GasSource identifies a
// payer, not necessarily an on-chain account, so crediting a balance is
// the caller's responsibility (spec.md §4.E offer-amount settlement).
type GasSourceRefund struct {
	Source types.GasSource
	Amount uint64
}

// RegistrationReceipt reports the burn/escrow split spec.md §4.E mandates
// at registration time: 30% burned immediately, 70% held in escrow.
type RegistrationReceipt struct {
	Burned  uint64
	Escrow  uint64
	MainKey MainKey
}

// Engine drives the scheduled-execution lifecycle over a Storage.
type Engine struct {
	storage Storage
	log     log.Logger
	metrics *metrics.Registry

	// OutcomeFeed publishes every Outcome Drain produces, so an embedder
	// can react to executions/expirations without polling Drain's return
	// value (e.g. crediting GasSourceRefund lines as they occur).
	OutcomeFeed event.Feed
}

// NewEngine wraps storage.
func NewEngine(storage Storage) *Engine {
	return &Engine{storage: storage, log: log.New("pkg", "scheduler"), metrics: metrics.DefaultRegistry}
}

// executionTopo returns the topoheight an entry's kind resolves to: its
// explicit target for AtTopoheight, or currentTopo (the block being
// produced) for BlockEnd.
func executionTopo(kind types.ScheduledExecutionKind, currentTopo types.TopoHeight) types.TopoHeight {
	if kind.IsBlockEnd {
		return currentTopo
	}
	return kind.AtTopoheight
}

// Register admits a new Pending entry, computing its identity hash,
// inserting it into all three indexes, and burning OfferBurnPercent of
// its offer_amount (spec.md §4.E). The caller is responsible for
// crediting the burned amount to the global burned-coins counter and for
// debiting the full offer_amount from whatever account funded it.
func (e *Engine) Register(se *types.ScheduledExecution, currentTopo types.TopoHeight) (RegistrationReceipt, error) {
	se.Status = types.StatusPending
	se.DeferCount = 0

	key := MainKey{Contract: se.ContractHash, ExecutionTopo: executionTopo(se.Kind, currentTopo)}

	if err := e.storage.SetMain(key, se); err != nil {
		return RegistrationReceipt{}, err
	}
	if err := e.storage.AddRegistration(se.RegistrationTopoHeight, key); err != nil {
		return RegistrationReceipt{}, err
	}
	if err := e.storage.AddPriority(key.ExecutionTopo, key); err != nil {
		return RegistrationReceipt{}, err
	}

	burned := se.OfferAmount * uint64(params.OfferBurnPercent) / 100
	escrow := se.OfferAmount - burned
	e.log.Debug("scheduled execution registered", "contract", se.ContractHash, "execution_topo", key.ExecutionTopo, "burned", burned, "escrow", escrow)
	e.metrics.GetOrRegisterCounter("scheduler/registrations").Inc(1)
	return RegistrationReceipt{Burned: burned, Escrow: escrow, MainKey: key}, nil
}

// escrowOf returns the held-back 70% of an entry's offer amount.
func escrowOf(se *types.ScheduledExecution) uint64 {
	burned := se.OfferAmount * uint64(params.OfferBurnPercent) / 100
	return se.OfferAmount - burned
}

// proRataRefunds splits escrow across se.GasSources proportionally to
// each source's contributed amount, largest-remainder so the parts sum
// exactly to escrow.
func proRataRefunds(se *types.ScheduledExecution, escrow uint64) []GasSourceRefund {
	if len(se.GasSources) == 0 {
		return nil
	}
	total := uint64(0)
	for _, g := range se.GasSources {
		total += g.Amount
	}
	if total == 0 {
		return nil
	}

	out := make([]GasSourceRefund, len(se.GasSources))
	assigned := uint64(0)
	type remainder struct {
		idx int
		rem uint64
	}
	rems := make([]remainder, len(se.GasSources))
	for i, g := range se.GasSources {
		share := escrow * g.Amount / total
		out[i] = GasSourceRefund{Source: g.Source, Amount: share}
		assigned += share
		rems[i] = remainder{idx: i, rem: (escrow * g.Amount) % total}
	}
	sort.Slice(rems, func(i, j int) bool { return rems[i].rem > rems[j].rem })
	under := escrow - assigned
	for i := 0; i < len(rems) && under > 0; i++ {
		out[rems[i].idx].Amount++
		under--
	}
	return out
}

// ErrNotCancellable is returned when Cancel is called on an entry whose
// kind or remaining window forbids cancellation (spec.md §4.E).
var ErrNotCancellable = errors.New("scheduler: entry is not cancellable")

// Cancel transitions a Pending entry to Cancelled, refunding its escrow
// pro-rata across gas_sources. BlockEnd entries are never cancellable.
// AtTopoheight entries are only cancellable while their target is more
// than MinCancellationWindow topoheights in the future.
func (e *Engine) Cancel(key MainKey, currentTopo types.TopoHeight) ([]GasSourceRefund, error) {
	se, err := e.storage.GetMain(key)
	if err != nil {
		return nil, err
	}
	if se.Status != types.StatusPending {
		return nil, ErrNotCancellable
	}
	if se.Kind.IsBlockEnd {
		return nil, ErrNotCancellable
	}
	if se.Kind.AtTopoheight <= currentTopo+params.MinCancellationWindow {
		return nil, ErrNotCancellable
	}

	se.Status = types.StatusCancelled
	if err := e.storage.SetMain(key, se); err != nil {
		return nil, err
	}
	if err := e.storage.RemovePriority(key.ExecutionTopo, key); err != nil {
		return nil, err
	}

	refunds := proRataRefunds(se, escrowOf(se))
	e.log.Debug("scheduled execution cancelled", "contract", se.ContractHash, "execution_topo", key.ExecutionTopo)
	e.metrics.GetOrRegisterCounter("scheduler/cancellations").Inc(1)
	return refunds, nil
}

// Outcome reports what Drain did with one entry.
type Outcome struct {
	Key       MainKey
	Executed  bool
	Deferred  bool
	Expired   bool
	MinerFee  uint64            // 70% escrow paid to the miner, only set when Executed.
	Refunds   []GasSourceRefund // only set when Expired.
}

// Invoker runs one scheduled entry's contract call, returning nil on
// success. A non-nil error means the call could not be performed this
// block (e.g. no execution capacity remained) and the entry should be
// deferred rather than marked failed — spec.md §4.E only distinguishes
// Executed from Deferred/Expired, never a failed-but-consumed state (a
// failing invocation's own exit code/gas settlement is handled by
// core/parallel, not here).
type Invoker func(se *types.ScheduledExecution) error

// Drain executes up to capacity Pending entries targeting topo, in
// priority order (offer_amount desc, registration_topo asc, hash asc),
// invoking invoke for each. Entries beyond capacity, or for which invoke
// returns an error, are deferred; an entry deferred MaxDeferCount times
// is Expired and its escrow refunded pro-rata (spec.md §4.E).
func (e *Engine) Drain(topo types.TopoHeight, capacity int, invoke Invoker) ([]Outcome, error) {
	ordered, err := e.orderedPending(topo)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(ordered))
	for i, key := range ordered {
		se, err := e.storage.GetMain(key)
		if err != nil {
			return nil, err
		}

		if i >= capacity {
			outcomes = append(outcomes, e.sendOutcome(e.defer_(key, se)))
			continue
		}

		if err := invoke(se); err != nil {
			outcomes = append(outcomes, e.sendOutcome(e.defer_(key, se)))
			continue
		}

		se.Status = types.StatusExecuted
		if err := e.storage.SetMain(key, se); err != nil {
			return nil, err
		}
		if err := e.storage.RemovePriority(topo, key); err != nil {
			return nil, err
		}
		e.metrics.GetOrRegisterCounter("scheduler/executions").Inc(1)
		outcomes = append(outcomes, e.sendOutcome(Outcome{Key: key, Executed: true, MinerFee: escrowOf(se)}))
	}
	return outcomes, nil
}

// sendOutcome publishes outcome on OutcomeFeed before returning it, so
// Drain's callers and subscribers observe the exact same value.
func (e *Engine) sendOutcome(outcome Outcome) Outcome {
	e.OutcomeFeed.Send(outcome)
	return outcome
}

// defer_ applies one deferral to se, expiring it once MaxDeferCount is
// exceeded. Named with a trailing underscore because "defer" is a
// keyword.
func (e *Engine) defer_(key MainKey, se *types.ScheduledExecution) Outcome {
	se.DeferCount++
	if se.DeferCount > params.MaxDeferCount {
		se.Status = types.StatusExpired
		_ = e.storage.SetMain(key, se)
		_ = e.storage.RemovePriority(key.ExecutionTopo, key)
		e.metrics.GetOrRegisterCounter("scheduler/expirations").Inc(1)
		return Outcome{Key: key, Expired: true, Refunds: proRataRefunds(se, escrowOf(se))}
	}
	_ = e.storage.SetMain(key, se)
	return Outcome{Key: key, Deferred: true}
}

// orderedPending returns topo's Pending entries in priority order.
func (e *Engine) orderedPending(topo types.TopoHeight) ([]MainKey, error) {
	keys, err := e.storage.ListPriority(topo)
	if err != nil {
		return nil, err
	}
	type entry struct {
		key MainKey
		se  *types.ScheduledExecution
	}
	entries := make([]entry, 0, len(keys))
	for _, k := range keys {
		se, err := e.storage.GetMain(k)
		if err != nil {
			return nil, err
		}
		if se.Status != types.StatusPending {
			continue
		}
		entries = append(entries, entry{key: k, se: se})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].se, entries[j].se
		if a.OfferAmount != b.OfferAmount {
			return a.OfferAmount > b.OfferAmount
		}
		if a.RegistrationTopoHeight != b.RegistrationTopoHeight {
			return a.RegistrationTopoHeight < b.RegistrationTopoHeight
		}
		ah, bh := a.Hash(), b.Hash()
		return string(ah[:]) < string(bh[:])
	})
	out := make([]MainKey, len(entries))
	for i, en := range entries {
		out[i] = en.key
	}
	return out, nil
}

// DeleteAtTopoheight rolls back exactly the registrations made at
// registrationTopo, removing each from the main and priority indexes as
// well (spec.md §4.E rollback operations).
func (e *Engine) DeleteAtTopoheight(registrationTopo types.TopoHeight) error {
	var keys []MainKey
	err := e.storage.ForEachRegistration(registrationTopo, func(key MainKey) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := e.storage.RemovePriority(key.ExecutionTopo, key); err != nil {
			return err
		}
		if err := e.storage.DeleteMain(key); err != nil {
			return err
		}
		if err := e.storage.RemoveRegistration(registrationTopo, key); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAboveTopoheight rolls back every registration made strictly
// after topo, e.g. when a reorg prunes a branch (spec.md §4.E, §4.A).
func (e *Engine) DeleteAboveTopoheight(topo types.TopoHeight, maxRegistrationTopo types.TopoHeight) error {
	for t := topo + 1; t <= maxRegistrationTopo; t++ {
		if err := e.DeleteAtTopoheight(t); err != nil {
			return err
		}
	}
	return nil
}

// DeleteBelowTopoheight rolls back every registration made strictly
// before topo, e.g. when pruning history the chain can never reorg
// past (spec.md §4.E rollback operations).
func (e *Engine) DeleteBelowTopoheight(topo types.TopoHeight, minRegistrationTopo types.TopoHeight) error {
	if topo == 0 {
		return nil
	}
	for t := minRegistrationTopo; t < topo; t++ {
		if err := e.DeleteAtTopoheight(t); err != nil {
			return err
		}
	}
	return nil
}
