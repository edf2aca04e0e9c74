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

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tos-network/gtos/common"
	"github.com/tos-network/gtos/core/types"
	"github.com/tos-network/gtos/params"
)

func contract(b byte) common.Hash { return common.BytesToHash([]byte{b}) }

func newEntry(c common.Hash, offer uint64, regTopo, execTopo types.TopoHeight) *types.ScheduledExecution {
	return &types.ScheduledExecution{
		ContractHash:           c,
		MaxGas:                 1000,
		Kind:                   types.ScheduledExecutionKind{AtTopoheight: execTopo},
		OfferAmount:            offer,
		RegistrationTopoHeight: regTopo,
	}
}

func TestRegisterSplitsBurnAndEscrow(t *testing.T) {
	e := NewEngine(NewMemStorage())
	se := newEntry(contract(1), 1000, 0, 100)

	receipt, err := e.Register(se, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(300), receipt.Burned)
	require.Equal(t, uint64(700), receipt.Escrow)
	require.Equal(t, types.StatusPending, se.Status)
}

func TestDrainOrdersByOfferAmount(t *testing.T) {
	e := NewEngine(NewMemStorage())

	low, _ := e.Register(newEntry(contract(1), 100, 5, 50), 0)
	high, _ := e.Register(newEntry(contract(2), 900, 10, 50), 0)
	mid, _ := e.Register(newEntry(contract(3), 500, 1, 50), 0)

	var order []MainKey
	outcomes, err := e.Drain(50, 10, func(se *types.ScheduledExecution) error {
		order = append(order, MainKey{Contract: se.ContractHash, ExecutionTopo: 50})
		return nil
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	require.Equal(t, []MainKey{high.MainKey, mid.MainKey, low.MainKey}, order)
	for _, o := range outcomes {
		require.True(t, o.Executed)
		require.Greater(t, o.MinerFee, uint64(0))
	}
}

func TestDrainCapacityDefersOverflow(t *testing.T) {
	e := NewEngine(NewMemStorage())
	a, _ := e.Register(newEntry(contract(1), 900, 0, 10), 0)
	b, _ := e.Register(newEntry(contract(2), 100, 0, 10), 0)

	var invoked []MainKey
	outcomes, err := e.Drain(10, 1, func(se *types.ScheduledExecution) error {
		invoked = append(invoked, MainKey{Contract: se.ContractHash, ExecutionTopo: 10})
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []MainKey{a.MainKey}, invoked)

	var executed, deferred int
	for _, o := range outcomes {
		if o.Executed {
			executed++
		}
		if o.Deferred {
			deferred++
		}
	}
	require.Equal(t, 1, executed)
	require.Equal(t, 1, deferred)

	deferredEntry, err := e.storage.GetMain(b.MainKey)
	require.NoError(t, err)
	require.Equal(t, uint8(1), deferredEntry.DeferCount)
	require.Equal(t, types.StatusPending, deferredEntry.Status)
}

func TestDrainExpiresAfterMaxDeferCount(t *testing.T) {
	e := NewEngine(NewMemStorage())
	se := newEntry(contract(1), 1000, 0, 10)
	se.GasSources = []types.GasSourceAmount{
		{Source: types.GasSource("alice"), Amount: 3},
		{Source: types.GasSource("bob"), Amount: 1},
	}
	key, err := e.Register(se, 0)
	require.NoError(t, err)

	neverInvoked := func(*types.ScheduledExecution) error {
		t.Fatal("capacity 0 should defer without invoking")
		return nil
	}

	var last []Outcome
	for i := 0; i <= params.MaxDeferCount; i++ {
		last, err = e.Drain(10, 0, neverInvoked)
		require.NoError(t, err)
	}
	require.Len(t, last, 1)
	require.True(t, last[0].Expired)
	require.Equal(t, key.MainKey, last[0].Key)

	total := uint64(0)
	for _, r := range last[0].Refunds {
		total += r.Amount
	}
	require.Equal(t, escrowOf(se), total)
}

func TestCancelRefusesWithinCancellationWindow(t *testing.T) {
	e := NewEngine(NewMemStorage())
	se := newEntry(contract(1), 1000, 0, 105)
	key, err := e.Register(se, 0)
	require.NoError(t, err)

	_, err = e.Cancel(key.MainKey, 100)
	require.ErrorIs(t, err, ErrNotCancellable)
}

func TestCancelRefundsEscrowProRata(t *testing.T) {
	e := NewEngine(NewMemStorage())
	se := newEntry(contract(1), 1000, 0, 200)
	se.GasSources = []types.GasSourceAmount{
		{Source: types.GasSource("alice"), Amount: 3},
		{Source: types.GasSource("bob"), Amount: 1},
	}
	key, err := e.Register(se, 0)
	require.NoError(t, err)

	refunds, err := e.Cancel(key.MainKey, 100)
	require.NoError(t, err)

	total := uint64(0)
	for _, r := range refunds {
		total += r.Amount
	}
	require.Equal(t, escrowOf(se), total)

	cancelled, err := e.storage.GetMain(key.MainKey)
	require.NoError(t, err)
	require.Equal(t, types.StatusCancelled, cancelled.Status)
}

func TestDrainPublishesOutcomesOnFeed(t *testing.T) {
	e := NewEngine(NewMemStorage())
	key, err := e.Register(newEntry(contract(1), 1000, 0, 10), 0)
	require.NoError(t, err)

	ch := make(chan Outcome, 4)
	sub := e.OutcomeFeed.Subscribe(ch)
	defer sub.Unsubscribe()

	_, err = e.Drain(10, 1, func(*types.ScheduledExecution) error { return nil })
	require.NoError(t, err)

	select {
	case got := <-ch:
		require.True(t, got.Executed)
		require.Equal(t, key.MainKey, got.Key)
	default:
		t.Fatal("expected an Outcome on e.OutcomeFeed")
	}
}

func TestDeleteAtTopoheightRemovesAllIndexEntries(t *testing.T) {
	e := NewEngine(NewMemStorage())
	key, err := e.Register(newEntry(contract(1), 100, 7, 50), 0)
	require.NoError(t, err)

	require.NoError(t, e.DeleteAtTopoheight(7))

	_, err = e.storage.GetMain(key.MainKey)
	require.ErrorIs(t, err, types.ErrScheduledExecutionNotFound)

	listed, err := e.storage.ListPriority(50)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestDeleteBelowTopoheightPrunesOlderRegistrationsOnly(t *testing.T) {
	e := NewEngine(NewMemStorage())
	old, err := e.Register(newEntry(contract(1), 100, 3, 30), 0)
	require.NoError(t, err)
	recent, err := e.Register(newEntry(contract(2), 100, 9, 90), 0)
	require.NoError(t, err)

	require.NoError(t, e.DeleteBelowTopoheight(9, 0))

	_, err = e.storage.GetMain(old.MainKey)
	require.ErrorIs(t, err, types.ErrScheduledExecutionNotFound)

	kept, err := e.storage.GetMain(recent.MainKey)
	require.NoError(t, err)
	require.Equal(t, types.StatusPending, kept.Status)
}
