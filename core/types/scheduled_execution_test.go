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

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tos-network/gtos/common"
)

func TestScheduledExecutionHashDeterministic(t *testing.T) {
	se := &ScheduledExecution{
		ContractHash:           common.HashData([]byte("contract")),
		Kind:                   ScheduledExecutionKind{AtTopoheight: 100},
		RegistrationTopoHeight: 50,
	}
	h1 := se.Hash()
	h2 := se.Hash()
	require.Equal(t, h1, h2)

	other := *se
	other.RegistrationTopoHeight = 51
	require.NotEqual(t, h1, other.Hash())
}

func TestScheduledExecutionEqualityByHashOnly(t *testing.T) {
	a := &ScheduledExecution{
		ContractHash:           common.HashData([]byte("c")),
		Kind:                   ScheduledExecutionKind{AtTopoheight: 10},
		RegistrationTopoHeight: 1,
		OfferAmount:            500,
	}
	b := &ScheduledExecution{
		ContractHash:           a.ContractHash,
		Kind:                   a.Kind,
		RegistrationTopoHeight: a.RegistrationTopoHeight,
		OfferAmount:            999, // differs, but Hash ignores it
	}
	require.True(t, a.Equal(b), "equality is defined by Hash, not full field equality")
}

func TestScheduledExecutionKindTagDistinguishesAtTopoheightFromBlockEnd(t *testing.T) {
	atTopo := &ScheduledExecution{
		ContractHash:           common.HashData([]byte("c")),
		Kind:                   ScheduledExecutionKind{AtTopoheight: 0},
		RegistrationTopoHeight: 1,
	}
	blockEnd := &ScheduledExecution{
		ContractHash:           atTopo.ContractHash,
		Kind:                   ScheduledExecutionKind{IsBlockEnd: true},
		RegistrationTopoHeight: 1,
	}
	require.NotEqual(t, atTopo.Hash(), blockEnd.Hash())
	require.Equal(t, ScheduledExecutionKindTag(0x00), atTopo.Kind.Tag())
	require.Equal(t, ScheduledExecutionKindTag(0x01), blockEnd.Kind.Tag())
}
