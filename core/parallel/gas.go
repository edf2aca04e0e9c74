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

package parallel

import "github.com/tos-network/gtos/params"

// GasSettlement is the burn/fee/refund split spec.md §4.D defines for one
// contract invocation's gas usage.
type GasSettlement struct {
	Burned   uint64
	MinerFee uint64
	Refund   uint64
}

// SettleGas computes the split for an invocation that declared maxGas and
// actually spent usedGas.
func SettleGas(maxGas, usedGas uint64) GasSettlement {
	burned := usedGas * params.BurnPercentGas / 100
	return GasSettlement{
		Burned:   burned,
		MinerFee: usedGas - burned,
		Refund:   maxGas - usedGas,
	}
}
