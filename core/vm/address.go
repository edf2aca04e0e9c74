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

package vm

import (
	"github.com/tos-network/gtos/common"
	"github.com/tos-network/gtos/core/types"
)

// deployTag is the domain-separation prefix spec.md §6 fixes for contract
// address derivation, the same role 0xff plays in CREATE2.
const deployTag = 0xff

// DeriveContractAddress computes the deterministic address a deployment by
// deployer of bytecode gets (spec.md §6):
//
//	address = BLAKE3(0xff || deployer_pubkey_32 || BLAKE3(bytecode))
func DeriveContractAddress(deployer types.PublicKey, bytecode []byte) common.Hash {
	codeHash := common.HashData(bytecode)
	return common.HashData([]byte{deployTag}, deployer[:], codeHash.Bytes())
}
