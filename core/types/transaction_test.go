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

// testTx is a minimal Transaction used only by this package's tests.
type testTx struct {
	version TxVersion
	source  PublicKey
	payload Payload
	keys    []AccountKey
}

func (t *testTx) Version() TxVersion        { return t.version }
func (t *testTx) Source() PublicKey         { return t.source }
func (t *testTx) Nonce() uint64             { return 0 }
func (t *testTx) Fee() uint64               { return 0 }
func (t *testTx) Reference() Reference      { return Reference{} }
func (t *testTx) Data() Payload             { return t.payload }
func (t *testTx) AccountKeys() []AccountKey { return t.keys }
func (t *testTx) Signature() []byte         { return nil }
func (t *testTx) Hash() common.Hash         { return common.HashData([]byte("testTx")) }

func pk(b byte) PublicKey { return PublicKey(common.BytesToHash([]byte{b})) }

func TestTouchedAccountsV1Transfer(t *testing.T) {
	tx := &testTx{
		version: TxVersionV1,
		source:  pk(0x01),
		payload: Payload{Kind: PayloadTransfer, Transfers: []Transfer{
			{Destination: pk(0x02), Amount: 10},
		}},
	}
	touched := TouchedAccounts(tx)
	require.Len(t, touched, 2)
	require.Contains(t, touched, pk(0x01))
	require.Contains(t, touched, pk(0x02))
}

func TestTouchedAccountsV1BurnOnlyTouchesSource(t *testing.T) {
	tx := &testTx{version: TxVersionV1, source: pk(0x01), payload: Payload{Kind: PayloadBurn}}
	touched := TouchedAccounts(tx)
	require.Len(t, touched, 1)
	require.Contains(t, touched, pk(0x01))
}

func TestTouchedAccountsV2UsesWritableAccountKeys(t *testing.T) {
	tx := &testTx{
		version: TxVersionV2,
		source:  pk(0x01),
		keys: []AccountKey{
			{PubKey: pk(0x01), IsWritable: true},
			{PubKey: pk(0x02), IsWritable: false},
			{PubKey: pk(0x03), IsWritable: true},
		},
	}
	touched := TouchedAccounts(tx)
	require.Len(t, touched, 2)
	require.Contains(t, touched, pk(0x01))
	require.Contains(t, touched, pk(0x03))
	require.NotContains(t, touched, pk(0x02))
}
