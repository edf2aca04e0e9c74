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

// AccountBalanceKey addresses one account's balance of one asset within an
// AccountCache.
type AccountBalanceKey struct {
	Account PublicKey
	Asset   Asset
}

// AccountCache is the per-tx scratch for account-level quantities (nonce,
// per-asset balance) that sit outside any single contract's storage — the
// "per-account cache" half of the scratch pair spec.md §4.D describes,
// complementing ContractCache.
type AccountCache struct {
	nonces   map[PublicKey]uint64
	balances map[AccountBalanceKey]BalanceValue
}

// NewAccountCache returns an empty AccountCache.
func NewAccountCache() *AccountCache {
	return &AccountCache{
		nonces:   make(map[PublicKey]uint64),
		balances: make(map[AccountBalanceKey]BalanceValue),
	}
}

// SetNonce records account's new nonce in scratch.
func (c *AccountCache) SetNonce(account PublicKey, nonce uint64) {
	c.nonces[account] = nonce
}

// GetNonce returns account's scratch nonce, if written.
func (c *AccountCache) GetNonce(account PublicKey) (uint64, bool) {
	n, ok := c.nonces[account]
	return n, ok
}

// SetBalance records account's new balance of asset in scratch.
func (c *AccountCache) SetBalance(account PublicKey, asset Asset, balance uint64, state VersionedState) {
	c.balances[AccountBalanceKey{account, asset}] = BalanceValue{State: state, Balance: balance}
}

// GetBalance returns account's scratch balance of asset, if written.
func (c *AccountCache) GetBalance(account PublicKey, asset Asset) (uint64, bool) {
	v, ok := c.balances[AccountBalanceKey{account, asset}]
	return v.Balance, ok
}

// AddBalance adjusts account's scratch balance of asset by delta (which may
// be negative), reading through base via baseBalance when the account has
// no scratch entry yet.
func (c *AccountCache) AddBalance(account PublicKey, asset Asset, baseBalance uint64, prevTopo *TopoHeight, delta int64) uint64 {
	cur, ok := c.GetBalance(account, asset)
	if !ok {
		cur = baseBalance
	}
	next := int64(cur) + delta
	if next < 0 {
		next = 0
	}
	state := NewState()
	if prevTopo != nil {
		state = UpdatedState(*prevTopo)
	}
	c.SetBalance(account, asset, uint64(next), state)
	return uint64(next)
}

// NonceWrites returns every account nonce this scratch touched.
func (c *AccountCache) NonceWrites() map[PublicKey]uint64 { return c.nonces }

// BalanceWrites returns every (account, asset) balance this scratch
// touched.
func (c *AccountCache) BalanceWrites() map[AccountBalanceKey]BalanceValue { return c.balances }
