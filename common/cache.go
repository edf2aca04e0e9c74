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

package common

import (
	lru "github.com/hashicorp/golang-lru"
)

// HashCache is a fixed-capacity LRU cache keyed by Hash, used by
// consensusdag to avoid re-fetching hot block headers on every
// tip-selection or best-tip query.
type HashCache struct {
	lru *lru.Cache
}

// NewHashCache creates a HashCache able to hold up to size entries.
func NewHashCache(size int) *HashCache {
	c, err := lru.New(size)
	if err != nil {
		// Only returned by golang-lru when size <= 0; callers pass constants.
		panic(err)
	}
	return &HashCache{lru: c}
}

// Add inserts or updates the value for key, possibly evicting the least
// recently used entry.
func (c *HashCache) Add(key Hash, value interface{}) (evicted bool) {
	return c.lru.Add(key, value)
}

// Get returns the cached value for key, if present.
func (c *HashCache) Get(key Hash) (value interface{}, ok bool) {
	return c.lru.Get(key)
}

// Remove evicts key from the cache, if present.
func (c *HashCache) Remove(key Hash) {
	c.lru.Remove(key)
}

// Purge drops every cached entry.
func (c *HashCache) Purge() {
	c.lru.Purge()
}

// Len returns the number of entries currently cached.
func (c *HashCache) Len() int {
	return c.lru.Len()
}
