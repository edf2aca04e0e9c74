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

// Package metrics mirrors the shape of go-ethereum's metrics package:
// named Counters and Gauges held in a process-wide Registry, cheap enough
// to update on every storage write and executor batch without an external
// collector wired in by default.
package metrics

import "sync"

// Counter is a monotonically increasing integer metric.
type Counter interface {
	Inc(delta int64)
	Count() int64
}

// Gauge is an integer metric that can move in either direction.
type Gauge interface {
	Update(value int64)
	Value() int64
}

type counter struct {
	mu int64Atomic
}

type int64Atomic struct {
	mu sync.Mutex
	v  int64
}

func (a *int64Atomic) add(delta int64) {
	a.mu.Lock()
	a.v += delta
	a.mu.Unlock()
}

func (a *int64Atomic) set(v int64) {
	a.mu.Lock()
	a.v = v
	a.mu.Unlock()
}

func (a *int64Atomic) get() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}

func (c *counter) Inc(delta int64) { c.mu.add(delta) }
func (c *counter) Count() int64    { return c.mu.get() }

type gauge struct {
	mu int64Atomic
}

func (g *gauge) Update(value int64) { g.mu.set(value) }
func (g *gauge) Value() int64       { return g.mu.get() }

// Registry holds every named metric registered by a component.
type Registry struct {
	mu       sync.Mutex
	counters map[string]*counter
	gauges   map[string]*gauge
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{counters: make(map[string]*counter), gauges: make(map[string]*gauge)}
}

// GetOrRegisterCounter returns the named Counter, creating it on first use.
func (r *Registry) GetOrRegisterCounter(name string) Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[name]
	if !ok {
		c = &counter{}
		r.counters[name] = c
	}
	return c
}

// GetOrRegisterGauge returns the named Gauge, creating it on first use.
func (r *Registry) GetOrRegisterGauge(name string) Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gauges[name]
	if !ok {
		g = &gauge{}
		r.gauges[name] = g
	}
	return g
}

// Snapshot returns a point-in-time copy of every counter and gauge value,
// keyed by metric name, for export by an embedder's metrics backend.
func (r *Registry) Snapshot() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64, len(r.counters)+len(r.gauges))
	for name, c := range r.counters {
		out[name] = c.Count()
	}
	for name, g := range r.gauges {
		out[name] = g.Value()
	}
	return out
}

// DefaultRegistry is the process-wide registry used by packages that don't
// carry their own explicit Registry reference.
var DefaultRegistry = NewRegistry()
