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

// VersionedStateKind discriminates the three cases a VersionedState can be
// in. It is preserved exactly as spec.md §3/§9 requires: collapsing New and
// Updated(0) would lose the "this key never existed before" distinction
// that correct rollback depends on.
type VersionedStateKind uint8

const (
	// StateNew marks a key with no prior version.
	StateNew VersionedStateKind = iota
	// StateUpdated marks a key that supersedes the version last
	// committed at PrevTopoHeight.
	StateUpdated
	// StateUnchanged marks a read-only reference to an existing
	// version; no new version is written.
	StateUnchanged
)

func (k VersionedStateKind) String() string {
	switch k {
	case StateNew:
		return "New"
	case StateUpdated:
		return "Updated"
	case StateUnchanged:
		return "Unchanged"
	default:
		return "Invalid"
	}
}

// VersionedState is the storage tag every mutable quantity carries
// (spec.md §3, §4.A). PrevTopoHeight is only meaningful when Kind ==
// StateUpdated.
type VersionedState struct {
	Kind           VersionedStateKind
	PrevTopoHeight TopoHeight
}

// NewState returns the tag for a key with no prior version.
func NewState() VersionedState { return VersionedState{Kind: StateNew} }

// UpdatedState returns the tag for a key superseding the version last
// committed at prev.
func UpdatedState(prev TopoHeight) VersionedState {
	return VersionedState{Kind: StateUpdated, PrevTopoHeight: prev}
}

// UnchangedState returns the tag for a read-only reference.
func UnchangedState() VersionedState { return VersionedState{Kind: StateUnchanged} }

// IsUpdate reports whether s supersedes a prior version.
func (s VersionedState) IsUpdate() bool { return s.Kind == StateUpdated }
