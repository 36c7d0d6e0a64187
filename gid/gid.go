// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gid implements global (rank, local-id) identity: Module A of
// the mesh design. A GlobalRankId pairs the owning rank with the local id
// an entity carries on that rank; ordered lists of these pairs back the
// mpi-rank list of a boundary node, the previous-rank history of an
// entity, and the migration id maps exchanged during repartitioning.
package gid

import "sort"

// Id is a (rank, local-id) global identity, optionally carrying a
// reference back to the entity it names (used by RankConnectivity's
// search table; nil everywhere else).
type Id struct {
	Rank    int         // owner rank (0-based)
	Local   uint64      // local id on that rank (1-based)
	Ref     interface{} // optional back-reference to the owning entity
}

// New returns an Id with no back-reference.
func New(rank int, local uint64) Id {
	return Id{Rank: rank, Local: local}
}

// Equals reports whether id names the same (rank, local-id) pair.
func (id Id) Equals(rank int, local uint64) bool {
	return id.Rank == rank && id.Local == local
}

// Compare orders Ids lexicographically on (Rank, Local): negative if id <
// other, zero if equal, positive if id > other.
func (id Id) Compare(other Id) int {
	if id.Rank != other.Rank {
		return id.Rank - other.Rank
	}
	if id.Local < other.Local {
		return -1
	}
	if id.Local > other.Local {
		return 1
	}
	return 0
}

// Less reports id < other under the (Rank, Local) lexicographic order.
func (id Id) Less(other Id) bool { return id.Compare(other) < 0 }

// List is a GlobalRankIdList: a slice of Id kept sorted by (Rank, Local)
// so add/exists/find can use binary search.
type List struct {
	items []Id
}

// NewList returns an empty, sorted List.
func NewList() *List { return &List{} }

// Len returns the number of entries.
func (l *List) Len() int { return len(l.items) }

// At returns the i-th entry in sorted order.
func (l *List) At(i int) Id { return l.items[i] }

// Items returns the underlying sorted slice (read-only use expected).
func (l *List) Items() []Id { return l.items }

// search performs a binary search with the id-offset shortcut described
// in spec.md §4.A: if the searched local id falls within the span covered
// by [items[0].Local, items[0].Local+len(items)), a direct index is tried
// first before falling back to ordinary binary search. It returns the
// index of a matching entry and true, or the insertion point and false.
func (l *List) search(rank int, local uint64) (idx int, found bool) {
	n := len(l.items)
	if n == 0 {
		return 0, false
	}

	// id-offset shortcut: only meaningful when all entries share `rank`,
	// which is the common case for a single-peer mpi-rank sub-list; the
	// direct probe is safe in general because it is verified before use.
	first := l.items[0]
	if rank == first.Rank && local >= first.Local {
		offset := local - first.Local
		if offset < uint64(n) {
			if l.items[offset].Equals(rank, local) {
				return int(offset), true
			}
		}
	}

	target := Id{Rank: rank, Local: local}
	i := sort.Search(n, func(i int) bool {
		return l.items[i].Compare(target) >= 0
	})
	if i < n && l.items[i].Equals(rank, local) {
		return i, true
	}
	return i, false
}

// Find returns the Id matching (rank, local) and true, or the zero Id and
// false if no such entry exists.
func (l *List) Find(rank int, local uint64) (Id, bool) {
	i, ok := l.search(rank, local)
	if !ok {
		return Id{}, false
	}
	return l.items[i], true
}

// Exists reports whether (rank, local) is present.
func (l *List) Exists(rank int, local uint64) bool {
	_, ok := l.search(rank, local)
	return ok
}

// Add inserts (rank, local[, ref]) in sorted position. Reinserting an
// existing id is a no-op that returns false (mirrors the C++ API
// returning an error code rather than throwing).
func (l *List) Add(rank int, local uint64, ref ...interface{}) bool {
	idx, found := l.search(rank, local)
	if found {
		return false
	}
	id := Id{Rank: rank, Local: local}
	if len(ref) > 0 {
		id.Ref = ref[0]
	}
	l.items = append(l.items, Id{})
	copy(l.items[idx+1:], l.items[idx:])
	l.items[idx] = id
	return true
}

// Remove deletes the entry matching (rank, local), if present.
func (l *List) Remove(rank int, local uint64) bool {
	idx, found := l.search(rank, local)
	if !found {
		return false
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	return true
}

// EraseInvalid removes every entry with Rank < 0, Local == 0, or Rank ==
// selfRank (self-references), per spec.md's eraseInvalidGlobalRankids.
func (l *List) EraseInvalid(selfRank int) {
	out := l.items[:0]
	for _, id := range l.items {
		if id.Rank < 0 || id.Local == 0 || id.Rank == selfRank {
			continue
		}
		out = append(out, id)
	}
	l.items = out
}

// Update moves the entry at (oldRank, oldLocal) to (newRank, newLocal).
// If the new id already exists, the old entry is simply removed (never
// duplicated), matching UdmGlobalRankid::updateGlobalRankid semantics.
func (l *List) Update(oldRank int, oldLocal uint64, newRank int, newLocal uint64) bool {
	_, found := l.search(oldRank, oldLocal)
	if !found {
		return false
	}
	var ref interface{}
	if id, ok := l.Find(oldRank, oldLocal); ok {
		ref = id.Ref
	}
	l.Remove(oldRank, oldLocal)
	if l.Exists(newRank, newLocal) {
		return true
	}
	l.Add(newRank, newLocal, ref)
	return true
}

// Clear empties the list.
func (l *List) Clear() { l.items = nil }

// Clone returns a deep copy (Ref pointers are copied, not the referents).
func (l *List) Clone() *List {
	out := &List{items: make([]Id, len(l.items))}
	copy(out.items, l.items)
	return out
}
