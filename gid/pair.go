// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gid

// pairWireSize is the exact number of bytes one Pair occupies in a
// SerializeArchive: two Ids of (int32 rank, uint64 local) each.
const pairWireSize = 2 * (4 + 8)

// Pair links two global ids; what each side names depends on the
// caller. RankConnectivity.MigrationBoundary sends Src = the sender's
// current id, Dest = the id it expects the peer to hold for the same
// node; RankConnectivity.TransferUpdatedIds sends Src = a former id,
// Dest = the new id it was renumbered to (spec.md §4.A).
type Pair struct {
	Src  Id // current id (migration) or former id (id update)
	Dest Id // peer-expected id (migration) or new id (id update)
}

// NewPair builds a Pair from rank/local components.
func NewPair(srcRank int, srcLocal uint64, destRank int, destLocal uint64) Pair {
	return Pair{Src: New(srcRank, srcLocal), Dest: New(destRank, destLocal)}
}

// EqualsSrc reports whether (rank, local) names the Src side.
func (p Pair) EqualsSrc(rank int, local uint64) bool { return p.Src.Equals(rank, local) }

// EqualsDest reports whether (rank, local) names the Dest side.
func (p Pair) EqualsDest(rank int, local uint64) bool { return p.Dest.Equals(rank, local) }

// Match reports whether (rank, local) names either side of the pair.
func (p Pair) Match(rank int, local uint64) bool {
	return p.EqualsSrc(rank, local) || p.EqualsDest(rank, local)
}

// Reciprocal reports whether p and other describe the same connectivity
// from opposite ends: p.Src == other.Dest and p.Dest == other.Src.
func (p Pair) Reciprocal(other Pair) bool {
	return p.Src.Equals(other.Dest.Rank, other.Dest.Local) &&
		p.Dest.Equals(other.Src.Rank, other.Src.Local)
}

// PairList is a GlobalRankIdPairList: an ordinary slice, since migration
// rounds build and consume these per-peer without needing binary search.
type PairList []Pair

// CommSize returns the exact number of bytes this list occupies when
// serialized, so an MPI buffer can be sized without a dry run.
func (pl PairList) CommSize() int {
	return len(pl) * pairWireSize
}

// Add appends a pair.
func (pl *PairList) Add(p Pair) { *pl = append(*pl, p) }

// FindBySrc returns the first pair whose Src matches (rank, local).
func (pl PairList) FindBySrc(rank int, local uint64) (Pair, bool) {
	for _, p := range pl {
		if p.EqualsSrc(rank, local) {
			return p, true
		}
	}
	return Pair{}, false
}

// FindByDest returns the first pair whose Dest matches (rank, local).
func (pl PairList) FindByDest(rank int, local uint64) (Pair, bool) {
	for _, p := range pl {
		if p.EqualsDest(rank, local) {
			return p, true
		}
	}
	return Pair{}, false
}
