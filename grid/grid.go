// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package grid implements Module G: GridCoordinates, the exclusive owner
// of a Zone's actual and virtual node arrays.
package grid

import (
	"sort"

	"github.com/avr-aics-riken/udm/entity"
	"github.com/avr-aics-riken/udm/node"
)

// BoundaryRegistrar is the callback GridCoordinates uses to hand a
// newly-inserted boundary node (non-empty mpi-rank list) to the zone's
// RankConnectivity, without importing package rankconn (which, via
// Zone, sits above grid in the dependency order of spec.md §3's
// ownership tree).
type BoundaryRegistrar interface {
	RegisterBoundaryNode(n *node.Node)
}

// GridCoordinates owns two node sequences: actual_nodes (locally owned)
// and virtual_nodes (halo copies of neighbor-owned nodes), per
// spec.md §4.G.
type GridCoordinates struct {
	myRank int
	maxId  uint64

	actual  []*node.Node // sorted by id, contiguous 1..N after rebuildNodes
	virtual []*node.Node // sorted by (rank,id)

	// Registrar is set by the owning Zone so InsertNode can route
	// boundary candidates to RankConnectivity.
	Registrar BoundaryRegistrar

	// Catalog is set by the owning Zone so every inserted node validates
	// its solution Set/Get against the zone's FlowSolutions declarations
	// (spec.md §4.C).
	Catalog *entity.FlowSolutions
}

// New returns an empty GridCoordinates owned by myRank.
func New(myRank int) *GridCoordinates {
	return &GridCoordinates{myRank: myRank}
}

// MyRank returns the rank this GridCoordinates belongs to.
func (g *GridCoordinates) MyRank() int { return g.myRank }

// NumActualNodes returns |actual_nodes|.
func (g *GridCoordinates) NumActualNodes() int { return len(g.actual) }

// NumVirtualNodes returns |virtual_nodes|.
func (g *GridCoordinates) NumVirtualNodes() int { return len(g.virtual) }

// ActualNodes returns the actual-node slice (read access; callers must
// not mutate the slice header).
func (g *GridCoordinates) ActualNodes() []*node.Node { return g.actual }

// VirtualNodes returns the virtual-node slice.
func (g *GridCoordinates) VirtualNodes() []*node.Node { return g.virtual }

// ActualNodeAt returns the node with 1-based local id id (direct index).
func (g *GridCoordinates) ActualNodeAt(id uint64) *node.Node {
	if id < 1 || int(id) > len(g.actual) {
		return nil
	}
	return g.actual[id-1]
}

// VirtualNodeAt returns the virtual node at 1-based combined node id
// id, i.e. id in |actual_nodes|+1..|actual_nodes|+|virtual_nodes|
// (spec.md §4.G, §8 invariant 5). This is a position in
// RebuildVirtualNodes' sorted order, not the node's own persistent
// (rank,id) — mirroring the original implementation's getNodeById /
// getVirtualNodeById(node_id - actual_count) combined indexing, which
// never renumbers a virtual node's own getId().
func (g *GridCoordinates) VirtualNodeAt(id uint64) *node.Node {
	local := int(id) - len(g.actual)
	if local < 1 || local > len(g.virtual) {
		return nil
	}
	return g.virtual[local-1]
}

// InsertNode appends n to actual_nodes, assigning the next monotone id,
// setting its owner rank to myRank, and — if n already carries a
// non-empty mpi-rank list — forwarding it to the Registrar as a
// boundary-node candidate (spec.md §4.G).
func (g *GridCoordinates) InsertNode(n *node.Node) uint64 {
	g.maxId++
	n.SetId(g.maxId)
	n.SetMyRankno(g.myRank)
	n.SetRealityType(entity.Actual)
	n.Catalog = g.Catalog
	g.actual = append(g.actual, n)
	if n.MpiRankInfos().Len() > 0 && g.Registrar != nil {
		g.Registrar.RegisterBoundaryNode(n)
	}
	return g.maxId
}

// InsertVirtualNode inserts n into virtual_nodes at its sorted position
// by (rank,id), keeping the sequence ordered. The node's rank/id are
// left untouched — a virtual node retains the owner rank's id
// (spec.md §4.G: "does not renumber").
func (g *GridCoordinates) InsertVirtualNode(n *node.Node) {
	n.SetRealityType(entity.Virtual)
	n.Catalog = g.Catalog
	rank, id := n.GetMyRankno(), n.GetId()
	idx := sort.Search(len(g.virtual), func(i int) bool {
		vr, vid := g.virtual[i].GetMyRankno(), g.virtual[i].GetId()
		return vr > rank || (vr == rank && vid >= id)
	})
	g.virtual = append(g.virtual, nil)
	copy(g.virtual[idx+1:], g.virtual[idx:])
	g.virtual[idx] = n
}

// globalIdentified is the minimal (rank,id) view globalIdLess compares
// against; both *node.Node and *nodeShim satisfy it.
type globalIdentified interface {
	GetMyRankno() int
	GetId() uint64
}

func globalIdLess(rank int, id uint64, n globalIdentified) bool {
	nr, nid := n.GetMyRankno(), n.GetId()
	return rank < nr || (rank == nr && id < nid)
}

// SetGridCoordinatesArray clears both node arrays and installs N fresh
// actual nodes from parallel x/y/z slices, each receiving id = 1..N and
// a previous-rank entry equal to (srcRank, its own new id) — the CGNS
// source rank the coordinates were read from (spec.md §4.G).
func (g *GridCoordinates) SetGridCoordinatesArray(srcRank int, dt entity.DataType, x, y, z []float64) {
	g.actual = nil
	g.virtual = nil
	g.maxId = 0
	for i := range x {
		n := node.NewNode(dt)
		n.Coords.Set(x[i], y[i], z[i])
		g.maxId++
		n.SetId(g.maxId)
		n.SetMyRankno(g.myRank)
		n.SetRealityType(entity.Actual)
		n.Catalog = g.Catalog
		n.AddPreviousRankInfo(srcRank, g.maxId)
		g.actual = append(g.actual, n)
	}
}

// GetGridCoordinatesArray extracts the contiguous range of actual nodes
// [start, start+count) as parallel x/y/z slices (1-based start, per
// spec.md's local-id convention).
func (g *GridCoordinates) GetGridCoordinatesArray(start, count int) (x, y, z []float64) {
	x = make([]float64, count)
	y = make([]float64, count)
	z = make([]float64, count)
	for i := 0; i < count; i++ {
		n := g.actual[start-1+i]
		x[i] = n.Coords.X()
		y[i] = n.Coords.Y()
		z[i] = n.Coords.Z()
	}
	return
}

// FindNodeByGlobalId resolves (srcRank, srcId) to a live node, trying in
// order: direct index, binary search on current global id, a linear
// scan of the actual nodes' previous-rank histories, and finally a
// linear scan of the virtual nodes by current id or history.
func (g *GridCoordinates) FindNodeByGlobalId(srcRank int, srcId uint64) *node.Node {
	if n := g.ActualNodeAt(srcId); n != nil && n.GetMyRankno() == srcRank {
		return n
	}

	i := sort.Search(len(g.actual), func(i int) bool {
		return !globalIdLess(g.actual[i].GetMyRankno(), g.actual[i].GetId(), &nodeShim{srcRank, srcId})
	})
	if i < len(g.actual) && g.actual[i].GetMyRankno() == srcRank && g.actual[i].GetId() == srcId {
		return g.actual[i]
	}

	for _, n := range g.actual {
		if n.ExistsPreviousRankInfo(srcRank, srcId) {
			return n
		}
	}
	for _, n := range g.virtual {
		if (n.GetMyRankno() == srcRank && n.GetId() == srcId) || n.ExistsPreviousRankInfo(srcRank, srcId) {
			return n
		}
	}
	return nil
}

// nodeShim lets FindNodeByGlobalId reuse globalIdLess's (*node.Node)
// signature for a bare (rank,id) pair during binary search.
type nodeShim struct {
	rank int
	id   uint64
}

func (s *nodeShim) GetMyRankno() int { return s.rank }
func (s *nodeShim) GetId() uint64    { return s.id }

// RebuildNodes renumbers actual_nodes to 1..N, recording each node's
// former (rank,id) in its previous-rank list and resetting its owner
// rank to myRank (spec.md §4.G).
func (g *GridCoordinates) RebuildNodes() {
	for i, n := range g.actual {
		oldRank, oldId := n.GetMyRankno(), n.GetId()
		newId := uint64(i + 1)
		if oldRank != g.myRank || oldId != newId {
			n.AddPreviousRankInfo(oldRank, oldId)
		}
		n.SetId(newId)
		n.SetMyRankno(g.myRank)
	}
	g.maxId = uint64(len(g.actual))
}

// RebuildVirtualNodes re-sorts virtual_nodes by (rank,id). It does not
// change any node's id; the combined |actual_nodes|+1.. numbering is
// positional and is read through VirtualNodeAt.
func (g *GridCoordinates) RebuildVirtualNodes() {
	// Virtual nodes retain the owner rank's original id (spec.md §4.G:
	// insertVirtualNode "does not renumber"); rebuilding only re-sorts
	// the sequence after membership changes, it never reassigns ids.
	sort.Slice(g.virtual, func(i, j int) bool {
		return globalIdLess(g.virtual[i].GetMyRankno(), g.virtual[i].GetId(), g.virtual[j])
	})
}

// RemoveVirtualNode deletes a halo node by (rank,id), if present.
func (g *GridCoordinates) RemoveVirtualNode(rank int, id uint64) bool {
	for i, n := range g.virtual {
		if n.GetMyRankno() == rank && n.GetId() == id {
			g.virtual = append(g.virtual[:i], g.virtual[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveActualNode deletes an owned node, refusing if it still has
// parent cells (spec.md §4.E: only removable once detached).
func (g *GridCoordinates) RemoveActualNode(n *node.Node) bool {
	if n.HasParentCells() {
		return false
	}
	for i, c := range g.actual {
		if c == n {
			g.actual = append(g.actual[:i], g.actual[i+1:]...)
			return true
		}
	}
	return false
}
