// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package zone implements Module J: Zone, the unit of CGNS-level
// organization composing GridCoordinates, Sections, RankConnectivity,
// a FlowSolutions catalog, and a UserData bag, plus the import/export
// and rebuild orchestration spec.md §4.J describes.
package zone

import (
	"sort"

	"github.com/avr-aics-riken/udm/archive"
	"github.com/avr-aics-riken/udm/cell"
	"github.com/avr-aics-riken/udm/entity"
	"github.com/avr-aics-riken/udm/errs"
	"github.com/avr-aics-riken/udm/grid"
	"github.com/avr-aics-riken/udm/mpiutil"
	"github.com/avr-aics-riken/udm/node"
	"github.com/avr-aics-riken/udm/partition"
	"github.com/avr-aics-riken/udm/rankconn"
	"github.com/avr-aics-riken/udm/section"
)

// Zone exclusively owns one GridCoordinates, one Sections, one
// RankConnectivity, one FlowSolutions catalog, and one UserData bag
// (spec.md §3).
type Zone struct {
	Name     string
	CellDim  int // topological dimension of cells this zone holds
	PhysDim  int // dimension of the coordinate space

	Grid     *grid.GridCoordinates
	Sections *section.Sections
	RankConn *rankconn.RankConnectivity
	Catalog  *entity.FlowSolutions
	UserData *UserData

	numVertex int
	numCell   int
}

// New returns an empty zone owned by myRank, with GridCoordinates wired
// to route boundary-node registration into RankConnectivity via the
// grid.BoundaryRegistrar cycle-breaking interface (spec.md §3).
func New(name string, myRank, cellDim, physDim int) *Zone {
	z := &Zone{Name: name, CellDim: cellDim, PhysDim: physDim}
	z.RankConn = rankconn.New(myRank)
	z.Grid = grid.New(myRank)
	z.Grid.Registrar = z.RankConn
	z.Sections = section.New()
	z.Catalog = entity.NewFlowSolutions()
	z.Grid.Catalog = z.Catalog
	z.Sections.Catalog = z.Catalog
	z.UserData = NewUserData()
	return z
}

// NumVertex reports the vertex count recorded at the last RebuildZone.
func (z *Zone) NumVertex() int { return z.numVertex }

// NumCell reports the cell count recorded at the last RebuildZone.
func (z *Zone) NumCell() int { return z.numCell }

// ImportCells integrates cells received from a peer (typically via
// RankConnectivity.TransferVirtualCells) into this zone, per spec.md
// §4.J importCells. senderRank is the rank that produced batch.Cells
// and batch.Nodes (their connRank/connId and own (rank,id) are
// relative to it). A node already known to be shared with senderRank
// is rewired in place instead of cloned; every other referenced node
// is deep-cloned and its mpi-rank/previous-rank lists immediately
// record the sender's (rank,id) — this is the "touched nodes marked
// boundary" spec.md describes, done directly at clone time rather than
// via a separate placeholder pass, since every node this path creates
// is, by construction, newly shared with exactly senderRank.
// migrationBoundary is still what later confirms or drops entries that
// turn out not to be mutually held. Returns the nodes newly inserted
// into GridCoordinates, sorted by global id — rebuildZone's
// import_nodes argument.
func (z *Zone) ImportCells(senderRank int, batch rankconn.VirtualCellBatch) []*node.Node {
	resolved := make(map[gidKey]*node.Node, len(batch.Nodes))
	var importNodes []*node.Node

	for _, n := range batch.Nodes {
		srcRank, srcId := n.GetMyRankno(), n.GetId()
		if local := z.RankConn.FindByPeer(srcRank, srcId); local != nil {
			// already a local boundary node: discard the incoming
			// instance and rewire cells to the one we already own
			resolved[gidKey{srcRank, srcId}] = local
			continue
		}
		if local := z.Grid.FindNodeByGlobalId(srcRank, srcId); local != nil {
			resolved[gidKey{srcRank, srcId}] = local
			continue
		}

		clone := n.Clone()
		clone.AddMpiRankInfo(senderRank, srcId)
		clone.AddPreviousRankInfo(senderRank, srcId)
		z.Grid.InsertNode(clone)
		resolved[gidKey{srcRank, srcId}] = clone
		importNodes = append(importNodes, clone)
	}

	sort.Slice(importNodes, func(i, j int) bool {
		return importNodes[i].CompareGlobalId(importNodes[j].GetMyRankno(), importNodes[j].GetId()) < 0
	})

	for _, c := range batch.Cells {
		ranks, ids := c.ConnectivityRefs()
		nodes := make([]*node.Node, len(ranks))
		for i := range ranks {
			n := resolved[gidKey{ranks[i], ids[i]}]
			if n == nil {
				// the referenced node wasn't part of this batch and
				// isn't already local: fall back to the search table
				// one more time in case an earlier cell's import
				// already resolved it under this rank/id.
				n = z.RankConn.FindByPeer(ranks[i], ids[i])
			}
			nodes[i] = n
		}
		c.SetNodes(nodes)
		c.SetId(0) // auto-assigned on insertion
		z.Sections.InsertCell(c)
	}

	return importNodes
}

type gidKey struct {
	rank int
	id   uint64
}

// ImportVirtualCells adopts a peer's TransferVirtualCells batch as halo
// state: unlike ImportCells, the resulting nodes and cells stay Virtual
// and keep the sender's own (rank,id) rather than being renumbered into
// this zone's ownership, per spec.md §4.J importVirtualCells. Nodes
// already resolvable as a local boundary node or by existing global id
// are reused in place instead of being inserted again.
func (z *Zone) ImportVirtualCells(senderRank int, batch rankconn.VirtualCellBatch) {
	resolved := make(map[gidKey]*node.Node, len(batch.Nodes))

	for _, n := range batch.Nodes {
		srcRank, srcId := n.GetMyRankno(), n.GetId()
		if local := z.RankConn.FindByPeer(srcRank, srcId); local != nil {
			resolved[gidKey{srcRank, srcId}] = local
			continue
		}
		if local := z.Grid.FindNodeByGlobalId(srcRank, srcId); local != nil {
			resolved[gidKey{srcRank, srcId}] = local
			continue
		}
		z.Grid.InsertVirtualNode(n)
		resolved[gidKey{srcRank, srcId}] = n
	}

	for _, c := range batch.Cells {
		ranks, ids := c.ConnectivityRefs()
		nodes := make([]*node.Node, len(ranks))
		for i := range ranks {
			n := resolved[gidKey{ranks[i], ids[i]}]
			if n == nil {
				n = z.RankConn.FindByPeer(ranks[i], ids[i])
			}
			nodes[i] = n
		}
		c.SetNodes(nodes)
		c.SetRealityType(entity.Virtual)
		z.Sections.InsertVirtualCell(c)
	}
}

// ExportCells removes the cells named by exportIds from this zone's
// ownership, flagging their still-referenced nodes as newly-shared
// boundary nodes (current (rank,id) recorded against destRank in the
// node's own mpi-rank list) and dropping nodes that end up with no
// remaining parent cells, per spec.md §4.J exportCells. Returns the
// nodes the export touched.
func (z *Zone) ExportCells(exportIds []uint64, destRank int) []*node.Node {
	z.Sections.ClearComponents()

	want := make(map[uint64]bool, len(exportIds))
	for _, id := range exportIds {
		want[id] = true
	}

	touched := make(map[uint64]*node.Node)
	for _, c := range z.Sections.EntityCells() {
		if !want[c.GetId()] {
			continue
		}
		c.SetRemoveEntity(true)
		for _, n := range c.Nodes() {
			touched[n.GetId()] = n
		}
	}
	z.Sections.SweepRemoved()

	var exportNodes []*node.Node
	for _, n := range touched {
		exportNodes = append(exportNodes, n)
		if n.HasParentCells() {
			// the exported cell still carries this node's current
			// (rank, id) verbatim, unrenumbered, until destRank's own
			// rebuildZone runs — so that pair is exactly what
			// destRank will look this node up by.
			n.AddMpiRankInfo(destRank, n.GetId())
		} else {
			z.Grid.RemoveActualNode(n)
		}
	}
	sort.Slice(exportNodes, func(i, j int) bool { return exportNodes[i].GetId() < exportNodes[j].GetId() })

	z.Sections.RegenerateComponents()
	z.Sections.SweepOrphanComponents()

	return exportNodes
}

// RebuildZone performs the fixed sequence spec.md §4.J prescribes after
// an import/export round: regenerate components touching importNodes,
// renumber nodes, re-sort virtual nodes, renumber cells, sort boundary
// nodes, publish id changes, update vertex/cell counts, clear
// previous-rank histories. The first failing step short-circuits the
// rest; no partial state is rolled back (spec.md: "a mid-rebuild
// failure is fatal").
func (z *Zone) RebuildZone(importNodes []*node.Node) errs.Code {
	for _, n := range importNodes {
		for _, ref := range n.ParentCells() {
			if c, ok := ref.(*cell.Cell); ok {
				c.CreateComponentCells(z.Sections)
			}
		}
	}

	z.Grid.RebuildNodes()
	z.Grid.RebuildVirtualNodes()
	z.Sections.RebuildCellId()
	z.RankConn.SortBoundary()
	z.RankConn.TransferUpdatedIds()

	z.numVertex = z.Grid.NumActualNodes()
	z.numCell = len(z.Sections.EntityCells())

	for _, n := range z.Grid.ActualNodes() {
		n.ClearPreviousInfos()
	}
	for _, n := range z.Grid.VirtualNodes() {
		n.ClearPreviousInfos()
	}

	return errs.OK
}

// RebuildVirtualHalo re-derives this zone's virtual-cell halo against
// its current boundary nodes: it asks RankConnectivity for every owner
// cell a peer doesn't already hold a virtual copy of (spec.md §4.I
// transferVirtualCells) and adopts the result via ImportVirtualCells.
// Called after any round that changes node/cell ids or ownership —
// rebuildZone's own completion (Model.RebuildModel) and a migration
// round (PartitionZone).
func (z *Zone) RebuildVirtualHalo() {
	known := func(peerRank int, cellId uint64) bool {
		for _, vc := range z.Sections.VirtualCells() {
			vr, vid := vc.GlobalId()
			if vr == peerRank && vid == cellId {
				return true
			}
		}
		return false
	}
	batches := z.RankConn.TransferVirtualCells(known)
	for peerRank, batch := range batches {
		z.ImportVirtualCells(peerRank, batch)
	}
}

// PartitionZone runs one full repartitioning round against p, per the
// data flow spec.md §3 prescribes: "partitioner produces import/export
// lists keyed by cell global-id → exportCells removes cells, keeping
// boundary-only nodes → importCells integrates received cells
// (serialized via archive) and their nodes → migrationBoundary
// reconciles (rank,id) maps on both sides → ids are renumbered and
// propagated via transferUpdatedIds → virtual halo is rebuilt." p is
// asked only about this rank's own current cells; if it proposes no
// moves, PartitionZone makes no changes and returns
// errs.NoChangeFromPartitioner (spec.md §8 S4).
func (z *Zone) PartitionZone(myRank, numRanks int, p partition.Partitioner) errs.Code {
	var ids []uint64
	var weights []float32
	for _, c := range z.Sections.EntityCells() {
		ids = append(ids, c.GetId())
		weights = append(weights, c.PartitionWeight())
	}

	plan := p.Plan(myRank, numRanks, ids, weights)
	if plan.Empty() {
		return errs.NoChangeFromPartitioner
	}

	byDest := make(map[int][]uint64)
	for i, id := range plan.ExportCellIds {
		byDest[plan.DestRank[i]] = append(byDest[plan.DestRank[i]], id)
	}

	outgoing := make(map[int][]byte, len(byDest))
	for dest, cellIds := range byDest {
		cells := z.cellsByIds(cellIds)
		batch := &migrationBatch{cells: cells, nodes: nodesOfCells(cells)}
		outgoing[dest] = archive.Marshal(batch)
		z.ExportCells(cellIds, dest)
	}

	incoming := mpiutil.Exchange(outgoing)
	var importNodes []*node.Node
	for senderRank, buf := range incoming {
		var mb migrationBatch
		archive.Unmarshal(buf, &mb)
		received := z.ImportCells(senderRank, rankconn.VirtualCellBatch{Cells: mb.cells, Nodes: mb.nodes})
		importNodes = append(importNodes, received...)
	}

	z.RankConn.MigrationBoundary()
	if code := z.RebuildZone(importNodes); code != errs.OK {
		return code
	}
	z.RebuildVirtualHalo()
	return errs.OK
}

// cellsByIds returns the owned cells named by ids, in no particular
// order.
func (z *Zone) cellsByIds(ids []uint64) []*cell.Cell {
	want := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*cell.Cell
	for _, c := range z.Sections.EntityCells() {
		if want[c.GetId()] {
			out = append(out, c)
		}
	}
	return out
}

// nodesOfCells returns the distinct nodes referenced by cells.
func nodesOfCells(cells []*cell.Cell) []*node.Node {
	seen := make(map[*node.Node]bool)
	var out []*node.Node
	for _, c := range cells {
		for i := 0; i < c.NumNodes(); i++ {
			n := c.NodeAt(i)
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

// migrationBatch is the archive.Serializable wrapper PartitionZone uses
// to send a count-prefixed sequence of exported cells followed by a
// count-prefixed sequence of the nodes they reference, mirroring
// rankconn's cellList (spec.md §4.B: "composite objects prefix counts
// before element sequences").
type migrationBatch struct {
	cells []*cell.Cell
	nodes []*node.Node
}

func (mb *migrationBatch) Serialize(a *archive.Archive) {
	a.WriteInt32(int32(len(mb.cells)))
	for _, c := range mb.cells {
		c.Serialize(a)
	}
	a.WriteInt32(int32(len(mb.nodes)))
	for _, n := range mb.nodes {
		n.Serialize(a)
	}
}

func (mb *migrationBatch) Deserialize(a *archive.Archive) {
	n := int(a.ReadInt32())
	mb.cells = make([]*cell.Cell, 0, n)
	for i := 0; i < n && !a.Overflow(); i++ {
		c := &cell.Cell{}
		c.Deserialize(a)
		mb.cells = append(mb.cells, c)
	}
	m := int(a.ReadInt32())
	mb.nodes = make([]*node.Node, 0, m)
	for i := 0; i < m && !a.Overflow(); i++ {
		nd := node.NewNode(entity.Float64)
		nd.Deserialize(a)
		mb.nodes = append(mb.nodes, nd)
	}
}
