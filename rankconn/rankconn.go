// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rankconn implements Module I: RankConnectivity, the boundary-
// node set and the migration/transfer protocol that keeps the mpi-rank
// lists of shared nodes symmetric across ranks.
package rankconn

import (
	"github.com/avr-aics-riken/udm/archive"
	"github.com/avr-aics-riken/udm/cell"
	"github.com/avr-aics-riken/udm/entity"
	"github.com/avr-aics-riken/udm/gid"
	"github.com/avr-aics-riken/udm/mpiutil"
	"github.com/avr-aics-riken/udm/node"
)

// RankConnectivity tracks boundary nodes (nodes with a non-empty
// mpi-rank list) and a search table keyed by (peer-rank, peer-id) that
// resolves to the local node sharing that identity, per spec.md §4.I.
type RankConnectivity struct {
	myRank    int
	boundary  []*node.Node // non-owning; sorted by own global id
	searchTbl *gid.List    // Ref carries the local *node.Node
}

// New returns an empty RankConnectivity owned by myRank.
func New(myRank int) *RankConnectivity {
	return &RankConnectivity{myRank: myRank, searchTbl: gid.NewList()}
}

// RegisterBoundaryNode implements grid.BoundaryRegistrar: called by
// GridCoordinates.InsertNode when a node arrives already carrying a
// non-empty mpi-rank list.
func (r *RankConnectivity) RegisterBoundaryNode(n *node.Node) {
	r.addBoundary(n)
}

func (r *RankConnectivity) addBoundary(n *node.Node) {
	for _, b := range r.boundary {
		if b == n {
			return
		}
	}
	r.boundary = append(r.boundary, n)
	for i := 0; i < n.MpiRankInfos().Len(); i++ {
		peer := n.MpiRankInfos().At(i)
		r.searchTbl.Add(peer.Rank, peer.Local, n)
	}
}

// BoundaryNodes returns the current boundary-node set.
func (r *RankConnectivity) BoundaryNodes() []*node.Node { return r.boundary }

// NumBoundaryNodes reports |boundary nodes|.
func (r *RankConnectivity) NumBoundaryNodes() int { return len(r.boundary) }

// FindByPeer resolves (peerRank, peerId) to the local node sharing that
// identity via the search table, or nil.
func (r *RankConnectivity) FindByPeer(peerRank int, peerId uint64) *node.Node {
	id, ok := r.searchTbl.Find(peerRank, peerId)
	if !ok {
		return nil
	}
	return id.Ref.(*node.Node)
}

// rebuildSearchTable discards and rebuilds the (peer-rank,peer-id)->node
// table from the current boundary set; called lazily whenever the
// mpi-rank lists may have changed out from under it (spec.md §4.I:
// "rebuilt lazily").
func (r *RankConnectivity) rebuildSearchTable() {
	r.searchTbl = gid.NewList()
	for _, n := range r.boundary {
		for i := 0; i < n.MpiRankInfos().Len(); i++ {
			peer := n.MpiRankInfos().At(i)
			r.searchTbl.Add(peer.Rank, peer.Local, n)
		}
	}
}

// SortBoundary orders the boundary-node slice by the node's own current
// global id — part of rebuildZone's fixed step order (spec.md §4.J).
func (r *RankConnectivity) SortBoundary() {
	sortNodesById(r.boundary)
}

func sortNodesById(nodes []*node.Node) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j].GetId() < nodes[j-1].GetId(); j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}
}

// MigrationBoundary reconciles the mpi-rank list symmetry invariant
// (spec.md §3 invariant 3) after an import/export round. For each
// boundary node it builds, per peer rank, a gid.PairList of
// (my-current-global-id -> peer's-expected-global-id); these are
// exchanged all-to-all, and on receipt each rank finds its own boundary
// node whose current id is the peer's expected id (findBoundaryById) and
// sets its entry for the sender to the sender's current id. No mpi-rank
// entry is removed here: an entry for which no pair arrives stays as it
// is, and only nodes whose mpi-rank list is already empty cease to be
// boundary nodes.
func (r *RankConnectivity) MigrationBoundary() {
	outgoing := make(map[int][]byte)
	perPeerPairs := make(map[int]gid.PairList)

	for _, n := range r.boundary {
		for i := 0; i < n.MpiRankInfos().Len(); i++ {
			peer := n.MpiRankInfos().At(i)
			// Src: my current global id. Dest: what I believe is the
			// peer's current global id for this same physical node.
			pair := gid.NewPair(r.myRank, n.GetId(), peer.Rank, peer.Local)
			perPeerPairs[peer.Rank] = append(perPeerPairs[peer.Rank], pair)
		}
	}
	for peerRank, pairs := range perPeerPairs {
		outgoing[peerRank] = marshalPairs(pairs)
	}

	incoming := mpiutil.Exchange(outgoing)

	for senderRank, buf := range incoming {
		pairs := unmarshalPairs(buf)
		for _, p := range pairs {
			// p.Dest.Local is the sender's belief of MY current id for
			// the shared node; p.Src is the sender's own current
			// (rank, id). Find the local node by its own id and
			// reconcile the peer entry for senderRank to p.Src.Local.
			local := r.findBoundaryById(p.Dest.Local)
			if local == nil {
				continue
			}
			r.reconcilePeerId(local, senderRank, p.Src.Local)
		}
	}

	r.pruneEmptyBoundary()
	r.rebuildSearchTable()
}

// findBoundaryById returns the boundary node whose own current id is
// localId, or nil.
func (r *RankConnectivity) findBoundaryById(localId uint64) *node.Node {
	for _, n := range r.boundary {
		if n.GetId() == localId {
			return n
		}
	}
	return nil
}

// reconcilePeerId moves whatever entry n has for peerRank (if any) to
// (peerRank, newPeerLocal), or adds it fresh.
func (r *RankConnectivity) reconcilePeerId(n *node.Node, peerRank int, newPeerLocal uint64) {
	for i := 0; i < n.MpiRankInfos().Len(); i++ {
		peer := n.MpiRankInfos().At(i)
		if peer.Rank == peerRank {
			n.UpdateMpiRankInfo(peerRank, peer.Local, peerRank, newPeerLocal)
			return
		}
	}
	n.AddMpiRankInfo(peerRank, newPeerLocal)
}

func (r *RankConnectivity) pruneEmptyBoundary() {
	out := r.boundary[:0]
	for _, n := range r.boundary {
		if n.MpiRankInfos().Len() == 0 {
			continue
		}
		out = append(out, n)
	}
	r.boundary = out
}

// TransferUpdatedIds publishes (previous-global-id -> new-global-id)
// pairs to every neighbor that held any of this rank's previous ids,
// called after rebuildZone renumbers nodes (spec.md §4.I).
func (r *RankConnectivity) TransferUpdatedIds() {
	outgoing := make(map[int][]byte)
	perPeerPairs := make(map[int]gid.PairList)

	for _, n := range r.boundary {
		if n.PreviousRankInfos().Len() == 0 {
			continue
		}
		for i := 0; i < n.MpiRankInfos().Len(); i++ {
			peer := n.MpiRankInfos().At(i)
			for j := 0; j < n.PreviousRankInfos().Len(); j++ {
				prev := n.PreviousRankInfos().At(j)
				pair := gid.NewPair(prev.Rank, prev.Local, r.myRank, n.GetId())
				perPeerPairs[peer.Rank] = append(perPeerPairs[peer.Rank], pair)
			}
		}
	}
	for peerRank, pairs := range perPeerPairs {
		outgoing[peerRank] = marshalPairs(pairs)
	}

	incoming := mpiutil.Exchange(outgoing)
	for senderRank, buf := range incoming {
		pairs := unmarshalPairs(buf)
		for _, p := range pairs {
			local := r.FindByPeer(senderRank, p.Src.Local)
			if local == nil {
				continue
			}
			local.UpdateMpiRankInfo(senderRank, p.Src.Local, senderRank, p.Dest.Local)
		}
	}
	r.rebuildSearchTable()
}

// VirtualCellBatch is what one peer sent this rank in a
// TransferVirtualCells round: the adjacent owner cells the peer
// believes we don't hold yet, plus the non-boundary nodes those cells
// reference (boundary nodes are assumed already resolvable through the
// search table and are not re-sent). The Zone resolves Cells'
// connectivity against Nodes plus its own existing boundary nodes.
type VirtualCellBatch struct {
	Cells []*cell.Cell
	Nodes []*node.Node
}

// TransferVirtualCells identifies, for every boundary node, the owner
// cells adjacent to it (its parent cells) that a given peer does not
// already hold — checked via the caller-supplied `known` predicate,
// since rankconn does not own Sections' virtual-cell pool — serializes
// them plus their non-boundary nodes (spec.md §4.I: "serializes them
// plus their non-boundary nodes, and sends"), and exchanges them so
// receivers can deserialize and adopt them as halo copies. The Zone is
// responsible for tagging returned cells/nodes Virtual, resolving cell
// connectivity against the batch's Nodes (falling back to its own
// boundary search table for any node already shared), and inserting
// the result into GridCoordinates/Sections (spec.md
// §4.J.importVirtualCells).
func (r *RankConnectivity) TransferVirtualCells(known func(peerRank int, cellId uint64) bool) map[int]VirtualCellBatch {
	perPeerCells := make(map[int][]*cell.Cell)
	perPeerNodes := make(map[int][]*node.Node)
	sentCell := make(map[int]map[uint64]bool)
	sentNode := make(map[int]map[uint64]bool)

	for _, n := range r.boundary {
		for i := 0; i < n.MpiRankInfos().Len(); i++ {
			peerRank := n.MpiRankInfos().At(i).Rank
			for _, ref := range n.NeighborCells() {
				c, ok := ref.(*cell.Cell)
				if !ok {
					continue
				}
				_, cellId := c.GlobalId()
				if known(peerRank, cellId) {
					continue
				}
				if sentCell[peerRank] == nil {
					sentCell[peerRank] = make(map[uint64]bool)
				}
				if !sentCell[peerRank][cellId] {
					sentCell[peerRank][cellId] = true
					perPeerCells[peerRank] = append(perPeerCells[peerRank], c)
				}

				for _, cn := range c.Nodes() {
					if cn.MpiRankInfos().Len() > 0 {
						continue // already shared; peer is assumed to resolve it locally
					}
					id := cn.GetId()
					if sentNode[peerRank] == nil {
						sentNode[peerRank] = make(map[uint64]bool)
					}
					if sentNode[peerRank][id] {
						continue
					}
					sentNode[peerRank][id] = true
					perPeerNodes[peerRank] = append(perPeerNodes[peerRank], cn)
				}
			}
		}
	}

	outgoing := make(map[int][]byte, len(perPeerCells))
	for peerRank, cells := range perPeerCells {
		outgoing[peerRank] = archive.Marshal(&cellList{cells: cells, nodes: perPeerNodes[peerRank]})
	}

	incoming := mpiutil.Exchange(outgoing)
	out := make(map[int]VirtualCellBatch, len(incoming))
	for senderRank, buf := range incoming {
		var cl cellList
		archive.Unmarshal(buf, &cl)
		out[senderRank] = VirtualCellBatch{Cells: cl.cells, Nodes: cl.nodes}
	}
	return out
}

// cellList is the Serializable wrapper TransferVirtualCells uses to
// send a count-prefixed sequence of cells, followed by a count-prefixed
// sequence of the non-boundary nodes they reference, in one archive,
// per spec.md §4.B's "composite objects prefix counts before element
// sequences" convention.
type cellList struct {
	cells []*cell.Cell
	nodes []*node.Node
}

func (cl *cellList) Serialize(a *archive.Archive) {
	a.WriteInt32(int32(len(cl.cells)))
	for _, c := range cl.cells {
		c.Serialize(a)
	}
	a.WriteInt32(int32(len(cl.nodes)))
	for _, n := range cl.nodes {
		n.Serialize(a)
	}
}

func (cl *cellList) Deserialize(a *archive.Archive) {
	n := int(a.ReadInt32())
	cl.cells = make([]*cell.Cell, 0, n)
	for i := 0; i < n && !a.Overflow(); i++ {
		c := &cell.Cell{}
		c.Deserialize(a)
		cl.cells = append(cl.cells, c)
	}
	m := int(a.ReadInt32())
	cl.nodes = make([]*node.Node, 0, m)
	for i := 0; i < m && !a.Overflow(); i++ {
		nd := node.NewNode(entity.Float64)
		nd.Deserialize(a)
		cl.nodes = append(cl.nodes, nd)
	}
}

func marshalPairs(pairs gid.PairList) []byte {
	buf := make([]byte, 4+len(pairs)*24)
	a := archive.NewWriter(buf)
	a.WriteInt32(int32(len(pairs)))
	for _, p := range pairs {
		a.WriteInt32(int32(p.Src.Rank))
		a.WriteUint64(p.Src.Local)
		a.WriteInt32(int32(p.Dest.Rank))
		a.WriteUint64(p.Dest.Local)
	}
	return buf
}

func unmarshalPairs(buf []byte) gid.PairList {
	if len(buf) == 0 {
		return nil
	}
	a := archive.NewReader(buf)
	n := int(a.ReadInt32())
	out := make(gid.PairList, 0, n)
	for i := 0; i < n && !a.Overflow(); i++ {
		srcRank := int(a.ReadInt32())
		srcLocal := a.ReadUint64()
		destRank := int(a.ReadInt32())
		destLocal := a.ReadUint64()
		out = append(out, gid.NewPair(srcRank, srcLocal, destRank, destLocal))
	}
	return out
}
