// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node

import (
	"github.com/avr-aics-riken/udm/archive"
	"github.com/avr-aics-riken/udm/elemtype"
	"github.com/avr-aics-riken/udm/entity"
)

// CellRef is the minimal view of a parent cell a Node needs for its
// back-reference and neighbor queries. package cell's concrete Cell
// types implement it; node never imports cell, breaking what would
// otherwise be an import cycle between the two back-referencing sides
// of spec.md §3's "non-owning back references" invariant.
type CellRef interface {
	GlobalId() (rank int, id uint64)
	ElementType() elemtype.Type
	Nodes() []*Node
}

// Node is Module E: an Entity plus a 3-coordinate CoordsValue, a
// non-owning parent-cells back-reference list, a common-node join
// pointer used during CGNS overlap merging, and neighbor iterators.
type Node struct {
	entity.Entity

	Coords CoordsValue

	parents    []CellRef
	commonNode *Node // set when this node was merged into another on read-join
}

// NewNode returns an empty Vertex-location node of the given coordinate
// datatype.
func NewNode(dt entity.DataType) *Node {
	n := &Node{Coords: NewCoordsValue(dt)}
	n.Entity = entity.NewEntity(entity.Vertex, elemtype.NodeT)
	return n
}

// AddParentCell registers cell as a parent if not already present.
func (n *Node) AddParentCell(c CellRef) {
	for _, p := range n.parents {
		if sameCellRef(p, c) {
			return
		}
	}
	n.parents = append(n.parents, c)
}

// RemoveParentCell drops cell from the parent list, if present.
func (n *Node) RemoveParentCell(c CellRef) {
	for i, p := range n.parents {
		if sameCellRef(p, c) {
			n.parents = append(n.parents[:i], n.parents[i+1:]...)
			return
		}
	}
}

func sameCellRef(a, b CellRef) bool {
	ra, ia := a.GlobalId()
	rb, ib := b.GlobalId()
	return ra == rb && ia == ib
}

// ParentCells returns the non-owning back-reference list.
func (n *Node) ParentCells() []CellRef { return n.parents }

// NumParentCells reports how many cells reference this node.
func (n *Node) NumParentCells() int { return len(n.parents) }

// HasParentCells reports whether removal is currently safe. spec.md
// §4.E: a node may only be removed once it has no parent cells.
func (n *Node) HasParentCells() bool { return len(n.parents) > 0 }

// SetCommonNode records that n was found to be a duplicate of other
// during CGNS join-read and should be treated as merged into it.
func (n *Node) SetCommonNode(other *Node) { n.commonNode = other }

// CommonNode returns the node n was merged into, or nil if n is
// canonical.
func (n *Node) CommonNode() *Node { return n.commonNode }

// NeighborNodes walks every parent cell's node list and returns the set
// of distinct nodes other than n itself (spec.md §4.E connectivity
// iterator).
func (n *Node) NeighborNodes() []*Node {
	seen := make(map[uint64]bool)
	var out []*Node
	for _, c := range n.parents {
		for _, other := range c.Nodes() {
			if other == n {
				continue
			}
			if seen[other.GetId()] {
				continue
			}
			seen[other.GetId()] = true
			out = append(out, other)
		}
	}
	return out
}

// NeighborCells returns the distinct parent cells of n — the cells
// reachable in one connectivity hop.
func (n *Node) NeighborCells() []CellRef {
	out := make([]CellRef, len(n.parents))
	copy(out, n.parents)
	return out
}

// Serialize writes the entity base, coords, and rank (parent cells are
// reconstructed by the receiver from the cell stream, not carried here).
func (n *Node) Serialize(a *archive.Archive) {
	n.SerializeBase(a)
	n.Coords.Serialize(a)
}

// Deserialize reverses Serialize.
func (n *Node) Deserialize(a *archive.Archive) {
	n.DeserializeBase(a)
	n.Coords.Deserialize(a)
}

// Clone deep-copies identity, solution fields and coords. Parent-cell
// back-references are never copied: the clone starts detached, and the
// container that adopts it (Sections, on cell insertion) re-attaches it.
func (n *Node) Clone() *Node {
	out := &Node{Coords: n.Coords}
	n.CloneInto(&out.Entity)
	return out
}
