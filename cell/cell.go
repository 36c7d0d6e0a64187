// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cell implements Module F: the three cell variants (Bar, Shell,
// Solid) that share a base, ordered node connectivity, idempotent
// component-cell generation, and order-insensitive component lookup.
package cell

import (
	"sort"

	"github.com/avr-aics-riken/udm/archive"
	"github.com/avr-aics-riken/udm/elemtype"
	"github.com/avr-aics-riken/udm/entity"
	"github.com/avr-aics-riken/udm/node"
)

// ComponentSection is the subset of a Section a Cell needs to generate
// and look up its component (face/edge) cells, without importing
// package section (which owns Cells and would create an import cycle).
type ComponentSection interface {
	// FindComponentCell returns an existing component whose node set
	// matches globalIds exactly (order-insensitive), or nil.
	FindComponentCell(globalIds []uint64) *Cell
	// AdoptComponentCell registers a newly-built component cell that no
	// existing component matched.
	AdoptComponentCell(c *Cell)
}

// Cell is Module F's base: an Entity plus ordered node connectivity and
// the generated component-cell set (Solid → faces, Shell → edges,
// Bar → none).
type Cell struct {
	entity.Entity

	nodes      []*node.Node // ordered, local connectivity
	components []*Cell      // generated faces/edges; nil for Bar
	parents    []*Cell      // non-owning: cells this component belongs to

	// connRank/connId hold (rank,id) pairs read by Deserialize until the
	// caller resolves them to live *node.Node pointers via SetNodes.
	connRank []int
	connId   []uint64
}

// NewCell returns a cell of the given element type with no connectivity
// yet assigned.
func NewCell(et elemtype.Type) *Cell {
	c := &Cell{}
	c.Entity = entity.NewEntity(entity.CellCenter, et)
	return c
}

// GlobalId implements node.CellRef.
func (c *Cell) GlobalId() (rank int, id uint64) { return c.GetMyRankno(), c.GetId() }

// Nodes returns the ordered connectivity (implements node.CellRef).
func (c *Cell) Nodes() []*node.Node { return c.nodes }

// SetNodes assigns the ordered connectivity, attaching this cell as a
// parent of every node (spec.md §3: Node holds a non-owning back-ref to
// its parent cells).
func (c *Cell) SetNodes(nodes []*node.Node) {
	for _, n := range c.nodes {
		n.RemoveParentCell(c)
	}
	c.nodes = nodes
	for _, n := range c.nodes {
		n.AddParentCell(c)
	}
}

// NumNodes returns the connectivity length.
func (c *Cell) NumNodes() int { return len(c.nodes) }

// NodeAt returns the i-th connected node.
func (c *Cell) NodeAt(i int) *node.Node { return c.nodes[i] }

// AddParentComponent registers parent as referencing this cell as one
// of its components. Used when this Cell itself is a component (face or
// edge) of another.
func (c *Cell) AddParentComponent(parent *Cell) {
	for _, p := range c.parents {
		if p == parent {
			return
		}
	}
	c.parents = append(c.parents, parent)
}

// RemoveParentComponent drops parent from the component's parent list.
// A component with zero parents is meant to be deleted by its owning
// Section (spec.md §3 invariant 4).
func (c *Cell) RemoveParentComponent(parent *Cell) {
	for i, p := range c.parents {
		if p == parent {
			c.parents = append(c.parents[:i], c.parents[i+1:]...)
			return
		}
	}
}

// NumParentComponents reports how many parent cells reference this
// component. Zero means the component is orphaned and collectible.
func (c *Cell) NumParentComponents() int { return len(c.parents) }

// Components returns the generated face/edge cells, nil for Bar cells.
func (c *Cell) Components() []*Cell { return c.components }

// ResetComponents discards this cell's generated component set so a
// later CreateComponentCells call regenerates it from scratch — used by
// Zone.ExportCells (through Sections.ClearComponents), which clears the
// components of every entity and virtual cell before an export round
// and regenerates them all afterwards (spec.md §4.J).
// It does not touch the component pool itself or any parent-component
// links; the caller is responsible for sweeping orphaned components.
func (c *Cell) ResetComponents() { c.components = nil }

// createComponentCells generates this cell's faces (Solid) or edges
// (Shell); a no-op for Bar. Idempotent per spec.md §4.F: if the
// component set already has the expected cardinality, it returns
// immediately without touching sec.
func (c *Cell) createComponentCells(sec ComponentSection) errorCode {
	info := elemtype.Get(c.ElementType())
	if info == nil {
		return errNotSupported
	}
	locals, compTypeOf := info.Faces()
	if locals == nil {
		return errOK // Bar: nothing to generate
	}
	if len(c.components) == len(locals) {
		return errOK // already built
	}

	c.components = make([]*Cell, len(locals))
	for i, localIdx := range locals {
		compNodes := make([]*node.Node, len(localIdx))
		ids := make([]uint64, len(localIdx))
		for j, li := range localIdx {
			compNodes[j] = c.nodes[li]
			ids[j] = c.nodes[li].GetId()
		}

		if existing := sec.FindComponentCell(ids); existing != nil {
			existing.AddParentComponent(c)
			c.components[i] = existing
			continue
		}

		candidate := NewCell(compTypeOf(i))
		candidate.SetNodes(compNodes)
		candidate.AddParentComponent(c)
		sec.AdoptComponentCell(candidate)
		c.components[i] = candidate
	}
	return errOK
}

// CreateComponentCells is the exported entry point for Section to drive
// component generation on cell insertion.
func (c *Cell) CreateComponentCells(sec ComponentSection) bool {
	return c.createComponentCells(sec) == errOK
}

// NeighborCells returns, for every component of c, every other parent of
// that component — i.e. the cells adjacent to c across a shared face or
// edge (spec.md §4.F "Neighbor query").
func (c *Cell) NeighborCells() []*Cell {
	seen := make(map[*Cell]bool)
	var out []*Cell
	for _, comp := range c.components {
		for _, p := range comp.parents {
			if p == c || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// Clone deep-copies identity and solution state. Connectivity (nodes,
// components) is NOT copied: the caller (Sections, on import) re-attaches
// nodes explicitly via SetNodes once the clones it references exist.
func (c *Cell) Clone() *Cell {
	out := &Cell{}
	c.CloneInto(&out.Entity)
	return out
}

// Serialize writes the entity base then the ordered connectivity as
// global (rank,id) pairs — component cells are never carried on the
// wire; the receiver regenerates them via CreateComponentCells.
func (c *Cell) Serialize(a *archive.Archive) {
	c.SerializeBase(a)
	a.WriteInt32(int32(len(c.nodes)))
	for _, n := range c.nodes {
		a.WriteInt32(int32(n.GetMyRankno()))
		a.WriteUint64(n.GetId())
	}
}

// Deserialize reads the entity base and the connectivity as (rank,id)
// pairs without resolving them to nodes. The caller (Zone.ImportCells,
// Zone.ImportVirtualCells) reads them back through ConnectivityRefs,
// resolves them to *node.Node and then calls SetNodes.
func (c *Cell) Deserialize(a *archive.Archive) {
	c.DeserializeBase(a)
	n := int(a.ReadInt32())
	c.connRank = make([]int, n)
	c.connId = make([]uint64, n)
	for i := 0; i < n && !a.Overflow(); i++ {
		c.connRank[i] = int(a.ReadInt32())
		c.connId[i] = a.ReadUint64()
	}
}

// ConnectivityRefs returns the (rank,id) pairs read by the last
// Deserialize call, for the caller to resolve into live *node.Node
// pointers before calling SetNodes.
func (c *Cell) ConnectivityRefs() (ranks []int, ids []uint64) {
	return c.connRank, c.connId
}

type errorCode int

const (
	errOK errorCode = iota
	errNotSupported
)

// SortByElemId sorts cells by their Entity id, the order Sections keeps
// entity_cells in (spec.md §4.H).
func SortByElemId(cells []*Cell) {
	sort.Slice(cells, func(i, j int) bool { return cells[i].GetId() < cells[j].GetId() })
}
