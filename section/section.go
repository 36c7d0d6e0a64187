// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package section implements Module H: Sections, the exclusive owner of
// a Zone's cells (entity, virtual, and generated component cells) and
// the ElementsSection headers describing each declared CGNS element
// block.
package section

import (
	"sort"

	"github.com/avr-aics-riken/udm/cell"
	"github.com/avr-aics-riken/udm/elemtype"
	"github.com/avr-aics-riken/udm/entity"
	"github.com/avr-aics-riken/udm/errs"
	"github.com/avr-aics-riken/udm/node"
)

// ElementsSection is one declared element block: a contiguous run of
// cells of a single type (or Mixed, whose members carry their own
// per-cell type tag), as CGNS models an Elements_t node.
type ElementsSection struct {
	Name     string
	Type     elemtype.Type
	StartId  uint64 // first elem_id belonging to this section (1-based)
	EndId    uint64 // last elem_id belonging to this section, inclusive
}

// Sections owns every cell in a zone: entity_cells (locally owned),
// virtual_cells (halo), and component_cells (deduplicated faces/edges),
// plus the ElementsSection headers (spec.md §4.H).
type Sections struct {
	headers []*ElementsSection

	entity    []*cell.Cell // sorted by elem_id
	virtual   []*cell.Cell // sorted by global id
	component []*cell.Cell // deduplicated pool; see cell.ComponentSection

	// Catalog is set by the owning Zone so every inserted cell validates
	// its solution Set/Get against the zone's FlowSolutions declarations
	// (spec.md §4.C).
	Catalog *entity.FlowSolutions
}

// New returns an empty Sections.
func New() *Sections { return &Sections{} }

// EntityCells returns the owned-cell pool.
func (s *Sections) EntityCells() []*cell.Cell { return s.entity }

// VirtualCells returns the halo-cell pool.
func (s *Sections) VirtualCells() []*cell.Cell { return s.virtual }

// ComponentCells returns the deduplicated face/edge pool.
func (s *Sections) ComponentCells() []*cell.Cell { return s.component }

// Headers returns the declared ElementsSection blocks.
func (s *Sections) Headers() []*ElementsSection { return s.headers }

// DeclareSection registers a new ElementsSection header (CGNS load, or
// user API).
func (s *Sections) DeclareSection(h *ElementsSection) { s.headers = append(s.headers, h) }

func (s *Sections) sectionFor(et elemtype.Type) *ElementsSection {
	for _, h := range s.headers {
		if h.Type == et || h.Type == elemtype.Mixed {
			return h
		}
	}
	return nil
}

// getMaxEntityElemId returns the highest elem_id currently assigned in
// entity_cells, or 0 if empty.
func (s *Sections) getMaxEntityElemId() uint64 {
	if len(s.entity) == 0 {
		return 0
	}
	return s.entity[len(s.entity)-1].GetId()
}

// InsertCell appends c to the correct ElementsSection (creating one for
// c's type if none is declared yet) and registers it in entity_cells,
// keeping the pool sorted by elem_id. If c.GetId() == 0 the next id is
// getMaxEntityElemId()+1 (spec.md §4.H).
//
// c is validated before anything is mutated (spec.md §8 boundary
// behavior): an element type outside the closed set elemtype defines
// returns invalid-element-type or not-supported-element-type, and
// duplicate node references return invalid-element-type. This design's
// closed set has no degenerate insertable cell type (NodeT, the one
// type documented as degenerate, is reserved for node entities and is
// never a cell's own type), so duplicates are never accepted.
func (s *Sections) InsertCell(c *cell.Cell) (uint64, errs.Code) {
	et := c.ElementType()
	switch et {
	case elemtype.Unknown:
		return 0, errs.InvalidElementType
	case elemtype.NodeT, elemtype.Mixed:
		return 0, errs.NotSupportedElementType
	}
	if !elemtype.IsSupported(et) {
		return 0, errs.NotSupportedElementType
	}
	if hasDuplicateNodes(c.Nodes()) {
		return 0, errs.InvalidElementType
	}

	h := s.sectionFor(et)
	if h == nil {
		h = &ElementsSection{Type: et}
		s.headers = append(s.headers, h)
	}

	id := c.GetId()
	if id == 0 {
		id = s.getMaxEntityElemId() + 1
		c.SetId(id)
	}
	c.Catalog = s.Catalog

	idx := sort.Search(len(s.entity), func(i int) bool { return s.entity[i].GetId() >= id })
	s.entity = append(s.entity, nil)
	copy(s.entity[idx+1:], s.entity[idx:])
	s.entity[idx] = c

	if h.StartId == 0 || id < h.StartId {
		h.StartId = id
	}
	if id > h.EndId {
		h.EndId = id
	}

	c.CreateComponentCells(s)
	return id, errs.OK
}

// hasDuplicateNodes reports whether nodes references the same node more
// than once.
func hasDuplicateNodes(nodes []*node.Node) bool {
	seen := make(map[*node.Node]bool, len(nodes))
	for _, n := range nodes {
		if seen[n] {
			return true
		}
		seen[n] = true
	}
	return false
}

// InsertVirtualCell inserts a halo cell into virtual_cells, sorted by
// global id (rank, id).
func (s *Sections) InsertVirtualCell(c *cell.Cell) {
	c.Catalog = s.Catalog
	rank, id := c.GlobalId()
	idx := sort.Search(len(s.virtual), func(i int) bool {
		vr, vid := s.virtual[i].GlobalId()
		return vr > rank || (vr == rank && vid >= id)
	})
	s.virtual = append(s.virtual, nil)
	copy(s.virtual[idx+1:], s.virtual[idx:])
	s.virtual[idx] = c
}

// RebuildCellId renumbers entity_cells contiguously from 1, updating
// each ElementsSection's [StartId, EndId] span to match (spec.md §4.H).
func (s *Sections) RebuildCellId() {
	for i, c := range s.entity {
		c.SetId(uint64(i + 1))
	}
	for _, h := range s.headers {
		h.StartId, h.EndId = 0, 0
	}
	for _, c := range s.entity {
		h := s.sectionFor(c.ElementType())
		if h == nil {
			continue
		}
		id := c.GetId()
		if h.StartId == 0 || id < h.StartId {
			h.StartId = id
		}
		if id > h.EndId {
			h.EndId = id
		}
	}
}

// SweepRemoved performs the erase-remove pass over entity_cells,
// dropping every cell flagged IsRemoveEntity() (spec.md §4.H: cells
// removed via the exporter are swept in a single pass).
func (s *Sections) SweepRemoved() {
	out := s.entity[:0]
	for _, c := range s.entity {
		if c.IsRemoveEntity() {
			continue
		}
		out = append(out, c)
	}
	s.entity = out
}

// ClearComponents discards the entire component-cell pool and every
// entity/virtual cell's generated component set, so a subsequent
// CreateComponentCells pass regenerates everything from scratch —
// Zone.ExportCells clears components before removing the exported cells
// and regenerates them for every remaining cell afterwards (spec.md §4.J).
func (s *Sections) ClearComponents() {
	s.component = nil
	for _, c := range s.entity {
		c.ResetComponents()
	}
	for _, c := range s.virtual {
		c.ResetComponents()
	}
}

// RegenerateComponents re-runs CreateComponentCells over every entity
// and virtual cell, rebuilding the component pool ClearComponents just
// discarded.
func (s *Sections) RegenerateComponents() {
	for _, c := range s.entity {
		c.CreateComponentCells(s)
	}
	for _, c := range s.virtual {
		c.CreateComponentCells(s)
	}
}

// --- cell.ComponentSection implementation ----------------------------------

// FindComponentCell returns the pooled component whose node set matches
// globalIds exactly (order-insensitive), or nil.
func (s *Sections) FindComponentCell(globalIds []uint64) *cell.Cell {
	want := make(map[uint64]bool, len(globalIds))
	for _, id := range globalIds {
		want[id] = true
	}
	for _, c := range s.component {
		if sameNodeIdSet(c, want) {
			return c
		}
	}
	return nil
}

func sameNodeIdSet(c *cell.Cell, want map[uint64]bool) bool {
	if c.NumNodes() != len(want) {
		return false
	}
	for i := 0; i < c.NumNodes(); i++ {
		if !want[c.NodeAt(i).GetId()] {
			return false
		}
	}
	return true
}

// AdoptComponentCell registers a newly-built component that no existing
// pooled component matched.
func (s *Sections) AdoptComponentCell(c *cell.Cell) {
	s.component = append(s.component, c)
}

// SweepOrphanComponents removes pooled components with zero parent
// cells (spec.md §3 invariant 4: "a component with zero parents is
// deleted"). Called after cells are removed from entity_cells/virtual.
func (s *Sections) SweepOrphanComponents() {
	out := s.component[:0]
	for _, c := range s.component {
		if c.NumParentComponents() == 0 {
			continue
		}
		out = append(out, c)
	}
	s.component = out
}
