// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package section

import (
	"testing"

	"github.com/avr-aics-riken/udm/cell"
	"github.com/avr-aics-riken/udm/elemtype"
	"github.com/avr-aics-riken/udm/entity"
	"github.com/avr-aics-riken/udm/errs"
	"github.com/avr-aics-riken/udm/node"
	"github.com/cpmech/gosl/chk"
)

func mkTet(nodes []*node.Node) *cell.Cell {
	c := cell.NewCell(elemtype.Tetra4)
	c.SetNodes(nodes)
	return c
}

func mkNodes(n int) []*node.Node {
	out := make([]*node.Node, n)
	for i := 0; i < n; i++ {
		out[i] = node.NewNode(entity.Float64)
		out[i].SetId(uint64(i + 1))
	}
	return out
}

func Test_section01(tst *testing.T) {

	chk.PrintTitle("section01: insertCell auto-assigns elem_id and generates components")

	sec := New()
	c1 := mkTet(mkNodes(4))
	id1, _ := sec.InsertCell(c1)
	if id1 != 1 {
		tst.Fatalf("expected first cell to get elem_id 1, got %d", id1)
	}

	nodes2 := mkNodes(4)
	for i, n := range nodes2 {
		n.SetId(uint64(i + 5)) // distinct from c1's ids 1..4: faces are matched by node-id set
	}
	c2 := mkTet(nodes2)
	id2, _ := sec.InsertCell(c2)
	if id2 != 2 {
		tst.Fatalf("expected second cell to get elem_id 2, got %d", id2)
	}

	if len(sec.EntityCells()) != 2 {
		tst.Fatalf("expected 2 entity cells, got %d", len(sec.EntityCells()))
	}
	if len(sec.ComponentCells()) != 8 {
		tst.Fatalf("expected 4 faces per independent tet (8 total), got %d", len(sec.ComponentCells()))
	}
	if len(sec.Headers()) != 1 {
		tst.Fatalf("expected 1 declared section for the single Tetra4 type, got %d", len(sec.Headers()))
	}
}

func Test_section02(tst *testing.T) {

	chk.PrintTitle("section02: rebuildCellId renumbers contiguously and updates section span")

	sec := New()
	c1 := mkTet(mkNodes(4))
	c1.SetId(50)
	sec.InsertCell(c1)
	c2 := mkTet(mkNodes(4))
	c2.SetId(99)
	sec.InsertCell(c2)

	sec.RebuildCellId()

	if c1.GetId() != 1 || c2.GetId() != 2 {
		tst.Errorf("expected renumbered ids 1,2, got %d,%d", c1.GetId(), c2.GetId())
	}
	h := sec.Headers()[0]
	if h.StartId != 1 || h.EndId != 2 {
		tst.Errorf("expected section span [1,2], got [%d,%d]", h.StartId, h.EndId)
	}
}

func Test_section03(tst *testing.T) {

	chk.PrintTitle("section03: sweepRemoved drops flagged cells in one pass")

	sec := New()
	c1 := mkTet(mkNodes(4))
	sec.InsertCell(c1)
	c2 := mkTet(mkNodes(4))
	sec.InsertCell(c2)

	c1.SetRemoveEntity(true)
	sec.SweepRemoved()

	if len(sec.EntityCells()) != 1 || sec.EntityCells()[0] != c2 {
		tst.Fatalf("expected only c2 to survive the sweep, got %d cells", len(sec.EntityCells()))
	}
}

func Test_section04(tst *testing.T) {

	chk.PrintTitle("section04: sweepOrphanComponents deletes zero-parent components")

	sec := New()
	shared := mkNodes(3)
	apex1 := node.NewNode(entity.Float64)
	apex1.SetId(4)
	apex2 := node.NewNode(entity.Float64)
	apex2.SetId(5)

	c1 := mkTet([]*node.Node{shared[0], shared[1], shared[2], apex1})
	sec.InsertCell(c1)
	c2 := mkTet([]*node.Node{shared[2], shared[1], shared[0], apex2})
	sec.InsertCell(c2)

	before := len(sec.ComponentCells())

	c1.SetRemoveEntity(true)
	sec.SweepRemoved()
	for _, comp := range c1.Components() {
		comp.RemoveParentComponent(c1)
	}
	sec.SweepOrphanComponents()

	after := len(sec.ComponentCells())
	if after >= before {
		tst.Errorf("expected orphaned components to be swept: before=%d after=%d", before, after)
	}
	// the shared face (referenced by c2 too) must survive
	if sec.FindComponentCell(idsOf(shared[:3])) == nil {
		tst.Error("the face shared with c2 must not have been swept")
	}
}

func Test_section05(tst *testing.T) {

	chk.PrintTitle("section05: insertCell rejects an unknown/unsupported element type without mutating Sections")

	sec := New()
	unknown := cell.NewCell(elemtype.Unknown)
	unknown.SetNodes(mkNodes(4))
	if _, code := sec.InsertCell(unknown); code != errs.InvalidElementType {
		tst.Errorf("expected invalid-element-type for Unknown, got %v", code)
	}

	mixed := cell.NewCell(elemtype.Mixed)
	mixed.SetNodes(mkNodes(4))
	if _, code := sec.InsertCell(mixed); code != errs.NotSupportedElementType {
		tst.Errorf("expected not-supported-element-type for Mixed, got %v", code)
	}

	if len(sec.EntityCells()) != 0 || len(sec.Headers()) != 0 {
		tst.Fatalf("expected no mutation on a rejected insert, got %d entity cells, %d headers",
			len(sec.EntityCells()), len(sec.Headers()))
	}
}

func Test_section06(tst *testing.T) {

	chk.PrintTitle("section06: insertCell rejects duplicate node connectivity")

	sec := New()
	nodes := mkNodes(3)
	dup := cell.NewCell(elemtype.Tetra4)
	dup.SetNodes([]*node.Node{nodes[0], nodes[1], nodes[2], nodes[0]})

	if _, code := sec.InsertCell(dup); code != errs.InvalidElementType {
		tst.Errorf("expected invalid-element-type for duplicate connectivity, got %v", code)
	}
	if len(sec.EntityCells()) != 0 {
		tst.Fatalf("expected no mutation on a rejected insert, got %d entity cells", len(sec.EntityCells()))
	}
}

func idsOf(nodes []*node.Node) []uint64 {
	out := make([]uint64, len(nodes))
	for i, n := range nodes {
		out[i] = n.GetId()
	}
	return out
}
