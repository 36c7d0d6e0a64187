// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// scenario_test.go exercises the end-to-end seed cases spec.md §8 names
// (S1, S2, S4, S5, S6) against the full Model/Zone/cgns/partition stack.
// S3, which needs two independently-built Zone views reconciled by
// RankConnectivity, is exercised at the zone package level instead
// (zone/zone_test.go's Test_zone06).
package model

import (
	"testing"

	"github.com/avr-aics-riken/udm/cell"
	"github.com/avr-aics-riken/udm/cgns"
	"github.com/avr-aics-riken/udm/dfi"
	"github.com/avr-aics-riken/udm/elemtype"
	"github.com/avr-aics-riken/udm/entity"
	"github.com/avr-aics-riken/udm/errs"
	"github.com/avr-aics-riken/udm/partition"
	"github.com/cpmech/gosl/chk"
)

func Test_scenario_S1(tst *testing.T) {

	chk.PrintTitle("S1: single tetrahedron, 1 rank")

	z := New("main", 3, 3).AddZone("Zone1")
	z.Grid.SetGridCoordinatesArray(0, entity.Float64,
		[]float64{0, 1, 0, 0},
		[]float64{0, 0, 1, 0},
		[]float64{0, 0, 0, 1})

	c := cell.NewCell(elemtype.Tetra4)
	c.SetNodes(z.Grid.ActualNodes())
	z.Sections.InsertCell(c)

	if len(z.Sections.EntityCells()) != 1 {
		tst.Fatalf("expected 1 entity cell, got %d", len(z.Sections.EntityCells()))
	}
	comps := z.Sections.ComponentCells()
	if len(comps) != 4 {
		tst.Fatalf("expected 4 component cells, got %d", len(comps))
	}
	for i, comp := range comps {
		if comp.ElementType() != elemtype.Tri3 {
			tst.Errorf("component %d: expected Tri3, got %v", i, comp.ElementType())
		}
		if comp.NumParentComponents() != 1 {
			tst.Errorf("component %d: expected exactly 1 parent, got %d", i, comp.NumParentComponents())
		}
		// Solid cells generate faces only: shell expansion into Bar2
		// edges is disabled, so a Tri3 component carries no further
		// generated components of its own.
		if len(comp.Components()) != 0 {
			tst.Errorf("component %d: expected no grandchildren (edge expansion disabled for Solid), got %d", i, len(comp.Components()))
		}
	}
}

func Test_scenario_S2(tst *testing.T) {

	chk.PrintTitle("S2: two hexahedra sharing a face, 1 rank")

	z := New("main", 3, 3).AddZone("Zone1")
	x := []float64{0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1, 0}
	y := []float64{0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 1, 1}
	zc := []float64{0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2}
	z.Grid.SetGridCoordinatesArray(0, entity.Float64, x, y, zc)
	nodes := z.Grid.ActualNodes()

	c1 := cell.NewCell(elemtype.Hexa8)
	c1.SetNodes(nodes[0:8])
	z.Sections.InsertCell(c1)

	c2 := cell.NewCell(elemtype.Hexa8)
	c2.SetNodes(nodes[4:12])
	z.Sections.InsertCell(c2)

	if len(z.Sections.EntityCells()) != 2 {
		tst.Fatalf("expected 2 entity cells, got %d", len(z.Sections.EntityCells()))
	}
	comps := z.Sections.ComponentCells()
	if len(comps) != 11 {
		tst.Fatalf("expected 11 unique Quad4 components (6+6-1 shared), got %d", len(comps))
	}

	var shared *cell.Cell
	for _, comp := range comps {
		if comp.NumParentComponents() == 2 {
			shared = comp
		}
	}
	if shared == nil {
		tst.Fatal("expected exactly one component shared between both cells")
	}

	// c1 was inserted first, so it is the shared face's first parent;
	// NeighborCells exposes that adjacency symmetrically from either side.
	neighborsOfC1 := c1.NeighborCells()
	if len(neighborsOfC1) != 1 || neighborsOfC1[0] != c2 {
		tst.Fatalf("expected c1's only neighbor to be c2, got %v", neighborsOfC1)
	}
}

func Test_scenario_S4(tst *testing.T) {

	chk.PrintTitle("S4: partitioner round with no change")

	z := New("main", 3, 3).AddZone("Zone1")
	z.Grid.SetGridCoordinatesArray(0, entity.Float64,
		[]float64{0, 1, 0, 0},
		[]float64{0, 0, 1, 0},
		[]float64{0, 0, 0, 1})
	c := cell.NewCell(elemtype.Tetra4)
	c.SetNodes(z.Grid.ActualNodes())
	z.Sections.InsertCell(c)

	beforeNodes := z.Grid.NumActualNodes()
	beforeCells := len(z.Sections.EntityCells())

	code := z.PartitionZone(0, 1, partition.NoChange{})
	if code != errs.NoChangeFromPartitioner {
		tst.Fatalf("expected errs.NoChangeFromPartitioner, got %v", code)
	}
	if z.Grid.NumActualNodes() != beforeNodes || len(z.Sections.EntityCells()) != beforeCells {
		tst.Errorf("expected node/cell counts unchanged, got nodes=%d cells=%d",
			z.Grid.NumActualNodes(), len(z.Sections.EntityCells()))
	}
}

func Test_scenario_S5(tst *testing.T) {

	chk.PrintTitle("S5: scalar field round-trip, Vertex float32 pressure, N=10 nodes")

	const n = 10
	x := make([]float64, n)
	y := make([]float64, n)
	zc := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}

	src := New("main", 3, 3)
	z := src.AddZone("Zone1")
	z.Grid.SetGridCoordinatesArray(0, entity.Float32, x, y, zc)
	z.Catalog.Declare(entity.FieldConfig{Name: "pressure", DataType: entity.Float32, Location: entity.Vertex, VectorSize: 1})
	for i, nd := range z.Grid.ActualNodes() {
		entity.SetSolutionScalar[float32](&nd.Entity, "pressure", float32(i))
	}

	store := cgns.NewMemStore()
	idx := dfi.New("udm", "out")
	idx.DeclareField(dfi.FieldRecord{Name: "pressure", DataType: entity.Float32, Location: entity.Vertex, VectorSize: 1})
	idx.Zones = []string{"Zone1"}

	if code := src.WriteModel(store, idx, 1, 0, Combined); code != errs.OK {
		tst.Fatalf("expected WriteModel to succeed, got %v", code)
	}

	dst := New("main", 3, 3)
	if code := dst.LoadModel(store, idx, 1); code != errs.OK {
		tst.Fatalf("expected LoadModel to succeed, got %v", code)
	}
	got := dst.ZoneByName("Zone1")
	if got == nil || got.Grid.NumActualNodes() != n {
		tst.Fatalf("expected %d reloaded nodes, got zone=%v", n, got)
	}
	for i, nd := range got.Grid.ActualNodes() {
		v, code := entity.GetSolutionScalar[float32](&nd.Entity, "pressure")
		if code != errs.OK {
			tst.Fatalf("node %d: expected pressure to round-trip, got error %v", i, code)
		}
		if v != float32(i) {
			tst.Errorf("node %d: expected pressure %v, got %v", i, float32(i), v)
		}
	}
}

func Test_scenario_S6(tst *testing.T) {

	chk.PrintTitle("S6: vector field on cells, CellCenter float64 size-3 velocity")

	src := New("main", 3, 3)
	z := src.AddZone("Zone1")

	// four disjoint tetrahedra so each has its own cell-centered value
	const nCells = 4
	x := make([]float64, 4*nCells)
	y := make([]float64, 4*nCells)
	zc := make([]float64, 4*nCells)
	for i := 0; i < nCells; i++ {
		base := float64(i * 10)
		x[4*i+0], y[4*i+0], zc[4*i+0] = base+0, 0, 0
		x[4*i+1], y[4*i+1], zc[4*i+1] = base+1, 0, 0
		x[4*i+2], y[4*i+2], zc[4*i+2] = base+0, 1, 0
		x[4*i+3], y[4*i+3], zc[4*i+3] = base+0, 0, 1
	}
	z.Grid.SetGridCoordinatesArray(0, entity.Float64, x, y, zc)
	z.Catalog.Declare(entity.FieldConfig{Name: "velocity", DataType: entity.Float64, Location: entity.CellCenter, VectorSize: 3})

	nodes := z.Grid.ActualNodes()
	for i := 0; i < nCells; i++ {
		c := cell.NewCell(elemtype.Tetra4)
		c.SetNodes(nodes[4*i : 4*i+4])
		z.Sections.InsertCell(c)
		fi := float64(i + 1)
		entity.SetSolutionVector[float64](&c.Entity, "velocity", []float64{fi, 2 * fi, 3 * fi})
	}

	store := cgns.NewMemStore()
	idx := dfi.New("udm", "out")
	idx.DeclareField(dfi.FieldRecord{Name: "velocity", DataType: entity.Float64, Location: entity.CellCenter, VectorSize: 3})
	idx.Zones = []string{"Zone1"}

	if code := src.WriteModel(store, idx, 1, 0, Combined); code != errs.OK {
		tst.Fatalf("expected WriteModel to succeed, got %v", code)
	}

	written, code := store.ReadZone(cgnsPath(idx, 1, "Zone1"), "Zone1")
	if code != errs.OK {
		tst.Fatalf("expected the written zone to be readable back, got %v", code)
	}
	if len(written.Sols) != 1 || written.Sols[0].Name != "velocity" || len(written.Sols[0].ByEntity) != nCells {
		tst.Fatalf("expected a single velocity FlowSolution with %d entities, got %+v", nCells, written.Sols)
	}

	dst := New("main", 3, 3)
	if code := dst.LoadModel(store, idx, 1); code != errs.OK {
		tst.Fatalf("expected LoadModel to succeed, got %v", code)
	}
	got := dst.ZoneByName("Zone1")
	if got == nil || len(got.Sections.EntityCells()) != nCells {
		tst.Fatalf("expected %d reloaded cells, got zone=%v", nCells, got)
	}
	for _, c := range got.Sections.EntityCells() {
		_, id := c.GlobalId()
		fi := float64(id)
		want := []float64{fi, 2 * fi, 3 * fi}
		vals, code := entity.GetSolutionVector[float64](&c.Entity, "velocity")
		if code != errs.OK {
			tst.Fatalf("cell %d: expected velocity to round-trip, got error %v", id, code)
		}
		for k := range want {
			if vals[k] != want[k] {
				tst.Errorf("cell %d: expected velocity[%d]=%v, got %v", id, k, want[k], vals[k])
			}
		}
	}
}
