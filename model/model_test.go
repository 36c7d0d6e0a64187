// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"testing"

	"github.com/avr-aics-riken/udm/cell"
	"github.com/avr-aics-riken/udm/cgns"
	"github.com/avr-aics-riken/udm/dfi"
	"github.com/avr-aics-riken/udm/elemtype"
	"github.com/avr-aics-riken/udm/entity"
	"github.com/avr-aics-riken/udm/errs"
	"github.com/cpmech/gosl/chk"
)

func Test_model01(tst *testing.T) {

	chk.PrintTitle("model01: New/AddZone wires a zone under this rank with the model's dims")

	m := New("main", 3, 3)
	z := m.AddZone("Zone1")

	if len(m.Zones) != 1 || m.ZoneByName("Zone1") != z {
		tst.Fatal("expected AddZone to register the zone and ZoneByName to find it")
	}
	if z.CellDim != 3 || z.PhysDim != 3 {
		tst.Errorf("expected the zone to inherit the model's dims, got cellDim=%d physDim=%d", z.CellDim, z.PhysDim)
	}
	if m.ZoneByName("nope") != nil {
		tst.Error("expected ZoneByName to return nil for an unregistered name")
	}
}

func Test_model02(tst *testing.T) {

	chk.PrintTitle("model02: BroadcastModel is a no-op pass-through outside mpi.Start")

	m := New("main", 3, 3)
	m.AddZone("Zone1")

	if code := m.BroadcastModel(); code != errs.OK {
		tst.Fatalf("expected BroadcastModel to succeed serially, got %v", code)
	}
}

// singleTetra builds a one-cell, four-node zone directly (bypassing
// rankconn's TransferVirtualCells batch format zone_test.go exercises),
// standing in for what a CGNS read would have already resolved.
func singleTetra(m *Model) {
	z := m.AddZone("Zone1")
	z.Grid.SetGridCoordinatesArray(0, entity.Float64,
		[]float64{0, 1, 0, 0},
		[]float64{0, 0, 1, 0},
		[]float64{0, 0, 0, 1})

	z.Catalog.Declare(entity.FieldConfig{Name: "Pressure", DataType: entity.Float64, Location: entity.Vertex, VectorSize: 1})

	nodes := z.Grid.ActualNodes()
	c := cell.NewCell(elemtype.Tetra4)
	c.SetNodes(nodes)
	z.Sections.InsertCell(c)

	for i, n := range nodes {
		entity.SetSolutionScalar[float64](&n.Entity, "Pressure", float64(i)*10)
	}
}

func Test_model03(tst *testing.T) {

	chk.PrintTitle("model03: WriteModel then LoadModel round-trips a single tetrahedron")

	store := cgns.NewMemStore()
	idx := dfi.New("udm", "out")
	idx.DeclareField(dfi.FieldRecord{Name: "Pressure", DataType: entity.Float64, Location: entity.Vertex, VectorSize: 1})

	src := New("main", 3, 3)
	singleTetra(src)
	idx.Zones = []string{"Zone1"}

	if code := src.WriteModel(store, idx, 1, 0.5, Combined); code != errs.OK {
		tst.Fatalf("expected WriteModel to succeed, got %v", code)
	}
	if idx.LatestStep() != 1 {
		tst.Fatalf("expected the index to record step 1, got %d", idx.LatestStep())
	}

	dst := New("main", 3, 3)
	if code := dst.LoadModel(store, idx, 1); code != errs.OK {
		tst.Fatalf("expected LoadModel to succeed, got %v", code)
	}

	z := dst.ZoneByName("Zone1")
	if z == nil {
		tst.Fatal("expected a Zone1 to be loaded")
	}
	if z.Grid.NumActualNodes() != 4 {
		tst.Fatalf("expected 4 actual nodes, got %d", z.Grid.NumActualNodes())
	}
	if len(z.Sections.EntityCells()) != 1 {
		tst.Fatalf("expected 1 entity cell, got %d", len(z.Sections.EntityCells()))
	}
	got := z.Sections.EntityCells()[0]
	if got.NumNodes() != 4 {
		tst.Fatalf("expected the reloaded cell to carry 4 nodes, got %d", got.NumNodes())
	}

	for i, n := range z.Grid.ActualNodes() {
		v, code := entity.GetSolutionScalar[float64](&n.Entity, "Pressure")
		if code != errs.OK {
			tst.Fatalf("node %d: expected Pressure to round-trip, got error %v", i, code)
		}
		if v != float64(i)*10 {
			tst.Errorf("node %d: expected Pressure %v, got %v", i, float64(i)*10, v)
		}
	}
}

func Test_model04(tst *testing.T) {

	chk.PrintTitle("model04: SaveGob/LoadGob round-trips a model without going through cgns.ReadWriter")

	src := New("main", 3, 3)
	singleTetra(src)

	buf, code := src.SaveGob()
	if code != errs.OK {
		tst.Fatalf("expected SaveGob to succeed, got %v", code)
	}

	dst := New("", 0, 0)
	if code := dst.LoadGob(buf); code != errs.OK {
		tst.Fatalf("expected LoadGob to succeed, got %v", code)
	}

	if dst.BaseName != "main" || dst.CellDim != 3 || dst.PhysDim != 3 {
		tst.Errorf("expected model metadata to round-trip, got %+v", dst)
	}
	z := dst.ZoneByName("Zone1")
	if z == nil || z.Grid.NumActualNodes() != 4 || len(z.Sections.EntityCells()) != 1 {
		tst.Fatal("expected the zone's mesh to round-trip through gob")
	}
}

func Test_model05(tst *testing.T) {

	chk.PrintTitle("model05: LoadModel surfaces a missing-file error as FileOpen")

	store := cgns.NewMemStore()
	idx := dfi.New("udm", "out")
	idx.Zones = []string{"Zone1"}

	m := New("main", 3, 3)
	if code := m.LoadModel(store, idx, 1); code != errs.FileOpen {
		tst.Fatalf("expected FileOpen for an unwritten step, got %v", code)
	}
}
