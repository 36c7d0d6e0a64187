// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dfi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/avr-aics-riken/udm/entity"
	"github.com/cpmech/gosl/chk"
)

func Test_dfi01(tst *testing.T) {

	chk.PrintTitle("dfi01: New applies the teacher-style defaults")

	idx := New("", "out")
	if idx.File.Prefix != "udm" {
		tst.Errorf("expected default prefix 'udm', got %q", idx.File.Prefix)
	}
	if idx.Domain.GroupSize != 1 {
		tst.Errorf("expected default group size 1, got %d", idx.Domain.GroupSize)
	}
}

func Test_dfi02(tst *testing.T) {

	chk.PrintTitle("dfi02: RecordSlice appends then overwrites by step")

	idx := New("udm", "out")
	idx.RecordSlice(TimeSlice{Step: 0, Time: 0.0})
	idx.RecordSlice(TimeSlice{Step: 1, Time: 0.1})
	idx.RecordSlice(TimeSlice{Step: 1, Time: 0.2, HasAvg: true, AvgStep: 1, AvgTime: 0.15})

	if len(idx.Slices) != 2 {
		tst.Fatalf("expected 2 distinct slices, got %d", len(idx.Slices))
	}
	if idx.Slices[1].Time != 0.2 || !idx.Slices[1].HasAvg {
		tst.Error("expected the second RecordSlice(step=1) call to overwrite the first")
	}
	if idx.LatestStep() != 1 {
		tst.Errorf("expected LatestStep() == 1, got %d", idx.LatestStep())
	}
}

func Test_dfi03(tst *testing.T) {

	chk.PrintTitle("dfi03: DeclareField and FieldConfigs round trip")

	idx := New("udm", "out")
	idx.DeclareField(FieldRecord{Name: "pressure", DataType: entity.Float32, Location: entity.Vertex, VectorSize: 1})
	idx.DeclareField(FieldRecord{Name: "velocity", DataType: entity.Float64, Location: entity.CellCenter, VectorType: entity.Vector, VectorSize: 3})
	idx.DeclareField(FieldRecord{Name: "pressure", DataType: entity.Float64, Location: entity.Vertex, VectorSize: 1})

	if len(idx.Fields) != 2 {
		tst.Fatalf("expected re-declaring 'pressure' to overwrite, got %d fields", len(idx.Fields))
	}
	cfgs := idx.FieldConfigs()
	if len(cfgs) != 2 || cfgs[0].DataType != entity.Float64 {
		tst.Error("expected FieldConfigs to reflect the overwritten datatype")
	}
}

func Test_dfi04(tst *testing.T) {

	chk.PrintTitle("dfi04: Save/Load round trips through JSON on disk")

	dir := tst.TempDir()
	fn := filepath.Join(dir, "udm.dfi")

	idx := New("udm", dir)
	idx.Domain.CellDim = 3
	idx.Domain.GlobalNodeCount = 10
	idx.Zones = []string{"Zone1"}
	idx.RecordSlice(TimeSlice{Step: 0, Time: 0})
	idx.DeclareField(FieldRecord{Name: "pressure", DataType: entity.Float32, VectorSize: 1})

	if code := Save(fn, idx); !code.IsOK() {
		tst.Fatalf("expected Save to succeed, got %v", code)
	}
	if _, err := os.Stat(fn); err != nil {
		tst.Fatalf("expected the index file to exist on disk: %v", err)
	}

	loaded, code := Load(fn)
	if !code.IsOK() {
		tst.Fatalf("expected Load to succeed, got %v", code)
	}
	if loaded.Domain.CellDim != 3 || loaded.Domain.GlobalNodeCount != 10 {
		tst.Error("expected DomainInfo to round trip")
	}
	if len(loaded.Zones) != 1 || loaded.Zones[0] != "Zone1" {
		tst.Error("expected Zones to round trip")
	}
	if len(loaded.Fields) != 1 || loaded.Fields[0].Name != "pressure" {
		tst.Error("expected the solution-field catalog to round trip")
	}
}

func Test_dfi05(tst *testing.T) {

	chk.PrintTitle("dfi05: Load reports FileOpen for a missing index file")

	_, code := Load("/nonexistent/path/does-not-exist.dfi")
	if code.IsOK() {
		tst.Error("expected Load to fail for a missing file")
	}
}
