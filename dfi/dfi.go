// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dfi implements the index-file side-car spec.md §6 describes: a
// JSON document enumerating file layout, a domain summary, per-process
// node/cell counts, time-slice records and the solution-field catalog,
// read and written the way the teacher's inp package round-trips its own
// JSON configuration (inp/msh.go's json.Unmarshal + utl.ReadFile,
// inp/sim.go's SetDefault/PostProcess pattern). The original's
// dfi_unit.cpp keeps "file info" and "domain info" as two distinct
// top-level JSON objects; Index keeps that split as two nested structs.
package dfi

import (
	"encoding/json"

	"github.com/avr-aics-riken/udm/entity"
	"github.com/avr-aics-riken/udm/errs"
	"github.com/cpmech/gosl/utl"
)

// FileInfo is the original's "FileInfo" object: where and how the CGNS
// time-slice files live on disk.
type FileInfo struct {
	Prefix         string `json:"Prefix"`         // base file name, e.g. "udm"
	Directory      string `json:"Directory"`      // output directory, relative to the index file
	ElemPath       string `json:"ElemPath"`       // CGNS path to the Elements_t sections, e.g. "/Base/Zone1"
	GridConstant   bool   `json:"GridConstant"`   // grid is written once, not per step
	SolutionSplit  bool   `json:"SolutionSplit"`  // solutions are written to a file separate from the grid
	LinkFile       bool   `json:"LinkFile"`       // a link file aggregates grid/solution files via CGNS links
}

// ProcessInfo is one rank's share of the domain: its local node/cell
// counts, recorded so a reader can reconstruct the per-rank partition
// sizes without opening every CGNS file.
type ProcessInfo struct {
	Rank      int `json:"Rank"`
	NodeCount int `json:"NodeCount"`
	CellCount int `json:"CellCount"`
}

// DomainInfo is the original's "DomainInfo" object: the partition
// summary spec.md §6 calls "domain summary (cell dimension, global node
// count, global cell count), MPI info (process size, group size)".
type DomainInfo struct {
	CellDim         int            `json:"CellDim"`
	GlobalNodeCount int            `json:"GlobalNodeCount"`
	GlobalCellCount int            `json:"GlobalCellCount"`
	ProcessSize     int            `json:"ProcessSize"` // mpi.Size() at write time
	GroupSize       int            `json:"GroupSize"`   // number of zones/domains bundled
	PerProcess      []ProcessInfo  `json:"PerProcess"`
}

// TimeSlice is one entry of the time-series record spec.md §6 requires:
// step, time, and an optional averaged step/time (zero value means "not
// averaged", matching the original's optional average fields).
type TimeSlice struct {
	Step    int     `json:"Step"`
	Time    float64 `json:"Time"`
	HasAvg  bool    `json:"HasAvg,omitempty"`
	AvgStep int     `json:"AvgStep,omitempty"`
	AvgTime float64 `json:"AvgTime,omitempty"`
}

// FieldRecord is one entry of the solution-field catalog persisted
// alongside the mesh: name, datatype, grid-location, vector
// classification, and constant-vs-time-varying, mirroring
// entity.FieldConfig (spec.md §6 "solution-field catalog").
type FieldRecord struct {
	Name       string            `json:"Name"`
	DataType   entity.DataType   `json:"DataType"`
	Location   entity.Location   `json:"Location"`
	VectorType entity.VectorType `json:"VectorType"`
	VectorSize int               `json:"VectorSize"`
	Constant   bool              `json:"Constant"`
}

// Index is the full side-car document: FileInfo and DomainInfo as two
// nested objects (the original's two top-level JSON documents), the
// declared zone names, the time-slice history, and the solution-field
// catalog.
type Index struct {
	File   FileInfo      `json:"FileInfo"`
	Domain DomainInfo    `json:"DomainInfo"`
	Zones  []string      `json:"Zones"`
	Slices []TimeSlice   `json:"TimeSlices"`
	Fields []FieldRecord `json:"SolutionFields"`
}

// New returns an Index with the teacher-style defaults SetDefault would
// apply: a single combined grid+solution file, written every step.
func New(prefix, directory string) *Index {
	idx := &Index{
		File: FileInfo{Prefix: prefix, Directory: directory, ElemPath: "/Base/Zone1"},
	}
	idx.SetDefault()
	return idx
}

// SetDefault fills zero-valued fields with the teacher's convention
// (inp/sim.go's SetDefault pattern): combined file, not split, not a
// link file, and a group size of at least 1.
func (idx *Index) SetDefault() {
	if idx.File.Prefix == "" {
		idx.File.Prefix = "udm"
	}
	if idx.Domain.GroupSize == 0 {
		idx.Domain.GroupSize = 1
	}
}

// DeclareField appends or replaces a field record by name.
func (idx *Index) DeclareField(f FieldRecord) {
	for i, existing := range idx.Fields {
		if existing.Name == f.Name {
			idx.Fields[i] = f
			return
		}
	}
	idx.Fields = append(idx.Fields, f)
}

// FieldConfigs converts the persisted catalog into entity.FieldConfig
// values ready for entity.FlowSolutions.Declare.
func (idx *Index) FieldConfigs() []entity.FieldConfig {
	out := make([]entity.FieldConfig, len(idx.Fields))
	for i, f := range idx.Fields {
		out[i] = entity.FieldConfig{
			Name: f.Name, DataType: f.DataType, Location: f.Location,
			VectorType: f.VectorType, VectorSize: f.VectorSize, Constant: f.Constant,
		}
	}
	return out
}

// RecordSlice appends (or, if step already exists, overwrites) a
// time-slice record — writeModel's "rank 0 re-emits the index file with
// an updated time-slice record" (spec.md §4.K).
func (idx *Index) RecordSlice(s TimeSlice) {
	for i, existing := range idx.Slices {
		if existing.Step == s.Step {
			idx.Slices[i] = s
			return
		}
	}
	idx.Slices = append(idx.Slices, s)
}

// LatestStep returns the highest recorded step, or -1 if no slices are
// recorded yet.
func (idx *Index) LatestStep() int {
	step := -1
	for _, s := range idx.Slices {
		if s.Step > step {
			step = s.Step
		}
	}
	return step
}

// Load reads and unmarshals an index file, mirroring inp/msh.go's
// ReadMsh: utl.ReadFile for I/O, json.Unmarshal for decoding, with the
// teacher's leaf-logs propagation policy (errs.LogErr logs and converts
// the stdlib error into a Code).
func Load(fn string) (*Index, errs.Code) {
	b, err := utl.ReadFile(fn)
	if code := errs.LogErr(err, "dfi: cannot open index file "+fn); code != errs.OK {
		return nil, errs.FileOpen
	}
	var idx Index
	if code := errs.LogErr(json.Unmarshal(b, &idx), "dfi: cannot unmarshal index file "+fn); code != errs.OK {
		return nil, errs.Deserialize
	}
	idx.SetDefault()
	return &idx, errs.OK
}

// Save marshals and writes the index file with indentation, matching
// the teacher's preference for human-readable JSON config on disk.
func Save(fn string, idx *Index) errs.Code {
	b, err := json.MarshalIndent(idx, "", "  ")
	if code := errs.LogErr(err, "dfi: cannot marshal index"); code != errs.OK {
		return errs.Serialize
	}
	utl.WriteFileS(fn, string(b))
	return errs.OK
}
