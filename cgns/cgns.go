// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cgns specifies the one external collaborator spec.md §6 names
// for the persistent mesh format: a reader/writer over the CGNS/HDF5
// node hierarchy (Base -> Zone -> GridCoordinates, Elements_t,
// FlowSolution_t, ZoneIterativeData, UdmInfo/UdmUserDefinedData,
// RankConnectivity). Only the interface and a self-contained in-memory
// fake are implemented here — the real HDF5-backed CGNS library this
// module would link in production is out of scope (SPEC_FULL.md §4:
// "contains ONLY the interfaces spec.md names as external
// collaborators... standing in for the real HDF5/CGNS library").
package cgns

import (
	"github.com/avr-aics-riken/udm/elemtype"
	"github.com/avr-aics-riken/udm/entity"
	"github.com/avr-aics-riken/udm/errs"
)

// ElementBlock is one CGNS Elements_t section: a contiguous connectivity
// table of a single element type (or per-cell tagged types under
// Mixed), using global (rank,id) pairs so a reader can resolve shared
// nodes exactly like RankConnectivity's search table does.
type ElementBlock struct {
	Name         string
	Type         elemtype.Type
	ConnRanks    [][]int    // per cell, per node: owning rank
	ConnIds      [][]uint64 // per cell, per node: owning local id
	OwnRanks     []int      // per cell: the rank that owns this cell
	OwnIds       []uint64   // per cell: that rank's local id for it
}

// SolutionBlock is one CGNS FlowSolution_t node: a declared field's
// per-entity values, keyed by the owning (rank,id) so values survive a
// reload even before ids are renumbered.
type SolutionBlock struct {
	Name       string
	DataType   entity.DataType
	Location   entity.Location
	VectorSize int
	ByEntity   map[[2]uint64][]float64 // key is [rank,id] packed as uint64 pair via PackKey
}

// PackKey builds a SolutionBlock.ByEntity key from a (rank,id) pair.
func PackKey(rank int, id uint64) [2]uint64 { return [2]uint64{uint64(rank), id} }

// UserArray is one entry of the UdmUserDefinedData node: a named,
// dimensioned array of one of the four numeric datatypes, or a string
// array (original_source's UdmUserDefinedDatas.cpp).
type UserArray struct {
	Name     string
	Dims     []int
	DataType entity.DataType
	IsString bool
	Values   []float64 // numeric payload, converted to/from the declared DataType
	Strings  []string
}

// ZoneData is the full payload a single CGNS zone round-trips: the
// coordinate arrays, the element sections, the declared solution
// fields, and the user-defined data arrays — spec.md §6's external
// interface boundary, reduced to Go values instead of raw CGNS/HDF5
// node handles.
type ZoneData struct {
	Name     string
	CellDim  int
	PhysDim  int

	X, Y, Z   []float64
	CoordRank int // the rank whose local ids 1..N these arrays use

	Elements []ElementBlock
	Fields   []entity.FieldConfig
	Sols     []SolutionBlock
	Users    []UserArray

	// RankConnPairs mirrors the custom RankConnectivity user-data node
	// (spec.md §6): per boundary node, (local-id, peer-rank,
	// peer-local-id) tuples used to reconstruct mpi-rank lists on load.
	RankConnPairs []RankConnPair
}

// RankConnPair is one entry of the persisted RankConnectivity node.
type RankConnPair struct {
	LocalId  uint64
	PeerRank int
	PeerId   uint64
}

// ReadWriter is the external collaborator spec.md §6 names: it owns
// opening, reading/writing, and closing CGNS file handles entirely
// within one call — "no handle is stored across collective boundaries"
// (spec.md §5).
type ReadWriter interface {
	ReadZone(path, zoneName string) (*ZoneData, errs.Code)
	WriteZone(path, zoneName string, data *ZoneData) errs.Code
}

// MemStore is an in-memory fake ReadWriter standing in for the real
// HDF5-backed CGNS library, used by tests and by any driver that does
// not need bit-exact CGNS files on disk.
type MemStore struct {
	files map[string]map[string]*ZoneData
}

// NewMemStore returns an empty fake store.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string]map[string]*ZoneData)}
}

// ReadZone implements ReadWriter.
func (m *MemStore) ReadZone(path, zoneName string) (*ZoneData, errs.Code) {
	zones, ok := m.files[path]
	if !ok {
		return nil, errs.FileOpen
	}
	z, ok := zones[zoneName]
	if !ok {
		return nil, errs.CgnsInvalidZone
	}
	return z, errs.OK
}

// WriteZone implements ReadWriter.
func (m *MemStore) WriteZone(path, zoneName string, data *ZoneData) errs.Code {
	if data == nil {
		return errs.NullVariable
	}
	if m.files[path] == nil {
		m.files[path] = make(map[string]*ZoneData)
	}
	m.files[path][zoneName] = data
	return errs.OK
}
