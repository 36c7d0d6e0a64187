// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package model implements Module K: Model, the top-level object
// holding the list of Zones and the time-series
// iterator metadata, plus the load/write orchestration spec.md §4.K
// describes. The MPI communicator/rank/size live only as state
// mpiutil.Rank/Size expose, never as a package-level global (spec.md §9
// "no global mutable state" design note), so Model itself carries no
// rank field beyond what it needs to construct each Zone.
package model

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/avr-aics-riken/udm/archive"
	"github.com/avr-aics-riken/udm/cell"
	"github.com/avr-aics-riken/udm/cgns"
	"github.com/avr-aics-riken/udm/dfi"
	"github.com/avr-aics-riken/udm/entity"
	"github.com/avr-aics-riken/udm/errs"
	"github.com/avr-aics-riken/udm/mpiutil"
	"github.com/avr-aics-riken/udm/node"
	"github.com/avr-aics-riken/udm/partition"
	"github.com/avr-aics-riken/udm/zone"
)

// Model is Module K: the MPI-aware root holding every Zone this rank
// participates in, plus the time-series position the last load/write
// left it at.
type Model struct {
	BaseName string
	CellDim  int
	PhysDim  int

	Zones []*zone.Zone

	Step    int
	Time    float64
	HasAvg  bool
	AvgStep int
	AvgTime float64
}

// New returns an empty Model.
func New(baseName string, cellDim, physDim int) *Model {
	return &Model{BaseName: baseName, CellDim: cellDim, PhysDim: physDim}
}

// AddZone constructs and registers a new Zone owned by this rank.
func (m *Model) AddZone(name string) *zone.Zone {
	z := zone.New(name, mpiutil.Rank(), m.CellDim, m.PhysDim)
	m.Zones = append(m.Zones, z)
	return z
}

// ZoneByName returns the zone registered under name, or nil.
func (m *Model) ZoneByName(name string) *zone.Zone {
	for _, z := range m.Zones {
		if z.Name == name {
			return z
		}
	}
	return nil
}

// --- broadcastModel ---------------------------------------------------------

// modelSkeleton is what rank 0 serializes and every other rank
// verifies or adopts in BroadcastModel: the model's name and
// dimensions plus the bare name/dims of every zone — never grid
// coordinates or cell connectivity, which each rank reads for itself
// (spec.md §4.K: "empty GridCoordinates/Sections headers").
type modelSkeleton struct {
	baseName         string
	cellDim, physDim int
	zoneNames        []string
	zoneCellDims     []int
	zonePhysDims     []int
}

func (s *modelSkeleton) Serialize(a *archive.Archive) {
	a.WriteString(s.baseName, 64)
	a.WriteInt32(int32(s.cellDim))
	a.WriteInt32(int32(s.physDim))
	a.WriteInt32(int32(len(s.zoneNames)))
	for i, name := range s.zoneNames {
		a.WriteString(name, 64)
		a.WriteInt32(int32(s.zoneCellDims[i]))
		a.WriteInt32(int32(s.zonePhysDims[i]))
	}
}

func (s *modelSkeleton) Deserialize(a *archive.Archive) {
	s.baseName = a.ReadString(64)
	s.cellDim = int(a.ReadInt32())
	s.physDim = int(a.ReadInt32())
	n := int(a.ReadInt32())
	for i := 0; i < n && !a.Overflow(); i++ {
		s.zoneNames = append(s.zoneNames, a.ReadString(64))
		s.zoneCellDims = append(s.zoneCellDims, int(a.ReadInt32()))
		s.zonePhysDims = append(s.zonePhysDims, int(a.ReadInt32()))
	}
}

func (m *Model) skeleton() *modelSkeleton {
	sk := &modelSkeleton{baseName: m.BaseName, cellDim: m.CellDim, physDim: m.PhysDim}
	for _, z := range m.Zones {
		sk.zoneNames = append(sk.zoneNames, z.Name)
		sk.zoneCellDims = append(sk.zoneCellDims, z.CellDim)
		sk.zonePhysDims = append(sk.zonePhysDims, z.PhysDim)
	}
	return sk
}

func (m *Model) matchesSkeleton(sk *modelSkeleton) bool {
	if m.BaseName != sk.baseName || m.CellDim != sk.cellDim || m.PhysDim != sk.physDim {
		return false
	}
	if len(m.Zones) != len(sk.zoneNames) {
		return false
	}
	for i, z := range m.Zones {
		if z.Name != sk.zoneNames[i] || z.CellDim != sk.zoneCellDims[i] || z.PhysDim != sk.zonePhysDims[i] {
			return false
		}
	}
	return true
}

func (m *Model) adoptSkeleton(sk *modelSkeleton) {
	m.BaseName, m.CellDim, m.PhysDim = sk.baseName, sk.cellDim, sk.physDim
	for i, name := range sk.zoneNames {
		z := zone.New(name, mpiutil.Rank(), sk.zoneCellDims[i], sk.zonePhysDims[i])
		m.Zones = append(m.Zones, z)
	}
}

// BroadcastModel implements spec.md §4.K broadcastModel: rank 0
// serializes the model skeleton and broadcasts it; every other rank
// either adopts it (first load, no zones yet) or verifies it matches
// (already loaded its own zone locally) and fails the whole collective
// identically via mpiutil.Ack on mismatch.
func (m *Model) BroadcastModel() errs.Code {
	var buf []byte
	if mpiutil.Rank() == 0 {
		buf = archive.Marshal(m.skeleton())
	}
	buf = mpiutil.Bcast(0, buf)

	var local errs.Code
	if mpiutil.Rank() != 0 {
		var sk modelSkeleton
		archive.Unmarshal(buf, &sk)
		if len(m.Zones) == 0 {
			m.adoptSkeleton(&sk)
		} else if !m.matchesSkeleton(&sk) {
			local = errs.MpiAckMismatch
		}
	}
	return mpiutil.Ack(local)
}

// --- loadModel / rebuildModel -----------------------------------------------

// cgnsPath builds this rank's own per-zone, per-step file path under
// the one-file-per-(zone,rank) convention the in-memory cgns.MemStore
// fake uses (mirroring the teacher's own per-rank log file naming,
// "<key>_p<rank>.log"). A real HDF5 collaborator that consolidates
// several ranks' data into one shared file would assign a different
// (possibly non-identity) reading rank per zone; that generalization is
// left to the real cgns.ReadWriter this package's fake stands in for.
func cgnsPath(idx *dfi.Index, step int, zoneName string) string {
	return fmt.Sprintf("%s/%s_%s_p%d_%010d.cgns", idx.File.Directory, idx.File.Prefix, zoneName, mpiutil.Rank(), step)
}

// LoadModel implements spec.md §4.K loadModel: for each zone named in
// the index file, this rank reads its own partition file, builds a
// Zone from the CGNS payload, then hands off to RebuildModel (skeleton
// broadcast, per-zone rebuild, virtual-cell transfer).
func (m *Model) LoadModel(rw cgns.ReadWriter, idx *dfi.Index, step int) errs.Code {
	m.Zones = nil
	for _, zoneName := range idx.Zones {
		data, code := rw.ReadZone(cgnsPath(idx, step, zoneName), zoneName)
		if code := errs.LogCond(!code.IsOK(), code, "model: readCgns", zoneName); code != errs.OK {
			return code
		}
		m.Zones = append(m.Zones, zoneFromData(zoneName, data))
	}
	m.Step = step
	if s := idx.LatestStep(); s >= 0 {
		for _, slice := range idx.Slices {
			if slice.Step == step {
				m.Time = slice.Time
				m.HasAvg, m.AvgStep, m.AvgTime = slice.HasAvg, slice.AvgStep, slice.AvgTime
			}
		}
	}
	return m.RebuildModel()
}

// RebuildModel implements the internal sequence spec.md §4.K describes:
// broadcast the skeleton, rebuild every zone, then run one
// virtual-cell-transfer round per zone so each rank's halo reflects its
// neighbors' boundary cells.
func (m *Model) RebuildModel() errs.Code {
	if code := m.BroadcastModel(); code != errs.OK {
		return code
	}
	for _, z := range m.Zones {
		if code := z.RebuildZone(nil); code != errs.OK {
			return code
		}
	}
	for _, z := range m.Zones {
		z.RebuildVirtualHalo()
	}
	return errs.OK
}

// PartitionModel runs one repartitioning round per zone against p,
// migrating cells per zone.PartitionZone. A zone whose plan proposes no
// moves logs errs.NoChangeFromPartitioner and is left untouched (spec.md
// §8 S4); any other error aborts immediately.
func (m *Model) PartitionModel(p partition.Partitioner) errs.Code {
	numRanks := mpiutil.Size()
	if numRanks == 0 {
		numRanks = 1
	}
	for _, z := range m.Zones {
		code := z.PartitionZone(mpiutil.Rank(), numRanks, p)
		if code == errs.NoChangeFromPartitioner {
			errs.LogCode(code, "model: partitionZone", z.Name)
			continue
		}
		if code != errs.OK {
			return code
		}
	}
	return errs.OK
}

// zoneFromData builds a fresh, rank-local Zone from one CGNS payload:
// grid coordinates, declared fields, element connectivity (resolved
// against the just-loaded coordinate array via
// GridCoordinates.FindNodeByGlobalId), solution values, user arrays,
// and the persisted RankConnectivity boundary-node table.
func zoneFromData(name string, data *cgns.ZoneData) *zone.Zone {
	z := zone.New(name, mpiutil.Rank(), data.CellDim, data.PhysDim)

	z.Grid.SetGridCoordinatesArray(data.CoordRank, entity.Float64, data.X, data.Y, data.Z)

	for _, fc := range data.Fields {
		z.Catalog.Declare(fc)
	}

	for _, blk := range data.Elements {
		for i := range blk.OwnIds {
			c := cell.NewCell(blk.Type)
			nodes := make([]*node.Node, len(blk.ConnRanks[i]))
			for j := range nodes {
				nodes[j] = z.Grid.FindNodeByGlobalId(blk.ConnRanks[i][j], blk.ConnIds[i][j])
			}
			c.SetNodes(nodes)
			c.SetMyRankno(blk.OwnRanks[i])
			c.SetId(blk.OwnIds[i])
			z.Sections.InsertCell(c)
		}
	}

	for _, sol := range data.Sols {
		for key, vals := range sol.ByEntity {
			rank, id := int(key[0]), key[1]
			var target *entity.Entity
			if sol.Location == entity.Vertex {
				if n := z.Grid.FindNodeByGlobalId(rank, id); n != nil {
					target = &n.Entity
				}
			} else {
				for _, c := range z.Sections.EntityCells() {
					cr, cid := c.GlobalId()
					if cr == rank && cid == id {
						target = &c.Entity
						break
					}
				}
			}
			if target == nil {
				continue
			}
			if len(vals) == 1 {
				entity.SetSolutionScalar[float64](target, sol.Name, vals[0])
			} else {
				entity.SetSolutionVector[float64](target, sol.Name, vals)
			}
		}
	}

	for _, ua := range data.Users {
		if ua.IsString {
			z.UserData.SetStrings(ua.Name, ua.Dims, ua.Strings)
		} else {
			zone.SetArray[float64](z.UserData, ua.Name, ua.Dims, ua.DataType, ua.Values)
		}
	}

	for _, p := range data.RankConnPairs {
		if n := z.Grid.ActualNodeAt(p.LocalId); n != nil {
			n.AddMpiRankInfo(p.PeerRank, p.PeerId)
			z.RankConn.RegisterBoundaryNode(n)
		}
	}

	return z
}

// --- writeModel --------------------------------------------------------------

// WriteMode selects the CGNS output layout spec.md §4.K names: grid and
// solution combined in one file, each written separately, or a link
// file that references both via relative CGNS links.
type WriteMode int

const (
	Combined WriteMode = iota
	GridOnly
	SolutionOnly
	Linked
)

// WriteModel implements spec.md §4.K writeModel: for each zone, builds
// the CGNS payload for the chosen output mode and writes it, then rank
// 0 re-emits the index file with an updated time-slice record.
func (m *Model) WriteModel(rw cgns.ReadWriter, idx *dfi.Index, step int, time float64, mode WriteMode) errs.Code {
	for _, z := range m.Zones {
		data := dataFromZone(z)
		path := cgnsPath(idx, step, z.Name)
		switch mode {
		case GridOnly:
			data.Sols = nil
		case SolutionOnly:
			data.Elements = nil
			data.X, data.Y, data.Z = nil, nil, nil
		case Linked:
			// a real CGNS writer would emit grid.cgns + sol.cgns plus a
			// third file of CGNS links between them; the fake collaborator
			// has no separate link-node concept, so Linked degenerates to
			// Combined against a single path.
		}
		if code := rw.WriteZone(path, z.Name, data); code != errs.OK {
			return code
		}
	}

	if mpiutil.Rank() != 0 {
		return mpiutil.Ack(errs.OK)
	}

	idx.Domain.CellDim = m.CellDim
	idx.Zones = nil
	for _, z := range m.Zones {
		idx.Zones = append(idx.Zones, z.Name)
	}
	idx.RecordSlice(dfi.TimeSlice{Step: step, Time: time, HasAvg: m.HasAvg, AvgStep: m.AvgStep, AvgTime: m.AvgTime})

	return mpiutil.Ack(dfi.Save(idxPath(idx), idx))
}

func idxPath(idx *dfi.Index) string {
	return fmt.Sprintf("%s/%s.dfi", idx.File.Directory, idx.File.Prefix)
}

// fieldConfigs flattens a FlowSolutions catalog into the declaration
// order entity.FlowSolutions.Names() already guarantees.
func fieldConfigs(cat *entity.FlowSolutions) []entity.FieldConfig {
	var out []entity.FieldConfig
	for _, name := range cat.Names() {
		out = append(out, *cat.Get(name))
	}
	return out
}

// dataFromZone builds the CGNS payload for one zone: coordinates,
// connectivity resolved back into (rank,id) pairs, declared fields, the
// solution values keyed by owning entity, user arrays, and the boundary
// table RankConnectivity needs to reconstruct its mpi-rank lists on the
// next load.
func dataFromZone(z *zone.Zone) *cgns.ZoneData {
	data := &cgns.ZoneData{
		Name: z.Name, CellDim: z.CellDim, PhysDim: z.PhysDim,
		CoordRank: mpiutil.Rank(), Fields: fieldConfigs(z.Catalog),
	}

	n := z.Grid.NumActualNodes()
	data.X, data.Y, data.Z = make([]float64, n), make([]float64, n), make([]float64, n)
	for i, nd := range z.Grid.ActualNodes() {
		data.X[i], data.Y[i], data.Z[i] = nd.Coords.X(), nd.Coords.Y(), nd.Coords.Z()
	}

	byType := make(map[string]*cgns.ElementBlock)
	var order []string
	for _, c := range z.Sections.EntityCells() {
		typeName := c.ElementType().String()
		blk, ok := byType[typeName]
		if !ok {
			blk = &cgns.ElementBlock{Name: typeName, Type: c.ElementType()}
			byType[typeName] = blk
			order = append(order, typeName)
		}
		ranks := make([]int, c.NumNodes())
		ids := make([]uint64, c.NumNodes())
		for i := 0; i < c.NumNodes(); i++ {
			ranks[i], ids[i] = c.NodeAt(i).GetMyRankno(), c.NodeAt(i).GetId()
		}
		cr, cid := c.GlobalId()
		blk.ConnRanks = append(blk.ConnRanks, ranks)
		blk.ConnIds = append(blk.ConnIds, ids)
		blk.OwnRanks = append(blk.OwnRanks, cr)
		blk.OwnIds = append(blk.OwnIds, cid)
	}
	for _, name := range order {
		data.Elements = append(data.Elements, *byType[name])
	}

	for _, fc := range fieldConfigs(z.Catalog) {
		blk := cgns.SolutionBlock{Name: fc.Name, DataType: fc.DataType, Location: fc.Location, VectorSize: fc.VectorSize, ByEntity: make(map[[2]uint64][]float64)}
		if fc.Location == entity.Vertex {
			for _, nd := range z.Grid.ActualNodes() {
				if vals, code := entity.GetSolutionVector[float64](&nd.Entity, fc.Name); code == errs.OK {
					blk.ByEntity[cgns.PackKey(nd.GetMyRankno(), nd.GetId())] = vals
				}
			}
		} else {
			for _, c := range z.Sections.EntityCells() {
				if vals, code := entity.GetSolutionVector[float64](&c.Entity, fc.Name); code == errs.OK {
					cr, cid := c.GlobalId()
					blk.ByEntity[cgns.PackKey(cr, cid)] = vals
				}
			}
		}
		if len(blk.ByEntity) > 0 {
			data.Sols = append(data.Sols, blk)
		}
	}

	for _, name := range z.UserData.Names() {
		if dims, strs := z.UserData.GetStrings(name); strs != nil {
			data.Users = append(data.Users, cgns.UserArray{Name: name, Dims: dims, IsString: true, Strings: strs})
			continue
		}
		dims, vals := zone.GetArray[float64](z.UserData, name)
		data.Users = append(data.Users, cgns.UserArray{Name: name, Dims: dims, Values: vals})
	}

	for _, b := range z.RankConn.BoundaryNodes() {
		for i := 0; i < b.MpiRankInfos().Len(); i++ {
			peer := b.MpiRankInfos().At(i)
			data.RankConnPairs = append(data.RankConnPairs, cgns.RankConnPair{LocalId: b.GetId(), PeerRank: peer.Rank, PeerId: peer.Local})
		}
	}

	return data
}

// --- checkpoint/restart ------------------------------------------------------

// gobSnapshot is the full-fidelity, non-CGNS checkpoint payload
// SaveGob/LoadGob round-trip: every zone's CGNS-equivalent data plus the
// model's own time-series position, mirroring gofem's fem.SaveSol /
// ReadSum gob round trip of solver state (spec.md §2 ambient stack).
type gobSnapshot struct {
	BaseName string
	CellDim  int
	PhysDim  int
	Step     int
	Time     float64
	HasAvg   bool
	AvgStep  int
	AvgTime  float64
	Zones    []gobZone
}

type gobZone struct {
	Name string
	Data *cgns.ZoneData
}

// SaveGob serializes the entire model (every zone's mesh, solution, and
// user data) into buf using encoding/gob, for checkpoint/restart outside
// the CGNS file format.
func (m *Model) SaveGob() ([]byte, errs.Code) {
	snap := gobSnapshot{
		BaseName: m.BaseName, CellDim: m.CellDim, PhysDim: m.PhysDim,
		Step: m.Step, Time: m.Time, HasAvg: m.HasAvg, AvgStep: m.AvgStep, AvgTime: m.AvgTime,
	}
	for _, z := range m.Zones {
		snap.Zones = append(snap.Zones, gobZone{Name: z.Name, Data: dataFromZone(z)})
	}
	var buf bytes.Buffer
	if code := errs.LogErr(gob.NewEncoder(&buf).Encode(&snap), "model: SaveGob"); code != errs.OK {
		return nil, errs.Serialize
	}
	return buf.Bytes(), errs.OK
}

// LoadGob restores a Model from a buffer produced by SaveGob, rebuilding
// every zone from its embedded CGNS-equivalent payload and running the
// same rebuild sequence LoadModel does.
func (m *Model) LoadGob(buf []byte) errs.Code {
	var snap gobSnapshot
	if code := errs.LogErr(gob.NewDecoder(bytes.NewReader(buf)).Decode(&snap), "model: LoadGob"); code != errs.OK {
		return errs.Deserialize
	}
	m.BaseName, m.CellDim, m.PhysDim = snap.BaseName, snap.CellDim, snap.PhysDim
	m.Step, m.Time, m.HasAvg, m.AvgStep, m.AvgTime = snap.Step, snap.Time, snap.HasAvg, snap.AvgStep, snap.AvgTime
	m.Zones = nil
	for _, gz := range snap.Zones {
		m.Zones = append(m.Zones, zoneFromData(gz.Name, gz.Data))
	}
	return m.RebuildModel()
}
