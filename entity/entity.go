// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package entity

import (
	"github.com/avr-aics-riken/udm/archive"
	"github.com/avr-aics-riken/udm/elemtype"
	"github.com/avr-aics-riken/udm/errs"
	"github.com/avr-aics-riken/udm/gid"
)

// Reality distinguishes an owned entity from a read-only ghost copy of
// one owned by a neighbor rank (spec.md §3).
type Reality int

const (
	Actual Reality = iota
	Virtual
)

func (r Reality) String() string {
	if r == Actual {
		return "Actual"
	}
	return "Virtual"
}

// Entity is the base shared by Node and Cell (Module C): identity, owner
// rank, element type, reality, solution values, mpi-rank/previous-rank
// history and partition weight. Node and Cell embed it and add their own
// geometry/connectivity.
type Entity struct {
	id       uint64
	myRankNo int
	elemType elemtype.Type
	reality  Reality
	location Location

	weight float32
	remove bool

	fields []*SolutionField

	mpiRankInfos      *gid.List
	previousRankInfos *gid.List

	// Catalog is a non-owning back-reference to the Zone's FlowSolutions,
	// used to validate every solution Set/Get (spec.md §4.C). Assigned by
	// the owning container (GridCoordinates/Sections) when the entity is
	// inserted.
	Catalog *FlowSolutions
}

// NewEntity returns a zero-value Entity for the given grid location.
func NewEntity(loc Location, et elemtype.Type) Entity {
	return Entity{
		elemType:          et,
		location:          loc,
		mpiRankInfos:      gid.NewList(),
		previousRankInfos: gid.NewList(),
	}
}

func (e *Entity) GetId() uint64    { return e.id }
func (e *Entity) SetId(id uint64)  { e.id = id }
func (e *Entity) GetMyRankno() int { return e.myRankNo }
func (e *Entity) SetMyRankno(r int) {
	e.myRankNo = r
}

func (e *Entity) ElementType() elemtype.Type    { return e.elemType }
func (e *Entity) SetElementType(t elemtype.Type) { e.elemType = t }

func (e *Entity) RealityType() Reality      { return e.reality }
func (e *Entity) SetRealityType(r Reality)  { e.reality = r }
func (e *Entity) Location() Location        { return e.location }

func (e *Entity) PartitionWeight() float32     { return e.weight }
func (e *Entity) SetPartitionWeight(w float32) { e.weight = w }
func (e *Entity) ClearPartitionWeight()        { e.weight = 0 }

func (e *Entity) IsRemoveEntity() bool   { return e.remove }
func (e *Entity) SetRemoveEntity(v bool) { e.remove = v }

// MpiRankInfos exposes the boundary-node peer list (non-owning view).
func (e *Entity) MpiRankInfos() *gid.List { return e.mpiRankInfos }

// PreviousRankInfos exposes the migration history list.
func (e *Entity) PreviousRankInfos() *gid.List { return e.previousRankInfos }

func (e *Entity) AddMpiRankInfo(rank int, local uint64) errs.Code {
	e.mpiRankInfos.Add(rank, local)
	return errs.OK
}

func (e *Entity) RemoveMpiRankInfo(rank int, local uint64) errs.Code {
	if !e.mpiRankInfos.Remove(rank, local) {
		return errs.InvalidParameter
	}
	return errs.OK
}

func (e *Entity) ExistsMpiRankInfo(rank int, local uint64) bool {
	return e.mpiRankInfos.Exists(rank, local)
}

func (e *Entity) UpdateMpiRankInfo(oldRank int, oldLocal uint64, newRank int, newLocal uint64) errs.Code {
	if !e.mpiRankInfos.Update(oldRank, oldLocal, newRank, newLocal) {
		return errs.InvalidParameter
	}
	return errs.OK
}

func (e *Entity) ClearMpiRankInfos() { e.mpiRankInfos.Clear() }

// EraseInvalidMpiRankInfos drops self-references and malformed entries,
// per spec.md §4.A eraseInvalidGlobalRankids.
func (e *Entity) EraseInvalidMpiRankInfos() {
	e.mpiRankInfos.EraseInvalid(e.myRankNo)
}

// AddPreviousRankInfo records (rank, local) in the sorted history list.
// An exact (rank, local) duplicate is not stored a second time.
func (e *Entity) AddPreviousRankInfo(rank int, local uint64) {
	e.previousRankInfos.Add(rank, local)
	// Add() is a binary-search insertion and is itself a no-op on an
	// exact duplicate; history entries differing only in which rank
	// reused the id are still recorded distinctly.
}

func (e *Entity) ClearPreviousInfos() { e.previousRankInfos.Clear() }

func (e *Entity) ExistsPreviousRankInfo(rank int, local uint64) bool {
	return e.previousRankInfos.Exists(rank, local)
}

// CompareGlobalId ranks first by rank then by id, per spec.md §4.C.
func (e *Entity) CompareGlobalId(otherRank int, otherId uint64) int {
	if e.myRankNo != otherRank {
		return e.myRankNo - otherRank
	}
	if e.id < otherId {
		return -1
	}
	if e.id > otherId {
		return 1
	}
	return 0
}

// CompareIds is a strict-weak order on Id alone, suitable for sorting
// entity pools by local id.
func CompareIds(a, b *Entity) bool { return a.id < b.id }

// --- solution field access -------------------------------------------------

func (e *Entity) findField(name string) *SolutionField {
	for _, f := range e.fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// validate checks name against the Catalog, returning the declared
// config or an error code (not-found-solution / invalid-parameter for a
// location mismatch).
func (e *Entity) validate(name string) (*FieldConfig, errs.Code) {
	if e.Catalog == nil {
		return nil, errs.NotFoundSolution
	}
	cfg := e.Catalog.Get(name)
	if cfg == nil {
		return nil, errs.NotFoundSolution
	}
	if cfg.Location != e.location {
		return nil, errs.InvalidParameter
	}
	return cfg, errs.OK
}

// ExistsSolutionData reports whether this entity already has a stored
// value for name (does not consult the catalog).
func (e *Entity) ExistsSolutionData(name string) bool {
	return e.findField(name) != nil
}

// RemoveSolutionData deletes a stored field by name.
func (e *Entity) RemoveSolutionData(name string) errs.Code {
	for i, f := range e.fields {
		if f.Name == name {
			e.fields = append(e.fields[:i], e.fields[i+1:]...)
			return errs.OK
		}
	}
	return errs.NotFoundSolution
}

// ClearSolutionData drops every stored field.
func (e *Entity) ClearSolutionData() { e.fields = nil }

// NumSolutionDatas returns how many fields this entity currently stores.
func (e *Entity) NumSolutionDatas() int { return len(e.fields) }

// ensureField returns the existing field for name, auto-inserting a new
// slot (sized from the catalog) on first write, per spec.md §4.C.
func (e *Entity) ensureField(name string) (*SolutionField, errs.Code) {
	cfg, code := e.validate(name)
	if code != errs.OK {
		return nil, code
	}
	if f := e.findField(name); f != nil {
		return f, errs.OK
	}
	f := NewSolutionField(len(e.fields), name, cfg.DataType, cfg.VectorSize)
	e.fields = append(e.fields, f)
	return f, errs.OK
}

// SetSolutionScalar sets a 1-element field. Fails if name is undeclared
// or declared at a different grid-location.
func SetSolutionScalar[T Numeric](e *Entity, name string, v T) errs.Code {
	f, code := e.ensureField(name)
	if code != errs.OK {
		return code
	}
	Set(f, 0, v)
	return errs.OK
}

// GetSolutionScalar reads a 1-element field. Read access to an
// undeclared or never-written name returns not-found (it does not
// auto-create), per spec.md §4.C.
func GetSolutionScalar[T Numeric](e *Entity, name string) (T, errs.Code) {
	f := e.findField(name)
	if f == nil {
		var zero T
		return zero, errs.NotFoundSolution
	}
	return Get[T](f, 0), errs.OK
}

// SetSolutionVector sets an N-element field.
func SetSolutionVector[T Numeric](e *Entity, name string, values []T) errs.Code {
	f, code := e.ensureField(name)
	if code != errs.OK {
		return code
	}
	if f.Size() != len(values) {
		f.SetDataSize(len(values))
	}
	for i, v := range values {
		Set(f, i, v)
	}
	return errs.OK
}

// GetSolutionVector reads an N-element field.
func GetSolutionVector[T Numeric](e *Entity, name string) ([]T, errs.Code) {
	f := e.findField(name)
	if f == nil {
		return nil, errs.NotFoundSolution
	}
	out := make([]T, f.Size())
	for i := range out {
		out[i] = Get[T](f, i)
	}
	return out, errs.OK
}

// InitializeValue broadcasts v over every component of the declared
// vector type (e.g. setting a 3-vector field to (v,v,v)).
func InitializeValue[T Numeric](e *Entity, name string, v T) errs.Code {
	cfg, code := e.validate(name)
	if code != errs.OK {
		return code
	}
	f, code := e.ensureField(name)
	if code != errs.OK {
		return code
	}
	if f.Size() != cfg.VectorSize {
		f.SetDataSize(cfg.VectorSize)
	}
	for i := 0; i < f.Size(); i++ {
		Set(f, i, v)
	}
	return errs.OK
}

// CloneInto deep-copies entity-base state (fields, rank-info lists,
// identity) from e into dst; used by Node/Cell clone when importing.
func (e *Entity) CloneInto(dst *Entity) {
	dst.id = e.id
	dst.myRankNo = e.myRankNo
	dst.elemType = e.elemType
	dst.reality = e.reality
	dst.location = e.location
	dst.weight = e.weight
	dst.remove = e.remove
	dst.Catalog = e.Catalog
	dst.fields = nil
	for _, f := range e.fields {
		dst.fields = append(dst.fields, f.Clone())
	}
	dst.mpiRankInfos = e.mpiRankInfos.Clone()
	dst.previousRankInfos = e.previousRankInfos.Clone()
}

// SerializeBase writes the entity-base wire layout: id, rank, elemtype,
// reality, partition-weight, then solution fields, mpi-rank infos, and
// previous-rank infos each as a count-prefixed sequence (spec.md §4.B:
// composite objects prefix counts before element sequences).
func (e *Entity) SerializeBase(a *archive.Archive) {
	a.WriteUint64(e.id)
	a.WriteInt32(int32(e.myRankNo))
	a.WriteInt32(int32(e.elemType))
	a.WriteInt32(int32(e.reality))
	a.WriteFloat32(e.weight)

	a.WriteInt32(int32(len(e.fields)))
	for _, f := range e.fields {
		f.Serialize(a)
	}

	a.WriteInt32(int32(e.mpiRankInfos.Len()))
	for i := 0; i < e.mpiRankInfos.Len(); i++ {
		id := e.mpiRankInfos.At(i)
		a.WriteInt32(int32(id.Rank))
		a.WriteUint64(id.Local)
	}

	a.WriteInt32(int32(e.previousRankInfos.Len()))
	for i := 0; i < e.previousRankInfos.Len(); i++ {
		id := e.previousRankInfos.At(i)
		a.WriteInt32(int32(id.Rank))
		a.WriteUint64(id.Local)
	}
}

// DeserializeBase reverses SerializeBase.
func (e *Entity) DeserializeBase(a *archive.Archive) {
	e.id = a.ReadUint64()
	e.myRankNo = int(a.ReadInt32())
	e.elemType = elemtype.Type(a.ReadInt32())
	e.reality = Reality(a.ReadInt32())
	e.weight = a.ReadFloat32()

	nf := int(a.ReadInt32())
	e.fields = make([]*SolutionField, 0, nf)
	for i := 0; i < nf && !a.Overflow(); i++ {
		f := &SolutionField{}
		f.Deserialize(a)
		e.fields = append(e.fields, f)
	}

	if e.mpiRankInfos == nil {
		e.mpiRankInfos = gid.NewList()
	}
	nm := int(a.ReadInt32())
	for i := 0; i < nm && !a.Overflow(); i++ {
		rank := int(a.ReadInt32())
		local := a.ReadUint64()
		e.mpiRankInfos.Add(rank, local)
	}

	if e.previousRankInfos == nil {
		e.previousRankInfos = gid.NewList()
	}
	np := int(a.ReadInt32())
	for i := 0; i < np && !a.Overflow(); i++ {
		rank := int(a.ReadInt32())
		local := a.ReadUint64()
		e.previousRankInfos.Add(rank, local)
	}
}
