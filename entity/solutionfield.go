// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package entity

import "github.com/avr-aics-riken/udm/archive"

// SolutionField is a named typed array of length 1 (Scalar), 3 (Vector)
// or N (General), per spec.md §4.D. Storage is one raw slice of the
// declared datatype; exactly one of i32/i64/f32/f64 is populated.
type SolutionField struct {
	Id         int
	Name       string
	DataType   DataType
	VectorType VectorType

	i32 []int32
	i64 []int64
	f32 []float32
	f64 []float64
}

// NewSolutionField is the factory-by-datatype of spec.md §4.D.
func NewSolutionField(id int, name string, dt DataType, size int) *SolutionField {
	f := &SolutionField{Id: id, Name: name, DataType: dt}
	f.SetDataSize(size)
	return f
}

// Size returns the number of elements currently stored.
func (f *SolutionField) Size() int {
	switch f.DataType {
	case Int32:
		return len(f.i32)
	case Int64:
		return len(f.i64)
	case Float32:
		return len(f.f32)
	default:
		return len(f.f64)
	}
}

// SetDataSize reallocates the backing array, zero-filling it, and
// reclassifies VectorType from the new size (spec.md §4.D).
func (f *SolutionField) SetDataSize(n int) {
	switch f.DataType {
	case Int32:
		f.i32 = make([]int32, n)
	case Int64:
		f.i64 = make([]int64, n)
	case Float32:
		f.f32 = make([]float32, n)
	default:
		f.f64 = make([]float64, n)
	}
	f.VectorType = classify(n)
}

// Clone deep-copies the value array.
func (f *SolutionField) Clone() *SolutionField {
	out := &SolutionField{Id: f.Id, Name: f.Name, DataType: f.DataType, VectorType: f.VectorType}
	out.i32 = append([]int32(nil), f.i32...)
	out.i64 = append([]int64(nil), f.i64...)
	out.f32 = append([]float32(nil), f.f32...)
	out.f64 = append([]float64(nil), f.f64...)
	return out
}

// Float64At returns element i converted to float64, regardless of the
// field's native datatype; used by coordinate/value-equality checks
// that do not care about storage width.
func (f *SolutionField) Float64At(i int) float64 {
	switch f.DataType {
	case Int32:
		return float64(f.i32[i])
	case Int64:
		return float64(f.i64[i])
	case Float32:
		return float64(f.f32[i])
	default:
		return f.f64[i]
	}
}

// SetFloat64At assigns element i from a float64, converting to the
// field's native datatype (truncating for integer types).
func (f *SolutionField) SetFloat64At(i int, v float64) {
	switch f.DataType {
	case Int32:
		f.i32[i] = int32(v)
	case Int64:
		f.i64[i] = int64(v)
	case Float32:
		f.f32[i] = float32(v)
	default:
		f.f64[i] = v
	}
}

// Get reads element i as T, converting from the field's native storage.
func Get[T Numeric](f *SolutionField, i int) T {
	return T(f.Float64At(i))
}

// Set writes element i from a T value, converting to the field's native
// storage.
func Set[T Numeric](f *SolutionField, i int, v T) {
	f.SetFloat64At(i, float64(v))
}

// Serialize writes: id, datatype, name, vector-type, size, raw values —
// exactly the field layout spec.md §4.D specifies.
func (f *SolutionField) Serialize(a *archive.Archive) {
	a.WriteInt32(int32(f.Id))
	a.WriteInt32(int32(f.DataType))
	a.WriteString(f.Name, 64)
	a.WriteInt32(int32(f.VectorType))
	n := f.Size()
	a.WriteInt32(int32(n))
	for i := 0; i < n; i++ {
		switch f.DataType {
		case Int32:
			a.WriteInt32(f.i32[i])
		case Int64:
			a.WriteInt64(f.i64[i])
		case Float32:
			a.WriteFloat32(f.f32[i])
		default:
			a.WriteFloat64(f.f64[i])
		}
	}
}

// Deserialize reverses Serialize, reallocating storage to match.
func (f *SolutionField) Deserialize(a *archive.Archive) {
	f.Id = int(a.ReadInt32())
	f.DataType = DataType(a.ReadInt32())
	f.Name = a.ReadString(64)
	f.VectorType = VectorType(a.ReadInt32())
	n := int(a.ReadInt32())
	f.SetDataSize(n)
	for i := 0; i < n; i++ {
		if a.Overflow() {
			return
		}
		switch f.DataType {
		case Int32:
			f.i32[i] = a.ReadInt32()
		case Int64:
			f.i64[i] = a.ReadInt64()
		case Float32:
			f.f32[i] = a.ReadFloat32()
		default:
			f.f64[i] = a.ReadFloat64()
		}
	}
}
