// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zone

import "github.com/avr-aics-riken/udm/entity"

// userArray is one named entry of a UserData bag: a typed, flat array
// plus the per-dimension sizes needed to reshape it, mirroring
// UdmUserData's data_dimension/dimension_sizes/data_array triple from
// original_source/include/model/UdmUserDefinedDatas.h. Strings are
// carried as a fifth, string-only case since the four numeric
// DataTypes (entity.DataType) don't cover them.
type userArray struct {
	dataType entity.DataType
	isString bool
	dims     []int
	i32      []int32
	i64      []int64
	f32      []float32
	f64      []float64
	str      []string
}

// UserData is the arbitrary per-zone key->array bag every Zone owns
// (spec.md §3's UserData bag), expanded from UdmUserDefinedDatas.cpp's
// zone-level scratch storage into a typed Set/Get-by-name store.
type UserData struct {
	byName map[string]*userArray
	order  []string
}

// NewUserData returns an empty bag.
func NewUserData() *UserData {
	return &UserData{byName: make(map[string]*userArray)}
}

// Names returns declared array names in insertion order.
func (u *UserData) Names() []string {
	out := make([]string, len(u.order))
	copy(out, u.order)
	return out
}

// Remove deletes a named array.
func (u *UserData) Remove(name string) {
	if _, ok := u.byName[name]; !ok {
		return
	}
	delete(u.byName, name)
	for i, n := range u.order {
		if n == name {
			u.order = append(u.order[:i], u.order[i+1:]...)
			break
		}
	}
}

func (u *UserData) declare(name string, dims []int, dt entity.DataType, isString bool) *userArray {
	a, exists := u.byName[name]
	if !exists {
		a = &userArray{}
		u.byName[name] = a
		u.order = append(u.order, name)
	}
	a.dataType, a.isString, a.dims = dt, isString, dims
	return a
}

// SetStrings stores a flat array of strings under name.
func (u *UserData) SetStrings(name string, dims []int, values []string) {
	a := u.declare(name, dims, 0, true)
	a.str = append([]string(nil), values...)
}

// GetStrings returns the string array for name, or nil if undeclared
// or declared with a numeric type.
func (u *UserData) GetStrings(name string) ([]int, []string) {
	a, ok := u.byName[name]
	if !ok || !a.isString {
		return nil, nil
	}
	return a.dims, a.str
}

// SetArray stores a flat numeric array under name at DataType dt.
func SetArray[T entity.Numeric](u *UserData, name string, dims []int, dt entity.DataType, values []T) {
	a := u.declare(name, dims, dt, false)
	a.i32, a.i64, a.f32, a.f64 = nil, nil, nil, nil
	switch dt {
	case entity.Int32:
		a.i32 = make([]int32, len(values))
		for i, v := range values {
			a.i32[i] = toI32(v)
		}
	case entity.Int64:
		a.i64 = make([]int64, len(values))
		for i, v := range values {
			a.i64[i] = toI64(v)
		}
	case entity.Float32:
		a.f32 = make([]float32, len(values))
		for i, v := range values {
			a.f32[i] = toF32(v)
		}
	default:
		a.f64 = make([]float64, len(values))
		for i, v := range values {
			a.f64[i] = toF64(v)
		}
	}
}

// GetArray reads back the numeric array stored under name, converting
// into T regardless of the DataType it was declared with. Returns nil
// dims and a nil slice if name is undeclared or was declared as strings.
func GetArray[T entity.Numeric](u *UserData, name string) ([]int, []T) {
	a, ok := u.byName[name]
	if !ok || a.isString {
		return nil, nil
	}
	var out []T
	switch a.dataType {
	case entity.Int32:
		out = make([]T, len(a.i32))
		for i, v := range a.i32 {
			out[i] = T(v)
		}
	case entity.Int64:
		out = make([]T, len(a.i64))
		for i, v := range a.i64 {
			out[i] = T(v)
		}
	case entity.Float32:
		out = make([]T, len(a.f32))
		for i, v := range a.f32 {
			out[i] = T(v)
		}
	default:
		out = make([]T, len(a.f64))
		for i, v := range a.f64 {
			out[i] = T(v)
		}
	}
	return a.dims, out
}

func toI32[T entity.Numeric](v T) int32   { return int32(v) }
func toI64[T entity.Numeric](v T) int64   { return int64(v) }
func toF32[T entity.Numeric](v T) float32 { return float32(v) }
func toF64[T entity.Numeric](v T) float64 { return float64(v) }
