// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package entity implements Modules C and D of the mesh design: the
// Entity base shared by Node and Cell (identity, rank, solution values,
// previous-rank history, partition weight) and the typed SolutionField
// it stores values in. The four numeric datatypes form a closed set
// (spec.md §9 "dynamic typing of coordinates and solution values");
// represented here as a small enum plus per-type typed slices rather
// than an interface{} union, so bulk access never needs a runtime type
// switch once the caller picks a concrete Go type parameter.
package entity

// DataType is one of the four numeric datatypes a SolutionField or
// coordinate value may hold.
type DataType int

const (
	Int32 DataType = iota
	Int64
	Float32
	Float64
)

func (d DataType) String() string {
	switch d {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	}
	return "unknown"
}

// Location is the grid-location a solution field is defined at: per
// vertex (Node) or per cell-center (Cell).
type Location int

const (
	Vertex Location = iota
	CellCenter
)

func (l Location) String() string {
	if l == Vertex {
		return "Vertex"
	}
	return "CellCenter"
}

// VectorType classifies a SolutionField's arity, matching the CGNS
// convention a writer uses to name VX/VY/VZ components.
type VectorType int

const (
	Scalar VectorType = iota // size == 1
	Vector                   // size == 3
	General                  // any other size
)

func classify(size int) VectorType {
	switch size {
	case 1:
		return Scalar
	case 3:
		return Vector
	default:
		return General
	}
}

// Numeric is the closed set of Go types a SolutionField's typed
// accessors may be instantiated with.
type Numeric interface {
	~int32 | ~int64 | ~float32 | ~float64
}

// dataTypeOf maps a Go numeric type parameter to its DataType tag.
func dataTypeOf[T Numeric]() DataType {
	var zero T
	switch any(zero).(type) {
	case int32:
		return Int32
	case int64:
		return Int64
	case float32:
		return Float32
	case float64:
		return Float64
	}
	return Float64
}
