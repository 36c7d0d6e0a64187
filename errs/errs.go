// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errs implements the enumerated error-code scheme used by every
// fallible operation in the udm mesh library.
package errs

import "fmt"

// Code is a single enumerated error returned from every fallible operation.
type Code int

// error kinds (fatal range)
const (
	OK Code = iota
	InvalidParameter
	NullVariable
	FileOpen
	CgnsInvalidBase
	CgnsInvalidZone
	CgnsInvalidGrid
	CgnsInvalidElements
	CgnsInvalidSolution
	CgnsInvalidIterativeData
	CgnsInvalidUserDefinedData
	InvalidMpi
	MpiAckMismatch
	Serialize
	Deserialize
	NotFoundSolution
	InvalidElementType
	NotSupportedElementType
)

// warning kinds (non-fatal range); start well above the fatal range so a
// caller can distinguish "fatal" from "warning" with a single comparison.
const (
	MissingIterativeData Code = iota + 1000
	SimulationTypeUnknown
	NoChangeFromPartitioner
	EmptyCell
)

var names = map[Code]string{
	OK:                         "ok",
	InvalidParameter:           "invalid-parameter",
	NullVariable:               "null-variable",
	FileOpen:                   "file-open",
	CgnsInvalidBase:            "cgns-invalid-base",
	CgnsInvalidZone:            "cgns-invalid-zone",
	CgnsInvalidGrid:            "cgns-invalid-grid",
	CgnsInvalidElements:        "cgns-invalid-elements",
	CgnsInvalidSolution:        "cgns-invalid-solution",
	CgnsInvalidIterativeData:   "cgns-invalid-iterativedata",
	CgnsInvalidUserDefinedData: "cgns-invalid-userdefineddata",
	InvalidMpi:                 "invalid-mpi",
	MpiAckMismatch:             "mpi-ack-mismatch",
	Serialize:                  "serialize",
	Deserialize:                "deserialize",
	NotFoundSolution:           "not-found-solution",
	InvalidElementType:         "invalid-element-type",
	NotSupportedElementType:    "not-supported-element-type",
	MissingIterativeData:       "missing-iterative-data",
	SimulationTypeUnknown:      "simulation-type-unknown",
	NoChangeFromPartitioner:    "no-change-from-partitioner",
	EmptyCell:                  "empty-cell",
}

// String implements fmt.Stringer.
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Error implements the error interface so a Code can be returned/compared
// exactly like any other Go error while still carrying the enum value.
func (c Code) Error() string {
	return c.String()
}

// IsWarning reports whether c is in the non-fatal warning range.
func (c Code) IsWarning() bool {
	return c >= 1000
}

// IsOK reports whether c represents success.
func (c Code) IsOK() bool {
	return c == OK
}

// Wrapped pairs a Code with the operation name and offending id that were
// active when the error was first produced; callers up the stack append
// context as the error propagates, per spec.md's leaf-logs/caller-wraps
// propagation policy.
type Wrapped struct {
	Code Code
	Op   string
	ID   interface{}
	Prev error
}

// Error implements the error interface.
func (w *Wrapped) Error() string {
	if w.ID != nil {
		return fmt.Sprintf("%s: %s (id=%v)", w.Op, w.Code, w.ID)
	}
	return fmt.Sprintf("%s: %s", w.Op, w.Code)
}

// Unwrap allows errors.Is/errors.As to see through to Code or a nested Wrapped.
func (w *Wrapped) Unwrap() error {
	if w.Prev != nil {
		return w.Prev
	}
	return w.Code
}

// Wrap attaches operation context to a Code, or passes nil through unchanged.
func Wrap(code Code, op string, id interface{}) error {
	if code == OK {
		return nil
	}
	return &Wrapped{Code: code, Op: op, ID: id}
}

// CodeOf extracts the Code from any error produced by this package,
// defaulting to InvalidParameter when err is a plain non-nil error that
// did not originate here.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	switch e := err.(type) {
	case Code:
		return e
	case *Wrapped:
		return e.Code
	}
	return InvalidParameter
}
