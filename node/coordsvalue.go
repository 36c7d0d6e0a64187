// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package node implements Module E: Node and its CoordsValue, the typed
// 3-coordinate value every node carries alongside the Entity base it
// embeds from package entity.
package node

import (
	"github.com/avr-aics-riken/udm/archive"
	"github.com/avr-aics-riken/udm/entity"
)

// CoordsValue holds one node's (x, y, z) position in one of the four
// declared numeric datatypes (spec.md §4.E). Like SolutionField, storage
// is a tagged union of four typed slices rather than interface{}.
type CoordsValue struct {
	DataType entity.DataType

	i32 [3]int32
	i64 [3]int64
	f32 [3]float32
	f64 [3]float64
}

// NewCoordsValue returns a zero-valued CoordsValue of the given datatype.
func NewCoordsValue(dt entity.DataType) CoordsValue {
	return CoordsValue{DataType: dt}
}

// Set assigns all three components, converting to the native datatype.
func (c *CoordsValue) Set(x, y, z float64) {
	switch c.DataType {
	case entity.Int32:
		c.i32 = [3]int32{int32(x), int32(y), int32(z)}
	case entity.Int64:
		c.i64 = [3]int64{int64(x), int64(y), int64(z)}
	case entity.Float32:
		c.f32 = [3]float32{float32(x), float32(y), float32(z)}
	default:
		c.f64 = [3]float64{x, y, z}
	}
}

// X, Y, Z return the components converted to float64 regardless of the
// native storage width.
func (c *CoordsValue) X() float64 { return c.at(0) }
func (c *CoordsValue) Y() float64 { return c.at(1) }
func (c *CoordsValue) Z() float64 { return c.at(2) }

func (c *CoordsValue) at(i int) float64 {
	switch c.DataType {
	case entity.Int32:
		return float64(c.i32[i])
	case entity.Int64:
		return float64(c.i64[i])
	case entity.Float32:
		return float64(c.f32[i])
	default:
		return c.f64[i]
	}
}

// Compare orders two CoordsValues lexicographically on (Z, Y, X) — Z
// first, per spec.md §4.E's "common spatial-sort convention".
func (c CoordsValue) Compare(o CoordsValue) int {
	if d := c.Z() - o.Z(); d != 0 {
		return sign(d)
	}
	if d := c.Y() - o.Y(); d != 0 {
		return sign(d)
	}
	if d := c.X() - o.X(); d != 0 {
		return sign(d)
	}
	return 0
}

// Less reports c < o under the (Z, Y, X) lexicographic order.
func (c CoordsValue) Less(o CoordsValue) bool { return c.Compare(o) < 0 }

func sign(d float64) int {
	if d < 0 {
		return -1
	}
	return 1
}

// Serialize writes datatype then the three native-width components.
func (c *CoordsValue) Serialize(a *archive.Archive) {
	a.WriteInt32(int32(c.DataType))
	switch c.DataType {
	case entity.Int32:
		for _, v := range c.i32 {
			a.WriteInt32(v)
		}
	case entity.Int64:
		for _, v := range c.i64 {
			a.WriteInt64(v)
		}
	case entity.Float32:
		for _, v := range c.f32 {
			a.WriteFloat32(v)
		}
	default:
		for _, v := range c.f64 {
			a.WriteFloat64(v)
		}
	}
}

// Deserialize reverses Serialize.
func (c *CoordsValue) Deserialize(a *archive.Archive) {
	c.DataType = entity.DataType(a.ReadInt32())
	switch c.DataType {
	case entity.Int32:
		for i := range c.i32 {
			c.i32[i] = a.ReadInt32()
		}
	case entity.Int64:
		for i := range c.i64 {
			c.i64[i] = a.ReadInt64()
		}
	case entity.Float32:
		for i := range c.f32 {
			c.f32[i] = a.ReadFloat32()
		}
	default:
		for i := range c.f64 {
			c.f64[i] = a.ReadFloat64()
		}
	}
}
