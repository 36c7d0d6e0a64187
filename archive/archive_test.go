// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

// point is a tiny Serializable used to exercise the two-pass discipline.
type point struct {
	X, Y, Z float64
	Tag     string
}

func (p *point) Serialize(a *Archive) {
	a.WriteFloat64(p.X)
	a.WriteFloat64(p.Y)
	a.WriteFloat64(p.Z)
	a.WriteString(p.Tag, 8)
}

func (p *point) Deserialize(a *Archive) {
	p.X = a.ReadFloat64()
	p.Y = a.ReadFloat64()
	p.Z = a.ReadFloat64()
	p.Tag = a.ReadString(8)
}

func Test_archive01(tst *testing.T) {

	chk.PrintTitle("archive01: dry-run -> allocate -> write -> read round trip")

	p := &point{X: 1.5, Y: -2.25, Z: 3.0, Tag: "node"}

	size := Size(p)
	if size != 8*3+8 {
		tst.Fatalf("unexpected dry-run size: got %d want %d", size, 32)
	}

	buf := Marshal(p)
	if len(buf) != size {
		tst.Fatalf("Marshal produced %d bytes, want %d", len(buf), size)
	}

	var out point
	Unmarshal(buf, &out)
	if out.X != p.X || out.Y != p.Y || out.Z != p.Z || out.Tag != p.Tag {
		tst.Errorf("round trip mismatch: got %+v want %+v", out, p)
	}
}

func Test_archive02(tst *testing.T) {

	chk.PrintTitle("archive02: writing into a too-small buffer overflows instead of crashing")

	p := &point{X: 1, Y: 2, Z: 3, Tag: "x"}
	full := Size(p)

	small := make([]byte, full-1)
	a := NewWriter(small)
	p.Serialize(a)
	if !a.Overflow() {
		tst.Fatal("expected overflow when writing into an undersized buffer")
	}

	// the zero-length / nil buffer (the "null buffer" case) must not panic
	a2 := NewWriter(nil)
	p.Serialize(a2)
	if !a2.Overflow() {
		tst.Fatal("expected overflow when writing into a nil buffer")
	}
	if a2.OverflowSize() != full {
		tst.Errorf("OverflowSize after failed write = %d, want %d", a2.OverflowSize(), full)
	}
}

func Test_archive03(tst *testing.T) {

	chk.PrintTitle("archive03: short read sets overflow status and stops early")

	p := &point{X: 1, Y: 2, Z: 3, Tag: "abcdefgh"}
	buf := Marshal(p)

	var out point
	a := NewReader(buf[:4]) // only part of the first float64
	out.X = a.ReadFloat64()
	if !a.Overflow() {
		tst.Fatal("expected overflow reading past the end of a truncated buffer")
	}
}
