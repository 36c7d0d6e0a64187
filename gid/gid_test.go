// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gid

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_gid01(tst *testing.T) {

	chk.PrintTitle("gid01: List add/find/exists")

	l := NewList()
	if !l.Add(2, 5) {
		tst.Fatal("first insert of (2,5) must succeed")
	}
	if l.Add(2, 5) {
		tst.Fatal("reinserting (2,5) must be a no-op")
	}
	l.Add(2, 7)
	l.Add(0, 1)
	l.Add(2, 6)

	if !l.Exists(2, 6) {
		tst.Error("(2,6) must exist")
	}
	if l.Exists(3, 1) {
		tst.Error("(3,1) must not exist")
	}

	// sorted by (rank, local)
	want := []Id{{Rank: 0, Local: 1}, {Rank: 2, Local: 5}, {Rank: 2, Local: 6}, {Rank: 2, Local: 7}}
	if l.Len() != len(want) {
		tst.Fatalf("len mismatch: got %d want %d", l.Len(), len(want))
	}
	for i, w := range want {
		got := l.At(i)
		if got.Rank != w.Rank || got.Local != w.Local {
			tst.Errorf("At(%d) = %v, want %v", i, got, w)
		}
	}
}

func Test_gid02(tst *testing.T) {

	chk.PrintTitle("gid02: EraseInvalid and Update")

	l := NewList()
	l.Add(1, 1)
	l.Add(-1, 2)
	l.Add(3, 0)
	l.Add(3, 4)
	l.EraseInvalid(3)
	if l.Len() != 1 {
		tst.Fatalf("EraseInvalid: expected 1 survivor, got %d", l.Len())
	}
	if !l.Exists(1, 1) {
		tst.Error("(1,1) should have survived EraseInvalid")
	}

	l2 := NewList()
	l2.Add(1, 1)
	l2.Add(2, 2)
	if !l2.Update(1, 1, 1, 9) {
		tst.Fatal("Update should succeed for an existing id")
	}
	if l2.Exists(1, 1) || !l2.Exists(1, 9) {
		tst.Error("Update should move (1,1) to (1,9)")
	}

	// updating onto an id that already exists drops the old one instead
	// of duplicating (matches UdmGlobalRankid::updateGlobalRankid).
	if !l2.Update(1, 9, 2, 2) {
		tst.Fatal("Update onto an existing target should still report success")
	}
	if l2.Len() != 1 {
		tst.Fatalf("Update onto existing target must not duplicate; got len=%d", l2.Len())
	}
}

func Test_gid03(tst *testing.T) {

	chk.PrintTitle("gid03: Pair and PairList")

	p := NewPair(0, 10, 1, 3)
	if !p.EqualsSrc(0, 10) || !p.EqualsDest(1, 3) {
		tst.Fatal("pair component accessors failed")
	}
	q := NewPair(1, 3, 0, 10)
	if !p.Reciprocal(q) {
		tst.Error("p and q should be reciprocal")
	}

	var pl PairList
	pl.Add(p)
	pl.Add(q)
	if pl.CommSize() != 2*pairWireSize {
		tst.Errorf("CommSize mismatch: got %d want %d", pl.CommSize(), 2*pairWireSize)
	}
	if _, ok := pl.FindBySrc(1, 3); !ok {
		tst.Error("FindBySrc(1,3) should find q")
	}
}
