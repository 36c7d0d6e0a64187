// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mpiutil

import (
	"testing"

	"github.com/avr-aics-riken/udm/errs"
	"github.com/cpmech/gosl/chk"
)

// These tests run single-process, never calling mpi.Start, so IsDistributed
// is false throughout and every call below exercises the serial short-circuit
// paths mirroring mallano-gofem/fem/errorhandler.go's Stop/PanicOrNot split.
// The distributed paths are exercised by the mpirun-driven scenario in
// rankconn/t_migrate_main.go instead.

func Test_mpiutil01(tst *testing.T) {

	chk.PrintTitle("mpiutil01: serial run never reports distributed")

	if IsDistributed() {
		tst.Fatal("expected IsDistributed to be false outside mpi.Start")
	}
	if Rank() != 0 {
		tst.Errorf("expected serial rank 0, got %d", Rank())
	}
	if Size() != 1 {
		tst.Errorf("expected serial size 1, got %d", Size())
	}
}

func Test_mpiutil02(tst *testing.T) {

	chk.PrintTitle("mpiutil02: Ack passes through the local code when serial")

	if Ack(errs.OK) != errs.OK {
		tst.Error("expected Ack(OK) == OK")
	}
	if Ack(errs.NotFoundSolution) != errs.NotFoundSolution {
		tst.Error("expected Ack to pass the local non-OK code through unchanged")
	}
}

func Test_mpiutil03(tst *testing.T) {

	chk.PrintTitle("mpiutil03: AgreeMax passes the local value through when serial")

	if AgreeMax(5) != 5 {
		tst.Error("expected AgreeMax(5) == 5 in a serial run")
	}
	if AgreeMax(0) != 0 {
		tst.Error("expected AgreeMax(0) == 0 in a serial run")
	}
}

func Test_mpiutil04(tst *testing.T) {

	chk.PrintTitle("mpiutil04: Exchange loops a self-addressed payload back when serial")

	buf := []byte{1, 2, 3}
	recv := Exchange(map[int][]byte{0: buf})
	if len(recv) != 1 {
		tst.Fatalf("expected exactly one entry in recv, got %d", len(recv))
	}
	got, ok := recv[0]
	if !ok {
		tst.Fatal("expected recv[0] to be present")
	}
	if len(got) != len(buf) {
		tst.Fatalf("expected %d bytes back, got %d", len(buf), len(got))
	}
	for i := range buf {
		if got[i] != buf[i] {
			tst.Errorf("byte %d: expected %d, got %d", i, buf[i], got[i])
		}
	}
}

func Test_mpiutil05(tst *testing.T) {

	chk.PrintTitle("mpiutil05: Exchange addressed to another rank is dropped when serial")

	recv := Exchange(map[int][]byte{1: {9, 9}})
	if len(recv) != 0 {
		tst.Errorf("expected nothing received when the only send targets a peer rank, got %d entries", len(recv))
	}
}

func Test_mpiutil06(tst *testing.T) {

	chk.PrintTitle("mpiutil06: Exchange with no sends returns an empty map")

	recv := Exchange(map[int][]byte{})
	if len(recv) != 0 {
		tst.Errorf("expected an empty recv map, got %d entries", len(recv))
	}
}

func Test_mpiutil07(tst *testing.T) {

	chk.PrintTitle("mpiutil07: Bcast passes the root's buffer straight through when serial")

	buf := []byte{4, 5, 6}
	got := Bcast(0, buf)
	if len(got) != len(buf) {
		tst.Fatalf("expected %d bytes back, got %d", len(buf), len(got))
	}
	for i := range buf {
		if got[i] != buf[i] {
			tst.Errorf("byte %d: expected %d, got %d", i, buf[i], got[i])
		}
	}
}
