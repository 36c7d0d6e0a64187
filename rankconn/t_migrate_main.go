// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// +build ignore

// This is a scenario driver, not a `go test` unit test: MigrationBoundary
// and TransferUpdatedIds only do anything interesting across real MPI
// ranks, so — mirroring mallano-gofem/fem/t_p01_main.go — it is run
// directly with `mpirun -np 2 go run t_migrate_main.go`, not under the
// test harness.
package main

import (
	"fmt"

	"github.com/avr-aics-riken/udm/entity"
	"github.com/avr-aics-riken/udm/mpiutil"
	"github.com/avr-aics-riken/udm/node"
	"github.com/avr-aics-riken/udm/rankconn"
	"github.com/cpmech/gosl/mpi"
)

func main() {
	mpi.Start(false)
	defer mpi.Stop(false)

	if mpiutil.Size() != 2 {
		if mpiutil.Rank() == 0 {
			fmt.Println("this scenario requires exactly 2 ranks: mpirun -np 2 go run t_migrate_main.go")
		}
		return
	}

	me := mpiutil.Rank()
	other := 1 - me

	r := rankconn.New(me)

	// both ranks own a copy of the same shared boundary node, each under
	// its own local id (me+1 here, as if a prior partitioning round had
	// assigned them independently)
	shared := node.NewNode(entity.Float64)
	shared.SetId(uint64(me + 1))
	shared.AddMpiRankInfo(other, uint64(other+1))
	r.RegisterBoundaryNode(shared)

	r.MigrationBoundary()

	ok := shared.ExistsMpiRankInfo(other, uint64(other+1))
	fmt.Printf("rank %d: peer entry for rank %d still resolves to (%d,%d): %v\n",
		me, other, other, other+1, ok)

	// simulate a renumbering (as rebuildZone would perform) and propagate it
	shared.AddPreviousRankInfo(me, shared.GetId())
	shared.SetId(shared.GetId() + 100)
	r.SortBoundary()
	r.TransferUpdatedIds()

	fmt.Printf("rank %d: local id is now %d\n", me, shared.GetId())
}
