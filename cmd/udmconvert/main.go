// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// udmconvert is a minimal example driver for Module K: it loads a
// model at one time step and rewrites it at another, exercising
// dfi.Load/model.LoadModel/model.WriteModel the way a real conversion
// tool built against this module would. It links cgns.MemStore, the
// in-memory fake, in place of a real HDF5-backed CGNS reader/writer —
// a production build swaps that one argument for the real
// cgns.ReadWriter implementation.
package main

import (
	"flag"

	"github.com/avr-aics-riken/udm/cgns"
	"github.com/avr-aics-riken/udm/dfi"
	"github.com/avr-aics-riken/udm/errs"
	"github.com/avr-aics-riken/udm/model"
	"github.com/cpmech/gosl/mpi"
	"github.com/cpmech/gosl/utl"
)

func main() {

	// catch errors
	utl.Tsilent = false
	defer func() {
		if mpi.Rank() == 0 {
			if err := recover(); err != nil {
				utl.PfRed("ERROR: %v\n", err)
			}
		}
		mpi.Stop(false)
	}()
	mpi.Start(false)

	// message
	utl.PfWhite("\nudmconvert -- unstructured data model, step converter\n\n")
	utl.Pf("Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.\n")
	utl.Pf("Use of this source code is governed by a BSD-style\n")
	utl.Pf("license that can be found in the LICENSE file.\n\n")

	// index filenamepath
	flag.Parse()
	var idxPath string
	if len(flag.Args()) > 0 {
		idxPath = flag.Arg(0)
	} else {
		utl.Panic("Please, provide an index file. Ex.: out/udm.dfi")
	}

	fromStep := 0
	toStep := 0
	if len(flag.Args()) > 1 {
		fromStep = utl.Atoi(flag.Arg(1))
	}
	if len(flag.Args()) > 2 {
		toStep = utl.Atoi(flag.Arg(2))
	} else {
		toStep = fromStep
	}

	if err := errs.InitLogFile(".", "udmconvert", mpi.Rank()); err != nil {
		utl.Panic("InitLogFile failed: %v\n", err)
	}
	defer errs.FlushLog()

	idx, code := dfi.Load(idxPath)
	if code != errs.OK {
		utl.Panic("dfi.Load failed: %v\n", code)
	}

	store := cgns.NewMemStore()
	m := model.New(idx.File.Prefix, idx.Domain.CellDim, idx.Domain.CellDim)

	if code := m.LoadModel(store, idx, fromStep); code != errs.OK {
		utl.Panic("LoadModel failed at step %d: %v\n", fromStep, code)
	}

	if code := m.WriteModel(store, idx, toStep, m.Time, model.Combined); code != errs.OK {
		utl.Panic("WriteModel failed at step %d: %v\n", toStep, code)
	}

	utl.Pf("udmconvert: step %d -> %d done\n", fromStep, toStep)
}
