// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package partition specifies the graph-partitioner external
// collaborator spec.md names (ParMETIS or similar, out of scope per
// SPEC_FULL.md §4 and the Non-goals): the interface the core needs plus
// a small deterministic in-memory fake used by tests and by
// cmd/udmconvert's example driver.
package partition

// Plan is one rank's repartitioning instruction: the ids of this rank's
// own cells to export to a destination rank, and nothing else — the
// peer that is meant to import them works out its own import list by
// running the same Partitioner call against its own cell set (spec.md
// §8 S4: "Partitioner returns empty import/export lists").
type Plan struct {
	ExportCellIds []uint64
	DestRank      []int // parallel to ExportCellIds: the destination rank for each
}

// Empty reports whether this plan exports nothing — the "no-change"
// case spec.md §8 S4 exercises.
func (p Plan) Empty() bool { return len(p.ExportCellIds) == 0 }

// Partitioner decides, given one rank's current cell ids and a target
// rank count, which of its cells should move to which destination rank.
// weights lets a caller bias the decision by PartitionWeight (spec.md
// §4.C); a Partitioner implementation that ignores weights is free to
// treat every cell as equally costly.
type Partitioner interface {
	Plan(myRank, numRanks int, cellIds []uint64, weights []float32) Plan
}

// NoChange is the trivial Partitioner: it never proposes a move. Used
// to exercise spec.md §8 S4's no-change round without depending on a
// real graph partitioner.
type NoChange struct{}

func (NoChange) Plan(myRank, numRanks int, cellIds []uint64, weights []float32) Plan {
	return Plan{}
}

// RoundRobin is a small deterministic fake standing in for a real
// graph partitioner: it moves every cell whose id is congruent to a
// rank other than myRank (id mod numRanks) to that rank, ignoring
// weights — good enough to exercise the import/export machinery in
// tests without linking ParMETIS.
type RoundRobin struct{}

func (RoundRobin) Plan(myRank, numRanks int, cellIds []uint64, weights []float32) Plan {
	if numRanks < 2 {
		return Plan{}
	}
	var plan Plan
	for _, id := range cellIds {
		dest := int(id) % numRanks
		if dest == myRank {
			continue
		}
		plan.ExportCellIds = append(plan.ExportCellIds, id)
		plan.DestRank = append(plan.DestRank, dest)
	}
	return plan
}
