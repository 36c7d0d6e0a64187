// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package entity

import "sort"

// FieldConfig is one entry of the FlowSolution catalog (spec.md §6): a
// declared solution field's name, datatype, grid-location, vector
// classification and size, and whether it is constant-in-time or
// written per output step.
type FieldConfig struct {
	Name       string
	DataType   DataType
	Location   Location
	VectorType VectorType
	VectorSize int
	Constant   bool // time-invariant field (CGNS "_Const" suffix)
}

// FlowSolutions is the FlowSolution catalog a Zone owns: the declared
// list of fields against which every per-entity Set/Get is validated
// (spec.md §4.C). Names are unique; lookups are by name.
type FlowSolutions struct {
	byName map[string]*FieldConfig
	order  []string // insertion order, for deterministic iteration/I-O
}

// NewFlowSolutions returns an empty catalog.
func NewFlowSolutions() *FlowSolutions {
	return &FlowSolutions{byName: make(map[string]*FieldConfig)}
}

// Declare registers a field. Re-declaring an existing name overwrites
// its configuration (used when re-reading an index file/CGNS header).
func (c *FlowSolutions) Declare(cfg FieldConfig) {
	if cfg.VectorType == 0 && cfg.VectorSize != 1 {
		cfg.VectorType = classify(cfg.VectorSize)
	}
	if _, exists := c.byName[cfg.Name]; !exists {
		c.order = append(c.order, cfg.Name)
	}
	cp := cfg
	c.byName[cfg.Name] = &cp
}

// Get returns the FieldConfig for name, or nil if undeclared.
func (c *FlowSolutions) Get(name string) *FieldConfig {
	return c.byName[name]
}

// Names returns declared field names in declaration order.
func (c *FlowSolutions) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// NamesAt returns declared field names at the given location, sorted.
func (c *FlowSolutions) NamesAt(loc Location) []string {
	var out []string
	for _, n := range c.order {
		if c.byName[n].Location == loc {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Remove deletes a field declaration.
func (c *FlowSolutions) Remove(name string) {
	if _, ok := c.byName[name]; !ok {
		return
	}
	delete(c.byName, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
