// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elemtype implements the closed set of element (cell) types
// named in spec.md §3 and their face/edge tables, the data a Cell
// variant needs to generate component sub-cells (Module F). The
// registry pattern mirrors the teacher's shp.factory (package shp),
// stripped of isoparametric shape-function machinery this design does
// not need: a mesh-topology library only needs node counts and
// face/edge-to-local-node tables, never shape derivatives.
package elemtype

// Type is one element type from the closed set; Mixed is a sentinel used
// only in section headers, never assigned to an actual cell.
type Type int

const (
	Unknown Type = iota
	NodeT        // degenerate "element" = a single node (CGNS NODE sections)
	Bar2
	Tri3
	Quad4
	Tetra4
	Pyra5
	Penta6
	Hexa8
	Mixed
)

// WireTag returns the integer tag spec.md §6 reserves for this type in
// wire and CGNS-adjacent formats.
func (t Type) WireTag() int {
	switch t {
	case NodeT:
		return 2
	case Bar2:
		return 3
	case Tri3:
		return 5
	case Quad4:
		return 8
	case Tetra4:
		return 10
	case Penta6:
		return 13
	case Hexa8:
		return 12
	case Pyra5:
		return 14
	case Mixed:
		return -1 // distinguished sentinel; never a real cell's type
	}
	return 0
}

// FromWireTag is the inverse of WireTag; returns Unknown if tag is not
// one of the reserved constants.
func FromWireTag(tag int) Type {
	for t := NodeT; t <= Mixed; t++ {
		if t == Mixed {
			continue // Mixed's tag (-1) is not a lookup key
		}
		if t.WireTag() == tag {
			return t
		}
	}
	return Unknown
}

func (t Type) String() string {
	switch t {
	case NodeT:
		return "Node"
	case Bar2:
		return "Bar2"
	case Tri3:
		return "Tri3"
	case Quad4:
		return "Quad4"
	case Tetra4:
		return "Tetra4"
	case Pyra5:
		return "Pyra5"
	case Penta6:
		return "Penta6"
	case Hexa8:
		return "Hexa8"
	case Mixed:
		return "Mixed"
	}
	return "Unknown"
}

// Kind classifies an element's dimensionality for the three-way virtual
// dispatch spec.md §9 calls out: Bar (1-D), Shell (2-D), Solid (3-D).
type Kind int

const (
	KindBar Kind = iota
	KindShell
	KindSolid
)

// Info describes one element type's topology: how many nodes it has and
// the local-node index table for each face (Solid) or edge (Shell); Bar
// elements generate no components.
type Info struct {
	Type      Type
	Kind      Kind
	NumNodes  int
	CompType  Type    // element type of generated faces/edges; Unknown for Bar
	CompLocal [][]int // [nFaces/nEdges][nNodesOnComponent] local node indices
}

var registry = map[Type]*Info{
	Bar2: {
		Type: Bar2, Kind: KindBar, NumNodes: 2,
	},
	Tri3: {
		Type: Tri3, Kind: KindShell, NumNodes: 3, CompType: Bar2,
		CompLocal: [][]int{{0, 1}, {1, 2}, {2, 0}},
	},
	Quad4: {
		Type: Quad4, Kind: KindShell, NumNodes: 4, CompType: Bar2,
		CompLocal: [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	},
	Tetra4: {
		Type: Tetra4, Kind: KindSolid, NumNodes: 4, CompType: Tri3,
		// grounded on shp/tets.go's tet4.FaceLocalV
		CompLocal: [][]int{{0, 3, 2}, {0, 1, 3}, {0, 2, 1}, {1, 2, 3}},
	},
	Pyra5: {
		Type: Pyra5, Kind: KindSolid, NumNodes: 5,
		// standard CGNS PYRA_5 connectivity: base quad {0,1,2,3}, apex 4.
		// Not present in the teacher's shp package (no pyramid support
		// there); face table follows the standard convention named in
		// spec.md's closed element set.
	},
	Penta6: {
		Type: Penta6, Kind: KindSolid, NumNodes: 6,
		// standard CGNS PENTA_6 (wedge/prism) connectivity: triangular
		// faces {0,1,2} and {3,4,5}, quad faces between them. Mixed
		// CompType (tri + quad) handled specially in Faces() below.
	},
	Hexa8: {
		Type: Hexa8, Kind: KindSolid, NumNodes: 8,
		// grounded on shp/hexs.go's hex8.FaceLocalV
		CompLocal: [][]int{{0, 4, 7, 3}, {1, 2, 6, 5}, {0, 1, 5, 4}, {2, 3, 7, 6}, {0, 3, 2, 1}, {4, 5, 6, 7}},
	},
}

func init() {
	registry[Pyra5].CompLocal = [][]int{{0, 1, 2, 3}, {0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}}
	registry[Penta6].CompLocal = [][]int{{0, 1, 2}, {3, 4, 5}, {0, 1, 4, 3}, {1, 2, 5, 4}, {2, 0, 3, 5}}
}

// Get returns the topology Info for t, or nil for Unknown/Mixed/NodeT
// (callers treat a nil result as invalid-element-type per spec.md §7).
func Get(t Type) *Info {
	return registry[t]
}

// NumNodes returns the fixed node count of t, or -1 if t is not in the
// closed set of real element types.
func NumNodes(t Type) int {
	info := Get(t)
	if info == nil {
		return -1
	}
	return info.NumNodes
}

// IsSupported reports whether t is one of the real (non-sentinel)
// element types this design implements.
func IsSupported(t Type) bool {
	return Get(t) != nil
}

// compType returns the component element type generated on face/edge i;
// Pyra5 mixes Quad4 (face 0, the base) and Tri3 (faces 1-4, the sides);
// Penta6 mixes Tri3 (faces 0,1) and Quad4 (faces 2-4).
func (info *Info) compType(faceIdx int) Type {
	switch info.Type {
	case Pyra5:
		if faceIdx == 0 {
			return Quad4
		}
		return Tri3
	case Penta6:
		if faceIdx < 2 {
			return Tri3
		}
		return Quad4
	}
	return info.CompType
}

// Faces returns the local-node index table for every face (Solid) or
// edge (Shell) of this element type, alongside the element type each
// component should be built as. Bar elements return nil (they generate
// no components, per spec.md §4.F).
func (info *Info) Faces() (locals [][]int, compTypeOf func(int) Type) {
	if info.Kind == KindBar {
		return nil, nil
	}
	return info.CompLocal, info.compType
}
