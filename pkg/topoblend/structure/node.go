// Package structure is the structural shape graph blended by the engine:
// curve and sheet nodes connected by links that record where each end
// attaches.
package structure

import (
	"fmt"

	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
)

// NodeKind tags the geometry carried by a Node.
type NodeKind int

const (
	// KindCurve is a node with a 1-D control polygon.
	KindCurve NodeKind = iota
	// KindSheet is a node with a 2-D control grid.
	KindSheet
)

// String returns the kind name.
func (k NodeKind) String() string {
	switch k {
	case KindCurve:
		return "curve"
	case KindSheet:
		return "sheet"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is one part of a structural graph. Exactly one of its curve or
// sheet geometries is set, matching Kind.
type Node struct {
	ID string
	// Correspond is the ID of the counterpart node in the other graph,
	// or empty when the node has no counterpart.
	Correspond string

	kind  NodeKind
	curve *Curve
	sheet *Sheet
}

// NewCurveNode creates a curve node.
func NewCurveNode(id string, points []geom.Vec3) *Node {
	return &Node{ID: id, kind: KindCurve, curve: NewCurve(points)}
}

// NewSheetNode creates a sheet node.
func NewSheetNode(id string, grid [][]geom.Vec3) *Node {
	return &Node{ID: id, kind: KindSheet, sheet: NewSheet(grid)}
}

// Kind returns the node kind.
func (n *Node) Kind() NodeKind {
	return n.kind
}

// Curve returns the curve geometry, or nil for a sheet.
func (n *Node) Curve() *Curve {
	return n.curve
}

// Sheet returns the sheet geometry, or nil for a curve.
func (n *Node) Sheet() *Sheet {
	return n.sheet
}

// Position evaluates the node geometry at a local coordinate.
func (n *Node) Position(c geom.Coord) geom.Vec3 {
	if n.kind == KindSheet {
		return n.sheet.Position(c)
	}
	return n.curve.Position(c)
}

// ControlPoints returns the node's control points, flattened for sheets.
func (n *Node) ControlPoints() []geom.Vec3 {
	if n.kind == KindSheet {
		return n.sheet.ControlPoints()
	}
	return n.curve.ControlPoints()
}

// MoveBy translates the node geometry.
func (n *Node) MoveBy(d geom.Vec3) {
	if n.kind == KindSheet {
		n.sheet.MoveBy(d)
		return
	}
	n.curve.MoveBy(d)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := &Node{ID: n.ID, Correspond: n.Correspond, kind: n.kind}
	if n.curve != nil {
		c.curve = NewCurve(n.curve.ControlPoints())
	}
	if n.sheet != nil {
		c.sheet = NewSheet(n.sheet.ControlGrid())
	}
	return c
}
