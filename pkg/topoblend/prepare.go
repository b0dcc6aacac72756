package topoblend

import (
	"fmt"

	"github.com/randalmurphal/topoblend/pkg/topoblend/encoding"
	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
	"github.com/randalmurphal/topoblend/pkg/topoblend/path"
	"github.com/randalmurphal/topoblend/pkg/topoblend/rmf"
	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

// Prepare computes the task's artifacts from the current state of the
// active graph. Nodes in exclude (the nodes under transformation by other
// tasks) are not traversed by geodesic queries; the task's own node is
// always excluded.
//
// Prepare may move the node: GROW places and collapses it at its anchor so
// that Execute(0) starts from the folded shape.
//
// Returns a *TaskError wrapping ErrNodeNotFound when the node is missing,
// or ErrNoCorrespondence when the branch needs a target counterpart that
// does not exist. A failed geodesic query is not an error: the path
// artifacts stay empty and execution leaves the geometry alone.
func (t *Task) Prepare(exclude structure.IDSet) error {
	n, ok := t.active.Node(t.nodeID)
	if !ok {
		return t.errorf("prepare", "%w: %s", ErrNodeNotFound, t.nodeID)
	}

	ex := exclude.Clone()
	ex.Add(t.nodeID)

	t.artifacts = Artifacts{}
	t.currentTime = t.start
	t.isDone = false

	var (
		a   Artifacts
		err error
	)
	switch {
	case n.Kind() == structure.KindCurve && t.kind == Shrink:
		a = t.prepareShrinkCurve(n, ex)
	case n.Kind() == structure.KindCurve && t.kind == Grow:
		a, err = t.prepareGrowCurve(n, ex)
	case n.Kind() == structure.KindCurve && t.kind.morphs():
		a, err = t.prepareMorphCurve(n, ex)
	case n.Kind() == structure.KindSheet && t.kind == Shrink:
		a = t.prepareShrinkSheet(n)
	case n.Kind() == structure.KindSheet && t.kind == Grow:
		a, err = t.prepareGrowSheet(n)
	case n.Kind() == structure.KindSheet && t.kind.morphs():
		a, err = t.prepareMorphSheet(n)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownKind, t.kind)
	}
	if err != nil {
		return t.wrap("prepare", err)
	}

	t.artifacts = a
	t.isReady = true
	t.state = StateReady
	t.log().Debug("task prepared", "variant", a.Variant.String())
	return nil
}

func (t *Task) prepareShrinkCurve(n *structure.Node, ex structure.IDSet) Artifacts {
	curve := n.Curve()
	edges := t.active.GoodEdges(n.ID)

	if len(edges) > 0 && t.active.IsCutNode(n.ID) {
		anchor := anchorLink(t.active, n.ID, edges)
		return Artifacts{
			Variant:       VariantConstrained,
			OrgCtrlPoints: curve.ControlPoints(),
			Deltas:        negate(curve.FoldTo(anchor.CoordOn(n.ID), false)),
			AnchorNode:    anchor.Other(n.ID),
		}
	}

	switch len(edges) {
	case 1:
		return Artifacts{
			Variant:       VariantFold,
			OrgCtrlPoints: curve.ControlPoints(),
			Deltas:        negate(curve.FoldTo(edges[0].CoordOn(n.ID), false)),
		}
	case 2:
		pointA, _ := t.active.LinkPosition(edges[0], n.ID)
		pointB, _ := t.active.LinkPosition(edges[1], n.ID)

		a := Artifacts{Variant: VariantPathBlend}
		p, ok := t.route(pointA, pointB, ex)
		if !ok {
			return a
		}

		// Both ends travel to the shared midpoint.
		a.PathA, a.PathB = path.Bisect(p)
		a.Frames = rmf.New(t.smoothed(a.PathA))
		a.Encoding = t.encode(curve.ControlPoints(), a.PathA, a.PathB, a.Frames.First())
		return a
	}
	return Artifacts{Variant: VariantNone}
}

func (t *Task) prepareGrowCurve(n *structure.Node, ex structure.IDSet) (Artifacts, error) {
	tn, err := t.targetNode()
	if err != nil {
		return Artifacts{}, err
	}
	curve := n.Curve()
	tedges := t.target.GoodEdges(tn.ID)

	if len(tedges) > 0 && t.target.IsCutNode(tn.ID) {
		tanchor := anchorLink(t.target, tn.ID, tedges)
		anchorID, err := t.correspondent(tanchor.Other(tn.ID))
		if err != nil {
			return Artifacts{}, err
		}
		deltas := curve.FoldTo(tanchor.CoordOn(tn.ID), true)
		return Artifacts{
			Variant:       VariantConstrained,
			OrgCtrlPoints: curve.ControlPoints(),
			Deltas:        deltas,
			AnchorNode:    anchorID,
		}, nil
	}

	switch len(tedges) {
	case 1:
		tl := tedges[0]
		tbase := tl.Other(tn.ID)
		baseID, err := t.correspondent(tbase)
		if err != nil {
			return Artifacts{}, err
		}
		base, _ := t.active.Node(baseID)

		coordSelf := tl.CoordOn(tn.ID)
		curve.TranslateTo(base.Position(tl.CoordOn(tbase)), curve.ControlPointIndexFromCoord(coordSelf))
		deltas := curve.FoldTo(coordSelf, true)
		return Artifacts{
			Variant:       VariantFold,
			OrgCtrlPoints: curve.ControlPoints(),
			Deltas:        deltas,
		}, nil
	case 2:
		pointA, err := t.futureAttachment(tn, tedges[0])
		if err != nil {
			return Artifacts{}, err
		}
		pointB, err := t.futureAttachment(tn, tedges[1])
		if err != nil {
			return Artifacts{}, err
		}

		a := Artifacts{Variant: VariantPathBlend}
		p, ok := t.route(pointA, pointB, ex)
		if !ok {
			return a, nil
		}

		// Both ends start at the shared midpoint and travel outward.
		half, otherHalf := path.Bisect(p)
		a.PathA, a.PathB = half.Reverse(), otherHalf.Reverse()
		a.Frames = rmf.New(t.smoothed(a.PathA))
		a.Encoding = encoding.Encode(curve.ControlPoints(), pointA, pointB, a.Frames.Last().R, a.Frames.Last().S, a.Frames.Last().T)

		mid := t.positionOf(a.PathA[0])
		center := geom.C(0.5, 0)
		curve.FoldTo(center, true)
		curve.MoveBy(mid.Sub(curve.Position(center)))
		return a, nil
	}
	return Artifacts{Variant: VariantNone}, nil
}

func (t *Task) prepareMorphCurve(n *structure.Node, ex structure.IDSet) (Artifacts, error) {
	curve := n.Curve()
	edges := t.active.GoodEdges(n.ID)

	switch len(edges) {
	case 1:
		l := edges[0]
		start, _ := t.active.LinkPosition(l, n.ID)
		end, err := t.futureLinkPosition(l)
		if err != nil {
			return Artifacts{}, err
		}

		a := Artifacts{
			Variant:     VariantTranslate,
			AnchorIndex: curve.ControlPointIndexFromCoord(l.CoordOn(n.ID)),
		}
		if p, ok := t.route(start, end, ex); ok {
			a.Path = p
		}
		return a, nil
	case 2:
		startA, _ := t.active.LinkPosition(edges[0], n.ID)
		startB, _ := t.active.LinkPosition(edges[1], n.ID)
		endA, err := t.futureLinkPosition(edges[0])
		if err != nil {
			return Artifacts{}, err
		}
		endB, err := t.futureLinkPosition(edges[1])
		if err != nil {
			return Artifacts{}, err
		}

		a := Artifacts{Variant: VariantPathBlend}
		pathA, okA := t.route(startA, endA, ex)
		pathB, okB := t.route(startB, endB, ex)
		if !okA || !okB {
			return a, nil
		}
		a.PathA, a.PathB = pathA, pathB

		longest := pathA
		if len(pathB) > len(pathA) {
			longest = pathB
		}
		a.Frames = rmf.New(t.smoothed(longest))
		a.Encoding = t.encode(curve.ControlPoints(), pathA, pathB, a.Frames.First())
		return a, nil
	}
	return Artifacts{Variant: VariantNone}, nil
}

func (t *Task) prepareShrinkSheet(n *structure.Node) Artifacts {
	sheet := n.Sheet()
	edges := t.active.GoodEdges(n.ID)
	if len(edges) != 1 {
		return Artifacts{Variant: VariantNone}
	}

	l := edges[0]
	basePos, _ := t.active.LinkPosition(l, l.Other(n.ID))
	selfPos, _ := t.active.LinkPosition(l, n.ID)
	sheet.MoveBy(basePos.Sub(selfPos))

	return Artifacts{
		Variant:    VariantSheetFold,
		OrgGrid:    sheet.ControlGrid(),
		GridDeltas: negateGrid(sheet.FoldTo(l.CoordOn(n.ID), false)),
	}
}

func (t *Task) prepareGrowSheet(n *structure.Node) (Artifacts, error) {
	tn, err := t.targetNode()
	if err != nil {
		return Artifacts{}, err
	}
	sheet := n.Sheet()
	tedges := t.target.GoodEdges(tn.ID)
	if len(tedges) != 1 {
		return Artifacts{Variant: VariantNone}, nil
	}

	tl := tedges[0]
	tbase := tl.Other(tn.ID)
	baseID, err := t.correspondent(tbase)
	if err != nil {
		return Artifacts{}, err
	}
	base, _ := t.active.Node(baseID)

	coordSelf := tl.CoordOn(tn.ID)
	sheet.MoveBy(base.Position(tl.CoordOn(tbase)).Sub(sheet.Position(coordSelf)))
	deltas := sheet.FoldTo(coordSelf, true)
	return Artifacts{
		Variant:    VariantSheetFold,
		OrgGrid:    sheet.ControlGrid(),
		GridDeltas: deltas,
	}, nil
}

func (t *Task) prepareMorphSheet(n *structure.Node) (Artifacts, error) {
	tn, err := t.targetNode()
	if err != nil {
		return Artifacts{}, err
	}
	if tn.Kind() != structure.KindSheet {
		return Artifacts{Variant: VariantNone}, nil
	}

	sheet, tsheet := n.Sheet(), tn.Sheet()
	nu, nv := sheet.Dims()
	tu, tv := tsheet.Dims()
	if nu != tu || nv != tv {
		t.log().Warn("sheet morph skipped, control grids differ",
			"dims", fmt.Sprintf("%dx%d", nu, nv),
			"target_dims", fmt.Sprintf("%dx%d", tu, tv))
		return Artifacts{Variant: VariantNone}, nil
	}

	org := sheet.ControlGrid()
	dst := tsheet.ControlGrid()
	deltas := make([][]geom.Vec3, nu)
	for u := range org {
		deltas[u] = make([]geom.Vec3, nv)
		for v := range org[u] {
			deltas[u][v] = dst[u][v].Sub(org[u][v])
		}
	}
	return Artifacts{
		Variant:    VariantSheetMorph,
		OrgGrid:    org,
		GridDeltas: deltas,
	}, nil
}

// route returns the welded geodesic path from a to b. It reports false,
// after logging, when no route exists.
func (t *Task) route(a, b geom.Vec3, ex structure.IDSet) (path.Path, bool) {
	field, err := t.geodesics.ComputeDistances(t.active, a, ex)
	if err == nil {
		var p path.Path
		p, err = field.PathTo(b)
		if err == nil && len(p) > 0 {
			welded, _ := path.Weld(p, t.active, t.weldTol)
			return welded, true
		}
	}
	t.log().Warn("geodesic path unavailable, motion disabled", "error", err)
	return nil, false
}

// smoothed resolves p against the active graph and relaxes its interior.
func (t *Task) smoothed(p path.Path) []geom.Vec3 {
	return path.Smooth(path.Positions(p, t.active), t.smoothing)
}

// encode expresses points relative to the segment between the first
// samples of pathA and pathB and the basis of f.
func (t *Task) encode(points []geom.Vec3, pathA, pathB path.Path, f rmf.Frame) encoding.CurveEncoding {
	return encoding.Encode(points, t.positionOf(pathA[0]), t.positionOf(pathB[0]), f.R, f.S, f.T)
}

func (t *Task) positionOf(p path.Point) geom.Vec3 {
	pos, _ := t.active.PositionOf(p.NodeID, p.Coord)
	return pos
}

// anchorLink picks the first link to a sheet neighbour, else the first link.
func anchorLink(g *structure.Graph, nodeID string, edges []*structure.Link) *structure.Link {
	for _, l := range edges {
		if other, ok := g.Node(l.Other(nodeID)); ok && other.Kind() == structure.KindSheet {
			return l
		}
	}
	return edges[0]
}

func (t *Task) errorf(op, format string, args ...any) error {
	return t.wrap(op, fmt.Errorf(format, args...))
}

func (t *Task) wrap(op string, err error) error {
	return &TaskError{TaskID: t.id, NodeID: t.nodeID, Op: op, Err: err}
}
