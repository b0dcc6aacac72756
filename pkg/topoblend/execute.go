package topoblend

import (
	"math"

	"github.com/randalmurphal/topoblend/pkg/topoblend/encoding"
	"github.com/randalmurphal/topoblend/pkg/topoblend/path"
	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

// Execute advances the task to local progress lt in [0,1] and writes the
// node's new control points into the active graph. Values above 1 are
// treated as 1. It is a no-op when the task is not active (lt < 0 or the
// task is done). An unprepared task is prepared first with exclude.
//
// At lt == 1 the topology change is committed and the task becomes DONE.
// The task is marked done even when the commit fails; the error reports
// which links could not be rewired.
func (t *Task) Execute(lt float64, exclude structure.IDSet) error {
	if !t.IsActive(lt) {
		return nil
	}
	lt = math.Min(lt, 1)

	if !t.isReady {
		if err := t.Prepare(exclude); err != nil {
			return err
		}
	}

	n, ok := t.active.Node(t.nodeID)
	if !ok {
		return t.errorf("execute", "%w: %s", ErrNodeNotFound, t.nodeID)
	}

	t.currentTime = t.start + int(lt*float64(t.length))
	t.apply(n, lt)

	if lt < 1 {
		t.state = StateRunning
		return nil
	}

	commit, err := t.finalize(n)
	t.lastCommit = commit
	t.isDone = true
	t.state = StateDone
	if err != nil {
		return t.wrap("finalize", err)
	}
	return nil
}

// apply writes the geometry for progress lt. Missing path or encoding
// artifacts leave the geometry unchanged for this call.
func (t *Task) apply(n *structure.Node, lt float64) {
	a := &t.artifacts

	switch a.Variant {
	case VariantFold, VariantConstrained:
		if n.Curve() == nil || len(a.OrgCtrlPoints) == 0 {
			return
		}
		n.Curve().SetControlPoints(blend(a.OrgCtrlPoints, a.Deltas, lt))
		if a.Variant == VariantConstrained {
			t.relink(n, a.AnchorNode)
		}

	case VariantSheetFold, VariantSheetMorph:
		if n.Sheet() == nil || len(a.OrgGrid) == 0 {
			return
		}
		n.Sheet().SetControlGrid(blendGrid(a.OrgGrid, a.GridDeltas, lt))

	case VariantTranslate:
		if n.Curve() == nil || len(a.Path) == 0 {
			return
		}
		pos := t.positionOf(a.Path[path.IndexAt(lt, len(a.Path))])
		n.Curve().TranslateTo(pos, a.AnchorIndex)

	case VariantPathBlend:
		if n.Curve() == nil || a.Frames == nil || len(a.PathA) == 0 || len(a.PathB) == 0 || len(a.Encoding) == 0 {
			return
		}
		pointA := t.positionOf(a.PathA[path.IndexAt(lt, len(a.PathA))])
		pointB := t.positionOf(a.PathB[path.IndexAt(lt, len(a.PathB))])
		f := a.Frames.FrameAt(lt)
		n.Curve().SetControlPoints(encoding.Decode(a.Encoding, pointA, pointB, f.R, f.S, f.T))
	}
}

// relink keeps curve neighbours other than the anchor attached to the
// folding node by moving their linked control point onto the link.
func (t *Task) relink(n *structure.Node, anchor string) {
	for _, l := range t.active.Edges(n.ID) {
		otherID := l.Other(n.ID)
		if otherID == anchor {
			continue
		}
		other, ok := t.active.Node(otherID)
		if !ok || other.Curve() == nil {
			continue
		}
		pos, _ := t.active.LinkPosition(l, n.ID)
		idx := other.Curve().ControlPointIndexFromCoord(l.CoordOn(otherID))
		other.Curve().SetControlPoint(idx, pos)
	}
}
