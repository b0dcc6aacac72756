package topoblend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
	"github.com/randalmurphal/topoblend/pkg/topoblend/path"
	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

// TestLocalT verifies local progress is -1 before the window and rises
// monotonically to 1.
func TestLocalT(t *testing.T) {
	active, target := armScene(t)
	task := NewTask(active, target, Shrink, "arm", WithWindow(10, 20))

	assert.Equal(t, -1.0, task.LocalT(0))
	assert.Equal(t, -1.0, task.LocalT(9))
	assert.Equal(t, 0.0, task.LocalT(10))
	assert.Equal(t, 0.5, task.LocalT(20))
	assert.Equal(t, 1.0, task.LocalT(30))
	assert.Equal(t, 1.0, task.LocalT(500))

	prev := task.LocalT(10)
	for g := 11; g <= 30; g++ {
		cur := task.LocalT(g)
		assert.Greater(t, cur, prev, "tick %d", g)
		prev = cur
	}
}

// TestTask_Window verifies window setters clamp the length and rewind
// current time to the start.
func TestTask_Window(t *testing.T) {
	active, target := armScene(t)
	task := NewTask(active, target, Shrink, "arm", WithWindow(5, 10))

	assert.Equal(t, 5, task.Start())
	assert.Equal(t, 10, task.Length())
	assert.Equal(t, 15, task.EndTime())
	assert.True(t, task.StillWorking())

	task.SetLength(0)
	assert.Equal(t, 1, task.Length(), "length is at least 1")

	task.SetStart(40)
	assert.Equal(t, 40, task.Start())
	assert.Equal(t, 40, task.CurrentTime(), "moving the window rewinds current time to the start")
	assert.True(t, task.StillWorking())
}

// TestNewTask_Defaults verifies a new task gets an ID, the default length
// and the unprepared state.
func TestNewTask_Defaults(t *testing.T) {
	active, target := armScene(t)
	task := NewTask(active, target, Grow, "wing")

	assert.NotEmpty(t, task.ID())
	assert.Equal(t, Grow, task.Kind())
	assert.Equal(t, "wing", task.NodeID())
	assert.Equal(t, StateUnprepared, task.State())
	assert.Equal(t, 80, task.Length())

	named := NewTask(active, target, Grow, "wing", WithTaskID("grow-wing"))
	assert.Equal(t, "grow-wing", named.ID())
}

// TestNewTask_NilGraphPanics verifies a task cannot be built without both
// graphs.
func TestNewTask_NilGraphPanics(t *testing.T) {
	active, _ := armScene(t)
	assert.Panics(t, func() { NewTask(active, nil, Shrink, "arm") })
}

// TestExecute_FoldEndToEnd verifies given fold artifacts, the blend is
// linear and the final step removes the node's edges.
func TestExecute_FoldEndToEnd(t *testing.T) {
	active, target := armScene(t)
	task := NewTask(active, target, Shrink, "arm", WithWindow(0, 10))

	up := geom.V3(0, 1, 0)
	task.artifacts = Artifacts{
		Variant:       VariantFold,
		OrgCtrlPoints: []geom.Vec3{geom.V3(0, 0, 0), geom.V3(1, 0, 0), geom.V3(2, 0, 0)},
		Deltas:        []geom.Vec3{up, up, up},
	}
	task.isReady = true
	task.state = StateReady

	require.NoError(t, task.Execute(0.5, nil))
	assertPoints(t, []geom.Vec3{geom.V3(0, 0.5, 0), geom.V3(1, 0.5, 0), geom.V3(2, 0.5, 0)},
		controlPoints(t, active, "arm"), tol)
	assert.False(t, task.IsDone())
	assert.Equal(t, StateRunning, task.State())
	assert.Equal(t, 5, task.CurrentTime())

	require.NoError(t, task.Execute(1, nil))
	assert.True(t, task.IsDone())
	assert.Equal(t, StateDone, task.State())
	assert.Empty(t, active.Edges("arm"))
	assert.Equal(t, []string{"arm:base"}, task.LastCommit().Removed)
	assert.False(t, task.StillWorking())
}

// TestExecute_StateMachine verifies a task moves unprepared, ready,
// running, done, and Reset returns it to unprepared.
func TestExecute_StateMachine(t *testing.T) {
	active, target := armScene(t)
	task := NewTask(active, target, Shrink, "arm", WithWindow(0, 10))

	assert.Equal(t, StateUnprepared, task.State())
	require.NoError(t, task.Prepare(nil))
	assert.Equal(t, StateReady, task.State())
	assert.True(t, task.IsReady())

	require.NoError(t, task.Execute(0.3, nil))
	assert.Equal(t, StateRunning, task.State())

	require.NoError(t, task.Execute(1, nil))
	assert.Equal(t, StateDone, task.State())

	task.Reset()
	assert.Equal(t, StateUnprepared, task.State())
	assert.False(t, task.IsReady())
	assert.False(t, task.IsDone())
	assert.Equal(t, Artifacts{}, task.Artifacts())
	assert.Equal(t, task.Start(), task.CurrentTime())
}

// TestExecute_Inactive verifies inactive progress and a done task leave the
// geometry alone.
func TestExecute_Inactive(t *testing.T) {
	active, target := armScene(t)
	task := NewTask(active, target, Shrink, "arm")
	before := controlPoints(t, active, "arm")

	require.NoError(t, task.Execute(-1, nil))
	assert.Equal(t, StateUnprepared, task.State(), "inactive progress does not prepare")
	assertPoints(t, before, controlPoints(t, active, "arm"), 0)

	require.NoError(t, task.Execute(1, nil))
	require.True(t, task.IsDone())

	after := controlPoints(t, active, "arm")
	require.NoError(t, task.Execute(0.5, nil))
	assertPoints(t, after, controlPoints(t, active, "arm"), 0)
	assert.Equal(t, StateDone, task.State())
}

// TestExecute_MissingArtifactIsNoOp verifies a path blend with no paths
// keeps the geometry.
func TestExecute_MissingArtifactIsNoOp(t *testing.T) {
	active, target := armScene(t)
	task := NewTask(active, target, Shrink, "arm")
	task.artifacts = Artifacts{Variant: VariantPathBlend}
	task.isReady = true
	before := controlPoints(t, active, "arm")

	require.NoError(t, task.Execute(0.5, nil))
	assertPoints(t, before, controlPoints(t, active, "arm"), 0)
	assert.Equal(t, StateRunning, task.State())
	assert.False(t, task.IsDone())
}

// TestExecute_ClampsAboveOne verifies progress above one finishes the task.
func TestExecute_ClampsAboveOne(t *testing.T) {
	active, target := armScene(t)
	task := NewTask(active, target, Shrink, "arm", WithWindow(0, 10))

	require.NoError(t, task.Execute(1.5, nil))
	assert.True(t, task.IsDone())
	assert.Equal(t, 10, task.CurrentTime())
}

// TestPrepare_MissingNode verifies preparing a missing node fails with a
// TaskError.
func TestPrepare_MissingNode(t *testing.T) {
	active, target := armScene(t)
	task := NewTask(active, target, Shrink, "ghost", WithTaskID("t1"))

	err := task.Prepare(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNodeNotFound)

	var te *TaskError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "t1", te.TaskID)
	assert.Equal(t, "prepare", te.Op)
	assert.Equal(t, StateUnprepared, task.State())
}

// TestPrepare_GrowWithoutCorrespondence verifies growing a node with no
// target counterpart fails.
func TestPrepare_GrowWithoutCorrespondence(t *testing.T) {
	active, target := armScene(t)
	task := NewTask(active, target, Grow, "arm")

	err := task.Prepare(nil)
	assert.ErrorIs(t, err, ErrNoCorrespondence)
	assert.False(t, task.IsReady())
}

// TestShrinkCurve_SingleLink verifies a single-link curve folds onto its
// link.
func TestShrinkCurve_SingleLink(t *testing.T) {
	active, target := armScene(t)
	task := NewTask(active, target, Shrink, "arm")

	require.NoError(t, task.Prepare(nil))
	assert.Equal(t, VariantFold, task.Artifacts().Variant)

	require.NoError(t, task.Execute(0.5, nil))
	assertPoints(t, []geom.Vec3{geom.V3(0, 0, 0), geom.V3(0.5, 0, 0), geom.V3(1, 0, 0)},
		controlPoints(t, active, "arm"), tol)

	require.NoError(t, task.Execute(1, nil))
	zero := geom.Vec3{}
	assertPoints(t, []geom.Vec3{zero, zero, zero}, controlPoints(t, active, "arm"), tol)
}

// TestExecute_LazyPrepare verifies executing an unprepared task prepares it
// first.
func TestExecute_LazyPrepare(t *testing.T) {
	active, target := armScene(t)
	task := NewTask(active, target, Shrink, "arm")

	require.NoError(t, task.Execute(0, nil))
	assert.True(t, task.IsReady())
	assert.Equal(t, VariantFold, task.Artifacts().Variant)
}

// TestGrowCurve_SingleLink verifies a single-link curve is collapsed at its
// future attachment and unfolds from there.
func TestGrowCurve_SingleLink(t *testing.T) {
	active, target := armScene(t)
	task := NewTask(active, target, Grow, "wing")

	require.NoError(t, task.Prepare(nil))
	assert.Equal(t, VariantFold, task.Artifacts().Variant)

	attach := geom.V3(0, -2, 0)
	assertPoints(t, []geom.Vec3{attach, attach, attach}, controlPoints(t, active, "wing"), tol)

	require.NoError(t, task.Execute(0.5, nil))
	assertPoints(t, []geom.Vec3{attach, geom.V3(0.5, -2, 0), geom.V3(1, -2, 0)},
		controlPoints(t, active, "wing"), tol)

	require.NoError(t, task.Execute(1, nil))
	assertPoints(t, []geom.Vec3{attach, geom.V3(1, -2, 0), geom.V3(2, -2, 0)},
		controlPoints(t, active, "wing"), tol)

	l, ok := active.EdgeBetween("wing", "base")
	require.True(t, ok, "grow copies the target edge")
	assert.Equal(t, geom.C(0, 0), l.CoordOn("wing"))
	assert.Equal(t, geom.C(1, 0), l.CoordOn("base"))
	assert.Equal(t, "twing:tbase", l.Correspond)
	assert.Equal(t, []string{"wing:base"}, task.LastCommit().Added)
}

// TestGrow_SkipsExistingEdge verifies finalizing a grow does not duplicate
// an existing edge.
func TestGrow_SkipsExistingEdge(t *testing.T) {
	active, target := armScene(t)
	mustLink(t, active, "base", "wing", geom.C(1, 0), geom.C(0, 0))
	task := NewTask(active, target, Grow, "wing")

	require.NoError(t, task.Execute(1, nil))
	assert.Len(t, active.Edges("wing"), 1)
	assert.Empty(t, task.LastCommit().Added)
}

// TestMorphCurve_SingleLinkTranslates verifies a single-link curve slides
// rigidly along the route to its future neighbour.
func TestMorphCurve_SingleLinkTranslates(t *testing.T) {
	active, target := railScene(t)
	task := NewTask(active, target, Morph, "m")

	require.NoError(t, task.Prepare(nil))
	a := task.Artifacts()
	require.Equal(t, VariantTranslate, a.Variant)
	require.NotEmpty(t, a.Path)
	assert.Equal(t, 0, a.AnchorIndex)

	start := task.positionOf(a.Path[0])
	end := task.positionOf(a.Path[len(a.Path)-1])
	assert.InDelta(t, 1, start.X, tol)
	assert.InDelta(t, 5, end.X, tol)
	for _, p := range a.Path {
		assert.NotEqual(t, "m", p.NodeID, "the moving node is never traversed")
	}

	require.NoError(t, task.Execute(0.5, nil))
	pts := controlPoints(t, active, "m")
	assert.InDelta(t, 3, pts[0].X, 0.13)
	assert.InDelta(t, 1, pts[1].Y, tol, "translation keeps the shape")

	require.NoError(t, task.Execute(1, nil))
	assertPoints(t, []geom.Vec3{geom.V3(5, 0, 0), geom.V3(5, 1, 0)}, controlPoints(t, active, "m"), tol)

	edges := active.Edges("m")
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Has("c"), "far end rewired to the future neighbour")
	assert.Equal(t, geom.C(0.5, 0), edges[0].CoordOn("c"))
	assert.Equal(t, []string{"m:a"}, task.LastCommit().Rewired)
}

// TestMorph_MissingFutureNeighbour verifies a morph without a future
// neighbour fails to prepare.
func TestMorph_MissingFutureNeighbour(t *testing.T) {
	active, target := railScene(t)
	tc, _ := target.Node("tc")
	tc.Correspond = ""

	task := NewTask(active, target, Morph, "m")
	assert.ErrorIs(t, task.Prepare(nil), ErrNoCorrespondence)
}

// bridgeScene is an arch m over a rail a-b, linked to the far ends of both.
func bridgeScene(t *testing.T) (active, target *structure.Graph) {
	t.Helper()
	active = structure.New("bridge").
		AddNode(curveNode("a", "ta", seg(0, 2, 0)...)).
		AddNode(curveNode("b", "tb", seg(2, 4, 0)...)).
		AddNode(curveNode("m", "", geom.V3(0, 0, 0), geom.V3(2, 2, 0), geom.V3(4, 0, 0)))
	mustLink(t, active, "a", "b", geom.C(1, 0), geom.C(0, 0))
	mustLink(t, active, "m", "a", geom.C(0, 0), geom.C(0, 0))
	mustLink(t, active, "m", "b", geom.C(1, 0), geom.C(1, 0))

	target = structure.New("bridge-target").
		AddNode(curveNode("ta", "a", seg(0, 2, 0)...)).
		AddNode(curveNode("tb", "b", seg(2, 4, 0)...))
	mustLink(t, target, "ta", "tb", geom.C(1, 0), geom.C(0, 0))
	return active, target
}

// TestShrinkCurve_TwoLinksPathBlend verifies both ends of a two-link curve
// travel to the route midpoint.
func TestShrinkCurve_TwoLinksPathBlend(t *testing.T) {
	active, target := bridgeScene(t)
	org := controlPoints(t, active, "m")
	task := NewTask(active, target, Shrink, "m")

	require.NoError(t, task.Prepare(nil))
	a := task.Artifacts()
	require.Equal(t, VariantPathBlend, a.Variant)
	require.NotNil(t, a.Frames)
	assert.Len(t, a.PathA, len(a.PathB), "bisected halves are balanced")
	assert.Equal(t, a.Frames.Count(), len(a.PathA))
	assert.Equal(t, len(org), a.Encoding.Len())

	require.NoError(t, task.Execute(0, nil))
	assertPoints(t, org, controlPoints(t, active, "m"), 1e-9)

	require.NoError(t, task.Execute(0.5, nil))
	mid := controlPoints(t, active, "m")
	assert.InDelta(t, 1, mid[0].X, 0.13)
	assert.InDelta(t, 3, mid[2].X, 0.13)
	assert.InDelta(t, 2, mid[1].X, 1e-6)
	assert.InDelta(t, 1, mid[1].Y, 0.13, "the arch keeps its proportion")

	require.NoError(t, task.Execute(1, nil))
	center := geom.V3(2, 0, 0)
	assertPoints(t, []geom.Vec3{center, center, center}, controlPoints(t, active, "m"), 1e-6)
	assert.Empty(t, active.Edges("m"))
	assert.Len(t, task.LastCommit().Removed, 2)
}

// TestShrinkCurve_TwoLinksUnreachable verifies with no route between the
// links the curve stays put.
func TestShrinkCurve_TwoLinksUnreachable(t *testing.T) {
	active, target := bridgeScene(t)
	task := NewTask(active, target, Shrink, "m")
	before := controlPoints(t, active, "m")

	require.NoError(t, task.Prepare(structure.NewIDSet("a", "b")))
	a := task.Artifacts()
	assert.Equal(t, VariantPathBlend, a.Variant)
	assert.Empty(t, a.PathA)

	require.NoError(t, task.Execute(0.5, nil))
	assertPoints(t, before, controlPoints(t, active, "m"), 0)
}

// TestShrinkCurve_ConstrainedRelinks verifies a cut node folds toward its
// sheet anchor and drags its other neighbours along.
func TestShrinkCurve_ConstrainedRelinks(t *testing.T) {
	active := structure.New("post").
		AddNode(structure.NewSheetNode("floor", flatGrid(3, geom.Vec3{}))).
		AddNode(curveNode("m", "", geom.V3(0, 0, 0), geom.V3(0, 1, 0), geom.V3(0, 2, 0))).
		AddNode(curveNode("k", "", geom.V3(0, 2, 0), geom.V3(1, 2, 0)))
	mustLink(t, active, "m", "k", geom.C(1, 0), geom.C(0, 0))
	mustLink(t, active, "m", "floor", geom.C(0, 0), geom.C(0.5, 0.5))
	target := structure.New("empty")

	task := NewTask(active, target, Shrink, "m")
	require.NoError(t, task.Prepare(nil))
	a := task.Artifacts()
	require.Equal(t, VariantConstrained, a.Variant)
	assert.Equal(t, "floor", a.AnchorNode, "sheet neighbours anchor the fold")

	require.NoError(t, task.Execute(0.5, nil))
	assertPoints(t, []geom.Vec3{geom.V3(0, 0, 0), geom.V3(0, 0.5, 0), geom.V3(0, 1, 0)},
		controlPoints(t, active, "m"), tol)
	k := controlPoints(t, active, "k")
	assert.True(t, k[0].ApproxEqual(geom.V3(0, 1, 0), tol), "bar follows the post top, got %v", k[0])
	assert.True(t, k[1].ApproxEqual(geom.V3(1, 2, 0), tol), "unlinked end stays")
}

// TestSheet_ShrinkFolds verifies a shrinking sheet collapses onto its link.
func TestSheet_ShrinkFolds(t *testing.T) {
	active := structure.New("sheet").
		AddNode(curveNode("post", "", geom.V3(-1, -1, -1), geom.V3(-1, 0, -1))).
		AddNode(structure.NewSheetNode("s", flatGrid(3, geom.Vec3{})))
	mustLink(t, active, "s", "post", geom.C(0, 0), geom.C(1, 0))
	target := structure.New("empty")

	task := NewTask(active, target, Shrink, "s")
	require.NoError(t, task.Prepare(nil))
	require.Equal(t, VariantSheetFold, task.Artifacts().Variant)

	require.NoError(t, task.Execute(1, nil))
	corner := geom.V3(-1, 0, -1)
	for _, p := range controlPoints(t, active, "s") {
		assert.True(t, p.ApproxEqual(corner, tol), "collapsed onto the link, got %v", p)
	}
	assert.Empty(t, active.Edges("s"))
}

// TestSheet_Morph verifies a sheet morph blends every grid point toward the
// target grid.
func TestSheet_Morph(t *testing.T) {
	lifted := geom.V3(0, 2, 0)
	active := structure.New("a").AddNode(structure.NewSheetNode("s", flatGrid(3, geom.Vec3{})))
	target := structure.New("t").AddNode(structure.NewSheetNode("ts", flatGrid(3, lifted)))
	s, _ := active.Node("s")
	s.Correspond = "ts"
	ts, _ := target.Node("ts")
	ts.Correspond = "s"

	task := NewTask(active, target, Morph, "s")
	require.NoError(t, task.Execute(0.5, nil))
	assert.Equal(t, VariantSheetMorph, task.Artifacts().Variant)
	for _, p := range controlPoints(t, active, "s") {
		assert.InDelta(t, 1, p.Y, tol)
	}
}

// TestSheet_MorphDimensionMismatch verifies grids of different sizes
// disable the morph.
func TestSheet_MorphDimensionMismatch(t *testing.T) {
	active := structure.New("a").AddNode(structure.NewSheetNode("s", flatGrid(3, geom.Vec3{})))
	target := structure.New("t").AddNode(structure.NewSheetNode("ts", flatGrid(4, geom.Vec3{})))
	s, _ := active.Node("s")
	s.Correspond = "ts"

	task := NewTask(active, target, Morph, "s")
	require.NoError(t, task.Prepare(nil))
	assert.Equal(t, VariantNone, task.Artifacts().Variant)
}

// TestSplitAndMerge_ShareMorph verifies SPLIT and MERGE prepare like MORPH.
func TestSplitAndMerge_ShareMorph(t *testing.T) {
	for _, kind := range []Kind{Split, Merge} {
		t.Run(kind.String(), func(t *testing.T) {
			active, target := railScene(t)
			task := NewTask(active, target, kind, "m")
			require.NoError(t, task.Prepare(nil))
			assert.Equal(t, VariantTranslate, task.Artifacts().Variant)
		})
	}
}

// TestPrepare_ExcludesRunningNodes verifies excluded nodes are not
// traversed by routes.
func TestPrepare_ExcludesRunningNodes(t *testing.T) {
	active, target := railScene(t)
	task := NewTask(active, target, Morph, "m")

	require.NoError(t, task.Prepare(structure.NewIDSet("b")))
	p := task.Artifacts().Path
	require.NotEmpty(t, p)
	for _, pt := range p {
		assert.Equal(t, "a", pt.NodeID, "b blocks the route past a")
	}
}

// TestPathIndexRounding verifies path indices round to the nearest sample.
func TestPathIndexRounding(t *testing.T) {
	assert.Equal(t, 2, path.IndexAt(0.5, 4), "ties round to nearest")
	assert.Equal(t, 1, path.IndexAt(0.3, 4))
}

// growBridgeScene is bridgeScene reversed: the arch m is unlinked in the
// active graph and its target counterpart tm spans the far ends of ta-tb.
func growBridgeScene(t *testing.T) (active, target *structure.Graph) {
	t.Helper()
	active = structure.New("bridge").
		AddNode(curveNode("a", "ta", seg(0, 2, 0)...)).
		AddNode(curveNode("b", "tb", seg(2, 4, 0)...)).
		AddNode(curveNode("m", "tm", geom.V3(0, 0, 0), geom.V3(2, 2, 0), geom.V3(4, 0, 0)))
	mustLink(t, active, "a", "b", geom.C(1, 0), geom.C(0, 0))

	target = structure.New("bridge-target").
		AddNode(curveNode("ta", "a", seg(0, 2, 0)...)).
		AddNode(curveNode("tb", "b", seg(2, 4, 0)...)).
		AddNode(curveNode("tm", "m", geom.V3(0, 0, 0), geom.V3(2, 2, 0), geom.V3(4, 0, 0)))
	mustLink(t, target, "ta", "tb", geom.C(1, 0), geom.C(0, 0))
	mustLink(t, target, "tm", "ta", geom.C(0, 0), geom.C(0, 0))
	mustLink(t, target, "tm", "tb", geom.C(1, 0), geom.C(1, 0))
	return active, target
}

// TestGrowCurve_TwoLinksPathBlend verifies a two-link curve grows out of
// the midpoint of the route between its future attachments and ends in
// its own shape with both target edges copied.
func TestGrowCurve_TwoLinksPathBlend(t *testing.T) {
	active, target := growBridgeScene(t)
	org := controlPoints(t, active, "m")
	task := NewTask(active, target, Grow, "m")

	require.NoError(t, task.Prepare(nil))
	a := task.Artifacts()
	require.Equal(t, VariantPathBlend, a.Variant)
	require.NotNil(t, a.Frames)
	assert.Len(t, a.PathA, len(a.PathB))
	assert.Equal(t, len(org), a.Encoding.Len())

	center := geom.V3(2, 0, 0)
	assert.True(t, task.positionOf(a.PathA[0]).ApproxEqual(center, 1e-6), "paths start at the midpoint")
	assert.True(t, task.positionOf(a.PathB[0]).ApproxEqual(center, 1e-6))
	collapsed := []geom.Vec3{center, center, center}
	assertPoints(t, collapsed, controlPoints(t, active, "m"), 1e-6)

	require.NoError(t, task.Execute(0, nil))
	assertPoints(t, collapsed, controlPoints(t, active, "m"), 1e-6)

	require.NoError(t, task.Execute(0.5, nil))
	mid := controlPoints(t, active, "m")
	assert.InDelta(t, 1, mid[0].X, 0.13)
	assert.InDelta(t, 3, mid[2].X, 0.13)

	require.NoError(t, task.Execute(1, nil))
	assertPoints(t, org, controlPoints(t, active, "m"), 1e-6)
	assert.ElementsMatch(t, []string{"m:a", "m:b"}, task.LastCommit().Added)

	l, ok := active.EdgeBetween("m", "b")
	require.True(t, ok)
	assert.Equal(t, geom.C(1, 0), l.CoordOn("m"))
	assert.Equal(t, geom.C(1, 0), l.CoordOn("b"))
}

// TestGrowCurve_TwoLinksMissingAttachment verifies a two-link grow fails
// when a future neighbour has no active counterpart.
func TestGrowCurve_TwoLinksMissingAttachment(t *testing.T) {
	active, target := growBridgeScene(t)
	tb, _ := target.Node("tb")
	tb.Correspond = ""

	task := NewTask(active, target, Grow, "m")
	assert.ErrorIs(t, task.Prepare(nil), ErrNoCorrespondence)
}

// TestGrowCurve_ConstrainedUnfolds verifies a curve that will be a cut
// node in the target unfolds in place from its anchor-side end and gains
// every target edge at the end.
func TestGrowCurve_ConstrainedUnfolds(t *testing.T) {
	floor := structure.NewSheetNode("floor", flatGrid(3, geom.Vec3{}))
	floor.Correspond = "tfloor"
	active := structure.New("post").
		AddNode(floor).
		AddNode(curveNode("m", "tm", geom.V3(0, 0, 0), geom.V3(0, 1, 0), geom.V3(0, 2, 0))).
		AddNode(curveNode("k", "tk", geom.V3(0, 2, 0), geom.V3(1, 2, 0)))

	tfloor := structure.NewSheetNode("tfloor", flatGrid(3, geom.Vec3{}))
	tfloor.Correspond = "floor"
	target := structure.New("post-target").
		AddNode(tfloor).
		AddNode(curveNode("tm", "m", geom.V3(0, 0, 0), geom.V3(0, 1, 0), geom.V3(0, 2, 0))).
		AddNode(curveNode("tk", "k", geom.V3(0, 2, 0), geom.V3(1, 2, 0)))
	mustLink(t, target, "tm", "tk", geom.C(1, 0), geom.C(0, 0))
	mustLink(t, target, "tm", "tfloor", geom.C(0, 0), geom.C(0.5, 0.5))

	task := NewTask(active, target, Grow, "m")
	require.NoError(t, task.Prepare(nil))
	a := task.Artifacts()
	require.Equal(t, VariantConstrained, a.Variant)
	assert.Equal(t, "floor", a.AnchorNode)

	base := geom.V3(0, 0, 0)
	assertPoints(t, []geom.Vec3{base, base, base}, controlPoints(t, active, "m"), tol)

	require.NoError(t, task.Execute(0.5, nil))
	assertPoints(t, []geom.Vec3{base, geom.V3(0, 0.5, 0), geom.V3(0, 1, 0)},
		controlPoints(t, active, "m"), tol)

	require.NoError(t, task.Execute(1, nil))
	assertPoints(t, []geom.Vec3{base, geom.V3(0, 1, 0), geom.V3(0, 2, 0)},
		controlPoints(t, active, "m"), tol)
	assert.ElementsMatch(t, []string{"m:k", "m:floor"}, task.LastCommit().Added)
}

// TestMorphCurve_TwoLinksPathBlend verifies both ends of a two-link curve
// travel along their own routes to the future attachments while the
// encoded shape rides between them.
func TestMorphCurve_TwoLinksPathBlend(t *testing.T) {
	active := structure.New("rail").
		AddNode(curveNode("a", "ta", seg(0, 2, 0)...)).
		AddNode(curveNode("b", "tb", seg(2, 4, 0)...)).
		AddNode(curveNode("c", "tc", seg(4, 6, 0)...)).
		AddNode(curveNode("d", "td", seg(6, 8, 0)...)).
		AddNode(curveNode("m", "tm", geom.V3(1, 0, 0), geom.V3(2, 1, 0), geom.V3(3, 0, 0)))
	mustLink(t, active, "a", "b", geom.C(1, 0), geom.C(0, 0))
	mustLink(t, active, "b", "c", geom.C(1, 0), geom.C(0, 0))
	mustLink(t, active, "c", "d", geom.C(1, 0), geom.C(0, 0))

	target := structure.New("rail-target").
		AddNode(curveNode("ta", "a", seg(0, 2, 0)...)).
		AddNode(curveNode("tb", "b", seg(2, 4, 0)...)).
		AddNode(curveNode("tc", "c", seg(4, 6, 0)...)).
		AddNode(curveNode("td", "d", seg(6, 8, 0)...)).
		AddNode(curveNode("tm", "m", geom.V3(5, 0, 0), geom.V3(6, 1, 0), geom.V3(7, 0, 0)))
	mustLink(t, target, "ta", "tb", geom.C(1, 0), geom.C(0, 0))
	mustLink(t, target, "tb", "tc", geom.C(1, 0), geom.C(0, 0))
	mustLink(t, target, "tc", "td", geom.C(1, 0), geom.C(0, 0))
	toC := mustLink(t, target, "tm", "tc", geom.C(0, 0), geom.C(0.5, 0))
	toD := mustLink(t, target, "tm", "td", geom.C(1, 0), geom.C(0.5, 0))

	for _, l := range []*structure.Link{
		{N1: "m", N2: "a", Coord1: geom.C(0, 0), Coord2: geom.C(0.5, 0), Correspond: toC.ID},
		{N1: "m", N2: "b", Coord1: geom.C(1, 0), Coord2: geom.C(0.5, 0), Correspond: toD.ID},
	} {
		_, err := active.AddLink(l)
		require.NoError(t, err)
	}
	org := controlPoints(t, active, "m")

	task := NewTask(active, target, Morph, "m")
	require.NoError(t, task.Prepare(nil))
	a := task.Artifacts()
	require.Equal(t, VariantPathBlend, a.Variant)
	require.NotEmpty(t, a.PathA)
	require.NotEmpty(t, a.PathB)
	assert.InDelta(t, 1, task.positionOf(a.PathA[0]).X, tol)
	assert.InDelta(t, 5, task.positionOf(a.PathA[len(a.PathA)-1]).X, tol)
	assert.InDelta(t, 3, task.positionOf(a.PathB[0]).X, tol)
	assert.InDelta(t, 7, task.positionOf(a.PathB[len(a.PathB)-1]).X, tol)

	require.NoError(t, task.Execute(0, nil))
	assertPoints(t, org, controlPoints(t, active, "m"), 1e-6)

	require.NoError(t, task.Execute(0.5, nil))
	mid := controlPoints(t, active, "m")
	assert.InDelta(t, 3, mid[0].X, 0.13)
	assert.InDelta(t, 5, mid[2].X, 0.13)
	assert.InDelta(t, 1, mid[1].Y, 0.13, "the shape rides between the ends")

	require.NoError(t, task.Execute(1, nil))
	assertPoints(t, []geom.Vec3{geom.V3(5, 0, 0), geom.V3(6, 1, 0), geom.V3(7, 0, 0)},
		controlPoints(t, active, "m"), 1e-6)
	assert.ElementsMatch(t, []string{"m:a", "m:b"}, task.LastCommit().Rewired)

	l, ok := active.EdgeBetween("m", "d")
	require.True(t, ok, "far end rewired to the future neighbour")
	assert.Equal(t, geom.C(0.5, 0), l.CoordOn("d"))
}

// TestSheet_GrowUnfolds verifies a growing sheet is moved onto its future
// attachment, collapsed there, and unfolded back to its own grid.
func TestSheet_GrowUnfolds(t *testing.T) {
	s := structure.NewSheetNode("s", flatGrid(3, geom.V3(10, 0, 0)))
	s.Correspond = "ts"
	active := structure.New("sheet").
		AddNode(curveNode("post", "tpost", geom.V3(-1, -1, -1), geom.V3(-1, 0, -1))).
		AddNode(s)

	ts := structure.NewSheetNode("ts", flatGrid(3, geom.Vec3{}))
	ts.Correspond = "s"
	target := structure.New("sheet-target").
		AddNode(curveNode("tpost", "post", geom.V3(-1, -1, -1), geom.V3(-1, 0, -1))).
		AddNode(ts)
	mustLink(t, target, "ts", "tpost", geom.C(0, 0), geom.C(1, 0))

	task := NewTask(active, target, Grow, "s")
	require.NoError(t, task.Prepare(nil))
	require.Equal(t, VariantSheetFold, task.Artifacts().Variant)

	corner := geom.V3(-1, 0, -1)
	for _, p := range controlPoints(t, active, "s") {
		assert.True(t, p.ApproxEqual(corner, tol), "folded onto the attachment, got %v", p)
	}

	require.NoError(t, task.Execute(1, nil))
	want := structure.NewSheetNode("want", flatGrid(3, geom.Vec3{})).ControlPoints()
	assertPoints(t, want, controlPoints(t, active, "s"), tol)
	assert.Equal(t, []string{"s:post"}, task.LastCommit().Added)
}
