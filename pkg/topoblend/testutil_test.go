package topoblend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

const tol = 1e-9

// seg returns a two-point curve from a to b along x at height y.
func seg(x0, x1, y float64) []geom.Vec3 {
	return []geom.Vec3{geom.V3(x0, y, 0), geom.V3(x1, y, 0)}
}

// flatGrid returns an n x n grid in the XZ plane spanning [-1,1] around center.
func flatGrid(n int, center geom.Vec3) [][]geom.Vec3 {
	grid := make([][]geom.Vec3, n)
	for u := range grid {
		grid[u] = make([]geom.Vec3, n)
		for v := range grid[u] {
			x := -1 + 2*float64(u)/float64(n-1)
			z := -1 + 2*float64(v)/float64(n-1)
			grid[u][v] = center.Add(geom.V3(x, 0, z))
		}
	}
	return grid
}

// curveNode creates a curve node with an optional correspondence.
func curveNode(id, correspond string, pts ...geom.Vec3) *structure.Node {
	n := structure.NewCurveNode(id, pts)
	n.Correspond = correspond
	return n
}

func mustLink(t *testing.T, g *structure.Graph, n1, n2 string, c1, c2 geom.Coord) *structure.Link {
	t.Helper()
	l, err := g.AddEdge(n1, n2, c1, c2)
	require.NoError(t, err)
	return l
}

func controlPoints(t *testing.T, g *structure.Graph, id string) []geom.Vec3 {
	t.Helper()
	n, ok := g.Node(id)
	require.True(t, ok, "node %s", id)
	return n.ControlPoints()
}

func assertPoints(t *testing.T, want, got []geom.Vec3, delta float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].ApproxEqual(got[i], delta), "point %d: want %v, got %v", i, want[i], got[i])
	}
}

// armScene is an arm hanging from a base post. In the target the arm is
// gone and a wing grows from the base's top.
//
//	active: base -- arm      wing (unlinked)
//	target: tbase -- twing
func armScene(t *testing.T) (active, target *structure.Graph) {
	t.Helper()

	active = structure.New("active").
		AddNode(curveNode("base", "tbase", geom.V3(0, 0, 0), geom.V3(0, -2, 0))).
		AddNode(curveNode("arm", "", geom.V3(0, 0, 0), geom.V3(1, 0, 0), geom.V3(2, 0, 0))).
		AddNode(curveNode("wing", "twing", geom.V3(5, 5, 0), geom.V3(6, 5, 0), geom.V3(7, 5, 0)))
	mustLink(t, active, "arm", "base", geom.C(0, 0), geom.C(0, 0))

	target = structure.New("target").
		AddNode(curveNode("tbase", "base", geom.V3(0, 0, 0), geom.V3(0, -2, 0))).
		AddNode(curveNode("twing", "wing", geom.V3(0, -2, 0), geom.V3(-1, -2, 0), geom.V3(-2, -2, 0)))
	mustLink(t, target, "twing", "tbase", geom.C(0, 0), geom.C(1, 0))
	return active, target
}

// railScene is three collinear curves a, b, c on the x axis from 0 to 6.
// A short post m hangs from the middle of a; in the target it hangs from
// the middle of c.
func railScene(t *testing.T) (active, target *structure.Graph) {
	t.Helper()

	active = structure.New("rail").
		AddNode(curveNode("a", "ta", seg(0, 2, 0)...)).
		AddNode(curveNode("b", "tb", seg(2, 4, 0)...)).
		AddNode(curveNode("c", "tc", seg(4, 6, 0)...)).
		AddNode(curveNode("m", "tm", geom.V3(1, 0, 0), geom.V3(1, 1, 0)))
	mustLink(t, active, "a", "b", geom.C(1, 0), geom.C(0, 0))
	mustLink(t, active, "b", "c", geom.C(1, 0), geom.C(0, 0))

	target = structure.New("rail-target").
		AddNode(curveNode("ta", "a", seg(0, 2, 0)...)).
		AddNode(curveNode("tb", "b", seg(2, 4, 0)...)).
		AddNode(curveNode("tc", "c", seg(4, 6, 0)...)).
		AddNode(curveNode("tm", "m", geom.V3(5, 0, 0), geom.V3(5, 1, 0)))
	mustLink(t, target, "ta", "tb", geom.C(1, 0), geom.C(0, 0))
	mustLink(t, target, "tb", "tc", geom.C(1, 0), geom.C(0, 0))
	tl := mustLink(t, target, "tm", "tc", geom.C(0, 0), geom.C(0.5, 0))

	_, err := active.AddLink(&structure.Link{
		N1: "m", N2: "a",
		Coord1: geom.C(0, 0), Coord2: geom.C(0.5, 0),
		Correspond: tl.ID,
	})
	require.NoError(t, err)
	return active, target
}
