// Package geodesic computes shortest routes across the geometry of a
// structural graph. Routes are returned as path.Path values so callers can
// re-evaluate them against the graph as it deforms.
package geodesic

import (
	"errors"
	"math"

	gpath "gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
	"github.com/randalmurphal/topoblend/pkg/topoblend/path"
	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

// DefaultResolution is the number of segments each node is sampled with.
const DefaultResolution = 16

// Sentinel errors for path queries.
var (
	// ErrNoSamples indicates every node was excluded or the graph is empty.
	ErrNoSamples = errors.New("no geometry to route across")

	// ErrUnreachable indicates the target cannot be reached from the seed.
	ErrUnreachable = errors.New("target unreachable from seed")
)

// Provider computes a distance field over a graph from a seed position.
// Nodes in exclude are not traversed. The exclusion set is read for the
// duration of the call only.
type Provider interface {
	ComputeDistances(g *structure.Graph, seed geom.Vec3, exclude structure.IDSet) (Field, error)
}

// Field is the result of a distance computation.
type Field interface {
	// PathTo returns the route from the seed to the sample nearest target,
	// ordered seed first.
	PathTo(target geom.Vec3) (path.Path, error)
}

// SampleProvider discretizes every node into samples, joins consecutive
// samples of a node and the two ends of every link into a weighted
// undirected graph, and runs Dijkstra over it.
type SampleProvider struct {
	Resolution int
}

// NewSampleProvider creates a provider sampling each node with resolution
// segments per parametric direction.
func NewSampleProvider(resolution int) *SampleProvider {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	return &SampleProvider{Resolution: resolution}
}

// ComputeDistances implements Provider.
func (p *SampleProvider) ComputeDistances(g *structure.Graph, seed geom.Vec3, exclude structure.IDSet) (Field, error) {
	sg := buildSampleGraph(g, exclude, p.Resolution)
	if len(sg.samples) == 0 {
		return nil, ErrNoSamples
	}

	src := sg.nearest(seed, nil)
	return &distanceField{graph: sg, tree: gpath.DijkstraFrom(simple.Node(src), sg.g)}, nil
}

type distanceField struct {
	graph *sampleGraph
	tree  gpath.Shortest
}

// PathTo implements Field.
func (f *distanceField) PathTo(target geom.Vec3) (path.Path, error) {
	dst := f.graph.nearest(target, func(i int) bool {
		return !math.IsInf(f.tree.WeightTo(int64(i)), 1)
	})
	if dst < 0 {
		return nil, ErrUnreachable
	}

	nodes, _ := f.tree.To(int64(dst))
	if len(nodes) == 0 {
		return nil, ErrUnreachable
	}
	out := make(path.Path, len(nodes))
	for i, n := range nodes {
		out[i] = f.graph.samples[n.ID()].point
	}
	return out, nil
}

type sample struct {
	point path.Point
	pos   geom.Vec3
}

// sampleGraph keeps the geometry of every sample; the gonum node ID of a
// sample is its index in samples.
type sampleGraph struct {
	samples []sample
	g       *simple.WeightedUndirectedGraph
	byNode  map[string][]int
}

func (sg *sampleGraph) add(nodeID string, c geom.Coord, pos geom.Vec3) int {
	idx := len(sg.samples)
	sg.samples = append(sg.samples, sample{point: path.Point{NodeID: nodeID, Coord: c}, pos: pos})
	sg.g.AddNode(simple.Node(idx))
	sg.byNode[nodeID] = append(sg.byNode[nodeID], idx)
	return idx
}

// connect joins two samples with their Euclidean distance as weight.
func (sg *sampleGraph) connect(a, b int) {
	if a == b {
		return
	}
	w := sg.samples[a].pos.Distance(sg.samples[b].pos)
	sg.g.SetWeightedEdge(sg.g.NewWeightedEdge(simple.Node(a), simple.Node(b), w))
}

// nearest returns the sample closest to p that satisfies keep (nil keeps all).
func (sg *sampleGraph) nearest(p geom.Vec3, keep func(int) bool) int {
	best, bestD := -1, math.Inf(1)
	for i, s := range sg.samples {
		if keep != nil && !keep(i) {
			continue
		}
		if d := s.pos.Distance(p); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

func buildSampleGraph(g *structure.Graph, exclude structure.IDSet, res int) *sampleGraph {
	sg := &sampleGraph{
		g:      simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		byNode: make(map[string][]int),
	}

	for _, n := range g.Nodes() {
		if exclude.Has(n.ID) {
			continue
		}
		if n.Kind() == structure.KindSheet {
			sampleSheet(sg, n, res)
		} else {
			sampleCurve(sg, n, res)
		}
	}

	for _, l := range g.Links() {
		var ends []int
		for _, id := range []string{l.N1, l.N2} {
			if exclude.Has(id) {
				continue
			}
			n, ok := g.Node(id)
			if !ok {
				continue
			}
			own := sg.byNode[id]
			c := l.CoordOn(id)
			s := sg.add(id, c, n.Position(c))
			for _, k := range nearestOf(sg, own, sg.samples[s].pos, 2) {
				sg.connect(s, k)
			}
			ends = append(ends, s)
		}
		if len(ends) == 2 {
			sg.connect(ends[0], ends[1])
		}
	}
	return sg
}

func sampleCurve(sg *sampleGraph, n *structure.Node, res int) {
	prev := -1
	for i := 0; i <= res; i++ {
		c := geom.C(float64(i)/float64(res), 0)
		s := sg.add(n.ID, c, n.Position(c))
		if prev >= 0 {
			sg.connect(prev, s)
		}
		prev = s
	}
}

func sampleSheet(sg *sampleGraph, n *structure.Node, res int) {
	idx := make([][]int, res+1)
	for i := 0; i <= res; i++ {
		idx[i] = make([]int, res+1)
		for j := 0; j <= res; j++ {
			c := geom.C(float64(i)/float64(res), float64(j)/float64(res))
			idx[i][j] = sg.add(n.ID, c, n.Position(c))
			if i > 0 {
				sg.connect(idx[i-1][j], idx[i][j])
			}
			if j > 0 {
				sg.connect(idx[i][j-1], idx[i][j])
			}
			if i > 0 && j > 0 {
				sg.connect(idx[i-1][j-1], idx[i][j])
				sg.connect(idx[i-1][j], idx[i][j-1])
			}
		}
	}
}

// nearestOf returns up to k candidates closest to p.
func nearestOf(sg *sampleGraph, candidates []int, p geom.Vec3, k int) []int {
	out := make([]int, 0, k)
	used := make(map[int]bool, k)
	for len(out) < k && len(out) < len(candidates) {
		best, bestD := -1, math.Inf(1)
		for _, c := range candidates {
			if used[c] {
				continue
			}
			if d := sg.samples[c].pos.Distance(p); d < bestD {
				best, bestD = c, d
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		out = append(out, best)
	}
	return out
}
