package structure

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
)

// Sentinel errors for graph edits.
var (
	// ErrNodeNotFound indicates a lookup referenced a node that does not exist.
	ErrNodeNotFound = errors.New("node not found")

	// ErrLinkNotFound indicates a lookup referenced a link that does not exist.
	ErrLinkNotFound = errors.New("link not found")
)

// Graph is a structural shape graph. Node and link lookups, edge edits and
// endpoint replacement are guarded by an RWMutex so that preparation of
// independent tasks can read the graph concurrently. Node geometry carries
// its own lock.
//
// Example:
//
//	g := structure.New("chair").
//	    AddNode(structure.NewSheetNode("seat", seatGrid)).
//	    AddNode(structure.NewCurveNode("leg", legPoints))
//	g.AddEdge("seat", "leg", geom.C(0, 0), geom.C(1, 0))
type Graph struct {
	Name string

	mu    sync.RWMutex
	nodes map[string]*Node
	order []string
	links []*Link
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{
		Name:  name,
		nodes: make(map[string]*Node),
	}
}

// AddNode adds a node to the graph.
// Returns the graph for method chaining.
//
// Panics if the node is nil, its ID is empty or contains whitespace, or
// the ID already exists.
func (g *Graph) AddNode(n *Node) *Graph {
	if n == nil {
		panic("structure: node cannot be nil")
	}
	if n.ID == "" {
		panic("structure: node ID cannot be empty")
	}
	if strings.ContainsAny(n.ID, " \t\n\r") {
		panic("structure: node ID cannot contain whitespace")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[n.ID]; exists {
		panic(fmt.Sprintf("structure: duplicate node ID: %s", n.ID))
	}

	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return g
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// AddEdge links n1 and n2 at the given coordinates and returns the link.
// The link ID is LinkID(n1, n2).
func (g *Graph) AddEdge(n1, n2 string, c1, c2 geom.Coord) (*Link, error) {
	return g.AddLink(&Link{ID: LinkID(n1, n2), N1: n1, N2: n2, Coord1: c1, Coord2: c2})
}

// AddLink inserts a fully specified link. Both ends must exist.
func (g *Graph) AddLink(l *Link) (*Link, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range []string{l.N1, l.N2} {
		if _, ok := g.nodes[id]; !ok {
			return nil, fmt.Errorf("add link %s: %w: %s", l.ID, ErrNodeNotFound, id)
		}
	}
	if l.ID == "" {
		l.ID = LinkID(l.N1, l.N2)
	}
	g.links = append(g.links, l)
	return l, nil
}

// Edges returns the links incident to nodeID in insertion order.
func (g *Graph) Edges(nodeID string) []*Link {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*Link
	for _, l := range g.links {
		if l.Has(nodeID) {
			out = append(out, l)
		}
	}
	return out
}

// GoodEdges returns the links incident to nodeID that are not flagged Cut.
func (g *Graph) GoodEdges(nodeID string) []*Link {
	var out []*Link
	for _, l := range g.Edges(nodeID) {
		if !l.Cut {
			out = append(out, l)
		}
	}
	return out
}

// Links returns every link in insertion order.
func (g *Graph) Links() []*Link {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Link(nil), g.links...)
}

// Edge returns the link with the given ID.
func (g *Graph) Edge(id string) (*Link, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, l := range g.links {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// EdgeBetween returns the first link joining a and b in either direction.
func (g *Graph) EdgeBetween(a, b string) (*Link, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, l := range g.links {
		if (l.N1 == a && l.N2 == b) || (l.N1 == b && l.N2 == a) {
			return l, true
		}
	}
	return nil, false
}

// RemoveEdge removes every link joining n1 and n2 and reports whether any existed.
func (g *Graph) RemoveEdge(n1, n2 string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	kept := g.links[:0]
	removed := false
	for _, l := range g.links {
		if (l.N1 == n1 && l.N2 == n2) || (l.N1 == n2 && l.N2 == n1) {
			removed = true
			continue
		}
		kept = append(kept, l)
	}
	for i := len(kept); i < len(g.links); i++ {
		g.links[i] = nil
	}
	g.links = kept
	return removed
}

// ReplaceEndpoint rewires the end of link linkID that sits on oldNode so it
// attaches to newNode at coord instead.
func (g *Graph) ReplaceEndpoint(linkID, oldNode, newNode string, coord geom.Coord) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[newNode]; !ok {
		return fmt.Errorf("replace endpoint of %s: %w: %s", linkID, ErrNodeNotFound, newNode)
	}
	for _, l := range g.links {
		if l.ID != linkID {
			continue
		}
		switch oldNode {
		case l.N1:
			l.N1, l.Coord1 = newNode, coord
		case l.N2:
			l.N2, l.Coord2 = newNode, coord
		default:
			return fmt.Errorf("replace endpoint of %s: %w: %s is not an end", linkID, ErrNodeNotFound, oldNode)
		}
		return nil
	}
	return fmt.Errorf("replace endpoint: %w: %s", ErrLinkNotFound, linkID)
}

// PositionOf evaluates node nodeID at c. It satisfies path.Locator.
func (g *Graph) PositionOf(nodeID string, c geom.Coord) (geom.Vec3, bool) {
	n, ok := g.Node(nodeID)
	if !ok {
		return geom.Vec3{}, false
	}
	return n.Position(c), true
}

// LinkPosition returns the spatial position of link l's end on nodeID.
func (g *Graph) LinkPosition(l *Link, nodeID string) (geom.Vec3, bool) {
	return g.PositionOf(nodeID, l.CoordOn(nodeID))
}

// IsCutNode reports whether removing nodeID would disconnect any of its
// neighbours from each other.
func (g *Graph) IsCutNode(nodeID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	adj := make(map[string][]string)
	for _, l := range g.links {
		adj[l.N1] = append(adj[l.N1], l.N2)
		adj[l.N2] = append(adj[l.N2], l.N1)
	}

	neighbours := NewIDSet()
	for _, nb := range adj[nodeID] {
		if nb != nodeID {
			neighbours.Add(nb)
		}
	}
	if len(neighbours) < 2 {
		return false
	}

	start := neighbours.Slice()[0]
	seen := NewIDSet(nodeID, start)
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range adj[cur] {
			if !seen.Has(nb) {
				seen.Add(nb)
				queue = append(queue, nb)
			}
		}
	}

	for nb := range neighbours {
		if !seen.Has(nb) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c := New(g.Name)
	for _, id := range g.order {
		c.nodes[id] = g.nodes[id].Clone()
		c.order = append(c.order, id)
	}
	for _, l := range g.links {
		c.links = append(c.links, l.clone())
	}
	return c
}
