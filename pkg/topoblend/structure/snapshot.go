package structure

import (
	"fmt"

	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
)

// Snapshot is the serializable form of a Graph.
type Snapshot struct {
	Name  string         `json:"name"`
	Nodes []NodeSnapshot `json:"nodes"`
	Links []LinkSnapshot `json:"links"`
}

// NodeSnapshot is the serializable form of a Node.
type NodeSnapshot struct {
	ID         string        `json:"id"`
	Kind       string        `json:"kind"`
	Correspond string        `json:"correspond,omitempty"`
	Points     []geom.Vec3   `json:"points,omitempty"`
	Grid       [][]geom.Vec3 `json:"grid,omitempty"`
}

// LinkSnapshot is the serializable form of a Link.
type LinkSnapshot struct {
	ID         string     `json:"id"`
	N1         string     `json:"n1"`
	N2         string     `json:"n2"`
	Coord1     geom.Coord `json:"coord1"`
	Coord2     geom.Coord `json:"coord2"`
	Correspond string     `json:"correspond,omitempty"`
	Cut        bool       `json:"cut,omitempty"`
}

// Snapshot captures the graph's current nodes, geometry and links.
func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Snapshot{Name: g.Name}
	for _, id := range g.order {
		n := g.nodes[id]
		ns := NodeSnapshot{ID: n.ID, Kind: n.kind.String(), Correspond: n.Correspond}
		if n.kind == KindSheet {
			ns.Grid = n.sheet.ControlGrid()
		} else {
			ns.Points = n.curve.ControlPoints()
		}
		s.Nodes = append(s.Nodes, ns)
	}
	for _, l := range g.links {
		s.Links = append(s.Links, LinkSnapshot{
			ID: l.ID, N1: l.N1, N2: l.N2,
			Coord1: l.Coord1, Coord2: l.Coord2,
			Correspond: l.Correspond, Cut: l.Cut,
		})
	}
	return s
}

// FromSnapshot builds a new graph from s.
func FromSnapshot(s Snapshot) (*Graph, error) {
	g := New(s.Name)
	if err := g.Restore(s); err != nil {
		return nil, err
	}
	return g, nil
}

// Restore replaces the graph contents with s in place, keeping the Graph
// pointer valid for anyone holding it.
func (g *Graph) Restore(s Snapshot) error {
	nodes := make(map[string]*Node, len(s.Nodes))
	order := make([]string, 0, len(s.Nodes))

	for _, ns := range s.Nodes {
		var n *Node
		switch ns.Kind {
		case KindSheet.String():
			n = NewSheetNode(ns.ID, ns.Grid)
		case KindCurve.String(), "":
			n = NewCurveNode(ns.ID, ns.Points)
		default:
			return fmt.Errorf("restore node %s: unknown kind %q", ns.ID, ns.Kind)
		}
		n.Correspond = ns.Correspond
		if _, dup := nodes[ns.ID]; dup {
			return fmt.Errorf("restore: duplicate node ID: %s", ns.ID)
		}
		nodes[ns.ID] = n
		order = append(order, ns.ID)
	}

	links := make([]*Link, 0, len(s.Links))
	for _, ls := range s.Links {
		for _, id := range []string{ls.N1, ls.N2} {
			if _, ok := nodes[id]; !ok {
				return fmt.Errorf("restore link %s: %w: %s", ls.ID, ErrNodeNotFound, id)
			}
		}
		links = append(links, &Link{
			ID: ls.ID, N1: ls.N1, N2: ls.N2,
			Coord1: ls.Coord1, Coord2: ls.Coord2,
			Correspond: ls.Correspond, Cut: ls.Cut,
		})
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.Name = s.Name
	g.nodes = nodes
	g.order = order
	g.links = links
	return nil
}
