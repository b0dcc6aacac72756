package structure

import "github.com/randalmurphal/topoblend/pkg/topoblend/geom"

// Link is an undirected structural edge between two nodes. Each end
// records the local coordinate at which it attaches to its node.
type Link struct {
	ID     string
	N1, N2 string
	Coord1 geom.Coord
	Coord2 geom.Coord
	// Correspond is the ID of the counterpart link in the other graph.
	Correspond string
	// Cut marks a link that no longer constrains its nodes.
	Cut bool
}

// LinkID returns the canonical ID for a link between n1 and n2.
func LinkID(n1, n2 string) string {
	return n1 + ":" + n2
}

// Has reports whether nodeID is one of the link's ends.
func (l *Link) Has(nodeID string) bool {
	return l.N1 == nodeID || l.N2 == nodeID
}

// Other returns the ID of the end that is not nodeID.
func (l *Link) Other(nodeID string) string {
	if l.N1 == nodeID {
		return l.N2
	}
	return l.N1
}

// CoordOn returns the attachment coordinate on nodeID.
func (l *Link) CoordOn(nodeID string) geom.Coord {
	if l.N1 == nodeID {
		return l.Coord1
	}
	return l.Coord2
}

// CoordOther returns the attachment coordinate on the end that is not nodeID.
func (l *Link) CoordOther(nodeID string) geom.Coord {
	if l.N1 == nodeID {
		return l.Coord2
	}
	return l.Coord1
}

func (l *Link) clone() *Link {
	c := *l
	return &c
}
