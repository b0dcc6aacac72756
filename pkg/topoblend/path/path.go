// Package path holds geodesic routes across a structural graph and the
// clean-up utilities applied to them before they drive a frame sequence:
// welding of coincident samples, fixed-endpoint smoothing, and bisection.
package path

import (
	"math"

	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
)

// Point is one path sample: a node and a local coordinate on it.
type Point struct {
	NodeID string     `json:"node_id"`
	Coord  geom.Coord `json:"coord"`
}

// Path is an ordered route of samples.
type Path []Point

// Locator resolves a path sample to a spatial position.
// structure.Graph satisfies it.
type Locator interface {
	PositionOf(nodeID string, c geom.Coord) (geom.Vec3, bool)
}

// Positions resolves every sample of p. Samples whose node cannot be
// located repeat the previous position (or the origin for the first).
func Positions(p Path, loc Locator) []geom.Vec3 {
	out := make([]geom.Vec3, len(p))
	for i, pt := range p {
		pos, ok := loc.PositionOf(pt.NodeID, pt.Coord)
		if !ok && i > 0 {
			pos = out[i-1]
		}
		out[i] = pos
	}
	return out
}

// Reverse returns a reversed copy of p.
func (p Path) Reverse() Path {
	out := make(Path, len(p))
	for i, pt := range p {
		out[len(p)-1-i] = pt
	}
	return out
}

// Clone returns a copy of p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// IndexAt maps progress t in [0,1] to the nearest sample index of a
// sequence with n entries. It returns -1 when n is zero.
func IndexAt(t float64, n int) int {
	if n <= 0 {
		return -1
	}
	return int(math.Round(geom.Clamp01(t) * float64(n-1)))
}
