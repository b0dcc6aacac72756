package structure

import (
	"math"
	"sync"

	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
)

// Curve is a parametric curve described by an ordered control polygon.
// Positions are evaluated on the control polygon with a uniform parameter
// per control point. Curve is safe for concurrent use.
type Curve struct {
	mu     sync.RWMutex
	points []geom.Vec3
}

// NewCurve creates a curve over a copy of points.
func NewCurve(points []geom.Vec3) *Curve {
	return &Curve{points: append([]geom.Vec3(nil), points...)}
}

// NumControlPoints returns the control point count.
func (c *Curve) NumControlPoints() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.points)
}

// ControlPoints returns a copy of the control points.
func (c *Curve) ControlPoints() []geom.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]geom.Vec3(nil), c.points...)
}

// ControlPoint returns control point i.
func (c *Curve) ControlPoint(i int) geom.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.points[i]
}

// SetControlPoints replaces the control points with a copy of pts.
func (c *Curve) SetControlPoints(pts []geom.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = append(c.points[:0], pts...)
}

// SetControlPoint replaces control point i.
func (c *Curve) SetControlPoint(i int, p geom.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points[i] = p
}

// ControlPointIndexFromCoord returns the control point nearest to coordinate u.
func (c *Curve) ControlPointIndexFromCoord(coord geom.Coord) int {
	n := c.NumControlPoints()
	if n == 0 {
		return -1
	}
	return int(math.Round(geom.Clamp01(coord.U) * float64(n-1)))
}

// Position evaluates the curve at coord.U.
func (c *Curve) Position(coord geom.Coord) geom.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return polylineAt(c.points, coord.U)
}

// MoveBy translates every control point by d.
func (c *Curve) MoveBy(d geom.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.points {
		c.points[i] = c.points[i].Add(d)
	}
}

// TranslateTo rigidly moves the curve so control point idx sits at pos.
func (c *Curve) TranslateTo(pos geom.Vec3, idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx < 0 || idx >= len(c.points) {
		return
	}
	d := pos.Sub(c.points[idx])
	for i := range c.points {
		c.points[i] = c.points[i].Add(d)
	}
}

// FoldTo returns, for every control point, its displacement from the
// control point nearest coord. When apply is true every control point is
// collapsed onto that fold point. Adding the deltas to a folded curve
// unfolds it again.
func (c *Curve) FoldTo(coord geom.Coord, apply bool) []geom.Vec3 {
	idx := c.ControlPointIndexFromCoord(coord)

	c.mu.Lock()
	defer c.mu.Unlock()
	if idx < 0 {
		return nil
	}

	fold := c.points[idx]
	deltas := make([]geom.Vec3, len(c.points))
	for i, p := range c.points {
		deltas[i] = p.Sub(fold)
		if apply {
			c.points[i] = fold
		}
	}
	return deltas
}

// polylineAt evaluates a control polygon at u in [0,1] with uniform
// spacing per control point.
func polylineAt(pts []geom.Vec3, u float64) geom.Vec3 {
	switch len(pts) {
	case 0:
		return geom.Vec3{}
	case 1:
		return pts[0]
	}
	s := geom.Clamp01(u) * float64(len(pts)-1)
	i := int(math.Floor(s))
	if i >= len(pts)-1 {
		return pts[len(pts)-1]
	}
	return pts[i].Lerp(pts[i+1], s-float64(i))
}
