package geom

import "math"

// Segment is a straight line segment from A to B.
type Segment struct {
	A, B Vec3
}

// NewSegment creates a segment from a to b.
func NewSegment(a, b Vec3) Segment {
	return Segment{A: a, B: b}
}

// Length returns the segment length.
func (s Segment) Length() float64 {
	return s.A.Distance(s.B)
}

// PointAt returns A + t*(B-A).
func (s Segment) PointAt(t float64) Vec3 {
	return s.A.Lerp(s.B, t)
}

// ClosestPoint returns the parameter in [0,1] and position of the point on
// the segment closest to p. A degenerate segment yields t=0 and A.
func (s Segment) ClosestPoint(p Vec3) (float64, Vec3) {
	d := s.B.Sub(s.A)
	lenSq := d.LengthSq()
	if lenSq < Epsilon*Epsilon {
		return 0, s.A
	}
	t := Clamp01(p.Sub(s.A).Dot(d) / lenSq)
	return t, s.PointAt(t)
}

// ToLocalSpherical expresses the unit direction dir in the basis (x, y, z)
// as spherical angles: theta is measured from z, psi around z from x.
// A zero direction yields (0, 0).
func ToLocalSpherical(x, y, z, dir Vec3) (theta, psi float64) {
	if dir.IsZero() {
		return 0, 0
	}
	dir = dir.Normalize()
	lx, ly, lz := dir.Dot(x), dir.Dot(y), dir.Dot(z)
	theta = math.Atan2(math.Hypot(lx, ly), lz)
	psi = math.Atan2(ly, lx)
	return theta, psi
}

// FromLocalSpherical is the inverse of ToLocalSpherical: it rebuilds a unit
// direction from (theta, psi) in the basis (x, y, z).
func FromLocalSpherical(x, y, z Vec3, theta, psi float64) Vec3 {
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(psi)
	return x.Mul(st * cp).Add(y.Mul(st * sp)).Add(z.Mul(ct))
}
