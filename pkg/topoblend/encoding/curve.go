// Package encoding converts curve control points to and from a
// frame-relative parametrization so a curve's silhouette can be replayed
// against a moving pair of anchors and a moving frame.
package encoding

import (
	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
)

// Param encodes one control point relative to a reference segment and frame.
type Param struct {
	// Arc is 1-t, where t is the closest-point parameter on the segment.
	Arc float64 `json:"arc"`
	// Offset is the perpendicular offset magnitude divided by the segment length.
	Offset float64 `json:"offset"`
	// Theta and Psi are the offset direction's spherical angles in the frame basis.
	Theta float64 `json:"theta"`
	Psi   float64 `json:"psi"`
}

// CurveEncoding holds one Param per control point.
type CurveEncoding []Param

// Encode expresses every point relative to the segment start→end and the
// basis (x, y, z). A zero offset encodes its angles as zero. When the
// segment is degenerate the offset cannot be normalized and is recorded
// as zero.
func Encode(points []geom.Vec3, start, end, x, y, z geom.Vec3) CurveEncoding {
	seg := geom.NewSegment(start, end)
	baseLen := seg.Length()

	enc := make(CurveEncoding, len(points))
	for i, p := range points {
		t, proj := seg.ClosestPoint(p)
		dir := p.Sub(proj)

		param := Param{Arc: 1 - t}
		if mag := dir.Length(); mag > 0 {
			if baseLen > geom.Epsilon {
				param.Offset = mag / baseLen
			}
			param.Theta, param.Psi = geom.ToLocalSpherical(x, y, z, dir.Mul(1/mag))
		}
		enc[i] = param
	}
	return enc
}

// Decode is the inverse of Encode against a possibly different segment and
// basis: the offset direction is rebuilt in the current basis and scaled by
// the current segment length.
func Decode(enc CurveEncoding, start, end, x, y, z geom.Vec3) []geom.Vec3 {
	seg := geom.NewSegment(start, end)
	baseLen := seg.Length()

	out := make([]geom.Vec3, len(enc))
	for i, p := range enc {
		dir := geom.FromLocalSpherical(x, y, z, p.Theta, p.Psi).Mul(p.Offset * baseLen)
		out[i] = seg.PointAt(1 - p.Arc).Add(dir)
	}
	return out
}

// Len returns the number of encoded control points.
func (e CurveEncoding) Len() int {
	return len(e)
}
