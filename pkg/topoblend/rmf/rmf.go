// Package rmf computes rotation minimizing frames along a polyline using
// the double reflection method (Wang, Jüttler, Zheng, Liu 2008).
//
// A frame is an orthonormal triple (R, S, T) where T follows the polyline
// tangent. Consecutive frames are related by transport rather than being
// recomputed from scratch, which keeps the sequence free of twist.
package rmf

import (
	"math"

	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
)

// ZeroNorm is the segment length under which a segment is treated as degenerate.
const ZeroNorm = 1e-10

// Frame is an orthonormal basis anchored at Center.
type Frame struct {
	R      geom.Vec3 `json:"r"`
	S      geom.Vec3 `json:"s"`
	T      geom.Vec3 `json:"t"`
	Center geom.Vec3 `json:"center"`
}

// Identity returns the world-axis frame at the origin.
func Identity() Frame {
	return Frame{R: geom.XAxis, S: geom.YAxis, T: geom.ZAxis}
}

// FromTR builds a frame from a tangent and a reference vector.
func FromTR(t, r geom.Vec3) Frame {
	return newFrame(r, t.Cross(r), t)
}

// FromST builds a frame from its S and T axes.
func FromST(s, t geom.Vec3) Frame {
	return newFrame(s.Cross(t), s, t)
}

// FromT seeds a frame from a tangent alone, picking the reference vector
// from the coordinate axis least aligned with t.
func FromT(t geom.Vec3) Frame {
	t = t.Normalize()
	return FromTR(t, OrthogonalVector(t))
}

func newFrame(r, s, t geom.Vec3) Frame {
	return Frame{R: r.Normalize(), S: s.Normalize(), T: t.Normalize()}
}

// OrthogonalVector returns a unit vector perpendicular to n, derived from
// the coordinate axis with the smallest |component| of n.
func OrthogonalVector(n geom.Vec3) geom.Vec3 {
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)

	axis, least := geom.XAxis, ax
	if ay < least {
		axis, least = geom.YAxis, ay
	}
	if az < least {
		axis = geom.ZAxis
	}

	return axis.Sub(n.Mul(axis.Dot(n))).Normalize()
}

// Basis returns the frame axes in (x, y, z) order.
func (f Frame) Basis() (geom.Vec3, geom.Vec3, geom.Vec3) {
	return f.R, f.S, f.T
}

// RMF is a sequence of frames, one per input point.
type RMF struct {
	Points []geom.Vec3 `json:"points"`
	Frames []Frame     `json:"frames"`
}

// New computes the frame sequence for points.
func New(points []geom.Vec3) *RMF {
	r := &RMF{Points: append([]geom.Vec3(nil), points...)}
	r.compute()
	return r
}

// Count returns the number of frames.
func (r *RMF) Count() int {
	return len(r.Frames)
}

func (r *RMF) compute() {
	n := len(r.Points)
	r.Frames = nil
	if n == 0 {
		return
	}
	if n == 1 {
		f := Identity()
		f.Center = r.Points[0]
		r.Frames = []Frame{f}
		return
	}

	tangents := r.tangents()

	frames := make([]Frame, 0, n)
	frames = append(frames, FromT(tangents[0]))

	for i := 0; i < n-1; i++ {
		prev := frames[len(frames)-1]

		v1 := r.Points[i+1].Sub(r.Points[i])
		if v1.Length() < ZeroNorm {
			frames = append(frames, prev)
			continue
		}

		ri, ti, tj := prev.R, prev.T, tangents[i+1]

		c1 := v1.Dot(v1)
		rL := ri.Sub(v1.Mul(2 / c1 * v1.Dot(ri)))
		tL := ti.Sub(v1.Mul(2 / c1 * v1.Dot(ti)))

		v2 := tj.Sub(tL)
		c2 := v2.Dot(v2)
		rj := rL
		if c2 > ZeroNorm*ZeroNorm {
			rj = rL.Sub(v2.Mul(2 / c2 * v2.Dot(rL)))
		}
		sj := tj.Cross(rj)

		frames = append(frames, FromST(sj, tj))
	}

	for i := range frames {
		frames[i].Center = r.Points[i]
	}
	r.Frames = frames
}

// tangents estimates one unit tangent per point as the direction to the
// next point. Degenerate segments reuse the previous tangent; the last
// point reuses the tangent of the final segment.
func (r *RMF) tangents() []geom.Vec3 {
	n := len(r.Points)
	out := make([]geom.Vec3, n)

	// Seed from the first non-degenerate segment so a leading repeated
	// point does not produce a zero tangent.
	seed := geom.ZAxis
	for i := 0; i < n-1; i++ {
		if d := r.Points[i+1].Sub(r.Points[i]); d.Length() >= ZeroNorm {
			seed = d.Normalize()
			break
		}
	}

	prev := seed
	for i := 0; i < n-1; i++ {
		d := r.Points[i+1].Sub(r.Points[i])
		if d.Length() < ZeroNorm {
			out[i] = prev
			continue
		}
		out[i] = d.Normalize()
		prev = out[i]
	}
	out[n-1] = out[n-2]
	return out
}

// FrameAt maps t in [0,1] to the nearest discrete frame. There is no
// interpolation between neighbouring frames. An empty RMF yields Identity.
func (r *RMF) FrameAt(t float64) Frame {
	if len(r.Frames) == 0 {
		return Identity()
	}
	idx := int(math.Round(geom.Clamp01(t) * float64(len(r.Frames)-1)))
	return r.Frames[idx]
}

// First returns the first frame, or Identity for an empty RMF.
func (r *RMF) First() Frame {
	return r.FrameAt(0)
}

// Last returns the last frame, or Identity for an empty RMF.
func (r *RMF) Last() Frame {
	return r.FrameAt(1)
}
