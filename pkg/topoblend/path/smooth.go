package path

import "github.com/randalmurphal/topoblend/pkg/topoblend/geom"

// Smooth applies fixed-endpoint Laplacian relaxation: every interior sample
// is replaced by the midpoint of its two neighbours, iters times. Both
// endpoints are never moved. The input slice is not modified.
func Smooth(pts []geom.Vec3, iters int) []geom.Vec3 {
	out := make([]geom.Vec3, len(pts))
	copy(out, pts)
	if len(pts) < 3 {
		return out
	}

	next := make([]geom.Vec3, len(pts))
	for it := 0; it < iters; it++ {
		next[0] = out[0]
		for i := 1; i < len(out)-1; i++ {
			next[i] = out[i-1].Add(out[i+1]).Mul(0.5)
		}
		next[len(out)-1] = out[len(out)-1]
		out, next = next, out
	}
	return out
}
