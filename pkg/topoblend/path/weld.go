package path

import (
	"math"

	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
)

// DefaultWeldTolerance is the distance under which two samples are merged.
const DefaultWeldTolerance = 1e-7

type cell struct{ x, y, z int64 }

func cellOf(p geom.Vec3, tol float64) cell {
	return cell{
		x: int64(math.Floor(p.X / tol)),
		y: int64(math.Floor(p.Y / tol)),
		z: int64(math.Floor(p.Z / tol)),
	}
}

// WeldPositions merges positions that lie within tol of an earlier one.
// It returns the unique positions in first-occurrence order and a
// cross-reference mapping every input index to the input index of its
// canonical (first) occurrence. Unique inputs map to themselves.
func WeldPositions(pts []geom.Vec3, tol float64) ([]geom.Vec3, []int) {
	if tol <= 0 {
		tol = DefaultWeldTolerance
	}

	buckets := make(map[cell][]int, len(pts))
	xref := make([]int, len(pts))
	unique := make([]geom.Vec3, 0, len(pts))

	for i, p := range pts {
		c := cellOf(p, tol)
		canonical := -1

	search:
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, j := range buckets[cell{c.x + dx, c.y + dy, c.z + dz}] {
						if pts[j].Distance(p) <= tol {
							canonical = j
							break search
						}
					}
				}
			}
		}

		if canonical >= 0 {
			xref[i] = canonical
			continue
		}

		xref[i] = i
		buckets[c] = append(buckets[c], i)
		unique = append(unique, p)
	}

	return unique, xref
}

// Weld removes samples of p whose spatial position coincides (within tol)
// with an earlier sample, keeping order. RMF construction requires this
// because it cannot transport a frame across a zero-length segment.
// The returned cross-reference maps every input index to the index (in p)
// of the sample it was merged into.
func Weld(p Path, loc Locator, tol float64) (Path, []int) {
	_, xref := WeldPositions(Positions(p, loc), tol)

	out := make(Path, 0, len(p))
	for i, canonical := range xref {
		if canonical == i {
			out = append(out, p[i])
		}
	}
	return out, xref
}
