package benchmarks

import (
	"fmt"
	"math"
	"testing"

	"github.com/randalmurphal/topoblend/pkg/topoblend/encoding"
	"github.com/randalmurphal/topoblend/pkg/topoblend/geodesic"
	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
	"github.com/randalmurphal/topoblend/pkg/topoblend/path"
	"github.com/randalmurphal/topoblend/pkg/topoblend/rmf"
	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

// helix samples n points on a helix, a polyline with constant torsion.
func helix(n int) []geom.Vec3 {
	pts := make([]geom.Vec3, n)
	for i := range pts {
		a := float64(i) * 0.1
		pts[i] = geom.V3(math.Cos(a), math.Sin(a), a*0.2)
	}
	return pts
}

// chain builds n curves joined end to end along the X axis.
func chain(n int) *structure.Graph {
	g := structure.New("chain")
	for i := 0; i < n; i++ {
		x := float64(i)
		g.AddNode(structure.NewCurveNode(fmt.Sprintf("c%d", i),
			[]geom.Vec3{geom.V3(x, 0, 0), geom.V3(x+0.5, 0.2, 0), geom.V3(x+1, 0, 0)}))
		if i > 0 {
			_, _ = g.AddEdge(fmt.Sprintf("c%d", i-1), fmt.Sprintf("c%d", i), geom.C(1, 0), geom.C(0, 0))
		}
	}
	return g
}

// BenchmarkRMF_100 measures frame transport along a 100-point polyline.
func BenchmarkRMF_100(b *testing.B) {
	pts := helix(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rmf.New(pts)
	}
}

// BenchmarkRMF_1000 measures frame transport along a 1000-point polyline.
func BenchmarkRMF_1000(b *testing.B) {
	pts := helix(1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rmf.New(pts)
	}
}

// BenchmarkEncodeDecode measures a round trip of a 50-point curve in a frame.
func BenchmarkEncodeDecode(b *testing.B) {
	pts := helix(50)
	f := rmf.FromT(geom.ZAxis)
	start, end := pts[0], pts[len(pts)-1]

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		enc := encoding.Encode(pts, start, end, f.R, f.S, f.T)
		encoding.Decode(enc, start, end, f.R, f.S, f.T)
	}
}

// BenchmarkSmooth measures Laplacian relaxation of a 500-point path.
func BenchmarkSmooth(b *testing.B) {
	pts := helix(500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		path.Smooth(pts, 2)
	}
}

// BenchmarkWeldPositions measures duplicate removal on a path that revisits
// every point once.
func BenchmarkWeldPositions(b *testing.B) {
	pts := helix(250)
	pts = append(pts, pts...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		path.WeldPositions(pts, 1e-7)
	}
}

// BenchmarkGeodesic_Chain10 measures a distance field and path over 10 curves.
func BenchmarkGeodesic_Chain10(b *testing.B) {
	benchmarkGeodesic(b, 10)
}

// BenchmarkGeodesic_Chain50 measures a distance field and path over 50 curves.
func BenchmarkGeodesic_Chain50(b *testing.B) {
	benchmarkGeodesic(b, 50)
}

func benchmarkGeodesic(b *testing.B, n int) {
	g := chain(n)
	p := geodesic.NewSampleProvider(geodesic.DefaultResolution)
	from, to := geom.V3(0, 0, 0), geom.V3(float64(n), 0, 0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		field, err := p.ComputeDistances(g, from, nil)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := field.PathTo(to); err != nil {
			b.Fatal(err)
		}
	}
}
