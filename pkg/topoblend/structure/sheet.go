package structure

import (
	"math"
	"sync"

	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
)

// Sheet is a parametric surface described by a grid of control points
// indexed [u][v]. Positions are evaluated bilinearly on the grid.
type Sheet struct {
	mu   sync.RWMutex
	grid [][]geom.Vec3
}

// NewSheet creates a sheet over a copy of grid.
func NewSheet(grid [][]geom.Vec3) *Sheet {
	return &Sheet{grid: cloneGrid(grid)}
}

// Dims returns the control grid dimensions (nU, nV).
func (s *Sheet) Dims() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gridDims(s.grid)
}

// ControlGrid returns a copy of the control grid.
func (s *Sheet) ControlGrid() [][]geom.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneGrid(s.grid)
}

// SetControlGrid replaces the control grid with a copy of grid.
func (s *Sheet) SetControlGrid(grid [][]geom.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = cloneGrid(grid)
}

// ControlPoints returns the grid flattened in row-major order.
func (s *Sheet) ControlPoints() []geom.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []geom.Vec3
	for _, row := range s.grid {
		out = append(out, row...)
	}
	return out
}

// ControlPointIndexFromCoord returns the grid index nearest to coord.
func (s *Sheet) ControlPointIndexFromCoord(coord geom.Coord) (int, int) {
	nu, nv := s.Dims()
	if nu == 0 || nv == 0 {
		return -1, -1
	}
	iu := int(math.Round(geom.Clamp01(coord.U) * float64(nu-1)))
	iv := int(math.Round(geom.Clamp01(coord.V) * float64(nv-1)))
	return iu, iv
}

// Position evaluates the sheet at coord.
func (s *Sheet) Position(coord geom.Coord) geom.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nu, nv := gridDims(s.grid)
	if nu == 0 || nv == 0 {
		return geom.Vec3{}
	}

	fu := geom.Clamp01(coord.U) * float64(nu-1)
	iu := int(math.Floor(fu))
	if iu >= nu-1 {
		iu = max(nu-2, 0)
	}
	du := fu - float64(iu)

	column := func(i int) geom.Vec3 {
		if i >= nu {
			i = nu - 1
		}
		return polylineAt(s.grid[i], coord.V)
	}

	if nu == 1 {
		return column(0)
	}
	return column(iu).Lerp(column(iu+1), du)
}

// MoveBy translates every control point by d.
func (s *Sheet) MoveBy(d geom.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for u := range s.grid {
		for v := range s.grid[u] {
			s.grid[u][v] = s.grid[u][v].Add(d)
		}
	}
}

// FoldTo is the sheet counterpart of Curve.FoldTo: deltas from the
// control point nearest coord, optionally collapsing the grid onto it.
func (s *Sheet) FoldTo(coord geom.Coord, apply bool) [][]geom.Vec3 {
	iu, iv := s.ControlPointIndexFromCoord(coord)

	s.mu.Lock()
	defer s.mu.Unlock()
	if iu < 0 {
		return nil
	}

	fold := s.grid[iu][iv]
	deltas := make([][]geom.Vec3, len(s.grid))
	for u, row := range s.grid {
		deltas[u] = make([]geom.Vec3, len(row))
		for v, p := range row {
			deltas[u][v] = p.Sub(fold)
			if apply {
				s.grid[u][v] = fold
			}
		}
	}
	return deltas
}

func gridDims(grid [][]geom.Vec3) (int, int) {
	if len(grid) == 0 {
		return 0, 0
	}
	return len(grid), len(grid[0])
}

func cloneGrid(grid [][]geom.Vec3) [][]geom.Vec3 {
	if grid == nil {
		return nil
	}
	out := make([][]geom.Vec3, len(grid))
	for i, row := range grid {
		out[i] = append([]geom.Vec3(nil), row...)
	}
	return out
}
