package geom

// Coord is a local parametric coordinate on a node.
// Curves only use U; sheets use both U and V. Both lie in [0,1].
type Coord struct {
	U float64 `json:"u" yaml:"u"`
	V float64 `json:"v" yaml:"v"`
}

// C is a convenience function to create a Coord.
func C(u, v float64) Coord {
	return Coord{U: u, V: v}
}

// Clamped returns the coordinate with both parameters clamped to [0,1].
func (c Coord) Clamped() Coord {
	return Coord{U: Clamp01(c.U), V: Clamp01(c.V)}
}
