package topoblend

import (
	"fmt"

	"github.com/randalmurphal/topoblend/pkg/topoblend/encoding"
	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
	"github.com/randalmurphal/topoblend/pkg/topoblend/path"
	"github.com/randalmurphal/topoblend/pkg/topoblend/rmf"
)

// Variant selects how a prepared task moves its node.
type Variant int

const (
	// VariantNone leaves the geometry untouched; only topology is committed.
	VariantNone Variant = iota
	// VariantFold blends curve control points linearly by per-point deltas.
	VariantFold
	// VariantConstrained is VariantFold plus re-linking the node's other neighbours.
	VariantConstrained
	// VariantPathBlend drives both curve ends along paths and decodes the shape in the moving frame.
	VariantPathBlend
	// VariantTranslate rigidly moves a curve so its linked control point follows a path.
	VariantTranslate
	// VariantSheetFold blends a sheet grid by per-point deltas toward or away from a fold point.
	VariantSheetFold
	// VariantSheetMorph blends a sheet grid toward its target grid.
	VariantSheetMorph
)

var variantNames = [...]string{"none", "fold", "constrained", "path-blend", "translate", "sheet-fold", "sheet-morph"}

// String returns the variant name.
func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// Artifacts is what Prepare computes for Execute. Only the fields of the
// selected Variant are set. Execute never writes to Artifacts.
type Artifacts struct {
	Variant Variant `json:"variant"`

	// Curve fold (VariantFold, VariantConstrained).
	OrgCtrlPoints []geom.Vec3 `json:"org_ctrl_points,omitempty"`
	Deltas        []geom.Vec3 `json:"deltas,omitempty"`
	AnchorNode    string      `json:"anchor_node,omitempty"`

	// Sheet fold or morph (VariantSheetFold, VariantSheetMorph).
	OrgGrid    [][]geom.Vec3 `json:"org_grid,omitempty"`
	GridDeltas [][]geom.Vec3 `json:"grid_deltas,omitempty"`

	// Single-link motion (VariantTranslate).
	Path        path.Path `json:"path,omitempty"`
	AnchorIndex int       `json:"anchor_index,omitempty"`

	// Two-link motion (VariantPathBlend).
	PathA    path.Path              `json:"path_a,omitempty"`
	PathB    path.Path              `json:"path_b,omitempty"`
	Frames   *rmf.RMF               `json:"frames,omitempty"`
	Encoding encoding.CurveEncoding `json:"encoding,omitempty"`
}

func negate(vs []geom.Vec3) []geom.Vec3 {
	out := make([]geom.Vec3, len(vs))
	for i, v := range vs {
		out[i] = v.Neg()
	}
	return out
}

func negateGrid(grid [][]geom.Vec3) [][]geom.Vec3 {
	out := make([][]geom.Vec3, len(grid))
	for i, row := range grid {
		out[i] = negate(row)
	}
	return out
}

// blend returns org[i] + deltas[i]*t.
func blend(org, deltas []geom.Vec3, t float64) []geom.Vec3 {
	out := make([]geom.Vec3, len(org))
	for i := range org {
		out[i] = org[i]
		if i < len(deltas) {
			out[i] = out[i].Add(deltas[i].Mul(t))
		}
	}
	return out
}

func blendGrid(org, deltas [][]geom.Vec3, t float64) [][]geom.Vec3 {
	out := make([][]geom.Vec3, len(org))
	for i := range org {
		var d []geom.Vec3
		if i < len(deltas) {
			d = deltas[i]
		}
		out[i] = blend(org[i], d, t)
	}
	return out
}
