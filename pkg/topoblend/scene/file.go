package scene

import (
	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

// File is the YAML/JSON layout of a scene.
// Field names use both yaml and json tags for dual format support.
type File struct {
	Name            string               `yaml:"name" json:"name"`
	Settings        map[string]any       `yaml:"settings,omitempty" json:"settings,omitempty"`
	Active          GraphFile            `yaml:"active" json:"active"`
	Target          GraphFile            `yaml:"target" json:"target"`
	Correspondences []CorrespondenceFile `yaml:"correspondences,omitempty" json:"correspondences,omitempty"`
	Tasks           []TaskFile           `yaml:"tasks" json:"tasks"`
}

// GraphFile describes one structural graph.
type GraphFile struct {
	Name  string     `yaml:"name" json:"name"`
	Nodes []NodeFile `yaml:"nodes" json:"nodes"`
	Links []LinkFile `yaml:"links,omitempty" json:"links,omitempty"`
}

// NodeFile describes a curve (points) or a sheet (grid rows).
type NodeFile struct {
	ID         string         `yaml:"id" json:"id"`
	Kind       string         `yaml:"kind,omitempty" json:"kind,omitempty"`
	Correspond string         `yaml:"correspond,omitempty" json:"correspond,omitempty"`
	Points     [][3]float64   `yaml:"points,omitempty" json:"points,omitempty"`
	Grid       [][][3]float64 `yaml:"grid,omitempty" json:"grid,omitempty"`
}

// LinkFile attaches N1 at Coord1 to N2 at Coord2. A missing ID defaults to
// "N1:N2".
type LinkFile struct {
	ID         string     `yaml:"id,omitempty" json:"id,omitempty"`
	N1         string     `yaml:"n1" json:"n1"`
	N2         string     `yaml:"n2" json:"n2"`
	Coord1     [2]float64 `yaml:"coord1" json:"coord1"`
	Coord2     [2]float64 `yaml:"coord2" json:"coord2"`
	Correspond string     `yaml:"correspond,omitempty" json:"correspond,omitempty"`
	Cut        bool       `yaml:"cut,omitempty" json:"cut,omitempty"`
}

// CorrespondenceFile pairs an active node or link with its target
// counterpart.
type CorrespondenceFile struct {
	Active string `yaml:"active" json:"active"`
	Target string `yaml:"target" json:"target"`
}

// TaskFile is one entry of the task plan. Length 0 uses the configured
// default task length.
type TaskFile struct {
	ID     string `yaml:"id,omitempty" json:"id,omitempty"`
	Kind   string `yaml:"kind" json:"kind"`
	Node   string `yaml:"node" json:"node"`
	Start  int    `yaml:"start" json:"start"`
	Length int    `yaml:"length,omitempty" json:"length,omitempty"`
}

// EncodeGraph converts g to its file form, for writing blend results.
func EncodeGraph(g *structure.Graph) GraphFile {
	snap := g.Snapshot()
	out := GraphFile{Name: snap.Name}
	for _, ns := range snap.Nodes {
		nf := NodeFile{ID: ns.ID, Kind: ns.Kind, Correspond: ns.Correspond}
		for _, p := range ns.Points {
			nf.Points = append(nf.Points, vecArray(p))
		}
		for _, row := range ns.Grid {
			r := make([][3]float64, len(row))
			for i, p := range row {
				r[i] = vecArray(p)
			}
			nf.Grid = append(nf.Grid, r)
		}
		out.Nodes = append(out.Nodes, nf)
	}
	for _, ls := range snap.Links {
		out.Links = append(out.Links, LinkFile{
			ID:         ls.ID,
			N1:         ls.N1,
			N2:         ls.N2,
			Coord1:     [2]float64{ls.Coord1.U, ls.Coord1.V},
			Coord2:     [2]float64{ls.Coord2.U, ls.Coord2.V},
			Correspond: ls.Correspond,
			Cut:        ls.Cut,
		})
	}
	return out
}

func vecArray(v geom.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func arrayVec(a [3]float64) geom.Vec3 {
	return geom.V3(a[0], a[1], a[2])
}
