// Package scene loads blend scenes: an active graph, the target graph it
// should become, the correspondences between them, and a task plan.
//
// Example scene:
//
//	name: chair-to-stool
//	settings:
//	  task:
//	    default_length: 40
//	active:
//	  name: chair
//	  nodes:
//	    - {id: seat, kind: curve, points: [[0,0,0], [1,0,0]]}
//	    - {id: back, kind: curve, points: [[0,0,0], [0,1,0]]}
//	  links:
//	    - {n1: back, n2: seat, coord1: [0,0], coord2: [0,0]}
//	target:
//	  name: stool
//	  nodes:
//	    - {id: top, kind: curve, points: [[0,0,0], [1,0,0]]}
//	correspondences:
//	  - {active: seat, target: top}
//	tasks:
//	  - {kind: shrink, node: back, start: 0}
//	  - {kind: morph, node: seat, start: 40}
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/topoblend/pkg/topoblend"
	"github.com/randalmurphal/topoblend/pkg/topoblend/config"
	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

// Sentinel errors for scene loading.
var (
	// ErrSceneFileMissing indicates the scene file does not exist.
	ErrSceneFileMissing = errors.New("scene file missing")

	// ErrSceneParse indicates the scene file is not valid YAML or JSON.
	ErrSceneParse = errors.New("scene parse error")

	// ErrInvalidScene indicates a well-formed file describing an unusable scene.
	ErrInvalidScene = errors.New("invalid scene")
)

// Task is one parsed entry of the task plan.
type Task struct {
	ID     string
	Kind   topoblend.Kind
	Node   string
	Start  int
	Length int
}

// Scene is a loaded, validated scene.
type Scene struct {
	Name     string
	Settings config.Settings
	Active   *structure.Graph
	Target   *structure.Graph
	Tasks    []Task
}

// Load reads a scene from a YAML or JSON file. The format is detected from
// the extension (.json for JSON, otherwise YAML). Overlays are merged over
// the file's settings block in order.
func Load(path string, overlays ...config.Config) (*Scene, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSceneFileMissing, path)
		}
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Parse(data, detectFormat(path), overlays...)
}

// Parse decodes scene data in the given format ("json" or "yaml").
func Parse(data []byte, format string, overlays ...config.Config) (*Scene, error) {
	var f File
	if format == "json" {
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSceneParse, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSceneParse, err)
		}
	}
	return Build(&f, overlays...)
}

func detectFormat(path string) string {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return "json"
	}
	return "yaml"
}

// Build converts a decoded file into a Scene.
func Build(f *File, overlays ...config.Config) (*Scene, error) {
	cfg := config.New(f.Settings)
	for _, o := range overlays {
		cfg = cfg.Merge(o)
	}
	settings, err := config.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: settings: %w", ErrInvalidScene, err)
	}

	active, err := buildGraph(f.Active, "active")
	if err != nil {
		return nil, err
	}
	target, err := buildGraph(f.Target, "target")
	if err != nil {
		return nil, err
	}
	if err := correspond(active, target, f.Correspondences); err != nil {
		return nil, err
	}

	sc := &Scene{Name: f.Name, Settings: settings, Active: active, Target: target}
	if sc.Name == "" {
		sc.Name = active.Name
	}

	ids := make(map[string]bool, len(f.Tasks))
	for i, tf := range f.Tasks {
		t, err := buildTask(tf, settings)
		if err != nil {
			return nil, fmt.Errorf("%w: task %d: %w", ErrInvalidScene, i, err)
		}
		if ids[t.ID] {
			return nil, fmt.Errorf("%w: task %d: duplicate task ID %q", ErrInvalidScene, i, t.ID)
		}
		ids[t.ID] = true
		sc.Tasks = append(sc.Tasks, t)
	}
	return sc, nil
}

func buildGraph(gf GraphFile, role string) (*structure.Graph, error) {
	g := structure.New(gf.Name)
	if g.Name == "" {
		g.Name = role
	}

	for i, nf := range gf.Nodes {
		n, err := buildNode(nf)
		if err != nil {
			return nil, fmt.Errorf("%w: %s node %d: %w", ErrInvalidScene, role, i, err)
		}
		if _, dup := g.Node(n.ID); dup {
			return nil, fmt.Errorf("%w: %s node %d: duplicate node ID %q", ErrInvalidScene, role, i, n.ID)
		}
		g.AddNode(n)
	}

	for i, lf := range gf.Links {
		l := &structure.Link{
			ID:         lf.ID,
			N1:         lf.N1,
			N2:         lf.N2,
			Coord1:     geom.C(lf.Coord1[0], lf.Coord1[1]),
			Coord2:     geom.C(lf.Coord2[0], lf.Coord2[1]),
			Correspond: lf.Correspond,
			Cut:        lf.Cut,
		}
		if _, err := g.AddLink(l); err != nil {
			return nil, fmt.Errorf("%w: %s link %d: %w", ErrInvalidScene, role, i, err)
		}
	}
	return g, nil
}

func buildNode(nf NodeFile) (*structure.Node, error) {
	if nf.ID == "" || strings.ContainsAny(nf.ID, " \t\n\r") {
		return nil, fmt.Errorf("node ID %q must be non-empty without whitespace", nf.ID)
	}

	var n *structure.Node
	switch strings.ToLower(nf.Kind) {
	case "", "curve":
		if len(nf.Points) == 0 {
			return nil, fmt.Errorf("curve %s has no points", nf.ID)
		}
		pts := make([]geom.Vec3, len(nf.Points))
		for i, p := range nf.Points {
			pts[i] = arrayVec(p)
		}
		n = structure.NewCurveNode(nf.ID, pts)
	case "sheet":
		if len(nf.Grid) == 0 {
			return nil, fmt.Errorf("sheet %s has no grid", nf.ID)
		}
		grid := make([][]geom.Vec3, len(nf.Grid))
		for i, row := range nf.Grid {
			if len(row) != len(nf.Grid[0]) {
				return nil, fmt.Errorf("sheet %s row %d has %d points, want %d", nf.ID, i, len(row), len(nf.Grid[0]))
			}
			grid[i] = make([]geom.Vec3, len(row))
			for j, p := range row {
				grid[i][j] = arrayVec(p)
			}
		}
		n = structure.NewSheetNode(nf.ID, grid)
	default:
		return nil, fmt.Errorf("node %s: unknown kind %q", nf.ID, nf.Kind)
	}
	n.Correspond = nf.Correspond
	return n, nil
}

// correspond applies the correspondence list. A pair naming active and
// target nodes links both ways unless the target node already names a
// counterpart; a pair naming an active link sets that link's counterpart.
func correspond(active, target *structure.Graph, pairs []CorrespondenceFile) error {
	for i, c := range pairs {
		if n, ok := active.Node(c.Active); ok {
			tn, ok := target.Node(c.Target)
			if !ok {
				return fmt.Errorf("%w: correspondence %d: %w: target %s", ErrInvalidScene, i, structure.ErrNodeNotFound, c.Target)
			}
			n.Correspond = tn.ID
			if tn.Correspond == "" {
				tn.Correspond = n.ID
			}
			continue
		}
		if l, ok := active.Edge(c.Active); ok {
			if _, ok := target.Edge(c.Target); !ok {
				return fmt.Errorf("%w: correspondence %d: %w: target %s", ErrInvalidScene, i, structure.ErrLinkNotFound, c.Target)
			}
			l.Correspond = c.Target
			continue
		}
		return fmt.Errorf("%w: correspondence %d: no active node or link %q", ErrInvalidScene, i, c.Active)
	}
	return nil
}

func buildTask(tf TaskFile, settings config.Settings) (Task, error) {
	kind, err := topoblend.ParseKind(tf.Kind)
	if err != nil {
		return Task{}, err
	}
	if tf.Node == "" {
		return Task{}, errors.New("task has no node")
	}

	t := Task{ID: tf.ID, Kind: kind, Node: tf.Node, Start: tf.Start, Length: tf.Length}
	if t.Length == 0 {
		t.Length = settings.TaskLength
	}
	if t.ID == "" {
		t.ID = TaskID(kind, tf.Node, tf.Start)
	}
	return t, nil
}

// TaskID returns the deterministic ID given to plan entries without one,
// so that a re-loaded scene resumes against the same checkpoint.
func TaskID(kind topoblend.Kind, node string, start int) string {
	return fmt.Sprintf("%s-%s-%d", strings.ToLower(kind.String()), node, start)
}

// Scheduler builds a scheduler over the scene's graphs with every planned
// task added. The scene settings and name are applied before opts.
func (s *Scene) Scheduler(opts ...topoblend.Option) *topoblend.Scheduler {
	base := []topoblend.Option{
		topoblend.WithSettings(s.Settings),
		topoblend.WithSceneName(s.Name),
	}
	sched := topoblend.NewScheduler(s.Active, s.Target, append(base, opts...)...)
	for _, t := range s.Tasks {
		sched.AddTask(t.Kind, t.Node,
			topoblend.WithTaskID(t.ID),
			topoblend.WithWindow(t.Start, t.Length))
	}
	return sched
}
