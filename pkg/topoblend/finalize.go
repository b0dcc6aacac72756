package topoblend

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/topoblend/pkg/topoblend/geom"
	"github.com/randalmurphal/topoblend/pkg/topoblend/structure"
)

// Commit lists the link IDs a finalization changed in the active graph.
type Commit struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Rewired []string `json:"rewired,omitempty"`
}

// Empty reports whether the commit changed nothing.
func (c Commit) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Rewired) == 0
}

// finalize commits the topology change of a completed task:
// SHRINK removes every edge of the node, GROW copies the target node's
// edges, and the MORPH family moves each edge's far end to its future
// neighbour.
func (t *Task) finalize(n *structure.Node) (Commit, error) {
	switch {
	case t.kind == Shrink:
		return t.removeEdges(n), nil
	case t.kind == Grow:
		return t.copyTargetEdges(n)
	case t.kind.morphs():
		return t.rewireEdges(n)
	}
	return Commit{}, nil
}

func (t *Task) removeEdges(n *structure.Node) Commit {
	var c Commit
	for _, l := range t.active.Edges(n.ID) {
		if t.active.RemoveEdge(l.N1, l.N2) {
			c.Removed = append(c.Removed, l.ID)
		}
	}
	return c
}

func (t *Task) copyTargetEdges(n *structure.Node) (Commit, error) {
	tn, err := t.targetNode()
	if err != nil {
		return Commit{}, err
	}

	var (
		c    Commit
		errs []error
	)
	for _, tl := range t.target.GoodEdges(tn.ID) {
		id, err := t.copyTargetEdge(n, tn, tl)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if id != "" {
			c.Added = append(c.Added, id)
		}
	}
	return c, errors.Join(errs...)
}

// copyTargetEdge adds to the active graph the counterpart of target link
// tl. It returns an empty ID when the two nodes are already linked.
func (t *Task) copyTargetEdge(n, tn *structure.Node, tl *structure.Link) (string, error) {
	otherID, err := t.correspondent(tl.Other(tn.ID))
	if err != nil {
		return "", fmt.Errorf("copy %s: %w", tl.ID, err)
	}
	if _, exists := t.active.EdgeBetween(n.ID, otherID); exists {
		return "", nil
	}

	l, err := t.active.AddLink(&structure.Link{
		ID:         structure.LinkID(n.ID, otherID),
		N1:         n.ID,
		N2:         otherID,
		Coord1:     tl.CoordOn(tn.ID),
		Coord2:     tl.CoordOther(tn.ID),
		Correspond: tl.ID,
	})
	if err != nil {
		return "", fmt.Errorf("copy %s: %w", tl.ID, err)
	}
	return l.ID, nil
}

func (t *Task) rewireEdges(n *structure.Node) (Commit, error) {
	var (
		c    Commit
		errs []error
	)
	for _, l := range t.active.GoodEdges(n.ID) {
		futureID, coord, err := t.futureOtherNodeCoord(l)
		if err != nil {
			errs = append(errs, fmt.Errorf("rewire %s: %w", l.ID, err))
			continue
		}
		if err := t.active.ReplaceEndpoint(l.ID, l.Other(n.ID), futureID, coord); err != nil {
			errs = append(errs, err)
			continue
		}
		c.Rewired = append(c.Rewired, l.ID)
	}
	return c, errors.Join(errs...)
}

// targetNode returns the target-graph counterpart of the task's node.
func (t *Task) targetNode() (*structure.Node, error) {
	n, ok := t.active.Node(t.nodeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, t.nodeID)
	}
	if n.Correspond == "" {
		return nil, fmt.Errorf("%w: node %s", ErrNoCorrespondence, t.nodeID)
	}
	tn, ok := t.target.Node(n.Correspond)
	if !ok {
		return nil, fmt.Errorf("%w: node %s maps to missing %s", ErrNoCorrespondence, t.nodeID, n.Correspond)
	}
	return tn, nil
}

// correspondent returns the active-graph counterpart of target node tid.
func (t *Task) correspondent(tid string) (string, error) {
	tn, ok := t.target.Node(tid)
	if !ok || tn.Correspond == "" {
		return "", fmt.Errorf("%w: target node %s", ErrNoCorrespondence, tid)
	}
	if _, ok := t.active.Node(tn.Correspond); !ok {
		return "", fmt.Errorf("%w: target node %s maps to missing %s", ErrNoCorrespondence, tid, tn.Correspond)
	}
	return tn.Correspond, nil
}

// targetLink resolves the target counterpart of active link l, falling
// back to the target link between the two nodes' counterparts.
func (t *Task) targetLink(tn *structure.Node, l *structure.Link) (*structure.Link, error) {
	if l.Correspond != "" {
		if tl, ok := t.target.Edge(l.Correspond); ok && tl.Has(tn.ID) {
			return tl, nil
		}
	}
	if other, ok := t.active.Node(l.Other(t.nodeID)); ok && other.Correspond != "" {
		if tl, ok := t.target.EdgeBetween(tn.ID, other.Correspond); ok {
			return tl, nil
		}
	}
	return nil, fmt.Errorf("%w: link %s", ErrNoCorrespondence, l.ID)
}

// futureOtherNodeCoord returns where the far end of l attaches once the
// blend completes: the active counterpart of the target link's other node
// and the target link's coordinate on it.
func (t *Task) futureOtherNodeCoord(l *structure.Link) (string, geom.Coord, error) {
	tn, err := t.targetNode()
	if err != nil {
		return "", geom.Coord{}, err
	}
	tl, err := t.targetLink(tn, l)
	if err != nil {
		return "", geom.Coord{}, err
	}
	id, err := t.correspondent(tl.Other(tn.ID))
	if err != nil {
		return "", geom.Coord{}, err
	}
	return id, tl.CoordOther(tn.ID), nil
}

// futureLinkPosition evaluates futureOtherNodeCoord on the active graph.
func (t *Task) futureLinkPosition(l *structure.Link) (geom.Vec3, error) {
	id, coord, err := t.futureOtherNodeCoord(l)
	if err != nil {
		return geom.Vec3{}, err
	}
	pos, _ := t.active.PositionOf(id, coord)
	return pos, nil
}

// futureAttachment is where target link tl will attach on the active
// counterpart of its far node.
func (t *Task) futureAttachment(tn *structure.Node, tl *structure.Link) (geom.Vec3, error) {
	id, err := t.correspondent(tl.Other(tn.ID))
	if err != nil {
		return geom.Vec3{}, err
	}
	pos, _ := t.active.PositionOf(id, tl.CoordOther(tn.ID))
	return pos, nil
}
