package topoblend

import (
	"errors"
	"fmt"
	"sort"
)

// Validate checks the task plan before a run. It reports every problem
// found, joined:
//   - a window with a negative start or a length below 1 (ErrInvalidWindow)
//   - a task on a node missing from the active graph (ErrNodeNotFound)
//   - a GROW, MORPH, SPLIT or MERGE task whose node has no target
//     counterpart (ErrNoCorrespondence)
//   - two tasks on one node whose windows overlap (ErrOverlappingTasks)
//
// Each problem is a *TaskError with Op "validate".
func (s *Scheduler) Validate() error {
	var errs []error
	byNode := make(map[string][]*Task)

	for _, t := range s.tasks {
		if t.start < 0 || t.length < 1 {
			errs = append(errs, t.errorf("validate", "%w: start %d, length %d", ErrInvalidWindow, t.start, t.length))
		}
		if _, ok := s.active.Node(t.nodeID); !ok {
			errs = append(errs, t.errorf("validate", "%w: %s", ErrNodeNotFound, t.nodeID))
			continue
		}
		if t.kind != Shrink {
			if _, err := t.targetNode(); err != nil {
				errs = append(errs, t.wrap("validate", err))
			}
		}
		byNode[t.nodeID] = append(byNode[t.nodeID], t)
	}

	nodes := make([]string, 0, len(byNode))
	for id := range byNode {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)

	for _, id := range nodes {
		tasks := byNode[id]
		sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].start < tasks[j].start })
		for i := 1; i < len(tasks); i++ {
			prev, cur := tasks[i-1], tasks[i]
			if prev.EndTime() > cur.start {
				errs = append(errs, cur.wrap("validate", fmt.Errorf("%w: %s [%d,%d) overlaps %s [%d,%d)",
					ErrOverlappingTasks, cur.id, cur.start, cur.EndTime(), prev.id, prev.start, prev.EndTime())))
			}
		}
	}

	return errors.Join(errs...)
}
