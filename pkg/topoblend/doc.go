// Package topoblend blends one structural shape graph into a topologically
// different target graph over a global timeline.
//
// Each planned operation on a node is a Task. A Task is windowed on the
// timeline by (start, length); on first execution it prepares artifacts
// (fold deltas, geodesic paths, a rotation-minimizing frame and a curve
// encoding), then every call to Execute(t) with t in [0,1] rewrites the
// node's control points in the active graph. At t == 1 the task commits
// its topology change: SHRINK removes the node's edges, GROW copies the
// target's edges, MORPH (and SPLIT/MERGE) rewires edges to their future
// neighbours.
//
// A Scheduler drives many tasks frame by frame, maintains the set of nodes
// under transformation that geodesic queries must avoid, prepares due tasks
// in parallel when their footprints are disjoint, and checkpoints progress
// so a run can be resumed.
//
// Basic usage:
//
//	s := topoblend.NewScheduler(active, target)
//	s.AddTask(topoblend.Shrink, "tail", topoblend.WithWindow(0, 80))
//	s.AddTask(topoblend.Grow, "wing", topoblend.WithWindow(40, 80))
//	if err := s.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	err := s.Run(topoblend.NewContext(context.Background()))
package topoblend
