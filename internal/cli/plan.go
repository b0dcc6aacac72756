package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// ErrInvalidPlan indicates plan found problems in the task plan.
var ErrInvalidPlan = errors.New("task plan has problems")

// AddPlanCommand adds the plan command to the root command.
func AddPlanCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newPlanCmd(flags))
}

func newPlanCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <scene>",
		Short: "Show and validate a scene's task plan without running it",
		Long: `Print the task timeline of a scene ordered by start tick and check it for
unknown nodes, missing correspondences and overlapping windows.

Examples:
  topoblend plan chair.yaml
  topoblend plan chair.yaml --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), cmd.OutOrStdout(), flags, args[0])
		},
	}
}

type planResult struct {
	Scene     string       `json:"scene"`
	TotalTime int          `json:"total_time"`
	Tasks     []taskResult `json:"tasks"`
	Problems  []string     `json:"problems,omitempty"`
}

func runPlan(ctx context.Context, w io.Writer, flags *GlobalFlags, scenePath string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	sc, err := loadScene(flags, scenePath)
	if err != nil {
		return err
	}
	sched := sc.Scheduler()

	res := planResult{Scene: sc.Name, TotalTime: sched.TotalTime(), Tasks: tasksOf(sched)}
	sort.SliceStable(res.Tasks, func(i, j int) bool { return res.Tasks[i].Start < res.Tasks[j].Start })
	verr := sched.Validate()
	res.Problems = problems(verr)

	if flags.Output == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else if err := printPlan(w, res); err != nil {
		return err
	}

	if verr != nil {
		return fmt.Errorf("%w: %d found", ErrInvalidPlan, len(res.Problems))
	}
	return nil
}

// problems flattens a joined validation error into one message per problem.
func problems(err error) []string {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func printPlan(w io.Writer, res planResult) error {
	fmt.Fprintf(w, "scene %s: %d tasks over %d ticks\n\n", res.Scene, len(res.Tasks), res.TotalTime)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tKIND\tNODE\tID")
	for _, t := range res.Tasks {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", t.Start, t.Start+t.Length, t.Kind, t.Node, t.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.Problems) > 0 {
		fmt.Fprintln(w, "\nproblems:")
		for _, p := range res.Problems {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}
	return nil
}
