package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

// ErrCheckpointDBRequired indicates resume was run without a checkpoint database.
var ErrCheckpointDBRequired = errors.New("resume needs a checkpoint database (--checkpoint-db or checkpoint.path)")

// AddResumeCommand adds the resume command to the root command.
func AddResumeCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newResumeCmd(flags))
}

func newResumeCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <scene> <run-id>",
		Short: "Continue an interrupted run from its latest checkpoint",
		Long: `Restore the active graph and task progress of a run from the checkpoint
database and play the scene on from the tick after the checkpoint.

Tasks that finished before the checkpoint are not replayed; tasks that were
mid-way keep their prepared paths and frames.

Examples:
  topoblend resume chair.yaml chair-1 --checkpoint-db blend.db`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResume(cmd.Context(), cmd, flags, args[0], args[1])
		},
	}
}

func runResume(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags, scenePath, runID string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s, err := openSession(cmd, flags, scenePath)
	if err != nil {
		return err
	}
	if s.store == nil {
		return errors.Join(ErrCheckpointDBRequired, s.close())
	}

	sched := s.scheduler(runID)
	return s.finish(ctx, sched, sched.Resume(s.context(ctx), runID))
}
