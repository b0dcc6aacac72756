package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/topoblend/pkg/topoblend/scene"
)

// AddRunCommand adds the run command to the root command.
func AddRunCommand(root *cobra.Command, flags *GlobalFlags) {
	root.AddCommand(newRunCmd(flags))
}

type runOptions struct {
	runID   string
	outPath string
}

func newRunCmd(flags *GlobalFlags) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <scene>",
		Short: "Play a scene from the first tick to the last",
		Long: `Load a scene, validate its task plan and drive every task to completion.

Each finished task is checkpointed when a checkpoint database is configured
(--checkpoint-db or checkpoint.path in the scene settings), so an interrupted
run can be continued with "topoblend resume".

Examples:
  topoblend run chair.yaml
  topoblend run chair.yaml --out stool.yaml
  topoblend run chair.yaml --checkpoint-db blend.db --run-id chair-1
  topoblend run chair.yaml --output json --telemetry`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScene(cmd.Context(), cmd, flags, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.runID, "run-id", "", "run identifier for checkpoints (default: generated)")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "write the blended active graph to this YAML file")

	return cmd
}

func runScene(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags, scenePath string, opts runOptions) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s, err := openSession(cmd, flags, scenePath)
	if err != nil {
		return err
	}

	sched := s.scheduler(opts.runID)
	if err := sched.Validate(); err != nil {
		return s.finish(ctx, sched, fmt.Errorf("invalid task plan: %w", err))
	}

	runErr := sched.Run(s.context(ctx))
	if runErr == nil && opts.outPath != "" {
		runErr = writeGraph(opts.outPath, s.scene)
	}
	return s.finish(ctx, sched, runErr)
}

// writeGraph saves the active graph in scene file form, with the target
// and an empty plan, so the output can seed another blend.
func writeGraph(path string, sc *scene.Scene) error {
	f := scene.File{
		Name:   sc.Name,
		Active: scene.EncodeGraph(sc.Active),
		Target: scene.EncodeGraph(sc.Target),
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
