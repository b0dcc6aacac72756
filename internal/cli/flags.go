package cli

import (
	"errors"
	"slices"

	"github.com/spf13/cobra"
)

// Exit codes for the CLI.
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Output format constants.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// ErrInvalidOutputFormat indicates an unsupported --output value.
var ErrInvalidOutputFormat = errors.New("invalid output format")

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Output specifies the output format (text or json).
	Output string
	// Verbose enables debug-level logging.
	Verbose bool
	// Quiet suppresses everything but warnings and the final result.
	Quiet bool
	// CheckpointDB overrides the scene's checkpoint.path setting.
	CheckpointDB string
	// Settings names a YAML or JSON file merged over the scene's settings.
	Settings string
	// Telemetry installs OpenTelemetry SDK providers and prints a summary.
	Telemetry bool
}

// AddGlobalFlags adds global flags to a command.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", OutputText, "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "only print warnings and the result")
	cmd.PersistentFlags().StringVar(&flags.CheckpointDB, "checkpoint-db", "", "SQLite checkpoint database (overrides checkpoint.path)")
	cmd.PersistentFlags().StringVar(&flags.Settings, "settings", "", "settings file merged over the scene's settings block")
	cmd.PersistentFlags().BoolVar(&flags.Telemetry, "telemetry", false, "record metrics and spans and print a summary")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// ValidOutputFormats returns the accepted --output values.
func ValidOutputFormats() []string {
	return []string{OutputText, OutputJSON}
}

// IsValidOutputFormat reports whether format is accepted.
func IsValidOutputFormat(format string) bool {
	return slices.Contains(ValidOutputFormats(), format)
}
