package cli

import (
	"io"
	"log/slog"
)

// newLogger builds the run logger. Verbose enables debug records, quiet
// keeps only warnings. JSON output switches to the JSON handler so the
// log stream can be parsed alongside the result.
func newLogger(w io.Writer, flags *GlobalFlags) *slog.Logger {
	opts := &slog.HandlerOptions{Level: selectLevel(flags.Verbose, flags.Quiet)}
	if flags.Output == OutputJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func selectLevel(verbose, quiet bool) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
