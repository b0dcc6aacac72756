package config

import (
	"errors"
	"fmt"
)

// Engine defaults.
const (
	DefaultTaskLength          = 80
	DefaultSmoothingIterations = 2
	DefaultWeldTolerance       = 1e-7
	DefaultGeodesicResolution  = 16
	DefaultFrameStep           = 1
)

// ErrInvalidSetting indicates a tunable outside its usable range.
var ErrInvalidSetting = errors.New("invalid setting")

// Settings holds the engine tunables.
type Settings struct {
	TaskLength          int
	SmoothingIterations int
	WeldTolerance       float64
	GeodesicResolution  int
	FrameStep           int
	MaxConcurrency      int // 0 means unlimited
	CheckpointPath      string
}

// DefaultSettings returns the built-in tunables.
func DefaultSettings() Settings {
	return Settings{
		TaskLength:          DefaultTaskLength,
		SmoothingIterations: DefaultSmoothingIterations,
		WeldTolerance:       DefaultWeldTolerance,
		GeodesicResolution:  DefaultGeodesicResolution,
		FrameStep:           DefaultFrameStep,
	}
}

// Load reads Settings from c, using defaults for missing keys.
func Load(c Config) (Settings, error) {
	d := DefaultSettings()
	s := Settings{
		TaskLength:          c.Int("task.default_length", d.TaskLength),
		SmoothingIterations: c.Int("task.smoothing_iterations", d.SmoothingIterations),
		WeldTolerance:       c.Float("path.weld_tolerance", d.WeldTolerance),
		GeodesicResolution:  c.Int("geodesic.resolution", d.GeodesicResolution),
		FrameStep:           c.Int("schedule.frame_step", d.FrameStep),
		MaxConcurrency:      c.Int("schedule.max_concurrency", d.MaxConcurrency),
		CheckpointPath:      c.String("checkpoint.path", d.CheckpointPath),
	}
	return s, s.Validate()
}

// Validate reports the first unusable value.
func (s Settings) Validate() error {
	switch {
	case s.TaskLength < 1:
		return fmt.Errorf("%w: task.default_length must be at least 1, got %d", ErrInvalidSetting, s.TaskLength)
	case s.SmoothingIterations < 0:
		return fmt.Errorf("%w: task.smoothing_iterations must not be negative, got %d", ErrInvalidSetting, s.SmoothingIterations)
	case s.WeldTolerance <= 0:
		return fmt.Errorf("%w: path.weld_tolerance must be positive, got %g", ErrInvalidSetting, s.WeldTolerance)
	case s.GeodesicResolution < 1:
		return fmt.Errorf("%w: geodesic.resolution must be at least 1, got %d", ErrInvalidSetting, s.GeodesicResolution)
	case s.FrameStep < 1:
		return fmt.Errorf("%w: schedule.frame_step must be at least 1, got %d", ErrInvalidSetting, s.FrameStep)
	case s.MaxConcurrency < 0:
		return fmt.Errorf("%w: schedule.max_concurrency must not be negative, got %d", ErrInvalidSetting, s.MaxConcurrency)
	}
	return nil
}
