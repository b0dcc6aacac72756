/*
Package config provides typed access to engine tunables loaded from YAML or
JSON.

# Basic Usage

Keys are dotted paths into nested maps, so a YAML document such as

	task:
	  default_length: 120
	path:
	  weld_tolerance: 1e-6

is read with

	cfg, err := config.FromFile("blend.yaml")
	length := cfg.Int("task.default_length", 80)

A flat key containing dots ("task.default_length": 120) is found as well.
Every accessor returns the default when the key is missing or the value
cannot be converted without losing information.

# Settings

Load derives the engine's Settings from a Config, filling in defaults and
rejecting values that cannot work (negative tolerances, zero lengths).

# Overlays

Merge lays one Config over another, which is how a --settings file
overrides the settings block of a scene.

Configs are never mutated once built, so sharing one across goroutines is safe.
*/
package config
