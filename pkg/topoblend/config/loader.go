package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a settings document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for settings files that are neither YAML nor JSON.
var ErrUnknownFormat = errors.New("unknown settings format")

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// FromFile reads a settings document, choosing the decoder with FormatOf.
func FromFile(path string) (Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // settings path is operator supplied
	if err != nil {
		return Config{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	return Decode(data, format)
}

// Decode parses data as a settings tree in the given format.
func Decode(data []byte, format Format) (Config, error) {
	var tree map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return Config{}, fmt.Errorf("decode yaml settings: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &tree); err != nil {
			return Config{}, fmt.Errorf("decode json settings: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return New(tree), nil
}

// FromYAML is Decode with FormatYAML.
func FromYAML(data []byte) (Config, error) {
	return Decode(data, FormatYAML)
}
