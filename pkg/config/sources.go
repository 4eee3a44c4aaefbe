package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openfroyo/octavia/pkg/engine"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Loader reads parameter sources in any supported format and merges them.
type Loader struct {
	cue      *CUEParser
	starlark *StarlarkEvaluator
	logger   zerolog.Logger

	// ScriptInput is predeclared in every Starlark parameter script.
	ScriptInput map[string]interface{}
}

// NewLoader creates a new parameter loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		cue:         NewCUEParser(),
		starlark:    NewStarlarkEvaluator(10 * time.Second),
		logger:      logger.With().Str("component", "param-loader").Logger(),
		ScriptInput: map[string]interface{}{},
	}
}

// DetectFormat returns the source format implied by a file extension.
func DetectFormat(path string) (SourceFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	case ".star", ".starlark":
		return FormatStarlark, nil
	}

	// Directories are CUE packages.
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return FormatCUE, nil
	}

	return "", engine.NewValidationError(fmt.Sprintf("unsupported parameter source %q", path), nil).
		WithCode(engine.ErrCodeInvalidSource)
}

// LoadFile reads one parameter source.
func (l *Loader) LoadFile(ctx context.Context, path string) (RawParameters, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var raw RawParameters
	switch format {
	case FormatCUE:
		raw, err = l.cue.ParseFile(ctx, path)
	case FormatStarlark:
		raw, err = l.starlark.ParseFile(ctx, path, l.ScriptInput)
	default:
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, engine.NewIOError("failed to read parameter source", err).WithDetail("path", path)
		}
		if format == FormatYAML {
			raw, err = ParseYAML(data)
		} else {
			raw, err = ParseJSON(data)
		}
	}
	if err != nil {
		return nil, err
	}

	l.logger.Debug().
		Str("path", path).
		Str("format", string(format)).
		Int("options", len(raw)).
		Msg("Parameter source loaded")

	return raw, nil
}

// LoadFiles reads every source and merges them left to right.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) (RawParameters, error) {
	sources := make([]RawParameters, 0, len(paths))
	for _, path := range paths {
		raw, err := l.LoadFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		sources = append(sources, raw)
	}
	return Merge(sources...), nil
}

// ParseYAML decodes a YAML mapping of option names to values.
func ParseYAML(data []byte) (RawParameters, error) {
	raw := RawParameters{}
	if len(bytes.TrimSpace(data)) == 0 {
		return raw, nil
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, engine.NewValidationError("invalid YAML parameter source", err).
			WithCode(engine.ErrCodeInvalidSource)
	}
	return raw, nil
}

// ParseJSON decodes a JSON object of option names to values.
func ParseJSON(data []byte) (RawParameters, error) {
	raw := RawParameters{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, engine.NewValidationError("invalid JSON parameter source", err).
			WithCode(engine.ErrCodeInvalidSource)
	}
	return raw, nil
}

// Merge combines sources; later sources override earlier ones key by key.
// Inputs are not modified.
func Merge(sources ...RawParameters) RawParameters {
	merged := RawParameters{}
	for _, src := range sources {
		for k, v := range src {
			merged[k] = v
		}
	}
	return merged
}

// ParseSetFlag parses a "key=value" override. The value is decoded as YAML
// so that `enabled=false` yields a boolean and `port=5555` an integer.
func ParseSetFlag(s string) (string, interface{}, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return "", nil, engine.NewValidationError(fmt.Sprintf("invalid override %q, expected key=value", s), nil).
			WithCode(engine.ErrCodeInvalidSource)
	}

	var decoded interface{}
	if err := yaml.Unmarshal([]byte(value), &decoded); err != nil || decoded == nil {
		return key, value, nil
	}
	return key, decoded, nil
}
