package inifile

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-ini/ini"
	"github.com/openfroyo/octavia/pkg/engine"
	"github.com/openfroyo/octavia/pkg/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// writerOnce guards go-ini's package-level writer settings, which apply to
// every ini.File in the process.
var writerOnce sync.Once

// render serializes f the way oslo.config expects: an explicit [DEFAULT]
// header and "key = value" lines without column alignment.
func render(f *ini.File) ([]byte, error) {
	writerOnce.Do(func() {
		ini.DefaultHeader = true
		ini.PrettyFormat = false
		ini.PrettyEqual = true
	})

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var loadOptions = ini.LoadOptions{
	Loose:               true,
	IgnoreInlineComment: true,
	KeyValueDelimiters:  "=",
}

// ApplyOptions controls how Apply writes the file.
type ApplyOptions struct {
	// DryRun computes changes without writing.
	DryRun bool

	// Backup copies the previous file to <path>.bak before replacing it.
	Backup bool

	// Mode is used when the file does not exist yet. Existing files keep their mode.
	Mode os.FileMode
}

// Result describes the outcome of Apply.
type Result struct {
	// Path is the enforced file.
	Path string `json:"path"`

	// Changes lists the changes in entry order.
	Changes []engine.Change `json:"changes"`

	// Written is true when the file was replaced.
	Written bool `json:"written"`

	// BackupPath is set when a backup was taken.
	BackupPath string `json:"backup_path,omitempty"`

	// Checksum is the SHA-256 of the file content after Apply.
	Checksum string `json:"checksum"`
}

// Plan returns the changes enforcing entries against path would make.
// A missing file is treated as empty.
func Plan(ctx context.Context, path string, entries []engine.ConfigEntry) ([]engine.Change, error) {
	f, err := load(path)
	if err != nil {
		return nil, err
	}
	changes := enforce(f, entries)

	if tel := telemetry.FromTelemetryContext(ctx); tel != nil {
		for _, c := range changes {
			tel.Metrics.RecordConfigChange(string(c.Action), false)
		}
	}

	return changes, nil
}

// Apply enforces entries against path. The file is replaced atomically and
// only when something changed.
func Apply(ctx context.Context, path string, entries []engine.ConfigEntry, opts ApplyOptions) (*Result, error) {
	logger := telemetry.FromContext(ctx).NewComponentLogger("inifile").WithConfigPath(path)

	tel := telemetry.FromTelemetryContext(ctx)
	var span trace.Span
	if tel != nil {
		ctx, span = tel.Tracer.StartApplySpan(ctx, path, opts.DryRun)
		defer span.End()
	}

	result, err := apply(path, entries, opts)
	if err != nil {
		if span != nil {
			telemetry.RecordError(span, err)
		}
		telemetry.RecordEngineError(ctx, err)
		return nil, err
	}

	if tel != nil {
		telemetry.SetAttributes(span, telemetry.AttrChangeCount.Int(len(result.Changes)))
		telemetry.RecordSuccess(span)
		for _, c := range result.Changes {
			tel.Metrics.RecordConfigChange(string(c.Action), result.Written)
		}
	}

	logger.WithFields(map[string]interface{}{
		"changes": len(result.Changes),
		"written": result.Written,
		"dry_run": opts.DryRun,
	}).Info("Config file enforced")

	return result, nil
}

func apply(path string, entries []engine.ConfigEntry, opts ApplyOptions) (*Result, error) {
	f, err := load(path)
	if err != nil {
		return nil, err
	}

	result := &Result{Path: path, Changes: enforce(f, entries)}

	data, err := render(f)
	if err != nil {
		return nil, engine.NewIOError("failed to render config file", err).WithOperation("apply")
	}

	if opts.DryRun {
		result.Checksum = checksum(data)
		return result, nil
	}
	if len(result.Changes) == 0 {
		current, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, engine.NewIOError("failed to read config file", err).WithOperation("apply")
		}
		result.Checksum = checksum(current)
		return result, nil
	}

	mode := opts.Mode
	if mode == 0 {
		mode = 0640
	}
	info, statErr := os.Stat(path)
	if statErr == nil {
		mode = info.Mode().Perm()
		if opts.Backup {
			backupPath := path + ".bak"
			if err := copyFile(path, backupPath, mode); err != nil {
				return nil, engine.NewIOError("failed to create backup", err).WithOperation("apply")
			}
			result.BackupPath = backupPath
		}
	}

	if err := writeAtomic(path, data, mode); err != nil {
		return nil, engine.NewIOError("failed to write config file", err).WithOperation("apply")
	}

	result.Written = true
	result.Checksum = checksum(data)
	return result, nil
}

// load reads path, treating a missing file as empty.
func load(path string) (*ini.File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ini.Empty(loadOptions), nil
	}
	f, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return nil, engine.NewIOError(fmt.Sprintf("failed to parse %s", path), err).WithOperation("load")
	}
	return f, nil
}

// enforce mutates f so that it satisfies entries and returns what changed.
func enforce(f *ini.File, entries []engine.ConfigEntry) []engine.Change {
	changes := make([]engine.Change, 0)

	for _, entry := range entries {
		sec := f.Section(entry.Section)
		exists := sec.HasKey(entry.Key)

		if entry.Value.IsServiceDefault() {
			if exists {
				changes = append(changes, engine.Change{
					Path:   entry.Name(),
					Before: sec.Key(entry.Key).Value(),
					Action: engine.ChangeActionRemove,
				})
				sec.DeleteKey(entry.Key)
			}
			continue
		}

		want := entry.Value.String()
		if !exists {
			sec.Key(entry.Key).SetValue(want)
			changes = append(changes, engine.Change{
				Path:   entry.Name(),
				After:  want,
				Action: engine.ChangeActionAdd,
			})
			continue
		}

		key := sec.Key(entry.Key)
		if have := key.Value(); have != want {
			key.SetValue(want)
			changes = append(changes, engine.Change{
				Path:   entry.Name(),
				Before: have,
				After:  want,
				Action: engine.ChangeActionModify,
			})
		}
	}

	return changes
}

// writeAtomic replaces path with data through a temporary file in the same directory.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("failed to set mode: %w", err)
	}

	return os.Rename(tmpName, path)
}

func copyFile(src, dst string, mode os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, mode)
}

func checksum(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
