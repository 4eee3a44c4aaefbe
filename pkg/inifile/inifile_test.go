package inifile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-ini/ini"
	"github.com/openfroyo/octavia/pkg/engine"
)

const existing = `# managed by hand until now
[DEFAULT]
debug = false
verbose = true
transport_url = rabbit://octavia@controller

[health_manager]
heartbeat_key = old-key
bind_port = 5555
`

func testEntries() []engine.ConfigEntry {
	return []engine.ConfigEntry{
		{Section: "DEFAULT", Key: "debug", Value: engine.BoolValue(true)},
		{Section: "DEFAULT", Key: "verbose", Value: engine.ServiceDefaultValue()},
		{Section: "DEFAULT", Key: "log_dir", Value: engine.StringValue("/var/log/octavia")},
		{Section: "DEFAULT", Key: "use_syslog", Value: engine.ServiceDefaultValue()},
		{Section: "DEFAULT", Key: "instance_format", Value: engine.StringValue("[instance: %(uuid)s] ")},
		{Section: "health_manager", Key: "heartbeat_key", Value: engine.StringValue("new-key")},
		{Section: "health_manager", Key: "bind_port", Value: engine.StringValue("5555")},
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "octavia.conf")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestPlan(t *testing.T) {
	path := writeFile(t, existing)

	changes, err := Plan(context.Background(), path, testEntries())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	want := []struct {
		path   string
		action engine.ChangeAction
	}{
		{"DEFAULT/debug", engine.ChangeActionModify},
		{"DEFAULT/verbose", engine.ChangeActionRemove},
		{"DEFAULT/log_dir", engine.ChangeActionAdd},
		{"DEFAULT/instance_format", engine.ChangeActionAdd},
		{"health_manager/heartbeat_key", engine.ChangeActionModify},
	}
	if len(changes) != len(want) {
		t.Fatalf("expected %d changes, got %+v", len(want), changes)
	}
	for i, w := range want {
		if changes[i].Path != w.path || changes[i].Action != w.action {
			t.Errorf("change %d = %s %s, want %s %s", i, changes[i].Action, changes[i].Path, w.action, w.path)
		}
	}
	if changes[0].Before != "false" || changes[0].After != "true" {
		t.Errorf("debug change = %+v", changes[0])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != existing {
		t.Error("Plan must not modify the file")
	}
}

func TestPlan_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.conf")

	changes, err := Plan(context.Background(), path, testEntries())
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	for _, c := range changes {
		if c.Action != engine.ChangeActionAdd {
			t.Errorf("expected only adds for a missing file, got %+v", c)
		}
	}
	if len(changes) != 5 {
		t.Errorf("expected 5 adds, got %d", len(changes))
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Plan must not create the file")
	}
}

func TestApply(t *testing.T) {
	path := writeFile(t, existing)
	ctx := context.Background()

	result, err := Apply(ctx, path, testEntries(), ApplyOptions{Backup: true})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !result.Written {
		t.Fatal("expected file to be written")
	}
	if len(result.Changes) != 5 {
		t.Errorf("expected 5 changes, got %d", len(result.Changes))
	}

	backup, err := os.ReadFile(result.BackupPath)
	if err != nil {
		t.Fatalf("backup not readable: %v", err)
	}
	if string(backup) != existing {
		t.Error("backup does not hold the previous content")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	f, err := ini.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := f.Section("DEFAULT")
	if got := def.Key("debug").Value(); got != "true" {
		t.Errorf("debug = %q", got)
	}
	if def.HasKey("verbose") {
		t.Error("verbose should have been removed")
	}
	if got := def.Key("transport_url").Value(); got != "rabbit://octavia@controller" {
		t.Errorf("unmanaged key changed: %q", got)
	}
	if got := def.Key("instance_format").Value(); got != "[instance: %(uuid)s] " {
		t.Errorf("instance_format = %q", got)
	}
	if got := f.Section("health_manager").Key("heartbeat_key").Value(); got != "new-key" {
		t.Errorf("heartbeat_key = %q", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "[DEFAULT]") {
		t.Errorf("DEFAULT header missing:\n%s", data)
	}

	t.Run("second apply is a no-op", func(t *testing.T) {
		again, err := Apply(ctx, path, testEntries(), ApplyOptions{})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if again.Written || len(again.Changes) != 0 {
			t.Errorf("expected no changes, got %+v", again.Changes)
		}
		if again.Checksum != result.Checksum {
			t.Error("checksum changed without a write")
		}
	})
}

func TestApply_DryRun(t *testing.T) {
	path := writeFile(t, existing)

	result, err := Apply(context.Background(), path, testEntries(), ApplyOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if result.Written {
		t.Error("dry run must not write")
	}
	if len(result.Changes) != 5 {
		t.Errorf("expected 5 changes, got %d", len(result.Changes))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != existing {
		t.Error("dry run modified the file")
	}
}

func TestApply_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "octavia", "octavia.conf")

	result, err := Apply(context.Background(), path, testEntries(), ApplyOptions{Mode: 0640})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !result.Written || result.BackupPath != "" {
		t.Errorf("unexpected result %+v", result)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "[DEFAULT]") {
		t.Errorf("DEFAULT header missing:\n%s", data)
	}
	if strings.Contains(string(data), engine.ServiceDefault) {
		t.Error("the sentinel must never be written")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestApply_UnparsableFile(t *testing.T) {
	path := writeFile(t, "[unterminated\nkey = value\n")

	_, err := Apply(context.Background(), path, testEntries(), ApplyOptions{})
	if err == nil {
		t.Fatal("expected parse error")
	}
	var engErr *engine.EngineError
	if !errors.As(err, &engErr) || engErr.Class != engine.ErrorClassIO {
		t.Errorf("expected an io error, got %v", err)
	}
}

func TestRender(t *testing.T) {
	f := ini.Empty(loadOptions)
	f.Section(ini.DefaultSection).Key("debug").SetValue("false")
	f.Section("health_manager").Key("bind_port").SetValue("5555")
	f.Section("health_manager").Key("heartbeat_key").SetValue("s3cr3tkey")

	data, err := render(f)
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}

	out := string(data)
	if !strings.HasPrefix(out, "[DEFAULT]\ndebug = false\n") {
		t.Errorf("expected an explicit DEFAULT header, got:\n%s", out)
	}
	for _, want := range []string{"[health_manager]\n", "bind_port = 5555\n", "heartbeat_key = s3cr3tkey\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "bind_port     =") {
		t.Errorf("expected unaligned key = value lines, got:\n%s", out)
	}
	if !ini.DefaultHeader || ini.PrettyFormat || !ini.PrettyEqual {
		t.Error("expected writer settings to be applied by render")
	}
}
