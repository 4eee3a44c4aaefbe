package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/openfroyo/octavia/pkg/engine"
)

func TestCUEParser_ParseInline(t *testing.T) {
	parser := NewCUEParser()
	ctx := context.Background()

	tests := []struct {
		name      string
		content   string
		wantErr   bool
		checkFunc func(*testing.T, RawParameters)
	}{
		{
			name: "scalar options",
			content: `
heartbeat_key: "insecure"
enabled:       false
port:          5555
`,
			checkFunc: func(t *testing.T, raw RawParameters) {
				if raw["heartbeat_key"] != "insecure" {
					t.Errorf("expected heartbeat_key 'insecure', got %v", raw["heartbeat_key"])
				}
				if raw["enabled"] != false {
					t.Errorf("expected enabled false, got %v", raw["enabled"])
				}
				n, ok := toInt64(raw["port"])
				if !ok || n != 5555 {
					t.Errorf("expected port 5555, got %v (%T)", raw["port"], raw["port"])
				}
			},
		},
		{
			name: "nested map and list",
			content: `
default_log_levels: {
	amqp:     "WARN"
	sqlalchemy: "ERROR"
}
controller_ip_port_list: ["192.0.2.10:5555", "192.0.2.11:5555"]
`,
			checkFunc: func(t *testing.T, raw RawParameters) {
				levels, ok := raw["default_log_levels"].(map[string]interface{})
				if !ok {
					t.Fatalf("expected default_log_levels map, got %T", raw["default_log_levels"])
				}
				if levels["amqp"] != "WARN" {
					t.Errorf("expected amqp=WARN, got %v", levels["amqp"])
				}
				list, ok := raw["controller_ip_port_list"].([]interface{})
				if !ok || len(list) != 2 {
					t.Fatalf("expected 2 endpoints, got %v", raw["controller_ip_port_list"])
				}
			},
		},
		{
			name: "definitions and hidden fields are not parameters",
			content: `
#Port: int & >0 & <65536
_dir: "/var/log/octavia"
port:    #Port & 5555
log_dir: _dir
`,
			checkFunc: func(t *testing.T, raw RawParameters) {
				if len(raw) != 2 {
					t.Errorf("expected 2 parameters, got %d: %v", len(raw), raw)
				}
				if raw["log_dir"] != "/var/log/octavia" {
					t.Errorf("expected log_dir from hidden field, got %v", raw["log_dir"])
				}
			},
		},
		{
			name:    "syntax error",
			content: `heartbeat_key: "unterminated`,
			wantErr: true,
		},
		{
			name: "constraint conflict",
			content: `
port: int & <1000
port: 5555
`,
			wantErr: true,
		},
		{
			name:    "incomplete value",
			content: `heartbeat_key: string`,
			wantErr: true,
		},
		{
			name:    "top level is not a struct",
			content: `"just a string"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := parser.ParseInline(ctx, tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if code := engine.ErrorCode(err); code != engine.ErrCodeInvalidSource {
					t.Errorf("expected code %s, got %s", engine.ErrCodeInvalidSource, code)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.checkFunc != nil {
				tt.checkFunc(t, raw)
			}
		})
	}
}

func TestCUEParser_ParseFile(t *testing.T) {
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "params.cue")
	content := `
heartbeat_key: "secret"
debug:         true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	parser := NewCUEParser()
	raw, err := parser.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to parse file: %v", err)
	}

	if raw["heartbeat_key"] != "secret" {
		t.Errorf("expected heartbeat_key 'secret', got %v", raw["heartbeat_key"])
	}
	if raw["debug"] != true {
		t.Errorf("expected debug true, got %v", raw["debug"])
	}
}

func TestCUEParser_ParseDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	files := map[string]string{
		"base.cue": `package params

heartbeat_key: "secret"
`,
		"logging.cue": `package params

log_dir: "/srv/log/octavia"
`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	parser := NewCUEParser()
	raw, err := parser.ParseFile(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("failed to parse directory: %v", err)
	}

	if raw["heartbeat_key"] != "secret" || raw["log_dir"] != "/srv/log/octavia" {
		t.Errorf("expected fields from both files, got %v", raw)
	}
}

func TestCUEParser_ParseFile_Missing(t *testing.T) {
	parser := NewCUEParser()
	_, err := parser.ParseFile(context.Background(), filepath.Join(t.TempDir(), "absent.cue"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}

	var engErr *engine.EngineError
	if !errors.As(err, &engErr) || engErr.Class != engine.ErrorClassIO {
		t.Errorf("expected io error, got %v", err)
	}
}
