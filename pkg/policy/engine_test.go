package policy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openfroyo/octavia/pkg/engine"
	"github.com/rs/zerolog"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(zerolog.New(nil).Level(zerolog.Disabled))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return eng
}

func testCatalog(entries ...engine.ConfigEntry) *engine.Catalog {
	return &engine.Catalog{
		Component:  "octavia-health-manager",
		OSFamily:   "Debian",
		ConfigPath: "/etc/octavia/octavia.conf",
		Package: engine.PackageAssertion{
			Name:   "octavia-health-manager",
			Ensure: "present",
			Tags:   []string{"openstack", "octavia-package"},
		},
		Service: engine.ServiceAssertion{
			Name:       "octavia-health-manager",
			Ensure:     engine.EnsureRunning,
			Enable:     true,
			Manage:     true,
			HasStatus:  true,
			HasRestart: true,
			Tags:       []string{"octavia-service"},
		},
		Entries: entries,
	}
}

func TestNewEngine(t *testing.T) {
	eng := newTestEngine(t)

	policies := eng.ListPolicies()
	want := []string{"debug-in-production", "heartbeat-key-strength", "unpinned-package"}
	if len(policies) != len(want) {
		t.Fatalf("Expected %d built-in policies, got %d", len(want), len(policies))
	}
	for i, name := range want {
		if policies[i].Name != name {
			t.Errorf("Policy %d: expected %s, got %s", i, name, policies[i].Name)
		}
		if !policies[i].Builtin {
			t.Errorf("Policy %s should be marked built-in", name)
		}
	}
}

func TestEvaluate_BuiltinPolicies(t *testing.T) {
	tests := []struct {
		name        string
		catalog     *engine.Catalog
		environment string
		wantPolicy  string
		wantEntry   string
	}{
		{
			name:    "clean catalog",
			catalog: testCatalog(engine.ConfigEntry{Section: "health_manager", Key: "heartbeat_key", Value: engine.StringValue("a-long-secret")}),
		},
		{
			name:        "debug in production",
			catalog:     testCatalog(engine.ConfigEntry{Section: "DEFAULT", Key: "debug", Value: engine.BoolValue(true)}),
			environment: "production",
			wantPolicy:  "debug-in-production",
			wantEntry:   "DEFAULT/debug",
		},
		{
			name:        "debug in staging",
			catalog:     testCatalog(engine.ConfigEntry{Section: "DEFAULT", Key: "debug", Value: engine.BoolValue(true)}),
			environment: "staging",
		},
		{
			name:        "debug left at service default",
			catalog:     testCatalog(engine.ConfigEntry{Section: "DEFAULT", Key: "debug", Value: engine.ServiceDefaultValue()}),
			environment: "production",
		},
		{
			name:       "short heartbeat key",
			catalog:    testCatalog(engine.ConfigEntry{Section: "health_manager", Key: "heartbeat_key", Value: engine.StringValue("abc")}),
			wantPolicy: "heartbeat-key-strength",
			wantEntry:  "health_manager/heartbeat_key",
		},
		{
			name: "latest package",
			catalog: func() *engine.Catalog {
				c := testCatalog()
				c.Package.Ensure = "latest"
				return c
			}(),
			wantPolicy: "unpinned-package",
		},
	}

	eng := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eng.Evaluate(context.Background(), tt.catalog, &PolicyContext{Environment: tt.environment})
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}

			if !result.Allowed {
				t.Error("Built-in policies should never block a catalog")
			}
			if len(result.EvaluatedPolicies) != 3 {
				t.Errorf("Expected 3 evaluated policies, got %d", len(result.EvaluatedPolicies))
			}

			if tt.wantPolicy == "" {
				if len(result.Violations) != 0 {
					t.Errorf("Expected no violations, got %+v", result.Violations)
				}
				return
			}

			if len(result.Violations) != 1 {
				t.Fatalf("Expected 1 violation, got %+v", result.Violations)
			}
			v := result.Violations[0]
			if v.Policy != tt.wantPolicy {
				t.Errorf("Expected policy %s, got %s", tt.wantPolicy, v.Policy)
			}
			if v.Entry != tt.wantEntry {
				t.Errorf("Expected entry %q, got %q", tt.wantEntry, v.Entry)
			}
			if v.Message == "" || v.Remediation == "" {
				t.Errorf("Expected message and remediation, got %+v", v)
			}
		})
	}
}

func TestEvaluate_LeavesContextUntouched(t *testing.T) {
	eng := newTestEngine(t)
	pctx := &PolicyContext{Environment: "production", Operation: "render"}

	for i := 0; i < 2; i++ {
		if _, err := eng.Evaluate(context.Background(), testCatalog(), pctx); err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
	}

	if !pctx.Timestamp.IsZero() {
		t.Errorf("Expected caller context timestamp to stay zero, got %v", pctx.Timestamp)
	}
	if pctx.Environment != "production" || pctx.Operation != "render" {
		t.Errorf("Expected caller context fields to be preserved, got %+v", pctx)
	}

	if _, err := eng.Evaluate(context.Background(), testCatalog(), nil); err != nil {
		t.Fatalf("Evaluate with nil context failed: %v", err)
	}
}

func TestEvaluate_BlockingCustomPolicy(t *testing.T) {
	eng := newTestEngine(t)

	custom := Policy{
		Name:     "no-verbose",
		Severity: SeverityError,
		Enabled:  true,
		Rego: `package custom.verbose

import rego.v1

deny contains msg if {
	some entry in input.catalog.entries
	entry.key == "verbose"
	entry.value == true
	msg := "verbose logging is forbidden"
}
`,
	}
	if err := eng.ReplaceCustom(context.Background(), []Policy{custom}); err != nil {
		t.Fatalf("ReplaceCustom failed: %v", err)
	}

	catalog := testCatalog(engine.ConfigEntry{Section: "DEFAULT", Key: "verbose", Value: engine.BoolValue(true)})
	result, err := eng.Evaluate(context.Background(), catalog, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if result.Allowed {
		t.Fatal("Expected catalog to be rejected")
	}
	if len(result.Blocking()) != 1 {
		t.Fatalf("Expected 1 blocking violation, got %+v", result.Violations)
	}
	if got := result.Violations[0].Severity; got != SeverityError {
		t.Errorf("Expected default severity error, got %s", got)
	}

	err = result.Err()
	if err == nil {
		t.Fatal("Expected error from rejected result")
	}
	if code := engine.ErrorCode(err); code != engine.ErrCodePolicyViolation {
		t.Errorf("Expected %s, got %s", engine.ErrCodePolicyViolation, code)
	}
	var engErr *engine.EngineError
	if !errors.As(err, &engErr) || engErr.Message != "verbose logging is forbidden" {
		t.Errorf("Expected violation message in error, got %v", err)
	}
}

func TestEvaluate_ViolationOrdering(t *testing.T) {
	eng := newTestEngine(t)

	custom := Policy{
		Name:     "all-entries",
		Severity: SeverityInfo,
		Enabled:  true,
		Rego: `package custom.all

import rego.v1

deny contains violation if {
	some entry in input.catalog.entries
	violation := {"message": "seen", "entry": sprintf("%s/%s", [entry.section, entry.key])}
}
`,
	}
	if err := eng.ReplaceCustom(context.Background(), []Policy{custom}); err != nil {
		t.Fatalf("ReplaceCustom failed: %v", err)
	}

	catalog := testCatalog(
		engine.ConfigEntry{Section: "health_manager", Key: "sock_rlimit", Value: engine.ServiceDefaultValue()},
		engine.ConfigEntry{Section: "DEFAULT", Key: "debug", Value: engine.ServiceDefaultValue()},
		engine.ConfigEntry{Section: "DEFAULT", Key: "log_dir", Value: engine.StringValue("/var/log/octavia")},
	)

	for i := 0; i < 3; i++ {
		result, err := eng.Evaluate(context.Background(), catalog, nil)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		got := make([]string, 0, len(result.Violations))
		for _, v := range result.Violations {
			got = append(got, v.Entry)
		}
		want := "DEFAULT/debug,DEFAULT/log_dir,health_manager/sock_rlimit"
		if strings.Join(got, ",") != want {
			t.Fatalf("Expected %s, got %s", want, strings.Join(got, ","))
		}
	}
}

func TestReplaceCustom(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	first := Policy{Name: "first", Severity: SeverityWarning, Enabled: true, Rego: "package a\n\nimport rego.v1\n\ndeny contains \"x\" if { false }\n"}
	second := Policy{Name: "second", Severity: SeverityWarning, Enabled: true, Rego: "package b\n\nimport rego.v1\n\ndeny contains \"y\" if { false }\n"}

	if err := eng.ReplaceCustom(ctx, []Policy{first}); err != nil {
		t.Fatalf("ReplaceCustom failed: %v", err)
	}
	if _, err := eng.GetPolicy("first"); err != nil {
		t.Fatalf("Expected first policy: %v", err)
	}

	if err := eng.ReplaceCustom(ctx, []Policy{second}); err != nil {
		t.Fatalf("ReplaceCustom failed: %v", err)
	}
	if _, err := eng.GetPolicy("first"); err == nil {
		t.Error("First policy should have been replaced")
	}
	if _, err := eng.GetPolicy("second"); err != nil {
		t.Errorf("Expected second policy: %v", err)
	}

	t.Run("invalid rego keeps previous set", func(t *testing.T) {
		broken := Policy{Name: "broken", Enabled: true, Rego: "package broken\n\ndeny contains"}
		if err := eng.ReplaceCustom(ctx, []Policy{broken}); err == nil {
			t.Fatal("Expected compile error")
		}
		if _, err := eng.GetPolicy("second"); err != nil {
			t.Errorf("Previous policy should survive: %v", err)
		}
	})

	t.Run("builtin cannot be shadowed", func(t *testing.T) {
		shadow := Policy{Name: "debug-in-production", Enabled: true, Rego: "package shadow\n\nimport rego.v1\n\ndeny contains \"z\" if { false }\n"}
		if err := eng.ReplaceCustom(ctx, []Policy{shadow}); err == nil {
			t.Fatal("Expected shadowing error")
		}
		p, err := eng.GetPolicy("debug-in-production")
		if err != nil || !p.Builtin {
			t.Errorf("Built-in policy should be untouched, got %+v, %v", p, err)
		}
		if _, err := eng.GetPolicy("second"); err != nil {
			t.Errorf("Previous policy should survive: %v", err)
		}
	})
}

func TestEnableDisablePolicy(t *testing.T) {
	eng := newTestEngine(t)
	catalog := testCatalog(engine.ConfigEntry{Section: "health_manager", Key: "heartbeat_key", Value: engine.StringValue("abc")})

	if err := eng.DisablePolicy("heartbeat-key-strength"); err != nil {
		t.Fatalf("Failed to disable policy: %v", err)
	}

	result, err := eng.Evaluate(context.Background(), catalog, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(result.Violations) != 0 {
		t.Errorf("Disabled policy should not report, got %+v", result.Violations)
	}
	for _, name := range result.EvaluatedPolicies {
		if name == "heartbeat-key-strength" {
			t.Error("Disabled policy should not be evaluated")
		}
	}

	if err := eng.EnablePolicy("heartbeat-key-strength"); err != nil {
		t.Fatalf("Failed to enable policy: %v", err)
	}
	result, err = eng.Evaluate(context.Background(), catalog, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(result.Violations) != 1 {
		t.Errorf("Expected 1 violation after re-enabling, got %d", len(result.Violations))
	}

	if err := eng.EnablePolicy("non-existent"); err == nil {
		t.Error("Expected error for unknown policy")
	}
}

func TestLoadPolicies(t *testing.T) {
	eng := newTestEngine(t)

	dir := t.TempDir()
	rego := `# Rejects any catalog for RedHat hosts.
# severity: critical
package custom.platform

import rego.v1

deny contains msg if {
	input.catalog.os_family == "RedHat"
	msg := "RedHat is not supported here"
}
`
	if err := os.WriteFile(filepath.Join(dir, "no-redhat.rego"), []byte(rego), 0644); err != nil {
		t.Fatalf("Failed to write policy: %v", err)
	}

	if err := eng.LoadPolicies(context.Background(), []string{dir}); err != nil {
		t.Fatalf("LoadPolicies failed: %v", err)
	}

	catalog := testCatalog()
	catalog.OSFamily = "RedHat"
	result, err := eng.Evaluate(context.Background(), catalog, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Allowed {
		t.Fatal("Expected critical violation to block")
	}
	if result.Violations[0].Severity != SeverityCritical {
		t.Errorf("Expected critical severity, got %s", result.Violations[0].Severity)
	}
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		input    string
		valid    bool
		blocking bool
	}{
		{"info", true, false},
		{"warning", true, false},
		{"error", true, true},
		{"critical", true, true},
		{"fatal", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sev, ok := ParseSeverity(tt.input)
			if ok != tt.valid {
				t.Fatalf("ParseSeverity(%q) valid = %v, want %v", tt.input, ok, tt.valid)
			}
			if sev.Blocking() != tt.blocking {
				t.Errorf("Blocking() = %v, want %v", sev.Blocking(), tt.blocking)
			}
		})
	}
}
