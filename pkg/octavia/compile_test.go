package octavia

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/openfroyo/octavia/pkg/config"
	"github.com/openfroyo/octavia/pkg/engine"
	"github.com/openfroyo/octavia/pkg/platform"
	"github.com/openfroyo/octavia/pkg/telemetry"
)

func baseParams() config.RawParameters {
	return config.RawParameters{
		"enabled":        true,
		"manage_service": true,
		"package_ensure": "latest",
		"heartbeat_key":  "default_key",
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(config.RawParameters)
		family   platform.OSFamily
		wantCode string
		option   string
	}{
		{
			name:     "missing heartbeat key",
			mutate:   func(p config.RawParameters) { delete(p, "heartbeat_key") },
			family:   platform.Debian,
			wantCode: engine.ErrCodeMissingRequiredOption,
			option:   "heartbeat_key",
		},
		{
			name:     "numeric heartbeat key",
			mutate:   func(p config.RawParameters) { p["heartbeat_key"] = 0 },
			family:   platform.RedHat,
			wantCode: engine.ErrCodeInvalidOptionType,
			option:   "heartbeat_key",
		},
		{
			name:     "empty heartbeat key",
			mutate:   func(p config.RawParameters) { p["heartbeat_key"] = "" },
			family:   platform.Debian,
			wantCode: engine.ErrCodeInvalidOptionType,
			option:   "heartbeat_key",
		},
		{
			name:     "unknown option",
			mutate:   func(p config.RawParameters) { p["heartbeat_keys"] = "typo" },
			family:   platform.Debian,
			wantCode: engine.ErrCodeUnknownOption,
			option:   "heartbeat_keys",
		},
		{
			name:     "unrecognized platform",
			mutate:   func(config.RawParameters) {},
			family:   platform.Unknown,
			wantCode: engine.ErrCodeUnrecognizedPlatform,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := baseParams()
			tt.mutate(raw)

			catalog, err := Compile(context.Background(), raw, tt.family)
			if err == nil {
				t.Fatal("expected error")
			}
			if catalog != nil {
				t.Error("a failed compile must not return a partial catalog")
			}
			if code := engine.ErrorCode(err); code != tt.wantCode {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
			if tt.option != "" {
				engErr, ok := err.(*engine.EngineError)
				if !ok || engErr.Option != tt.option {
					t.Errorf("error option = %v, want %s", err, tt.option)
				}
			}
		})
	}
}

func TestCompile_Platforms(t *testing.T) {
	tests := []struct {
		family      platform.OSFamily
		wantPackage string
	}{
		{platform.Debian, "octavia-health-manager"},
		{platform.RedHat, "openstack-octavia-health-manager"},
	}

	for _, tt := range tests {
		t.Run(tt.family.String(), func(t *testing.T) {
			catalog, err := Compile(context.Background(), baseParams(), tt.family)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}

			if catalog.Package.Name != tt.wantPackage {
				t.Errorf("package = %s, want %s", catalog.Package.Name, tt.wantPackage)
			}
			if catalog.Package.Ensure != "latest" {
				t.Errorf("package ensure = %s", catalog.Package.Ensure)
			}
			if catalog.Service.Name != "octavia-health-manager" {
				t.Errorf("service = %s", catalog.Service.Name)
			}
			if catalog.Service.Ensure != engine.EnsureRunning {
				t.Errorf("service ensure = %s", catalog.Service.Ensure)
			}
			if catalog.OSFamily != tt.family.String() {
				t.Errorf("os_family = %s", catalog.OSFamily)
			}
			if catalog.ConfigPath != "/etc/octavia/octavia.conf" {
				t.Errorf("config_path = %s", catalog.ConfigPath)
			}
		})
	}
}

func TestCompile_Defaults(t *testing.T) {
	catalog, err := Compile(context.Background(), config.RawParameters{"heartbeat_key": "abcdefghi"}, platform.Debian)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if catalog.Package.Ensure != "present" {
		t.Errorf("package ensure = %s, want present", catalog.Package.Ensure)
	}
	if catalog.Service.Ensure != engine.EnsureRunning || !catalog.Service.Enable || !catalog.Service.Manage {
		t.Errorf("service = %+v", catalog.Service)
	}

	entry, ok := catalog.Entry("health_manager/heartbeat_key")
	if !ok || entry.Value.String() != "abcdefghi" {
		t.Errorf("heartbeat_key entry = %+v", entry)
	}

	keys := EntryKeys()
	if len(catalog.Entries) != len(keys) {
		t.Fatalf("expected %d entries, got %d", len(keys), len(catalog.Entries))
	}
	for i, e := range catalog.Entries {
		if e.Name() != keys[i] {
			t.Errorf("entry %d = %s, want %s", i, e.Name(), keys[i])
		}
	}
}

func TestCompile_UnmanagedService(t *testing.T) {
	raw := baseParams()
	raw["manage_service"] = false
	raw["enabled"] = false

	catalog, err := Compile(context.Background(), raw, platform.RedHat)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	data, err := json.Marshal(catalog.Service)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"name":"octavia-health-manager","ensure":null,"enable":false,"manage":false,"hasstatus":true,"hasrestart":true,"tags":["octavia-service"]}`
	if string(data) != want {
		t.Errorf("service JSON = %s\nwant %s", data, want)
	}
}

func TestCompile_Idempotent(t *testing.T) {
	raw := fullLogging()
	raw["heartbeat_key"] = "abcdefghi"

	render := func() []byte {
		catalog, err := Compile(context.Background(), raw, platform.Debian)
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		data, err := json.Marshal(catalog)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		return data
	}

	first := render()
	for i := 0; i < 5; i++ {
		if next := render(); !bytes.Equal(first, next) {
			t.Fatalf("compile %d differs:\n%s\n%s", i, first, next)
		}
	}
}

func TestCompile_DoesNotMutateInput(t *testing.T) {
	raw := fullLogging()
	raw["heartbeat_key"] = "abcdefghi"
	before, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	if _, err := Compile(context.Background(), raw, platform.Debian); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	after, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("Compile modified its input")
	}
}

func TestCompile_Telemetry(t *testing.T) {
	tel, err := telemetry.NewTelemetry(telemetry.DefaultConfig())
	if err != nil {
		t.Fatalf("NewTelemetry() error = %v", err)
	}
	ctx := tel.WithContext(context.Background())

	if _, err := Compile(ctx, baseParams(), platform.Debian); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := Compile(ctx, config.RawParameters{}, platform.Debian); err == nil {
		t.Fatal("expected error")
	}

	families, err := tel.Metrics.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	counters := map[string]float64{}
	gauges := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil {
				counters[mf.GetName()] += m.GetCounter().GetValue()
			}
			if m.GetGauge() != nil {
				gauges[mf.GetName()] = m.GetGauge().GetValue()
			}
		}
	}

	if counters["octavia_hm_compiles_total"] != 2 {
		t.Errorf("compiles_total = %v, want 2", counters["octavia_hm_compiles_total"])
	}
	if counters["octavia_hm_assertions_emitted_total"] != float64(2+len(EntryKeys())) {
		t.Errorf("assertions_emitted_total = %v", counters["octavia_hm_assertions_emitted_total"])
	}
	if counters["octavia_hm_validation_errors_total"] != 1 {
		t.Errorf("validation_errors_total = %v, want 1", counters["octavia_hm_validation_errors_total"])
	}
	// 16 logging keys and 8 optional health_manager keys are unset.
	if gauges["octavia_hm_service_default_entries"] != 24 {
		t.Errorf("service_default_entries = %v, want 24", gauges["octavia_hm_service_default_entries"])
	}
}
