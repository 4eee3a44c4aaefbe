package octavia

import (
	"reflect"
	"testing"

	"github.com/openfroyo/octavia/pkg/engine"
	"github.com/openfroyo/octavia/pkg/platform"
)

func TestBuildService(t *testing.T) {
	profile, err := platform.Resolve(platform.Debian)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	tests := []struct {
		name          string
		enabled       bool
		manageService bool
		wantEnsure    engine.ServiceEnsure
	}{
		{name: "managed and enabled", enabled: true, manageService: true, wantEnsure: engine.EnsureRunning},
		{name: "managed and disabled", enabled: false, manageService: true, wantEnsure: engine.EnsureStopped},
		{name: "unmanaged and disabled", enabled: false, manageService: false, wantEnsure: engine.EnsureUnspecified},
		{name: "unmanaged and enabled", enabled: true, manageService: false, wantEnsure: engine.EnsureUnspecified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := BuildService(profile, tt.enabled, tt.manageService)

			if svc.Ensure != tt.wantEnsure {
				t.Errorf("Ensure = %q, want %q", svc.Ensure, tt.wantEnsure)
			}
			if svc.Enable != tt.enabled {
				t.Errorf("Enable = %v, want %v", svc.Enable, tt.enabled)
			}
			if svc.Manage != tt.manageService {
				t.Errorf("Manage = %v, want %v", svc.Manage, tt.manageService)
			}
			if !svc.HasStatus || !svc.HasRestart {
				t.Error("hasstatus and hasrestart must always be set")
			}
			if svc.Name != "octavia-health-manager" {
				t.Errorf("Name = %q", svc.Name)
			}
			if !reflect.DeepEqual(svc.Tags, []string{"octavia-service"}) {
				t.Errorf("Tags = %v", svc.Tags)
			}
		})
	}
}

func TestBuildPackage(t *testing.T) {
	tests := []struct {
		family   platform.OSFamily
		ensure   string
		wantName string
	}{
		{family: platform.Debian, ensure: "present", wantName: "octavia-health-manager"},
		{family: platform.RedHat, ensure: "latest", wantName: "openstack-octavia-health-manager"},
		{family: platform.RedHat, ensure: "2.1.0-1.el8", wantName: "openstack-octavia-health-manager"},
	}

	for _, tt := range tests {
		t.Run(tt.family.String()+"/"+tt.ensure, func(t *testing.T) {
			profile, err := platform.Resolve(tt.family)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}

			pkg := BuildPackage(profile, tt.ensure)
			if pkg.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", pkg.Name, tt.wantName)
			}
			if pkg.Ensure != tt.ensure {
				t.Errorf("Ensure = %q, want %q", pkg.Ensure, tt.ensure)
			}
			if !reflect.DeepEqual(pkg.Tags, []string{"openstack", "octavia-package"}) {
				t.Errorf("Tags = %v", pkg.Tags)
			}
		})
	}
}
