package octavia

import (
	"github.com/openfroyo/octavia/pkg/engine"
	"github.com/openfroyo/octavia/pkg/platform"
)

const (
	// Component is the name catalogs are compiled for.
	Component = "octavia-health-manager"

	// ConfigPath is the INI file every octavia service reads.
	ConfigPath = "/etc/octavia/octavia.conf"

	// SectionDefault holds the shared logging options.
	SectionDefault = "DEFAULT"

	// SectionHealthManager holds the health-manager options.
	SectionHealthManager = "health_manager"

	// DefaultLogDir is written when log_dir is not supplied.
	DefaultLogDir = "/var/log/octavia"

	// DefaultLogFile is written when log_file is not supplied.
	DefaultLogFile = "/var/log/octavia/octavia.log"
)

// Tags applied to the emitted assertions.
const (
	TagOpenstack      = "openstack"
	TagOctaviaPackage = "octavia-package"
	TagOctaviaService = "octavia-service"
)

// BuildPackage returns the package assertion for profile. ensure is passed
// through verbatim.
func BuildPackage(profile platform.Profile, ensure string) engine.PackageAssertion {
	return engine.PackageAssertion{
		Name:   profile.PackageName,
		Ensure: ensure,
		Tags:   []string{TagOpenstack, TagOctaviaPackage},
	}
}

// BuildService returns the service assertion for profile.
//
// When manageService is false the run state is left unspecified, but the
// boot-time enable flag and tags are still emitted.
func BuildService(profile platform.Profile, enabled, manageService bool) engine.ServiceAssertion {
	ensure := engine.EnsureUnspecified
	if manageService {
		ensure = engine.EnsureStopped
		if enabled {
			ensure = engine.EnsureRunning
		}
	}

	return engine.ServiceAssertion{
		Name:       profile.ServiceName,
		Ensure:     ensure,
		Enable:     enabled,
		Manage:     manageService,
		HasStatus:  true,
		HasRestart: true,
		Tags:       []string{TagOctaviaService},
	}
}
