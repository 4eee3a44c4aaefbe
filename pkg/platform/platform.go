// Package platform maps operating-system families to the package and service
// names the health manager is distributed under.
package platform

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/go-ini/ini"
	"github.com/openfroyo/octavia/pkg/engine"
)

// OSFamily identifies a distribution family.
type OSFamily int

const (
	// Unknown is the zero OSFamily and has no profile.
	Unknown OSFamily = iota

	// Debian covers Debian, Ubuntu and derivatives.
	Debian

	// RedHat covers RHEL, CentOS, Fedora and rebuilds.
	RedHat
)

var familyNames = map[OSFamily]string{
	Debian: "Debian",
	RedHat: "RedHat",
}

// String returns the canonical family name.
func (f OSFamily) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return fmt.Sprintf("OSFamily(%d)", int(f))
}

// MarshalText implements encoding.TextMarshaler.
func (f OSFamily) MarshalText() ([]byte, error) {
	if _, ok := familyNames[f]; !ok {
		return nil, engine.UnrecognizedPlatform(f.String())
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *OSFamily) UnmarshalText(text []byte) error {
	parsed, err := ParseOSFamily(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Profile holds the distribution-specific names for the component.
type Profile struct {
	// Family is the OS family this profile applies to.
	Family OSFamily `json:"os_family" yaml:"os_family"`

	// PackageName is the distribution package providing the health manager.
	PackageName string `json:"package_name" yaml:"package_name" validate:"required"`

	// ServiceName is the init system unit running the health manager.
	ServiceName string `json:"service_name" yaml:"service_name" validate:"required"`
}

var profiles = map[OSFamily]Profile{
	Debian: {
		Family:      Debian,
		PackageName: "octavia-health-manager",
		ServiceName: "octavia-health-manager",
	},
	RedHat: {
		Family:      RedHat,
		PackageName: "openstack-octavia-health-manager",
		ServiceName: "octavia-health-manager",
	},
}

// Resolve returns the profile for family.
func Resolve(family OSFamily) (Profile, error) {
	profile, ok := profiles[family]
	if !ok {
		return Profile{}, engine.UnrecognizedPlatform(family.String()).WithOperation("resolve")
	}
	return profile, nil
}

// Families returns every family with a profile, in declaration order.
func Families() []OSFamily {
	families := make([]OSFamily, 0, len(profiles))
	for f := range profiles {
		families = append(families, f)
	}
	sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })
	return families
}

var familyAliases = map[string]OSFamily{
	"debian":      Debian,
	"debian-like": Debian,
	"redhat":      RedHat,
	"redhat-like": RedHat,
}

// ParseOSFamily parses a family name case-insensitively.
func ParseOSFamily(s string) (OSFamily, error) {
	if f, ok := familyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f, nil
	}
	return Unknown, engine.UnrecognizedPlatform(s).WithOperation("parse")
}

// distributionIDs maps os-release ID and ID_LIKE tokens to a family.
var distributionIDs = map[string]OSFamily{
	"debian":    Debian,
	"ubuntu":    Debian,
	"raspbian":  Debian,
	"linuxmint": Debian,
	"rhel":      RedHat,
	"centos":    RedHat,
	"fedora":    RedHat,
	"rocky":     RedHat,
	"almalinux": RedHat,
	"ol":        RedHat,
}

// Release holds the os-release fields used for detection.
type Release struct {
	ID         string   `json:"id" yaml:"id"`
	IDLike     []string `json:"id_like,omitempty" yaml:"id_like,omitempty"`
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	VersionID  string   `json:"version_id,omitempty" yaml:"version_id,omitempty"`
	PrettyName string   `json:"pretty_name,omitempty" yaml:"pretty_name,omitempty"`
}

// ParseRelease reads an os-release document.
func ParseRelease(r io.Reader) (*Release, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, engine.NewIOError("failed to read os-release", err)
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, bytes.NewReader(data))
	if err != nil {
		return nil, engine.NewPlatformError("failed to parse os-release", err).
			WithCode(engine.ErrCodeUnrecognizedPlatform)
	}

	sec := cfg.Section(ini.DefaultSection)
	return &Release{
		ID:         strings.ToLower(sec.Key("ID").String()),
		IDLike:     strings.Fields(strings.ToLower(sec.Key("ID_LIKE").String())),
		Name:       sec.Key("NAME").String(),
		VersionID:  sec.Key("VERSION_ID").String(),
		PrettyName: sec.Key("PRETTY_NAME").String(),
	}, nil
}

// Family returns the family of the release. ID is checked before ID_LIKE.
func (r *Release) Family() (OSFamily, error) {
	candidates := append([]string{r.ID}, r.IDLike...)
	for _, id := range candidates {
		if f, ok := distributionIDs[id]; ok {
			return f, nil
		}
	}
	return Unknown, engine.UnrecognizedPlatform(r.ID).
		WithOperation("detect").
		WithDetail("id_like", r.IDLike)
}

// DetectFamily parses an os-release document and returns its family.
func DetectFamily(r io.Reader) (OSFamily, error) {
	release, err := ParseRelease(r)
	if err != nil {
		return Unknown, err
	}
	return release.Family()
}
