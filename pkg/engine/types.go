package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ServiceDefault is the literal the enforcement engine recognizes as "do not
// set explicitly; let the service fall back to its compiled-in default".
const ServiceDefault = "<SERVICE DEFAULT>"

// Catalog is the complete set of assertions compiled for one component.
// A catalog is built fresh per invocation and never mutated afterwards.
type Catalog struct {
	// Component is the component the catalog was compiled for (e.g., "octavia-health-manager").
	Component string `json:"component" yaml:"component" validate:"required"`

	// OSFamily is the platform family the names were resolved for.
	OSFamily string `json:"os_family" yaml:"os_family" validate:"required"`

	// ConfigPath is the INI file the config entries belong to.
	ConfigPath string `json:"config_path" yaml:"config_path" validate:"required"`

	// Package is the package assertion.
	Package PackageAssertion `json:"package" yaml:"package"`

	// Service is the service assertion.
	Service ServiceAssertion `json:"service" yaml:"service"`

	// Entries are the config file entries in emission order.
	Entries []ConfigEntry `json:"entries" yaml:"entries" validate:"dive"`
}

// Entry returns the entry addressed by "section/key".
func (c *Catalog) Entry(name string) (ConfigEntry, bool) {
	for _, e := range c.Entries {
		if e.Name() == name {
			return e, true
		}
	}
	return ConfigEntry{}, false
}

// PackageAssertion declares the desired state of a package.
type PackageAssertion struct {
	// Name is the distribution package name.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Ensure is a version string, "present" or "latest". Passed through verbatim.
	Ensure string `json:"ensure" yaml:"ensure" validate:"required"`

	// Tags group the package with its siblings for bulk operations.
	Tags []string `json:"tags" yaml:"tags"`
}

// ServiceEnsure is the desired run state of a service.
type ServiceEnsure string

const (
	// EnsureUnspecified leaves the run state alone.
	EnsureUnspecified ServiceEnsure = ""

	// EnsureRunning starts the service.
	EnsureRunning ServiceEnsure = "running"

	// EnsureStopped stops the service.
	EnsureStopped ServiceEnsure = "stopped"
)

// MarshalJSON encodes EnsureUnspecified as null.
func (s ServiceEnsure) MarshalJSON() ([]byte, error) {
	if s == EnsureUnspecified {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON decodes null as EnsureUnspecified.
func (s *ServiceEnsure) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = EnsureUnspecified
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = ServiceEnsure(v)
	return nil
}

// MarshalYAML encodes EnsureUnspecified as null.
func (s ServiceEnsure) MarshalYAML() (interface{}, error) {
	if s == EnsureUnspecified {
		return nil, nil
	}
	return string(s), nil
}

// ServiceAssertion declares the desired state of a service.
type ServiceAssertion struct {
	// Name is the init-system service name.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Ensure is the run state; EnsureUnspecified when the service is unmanaged.
	Ensure ServiceEnsure `json:"ensure" yaml:"ensure" validate:"omitempty,oneof=running stopped"`

	// Enable controls whether the service starts at boot.
	Enable bool `json:"enable" yaml:"enable"`

	// Manage records whether the run state is enforced.
	Manage bool `json:"manage" yaml:"manage"`

	// HasStatus tells the enforcement engine the service supports a native status command.
	HasStatus bool `json:"hasstatus" yaml:"hasstatus"`

	// HasRestart tells the enforcement engine the service supports a native restart command.
	HasRestart bool `json:"hasrestart" yaml:"hasrestart"`

	// Tags group the service with its siblings.
	Tags []string `json:"tags" yaml:"tags"`
}

// ValueKind distinguishes how a config value was produced.
type ValueKind string

const (
	// ValueKindString is a literal string value.
	ValueKindString ValueKind = "string"

	// ValueKindBool is a literal boolean value.
	ValueKindBool ValueKind = "bool"

	// ValueKindServiceDefault is the ServiceDefault sentinel.
	ValueKindServiceDefault ValueKind = "service_default"
)

// Value is a config entry value: a literal string, a boolean, or the
// ServiceDefault sentinel. The zero Value is the sentinel.
type Value struct {
	kind ValueKind
	str  string
	b    bool
}

// StringValue returns a literal string value.
func StringValue(s string) Value {
	return Value{kind: ValueKindString, str: s}
}

// BoolValue returns a literal boolean value.
func BoolValue(b bool) Value {
	return Value{kind: ValueKindBool, b: b}
}

// ServiceDefaultValue returns the sentinel value.
func ServiceDefaultValue() Value {
	return Value{kind: ValueKindServiceDefault}
}

// Kind returns the value kind.
func (v Value) Kind() ValueKind {
	if v.kind == "" {
		return ValueKindServiceDefault
	}
	return v.kind
}

// IsServiceDefault reports whether v is the sentinel.
func (v Value) IsServiceDefault() bool {
	return v.Kind() == ValueKindServiceDefault
}

// String returns the serialized form written to the config file.
func (v Value) String() string {
	switch v.Kind() {
	case ValueKindBool:
		return strconv.FormatBool(v.b)
	case ValueKindString:
		return v.str
	default:
		return ServiceDefault
	}
}

// MarshalJSON encodes booleans as JSON booleans and everything else as strings.
// Strings are not HTML-escaped so the sentinel stays readable; an encoder
// with SetEscapeHTML(false) carries that through to the document.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind() == ValueKindBool {
		return json.Marshal(v.b)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v.String()); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case bool:
		*v = BoolValue(val)
	case string:
		if val == ServiceDefault {
			*v = ServiceDefaultValue()
		} else {
			*v = StringValue(val)
		}
	default:
		return fmt.Errorf("unsupported config value %s", string(data))
	}
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (v Value) MarshalYAML() (interface{}, error) {
	if v.Kind() == ValueKindBool {
		return v.b, nil
	}
	return v.String(), nil
}

// ConfigEntry is one key under one section of the component's config file.
type ConfigEntry struct {
	// Section is the INI section (e.g., "DEFAULT", "health_manager").
	Section string `json:"section" yaml:"section" validate:"required"`

	// Key is the option name within the section.
	Key string `json:"key" yaml:"key" validate:"required"`

	// Value is the literal or sentinel value.
	Value Value `json:"value" yaml:"value"`
}

// Name returns the "section/key" address of the entry.
func (e ConfigEntry) Name() string {
	return e.Section + "/" + e.Key
}

// Change represents a single change the enforcement of a catalog would make.
type Change struct {
	// Path is the "section/key" of the entry being changed.
	Path string `json:"path"`

	// Before is the value before the change.
	Before interface{} `json:"before,omitempty"`

	// After is the value after the change.
	After interface{} `json:"after,omitempty"`

	// Action describes the change action (add, remove, modify).
	Action ChangeAction `json:"action"`
}

// ChangeAction represents the type of change being made.
type ChangeAction string

const (
	// ChangeActionAdd indicates a new key is being added.
	ChangeActionAdd ChangeAction = "add"

	// ChangeActionRemove indicates a key is being removed.
	ChangeActionRemove ChangeAction = "remove"

	// ChangeActionModify indicates a key value is being changed.
	ChangeActionModify ChangeAction = "modify"
)
