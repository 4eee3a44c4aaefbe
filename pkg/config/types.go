package config

import (
	"time"
)

// Option holds a value that may or may not have been supplied. The zero
// Option is unset, which is distinct from a set Option holding a zero value.
type Option[T any] struct {
	value T
	set   bool
}

// Some returns a set Option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, set: true}
}

// None returns an unset Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it was set.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value was supplied.
func (o Option[T]) IsSet() bool {
	return o.set
}

// OrElse returns the value if set, def otherwise.
func (o Option[T]) OrElse(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// unwrap exposes the value to the struct validator without knowing T. A set
// value is returned by pointer so that omitempty does not skip set zeros.
func (o Option[T]) unwrap() (interface{}, bool) {
	if !o.set {
		return nil, false
	}
	v := o.value
	return &v, true
}

// optional is implemented by every Option instantiation.
type optional interface {
	unwrap() (interface{}, bool)
}

// RawParameters maps option names to caller-supplied values as decoded from
// a parameter source. Values are bool, string, numbers, []interface{} or
// map[string]interface{}; a missing key means "not supplied".
type RawParameters map[string]interface{}

// Parameters are the validated inputs of the health-manager component.
type Parameters struct {
	// Enabled controls whether the service starts at boot and, when managed, runs.
	Enabled bool `json:"enabled"`

	// ManageService controls whether the run state is enforced at all.
	ManageService bool `json:"manage_service"`

	// PackageEnsure is passed verbatim to the package assertion.
	PackageEnsure string `json:"package_ensure" validate:"required"`

	// HeartbeatKey signs amphora heartbeat messages.
	HeartbeatKey string `json:"heartbeat_key" validate:"required,min=1"`

	// BindIP is the address the health manager listens on for heartbeats.
	BindIP Option[string] `json:"-" validate:"omitempty,ip"`

	// BindPort is the UDP port the health manager listens on for heartbeats.
	BindPort Option[int64] `json:"-" validate:"omitempty,min=1,max=65535"`

	// ControllerIPPortList lists the health manager endpoints amphorae report to.
	ControllerIPPortList Option[[]string] `json:"-" validate:"omitempty,dive,hostname_port"`

	// FailoverThreads is the number of threads performing amphora failovers.
	FailoverThreads Option[int64] `json:"-" validate:"omitempty,min=1"`

	// StatusUpdateThreads is the number of threads processing amphora status updates.
	StatusUpdateThreads Option[int64] `json:"-" validate:"omitempty,min=1"`

	// HeartbeatInterval is the seconds between amphora heartbeats.
	HeartbeatInterval Option[int64] `json:"-" validate:"omitempty,min=1"`

	// HealthCheckInterval is the seconds between stale amphora checks.
	HealthCheckInterval Option[int64] `json:"-" validate:"omitempty,min=1"`

	// SockRlimit is the receive buffer size of the heartbeat socket.
	SockRlimit Option[int64] `json:"-" validate:"omitempty,min=0"`

	// Logging holds the logging options shared by every octavia service.
	Logging LoggingParameters `json:"-"`
}

// LoggingParameters are the logging options written to the DEFAULT section.
type LoggingParameters struct {
	UseSyslog   Option[bool]
	UseStderr   Option[bool]
	LogFacility Option[string]
	LogDir      Option[string]
	LogFile     Option[string]
	Verbose     Option[bool]
	Debug       Option[bool]

	LoggingContextFormatString Option[string]
	LoggingDefaultFormatString Option[string]
	LoggingDebugFormatSuffix   Option[string]
	LoggingExceptionPrefix     Option[string]
	LogConfigAppend            Option[string]
	PublishErrors              Option[bool]
	DefaultLogLevels           Option[map[string]string]
	FatalDeprecations          Option[bool]
	InstanceFormat             Option[string]
	InstanceUUIDFormat         Option[string]
	LogDateFormat              Option[string]
}

// SourceFormat identifies how a parameter source is encoded.
type SourceFormat string

const (
	// FormatYAML is a YAML mapping of option names to values.
	FormatYAML SourceFormat = "yaml"

	// FormatJSON is a JSON object of option names to values.
	FormatJSON SourceFormat = "json"

	// FormatCUE is a CUE file whose concrete top-level fields are options.
	FormatCUE SourceFormat = "cue"

	// FormatStarlark is a Starlark script whose public globals are options.
	FormatStarlark SourceFormat = "starlark"
)

// StarlarkResult represents the result of Starlark execution.
type StarlarkResult struct {
	// Output is the output data from Starlark.
	Output map[string]interface{} `json:"output,omitempty"`

	// ExecutionTime is how long the script took to execute.
	ExecutionTime time.Duration `json:"execution_time"`

	// Error is any error that occurred.
	Error string `json:"error,omitempty"`
}
