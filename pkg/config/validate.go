package config

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/openfroyo/octavia/pkg/engine"
)

// Option names recognized by the health-manager component.
const (
	OptEnabled              = "enabled"
	OptManageService        = "manage_service"
	OptPackageEnsure        = "package_ensure"
	OptHeartbeatKey         = "heartbeat_key"
	OptBindIP               = "ip"
	OptBindPort             = "port"
	OptControllerIPPortList = "controller_ip_port_list"
	OptFailoverThreads      = "failover_threads"
	OptStatusUpdateThreads  = "status_update_threads"
	OptHeartbeatInterval    = "heartbeat_interval"
	OptHealthCheckInterval  = "health_check_interval"
	OptSockRlimit           = "sock_rlimit"

	OptUseSyslog                  = "use_syslog"
	OptUseStderr                  = "use_stderr"
	OptLogFacility                = "log_facility"
	OptLogDir                     = "log_dir"
	OptLogFile                    = "log_file"
	OptVerbose                    = "verbose"
	OptDebug                      = "debug"
	OptLoggingContextFormatString = "logging_context_format_string"
	OptLoggingDefaultFormatString = "logging_default_format_string"
	OptLoggingDebugFormatSuffix   = "logging_debug_format_suffix"
	OptLoggingExceptionPrefix     = "logging_exception_prefix"
	OptLogConfigAppend            = "log_config_append"
	OptPublishErrors              = "publish_errors"
	OptDefaultLogLevels           = "default_log_levels"
	OptFatalDeprecations          = "fatal_deprecations"
	OptInstanceFormat             = "instance_format"
	OptInstanceUUIDFormat         = "instance_uuid_format"
	OptLogDateFormat              = "log_date_format"
)

// Default values for options that always have a concrete value.
const (
	DefaultEnabled       = true
	DefaultManageService = true
	DefaultPackageEnsure = "present"
)

// optionSpec describes how one raw option is type-checked and stored.
type optionSpec struct {
	name     string
	required bool
	apply    func(p *Parameters, v interface{}) error
}

// optionTable is checked in order; the first failing option wins.
var optionTable = []optionSpec{
	{name: OptHeartbeatKey, required: true, apply: nonEmptyString(func(p *Parameters, s string) { p.HeartbeatKey = s })},
	{name: OptEnabled, apply: boolean(func(p *Parameters, b bool) { p.Enabled = b })},
	{name: OptManageService, apply: boolean(func(p *Parameters, b bool) { p.ManageService = b })},
	{name: OptPackageEnsure, apply: nonEmptyString(func(p *Parameters, s string) { p.PackageEnsure = s })},
	{name: OptBindIP, apply: str(func(p *Parameters, s string) { p.BindIP = Some(s) })},
	{name: OptBindPort, apply: integer(func(p *Parameters, n int64) { p.BindPort = Some(n) })},
	{name: OptControllerIPPortList, apply: stringList(func(p *Parameters, l []string) { p.ControllerIPPortList = Some(l) })},
	{name: OptFailoverThreads, apply: integer(func(p *Parameters, n int64) { p.FailoverThreads = Some(n) })},
	{name: OptStatusUpdateThreads, apply: integer(func(p *Parameters, n int64) { p.StatusUpdateThreads = Some(n) })},
	{name: OptHeartbeatInterval, apply: integer(func(p *Parameters, n int64) { p.HeartbeatInterval = Some(n) })},
	{name: OptHealthCheckInterval, apply: integer(func(p *Parameters, n int64) { p.HealthCheckInterval = Some(n) })},
	{name: OptSockRlimit, apply: integer(func(p *Parameters, n int64) { p.SockRlimit = Some(n) })},

	{name: OptUseSyslog, apply: boolean(func(p *Parameters, b bool) { p.Logging.UseSyslog = Some(b) })},
	{name: OptUseStderr, apply: boolean(func(p *Parameters, b bool) { p.Logging.UseStderr = Some(b) })},
	{name: OptLogFacility, apply: str(func(p *Parameters, s string) { p.Logging.LogFacility = Some(s) })},
	{name: OptLogDir, apply: str(func(p *Parameters, s string) { p.Logging.LogDir = Some(s) })},
	{name: OptLogFile, apply: str(func(p *Parameters, s string) { p.Logging.LogFile = Some(s) })},
	{name: OptVerbose, apply: boolean(func(p *Parameters, b bool) { p.Logging.Verbose = Some(b) })},
	{name: OptDebug, apply: boolean(func(p *Parameters, b bool) { p.Logging.Debug = Some(b) })},
	{name: OptLoggingContextFormatString, apply: str(func(p *Parameters, s string) { p.Logging.LoggingContextFormatString = Some(s) })},
	{name: OptLoggingDefaultFormatString, apply: str(func(p *Parameters, s string) { p.Logging.LoggingDefaultFormatString = Some(s) })},
	{name: OptLoggingDebugFormatSuffix, apply: str(func(p *Parameters, s string) { p.Logging.LoggingDebugFormatSuffix = Some(s) })},
	{name: OptLoggingExceptionPrefix, apply: str(func(p *Parameters, s string) { p.Logging.LoggingExceptionPrefix = Some(s) })},
	{name: OptLogConfigAppend, apply: str(func(p *Parameters, s string) { p.Logging.LogConfigAppend = Some(s) })},
	{name: OptPublishErrors, apply: boolean(func(p *Parameters, b bool) { p.Logging.PublishErrors = Some(b) })},
	{name: OptDefaultLogLevels, apply: stringMap(func(p *Parameters, m map[string]string) { p.Logging.DefaultLogLevels = Some(m) })},
	{name: OptFatalDeprecations, apply: boolean(func(p *Parameters, b bool) { p.Logging.FatalDeprecations = Some(b) })},
	{name: OptInstanceFormat, apply: str(func(p *Parameters, s string) { p.Logging.InstanceFormat = Some(s) })},
	{name: OptInstanceUUIDFormat, apply: str(func(p *Parameters, s string) { p.Logging.InstanceUUIDFormat = Some(s) })},
	{name: OptLogDateFormat, apply: str(func(p *Parameters, s string) { p.Logging.LogDateFormat = Some(s) })},
}

// RecognizedOptions returns every option name the component accepts, sorted.
func RecognizedOptions() []string {
	names := make([]string, 0, len(optionTable))
	for _, spec := range optionTable {
		names = append(names, spec.name)
	}
	sort.Strings(names)
	return names
}

// fieldOptions maps constrained Parameters fields back to option names.
var fieldOptions = map[string]string{
	"PackageEnsure":        OptPackageEnsure,
	"HeartbeatKey":         OptHeartbeatKey,
	"BindIP":               OptBindIP,
	"BindPort":             OptBindPort,
	"ControllerIPPortList": OptControllerIPPortList,
	"FailoverThreads":      OptFailoverThreads,
	"StatusUpdateThreads":  OptStatusUpdateThreads,
	"HeartbeatInterval":    OptHeartbeatInterval,
	"HealthCheckInterval":  OptHealthCheckInterval,
	"SockRlimit":           OptSockRlimit,
}

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

// Validator returns the shared struct validator. Option fields are
// validated by their inner value and skipped by omitempty when unset.
func Validator() *validator.Validate {
	structValidatorOnce.Do(func() {
		v := validator.New()
		v.RegisterCustomTypeFunc(unwrapOption,
			Option[string]{},
			Option[bool]{},
			Option[int64]{},
			Option[[]string]{},
			Option[map[string]string]{},
		)
		structValidator = v
	})
	return structValidator
}

func unwrapOption(field reflect.Value) interface{} {
	o, ok := field.Interface().(optional)
	if !ok {
		return nil
	}
	if v, set := o.unwrap(); set {
		return v
	}
	return nil
}

// Validate type-checks raw parameters and returns the typed Parameters.
// Unknown option names are rejected before any value is inspected.
func Validate(raw RawParameters) (*Parameters, error) {
	known := make(map[string]bool, len(optionTable))
	for _, spec := range optionTable {
		known[spec.name] = true
	}

	unknown := make([]string, 0)
	for name := range raw {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, engine.UnknownOption(unknown[0]).
			WithOperation("validate").
			WithDetail("unknown", unknown)
	}

	params := &Parameters{
		Enabled:       DefaultEnabled,
		ManageService: DefaultManageService,
		PackageEnsure: DefaultPackageEnsure,
	}

	for _, spec := range optionTable {
		v, present := raw[spec.name]
		if !present || v == nil {
			if spec.required {
				return nil, engine.MissingRequiredOption(spec.name).WithOperation("validate")
			}
			continue
		}
		if err := spec.apply(params, v); err != nil {
			return nil, annotate(err, spec.name)
		}
	}

	if err := Validator().Struct(params); err != nil {
		verr := engine.NewValidationError("parameter constraints not satisfied", err).
			WithCode(engine.ErrCodeInvalidOptionType).
			WithOperation("validate")
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			// dive failures name the element, e.g. "ControllerIPPortList[0]".
			field, _, _ := strings.Cut(fieldErrs[0].StructField(), "[")
			verr = verr.WithOption(fieldOptions[field]).
				WithDetail("constraint", fieldErrs[0].Tag())
		}
		return nil, verr
	}

	return params, nil
}

func annotate(err error, option string) error {
	if e, ok := err.(*engine.EngineError); ok {
		return e.WithOption(option).WithOperation("validate")
	}
	return err
}

func boolean(set func(*Parameters, bool)) func(*Parameters, interface{}) error {
	return func(p *Parameters, v interface{}) error {
		b, ok := v.(bool)
		if !ok {
			return engine.InvalidOptionType("", "boolean", v)
		}
		set(p, b)
		return nil
	}
}

func str(set func(*Parameters, string)) func(*Parameters, interface{}) error {
	return func(p *Parameters, v interface{}) error {
		s, ok := v.(string)
		if !ok {
			return engine.InvalidOptionType("", "string", v)
		}
		set(p, s)
		return nil
	}
}

func nonEmptyString(set func(*Parameters, string)) func(*Parameters, interface{}) error {
	return func(p *Parameters, v interface{}) error {
		s, ok := v.(string)
		if !ok || s == "" {
			return engine.InvalidOptionType("", "non-empty string", v)
		}
		set(p, s)
		return nil
	}
}

func integer(set func(*Parameters, int64)) func(*Parameters, interface{}) error {
	return func(p *Parameters, v interface{}) error {
		n, ok := toInt64(v)
		if !ok {
			return engine.InvalidOptionType("", "integer", v)
		}
		set(p, n)
		return nil
	}
}

func stringList(set func(*Parameters, []string)) func(*Parameters, interface{}) error {
	return func(p *Parameters, v interface{}) error {
		switch val := v.(type) {
		case []string:
			set(p, append([]string(nil), val...))
			return nil
		case []interface{}:
			out := make([]string, 0, len(val))
			for _, item := range val {
				s, ok := item.(string)
				if !ok {
					return engine.InvalidOptionType("", "list of strings", v)
				}
				out = append(out, s)
			}
			set(p, out)
			return nil
		case string:
			// A single endpoint is accepted as a one-element list.
			set(p, []string{val})
			return nil
		default:
			return engine.InvalidOptionType("", "list of strings", v)
		}
	}
}

func stringMap(set func(*Parameters, map[string]string)) func(*Parameters, interface{}) error {
	return func(p *Parameters, v interface{}) error {
		switch val := v.(type) {
		case map[string]string:
			out := make(map[string]string, len(val))
			for k, s := range val {
				out[k] = s
			}
			set(p, out)
			return nil
		case map[string]interface{}:
			out := make(map[string]string, len(val))
			for k, item := range val {
				s, ok := item.(string)
				if !ok {
					return engine.InvalidOptionType("", "map of strings", v).WithDetail("key", k)
				}
				out[k] = s
			}
			set(p, out)
			return nil
		default:
			return engine.InvalidOptionType("", "map of strings", v)
		}
	}
}

// toInt64 accepts the integer representations produced by the YAML, JSON,
// CUE and Starlark decoders.
func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which is out of range.
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// String implements fmt.Stringer for debugging output; the heartbeat key is redacted.
func (p *Parameters) String() string {
	return fmt.Sprintf("Parameters{enabled=%t manage_service=%t package_ensure=%q heartbeat_key=<redacted>}",
		p.Enabled, p.ManageService, p.PackageEnsure)
}
