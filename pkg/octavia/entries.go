package octavia

import (
	"sort"
	"strconv"
	"strings"

	"github.com/openfroyo/octavia/pkg/config"
	"github.com/openfroyo/octavia/pkg/engine"
)

// loggingRule maps one DEFAULT key to its value.
type loggingRule struct {
	key   string
	value func(l *config.LoggingParameters) engine.Value
}

// loggingRules is the emission order of the DEFAULT section.
var loggingRules = []loggingRule{
	{"use_syslog", func(l *config.LoggingParameters) engine.Value { return boolValue(l.UseSyslog) }},
	{"use_stderr", func(l *config.LoggingParameters) engine.Value { return boolValue(l.UseStderr) }},
	{"syslog_log_facility", func(l *config.LoggingParameters) engine.Value { return stringValue(l.LogFacility) }},
	{"log_dir", func(l *config.LoggingParameters) engine.Value {
		return engine.StringValue(l.LogDir.OrElse(DefaultLogDir))
	}},
	{"log_file", func(l *config.LoggingParameters) engine.Value {
		return engine.StringValue(l.LogFile.OrElse(DefaultLogFile))
	}},
	{"verbose", func(l *config.LoggingParameters) engine.Value { return boolValue(l.Verbose) }},
	{"debug", func(l *config.LoggingParameters) engine.Value { return boolValue(l.Debug) }},

	{"logging_context_format_string", func(l *config.LoggingParameters) engine.Value { return stringValue(l.LoggingContextFormatString) }},
	{"logging_default_format_string", func(l *config.LoggingParameters) engine.Value { return stringValue(l.LoggingDefaultFormatString) }},
	{"logging_debug_format_suffix", func(l *config.LoggingParameters) engine.Value { return stringValue(l.LoggingDebugFormatSuffix) }},
	{"logging_exception_prefix", func(l *config.LoggingParameters) engine.Value { return stringValue(l.LoggingExceptionPrefix) }},
	{"log_config_append", func(l *config.LoggingParameters) engine.Value { return stringValue(l.LogConfigAppend) }},
	{"publish_errors", func(l *config.LoggingParameters) engine.Value { return boolValue(l.PublishErrors) }},
	{"default_log_levels", func(l *config.LoggingParameters) engine.Value { return mapValue(l.DefaultLogLevels) }},
	{"fatal_deprecations", func(l *config.LoggingParameters) engine.Value { return boolValue(l.FatalDeprecations) }},
	{"instance_format", func(l *config.LoggingParameters) engine.Value { return stringValue(l.InstanceFormat) }},
	{"instance_uuid_format", func(l *config.LoggingParameters) engine.Value { return stringValue(l.InstanceUUIDFormat) }},
	{"log_date_format", func(l *config.LoggingParameters) engine.Value { return stringValue(l.LogDateFormat) }},
}

// healthManagerRule maps one health_manager key to its value.
type healthManagerRule struct {
	key   string
	value func(p *config.Parameters) engine.Value
}

// healthManagerRules is the emission order of the health_manager section.
var healthManagerRules = []healthManagerRule{
	{"heartbeat_key", func(p *config.Parameters) engine.Value { return engine.StringValue(p.HeartbeatKey) }},
	{"bind_ip", func(p *config.Parameters) engine.Value { return stringValue(p.BindIP) }},
	{"bind_port", func(p *config.Parameters) engine.Value { return intValue(p.BindPort) }},
	{"controller_ip_port_list", func(p *config.Parameters) engine.Value { return listValue(p.ControllerIPPortList) }},
	{"failover_threads", func(p *config.Parameters) engine.Value { return intValue(p.FailoverThreads) }},
	{"status_update_threads", func(p *config.Parameters) engine.Value { return intValue(p.StatusUpdateThreads) }},
	{"heartbeat_interval", func(p *config.Parameters) engine.Value { return intValue(p.HeartbeatInterval) }},
	{"health_check_interval", func(p *config.Parameters) engine.Value { return intValue(p.HealthCheckInterval) }},
	{"sock_rlimit", func(p *config.Parameters) engine.Value { return intValue(p.SockRlimit) }},
}

// LoggingEntries returns the DEFAULT section entries in fixed order.
func LoggingEntries(logging config.LoggingParameters) []engine.ConfigEntry {
	entries := make([]engine.ConfigEntry, 0, len(loggingRules))
	for _, rule := range loggingRules {
		entries = append(entries, engine.ConfigEntry{
			Section: SectionDefault,
			Key:     rule.key,
			Value:   rule.value(&logging),
		})
	}
	return entries
}

// HealthManagerEntries returns the health_manager section entries in fixed order.
func HealthManagerEntries(params *config.Parameters) []engine.ConfigEntry {
	entries := make([]engine.ConfigEntry, 0, len(healthManagerRules))
	for _, rule := range healthManagerRules {
		entries = append(entries, engine.ConfigEntry{
			Section: SectionHealthManager,
			Key:     rule.key,
			Value:   rule.value(params),
		})
	}
	return entries
}

// EntryKeys returns "section/key" for every entry Compile emits, in order.
func EntryKeys() []string {
	keys := make([]string, 0, len(loggingRules)+len(healthManagerRules))
	for _, rule := range loggingRules {
		keys = append(keys, SectionDefault+"/"+rule.key)
	}
	for _, rule := range healthManagerRules {
		keys = append(keys, SectionHealthManager+"/"+rule.key)
	}
	return keys
}

func boolValue(o config.Option[bool]) engine.Value {
	if b, ok := o.Get(); ok {
		return engine.BoolValue(b)
	}
	return engine.ServiceDefaultValue()
}

func stringValue(o config.Option[string]) engine.Value {
	if s, ok := o.Get(); ok {
		return engine.StringValue(s)
	}
	return engine.ServiceDefaultValue()
}

func intValue(o config.Option[int64]) engine.Value {
	if n, ok := o.Get(); ok {
		return engine.StringValue(strconv.FormatInt(n, 10))
	}
	return engine.ServiceDefaultValue()
}

func listValue(o config.Option[[]string]) engine.Value {
	if l, ok := o.Get(); ok {
		return engine.StringValue(strings.Join(l, ","))
	}
	return engine.ServiceDefaultValue()
}

// mapValue joins key=value pairs with commas, keys sorted.
func mapValue(o config.Option[map[string]string]) engine.Value {
	m, ok := o.Get()
	if !ok {
		return engine.ServiceDefaultValue()
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+m[k])
	}
	return engine.StringValue(strings.Join(pairs, ","))
}
