package policy

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		debugInProductionPolicy(),
		heartbeatKeyStrengthPolicy(),
		unpinnedPackagePolicy(),
	}
}

// debugInProductionPolicy flags debug or verbose logging in production.
func debugInProductionPolicy() Policy {
	return Policy{
		Name:        "debug-in-production",
		Description: "Warns when debug or verbose logging is enabled in a production environment",
		Severity:    SeverityWarning,
		Enabled:     true,
		Builtin:     true,
		Rego: `package octavia.policies.debug

import rego.v1

noisy_keys := {"debug", "verbose"}

deny contains violation if {
	input.context.environment == "production"
	some entry in input.catalog.entries
	entry.section == "DEFAULT"
	noisy_keys[entry.key]
	entry.value == true
	violation := {
		"message": sprintf("%s logging is enabled in production", [entry.key]),
		"severity": "warning",
		"entry": sprintf("%s/%s", [entry.section, entry.key]),
		"remediation": sprintf("set %s to false or leave it unset", [entry.key]),
	}
}
`,
	}
}

// heartbeatKeyStrengthPolicy flags short heartbeat signing keys.
func heartbeatKeyStrengthPolicy() Policy {
	return Policy{
		Name:        "heartbeat-key-strength",
		Description: "Warns when the amphora heartbeat key is shorter than 8 characters",
		Severity:    SeverityWarning,
		Enabled:     true,
		Builtin:     true,
		Rego: `package octavia.policies.heartbeat

import rego.v1

min_length := 8

deny contains violation if {
	some entry in input.catalog.entries
	entry.section == "health_manager"
	entry.key == "heartbeat_key"
	is_string(entry.value)
	count(entry.value) < min_length
	violation := {
		"message": sprintf("heartbeat_key is %d characters, at least %d are recommended", [count(entry.value), min_length]),
		"severity": "warning",
		"entry": "health_manager/heartbeat_key",
		"remediation": "generate a longer random key and distribute it to every controller",
	}
}
`,
	}
}

// unpinnedPackagePolicy notes packages tracking the newest available version.
func unpinnedPackagePolicy() Policy {
	return Policy{
		Name:        "unpinned-package",
		Description: "Notes when the package follows the latest available version",
		Severity:    SeverityInfo,
		Enabled:     true,
		Builtin:     true,
		Rego: `package octavia.policies.packaging

import rego.v1

deny contains violation if {
	input.catalog.package.ensure == "latest"
	violation := {
		"message": sprintf("package %s is not pinned and will upgrade on every run", [input.catalog.package.name]),
		"severity": "info",
		"remediation": "set package_ensure to a specific version or to present",
	}
}
`,
	}
}
