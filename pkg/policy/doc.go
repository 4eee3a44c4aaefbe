// Package policy evaluates Open Policy Agent (OPA) Rego policies against
// compiled catalogs.
//
// Policies read the catalog and an evaluation context from `input` and report
// violations through a `deny` set:
//
//	package octavia.policies.example
//
//	import rego.v1
//
//	deny contains violation if {
//	    some entry in input.catalog.entries
//	    entry.key == "debug"
//	    entry.value == true
//	    violation := {"message": "debug is on", "severity": "error"}
//	}
//
// Each member of the deny set is either a string message or an object with
// message, severity, entry and remediation keys. A violation without its own
// severity takes the policy's default. Violations of severity error or
// critical block the catalog; PolicyResult.Err reports them as a
// POLICY_VIOLATION engine error.
//
// # Usage
//
//	eng, err := policy.NewEngine(logger)
//	if err != nil {
//	    return err
//	}
//	if err := eng.LoadPolicies(ctx, []string{"/etc/octavia-hm/policies"}); err != nil {
//	    return err
//	}
//	result, err := eng.Evaluate(ctx, catalog, &policy.PolicyContext{Environment: "production"})
//	if err != nil {
//	    return err
//	}
//	if err := result.Err(); err != nil {
//	    return err
//	}
//
// # Built-in Policies
//
//   - debug-in-production: debug or verbose logging in production (warning)
//   - heartbeat-key-strength: heartbeat_key shorter than 8 characters (warning)
//   - unpinned-package: package_ensure set to latest (info)
//
// Built-ins can be disabled but not replaced by a custom policy of the same name.
//
// # Loading
//
// Loader reads .rego files (one policy per file, named after the file) and
// .json policy documents from files or directory trees. A "# severity: error"
// comment in a .rego header sets the policy's default severity. Loader.Watch
// reloads the set on change with a 500ms debounce, and Engine.ReplaceCustom
// swaps it in atomically.
package policy
