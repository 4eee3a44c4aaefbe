// Package config loads and validates the parameters of the octavia
// health-manager component.
//
// # Overview
//
// Parameters arrive as a flat mapping of option names to values. They may be
// written as YAML, JSON, CUE or a Starlark script, and several sources may be
// merged, later sources winning key by key. Validate turns the merged raw
// mapping into typed Parameters, applying defaults and rejecting unknown
// names, missing required options and values of the wrong type.
//
// # Components
//
// Loader: Dispatches a source file to the matching decoder by extension and
// merges multiple sources.
//
// CUEParser: Evaluates a CUE file or package. Every concrete top-level field
// is a parameter; definitions and hidden fields can constrain them.
//
// StarlarkEvaluator: Runs a Starlark script with a timeout. Public globals
// left after execution become parameters; functions and names starting with
// an underscore are skipped.
//
// Watcher: Reloads sources on change with a short debounce.
//
// # Usage Example
//
//	loader := config.NewLoader(logger)
//	raw, err := loader.LoadFiles(ctx, []string{"base.yaml", "site.cue"})
//	if err != nil {
//	    return err
//	}
//
//	params, err := config.Validate(raw)
//	if err != nil {
//	    return err
//	}
//
// # CUE Sources
//
//	heartbeat_key: "insecure"
//	debug:         false
//	port:          5555 & >0 & <65536
//	default_log_levels: {
//	    amqp: "WARN"
//	}
//
// # Starlark Sources
//
//	_base = "/var/log/octavia"
//	heartbeat_key = "insecure"
//	log_dir = _base
//	log_file = _base + "/health-manager.log"
//	debug = os_family == "Debian"
//
// # Optional Values
//
// Options without a default are held in Option values. An unset Option is
// distinct from a set Option holding a zero value; downstream, unset options
// are rendered as the service-default sentinel. An explicit null in a source
// counts as unset.
package config
