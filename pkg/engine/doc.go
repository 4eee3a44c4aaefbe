// Package engine provides the core types shared by the catalog compiler, the
// policy engine and the config file enforcer.
//
// # Overview
//
// A compilation turns caller parameters into a Catalog: the assertions a
// declarative enforcement engine applies to converge one host component.
// The workflow has four phases:
//
//  1. Parameters - Load and validate caller parameters (package config)
//  2. Platform - Resolve the OS family to package and service names (package platform)
//  3. Compile - Build the Catalog (package octavia)
//  4. Enforce - Check the Catalog against policy and write the config file
//     (packages policy and inifile)
//
// # Core Domain Types
//
//   - Catalog: The package, service and config entries for one component
//   - PackageAssertion: A package name with its ensure value and tags
//   - ServiceAssertion: A service name with its run state and capabilities
//   - ConfigEntry: One section/key of the component's INI file
//   - Value: A literal string, a boolean or the ServiceDefault sentinel
//   - Change: One add, modify or remove the enforcer would make
//
// # Service Defaults
//
// An entry whose Value is the ServiceDefault sentinel means "do not set this
// key". The enforcer removes such keys from the file so the service uses its
// compiled-in default. The zero Value is the sentinel, so an entry built from
// an unset parameter never writes a literal by accident.
//
//	entry := engine.ConfigEntry{Section: "DEFAULT", Key: "debug"}
//	entry.Value.IsServiceDefault() // true
//	entry.Value.String()           // "<SERVICE DEFAULT>"
//
// Values marshal to JSON and YAML as scalars: booleans stay booleans and
// everything else, the sentinel included, is a string. A ServiceAssertion
// with no run state marshals its ensure field as null.
//
// # Error Handling
//
// Errors are classified so callers can react without parsing messages:
//
//   - ErrorClassValidation: The parameters cannot produce a catalog
//   - ErrorClassPlatform: The OS family has no platform profile
//   - ErrorClassPolicy: A policy rejected the catalog
//   - ErrorClassIO: A parameter source or config file could not be read or written
//
// Every EngineError carries a Code. ErrorCode extracts it from any error
// chain and reports ErrCodeInternal for errors the engine did not classify.
//
//	if err != nil {
//	    switch engine.ErrorCode(err) {
//	    case engine.ErrCodeMissingRequiredOption:
//	        // ask the operator for the option
//	    case engine.ErrCodeUnrecognizedPlatform:
//	        // unsupported host
//	    }
//	}
//
// # Immutability
//
// A Catalog is built fresh for each compilation and never mutated afterwards.
// Compiling the same parameters twice yields equal catalogs.
package engine
