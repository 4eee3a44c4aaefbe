// Package octavia compiles the octavia health-manager component into a
// catalog of package, service and config file assertions.
//
// Compile is the entry point. It validates raw parameters, resolves the
// distribution names for an OS family, and emits the catalog:
//
//	catalog, err := octavia.Compile(ctx, config.RawParameters{
//	    "heartbeat_key": "s3cr3t-key",
//	    "debug":         true,
//	}, platform.Debian)
//
// Every recognized config option produces exactly one entry. Options the
// caller did not supply carry the engine.ServiceDefault sentinel so the
// enforcement engine removes the key and the service falls back to its
// compiled-in default. log_dir and log_file are the exception: they default
// to /var/log/octavia and /var/log/octavia/octavia.log.
//
// Compile performs no I/O and keeps no state. Equal inputs produce
// byte-identical catalogs.
package octavia
