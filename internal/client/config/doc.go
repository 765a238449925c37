// Package config loads runtime configuration for the totpgate CLI.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with -c or -config, or via TOTPGATE_CLIENT_CONFIG.
//  3. Command-line flags -a (server address) and -t (request timeout, seconds).
//
// Durations in the file are either strings like "5s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "5s"
//	}
package config
