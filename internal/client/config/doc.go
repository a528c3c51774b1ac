// Package config loads runtime configuration for the journal CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via flags: -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-r string   comma-separated relay URLs
//	-d string   path to the sqlite database file
//	-p string   base URL of the Lightning payment API
//	-k string   payment API key
//
// The JSON loader uses timex.Duration for the timeout fields, so values can
// be either strings like "90s" or integer nanoseconds:
//
//	{
//	  "relays": ["wss://relay.damus.io"],
//	  "database_path": "journal.db",
//	  "payment_api_addr": "http://127.0.0.1:5000",
//	  "payment_api_key": "...",
//	  "handshake_timeout": "2m",
//	  "payment_poll_window": "3m",
//	  "sync_debounce": "3s"
//	}
//
// This package does not read environment variables; use the JSON file or
// flags to configure values.
package config
