// Package config handles configuration loading for driftmail.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from DRIFTMAIL_CONFIG environment variable
//  2. ./driftmail.yaml (current directory)
//  3. ~/.config/driftmail/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	accounts:
//	  dir: "${DRIFTMAIL_ACCOUNTS_DIR}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	housekeeping:
//	  interval: "24h"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Accounts:
//
//	accounts:
//	  dir: "/var/lib/driftmail/accounts"
//	  os_name: "driftmail"
//
// Housekeeping:
//
//	housekeeping:
//	  interval: "24h"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load("/etc/driftmail/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
