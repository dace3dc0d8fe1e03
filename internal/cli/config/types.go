// Package config provides configuration management for the catalogsql CLI.
//
// Settings are layered, lowest precedence first: built-in defaults, the
// workspace.yml at the workspace root (or an explicit --config file),
// CATALOGSQL_* environment variables, and explicitly set command line flags.
package config

import "github.com/leapstack-labs/catalogsql/pkg/workspace"

// Config holds all CLI configuration options.
type Config struct {
	Root           string   `koanf:"root"`
	DefaultCatalog string   `koanf:"default_catalog"`
	DefaultSchema  string   `koanf:"default_schema"`
	RemoteSchemes  []string `koanf:"remote_schemes"`
	StatePath      string   `koanf:"state_path"`
	OutputFormat   string   `koanf:"output"`
	Verbose        bool     `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultStateFile = ".catalogsql/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultCatalog   = workspace.DefaultCatalog
	DefaultSchema    = workspace.DefaultSchema
)

// Default returns the configuration used when nothing was loaded.
func Default() *Config {
	return &Config{
		DefaultCatalog: DefaultCatalog,
		DefaultSchema:  DefaultSchema,
		RemoteSchemes:  append([]string(nil), workspace.DefaultRemoteSchemes...),
		StatePath:      DefaultStateFile,
		OutputFormat:   DefaultOutput,
	}
}
