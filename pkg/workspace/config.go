package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default catalog and schema for names that carry no qualification and are
// parsed outside any catalog scope.
const (
	DefaultCatalog = "sdf"
	DefaultSchema  = "public"
)

// Config is the content of workspace.yml.
type Config struct {
	Name           string   `koanf:"name"`
	DefaultCatalog string   `koanf:"default_catalog"`
	DefaultSchema  string   `koanf:"default_schema"`
	RemoteSchemes  []string `koanf:"remote_schemes"`
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.DefaultCatalog == "" {
		c.DefaultCatalog = DefaultCatalog
	}
	if c.DefaultSchema == "" {
		c.DefaultSchema = DefaultSchema
	}
	if len(c.RemoteSchemes) == 0 {
		c.RemoteSchemes = append([]string(nil), DefaultRemoteSchemes...)
	}
}

// Load reads workspace.yml from root. An empty workspace.yml, which only marks
// the root, yields the defaults. Returns an error if the file is missing.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, WorkspaceFile)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("workspace config: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}
