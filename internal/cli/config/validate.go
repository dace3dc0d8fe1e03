package config

import (
	"fmt"
	"strings"
)

// OutputFormats lists the accepted values of the output setting.
var OutputFormats = []string{"auto", "text", "markdown", "json", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DefaultCatalog == "" {
		return fmt.Errorf("default_catalog must not be empty")
	}
	if c.DefaultSchema == "" {
		return fmt.Errorf("default_schema must not be empty")
	}
	if strings.Contains(c.DefaultCatalog, ".") || strings.Contains(c.DefaultSchema, ".") {
		return fmt.Errorf("default_catalog and default_schema must be single identifiers, got %q and %q",
			c.DefaultCatalog, c.DefaultSchema)
	}

	if c.OutputFormat == "" {
		return nil
	}
	for _, f := range OutputFormats {
		if strings.EqualFold(c.OutputFormat, f) {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %q (available: %s)", c.OutputFormat, strings.Join(OutputFormats, ", "))
}
