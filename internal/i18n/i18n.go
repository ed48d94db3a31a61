// Package i18n resolves the handful of UI strings the adapter injects into
// outbound templates. Catalogs are flat YAML maps of source string to
// translation; a missing entry falls back to the source string.
package i18n

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is a loaded translation table.
type Catalog struct {
	entries map[string]string
}

// New returns an empty catalog that echoes every key back.
func New() *Catalog {
	return &Catalog{entries: map[string]string{}}
}

// Load reads a YAML catalog from path. An empty path yields the identity
// catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read i18n catalog: %w", err)
	}
	entries := map[string]string{}
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse i18n catalog %s: %w", path, err)
	}
	return &Catalog{entries: entries}, nil
}

// T translates a source string, returning it unchanged when no translation
// exists.
func (c *Catalog) T(key string) string {
	if v, ok := c.entries[key]; ok && v != "" {
		return v
	}
	return key
}
