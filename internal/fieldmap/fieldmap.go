// Package fieldmap loads the raw-column to display-label mapping that drives
// measurand selection. Columns absent from the map are dropped during
// collation, so the map doubles as the inclusion filter.
package fieldmap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Map associates raw log column names with human-readable output labels.
// Immutable once loaded.
type Map map[string]string

// ConfigError indicates a missing or malformed field-map resource.
// It is fatal: the run aborts before any network activity.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("field map %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load reads a field map from a YAML (or JSON) file.
// The document must be a flat mapping of string keys to string values.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("not a string-to-string mapping: %w", err)}
	}
	if len(m) == 0 {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("mapping is empty")}
	}

	return m, nil
}

// Label returns the output label for a raw column and whether the column is
// part of the map.
func (m Map) Label(column string) (string, bool) {
	label, ok := m[column]
	return label, ok
}
