package fieldmap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeMap(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fields.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write field map: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("yaml mapping", func(t *testing.T) {
		path := writeMap(t, "temp_C: Temperature\nrel_humidity: Relative Humidity\n")
		m, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(m) != 2 {
			t.Errorf("Expected 2 entries, got %d", len(m))
		}
		if label, ok := m.Label("temp_C"); !ok || label != "Temperature" {
			t.Errorf("Expected temp_C -> Temperature, got %q (ok=%v)", label, ok)
		}
	})

	t.Run("legacy json mapping", func(t *testing.T) {
		// The historical field files are JSON; YAML parses them unchanged.
		path := writeMap(t, `{"temp_C": "Temperature", "co2_ppm": "CO2"}`)
		m, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if label, _ := m.Label("co2_ppm"); label != "CO2" {
			t.Errorf("Expected co2_ppm -> CO2, got %q", label)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("Expected *ConfigError, got %v", err)
		}
	})

	t.Run("not a mapping", func(t *testing.T) {
		path := writeMap(t, "- a\n- b\n")
		_, err := Load(path)
		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("Expected *ConfigError, got %v", err)
		}
	})

	t.Run("non-string values", func(t *testing.T) {
		path := writeMap(t, "temp_C:\n  nested: true\n")
		if _, err := Load(path); err == nil {
			t.Fatal("Expected error for nested values")
		}
	})

	t.Run("empty mapping", func(t *testing.T) {
		path := writeMap(t, "{}\n")
		if _, err := Load(path); err == nil {
			t.Fatal("Expected error for empty mapping")
		}
	})

	t.Run("unmapped column", func(t *testing.T) {
		path := writeMap(t, "temp_C: Temperature\n")
		m, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if _, ok := m.Label("pressure_hPa"); ok {
			t.Error("Expected unmapped column to report ok=false")
		}
	})
}
