package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error for missing file: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.toml")
	contents := `
[window]
width = 1920
height = 1080
vsync = true

[multisample]
samples = 4
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 || !cfg.Window.Vsync {
		t.Fatalf("window config not overridden: %+v", cfg.Window)
	}
	if cfg.Multisample.Samples != 4 {
		t.Fatalf("multisample config not overridden: %+v", cfg.Multisample)
	}
	if cfg.Device.EnableValidation != Default().Device.EnableValidation {
		t.Fatalf("expected unspecified device config to keep default, got %+v", cfg.Device)
	}
}
