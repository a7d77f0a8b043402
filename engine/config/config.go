package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/felipeagc/rgrender/engine/core"
)

// Config is the engine-wide configuration loaded from an engine.toml at
// startup, replacing the original's window/device setup constants with a
// file the host application can edit without recompiling.
//
// Supplements the window/device setup original_source/renderer/engine.c
// hardcodes at window and device creation (800x600, vsync disabled,
// validation layers enabled).
type Config struct {
	Window      WindowConfig      `toml:"window"`
	Device      DeviceConfig      `toml:"device"`
	Assets      AssetsConfig      `toml:"assets"`
	Multisample MultisampleConfig `toml:"multisample"`
}

type WindowConfig struct {
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	Title  string `toml:"title"`
	Vsync  bool   `toml:"vsync"`
}

type DeviceConfig struct {
	EnableValidation bool `toml:"enable_validation"`
}

type AssetsConfig struct {
	Directory string `toml:"directory"`
}

type MultisampleConfig struct {
	Samples uint32 `toml:"samples"`
}

// Default returns the configuration used when no engine.toml is present,
// matching the original's hardcoded window/device setup.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Width:  800,
			Height: 600,
			Title:  "Vulkan renderer",
			Vsync:  false,
		},
		Device: DeviceConfig{
			EnableValidation: true,
		},
		Assets: AssetsConfig{
			Directory: "assets",
		},
		Multisample: MultisampleConfig{
			Samples: 1,
		},
	}
}

// Load reads and parses an engine.toml at path. A missing file is not an
// error: Default() is returned so a fresh checkout still runs.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			core.LogWarn("no engine config found at %s, using defaults", path)
			return cfg, nil
		}
		return cfg, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
