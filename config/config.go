// Package config loads user preferences from a small TOML document.
// A missing or malformed file falls back to defaults; startup never
// fails on preferences.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"murmur/log"
)

// Config holds the user preferences.
type Config struct {
	// Model is the recognition quality tier: tiny, base, small, medium
	// or large.
	Model string `toml:"model"`

	// Language is the ISO-639-1 transcription language code. Empty
	// means auto-detect.
	Language string `toml:"language"`

	// Device is the preferred capture device name. Empty means the
	// system default.
	Device string `toml:"device"`

	// Notifications toggles desktop notifications.
	Notifications bool `toml:"notifications"`
}

func Default() Config {
	return Config{
		Model:         "small",
		Language:      "en",
		Notifications: true,
	}
}

var tiers = map[string]bool{
	"tiny": true, "base": true, "small": true, "medium": true, "large": true,
}

// ValidTier reports whether name is a known model quality tier.
func ValidTier(name string) bool {
	return tiers[name]
}

// WhisperModel maps the quality tier onto the recognizer's model name.
func (c Config) WhisperModel() string {
	switch c.Model {
	case "medium", "large":
		return "whisper-large-v3"
	default:
		return "whisper-large-v3-turbo"
	}
}

// DefaultPath returns the OS-specific preferences file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "murmur", "config.toml"), nil
	}
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "murmur", "config.toml"), nil
}

// Load reads the preferences at path. Any problem — missing file, bad
// TOML, unknown tier — degrades to defaults for the affected keys.
func Load(path string) Config {
	cfg := Default()
	if path == "" {
		return cfg
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("preferences unreadable, using defaults: %v", err)
		}
		return Default()
	}
	if !ValidTier(cfg.Model) {
		log.Warnf("unknown model tier %q, using %q", cfg.Model, Default().Model)
		cfg.Model = Default().Model
	}
	return cfg
}
