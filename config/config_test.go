package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	assert.Equal(t, Default(), Load(""))
}

func TestLoadMalformedFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, "model = [not toml")
	assert.Equal(t, Default(), Load(path))
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
model = "large"
language = "de"
device = "USB Microphone"
notifications = false
`)
	cfg := Load(path)
	assert.Equal(t, "large", cfg.Model)
	assert.Equal(t, "de", cfg.Language)
	assert.Equal(t, "USB Microphone", cfg.Device)
	assert.False(t, cfg.Notifications)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `language = "fr"`)
	cfg := Load(path)
	assert.Equal(t, "fr", cfg.Language)
	assert.Equal(t, "small", cfg.Model)
}

func TestLoadRejectsUnknownTier(t *testing.T) {
	path := writeConfig(t, `model = "enormous"`)
	cfg := Load(path)
	assert.Equal(t, "small", cfg.Model)
}

func TestWhisperModel(t *testing.T) {
	for tier, want := range map[string]string{
		"tiny":   "whisper-large-v3-turbo",
		"base":   "whisper-large-v3-turbo",
		"small":  "whisper-large-v3-turbo",
		"medium": "whisper-large-v3",
		"large":  "whisper-large-v3",
	} {
		cfg := Config{Model: tier}
		assert.Equal(t, want, cfg.WhisperModel(), "tier %s", tier)
	}
}

func TestValidTier(t *testing.T) {
	assert.True(t, ValidTier("small"))
	assert.False(t, ValidTier("enormous"))
	assert.False(t, ValidTier(""))
}
