package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", cfg.Server.BaseURL)
	assert.Equal(t, 30, cfg.Server.TimeoutSec)
	assert.NotEmpty(t, cfg.ContactsDB)
	assert.NotEmpty(t, cfg.LogFile)
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  base_url: https://mail.example.com/api
  timeout_sec: 10
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://mail.example.com/api", cfg.Server.BaseURL)
	assert.Equal(t, 10, cfg.Server.TimeoutSec)
}

func TestLoadConfigRejectsNonPositiveTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  timeout_sec: -5\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Server.TimeoutSec)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	in := &AppConfig{
		Server:     ServerConfig{BaseURL: "https://m.example.com/api", TimeoutSec: 15},
		Display:    DisplayConfig{Theme: "default"},
		ContactsDB: "/tmp/contacts.db",
		LogFile:    "/tmp/mmail.log",
	}
	require.NoError(t, SaveConfig(path, in))

	out, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, in.Server.BaseURL, out.Server.BaseURL)
	assert.Equal(t, in.Server.TimeoutSec, out.Server.TimeoutSec)
	assert.Equal(t, in.ContactsDB, out.ContactsDB)
}
