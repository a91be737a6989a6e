package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "127.0.0.1:8420", cfg.API.ListenAddr)
	assert.Equal(t, "auto", cfg.Assess.SudoMode)
	assert.Equal(t, "20s", cfg.Assess.CommandTimeout)
	assert.Equal(t, "_workstation._tcp", cfg.Discovery.AvahiServiceType)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Contains(t, cfg.General.DataDir, ".hic")
}

func TestLoadFromFile(t *testing.T) {
	content := `
[general]
data_dir = "/tmp/hic-test"

[api]
listen_addr = "0.0.0.0:9000"
enable_cors = true
api_key = "secret"

[assess]
sudo_mode = "require"
prompt_sudo = true
command_timeout = "45s"

[discovery]
avahi_service_type = "_ssh._tcp"
browse_timeout = "10s"
ssh_timeout = "3s"

[logging]
level = "debug"
format = "json"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/hic-test", cfg.General.DataDir)
	assert.Equal(t, "0.0.0.0:9000", cfg.API.ListenAddr)
	assert.True(t, cfg.API.EnableCORS)
	assert.Equal(t, "secret", cfg.API.APIKey)
	assert.Equal(t, "require", cfg.Assess.SudoMode)
	assert.True(t, cfg.Assess.PromptSudo)
	assert.Equal(t, 45*time.Second, cfg.Assess.CommandTimeoutD)
	assert.Equal(t, "_ssh._tcp", cfg.Discovery.AvahiServiceType)
	assert.Equal(t, 10*time.Second, cfg.Discovery.BrowseTimeoutD)
	assert.Equal(t, 3*time.Second, cfg.Discovery.SSHTimeoutD)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFilePartial(t *testing.T) {
	content := `
[api]
listen_addr = "127.0.0.1:9999"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	// Unspecified sections keep their defaults.
	assert.Equal(t, "127.0.0.1:9999", cfg.API.ListenAddr)
	assert.Equal(t, "auto", cfg.Assess.SudoMode)
	assert.Equal(t, 20*time.Second, cfg.Assess.CommandTimeoutD)
}

func TestLoadFromFileBadDuration(t *testing.T) {
	content := `
[assess]
command_timeout = "not-a-duration"
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command_timeout")
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadDefaultsWhenNoPathGiven(t *testing.T) {
	// Point HOME at an empty directory so no real config is picked up.
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Assess.SudoMode)
	assert.Equal(t, 20*time.Second, cfg.Assess.CommandTimeoutD)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data"), got)

	got, err = expandPath("/absolute/path")
	require.NoError(t, err)
	assert.Equal(t, "/absolute/path", got)
}
