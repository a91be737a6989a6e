package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	General   GeneralConfig   `toml:"general"`
	API       APIConfig       `toml:"api"`
	Assess    AssessConfig    `toml:"assess"`
	Discovery DiscoveryConfig `toml:"discovery"`
	Logging   LoggingConfig   `toml:"logging"`
}

type GeneralConfig struct {
	DataDir  string `toml:"data_dir"`
	Hostname string `toml:"hostname"`
}

type APIConfig struct {
	ListenAddr string `toml:"listen_addr"`
	EnableCORS bool   `toml:"enable_cors"`
	APIKey     string `toml:"api_key"`
}

type AssessConfig struct {
	// SudoMode selects privilege negotiation: "auto", "skip", "require".
	SudoMode string `toml:"sudo_mode"`
	// PromptSudo allows an interactive password prompt when passwordless
	// sudo is unavailable.
	PromptSudo bool `toml:"prompt_sudo"`
	// CommandTimeout caps any single diagnostic command.
	CommandTimeout  string        `toml:"command_timeout"`
	CommandTimeoutD time.Duration `toml:"-"`
}

type DiscoveryConfig struct {
	// AvahiServiceType is the mDNS service type browsed for hosts.
	AvahiServiceType string `toml:"avahi_service_type"`
	// SSHConfigPaths lists SSH client config files scanned for host
	// entries. Empty means ~/.ssh/config.
	SSHConfigPaths []string      `toml:"ssh_config_paths"`
	BrowseTimeout  string        `toml:"browse_timeout"`
	BrowseTimeoutD time.Duration `toml:"-"`
	// SSHTimeout bounds the batch-mode SSH reachability probe.
	SSHTimeout  string        `toml:"ssh_timeout"`
	SSHTimeoutD time.Duration `toml:"-"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".hic")

	return &Config{
		General: GeneralConfig{
			DataDir:  dataDir,
			Hostname: "",
		},
		API: APIConfig{
			ListenAddr: "127.0.0.1:8420",
			EnableCORS: false,
			APIKey:     "",
		},
		Assess: AssessConfig{
			SudoMode:       "auto",
			PromptSudo:     false,
			CommandTimeout: "20s",
		},
		Discovery: DiscoveryConfig{
			AvahiServiceType: "_workstation._tcp",
			SSHConfigPaths:   nil,
			BrowseTimeout:    "5s",
			SSHTimeout:       "5s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config at path, or the default location when path is
// empty. A missing default file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Default().withDurations()
		}
		path = filepath.Join(homeDir, ".hic", "config.toml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return Default().withDurations()
		}
	}
	return LoadFromFile(path)
}

func LoadFromFile(path string) (*Config, error) {
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expand path: %w", err)
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("decode TOML: %w", err)
	}

	return cfg.withDurations()
}

func (c *Config) withDurations() (*Config, error) {
	var err error

	if c.Assess.CommandTimeoutD, err = time.ParseDuration(c.Assess.CommandTimeout); err != nil {
		return nil, fmt.Errorf("parse assess.command_timeout: %w", err)
	}

	if c.Discovery.BrowseTimeoutD, err = time.ParseDuration(c.Discovery.BrowseTimeout); err != nil {
		return nil, fmt.Errorf("parse discovery.browse_timeout: %w", err)
	}

	if c.Discovery.SSHTimeoutD, err = time.ParseDuration(c.Discovery.SSHTimeout); err != nil {
		return nil, fmt.Errorf("parse discovery.ssh_timeout: %w", err)
	}

	if c.General.DataDir, err = expandPath(c.General.DataDir); err != nil {
		return nil, fmt.Errorf("expand general.data_dir: %w", err)
	}

	return c, nil
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return homeDir, nil
		}
		return filepath.Join(homeDir, path[2:]), nil
	}
	return path, nil
}
