// Package config provides configuration loading and validation for portalpass.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config file names looked up in the user config directory, in order.
var configFileNames = []string{"config.yaml", "config.toml"}

// Environment variables that override file settings.
const (
	EnvTarget      = "PORTALPASS_TARGET"
	EnvIdentity    = "PORTALPASS_IDENTITY"
	EnvLoginURL    = "PORTALPASS_LOGIN_URL"
	EnvLogoutURL   = "PORTALPASS_LOGOUT_URL"
	EnvProbeURL    = "PORTALPASS_PROBE_URL"
	EnvLogLevel    = "PORTALPASS_LOG_LEVEL"
	EnvCredentials = "PORTALPASS_CREDENTIALS_DIR"
)

// Config represents the portalpass configuration.
type Config struct {
	Portal       PortalSettings       `yaml:"portal" toml:"portal"`
	Network      NetworkSettings      `yaml:"network" toml:"network"`
	Reachability ReachabilitySettings `yaml:"reachability" toml:"reachability"`
	Credentials  CredentialSettings   `yaml:"credentials" toml:"credentials"`
	Logging      LoggingSettings      `yaml:"logging" toml:"logging"`
}

// PortalSettings describes the gateway endpoints.
type PortalSettings struct {
	LoginURL  string `yaml:"login_url" toml:"login_url"`
	LogoutURL string `yaml:"logout_url" toml:"logout_url"`
	Domain    string `yaml:"domain" toml:"domain"`
	Timeout   string `yaml:"timeout" toml:"timeout"`
}

// NetworkSettings describes the target network and how its identity is read.
type NetworkSettings struct {
	Target string `yaml:"target" toml:"target"`
	// IdentityCommand prints the SSID of the associated network on stdout.
	IdentityCommand []string `yaml:"identity_command" toml:"identity_command"`
	// Identity pins the network identity instead of running IdentityCommand.
	Identity     string `yaml:"identity,omitempty" toml:"identity,omitempty"`
	PollInterval string `yaml:"poll_interval" toml:"poll_interval"`
	// SettleDelay is how long the network must stay unchanged before the
	// watch daemon re-evaluates it.
	SettleDelay string `yaml:"settle_delay" toml:"settle_delay"`
}

// ReachabilitySettings describes the external connectivity probe.
type ReachabilitySettings struct {
	URL     string `yaml:"url" toml:"url"`
	Method  string `yaml:"method" toml:"method"`
	Timeout string `yaml:"timeout" toml:"timeout"`
}

// CredentialSettings selects the credential store backend.
type CredentialSettings struct {
	Backend string `yaml:"backend" toml:"backend"`
	// Dir overrides the directory of the encrypted credential file.
	Dir string `yaml:"dir,omitempty" toml:"dir,omitempty"`
}

// LoggingSettings contains logging configuration.
type LoggingSettings struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	// RedactKeys lists extra field names whose values are never logged,
	// e.g. "username" to keep student IDs out of the logs.
	RedactKeys []string `yaml:"redact_keys,omitempty" toml:"redact_keys,omitempty"`
}

// Default returns the built-in configuration for the NJU campus portal.
func Default() *Config {
	return &Config{
		Portal: PortalSettings{
			LoginURL:  "http://p2.nju.edu.cn/api/portal/v1/login",
			LogoutURL: "http://p2.nju.edu.cn/portal_io/logout",
			Domain:    "default",
			Timeout:   "15s",
		},
		Network: NetworkSettings{
			Target:          "NJU-WLAN",
			IdentityCommand: []string{"iwgetid", "-r"},
			PollInterval:    "5s",
			SettleDelay:     "1s",
		},
		Reachability: ReachabilitySettings{
			URL:     "https://www.gitee.com",
			Method:  "GET",
			Timeout: "1500ms",
		},
		Credentials: CredentialSettings{
			Backend: BackendFile,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "human",
		},
	}
}

// Load loads configuration from file, environment variables, and applies defaults.
// Precedence order (highest to lowest):
// 1. Environment variables
// 2. Config file
// 3. Defaults
//
// If path is empty the file is looked up in the user config directory and may
// be absent. An explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		dir, err := UserConfigDir()
		if err != nil {
			return nil, err
		}
		for _, name := range configFileNames {
			err := cfg.loadFromFile(filepath.Join(dir, name))
			if err == nil {
				break
			}
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	cfg.loadFromEnv()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the file onto the current values. Files ending in
// .toml are parsed as TOML, everything else as YAML. Keys absent from the
// file keep their current value.
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - path is user config or --config flag
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		return nil
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv(EnvTarget); v != "" {
		c.Network.Target = v
	}
	if v := os.Getenv(EnvIdentity); v != "" {
		c.Network.Identity = v
	}
	if v := os.Getenv(EnvLoginURL); v != "" {
		c.Portal.LoginURL = v
	}
	if v := os.Getenv(EnvLogoutURL); v != "" {
		c.Portal.LogoutURL = v
	}
	if v := os.Getenv(EnvProbeURL); v != "" {
		c.Reachability.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvCredentials); v != "" {
		c.Credentials.Dir = v
	}
}

// ApplyFlags applies command-line flag values to the configuration.
// This should be called after Load() to apply the highest priority values.
func (c *Config) ApplyFlags(target string) {
	if target != "" {
		c.Network.Target = target
	}
}

// PortalTimeout returns the HTTP timeout for portal requests.
func (c *Config) PortalTimeout() (time.Duration, error) {
	return parsePositiveDuration("portal.timeout", c.Portal.Timeout)
}

// ProbeTimeout returns the reachability probe timeout.
func (c *Config) ProbeTimeout() (time.Duration, error) {
	return parsePositiveDuration("reachability.timeout", c.Reachability.Timeout)
}

// PollInterval returns the network watcher poll interval.
func (c *Config) PollInterval() (time.Duration, error) {
	return parsePositiveDuration("network.poll_interval", c.Network.PollInterval)
}

func parsePositiveDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}

// SettleDelay returns the quiet period before a network change is acted on.
// Zero disables debouncing.
func (c *Config) SettleDelay() (time.Duration, error) {
	if c.Network.SettleDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Network.SettleDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid network.settle_delay %q: %w", c.Network.SettleDelay, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("network.settle_delay must not be negative, got %s", d)
	}
	return d, nil
}
