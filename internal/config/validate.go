package config

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// Credential store backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
)

// maxProbeTimeout bounds the reachability probe; a slow probe would delay
// automatic authentication.
const maxProbeTimeout = 10 * time.Second

// Validate performs comprehensive validation on the configuration.
func Validate(cfg *Config) error {
	if err := validatePortal(cfg); err != nil {
		return fmt.Errorf("portal validation failed: %w", err)
	}

	if err := validateNetwork(cfg); err != nil {
		return fmt.Errorf("network validation failed: %w", err)
	}

	if err := validateReachability(cfg); err != nil {
		return fmt.Errorf("reachability validation failed: %w", err)
	}

	if err := validateCredentials(cfg); err != nil {
		return fmt.Errorf("credentials validation failed: %w", err)
	}

	if err := validateLogging(cfg); err != nil {
		return fmt.Errorf("logging validation failed: %w", err)
	}

	return nil
}

func validatePortal(cfg *Config) error {
	if err := validateURL("login_url", cfg.Portal.LoginURL); err != nil {
		return err
	}

	if err := validateURL("logout_url", cfg.Portal.LogoutURL); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Portal.Domain) == "" {
		return fmt.Errorf("domain is required")
	}

	if _, err := cfg.PortalTimeout(); err != nil {
		return err
	}

	return nil
}

func validateNetwork(cfg *Config) error {
	if cfg.Network.Target == "" {
		return fmt.Errorf("target is required")
	}

	if cfg.Network.Identity == "" && len(cfg.Network.IdentityCommand) == 0 {
		return fmt.Errorf("identity_command is required unless identity is pinned")
	}

	if _, err := cfg.PollInterval(); err != nil {
		return err
	}
	if _, err := cfg.SettleDelay(); err != nil {
		return err
	}

	return nil
}

func validateReachability(cfg *Config) error {
	if err := validateURL("url", cfg.Reachability.URL); err != nil {
		return err
	}

	method := strings.ToUpper(cfg.Reachability.Method)
	if method != http.MethodHead && method != http.MethodGet {
		return fmt.Errorf("method must be HEAD or GET")
	}

	timeout, err := cfg.ProbeTimeout()
	if err != nil {
		return err
	}

	if timeout > maxProbeTimeout {
		return fmt.Errorf("timeout must not exceed %v", maxProbeTimeout)
	}

	return nil
}

func validateCredentials(cfg *Config) error {
	validBackends := []string{BackendFile, BackendMemory}
	if !slices.Contains(validBackends, cfg.Credentials.Backend) {
		return fmt.Errorf("backend must be one of: %s", strings.Join(validBackends, ", "))
	}
	return nil
}

func validateLogging(cfg *Config) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, cfg.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %s", strings.Join(validLevels, ", "))
	}

	validFormats := []string{"json", "human"}
	if !slices.Contains(validFormats, cfg.Logging.Format) {
		return fmt.Errorf("logging.format must be one of: %s", strings.Join(validFormats, ", "))
	}

	for i, key := range cfg.Logging.RedactKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("logging.redact_keys[%d] is empty", i)
		}
	}

	return nil
}

func validateURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", name)
	}

	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}

	return nil
}
