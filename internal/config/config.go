// Package config resolves server configuration from an optional TOML
// file layered under environment variables. Environment always wins,
// so a bare `ZENDESK_SUBDOMAIN=... zendesk-mcp serve` works with no
// file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	ModeStdio = "stdio"
	ModeHTTP  = "http"

	defaultHost = "0.0.0.0"
	defaultPort = 8000
)

type Config struct {
	Zendesk ZendeskConfig `toml:"zendesk"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
}

type ZendeskConfig struct {
	Subdomain string `toml:"subdomain"`
	Email     string `toml:"email"`
	APIKey    string `toml:"api_key"`
}

type ServerConfig struct {
	Mode string `toml:"mode"`
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// Load resolves configuration in three layers: defaults, then the TOML
// file at path (or the default location when path is empty), then
// environment variables. A missing default-location file is fine; a
// missing explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server:  ServerConfig{Mode: ModeStdio, Host: defaultHost, Port: defaultPort},
		Logging: LoggingConfig{Level: "info"},
	}

	explicit := path != ""
	if !explicit {
		path = defaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if _, err := toml.Decode(expandEnvVars(string(data)), cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case explicit || !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultPath returns ~/.config/zendesk-mcp/config.toml, honoring the
// ZENDESK_MCP_CONFIG override.
func defaultPath() string {
	if p := os.Getenv("ZENDESK_MCP_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "zendesk-mcp", "config.toml")
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ZENDESK_SUBDOMAIN"); v != "" {
		cfg.Zendesk.Subdomain = v
	}
	if v := os.Getenv("ZENDESK_EMAIL"); v != "" {
		cfg.Zendesk.Email = v
	}
	if v := os.Getenv("ZENDESK_API_KEY"); v != "" {
		cfg.Zendesk.APIKey = v
	}
	if v := os.Getenv("MCP_MODE"); v != "" {
		cfg.Server.Mode = v
	}
	if v := os.Getenv("MCP_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("MCP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ZENDESK_MCP_LOG"); v != "" {
		cfg.Logging.Level = v
	}
}

// expandEnvVars replaces ${VAR} with environment variable values, so
// config files can reference secrets without embedding them.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}

// Validate checks that required fields are present and valid.
func (c *Config) Validate() error {
	if c.Zendesk.Subdomain == "" {
		return fmt.Errorf("zendesk.subdomain is required (set ZENDESK_SUBDOMAIN)")
	}
	if strings.ContainsAny(c.Zendesk.Subdomain, "./:") {
		return fmt.Errorf("zendesk.subdomain must be the bare subdomain, not a URL")
	}
	if c.Zendesk.Email == "" {
		return fmt.Errorf("zendesk.email is required (set ZENDESK_EMAIL)")
	}
	if !strings.Contains(c.Zendesk.Email, "@") {
		return fmt.Errorf("zendesk.email is not a valid address: %q", c.Zendesk.Email)
	}
	if c.Zendesk.APIKey == "" {
		return fmt.Errorf("zendesk.api_key is required (set ZENDESK_API_KEY)")
	}
	if c.Server.Mode != ModeStdio && c.Server.Mode != ModeHTTP {
		return fmt.Errorf("server.mode must be %q or %q, got %q", ModeStdio, ModeHTTP, c.Server.Mode)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}
