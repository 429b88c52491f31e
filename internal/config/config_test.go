package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv blanks every variable Load consults so tests control the
// full environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ZENDESK_SUBDOMAIN", "ZENDESK_EMAIL", "ZENDESK_API_KEY",
		"MCP_MODE", "MCP_HOST", "MCP_PORT",
		"ZENDESK_MCP_CONFIG", "ZENDESK_MCP_LOG",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromEnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("ZENDESK_SUBDOMAIN", "acme")
	t.Setenv("ZENDESK_EMAIL", "agent@acme.com")
	t.Setenv("ZENDESK_API_KEY", "secret")
	// Point the default path into an empty dir so a real user config
	// cannot leak into the test.
	t.Setenv("ZENDESK_MCP_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Zendesk.Subdomain != "acme" {
		t.Fatalf("subdomain = %q", cfg.Zendesk.Subdomain)
	}
	if cfg.Server.Mode != ModeStdio || cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8000 {
		t.Fatalf("server defaults = %+v", cfg.Server)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[zendesk]
subdomain = "acme"
email = "agent@acme.com"
api_key = "secret"

[server]
mode = "http"
host = "127.0.0.1"
port = 9100

[logging]
level = "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Mode != ModeHTTP || cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9100 {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[zendesk]
subdomain = "acme"
email = "agent@acme.com"
api_key = "from-file"
`)
	t.Setenv("ZENDESK_API_KEY", "from-env")
	t.Setenv("MCP_MODE", "http")
	t.Setenv("MCP_PORT", "9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Zendesk.APIKey != "from-env" {
		t.Fatalf("api key = %q", cfg.Zendesk.APIKey)
	}
	if cfg.Server.Mode != ModeHTTP || cfg.Server.Port != 9000 {
		t.Fatalf("server = %+v", cfg.Server)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("ZD_TOKEN", "tok-123")
	path := writeConfig(t, `
[zendesk]
subdomain = "acme"
email = "agent@acme.com"
api_key = "${ZD_TOKEN}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Zendesk.APIKey != "tok-123" {
		t.Fatalf("api key = %q", cfg.Zendesk.APIKey)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Zendesk: ZendeskConfig{Subdomain: "acme", Email: "agent@acme.com", APIKey: "secret"},
			Server:  ServerConfig{Mode: ModeStdio, Host: "0.0.0.0", Port: 8000},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing subdomain", func(c *Config) { c.Zendesk.Subdomain = "" }, "subdomain is required"},
		{"subdomain is a URL", func(c *Config) { c.Zendesk.Subdomain = "acme.zendesk.com" }, "bare subdomain"},
		{"bad email", func(c *Config) { c.Zendesk.Email = "not-an-email" }, "not a valid address"},
		{"missing api key", func(c *Config) { c.Zendesk.APIKey = "" }, "api_key is required"},
		{"unknown mode", func(c *Config) { c.Server.Mode = "grpc" }, "server.mode"},
		{"port out of range", func(c *Config) { c.Server.Port = 0 }, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
