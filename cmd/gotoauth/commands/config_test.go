package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/connectkit/gotoauth/internal/app"
)

func noEnv() []string { return nil }

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

// loadViaCommand runs loadConfig the way the root command does: through a
// cli.Command so set flags are visible and unset ones are skipped.
func loadViaCommand(t *testing.T, configPath string, environ func() []string, args ...string) *app.Config {
	t.Helper()

	var cfg *app.Config
	cmd := &cli.Command{
		Name: "gotoauth",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-format"},
			&cli.StringFlag{Name: "auth--client-id"},
			&cli.StringFlag{Name: "auth--client-secret"},
			&cli.StringFlag{Name: "auth--storage"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var err error
			cfg, err = loadConfig(configPath, c, environ)
			return err
		},
	}
	if err := cmd.Run(context.Background(), append([]string{"gotoauth"}, args...)); err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, `
log_format = "json"

[auth]
client_id = "file-id"
client_secret = "file-secret"
storage = "memory"
flow_timeout = "2m"
`)

	cfg, err := loadConfig(path, nil, noEnv)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Auth.ClientID != "file-id" {
		t.Errorf("client_id = %q, want file-id", cfg.Auth.ClientID)
	}
	if cfg.Auth.ClientSecret != "file-secret" {
		t.Errorf("client_secret = %q, want file-secret", cfg.Auth.ClientSecret)
	}
	if cfg.Auth.Storage != app.TokenStorageTypeMemory {
		t.Errorf("storage = %q, want memory", cfg.Auth.Storage)
	}
	if cfg.Auth.FlowTimeout != 2*time.Minute {
		t.Errorf("flow_timeout = %s, want 2m", cfg.Auth.FlowTimeout)
	}
	if cfg.LogFormat != app.LogFormatJSON {
		t.Errorf("log_format = %q, want json", cfg.LogFormat)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	environ := func() []string {
		return []string{
			"GOTOAUTH_AUTH__CLIENT_ID=env-id",
			"GOTOAUTH_AUTH__CLIENT_SECRET=env-secret",
			"GOTOAUTH_AUTH__STORAGE=memory",
			"GOTOAUTH_LOG_FORMAT=json",
			"PATH=/usr/bin", // unprefixed variables are ignored
		}
	}

	cfg, err := loadConfig("", nil, environ)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Auth.ClientID != "env-id" {
		t.Errorf("client_id = %q, want env-id", cfg.Auth.ClientID)
	}
	if cfg.Auth.ClientSecret != "env-secret" {
		t.Errorf("client_secret = %q, want env-secret", cfg.Auth.ClientSecret)
	}
	if cfg.Auth.Storage != app.TokenStorageTypeMemory {
		t.Errorf("storage = %q, want memory", cfg.Auth.Storage)
	}
	if cfg.LogFormat != app.LogFormatJSON {
		t.Errorf("log_format = %q, want json", cfg.LogFormat)
	}
}

func TestLoadConfigFromFlags(t *testing.T) {
	cfg := loadViaCommand(t, "", noEnv,
		"--auth--client-id", "flag-id",
		"--auth--client-secret", "flag-secret",
		"--auth--storage", "memory",
		"--log-format", "json",
	)

	if cfg.Auth.ClientID != "flag-id" {
		t.Errorf("client_id = %q, want flag-id", cfg.Auth.ClientID)
	}
	if cfg.Auth.ClientSecret != "flag-secret" {
		t.Errorf("client_secret = %q, want flag-secret", cfg.Auth.ClientSecret)
	}
	if cfg.Auth.Storage != app.TokenStorageTypeMemory {
		t.Errorf("storage = %q, want memory", cfg.Auth.Storage)
	}
	if cfg.LogFormat != app.LogFormatJSON {
		t.Errorf("log_format = %q, want json", cfg.LogFormat)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeConfigFile(t, `
[auth]
client_id = "file-id"
client_secret = "file-secret"
auth_url = "https://file.example.com/authorize"
storage = "memory"
`)

	environ := func() []string {
		return []string{
			"GOTOAUTH_AUTH__CLIENT_ID=env-id",
			"GOTOAUTH_AUTH__CLIENT_SECRET=env-secret",
		}
	}

	cfg := loadViaCommand(t, path, environ, "--auth--client-id", "flag-id")

	// Flags beat env, env beats file, file survives where nothing overrides
	if cfg.Auth.ClientID != "flag-id" {
		t.Errorf("client_id = %q, want flag-id", cfg.Auth.ClientID)
	}
	if cfg.Auth.ClientSecret != "env-secret" {
		t.Errorf("client_secret = %q, want env-secret", cfg.Auth.ClientSecret)
	}
	if cfg.Auth.AuthURL != "https://file.example.com/authorize" {
		t.Errorf("auth_url = %q, want file value", cfg.Auth.AuthURL)
	}
}

func TestLoadConfigUnsetFlagsDoNotOverride(t *testing.T) {
	environ := func() []string {
		return []string{
			"GOTOAUTH_AUTH__CLIENT_ID=env-id",
			"GOTOAUTH_AUTH__CLIENT_SECRET=env-secret",
			"GOTOAUTH_AUTH__STORAGE=memory",
		}
	}

	// The flags are declared on the command but never passed; their zero
	// values must not clobber the env-sourced config.
	cfg := loadViaCommand(t, "", environ)

	if cfg.Auth.ClientID != "env-id" {
		t.Errorf("client_id = %q, want env-id", cfg.Auth.ClientID)
	}
	if cfg.Auth.Storage != app.TokenStorageTypeMemory {
		t.Errorf("storage = %q, want memory", cfg.Auth.Storage)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml"), nil, noEnv); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestLoadConfigValidates(t *testing.T) {
	// No credentials from any source
	if _, err := loadConfig("", nil, noEnv); err == nil {
		t.Error("expected validation error for missing credentials")
	}
}
