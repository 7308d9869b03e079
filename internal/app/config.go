// Package app holds the application-level configuration for the gotoauth
// CLI and turns it into library components.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/connectkit/gotoauth"
	"github.com/connectkit/gotoauth/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// TokenStorageType represents the different storage backends for token records.
type TokenStorageType string

const (
	// TokenStorageTypeKeyring prefers the OS keyring and degrades to a
	// local file when the keyring is unavailable.
	TokenStorageTypeKeyring TokenStorageType = "keyring"

	// TokenStorageTypeFile stores the record only in a local file.
	TokenStorageTypeFile TokenStorageType = "file"

	// TokenStorageTypeMemory keeps the record for the process lifetime only.
	TokenStorageTypeMemory TokenStorageType = "memory"
)

// Default configuration values
const (
	DefaultConfigAuthStorage    = TokenStorageTypeKeyring
	DefaultConfigKeyringService = gotoauth.DefaultKeyringService
	DefaultConfigFlowTimeout    = gotoauth.DefaultFlowTimeout
)

// AuthConfig describes how to construct the token store and session.
type AuthConfig struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`

	RedirectURI string `json:"redirect_uri,omitempty" validate:"omitempty,url"`
	AuthURL     string `json:"auth_url,omitempty" validate:"omitempty,url"`
	TokenURL    string `json:"token_url,omitempty" validate:"omitempty,url"`

	// Storage configuration - where the token record lives
	Storage TokenStorageType `json:"storage" validate:"required,oneof=keyring file memory"`

	// Storage-specific settings
	File           string `json:"file,omitempty"`            // For file storage and the keyring fallback: path to the record file
	KeyringService string `json:"keyring_service,omitempty"` // For keyring storage: service identifier
	KeyringUser    string `json:"keyring_user,omitempty"`    // For keyring storage: user identifier

	// FlowTimeout bounds the wait for the browser callback.
	FlowTimeout time.Duration `json:"flow_timeout,omitempty"`
}

// NewTokenStore creates a token store from the authentication configuration.
func (a *AuthConfig) NewTokenStore() (tokenstore.Store, error) {
	switch a.Storage {
	case TokenStorageTypeKeyring:
		keyringStore, err := tokenstore.NewKeyringStore(a.KeyringService, a.KeyringUser)
		if err != nil {
			return nil, err
		}
		fileStore, err := tokenstore.NewFileStore(a.File)
		if err != nil {
			return nil, err
		}
		return tokenstore.NewFallbackStore(keyringStore, fileStore)
	case TokenStorageTypeFile:
		return tokenstore.NewFileStore(a.File)
	case TokenStorageTypeMemory:
		return tokenstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level `json:"log_level"`
	LogFormat LogFormat  `json:"log_format" validate:"oneof=text json"`
	Auth      AuthConfig `json:"auth"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		// Plain text for humans, JSON when output is collected
		if term.IsTerminal(int(os.Stderr.Fd())) {
			c.LogFormat = LogFormatText
		} else {
			c.LogFormat = LogFormatJSON
		}
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}
	if c.Auth.FlowTimeout == 0 {
		c.Auth.FlowTimeout = DefaultConfigFlowTimeout
	}

	// Dynamic defaults based on storage type
	switch c.Auth.Storage {
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringService == "" {
			c.Auth.KeyringService = DefaultConfigKeyringService
		}
		if c.Auth.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("auth.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Auth.KeyringUser = currentUser.Username
		}
		if c.Auth.File == "" {
			if err := c.applyDefaultFilePath(); err != nil {
				return err
			}
		}
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			if err := c.applyDefaultFilePath(); err != nil {
				return err
			}
		}
	case TokenStorageTypeMemory:
		// nothing to resolve
	}

	return nil
}

func (c *Config) applyDefaultFilePath() error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("auth.file required (auto-detect failed: %w)", err)
	}
	c.Auth.File = filepath.Join(configDir, "gotoauth", "tokens.json")
	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Auth.Storage {
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringService == "" || c.Auth.KeyringUser == "" {
			return errors.New("keyring_service and keyring_user required for keyring storage")
		}
		if c.Auth.File == "" {
			return errors.New("file path required for the keyring fallback store")
		}
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			return errors.New("file path required for file storage")
		}
	}

	return nil
}

// NewSession builds a library session from the application configuration.
func (c *Config) NewSession() (*gotoauth.Session, error) {
	store, err := c.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}

	return gotoauth.NewSession(gotoauth.Config{
		ClientID:     c.Auth.ClientID,
		ClientSecret: c.Auth.ClientSecret,
		RedirectURI:  c.Auth.RedirectURI,
		AuthURL:      c.Auth.AuthURL,
		TokenURL:     c.Auth.TokenURL,
		FlowTimeout:  c.Auth.FlowTimeout,
	}, gotoauth.WithStore(store))
}
