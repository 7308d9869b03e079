package gotoauth

import (
	"net/url"
	"time"
)

// Default GoTo Connect OAuth endpoints and flow parameters.
const (
	DefaultAuthURL     = "https://authentication.logmeininc.com/oauth/authorize"
	DefaultTokenURL    = "https://authentication.logmeininc.com/oauth/token"
	DefaultRedirectURI = "http://localhost:8080/callback"

	// DefaultFlowTimeout bounds the wait for the browser redirect during
	// the authorization-code flow.
	DefaultFlowTimeout = 5 * time.Minute
)

// DefaultScopes are the scopes requested during authorization.
var DefaultScopes = []string{"meetings:read", "meetings:write", "users:read"}

// Config holds the resolved inputs for a Session. ClientID and
// ClientSecret are required; everything else has a sensible default.
type Config struct {
	ClientID     string
	ClientSecret string

	// RedirectURI is the loopback address the provider redirects the
	// browser to. Its port is bound by the callback receiver.
	RedirectURI string

	// AuthURL and TokenURL override the provider endpoints.
	AuthURL  string
	TokenURL string

	// Scopes requested during authorization.
	Scopes []string

	// FlowTimeout bounds the wait for the authorization callback.
	FlowTimeout time.Duration
}

// withDefaults returns a copy of the config with unset fields filled in.
func (c Config) withDefaults() Config {
	if c.RedirectURI == "" {
		c.RedirectURI = DefaultRedirectURI
	}
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes
	}
	if c.FlowTimeout == 0 {
		c.FlowTimeout = DefaultFlowTimeout
	}
	return c
}

// validate checks the config after defaults have been applied.
func (c Config) validate() error {
	if c.ClientID == "" {
		return &ConfigurationError{Reason: "missing client_id"}
	}
	if c.ClientSecret == "" {
		return &ConfigurationError{Reason: "missing client_secret"}
	}
	if _, err := url.Parse(c.RedirectURI); err != nil {
		return &ConfigurationError{Reason: "invalid redirect_uri: " + err.Error()}
	}
	if _, err := url.Parse(c.AuthURL); err != nil {
		return &ConfigurationError{Reason: "invalid auth URL: " + err.Error()}
	}
	if _, err := url.Parse(c.TokenURL); err != nil {
		return &ConfigurationError{Reason: "invalid token URL: " + err.Error()}
	}
	return nil
}
