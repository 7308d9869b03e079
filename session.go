package gotoauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/connectkit/gotoauth/tokenstore"
)

// Default identifiers for the keyring-backed token store.
const (
	DefaultKeyringService = "gotoconnect-auth"
	DefaultKeyringUser    = "default"
)

// State describes where a session is in the token lifecycle.
type State int

const (
	// StateNoToken means no access token is held in memory.
	StateNoToken State = iota

	// StateValid means an unexpired access token is held.
	StateValid

	// StateExpired means the held access token's expiry instant has passed.
	StateExpired

	// StateAuthInProgress means a full authorization flow is running.
	StateAuthInProgress
)

func (s State) String() string {
	switch s {
	case StateNoToken:
		return "no-token"
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateAuthInProgress:
		return "auth-in-progress"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// sessionOptions collects the injectable collaborators of a Session.
type sessionOptions struct {
	store      tokenstore.Store
	exchanger  Exchanger
	opener     BrowserOpener
	httpClient *http.Client
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

// WithStore replaces the default keyring-with-file-fallback token store.
func WithStore(store tokenstore.Store) SessionOption {
	return func(o *sessionOptions) {
		o.store = store
	}
}

// WithExchanger replaces the token exchanger, mainly for tests.
func WithExchanger(ex Exchanger) SessionOption {
	return func(o *sessionOptions) {
		o.exchanger = ex
	}
}

// WithBrowserOpener replaces how the authorization URL is opened.
func WithBrowserOpener(open BrowserOpener) SessionOption {
	return func(o *sessionOptions) {
		o.opener = open
	}
}

// WithHTTPClient sets the HTTP client used for token endpoint requests.
func WithHTTPClient(client *http.Client) SessionOption {
	return func(o *sessionOptions) {
		o.httpClient = client
	}
}

// Session owns the current token state and the lifecycle around it:
// authenticate, wait for the callback, exchange the code, store the
// record, and refresh it on expiry. A Session holds at most one token
// record and represents a single logical identity per process.
//
// All methods are safe for concurrent use; concurrent refreshes and
// authorization flows are deduplicated.
type Session struct {
	cfg   Config
	store tokenstore.Store
	ex    Exchanger
	open  BrowserOpener

	mu         sync.Mutex
	loaded     bool
	record     *tokenstore.Record
	flowActive bool

	group singleflight.Group
	now   func() time.Time
}

// NewSession creates a Session from resolved configuration. Missing client
// credentials surface as ConfigurationError. The stored record, if any, is
// loaded on first use rather than at construction, so no I/O happens here.
func NewSession(cfg Config, opts ...SessionOption) (*Session, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := &sessionOptions{
		opener: OpenBrowser,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.store == nil {
		store, err := defaultStore()
		if err != nil {
			return nil, err
		}
		o.store = store
	}
	if o.exchanger == nil {
		o.exchanger = newTokenExchanger(cfg, o.httpClient)
	}

	return &Session{
		cfg:   cfg,
		store: o.store,
		ex:    o.exchanger,
		open:  o.opener,
		now:   time.Now,
	}, nil
}

// defaultStore builds the keyring-preferred store with a file fallback
// under the user's config directory.
func defaultStore() (tokenstore.Store, error) {
	keyringStore, err := tokenstore.NewKeyringStore(DefaultKeyringService, DefaultKeyringUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyring store: %w", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, &ConfigurationError{Reason: "cannot locate user config directory: " + err.Error()}
	}
	fileStore, err := tokenstore.NewFileStore(filepath.Join(configDir, "gotoauth", "tokens.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to create file store: %w", err)
	}

	return tokenstore.NewFallbackStore(keyringStore, fileStore)
}

// State reports the session's position in the token lifecycle based on
// the in-memory record. It does not touch storage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.flowActive:
		return StateAuthInProgress
	case s.record == nil || s.record.AccessToken == "":
		return StateNoToken
	case s.record.Expired(s.now()):
		return StateExpired
	default:
		return StateValid
	}
}

// IsAuthenticated reports whether a usable access token is held. An
// expired token with a refresh token triggers exactly one inline refresh
// before answering, so callers never observe "expired" without the session
// having tried to self-heal first. Never returns an error: failures
// degrade to false.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	s.mu.Lock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		s.mu.Unlock()
		slog.WarnContext(ctx, "failed to load stored tokens", "error", err)
		return false
	}

	rec := s.record
	if rec == nil || rec.AccessToken == "" {
		s.mu.Unlock()
		return false
	}
	if !rec.Expired(s.now()) {
		s.mu.Unlock()
		return true
	}
	refreshToken := rec.RefreshToken
	s.mu.Unlock()

	if refreshToken == "" {
		return false
	}
	if err := s.refresh(ctx, refreshToken); err != nil {
		slog.InfoContext(ctx, "token refresh failed", "error", err)
		return false
	}
	return true
}

// EnsureAuthenticated is the gate invoked before every outbound request:
// if no usable token is held it runs the full authentication flow
// synchronously before returning.
func (s *Session) EnsureAuthenticated(ctx context.Context) error {
	if s.IsAuthenticated(ctx) {
		return nil
	}
	return s.Authenticate(ctx)
}

// Authenticate obtains a usable token. It is a no-op when one is already
// held; otherwise it tries the refresh fast path and falls back to the
// full browser-based authorization flow. Concurrent calls share one flow.
func (s *Session) Authenticate(ctx context.Context) error {
	_, err, _ := s.group.Do("authenticate", func() (any, error) {
		return nil, s.doAuthenticate(ctx)
	})
	return err
}

func (s *Session) doAuthenticate(ctx context.Context) error {
	if s.IsAuthenticated(ctx) {
		return nil
	}

	s.mu.Lock()
	refreshToken := ""
	if s.record != nil {
		refreshToken = s.record.RefreshToken
	}
	s.mu.Unlock()

	// Fast path: mint a new access token from the refresh token. A failed
	// refresh is not fatal, it downgrades to the full flow.
	if refreshToken != "" {
		if err := s.refresh(ctx, refreshToken); err == nil {
			return nil
		}
		slog.InfoContext(ctx, "refresh token rejected, starting full authorization flow")
	}

	return s.runFlow(ctx)
}

// runFlow performs the browser-based authorization-code flow: bind the
// callback listener, open the browser, wait for the redirect, exchange the
// code, and persist the result. The listener is torn down on every exit
// path so its port never leaks past one invocation.
func (s *Session) runFlow(ctx context.Context) error {
	s.setFlowActive(true)
	defer s.setFlowActive(false)

	receiver, err := NewCallbackReceiver(s.cfg.RedirectURI)
	if err != nil {
		return &AuthenticationError{Reason: "invalid redirect URI", Err: err}
	}

	flowCtx, cancel := context.WithTimeout(ctx, s.cfg.FlowTimeout)
	defer cancel()

	// Bind before opening the browser so the redirect cannot be lost.
	if err := receiver.Start(flowCtx); err != nil {
		return &AuthenticationError{Reason: "failed to start callback listener", Err: err}
	}
	defer receiver.Stop()

	state := uuid.NewString()
	authURL := s.ex.AuthCodeURL(state, receiver.RedirectURI())

	slog.InfoContext(ctx, "opening browser for authorization")
	if err := s.open(authURL); err != nil {
		// Headless or locked-down environment: the user can still follow
		// the URL by hand while the listener waits.
		slog.WarnContext(ctx, "could not open browser, visit the authorization URL manually",
			"url", authURL, "error", err)
	}

	result, err := receiver.Wait(flowCtx)
	if err != nil {
		return &AuthenticationError{Reason: "timed out waiting for authorization callback", Err: err}
	}
	if result.Denied() {
		reason := "provider returned no authorization code"
		if result.Error != "" {
			reason = fmt.Sprintf("provider denied authorization: %s (%s)", result.Error, result.ErrorDescription)
		}
		return &AuthenticationError{Reason: reason}
	}
	if result.State != state {
		return &AuthenticationError{Reason: "state parameter mismatch in authorization callback"}
	}

	record, err := s.ex.ExchangeCode(ctx, result.Code, receiver.RedirectURI())
	if err != nil {
		return err
	}

	if err := s.commit(ctx, record); err != nil {
		return err
	}
	slog.InfoContext(ctx, "authentication complete")
	return nil
}

// refresh mints a new token record from the refresh token. Concurrent
// callers share a single exchange.
func (s *Session) refresh(ctx context.Context, refreshToken string) error {
	_, err, _ := s.group.Do("refresh", func() (any, error) {
		record, err := s.ex.Refresh(ctx, refreshToken)
		if err != nil {
			return nil, err
		}
		return nil, s.commit(ctx, record)
	})
	return err
}

// commit persists the record and then swaps it into memory, carrying the
// previous refresh token over when the exchange omitted one. Access and
// refresh token are replaced together, never one without the other.
func (s *Session) commit(ctx context.Context, record *tokenstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.RefreshToken == "" && s.record != nil {
		record.RefreshToken = s.record.RefreshToken
	}

	if err := s.store.Save(ctx, record); err != nil {
		return err
	}
	s.record = record
	s.loaded = true
	return nil
}

// AccessToken returns a usable access token, authenticating first if
// necessary.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	if err := s.EnsureAuthenticated(ctx); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil || s.record.AccessToken == "" {
		return "", &AuthenticationError{Reason: "no access token available"}
	}
	return s.record.AccessToken, nil
}

// Record returns a copy of the currently held token record without
// triggering authentication, or nil when none is held.
func (s *Session) Record(ctx context.Context) (*tokenstore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	return s.record.Clone(), nil
}

// Logout drops the in-memory token state and clears the store. Idempotent.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.record = nil
	s.loaded = true
	s.mu.Unlock()

	return s.store.Clear(ctx)
}

// AuthorizationURL returns the provider authorization URL for a fresh
// state, without starting a listener or opening a browser. Useful for
// environments where the user completes the flow manually.
func (s *Session) AuthorizationURL() string {
	return s.ex.AuthCodeURL(uuid.NewString(), s.cfg.RedirectURI)
}

// ensureLoadedLocked copies the stored record into memory on first use.
// Callers must hold s.mu.
func (s *Session) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	record, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.record = record
	s.loaded = true
	return nil
}

func (s *Session) setFlowActive(active bool) {
	s.mu.Lock()
	s.flowActive = active
	s.mu.Unlock()
}
