package gotoauth

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/connectkit/gotoauth/internal/observability/middleware"
)

const callbackSuccessHTML = `<!DOCTYPE html>
<html>
<head><title>Authentication Successful</title></head>
<body>
<h1>Authentication Successful</h1>
<p>You can close this window and return to the application.</p>
</body>
</html>
`

const callbackErrorHTML = `<!DOCTYPE html>
<html>
<head><title>Authentication Failed</title></head>
<body>
<h1>Authentication Failed</h1>
<p>No authorization code was received. You can close this window and try again.</p>
</body>
</html>
`

// CallbackResult is what the identity provider delivered to the redirect
// endpoint: an authorization code on consent, or an error on denial.
type CallbackResult struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Denied reports whether the provider returned an error instead of a code.
func (r *CallbackResult) Denied() bool {
	return r.Error != "" || r.Code == ""
}

// CallbackReceiver is a short-lived local HTTP listener that captures the
// authorization code redirected by the browser. It serves exactly one
// callback, delivers it through a single-use channel, and shuts down.
type CallbackReceiver struct {
	port int
	path string

	listener net.Listener
	server   *http.Server
	resultCh chan *CallbackResult
	once     sync.Once
	boundURI string
}

// NewCallbackReceiver creates a receiver for the loopback port and path
// encoded in the redirect URI. Port 0 binds an ephemeral port; the actual
// address is available from RedirectURI after Start.
func NewCallbackReceiver(redirectURI string) (*CallbackReceiver, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}

	port := 8080
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redirect URI port %q: %w", p, err)
		}
	}

	path := u.Path
	if path == "" {
		path = "/callback"
	}

	return &CallbackReceiver{
		port:     port,
		path:     path,
		resultCh: make(chan *CallbackResult, 1),
	}, nil
}

// Start binds the loopback listener and begins serving in the background.
// The listener is bound synchronously: once Start returns, the browser can
// safely be pointed at the authorization URL without losing the redirect.
// The receiver stops when the context is cancelled or Stop is called.
func (s *CallbackReceiver) Start(ctx context.Context) error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind callback listener on %s: %w", addr, err)
	}

	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.boundURI = fmt.Sprintf("http://localhost:%d%s", s.port, s.path)

	mux := http.NewServeMux()
	mux.Handle(s.path, middleware.Apply(http.HandlerFunc(s.handleCallback),
		middleware.Logging(slog.Default()),
		middleware.Recovery,
	))

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "callback listener failed", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Wait blocks until the callback arrives or the context expires.
func (s *CallbackReceiver) Wait(ctx context.Context) (*CallbackResult, error) {
	select {
	case result := <-s.resultCh:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RedirectURI returns the redirect URI with the actually bound port.
// Valid after Start.
func (s *CallbackReceiver) RedirectURI() string {
	return s.boundURI
}

// handleCallback serves the provider redirect. Only the first request is
// processed; any later request is rejected so a stray or malformed second
// redirect cannot disturb a completed flow.
func (s *CallbackReceiver) handleCallback(w http.ResponseWriter, r *http.Request) {
	handled := false
	s.once.Do(func() {
		handled = true
		s.processCallback(w, r)
	})

	if !handled {
		http.Error(w, "callback already processed", http.StatusConflict)
	}
}

// processCallback parses the redirect query, responds with a confirmation
// page, and delivers the result to the waiting flow. Called exactly once.
func (s *CallbackReceiver) processCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result := &CallbackResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if result.Denied() {
		// Provider denied consent or sent a malformed callback
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(callbackErrorHTML))
	} else {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(callbackSuccessHTML))
	}

	// Buffered channel, single-use: never blocks the handler
	s.resultCh <- result
}

// Stop shuts the receiver down and releases the bound port. Safe to call
// more than once and on a receiver that never started.
func (s *CallbackReceiver) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}
