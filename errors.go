package gotoauth

import "fmt"

// ConfigurationError reports missing or invalid credentials or endpoints.
// It is fatal and surfaced immediately, never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// AuthenticationError reports a flow-level failure: no authorization code,
// flow timeout, or provider rejection. The caller must restart the flow.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// TokenExpiredError reports a failed refresh. The session downgrades it to
// a fresh full authentication attempt internally; it is fatal only when
// the subsequent full flow also fails.
type TokenExpiredError struct {
	Err error
}

func (e *TokenExpiredError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token expired and refresh failed: %v", e.Err)
	}
	return "token expired and no refresh token available"
}

func (e *TokenExpiredError) Unwrap() error {
	return e.Err
}

// NetworkError reports a transport-level failure on a token exchange or an
// authenticated API call, or a non-2xx API response. It is surfaced to the
// caller and not retried.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed with status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
