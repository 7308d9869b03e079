package gotoauth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/connectkit/gotoauth/tokenstore"
)

// defaultExchangeTimeout bounds a single token-endpoint round trip.
const defaultExchangeTimeout = 30 * time.Second

// defaultExpiresIn is assumed when the provider omits expires_in.
const defaultExpiresIn = 3600 * time.Second

// Exchanger performs the two token-endpoint operations and normalizes the
// response into a token record. Implementations must be safe for use from
// a single session.
type Exchanger interface {
	// AuthCodeURL returns the provider authorization URL for the given
	// state and redirect URI.
	AuthCodeURL(state, redirectURI string) string

	// ExchangeCode trades an authorization code for a token record.
	// Returns AuthenticationError on provider rejection or a malformed
	// response, NetworkError on transport failure.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*tokenstore.Record, error)

	// Refresh trades a refresh token for a new token record. Any failure
	// is reported as TokenExpiredError: the caller treats a failed
	// refresh as "must re-authenticate" regardless of the cause.
	Refresh(ctx context.Context, refreshToken string) (*tokenstore.Record, error)
}

// tokenExchanger is the oauth2-backed Exchanger. Requests are form-encoded
// with client credentials in the body (AuthStyleInParams).
type tokenExchanger struct {
	cfg        *oauth2.Config
	httpClient *http.Client
	now        func() time.Time
}

// Compile-time check to ensure tokenExchanger implements Exchanger
var _ Exchanger = (*tokenExchanger)(nil)

// newTokenExchanger creates an Exchanger for the configured endpoints.
func newTokenExchanger(cfg Config, httpClient *http.Client) *tokenExchanger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultExchangeTimeout}
	}

	return &tokenExchanger{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
		now:        time.Now,
	}
}

// AuthCodeURL returns the provider authorization URL for the given state.
// The redirect URI is passed explicitly so a receiver bound to an
// ephemeral port can advertise its actual address.
func (t *tokenExchanger) AuthCodeURL(state, redirectURI string) string {
	return t.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
}

// ExchangeCode posts grant_type=authorization_code with the code, client
// credentials, and redirect URI, and normalizes the response.
func (t *tokenExchanger) ExchangeCode(ctx context.Context, code, redirectURI string) (*tokenstore.Record, error) {
	tok, err := t.cfg.Exchange(t.oauthContext(ctx), code,
		oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	if err != nil {
		return nil, t.mapExchangeError(err)
	}
	return t.normalize(tok), nil
}

// Refresh posts grant_type=refresh_token and normalizes the response. The
// oauth2 package carries the previous refresh token over when the provider
// omits it from the response.
func (t *tokenExchanger) Refresh(ctx context.Context, refreshToken string) (*tokenstore.Record, error) {
	if refreshToken == "" {
		return nil, &TokenExpiredError{}
	}

	src := t.cfg.TokenSource(t.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, &TokenExpiredError{Err: err}
	}
	return t.normalize(tok), nil
}

// oauthContext injects the bounded HTTP client into the oauth2 package via
// its documented context key.
func (t *tokenExchanger) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, t.httpClient)
}

// normalize converts an oauth2 token into a record with an absolute expiry
// instant. The instant is computed here, at response-processing time, so a
// slow exchange is not double-counted into the token's lifetime.
func (t *tokenExchanger) normalize(tok *oauth2.Token) *tokenstore.Record {
	expiry := tok.Expiry
	if expiry.IsZero() {
		// Provider omitted expires_in
		expiry = t.now().Add(defaultExpiresIn)
	}

	return &tokenstore.Record{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiry.Unix(),
	}
}

// mapExchangeError classifies a code-exchange failure: transport failures
// are NetworkError, provider rejections and malformed responses are
// AuthenticationError.
func (t *tokenExchanger) mapExchangeError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &NetworkError{Op: "POST", URL: t.cfg.Endpoint.TokenURL, Err: err}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &AuthenticationError{
			Reason: "token endpoint rejected the authorization code",
			Err:    err,
		}
	}

	return &AuthenticationError{Reason: "malformed token response", Err: err}
}
