// Package gotoauth manages OAuth 2.0 credentials for the GoTo Connect APIs.
//
// It performs the authorization-code exchange against the identity
// provider, persists the resulting token pair, and transparently refreshes
// access tokens on expiry so that calling code can issue authenticated
// HTTP requests without managing token state.
//
// # Session
//
// Session owns the token lifecycle: authenticate, wait for the browser
// callback, exchange the code, store the record, and later refresh it when
// it expires. Every outbound request goes through EnsureAuthenticated:
//
//	session, err := gotoauth.NewSession(gotoauth.Config{
//		ClientID:     os.Getenv("GOTO_CLIENT_ID"),
//		ClientSecret: os.Getenv("GOTO_CLIENT_SECRET"),
//	})
//	if err != nil {
//		// ...
//	}
//	client := gotoauth.NewClient(session)
//	resp, err := client.Get(ctx, "https://api.goto.com/users/v1/users/me", nil)
//
// # Storage
//
// Token records persist across process restarts through the tokenstore
// package. The default backend prefers the OS keyring and degrades to a
// local file; see tokenstore.FallbackStore.
package gotoauth
