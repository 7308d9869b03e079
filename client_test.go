package gotoauth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/connectkit/gotoauth/tokenstore"
)

// authenticatedClient builds a Client over a session seeded with a valid
// token, so no flow or refresh runs during the request.
func authenticatedClient(t *testing.T) *Client {
	t.Helper()

	store := tokenstore.NewMemoryStore()
	if err := store.Save(context.Background(), validRecord(time.Now())); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	session := newTestSession(t, store, &fakeExchanger{}, nil)
	return NewClient(session)
}

func TestClientAttachesBearer(t *testing.T) {
	var gotAuth, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := authenticatedClient(t)

	resp, err := client.Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	if gotAuth != "Bearer AT1" {
		t.Errorf("Authorization = %q, want Bearer AT1", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %q", body)
	}
}

func TestClientCallerHeadersWin(t *testing.T) {
	var gotContentType, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotCustom = r.Header.Get("X-Request-Id")
	}))
	defer server.Close()

	client := authenticatedClient(t)

	headers := http.Header{}
	headers.Set("Content-Type", "text/plain")
	headers.Set("X-Request-Id", "req-1")

	resp, err := client.Post(context.Background(), server.URL, strings.NewReader("hello"), headers)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	resp.Body.Close()

	if gotContentType != "text/plain" {
		t.Errorf("Content-Type = %q, want caller override text/plain", gotContentType)
	}
	if gotCustom != "req-1" {
		t.Errorf("X-Request-Id = %q, want req-1", gotCustom)
	}
}

func TestClientVerbs(t *testing.T) {
	var gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
	}))
	defer server.Close()

	client := authenticatedClient(t)
	ctx := context.Background()

	tests := []struct {
		want string
		call func() (*http.Response, error)
	}{
		{http.MethodGet, func() (*http.Response, error) { return client.Get(ctx, server.URL, nil) }},
		{http.MethodPost, func() (*http.Response, error) { return client.Post(ctx, server.URL, nil, nil) }},
		{http.MethodPut, func() (*http.Response, error) { return client.Put(ctx, server.URL, nil, nil) }},
		{http.MethodDelete, func() (*http.Response, error) { return client.Delete(ctx, server.URL, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			resp, err := tt.call()
			if err != nil {
				t.Fatalf("%s: %v", tt.want, err)
			}
			resp.Body.Close()
			if gotMethod != tt.want {
				t.Errorf("method = %q, want %q", gotMethod, tt.want)
			}
		})
	}
}

func TestClientNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := authenticatedClient(t)

	_, err := client.Get(context.Background(), server.URL, nil)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", netErr.StatusCode)
	}
}

func TestClientTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // connection refused from here on

	client := authenticatedClient(t)

	_, err := client.Get(context.Background(), server.URL, nil)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.StatusCode != 0 {
		t.Errorf("transport failure must not carry a status, got %d", netErr.StatusCode)
	}
}

func TestClientAuthenticatesFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	// Empty store: the request must trigger the authorization flow before
	// the API call goes out.
	ex := &fakeExchanger{exchangeRecord: validRecord(time.Now())}
	session := newTestSession(t, tokenstore.NewMemoryStore(), ex, approvingOpener(t, "CODE1"))
	client := NewClient(session)

	resp, err := client.Get(context.Background(), server.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	exchanges, _ := ex.counts()
	if exchanges != 1 {
		t.Errorf("expected one code exchange before the request, got %d", exchanges)
	}
}
