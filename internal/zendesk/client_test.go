package zendesk

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestClient points a client at an httptest server that serves the
// given handler.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New("example", "agent@example.com", "secret-token")
	c.SetBaseURL(srv.URL)
	return c
}

func TestAuthHeader(t *testing.T) {
	var gotAuth, gotContentType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"user": {"id": 1}}`))
	})

	if _, err := c.CurrentUser(context.Background()); err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("agent@example.com/token:secret-token"))
	if gotAuth != want {
		t.Fatalf("auth header = %q, want %q", gotAuth, want)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %q", gotContentType)
	}
}

func TestAPIErrorCarriesStatusAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "RecordNotFound"}`))
	})

	_, err := c.GetTicket(context.Background(), 42)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Body, "RecordNotFound") {
		t.Fatalf("body not preserved: %q", apiErr.Body)
	}
	if !strings.Contains(err.Error(), "get ticket 42") {
		t.Fatalf("error lacks operation context: %v", err)
	}
}

func TestDecodeErrorIsWrapped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := c.GetTicket(context.Background(), 1)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("expected decode error, got %v", err)
	}
}
