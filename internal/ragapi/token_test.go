package ragapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("abc").Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok != "abc" {
		t.Errorf("token = %q", tok)
	}
}

func TestRefreshTokenSourceCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "client_credentials" {
			t.Errorf("grant_type = %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("client_id") != "id" || r.Form.Get("client_secret") != "secret" {
			t.Errorf("credentials = %q / %q", r.Form.Get("client_id"), r.Form.Get("client_secret"))
		}
		n := calls.Add(1)
		fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600}`, n)
	}))
	defer srv.Close()

	src := NewRefreshTokenSource(srv.URL, "id", "secret", 5*time.Second)
	current := time.Now()
	src.now = func() time.Time { return current }

	first, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	second, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if first != "tok-1" || second != "tok-1" {
		t.Errorf("tokens = %q, %q; want cached tok-1", first, second)
	}
	if calls.Load() != 1 {
		t.Errorf("token endpoint calls = %d, want 1", calls.Load())
	}

	// Past the (slack-adjusted) expiry the source must refresh.
	current = current.Add(time.Hour)
	third, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if third != "tok-2" {
		t.Errorf("token after expiry = %q, want tok-2", third)
	}
	if calls.Load() != 2 {
		t.Errorf("token endpoint calls = %d, want 2", calls.Load())
	}
}

func TestRefreshTokenSourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad client", http.StatusUnauthorized)
		}},
		{"empty token", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"","expires_in":3600}`))
		}},
		{"invalid json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			src := NewRefreshTokenSource(srv.URL, "id", "secret", 5*time.Second)
			if _, err := src.Token(context.Background()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
