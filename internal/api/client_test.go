package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.example.com/tokens", "test-key")

		if c.baseURL != "https://api.example.com/tokens" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.example.com/tokens")
		}
		if c.apiKey != "test-key" {
			t.Errorf("apiKey = %q, want %q", c.apiKey, "test-key")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
	})

	t.Run("with timeout option", func(t *testing.T) {
		c := NewClient("https://api.example.com/tokens", "", WithTimeout(5*time.Second))
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 5*time.Second)
		}
	})

	t.Run("with retries option", func(t *testing.T) {
		c := NewClient("https://api.example.com/tokens", "", WithRetries(5, 2*time.Second))
		if c.maxRetries != 5 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 5)
		}
		if c.retryBackoff != 2*time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, 2*time.Second)
		}
	})
}

func TestListTokens_EnvelopeShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"tokens envelope", `{"tokens":[{"id":"a","symbol":"PEPE"},{"id":"b","symbol":"WIF"}]}`},
		{"data envelope", `{"data":[{"id":"a","symbol":"PEPE"},{"id":"b","symbol":"WIF"}]}`},
		{"bare array", `[{"id":"a","symbol":"PEPE"},{"id":"b","symbol":"WIF"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClient(server.URL, "")
			records, err := c.ListTokens(context.Background())
			if err != nil {
				t.Fatalf("ListTokens failed: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("got %d records, want 2", len(records))
			}
			if records[0].ID != "a" || records[0].Symbol != "PEPE" {
				t.Errorf("first record = %+v, want id a symbol PEPE", records[0])
			}
		})
	}
}

func TestListTokens_UnknownShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	if _, err := c.ListTokens(context.Background()); err == nil {
		t.Fatal("expected error for unrecognized shape")
	}
}

func TestListTokens_BearerHeader(t *testing.T) {
	var gotAuth atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Write([]byte(`{"tokens":[]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	if _, err := c.ListTokens(context.Background()); err != nil {
		t.Fatalf("ListTokens failed: %v", err)
	}

	if got := gotAuth.Load(); got != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer secret")
	}
}

func TestRetry_ServerErrors(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"tokens":[{"id":"a"}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", WithRetries(3, 10*time.Millisecond))
	records, err := c.ListTokens(context.Background())
	if err != nil {
		t.Fatalf("ListTokens failed after retries: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("got %d records, want 1", len(records))
	}
	if calls.Load() != 3 {
		t.Errorf("server saw %d calls, want 3", calls.Load())
	}
}

func TestRetry_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", WithRetries(3, 10*time.Millisecond))
	_, err := c.ListTokens(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", apiErr.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1 (no retries)", calls.Load())
	}
}

func TestTokenPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tok-1/price" {
			t.Errorf("path = %q, want /tok-1/price", r.URL.Path)
		}
		w.Write([]byte(`{"id":"tok-1","price_usd":0.042}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	price, err := c.TokenPrice(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("TokenPrice failed: %v", err)
	}
	if price != 0.042 {
		t.Errorf("price = %g, want 0.042", price)
	}
}
