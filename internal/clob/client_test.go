package clob

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const (
	// Known active token ID for testing
	testTokenID = "83955612885151370769947492812886282601680164705864046042194488203730621200472"
)

func TestFetchBook_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := NewClient(&http.Client{Timeout: 30 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	raw, err := client.FetchBook(ctx, testTokenID)
	if err != nil {
		if errors.Is(err, ErrNoOrderBook) {
			t.Skipf("token has no book anymore: %v", err)
		}
		t.Fatalf("FetchBook failed: %v", err)
	}

	t.Logf("Book for token %s: %d bytes", testTokenID[:20]+"...", len(raw))
}

func TestFetchBook_Success(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/book" {
			t.Errorf("path = %q, want /book", r.URL.Path)
		}
		gotToken = r.URL.Query().Get("token_id")
		w.Write([]byte(`{"asset_id":"123","bids":[{"price":"0.4","size":"10"}],"asks":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client()).WithBaseURL(srv.URL)
	raw, err := client.FetchBook(context.Background(), "123")
	if err != nil {
		t.Fatalf("FetchBook failed: %v", err)
	}
	if gotToken != "123" {
		t.Errorf("token_id = %q, want 123", gotToken)
	}
	if len(raw) == 0 {
		t.Error("expected a non-empty payload")
	}
}

func TestFetchBook_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"No orderbook exists for the requested token id"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client()).WithBaseURL(srv.URL)
	_, err := client.FetchBook(context.Background(), "invalid_token_id_12345")
	if !errors.Is(err, ErrNoOrderBook) {
		t.Fatalf("expected ErrNoOrderBook, got %v", err)
	}
}

func TestFetchBook_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.Client()).WithBaseURL(srv.URL)
	_, err := client.FetchBook(context.Background(), "123")
	if err == nil {
		t.Fatal("expected an error for 503")
	}
	if errors.Is(err, ErrNoOrderBook) {
		t.Errorf("503 must not be reported as a missing book: %v", err)
	}
}

func TestFetchMidpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"mid":"0.505"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client()).WithBaseURL(srv.URL)
	mid, err := client.FetchMidpoint(context.Background(), "123")
	if err != nil {
		t.Fatalf("FetchMidpoint failed: %v", err)
	}
	if mid != "0.505" {
		t.Errorf("mid = %q, want 0.505", mid)
	}
}
