package gamma

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchEvents_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := NewClient(&http.Client{Timeout: 30 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	active := true
	events, err := client.FetchEvents(ctx, &Filter{Active: &active, Limit: 5})
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}

	if len(events) == 0 {
		t.Log("Warning: no active events returned")
		return
	}

	t.Logf("Fetched %d events", len(events))
	for i, e := range events {
		t.Logf("  [%d] %s (slug=%s, markets=%d)", i, e.Title, e.Slug, len(e.Markets))
	}
}

func TestSearch_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	client := NewClient(&http.Client{Timeout: 30 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := client.Search(ctx, "bitcoin")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	t.Logf("Search returned %d events", len(result.Events))
}

func TestFetchEvents_QueryAndDecode(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{
			"id": "1",
			"slug": "bitcoin-up-or-down-january-18-4am-et",
			"active": true,
			"markets": [{"id": "m1", "question": "Up?", "clobTokenIds": "[\"a\", \"b\"]"}]
		}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client()).WithBaseURL(srv.URL)
	events, err := client.FetchEvents(context.Background(), &Filter{Slug: "bitcoin-up-or-down-january-18-4am-et"})
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}

	if gotPath != "/events" {
		t.Errorf("path = %q, want /events", gotPath)
	}
	if gotQuery != "slug=bitcoin-up-or-down-january-18-4am-et" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(events) != 1 || len(events[0].Markets) != 1 {
		t.Fatalf("unexpected events: %+v", events)
	}
	ids, err := events[0].Markets[0].ParseTokenIDs()
	if err != nil || len(ids) != 2 {
		t.Errorf("ParseTokenIDs() = %v, %v", ids, err)
	}
}

func TestSearch_EscapesQuery(t *testing.T) {
	var gotQ string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQ = r.URL.Query().Get("q")
		w.Write([]byte(`{"events": []}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client()).WithBaseURL(srv.URL)
	result, err := client.Search(context.Background(), "fed rates & cpi")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if gotQ != "fed rates & cpi" {
		t.Errorf("q = %q", gotQ)
	}
	if len(result.Events) != 0 {
		t.Errorf("expected no events, got %d", len(result.Events))
	}
}

func TestGet_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.Client()).WithBaseURL(srv.URL)
	_, err := client.FetchMarkets(context.Background(), nil)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d", statusErr.StatusCode)
	}
}

func TestBuildQuery(t *testing.T) {
	active, closed := true, false
	got := buildQuery(&Filter{Active: &active, Closed: &closed, TagSlug: "crypto", Limit: 20, Offset: 40}).Encode()
	want := "active=true&closed=false&limit=20&offset=40&tag_slug=crypto"
	if got != want {
		t.Errorf("buildQuery() = %q, want %q", got, want)
	}
	if q := buildQuery(nil); len(q) != 0 {
		t.Errorf("buildQuery(nil) = %v, want empty", q)
	}
}

func TestParseTokenIDs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "valid tokens",
			input: `["token1", "token2"]`,
			want:  []string{"token1", "token2"},
		},
		{
			name:  "empty string",
			input: "",
			want:  nil,
		},
		{
			name:  "empty array",
			input: `[]`,
			want:  []string{},
		},
		{
			name:    "invalid json",
			input:   `[invalid`,
			wantErr: true,
		},
		{
			name:  "single token",
			input: `["83955612885151370769947492812886282601680164705864046042194488203730621200472"]`,
			want:  []string{"83955612885151370769947492812886282601680164705864046042194488203730621200472"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Market{ClobTokenIds: tt.input}
			got, err := m.ParseTokenIDs()
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTokenIDs() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if len(got) != len(tt.want) {
					t.Errorf("ParseTokenIDs() got %d tokens, want %d", len(got), len(tt.want))
					return
				}
				for i := range got {
					if got[i] != tt.want[i] {
						t.Errorf("ParseTokenIDs()[%d] = %v, want %v", i, got[i], tt.want[i])
					}
				}
			}
		})
	}
}
