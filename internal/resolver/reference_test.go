package resolver

import (
	"testing"
	"time"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		in    string
		kind  Kind
		slug  string
		query string
	}{
		{"https://polymarket.com/event/bitcoin-up-or-down-january-18-4am-et", KindURL, "bitcoin-up-or-down-january-18-4am-et", ""},
		{"https://polymarket.com/event/fed-decision/", KindURL, "fed-decision", ""},
		{"https://polymarket.com/event/fed-decision?tid=123#top", KindURL, "fed-decision", ""},
		{"HTTP://polymarket.com/market/abc", KindURL, "abc", ""},
		{"  fed-decision-in-march  ", KindSlug, "fed-decision-in-march", ""},
		{"btc", KindSlug, "btc", ""},
		{"bitcoin up or down", KindSearch, "", "bitcoin up or down"},
		{"Fed-Decision", KindSearch, "", "Fed-Decision"},
		{"", KindSearch, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseReference(tt.in)
			if got.Kind != tt.kind || got.Slug != tt.slug || got.Query != tt.query {
				t.Errorf("ParseReference(%q) = %+v", tt.in, got)
			}
		})
	}
}

func TestSlugTemplate_Slug(t *testing.T) {
	tpl, err := NewSlugTemplate("bitcoin-up-or-down", "America/New_York", "et")
	if err != nil {
		t.Fatalf("NewSlugTemplate failed: %v", err)
	}
	et := tpl.Location

	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2026, 1, 18, 4, 0, 0, 0, et), "bitcoin-up-or-down-january-18-4am-et"},
		{time.Date(2026, 1, 18, 4, 59, 59, 0, et), "bitcoin-up-or-down-january-18-4am-et"},
		{time.Date(2026, 1, 18, 0, 30, 0, 0, et), "bitcoin-up-or-down-january-18-12am-et"},
		{time.Date(2026, 1, 18, 12, 0, 0, 0, et), "bitcoin-up-or-down-january-18-12pm-et"},
		{time.Date(2026, 3, 5, 21, 0, 0, 0, et), "bitcoin-up-or-down-march-5-9pm-et"},
		// 09:00 UTC is 04:00 EST.
		{time.Date(2026, 1, 18, 9, 0, 0, 0, time.UTC), "bitcoin-up-or-down-january-18-4am-et"},
	}

	for _, tt := range tests {
		if got := tpl.Slug(tt.at); got != tt.want {
			t.Errorf("Slug(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestSlugTemplate_Deterministic(t *testing.T) {
	tpl, _ := NewSlugTemplate("bitcoin-up-or-down", "", "et")
	at := time.Date(2026, 1, 18, 4, 0, 0, 0, tpl.Location)

	first := tpl.Slug(at)
	for i := 0; i < 10; i++ {
		if got := tpl.Slug(at); got != first {
			t.Fatalf("Slug changed between calls: %q vs %q", first, got)
		}
	}
}

func TestSlugTemplate_HourStart(t *testing.T) {
	tpl, _ := NewSlugTemplate("x", "America/New_York", "et")
	at := time.Date(2026, 1, 18, 4, 37, 12, 0, tpl.Location)

	got := tpl.HourStart(at)
	if !got.Equal(time.Date(2026, 1, 18, 4, 0, 0, 0, tpl.Location)) {
		t.Errorf("HourStart = %v", got)
	}
}

func TestNewSlugTemplate_BadZone(t *testing.T) {
	if _, err := NewSlugTemplate("x", "Mars/Olympus", "et"); err == nil {
		t.Error("expected error for unknown zone")
	}
}
