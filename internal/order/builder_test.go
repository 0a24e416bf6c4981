package order

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/johan/polymarket-desk/internal/book"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuild_Valid(t *testing.T) {
	b := NewBuilder(DefaultConstraints())

	req, err := b.Build("tok", Buy, d("0.05"), d("10"))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if req.InstrumentID != "tok" || req.Side != Buy {
		t.Errorf("unexpected request: %+v", req)
	}
	if !req.LimitPrice.Equal(d("0.05")) || !req.Size.Equal(d("10")) {
		t.Errorf("price/size = %s/%s", req.LimitPrice, req.Size)
	}
	if req.ClientID == uuid.Nil {
		t.Error("ClientID should be set")
	}
}

func TestBuild_FreshClientIDs(t *testing.T) {
	b := NewBuilder(DefaultConstraints())
	a, _ := b.Build("tok", Sell, d("0.5"), d("1"))
	c, _ := b.Build("tok", Sell, d("0.5"), d("1"))
	if a.ClientID == c.ClientID {
		t.Error("two builds share a ClientID")
	}
}

func TestBuild_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		side  Side
		price string
		size  string
	}{
		{"price zero", "tok", Buy, "0", "10"},
		{"price one", "tok", Buy, "1", "10"},
		{"price negative", "tok", Buy, "-0.2", "10"},
		{"price above one", "tok", Sell, "1.5", "10"},
		{"size zero", "tok", Buy, "0.5", "0"},
		{"size negative", "tok", Buy, "0.5", "-1"},
		{"off tick", "tok", Buy, "0.505", "10"},
		{"empty instrument", " ", Buy, "0.5", "10"},
		{"unknown side", "tok", Side("HOLD"), "0.5", "10"},
	}

	b := NewBuilder(DefaultConstraints())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(tt.id, tt.side, d(tt.price), d(tt.size))
			if !errors.Is(err, ErrInvalidOrderParameters) {
				t.Errorf("expected ErrInvalidOrderParameters, got %v", err)
			}
		})
	}
}

func TestConstraints_ForBook(t *testing.T) {
	raw := []byte(`{"bids":[],"asks":[],"tick_size":"0.001","min_order_size":"5"}`)
	s, err := book.Normalize("tok", raw, time.Now())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	b := NewBuilder(DefaultConstraints().ForBook(s))

	if _, err := b.Build("tok", Buy, d("0.505"), d("5")); err != nil {
		t.Errorf("0.505 should be on a 0.001 tick: %v", err)
	}
	if _, err := b.Build("tok", Buy, d("0.5"), d("4")); !errors.Is(err, ErrInvalidOrderParameters) {
		t.Errorf("size below book minimum should be rejected, got %v", err)
	}
}

func TestParseSide(t *testing.T) {
	for in, want := range map[string]Side{"buy": Buy, " SELL ": Sell, "Buy": Buy} {
		got, err := ParseSide(in)
		if err != nil || got != want {
			t.Errorf("ParseSide(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseSide("short"); !errors.Is(err, ErrInvalidOrderParameters) {
		t.Errorf("expected ErrInvalidOrderParameters, got %v", err)
	}
}
