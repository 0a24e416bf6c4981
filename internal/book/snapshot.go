// Package book fetches order books and normalizes them into immutable
// snapshots with best-first ordering and cumulative depth.
package book

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Level is a single aggregated price level. Total is the running size from
// the best price of the side down to and including this level.
type Level struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
	Total decimal.Decimal `json:"total"`
}

// Snapshot is a normalized order book. Bids are strictly descending and
// asks strictly ascending by price; levels sharing a price are merged.
// A Snapshot never hands out its backing slices, so it cannot be mutated
// after construction.
type Snapshot struct {
	instrumentID   string
	market         string
	bids           []Level
	asks           []Level
	tickSize       decimal.Decimal
	minOrderSize   decimal.Decimal
	lastTradePrice decimal.Decimal
	hash           string
	fetchedAt      time.Time
}

// NewSnapshot builds a snapshot from unordered levels. Any Total set on the
// input is ignored and recomputed.
func NewSnapshot(instrumentID string, bids, asks []Level, fetchedAt time.Time) Snapshot {
	return Snapshot{
		instrumentID: instrumentID,
		bids:         arrange(bids, true),
		asks:         arrange(asks, false),
		fetchedAt:    fetchedAt,
	}
}

func emptySnapshot(instrumentID string, fetchedAt time.Time) Snapshot {
	return NewSnapshot(instrumentID, nil, nil, fetchedAt)
}

// arrange sorts best-first, merges equal prices and fills in totals.
func arrange(in []Level, descending bool) []Level {
	levels := slices.Clone(in)
	slices.SortFunc(levels, func(a, b Level) int {
		if descending {
			return b.Price.Cmp(a.Price)
		}
		return a.Price.Cmp(b.Price)
	})

	out := make([]Level, 0, len(levels))
	for _, l := range levels {
		if n := len(out); n > 0 && out[n-1].Price.Equal(l.Price) {
			out[n-1].Size = out[n-1].Size.Add(l.Size)
			continue
		}
		out = append(out, Level{Price: l.Price, Size: l.Size})
	}

	total := decimal.Zero
	for i := range out {
		total = total.Add(out[i].Size)
		out[i].Total = total
	}
	return out
}

// InstrumentID returns the token the book belongs to.
func (s Snapshot) InstrumentID() string { return s.instrumentID }

// Market returns the condition id reported by the exchange, if any.
func (s Snapshot) Market() string { return s.market }

// FetchedAt returns when the book was retrieved.
func (s Snapshot) FetchedAt() time.Time { return s.fetchedAt }

// Hash returns the exchange's book hash, if any.
func (s Snapshot) Hash() string { return s.hash }

// TickSize returns the exchange tick size, or zero when unknown.
func (s Snapshot) TickSize() decimal.Decimal { return s.tickSize }

// MinOrderSize returns the exchange minimum order size, or zero when unknown.
func (s Snapshot) MinOrderSize() decimal.Decimal { return s.minOrderSize }

// LastTradePrice returns the last traded price, or zero when unknown.
func (s Snapshot) LastTradePrice() decimal.Decimal { return s.lastTradePrice }

// Bids returns a copy of the bid levels, best (highest) first.
func (s Snapshot) Bids() []Level { return slices.Clone(s.bids) }

// Asks returns a copy of the ask levels, best (lowest) first.
func (s Snapshot) Asks() []Level { return slices.Clone(s.asks) }

// BestBid returns the highest bid.
func (s Snapshot) BestBid() (Level, bool) {
	if len(s.bids) == 0 {
		return Level{}, false
	}
	return s.bids[0], true
}

// BestAsk returns the lowest ask.
func (s Snapshot) BestAsk() (Level, bool) {
	if len(s.asks) == 0 {
		return Level{}, false
	}
	return s.asks[0], true
}

// Empty reports whether both sides have no levels.
func (s Snapshot) Empty() bool {
	return len(s.bids) == 0 && len(s.asks) == 0
}

// Depth returns at most n levels of each side.
func (s Snapshot) Depth(n int) (bids, asks []Level) {
	n = max(n, 0)
	return slices.Clone(s.bids[:min(n, len(s.bids))]), slices.Clone(s.asks[:min(n, len(s.asks))])
}

type snapshotJSON struct {
	InstrumentID   string           `json:"instrument_id"`
	Market         string           `json:"market,omitempty"`
	Bids           []Level          `json:"bids"`
	Asks           []Level          `json:"asks"`
	TickSize       *decimal.Decimal `json:"tick_size,omitempty"`
	MinOrderSize   *decimal.Decimal `json:"min_order_size,omitempty"`
	LastTradePrice *decimal.Decimal `json:"last_trade_price,omitempty"`
	Hash           string           `json:"hash,omitempty"`
	FetchedAt      time.Time        `json:"fetched_at"`
}

// MarshalJSON implements json.Marshaler.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		InstrumentID:   s.instrumentID,
		Market:         s.market,
		Bids:           nonNil(s.bids),
		Asks:           nonNil(s.asks),
		TickSize:       optional(s.tickSize),
		MinOrderSize:   optional(s.minOrderSize),
		LastTradePrice: optional(s.lastTradePrice),
		Hash:           s.hash,
		FetchedAt:      s.fetchedAt,
	})
}

func nonNil(levels []Level) []Level {
	if levels == nil {
		return []Level{}
	}
	return levels
}

func optional(d decimal.Decimal) *decimal.Decimal {
	if d.IsZero() {
		return nil
	}
	return &d
}
