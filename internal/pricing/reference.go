// Package pricing derives a single reference price from an order book.
package pricing

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/johan/polymarket-desk/internal/book"
)

var two = decimal.NewFromInt(2)

// Source records which rule produced a Reference.
type Source int

const (
	// SourceUnavailable means neither side had a level. There is no
	// fallback value; callers must not pre-fill a price from it.
	SourceUnavailable Source = iota
	SourceMidpoint
	SourceBestBid
	SourceBestAsk
)

func (s Source) String() string {
	switch s {
	case SourceMidpoint:
		return "midpoint"
	case SourceBestBid:
		return "best_bid"
	case SourceBestAsk:
		return "best_ask"
	default:
		return "unavailable"
	}
}

// Reference is a derived price. The zero value is unavailable.
type Reference struct {
	value  decimal.Decimal
	source Source
}

// Unavailable returns the unavailable sentinel.
func Unavailable() Reference {
	return Reference{}
}

// Derive applies the reference price policy:
//
//	bids and asks -> (best bid + best ask) / 2
//	bids only     -> best bid
//	asks only     -> best ask
//	neither       -> unavailable
func Derive(s book.Snapshot) Reference {
	bid, hasBid := s.BestBid()
	ask, hasAsk := s.BestAsk()

	switch {
	case hasBid && hasAsk:
		return Reference{value: bid.Price.Add(ask.Price).Div(two), source: SourceMidpoint}
	case hasBid:
		return Reference{value: bid.Price, source: SourceBestBid}
	case hasAsk:
		return Reference{value: ask.Price, source: SourceBestAsk}
	default:
		return Unavailable()
	}
}

// Value returns the price and whether it is available.
func (r Reference) Value() (decimal.Decimal, bool) {
	return r.value, r.Available()
}

// Available reports whether a price was derived.
func (r Reference) Available() bool {
	return r.source != SourceUnavailable
}

// Source returns the rule that produced the price.
func (r Reference) Source() Source {
	return r.source
}

func (r Reference) String() string {
	if !r.Available() {
		return "unavailable"
	}
	return r.value.String()
}

// MarshalJSON renders an available price as a decimal string and the
// sentinel as null.
func (r Reference) MarshalJSON() ([]byte, error) {
	if !r.Available() {
		return []byte("null"), nil
	}
	return json.Marshal(r.value)
}

// Spread returns best ask minus best bid when both sides are present.
func Spread(s book.Snapshot) (decimal.Decimal, bool) {
	bid, hasBid := s.BestBid()
	ask, hasAsk := s.BestAsk()
	if !hasBid || !hasAsk {
		return decimal.Zero, false
	}
	return ask.Price.Sub(bid.Price), true
}
