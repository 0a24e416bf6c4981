package book

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// ErrMalformedBook is returned when a payload is not a JSON book object.
var ErrMalformedBook = errors.New("malformed order book payload")

var one = decimal.NewFromInt(1)

// Normalize parses a raw /book (or websocket "book" event) payload.
// Prices and sizes may be JSON strings or numbers. Levels with a
// non-numeric field, a non-positive size or a price outside (0, 1) are
// dropped. instrumentID overrides the payload's asset_id when non-empty.
func Normalize(instrumentID string, raw []byte, fetchedAt time.Time) (Snapshot, error) {
	if !gjson.ValidBytes(raw) {
		return Snapshot{}, ErrMalformedBook
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return Snapshot{}, ErrMalformedBook
	}

	bids, err := parseSide(doc.Get("bids"))
	if err != nil {
		return Snapshot{}, err
	}
	asks, err := parseSide(doc.Get("asks"))
	if err != nil {
		return Snapshot{}, err
	}

	if instrumentID == "" {
		instrumentID = doc.Get("asset_id").String()
	}

	s := NewSnapshot(instrumentID, bids, asks, fetchedAt)
	s.market = doc.Get("market").String()
	s.hash = doc.Get("hash").String()
	s.tickSize, _ = toDecimal(doc.Get("tick_size"))
	s.minOrderSize, _ = toDecimal(doc.Get("min_order_size"))
	s.lastTradePrice, _ = toDecimal(doc.Get("last_trade_price"))
	return s, nil
}

func parseSide(side gjson.Result) ([]Level, error) {
	if !side.Exists() || side.Type == gjson.Null {
		return nil, nil
	}
	if !side.IsArray() {
		return nil, ErrMalformedBook
	}

	var levels []Level
	side.ForEach(func(_, v gjson.Result) bool {
		price, ok := toDecimal(v.Get("price"))
		if !ok || !price.IsPositive() || price.GreaterThanOrEqual(one) {
			return true
		}
		size, ok := toDecimal(v.Get("size"))
		if !ok || !size.IsPositive() {
			return true
		}
		levels = append(levels, Level{Price: price, Size: size})
		return true
	})
	return levels, nil
}

func toDecimal(r gjson.Result) (decimal.Decimal, bool) {
	var s string
	switch r.Type {
	case gjson.String:
		s = strings.TrimSpace(r.Str)
	case gjson.Number:
		s = r.Raw
	default:
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
