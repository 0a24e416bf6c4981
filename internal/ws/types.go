// Package ws streams order books from the Polymarket CLOB market channel.
package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/johan/polymarket-desk/internal/book"
)

// SubscribeMessage is the message sent to subscribe to token updates.
type SubscribeMessage struct {
	AssetsIDs []string `json:"assets_ids"`
	Type      string   `json:"type,omitempty"`
}

// Message is one event from the market channel. Raw keeps the original
// object so book events can be normalized with the same code as REST
// responses.
type Message struct {
	EventType      string        `json:"event_type"`
	Market         string        `json:"market"`
	AssetID        string        `json:"asset_id,omitempty"`
	Timestamp      string        `json:"timestamp"`
	Hash           string        `json:"hash,omitempty"`
	LastTradePrice string        `json:"last_trade_price,omitempty"`
	PriceChanges   []PriceChange `json:"price_changes,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// PriceChange represents a single price level change.
type PriceChange struct {
	AssetID string `json:"asset_id"`
	Price   string `json:"price"`
	Size    string `json:"size"`
	Side    string `json:"side"` // "BUY" or "SELL"
	Hash    string `json:"hash"`
	BestBid string `json:"best_bid"`
	BestAsk string `json:"best_ask"`
}

// EventTypeBook is the event type for a full order book snapshot.
const EventTypeBook = "book"

// EventTypePriceChange is the event type for price level changes.
const EventTypePriceChange = "price_change"

// Snapshot normalizes a book event. receivedAt is used as the fetch time.
func (m *Message) Snapshot(receivedAt time.Time) (book.Snapshot, error) {
	if m.EventType != EventTypeBook {
		return book.Snapshot{}, fmt.Errorf("not a book event: %q", m.EventType)
	}
	return book.Normalize(m.AssetID, m.Raw, receivedAt)
}
