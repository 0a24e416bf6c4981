// Package gamma provides a client for the Polymarket Gamma discovery API.
package gamma

import (
	"encoding/json"
	"time"
)

// Event represents a prediction market event. Events group one or more
// markets and are what a polymarket.com/event/<slug> URL points at.
type Event struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Active     bool      `json:"active"`
	Closed     bool      `json:"closed"`
	StartDate  time.Time `json:"startDate,omitempty"`
	EndDate    time.Time `json:"endDate,omitempty"`
	Volume24hr float64   `json:"volume24hr"`
	Liquidity  float64   `json:"liquidity"`
	Markets    []Market  `json:"markets,omitempty"`
	Tags       []Tag     `json:"tags,omitempty"`
}

// Tag represents a tag on an event or market.
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// Market represents a binary prediction market.
type Market struct {
	ID              string    `json:"id"`
	Question        string    `json:"question"`
	ConditionID     string    `json:"conditionId"`
	Slug            string    `json:"slug"`
	Active          bool      `json:"active"`
	Closed          bool      `json:"closed"`
	AcceptingOrders bool      `json:"acceptingOrders"`
	LiquidityNum    float64   `json:"liquidityNum"`
	Volume24hr      float64   `json:"volume24hr"`
	EndDate         time.Time `json:"endDate,omitempty"`

	// These fields are JSON strings that need secondary parsing
	ClobTokenIds  string `json:"clobTokenIds"`  // JSON array as string
	OutcomePrices string `json:"outcomePrices"` // JSON array as string
	Outcomes      string `json:"outcomes"`      // JSON array as string

	Events []Event `json:"events,omitempty"`
}

// ParseTokenIDs parses the ClobTokenIds JSON string into a slice of token IDs.
func (m *Market) ParseTokenIDs() ([]string, error) {
	return parseStringArray(m.ClobTokenIds)
}

// ParseOutcomes parses the Outcomes JSON string into a slice of outcome names.
func (m *Market) ParseOutcomes() ([]string, error) {
	return parseStringArray(m.Outcomes)
}

// ParseOutcomePrices parses the OutcomePrices JSON string into a slice of prices.
func (m *Market) ParseOutcomePrices() ([]string, error) {
	return parseStringArray(m.OutcomePrices)
}

func parseStringArray(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchResult is the payload of the public-search endpoint.
type SearchResult struct {
	Events []Event `json:"events"`
	Tags   []Tag   `json:"tags,omitempty"`
}

// Filter contains query parameters for list requests.
type Filter struct {
	Active  *bool
	Closed  *bool
	TagSlug string
	Slug    string
	Limit   int
	Offset  int
}
