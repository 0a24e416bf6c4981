// Package storage records dashboard ticks.
package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/johan/polymarket-desk/internal/book"
	"github.com/johan/polymarket-desk/internal/pricing"
)

// Record is one observation of an instrument's book.
type Record struct {
	Time         time.Time         `json:"time"`
	InstrumentID string            `json:"instrument_id"`
	Label        string            `json:"label,omitempty"`
	Status       string            `json:"status"`
	Reference    pricing.Reference `json:"reference"`
	Source       string            `json:"source"`
	Spread       *decimal.Decimal  `json:"spread,omitempty"`
	Bids         []book.Level      `json:"bids,omitempty"`
	Asks         []book.Level      `json:"asks,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Storage defines the interface for storing records.
type Storage interface {
	// Write appends a record.
	Write(rec *Record) error

	// Close closes the storage backend.
	Close() error
}

// New returns the backend named by kind: "file" or "none".
func New(kind, outputDir string, rotationInterval time.Duration) (Storage, error) {
	switch kind {
	case "file":
		return NewFileStorage(outputDir, rotationInterval)
	case "none", "":
		return NewNullStorage(), nil
	default:
		return nil, &UnknownTypeError{Type: kind}
	}
}

// UnknownTypeError is returned by New for an unsupported backend.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return "unknown storage type: " + e.Type
}

// NullStorage is a no-op storage that discards all data.
type NullStorage struct{}

// NewNullStorage creates a new null storage.
func NewNullStorage() *NullStorage {
	return &NullStorage{}
}

// Write does nothing.
func (s *NullStorage) Write(rec *Record) error {
	return nil
}

// Close does nothing.
func (s *NullStorage) Close() error {
	return nil
}
