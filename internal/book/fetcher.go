package book

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/johan/polymarket-desk/internal/clob"
)

// MaxTimeout bounds a single book fetch; the book feeds a live display.
const MaxTimeout = 5 * time.Second

var (
	// ErrBookUnavailable wraps transport, timeout and decoding failures.
	// Callers may retry.
	ErrBookUnavailable = errors.New("book unavailable")

	// ErrInvalidInstrument is returned for an empty instrument id.
	ErrInvalidInstrument = errors.New("instrument id is required")
)

// Status distinguishes a populated book from a legitimately empty one.
type Status int

const (
	StatusReady Status = iota + 1
	StatusEmpty
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Result is the outcome of a successful fetch. Snapshot is always set;
// for StatusEmpty both of its sides are empty.
type Result struct {
	Status   Status
	Snapshot Snapshot
}

// Source returns a raw book payload. *clob.Client satisfies it.
type Source interface {
	FetchBook(ctx context.Context, tokenID string) (json.RawMessage, error)
}

// Fetcher retrieves and normalizes books.
type Fetcher struct {
	source  Source
	timeout time.Duration
	now     func() time.Time
}

// NewFetcher creates a Fetcher. A timeout that is zero or above MaxTimeout
// is replaced by MaxTimeout.
func NewFetcher(source Source, timeout time.Duration) *Fetcher {
	if timeout <= 0 || timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	return &Fetcher{
		source:  source,
		timeout: timeout,
		now:     time.Now,
	}
}

// Fetch retrieves the book for instrumentID.
func (f *Fetcher) Fetch(ctx context.Context, instrumentID string) (Result, error) {
	instrumentID = strings.TrimSpace(instrumentID)
	if instrumentID == "" {
		return Result{}, ErrInvalidInstrument
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	raw, err := f.source.FetchBook(ctx, instrumentID)
	if err != nil {
		if errors.Is(err, clob.ErrNoOrderBook) {
			return Result{Status: StatusEmpty, Snapshot: emptySnapshot(instrumentID, f.now())}, nil
		}
		return Result{}, fmt.Errorf("%w: %w", ErrBookUnavailable, err)
	}

	snap, err := Normalize(instrumentID, raw, f.now())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrBookUnavailable, err)
	}

	if snap.Empty() {
		return Result{Status: StatusEmpty, Snapshot: snap}, nil
	}
	return Result{Status: StatusReady, Snapshot: snap}, nil
}
