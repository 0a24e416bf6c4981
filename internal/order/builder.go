// Package order validates limit-order parameters and hands the resulting
// request to an external exchange client.
package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/johan/polymarket-desk/internal/book"
)

// ErrInvalidOrderParameters is returned before any network call when a
// request fails local validation.
var ErrInvalidOrderParameters = errors.New("invalid order parameters")

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("%w: unknown side %q", ErrInvalidOrderParameters, s)
	}
}

// Constraints are the exchange limits an order must satisfy. MinPrice and
// MaxPrice are exclusive. A zero TickSize disables the tick check; size
// must always be positive and at least MinSize.
type Constraints struct {
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
	TickSize decimal.Decimal
	MinSize  decimal.Decimal
}

// DefaultConstraints returns the Polymarket binary-outcome limits.
func DefaultConstraints() Constraints {
	return Constraints{
		MinPrice: decimal.Zero,
		MaxPrice: decimal.NewFromInt(1),
		TickSize: decimal.RequireFromString("0.01"),
		MinSize:  decimal.Zero,
	}
}

// ForBook returns a copy tightened by the tick and minimum size the
// exchange reported with a book.
func (c Constraints) ForBook(s book.Snapshot) Constraints {
	if tick := s.TickSize(); tick.IsPositive() {
		c.TickSize = tick
	}
	if minSize := s.MinOrderSize(); minSize.GreaterThan(c.MinSize) {
		c.MinSize = minSize
	}
	return c
}

// Request is a validated limit order. ClientID is unique per Build call
// and identifies the attempt in logs.
type Request struct {
	ClientID     uuid.UUID       `json:"client_id"`
	InstrumentID string          `json:"instrument_id"`
	Side         Side            `json:"side"`
	LimitPrice   decimal.Decimal `json:"limit_price"`
	Size         decimal.Decimal `json:"size"`
}

// Builder constructs Requests under a fixed set of constraints.
type Builder struct {
	constraints Constraints
}

// NewBuilder creates a Builder.
func NewBuilder(c Constraints) *Builder {
	return &Builder{constraints: c}
}

// Constraints returns the limits the builder enforces.
func (b *Builder) Constraints() Constraints {
	return b.constraints
}

// Build validates the parameters and returns a fresh Request.
func (b *Builder) Build(instrumentID string, side Side, price, size decimal.Decimal) (Request, error) {
	instrumentID = strings.TrimSpace(instrumentID)
	if err := b.constraints.Check(instrumentID, side, price, size); err != nil {
		return Request{}, err
	}

	return Request{
		ClientID:     uuid.New(),
		InstrumentID: instrumentID,
		Side:         side,
		LimitPrice:   price,
		Size:         size,
	}, nil
}

// Check reports whether the parameters satisfy c. Every failure wraps
// ErrInvalidOrderParameters.
func (c Constraints) Check(instrumentID string, side Side, price, size decimal.Decimal) error {
	if strings.TrimSpace(instrumentID) == "" {
		return fmt.Errorf("%w: instrument id is required", ErrInvalidOrderParameters)
	}
	if side != Buy && side != Sell {
		return fmt.Errorf("%w: unknown side %q", ErrInvalidOrderParameters, side)
	}
	if price.LessThanOrEqual(c.MinPrice) || price.GreaterThanOrEqual(c.MaxPrice) {
		return fmt.Errorf("%w: price %s not in (%s, %s)",
			ErrInvalidOrderParameters, price, c.MinPrice, c.MaxPrice)
	}
	if c.TickSize.IsPositive() && !price.Mod(c.TickSize).IsZero() {
		return fmt.Errorf("%w: price %s is not a multiple of tick %s",
			ErrInvalidOrderParameters, price, c.TickSize)
	}
	if !size.IsPositive() {
		return fmt.Errorf("%w: size %s must be positive", ErrInvalidOrderParameters, size)
	}
	if size.LessThan(c.MinSize) {
		return fmt.Errorf("%w: size %s below minimum %s",
			ErrInvalidOrderParameters, size, c.MinSize)
	}
	return nil
}
