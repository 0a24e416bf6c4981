package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrSubmissionRejected matches any *RejectedError.
var ErrSubmissionRejected = errors.New("submission rejected")

// RejectedError reports an order the exchange refused. It is terminal for
// the attempt; a human decides whether to resubmit.
type RejectedError struct {
	ClientID uuid.UUID
	Reason   string
}

func (e *RejectedError) Error() string {
	return "submission rejected: " + e.Reason
}

// Is reports whether target is ErrSubmissionRejected.
func (e *RejectedError) Is(target error) bool {
	return target == ErrSubmissionRejected
}

// Credentials are the API credentials the exchange client derives for a
// wallet. Their contents are opaque here.
type Credentials struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// Args is what the exchange client needs to create and sign an order.
type Args struct {
	TokenID string
	Side    Side
	Price   decimal.Decimal
	Size    decimal.Decimal
}

// SignedOrder is whatever the exchange client produced in CreateOrder. It
// is passed back to PostOrder untouched.
type SignedOrder any

// PostResponse is the exchange's answer to an order post.
type PostResponse struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"orderId,omitempty"`
	ErrorMsg string `json:"errorMsg,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Exchange is the external exchange client. Authentication and signing
// live entirely behind it.
type Exchange interface {
	CreateOrDeriveAPICreds(ctx context.Context) (Credentials, error)
	CreateOrder(ctx context.Context, creds Credentials, args Args) (SignedOrder, error)
	PostOrder(ctx context.Context, creds Credentials, order SignedOrder) (PostResponse, error)
}

// Receipt describes an accepted order.
type Receipt struct {
	ClientID uuid.UUID `json:"client_id"`
	OrderID  string    `json:"order_id"`
	Status   string    `json:"status,omitempty"`
}

// Submitter sends validated requests to an Exchange. It never retries.
type Submitter struct {
	exchange    Exchange
	constraints Constraints
	logger      *slog.Logger
}

// NewSubmitter creates a Submitter. Every request is checked against c
// again before the exchange is contacted, since Request fields can be
// changed after Build.
func NewSubmitter(exchange Exchange, c Constraints, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{exchange: exchange, constraints: c, logger: logger}
}

// Submit creates, signs and posts the order described by req.
func (s *Submitter) Submit(ctx context.Context, req Request) (Receipt, error) {
	if req.ClientID == uuid.Nil {
		return Receipt{}, fmt.Errorf("%w: request was not built by a Builder", ErrInvalidOrderParameters)
	}
	if err := s.constraints.Check(req.InstrumentID, req.Side, req.LimitPrice, req.Size); err != nil {
		return Receipt{}, err
	}

	log := s.logger.With("client_id", req.ClientID, "instrument", req.InstrumentID)

	creds, err := s.exchange.CreateOrDeriveAPICreds(ctx)
	if err != nil {
		return Receipt{}, fmt.Errorf("deriving api credentials: %w", err)
	}

	signed, err := s.exchange.CreateOrder(ctx, creds, Args{
		TokenID: req.InstrumentID,
		Side:    req.Side,
		Price:   req.LimitPrice,
		Size:    req.Size,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("creating order: %w", err)
	}

	log.Info("posting order", "side", req.Side, "price", req.LimitPrice, "size", req.Size)
	resp, err := s.exchange.PostOrder(ctx, creds, signed)
	if err != nil {
		return Receipt{}, fmt.Errorf("posting order: %w", err)
	}

	if !resp.Success {
		reason := resp.ErrorMsg
		if reason == "" {
			reason = "no reason given"
		}
		log.Warn("order rejected", "reason", reason)
		return Receipt{}, &RejectedError{ClientID: req.ClientID, Reason: reason}
	}

	log.Info("order accepted", "order_id", resp.OrderID, "status", resp.Status)
	return Receipt{ClientID: req.ClientID, OrderID: resp.OrderID, Status: resp.Status}, nil
}
