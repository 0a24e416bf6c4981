// Package resolver maps URLs, slugs and search keywords to tradable
// Polymarket instruments via the Gamma discovery API.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/johan/polymarket-desk/internal/gamma"
)

// ErrResolutionUnavailable means discovery could not be reached or
// answered with something unusable. It is distinct from a resolution that
// legitimately matched nothing.
var ErrResolutionUnavailable = errors.New("resolution unavailable")

// Discovery is the subset of the Gamma client the resolver needs.
type Discovery interface {
	FetchEvents(ctx context.Context, filter *gamma.Filter) ([]gamma.Event, error)
	FetchMarkets(ctx context.Context, filter *gamma.Filter) ([]gamma.Market, error)
	Search(ctx context.Context, query string) (*gamma.SearchResult, error)
}

// Instrument is the affirmative side of one binary market. The negative
// side is reachable through Complement.
type Instrument struct {
	ID             string    `json:"id"`
	Label          string    `json:"label"`
	ParentMarketID string    `json:"parent_market_id"`
	Active         bool      `json:"active"`
	Question       string    `json:"question"`
	Outcome        string    `json:"outcome"`
	MarketSlug     string    `json:"market_slug,omitempty"`
	EventSlug      string    `json:"event_slug,omitempty"`
	EndDate        time.Time `json:"end_date,omitzero"`

	ComplementID      string `json:"complement_id"`
	ComplementOutcome string `json:"complement_outcome"`
}

// Complement returns the instrument for the opposite outcome of the same
// market.
func (i Instrument) Complement() Instrument {
	c := i
	c.ID, c.ComplementID = i.ComplementID, i.ID
	c.Outcome, c.ComplementOutcome = i.ComplementOutcome, i.Outcome
	c.Label = label(i.Question, c.Outcome)
	return c
}

// Skipped records a market that was dropped during resolution.
type Skipped struct {
	MarketID string `json:"market_id"`
	Slug     string `json:"slug,omitempty"`
	Reason   string `json:"reason"`
}

// Resolution is the outcome of one Resolve call. Instruments are in the
// order discovery returned them.
type Resolution struct {
	Query       Reference    `json:"-"`
	Slug        string       `json:"slug,omitempty"`
	Instruments []Instrument `json:"instruments"`
	Skipped     []Skipped    `json:"skipped,omitempty"`
}

// Empty reports whether nothing resolved.
func (r Resolution) Empty() bool {
	return len(r.Instruments) == 0
}

// First returns the first instrument, for callers that want to
// auto-select.
func (r Resolution) First() (Instrument, bool) {
	if r.Empty() {
		return Instrument{}, false
	}
	return r.Instruments[0], true
}

// Options tune a single resolution.
type Options struct {
	// IncludeInactive keeps inactive and closed markets, for inspection.
	IncludeInactive bool
}

// Resolver resolves references against a Discovery service.
type Resolver struct {
	discovery Discovery
	logger    *slog.Logger
}

// New creates a Resolver.
func New(discovery Discovery, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{discovery: discovery, logger: logger}
}

// Resolve looks ref up and returns every matching instrument. A
// resolution with no instruments is not an error.
func (r *Resolver) Resolve(ctx context.Context, ref Reference, opts Options) (Resolution, error) {
	res := Resolution{Query: ref, Slug: ref.Slug}

	var markets []sourcedMarket
	switch ref.Kind {
	case KindSearch:
		if ref.Query == "" {
			return res, nil
		}
		result, err := r.discovery.Search(ctx, ref.Query)
		if err != nil {
			return res, fmt.Errorf("%w: searching %q: %w", ErrResolutionUnavailable, ref.Query, err)
		}
		if result != nil {
			markets = flattenEvents(result.Events)
		}

	case KindSlug, KindURL:
		if ref.Slug == "" {
			return res, nil
		}
		var err error
		markets, err = r.lookupSlug(ctx, ref.Slug)
		if err != nil {
			return res, err
		}

	default:
		return res, fmt.Errorf("unknown reference kind %d", ref.Kind)
	}

	for _, sm := range markets {
		m := sm.market
		if !opts.IncludeInactive && (!m.Active || m.Closed) {
			continue
		}

		inst, err := instrumentFor(m, sm.eventSlug)
		if err != nil {
			r.logger.Warn("skipping market", "market_id", m.ID, "slug", m.Slug, "error", err)
			res.Skipped = append(res.Skipped, Skipped{MarketID: m.ID, Slug: m.Slug, Reason: err.Error()})
			continue
		}
		res.Instruments = append(res.Instruments, inst)
	}

	r.logger.Debug("resolved reference",
		"kind", ref.Kind, "ref", ref.Raw, "instruments", len(res.Instruments), "skipped", len(res.Skipped))
	return res, nil
}

type sourcedMarket struct {
	market    gamma.Market
	eventSlug string
}

// lookupSlug tries the slug as an event slug first and falls back to a
// market slug, since both kinds appear in polymarket.com URLs.
func (r *Resolver) lookupSlug(ctx context.Context, slug string) ([]sourcedMarket, error) {
	events, err := r.discovery.FetchEvents(ctx, &gamma.Filter{Slug: slug})
	if err != nil {
		return nil, fmt.Errorf("%w: fetching event %q: %w", ErrResolutionUnavailable, slug, err)
	}
	if len(events) > 0 {
		return flattenEvents(events), nil
	}

	markets, err := r.discovery.FetchMarkets(ctx, &gamma.Filter{Slug: slug})
	if err != nil {
		return nil, fmt.Errorf("%w: fetching market %q: %w", ErrResolutionUnavailable, slug, err)
	}

	out := make([]sourcedMarket, 0, len(markets))
	for _, m := range markets {
		var eventSlug string
		if len(m.Events) > 0 {
			eventSlug = m.Events[0].Slug
		}
		out = append(out, sourcedMarket{market: m, eventSlug: eventSlug})
	}
	return out, nil
}

func flattenEvents(events []gamma.Event) []sourcedMarket {
	var out []sourcedMarket
	for _, e := range events {
		for _, m := range e.Markets {
			out = append(out, sourcedMarket{market: m, eventSlug: e.Slug})
		}
	}
	return out
}

func instrumentFor(m gamma.Market, eventSlug string) (Instrument, error) {
	ids, err := m.ParseTokenIDs()
	if err != nil {
		return Instrument{}, fmt.Errorf("malformed clobTokenIds: %w", err)
	}
	if len(ids) != 2 {
		return Instrument{}, fmt.Errorf("expected 2 token ids, got %d", len(ids))
	}
	if ids[0] == "" || ids[1] == "" {
		return Instrument{}, errors.New("empty token id")
	}

	yes, no := "Yes", "No"
	if outcomes, err := m.ParseOutcomes(); err == nil && len(outcomes) == 2 {
		yes, no = outcomes[0], outcomes[1]
	}

	return Instrument{
		ID:                ids[0],
		Label:             label(m.Question, yes),
		ParentMarketID:    m.ID,
		Active:            m.Active && !m.Closed,
		Question:          m.Question,
		Outcome:           yes,
		MarketSlug:        m.Slug,
		EventSlug:         eventSlug,
		EndDate:           m.EndDate,
		ComplementID:      ids[1],
		ComplementOutcome: no,
	}, nil
}

func label(question, outcome string) string {
	if question == "" {
		return outcome
	}
	return question + " [" + outcome + "]"
}
