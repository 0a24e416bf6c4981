// Package dashboard runs the resolve, fetch and price loop behind the
// terminal dashboard.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/johan/polymarket-desk/internal/book"
	"github.com/johan/polymarket-desk/internal/clob"
	"github.com/johan/polymarket-desk/internal/config"
	"github.com/johan/polymarket-desk/internal/gamma"
	"github.com/johan/polymarket-desk/internal/pricing"
	"github.com/johan/polymarket-desk/internal/resolver"
	"github.com/johan/polymarket-desk/internal/storage"
	"github.com/johan/polymarket-desk/internal/ws"
)

// Resolver resolves a reference to instruments.
type Resolver interface {
	Resolve(ctx context.Context, ref resolver.Reference, opts resolver.Options) (resolver.Resolution, error)
}

// BookFetcher fetches a normalized book.
type BookFetcher interface {
	Fetch(ctx context.Context, instrumentID string) (book.Result, error)
}

// Stream is a live book feed.
type Stream interface {
	Connect(ctx context.Context) error
	Subscribe(tokenIDs []string) error
	Close() error
}

// Options control what the service watches and how often.
type Options struct {
	Reference       string
	Hourly          *resolver.SlugTemplate
	Outcome         string
	IncludeInactive bool
	RefreshInterval time.Duration
	Stream          bool
	Depth           int
}

// Service polls or streams one instrument's book and renders it.
type Service struct {
	resolver Resolver
	fetcher  BookFetcher
	storage  storage.Storage
	stream   Stream
	out      io.Writer
	opts     Options
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.Mutex
	instrument *resolver.Instrument
	slug       string
}

// NewService wires the service from configuration.
func NewService(cfg *config.Config, out io.Writer, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	gammaClient := gamma.NewClient(&http.Client{Timeout: cfg.Gamma.Timeout}).WithBaseURL(cfg.Gamma.BaseURL)
	clobClient := clob.NewClient(&http.Client{}).WithBaseURL(cfg.Clob.BaseURL)

	stor, err := storage.New(cfg.Storage.Type, cfg.Storage.OutputDir, cfg.Storage.RotationInterval)
	if err != nil {
		return nil, fmt.Errorf("creating storage: %w", err)
	}

	opts := Options{
		Reference:       cfg.Dashboard.Reference,
		Outcome:         cfg.Dashboard.Outcome,
		IncludeInactive: cfg.Resolver.IncludeInactive,
		RefreshInterval: cfg.Dashboard.RefreshInterval,
		Stream:          cfg.Dashboard.Mode == "stream",
		Depth:           cfg.Dashboard.Depth,
	}
	if cfg.Dashboard.Hourly {
		h := cfg.Resolver.Hourly
		tpl, err := resolver.NewSlugTemplate(h.Prefix, h.Timezone, h.Suffix)
		if err != nil {
			stor.Close()
			return nil, err
		}
		opts.Hourly = &tpl
	}
	if opts.Reference == "" && opts.Hourly == nil {
		stor.Close()
		return nil, errors.New("dashboard needs a reference or hourly mode")
	}

	s := newService(
		resolver.New(gammaClient, logger),
		book.NewFetcher(clobClient, cfg.Clob.BookTimeout),
		stor, out, opts, logger,
	)

	if opts.Stream {
		client := ws.NewClient(s.handleMessages).WithLogger(logger)
		if cfg.WebSocket.URL != "" {
			client.WithURL(cfg.WebSocket.URL)
		}
		client.WithReconnectConfig(ws.ReconnectConfig{
			InitialBackoff: cfg.WebSocket.InitialBackoff,
			MaxBackoff:     cfg.WebSocket.MaxBackoff,
			BackoffFactor:  cfg.WebSocket.BackoffFactor,
		})
		s.stream = client
	}

	return s, nil
}

func newService(res Resolver, fetcher BookFetcher, stor storage.Storage, out io.Writer, opts Options, logger *slog.Logger) *Service {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 2 * time.Second
	}
	if opts.Depth <= 0 {
		opts.Depth = 10
	}
	if stor == nil {
		stor = storage.NewNullStorage()
	}
	return &Service{
		resolver: res,
		fetcher:  fetcher,
		storage:  stor,
		out:      out,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Run refreshes until ctx is cancelled. Failures are logged and retried
// on the next tick.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("starting dashboard", "reference", s.opts.Reference, "hourly", s.opts.Hourly != nil,
		"stream", s.opts.Stream, "refresh", s.opts.RefreshInterval)

	if s.stream != nil {
		if err := s.stream.Connect(ctx); err != nil {
			return fmt.Errorf("connecting to websocket: %w", err)
		}
		defer s.stream.Close()
	}

	s.tick(ctx)

	ticker := time.NewTicker(s.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down dashboard")
			return s.storage.Close()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	changed, err := s.ensureInstrument(ctx)
	if err != nil {
		s.logger.Warn("resolution failed, retrying next tick", "error", err)
		return
	}

	inst, ok := s.current()
	if !ok {
		return
	}

	if s.stream != nil {
		if changed {
			if err := s.stream.Subscribe([]string{inst.ID}); err != nil {
				s.logger.Warn("subscribe failed, retrying next tick", "error", err)
				s.clearInstrument()
			}
		}
		return
	}

	if _, err := s.Poll(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn("book refresh failed, retrying next tick", "instrument", inst.ID, "error", err)
	}
}

// Poll fetches, renders and records the current instrument's book once.
func (s *Service) Poll(ctx context.Context) (*storage.Record, error) {
	inst, ok := s.current()
	if !ok {
		return nil, errors.New("no instrument resolved")
	}

	res, err := s.fetcher.Fetch(ctx, inst.ID)
	if err != nil {
		rec := &storage.Record{
			Time:         s.now(),
			InstrumentID: inst.ID,
			Label:        inst.Label,
			Status:       "unavailable",
			Reference:    pricing.Unavailable(),
			Source:       pricing.SourceUnavailable.String(),
			Error:        err.Error(),
		}
		RenderStatus(s.out, inst.Label, "book unavailable")
		s.record(rec)
		return rec, err
	}

	return s.publish(inst, res.Status.String(), res.Snapshot), nil
}

func (s *Service) publish(inst resolver.Instrument, status string, snap book.Snapshot) *storage.Record {
	ref := pricing.Derive(snap)
	bids, asks := snap.Depth(s.opts.Depth)

	rec := &storage.Record{
		Time:         snap.FetchedAt(),
		InstrumentID: inst.ID,
		Label:        inst.Label,
		Status:       status,
		Reference:    ref,
		Source:       ref.Source().String(),
		Bids:         bids,
		Asks:         asks,
	}
	if spread, ok := pricing.Spread(snap); ok {
		rec.Spread = &spread
	}

	if err := Render(s.out, inst, snap, s.opts.Depth); err != nil {
		s.logger.Warn("render failed", "error", err)
	}
	s.record(rec)
	return rec
}

func (s *Service) record(rec *storage.Record) {
	if err := s.storage.Write(rec); err != nil {
		s.logger.Warn("writing record failed", "error", err)
	}
}

// handleMessages renders book events for the watched instrument.
func (s *Service) handleMessages(messages []ws.Message) {
	inst, ok := s.current()
	if !ok {
		return
	}
	for i := range messages {
		msg := &messages[i]
		if msg.EventType != ws.EventTypeBook || msg.AssetID != inst.ID {
			continue
		}
		snap, err := msg.Snapshot(s.now())
		if err != nil {
			s.logger.Warn("dropping book event", "error", err)
			continue
		}
		status := book.StatusReady
		if snap.Empty() {
			status = book.StatusEmpty
		}
		s.publish(inst, status.String(), snap)
	}
}

// ensureInstrument resolves when nothing is selected yet or the hourly
// slug has rolled over. It reports whether the selection changed.
func (s *Service) ensureInstrument(ctx context.Context) (bool, error) {
	ref, stale := s.wanted()
	if !stale {
		return false, nil
	}

	res, err := s.resolver.Resolve(ctx, ref, resolver.Options{IncludeInactive: s.opts.IncludeInactive})
	if err != nil {
		return false, err
	}

	inst, ok := res.First()
	if !ok {
		s.mu.Lock()
		s.instrument = nil
		s.slug = ref.Slug
		s.mu.Unlock()
		RenderStatus(s.out, ref.Raw, "no matching market")
		s.logger.Info("no market matched", "ref", ref.Raw)
		return false, nil
	}
	if len(res.Instruments) > 1 {
		s.logger.Info("several markets matched, watching the first", "ref", ref.Raw, "count", len(res.Instruments))
	}
	if s.opts.Outcome == "no" {
		inst = inst.Complement()
	}

	s.mu.Lock()
	s.instrument = &inst
	s.slug = ref.Slug
	s.mu.Unlock()

	s.logger.Info("watching instrument", "label", inst.Label, "instrument", inst.ID)
	return true, nil
}

// wanted returns the reference to resolve and whether the current
// selection no longer matches it.
func (s *Service) wanted() (resolver.Reference, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.Hourly != nil {
		slug := s.opts.Hourly.Slug(s.now())
		return resolver.SlugReference(slug), s.instrument == nil || s.slug != slug
	}
	return resolver.ParseReference(s.opts.Reference), s.instrument == nil
}

func (s *Service) current() (resolver.Instrument, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.instrument == nil {
		return resolver.Instrument{}, false
	}
	return *s.instrument, true
}

func (s *Service) clearInstrument() {
	s.mu.Lock()
	s.instrument = nil
	s.mu.Unlock()
}

// Close releases the stream and storage.
func (s *Service) Close() error {
	if s.stream != nil {
		s.stream.Close()
	}
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
