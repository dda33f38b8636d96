// Package session carries the collaborators of a watermarking or attack run.
//
// A Session is constructed once (by the CLI, an experiment or a test) and
// passed explicitly into the injector and the attack simulator. There is no
// package-level logger, settings map or random generator anywhere in the core.
package session

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/graph"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/metrics"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/report"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/sample"
)

// Session bundles the store, logging, results sink, randomness, metrics and
// clock used by one run.
type Session struct {
	Store   graph.Store
	Logger  *slog.Logger
	Results report.Sink
	Rand    sample.Source
	Metrics *metrics.Metrics

	// Now returns the wall time used for timestamps and durations.
	Now func() time.Time

	// NewRunID returns the identifier stamped on each results record.
	NewRunID func() string
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Session) { s.Logger = l } }

// WithResults sets the results sink.
func WithResults(r report.Sink) Option { return func(s *Session) { s.Results = r } }

// WithRand sets the random source.
func WithRand(src sample.Source) Option { return func(s *Session) { s.Rand = src } }

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Session) { s.Metrics = m } }

// WithClock sets the wall clock.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.Now = now } }

// WithRunIDs sets the run id generator.
func WithRunIDs(next func() string) Option { return func(s *Session) { s.NewRunID = next } }

// New creates a Session over store.
//
// Defaults: discarded logs and records, the process-wide random generator,
// fresh metrics, time.Now and UUIDv7 run ids.
func New(store graph.Store, opts ...Option) *Session {
	s := &Session{
		Store:    store,
		Logger:   slog.New(slog.DiscardHandler),
		Results:  report.Discard,
		Rand:     sample.Default(),
		Metrics:  metrics.New(),
		Now:      time.Now,
		NewRunID: NewRunID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRunID returns a time-sortable UUIDv7 string.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Header starts a results record stamped with a fresh run id and the
// current time.
func (s *Session) Header(action report.Action) report.Header {
	return report.Header{
		Action:    action,
		RunID:     s.NewRunID(),
		Timestamp: s.Now().UTC(),
	}
}

// Finish sets the record duration from its start time, appends it to the
// results sink and records run metrics. Append failures are logged and
// returned.
func (s *Session) Finish(r report.Record, state string) error {
	h := r.Head()
	elapsed := s.Now().Sub(h.Timestamp)
	h.Duration = elapsed.Seconds()
	s.Metrics.ObserveRun(string(h.Action), state, elapsed)

	if err := s.Results.Append(r); err != nil {
		s.Logger.Error("failed to append results record", "action", h.Action, "run_id", h.RunID, "error", err)
		return err
	}
	s.Logger.Info("run recorded", "action", h.Action, "run_id", h.RunID, "state", state, "duration", elapsed)
	return nil
}
