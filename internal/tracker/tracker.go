// Package tracker is the application service behind every CLI command: it ties
// the source registry, the store and the analysis packages together.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"RateSentinel/internal/collector"
	"RateSentinel/internal/comparator"
	"RateSentinel/internal/metrics"
	"RateSentinel/internal/model"
	"RateSentinel/internal/recorder"
	"RateSentinel/internal/strategy"
)

// Tracker fetches, stores and analyses one currency pair.
type Tracker struct {
	Base   string
	Target string

	registry *collector.Registry
	store    recorder.Store
	metrics  *metrics.Recorder
	textfile string
	now      func() time.Time
}

// Option customises a Tracker.
type Option func(*Tracker)

// WithMetrics records store activity in m and flushes it to textfile after each write.
func WithMetrics(m *metrics.Recorder, textfile string) Option {
	return func(t *Tracker) {
		t.metrics = m
		t.textfile = textfile
	}
}

// WithClock overrides the clock used for default date ranges.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func New(base, target string, reg *collector.Registry, store recorder.Store, opts ...Option) *Tracker {
	t := &Tracker{Base: base, Target: target, registry: reg, store: store, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Pair formats the tracked pair, e.g. "EUR/HUF".
func (t *Tracker) Pair() string { return t.Base + "/" + t.Target }

// Fetch acquires the current rate and appends it to the store.
func (t *Tracker) Fetch(ctx context.Context, mode collector.Mode) (model.Observation, error) {
	obs, err := t.registry.FetchFirstSuccess(ctx, mode)
	if err != nil {
		return model.Observation{}, err
	}
	if err := t.store.Append(obs); err != nil {
		return model.Observation{}, fmt.Errorf("append observation: %w", err)
	}
	log.Info().
		Str("pair", t.Pair()).
		Str("source", obs.Source).
		Str("date", obs.Date.Format(model.DateLayout)).
		Str("rate", obs.Rate.String()).
		Msg("observation recorded")

	t.metrics.RecordAppended(obs.Source, 1)
	t.metrics.RecordLastRate(t.Pair(), obs.Source, obs.Float())
	t.flushMetrics()
	return obs, nil
}

// BackfillResult summarises one history catch-up.
type BackfillResult struct {
	From     time.Time
	To       time.Time
	Fetched  int
	Appended int
	Source   string
	// UpToDate is set when the store already covers the requested range.
	UpToDate bool
}

// Backfill fetches history for [from, to] and appends the days newer than the
// latest stored date. A zero from means the day after the latest stored date;
// a zero to means today.
func (t *Tracker) Backfill(ctx context.Context, mode collector.Mode, from, to time.Time) (*BackfillResult, error) {
	series, err := t.store.Load()
	if err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = t.now()
	}
	to = model.Day(to)
	if from.IsZero() {
		if series.Empty() {
			return nil, fmt.Errorf("%w: store is empty, a start date is required", model.ErrInvalidDateRange)
		}
		from = series.MaxDate().AddDate(0, 0, 1)
	}
	from = model.Day(from)

	res := &BackfillResult{From: from, To: to}
	if from.After(to) {
		res.UpToDate = true
		log.Info().Str("pair", t.Pair()).Str("latest", series.MaxDate().Format(model.DateLayout)).Msg("store is up to date")
		return res, nil
	}

	obs, err := t.registry.FetchHistoryFirstSuccess(ctx, mode, from, to)
	if err != nil {
		return nil, err
	}
	res.Fetched = len(obs)
	if len(obs) > 0 {
		res.Source = obs[0].Source
	}

	n, err := t.store.AppendRange(obs)
	if err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	res.Appended = n
	log.Info().
		Str("pair", t.Pair()).
		Str("source", res.Source).
		Str("from", from.Format(model.DateLayout)).
		Str("to", to.Format(model.DateLayout)).
		Int("fetched", res.Fetched).
		Int("appended", n).
		Msg("backfill complete")

	if n > 0 {
		t.metrics.RecordAppended(res.Source, n)
		last := obs[len(obs)-1]
		t.metrics.RecordLastRate(t.Pair(), last.Source, last.Float())
		t.flushMetrics()
	}
	return res, nil
}

// Series loads the stored series labelled with the tracked pair.
func (t *Tracker) Series() (model.TimeSeries, error) {
	series, err := t.store.Load()
	if err != nil {
		return model.TimeSeries{}, err
	}
	series.Base, series.Target = t.Base, t.Target
	return series, nil
}

// Recommend runs the named strategy over the stored series.
func (t *Tracker) Recommend(name string, p strategy.Params) (*model.Signal, error) {
	s, err := strategy.New(name, p)
	if err != nil {
		return nil, err
	}
	series, err := t.Series()
	if err != nil {
		return nil, err
	}
	sig, err := s.Compute(series)
	if err != nil {
		return nil, err
	}
	if sig.LowConfidence {
		log.Warn().Str("strategy", sig.Strategy).Int("observations", sig.Observations).Msg("signal computed on fewer observations than the window")
	}
	return sig, nil
}

// Compare resolves two windows over the stored series.
func (t *Tracker) Compare(w1, w2 model.Window) (*model.ComparisonResult, error) {
	series, err := t.Series()
	if err != nil {
		return nil, err
	}
	if series.Empty() {
		return nil, fmt.Errorf("%w: no stored observations", model.ErrInsufficientData)
	}
	return comparator.Compare(series, w1, w2)
}

// Sources lists the configured sources in fallback order.
func (t *Tracker) Sources() []string { return t.registry.Names() }

// ListSources enumerates every source the binary knows about.
func ListSources() []collector.Info { return collector.Available() }

// ListStrategies enumerates every registered strategy.
func ListStrategies() []strategy.Info { return strategy.List() }

func (t *Tracker) flushMetrics() {
	if err := t.metrics.WriteTextfile(t.textfile); err != nil {
		log.Warn().Err(err).Msg("metrics textfile not written")
	}
}
