package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"RateSentinel/internal/metrics"
	"RateSentinel/internal/model"
)

// DefaultTimeout bounds one source attempt.
const DefaultTimeout = 10 * time.Second

// Mode selects which sources a fetch may use.
type Mode string

// Auto tries every source in priority order.
const Auto Mode = "auto"

// ParseMode maps a CLI selector to a Mode. Empty means Auto.
func ParseMode(s string) Mode {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Auto
	}
	return Mode(s)
}

func (m Mode) IsAuto() bool { return m == Auto }

// Registry is the ordered list of sources that drives fallback.
type Registry struct {
	sources  []Source
	timeout  time.Duration
	breakers *BreakerSet
	metrics  *metrics.Recorder

	// catalog is set by Build; explicit modes may then name any registered source.
	catalog *Options
	mu      sync.Mutex
	extra   map[string]Source
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithBreakers routes every attempt through per-source circuit breakers.
func WithBreakers(b *BreakerSet) RegistryOption {
	return func(r *Registry) { r.breakers = b }
}

// WithMetrics records attempt outcomes.
func WithMetrics(m *metrics.Recorder) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

func withCatalog(opts Options) RegistryOption {
	return func(r *Registry) { r.catalog = &opts }
}

// NewRegistry keeps sources in the given priority order.
func NewRegistry(sources []Source, opts ...RegistryOption) *Registry {
	r := &Registry{sources: sources, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Names returns the source names in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

func (r *Registry) candidates(mode Mode) ([]Source, error) {
	if mode.IsAuto() {
		if len(r.sources) == 0 {
			return nil, errors.New("no sources configured")
		}
		return r.sources, nil
	}
	for _, s := range r.sources {
		if s.Name() == string(mode) {
			return []Source{s}, nil
		}
	}
	if s, ok := r.onDemand(string(mode)); ok {
		return []Source{s}, nil
	}
	known := r.Names()
	if r.catalog != nil {
		known = registeredNames()
	}
	return nil, fmt.Errorf("unknown source %q (available: %s)", mode, strings.Join(known, ", "))
}

// onDemand builds a registered source left out of the priority list. It is
// cached so breaker state and mock overrides survive between calls.
func (r *Registry) onDemand(name string) (Source, bool) {
	if r.catalog == nil {
		return nil, false
	}
	factory, ok := factories[name]
	if !ok {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.extra[name]; ok {
		return s, true
	}
	if r.extra == nil {
		r.extra = make(map[string]Source)
	}
	s := factory(*r.catalog)
	r.extra[name] = s
	return s, true
}

// FetchFirstSuccess returns the current rate.
//
// In explicit mode only the named source is tried and its failure is returned as is.
// In auto mode sources are tried in order; the first success wins and, when all
// fail, the error is an *model.AllSourcesExhaustedError with every reason.
func (r *Registry) FetchFirstSuccess(ctx context.Context, mode Mode) (model.Observation, error) {
	var obs model.Observation
	err := r.run(ctx, mode, "current", func(ctx context.Context, s Source) error {
		o, err := s.FetchCurrent(ctx)
		if err != nil {
			return err
		}
		if o.Source == "" {
			o.Source = s.Name()
		}
		o.Date = model.Day(o.Date)
		obs = o
		return nil
	})
	return obs, err
}

// FetchHistoryFirstSuccess returns daily rates in [from, to] from the first source
// that yields at least one observation.
func (r *Registry) FetchHistoryFirstSuccess(ctx context.Context, mode Mode, from, to time.Time) ([]model.Observation, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s is after %s", model.ErrInvalidDateRange,
			from.Format(model.DateLayout), to.Format(model.DateLayout))
	}
	var out []model.Observation
	err := r.run(ctx, mode, "history", func(ctx context.Context, s Source) error {
		obs, err := s.FetchHistory(ctx, from, to)
		if err != nil {
			return err
		}
		if len(obs) == 0 && mode.IsAuto() {
			return model.Unavailable(s.Name(), errors.New("no observations in range"))
		}
		for i := range obs {
			if obs[i].Source == "" {
				obs[i].Source = s.Name()
			}
		}
		out = obs
		return nil
	})
	return out, err
}

func (r *Registry) run(ctx context.Context, mode Mode, kind string, attempt func(context.Context, Source) error) error {
	sources, err := r.candidates(mode)
	if err != nil {
		return err
	}

	var failures []model.SourceFailure
	for _, s := range sources {
		err := r.attempt(ctx, s, kind, attempt)
		if err == nil {
			log.Info().Str("source", s.Name()).Str("kind", kind).Msg("fetched rate")
			return nil
		}
		if !mode.IsAuto() {
			return err
		}
		log.Warn().Str("source", s.Name()).Str("kind", kind).Err(err).Msg("source failed, trying next")
		failures = append(failures, model.SourceFailure{Source: s.Name(), Err: err})
		if ctx.Err() != nil {
			break
		}
	}
	return &model.AllSourcesExhaustedError{Failures: failures}
}

func (r *Registry) attempt(ctx context.Context, s Source, kind string, fn func(context.Context, Source) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	call := func() error { return fn(ctx, s) }
	var err error
	if r.breakers != nil {
		err = r.breakers.Execute(s.Name(), call)
	} else {
		err = call()
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		err = model.Unavailable(s.Name(), err)
	}
	r.metrics.RecordFetch(s.Name(), kind, outcome, time.Since(start).Seconds())
	return err
}
