package collector

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"RateSentinel/internal/model"
)

// DefaultMockRate is the level the mock source oscillates around.
const DefaultMockRate = 400.0

// MockSource produces deterministic rates without network access. The rate of
// a day depends only on the date, so repeated fetches agree.
type MockSource struct {
	opts Options
	base float64

	mu   sync.Mutex
	name string
	err  error
	hist []model.Observation
}

// NewMockSource creates a mock around rate; rate <= 0 selects DefaultMockRate.
func NewMockSource(opts Options, rate float64) *MockSource {
	if rate <= 0 {
		rate = DefaultMockRate
	}
	return &MockSource{opts: opts, base: rate, name: "mock"}
}

func (s *MockSource) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *MockSource) Description() string { return "Deterministic offline rates for testing" }

// Named renames the source so several mocks can share a registry.
func (s *MockSource) Named(name string) *MockSource {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
	return s
}

// SetErr makes every fetch fail with err until cleared with nil.
func (s *MockSource) SetErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// SetHistory replaces generated history with fixed observations.
func (s *MockSource) SetHistory(obs []model.Observation) {
	s.mu.Lock()
	s.hist = append([]model.Observation(nil), obs...)
	s.mu.Unlock()
}

// RateOn is the generated rate for day d.
func (s *MockSource) RateOn(d time.Time) decimal.Decimal {
	n := float64(model.Day(d).Unix() / 86400)
	v := s.base * (1 + 0.02*math.Sin(n/5))
	return decimal.NewFromFloat(v).Round(4)
}

func (s *MockSource) FetchCurrent(ctx context.Context) (model.Observation, error) {
	if err := s.check(ctx); err != nil {
		return model.Observation{}, err
	}
	now := s.opts.now()
	return model.NewObservation(now, s.RateOn(now), s.Name()), nil
}

func (s *MockSource) FetchHistory(ctx context.Context, from, to time.Time) ([]model.Observation, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	fixed := s.hist
	s.mu.Unlock()

	var out []model.Observation
	if fixed != nil {
		for _, o := range fixed {
			if inRange(o.Date, from, to) {
				out = append(out, o)
			}
		}
		return out, nil
	}
	for d := model.Day(from); !d.After(model.Day(to)); d = d.AddDate(0, 0, 1) {
		out = append(out, model.NewObservation(d, s.RateOn(d), s.Name()))
	}
	return out, nil
}

func (s *MockSource) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return model.Unavailable(s.Name(), err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return model.Unavailable(s.name, s.err)
	}
	return nil
}
