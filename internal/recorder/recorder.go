package recorder

import (
	"fmt"
	"sort"
	"time"

	"RateSentinel/internal/model"
)

// Store is the append-only ledger of rate observations.
//
// Append never rejects duplicates; Load resolves them per date, last append wins.
// AppendRange only appends observations strictly newer than the latest stored date,
// so repeating a catch-up fetch appends nothing.
type Store interface {
	EnsureInitialized() error
	Append(obs model.Observation) error
	AppendRange(obs []model.Observation) (int, error)
	Load() (model.TimeSeries, error)
	Close() error
}

// Open builds the store for the configured backend ("csv", "sqlite" or "memory").
func Open(backend, path string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch backend {
	case "", "csv":
		s = NewCSVStore(path)
	case "sqlite":
		s, err = NewSQLiteStore(path)
	case "memory":
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
	if err != nil {
		return nil, err
	}
	if err := s.EnsureInitialized(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// newerThan keeps the observations dated after max, one per date (the last given),
// in ascending date order.
func newerThan(max time.Time, obs []model.Observation) []model.Observation {
	latest := make(map[time.Time]model.Observation, len(obs))
	for _, o := range obs {
		o.Date = model.Day(o.Date)
		if !o.Date.After(max) {
			continue
		}
		latest[o.Date] = o
	}
	out := make([]model.Observation, 0, len(latest))
	for _, o := range latest {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func validate(o model.Observation) error {
	if o.Date.IsZero() {
		return fmt.Errorf("observation has no date")
	}
	if !o.Rate.IsPositive() {
		return fmt.Errorf("observation rate %s is not positive", o.Rate)
	}
	return nil
}

func sourceOrUnknown(s string) string {
	if s == "" {
		return model.UnknownSource
	}
	return s
}
