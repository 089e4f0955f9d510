package recorder

import (
	"sync"

	"RateSentinel/internal/model"
)

// MemoryStore keeps the log in process memory. Used for tests and dry runs.
type MemoryStore struct {
	mu  sync.Mutex
	log []model.Observation
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) EnsureInitialized() error { return nil }

func (m *MemoryStore) Append(obs model.Observation) error {
	if err := validate(obs); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obs.Date = model.Day(obs.Date)
	obs.Source = sourceOrUnknown(obs.Source)
	m.log = append(m.log, obs)
	return nil
}

func (m *MemoryStore) AppendRange(obs []model.Observation) (int, error) {
	for _, o := range obs {
		if err := validate(o); err != nil {
			return 0, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fresh := newerThan(model.BuildSeries(m.log).MaxDate(), obs)
	for _, o := range fresh {
		o.Source = sourceOrUnknown(o.Source)
		m.log = append(m.log, o)
	}
	return len(fresh), nil
}

func (m *MemoryStore) Load() (model.TimeSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.BuildSeries(append([]model.Observation(nil), m.log...)), nil
}

// Rows returns the raw log length, duplicates included.
func (m *MemoryStore) Rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.log)
}

func (m *MemoryStore) Close() error { return nil }
