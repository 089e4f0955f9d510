package collector

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerConfig controls when a source is skipped after repeated failures.
type BreakerConfig struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// DefaultBreakerConfig trips after three failures in a row and retries after 30 minutes.
var DefaultBreakerConfig = BreakerConfig{ConsecutiveFailures: 3, OpenTimeout: 30 * time.Minute}

// BreakerSet keeps one circuit breaker per source. While a breaker is open the
// source fails fast, which the registry treats like any other unavailability.
type BreakerSet struct {
	cfg      BreakerConfig
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewBreakerSet(cfg BreakerConfig) *BreakerSet {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultBreakerConfig.ConsecutiveFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultBreakerConfig.OpenTimeout
	}
	return &BreakerSet{cfg: cfg, breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

func (b *BreakerSet) get(name string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.breakers[name]
	if !ok {
		threshold := b.cfg.ConsecutiveFailures
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     b.cfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		})
		b.breakers[name] = cb
	}
	return cb
}

// Execute runs fn through the named breaker.
func (b *BreakerSet) Execute(name string, fn func() error) error {
	_, err := b.get(name).Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// State reports the breaker state of a source ("closed" for unknown sources).
func (b *BreakerSet) State(name string) string {
	return b.get(name).State().String()
}
