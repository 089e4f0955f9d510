package strategy

import (
	"fmt"

	"RateSentinel/internal/calculator"
	"RateSentinel/internal/model"
)

// DefaultCrossoverWindow is the long window used when none is given.
const DefaultCrossoverWindow = 21

// Crossover compares a short moving average against a long one.
// A short average above the long one means the rate is rising into expensive
// territory (SELL); below means BUY. With fewer than Long observations the long
// average falls back to all data and the signal is LowConfidence.
type Crossover struct {
	Short int
	Long  int
}

// NewCrossover defaults Long to 21 and Short to a third of Long.
func NewCrossover(short, long int) *Crossover {
	if long <= 0 {
		long = DefaultCrossoverWindow
	}
	if short <= 0 || short >= long {
		short = long / 3
	}
	if short < 1 {
		short = 1
	}
	return &Crossover{Short: short, Long: long}
}

func (c *Crossover) Name() string { return "ma-cross" }

func (c *Crossover) Description() string {
	return "Short vs long moving average crossover (short above long: SELL)"
}

// Compute recommends on the short average relative to the long one.
func (c *Crossover) Compute(series model.TimeSeries) (*model.Signal, error) {
	latest, ok := series.Latest()
	if !ok {
		return nil, fmt.Errorf("%s: %w: series is empty", c.Name(), model.ErrInsufficientData)
	}
	rates := series.Rates()
	long, partialLong, err := calculator.CalculateSMAOrAll(rates, c.Long)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name(), err)
	}
	short, partialShort, err := calculator.CalculateSMAOrAll(rates, c.Short)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name(), err)
	}
	used := c.Long
	if partialLong {
		used = len(rates)
	}
	return &model.Signal{
		Strategy:       c.Name(),
		Metric:         fmt.Sprintf("MA(%d)/MA(%d)", c.Short, c.Long),
		MetricValue:    long,
		CurrentRate:    latest.Float(),
		Date:           latest.Date,
		Recommendation: compareToMean(short, long),
		LowConfidence:  partialLong || partialShort,
		Observations:   used,
		Extra:          map[string]float64{"short_ma": short, "long_ma": long},
	}, nil
}
