package strategy

import (
	"fmt"

	"RateSentinel/internal/calculator"
	"RateSentinel/internal/model"
)

// DefaultMAWindow is a week of daily observations.
const DefaultMAWindow = 7

// MovingAverage compares the latest rate with the mean of the last Window observations.
//
// With fewer than Window observations it degrades to the mean of all of them and
// flags the signal LowConfidence. An empty series fails with ErrInsufficientData.
type MovingAverage struct {
	Window int
}

// NewMovingAverage returns a MovingAverage over window observations, 7 when window is not positive.
func NewMovingAverage(window int) *MovingAverage {
	if window <= 0 {
		window = DefaultMAWindow
	}
	return &MovingAverage{Window: window}
}

func (m *MovingAverage) Name() string { return "ma" }

func (m *MovingAverage) Description() string {
	return "Latest rate vs moving average (rate above average: SELL, below: BUY)"
}

// Compute compares the latest observation with the window mean.
func (m *MovingAverage) Compute(series model.TimeSeries) (*model.Signal, error) {
	latest, ok := series.Latest()
	if !ok {
		return nil, fmt.Errorf("%s: %w: series is empty", m.Name(), model.ErrInsufficientData)
	}
	rates := series.Rates()
	avg, partial, err := calculator.CalculateSMAOrAll(rates, m.Window)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name(), err)
	}
	current := latest.Float()
	used := m.Window
	if partial {
		used = len(rates)
	}
	return &model.Signal{
		Strategy:       m.Name(),
		Metric:         fmt.Sprintf("MA(%d)", m.Window),
		MetricValue:    avg,
		CurrentRate:    current,
		Date:           latest.Date,
		Recommendation: compareToMean(current, avg),
		LowConfidence:  partial,
		Observations:   used,
	}, nil
}
