package strategy

import (
	"fmt"

	"RateSentinel/internal/calculator"
	"RateSentinel/internal/model"
)

// RSI defaults: a 14-change window and the classic overbought/oversold bands.
const (
	DefaultRSIWindow = 14
	RSIOverbought    = 70.0
	RSIOversold      = 30.0
)

// RSI recommends on the relative strength index of the last Window changes.
// It never degrades: fewer than Window+1 observations fail with ErrInsufficientData.
type RSI struct {
	Window int
}

// NewRSI returns an RSI over window changes, 14 when window is not positive.
func NewRSI(window int) *RSI {
	if window <= 0 {
		window = DefaultRSIWindow
	}
	return &RSI{Window: window}
}

func (r *RSI) Name() string { return "rsi" }

func (r *RSI) Description() string {
	return "Relative strength index (above 70: SELL, below 30: BUY)"
}

// Compute maps the index of the last Window changes onto a recommendation.
func (r *RSI) Compute(series model.TimeSeries) (*model.Signal, error) {
	if series.Len() < r.Window+1 {
		return nil, fmt.Errorf("%s: %w: need %d observations, have %d",
			r.Name(), model.ErrInsufficientData, r.Window+1, series.Len())
	}
	value, err := calculator.CalculateRSI(series.Rates(), r.Window)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Name(), err)
	}
	latest, _ := series.Latest()

	rec := model.RecommendHold
	switch {
	case value > RSIOverbought:
		rec = model.RecommendSell
	case value < RSIOversold:
		rec = model.RecommendBuy
	}
	return &model.Signal{
		Strategy:       r.Name(),
		Metric:         fmt.Sprintf("RSI(%d)", r.Window),
		MetricValue:    value,
		CurrentRate:    latest.Float(),
		Date:           latest.Date,
		Recommendation: rec,
		Observations:   r.Window + 1,
	}, nil
}
