package model

import "time"

// Recommendation is the action a strategy suggests for the tracked pair.
type Recommendation string

const (
	RecommendBuy  Recommendation = "BUY"
	RecommendSell Recommendation = "SELL"
	RecommendHold Recommendation = "HOLD"
)

// Signal is the output of a strategy. Derived, never persisted.
type Signal struct {
	Strategy       string
	Metric         string // e.g. "MA(7)", "RSI(14)"
	MetricValue    float64
	CurrentRate    float64
	Date           time.Time
	Recommendation Recommendation
	// LowConfidence is set when the strategy had fewer observations than its ideal window.
	LowConfidence bool
	Observations  int
	// Extra holds secondary metrics, e.g. the short MA of a crossover.
	Extra map[string]float64
}

// Window selects a contiguous range of observations for comparison.
// Start and End are optional; Length counts daily observations.
type Window struct {
	Start  *time.Time
	End    *time.Time
	Length int
}
