package model

import (
	"encoding/json"
	"math"
	"time"
)

// Undefined marks a percentage change whose denominator was exactly zero.
var Undefined = Percent(math.Inf(1))

// Percent is a percentage value that may be Undefined.
type Percent float64

// IsUndefined reports whether p is the Undefined sentinel.
func (p Percent) IsUndefined() bool {
	return math.IsInf(float64(p), 0) || math.IsNaN(float64(p))
}

// MarshalJSON emits null for Undefined since JSON has no infinity.
func (p Percent) MarshalJSON() ([]byte, error) {
	if p.IsUndefined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(p))
}

// PctChange returns (a/b - 1) * 100, or Undefined when b is zero.
func PctChange(a, b float64) Percent {
	if b == 0 {
		return Undefined
	}
	return Percent((a/b - 1) * 100)
}

// WindowStats summarises one resolved comparison window.
type WindowStats struct {
	Start  time.Time `json:"-"`
	End    time.Time `json:"-"`
	Days   int       `json:"days"`
	Mean   float64   `json:"avg_rate"`
	Min    float64   `json:"min_rate"`
	Max    float64   `json:"max_rate"`
	StdDev float64   `json:"volatility"`
}

// MarshalJSON renders dates as ISO calendar days.
func (w WindowStats) MarshalJSON() ([]byte, error) {
	type alias WindowStats
	return json.Marshal(struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		alias
	}{
		StartDate: w.Start.Format(DateLayout),
		EndDate:   w.End.Format(DateLayout),
		alias:     alias(w),
	})
}

// Deltas compares period 1 against period 2.
type Deltas struct {
	AvgRateDiff         float64 `json:"avg_rate_diff"`
	AvgRatePctChange    Percent `json:"avg_rate_pct_change"`
	VolatilityChange    float64 `json:"volatility_change"`
	VolatilityPctChange Percent `json:"volatility_pct_change"`
}

// ComparisonResult is the output of a period comparison. Derived, never persisted.
type ComparisonResult struct {
	Pair       string      `json:"pair,omitempty"`
	Period1    WindowStats `json:"period1"`
	Period2    WindowStats `json:"period2"`
	Comparison Deltas      `json:"comparison"`
}
