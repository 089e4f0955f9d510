package calculator

import (
	"math"
)

// Stats holds the summary statistics of a window of rates.
type Stats struct {
	Count  int
	Mean   float64
	Min    float64
	Max    float64
	StdDev float64
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices))
}

// SampleStdDev uses the n-1 divisor. A single price has zero deviation.
func SampleStdDev(prices []float64) float64 {
	n := len(prices)
	if n < 2 {
		return 0
	}
	mean := Mean(prices)
	var ss float64
	for _, p := range prices {
		d := p - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// Summarize scans prices once for min and max and computes mean and sample stddev.
func Summarize(prices []float64) (Stats, error) {
	if len(prices) == 0 {
		return Stats{}, errEmpty
	}
	st := Stats{
		Count: len(prices),
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}
	for _, p := range prices {
		if p > st.Max {
			st.Max = p
		}
		if p < st.Min {
			st.Min = p
		}
	}
	st.Mean = Mean(prices)
	st.StdDev = SampleStdDev(prices)
	return st, nil
}
