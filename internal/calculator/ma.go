package calculator

import (
	"errors"
)

var errEmpty = errors.New("no prices provided")

// CalculateSMA computes the simple moving average of the last `period` prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	return Mean(prices[len(prices)-period:]), nil
}

// CalculateSMAOrAll averages the last `period` prices, or every price when fewer exist.
// partial reports that the fallback was used.
func CalculateSMAOrAll(prices []float64, period int) (avg float64, partial bool, err error) {
	if len(prices) == 0 {
		return 0, false, errEmpty
	}
	if period <= 0 {
		return 0, false, errors.New("period must be positive")
	}
	if len(prices) < period {
		return Mean(prices), true, nil
	}
	avg, err = CalculateSMA(prices, period)
	return avg, false, err
}
