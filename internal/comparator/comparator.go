// Package comparator computes period-over-period statistics between two windows of a series.
package comparator

import (
	"fmt"
	"strings"
	"time"

	"RateSentinel/internal/calculator"
	"RateSentinel/internal/model"
)

// DefaultLength is the window length used when none is given.
const DefaultLength = 7

// ParseWindowDate parses a user-supplied calendar date. An empty string means "unspecified".
func ParseWindowDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := model.ParseDay(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", model.ErrInvalidDateRange, s)
	}
	return &d, nil
}

// Compare resolves both windows against series and returns their statistics and deltas.
//
// Window 1 without a start is the most recent Length observations. Window 2 without
// a start is the Length observations immediately preceding window 1's first date.
// A window with a start takes the first Length observations on or after it, or every
// observation up to End when End is set.
func Compare(series model.TimeSeries, w1, w2 model.Window) (*model.ComparisonResult, error) {
	for i, w := range []model.Window{w1, w2} {
		if err := validate(w); err != nil {
			return nil, fmt.Errorf("period%d: %w", i+1, err)
		}
	}

	obs := series.Observations
	p1 := resolve(obs, w1)
	if len(p1) == 0 {
		return nil, fmt.Errorf("period1: %w: no observations in window", model.ErrInsufficientData)
	}

	var p2 []model.Observation
	if w2.Start == nil {
		p2 = preceding(obs, p1[0].Date, length(w2))
	} else {
		p2 = resolve(obs, w2)
	}
	if len(p2) == 0 {
		return nil, fmt.Errorf("period2: %w: no observations in window", model.ErrInsufficientData)
	}

	s1, err := summarize(p1)
	if err != nil {
		return nil, fmt.Errorf("period1: %w", err)
	}
	s2, err := summarize(p2)
	if err != nil {
		return nil, fmt.Errorf("period2: %w", err)
	}

	return &model.ComparisonResult{
		Pair:    series.Pair(),
		Period1: s1,
		Period2: s2,
		Comparison: model.Deltas{
			AvgRateDiff:         s1.Mean - s2.Mean,
			AvgRatePctChange:    model.PctChange(s1.Mean, s2.Mean),
			VolatilityChange:    s1.StdDev - s2.StdDev,
			VolatilityPctChange: model.PctChange(s1.StdDev, s2.StdDev),
		},
	}, nil
}

func validate(w model.Window) error {
	if w.Length < 0 {
		return fmt.Errorf("%w: negative length %d", model.ErrInvalidDateRange, w.Length)
	}
	if w.End != nil && w.Start == nil {
		return fmt.Errorf("%w: end date requires a start date", model.ErrInvalidDateRange)
	}
	if w.Start != nil && w.End != nil && w.End.Before(*w.Start) {
		return fmt.Errorf("%w: end %s is before start %s", model.ErrInvalidDateRange,
			w.End.Format(model.DateLayout), w.Start.Format(model.DateLayout))
	}
	return nil
}

func length(w model.Window) int {
	if w.Length <= 0 {
		return DefaultLength
	}
	return w.Length
}

func resolve(obs []model.Observation, w model.Window) []model.Observation {
	if w.Start == nil {
		n := length(w)
		if n > len(obs) {
			n = len(obs)
		}
		return obs[len(obs)-n:]
	}
	start := model.Day(*w.Start)
	var out []model.Observation
	for _, o := range obs {
		if o.Date.Before(start) {
			continue
		}
		if w.End != nil {
			if o.Date.After(model.Day(*w.End)) {
				break
			}
		} else if len(out) == length(w) {
			break
		}
		out = append(out, o)
	}
	return out
}

// preceding returns up to n observations dated strictly before first.
func preceding(obs []model.Observation, first time.Time, n int) []model.Observation {
	end := 0
	for end < len(obs) && obs[end].Date.Before(first) {
		end++
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	return obs[start:end]
}

func summarize(obs []model.Observation) (model.WindowStats, error) {
	rates := make([]float64, len(obs))
	for i, o := range obs {
		rates[i] = o.Float()
	}
	st, err := calculator.Summarize(rates)
	if err != nil {
		return model.WindowStats{}, err
	}
	return model.WindowStats{
		Start:  obs[0].Date,
		End:    obs[len(obs)-1].Date,
		Days:   st.Count,
		Mean:   st.Mean,
		Min:    st.Min,
		Max:    st.Max,
		StdDev: st.StdDev,
	}, nil
}
