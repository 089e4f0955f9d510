package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO-8601 calendar date format used on disk and on the CLI.
const DateLayout = "2006-01-02"

// UnknownSource tags observations from logs written before the source column existed.
const UnknownSource = "unknown"

// Observation is a single dated rate reading from one source.
type Observation struct {
	Date   time.Time
	Rate   decimal.Decimal
	Source string
}

// NewObservation truncates t to its calendar day.
func NewObservation(t time.Time, rate decimal.Decimal, source string) Observation {
	return Observation{Date: Day(t), Rate: rate, Source: source}
}

// Float returns the rate as float64 for analysis.
func (o Observation) Float() float64 {
	return o.Rate.InexactFloat64()
}

// Day returns the UTC midnight of t's calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses an ISO-8601 calendar date.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// TimeSeries is the deduplicated, date-ordered set of observations used for analysis.
// Dates strictly increase.
type TimeSeries struct {
	Base         string
	Target       string
	Observations []Observation
}

// BuildSeries collapses observations given in append order into a TimeSeries.
// When a date occurs more than once, the last appended observation wins.
func BuildSeries(appendOrder []Observation) TimeSeries {
	byDate := make(map[time.Time]int, len(appendOrder))
	out := make([]Observation, 0, len(appendOrder))
	for _, o := range appendOrder {
		o.Date = Day(o.Date)
		if i, ok := byDate[o.Date]; ok {
			out[i] = o
			continue
		}
		byDate[o.Date] = len(out)
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return TimeSeries{Observations: out}
}

// Len returns the number of distinct dates.
func (s TimeSeries) Len() int { return len(s.Observations) }

// Empty reports whether the series holds no observations.
func (s TimeSeries) Empty() bool { return len(s.Observations) == 0 }

// Latest returns the most recent observation. ok is false for an empty series.
func (s TimeSeries) Latest() (Observation, bool) {
	if len(s.Observations) == 0 {
		return Observation{}, false
	}
	return s.Observations[len(s.Observations)-1], true
}

// MaxDate returns the latest stored date, or the zero time for an empty series.
func (s TimeSeries) MaxDate() time.Time {
	if o, ok := s.Latest(); ok {
		return o.Date
	}
	return time.Time{}
}

// Rates returns the rates in date order.
func (s TimeSeries) Rates() []float64 {
	rates := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		rates[i] = o.Float()
	}
	return rates
}

// Tail returns the last n observations (all of them if n exceeds the length).
func (s TimeSeries) Tail(n int) []Observation {
	if n <= 0 {
		return nil
	}
	if n >= len(s.Observations) {
		return s.Observations
	}
	return s.Observations[len(s.Observations)-n:]
}

// Clone returns a copy that shares no backing array with s.
func (s TimeSeries) Clone() TimeSeries {
	cp := s
	cp.Observations = append([]Observation(nil), s.Observations...)
	return cp
}

// Pair formats the currency pair, e.g. "EUR/HUF".
func (s TimeSeries) Pair() string {
	if s.Base == "" || s.Target == "" {
		return ""
	}
	return s.Base + "/" + s.Target
}
