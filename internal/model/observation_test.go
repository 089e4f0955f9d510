package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(day string, rate float64, source string) Observation {
	d, _ := ParseDay(day)
	return Observation{Date: d, Rate: decimal.NewFromFloat(rate), Source: source}
}

func TestBuildSeries_LastWriteWins(t *testing.T) {
	s := BuildSeries([]Observation{
		obs("2024-01-02", 400, "ecb"),
		obs("2024-01-01", 399, "ecb"),
		obs("2024-01-02", 401, "mnb"),
	})
	require.Equal(t, 2, s.Len())
	assert.Equal(t, "2024-01-01", s.Observations[0].Date.Format(DateLayout))
	assert.Equal(t, 401.0, s.Observations[1].Float())
	assert.Equal(t, "mnb", s.Observations[1].Source)
}

func TestBuildSeries_TruncatesToDay(t *testing.T) {
	s := BuildSeries([]Observation{
		{Date: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), Rate: decimal.NewFromInt(1), Source: "a"},
		{Date: time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC), Rate: decimal.NewFromInt(2), Source: "a"},
	})
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 2.0, s.Observations[0].Float())
}

func TestTimeSeries_TailAndClone(t *testing.T) {
	s := BuildSeries([]Observation{obs("2024-01-01", 1, "x"), obs("2024-01-02", 2, "x"), obs("2024-01-03", 3, "x")})
	assert.Len(t, s.Tail(2), 2)
	assert.Len(t, s.Tail(10), 3)
	assert.Nil(t, s.Tail(0))

	cp := s.Clone()
	cp.Observations[0].Source = "changed"
	assert.Equal(t, "x", s.Observations[0].Source)
}

func TestPctChange(t *testing.T) {
	assert.InDelta(t, 5.0, float64(PctChange(105, 100)), 1e-9)
	assert.True(t, PctChange(1, 0).IsUndefined())

	b, err := Undefined.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestAllSourcesExhaustedError(t *testing.T) {
	err := &AllSourcesExhaustedError{Failures: []SourceFailure{{Source: "ecb", Err: Unavailable("ecb", assert.AnError)}}}
	assert.ErrorIs(t, err, ErrAllSourcesExhausted)
	assert.Contains(t, err.Error(), "ecb")
}
