package tracker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateSentinel/internal/collector"
	"RateSentinel/internal/metrics"
	"RateSentinel/internal/model"
	"RateSentinel/internal/recorder"
	"RateSentinel/internal/strategy"
)

var today = time.Date(2024, 2, 10, 15, 0, 0, 0, time.UTC)

func clock() time.Time { return today }

func newTracker(t *testing.T, sources ...collector.Source) (*Tracker, *recorder.MemoryStore) {
	t.Helper()
	store := recorder.NewMemoryStore()
	reg := collector.NewRegistry(sources)
	return New("EUR", "HUF", reg, store, WithClock(clock)), store
}

func mock(name string) *collector.MockSource {
	return collector.NewMockSource(collector.Options{Base: "EUR", Target: "HUF", Now: clock}, 380).Named(name)
}

func TestFetch_AppendsObservation(t *testing.T) {
	failing := mock("primary")
	failing.SetErr(errors.New("down"))
	tr, store := newTracker(t, failing, mock("backup"))

	obs, err := tr.Fetch(context.Background(), collector.Auto)
	require.NoError(t, err)
	assert.Equal(t, "backup", obs.Source)
	assert.Equal(t, model.Day(today), obs.Date)
	assert.Equal(t, 1, store.Rows())

	series, err := tr.Series()
	require.NoError(t, err)
	assert.Equal(t, "EUR/HUF", series.Pair())
}

func TestFetch_AllSourcesFail(t *testing.T) {
	a := mock("a")
	a.SetErr(errors.New("x"))
	tr, store := newTracker(t, a)

	_, err := tr.Fetch(context.Background(), collector.Auto)
	assert.ErrorIs(t, err, model.ErrAllSourcesExhausted)
	assert.Equal(t, 0, store.Rows())
}

func TestBackfill_DefaultsToDayAfterLatest(t *testing.T) {
	tr, store := newTracker(t, mock("mock"))
	require.NoError(t, store.Append(model.Observation{
		Date: model.Day(today).AddDate(0, 0, -5), Rate: decimal.NewFromInt(379), Source: "seed",
	}))

	res, err := tr.Backfill(context.Background(), collector.Auto, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, model.Day(today).AddDate(0, 0, -4), res.From)
	assert.Equal(t, model.Day(today), res.To)
	assert.Equal(t, 5, res.Fetched)
	assert.Equal(t, 5, res.Appended)
	assert.Equal(t, "mock", res.Source)

	again, err := tr.Backfill(context.Background(), collector.Auto, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.True(t, again.UpToDate)
	assert.Equal(t, 6, store.Rows())
}

func TestBackfill_ExplicitRangeIsIdempotent(t *testing.T) {
	tr, store := newTracker(t, mock("mock"))
	from := model.Day(today).AddDate(0, 0, -9)

	res, err := tr.Backfill(context.Background(), collector.Auto, from, today)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Appended)

	res, err = tr.Backfill(context.Background(), collector.Auto, from, today)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Fetched)
	assert.Equal(t, 0, res.Appended)
	assert.Equal(t, 10, store.Rows())
}

func TestBackfill_EmptyStoreNeedsStart(t *testing.T) {
	tr, _ := newTracker(t, mock("mock"))
	_, err := tr.Backfill(context.Background(), collector.Auto, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, model.ErrInvalidDateRange)
}

func TestRecommend(t *testing.T) {
	tr, store := newTracker(t, mock("mock"))
	rates := []int64{100, 101, 102, 103, 104, 105, 110}
	for i, r := range rates {
		require.NoError(t, store.Append(model.Observation{
			Date: model.Day(today).AddDate(0, 0, i-len(rates)), Rate: decimal.NewFromInt(r), Source: "seed",
		}))
	}

	sig, err := tr.Recommend("ma", strategy.Params{Window: 7})
	require.NoError(t, err)
	assert.Equal(t, model.RecommendSell, sig.Recommendation)
	assert.InDelta(t, 103.571428, sig.MetricValue, 1e-5)
	assert.False(t, sig.LowConfidence)

	_, err = tr.Recommend("rsi", strategy.Params{Window: 7})
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	_, err = tr.Recommend("macd", strategy.Params{Window: 7})
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestCompare(t *testing.T) {
	tr, store := newTracker(t, mock("mock"))
	_, err := tr.Compare(model.Window{Length: 7}, model.Window{Length: 7})
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	for i := 0; i < 14; i++ {
		rate := int64(100)
		if i >= 7 {
			rate = 105
		}
		require.NoError(t, store.Append(model.Observation{
			Date: model.Day(today).AddDate(0, 0, i-14), Rate: decimal.NewFromInt(rate), Source: "seed",
		}))
	}
	res, err := tr.Compare(model.Window{Length: 7}, model.Window{Length: 7})
	require.NoError(t, err)
	assert.Equal(t, "EUR/HUF", res.Pair)
	assert.InDelta(t, 5.0, res.Comparison.AvgRateDiff, 1e-9)
	assert.InDelta(t, 5.0, float64(res.Comparison.AvgRatePctChange), 1e-9)
}

func TestFetch_WritesMetricsTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratesentinel.prom")
	store := recorder.NewMemoryStore()
	reg := collector.NewRegistry([]collector.Source{mock("mock")})
	tr := New("EUR", "HUF", reg, store, WithClock(clock), WithMetrics(metrics.New(), path))

	_, err := tr.Fetch(context.Background(), collector.Auto)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ratesentinel_observations_appended_total")
	assert.Contains(t, string(data), `pair="EUR/HUF"`)
}

func TestListings(t *testing.T) {
	assert.NotEmpty(t, ListSources())
	names := []string{}
	for _, s := range ListStrategies() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"ma", "ma-cross", "rsi"}, names)
}
