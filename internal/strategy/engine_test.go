package strategy

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateSentinel/internal/model"
)

func seriesOf(start string, rates ...float64) model.TimeSeries {
	d, _ := model.ParseDay(start)
	obs := make([]model.Observation, len(rates))
	for i, r := range rates {
		obs[i] = model.Observation{Date: d.AddDate(0, 0, i), Rate: decimal.NewFromFloat(r), Source: "test"}
	}
	return model.BuildSeries(obs)
}

func TestMovingAverage_SevenDayExample(t *testing.T) {
	series := seriesOf("2024-01-01", 100, 102, 103, 105, 107, 109, 110)

	sig, err := NewMovingAverage(7).Compute(series)
	require.NoError(t, err)
	assert.InDelta(t, 105.14, sig.MetricValue, 0.01)
	assert.Equal(t, 110.0, sig.CurrentRate)
	assert.Equal(t, model.RecommendSell, sig.Recommendation)
	assert.False(t, sig.LowConfidence)
	assert.Equal(t, "2024-01-07", sig.Date.Format(model.DateLayout))
}

func TestMovingAverage_BuyAndHold(t *testing.T) {
	sig, err := NewMovingAverage(3).Compute(seriesOf("2024-01-01", 110, 108, 100))
	require.NoError(t, err)
	assert.Equal(t, model.RecommendBuy, sig.Recommendation)

	sig, err = NewMovingAverage(3).Compute(seriesOf("2024-01-01", 100, 100, 100))
	require.NoError(t, err)
	assert.Equal(t, model.RecommendHold, sig.Recommendation)
}

func TestMovingAverage_UsesLastNRegardlessOfInsertionOrder(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]model.Observation, 30)
	for i := range obs {
		obs[i] = model.Observation{Date: base.AddDate(0, 0, i), Rate: decimal.NewFromInt(int64(300 + i*i%17)), Source: "x"}
	}
	want := 0.0
	for _, o := range obs[25:] {
		want += o.Float()
	}
	want /= 5

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 10; round++ {
		shuffled := append([]model.Observation(nil), obs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		sig, err := NewMovingAverage(5).Compute(model.BuildSeries(shuffled))
		require.NoError(t, err)
		assert.InDelta(t, want, sig.MetricValue, 1e-9)
		assert.Equal(t, obs[29].Float(), sig.CurrentRate)
	}
}

func TestMovingAverage_LowConfidenceFallback(t *testing.T) {
	sig, err := NewMovingAverage(7).Compute(seriesOf("2024-01-01", 100, 104))
	require.NoError(t, err)
	assert.True(t, sig.LowConfidence)
	assert.Equal(t, 102.0, sig.MetricValue)
	assert.Equal(t, 2, sig.Observations)
	assert.Equal(t, model.RecommendSell, sig.Recommendation)
}

func TestMovingAverage_Empty(t *testing.T) {
	_, err := NewMovingAverage(7).Compute(model.TimeSeries{})
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestRSI_Thresholds(t *testing.T) {
	tests := []struct {
		name  string
		rates []float64
		want  model.Recommendation
	}{
		{"overbought", []float64{100, 101, 102, 103, 104}, model.RecommendSell},
		{"oversold", []float64{104, 103, 102, 101, 100}, model.RecommendBuy},
		{"neutral", []float64{100, 101, 100, 101, 100}, model.RecommendHold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := NewRSI(4).Compute(seriesOf("2024-02-01", tt.rates...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, sig.Recommendation)
			assert.False(t, sig.LowConfidence)
		})
	}
}

func TestRSI_InsufficientData(t *testing.T) {
	_, err := NewRSI(14).Compute(seriesOf("2024-01-01", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14))
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestRSI_AlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		rates := make([]float64, 40)
		rates[0] = 390
		for i := 1; i < len(rates); i++ {
			rates[i] = rates[i-1] + rng.NormFloat64()*2
		}
		// guarantee at least one gain and one loss inside the window
		rates[len(rates)-2] = rates[len(rates)-3] + 1
		rates[len(rates)-1] = rates[len(rates)-2] - 1

		sig, err := NewRSI(14).Compute(seriesOf("2023-01-01", rates...))
		require.NoError(t, err)
		assert.False(t, math.IsNaN(sig.MetricValue))
		assert.GreaterOrEqual(t, sig.MetricValue, 0.0)
		assert.LessOrEqual(t, sig.MetricValue, 100.0)
	}
}

func TestCrossover(t *testing.T) {
	sig, err := NewCrossover(2, 6).Compute(seriesOf("2024-01-01", 100, 100, 100, 100, 110, 112))
	require.NoError(t, err)
	assert.Equal(t, model.RecommendSell, sig.Recommendation)
	assert.Equal(t, 111.0, sig.Extra["short_ma"])
	assert.False(t, sig.LowConfidence)

	sig, err = NewCrossover(2, 6).Compute(seriesOf("2024-01-01", 110, 110, 110, 110, 100, 98))
	require.NoError(t, err)
	assert.Equal(t, model.RecommendBuy, sig.Recommendation)

	sig, err = NewCrossover(2, 6).Compute(seriesOf("2024-01-01", 100, 102, 104))
	require.NoError(t, err)
	assert.True(t, sig.LowConfidence)
}

func TestNewCrossover_Defaults(t *testing.T) {
	c := NewCrossover(0, 0)
	assert.Equal(t, DefaultCrossoverWindow, c.Long)
	assert.Equal(t, 7, c.Short)

	c = NewCrossover(10, 5)
	assert.Equal(t, 1, c.Short)
}

func TestRegistry(t *testing.T) {
	names := []string{}
	for _, info := range List() {
		names = append(names, info.Name)
		assert.NotEmpty(t, info.Description)
		s, err := New(info.Name, Params{Window: 5})
		require.NoError(t, err)
		assert.Equal(t, info.Name, s.Name())
		assert.Equal(t, info.Description, s.Description())
	}
	assert.Equal(t, []string{"ma", "ma-cross", "rsi"}, names)

	s, err := New("RSI", Params{Window: 9})
	require.NoError(t, err)
	assert.Equal(t, 9, s.(*RSI).Window)

	_, err = New("macd", Params{})
	assert.ErrorContains(t, err, "unknown strategy")
}
