package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateSentinel/internal/model"
)

var day = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

func TestFormatSignal(t *testing.T) {
	msg := FormatSignal("EUR/HUF", &model.Signal{
		Strategy:       "ma-cross",
		Metric:         "MA(3)/MA(9)",
		MetricValue:    0.5,
		CurrentRate:    390.12346,
		Date:           day,
		Recommendation: model.RecommendSell,
		LowConfidence:  true,
		Observations:   4,
		Extra:          map[string]float64{"short_ma": 391, "long_ma": 390.5},
	})
	assert.Contains(t, msg, "<b>EUR/HUF</b> | 2024-01-05")
	assert.Contains(t, msg, "Current rate: 390.1235")
	assert.Contains(t, msg, "🔴 <b>SELL</b>")
	assert.Contains(t, msg, "Low confidence: based on 4 observations")
	assert.Less(t, strings.Index(msg, "long_ma"), strings.Index(msg, "short_ma"))
}

func TestFormatComparison(t *testing.T) {
	msg := FormatComparison(&model.ComparisonResult{
		Pair:    "EUR/HUF",
		Period1: model.WindowStats{Start: day, End: day.AddDate(0, 0, 6), Days: 7, Mean: 105},
		Period2: model.WindowStats{Start: day.AddDate(0, 0, -7), End: day.AddDate(0, 0, -1), Days: 7, Mean: 100},
		Comparison: model.Deltas{
			AvgRateDiff: 5, AvgRatePctChange: 5,
			VolatilityPctChange: model.Undefined,
		},
	})
	assert.Contains(t, msg, "EUR/HUF period comparison")
	assert.Contains(t, msg, "Avg change: +5.0000 (+5.00%)")
	assert.Contains(t, msg, "Volatility change: +0.0000 (n/a)")
}

func TestFormatObservationAndFailure(t *testing.T) {
	msg := FormatObservation("EUR/HUF", model.Observation{Date: day, Rate: decimal.RequireFromString("390.1"), Source: "ecb"})
	assert.Contains(t, msg, "Rate: 390.1000 (ecb)")

	msg = FormatFailure("EUR/HUF", "fetch", errors.New("a < b"))
	assert.Contains(t, msg, "a &lt; b")
}

func TestSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "42", payload["chat_id"])
		assert.Equal(t, "HTML", payload["parse_mode"])
		if calls.Add(1) < 3 {
			http.Error(w, "flood", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	n.Backoff = time.Millisecond

	require.NoError(t, n.SendWithRetry(context.Background(), "hello", 3))
	assert.Equal(t, int32(3), calls.Load())

	calls.Store(-10)
	err := n.SendWithRetry(context.Background(), "hello", 1)
	assert.ErrorContains(t, err, "all 2 retries exhausted")
	assert.ErrorContains(t, err, "429")
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var polls atomic.Int32
	replies := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if polls.Add(1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[
					{"update_id":7,"message":{"text":" /rate ","chat":{"id":42}}},
					{"update_id":8,"message":{"text":"/rate","chat":{"id":99}}}
				]}`))
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			cancel()
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case "/botTOKEN/sendMessage":
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			replies <- payload["text"]
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL

	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string { return "got " + cmd })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	require.Len(t, replies, 1)
	assert.Equal(t, "got /rate", <-replies)
}
