package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"RateSentinel/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooSource uses the Yahoo Finance public chart API, which quotes FX pairs
// under tickers like EURHUF=X.
type YahooSource struct {
	opts    Options
	baseURL string
}

func NewYahooSource(opts Options) *YahooSource {
	return &YahooSource{opts: opts, baseURL: opts.endpoint("yahoo", yahooBaseURL)}
}

func (s *YahooSource) Name() string { return "yahoo" }

func (s *YahooSource) Description() string { return "Yahoo Finance FX quotes" }

func (s *YahooSource) ticker() string { return s.opts.Base + s.opts.Target + "=X" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (s *YahooSource) FetchCurrent(ctx context.Context) (model.Observation, error) {
	chart, err := s.fetchChart(ctx, url.Values{"interval": {"1d"}, "range": {"5d"}})
	if err != nil {
		return model.Observation{}, err
	}
	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice > 0 {
		at := s.opts.now()
		if meta.RegularMarketTime > 0 {
			at = time.Unix(meta.RegularMarketTime, 0).UTC()
		}
		return model.NewObservation(at, decimal.NewFromFloat(meta.RegularMarketPrice), s.Name()), nil
	}
	obs := s.closes(chart)
	if len(obs) == 0 {
		return model.Observation{}, model.Unavailable(s.Name(), fmt.Errorf("no price data"))
	}
	return obs[len(obs)-1], nil
}

func (s *YahooSource) FetchHistory(ctx context.Context, from, to time.Time) ([]model.Observation, error) {
	chart, err := s.fetchChart(ctx, url.Values{
		"interval": {"1d"},
		"period1":  {fmt.Sprint(model.Day(from).Unix())},
		"period2":  {fmt.Sprint(model.Day(to).AddDate(0, 0, 1).Unix())},
	})
	if err != nil {
		return nil, err
	}
	all := s.closes(chart)
	out := all[:0]
	for _, o := range all {
		if inRange(o.Date, from, to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *YahooSource) fetchChart(ctx context.Context, q url.Values) (*yahooChart, error) {
	u := fmt.Sprintf("%s/%s?%s", s.baseURL, url.PathEscape(s.ticker()), q.Encode())
	body, err := s.opts.http().Get(ctx, u)
	if err != nil {
		return nil, model.Unavailable(s.Name(), err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, model.Unavailable(s.Name(), fmt.Errorf("decode: %w", err))
	}
	if chart.Chart.Error != nil {
		return nil, model.Unavailable(s.Name(), fmt.Errorf("api error: %s", chart.Chart.Error.Description))
	}
	if len(chart.Chart.Result) == 0 {
		return nil, model.Unavailable(s.Name(), fmt.Errorf("no data returned"))
	}
	return &chart, nil
}

// closes turns the daily close series into observations, skipping null bars.
func (s *YahooSource) closes(chart *yahooChart) []model.Observation {
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	closes := result.Indicators.Quote[0].Close
	out := make([]model.Observation, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue // holidays
		}
		out = append(out, model.NewObservation(time.Unix(ts, 0).UTC(), decimal.NewFromFloat(*closes[i]), s.Name()))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
