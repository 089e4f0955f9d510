package collector

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"RateSentinel/internal/model"
)

const otpBaseURL = "https://www.otpbank.hu/apps/exchangerate/api"

// OTPSource reads OTP Bank middle rates: a JSON endpoint for the current day
// and a semicolon separated CSV download for history.
type OTPSource struct {
	opts    Options
	baseURL string
}

func NewOTPSource(opts Options) *OTPSource {
	return &OTPSource{opts: opts, baseURL: opts.endpoint("otp", otpBaseURL)}
}

func (s *OTPSource) Name() string { return "otp" }

func (s *OTPSource) Description() string { return "OTP Bank middle rates" }

type otpResponse struct {
	Dates []struct {
		Versions []struct {
			ExchangeRates []struct {
				CurrencyCode string      `json:"currencyCode"`
				MiddleRate   json.Number `json:"middleRate"`
			} `json:"exchangeRates"`
		} `json:"versions"`
	} `json:"dates"`
}

func (s *OTPSource) FetchCurrent(ctx context.Context) (model.Observation, error) {
	if err := requireHUF(s.Name(), s.opts); err != nil {
		return model.Observation{}, err
	}
	now := s.opts.now()
	body, err := s.opts.http().Get(ctx, fmt.Sprintf("%s/exchangerate/otp/%s", s.baseURL, now.Format(model.DateLayout)))
	if err != nil {
		return model.Observation{}, model.Unavailable(s.Name(), err)
	}
	var resp otpResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Observation{}, model.Unavailable(s.Name(), fmt.Errorf("decode json: %w", err))
	}
	if len(resp.Dates) == 0 || len(resp.Dates[0].Versions) == 0 {
		return model.Observation{}, model.Unavailable(s.Name(), fmt.Errorf("no rates published"))
	}
	for _, r := range resp.Dates[0].Versions[0].ExchangeRates {
		if r.CurrencyCode != s.opts.Base {
			continue
		}
		rate, err := decimal.NewFromString(r.MiddleRate.String())
		if err != nil || !rate.IsPositive() {
			return model.Observation{}, model.Unavailable(s.Name(), fmt.Errorf("bad middle rate %q", r.MiddleRate))
		}
		return model.NewObservation(now, rate, s.Name()), nil
	}
	return model.Observation{}, model.Unavailable(s.Name(), fmt.Errorf("currency %s not supported", s.opts.Base))
}

func (s *OTPSource) FetchHistory(ctx context.Context, from, to time.Time) ([]model.Observation, error) {
	if err := requireHUF(s.Name(), s.opts); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/downloads/csv/%s/%s?currencies=%s&lang=HU", s.baseURL,
		from.Format(model.DateLayout), to.Format(model.DateLayout), url.QueryEscape(s.opts.Base))
	body, err := s.opts.http().Get(ctx, u)
	if err != nil {
		return nil, model.Unavailable(s.Name(), err)
	}
	obs, err := parseOTPHistory(body, s.Name())
	if err != nil {
		return nil, model.Unavailable(s.Name(), err)
	}
	out := obs[:0]
	for _, o := range obs {
		if inRange(o.Date, from, to) {
			out = append(out, o)
		}
	}
	return out, nil
}

// parseOTPHistory reads the CSV export: two header lines, then
// currency;timestamp(2006.01.02 15:04);...;middle rate with decimal comma.
// Several intraday versions of a date keep their timestamp order.
func parseOTPHistory(body []byte, source string) ([]model.Observation, error) {
	parts := bytes.SplitN(body, []byte("\n"), 3)
	if len(parts) < 3 {
		return nil, nil
	}
	r := csv.NewReader(bytes.NewReader(parts[2]))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}

	type stamped struct {
		at  time.Time
		obs model.Observation
	}
	var items []stamped
	for _, row := range rows {
		if len(row) < 4 || strings.TrimSpace(row[1]) == "" {
			continue
		}
		at, err := time.ParseInLocation("2006.01.02 15:04", strings.TrimSpace(row[1]), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp %q", row[1])
		}
		rate, err := parseLocalDecimal(row[3])
		if err != nil {
			return nil, err
		}
		items = append(items, stamped{at: at, obs: model.NewObservation(at, rate, source)})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].at.Before(items[j].at) })
	out := make([]model.Observation, len(items))
	for i, it := range items {
		out[i] = it.obs
	}
	return out, nil
}
