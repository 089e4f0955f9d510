package collector

import (
	"context"
	"encoding/xml"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"RateSentinel/internal/model"
)

const ecbBaseURL = "https://www.ecb.europa.eu/stats/eurofxref"

// ECBSource reads the ECB euro foreign exchange reference rates. Every rate is
// quoted per euro, so other bases are computed as cross rates.
type ECBSource struct {
	opts    Options
	baseURL string
}

func NewECBSource(opts Options) *ECBSource {
	return &ECBSource{opts: opts, baseURL: opts.endpoint("ecb", ecbBaseURL)}
}

func (s *ECBSource) Name() string { return "ecb" }

func (s *ECBSource) Description() string { return "European Central Bank euro reference rates" }

// ecbEnvelope matches eurofxref-daily.xml and the eurofxref-hist files.
type ecbEnvelope struct {
	Days []struct {
		Time  string `xml:"time,attr"`
		Rates []struct {
			Currency string `xml:"currency,attr"`
			Rate     string `xml:"rate,attr"`
		} `xml:"Cube"`
	} `xml:"Cube>Cube"`
}

func (s *ECBSource) FetchCurrent(ctx context.Context) (model.Observation, error) {
	obs, err := s.fetch(ctx, "/eurofxref-daily.xml")
	if err != nil {
		return model.Observation{}, err
	}
	if len(obs) == 0 {
		return model.Observation{}, model.Unavailable(s.Name(), fmt.Errorf("no %s rate in daily file", s.opts.Target))
	}
	return obs[len(obs)-1], nil
}

func (s *ECBSource) FetchHistory(ctx context.Context, from, to time.Time) ([]model.Observation, error) {
	file := "/eurofxref-hist.xml"
	if s.opts.now().Sub(from) < 89*24*time.Hour {
		file = "/eurofxref-hist-90d.xml"
	}
	all, err := s.fetch(ctx, file)
	if err != nil {
		return nil, err
	}
	out := make([]model.Observation, 0, len(all))
	for _, o := range all {
		if inRange(o.Date, from, to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *ECBSource) fetch(ctx context.Context, file string) ([]model.Observation, error) {
	body, err := s.opts.http().Get(ctx, s.baseURL+file)
	if err != nil {
		return nil, model.Unavailable(s.Name(), err)
	}
	var env ecbEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, model.Unavailable(s.Name(), fmt.Errorf("decode xml: %w", err))
	}

	out := make([]model.Observation, 0, len(env.Days))
	for _, day := range env.Days {
		d, err := model.ParseDay(day.Time)
		if err != nil {
			return nil, model.Unavailable(s.Name(), fmt.Errorf("bad date %q", day.Time))
		}
		perEUR := map[string]decimal.Decimal{"EUR": decimal.NewFromInt(1)}
		for _, r := range day.Rates {
			v, err := decimal.NewFromString(r.Rate)
			if err != nil {
				return nil, model.Unavailable(s.Name(), fmt.Errorf("bad rate %q for %s", r.Rate, r.Currency))
			}
			perEUR[r.Currency] = v
		}
		rate, ok := crossRate(perEUR, s.opts.Base, s.opts.Target)
		if !ok {
			continue // currency not quoted that day
		}
		out = append(out, model.Observation{Date: d, Rate: rate, Source: s.Name()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// crossRate converts quotes expressed per unit of a common currency into target per base.
func crossRate(perUnit map[string]decimal.Decimal, base, target string) (decimal.Decimal, bool) {
	b, okB := perUnit[base]
	t, okT := perUnit[target]
	if !okB || !okT || !b.IsPositive() || !t.IsPositive() {
		return decimal.Zero, false
	}
	return t.DivRound(b, 6), true
}
