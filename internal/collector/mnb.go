package collector

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"RateSentinel/internal/model"
)

const mnbURL = "https://www.mnb.hu/en/arfolyamok"

// MNBSource scrapes the official rate table of the Hungarian National Bank.
// The page only shows today's rates, so history is not available.
type MNBSource struct {
	opts Options
	url  string
}

func NewMNBSource(opts Options) *MNBSource {
	return &MNBSource{opts: opts, url: opts.endpoint("mnb", mnbURL)}
}

func (s *MNBSource) Name() string { return "mnb" }

func (s *MNBSource) Description() string { return "Hungarian National Bank official rates" }

func (s *MNBSource) FetchCurrent(ctx context.Context) (model.Observation, error) {
	if err := requireHUF(s.Name(), s.opts); err != nil {
		return model.Observation{}, err
	}
	body, err := s.opts.http().Get(ctx, s.url)
	if err != nil {
		return model.Observation{}, model.Unavailable(s.Name(), err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.Observation{}, model.Unavailable(s.Name(), fmt.Errorf("parse html: %w", err))
	}

	var (
		rate  decimal.Decimal
		found bool
	)
	doc.Find("table.exchange-rates tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 3 || strings.TrimSpace(cells.Eq(0).Text()) != s.opts.Base {
			return true
		}
		rate, err = parseLocalDecimal(cells.Eq(2).Text())
		found = err == nil
		return false
	})
	if !found {
		return model.Observation{}, model.Unavailable(s.Name(), fmt.Errorf("could not find %s/HUF rate on page", s.opts.Base))
	}
	return model.NewObservation(s.opts.now(), rate, s.Name()), nil
}

func (s *MNBSource) FetchHistory(_ context.Context, _, _ time.Time) ([]model.Observation, error) {
	return nil, model.Unavailable(s.Name(), errHistoryUnsupported)
}

// parseLocalDecimal accepts Hungarian formatting: comma decimal separator, spaces as grouping.
func parseLocalDecimal(text string) (decimal.Decimal, error) {
	clean := strings.NewReplacer(",", ".", " ", "", "\u00a0", "").Replace(strings.TrimSpace(text))
	v, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad rate %q", text)
	}
	if !v.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive rate %q", text)
	}
	return v, nil
}
