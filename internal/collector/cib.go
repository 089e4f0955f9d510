package collector

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"RateSentinel/internal/model"
)

const (
	cibRealtimeURL = "https://net.cib.hu/kis_kozep_nagy_vallalatok/arfolyamok/"
	cibHistoryPath = "archiv/index"
)

// CIBSource scrapes CIB Bank's rate pages. The current table lists the
// currency code in the first column and the middle rate in the fourth; the
// archive form returns one row per date with the rate in the third column.
type CIBSource struct {
	opts    Options
	baseURL string
}

func NewCIBSource(opts Options) *CIBSource {
	base := opts.endpoint("cib", strings.TrimRight(cibRealtimeURL, "/"))
	return &CIBSource{opts: opts, baseURL: base}
}

func (s *CIBSource) Name() string { return "cib" }

func (s *CIBSource) Description() string { return "CIB Bank rates" }

func (s *CIBSource) FetchCurrent(ctx context.Context) (model.Observation, error) {
	if err := requireHUF(s.Name(), s.opts); err != nil {
		return model.Observation{}, err
	}
	doc, err := s.document(func() ([]byte, error) {
		return s.opts.http().Get(ctx, s.baseURL+"/")
	})
	if err != nil {
		return model.Observation{}, err
	}

	var (
		obs   model.Observation
		found bool
		perr  error
	)
	doc.Find("#contentArea table").Eq(1).Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if i == 0 || cells.Length() < 4 || strings.TrimSpace(cells.Eq(0).Text()) != s.opts.Base {
			return true
		}
		rate, err := parseLocalDecimal(cells.Eq(3).Text())
		if err != nil {
			perr = err
			return false
		}
		obs, found = model.NewObservation(s.opts.now(), rate, s.Name()), true
		return false
	})
	if perr != nil {
		return model.Observation{}, model.Unavailable(s.Name(), perr)
	}
	if !found {
		return model.Observation{}, model.Unavailable(s.Name(), fmt.Errorf("currency %s not supported", s.opts.Base))
	}
	return obs, nil
}

func (s *CIBSource) FetchHistory(ctx context.Context, from, to time.Time) ([]model.Observation, error) {
	if err := requireHUF(s.Name(), s.opts); err != nil {
		return nil, err
	}
	form := url.Values{
		"ru_type":             {"valarf"},
		"ru_date_from":        {from.Format(model.DateLayout)},
		"ru_date_to":          {to.Format(model.DateLayout)},
		"curr_" + s.opts.Base: {"1"},
		"sendForm":            {""},
	}
	doc, err := s.document(func() ([]byte, error) {
		return s.opts.http().PostForm(ctx, s.baseURL+"/"+cibHistoryPath, form)
	})
	if err != nil {
		return nil, err
	}

	var (
		out  []model.Observation
		perr error
	)
	doc.Find("#contentArea table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return true
		}
		d, err := model.ParseDay(strings.TrimSpace(cells.Eq(0).Text()))
		if err != nil {
			return true // header and footer rows
		}
		rate, err := parseLocalDecimal(cells.Eq(2).Text())
		if err != nil {
			perr = err
			return false
		}
		if inRange(d, from, to) {
			out = append(out, model.Observation{Date: d, Rate: rate, Source: s.Name()})
		}
		return true
	})
	if perr != nil {
		return nil, model.Unavailable(s.Name(), perr)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *CIBSource) document(get func() ([]byte, error)) (*goquery.Document, error) {
	body, err := get()
	if err != nil {
		return nil, model.Unavailable(s.Name(), err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, model.Unavailable(s.Name(), fmt.Errorf("parse html: %w", err))
	}
	return doc, nil
}
