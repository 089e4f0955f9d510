package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"RateSentinel/internal/model"
)

// Source fetches rates of the configured pair from one vendor.
// Every failure wraps model.ErrSourceUnavailable.
type Source interface {
	Name() string
	// Description is a one-line summary shown by source listings.
	Description() string
	// FetchCurrent returns the latest published rate.
	FetchCurrent(ctx context.Context) (model.Observation, error)
	// FetchHistory returns daily rates in [from, to], ascending. Upstream gaps
	// yield fewer days than requested and are not an error.
	FetchHistory(ctx context.Context, from, to time.Time) ([]model.Observation, error)
}

// Options is shared by every source factory.
type Options struct {
	Base   string
	Target string
	HTTP   *HTTPClient
	// Endpoints overrides a source's base URL by source name.
	Endpoints map[string]string
	// Now is the clock used for sources that do not publish a date.
	Now func() time.Time
}

func (o Options) endpoint(source, fallback string) string {
	if u, ok := o.Endpoints[source]; ok && u != "" {
		return strings.TrimRight(u, "/")
	}
	return fallback
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) http() *HTTPClient {
	if o.HTTP != nil {
		return o.HTTP
	}
	return NewHTTPClient("", 0, 0)
}

var errHistoryUnsupported = errors.New("history not supported by this source")

// requireHUF guards the Hungarian bank sources, which only quote forint prices.
func requireHUF(source string, opts Options) error {
	if opts.Target != "HUF" || opts.Base == "HUF" {
		return model.Unavailable(source, fmt.Errorf("pair %s/%s not supported, target must be HUF", opts.Base, opts.Target))
	}
	return nil
}

func inRange(d, from, to time.Time) bool {
	d = model.Day(d)
	return !d.Before(model.Day(from)) && !d.After(model.Day(to))
}
