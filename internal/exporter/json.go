package exporter

import (
	"encoding/json"
	"io"

	"RateSentinel/internal/model"
)

// JSON writes indented documents: a record list for series and the
// comparison result as is.
type JSON struct{}

func (JSON) Ext() string { return "json" }

type seriesRecord struct {
	Date   string      `json:"date"`
	Rate   json.Number `json:"rate"`
	Source string      `json:"source"`
}

func (JSON) WriteSeries(w io.Writer, series model.TimeSeries) error {
	records := make([]seriesRecord, len(series.Observations))
	for i, o := range series.Observations {
		records[i] = seriesRecord{
			Date:   o.Date.Format(model.DateLayout),
			Rate:   json.Number(o.Rate.String()),
			Source: o.Source,
		}
	}
	return encode(w, records)
}

func (JSON) WriteComparison(w io.Writer, r *model.ComparisonResult) error {
	return encode(w, r)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
