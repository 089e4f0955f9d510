package exporter

import (
	"encoding/csv"
	"io"
	"strconv"

	"RateSentinel/internal/model"
)

// CSV writes comma separated files. Series exports use the store's own
// date,rate,source layout so they can be re-imported.
type CSV struct{}

func (CSV) Ext() string { return "csv" }

func (CSV) WriteSeries(w io.Writer, series model.TimeSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "rate", "source"}); err != nil {
		return err
	}
	for _, o := range series.Observations {
		if err := cw.Write([]string{o.Date.Format(model.DateLayout), o.Rate.String(), o.Source}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (CSV) WriteComparison(w io.Writer, r *model.ComparisonResult) error {
	cw := csv.NewWriter(w)
	records := [][]string{
		{"metric", "period1", "period2", "difference", "pct_change"},
		{"Date Range", dateRange(r.Period1), dateRange(r.Period2), "N/A", "N/A"},
	}
	for _, m := range metricRows(r) {
		if m.Count {
			records = append(records, []string{m.Label,
				strconv.Itoa(int(m.P1)), strconv.Itoa(int(m.P2)), "N/A", "N/A"})
			continue
		}
		records = append(records, []string{m.Label,
			formatFloat(m.P1), formatFloat(m.P2), formatFloat(m.Diff), formatPct(m.Pct)})
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}
