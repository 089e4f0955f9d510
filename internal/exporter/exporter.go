// Package exporter writes a rate series or a comparison result to CSV, JSON or XLSX.
package exporter

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"RateSentinel/internal/model"
)

// Exporter renders analysis output in one file format.
type Exporter interface {
	// Ext is the file extension without the dot.
	Ext() string
	WriteSeries(w io.Writer, series model.TimeSeries) error
	WriteComparison(w io.Writer, r *model.ComparisonResult) error
}

// Formats lists the accepted format names.
var Formats = []string{"csv", "json", "excel"}

// ForFormat returns the exporter for csv, json or excel (xlsx).
func ForFormat(name string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return CSV{}, nil
	case "json":
		return JSON{}, nil
	case "excel", "xlsx":
		return XLSX{}, nil
	}
	return nil, fmt.Errorf("unsupported export format %q (supported: %s)", name, strings.Join(Formats, ", "))
}

// SeriesFileName is the default name of a series export made on day.
func SeriesFileName(e Exporter, day time.Time) string {
	return fmt.Sprintf("exchange_rates_%s.%s", day.Format(model.DateLayout), e.Ext())
}

// ComparisonFileName is the default name of a comparison export made on day.
func ComparisonFileName(e Exporter, day time.Time) string {
	return fmt.Sprintf("exchange_rate_comparison_%s.%s", day.Format(model.DateLayout), e.Ext())
}

// WriteFile creates path (and its directory) and hands it to write.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

// metricRow is one line of the tabular comparison layout shared by CSV and XLSX.
type metricRow struct {
	Label  string
	P1, P2 float64
	Diff   float64
	Pct    model.Percent
	Count  bool // day counts have no difference column
}

func metricRows(r *model.ComparisonResult) []metricRow {
	row := func(label string, a, b float64) metricRow {
		return metricRow{Label: label, P1: a, P2: b, Diff: a - b, Pct: model.PctChange(a, b)}
	}
	return []metricRow{
		row("Average Rate", r.Period1.Mean, r.Period2.Mean),
		row("Minimum Rate", r.Period1.Min, r.Period2.Min),
		row("Maximum Rate", r.Period1.Max, r.Period2.Max),
		row("Volatility", r.Period1.StdDev, r.Period2.StdDev),
		{Label: "Days", P1: float64(r.Period1.Days), P2: float64(r.Period2.Days), Count: true},
	}
}

func dateRange(w model.WindowStats) string {
	return w.Start.Format(model.DateLayout) + " to " + w.End.Format(model.DateLayout)
}

// formatPct renders a percentage rounded to two places, "N/A" when undefined.
func formatPct(p model.Percent) string {
	if p.IsUndefined() {
		return "N/A"
	}
	return strconv.FormatFloat(math.Round(float64(p)*100)/100, 'f', 2, 64) + "%"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
