package exporter

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"RateSentinel/internal/model"
)

const (
	seriesSheet     = "Exchange Rates"
	comparisonSheet = "Comparison"
)

// XLSX writes Excel workbooks with a single sheet.
type XLSX struct{}

func (XLSX) Ext() string { return "xlsx" }

func (XLSX) WriteSeries(w io.Writer, series model.TimeSeries) error {
	f, err := newWorkbook(seriesSheet)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := setRow(f, seriesSheet, 1, "date", "rate", "source"); err != nil {
		return err
	}
	for i, o := range series.Observations {
		if err := setRow(f, seriesSheet, i+2, o.Date.Format(model.DateLayout), o.Float(), o.Source); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func (XLSX) WriteComparison(w io.Writer, r *model.ComparisonResult) error {
	f, err := newWorkbook(comparisonSheet)
	if err != nil {
		return err
	}
	defer f.Close()

	err = setRow(f, comparisonSheet, 1, "Metric",
		fmt.Sprintf("Period 1 (%s)", dateRange(r.Period1)),
		fmt.Sprintf("Period 2 (%s)", dateRange(r.Period2)),
		"Difference", "% Change")
	if err != nil {
		return err
	}
	for i, m := range metricRows(r) {
		row := []any{m.Label, m.P1, m.P2}
		if !m.Count {
			row = append(row, math.Round(m.Diff*100)/100, formatPct(m.Pct))
		}
		if err := setRow(f, comparisonSheet, i+2, row...); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func newWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
