package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"RateSentinel/internal/model"
	"RateSentinel/internal/notifier"
	"RateSentinel/internal/tracker"
)

func printObservation(w io.Writer, pair string, obs model.Observation) {
	fmt.Fprintf(w, "%s %s %s (source: %s)\n", pair, obs.Date.Format(model.DateLayout), obs.Rate.StringFixed(4), obs.Source)
}

func printBackfill(w io.Writer, pair string, res *tracker.BackfillResult) {
	if res.UpToDate {
		fmt.Fprintf(w, "%s is up to date (nothing after %s to fetch)\n", pair, res.From.AddDate(0, 0, -1).Format(model.DateLayout))
		return
	}
	fmt.Fprintf(w, "%s %s..%s: fetched %d, appended %d", pair,
		res.From.Format(model.DateLayout), res.To.Format(model.DateLayout), res.Fetched, res.Appended)
	if res.Source != "" {
		fmt.Fprintf(w, " (source: %s)", res.Source)
	}
	fmt.Fprintln(w)
}

func printSignal(w io.Writer, pair string, sig *model.Signal) {
	fmt.Fprintf(w, "%s on %s\n", pair, sig.Date.Format(model.DateLayout))
	fmt.Fprintf(w, "  current rate   %.4f\n", sig.CurrentRate)
	fmt.Fprintf(w, "  %-14s %.4f\n", sig.Metric, sig.MetricValue)
	keys := make([]string, 0, len(sig.Extra))
	for k := range sig.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-14s %.4f\n", k, sig.Extra[k])
	}
	fmt.Fprintf(w, "  recommendation %s\n", sig.Recommendation)
	if sig.LowConfidence {
		fmt.Fprintf(w, "  warning: low confidence, only %d observations available\n", sig.Observations)
	}
}

func printComparison(w io.Writer, r *model.ComparisonResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\tPeriod 1\tPeriod 2\n")
	fmt.Fprintf(tw, "range\t%s..%s\t%s..%s\n",
		r.Period1.Start.Format(model.DateLayout), r.Period1.End.Format(model.DateLayout),
		r.Period2.Start.Format(model.DateLayout), r.Period2.End.Format(model.DateLayout))
	fmt.Fprintf(tw, "days\t%d\t%d\n", r.Period1.Days, r.Period2.Days)
	fmt.Fprintf(tw, "average\t%.4f\t%.4f\n", r.Period1.Mean, r.Period2.Mean)
	fmt.Fprintf(tw, "minimum\t%.4f\t%.4f\n", r.Period1.Min, r.Period2.Min)
	fmt.Fprintf(tw, "maximum\t%.4f\t%.4f\n", r.Period1.Max, r.Period2.Max)
	fmt.Fprintf(tw, "volatility\t%.4f\t%.4f\n", r.Period1.StdDev, r.Period2.StdDev)
	tw.Flush()

	fmt.Fprintf(w, "\naverage change     %+.2f (%s)\n", r.Comparison.AvgRateDiff, notifier.Percent(r.Comparison.AvgRatePctChange))
	fmt.Fprintf(w, "volatility change  %+.4f (%s)\n", r.Comparison.VolatilityChange, notifier.Percent(r.Comparison.VolatilityPctChange))
}

func printList(w io.Writer, rows [][2]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}
