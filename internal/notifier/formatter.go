package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"RateSentinel/internal/model"
)

var recommendationIcon = map[model.Recommendation]string{
	model.RecommendBuy:  "🟢",
	model.RecommendSell: "🔴",
	model.RecommendHold: "⚪",
}

// FormatObservation formats a freshly recorded rate.
func FormatObservation(pair string, obs model.Observation) string {
	return fmt.Sprintf("💱 <b>%s</b> | %s\n\nRate: %s (%s)\n",
		html.EscapeString(pair), obs.Date.Format(model.DateLayout), obs.Rate.StringFixed(4), html.EscapeString(obs.Source))
}

// FormatSignal formats a strategy signal into a Telegram message.
func FormatSignal(pair string, sig *model.Signal) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(pair), sig.Date.Format(model.DateLayout)))
	b.WriteString(fmt.Sprintf("Current rate: %.4f\n", sig.CurrentRate))
	b.WriteString(fmt.Sprintf("%s: %.4f\n", sig.Metric, sig.MetricValue))

	keys := make([]string, 0, len(sig.Extra))
	for k := range sig.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%s: %.4f\n", k, sig.Extra[k]))
	}

	b.WriteString(fmt.Sprintf("\n%s <b>%s</b>\n", recommendationIcon[sig.Recommendation], sig.Recommendation))
	if sig.LowConfidence {
		b.WriteString(fmt.Sprintf("\n⚠️ Low confidence: based on %d observations only\n", sig.Observations))
	}
	return b.String()
}

// FormatComparison formats a period comparison.
func FormatComparison(r *model.ComparisonResult) string {
	var b strings.Builder
	title := "Period comparison"
	if r.Pair != "" {
		title = r.Pair + " " + strings.ToLower(title)
	}
	b.WriteString(fmt.Sprintf("📈 <b>%s</b>\n\n", html.EscapeString(title)))
	for i, w := range []model.WindowStats{r.Period1, r.Period2} {
		b.WriteString(fmt.Sprintf("<b>Period %d</b> %s → %s (%d days)\n", i+1,
			w.Start.Format(model.DateLayout), w.End.Format(model.DateLayout), w.Days))
		b.WriteString(fmt.Sprintf("  avg %.4f | min %.4f | max %.4f | vol %.4f\n", w.Mean, w.Min, w.Max, w.StdDev))
	}
	b.WriteString(fmt.Sprintf("\nAvg change: %+.4f (%s)\n", r.Comparison.AvgRateDiff, Percent(r.Comparison.AvgRatePctChange)))
	b.WriteString(fmt.Sprintf("Volatility change: %+.4f (%s)\n", r.Comparison.VolatilityChange, Percent(r.Comparison.VolatilityPctChange)))
	return b.String()
}

// FormatFailure formats a failed scheduled run.
func FormatFailure(pair, stage string, err error) string {
	return fmt.Sprintf("❌ <b>%s</b> %s failed\n\n%s", html.EscapeString(pair), stage, html.EscapeString(err.Error()))
}

// Percent renders a percentage with two decimals and a sign, "n/a" when undefined.
func Percent(p model.Percent) string {
	if p.IsUndefined() {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", float64(p))
}
