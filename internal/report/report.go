// Package report renders metric results as plain text for chat and terminal.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"coindash/internal/finance"
	"coindash/internal/news"
)

func IER(rep finance.IERReport) string {
	r := rep.Result
	if r.Diagnostic != nil && r.Diagnostic.Kind != finance.KindNoDrawdown {
		return fmt.Sprintf("%s IER unavailable: %s", rep.Coin, r.Diagnostic.Message)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s • %dd (%s, %d points)\n", rep.Coin, rep.Days, rep.Source, rep.Points)
	fmt.Fprintf(&b, "Final value: $%.2f\n", r.FinalValue)
	fmt.Fprintf(&b, "Max drawdown: $%.2f\n", r.MaxDrawdown)
	fmt.Fprintf(&b, "IER: %s\n", Ratio(r.Ratio))
	if st := rep.Stats; st != nil {
		fmt.Fprintf(&b, "Return %.2f%% • Vol %.2f%% • Sharpe %.2f • DD %.2f%%\n",
			st.TotalReturn, st.Volatility, st.SharpeRatio, st.MaxDrawdown)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Correlation lists the anchor's row, strongest first.
func Correlation(anchor string, res finance.CorrelationResult) string {
	if res.Diagnostic != nil {
		return "Correlation unavailable: " + res.Diagnostic.Message
	}
	var row []finance.CorrelationEntry
	for _, e := range res.Entries {
		if e.Row == anchor && e.Col != anchor {
			row = append(row, e)
		}
	}
	if len(row) == 0 {
		return fmt.Sprintf("Correlation matrix built for %s, but %s had no data.", strings.Join(res.Labels, ", "), anchor)
	}
	sort.SliceStable(row, func(i, j int) bool { return row[i].Value > row[j].Value })
	var b strings.Builder
	fmt.Fprintf(&b, "%s daily-return correlation (%d points)\n", anchor, res.Points)
	for _, e := range row {
		fmt.Fprintf(&b, "  • %s: %+.2f (%s)\n", e.Col, e.Value, e.Strength)
	}
	return strings.TrimRight(b.String(), "\n")
}

func Simulation(req finance.SimulationRequest, end time.Time, res finance.SimulationResult) string {
	if res.Diagnostic != nil {
		return "Simulation failed: " + res.Diagnostic.Message
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s from %s to %s\n", strings.ToUpper(req.Coin), req.Strategy,
		req.StartDate.Format(time.DateOnly), end.Format(time.DateOnly))
	fmt.Fprintf(&b, "Invested: $%.2f", *res.TotalInvested)
	if res.Installments > 1 {
		fmt.Fprintf(&b, " over %d buys", res.Installments)
	}
	fmt.Fprintf(&b, "\nFinal value: $%.2f\nProfit: $%.2f (%.2f%%)", *res.FinalValue, *res.Profit, *res.ProfitPercent)
	return b.String()
}

func News(dg news.Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Headlines (+%d / -%d / =%d)\n", dg.Tally.Positive, dg.Tally.Negative, dg.Tally.Neutral)
	for _, h := range dg.Items {
		fmt.Fprintf(&b, "• [%s] %s\n  %s\n", h.Sentiment, h.Title, h.Link)
	}
	if dg.Archived {
		fmt.Fprintf(&b, "(archived %s)", dg.FetchedAt.Format(time.DateTime))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Ratio prints an IER, spelling out the no-drawdown case.
func Ratio(r float64) string {
	if math.IsInf(r, 1) {
		return "∞ (no drawdown)"
	}
	return fmt.Sprintf("%.2f", r)
}
