package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Trade Analytics Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Runs: %d | Trades: %d | Initial Capital: %s\n\n",
		r.RunCount, r.TotalTrades, r.InitialCapital.StringFixed(2)))

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	if len(r.Runs) > 0 {
		sb.WriteString("| Run | Trades | Wins | Losses | WinRate% | Net P&L | PF | Expectancy | Final Balance | Return% | MaxDD% | MaxLossStreak |\n")
		sb.WriteString("|-----|--------|------|--------|----------|---------|----|-----------:|---------------|---------|--------|---------------|\n")
		for _, row := range r.Runs {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %s | %s | %s | %s | %s | %s | %s | %d |\n",
				row.RunID, row.TotalTrades, row.WinningTrades, row.LosingTrades,
				row.WinRate.StringFixed(2), row.NetProfit.StringFixed(2),
				fmtOpt(row.ProfitFactor, 4), fmtOpt(row.Expectancy, 2),
				row.FinalBalance.StringFixed(2), row.TotalReturnPct.StringFixed(2),
				fmtOpt(row.MaxDrawdownPct, 2), row.MaxConsecutiveLosses))
		}
	} else {
		sb.WriteString("No runs available.\n")
	}
	sb.WriteString("\n")

	// Per-run drawdown detail
	for _, d := range r.Details {
		dd := d.Analytics.Drawdowns
		if dd == nil || len(dd.Top) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("## Drawdowns: %s\n\n", d.RunID))
		sb.WriteString(fmt.Sprintf("Periods: %d\n\n", dd.TotalPeriods))
		sb.WriteString("| Peak | Trough | Amount | Pct | Duration | Recovered |\n")
		sb.WriteString("|------|--------|--------|-----|----------|----------|\n")
		for _, p := range dd.Top {
			recovered := "no"
			if p.Recovered {
				recovered = "yes"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
				p.PeakTime.Format(time.RFC3339), p.TroughTime.Format(time.RFC3339),
				p.DrawdownAmount.StringFixed(2), p.DrawdownPct.StringFixed(2),
				p.Duration, recovered))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// fmtOpt renders an optional decimal, "n/a" when undefined.
func fmtOpt(d *decimal.Decimal, places int32) string {
	if d == nil {
		return "n/a"
	}
	return d.StringFixed(places)
}
