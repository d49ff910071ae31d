package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trade-analytics-lab/internal/domain"
)

// RenderRunSummaryCSV renders the run summary table as CSV string.
func RenderRunSummaryCSV(rows []RunSummaryRow) string {
	var sb strings.Builder

	sb.WriteString("run_id,total_trades,winning_trades,losing_trades,win_rate,")
	sb.WriteString("net_profit,profit_factor,expectancy,final_balance,total_return_pct,")
	sb.WriteString("max_drawdown_pct,max_consecutive_losses\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%d,%s,%s,%s,%s,%s,%s,%s,%d\n",
			r.RunID,
			r.TotalTrades,
			r.WinningTrades,
			r.LosingTrades,
			r.WinRate.StringFixed(4),
			r.NetProfit.StringFixed(2),
			csvOpt(r.ProfitFactor, 4),
			csvOpt(r.Expectancy, 2),
			r.FinalBalance.StringFixed(2),
			r.TotalReturnPct.StringFixed(4),
			csvOpt(r.MaxDrawdownPct, 4),
			r.MaxConsecutiveLosses,
		))
	}

	return sb.String()
}

// RenderEquityCurveCSV renders one run's equity curve as CSV string.
func RenderEquityCurveCSV(points []domain.EquityCurvePoint) string {
	var sb strings.Builder

	sb.WriteString("trade_sequence,timestamp,balance,cumulative_return_pct\n")

	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s\n",
			p.TradeSequence,
			p.Timestamp.UTC().Format(time.RFC3339Nano),
			p.Balance.StringFixed(2),
			p.CumulativeReturnPct.StringFixed(4),
		))
	}

	return sb.String()
}

// RenderDrawdownsCSV renders one run's drawdown periods as CSV string.
func RenderDrawdownsCSV(periods []domain.DrawdownPeriod) string {
	var sb strings.Builder

	sb.WriteString("peak_time,peak_balance,trough_time,trough_balance,")
	sb.WriteString("drawdown_amount,drawdown_pct,duration_secs,recovered,recovery_time\n")

	for _, p := range periods {
		recoveryTime := ""
		if p.RecoveryTime != nil {
			recoveryTime = p.RecoveryTime.UTC().Format(time.RFC3339Nano)
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%d,%t,%s\n",
			p.PeakTime.UTC().Format(time.RFC3339Nano),
			p.PeakBalance.StringFixed(2),
			p.TroughTime.UTC().Format(time.RFC3339Nano),
			p.TroughBalance.StringFixed(2),
			p.DrawdownAmount.StringFixed(2),
			p.DrawdownPct.StringFixed(4),
			int64(p.Duration.Seconds()),
			p.Recovered,
			recoveryTime,
		))
	}

	return sb.String()
}

// csvOpt renders an optional decimal, empty when undefined.
func csvOpt(d *decimal.Decimal, places int32) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(places)
}
