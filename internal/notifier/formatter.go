package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"PatternScout/internal/model"
	"PatternScout/internal/scanner"
)

const timeLayout = "Mon 01/02 15:04"

// money renders v with two decimals, e.g. "5.00".
func money(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) }

func pct(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.IsPositive() {
		return "+" + d.StringFixed(2) + "%"
	}
	return d.StringFixed(2) + "%"
}

func stamp(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc).Format(timeLayout)
}

// FormatPatterns formats ranked patterns with their most recent trades.
func FormatPatterns(asset model.Asset, title string, patterns []model.Pattern, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>%s</b> | %s\n\n", asset.Label(), title))
	if len(patterns) == 0 {
		b.WriteString("No recurring profitable pattern found.\n")
		return b.String()
	}
	for i, p := range patterns {
		b.WriteString(fmt.Sprintf("%d. Buy <b>%s</b> → Sell <b>%s</b>\n", i+1, p.BuyKey, p.SellKey))
		b.WriteString(fmt.Sprintf("   %d× | avg profit $%s | ROI %s\n", p.OccurrenceCount, money(p.AverageProfit), pct(p.AverageROIPercent)))
		for _, tr := range p.Recent(model.RecentTrades) {
			b.WriteString(fmt.Sprintf("   • %s $%s → %s $%s (+$%s)\n",
				stamp(tr.BuyTimeMs, loc), money(tr.BuyPrice),
				stamp(tr.SellTimeMs, loc), money(tr.SellPrice), money(tr.Profit)))
		}
	}
	return b.String()
}

// FormatRSI formats an RSI report with its latest readings.
func FormatRSI(asset model.Asset, report model.RSIReport, loc *time.Location, rows int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s RSI(%d)</b>\n\n", asset.Label(), report.Period))
	if !report.Available {
		b.WriteString(fmt.Sprintf("Not enough data: need at least %d hourly closes.\n", report.Period+1))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Current: <b>%s</b> %s %s\n", money(report.Value), statusIcon(report.Status), report.Status))

	window := report.Window
	if rows > 0 && len(window) > rows {
		window = window[len(window)-rows:]
	}
	if len(window) > 0 {
		b.WriteString("\n")
	}
	for i := len(window) - 1; i >= 0; i-- {
		p := window[i]
		b.WriteString(fmt.Sprintf("%s  $%s  %s\n", stamp(p.TimestampMs, loc), money(p.Price), money(p.RSI)))
	}
	return b.String()
}

func statusIcon(s model.RSIStatus) string {
	switch s {
	case model.RSIOverbought:
		return "🔴"
	case model.RSIOversold:
		return "🟢"
	default:
		return "⚪"
	}
}

// FormatSummary formats period price statistics.
func FormatSummary(asset model.Asset, s model.Summary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %d hours\n", asset.Label(), s.Periods))
	b.WriteString(fmt.Sprintf("High $%s | Low $%s\n", money(s.High), money(s.Low)))
	b.WriteString(fmt.Sprintf("First $%s → Last $%s (%s, %s)\n", money(s.First), money(s.Last), money(s.TotalChange), pct(s.ChangePercent)))
	return b.String()
}

// FormatScan formats a multi-symbol scan: the best pattern of each ranked
// symbol, then the symbols that failed.
func FormatScan(report *scanner.Report, loc *time.Location) string {
	var b strings.Builder
	scope := "whole week"
	if report.BuyDay != nil {
		scope = "buying on " + report.BuyDay.String()
	}
	b.WriteString(fmt.Sprintf("🚀 <b>Top patterns</b> | %s | %d symbols\n\n", scope, len(report.Results)))

	if len(report.Ranked) == 0 {
		b.WriteString("No symbol produced a qualifying pattern.\n")
	}
	for i, res := range report.Ranked {
		best, _ := res.Best()
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %s → %s | %d× | $%s | ROI %s\n",
			i+1, res.Asset.Label(), best.BuyKey, best.SellKey,
			best.OccurrenceCount, money(best.AverageProfit), pct(best.AverageROIPercent)))
		if recent := best.Recent(1); len(recent) == 1 {
			tr := recent[0]
			b.WriteString(fmt.Sprintf("   last: %s → %s (+$%s)\n", stamp(tr.BuyTimeMs, loc), stamp(tr.SellTimeMs, loc), money(tr.Profit)))
		}
	}

	if failed := report.Failed(); len(failed) > 0 {
		b.WriteString("\n⚠️ Failed:\n")
		for _, f := range failed {
			b.WriteString(fmt.Sprintf("  %s: %v\n", f.Asset.Symbol, f.Err))
		}
	}
	return b.String()
}

// FormatRSIAlert formats an alert for a symbol whose RSI left the neutral band.
func FormatRSIAlert(asset model.Asset, report model.RSIReport) string {
	return fmt.Sprintf("%s <b>%s</b> RSI(%d) %s: %s", statusIcon(report.Status), asset.Label(), report.Period, report.Status, money(report.Value))
}
