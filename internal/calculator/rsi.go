package calculator

import (
	"PatternScout/internal/model"
	"PatternScout/internal/series"
)

// DefaultRSIPeriod is the classic Wilder lookback.
const DefaultRSIPeriod = 14

// DefaultRSIWindow is how many trailing points a report carries.
const DefaultRSIWindow = 24

// Band thresholds; both are inclusive to their named band.
const (
	OverboughtLevel = 70.0
	OversoldLevel   = 30.0
)

// wilder carries the smoothed averages between steps.
type wilder struct {
	period           int
	avgGain, avgLoss float64
}

func gainLoss(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

// seed averages the first period changes of closes (needs period+1 closes).
func seed(closes []float64, period int) wilder {
	w := wilder{period: period}
	for i := 1; i <= period; i++ {
		g, l := gainLoss(closes[i] - closes[i-1])
		w.avgGain += g
		w.avgLoss += l
	}
	w.avgGain /= float64(period)
	w.avgLoss /= float64(period)
	return w
}

func (w *wilder) step(change float64) {
	g, l := gainLoss(change)
	w.avgGain = (w.avgGain*float64(w.period-1) + g) / float64(w.period)
	w.avgLoss = (w.avgLoss*float64(w.period-1) + l) / float64(w.period)
}

// value maps the averages to 0..100. A flat window (no gains, no losses)
// also lands on avgLoss == 0 and reads 100.
func (w *wilder) value() float64 {
	if w.avgLoss == 0 {
		return 100.0
	}
	rs := w.avgGain / w.avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// CalculateRSI computes the Wilder-smoothed RSI of the whole close sequence.
// ok is false when fewer than period+1 closes are given or period < 1.
func CalculateRSI(closes []float64, period int) (rsi float64, ok bool) {
	if period < 1 || len(closes) < period+1 {
		return 0, false
	}

	w := seed(closes, period)
	for i := period + 1; i < len(closes); i++ {
		w.step(closes[i] - closes[i-1])
	}
	return w.value(), true
}

// CalculateRSISeries returns one RSIPoint per index i >= period, each equal to
// CalculateRSI over points[0..i]. The averages are carried forward instead of
// replayed, so the cost is linear.
func CalculateRSISeries(points []model.NormalizedPoint, period int) []model.RSIPoint {
	if period < 1 || len(points) < period+1 {
		return nil
	}
	closes := series.Closes(points)

	out := make([]model.RSIPoint, 0, len(points)-period)
	w := seed(closes, period)
	for i := period; i < len(closes); i++ {
		if i > period {
			w.step(closes[i] - closes[i-1])
		}
		out = append(out, model.RSIPoint{
			TimestampMs: points[i].TimestampMs,
			Price:       closes[i],
			RSI:         w.value(),
		})
	}
	return out
}

// ClassifyRSI maps a value to its band.
func ClassifyRSI(rsi float64) model.RSIStatus {
	switch {
	case rsi >= OverboughtLevel:
		return model.RSIOverbought
	case rsi <= OversoldLevel:
		return model.RSIOversold
	default:
		return model.RSINeutral
	}
}

// BuildRSIReport computes the current RSI, its band and the last window points.
func BuildRSIReport(points []model.NormalizedPoint, period, window int) model.RSIReport {
	if period < 1 {
		period = DefaultRSIPeriod
	}
	if window <= 0 {
		window = DefaultRSIWindow
	}
	report := model.RSIReport{Period: period}

	history := CalculateRSISeries(points, period)
	if len(history) == 0 {
		return report
	}
	last := history[len(history)-1]
	report.Available = true
	report.Value = last.RSI
	report.Status = ClassifyRSI(last.RSI)
	if len(history) > window {
		history = history[len(history)-window:]
	}
	report.Window = history
	return report
}
