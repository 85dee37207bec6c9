package model

// RSIStatus is the band an RSI value falls into.
type RSIStatus string

const (
	RSIOverbought RSIStatus = "OVERBOUGHT"
	RSIOversold   RSIStatus = "OVERSOLD"
	RSINeutral    RSIStatus = "NEUTRAL"
)

// RSIPoint is the RSI at one hour of the series.
type RSIPoint struct {
	TimestampMs int64
	Price       float64
	RSI         float64
}

// RSIReport is the current RSI plus a trailing window for display.
// Available is false when the series is shorter than period+1.
type RSIReport struct {
	Period    int
	Available bool
	Value     float64
	Status    RSIStatus
	Window    []RSIPoint
}

// Summary holds price statistics over a normalized series.
type Summary struct {
	Periods       int
	High          float64
	Low           float64
	First         float64
	Last          float64
	TotalChange   float64
	ChangePercent float64
}

// Snapshot is everything collected for one symbol in a single pass.
type Snapshot struct {
	Asset   Asset
	Points  []NormalizedPoint
	RSI     RSIReport
	Summary Summary
}
