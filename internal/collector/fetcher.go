package collector

import (
	"context"
	"time"

	"PatternScout/internal/model"
)

// HoursPerMonth is the average number of hourly candles in a month.
const HoursPerMonth = 730

// Fetcher defines the interface for fetching hourly candles.
//
// FetchHourly returns at most limit candles ending at end (the latest
// available when end is zero), sorted ascending by open time with no
// duplicate timestamps.
type Fetcher interface {
	FetchHourly(ctx context.Context, symbol string, limit int, end time.Time) ([]model.Candle, error)
	Name() string
}
