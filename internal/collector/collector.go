package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"PatternScout/internal/calculator"
	"PatternScout/internal/model"
	"PatternScout/internal/series"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	// Candles, when set, is returned for every symbol (trimmed to limit).
	Candles []model.Candle
	// Failing makes FetchHourly return an error for the listed symbols.
	Failing map[string]error
	// Start is the open time of the first generated candle.
	Start time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHourly(ctx context.Context, symbol string, limit int, _ time.Time) ([]model.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Failing[symbol]; ok {
		return nil, err
	}
	candles := m.Candles
	if candles == nil {
		candles = generateMockCandles(m.Price, m.Start, limit)
	}
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// generateMockCandles produces a gently oscillating hourly series that repeats
// every week, so the miner finds stable patterns in it.
func generateMockCandles(basePrice float64, start time.Time, count int) []model.Candle {
	if basePrice <= 0 {
		basePrice = 100
	}
	if start.IsZero() {
		start = time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	}
	candles := make([]model.Candle, count)
	for i := 0; i < count; i++ {
		phase := 2 * math.Pi * float64(i%model.KeySpace) / model.KeySpace
		candles[i] = model.Candle{
			OpenTimeMs: start.Add(time.Duration(i) * time.Hour).UnixMilli(),
			Close:      basePrice * (1 + 0.02*math.Sin(phase) + 0.0001*float64(i)),
			Volume:     1000,
		}
	}
	return candles
}

// Options configures a Collector.
type Options struct {
	Location  *time.Location
	Months    int
	RSIPeriod int
	RSIWindow int
}

// Collector orchestrates fetching, normalization and indicator computation.
type Collector struct {
	Fetcher Fetcher
	opts    Options
	log     *logrus.Entry
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, opts Options, log *logrus.Logger) *Collector {
	if opts.Location == nil {
		opts.Location = series.DefaultLocation
	}
	if opts.Months <= 0 {
		opts.Months = 1
	}
	if opts.RSIPeriod <= 0 {
		opts.RSIPeriod = calculator.DefaultRSIPeriod
	}
	if opts.RSIWindow <= 0 {
		opts.RSIWindow = calculator.DefaultRSIWindow
	}
	return &Collector{
		Fetcher: fetcher,
		opts:    opts,
		log:     log.WithField("component", "collector"),
	}
}

// Location is the zone used for bucketing and display.
func (c *Collector) Location() *time.Location { return c.opts.Location }

// Points fetches the configured history for symbol and normalizes it.
func (c *Collector) Points(ctx context.Context, symbol string) ([]model.NormalizedPoint, error) {
	limit := c.opts.Months * HoursPerMonth
	candles, err := c.Fetcher.FetchHourly(ctx, symbol, limit, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	points, err := series.Normalize(candles, c.opts.Location)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", symbol, err)
	}
	c.log.WithFields(logrus.Fields{
		"symbol": symbol,
		"source": c.Fetcher.Name(),
		"points": len(points),
	}).Debug("series collected")
	return points, nil
}

// Collect fetches the series for asset and computes its RSI report and summary.
func (c *Collector) Collect(ctx context.Context, asset model.Asset) (*model.Snapshot, error) {
	points, err := c.Points(ctx, asset.Symbol)
	if err != nil {
		return nil, err
	}
	snap := &model.Snapshot{
		Asset:   asset,
		Points:  points,
		RSI:     calculator.BuildRSIReport(points, c.opts.RSIPeriod, c.opts.RSIWindow),
		Summary: calculator.Summarize(points),
	}
	if !snap.RSI.Available {
		c.log.WithFields(logrus.Fields{"symbol": asset.Symbol, "points": len(points)}).
			Warn("not enough data for RSI")
	}
	return snap, nil
}
