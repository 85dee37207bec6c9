package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"PatternScout/internal/model"
)

const (
	binanceMaxLimit   = 1000
	binanceMaxRetries = 3
)

// BinanceFetcher implements Fetcher using the Binance public klines API.
type BinanceFetcher struct {
	BaseURL   string
	Client    *http.Client
	PageDelay time.Duration
	// Backoff is the wait after a 429/418 response without Retry-After.
	Backoff time.Duration

	log *logrus.Entry
}

// NewBinanceFetcher creates a new fetcher with optional proxy support.
func NewBinanceFetcher(baseURL, proxyURL string, pageDelay time.Duration, log *logrus.Logger) *BinanceFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BinanceFetcher{
		BaseURL:   baseURL,
		PageDelay: pageDelay,
		Backoff:   5 * time.Second,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		log: log.WithField("component", "binance"),
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// FetchHourly pages backwards from end, 1000 candles per request, until limit
// candles are collected or the exchange has no older data.
func (f *BinanceFetcher) FetchHourly(ctx context.Context, symbol string, limit int, end time.Time) ([]model.Candle, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("fetch %s: limit must be positive", symbol)
	}

	var endTime int64
	if !end.IsZero() {
		endTime = end.UnixMilli()
	}

	var all []model.Candle
	for len(all) < limit {
		page, err := f.fetchPage(ctx, symbol, min(binanceMaxLimit, limit-len(all)), endTime)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		all = append(page, all...)
		endTime = page[0].OpenTimeMs - 1
		f.log.WithFields(logrus.Fields{"symbol": symbol, "fetched": len(all), "target": limit}).Debug("page fetched")

		if len(page) < binanceMaxLimit && len(all) < limit {
			// A short page means the listing starts here.
			break
		}
		if len(all) < limit {
			if err := sleep(ctx, f.PageDelay); err != nil {
				return nil, err
			}
		}
	}

	all = sortCandles(all)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (f *BinanceFetcher) fetchPage(ctx context.Context, symbol string, limit int, endTime int64) ([]model.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "1h")
	q.Set("limit", strconv.Itoa(limit))
	if endTime > 0 {
		q.Set("endTime", strconv.FormatInt(endTime, 10))
	}
	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", f.BaseURL, q.Encode())

	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch klines %s: %w", symbol, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusTeapot {
			resp.Body.Close()
			if attempt >= binanceMaxRetries {
				return nil, fmt.Errorf("fetch klines %s: rate limited after %d retries", symbol, attempt)
			}
			wait := retryAfter(resp.Header.Get("Retry-After"), f.Backoff)
			f.log.WithFields(logrus.Fields{"symbol": symbol, "status": resp.StatusCode, "wait": wait}).Warn("rate limited, backing off")
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("fetch klines %s: status %d, body: %s", symbol, resp.StatusCode, string(body))
		}
		var rows [][]json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode klines %s: %w", symbol, err)
		}
		return parseKlines(rows)
	}
}

// parseKlines reads open time, close and volume from Binance kline rows:
// [openTime, open, high, low, close, volume, closeTime, ...].
func parseKlines(rows [][]json.RawMessage) ([]model.Candle, error) {
	candles := make([]model.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline %d: expected at least 6 fields, got %d", i, len(row))
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, fmt.Errorf("kline %d open time: %w", i, err)
		}
		closePrice, err := quotedFloat(row[4])
		if err != nil {
			return nil, fmt.Errorf("kline %d close: %w", i, err)
		}
		volume, err := quotedFloat(row[5])
		if err != nil {
			return nil, fmt.Errorf("kline %d volume: %w", i, err)
		}
		candles = append(candles, model.Candle{OpenTimeMs: openTime, Close: closePrice, Volume: volume})
	}
	return candles, nil
}

func quotedFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return 0, err
		}
		return f, nil
	}
	return strconv.ParseFloat(s, 64)
}

// sortCandles orders candles by open time and drops repeated timestamps,
// keeping the last copy seen.
func sortCandles(candles []model.Candle) []model.Candle {
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].OpenTimeMs < candles[j].OpenTimeMs })
	out := candles[:0]
	for _, c := range candles {
		if n := len(out); n > 0 && out[n-1].OpenTimeMs == c.OpenTimeMs {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}

func retryAfter(header string, fallback time.Duration) time.Duration {
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
