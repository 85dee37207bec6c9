// Package miner searches a normalized hourly series for recurring
// "buy at day/hour X, sell at day/hour Y" patterns that were profitable.
package miner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"PatternScout/internal/model"
)

// ErrCancelled is returned when the context is done before mining finishes.
// No partial pattern list accompanies it.
var ErrCancelled = errors.New("analysis cancelled")

const (
	DefaultMinOccurrences    = 3
	DefaultDayMinOccurrences = 2
	DefaultTopK              = 5
)

// ProgressFunc is called after every buy-key unit with the unit count so far,
// the total number of units and the name of the buy day being processed.
type ProgressFunc func(completed, total int, label string)

// Options parameterizes a mining run.
type Options struct {
	// MinOccurrences is the number of profitable instances a pair needs.
	// Zero or less selects DefaultMinOccurrences, or DefaultDayMinOccurrences
	// when BuyDay is set.
	MinOccurrences int
	// TopK caps the ranked result. Zero selects DefaultTopK; negative keeps all.
	TopK int
	// BuyDay restricts buy keys to a single weekday (24 units instead of 168).
	BuyDay *model.Weekday
	// Progress is optional.
	Progress ProgressFunc
}

func (o Options) minOccurrences() int {
	switch {
	case o.MinOccurrences > 0:
		return o.MinOccurrences
	case o.BuyDay != nil:
		return DefaultDayMinOccurrences
	default:
		return DefaultMinOccurrences
	}
}

func (o Options) topK() int {
	if o.TopK == 0 {
		return DefaultTopK
	}
	return o.TopK
}

// Excluded reports whether selling at sell after buying at buy is disallowed:
// same weekday at the same or an earlier hour.
func Excluded(buy, sell model.DayHourKey) bool {
	return buy.Day == sell.Day && sell.Hour <= buy.Hour
}

// Mine evaluates every allowed (buy key, sell key) pair against points.
//
// For each point matching the buy key only the nearest later point matching
// the sell key is considered; the pair counts once for that buy if the sell
// close is strictly higher. Eligible pairs are ranked by occurrence count then
// average profit, both descending, ties kept in enumeration order.
//
// Empty input yields an empty result. The context is checked before every
// buy-key unit.
func Mine(ctx context.Context, points []model.NormalizedPoint, opts Options) ([]model.Pattern, error) {
	days := []model.Weekday{model.Sunday, model.Monday, model.Tuesday, model.Wednesday,
		model.Thursday, model.Friday, model.Saturday}
	if opts.BuyDay != nil {
		if !opts.BuyDay.Valid() {
			return nil, fmt.Errorf("invalid buy day %d", *opts.BuyDay)
		}
		days = []model.Weekday{*opts.BuyDay}
	}
	minOcc := opts.minOccurrences()
	total := len(days) * model.HoursPerDay

	keys := make([]int, len(points))
	var buysByKey [model.KeySpace][]int
	for i, p := range points {
		k := p.Key().Index()
		keys[i] = k
		buysByKey[k] = append(buysByKey[k], i)
	}

	var found []model.Pattern
	completed := 0
	for _, day := range days {
		for hour := 0; hour < model.HoursPerDay; hour++ {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
			}
			buyKey := model.DayHourKey{Day: day, Hour: uint8(hour)}
			found = mineBuyKey(points, keys, buysByKey[buyKey.Index()], buyKey, minOcc, found)

			completed++
			if opts.Progress != nil {
				opts.Progress(completed, total, day.String())
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	Rank(found)
	if k := opts.topK(); k > 0 && len(found) > k {
		found = found[:k]
	}
	return found, nil
}

type accumulator struct {
	instances   []model.TradeInstance
	totalProfit float64
	totalBuy    float64
}

// mineBuyKey appends the eligible patterns of one buy key to dst, in sell-key
// enumeration order.
func mineBuyKey(points []model.NormalizedPoint, keys, buys []int, buyKey model.DayHourKey, minOcc int, dst []model.Pattern) []model.Pattern {
	if len(buys) == 0 {
		return dst
	}

	var acc [model.KeySpace]accumulator
	var nearest [model.KeySpace]int
	for _, i := range buys {
		for k := range nearest {
			nearest[k] = -1
		}
		// Walk forward until every key has been seen once; on hourly data
		// that is about a week of points.
		remaining := model.KeySpace
		for j := i + 1; j < len(points) && remaining > 0; j++ {
			if nearest[keys[j]] < 0 {
				nearest[keys[j]] = j
				remaining--
			}
		}

		buy := points[i]
		for k, j := range nearest {
			if j < 0 || Excluded(buyKey, model.KeyAt(k)) {
				continue
			}
			sell := points[j]
			profit := sell.Close - buy.Close
			if profit <= 0 {
				continue
			}
			a := &acc[k]
			a.instances = append(a.instances, model.TradeInstance{
				BuyIndex:   buy.Index,
				SellIndex:  sell.Index,
				BuyTimeMs:  buy.TimestampMs,
				SellTimeMs: sell.TimestampMs,
				BuyPrice:   buy.Close,
				SellPrice:  sell.Close,
				Profit:     profit,
			})
			a.totalProfit += profit
			a.totalBuy += buy.Close
		}
	}

	for k := range acc {
		a := &acc[k]
		count := len(a.instances)
		if count == 0 || count < minOcc {
			continue
		}
		avgProfit := a.totalProfit / float64(count)
		avgBuy := a.totalBuy / float64(count)
		roi := 0.0
		if avgBuy > 0 {
			roi = avgProfit / avgBuy * 100
		}
		dst = append(dst, model.Pattern{
			BuyKey:            buyKey,
			SellKey:           model.KeyAt(k),
			OccurrenceCount:   count,
			AverageProfit:     avgProfit,
			AverageROIPercent: roi,
			Instances:         a.instances,
		})
	}
	return dst
}

// Rank sorts patterns by occurrence count then average profit, descending.
// The sort is stable, so equal patterns keep their input order.
func Rank(patterns []model.Pattern) {
	sort.SliceStable(patterns, func(i, j int) bool {
		a, b := patterns[i], patterns[j]
		if a.OccurrenceCount != b.OccurrenceCount {
			return a.OccurrenceCount > b.OccurrenceCount
		}
		return a.AverageProfit > b.AverageProfit
	})
}
