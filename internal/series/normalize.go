// Package series turns raw hourly candles into day/hour bucketed points.
//
// Bucketing uses exactly one caller-supplied *time.Location. The same location
// is used for RSI display timestamps, so a point's weekday, hour and rendered
// time always agree.
package series

import (
	"errors"
	"fmt"
	"math"
	"time"

	"PatternScout/internal/model"
)

// ErrInvalidInput is returned for empty, unordered or malformed candle input.
var ErrInvalidInput = errors.New("invalid input")

// DefaultLocation is a fixed UTC+05:00 zone with no DST transitions.
var DefaultLocation = time.FixedZone("UTC+05:00", 5*60*60)

// Normalize validates candles and buckets them by weekday and hour in loc.
// Candles must be strictly ascending by open time; sorting and de-duplication
// belong to the fetcher.
func Normalize(candles []model.Candle, loc *time.Location) ([]model.NormalizedPoint, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: no candles", ErrInvalidInput)
	}
	if loc == nil {
		loc = DefaultLocation
	}

	points := make([]model.NormalizedPoint, len(candles))
	for i, c := range candles {
		if err := validateCandle(c); err != nil {
			return nil, fmt.Errorf("%w: candle %d: %v", ErrInvalidInput, i, err)
		}
		if i > 0 && c.OpenTimeMs <= candles[i-1].OpenTimeMs {
			return nil, fmt.Errorf("%w: candle %d: open time %d not after %d",
				ErrInvalidInput, i, c.OpenTimeMs, candles[i-1].OpenTimeMs)
		}

		t := time.UnixMilli(c.OpenTimeMs).In(loc)
		change := 0.0
		if i > 0 {
			change = c.Close - candles[i-1].Close
		}
		points[i] = model.NormalizedPoint{
			Index:          i,
			TimestampMs:    c.OpenTimeMs,
			Day:            model.Weekday(t.Weekday()),
			Hour:           uint8(t.Hour()),
			Close:          c.Close,
			ChangeFromPrev: change,
		}
	}
	return points, nil
}

func validateCandle(c model.Candle) error {
	if math.IsNaN(c.Close) || math.IsInf(c.Close, 0) {
		return errors.New("close is not finite")
	}
	if c.Close <= 0 {
		return fmt.Errorf("close %v must be positive", c.Close)
	}
	if math.IsNaN(c.Volume) || math.IsInf(c.Volume, 0) || c.Volume < 0 {
		return fmt.Errorf("volume %v must be finite and non-negative", c.Volume)
	}
	return nil
}

// Closes extracts the close prices in order.
func Closes(points []model.NormalizedPoint) []float64 {
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}
	return closes
}

// LoadLocation resolves an IANA name or a fixed offset like "+05:00".
// An empty name yields DefaultLocation.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return DefaultLocation, nil
	}
	if name[0] == '+' || name[0] == '-' {
		t, err := time.Parse("-07:00", name)
		if err != nil {
			return nil, fmt.Errorf("parse offset %q: %w", name, err)
		}
		_, offset := t.Zone()
		return time.FixedZone("UTC"+name, offset), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", name, err)
	}
	return loc, nil
}
