package series

import (
	"errors"
	"math"
	"testing"
	"time"

	"PatternScout/internal/model"
)

// hourly builds consecutive hourly candles starting at start.
func hourly(start time.Time, closes ...float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	for i, c := range closes {
		out[i] = model.Candle{
			OpenTimeMs: start.Add(time.Duration(i) * time.Hour).UnixMilli(),
			Close:      c,
			Volume:     100,
		}
	}
	return out
}

func TestNormalize_Buckets(t *testing.T) {
	// 2024-01-07 is a Sunday.
	start := time.Date(2024, 1, 7, 22, 0, 0, 0, DefaultLocation)
	points, err := Normalize(hourly(start, 10, 11, 9.5), DefaultLocation)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []struct {
		day    model.Weekday
		hour   uint8
		change float64
	}{
		{model.Sunday, 22, 0},
		{model.Sunday, 23, 1},
		{model.Monday, 0, -1.5},
	}
	for i, w := range want {
		p := points[i]
		if p.Index != i {
			t.Errorf("point %d: index %d", i, p.Index)
		}
		if p.Day != w.day || p.Hour != w.hour {
			t.Errorf("point %d: got %s %d, want %s %d", i, p.Day, p.Hour, w.day, w.hour)
		}
		if p.ChangeFromPrev != w.change {
			t.Errorf("point %d: change %v, want %v", i, p.ChangeFromPrev, w.change)
		}
	}
}

func TestNormalize_LocationChangesBucket(t *testing.T) {
	start := time.Date(2024, 1, 7, 22, 0, 0, 0, time.UTC) // Sun 22:00 UTC = Mon 03:00 UTC+5
	utc, err := Normalize(hourly(start, 1), time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	plus5, err := Normalize(hourly(start, 1), DefaultLocation)
	if err != nil {
		t.Fatal(err)
	}
	if utc[0].Key() != (model.DayHourKey{Day: model.Sunday, Hour: 22}) {
		t.Errorf("utc key = %s", utc[0].Key())
	}
	if plus5[0].Key() != (model.DayHourKey{Day: model.Monday, Hour: 3}) {
		t.Errorf("utc+5 key = %s", plus5[0].Key())
	}
}

func TestNormalize_Rejects(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	unsorted := hourly(start, 1, 2, 3)
	unsorted[1], unsorted[2] = unsorted[2], unsorted[1]
	dup := hourly(start, 1, 2)
	dup[1].OpenTimeMs = dup[0].OpenTimeMs

	tests := []struct {
		name    string
		candles []model.Candle
	}{
		{"empty", nil},
		{"unsorted", unsorted},
		{"duplicate", dup},
		{"nan close", hourly(start, 1, math.NaN())},
		{"inf close", hourly(start, math.Inf(1))},
		{"zero close", hourly(start, 0)},
		{"negative volume", []model.Candle{{OpenTimeMs: 1, Close: 1, Volume: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, err := Normalize(tt.candles, time.UTC)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if points != nil {
				t.Errorf("expected no points on error, got %d", len(points))
			}
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	candles := hourly(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 5, 6, 7, 6, 5)
	a, _ := Normalize(candles, DefaultLocation)
	b, _ := Normalize(candles, DefaultLocation)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs between runs", i)
		}
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("+05:00")
	if err != nil {
		t.Fatal(err)
	}
	if _, off := time.Unix(0, 0).In(loc).Zone(); off != 5*3600 {
		t.Errorf("offset = %d", off)
	}
	if loc, _ := LoadLocation(""); loc != DefaultLocation {
		t.Error("empty name should give DefaultLocation")
	}
	if _, err := LoadLocation("Not/AZone"); err == nil {
		t.Error("expected error for unknown zone")
	}
}

func TestFilter(t *testing.T) {
	start := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC) // Sunday the 7th
	points, _ := Normalize(hourly(start, 1, 2, 3, 4), time.UTC)

	got := Filter(points, FilterSpec{Hours: map[uint8]bool{1: true, 3: true}}, time.UTC)
	if len(got) != 2 || got[0].Index != 1 || got[1].Index != 3 {
		t.Errorf("hour filter = %+v", got)
	}

	got = Filter(points, FilterSpec{Keys: map[model.DayHourKey]bool{{Day: model.Sunday, Hour: 2}: true}}, time.UTC)
	if len(got) != 1 || got[0].Index != 2 {
		t.Errorf("key filter = %+v", got)
	}

	got = Filter(points, FilterSpec{Dates: map[int]bool{8: true}}, time.UTC)
	if len(got) != 0 {
		t.Errorf("date filter should exclude the 7th, got %d", len(got))
	}

	if got := Filter(points, FilterSpec{}, time.UTC); len(got) != len(points) {
		t.Errorf("empty filter kept %d of %d", len(got), len(points))
	}
}
