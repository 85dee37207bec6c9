package miner

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"PatternScout/internal/model"
)

type spot struct {
	day   model.Weekday
	hour  uint8
	close float64
}

func build(spots ...spot) []model.NormalizedPoint {
	points := make([]model.NormalizedPoint, len(spots))
	for i, s := range spots {
		points[i] = model.NormalizedPoint{
			Index:       i,
			TimestampMs: int64(i) * 3_600_000,
			Day:         s.day,
			Hour:        s.hour,
			Close:       s.close,
		}
		if i > 0 {
			points[i].ChangeFromPrev = s.close - spots[i-1].close
		}
	}
	return points
}

// hourlyWalk generates weeks of contiguous hourly points starting Sunday 00:00.
func hourlyWalk(seed int64, weeks int) []model.NormalizedPoint {
	rng := rand.New(rand.NewSource(seed))
	spots := make([]spot, 0, weeks*model.KeySpace)
	price := 100.0
	for i := 0; i < weeks*model.KeySpace; i++ {
		price += rng.Float64()*2 - 1
		k := model.KeyAt(i % model.KeySpace)
		spots = append(spots, spot{k.Day, k.Hour, price})
	}
	return build(spots...)
}

// bruteForce is a direct pair-by-pair scan, used as an oracle.
func bruteForce(points []model.NormalizedPoint, minOcc int) []model.Pattern {
	var out []model.Pattern
	for b := 0; b < model.KeySpace; b++ {
		for s := 0; s < model.KeySpace; s++ {
			buyKey, sellKey := model.KeyAt(b), model.KeyAt(s)
			if Excluded(buyKey, sellKey) {
				continue
			}
			var instances []model.TradeInstance
			var totalProfit, totalBuy float64
			for i := range points {
				if points[i].Key() != buyKey {
					continue
				}
				for j := i + 1; j < len(points); j++ {
					if points[j].Key() != sellKey {
						continue
					}
					if profit := points[j].Close - points[i].Close; profit > 0 {
						instances = append(instances, model.TradeInstance{
							BuyIndex: i, SellIndex: j,
							BuyTimeMs: points[i].TimestampMs, SellTimeMs: points[j].TimestampMs,
							BuyPrice: points[i].Close, SellPrice: points[j].Close, Profit: profit,
						})
						totalProfit += profit
						totalBuy += points[i].Close
					}
					break
				}
			}
			if n := len(instances); n > 0 && n >= minOcc {
				avg := totalProfit / float64(n)
				out = append(out, model.Pattern{
					BuyKey: buyKey, SellKey: sellKey, OccurrenceCount: n,
					AverageProfit: avg, AverageROIPercent: avg / (totalBuy / float64(n)) * 100,
					Instances: instances,
				})
			}
		}
	}
	Rank(out)
	return out
}

func TestMine_EmptyInput(t *testing.T) {
	patterns, err := Mine(context.Background(), nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patterns) != 0 {
		t.Errorf("expected no patterns, got %d", len(patterns))
	}
}

func TestMine_BelowThreshold(t *testing.T) {
	points := build(
		spot{model.Monday, 9, 100},
		spot{model.Friday, 23, 105},
	)
	patterns, err := Mine(context.Background(), points, Options{MinOccurrences: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(patterns) != 0 {
		t.Errorf("expected empty list, got %+v", patterns)
	}
}

func TestMine_SinglePattern(t *testing.T) {
	var spots []spot
	for w := 0; w < 3; w++ {
		spots = append(spots, spot{model.Monday, 9, 100}, spot{model.Friday, 23, 105})
	}
	patterns, err := Mine(context.Background(), build(spots...), Options{MinOccurrences: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected 1 pattern, got %d: %+v", len(patterns), patterns)
	}
	p := patterns[0]
	if p.BuyKey != (model.DayHourKey{Day: model.Monday, Hour: 9}) || p.SellKey != (model.DayHourKey{Day: model.Friday, Hour: 23}) {
		t.Errorf("unexpected keys %s -> %s", p.BuyKey, p.SellKey)
	}
	if p.OccurrenceCount != 3 || p.AverageProfit != 5 || p.AverageROIPercent != 5 {
		t.Errorf("unexpected aggregates %+v", p)
	}
	if len(p.Instances) != 3 {
		t.Errorf("expected 3 instances, got %d", len(p.Instances))
	}
}

func TestMine_NearestSellOnly(t *testing.T) {
	// The first Fri 23 after the first buy is a loss; the later, profitable
	// Fri 23 must not be paired with it.
	points := build(
		spot{model.Monday, 9, 100},
		spot{model.Friday, 23, 90},
		spot{model.Monday, 9, 80},
		spot{model.Friday, 23, 200},
	)
	patterns, err := Mine(context.Background(), points, Options{MinOccurrences: 1, TopK: -1})
	if err != nil {
		t.Fatal(err)
	}
	var got *model.Pattern
	for i := range patterns {
		if patterns[i].BuyKey.Day == model.Monday && patterns[i].SellKey.Day == model.Friday {
			got = &patterns[i]
		}
	}
	if got == nil {
		t.Fatal("Mon 09 -> Fri 23 not found")
	}
	if got.OccurrenceCount != 1 || got.Instances[0].BuyIndex != 2 || got.Instances[0].SellIndex != 3 {
		t.Errorf("unexpected pairing %+v", got.Instances)
	}
}

func TestMine_SameDayExclusion(t *testing.T) {
	points := build(
		spot{model.Monday, 9, 100},
		spot{model.Monday, 10, 110},
		spot{model.Monday, 9, 90},
		spot{model.Monday, 10, 120},
	)
	patterns, err := Mine(context.Background(), points, Options{MinOccurrences: 1, TopK: -1})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range patterns {
		if p.BuyKey.Day == p.SellKey.Day && p.SellKey.Hour <= p.BuyKey.Hour {
			t.Errorf("excluded pair returned: %s -> %s", p.BuyKey, p.SellKey)
		}
	}
	if len(patterns) != 1 || patterns[0].OccurrenceCount != 2 {
		t.Errorf("expected Mon 09 -> Mon 10 twice, got %+v", patterns)
	}
}

func TestMine_Properties(t *testing.T) {
	points := hourlyWalk(7, 6)
	const minOcc = 3
	patterns, err := Mine(context.Background(), points, Options{MinOccurrences: minOcc, TopK: -1})
	if err != nil {
		t.Fatal(err)
	}
	if len(patterns) == 0 {
		t.Fatal("expected some patterns from a random walk")
	}
	for idx, p := range patterns {
		if p.BuyKey.Day == p.SellKey.Day && p.SellKey.Hour <= p.BuyKey.Hour {
			t.Errorf("pattern %d violates same-day exclusion", idx)
		}
		if p.OccurrenceCount != len(p.Instances) {
			t.Errorf("pattern %d count %d != %d instances", idx, p.OccurrenceCount, len(p.Instances))
		}
		if p.OccurrenceCount < minOcc {
			t.Errorf("pattern %d below threshold", idx)
		}
		seen := map[int]bool{}
		for _, in := range p.Instances {
			if seen[in.BuyIndex] {
				t.Errorf("pattern %d reuses buy index %d", idx, in.BuyIndex)
			}
			seen[in.BuyIndex] = true
			if !(in.SellPrice > in.BuyPrice) || in.Profit != in.SellPrice-in.BuyPrice {
				t.Errorf("pattern %d has unprofitable instance %+v", idx, in)
			}
			if in.SellIndex <= in.BuyIndex {
				t.Errorf("pattern %d sells before buying %+v", idx, in)
			}
			if points[in.BuyIndex].Key() != p.BuyKey || points[in.SellIndex].Key() != p.SellKey {
				t.Errorf("pattern %d instance keys do not match", idx)
			}
		}
		if idx > 0 {
			prev := patterns[idx-1]
			if prev.OccurrenceCount < p.OccurrenceCount ||
				(prev.OccurrenceCount == p.OccurrenceCount && prev.AverageProfit < p.AverageProfit) {
				t.Errorf("patterns %d and %d out of order", idx-1, idx)
			}
		}
	}
}

func TestMine_MatchesBruteForce(t *testing.T) {
	points := hourlyWalk(11, 5)
	// Drop a few hours to exercise gaps.
	points = append(points[:40:40], points[45:]...)
	for i := range points {
		points[i].Index = i
	}

	got, err := Mine(context.Background(), points, Options{MinOccurrences: 2, TopK: -1})
	if err != nil {
		t.Fatal(err)
	}
	want := bruteForce(points, 2)
	if len(got) != len(want) {
		t.Fatalf("got %d patterns, brute force %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.BuyKey != w.BuyKey || g.SellKey != w.SellKey || g.OccurrenceCount != w.OccurrenceCount ||
			g.AverageProfit != w.AverageProfit || g.AverageROIPercent != w.AverageROIPercent {
			t.Fatalf("rank %d: got %s->%s x%d %.6f, want %s->%s x%d %.6f", i,
				g.BuyKey, g.SellKey, g.OccurrenceCount, g.AverageProfit,
				w.BuyKey, w.SellKey, w.OccurrenceCount, w.AverageProfit)
		}
		for j := range w.Instances {
			if g.Instances[j] != w.Instances[j] {
				t.Fatalf("rank %d instance %d: got %+v, want %+v", i, j, g.Instances[j], w.Instances[j])
			}
		}
	}
}

func TestMine_TopKAndTieOrder(t *testing.T) {
	// Tue 01 -> Tue 02 and Tue 01 -> Tue 03 both profit 1 twice; the earlier
	// sell key in enumeration order must rank first.
	points := build(
		spot{model.Tuesday, 1, 10},
		spot{model.Tuesday, 2, 11},
		spot{model.Tuesday, 3, 11},
		spot{model.Tuesday, 1, 10},
		spot{model.Tuesday, 2, 11},
		spot{model.Tuesday, 3, 11},
	)
	patterns, err := Mine(context.Background(), points, Options{MinOccurrences: 2, TopK: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(patterns) != 1 {
		t.Fatalf("expected top 1, got %d", len(patterns))
	}
	if patterns[0].SellKey.Hour != 2 {
		t.Errorf("tie broken wrongly: sell %s", patterns[0].SellKey)
	}
}

func TestMine_BuyDayRestriction(t *testing.T) {
	points := hourlyWalk(3, 4)
	day := model.Wednesday
	var calls []int
	patterns, err := Mine(context.Background(), points, Options{
		BuyDay: &day,
		TopK:   -1,
		Progress: func(completed, total int, label string) {
			if total != 24 || label != "Wed" {
				t.Errorf("progress total=%d label=%q", total, label)
			}
			calls = append(calls, completed)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 24 || calls[23] != 24 {
		t.Errorf("expected 24 progress calls, got %v", calls)
	}
	for _, p := range patterns {
		if p.BuyKey.Day != model.Wednesday {
			t.Errorf("buy day %s outside restriction", p.BuyKey.Day)
		}
		if p.OccurrenceCount < DefaultDayMinOccurrences {
			t.Errorf("day variant threshold not applied: %d", p.OccurrenceCount)
		}
	}
}

func TestMine_Cancelled(t *testing.T) {
	points := hourlyWalk(5, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if patterns, err := Mine(ctx, points, Options{}); !errors.Is(err, ErrCancelled) || patterns != nil {
		t.Errorf("pre-cancelled: patterns=%v err=%v", patterns, err)
	}

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	units := 0
	patterns, err := Mine(ctx, points, Options{Progress: func(completed, _ int, _ string) {
		units = completed
		if completed == 5 {
			cancel()
		}
	}})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if patterns != nil {
		t.Error("cancelled run returned patterns")
	}
	if units != 5 {
		t.Errorf("mining continued to unit %d after cancel", units)
	}
}

func TestRun_Observe(t *testing.T) {
	var forwarded int
	run := NewRun("SOLUSDT", func(completed, _ int, _ string) { forwarded = completed })
	if _, err := Mine(context.Background(), hourlyWalk(1, 2), run.Options(Options{})); err != nil {
		t.Fatal(err)
	}
	p := run.Progress()
	if p.Completed != 168 || p.Total != 168 || p.Label != "Sat" || p.Percent() != 100 {
		t.Errorf("unexpected progress %+v", p)
	}
	if forwarded != 168 {
		t.Errorf("listener saw %d", forwarded)
	}
}

func TestTargetDay(t *testing.T) {
	// 2024-01-06 22:00 UTC is Saturday; in UTC+5 it is already Sunday.
	now := time.Date(2024, 1, 6, 22, 0, 0, 0, time.UTC)
	plus5 := time.FixedZone("UTC+05:00", 5*3600)
	if d := TargetDay(now, time.UTC, 0); d != model.Saturday {
		t.Errorf("today utc = %s", d)
	}
	if d := TargetDay(now, plus5, 0); d != model.Sunday {
		t.Errorf("today utc+5 = %s", d)
	}
	if d := TargetDay(now, plus5, 1); d != model.Monday {
		t.Errorf("tomorrow utc+5 = %s", d)
	}
}

func TestPatternRecent(t *testing.T) {
	p := model.Pattern{Instances: make([]model.TradeInstance, 5)}
	for i := range p.Instances {
		p.Instances[i].BuyIndex = i
	}
	recent := p.Recent(model.RecentTrades)
	if len(recent) != 3 || recent[0].BuyIndex != 2 {
		t.Errorf("recent = %+v", recent)
	}
}
