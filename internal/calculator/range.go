package calculator

import (
	"errors"
	"math"

	"PatternScout/internal/model"
)

// CalculateRange returns the highest and lowest close in the series.
func CalculateRange(points []model.NormalizedPoint) (high, low float64, err error) {
	if len(points) == 0 {
		return 0, 0, errors.New("no points provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range points {
		if p.Close > high {
			high = p.Close
		}
		if p.Close < low {
			low = p.Close
		}
	}
	return high, low, nil
}

// Summarize computes period statistics. An empty series yields a zero Summary.
func Summarize(points []model.NormalizedPoint) model.Summary {
	high, low, err := CalculateRange(points)
	if err != nil {
		return model.Summary{}
	}
	first := points[0].Close
	last := points[len(points)-1].Close
	s := model.Summary{
		Periods:     len(points),
		High:        high,
		Low:         low,
		First:       first,
		Last:        last,
		TotalChange: last - first,
	}
	if first != 0 {
		s.ChangePercent = (last - first) / first * 100
	}
	return s
}
