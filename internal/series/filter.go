package series

import (
	"time"

	"PatternScout/internal/model"
)

// FilterSpec selects points for display. A nil set means "no restriction".
type FilterSpec struct {
	Keys  map[model.DayHourKey]bool
	Dates map[int]bool // day of month, 1..31
	Hours map[uint8]bool
}

// Filter returns the points accepted by every non-nil set of spec.
// The input is not modified and indices are preserved.
func Filter(points []model.NormalizedPoint, spec FilterSpec, loc *time.Location) []model.NormalizedPoint {
	if loc == nil {
		loc = DefaultLocation
	}
	out := make([]model.NormalizedPoint, 0, len(points))
	for _, p := range points {
		if spec.Keys != nil && !spec.Keys[p.Key()] {
			continue
		}
		if spec.Hours != nil && !spec.Hours[p.Hour] {
			continue
		}
		if spec.Dates != nil && !spec.Dates[time.UnixMilli(p.TimestampMs).In(loc).Day()] {
			continue
		}
		out = append(out, p)
	}
	return out
}
