package miner

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"PatternScout/internal/model"
)

// Progress is a point-in-time view of a Run.
type Progress struct {
	Completed int
	Total     int
	Label     string
}

// Percent rounds completion to a whole percentage.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return (p.Completed*100 + p.Total/2) / p.Total
}

// Run tracks one analysis. It is handed to the miner through its Observe
// method and may be read concurrently from another goroutine.
type Run struct {
	ID        uuid.UUID
	Symbol    string
	StartedAt time.Time

	mu       sync.RWMutex
	progress Progress
	listener ProgressFunc
}

// NewRun creates a Run. listener, if non-nil, receives every update.
func NewRun(symbol string, listener ProgressFunc) *Run {
	return &Run{
		ID:        uuid.New(),
		Symbol:    symbol,
		StartedAt: time.Now(),
		listener:  listener,
	}
}

// Observe records progress; its signature matches ProgressFunc.
func (r *Run) Observe(completed, total int, label string) {
	r.mu.Lock()
	r.progress = Progress{Completed: completed, Total: total, Label: label}
	r.mu.Unlock()
	if r.listener != nil {
		r.listener(completed, total, label)
	}
}

// Progress returns the latest recorded progress.
func (r *Run) Progress() Progress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.progress
}

// Options returns opts with Progress routed through r.
func (r *Run) Options(opts Options) Options {
	opts.Progress = r.Observe
	return opts
}

// TargetDay is the weekday offsetDays after now in loc, e.g. 0 for today and
// 1 for tomorrow.
func TargetDay(now time.Time, loc *time.Location, offsetDays int) model.Weekday {
	if loc != nil {
		now = now.In(loc)
	}
	return model.Weekday(now.AddDate(0, 0, offsetDays).Weekday())
}
