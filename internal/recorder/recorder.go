package recorder

import (
	"github.com/google/uuid"

	"PatternScout/internal/model"
	"PatternScout/internal/scanner"
)

// Mining modes stored alongside pattern rows.
const (
	ModeWeek = "week"
	ModeDay  = "day"
)

// Recorder persists analysis results for later review.
type Recorder interface {
	// RecordPatterns stores the ranked patterns of one mining run.
	RecordPatterns(runID uuid.UUID, symbol, mode string, patterns []model.Pattern) error
	// RecordRSI stores the current RSI reading of a symbol.
	RecordRSI(symbol string, report model.RSIReport) error
	// RecordScan stores a multi-symbol scan and the top patterns it ranked.
	RecordScan(report *scanner.Report) error
	Close() error
}

// DayMode returns the mode label of a single-weekday run, e.g. "day:Wed".
func DayMode(day model.Weekday) string { return ModeDay + ":" + day.String() }
