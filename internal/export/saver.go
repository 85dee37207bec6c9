// Package export writes pattern and RSI results to csv, json or parquet files.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Saver writes export rows to a file.
type Saver interface {
	SavePatterns(rows []PatternRow, path string) error
	SaveRSI(rows []RSIRow, path string) error
	Extension() string
}

// NewSaver creates the implementation for format (csv, parquet, json).
// Returns nil if format is not supported.
func NewSaver(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// Path builds dir/<symbol>_<kind>_<yyyymmdd-hhmm>.<ext>.
func Path(dir, symbol, kind string, at time.Time, s Saver) string {
	name := fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(symbol), kind, at.Format("20060102-1504"), s.Extension())
	return filepath.Join(dir, name)
}
