package export

import (
	"encoding/json"
	"os"
)

// JSONSaver writes rows as an indented JSON array.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) SavePatterns(rows []PatternRow, path string) error { return writeJSON(path, rows) }

func (JSONSaver) SaveRSI(rows []RSIRow, path string) error { return writeJSON(path, rows) }

func writeJSON[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return err
	}
	return f.Close()
}
