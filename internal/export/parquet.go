package export

import (
	"github.com/parquet-go/parquet-go"
)

// ParquetSaver writes rows as a Parquet file.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) SavePatterns(rows []PatternRow, path string) error {
	return parquet.WriteFile(path, rows)
}

func (ParquetSaver) SaveRSI(rows []RSIRow, path string) error {
	return parquet.WriteFile(path, rows)
}
