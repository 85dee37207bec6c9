package export

import (
	"encoding/csv"
	"os"
	"strconv"
)

// CSVSaver writes rows as CSV with a header line.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) SavePatterns(rows []PatternRow, path string) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			r.Symbol,
			strconv.Itoa(r.Rank),
			r.BuyDay,
			strconv.Itoa(r.BuyHour),
			r.SellDay,
			strconv.Itoa(r.SellHour),
			strconv.Itoa(r.Occurrences),
			floatStr(r.AvgProfit),
			floatStr(r.AvgROI),
		}
	}
	header := []string{"symbol", "rank", "buy_day", "buy_hour", "sell_day", "sell_hour", "occurrences", "avg_profit", "avg_roi_pct"}
	return writeCSV(path, header, records)
}

func (CSVSaver) SaveRSI(rows []RSIRow, path string) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			r.Symbol,
			strconv.FormatInt(r.TimestampMs, 10),
			r.Time,
			floatStr(r.Price),
			floatStr(r.RSI),
		}
	}
	return writeCSV(path, []string{"symbol", "t", "time", "price", "rsi"}, records)
}

func writeCSV(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return f.Close()
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
