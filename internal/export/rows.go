package export

import (
	"time"

	"PatternScout/internal/model"
)

// PatternRow is the flat export form of a Pattern.
type PatternRow struct {
	Symbol      string  `json:"symbol" parquet:"symbol"`
	Rank        int     `json:"rank" parquet:"rank"`
	BuyDay      string  `json:"buy_day" parquet:"buy_day"`
	BuyHour     int     `json:"buy_hour" parquet:"buy_hour"`
	SellDay     string  `json:"sell_day" parquet:"sell_day"`
	SellHour    int     `json:"sell_hour" parquet:"sell_hour"`
	Occurrences int     `json:"occurrences" parquet:"occurrences"`
	AvgProfit   float64 `json:"avg_profit" parquet:"avg_profit"`
	AvgROI      float64 `json:"avg_roi_pct" parquet:"avg_roi_pct"`
}

// RSIRow is one RSI point with its display time.
type RSIRow struct {
	Symbol      string  `json:"symbol" parquet:"symbol"`
	TimestampMs int64   `json:"t" parquet:"t"`
	Time        string  `json:"time" parquet:"time"`
	Price       float64 `json:"price" parquet:"price"`
	RSI         float64 `json:"rsi" parquet:"rsi"`
}

// PatternRows flattens ranked patterns; Rank starts at 1.
func PatternRows(symbol string, patterns []model.Pattern) []PatternRow {
	rows := make([]PatternRow, len(patterns))
	for i, p := range patterns {
		rows[i] = PatternRow{
			Symbol:      symbol,
			Rank:        i + 1,
			BuyDay:      p.BuyKey.Day.String(),
			BuyHour:     int(p.BuyKey.Hour),
			SellDay:     p.SellKey.Day.String(),
			SellHour:    int(p.SellKey.Hour),
			Occurrences: p.OccurrenceCount,
			AvgProfit:   p.AverageProfit,
			AvgROI:      p.AverageROIPercent,
		}
	}
	return rows
}

// RSIRows converts RSI points, rendering times in loc.
func RSIRows(symbol string, points []model.RSIPoint, loc *time.Location) []RSIRow {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([]RSIRow, len(points))
	for i, p := range points {
		rows[i] = RSIRow{
			Symbol:      symbol,
			TimestampMs: p.TimestampMs,
			Time:        time.UnixMilli(p.TimestampMs).In(loc).Format("2006-01-02 15:04 -07:00"),
			Price:       p.Price,
			RSI:         p.RSI,
		}
	}
	return rows
}
