package model

import (
	"fmt"
	"strings"
)

// Candle is a single hourly bar as delivered by an exchange.
type Candle struct {
	OpenTimeMs int64   `json:"open_time_ms"`
	Close      float64 `json:"close"`
	Volume     float64 `json:"volume"`
}

// Weekday mirrors time.Weekday (Sunday == 0) so keys order day-major from Sunday.
type Weekday uint8

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// DaysPerWeek and HoursPerDay bound the DayHourKey space.
const (
	DaysPerWeek = 7
	HoursPerDay = 24
	KeySpace    = DaysPerWeek * HoursPerDay
)

var weekdayNames = [DaysPerWeek]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func (d Weekday) String() string {
	if int(d) < DaysPerWeek {
		return weekdayNames[d]
	}
	return fmt.Sprintf("Weekday(%d)", d)
}

// Valid reports whether d is in Sun..Sat.
func (d Weekday) Valid() bool { return int(d) < DaysPerWeek }

// ParseWeekday accepts short or long English names, case-insensitive.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range weekdayNames {
		short := strings.ToLower(name)
		if s == short || (len(s) > 3 && strings.HasPrefix(s, short)) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// DayHourKey identifies one of the 168 weekly hour buckets.
type DayHourKey struct {
	Day  Weekday
	Hour uint8
}

// Index packs the key into 0..167, day-major then hour-minor.
func (k DayHourKey) Index() int { return int(k.Day)*HoursPerDay + int(k.Hour) }

// KeyAt is the inverse of Index.
func KeyAt(index int) DayHourKey {
	return DayHourKey{Day: Weekday(index / HoursPerDay), Hour: uint8(index % HoursPerDay)}
}

func (k DayHourKey) String() string { return fmt.Sprintf("%s %02d:00", k.Day, k.Hour) }

// NormalizedPoint is a candle bucketed into its weekly day/hour slot.
type NormalizedPoint struct {
	Index          int
	TimestampMs    int64
	Day            Weekday
	Hour           uint8
	Close          float64
	ChangeFromPrev float64
}

// Key returns the point's DayHourKey.
func (p NormalizedPoint) Key() DayHourKey { return DayHourKey{Day: p.Day, Hour: p.Hour} }

// Asset is one tradable symbol with a display name.
type Asset struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	Name   string `yaml:"name" json:"name"`
}

// Label prefers the display name.
func (a Asset) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Symbol
}
