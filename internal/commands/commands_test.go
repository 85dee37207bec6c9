package commands

import (
	"testing"
	"time"

	"PatternScout/internal/model"
)

func TestParseDay(t *testing.T) {
	utc5 := time.FixedZone("UTC+05:00", 5*3600)
	// Saturday 21:00 UTC is already Sunday in UTC+05:00.
	now := time.Date(2024, 1, 6, 21, 0, 0, 0, time.UTC)

	tests := []struct {
		value   string
		want    *model.Weekday
		wantErr bool
	}{
		{value: "", want: nil},
		{value: "today", want: dayPtr(model.Sunday)},
		{value: "Tomorrow", want: dayPtr(model.Monday)},
		{value: "wed", want: dayPtr(model.Wednesday)},
		{value: "friday", want: dayPtr(model.Friday)},
		{value: "someday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseDay(tt.value, now, utc5)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDay(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("expected no day, got %v", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("expected %v, got %v", *tt.want, got)
			}
		})
	}
}

func TestPrintPlainStripsMarkup(t *testing.T) {
	if got := plain.Replace("<b>Solana</b> 1. Buy"); got != "Solana 1. Buy" {
		t.Errorf("unexpected plain text %q", got)
	}
}

func dayPtr(d model.Weekday) *model.Weekday { return &d }
