package dateinput

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC) // a Wednesday
	day := func(d int) time.Time {
		return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		args []string
		want time.Time
	}{
		{"today", []string{"today", "tod", "ToDAY"}, day(4)},
		{"tomorrow", []string{"tomorrow", "tom", "1", "+1", "1d", "1 day", "in 1 day"}, day(5)},
		{"a week", []string{"7", "7d", "7 days"}, day(11)},
		{"next friday", []string{"fri", "friday"}, day(6)},
		{"same weekday jumps a week", []string{"wed", "wednesday"}, day(11)},
		{"absolute slash", []string{"20/4/26", "20/4/2026"}, time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)},
		{"absolute iso", []string{"2026-04-20"}, time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)},
		{"absolute month name", []string{"20 apr 2026", "20 Apr 2026", "20 april 2026"}, time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, in := range tt.args {
				got := Parse(in, now)
				if got == nil {
					t.Fatalf("Parse(%q) = nil, want %v", in, tt.want)
				}
				if !got.Equal(tt.want) {
					t.Errorf("Parse(%q) = %v, want %v", in, got, tt.want)
				}
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	now := time.Now()
	for _, in := range []string{"", "  ", "soonish", "32/13/26", "0x7", "-"} {
		if got := Parse(in, now); got != nil {
			t.Errorf("Parse(%q) = %v, want nil", in, got)
		}
	}
}
