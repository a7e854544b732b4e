package billing

import (
	"testing"
	"time"
)

func TestCycleRange_CalendarMonth(t *testing.T) {
	tests := []struct {
		name  string
		month int
		year  int
		want  Range
	}{
		{"january", 0, 2025, Range{"2025-01-01", "2025-01-31"}},
		{"february leap", 1, 2024, Range{"2024-02-01", "2024-02-29"}},
		{"february common", 1, 2025, Range{"2025-02-01", "2025-02-28"}},
		{"april", 3, 2025, Range{"2025-04-01", "2025-04-30"}},
		{"december", 11, 2025, Range{"2025-12-01", "2025-12-31"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CycleRange(tt.month, tt.year, 1)
			if got != tt.want {
				t.Errorf("CycleRange(%d, %d, 1) = %+v, want %+v", tt.month, tt.year, got, tt.want)
			}
		})
	}
}

func TestCycleRange_ShiftedStart(t *testing.T) {
	tests := []struct {
		name     string
		month    int
		year     int
		startDay int
		want     Range
	}{
		{"25th of january", 0, 2025, 25, Range{"2025-01-25", "2025-02-24"}},
		{"crosses year end", 11, 2025, 15, Range{"2025-12-15", "2026-01-14"}},
		{"2nd of march", 2, 2025, 2, Range{"2025-03-02", "2025-04-01"}},
		{"31st of april overflows", 3, 2025, 31, Range{"2025-05-01", "2025-05-30"}},
		{"30th of february leap", 1, 2024, 30, Range{"2024-03-01", "2024-03-29"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CycleRange(tt.month, tt.year, tt.startDay)
			if got != tt.want {
				t.Errorf("CycleRange(%d, %d, %d) = %+v, want %+v", tt.month, tt.year, tt.startDay, got, tt.want)
			}
		})
	}
}

func TestCycleRange_LengthMatchesMonth(t *testing.T) {
	for _, year := range []int{2023, 2024, 2100} {
		for month := 0; month < 12; month++ {
			want := DaysInMonth(month, year)
			for day := 1; day <= 31; day++ {
				r := CycleRange(month, year, day)
				if got := r.Days(); got != want {
					t.Fatalf("CycleRange(%d, %d, %d) spans %d days, want %d (%+v)", month, year, day, got, want, r)
				}
			}
		}
	}
}

func TestCycleRange_Idempotent(t *testing.T) {
	a := CycleRange(5, 2025, 17)
	b := CycleRange(5, 2025, 17)
	if a != b {
		t.Errorf("identical inputs gave %+v and %+v", a, b)
	}
}

func TestCycleRange_ClampsStartDay(t *testing.T) {
	if got, want := CycleRange(0, 2025, 0), CycleRange(0, 2025, 1); got != want {
		t.Errorf("start day 0 = %+v, want %+v", got, want)
	}
	if got, want := CycleRange(0, 2025, 40), CycleRange(0, 2025, 31); got != want {
		t.Errorf("start day 40 = %+v, want %+v", got, want)
	}
}

func TestCurrentCycle(t *testing.T) {
	tests := []struct {
		name     string
		today    time.Time
		startDay int
		want     Range
	}{
		{"calendar month", time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), 1, Range{"2025-03-01", "2025-03-31"}},
		{"after start day", time.Date(2025, 3, 26, 0, 0, 0, 0, time.UTC), 25, Range{"2025-03-25", "2025-04-24"}},
		{"before start day", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 25, Range{"2025-02-25", "2025-03-24"}},
		{"january before start", time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), 10, Range{"2024-12-10", "2025-01-09"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentCycle(tt.today, tt.startDay); got != tt.want {
				t.Errorf("CurrentCycle() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRangeContains(t *testing.T) {
	r := Range{From: "2025-01-25", To: "2025-02-24"}
	for date, want := range map[string]bool{
		"2025-01-24": false,
		"2025-01-25": true,
		"2025-02-10": true,
		"2025-02-24": true,
		"2025-02-25": false,
	} {
		if got := r.Contains(date); got != want {
			t.Errorf("Contains(%q) = %v, want %v", date, got, want)
		}
	}
}
