package sessions

import (
	"testing"
	"time"
)

// nyTime builds an instant at the given New York wall-clock time.
func nyTime(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*3600)
	}
	return time.Date(2026, time.January, 15, hour, minute, 0, 0, loc)
}

func TestActive(t *testing.T) {
	tests := []struct {
		name   string
		hour   int
		minute int
		wantID string
	}{
		{"late evening falls in the Asian range", 22, 0, "asian_range"},
		{"Asian range wraps past midnight", 1, 30, "asian_range"},
		{"Asian range end is inclusive", 4, 0, "asian_range"},
		{"pre-dawn lands in the London killzone", 4, 30, "london_killzone"},
		{"London lunch", 7, 30, "london_lunch"},
		{"morning overlap beats the NY session", 9, 0, "london_ny_overlap"},
		{"overlap still wins during silver bullet hours", 10, 30, "london_ny_overlap"},
		{"afternoon belongs to the NY session", 14, 0, "ny_session"},
		{"NY close is inclusive", 17, 0, "ny_session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Active(nyTime(t, tt.hour, tt.minute))
			if got == nil {
				t.Fatalf("no active session at %02d:%02d, want %s", tt.hour, tt.minute, tt.wantID)
			}
			if got.ID != tt.wantID {
				t.Errorf("active session = %s, want %s", got.ID, tt.wantID)
			}
		})
	}
}

func TestActive_DeadZone(t *testing.T) {
	// Between NY close and the Asian open no window applies.
	if got := Active(nyTime(t, 18, 30)); got != nil {
		t.Errorf("expected no session at 18:30 NY, got %s", got.ID)
	}
}

func TestActive_ConvertsFromOtherZones(t *testing.T) {
	// 19:00 UTC in January is 14:00 in New York.
	utc := time.Date(2026, time.January, 15, 19, 0, 0, 0, time.UTC)
	got := Active(utc)
	if got == nil || got.ID != "ny_session" {
		t.Errorf("active session for 19:00 UTC = %v, want ny_session", got)
	}
}

func TestByID(t *testing.T) {
	s, ok := ByID("silver_bullet")
	if !ok || s.Name != "Silver Bullet Hours" {
		t.Errorf("ByID(silver_bullet) = %+v, %v", s, ok)
	}
	if _, ok := ByID("nope"); ok {
		t.Error("unknown id should not resolve")
	}
}
