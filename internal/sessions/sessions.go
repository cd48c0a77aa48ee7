// Package sessions defines the trading session windows, anchored to New York
// time, and resolves which session is active at any instant.
package sessions

import "time"

// Session is one named trading window. Start and End are minutes since
// midnight New York time; windows that wrap midnight have Start > End.
type Session struct {
	ID          string
	Name        string
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
	Description string
}

// Windows lists the sessions in lookup priority order. The first window
// containing the instant wins when windows overlap.
var Windows = []Session{
	{
		ID: "asian_range", Name: "Asian Range",
		StartHour: 20, EndHour: 4,
		Description: "Consolidation period",
	},
	{
		ID: "london_killzone", Name: "London Killzone",
		StartHour: 2, EndHour: 5,
		Description: "High volatility - London open",
	},
	{
		ID: "london_lunch", Name: "London Lunch",
		StartHour: 7, EndHour: 8,
		Description: "Lower volatility",
	},
	{
		ID: "london_ny_overlap", Name: "London vs. New York",
		StartHour: 8, EndHour: 12,
		Description: "Key trading window - Major overlap",
	},
	{
		ID: "silver_bullet", Name: "Silver Bullet Hours",
		StartHour: 10, EndHour: 11,
		Description: "Reversal window",
	},
	{
		ID: "ny_session", Name: "New York Session",
		StartHour: 8, EndHour: 17,
		Description: "Major U.S. trading hours",
	},
}

var newYork *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// tzdata missing: fall back to fixed EST rather than fail startup.
		loc = time.FixedZone("EST", -5*3600)
	}
	newYork = loc
}

func minutesOf(h, m int) int { return h*60 + m }

// contains reports whether the window covers the given minutes-since-midnight,
// handling windows that wrap past midnight. Both endpoints are inclusive.
func (s Session) contains(minutes int) bool {
	start := minutesOf(s.StartHour, s.StartMinute)
	end := minutesOf(s.EndHour, s.EndMinute)
	if start > end {
		return minutes >= start || minutes <= end
	}
	return minutes >= start && minutes <= end
}

// Active returns the session covering t, or nil when no window matches.
func Active(t time.Time) *Session {
	local := t.In(newYork)
	minutes := minutesOf(local.Hour(), local.Minute())
	for i := range Windows {
		if Windows[i].contains(minutes) {
			s := Windows[i]
			return &s
		}
	}
	return nil
}

// ActiveName returns the active session's name, or empty when none is active.
func ActiveName(t time.Time) string {
	if s := Active(t); s != nil {
		return s.Name
	}
	return ""
}

// ByID looks a session up by identifier.
func ByID(id string) (Session, bool) {
	for _, s := range Windows {
		if s.ID == id {
			return s, true
		}
	}
	return Session{}, false
}
