package leaderboard

import "time"

const (
	openHour = 17
	// Monday=0 weekday convention, so Sunday is 6.
	sundayOffset = 6
)

// Gate controls when the weekly leaderboard may be produced: Sundays from
// 17:00:00 through 23:59:59 server time. It is a pure function of the
// clock; nothing but time passing moves it between Closed and Open.
type Gate struct {
	now func() time.Time
}

func NewGate() *Gate {
	return &Gate{now: time.Now}
}

func (g *Gate) Open() bool {
	return g.OpenAt(g.now())
}

// OpenAt reports whether the gate is open at t.
func (g *Gate) OpenAt(t time.Time) bool {
	if weekday(t) != sundayOffset {
		return false
	}
	return t.Hour() >= openHour
}

func (g *Gate) NextOpen() time.Time {
	return g.NextOpenAt(g.now())
}

// NextOpenAt returns the next Sunday 17:00:00 relative to t. On a Sunday
// before 17:00 that is today; once the window has started the answer is
// next week's Sunday.
func (g *Gate) NextOpenAt(t time.Time) time.Time {
	days := (sundayOffset - weekday(t)) % 7
	if days == 0 && t.Hour() >= openHour {
		days = 7
	}
	target := t.AddDate(0, 0, days)
	year, month, day := target.Date()
	return time.Date(year, month, day, openHour, 0, 0, 0, t.Location())
}

func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
