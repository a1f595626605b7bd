package domain

import "time"

type OpeningHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

type Merchant struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Address      string       `json:"address"`
	Logo         string       `json:"logo"`
	OpeningHours OpeningHours `json:"openingHours"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Point        int64        `json:"point"`
}

// IsOpenAt reports whether t falls inside the merchant's opening hours.
// Malformed hours are treated as closed.
func (m Merchant) IsOpenAt(t time.Time) bool {
	open, okOpen := parseClock(m.OpeningHours.Open)
	close, okClose := parseClock(m.OpeningHours.Close)
	if !okOpen || !okClose {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= open && minute < close
}

func parseClock(s string) (int, bool) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return parsed.Hour()*60 + parsed.Minute(), true
}
