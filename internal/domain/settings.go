package domain

import "time"

// Settings is the singleton service-wide row gating checkout.
type Settings struct {
	IsOpen       bool          `json:"is_open"`
	OpeningHours *OpeningHours `json:"opening_hours,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IsOpenAt reports whether the service accepts orders at t. The manual
// is_open switch wins; opening hours narrow it further when set.
func (s Settings) IsOpenAt(t time.Time) bool {
	if !s.IsOpen {
		return false
	}
	if s.OpeningHours == nil {
		return true
	}
	open, okOpen := parseClock(s.OpeningHours.Open)
	close, okClose := parseClock(s.OpeningHours.Close)
	if !okOpen || !okClose {
		return true
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= open && minute < close
}
