// Package model defines the domain types used across the application.
package model

import "time"

// Shift represents one posted work shift scraped from the listing site.
// Link is the site's numeric identifier for the shift's detail page and
// is the primary deduplication key across polling cycles.
type Shift struct {
	Name      string
	Start     time.Time
	End       time.Time
	Location  string
	Company   string
	Occupied  int
	MaxOccupy int
	Link      int64
	Position  string

	// Connected holds sub-shifts bound to this shift by a "liquidating"
	// row marker on the source site. A connected sub-shift is not an
	// independent listing; it must pass the same user filters as its
	// parent for the parent to be delivered.
	Connected []Shift
}

// Duration returns the length of the shift.
func (s Shift) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Equal reports whether two shifts describe the same posting.
// All scalar identity fields must match and the connected sub-shift
// lists must be equal as sets (order does not matter).
func (s Shift) Equal(other Shift) bool {
	if s.Name != other.Name ||
		!s.Start.Equal(other.Start) ||
		!s.End.Equal(other.End) ||
		s.Location != other.Location ||
		s.Company != other.Company ||
		s.MaxOccupy != other.MaxOccupy ||
		s.Link != other.Link {
		return false
	}
	if len(s.Connected) != len(other.Connected) {
		return false
	}
	used := make([]bool, len(other.Connected))
outer:
	for _, c := range s.Connected {
		for i, oc := range other.Connected {
			if !used[i] && c.Equal(oc) {
				used[i] = true
				continue outer
			}
		}
		return false
	}
	return true
}

// Clone returns a deep copy of the shift, including connected sub-shifts.
func (s Shift) Clone() Shift {
	cp := s
	if s.Connected != nil {
		cp.Connected = make([]Shift, len(s.Connected))
		for i, c := range s.Connected {
			cp.Connected[i] = c.Clone()
		}
	}
	return cp
}

// CloneShifts deep-copies a slice of shifts.
func CloneShifts(shifts []Shift) []Shift {
	if shifts == nil {
		return nil
	}
	out := make([]Shift, len(shifts))
	for i, s := range shifts {
		out[i] = s.Clone()
	}
	return out
}

// ListField is a single id+value entry of a filter's company, location
// or position list.
type ListField struct {
	ID    int64
	Value string
}

// Filter is a per-user rule set evaluated against new shifts.
// Every user owns exactly two: one allow-list (IsBlackList=false) and
// one deny-list (IsBlackList=true).
type Filter struct {
	ID          int64
	UserID      int64
	IsBlackList bool
	IsAnd       bool
	Companies   []ListField
	Locations   []ListField
	Positions   []ListField

	// Longer and Shorter are exclusive bounds on shift duration.
	// A nil bound is inactive.
	Longer  *time.Duration
	Shorter *time.Duration
}

// IsEmpty reports whether the filter has no active conditions.
func (f Filter) IsEmpty() bool {
	return len(f.Companies) == 0 && len(f.Locations) == 0 && len(f.Positions) == 0 &&
		f.Longer == nil && f.Shorter == nil
}

// Mute suppresses notifications for one shift link to one user.
type Mute struct {
	ID        int64
	UserID    int64
	ShiftLink int64
	CreatedAt time.Time
}

// User is a registered Telegram user of the bot.
type User struct {
	ID         int64
	TgID       int64
	IsAdmin    bool
	AccessEnds *time.Time
	CreatedAt  time.Time
}

// HasActiveAccess reports whether the user's subscription is active at t.
func (u User) HasActiveAccess(t time.Time) bool {
	return u.AccessEnds != nil && u.AccessEnds.After(t)
}
