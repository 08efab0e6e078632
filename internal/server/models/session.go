// Package models defines the attendance records shared by repositories,
// services and the transport layer.
package models

import (
	"time"

	"github.com/dmitrijs2005/attendance/internal/timex"
)

// Session is one class period of attendance taking for a section.
type Session struct {
	ID        string
	SectionID string
	Date      timex.Date
	Start     timex.TimeOfDay
	End       timex.TimeOfDay

	// Locked is set by submission; the grace period is derived from
	// SubmittedAt, not stored.
	Locked      bool
	SubmittedAt *time.Time

	CreatedAt time.Time
	// CreatedBy is the teacher id from the caller token, if any.
	CreatedBy string
}

// Length returns the scheduled length of the period.
func (s *Session) Length() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps reports whether the half-open windows [Start, End) of two
// sessions on the same section and day intersect.
func (s *Session) Overlaps(o *Session) bool {
	if s.SectionID != o.SectionID || s.Date != o.Date {
		return false
	}
	return s.Start < o.End && o.Start < s.End
}
