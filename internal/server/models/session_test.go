package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/attendance/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) timex.TimeOfDay {
	t.Helper()
	v, err := timex.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

func TestSession_Length(t *testing.T) {
	s := &Session{Start: mustTime(t, "09:00"), End: mustTime(t, "09:50")}
	assert.Equal(t, 50*time.Minute, s.Length())
}

func TestSession_Overlaps(t *testing.T) {
	day := timex.Date{Year: 2026, Month: time.October, Day: 19}
	base := &Session{SectionID: "x", Date: day, Start: mustTime(t, "09:00"), End: mustTime(t, "10:00")}

	tests := []struct {
		name  string
		other *Session
		want  bool
	}{
		{"same window", &Session{SectionID: "x", Date: day, Start: mustTime(t, "09:00"), End: mustTime(t, "10:00")}, true},
		{"partial", &Session{SectionID: "x", Date: day, Start: mustTime(t, "09:30"), End: mustTime(t, "10:30")}, true},
		{"back to back", &Session{SectionID: "x", Date: day, Start: mustTime(t, "10:00"), End: mustTime(t, "11:00")}, false},
		{"before", &Session{SectionID: "x", Date: day, Start: mustTime(t, "08:00"), End: mustTime(t, "09:00")}, false},
		{"other section", &Session{SectionID: "y", Date: day, Start: mustTime(t, "09:00"), End: mustTime(t, "10:00")}, false},
		{"other day", &Session{SectionID: "x", Date: timex.Date{Year: 2026, Month: time.October, Day: 20}, Start: mustTime(t, "09:00"), End: mustTime(t, "10:00")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("Present")
	require.NoError(t, err)
	assert.Equal(t, StatusPresent, st)

	_, err = ParseStatus("late")
	assert.Error(t, err)
}
