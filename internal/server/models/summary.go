package models

import "time"

// SummaryItem is one enrolled student's line in a session summary.
type SummaryItem struct {
	StudentID string
	Name      string
	RollNo    string
	Status    Status
	MarkedAt  *time.Time
	Source    Source
}

// Summary aggregates the marks of a session over the section roster.
type Summary struct {
	SessionID string
	Total     int
	Present   int
	Absent    int
	Unmarked  int
	Items     []SummaryItem
}
