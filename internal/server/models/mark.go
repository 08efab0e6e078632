package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is the presence state of a student within a session.
type Status string

const (
	StatusUnmarked Status = "unmarked"
	StatusPresent  Status = "present"
	StatusAbsent   Status = "absent"
)

// ParseStatus accepts the canonical lower-case names, case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(s)); st {
	case StatusUnmarked, StatusPresent, StatusAbsent:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// Source tells how a mark was produced.
type Source string

const (
	SourceScan   Source = "scan"
	SourceManual Source = "manual"
)

// Mark is the single live record for a (session, student) pair. A new
// write replaces Status, MarkedAt and Source.
type Mark struct {
	SessionID string
	StudentID string
	Status    Status
	MarkedAt  *time.Time
	Source    Source
}
