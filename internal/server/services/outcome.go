package services

import "github.com/dmitrijs2005/attendance/internal/server/models"

// Outcome is the result of a scan. It is one of Marked, NoMatch or
// Ambiguous; callers switch on the concrete type.
type Outcome interface {
	outcome()
}

// Marked means a student was recorded present.
type Marked struct {
	StudentID  string
	Name       string
	Confidence float64
	Mark       *models.Mark
}

// NoMatch means no enrolled student cleared the acceptance threshold.
type NoMatch struct{}

// Ambiguous lists near-tied candidates. Nothing was written; the teacher
// picks one and calls ResolveTwin with the same image.
type Ambiguous struct {
	Candidates []models.Candidate
}

func (Marked) outcome()    {}
func (NoMatch) outcome()   {}
func (Ambiguous) outcome() {}
