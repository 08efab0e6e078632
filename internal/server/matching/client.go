// Package matching talks to the face-matching collaborator. The service only
// interprets the answer shape; embeddings and scoring live on the other side.
package matching

import (
	"context"

	"github.com/dmitrijs2005/attendance/internal/server/models"
)

// Result is the raw answer for one capture. Exactly one of the forms is set:
// a single match (Match != nil), a candidate list (len(Candidates) > 0), or
// nothing at all (no match).
type Result struct {
	Match      *models.Candidate
	Candidates []models.Candidate
}

// Empty reports whether the matcher found no one.
func (r Result) Empty() bool {
	return r.Match == nil && len(r.Candidates) == 0
}

// Client matches a capture against the faces enrolled in a section.
// Failures to reach the collaborator wrap common.ErrTransient.
type Client interface {
	Match(ctx context.Context, sectionID string, image []byte) (Result, error)
}
