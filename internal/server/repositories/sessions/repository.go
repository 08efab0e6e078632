package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/attendance/internal/server/models"
	"github.com/dmitrijs2005/attendance/internal/timex"
)

// Repository persists attendance sessions. List methods return sessions in
// insertion order.
type Repository interface {
	Create(ctx context.Context, s *models.Session) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	ListByDate(ctx context.Context, date timex.Date) ([]*models.Session, error)
	ListBySectionAndDate(ctx context.Context, sectionID string, date timex.Date) ([]*models.Session, error)
	// LockSchedule serializes schedule changes of one section and day until
	// the surrounding transaction ends, across server instances.
	LockSchedule(ctx context.Context, sectionID string, date timex.Date) error
	// MarkSubmitted locks a session that has not been submitted yet and
	// returns it; ErrorNotFound when no such unsubmitted session exists.
	MarkSubmitted(ctx context.Context, id string, at time.Time) (*models.Session, error)
}
