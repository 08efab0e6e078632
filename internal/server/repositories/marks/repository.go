package marks

import (
	"context"

	"github.com/dmitrijs2005/attendance/internal/server/models"
)

// Repository keeps one live mark per (session, student). Upsert replaces
// status, marked_at and source of an existing record.
type Repository interface {
	Upsert(ctx context.Context, m *models.Mark) (*models.Mark, error)
	Get(ctx context.Context, sessionID, studentID string) (*models.Mark, error)
	ListBySession(ctx context.Context, sessionID string) ([]*models.Mark, error)
}
