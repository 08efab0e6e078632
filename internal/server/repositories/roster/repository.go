package roster

import (
	"context"

	"github.com/dmitrijs2005/attendance/internal/server/models"
)

// Repository is the read side of the school roster. The Upsert methods
// exist for seeding; sections and students are otherwise managed elsewhere.
type Repository interface {
	GetSection(ctx context.Context, id string) (*models.Section, error)
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	ListStudents(ctx context.Context, sectionID string) ([]*models.Student, error)
	UpsertSection(ctx context.Context, s *models.Section) error
	UpsertStudent(ctx context.Context, s *models.Student) error
}
