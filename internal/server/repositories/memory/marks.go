package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/server/models"
)

type MarksRepository struct {
	s *Store
}

func NewMarksRepository(s *Store) *MarksRepository {
	return &MarksRepository{s: s}
}

func (r *MarksRepository) Upsert(ctx context.Context, m *models.Mark) (*models.Mark, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.marks[markKey{m.SessionID, m.StudentID}] = copyMark(m)
	return m, nil
}

func (r *MarksRepository) Get(ctx context.Context, sessionID, studentID string) (*models.Mark, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.marks[markKey{sessionID, studentID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyMark(m), nil
}

func (r *MarksRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.Mark, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.Mark
	for k, m := range r.s.marks {
		if k.sessionID == sessionID {
			result = append(result, copyMark(m))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}
