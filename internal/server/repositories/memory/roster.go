package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/server/models"
)

type RosterRepository struct {
	s *Store
}

func NewRosterRepository(s *Store) *RosterRepository {
	return &RosterRepository{s: s}
}

func (r *RosterRepository) GetSection(ctx context.Context, id string) (*models.Section, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	s, ok := r.s.sections[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *s
	return &c, nil
}

func (r *RosterRepository) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	s, ok := r.s.students[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *s
	return &c, nil
}

func (r *RosterRepository) ListStudents(ctx context.Context, sectionID string) ([]*models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.Student
	for _, s := range r.s.students {
		if s.SectionID == sectionID {
			c := *s
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *RosterRepository) UpsertSection(ctx context.Context, s *models.Section) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *s
	r.s.sections[s.ID] = &c
	return nil
}

func (r *RosterRepository) UpsertStudent(ctx context.Context, s *models.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *s
	r.s.students[s.ID] = &c
	return nil
}
