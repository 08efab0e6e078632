package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/server/models"
	"github.com/dmitrijs2005/attendance/internal/timex"
)

type SessionsRepository struct {
	s *Store
}

func NewSessionsRepository(s *Store) *SessionsRepository {
	return &SessionsRepository{s: s}
}

func (r *SessionsRepository) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[s.ID]; ok {
		return nil, fmt.Errorf("session %s already exists", s.ID)
	}
	r.s.sessions[s.ID] = copySession(s)
	r.s.order = append(r.s.order, s.ID)
	return s, nil
}

func (r *SessionsRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	s, ok := r.s.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copySession(s), nil
}

func (r *SessionsRepository) ListByDate(ctx context.Context, date timex.Date) ([]*models.Session, error) {
	return r.filter(func(s *models.Session) bool { return s.Date == date }), nil
}

func (r *SessionsRepository) ListBySectionAndDate(ctx context.Context, sectionID string, date timex.Date) ([]*models.Session, error) {
	return r.filter(func(s *models.Session) bool { return s.SectionID == sectionID && s.Date == date }), nil
}

// LockSchedule is a no-op; the manager's RunInTx already serializes units
// of work.
func (r *SessionsRepository) LockSchedule(context.Context, string, timex.Date) error {
	return nil
}

func (r *SessionsRepository) filter(keep func(*models.Session) bool) []*models.Session {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.Session
	for _, id := range r.s.order {
		if s := r.s.sessions[id]; keep(s) {
			result = append(result, copySession(s))
		}
	}
	return result
}

func (r *SessionsRepository) MarkSubmitted(ctx context.Context, id string, at time.Time) (*models.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	s, ok := r.s.sessions[id]
	if !ok || s.SubmittedAt != nil {
		return nil, common.ErrorNotFound
	}
	s.Locked = true
	s.SubmittedAt = &at
	return copySession(s), nil
}
