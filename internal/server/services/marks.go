package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/logging"
	"github.com/dmitrijs2005/attendance/internal/server/models"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/attendance/internal/timex"
)

// MarkStore writes marks through the lock gate. Every write stamps
// marked_at with the clock and replaces the previous record for the pair.
type MarkStore struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	clock  timex.Clock
	locks  *KeyedLock
	logger logging.Logger
}

func NewMarkStore(db *sql.DB, rm repomanager.RepositoryManager, clock timex.Clock, locks *KeyedLock, l logging.Logger) *MarkStore {
	return &MarkStore{db: db, repos: rm, clock: clock, locks: locks, logger: l.With("module", "marks")}
}

// Upsert records status for a student of the session.
func (m *MarkStore) Upsert(ctx context.Context, sessionID, studentID string, status models.Status, source models.Source) (*models.Mark, error) {
	st, err := models.ParseStatus(string(status))
	if err != nil {
		return nil, common.NewValidationError("status", err.Error())
	}
	if source != models.SourceScan && source != models.SourceManual {
		return nil, common.NewValidationError("source", fmt.Sprintf("unknown source %q", source))
	}

	unlock, err := m.locks.Lock(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := loadSession(ctx, m.repos.Sessions(m.db), sessionID)
	if err != nil {
		return nil, err
	}
	return m.upsertLocked(ctx, s, studentID, st, source)
}

// upsertLocked expects the caller to hold the session key.
func (m *MarkStore) upsertLocked(ctx context.Context, s *models.Session, studentID string, status models.Status, source models.Source) (*models.Mark, error) {
	now := m.clock.Now()
	if err := CheckWritable(s, now); err != nil {
		return nil, err
	}

	mark := &models.Mark{
		SessionID: s.ID,
		StudentID: studentID,
		Status:    status,
		MarkedAt:  &now,
		Source:    source,
	}
	if _, err := m.repos.Marks(m.db).Upsert(ctx, mark); err != nil {
		return nil, fmt.Errorf("save mark: %w", err)
	}

	m.logger.Debug(ctx, "mark saved",
		"session_id", s.ID, "student_id", studentID, "status", string(status), "source", string(source))
	return mark, nil
}

// GetAll returns the live marks of a session keyed by student id.
func (m *MarkStore) GetAll(ctx context.Context, sessionID string) (map[string]*models.Mark, error) {
	s, err := loadSession(ctx, m.repos.Sessions(m.db), sessionID)
	if err != nil {
		return nil, err
	}
	list, err := m.repos.Marks(m.db).ListBySession(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	result := make(map[string]*models.Mark, len(list))
	for _, mk := range list {
		result[mk.StudentID] = mk
	}
	return result, nil
}

// ManualMark sets a student present or absent on the teacher's word. It
// overrides any scan result and may itself be overridden later.
func (m *MarkStore) ManualMark(ctx context.Context, sessionID, studentID string, status models.Status) (*models.Mark, error) {
	if status != models.StatusPresent && status != models.StatusAbsent {
		return nil, common.NewValidationError("status", "must be present or absent")
	}
	if studentID == "" {
		return nil, common.NewValidationError("student_id", "is required")
	}

	unlock, err := m.locks.Lock(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := loadSession(ctx, m.repos.Sessions(m.db), sessionID)
	if err != nil {
		return nil, err
	}
	if err := CheckWritable(s, m.clock.Now()); err != nil {
		return nil, err
	}
	if _, err := enrolledStudent(ctx, m.repos.Roster(m.db), s.SectionID, studentID, "student_id"); err != nil {
		return nil, err
	}

	mark, err := m.upsertLocked(ctx, s, studentID, status, models.SourceManual)
	if err != nil {
		return nil, err
	}
	m.logger.Info(ctx, "manual mark", "session_id", s.ID, "student_id", studentID, "status", string(status))
	return mark, nil
}

type studentGetter interface {
	GetStudent(ctx context.Context, id string) (*models.Student, error)
}

func enrolledStudent(ctx context.Context, roster studentGetter, sectionID, studentID, field string) (*models.Student, error) {
	st, err := roster.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewValidationError(field, "unknown student")
		}
		return nil, fmt.Errorf("lookup student: %w", err)
	}
	if st.SectionID != sectionID {
		return nil, common.NewValidationError(field, "student is not enrolled in the session's section")
	}
	return st, nil
}
