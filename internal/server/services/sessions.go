// Package services holds the attendance business logic: session scheduling,
// the submit/lock state machine, marks, the scan match protocol and
// summaries. Repositories come from a repomanager.RepositoryManager so the
// same code runs on PostgreSQL and on the in-memory store.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/dbx"
	"github.com/dmitrijs2005/attendance/internal/logging"
	"github.com/dmitrijs2005/attendance/internal/server/models"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/attendance/internal/timex"
	"github.com/google/uuid"
)

const (
	MinSessionLength = 45 * time.Minute
	MaxSessionLength = 120 * time.Minute
)

// CreateSessionInput describes a class period to open.
type CreateSessionInput struct {
	SectionID string
	Date      timex.Date
	Start     timex.TimeOfDay
	End       timex.TimeOfDay
	CreatedBy string
}

// SessionManager creates and looks up attendance sessions.
type SessionManager struct {
	db           *sql.DB
	repos        repomanager.RepositoryManager
	clock        timex.Clock
	locks        *KeyedLock
	logger       logging.Logger
	allowOverlap bool
}

func NewSessionManager(db *sql.DB, rm repomanager.RepositoryManager, clock timex.Clock, locks *KeyedLock, allowOverlap bool, l logging.Logger) *SessionManager {
	return &SessionManager{
		db:           db,
		repos:        rm,
		clock:        clock,
		locks:        locks,
		logger:       l.With("module", "sessions"),
		allowOverlap: allowOverlap,
	}
}

func validateWindow(in CreateSessionInput, today timex.Date) error {
	if in.SectionID == "" {
		return common.NewValidationError("section_id", "is required")
	}
	if !in.Start.Valid() {
		return common.NewValidationError("start_time", "out of range")
	}
	if !in.End.Valid() {
		return common.NewValidationError("end_time", "out of range")
	}
	if in.End <= in.Start {
		return common.NewValidationError("end_time", "must be after start_time")
	}
	if d := in.End.Sub(in.Start); d < MinSessionLength || d > MaxSessionLength {
		return common.NewValidationError("end_time",
			fmt.Sprintf("session must last between %d and %d minutes, got %d",
				int(MinSessionLength.Minutes()), int(MaxSessionLength.Minutes()), int(d.Minutes())))
	}
	if in.Date != today {
		return common.NewValidationError("date", fmt.Sprintf("must be today (%s), got %s", today, in.Date))
	}
	return nil
}

// Create opens a new session. It fails with a validation error for a bad
// window, a date other than today, an unknown section or, unless overlaps
// are allowed, a window intersecting another session of the section today.
func (m *SessionManager) Create(ctx context.Context, in CreateSessionInput) (*models.Session, error) {
	now := m.clock.Now()
	if err := validateWindow(in, timex.DateOf(now)); err != nil {
		return nil, err
	}

	if _, err := m.repos.Roster(m.db).GetSection(ctx, in.SectionID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewValidationError("section_id", "unknown section")
		}
		return nil, fmt.Errorf("lookup section: %w", err)
	}

	unlock, err := m.locks.Lock(ctx, scheduleKey(in.SectionID, in.Date.String()))
	if err != nil {
		return nil, err
	}
	defer unlock()

	session := &models.Session{
		ID:        uuid.NewString(),
		SectionID: in.SectionID,
		Date:      in.Date,
		Start:     in.Start,
		End:       in.End,
		CreatedAt: now,
		CreatedBy: in.CreatedBy,
	}

	err = m.repos.RunInTx(ctx, m.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := m.repos.Sessions(tx)
		if !m.allowOverlap {
			if err := repo.LockSchedule(ctx, session.SectionID, session.Date); err != nil {
				return fmt.Errorf("lock schedule: %w", err)
			}
			if err := checkOverlap(ctx, repo, session); err != nil {
				return err
			}
		}
		_, err := repo.Create(ctx, session)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "session created",
		"session_id", session.ID, "section_id", session.SectionID,
		"date", session.Date.String(), "start", session.Start.String(), "end", session.End.String())
	return session, nil
}

func checkOverlap(ctx context.Context, repo sessions.Repository, s *models.Session) error {
	existing, err := repo.ListBySectionAndDate(ctx, s.SectionID, s.Date)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, e := range existing {
		if s.Overlaps(e) {
			return common.NewValidationError("start_time",
				fmt.Sprintf("overlaps session %s (%s-%s)", e.ID, e.Start, e.End))
		}
	}
	return nil
}

// Get returns the session or an ErrorNotFound error.
func (m *SessionManager) Get(ctx context.Context, id string) (*models.Session, error) {
	return loadSession(ctx, m.repos.Sessions(m.db), id)
}

// List returns the sessions of date in creation order.
func (m *SessionManager) List(ctx context.Context, date timex.Date) ([]*models.Session, error) {
	list, err := m.repos.Sessions(m.db).ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return list, nil
}

// loadSession treats ids that are not UUIDs as unknown so they never reach
// the database.
func loadSession(ctx context.Context, repo sessions.Repository, id string) (*models.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("session %q: %w", id, common.ErrorNotFound)
	}
	s, err := repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return s, nil
}
