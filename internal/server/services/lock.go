package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/logging"
	"github.com/dmitrijs2005/attendance/internal/server/models"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/attendance/internal/timex"
)

// GracePeriod is how long after submission marks may still be amended.
const GracePeriod = 15 * time.Minute

// LockState is the submission state of a session, derived from SubmittedAt
// and the current time.
type LockState int

const (
	StateOpen LockState = iota
	StateSubmittedInGrace
	StateLocked
)

func (s LockState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateSubmittedInGrace:
		return "submitted_in_grace"
	case StateLocked:
		return "locked"
	default:
		return fmt.Sprintf("LockState(%d)", int(s))
	}
}

// StateAt computes the state of s at now. Exactly GracePeriod after
// submission is still within grace.
func StateAt(s *models.Session, now time.Time) LockState {
	if s.SubmittedAt == nil {
		return StateOpen
	}
	if now.Sub(*s.SubmittedAt) > GracePeriod {
		return StateLocked
	}
	return StateSubmittedInGrace
}

// GraceRemaining is the time left to amend marks; zero when the session is
// open or already locked.
func GraceRemaining(s *models.Session, now time.Time) time.Duration {
	if StateAt(s, now) != StateSubmittedInGrace {
		return 0
	}
	return GracePeriod - now.Sub(*s.SubmittedAt)
}

// CheckWritable is the mutation gate: nil while the session is open or in
// grace, an ErrLocked error afterwards.
func CheckWritable(s *models.Session, now time.Time) error {
	if StateAt(s, now) == StateLocked {
		return fmt.Errorf("%w: session %s was submitted at %s", common.ErrLocked, s.ID, s.SubmittedAt.Format(time.RFC3339))
	}
	return nil
}

// LockController runs the submit transition.
type LockController struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	clock  timex.Clock
	locks  *KeyedLock
	logger logging.Logger
}

func NewLockController(db *sql.DB, rm repomanager.RepositoryManager, clock timex.Clock, locks *KeyedLock, l logging.Logger) *LockController {
	return &LockController{db: db, repos: rm, clock: clock, locks: locks, logger: l.With("module", "lock")}
}

// Submit locks an open session and stamps submitted_at. Submitting again
// within the grace period returns the session unchanged and does not extend
// the window; after it, Submit fails with ErrLocked.
func (c *LockController) Submit(ctx context.Context, sessionID string) (*models.Session, error) {
	unlock, err := c.locks.Lock(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := loadSession(ctx, c.repos.Sessions(c.db), sessionID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	switch StateAt(s, now) {
	case StateOpen:
		updated, err := c.repos.Sessions(c.db).MarkSubmitted(ctx, s.ID, now)
		if err != nil {
			return nil, fmt.Errorf("submit session %s: %w", s.ID, err)
		}
		c.logger.Info(ctx, "session submitted", "session_id", s.ID, "submitted_at", now)
		return updated, nil
	case StateSubmittedInGrace:
		c.logger.Debug(ctx, "session resubmitted within grace", "session_id", s.ID)
		return s, nil
	default:
		return nil, CheckWritable(s, now)
	}
}
