package services

import (
	"database/sql"

	"github.com/dmitrijs2005/attendance/internal/logging"
	"github.com/dmitrijs2005/attendance/internal/server/captures"
	"github.com/dmitrijs2005/attendance/internal/server/config"
	"github.com/dmitrijs2005/attendance/internal/server/matching"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/attendance/internal/timex"
)

// Attendance bundles the session lifecycle services. They share one
// KeyedLock so that every mutation of a session is serialized.
type Attendance struct {
	Sessions  *SessionManager
	Locks     *LockController
	Marks     *MarkStore
	Scans     *ScanResolver
	Summaries *SummaryAggregator
}

// NewAttendance wires the services against db (nil for the in-memory
// manager) using thresholds from cfg.
func NewAttendance(db *sql.DB, rm repomanager.RepositoryManager, cfg *config.Config, clock timex.Clock,
	matcher matching.Client, archive captures.Archive, l logging.Logger) *Attendance {
	locks := NewKeyedLock()
	marks := NewMarkStore(db, rm, clock, locks, l)
	return &Attendance{
		Sessions: NewSessionManager(db, rm, clock, locks, cfg.AllowOverlap, l),
		Locks:    NewLockController(db, rm, clock, locks, l),
		Marks:    marks,
		Scans: NewScanResolver(db, rm, clock, locks, marks, matcher, archive, ScanOptions{
			AcceptThreshold: cfg.AcceptThreshold,
			TwinTolerance:   cfg.TwinTolerance,
			TwinTTL:         cfg.TwinTTL,
		}, l),
		Summaries: NewSummaryAggregator(db, rm, clock, l),
	}
}
