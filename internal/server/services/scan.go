package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/logging"
	"github.com/dmitrijs2005/attendance/internal/server/captures"
	"github.com/dmitrijs2005/attendance/internal/server/matching"
	"github.com/dmitrijs2005/attendance/internal/server/models"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/attendance/internal/timex"
)

// confidenceEpsilon absorbs float noise when comparing against the
// threshold and tolerance.
const confidenceEpsilon = 1e-9

// ScanOptions tune how matcher confidences are read.
type ScanOptions struct {
	// AcceptThreshold is the minimum confidence for a candidate to count.
	AcceptThreshold float64
	// TwinTolerance is how far below the best score a candidate may be and
	// still tie with it.
	TwinTolerance float64
	// TwinTTL bounds how long an unanswered conflict blocks new scans.
	TwinTTL time.Duration
}

// ScanInput is one capture for a session.
type ScanInput struct {
	SessionID string
	SectionID string
	Image     []byte
}

// ResolveInput confirms one candidate of an ambiguous capture.
type ResolveInput struct {
	SessionID          string
	SectionID          string
	Image              []byte
	ConfirmedStudentID string
}

// ScanResolver turns captures into marks using the face matcher.
type ScanResolver struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	clock     timex.Clock
	locks     *KeyedLock
	marks     *MarkStore
	matcher   matching.Client
	archive   captures.Archive
	conflicts *conflictRegistry
	opts      ScanOptions
	logger    logging.Logger
}

func NewScanResolver(db *sql.DB, rm repomanager.RepositoryManager, clock timex.Clock, locks *KeyedLock,
	marks *MarkStore, matcher matching.Client, archive captures.Archive, opts ScanOptions, l logging.Logger) *ScanResolver {
	if archive == nil {
		archive = captures.Noop{}
	}
	return &ScanResolver{
		db:        db,
		repos:     rm,
		clock:     clock,
		locks:     locks,
		marks:     marks,
		matcher:   matcher,
		archive:   archive,
		conflicts: newConflictRegistry(opts.TwinTTL),
		opts:      opts,
		logger:    l.With("module", "scan"),
	}
}

// openForCapture loads the session behind the caller's lock and runs the
// checks shared by scan and resolve.
func (r *ScanResolver) openForCapture(ctx context.Context, sessionID, sectionID string) (*models.Session, error) {
	s, err := loadSession(ctx, r.repos.Sessions(r.db), sessionID)
	if err != nil {
		return nil, err
	}
	if sectionID != s.SectionID {
		return nil, common.NewValidationError("section_id", "does not match the session's section")
	}
	if err := CheckWritable(s, r.clock.Now()); err != nil {
		return nil, err
	}
	return s, nil
}

// SubmitScan matches one capture. A single confident match is recorded
// present; near-tied matches become a pending conflict the teacher has to
// resolve. While a conflict is pending further scans fail with
// ErrConflictPending. Matcher failures wrap ErrTransient and change nothing.
func (r *ScanResolver) SubmitScan(ctx context.Context, in ScanInput) (Outcome, error) {
	if len(in.Image) == 0 {
		return nil, common.NewValidationError("image", "is empty")
	}

	unlock, err := r.locks.Lock(ctx, sessionKey(in.SessionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := r.openForCapture(ctx, in.SessionID, in.SectionID)
	if err != nil {
		return nil, err
	}
	if c, ok := r.conflicts.pending(s.ID, r.clock.Now()); ok {
		return nil, fmt.Errorf("%w: session %s awaits a choice among %d candidates", common.ErrConflictPending, s.ID, len(c.Candidates))
	}

	res, err := r.matcher.Match(ctx, s.SectionID, in.Image)
	if err != nil {
		r.logger.Warn(ctx, "matcher failed", "session_id", s.ID, "error", err.Error())
		if !errors.Is(err, common.ErrTransient) {
			err = fmt.Errorf("%w: %v", common.ErrTransient, err)
		}
		return nil, err
	}

	enrolled, err := r.enrolled(ctx, s.SectionID)
	if err != nil {
		return nil, err
	}

	digest := captures.Digest(in.Image)
	outcome := r.interpret(ctx, s, res, enrolled)

	switch o := outcome.(type) {
	case Marked:
		mark, err := r.marks.upsertLocked(ctx, s, o.StudentID, models.StatusPresent, models.SourceScan)
		if err != nil {
			return nil, err
		}
		o.Mark = mark
		outcome = o
		r.logger.Info(ctx, "scan marked", "session_id", s.ID, "student_id", o.StudentID, "confidence", o.Confidence)
	case Ambiguous:
		r.conflicts.put(s.ID, &TwinConflict{Digest: digest, Candidates: o.Candidates, CreatedAt: r.clock.Now()})
		r.logger.Info(ctx, "twin conflict", "session_id", s.ID, "candidates", len(o.Candidates))
	case NoMatch:
		r.logger.Info(ctx, "scan without match", "session_id", s.ID)
		return outcome, nil
	}

	unlock()
	r.store(ctx, s, digest, in.Image)
	return outcome, nil
}

// ResolveTwin records the teacher's choice for an ambiguous capture. It
// never consults the matcher, so it cannot come back ambiguous. When a
// conflict is pending the image must be the one that raised it and the
// student one of its candidates; otherwise the mark is recorded as manual.
func (r *ScanResolver) ResolveTwin(ctx context.Context, in ResolveInput) (Marked, error) {
	if len(in.Image) == 0 {
		return Marked{}, common.NewValidationError("image", "is empty")
	}
	if in.ConfirmedStudentID == "" {
		return Marked{}, common.NewValidationError("confirmed_student_id", "is required")
	}

	unlock, err := r.locks.Lock(ctx, sessionKey(in.SessionID))
	if err != nil {
		return Marked{}, err
	}
	defer unlock()

	s, err := r.openForCapture(ctx, in.SessionID, in.SectionID)
	if err != nil {
		return Marked{}, err
	}

	student, err := enrolledStudent(ctx, r.repos.Roster(r.db), s.SectionID, in.ConfirmedStudentID, "confirmed_student_id")
	if err != nil {
		return Marked{}, err
	}

	digest := captures.Digest(in.Image)
	result := Marked{StudentID: student.ID, Name: student.Name}

	conflict, pending := r.conflicts.pending(s.ID, r.clock.Now())
	if pending {
		if conflict.Digest != digest {
			return Marked{}, common.NewValidationError("image", "is not the capture awaiting resolution")
		}
		cand, ok := conflict.candidate(student.ID)
		if !ok {
			return Marked{}, common.NewValidationError("confirmed_student_id", "is not one of the candidates")
		}
		result.Confidence = cand.Confidence
	}

	// Without a pending conflict no match backs the choice, so it counts as
	// the teacher's own mark.
	source := models.SourceScan
	if !pending {
		source = models.SourceManual
		r.logger.Warn(ctx, "twin confirmed without pending conflict",
			"session_id", s.ID, "student_id", student.ID)
	}

	mark, err := r.marks.upsertLocked(ctx, s, student.ID, models.StatusPresent, source)
	if err != nil {
		return Marked{}, err
	}
	result.Mark = mark
	if pending {
		r.conflicts.clear(s.ID)
	}

	r.logger.Info(ctx, "twin resolved", "session_id", s.ID, "student_id", student.ID, "had_conflict", pending)
	unlock()
	r.store(ctx, s, digest, in.Image)
	return result, nil
}

// CancelTwin drops the pending conflict of a session without writing
// anything. It reports whether a conflict was pending.
func (r *ScanResolver) CancelTwin(ctx context.Context, sessionID string) (bool, error) {
	unlock, err := r.locks.Lock(ctx, sessionKey(sessionID))
	if err != nil {
		return false, err
	}
	defer unlock()

	s, err := loadSession(ctx, r.repos.Sessions(r.db), sessionID)
	if err != nil {
		return false, err
	}
	if _, ok := r.conflicts.pending(s.ID, r.clock.Now()); !ok {
		return false, nil
	}
	r.conflicts.clear(s.ID)
	r.logger.Info(ctx, "twin conflict cancelled", "session_id", s.ID)
	return true, nil
}

// PendingConflict returns the unexpired conflict of a session, if any.
func (r *ScanResolver) PendingConflict(sessionID string) (*TwinConflict, bool) {
	return r.conflicts.pending(sessionID, r.clock.Now())
}

func (r *ScanResolver) enrolled(ctx context.Context, sectionID string) (map[string]*models.Student, error) {
	list, err := r.repos.Roster(r.db).ListStudents(ctx, sectionID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	result := make(map[string]*models.Student, len(list))
	for _, st := range list {
		result[st.ID] = st
	}
	return result, nil
}

// interpret reads a matcher answer. Candidates outside the section or below
// the threshold are dropped; of the rest, those within TwinTolerance of the
// best score tie with it.
func (r *ScanResolver) interpret(ctx context.Context, s *models.Session, res matching.Result, enrolled map[string]*models.Student) Outcome {
	raw := res.Candidates
	if res.Match != nil {
		raw = []models.Candidate{*res.Match}
	}

	kept := make([]models.Candidate, 0, len(raw))
	for _, c := range raw {
		st, ok := enrolled[c.StudentID]
		if !ok {
			r.logger.Warn(ctx, "matcher proposed a student outside the section",
				"session_id", s.ID, "student_id", c.StudentID)
			continue
		}
		if c.Confidence+confidenceEpsilon < r.opts.AcceptThreshold {
			continue
		}
		if c.Name == "" {
			c.Name = st.Name
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return NoMatch{}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Confidence != kept[j].Confidence {
			return kept[i].Confidence > kept[j].Confidence
		}
		return kept[i].StudentID < kept[j].StudentID
	})

	best := kept[0].Confidence
	tied := []models.Candidate{kept[0]}
	seen := map[string]bool{kept[0].StudentID: true}
	for _, c := range kept[1:] {
		if best-c.Confidence > r.opts.TwinTolerance+confidenceEpsilon {
			break
		}
		if !seen[c.StudentID] {
			seen[c.StudentID] = true
			tied = append(tied, c)
		}
	}

	if len(tied) == 1 {
		return Marked{StudentID: tied[0].StudentID, Name: tied[0].Name, Confidence: tied[0].Confidence}
	}
	return Ambiguous{Candidates: tied}
}

// archiveTimeout bounds one archive upload.
var archiveTimeout = 10 * time.Second

// store archives a capture. Callers release the session key first; failures
// are logged only.
func (r *ScanResolver) store(ctx context.Context, s *models.Session, digest string, image []byte) {
	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	key := captures.Key(s.Date, s.ID, digest)
	if err := r.archive.Put(ctx, key, image); err != nil {
		r.logger.Warn(ctx, "capture not archived", "session_id", s.ID, "key", key, "error", err.Error())
	}
}
