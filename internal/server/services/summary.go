package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/attendance/internal/logging"
	"github.com/dmitrijs2005/attendance/internal/server/models"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/attendance/internal/timex"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SessionDetail is a session together with its derived lock state and the
// per-student summary.
type SessionDetail struct {
	Session        *models.Session
	State          LockState
	GraceRemaining time.Duration
	Summary        *models.Summary
}

// SummaryAggregator reads marks over the section roster. It never writes
// and works in every lock state.
type SummaryAggregator struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	clock  timex.Clock
	logger logging.Logger
}

func NewSummaryAggregator(db *sql.DB, rm repomanager.RepositoryManager, clock timex.Clock, l logging.Logger) *SummaryAggregator {
	return &SummaryAggregator{db: db, repos: rm, clock: clock, logger: l.With("module", "summary")}
}

// Summarize lists every enrolled student with their mark (Unmarked when
// none) ordered by roll number, or name when there is none.
func (a *SummaryAggregator) Summarize(ctx context.Context, sessionID string) (*models.Summary, error) {
	s, err := loadSession(ctx, a.repos.Sessions(a.db), sessionID)
	if err != nil {
		return nil, err
	}
	return a.summarize(ctx, s)
}

func (a *SummaryAggregator) summarize(ctx context.Context, s *models.Session) (*models.Summary, error) {
	students, err := a.repos.Roster(a.db).ListStudents(ctx, s.SectionID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	marks, err := a.repos.Marks(a.db).ListBySession(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	byStudent := make(map[string]*models.Mark, len(marks))
	for _, m := range marks {
		byStudent[m.StudentID] = m
	}

	sum := &models.Summary{SessionID: s.ID, Items: make([]models.SummaryItem, 0, len(students))}
	for _, st := range students {
		item := models.SummaryItem{StudentID: st.ID, Name: st.Name, RollNo: st.RollNo, Status: models.StatusUnmarked}
		if m, ok := byStudent[st.ID]; ok {
			item.Status = m.Status
			item.MarkedAt = m.MarkedAt
			item.Source = m.Source
		}
		switch item.Status {
		case models.StatusPresent:
			sum.Present++
		case models.StatusAbsent:
			sum.Absent++
		default:
			sum.Unmarked++
		}
		sum.Items = append(sum.Items, item)
	}
	sum.Total = len(sum.Items)

	SortItems(sum.Items)
	return sum, nil
}

// SortItems orders items by roll number, falling back to name, comparing
// case-insensitively with digit runs as numbers ("2" before "10"). Equal
// keys fall back to the student id.
func SortItems(items []models.SummaryItem) {
	// collate.Collator keeps internal buffers, so one per call.
	col := collate.New(language.Und, collate.IgnoreCase, collate.Numeric)
	key := func(it models.SummaryItem) string {
		if it.RollNo != "" {
			return it.RollNo
		}
		return it.Name
	}
	sort.SliceStable(items, func(i, j int) bool {
		if c := col.CompareString(key(items[i]), key(items[j])); c != 0 {
			return c < 0
		}
		return items[i].StudentID < items[j].StudentID
	})
}

// Detail composes the session, its lock state at the current time and its
// summary.
func (a *SummaryAggregator) Detail(ctx context.Context, sessionID string) (*SessionDetail, error) {
	s, err := loadSession(ctx, a.repos.Sessions(a.db), sessionID)
	if err != nil {
		return nil, err
	}
	sum, err := a.summarize(ctx, s)
	if err != nil {
		return nil, err
	}
	now := a.clock.Now()
	return &SessionDetail{
		Session:        s,
		State:          StateAt(s, now),
		GraceRemaining: GraceRemaining(s, now),
		Summary:        sum,
	}, nil
}
