package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/logging"
	"github.com/dmitrijs2005/attendance/internal/server/config"
	"github.com/dmitrijs2005/attendance/internal/server/matching"
	"github.com/dmitrijs2005/attendance/internal/server/models"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/attendance/internal/timex"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 10, 19, 8, 50, 0, 0, time.UTC)

func today() timex.Date { return timex.DateOf(start) }

func tod(t *testing.T, s string) timex.TimeOfDay {
	t.Helper()
	v, err := timex.ParseTimeOfDay(s)
	require.NoError(t, err)
	return v
}

// fakeMatcher answers by image content.
type fakeMatcher struct {
	mu      sync.Mutex
	answers map[string]matching.Result
	err     error
	calls   int
}

func (f *fakeMatcher) Match(_ context.Context, _ string, image []byte) (matching.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return matching.Result{}, f.err
	}
	return f.answers[string(image)], nil
}

func (f *fakeMatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeArchive struct {
	mu    sync.Mutex
	keys  []string
	err   error
	onPut func(ctx context.Context)
}

func (a *fakeArchive) Put(ctx context.Context, key string, _ []byte) error {
	if a.onPut != nil {
		a.onPut(ctx)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, key)
	return a.err
}

type fixture struct {
	clock   *timex.FixedClock
	rm      *repomanager.InMemoryRepositoryManager
	matcher *fakeMatcher
	archive *fakeArchive
	cfg     *config.Config
	svc     *Attendance
}

func testConfig() *config.Config {
	return &config.Config{AcceptThreshold: 0.6, TwinTolerance: 0.05, TwinTTL: 5 * time.Minute}
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithConfig(t, testConfig())
}

func newFixtureWithConfig(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		clock:   timex.NewFixedClock(start),
		rm:      repomanager.NewInMemoryRepositoryManager(),
		matcher: &fakeMatcher{answers: map[string]matching.Result{}},
		archive: &fakeArchive{},
		cfg:     cfg,
	}

	roster := f.rm.Roster(nil)
	require.NoError(t, roster.UpsertSection(ctx, &models.Section{ID: "5b", Name: "5-B"}))
	require.NoError(t, roster.UpsertSection(ctx, &models.Section{ID: "6a", Name: "6-A"}))
	for _, st := range []*models.Student{
		{ID: "s1", SectionID: "5b", Name: "Asha", RollNo: "1"},
		{ID: "s2", SectionID: "5b", Name: "Ram", RollNo: "2"},
		{ID: "s3", SectionID: "5b", Name: "Shyam", RollNo: "10"},
		{ID: "s4", SectionID: "5b", Name: "Meera"},
		{ID: "s9", SectionID: "6a", Name: "Kiran", RollNo: "1"},
	} {
		require.NoError(t, roster.UpsertStudent(ctx, st))
	}

	f.svc = NewAttendance(nil, f.rm, cfg, f.clock, f.matcher, f.archive, logging.Nop{})
	return f
}

// openSession creates a 09:00-09:50 session for section 5b.
func (f *fixture) openSession(t *testing.T) *models.Session {
	t.Helper()
	s, err := f.svc.Sessions.Create(context.Background(), CreateSessionInput{
		SectionID: "5b", Date: today(), Start: tod(t, "09:00"), End: tod(t, "09:50"),
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) answer(image string, res matching.Result) {
	f.matcher.mu.Lock()
	f.matcher.answers[image] = res
	f.matcher.mu.Unlock()
}

func single(id string, conf float64) matching.Result {
	return matching.Result{Match: &models.Candidate{StudentID: id, Confidence: conf}}
}

func twins(pairs ...any) matching.Result {
	var res matching.Result
	for i := 0; i+1 < len(pairs); i += 2 {
		res.Candidates = append(res.Candidates, models.Candidate{StudentID: pairs[i].(string), Confidence: pairs[i+1].(float64)})
	}
	return res
}

func (f *fixture) mark(t *testing.T, sessionID, studentID string) *models.Mark {
	t.Helper()
	m, err := f.rm.Marks(nil).Get(context.Background(), sessionID, studentID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	require.NoError(t, err)
	return m
}

func validationField(t *testing.T, err error) string {
	t.Helper()
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	require.ErrorIs(t, err, common.ErrValidation)
	return ve.Field
}
