package grpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/logging"
	"github.com/dmitrijs2005/attendance/internal/server/auth"
	"github.com/dmitrijs2005/attendance/internal/server/captures"
	"github.com/dmitrijs2005/attendance/internal/server/config"
	"github.com/dmitrijs2005/attendance/internal/server/matching"
	"github.com/dmitrijs2005/attendance/internal/server/models"
	"github.com/dmitrijs2005/attendance/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/attendance/internal/server/services"
	"github.com/dmitrijs2005/attendance/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const testSecret = "test-secret"

var start = time.Date(2026, 10, 19, 8, 50, 0, 0, time.UTC)

type stubMatcher struct {
	mu      sync.Mutex
	answers map[string]matching.Result
}

func (m *stubMatcher) Match(_ context.Context, _ string, image []byte) (matching.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.answers[string(image)], nil
}

type harness struct {
	client *Client
	health healthpb.HealthClient
	clock  *timex.FixedClock
}

func newHarness(t *testing.T, secret string) *harness {
	t.Helper()
	ctx := context.Background()

	rm := repomanager.NewInMemoryRepositoryManager()
	roster := rm.Roster(nil)
	require.NoError(t, roster.UpsertSection(ctx, &models.Section{ID: "5b", Name: "5-B"}))
	for _, st := range []*models.Student{
		{ID: "s1", SectionID: "5b", Name: "Asha", RollNo: "1"},
		{ID: "s2", SectionID: "5b", Name: "Ram", RollNo: "2"},
		{ID: "s3", SectionID: "5b", Name: "Shyam", RollNo: "10"},
		{ID: "s4", SectionID: "5b", Name: "Meera", RollNo: "11"},
	} {
		require.NoError(t, roster.UpsertStudent(ctx, st))
	}

	matcher := &stubMatcher{answers: map[string]matching.Result{
		"asha": {Match: &models.Candidate{StudentID: "s1", Confidence: 0.93}},
		"twin": {Candidates: []models.Candidate{
			{StudentID: "s2", Confidence: 0.81},
			{StudentID: "s3", Confidence: 0.79},
		}},
	}}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	clock := timex.NewFixedClock(start)
	att := services.NewAttendance(nil, rm, cfg, clock, matcher, captures.Noop{}, logging.Nop{})

	s := NewGRPCServer("bufnet", logging.Nop{}, att, secret)
	srv, _ := s.NewServer()

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &harness{client: NewClient(conn), health: healthpb.NewHealthClient(conn), clock: clock}
}

func withToken(t *testing.T, teacherID string) context.Context {
	t.Helper()
	token, err := auth.GenerateToken(teacherID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, token)
}

func requireCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, status.Code(err), "error: %v", err)
}

func TestRoundTrip_SessionLifecycle(t *testing.T) {
	h := newHarness(t, testSecret)
	ctx := withToken(t, "teacher-7")

	created, err := h.client.CreateSession(ctx, &CreateSessionRequest{
		SectionID: "5b", Date: "2026-10-19", StartTime: "09:00", EndTime: "09:50",
	})
	require.NoError(t, err)
	sid := created.Session.ID
	assert.NotEmpty(t, sid)
	assert.Equal(t, "teacher-7", created.Session.CreatedBy)
	assert.Equal(t, "09:00", created.Session.StartTime)

	list, err := h.client.ListSessions(ctx, &ListSessionsRequest{Date: "2026-10-19"})
	require.NoError(t, err)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, sid, list.Sessions[0].ID)

	scan, err := h.client.SubmitScan(ctx, &SubmitScanRequest{SessionID: sid, SectionID: "5b", Image: []byte("asha")})
	require.NoError(t, err)
	assert.Equal(t, ScanMarked, scan.Status)
	assert.Equal(t, "s1", scan.StudentID)
	assert.Equal(t, "Asha", scan.Name)

	scan, err = h.client.SubmitScan(ctx, &SubmitScanRequest{SessionID: sid, SectionID: "5b", Image: []byte("twin")})
	require.NoError(t, err)
	assert.Equal(t, ScanAmbiguous, scan.Status)
	require.Len(t, scan.Candidates, 2)
	assert.Equal(t, "s2", scan.Candidates[0].StudentID)

	_, err = h.client.SubmitScan(ctx, &SubmitScanRequest{SessionID: sid, SectionID: "5b", Image: []byte("asha")})
	requireCode(t, err, codes.Aborted)

	detail, err := h.client.GetSessionDetail(ctx, &SessionRequest{SessionID: sid})
	require.NoError(t, err)
	assert.Equal(t, "open", detail.State)
	assert.Len(t, detail.PendingCandidates, 2)

	resolved, err := h.client.ResolveTwin(ctx, &ResolveTwinRequest{
		SessionID: sid, SectionID: "5b", Image: []byte("twin"), ConfirmedStudentID: "s3",
	})
	require.NoError(t, err)
	assert.Equal(t, ScanMarked, resolved.Status)
	assert.Equal(t, "s3", resolved.StudentID)

	mark, err := h.client.ManualMark(ctx, &ManualMarkRequest{SessionID: sid, StudentID: "s4", Status: "absent"})
	require.NoError(t, err)
	assert.Equal(t, "absent", mark.Mark.Status)
	assert.Equal(t, "manual", mark.Mark.Source)

	submitted, err := h.client.SubmitSession(ctx, &SessionRequest{SessionID: sid})
	require.NoError(t, err)
	assert.True(t, submitted.Session.Locked)
	require.NotNil(t, submitted.Session.SubmittedAt)

	h.clock.Advance(5 * time.Minute)
	detail, err = h.client.GetSessionDetail(ctx, &SessionRequest{SessionID: sid})
	require.NoError(t, err)
	assert.Equal(t, "submitted_in_grace", detail.State)
	assert.Equal(t, int64(10*60), detail.GraceRemainingSeconds)

	h.clock.Advance(11 * time.Minute)
	_, err = h.client.ManualMark(ctx, &ManualMarkRequest{SessionID: sid, StudentID: "s2", Status: "present"})
	requireCode(t, err, codes.FailedPrecondition)

	sum, err := h.client.GetSummary(ctx, &SessionRequest{SessionID: sid})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.Present)
	assert.Equal(t, 1, sum.Absent)
	assert.Equal(t, 1, sum.Unmarked)
	ids := make([]string, 0, len(sum.Items))
	for _, it := range sum.Items {
		ids = append(ids, it.StudentID)
	}
	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, ids)
	assert.Equal(t, "unmarked", sum.Items[1].Status)
}

func TestRoundTrip_RequestValidation(t *testing.T) {
	h := newHarness(t, testSecret)
	ctx := withToken(t, "teacher-7")

	tests := []struct {
		name string
		call func() error
	}{
		{"bad date", func() error {
			_, err := h.client.CreateSession(ctx, &CreateSessionRequest{
				SectionID: "5b", Date: "19.10.2026", StartTime: "09:00", EndTime: "09:50",
			})
			return err
		}},
		{"missing section", func() error {
			_, err := h.client.CreateSession(ctx, &CreateSessionRequest{
				Date: "2026-10-19", StartTime: "09:00", EndTime: "09:50",
			})
			return err
		}},
		{"too short", func() error {
			_, err := h.client.CreateSession(ctx, &CreateSessionRequest{
				SectionID: "5b", Date: "2026-10-19", StartTime: "09:00", EndTime: "09:44",
			})
			return err
		}},
		{"empty image", func() error {
			_, err := h.client.SubmitScan(ctx, &SubmitScanRequest{SessionID: "x", SectionID: "5b"})
			return err
		}},
		{"unmarked is not a manual status", func() error {
			_, err := h.client.ManualMark(ctx, &ManualMarkRequest{SessionID: "x", StudentID: "s1", Status: "unmarked"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireCode(t, tt.call(), codes.InvalidArgument)
		})
	}
}

func TestRoundTrip_UnknownSession(t *testing.T) {
	h := newHarness(t, testSecret)
	_, err := h.client.GetSummary(withToken(t, "teacher-7"), &SessionRequest{SessionID: "does-not-exist"})
	requireCode(t, err, codes.NotFound)
}

func TestRoundTrip_Authentication(t *testing.T) {
	h := newHarness(t, testSecret)
	req := &ListSessionsRequest{Date: "2026-10-19"}

	_, err := h.client.ListSessions(context.Background(), req)
	requireCode(t, err, codes.Unauthenticated)

	bad := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, "garbage")
	_, err = h.client.ListSessions(bad, req)
	requireCode(t, err, codes.Unauthenticated)

	expired, err := auth.GenerateToken("teacher-7", []byte(testSecret), -time.Minute)
	require.NoError(t, err)
	_, err = h.client.ListSessions(metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, expired), req)
	requireCode(t, err, codes.Unauthenticated)

	// health checks stay open
	resp, err := h.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestRoundTrip_NoSecretSkipsAuth(t *testing.T) {
	h := newHarness(t, "")

	created, err := h.client.CreateSession(context.Background(), &CreateSessionRequest{
		SectionID: "5b", Date: "2026-10-19", StartTime: "09:00", EndTime: "09:50",
	})
	require.NoError(t, err)
	assert.Empty(t, created.Session.CreatedBy)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	rm := repomanager.NewInMemoryRepositoryManager()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	att := services.NewAttendance(nil, rm, cfg, timex.NewFixedClock(start), &stubMatcher{}, captures.Noop{}, logging.Nop{})
	srv := NewGRPCServer("127.0.0.1:0", logging.Nop{}, att, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop{}, nil, "")
	require.Error(t, srv.Run(context.Background()))
}
