package grpc

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/server/models"
	"github.com/dmitrijs2005/attendance/internal/server/services"
	"github.com/dmitrijs2005/attendance/internal/timex"
	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check validates a request and reports the first offending field as a
// common.ValidationError.
func (s *GRPCServer) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		reason := "failed " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return common.NewValidationError(fe.Field(), reason)
	}
	return common.NewValidationError("", err.Error())
}

// fail logs unexpected errors and converts any error to a status.
func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	st := toStatus(err)
	if !isExpected(err) {
		s.logger.Error(ctx, "request failed", "method", method, "error", err.Error())
	}
	return st
}

func isExpected(err error) bool {
	for _, target := range []error{
		common.ErrValidation, common.ErrorNotFound, common.ErrLocked,
		common.ErrConflictPending, common.ErrTransient, common.ErrorUnauthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *GRPCServer) CreateSession(ctx context.Context, req *CreateSessionRequest) (*SessionResponse, error) {
	if err := s.check(req); err != nil {
		return nil, toStatus(err)
	}

	in := services.CreateSessionInput{SectionID: req.SectionID, CreatedBy: TeacherIDFromContext(ctx)}
	var err error
	if in.Date, err = timex.ParseDate(req.Date); err != nil {
		return nil, toStatus(common.NewValidationError("date", err.Error()))
	}
	if in.Start, err = timex.ParseTimeOfDay(req.StartTime); err != nil {
		return nil, toStatus(common.NewValidationError("start_time", err.Error()))
	}
	if in.End, err = timex.ParseTimeOfDay(req.EndTime); err != nil {
		return nil, toStatus(common.NewValidationError("end_time", err.Error()))
	}

	session, err := s.att.Sessions.Create(ctx, in)
	if err != nil {
		return nil, s.fail(ctx, "CreateSession", err)
	}
	return &SessionResponse{Session: sessionToMsg(session)}, nil
}

func (s *GRPCServer) ListSessions(ctx context.Context, req *ListSessionsRequest) (*ListSessionsResponse, error) {
	if err := s.check(req); err != nil {
		return nil, toStatus(err)
	}
	date, err := timex.ParseDate(req.Date)
	if err != nil {
		return nil, toStatus(common.NewValidationError("date", err.Error()))
	}

	list, err := s.att.Sessions.List(ctx, date)
	if err != nil {
		return nil, s.fail(ctx, "ListSessions", err)
	}

	resp := &ListSessionsResponse{Sessions: make([]Session, 0, len(list))}
	for _, session := range list {
		resp.Sessions = append(resp.Sessions, sessionToMsg(session))
	}
	return resp, nil
}

func (s *GRPCServer) GetSessionDetail(ctx context.Context, req *SessionRequest) (*SessionDetailResponse, error) {
	if err := s.check(req); err != nil {
		return nil, toStatus(err)
	}

	detail, err := s.att.Summaries.Detail(ctx, req.SessionID)
	if err != nil {
		return nil, s.fail(ctx, "GetSessionDetail", err)
	}

	resp := &SessionDetailResponse{
		Session:               sessionToMsg(detail.Session),
		State:                 detail.State.String(),
		GraceRemainingSeconds: int64(detail.GraceRemaining.Seconds()),
		Summary:               summaryToMsg(detail.Summary),
	}
	if c, ok := s.att.Scans.PendingConflict(detail.Session.ID); ok {
		resp.PendingCandidates = candidatesToMsg(c.Candidates)
	}
	return resp, nil
}

func (s *GRPCServer) SubmitScan(ctx context.Context, req *SubmitScanRequest) (*ScanResponse, error) {
	if err := s.check(req); err != nil {
		return nil, toStatus(err)
	}

	outcome, err := s.att.Scans.SubmitScan(ctx, services.ScanInput{
		SessionID: req.SessionID,
		SectionID: req.SectionID,
		Image:     req.Image,
	})
	if err != nil {
		return nil, s.fail(ctx, "SubmitScan", err)
	}
	return outcomeToMsg(outcome), nil
}

func (s *GRPCServer) ResolveTwin(ctx context.Context, req *ResolveTwinRequest) (*ScanResponse, error) {
	if err := s.check(req); err != nil {
		return nil, toStatus(err)
	}

	marked, err := s.att.Scans.ResolveTwin(ctx, services.ResolveInput{
		SessionID:          req.SessionID,
		SectionID:          req.SectionID,
		Image:              req.Image,
		ConfirmedStudentID: req.ConfirmedStudentID,
	})
	if err != nil {
		return nil, s.fail(ctx, "ResolveTwin", err)
	}
	return outcomeToMsg(marked), nil
}

func (s *GRPCServer) CancelTwin(ctx context.Context, req *SessionRequest) (*CancelTwinResponse, error) {
	if err := s.check(req); err != nil {
		return nil, toStatus(err)
	}

	cancelled, err := s.att.Scans.CancelTwin(ctx, req.SessionID)
	if err != nil {
		return nil, s.fail(ctx, "CancelTwin", err)
	}
	return &CancelTwinResponse{Cancelled: cancelled}, nil
}

func (s *GRPCServer) ManualMark(ctx context.Context, req *ManualMarkRequest) (*MarkResponse, error) {
	if err := s.check(req); err != nil {
		return nil, toStatus(err)
	}
	st, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, toStatus(common.NewValidationError("status", err.Error()))
	}

	mark, err := s.att.Marks.ManualMark(ctx, req.SessionID, req.StudentID, st)
	if err != nil {
		return nil, s.fail(ctx, "ManualMark", err)
	}
	return &MarkResponse{Mark: markToMsg(mark)}, nil
}

func (s *GRPCServer) SubmitSession(ctx context.Context, req *SessionRequest) (*SessionResponse, error) {
	if err := s.check(req); err != nil {
		return nil, toStatus(err)
	}

	session, err := s.att.Locks.Submit(ctx, req.SessionID)
	if err != nil {
		return nil, s.fail(ctx, "SubmitSession", err)
	}
	return &SessionResponse{Session: sessionToMsg(session)}, nil
}

func (s *GRPCServer) GetSummary(ctx context.Context, req *SessionRequest) (*SummaryResponse, error) {
	if err := s.check(req); err != nil {
		return nil, toStatus(err)
	}

	sum, err := s.att.Summaries.Summarize(ctx, req.SessionID)
	if err != nil {
		return nil, s.fail(ctx, "GetSummary", err)
	}
	resp := summaryToMsg(sum)
	return &resp, nil
}

func sessionToMsg(s *models.Session) Session {
	return Session{
		ID:          s.ID,
		SectionID:   s.SectionID,
		Date:        s.Date.String(),
		StartTime:   s.Start.String(),
		EndTime:     s.End.String(),
		Locked:      s.Locked,
		SubmittedAt: s.SubmittedAt,
		CreatedAt:   s.CreatedAt,
		CreatedBy:   s.CreatedBy,
	}
}

func markToMsg(m *models.Mark) Mark {
	return Mark{
		SessionID: m.SessionID,
		StudentID: m.StudentID,
		Status:    string(m.Status),
		MarkedAt:  m.MarkedAt,
		Source:    string(m.Source),
	}
}

func candidatesToMsg(cs []models.Candidate) []Candidate {
	out := make([]Candidate, 0, len(cs))
	for _, c := range cs {
		out = append(out, Candidate{StudentID: c.StudentID, Name: c.Name, Confidence: c.Confidence})
	}
	return out
}

func summaryToMsg(sum *models.Summary) SummaryResponse {
	resp := SummaryResponse{
		SessionID: sum.SessionID,
		Total:     sum.Total,
		Present:   sum.Present,
		Absent:    sum.Absent,
		Unmarked:  sum.Unmarked,
		Items:     make([]SummaryItem, 0, len(sum.Items)),
	}
	for _, it := range sum.Items {
		resp.Items = append(resp.Items, SummaryItem{
			StudentID: it.StudentID,
			Name:      it.Name,
			RollNo:    it.RollNo,
			Status:    string(it.Status),
			MarkedAt:  it.MarkedAt,
			Source:    string(it.Source),
		})
	}
	return resp
}

func outcomeToMsg(o services.Outcome) *ScanResponse {
	switch o := o.(type) {
	case services.Marked:
		return &ScanResponse{Status: ScanMarked, StudentID: o.StudentID, Name: o.Name, Confidence: o.Confidence}
	case services.Ambiguous:
		return &ScanResponse{Status: ScanAmbiguous, Candidates: candidatesToMsg(o.Candidates)}
	default:
		return &ScanResponse{Status: ScanNoMatch}
	}
}
