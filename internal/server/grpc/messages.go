package grpc

import "time"

// Requests carry validate tags checked before any service call. Field
// names in validation errors follow the json tags.

type CreateSessionRequest struct {
	SectionID string `json:"section_id" validate:"required,max=64"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

type ListSessionsRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

// SessionRequest addresses one session; it is shared by the read calls,
// SubmitSession and CancelTwin.
type SessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type SubmitScanRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
	Image     []byte `json:"image" validate:"required"`
}

type ResolveTwinRequest struct {
	SessionID          string `json:"session_id" validate:"required"`
	SectionID          string `json:"section_id" validate:"required"`
	Image              []byte `json:"image" validate:"required"`
	ConfirmedStudentID string `json:"confirmed_student_id" validate:"required"`
}

type ManualMarkRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent"`
}

type Session struct {
	ID          string     `json:"id"`
	SectionID   string     `json:"section_id"`
	Date        string     `json:"date"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	Locked      bool       `json:"locked"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedBy   string     `json:"created_by,omitempty"`
}

type SessionResponse struct {
	Session Session `json:"session"`
}

type ListSessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

type Candidate struct {
	StudentID  string  `json:"student_id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Scan statuses.
const (
	ScanMarked    = "marked"
	ScanNoMatch   = "no_match"
	ScanAmbiguous = "ambiguous"
)

// ScanResponse answers SubmitScan and ResolveTwin. Student fields are set
// for "marked", Candidates for "ambiguous".
type ScanResponse struct {
	Status     string      `json:"status"`
	StudentID  string      `json:"student_id,omitempty"`
	Name       string      `json:"name,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

type CancelTwinResponse struct {
	Cancelled bool `json:"cancelled"`
}

type Mark struct {
	SessionID string     `json:"session_id"`
	StudentID string     `json:"student_id"`
	Status    string     `json:"status"`
	MarkedAt  *time.Time `json:"marked_at,omitempty"`
	Source    string     `json:"source,omitempty"`
}

type MarkResponse struct {
	Mark Mark `json:"mark"`
}

type SummaryItem struct {
	StudentID string     `json:"student_id"`
	Name      string     `json:"name"`
	RollNo    string     `json:"roll_no,omitempty"`
	Status    string     `json:"status"`
	MarkedAt  *time.Time `json:"marked_at,omitempty"`
	Source    string     `json:"source,omitempty"`
}

type SummaryResponse struct {
	SessionID string        `json:"session_id"`
	Total     int           `json:"total"`
	Present   int           `json:"present"`
	Absent    int           `json:"absent"`
	Unmarked  int           `json:"unmarked"`
	Items     []SummaryItem `json:"items"`
}

type SessionDetailResponse struct {
	Session               Session         `json:"session"`
	State                 string          `json:"state"`
	GraceRemainingSeconds int64           `json:"grace_remaining_seconds"`
	Summary               SummaryResponse `json:"summary"`
	// PendingCandidates lists the choices of an unresolved twin conflict.
	PendingCandidates []Candidate `json:"pending_candidates,omitempty"`
}
