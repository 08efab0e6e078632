package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/server/models"
)

type matchRequest struct {
	SectionID string `json:"section_id"`
	Image     []byte `json:"image"`
}

type wireCandidate struct {
	StudentID  string  `json:"student_id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type matchResponse struct {
	StudentID  string          `json:"student_id"`
	Name       string          `json:"name"`
	Confidence float64         `json:"confidence"`
	Candidates []wireCandidate `json:"candidates"`
}

// HTTPClient POSTs captures to {baseURL}/match as JSON; the image travels
// base64-encoded.
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTPClient creates a client for the matcher at baseURL. A nil client
// gets a private http.Client with the given timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		url:    strings.TrimRight(baseURL, "/") + "/match",
		client: client,
	}
}

func (c *HTTPClient) Match(ctx context.Context, sectionID string, image []byte) (Result, error) {
	body, err := json.Marshal(matchRequest{SectionID: sectionID, Image: image})
	if err != nil {
		return Result{}, fmt.Errorf("encode match request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build match request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: match request: %v", common.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, fmt.Errorf("%w: matcher returned %s", common.ErrTransient, resp.Status)
	}

	var mr matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return Result{}, fmt.Errorf("%w: decode match response: %v", common.ErrTransient, err)
	}
	return mr.result(), nil
}

func (mr matchResponse) result() Result {
	if len(mr.Candidates) > 0 {
		out := make([]models.Candidate, 0, len(mr.Candidates))
		for _, c := range mr.Candidates {
			out = append(out, models.Candidate{StudentID: c.StudentID, Name: c.Name, Confidence: c.Confidence})
		}
		return Result{Candidates: out}
	}
	if mr.StudentID != "" {
		return Result{Match: &models.Candidate{StudentID: mr.StudentID, Name: mr.Name, Confidence: mr.Confidence}}
	}
	return Result{}
}
