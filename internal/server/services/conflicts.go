package services

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/attendance/internal/server/models"
)

// TwinConflict is an unresolved ambiguous capture.
type TwinConflict struct {
	Digest     string
	Candidates []models.Candidate
	CreatedAt  time.Time
}

func (c *TwinConflict) candidate(studentID string) (models.Candidate, bool) {
	for _, cand := range c.Candidates {
		if cand.StudentID == studentID {
			return cand, true
		}
	}
	return models.Candidate{}, false
}

// conflictRegistry holds at most one conflict per session. Entries older
// than ttl count as abandoned and are dropped on access.
type conflictRegistry struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]*TwinConflict
}

func newConflictRegistry(ttl time.Duration) *conflictRegistry {
	return &conflictRegistry{ttl: ttl, items: make(map[string]*TwinConflict)}
}

func (r *conflictRegistry) pending(sessionID string, now time.Time) (*TwinConflict, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[sessionID]
	if !ok {
		return nil, false
	}
	if now.Sub(c.CreatedAt) >= r.ttl {
		delete(r.items, sessionID)
		return nil, false
	}
	return c, true
}

func (r *conflictRegistry) put(sessionID string, c *TwinConflict) {
	r.mu.Lock()
	r.items[sessionID] = c
	r.mu.Unlock()
}

// clear drops the conflict of a session and reports whether one existed.
func (r *conflictRegistry) clear(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[sessionID]
	delete(r.items, sessionID)
	return ok
}
