// Package memory keeps sessions, marks and the roster in process memory. It
// backs the server when no database DSN is configured and is used by
// service tests.
package memory

import (
	"sync"

	"github.com/dmitrijs2005/attendance/internal/server/models"
)

type markKey struct {
	sessionID string
	studentID string
}

// Store is the shared state behind the memory repositories.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	order    []string
	marks    map[markKey]*models.Mark
	sections map[string]*models.Section
	students map[string]*models.Student
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*models.Session),
		marks:    make(map[markKey]*models.Mark),
		sections: make(map[string]*models.Section),
		students: make(map[string]*models.Student),
	}
}

func copySession(s *models.Session) *models.Session {
	c := *s
	if s.SubmittedAt != nil {
		t := *s.SubmittedAt
		c.SubmittedAt = &t
	}
	return &c
}

func copyMark(m *models.Mark) *models.Mark {
	c := *m
	if m.MarkedAt != nil {
		t := *m.MarkedAt
		c.MarkedAt = &t
	}
	return &c
}
