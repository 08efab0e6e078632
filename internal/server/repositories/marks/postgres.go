// Package marks stores per-student attendance marks.
package marks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/dbx"
	"github.com/dmitrijs2005/attendance/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMark(row rowScanner) (*models.Mark, error) {
	var (
		m        models.Mark
		status   string
		source   string
		markedAt sql.NullTime
	)
	if err := row.Scan(&m.SessionID, &m.StudentID, &status, &markedAt, &source); err != nil {
		return nil, err
	}
	m.Status = models.Status(status)
	m.Source = models.Source(source)
	if markedAt.Valid {
		t := markedAt.Time
		m.MarkedAt = &t
	}
	return &m, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, m *models.Mark) (*models.Mark, error) {
	query :=
		`INSERT INTO attendance_marks (session_id, student_id, status, marked_at, source)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (session_id, student_id) DO UPDATE
		 SET status = EXCLUDED.status, marked_at = EXCLUDED.marked_at, source = EXCLUDED.source
		 `

	var markedAt any
	if m.MarkedAt != nil {
		markedAt = *m.MarkedAt
	}

	_, err := r.db.ExecContext(ctx, query, m.SessionID, m.StudentID, string(m.Status), markedAt, string(m.Source))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) Get(ctx context.Context, sessionID, studentID string) (*models.Mark, error) {
	query :=
		`SELECT session_id, student_id, status, marked_at, source FROM attendance_marks
		 WHERE session_id = $1 AND student_id = $2
		 `

	m, err := scanMark(r.db.QueryRowContext(ctx, query, sessionID, studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.Mark, error) {
	query :=
		`SELECT session_id, student_id, status, marked_at, source FROM attendance_marks
		 WHERE session_id = $1
		 ORDER BY student_id
		 `

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Mark
	for rows.Next() {
		m, err := scanMark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}
