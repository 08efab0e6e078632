// Package sessions stores attendance sessions.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/attendance/internal/common"
	"github.com/dmitrijs2005/attendance/internal/dbx"
	"github.com/dmitrijs2005/attendance/internal/server/models"
	"github.com/dmitrijs2005/attendance/internal/timex"
)

const sessionColumns = `id, section_id, session_date, start_minute, end_minute, locked, submitted_at, created_at, created_by`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		s           models.Session
		date        time.Time
		start, end  int
		submittedAt sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.SectionID, &date, &start, &end, &s.Locked, &submittedAt, &s.CreatedAt, &s.CreatedBy); err != nil {
		return nil, err
	}
	s.Date = timex.DateOf(date.UTC())
	s.Start = timex.TimeOfDay(start)
	s.End = timex.TimeOfDay(end)
	if submittedAt.Valid {
		t := submittedAt.Time
		s.SubmittedAt = &t
	}
	return &s, nil
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	query :=
		`INSERT INTO attendance_sessions (id, section_id, session_date, start_minute, end_minute, locked, created_at, created_by)
		 VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8)
		 `

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.SectionID, s.Date.String(), int(s.Start), int(s.End), s.Locked, s.CreatedAt, s.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions WHERE id = $1`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListByDate(ctx context.Context, date timex.Date) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions WHERE session_date = $1::date ORDER BY seq`
	return r.list(ctx, query, date.String())
}

func (r *PostgresRepository) ListBySectionAndDate(ctx context.Context, sectionID string, date timex.Date) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM attendance_sessions WHERE section_id = $1 AND session_date = $2::date ORDER BY seq`
	return r.list(ctx, query, sectionID, date.String())
}

func (r *PostgresRepository) LockSchedule(ctx context.Context, sectionID string, date timex.Date) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

	if _, err := r.db.ExecContext(ctx, query, sectionID+"/"+date.String()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) MarkSubmitted(ctx context.Context, id string, at time.Time) (*models.Session, error) {
	query :=
		`UPDATE attendance_sessions SET locked = TRUE, submitted_at = $2
		 WHERE id = $1 AND submitted_at IS NULL
		 RETURNING ` + sessionColumns

	s, err := scanSession(r.db.QueryRowContext(ctx, query, id, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
