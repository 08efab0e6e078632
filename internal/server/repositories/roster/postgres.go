// Package roster reads sections and students enrolled in them.
package roster

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

func (r *PostgresRepository) GetSection(ctx context.Context, id string) (*models.Section, error) {
	query := `SELECT id, name FROM sections WHERE id = $1`

	s := &models.Section{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT id, section_id, name, roll_no FROM students WHERE id = $1`

	s := &models.Student{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.SectionID, &s.Name, &s.RollNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListStudents(ctx context.Context, sectionID string) ([]*models.Student, error) {
	query := `SELECT id, section_id, name, roll_no FROM students WHERE section_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, sectionID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Student
	for rows.Next() {
		s := &models.Student{}
		if err := rows.Scan(&s.ID, &s.SectionID, &s.Name, &s.RollNo); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) UpsertSection(ctx context.Context, s *models.Section) error {
	query :=
		`INSERT INTO sections (id, name) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		 `
	if _, err := r.db.ExecContext(ctx, query, s.ID, s.Name); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertStudent(ctx context.Context, s *models.Student) error {
	query :=
		`INSERT INTO students (id, section_id, name, roll_no) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET section_id = EXCLUDED.section_id, name = EXCLUDED.name, roll_no = EXCLUDED.roll_no
		 `
	if _, err := r.db.ExecContext(ctx, query, s.ID, s.SectionID, s.Name, s.RollNo); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
