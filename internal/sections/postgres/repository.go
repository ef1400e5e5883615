// Package postgres provides PostgreSQL implementation of the sections repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/hookrelay/internal/domain"
	"github.com/bissquit/hookrelay/internal/sections"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Repository implements sections.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSection inserts a section and fills its generated fields.
func (r *Repository) CreateSection(ctx context.Context, section *domain.Section) error {
	query := `
		INSERT INTO sections (name, handle, sort_order)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, section.Name, section.Handle, section.SortOrder).
		Scan(&section.ID, &section.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sections.ErrHandleExists
		}
		return fmt.Errorf("insert section: %w", err)
	}
	return nil
}

// GetSectionByID retrieves a section by its ID.
func (r *Repository) GetSectionByID(ctx context.Context, id int64) (*domain.Section, error) {
	query := `
		SELECT id, name, handle, sort_order, created_at
		FROM sections
		WHERE id = $1
	`
	var s domain.Section
	err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Handle, &s.SortOrder, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sections.ErrSectionNotFound
		}
		return nil, fmt.Errorf("select section: %w", err)
	}
	return &s, nil
}

// ListSections retrieves all sections ordered by sort order and name.
func (r *Repository) ListSections(ctx context.Context) ([]domain.Section, error) {
	query := `
		SELECT id, name, handle, sort_order, created_at
		FROM sections
		ORDER BY sort_order, name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Section, 0)
	for rows.Next() {
		var s domain.Section
		if err := rows.Scan(&s.ID, &s.Name, &s.Handle, &s.SortOrder, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return result, nil
}

// SectionExists reports whether a section row with the given id exists.
func (r *Repository) SectionExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sections WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check section exists: %w", err)
	}
	return exists, nil
}
