// Package postgres provides PostgreSQL implementation of the webhooks repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/hookrelay/internal/domain"
	"github.com/bissquit/hookrelay/internal/webhooks"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

const webhookColumns = `id, label, section_id, verb, callback_url, is_active, created_at, updated_at`

// Repository implements webhooks.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateWebhook inserts a webhook and fills its generated fields.
func (r *Repository) CreateWebhook(ctx context.Context, hook *domain.Webhook) error {
	query := `
		INSERT INTO webhooks (label, section_id, verb, callback_url, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		hook.Label,
		hook.SectionID,
		hook.Verb,
		hook.CallbackURL,
		hook.IsActive,
	).Scan(&hook.ID, &hook.CreatedAt, &hook.UpdatedAt)
	if err != nil {
		return mapWriteError("insert webhook", err)
	}
	return nil
}

// GetWebhookByID retrieves a webhook by its ID.
func (r *Repository) GetWebhookByID(ctx context.Context, id int64) (*domain.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE id = $1`

	hook, err := scanWebhook(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, webhooks.ErrWebhookNotFound
		}
		return nil, fmt.Errorf("select webhook: %w", err)
	}
	return hook, nil
}

// UpdateWebhook writes all editable fields of hook.
func (r *Repository) UpdateWebhook(ctx context.Context, hook *domain.Webhook) error {
	query := `
		UPDATE webhooks
		SET label = $2, section_id = $3, verb = $4, callback_url = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		hook.ID,
		hook.Label,
		hook.SectionID,
		hook.Verb,
		hook.CallbackURL,
		hook.IsActive,
	).Scan(&hook.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return webhooks.ErrWebhookNotFound
		}
		return mapWriteError("update webhook", err)
	}
	return nil
}

// DeleteWebhook removes a webhook.
func (r *Repository) DeleteWebhook(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM webhooks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return webhooks.ErrWebhookNotFound
	}
	return nil
}

// DeleteWebhooks removes all listed webhooks.
func (r *Repository) DeleteWebhooks(ctx context.Context, ids []int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM webhooks WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete webhooks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SetActive sets is_active on all listed webhooks that are not already in that state.
func (r *Repository) SetActive(ctx context.Context, ids []int64, active bool) (int64, error) {
	query := `
		UPDATE webhooks
		SET is_active = $2, updated_at = NOW()
		WHERE id = ANY($1) AND is_active <> $2
	`
	tag, err := r.db.Exec(ctx, query, ids, active)
	if err != nil {
		return 0, fmt.Errorf("set webhooks active: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListWebhooks returns a page of webhooks ordered by id descending and the total count.
func (r *Repository) ListWebhooks(ctx context.Context, offset, limit int) ([]domain.Webhook, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM webhooks`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count webhooks: %w", err)
	}

	query := `SELECT ` + webhookColumns + ` FROM webhooks ORDER BY id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query webhooks: %w", err)
	}

	hooks, err := collectWebhooks(rows)
	if err != nil {
		return nil, 0, err
	}
	return hooks, total, nil
}

// FindActiveMatches returns active webhooks for the section and verb ordered by id.
func (r *Repository) FindActiveMatches(ctx context.Context, sectionID int64, verb domain.Verb) ([]domain.Webhook, error) {
	query := `
		SELECT ` + webhookColumns + `
		FROM webhooks
		WHERE section_id = $1 AND verb = $2 AND is_active
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, sectionID, verb)
	if err != nil {
		return nil, fmt.Errorf("query active webhooks: %w", err)
	}
	return collectWebhooks(rows)
}

func collectWebhooks(rows pgx.Rows) ([]domain.Webhook, error) {
	defer rows.Close()

	result := make([]domain.Webhook, 0)
	for rows.Next() {
		hook, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		result = append(result, *hook)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhooks: %w", err)
	}
	return result, nil
}

func scanWebhook(row pgx.Row) (*domain.Webhook, error) {
	var hook domain.Webhook
	err := row.Scan(
		&hook.ID,
		&hook.Label,
		&hook.SectionID,
		&hook.Verb,
		&hook.CallbackURL,
		&hook.IsActive,
		&hook.CreatedAt,
		&hook.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &hook, nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return webhooks.ErrWebhookExists
		case foreignKeyViolation:
			return fmt.Errorf("%w: %w", webhooks.ErrValidation, webhooks.ErrSectionNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
