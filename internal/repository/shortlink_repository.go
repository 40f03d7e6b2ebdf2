package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/punktual/backend/internal/model"
)

var (
	ErrNotFound     = errors.New("short link not found")
	ErrCodeConflict = errors.New("short code already exists")
)

// ShortLinkRepository handles database operations for short links
type ShortLinkRepository struct {
	db *pgxpool.Pool
}

// NewShortLinkRepository creates a new short-link repository
func NewShortLinkRepository(db *pgxpool.Pool) *ShortLinkRepository {
	return &ShortLinkRepository{db: db}
}

// Create inserts a new short-link record into the database
func (r *ShortLinkRepository) Create(ctx context.Context, link *model.ShortLink) error {
	ctx, span := tracer.Start(ctx, "db.insert",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "INSERT"),
			attribute.String("db.sql.table", "short_links"),
			attribute.String("short_code", link.ShortCode),
		),
	)
	defer span.End()

	// A duplicate short code trips the unique constraint, which we map to
	// ErrCodeConflict so the service can retry with a new candidate.
	query := `
		INSERT INTO short_links (id, short_code, original_url, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRow(
		ctx,
		query,
		link.ID,
		link.ShortCode,
		link.OriginalURL,
		link.IsActive,
	).Scan(&link.CreatedAt)

	if err != nil {
		span.RecordError(err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrCodeConflict
		}
		return err
	}

	return nil
}

// GetByCode retrieves a short link by its code, active or not. Callers decide
// how to treat deactivated records.
func (r *ShortLinkRepository) GetByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "short_links"),
			attribute.String("short_code", code),
		),
	)
	defer span.End()

	query := `
		SELECT id, short_code, original_url, is_active, click_count, created_at
		FROM short_links
		WHERE short_code = $1`
	var link model.ShortLink
	err := r.db.QueryRow(ctx, query, code).Scan(
		&link.ID,
		&link.ShortCode,
		&link.OriginalURL,
		&link.IsActive,
		&link.ClickCount,
		&link.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, err
	}
	return &link, nil
}

// Deactivate soft-deletes a short link. The row is kept for click history;
// resolution treats it as gone.
func (r *ShortLinkRepository) Deactivate(ctx context.Context, code string) error {
	ctx, span := tracer.Start(ctx, "db.update",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "UPDATE"),
			attribute.String("db.sql.table", "short_links"),
			attribute.String("short_code", code),
		),
	)
	defer span.End()

	query := `UPDATE short_links SET is_active = FALSE WHERE short_code = $1 AND is_active`
	result, err := r.db.Exec(ctx, query, code)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementClicks applies a single atomic click-count increment. Used by the
// click worker and the direct fallback recorder; safe under concurrent
// redirects for the same code.
func (r *ShortLinkRepository) IncrementClicks(ctx context.Context, code string) error {
	ctx, span := tracer.Start(ctx, "db.update",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "UPDATE"),
			attribute.String("db.sql.table", "short_links"),
			attribute.String("short_code", code),
		),
	)
	defer span.End()

	query := `UPDATE short_links SET click_count = click_count + 1 WHERE short_code = $1`
	result, err := r.db.Exec(ctx, query, code)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
