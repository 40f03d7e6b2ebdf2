package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/punktual/backend/internal/model"
)

// EventRepository handles database operations for events and their buttons
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// CreateWithButton persists an event and its button customization in one
// transaction. Both records are written or neither is.
func (r *EventRepository) CreateWithButton(ctx context.Context, event *model.Event, button *model.Button) error {
	ctx, span := tracer.Start(ctx, "db.tx.insert",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "INSERT"),
			attribute.String("db.sql.table", "events"),
			attribute.String("user_id", event.UserID),
		),
	)
	defer span.End()

	eventData, err := json.Marshal(event.EventData)
	if err != nil {
		return err
	}
	buttonData, err := json.Marshal(button.ButtonData)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO events (id, user_id, event_data) VALUES ($1, $2, $3) RETURNING created_at`,
		event.ID, event.UserID, eventData,
	).Scan(&event.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO buttons (id, event_id, button_data) VALUES ($1, $2, $3) RETURNING created_at`,
		button.ID, event.ID, buttonData,
	).Scan(&button.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// CountForUserSince returns how many events a user created at or after the
// given instant. Used for the monthly creation quota.
func (r *EventRepository) CountForUserSince(ctx context.Context, userID string, since time.Time) (int, error) {
	ctx, span := tracer.Start(ctx, "db.select",
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", "SELECT"),
			attribute.String("db.sql.table", "events"),
			attribute.String("user_id", userID),
		),
	)
	defer span.End()

	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE user_id = $1 AND created_at >= $2`,
		userID, since,
	).Scan(&count)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return count, nil
}
