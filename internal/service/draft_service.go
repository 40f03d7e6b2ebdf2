package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/punktual/backend/internal/model"
	"github.com/punktual/backend/internal/repository"
)

// DraftStore is the persistence contract for form drafts.
type DraftStore interface {
	Save(ctx context.Context, userID string, event model.EventData, button model.ButtonData) error
	Load(ctx context.Context, userID string) (*model.Draft, error)
	Delete(ctx context.Context, userID string) error
}

// DraftService wraps the draft store with the best-effort policy: storage
// trouble is logged and absorbed, callers only ever see "saved" or "no draft".
type DraftService struct {
	store  DraftStore
	logger *slog.Logger
}

// NewDraftService creates a new draft service
func NewDraftService(store DraftStore, logger *slog.Logger) *DraftService {
	return &DraftService{store: store, logger: logger}
}

// Save snapshots the form. Errors never surface; a failed save costs the user
// a recovery draft, not a request.
func (s *DraftService) Save(ctx context.Context, userID string, event model.EventData, button model.ButtonData) {
	if err := s.store.Save(ctx, userID, event, button); err != nil {
		s.logger.Warn("draft save failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
}

// Load returns the user's draft, or nil when none is usable. Expired drafts
// and storage errors both read as "no draft".
func (s *DraftService) Load(ctx context.Context, userID string) *model.Draft {
	draft, err := s.store.Load(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNoDraft) {
			s.logger.Warn("draft load failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()))
		}
		return nil
	}
	return draft
}

// Clear discards the user's draft.
func (s *DraftService) Clear(ctx context.Context, userID string) {
	if err := s.store.Delete(ctx, userID); err != nil {
		s.logger.Warn("draft delete failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()))
	}
}
