package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/punktual/backend/internal/calendar"
	"github.com/punktual/backend/internal/model"
)

var (
	ErrQuotaExceeded = errors.New("monthly event quota exceeded")
)

// IncompleteFormError reports the unmet requirements that block persistence.
type IncompleteFormError struct {
	Missing []string
}

func (e *IncompleteFormError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// EventStore is the persistence contract the event service depends on.
type EventStore interface {
	CreateWithButton(ctx context.Context, event *model.Event, button *model.Button) error
	CountForUserSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// EventService handles event/button creation with quota enforcement
type EventService struct {
	store        EventStore
	generator    *calendar.Generator
	monthlyQuota int
	now          func() time.Time
}

// EventServiceInterface defines the contract for event operations
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, userID string, req *model.CreateEventRequest) (*model.CreateEventResponse, error)
}

// NewEventService creates a new event service
func NewEventService(store EventStore, generator *calendar.Generator, monthlyQuota int) *EventService {
	return &EventService{
		store:        store,
		generator:    generator,
		monthlyQuota: monthlyQuota,
		now:          time.Now,
	}
}

// CreateEvent persists the event and button for the user and returns the
// records together with the embeddable snippet. Creation is refused when the
// form is incomplete or the user hit the monthly quota.
func (s *EventService) CreateEvent(ctx context.Context, userID string, req *model.CreateEventRequest) (*model.CreateEventResponse, error) {
	status := CheckCompleteness(req.EventData, req.ButtonData)
	if !status.Complete {
		return nil, &IncompleteFormError{Missing: status.Missing}
	}

	count, err := s.store.CountForUserSince(ctx, userID, startOfMonth(s.now().UTC()))
	if err != nil {
		return nil, err
	}
	if count >= s.monthlyQuota {
		return nil, ErrQuotaExceeded
	}

	event := &model.Event{
		ID:        uuid.New(),
		UserID:    userID,
		EventData: req.EventData,
	}
	button := &model.Button{
		ID:         uuid.New(),
		EventID:    event.ID,
		ButtonData: req.ButtonData,
	}
	if err := s.store.CreateWithButton(ctx, event, button); err != nil {
		return nil, err
	}

	links := s.generator.Generate(req.EventData, req.ButtonData.SelectedPlatforms)
	html, err := RenderSnippet(req.ButtonData, links)
	if err != nil {
		return nil, err
	}

	return &model.CreateEventResponse{
		Event:  event,
		Button: button,
		HTML:   html,
	}, nil
}

// startOfMonth truncates an instant to the first moment of its UTC month.
func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Ensure EventService implements its interface at compile time
var _ EventServiceInterface = (*EventService)(nil)
