package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/punktual/backend/internal/model"
)

// ErrNoDraft reports that no usable draft exists for the user, whether it was
// never saved, expired, or unreadable.
var ErrNoDraft = errors.New("no draft")

// DraftRepository stores per-user form drafts in Redis with a bounded
// lifetime. All calls run through a circuit breaker: drafts are a best-effort
// convenience and a misbehaving Redis must not take requests down with it.
type DraftRepository struct {
	cache   *redis.Client
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
}

// NewDraftRepository creates a draft repository with the given lifetime.
func NewDraftRepository(cache *redis.Client, ttl time.Duration) *DraftRepository {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "draft-redis",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing key is a normal outcome, not a Redis failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
	})
	return &DraftRepository{cache: cache, ttl: ttl, breaker: breaker}
}

func draftKey(userID string) string {
	return fmt.Sprintf("punktual:draft:%s", userID)
}

// Save overwrites the user's draft unconditionally (last write wins) and
// stamps it with the current time. The Redis TTL matches the expiry check in
// Load so abandoned drafts also age out server-side.
func (r *DraftRepository) Save(ctx context.Context, userID string, event model.EventData, button model.ButtonData) error {
	draft := model.Draft{
		EventData:  event,
		ButtonData: button,
		SavedAt:    time.Now().UTC(),
	}
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}

	_, err = r.breaker.Execute(func() (interface{}, error) {
		return nil, r.cache.Set(ctx, draftKey(userID), data, r.ttl).Err()
	})
	return err
}

// Load returns the user's draft if one exists and is younger than the
// configured lifetime. A stale or unreadable entry is removed and reported
// as ErrNoDraft, never resurrected.
func (r *DraftRepository) Load(ctx context.Context, userID string) (*model.Draft, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.cache.Get(ctx, draftKey(userID)).Result()
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoDraft
		}
		return nil, err
	}

	var draft model.Draft
	if err := json.Unmarshal([]byte(result.(string)), &draft); err != nil {
		r.Delete(ctx, userID)
		return nil, ErrNoDraft
	}

	if time.Since(draft.SavedAt) > r.ttl {
		r.Delete(ctx, userID)
		return nil, ErrNoDraft
	}

	return &draft, nil
}

// Delete removes the user's draft. Missing keys are not an error.
func (r *DraftRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.cache.Del(ctx, draftKey(userID)).Err()
	})
	return err
}
