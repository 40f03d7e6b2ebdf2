package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/punktual/backend/internal/model"
)

// ShortLinkStore is the contract the service layer depends on.
type ShortLinkStore interface {
	Create(ctx context.Context, link *model.ShortLink) error
	GetByCode(ctx context.Context, code string) (*model.ShortLink, error)
	Deactivate(ctx context.Context, code string) error
}

// CachedShortLinkRepository wraps the Postgres repository with a Redis
// cache-aside layer on code resolution. Redis failures degrade to direct
// database reads; they never fail the request.
type CachedShortLinkRepository struct {
	db    *ShortLinkRepository
	cache *redis.Client
	ttl   time.Duration
}

// NewCachedShortLinkRepository creates the caching wrapper. A nil cache
// client disables caching entirely.
func NewCachedShortLinkRepository(db *ShortLinkRepository, cache *redis.Client, ttl time.Duration) *CachedShortLinkRepository {
	return &CachedShortLinkRepository{db: db, cache: cache, ttl: ttl}
}

func cacheKey(code string) string {
	return fmt.Sprintf("punktual:link:%s", code)
}

// Create inserts through to the database. The new record is not cached
// eagerly; the first resolution populates the cache.
func (r *CachedShortLinkRepository) Create(ctx context.Context, link *model.ShortLink) error {
	return r.db.Create(ctx, link)
}

// GetByCode resolves a code with the cache-aside pattern. The cached copy
// carries the click count observed at fill time; exact counts always come
// from the database row.
func (r *CachedShortLinkRepository) GetByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	key := cacheKey(code)

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, key).Result()
		if err == nil {
			var link model.ShortLink
			if jsonErr := json.Unmarshal([]byte(cached), &link); jsonErr == nil {
				return &link, nil
			}
			// Corrupt entry: drop it and fall through to the database.
			r.cache.Del(ctx, key)
		}
	}

	link, err := r.db.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if data, err := json.Marshal(link); err == nil {
			r.cache.Set(ctx, key, data, r.ttl)
		}
	}

	return link, nil
}

// Deactivate soft-deletes the link and evicts any cached copy so the next
// resolution observes the inactive state.
func (r *CachedShortLinkRepository) Deactivate(ctx context.Context, code string) error {
	if err := r.db.Deactivate(ctx, code); err != nil {
		return err
	}
	if r.cache != nil {
		r.cache.Del(ctx, cacheKey(code))
	}
	return nil
}

// Ensure both repositories satisfy the store contract
var (
	_ ShortLinkStore = (*ShortLinkRepository)(nil)
	_ ShortLinkStore = (*CachedShortLinkRepository)(nil)
)
