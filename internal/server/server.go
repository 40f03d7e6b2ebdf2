package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/punktual/backend/internal/api"
	"github.com/punktual/backend/internal/auth"
	"github.com/punktual/backend/internal/calendar"
	"github.com/punktual/backend/internal/config"
	"github.com/punktual/backend/internal/events"
	"github.com/punktual/backend/internal/observability"
	"github.com/punktual/backend/internal/repository"
	"github.com/punktual/backend/internal/service"
)

// redisPinger adapts *redis.Client to api.CacheInterface.
type redisPinger struct{ client *redis.Client }

func (r *redisPinger) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// NewRouter initializes all dependencies and returns a configured Gin router.
// This is useful for testing where you don't need the full HTTP server.
// A nil click recorder falls back to direct database increments.
func NewRouter(cfg *config.Config, db *pgxpool.Pool, cache *redis.Client, clicks events.Recorder, obs *observability.Observability) *gin.Engine {
	baseRepo := repository.NewShortLinkRepository(db)
	linkRepo := repository.NewCachedShortLinkRepository(baseRepo, cache, cfg.Cache.TTL)
	eventRepo := repository.NewEventRepository(db)
	draftRepo := repository.NewDraftRepository(cache, cfg.App.DraftTTL)

	if clicks == nil {
		clicks = events.NewDirectRecorder(baseRepo)
	}

	generator := calendar.NewGenerator()
	linkService := service.NewShortLinkService(linkRepo, clicks, obs.Logger, cfg.App.BaseURL, cfg.App.ShortCodeLen, cfg.App.ShortCodeRetries)
	eventService := service.NewEventService(eventRepo, generator, cfg.App.MonthlyQuota)
	draftService := service.NewDraftService(draftRepo, obs.Logger)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	handler := api.NewHandler(api.Options{
		ShortLinks:  linkService,
		Events:      eventService,
		Drafts:      draftService,
		Generator:   generator,
		JWTManager:  jwtManager,
		DB:          db,
		Cache:       &redisPinger{client: cache},
		Logger:      obs.Logger,
		CSRFTTL:     cfg.Auth.CSRFTTL,
		CSRFEnforce: cfg.Auth.CSRFEnforce,
	})
	return handler.SetupRouter()
}

// NewServer initializes all dependencies and returns a configured HTTP server.
// This includes the router plus HTTP server settings (timeouts, address, etc.).
func NewServer(cfg *config.Config, db *pgxpool.Pool, cache *redis.Client, clicks events.Recorder, obs *observability.Observability) *http.Server {
	router := NewRouter(cfg, db, cache, clicks, obs)

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
