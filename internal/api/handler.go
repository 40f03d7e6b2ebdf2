package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/punktual/backend/internal/auth"
	"github.com/punktual/backend/internal/calendar"
	"github.com/punktual/backend/internal/middleware"
	"github.com/punktual/backend/internal/model"
	"github.com/punktual/backend/internal/service"
)

// Handler holds HTTP handlers and dependencies.
// It follows the dependency injection pattern, receiving
// interfaces rather than concrete implementations for testability.
type Handler struct {
	shortLinks service.ShortLinkServiceInterface // short-link business logic
	events     service.EventServiceInterface     // event/button creation
	drafts     *service.DraftService             // best-effort form drafts
	generator  *calendar.Generator               // pure link generation for previews
	jwtManager *auth.JWTManager                  // bearer-token validation
	db         DBInterface                       // database connection for health checks
	cache      CacheInterface                    // cache connection for health checks
	logger     *slog.Logger                      // structured logger for validation/error logging

	csrfTTL     time.Duration
	csrfEnforce bool
}

// DBInterface defines the database operations needed by the handler.
// This interface allows for easy mocking in unit tests without
// requiring a real database connection.
type DBInterface interface {
	Ping(ctx context.Context) error // Check database connectivity
	Close()                         // Close database connection
}

// CacheInterface defines the cache operations needed by the handler.
// This interface allows for easy mocking in unit tests without
// requiring a real cache connection.
type CacheInterface interface {
	Ping(ctx context.Context) error
}

// Options bundles the handler dependencies.
type Options struct {
	ShortLinks  service.ShortLinkServiceInterface
	Events      service.EventServiceInterface
	Drafts      *service.DraftService
	Generator   *calendar.Generator
	JWTManager  *auth.JWTManager
	DB          DBInterface
	Cache       CacheInterface
	Logger      *slog.Logger
	CSRFTTL     time.Duration
	CSRFEnforce bool
}

// NewHandler creates a new handler instance with the provided dependencies.
func NewHandler(opts Options) *Handler {
	return &Handler{
		shortLinks:  opts.ShortLinks,
		events:      opts.Events,
		drafts:      opts.Drafts,
		generator:   opts.Generator,
		jwtManager:  opts.JWTManager,
		db:          opts.DB,
		cache:       opts.Cache,
		logger:      opts.Logger,
		csrfTTL:     opts.CSRFTTL,
		csrfEnforce: opts.CSRFEnforce,
	}
}

// SetupRouter creates a Gin engine with the standard middleware chain and all
// routes registered. Routes are organized into:
//   - Health check and Prometheus metrics for monitoring
//   - API v1 endpoints (grouped under /api/v1)
//   - Public redirect endpoint for short-link resolution (last, to avoid
//     shadowing the static routes)
func (h *Handler) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("punktual-api"))
	r.Use(middleware.Logging(h.logger))
	r.Use(middleware.Metrics())

	r.GET("/health", h.healthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/csrf", h.issueCSRFToken)
		v1.POST("/links", h.createShortLink)
		v1.POST("/links/generate", h.generateLinks)
		v1.GET("/links/:code", h.getShortLink)
		v1.DELETE("/links/:code", h.deactivateShortLink)
		v1.POST("/events/status", h.eventStatus)

		authed := v1.Group("")
		authed.Use(middleware.RequireAuth(h.jwtManager))
		if h.csrfEnforce {
			authed.Use(middleware.VerifyCSRF())
		}
		{
			authed.POST("/events", h.createEvent)
			authed.PUT("/draft", h.saveDraft)
			authed.GET("/draft", h.loadDraft)
			authed.DELETE("/draft", h.clearDraft)
		}
	}

	// Redirect route (public) - must be last to avoid conflicts. Gin never
	// matches "/" against "/:code", so the blank-code case needs its own route.
	r.GET("/", h.missingCode)
	r.GET("/:code", h.redirect)

	return r
}

// healthCheck handles GET /health
// Returns the health status of the service and all dependencies.
// Response codes:
//   - 200 OK: All dependencies are healthy
//   - 503 Service Unavailable: One or more dependencies are down
func (h *Handler) healthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	cacheErr := h.cache.Ping(ctx)
	dbErr := h.db.Ping(ctx)

	status := "ok"
	code := http.StatusOK
	deps := gin.H{"cache": "up", "database": "up"}

	if cacheErr != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		deps["cache"] = "down"
	}
	if dbErr != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		deps["database"] = "down"
	}

	c.JSON(code, gin.H{"status": status, "dependencies": deps})
}

// issueCSRFToken handles GET /api/v1/csrf
// Issues a random token and mirrors it into two cookies: an httpOnly cookie
// holding the token's SHA-256 hash (server-verifiable) and a readable cookie
// holding the raw token for client-side echo. Both expire with the token.
// Response codes:
//   - 200 OK: Token issued
//   - 500 Internal Server Error: Randomness unavailable
func (h *Handler) issueCSRFToken(c *gin.Context) {
	token, hash, err := auth.NewCSRFToken()
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "csrf token generation failed",
			slog.String("error", err.Error()))
		h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	maxAge := int(h.csrfTTL.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CSRFHashCookie, hash, maxAge, "/", "", false, true)
	c.SetCookie(auth.CSRFTokenCookie, token, maxAge, "/", "", false, false)

	c.JSON(http.StatusOK, model.CSRFTokenResponse{CSRFToken: token})
}

// createShortLink handles POST /api/v1/links
// Creates a short link for a long calendar URL.
// Request body: CreateShortLinkRequest (JSON)
// Response codes:
//   - 201 Created: Short link successfully created
//   - 400 Bad Request: Invalid request body or URL
//   - 500 Internal Server Error: Unexpected error
func (h *Handler) createShortLink(c *gin.Context) {
	ctx := c.Request.Context()
	var req model.CreateShortLinkRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body",
			slog.String("error", err.Error()),
			slog.String("path", c.Request.URL.Path))
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.shortLinks.CreateShortLink(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			h.errorResponse(c, http.StatusBadRequest, "Invalid URL")
		default:
			h.logger.ErrorContext(ctx, "unexpected error creating short link",
				slog.String("error", err.Error()))
			h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// generateLinks handles POST /api/v1/links/generate
// Derives the per-platform calendar links for preview. Pure computation:
// missing required fields yield an empty or partial link set, not an error.
// Response codes:
//   - 200 OK: Link set returned (possibly empty)
//   - 400 Bad Request: Malformed JSON body
func (h *Handler) generateLinks(c *gin.Context) {
	var req model.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	platforms := req.ButtonData.SelectedPlatforms
	if len(platforms) == 0 {
		platforms = model.AllPlatforms
	}

	links := h.generator.Generate(req.EventData, platforms)
	c.JSON(http.StatusOK, model.GenerateLinksResponse{Links: links})
}

// getShortLink handles GET /api/v1/links/:code
// Retrieves metadata for a short link without recording a click.
// Response codes:
//   - 200 OK: Metadata retrieved successfully
//   - 404 Not Found: Short code does not exist
//   - 500 Internal Server Error: Unexpected error
func (h *Handler) getShortLink(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	resp, err := h.shortLinks.GetShortLink(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			h.errorResponse(c, http.StatusNotFound, "Short link not found")
		default:
			h.logger.ErrorContext(ctx, "unexpected error fetching short link",
				slog.String("error", err.Error()),
				slog.String("code", code))
			h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// deactivateShortLink handles DELETE /api/v1/links/:code
// Soft-deletes a short link; the row is retained but no longer resolves.
// Response codes:
//   - 204 No Content: Link successfully deactivated
//   - 404 Not Found: Short code does not exist or is already inactive
//   - 500 Internal Server Error: Unexpected error
func (h *Handler) deactivateShortLink(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	if err := h.shortLinks.DeactivateShortLink(ctx, code); err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			h.errorResponse(c, http.StatusNotFound, "Short link not found")
		default:
			h.logger.ErrorContext(ctx, "unexpected error deactivating short link",
				slog.String("error", err.Error()),
				slog.String("code", code))
			h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// eventStatus handles POST /api/v1/events/status
// Runs the completeness check over the submitted form state. Advisory only:
// the result is user feedback and never blocks data capture.
// Response codes:
//   - 200 OK: StatusResponse with complete flag and unmet requirements
//   - 400 Bad Request: Malformed JSON body
func (h *Handler) eventStatus(c *gin.Context) {
	var req model.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	c.JSON(http.StatusOK, service.CheckCompleteness(req.EventData, req.ButtonData))
}

// createEvent handles POST /api/v1/events
// Persists the event and button for the authenticated user and returns the
// records plus the embeddable HTML snippet.
// Response codes:
//   - 201 Created: Event and button persisted
//   - 400 Bad Request: Missing required fields
//   - 401 Unauthorized: Missing or invalid bearer token
//   - 429 Too Many Requests: Monthly creation quota reached
//   - 500 Internal Server Error: Unexpected error
func (h *Handler) createEvent(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	var req model.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.events.CreateEvent(ctx, userID, &req)
	if err != nil {
		var incomplete *service.IncompleteFormError
		switch {
		case errors.As(err, &incomplete):
			h.errorResponse(c, http.StatusBadRequest, incomplete.Error())
		case errors.Is(err, service.ErrQuotaExceeded):
			h.errorResponse(c, http.StatusTooManyRequests,
				"Monthly event limit reached. Upgrade your plan to create more events.")
		default:
			h.logger.ErrorContext(ctx, "unexpected error creating event",
				slog.String("error", err.Error()),
				slog.String("user_id", userID))
			h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// saveDraft handles PUT /api/v1/draft
// Snapshots the in-progress form for the authenticated user, overwriting any
// prior draft. Storage trouble is absorbed: the response is 204 regardless.
// Response codes:
//   - 204 No Content: Draft accepted (best effort)
//   - 400 Bad Request: Malformed JSON body
//   - 401 Unauthorized: Missing or invalid bearer token
func (h *Handler) saveDraft(c *gin.Context) {
	var req model.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.drafts.Save(c.Request.Context(), middleware.UserID(c), req.EventData, req.ButtonData)
	c.Status(http.StatusNoContent)
}

// loadDraft handles GET /api/v1/draft
// Returns the user's saved draft if one exists and has not expired.
// Response codes:
//   - 200 OK: The draft
//   - 401 Unauthorized: Missing or invalid bearer token
//   - 404 Not Found: No usable draft (never saved, expired, or unreadable)
func (h *Handler) loadDraft(c *gin.Context) {
	draft := h.drafts.Load(c.Request.Context(), middleware.UserID(c))
	if draft == nil {
		h.errorResponse(c, http.StatusNotFound, "No draft")
		return
	}
	c.JSON(http.StatusOK, draft)
}

// clearDraft handles DELETE /api/v1/draft
// Discards the user's draft.
// Response codes:
//   - 204 No Content: Draft discarded (or none existed)
//   - 401 Unauthorized: Missing or invalid bearer token
func (h *Handler) clearDraft(c *gin.Context) {
	h.drafts.Clear(c.Request.Context(), middleware.UserID(c))
	c.Status(http.StatusNoContent)
}

// missingCode handles GET /
// A redirect request with no short code is a client error.
func (h *Handler) missingCode(c *gin.Context) {
	h.errorResponse(c, http.StatusBadRequest, "Missing short code")
}

// redirect handles GET /:code
// Redirects to the original URL behind the short code and records the click
// asynchronously; a failed click record never blocks or fails the redirect.
// Response codes:
//   - 302 Found: Redirects to original URL
//   - 404 Not Found: Short code unknown or deactivated
//   - 500 Internal Server Error: Unexpected error
func (h *Handler) redirect(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Param("code")

	url, err := h.shortLinks.Resolve(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			h.errorResponse(c, http.StatusNotFound, "Short link not found")
		default:
			h.logger.ErrorContext(ctx, "unexpected error during redirect",
				slog.String("error", err.Error()),
				slog.String("code", code))
			h.errorResponse(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	c.Redirect(http.StatusFound, url)
}

// errorResponse sends a standardized JSON error response.
func (h *Handler) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, model.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
