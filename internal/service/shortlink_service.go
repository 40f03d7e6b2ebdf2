package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/punktual/backend/internal/events"
	"github.com/punktual/backend/internal/model"
	"github.com/punktual/backend/internal/repository"
)

var (
	ErrInvalidURL          = errors.New("invalid URL format")
	ErrLinkNotFound        = errors.New("short link not found")
	ErrShortCodeGeneration = errors.New("failed to generate short code")
)

// ShortLinkService handles business logic for short-link operations
type ShortLinkService struct {
	repo             repository.ShortLinkStore
	clicks           events.Recorder
	logger           *slog.Logger
	baseURL          string
	shortCodeLen     int
	shortCodeRetries int
}

// ShortLinkServiceInterface defines the contract for short-link operations
type ShortLinkServiceInterface interface {
	CreateShortLink(ctx context.Context, req *model.CreateShortLinkRequest) (*model.CreateShortLinkResponse, error)
	GetShortLink(ctx context.Context, code string) (*model.ShortLinkResponse, error)
	DeactivateShortLink(ctx context.Context, code string) error
	Resolve(ctx context.Context, code string) (string, error)
}

// NewShortLinkService creates a new short-link service
func NewShortLinkService(repo repository.ShortLinkStore, clicks events.Recorder, logger *slog.Logger, baseURL string, shortCodeLen, shortCodeRetries int) *ShortLinkService {
	return &ShortLinkService{
		repo:             repo,
		clicks:           clicks,
		logger:           logger,
		baseURL:          baseURL,
		shortCodeLen:     shortCodeLen,
		shortCodeRetries: shortCodeRetries,
	}
}

// CreateShortLink stores the original URL under a freshly generated code.
// Hash collisions are retried with a salted input up to the configured limit.
func (s *ShortLinkService) CreateShortLink(ctx context.Context, req *model.CreateShortLinkRequest) (*model.CreateShortLinkResponse, error) {
	g := NewShortCodeGenerator(s.shortCodeLen)

	for attempt := 0; attempt < s.shortCodeRetries; attempt++ {
		candidate, err := g.Generate(req.URL + strconv.Itoa(attempt))
		if err != nil {
			return nil, err
		}
		link := &model.ShortLink{
			ID:          uuid.New(),
			ShortCode:   candidate,
			OriginalURL: req.URL,
			IsActive:    true,
		}
		if err := s.repo.Create(ctx, link); err != nil {
			if errors.Is(err, repository.ErrCodeConflict) {
				continue
			}
			return nil, err
		}
		return &model.CreateShortLinkResponse{
			ShortCode: candidate,
			ShortURL:  s.baseURL + "/" + candidate,
		}, nil
	}

	return nil, ErrShortCodeGeneration
}

// GetShortLink retrieves short-link metadata without recording a click.
func (s *ShortLinkService) GetShortLink(ctx context.Context, code string) (*model.ShortLinkResponse, error) {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	return &model.ShortLinkResponse{
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		ShortURL:    s.baseURL + "/" + link.ShortCode,
		IsActive:    link.IsActive,
		ClickCount:  link.ClickCount,
		CreatedAt:   link.CreatedAt.Format(time.RFC3339),
	}, nil
}

// DeactivateShortLink soft-deletes a short link; resolution then reports it
// as not found while the row and its click history remain.
func (s *ShortLinkService) DeactivateShortLink(ctx context.Context, code string) error {
	if err := s.repo.Deactivate(ctx, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLinkNotFound
		}
		return err
	}
	return nil
}

// Resolve returns the original URL for an active code and records the click
// without blocking the redirect. A deactivated link resolves like a missing
// one. Click recording is fire and forget: failures are logged and absorbed,
// so counts may undercount under sustained broker or database trouble.
func (s *ShortLinkService) Resolve(ctx context.Context, code string) (string, error) {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrLinkNotFound
		}
		return "", err
	}
	if !link.IsActive {
		return "", ErrLinkNotFound
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.clicks.Record(ctx, code); err != nil {
			s.logger.Warn("click recording failed",
				slog.String("short_code", code),
				slog.String("error", err.Error()))
		}
	}()

	return link.OriginalURL, nil
}

// Ensure ShortLinkService implements its interface at compile time
var _ ShortLinkServiceInterface = (*ShortLinkService)(nil)
