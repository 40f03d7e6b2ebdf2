package model

import (
	"time"

	"github.com/google/uuid"
)

// ShortLink represents a tracked redirect entry
type ShortLink struct {
	ID          uuid.UUID `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	IsActive    bool      `json:"is_active"`
	ClickCount  int64     `json:"click_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateShortLinkRequest represents the request body for creating a short link
type CreateShortLinkRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// CreateShortLinkResponse represents the response for a created short link
type CreateShortLinkResponse struct {
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
}

// ShortLinkResponse represents the full short-link metadata response
type ShortLinkResponse struct {
	ShortCode   string `json:"short_code"`
	OriginalURL string `json:"original_url"`
	ShortURL    string `json:"short_url"`
	IsActive    bool   `json:"is_active"`
	ClickCount  int64  `json:"click_count"`
	CreatedAt   string `json:"created_at"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
