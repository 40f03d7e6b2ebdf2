package model

import "time"

// Draft is a best-effort snapshot of the in-progress form, held per user
// with a bounded lifetime. A draft older than the configured TTL is treated
// as expired and discarded on load.
type Draft struct {
	EventData  EventData  `json:"eventData"`
	ButtonData ButtonData `json:"buttonData"`
	SavedAt    time.Time  `json:"savedAt"`
}

// CreateEventRequest is the payload accepted by the event creation endpoint.
type CreateEventRequest struct {
	EventData  EventData  `json:"eventData"`
	ButtonData ButtonData `json:"buttonData"`
}

// CreateEventResponse carries the persisted records plus the embeddable
// HTML snippet generated from them.
type CreateEventResponse struct {
	Event  *Event  `json:"event"`
	Button *Button `json:"button"`
	HTML   string  `json:"html"`
}

// StatusResponse is the completeness-check result. Missing lists the
// human-readable unmet requirements; it is advisory only and never blocks
// data capture.
type StatusResponse struct {
	Complete bool     `json:"complete"`
	Missing  []string `json:"missing"`
}

// GenerateLinksResponse returns the derived per-platform links for preview.
type GenerateLinksResponse struct {
	Links CalendarLinks `json:"links"`
}

// CSRFTokenResponse carries the issued token; the same token is mirrored in
// cookies by the handler.
type CSRFTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}
