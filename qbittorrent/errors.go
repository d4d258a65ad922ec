package qbittorrent

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the qBittorrent client.
var (
	// ErrLoginFailed is returned when qBittorrent rejects the credentials.
	ErrLoginFailed = errors.New("qBittorrent login failed")

	// ErrSearchTimeout is returned when a search does not finish in time.
	ErrSearchTimeout = errors.New("qBittorrent search timed out")

	// ErrAddFailed is returned when qBittorrent refuses a torrent.
	ErrAddFailed = errors.New("failed to add torrent")

	// ErrClientNotFound is returned when a client name is not configured.
	ErrClientNotFound = errors.New("qBittorrent client not found")

	// ErrNoClients is returned when a pool has nothing to talk to.
	ErrNoClients = errors.New("no qBittorrent clients configured")
)

// APIError represents an unexpected Web API response
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("qBittorrent API error: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsForbidden reports whether the session cookie was rejected
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsConflict reports whether qBittorrent refused to start another search
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}
