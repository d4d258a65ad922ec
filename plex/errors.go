package plex

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid plex configuration")
	// ErrUnauthorized indicates the token was rejected
	ErrUnauthorized = errors.New("unauthorized: invalid plex token")
	// ErrSectionNotFound indicates no library section can hold the requested path
	ErrSectionNotFound = errors.New("plex library section not found")
	// ErrUnknownType indicates a content type name Plex does not know
	ErrUnknownType = errors.New("unknown plex content type")
)

// APIError represents a Plex API error
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("plex API error: %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// Unwrap lets errors.Is match ErrUnauthorized for rejected tokens
func (e *APIError) Unwrap() error {
	if e.IsUnauthorized() {
		return ErrUnauthorized
	}
	return nil
}
