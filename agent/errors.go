package agent

import "errors"

var (
	// ErrEmptyQuery is returned when Run is called without a request.
	ErrEmptyQuery = errors.New("query is required")

	// ErrMaxSteps is returned when the model keeps calling tools past the step limit.
	ErrMaxSteps = errors.New("agent step limit reached")

	// ErrUnknownResult is returned when a name does not resolve to a known search result.
	ErrUnknownResult = errors.New("torrent not found in search results")

	// ErrAlreadyDispatched is returned when a result was already added in the session.
	ErrAlreadyDispatched = errors.New("torrent already added in this session")

	// ErrUnknownMedia is returned for a media kind that has no dispatch settings.
	ErrUnknownMedia = errors.New("unknown media kind")
)
