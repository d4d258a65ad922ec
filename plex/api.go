package plex

import "context"

// Library defines the Plex operations used by the agent tools
type Library interface {
	// FindAlbums returns albums by artist, optionally narrowed to a title
	FindAlbums(ctx context.Context, artist, title string) ([]Metadata, error)

	// FindTracks returns tracks by artist and title, optionally narrowed to an album
	FindTracks(ctx context.Context, artist, title, album string) ([]Metadata, error)

	// FindMovies returns movies by title, optionally narrowed to a year
	FindMovies(ctx context.Context, title string, year int) ([]Metadata, error)

	// Matches runs the fuzzier /library/matches lookup
	Matches(ctx context.Context, q MatchQuery) ([]Metadata, error)
}

// Scanner triggers library scans after downloads complete
type Scanner interface {
	ScanPath(ctx context.Context, sectionType, path string) error
}

var (
	_ Library = (*Client)(nil)
	_ Scanner = (*Client)(nil)
)
