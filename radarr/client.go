package radarr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golift.io/starr"
	"golift.io/starr/radarr"
)

// Client wraps the starr Radarr client
type Client struct {
	client RadarrAPI
	logger zerolog.Logger
}

// MovieStatus describes a movie Radarr already tracks
type MovieStatus struct {
	ID        int64
	Title     string
	Year      int
	Monitored bool
	HasFile   bool
}

// Option configures a Client
type Option func(*Client)

// WithAPI replaces the starr backend
func WithAPI(api RadarrAPI) Option {
	return func(c *Client) {
		c.client = api
	}
}

// NewClient creates a new Radarr client and checks the connection
func NewClient(url, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	c := &Client{logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = radarr.New(starr.New(apiKey, url, 30*time.Second))
	}

	// Test the connection
	if err := c.client.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to Radarr: %w", err)
	}

	return c, nil
}

// FindMovies returns tracked movies whose title contains title. A zero year matches any year.
func (c *Client) FindMovies(ctx context.Context, title string, year int) ([]MovieStatus, error) {
	movies, err := c.client.GetMovieContext(ctx, &radarr.GetMovie{})
	if err != nil {
		return nil, fmt.Errorf("failed to get movies: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d movies from Radarr", len(movies))

	want := strings.ToLower(strings.TrimSpace(title))
	var matches []MovieStatus
	for _, movie := range movies {
		if movie == nil || !strings.Contains(strings.ToLower(movie.Title), want) {
			continue
		}
		if year > 0 && movie.Year != year {
			continue
		}
		matches = append(matches, MovieStatus{
			ID:        movie.ID,
			Title:     movie.Title,
			Year:      movie.Year,
			Monitored: movie.Monitored,
			HasFile:   movie.HasFile,
		})
	}
	return matches, nil
}
