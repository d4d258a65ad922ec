package lidarr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golift.io/starr"
	"golift.io/starr/lidarr"
)

// Client wraps the starr Lidarr client
type Client struct {
	client LidarrAPI
	logger zerolog.Logger
}

// AlbumStatus describes an album Lidarr already tracks
type AlbumStatus struct {
	Artist    string
	Title     string
	Monitored bool
}

// Option configures a Client
type Option func(*Client)

// WithAPI replaces the starr backend
func WithAPI(api LidarrAPI) Option {
	return func(c *Client) {
		c.client = api
	}
}

// NewClient creates a new Lidarr client and checks the connection
func NewClient(url, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	c := &Client{logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = lidarr.New(starr.New(apiKey, url, 30*time.Second))
	}

	// Test the connection
	if err := c.client.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to Lidarr: %w", err)
	}

	return c, nil
}

// FindAlbums returns tracked albums by artist (case-insensitive) whose title
// contains title. An empty title returns every album by the artist.
func (c *Client) FindAlbums(ctx context.Context, artist, title string) ([]AlbumStatus, error) {
	artists, err := c.client.GetArtistContext(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get artists: %w", err)
	}

	names := make(map[int64]string, len(artists))
	for _, a := range artists {
		if a != nil && strings.EqualFold(strings.TrimSpace(a.ArtistName), strings.TrimSpace(artist)) {
			names[a.ID] = a.ArtistName
		}
	}
	if len(names) == 0 {
		c.logger.Debug().Str("artist", artist).Msg("Artist not tracked by Lidarr")
		return nil, nil
	}

	albums, err := c.client.GetAlbumContext(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get albums: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d albums from Lidarr", len(albums))

	want := strings.ToLower(strings.TrimSpace(title))
	var matches []AlbumStatus
	for _, album := range albums {
		if album == nil {
			continue
		}
		name, ok := names[album.ArtistID]
		if !ok {
			continue
		}
		if want != "" && !strings.Contains(strings.ToLower(album.Title), want) {
			continue
		}
		matches = append(matches, AlbumStatus{
			Artist:    name,
			Title:     album.Title,
			Monitored: album.Monitored,
		})
	}
	return matches, nil
}
