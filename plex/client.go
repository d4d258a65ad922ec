package plex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Client represents a Plex Media Server API client
type Client struct {
	baseURL    string
	token      string
	clientID   string
	clientName string
	httpClient *http.Client
	logger     zerolog.Logger

	mu       sync.Mutex
	sections []Section
}

// NewClient creates a new Plex client
func NewClient(baseURL, token string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: plex URL is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: plex token is required", ErrInvalidConfig)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	return &Client{
		baseURL:    baseURL,
		token:      token,
		clientID:   o.clientID,
		clientName: o.clientName,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// doRequest performs an authenticated GET and returns the body
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Product", c.clientName)
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)
	req.Header.Set("X-Plex-Token", c.token)

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("params", params.Encode()).
		Msg("Making Plex API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}

// TestConnection checks that the server is reachable and the token is accepted
func (c *Client) TestConnection(ctx context.Context) (*Identity, error) {
	body, err := c.doRequest(ctx, "/identity", nil)
	if err != nil {
		return nil, err
	}

	var resp identityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode identity: %w", err)
	}

	// /identity answers without a token, so make sure the token works too
	if _, err := c.doRequest(ctx, "/library/sections", nil); err != nil {
		return nil, err
	}

	return &Identity{
		MachineIdentifier: resp.MediaContainer.MachineIdentifier,
		Version:           resp.MediaContainer.Version,
	}, nil
}

// LibraryItems queries /library/all with the given filters
func (c *Client) LibraryItems(ctx context.Context, query url.Values) ([]Metadata, error) {
	// Plex rejects empty filter values
	clean := url.Values{}
	for key, values := range query {
		for _, v := range values {
			if strings.TrimSpace(v) != "" {
				clean.Add(key, v)
			}
		}
	}

	body, err := c.doRequest(ctx, "/library/all", clean)
	if err != nil {
		return nil, fmt.Errorf("failed to get library items: %w", err)
	}

	var resp mediaContainerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode library items: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d library items from Plex", len(resp.MediaContainer.Metadata))
	return resp.MediaContainer.Metadata, nil
}

// FindAlbums returns albums by artist. An empty title returns every album by the artist.
func (c *Client) FindAlbums(ctx context.Context, artist, title string) ([]Metadata, error) {
	return c.LibraryItems(ctx, url.Values{
		"type":         {TypeAlbum.Query()},
		"artist.title": {artist},
		"title":        {title},
	})
}

// FindTracks returns tracks matching artist and title, optionally on a given album
func (c *Client) FindTracks(ctx context.Context, artist, title, album string) ([]Metadata, error) {
	return c.LibraryItems(ctx, url.Values{
		"type":         {TypeTrack.Query()},
		"artist.title": {artist},
		"title":        {title},
		"album.title":  {album},
	})
}

// FindMovies returns movies matching title. A zero year matches any year.
func (c *Client) FindMovies(ctx context.Context, title string, year int) ([]Metadata, error) {
	query := url.Values{
		"type":  {TypeMovie.Query()},
		"title": {title},
	}
	if year > 0 {
		query.Set("year", strconv.Itoa(year))
	}
	return c.LibraryItems(ctx, query)
}

// MatchQuery describes a /library/matches lookup
type MatchQuery struct {
	Title string
	// Type is a Plex type name such as "movie", "album" or "song"
	Type        string
	Year        int
	ParentTitle string
}

// Matches asks Plex to match a title against the library. Unlike the
// /library/all filters it tolerates small differences in the title.
func (c *Client) Matches(ctx context.Context, q MatchQuery) ([]Metadata, error) {
	typ, ok := ParseContentType(q.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, q.Type)
	}

	params := url.Values{
		"title":               {q.Title},
		"type":                {typ.Query()},
		"includeFullMetadata": {"1"},
	}
	if q.Year > 0 {
		params.Set("year", strconv.Itoa(q.Year))
	}
	if q.ParentTitle != "" {
		params.Set("parentTitle", q.ParentTitle)
	}

	body, err := c.doRequest(ctx, "/library/matches", params)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get library matches: %w", err)
	}

	var resp mediaContainerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode library matches: %w", err)
	}
	return resp.MediaContainer.Metadata, nil
}

// Sections returns the library sections, fetched once per client
func (c *Client) Sections(ctx context.Context) ([]Section, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sections != nil {
		return c.sections, nil
	}

	body, err := c.doRequest(ctx, "/library/sections", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get library sections: %w", err)
	}

	var resp sectionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode library sections: %w", err)
	}

	sections := make([]Section, 0, len(resp.MediaContainer.Directory))
	for _, dir := range resp.MediaContainer.Directory {
		if dir.Key == "" {
			continue
		}
		section := Section{Key: dir.Key, Title: dir.Title, Type: dir.Type}
		for _, loc := range dir.Location {
			section.Locations = append(section.Locations, loc.Path)
		}
		sections = append(sections, section)
	}

	c.sections = sections
	return sections, nil
}

// ScanPath asks Plex to scan path in a section of the given type ("artist"
// for music, "movie" for films). A section whose location contains path is
// preferred over the first section of that type.
func (c *Client) ScanPath(ctx context.Context, sectionType, path string) error {
	sections, err := c.Sections(ctx)
	if err != nil {
		return err
	}

	section, ok := pickSection(sections, sectionType, path)
	if !ok {
		return fmt.Errorf("%w: no %s section", ErrSectionNotFound, sectionType)
	}

	params := url.Values{}
	if path != "" {
		params.Set("path", path)
	}
	if _, err := c.doRequest(ctx, "/library/sections/"+section.Key+"/refresh", params); err != nil {
		return fmt.Errorf("failed to refresh section %s: %w", section.Title, err)
	}

	c.logger.Info().
		Str("section", section.Title).
		Str("path", path).
		Msg("Plex scan triggered")
	return nil
}

func pickSection(sections []Section, sectionType, path string) (Section, bool) {
	var fallback *Section
	for i := range sections {
		s := sections[i]
		if s.Type != sectionType {
			continue
		}
		if path != "" && s.Contains(path) {
			return s, true
		}
		if fallback == nil {
			fallback = &sections[i]
		}
	}
	if fallback == nil {
		return Section{}, false
	}
	return *fallback, true
}
