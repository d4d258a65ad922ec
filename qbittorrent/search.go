package qbittorrent

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
	"time"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// maxStartAttempts bounds retries of a search start refused with 409
const maxStartAttempts = 3

// searchSession talks to the search endpoints of the Web API, which
// go-qbittorrent does not cover. It keeps its own cookie session.
type searchSession struct {
	baseURL    string
	username   string
	password   string
	userAgent  string
	httpClient *http.Client
	logger     zerolog.Logger

	mu sync.Mutex
}

func (s *searchSession) login(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	form := url.Values{
		"username": {s.username},
		"password": {s.password},
	}

	s.logger.Debug().Str("user", s.username).Msg("Logging in to qBittorrent search session")

	body, status, err := s.post(ctx, "/api/v2/auth/login", form)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusForbidden:
		return fmt.Errorf("%w: IP banned for too many failed attempts", ErrLoginFailed)
	case status != http.StatusOK:
		return fmt.Errorf("%w: status %d", ErrLoginFailed, status)
	case strings.TrimSpace(string(body)) == "Fails.":
		return fmt.Errorf("%w: invalid credentials", ErrLoginFailed)
	}
	return nil
}

// run starts a search, waits for every plugin to stop and returns the results.
// When the search timeout passes first, whatever was collected so far is returned.
func (s *searchSession) run(ctx context.Context, pattern string, o clientOptions) ([]SearchResult, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("search pattern is required")
	}

	s.logger.Debug().Str("query", pattern).Msg("Starting search")

	searchID, err := s.start(ctx, url.Values{
		"pattern":  {pattern},
		"plugins":  {o.plugins},
		"category": {o.searchCategory},
	}, o)
	if err != nil {
		return nil, fmt.Errorf("failed to start search: %w", err)
	}

	id := strconv.Itoa(searchID)
	defer func() {
		// Finished searches stay in memory on the server until deleted
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.postJSON(cleanupCtx, "/api/v2/search/delete", url.Values{"id": {id}}, nil); err != nil {
			s.logger.Debug().Err(err).Str("search_id", id).Msg("Failed to delete search")
		}
	}()

	timedOut, err := s.waitStopped(ctx, id, o)
	if err != nil {
		return nil, err
	}
	if timedOut {
		s.logger.Warn().
			Str("query", pattern).
			Dur("timeout", o.searchTimeout).
			Msg("Search still running after timeout, using partial results")
		if err := s.postJSON(ctx, "/api/v2/search/stop", url.Values{"id": {id}}, nil); err != nil {
			s.logger.Debug().Err(err).Str("search_id", id).Msg("Failed to stop search")
		}
	}

	form := url.Values{"id": {id}}
	if o.resultLimit > 0 {
		form.Set("limit", strconv.Itoa(o.resultLimit))
	}
	var results searchResultsResponse
	if err := s.postJSON(ctx, "/api/v2/search/results", form, &results); err != nil {
		if timedOut {
			return nil, fmt.Errorf("%w: %w", ErrSearchTimeout, err)
		}
		return nil, fmt.Errorf("failed to fetch search results: %w", err)
	}

	for i := range results.Results {
		results.Results[i].InfoHash = magnetInfoHash(results.Results[i].URL)
	}

	s.logger.Debug().
		Str("query", pattern).
		Int("total", len(results.Results)).
		Msg("Search results fetched")

	return results.Results, nil
}

// start begins a search and returns its id. qBittorrent answers 409 while
// too many searches are running, in which case the start is retried.
func (s *searchSession) start(ctx context.Context, form url.Values, o clientOptions) (int, error) {
	limiter := rate.NewLimiter(rate.Every(10*o.pollInterval), 1)

	var err error
	for attempt := 1; attempt <= maxStartAttempts; attempt++ {
		if werr := limiter.Wait(ctx); werr != nil {
			return 0, werr
		}

		var resp searchStartResponse
		err = s.postJSON(ctx, "/api/v2/search/start", form, &resp)
		if err == nil {
			return resp.ID, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsConflict() {
			return 0, err
		}
		s.logger.Debug().Int("attempt", attempt).Msg("Too many searches running, retrying start")
	}
	return 0, err
}

// waitStopped polls the search status until every entry reports Stopped.
// It returns true when the search timeout expired first.
func (s *searchSession) waitStopped(ctx context.Context, id string, o clientOptions) (bool, error) {
	pollCtx, cancel := context.WithTimeout(ctx, o.searchTimeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(o.pollInterval), 1)
	for {
		if err := limiter.Wait(pollCtx); err != nil {
			// Wait fails early when the next tick would pass the deadline
			<-pollCtx.Done()
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return true, nil
		}

		var statuses []searchStatus
		if err := s.postJSON(pollCtx, "/api/v2/search/status", url.Values{"id": {id}}, &statuses); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			if pollCtx.Err() != nil {
				return true, nil
			}
			return false, fmt.Errorf("failed to get search status: %w", err)
		}

		if allStopped(statuses) {
			return false, nil
		}
		s.logger.Trace().Str("search_id", id).Interface("status", statuses).Msg("Search still running")
	}
}

func allStopped(statuses []searchStatus) bool {
	for _, st := range statuses {
		if st.Status != "Stopped" {
			return false
		}
	}
	return true
}

// postJSON posts a form and decodes the JSON reply into out, logging in again
// once if the session cookie has expired.
func (s *searchSession) postJSON(ctx context.Context, endpoint string, form url.Values, out any) error {
	err := s.postDecode(ctx, endpoint, form, out)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsForbidden() {
		if err := s.login(ctx); err != nil {
			return err
		}
		err = s.postDecode(ctx, endpoint, form, out)
	}
	return err
}

func (s *searchSession) postDecode(ctx context.Context, endpoint string, form url.Values, out any) error {
	body, status, err := s.post(ctx, endpoint, form)
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		return &APIError{Endpoint: endpoint, StatusCode: status, Body: strings.TrimSpace(string(body))}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func (s *searchSession) post(ctx context.Context, endpoint string, form url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// qBittorrent rejects requests whose Referer does not match the host when CSRF protection is on
	req.Header.Set("Referer", s.baseURL)
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// magnetInfoHash returns the hex info hash of a magnet link, or "" for anything else
func magnetInfoHash(link string) string {
	if !strings.HasPrefix(strings.ToLower(link), "magnet:") {
		return ""
	}
	m, err := metainfo.ParseMagnetUri(link)
	if err != nil {
		return ""
	}
	return m.InfoHash.HexString()
}

