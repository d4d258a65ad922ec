package qbittorrent

import (
	"net/http"
	"time"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultPollInterval  = 100 * time.Millisecond
	defaultSearchTimeout = 60 * time.Second
	defaultResultLimit   = 50
	defaultUserAgent     = "cratedigger"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	timeout        time.Duration
	pollInterval   time.Duration
	searchTimeout  time.Duration
	resultLimit    int
	plugins        string
	searchCategory string
	userAgent      string
	dryRun         bool
	httpClient     *http.Client
	api            TorrentAPI
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout:        defaultTimeout,
		pollInterval:   defaultPollInterval,
		searchTimeout:  defaultSearchTimeout,
		resultLimit:    defaultResultLimit,
		plugins:        "enabled",
		searchCategory: "all",
		userAgent:      defaultUserAgent,
	}
}

// WithTimeout sets the HTTP client timeout used by searches.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithPollInterval sets how often a running search is polled.
func WithPollInterval(interval time.Duration) Option {
	return func(o *clientOptions) {
		if interval > 0 {
			o.pollInterval = interval
		}
	}
}

// WithSearchTimeout bounds how long a single search may run.
func WithSearchTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.searchTimeout = timeout
		}
	}
}

// WithResultLimit caps the number of results fetched per search. Zero means no limit.
func WithResultLimit(limit int) Option {
	return func(o *clientOptions) {
		if limit >= 0 {
			o.resultLimit = limit
		}
	}
}

// WithPlugins selects the search plugins ("enabled", "all" or a list separated by |).
func WithPlugins(plugins string) Option {
	return func(o *clientOptions) {
		if plugins != "" {
			o.plugins = plugins
		}
	}
}

// WithSearchCategory restricts searches to a plugin category.
func WithSearchCategory(category string) Option {
	return func(o *clientOptions) {
		if category != "" {
			o.searchCategory = category
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		o.userAgent = userAgent
	}
}

// WithDryRun logs torrent additions instead of performing them.
func WithDryRun(dryRun bool) Option {
	return func(o *clientOptions) {
		o.dryRun = dryRun
	}
}

// WithHTTPClient overrides the HTTP client used by searches.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithTorrentAPI replaces the go-qbittorrent backend.
func WithTorrentAPI(api TorrentAPI) Option {
	return func(o *clientOptions) {
		o.api = api
	}
}
