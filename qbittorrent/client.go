package qbittorrent

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"
)

// Config holds the connection details of one qBittorrent instance
type Config struct {
	Name         string
	URL          string
	Username     string
	Password     string
	DownloadPath string
}

// Client wraps the qBittorrent API client
type Client struct {
	name         string
	downloadPath string
	api          TorrentAPI
	search       *searchSession
	opts         clientOptions
	logger       zerolog.Logger
}

// NewClient creates a new qBittorrent client and logs in
func NewClient(ctx context.Context, cfg Config, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qBittorrent URL is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	baseURL := strings.TrimRight(cfg.URL, "/")

	api := o.api
	if api == nil {
		// Create client with credentials
		api = qbittorrent.NewClient(qbittorrent.Config{
			Host:     baseURL,
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	httpClient := o.httpClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient = &http.Client{Timeout: o.timeout, Jar: jar}
	}

	logger = logger.With().Str("client", cfg.Name).Logger()

	c := &Client{
		name:         cfg.Name,
		downloadPath: cfg.DownloadPath,
		api:          api,
		search: &searchSession{
			baseURL:    baseURL,
			username:   cfg.Username,
			password:   cfg.Password,
			userAgent:  o.userAgent,
			httpClient: httpClient,
			logger:     logger,
		},
		opts:   o,
		logger: logger,
	}

	// Test connection by logging in
	if err := c.api.LoginCtx(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to qBittorrent %s: %w", cfg.Name, err)
	}
	if err := c.search.login(ctx); err != nil {
		return nil, fmt.Errorf("failed to open search session on %s: %w", cfg.Name, err)
	}

	logger.Debug().Str("url", baseURL).Msg("Connected to qBittorrent")

	return c, nil
}

// Name returns the configured client name
func (c *Client) Name() string {
	return c.name
}

// DownloadPath returns the per-client save path override, if any
func (c *Client) DownloadPath() string {
	return c.downloadPath
}

// Version returns the qBittorrent application version
func (c *Client) Version(ctx context.Context) (string, error) {
	version, err := c.api.GetAppVersionCtx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

// AddTorrent submits a torrent URL or magnet link to qBittorrent
func (c *Client) AddTorrent(ctx context.Context, url string, opts AddOptions) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: empty url", ErrAddFailed)
	}

	options := map[string]string{}
	if opts.SavePath != "" {
		options["savepath"] = opts.SavePath
	}
	if opts.Category != "" {
		options["category"] = opts.Category
	}
	if len(opts.Tags) > 0 {
		options["tags"] = strings.Join(opts.Tags, ",")
	}

	if c.opts.dryRun {
		c.logger.Info().
			Str("url", url).
			Interface("options", options).
			Msg("Dry run enabled, not adding torrent")
		return nil
	}

	if err := c.api.AddTorrentFromUrlCtx(ctx, url, options); err != nil {
		return fmt.Errorf("%w: %w", ErrAddFailed, err)
	}

	c.logger.Info().
		Str("url", url).
		Str("category", opts.Category).
		Str("save_path", opts.SavePath).
		Msg("Torrent added")
	return nil
}

// TorrentsByTag returns every torrent carrying the given tag
func (c *Client) TorrentsByTag(ctx context.Context, tag string) ([]*TorrentInfo, error) {
	torrents, err := c.api.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{Tag: tag})
	if err != nil {
		return nil, fmt.Errorf("failed to get torrents: %w", err)
	}

	c.logger.Debug().Str("tag", tag).Msgf("Retrieved %d torrents from qBittorrent", len(torrents))

	results := make([]*TorrentInfo, 0, len(torrents))
	for _, t := range torrents {
		results = append(results, c.toTorrentInfo(t))
	}
	return results, nil
}

// Files lists the files of a torrent relative to its save path
func (c *Client) Files(ctx context.Context, hash string) ([]string, error) {
	files, err := c.api.GetFilesInformationCtx(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get torrent files: %w", err)
	}

	var paths []string
	if files != nil {
		for _, f := range *files {
			paths = append(paths, f.Name)
		}
	}
	return paths, nil
}

// Search runs a search plugin query on this client
func (c *Client) Search(ctx context.Context, pattern string) ([]SearchResult, error) {
	return c.search.run(ctx, pattern, c.opts)
}

func (c *Client) toTorrentInfo(t qbittorrent.Torrent) *TorrentInfo {
	info := &TorrentInfo{
		Client:      c.name,
		Hash:        t.Hash,
		Name:        t.Name,
		SavePath:    t.SavePath,
		ContentPath: t.ContentPath,
		State:       string(t.State),
		Size:        t.Size,
		Progress:    t.Progress,
		Category:    t.Category,
		AddedOn:     time.Unix(t.AddedOn, 0),
	}
	if t.CompletionOn > 0 {
		info.CompletionOn = time.Unix(t.CompletionOn, 0)
	}
	for _, tag := range strings.Split(t.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			info.Tags = append(info.Tags, tag)
		}
	}
	return info
}
