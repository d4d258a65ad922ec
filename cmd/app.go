package cmd

import (
	"context"
	"fmt"

	"github.com/s0up4200/cratedigger/agent"
	"github.com/s0up4200/cratedigger/config"
	"github.com/s0up4200/cratedigger/filter"
	"github.com/s0up4200/cratedigger/history"
	"github.com/s0up4200/cratedigger/lidarr"
	"github.com/s0up4200/cratedigger/llm"
	"github.com/s0up4200/cratedigger/plex"
	"github.com/s0up4200/cratedigger/qbittorrent"
	"github.com/s0up4200/cratedigger/radarr"
)

const userAgent = "cratedigger"

// services holds the connected backends used by a command
type services struct {
	pool    *qbittorrent.Pool
	plex    *plex.Client
	llm     *llm.Client
	history *history.Store
	lidarr  *lidarr.Client
	radarr  *radarr.Client
	filter  filter.Filter
}

// connectServices connects every configured backend. Optional backends that
// fail to connect are logged and left out.
func connectServices(ctx context.Context) (*services, error) {
	pool, err := connectPool(ctx)
	if err != nil {
		return nil, err
	}

	svc := &services{pool: pool}

	svc.plex, err = newPlexClient()
	if err != nil {
		return nil, err
	}

	svc.filter, err = filter.CompileFilter(cfg.Search.Filter)
	if err != nil {
		return nil, fmt.Errorf("invalid search.filter: %w", err)
	}

	svc.llm = llm.NewClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Referer: "https://github.com/s0up4200/cratedigger",
		Title:   "cratedigger",
		Timeout: cfg.LLM.Timeout,
	}, llm.WithLogger(logger))

	if cfg.History.Enabled {
		svc.history, err = history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.History.Path).Msg("Failed to open history, continuing without it")
		}
	}

	// Create Lidarr client if enabled
	if cfg.Lidarr.Enabled {
		svc.lidarr, err = lidarr.NewClient(cfg.Lidarr.URL, cfg.Lidarr.APIKey, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to create Lidarr client, continuing without it")
		} else {
			logger.Info().Msg("Lidarr integration enabled")
		}
	}

	// Create Radarr client if enabled
	if cfg.Radarr.Enabled {
		svc.radarr, err = radarr.NewClient(cfg.Radarr.URL, cfg.Radarr.APIKey, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to create Radarr client, continuing without it")
		} else {
			logger.Info().Msg("Radarr integration enabled")
		}
	}

	return svc, nil
}

// Close releases resources held by the services
func (s *services) Close() {
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			logger.Debug().Err(err).Msg("Failed to close history")
		}
	}
}

// newAgent builds the agent with every tool the connected services support
func (s *services) newAgent() *agent.Agent {
	media := mediaKinds(cfg.Media)

	// A nil *history.Store must not end up inside the Ledger interface
	var ledger agent.Ledger
	if s.history != nil {
		ledger = s.history
	}

	tools := []agent.Tool{
		agent.NewSearchTool(s.pool, s.filter, logger),
		agent.NewAddTool(s.pool, ledger, media, cfg.Safety.DryRun, logger),
		agent.NewAlbumTool(s.plex),
		agent.NewSongTool(s.plex),
		agent.NewMovieTool(s.plex),
	}
	if ledger != nil {
		tools = append(tools, agent.NewHistoryTool(ledger))
	}
	if s.lidarr != nil {
		tools = append(tools, agent.NewLidarrTool(s.lidarr))
	}
	if s.radarr != nil {
		tools = append(tools, agent.NewRadarrTool(s.radarr))
	}

	return agent.New(s.llm, tools, logger,
		agent.WithMaxSteps(cfg.Agent.MaxSteps),
		agent.WithDefaultMedia(cfg.Media.Default),
	)
}

// connectPool logs in to every configured qBittorrent client
func connectPool(ctx context.Context) (*qbittorrent.Pool, error) {
	opts := []qbittorrent.Option{
		qbittorrent.WithPollInterval(cfg.Search.PollInterval),
		qbittorrent.WithSearchTimeout(cfg.Search.Timeout),
		qbittorrent.WithResultLimit(cfg.Search.Limit),
		qbittorrent.WithPlugins(cfg.Search.Plugins),
		qbittorrent.WithSearchCategory(cfg.Search.Category),
		qbittorrent.WithUserAgent(userAgent),
		qbittorrent.WithDryRun(cfg.Safety.DryRun),
	}

	clients := make([]*qbittorrent.Client, 0, len(cfg.QBittorrent))
	for _, qb := range cfg.QBittorrent {
		client, err := qbittorrent.NewClient(ctx, qbittorrent.Config{
			Name:         qb.Name,
			URL:          qb.URL,
			Username:     qb.Username,
			Password:     qb.Password,
			DownloadPath: qb.DownloadPath,
		}, logger, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create qBittorrent client: %w", err)
		}
		clients = append(clients, client)
	}

	return qbittorrent.NewPool(clients, logger)
}

func newPlexClient() (*plex.Client, error) {
	client, err := plex.NewClient(cfg.Plex.URL, cfg.Plex.Token, logger,
		plex.WithClientIdentity(cfg.Plex.ClientID, cfg.Plex.ClientName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Plex client: %w", err)
	}
	return client, nil
}

// mediaKinds maps the media configuration to agent dispatch settings
func mediaKinds(m config.MediaConfig) agent.MediaKinds {
	return agent.MediaKinds{
		agent.MediaMusic: {
			Name:        agent.MediaMusic,
			Category:    m.Music.Category,
			SavePath:    m.Music.SavePath,
			SectionType: plex.TypeArtist.String(),
		},
		agent.MediaMovies: {
			Name:        agent.MediaMovies,
			Category:    m.Movies.Category,
			SavePath:    m.Movies.SavePath,
			SectionType: plex.TypeMovie.String(),
		},
	}
}
