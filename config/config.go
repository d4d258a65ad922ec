package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBindings maps configuration keys to the environment variables that may set them.
// The names match the .env files used by existing deployments.
var envBindings = map[string][]string{
	"environment":           {"ENVIRONMENT"},
	"qb.url":                {"QBITTORRENT_API_URL", "QBITTORRENT_URL"},
	"qb.username":           {"QBITTORRENT_USERNAME"},
	"qb.password":           {"QBITTORRENT_PASSWORD"},
	"safety.dry_run":        {"QBITTORRENT_DRY_RUN", "DRY_RUN"},
	"plex.url":              {"PMS_URL", "PLEX_URL"},
	"plex.token":            {"PLEX_TOKEN"},
	"plex.client_id":        {"PLEX_CLIENT_ID"},
	"plex.client_name":      {"PLEX_CLIENT_NAME"},
	"lidarr.url":            {"LIDARR_URL"},
	"lidarr.api_key":        {"LIDARR_API_KEY"},
	"radarr.url":            {"RADARR_URL"},
	"radarr.api_key":        {"RADARR_API_KEY"},
	"llm.api_key":           {"LLM_API_KEY", "OPENROUTER_API_KEY"},
	"llm.base_url":          {"LLM_BASE_URL"},
	"llm.model":             {"LLM_MODEL"},
	"logging.level":         {"LOG_LEVEL"},
	"logging.format":        {"LOG_FORMAT"},
	"history.path":          {"HISTORY_PATH"},
	"search.filter":         {"SEARCH_FILTER"},
	"media.default":         {"MEDIA_DEFAULT"},
	"media.music.save_path": {"MUSIC_SAVE_PATH", "QBITTORRENT_DOWNLOAD_PATH"},
}

// Load loads the configuration from file, .env and the environment
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()

	// Set default values
	setDefaults(v)

	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".cratedigger"))
		}

		// Check /etc
		v.AddConfigPath("/etc/cratedigger/")
	}

	// A config file is optional when everything comes from the environment
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if len(cfg.QBittorrent) == 0 {
		cfg.QBittorrent = []QBittorrentConfig{{
			Name:     "default",
			URL:      v.GetString("qb.url"),
			Username: v.GetString("qb.username"),
			Password: v.GetString("qb.password"),
		}}
	}

	normalize(&cfg)

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// qBittorrent defaults for the env-configured client
	v.SetDefault("qb.url", "http://localhost:8080")
	v.SetDefault("qb.username", "admin")
	v.SetDefault("qb.password", "")

	// Search defaults
	v.SetDefault("search.plugins", "enabled")
	v.SetDefault("search.category", "all")
	v.SetDefault("search.poll_interval", 100*time.Millisecond)
	v.SetDefault("search.timeout", 60*time.Second)
	v.SetDefault("search.limit", 50)
	v.SetDefault("search.filter", `has(Name, "FLAC")`)

	// Plex defaults
	v.SetDefault("plex.url", "")
	v.SetDefault("plex.token", "")
	v.SetDefault("plex.client_id", "cratedigger")
	v.SetDefault("plex.client_name", "cratedigger")

	// Lidarr defaults
	v.SetDefault("lidarr.enabled", false)
	v.SetDefault("lidarr.url", "")
	v.SetDefault("lidarr.api_key", "")

	// Radarr defaults
	v.SetDefault("radarr.enabled", false)
	v.SetDefault("radarr.url", "")
	v.SetDefault("radarr.api_key", "")

	// LLM defaults
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1/chat/completions")
	v.SetDefault("llm.model", "anthropic/claude-sonnet-4.5")
	v.SetDefault("llm.timeout", 120*time.Second)

	// Agent defaults
	v.SetDefault("agent.max_steps", 16)
	v.SetDefault("agent.wait_interval", 5*time.Second)
	v.SetDefault("agent.wait_timeout", 6*time.Hour)

	// Media defaults
	v.SetDefault("media.default", "music")
	v.SetDefault("media.music.category", "Music")
	v.SetDefault("media.music.save_path", "/data/Music")
	v.SetDefault("media.movies.category", "Movies")
	v.SetDefault("media.movies.save_path", "/data/Movies")

	// History defaults
	v.SetDefault("history.enabled", true)
	historyPath := "history.db"
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = filepath.Join(home, ".cratedigger", "history.db")
	}
	v.SetDefault("history.path", historyPath)

	// Safety defaults
	v.SetDefault("safety.dry_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// normalize trims user input and fills per-client gaps
func normalize(cfg *Config) {
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	// LOG_LEVEL=WARNING is accepted as warn
	if cfg.Logging.Level == "warning" {
		cfg.Logging.Level = "warn"
	}
	cfg.Media.Default = strings.ToLower(strings.TrimSpace(cfg.Media.Default))

	for i := range cfg.QBittorrent {
		qb := &cfg.QBittorrent[i]
		qb.Name = strings.TrimSpace(qb.Name)
		if qb.Name == "" {
			qb.Name = fmt.Sprintf("qbittorrent-%d", i+1)
		}
		qb.URL = NormalizeQBittorrentURL(qb.URL)
	}

	cfg.Plex.URL = strings.TrimRight(strings.TrimSpace(cfg.Plex.URL), "/")
	cfg.Plex.Token = strings.TrimSpace(cfg.Plex.Token)
	cfg.LLM.APIKey = strings.TrimSpace(cfg.LLM.APIKey)

	if cfg.Lidarr.URL != "" && cfg.Lidarr.APIKey != "" {
		cfg.Lidarr.Enabled = true
	}
	if cfg.Radarr.URL != "" && cfg.Radarr.APIKey != "" {
		cfg.Radarr.Enabled = true
	}
}

// NormalizeQBittorrentURL strips trailing slashes and the API suffix.
// Older deployments configured the full ".../api/v2" endpoint.
func NormalizeQBittorrentURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	u = strings.TrimSuffix(u, "/api/v2")
	return strings.TrimRight(u, "/")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	validEnvironments := map[string]bool{
		"development": true,
		"production":  true,
	}
	if !validEnvironments[cfg.Environment] {
		return fmt.Errorf("environment must be 'development' or 'production', got %q", cfg.Environment)
	}

	if len(cfg.QBittorrent) == 0 {
		return fmt.Errorf("at least one qbittorrent client is required")
	}
	seen := make(map[string]bool, len(cfg.QBittorrent))
	for _, qb := range cfg.QBittorrent {
		if qb.URL == "" {
			return fmt.Errorf("qbittorrent.url is required for client %s", qb.Name)
		}
		if seen[qb.Name] {
			return fmt.Errorf("duplicate qbittorrent client name: %s", qb.Name)
		}
		seen[qb.Name] = true
	}

	if cfg.Plex.URL == "" {
		return fmt.Errorf("plex.url is required")
	}
	if cfg.Plex.Token == "" {
		return fmt.Errorf("plex.token is required")
	}

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}

	if cfg.Lidarr.Enabled && (cfg.Lidarr.URL == "" || cfg.Lidarr.APIKey == "") {
		return fmt.Errorf("lidarr.url and lidarr.api_key are required when lidarr is enabled")
	}
	if cfg.Radarr.Enabled && (cfg.Radarr.URL == "" || cfg.Radarr.APIKey == "") {
		return fmt.Errorf("radarr.url and radarr.api_key are required when radarr is enabled")
	}

	if _, ok := cfg.Media.Kind(cfg.Media.Default); !ok {
		return fmt.Errorf("invalid media.default: %s (must be 'music' or 'movies')", cfg.Media.Default)
	}
	if cfg.Media.Music.Category == "" || cfg.Media.Movies.Category == "" {
		return fmt.Errorf("media categories must not be empty")
	}

	if cfg.Search.Limit < 0 {
		return fmt.Errorf("search.limit must not be negative")
	}
	if cfg.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent.max_steps must be positive")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
