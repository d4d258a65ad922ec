package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Environment string              `mapstructure:"environment"`
	QBittorrent []QBittorrentConfig `mapstructure:"qbittorrent"`
	Search      SearchConfig        `mapstructure:"search"`
	Plex        PlexConfig          `mapstructure:"plex"`
	Lidarr      LidarrConfig        `mapstructure:"lidarr"`
	Radarr      RadarrConfig        `mapstructure:"radarr"`
	LLM         LLMConfig           `mapstructure:"llm"`
	Agent       AgentConfig         `mapstructure:"agent"`
	Media       MediaConfig         `mapstructure:"media"`
	History     HistoryConfig       `mapstructure:"history"`
	Safety      SafetyConfig        `mapstructure:"safety"`
	Logging     LoggingConfig       `mapstructure:"logging"`
}

// QBittorrentConfig holds the connection details of a single qBittorrent client
type QBittorrentConfig struct {
	Name     string `mapstructure:"name"`
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// DownloadPath overrides the media save path for torrents sent to this client
	DownloadPath string `mapstructure:"download_path"`
}

// SearchConfig controls search plugin queries
type SearchConfig struct {
	Plugins      string        `mapstructure:"plugins"`
	Category     string        `mapstructure:"category"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Limit        int           `mapstructure:"limit"`
	Filter       string        `mapstructure:"filter"`
}

// PlexConfig holds Plex Media Server connection details
type PlexConfig struct {
	URL        string `mapstructure:"url"`
	Token      string `mapstructure:"token"`
	ClientID   string `mapstructure:"client_id"`
	ClientName string `mapstructure:"client_name"`
}

// LidarrConfig holds Lidarr API connection details
type LidarrConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
}

// RadarrConfig holds Radarr API connection details
type RadarrConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
}

// LLMConfig holds the chat completion endpoint settings
type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AgentConfig tunes the tool-calling loop and the post-dispatch wait
type AgentConfig struct {
	MaxSteps     int           `mapstructure:"max_steps"`
	WaitInterval time.Duration `mapstructure:"wait_interval"`
	WaitTimeout  time.Duration `mapstructure:"wait_timeout"`
}

// MediaConfig maps the media kinds the agent can fetch to qBittorrent categories
type MediaConfig struct {
	Default string          `mapstructure:"default"`
	Music   MediaKindConfig `mapstructure:"music"`
	Movies  MediaKindConfig `mapstructure:"movies"`
}

// MediaKindConfig contains the dispatch settings of one media kind
type MediaKindConfig struct {
	Category string `mapstructure:"category"`
	SavePath string `mapstructure:"save_path"`
}

// HistoryConfig points at the dispatch ledger
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SafetyConfig contains safety-related settings
type SafetyConfig struct {
	DryRun bool `mapstructure:"dry_run"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// Kind returns the dispatch settings for the named media kind
func (m MediaConfig) Kind(name string) (MediaKindConfig, bool) {
	switch name {
	case "music":
		return m.Music, true
	case "movies":
		return m.Movies, true
	}
	return MediaKindConfig{}, false
}
