package qbittorrent

import (
	"path/filepath"
	"strings"
	"time"
)

// TorrentInfo contains information about a torrent
type TorrentInfo struct {
	Client       string
	Hash         string
	Name         string
	SavePath     string
	ContentPath  string
	State        string
	Size         int64
	Progress     float64
	Category     string
	Tags         []string
	AddedOn      time.Time
	CompletionOn time.Time
	// Files holds file paths relative to SavePath once the torrent completes.
	// Empty when the file list could not be fetched.
	Files []string
}

// IsComplete reports whether every piece has been downloaded
func (t *TorrentInfo) IsComplete() bool {
	return t.Progress >= 1
}

// GetFullPath returns the full path to the torrent content
func (t *TorrentInfo) GetFullPath() string {
	if t.ContentPath != "" {
		return t.ContentPath
	}
	return t.SavePath + "/" + t.Name
}

// ContentDir returns the directory holding the torrent content. A single
// file is stored directly in a directory shared with other downloads, so its
// parent is returned. Without a file list the parent is returned as well.
func (t *TorrentInfo) ContentDir() string {
	path := t.GetFullPath()
	if t.ContentPath != "" && filepath.Clean(t.ContentPath) == filepath.Clean(t.SavePath) {
		return path
	}
	if len(t.Files) > 1 || (len(t.Files) == 1 && strings.ContainsAny(t.Files[0], `/\`)) {
		return path
	}
	return filepath.Dir(path)
}

// SearchResult is a single hit returned by a qBittorrent search plugin
type SearchResult struct {
	Name           string `json:"fileName"`
	URL            string `json:"fileUrl"`
	Size           int64  `json:"fileSize"`
	Seeders        int    `json:"nbSeeders"`
	Leechers       int    `json:"nbLeechers"`
	SiteURL        string `json:"siteUrl"`
	DescriptionURL string `json:"descrLink"`
	Engine         string `json:"engineName,omitempty"`

	// Client is the name of the qBittorrent client that produced the result
	Client string `json:"-"`
	// InfoHash is set when URL is a magnet link
	InfoHash string `json:"-"`
}

// SizeMB returns the size in mebibytes, or -1 when the plugin did not report one
func (r SearchResult) SizeMB() float64 {
	if r.Size < 0 {
		return -1
	}
	return float64(r.Size) / 1024 / 1024
}

// AddOptions controls where and how a torrent is added
type AddOptions struct {
	SavePath string
	Category string
	Tags     []string
}

// NameMatch is the outcome of resolving a loosely typed name against known results
type NameMatch struct {
	Name         string
	Score        int
	ReverseMatch float64
	ExactMatch   bool
}

type searchStartResponse struct {
	ID int `json:"id"`
}

type searchStatus struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

type searchResultsResponse struct {
	Results []SearchResult `json:"results"`
	Status  string         `json:"status"`
	Total   int            `json:"total"`
}
