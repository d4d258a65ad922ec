package agent

import (
	"context"
	"time"

	"github.com/s0up4200/cratedigger/history"
	"github.com/s0up4200/cratedigger/lidarr"
	"github.com/s0up4200/cratedigger/llm"
	"github.com/s0up4200/cratedigger/qbittorrent"
	"github.com/s0up4200/cratedigger/radarr"
)

// Completer produces the next assistant message for a transcript
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, tools []llm.Tool) (llm.Message, error)
}

// TorrentSearcher runs search plugin queries
type TorrentSearcher interface {
	Search(ctx context.Context, pattern string) ([]qbittorrent.SearchResult, error)
}

// TorrentAdder sends a search result to the client that found it
type TorrentAdder interface {
	AddTorrent(ctx context.Context, result qbittorrent.SearchResult, opts qbittorrent.AddOptions) error
}

// Ledger records dispatched torrents across runs
type Ledger interface {
	Record(ctx context.Context, r *history.Record) error
	Search(ctx context.Context, term string, limit int) ([]history.Record, error)
	HasInfoHash(ctx context.Context, hash string) (bool, error)
}

// AlbumTracker reports albums a Lidarr instance already manages
type AlbumTracker interface {
	FindAlbums(ctx context.Context, artist, title string) ([]lidarr.AlbumStatus, error)
}

// MovieTracker reports movies a Radarr instance already manages
type MovieTracker interface {
	FindMovies(ctx context.Context, title string, year int) ([]radarr.MovieStatus, error)
}

// CompletionWaiter blocks until tagged torrents finish downloading
type CompletionWaiter interface {
	WaitForCompletion(ctx context.Context, tag string, expected int, interval time.Duration) ([]*qbittorrent.TorrentInfo, error)
}

var (
	_ Completer        = (*llm.Client)(nil)
	_ TorrentSearcher  = (*qbittorrent.Pool)(nil)
	_ TorrentAdder     = (*qbittorrent.Pool)(nil)
	_ CompletionWaiter = (*qbittorrent.Pool)(nil)
	_ Ledger           = (*history.Store)(nil)
	_ AlbumTracker     = (*lidarr.Client)(nil)
	_ MovieTracker     = (*radarr.Client)(nil)
)
