package qbittorrent

import (
	"context"

	"github.com/autobrr/go-qbittorrent"
)

// TorrentAPI is the subset of the go-qbittorrent client used here
type TorrentAPI interface {
	LoginCtx(ctx context.Context) error
	GetAppVersionCtx(ctx context.Context) (string, error)
	AddTorrentFromUrlCtx(ctx context.Context, url string, options map[string]string) error
	GetTorrentsCtx(ctx context.Context, o qbittorrent.TorrentFilterOptions) ([]qbittorrent.Torrent, error)
	GetFilesInformationCtx(ctx context.Context, hash string) (*qbittorrent.TorrentFiles, error)
}

var _ TorrentAPI = (*qbittorrent.Client)(nil)
