package lidarr

import (
	"context"

	"golift.io/starr/lidarr"
)

// LidarrAPI defines the Lidarr API operations used for library checks
type LidarrAPI interface {
	GetAlbumContext(ctx context.Context, mbID string) ([]*lidarr.Album, error)
	GetArtistContext(ctx context.Context, mbID string) ([]*lidarr.Artist, error)

	// Health check
	Ping() error
}

var _ LidarrAPI = (*lidarr.Lidarr)(nil)
