package qbittorrent

import (
	"context"
	"errors"
	"testing"

	"github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Name: "empty"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "URL is required")
}

func TestNewClientLoginFailure(t *testing.T) {
	srv := newFakeSearchServer(t, nil).start()

	api := &mockTorrentAPI{loginErr: errors.New("bad credentials")}
	_, err := NewClient(context.Background(), Config{Name: "home", URL: srv.URL}, zerolog.Nop(), WithTorrentAPI(api))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to qBittorrent home")
}

func TestNewClientSearchLoginRejected(t *testing.T) {
	srv := newFakeSearchServer(t, nil).start()

	_, err := NewClient(context.Background(), Config{
		Name:     "home",
		URL:      srv.URL,
		Username: "admin",
		Password: "wrong",
	}, zerolog.Nop(), WithTorrentAPI(&mockTorrentAPI{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestAddTorrent(t *testing.T) {
	srv := newFakeSearchServer(t, nil).start()
	api := &mockTorrentAPI{}
	c := newTestClient(t, "home", srv.URL, api)

	err := c.AddTorrent(context.Background(), "magnet:?xt=urn:btih:abc", AddOptions{
		SavePath: "/data/Music",
		Category: "Music",
		Tags:     []string{"cratedigger", "run-1"},
	})
	require.NoError(t, err)

	require.Len(t, api.added, 1)
	assert.Equal(t, "magnet:?xt=urn:btih:abc", api.added[0].url)
	assert.Equal(t, map[string]string{
		"savepath": "/data/Music",
		"category": "Music",
		"tags":     "cratedigger,run-1",
	}, api.added[0].options)
}

func TestAddTorrentDryRun(t *testing.T) {
	srv := newFakeSearchServer(t, nil).start()
	api := &mockTorrentAPI{}
	c := newTestClient(t, "home", srv.URL, api, WithDryRun(true))

	require.NoError(t, c.AddTorrent(context.Background(), "magnet:?xt=urn:btih:abc", AddOptions{Category: "Music"}))
	assert.Empty(t, api.added)
}

func TestAddTorrentErrors(t *testing.T) {
	srv := newFakeSearchServer(t, nil).start()
	api := &mockTorrentAPI{addErr: errors.New("boom")}
	c := newTestClient(t, "home", srv.URL, api)

	err := c.AddTorrent(context.Background(), "magnet:?xt=urn:btih:abc", AddOptions{})
	assert.ErrorIs(t, err, ErrAddFailed)

	err = c.AddTorrent(context.Background(), "  ", AddOptions{})
	assert.ErrorIs(t, err, ErrAddFailed)
}

func TestTorrentsByTag(t *testing.T) {
	srv := newFakeSearchServer(t, nil).start()
	api := &mockTorrentAPI{torrents: []qbittorrent.Torrent{
		{
			Hash:         "abc",
			Name:         "Radiohead - OK Computer",
			SavePath:     "/data/Music",
			ContentPath:  "/data/Music/Radiohead - OK Computer",
			Progress:     1,
			Tags:         "cratedigger, run-1",
			AddedOn:      1700000000,
			CompletionOn: 1700000600,
		},
	}}
	c := newTestClient(t, "home", srv.URL, api)

	torrents, err := c.TorrentsByTag(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, torrents, 1)

	got := torrents[0]
	assert.Equal(t, "home", got.Client)
	assert.Equal(t, []string{"cratedigger", "run-1"}, got.Tags)
	assert.True(t, got.IsComplete())
	assert.Equal(t, "/data/Music/Radiohead - OK Computer", got.GetFullPath())
	assert.False(t, got.CompletionOn.IsZero())
}

func TestTorrentInfoFullPathFallback(t *testing.T) {
	info := &TorrentInfo{SavePath: "/data/Music", Name: "Album"}
	assert.Equal(t, "/data/Music/Album", info.GetFullPath())
}

func TestTorrentInfoContentDir(t *testing.T) {
	tests := []struct {
		name string
		info TorrentInfo
		want string
	}{
		{
			name: "dotted directory name",
			info: TorrentInfo{
				SavePath:    "/data/Movies",
				Name:        "Movie.2020.1080p.WEB.H264",
				ContentPath: "/data/Movies/Movie.2020.1080p.WEB.H264",
				Files:       []string{"Movie.2020.1080p.WEB.H264/movie.mkv", "Movie.2020.1080p.WEB.H264/movie.nfo"},
			},
			want: "/data/Movies/Movie.2020.1080p.WEB.H264",
		},
		{
			name: "single file in a folder",
			info: TorrentInfo{
				SavePath:    "/data/Movies",
				ContentPath: "/data/Movies/Heat (1995)",
				Files:       []string{"Heat (1995)/Heat.mkv"},
			},
			want: "/data/Movies/Heat (1995)",
		},
		{
			name: "single file",
			info: TorrentInfo{
				SavePath:    "/data/Movies",
				ContentPath: "/data/Movies/Heat.1995.1080p.mkv",
				Files:       []string{"Heat.1995.1080p.mkv"},
			},
			want: "/data/Movies",
		},
		{
			name: "files without subfolder",
			info: TorrentInfo{
				SavePath:    "/data/Music/Album",
				ContentPath: "/data/Music/Album",
			},
			want: "/data/Music/Album",
		},
		{
			name: "unknown layout scans parent",
			info: TorrentInfo{
				SavePath:    "/data/Music",
				ContentPath: "/data/Music/Artist - Album Vol.2",
			},
			want: "/data/Music",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.ContentDir())
		})
	}
}

func TestClientFiles(t *testing.T) {
	srv := newFakeSearchServer(t, nil).start()
	api := &mockTorrentAPI{files: map[string][]string{"a": {"Album/01.flac", "Album/02.flac"}}}
	c := newTestClient(t, "home", srv.URL, api)

	files, err := c.Files(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"Album/01.flac", "Album/02.flac"}, files)

	_, err = c.Files(context.Background(), "missing")
	assert.Error(t, err)
}

func TestAPIError(t *testing.T) {
	err := &APIError{Endpoint: "/api/v2/search/start", StatusCode: 409, Body: "too many searches"}
	assert.True(t, err.IsConflict())
	assert.False(t, err.IsForbidden())
	assert.Contains(t, err.Error(), "409")
}
