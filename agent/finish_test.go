package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/cratedigger/qbittorrent"
)

func sessionWithDispatches(dryRun bool, kinds ...string) *Session {
	s := NewSession("q", MediaMusic)
	media := testMedia()
	for i, kind := range kinds {
		results := testResults()
		r := results[i%len(results)]
		s.recordDispatch(Dispatch{Result: r, Media: media[kind], DryRun: dryRun})
	}
	return s
}

func TestFinishWithoutDispatches(t *testing.T) {
	waiter := &fakeWaiter{}
	scanner := &fakeScanner{}
	f := NewFinisher(waiter, scanner, testMedia(), 0, nopLogger())

	paths, err := f.Finish(context.Background(), NewSession("q", MediaMusic))
	require.NoError(t, err)
	assert.Nil(t, paths)
	assert.Zero(t, waiter.calls)

	paths, err = f.Finish(context.Background(), sessionWithDispatches(true, MediaMusic))
	require.NoError(t, err)
	assert.Nil(t, paths)
	assert.Zero(t, waiter.calls)
}

func TestFinishScansCompletedContent(t *testing.T) {
	waiter := &fakeWaiter{torrents: []*qbittorrent.TorrentInfo{
		{Name: okComputer, Category: "Music", SavePath: "/data/Music", ContentPath: "/data/Music/" + okComputer, Progress: 1,
			Files: []string{okComputer + "/01 Airbag.flac", okComputer + "/02 Paranoid Android.flac"}},
		{Name: "Heat.1995.1080p.mkv", Category: "Movies", SavePath: "/data/Movies", ContentPath: "/data/Movies/Heat.1995.1080p.mkv", Progress: 1,
			Files: []string{"Heat.1995.1080p.mkv"}},
		{Name: "Heat.1995.Extras.mkv", Category: "Movies", SavePath: "/data/Movies", Progress: 1},
		{Name: "Movie.2020.1080p.WEB.H264", Category: "Movies", SavePath: "/data/Movies", ContentPath: "/data/Movies/Movie.2020.1080p.WEB.H264", Progress: 1,
			Files: []string{"Movie.2020.1080p.WEB.H264/movie.mkv"}},
	}}
	scanner := &fakeScanner{}
	f := NewFinisher(waiter, scanner, testMedia(), 0, nopLogger())

	session := sessionWithDispatches(false, MediaMusic, MediaMovies, MediaMovies, MediaMovies)
	paths, err := f.Finish(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, session.Tag, waiter.tag)
	assert.Equal(t, 4, waiter.expected)
	assert.Equal(t, []string{
		"/data/Music/" + okComputer,
		"/data/Movies/Heat.1995.1080p.mkv",
		"/data/Movies/Heat.1995.Extras.mkv",
		"/data/Movies/Movie.2020.1080p.WEB.H264",
	}, paths)

	// single-file movies share their parent directory
	assert.Equal(t, []scanCall{
		{sectionType: "artist", path: "/data/Music/" + okComputer},
		{sectionType: "movie", path: "/data/Movies"},
		{sectionType: "movie", path: "/data/Movies/Movie.2020.1080p.WEB.H264"},
	}, scanner.scans)
}

func TestFinishUnknownCategoryFallsBackToDispatchedKind(t *testing.T) {
	waiter := &fakeWaiter{torrents: []*qbittorrent.TorrentInfo{
		{Name: "Heat 1995", Category: "", ContentPath: "/downloads/Heat 1995", Progress: 1},
	}}
	scanner := &fakeScanner{}
	f := NewFinisher(waiter, scanner, testMedia(), 0, nopLogger())

	_, err := f.Finish(context.Background(), sessionWithDispatches(false, MediaMovies))
	require.NoError(t, err)
	require.Len(t, scanner.scans, 1)
	assert.Equal(t, "movie", scanner.scans[0].sectionType)
}

func TestFinishScanFailureIsNotFatal(t *testing.T) {
	waiter := &fakeWaiter{torrents: []*qbittorrent.TorrentInfo{
		{Name: "a", Category: "Music", ContentPath: "/data/Music/a", Progress: 1, Files: []string{"a/1.flac", "a/2.flac"}},
		{Name: "b", Category: "Music", ContentPath: "/data/Music/b", Progress: 1, Files: []string{"b/1.flac", "b/2.flac"}},
	}}
	scanner := &fakeScanner{fail: map[string]bool{"/data/Music/a": true}}
	f := NewFinisher(waiter, scanner, testMedia(), 0, nopLogger())

	paths, err := f.Finish(context.Background(), sessionWithDispatches(false, MediaMusic, MediaMusic))
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	assert.Len(t, scanner.scans, 2)
}

func TestFinishWaitError(t *testing.T) {
	waiter := &fakeWaiter{err: context.DeadlineExceeded}
	f := NewFinisher(waiter, &fakeScanner{}, testMedia(), 0, nopLogger())

	_, err := f.Finish(context.Background(), sessionWithDispatches(false, MediaMusic))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestFinishTimeoutScansCompleted(t *testing.T) {
	waiter := &fakeWaiter{
		torrents: []*qbittorrent.TorrentInfo{
			{Name: okComputer, Category: "Music", ContentPath: "/data/Music/" + okComputer, Progress: 1,
				Files: []string{okComputer + "/01 Airbag.flac", okComputer + "/02 Paranoid Android.flac"}},
		},
		err: context.DeadlineExceeded,
	}
	scanner := &fakeScanner{}
	f := NewFinisher(waiter, scanner, testMedia(), 0, nopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths, err := f.Finish(ctx, sessionWithDispatches(false, MediaMusic, MediaMusic))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"/data/Music/" + okComputer}, paths)
	assert.Equal(t, []scanCall{{sectionType: "artist", path: "/data/Music/" + okComputer}}, scanner.scans)
}
