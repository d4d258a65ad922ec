package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/cratedigger/qbittorrent"
)

func TestNewSession(t *testing.T) {
	a := NewSession("ok computer", MediaMusic)
	b := NewSession("ok computer", MediaMusic)

	assert.True(t, strings.HasPrefix(a.Tag, "cratedigger-"))
	assert.NotEqual(t, a.Tag, b.Tag)
	assert.Equal(t, []string{"cratedigger", a.Tag}, a.Tags())
}

func TestSessionRememberKeepsOrder(t *testing.T) {
	s := NewSession("q", MediaMusic)
	results := testResults()

	s.Remember(results[:2])
	updated := results[0]
	updated.Seeders = 1
	s.Remember([]qbittorrent.SearchResult{results[2], updated})

	require.Len(t, s.order, 3)
	assert.Equal(t, okComputer, s.order[0])
	assert.Equal(t, okComputerDeluxe, s.order[1])
	assert.Equal(t, 1, s.known[okComputer].Seeders)
}

func TestSessionResolve(t *testing.T) {
	s := NewSession("q", MediaMusic)
	s.Remember(testResults())

	tests := []struct {
		name    string
		request string
		want    string
		wantErr bool
	}{
		{name: "exact name", request: okComputer, want: okComputer},
		{name: "loose name prefers closest", request: "radiohead ok computer", want: okComputer},
		{name: "edition words", request: "OK Computer OKNOTOK 2017", want: okComputerDeluxe},
		{name: "format words", request: "Radiohead OK Computer MP3", want: "Radiohead - OK Computer (1997) [MP3 320]"},
		{name: "unrelated", request: "Portishead Dummy", wantErr: true},
		{name: "empty", request: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, match, err := s.Resolve(tt.request)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownResult)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Name)
			assert.GreaterOrEqual(t, match.Score, qbittorrent.MinMatchScore)
		})
	}
}

func TestSessionResolveWithoutResults(t *testing.T) {
	s := NewSession("q", MediaMusic)
	_, _, err := s.Resolve(okComputer)
	assert.ErrorIs(t, err, ErrUnknownResult)
}

func TestSessionReserve(t *testing.T) {
	s := NewSession("q", MediaMusic)

	require.NoError(t, s.reserve(okComputer))
	assert.ErrorIs(t, s.reserve(okComputer), ErrAlreadyDispatched)

	s.release(okComputer)
	assert.NoError(t, s.reserve(okComputer))
}

func TestSessionDispatchTracking(t *testing.T) {
	s := NewSession("q", MediaMusic)
	media := testMedia()
	results := testResults()

	s.recordDispatch(Dispatch{Result: results[0], Media: media[MediaMusic]})
	s.recordDispatch(Dispatch{Result: results[1], Media: media[MediaMovies], DryRun: true})
	s.recordDispatch(Dispatch{Result: results[2], Media: media[MediaMusic]})

	assert.Len(t, s.Dispatches(), 3)
	assert.Equal(t, 2, s.PendingDownloads())
	assert.Equal(t, []string{MediaMusic, MediaMovies}, s.MediaKinds())
}

func TestMediaKindsLookup(t *testing.T) {
	media := testMedia()

	kind, err := media.Lookup("", MediaMusic)
	require.NoError(t, err)
	assert.Equal(t, "Music", kind.Category)

	kind, err = media.Lookup(" Movie ", MediaMusic)
	require.NoError(t, err)
	assert.Equal(t, "Movies", kind.Category)

	kind, err = media.Lookup("album", MediaMovies)
	require.NoError(t, err)
	assert.Equal(t, MediaMusic, kind.Name)

	_, err = media.Lookup("books", MediaMusic)
	assert.ErrorIs(t, err, ErrUnknownMedia)

	kind, ok := media.ByCategory("movies")
	require.True(t, ok)
	assert.Equal(t, "movie", kind.SectionType)

	assert.Equal(t, []string{MediaMovies, MediaMusic}, media.Names())
}
