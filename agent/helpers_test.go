package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/cratedigger/history"
	"github.com/s0up4200/cratedigger/llm"
	"github.com/s0up4200/cratedigger/plex"
	"github.com/s0up4200/cratedigger/qbittorrent"
)

const (
	okComputer       = "Radiohead - OK Computer (1997) [FLAC]"
	okComputerDeluxe = "Radiohead - OK Computer OKNOTOK 1997 2017 (2017) [FLAC 24bit]"
	okComputerHash   = "0123456789abcdef0123456789abcdef01234567"
)

func testMedia() MediaKinds {
	return MediaKinds{
		MediaMusic:  {Name: MediaMusic, Category: "Music", SavePath: "/data/Music", SectionType: "artist"},
		MediaMovies: {Name: MediaMovies, Category: "Movies", SavePath: "/data/Movies", SectionType: "movie"},
	}
}

func testResults() []qbittorrent.SearchResult {
	return []qbittorrent.SearchResult{
		{Name: okComputer, URL: "magnet:?xt=urn:btih:" + okComputerHash, Size: 450 << 20, Seeders: 42, Client: "home", InfoHash: okComputerHash},
		{Name: okComputerDeluxe, URL: "https://tracker.example/dl/2", Size: 2 << 30, Seeders: 7, Client: "seedbox"},
		{Name: "Radiohead - OK Computer (1997) [MP3 320]", URL: "https://tracker.example/dl/3", Size: 120 << 20, Seeders: 90, Client: "home"},
	}
}

func rawArgs(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// scriptedCompleter replays canned replies and records every transcript it sees
type scriptedCompleter struct {
	mu       sync.Mutex
	replies  []llm.Message
	err      error
	requests [][]llm.Message
	tools    []llm.Tool
}

func (c *scriptedCompleter) Complete(_ context.Context, messages []llm.Message, tools []llm.Tool) (llm.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, append([]llm.Message(nil), messages...))
	c.tools = tools
	if c.err != nil {
		return llm.Message{}, c.err
	}
	if len(c.replies) == 0 {
		return llm.Message{Role: llm.RoleAssistant, Content: "done"}, nil
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

func toolCall(id, name, args string) llm.Message {
	return llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{
			ID:       id,
			Type:     "function",
			Function: llm.FunctionCall{Name: name, Arguments: args},
		}},
	}
}

type fakeSearcher struct {
	results []qbittorrent.SearchResult
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, pattern string) ([]qbittorrent.SearchResult, error) {
	f.queries = append(f.queries, pattern)
	return f.results, f.err
}

type addedTorrent struct {
	result qbittorrent.SearchResult
	opts   qbittorrent.AddOptions
}

type fakeAdder struct {
	err   error
	added []addedTorrent
}

func (f *fakeAdder) AddTorrent(_ context.Context, result qbittorrent.SearchResult, opts qbittorrent.AddOptions) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, addedTorrent{result: result, opts: opts})
	return nil
}

type fakeLedger struct {
	records   []history.Record
	known     map[string]bool
	recordErr error
}

func (f *fakeLedger) Record(_ context.Context, r *history.Record) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.records = append(f.records, *r)
	return nil
}

func (f *fakeLedger) Search(_ context.Context, term string, _ int) ([]history.Record, error) {
	var out []history.Record
	for _, r := range f.records {
		if strings.Contains(strings.ToLower(r.Name), strings.ToLower(term)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) HasInfoHash(_ context.Context, hash string) (bool, error) {
	return f.known[strings.ToLower(hash)], nil
}

type fakeLibrary struct {
	albums  []plex.Metadata
	tracks  []plex.Metadata
	movies  []plex.Metadata
	matches []plex.Metadata
	err     error

	lastArtist string
	lastTitle  string
	lastYear   int
	lastMatch  plex.MatchQuery
}

func (f *fakeLibrary) FindAlbums(_ context.Context, artist, title string) ([]plex.Metadata, error) {
	f.lastArtist, f.lastTitle = artist, title
	return f.albums, f.err
}

func (f *fakeLibrary) FindTracks(_ context.Context, artist, title, _ string) ([]plex.Metadata, error) {
	f.lastArtist, f.lastTitle = artist, title
	return f.tracks, f.err
}

func (f *fakeLibrary) FindMovies(_ context.Context, title string, year int) ([]plex.Metadata, error) {
	f.lastTitle, f.lastYear = title, year
	return f.movies, f.err
}

func (f *fakeLibrary) Matches(_ context.Context, q plex.MatchQuery) ([]plex.Metadata, error) {
	f.lastMatch = q
	return f.matches, f.err
}

type fakeWaiter struct {
	torrents []*qbittorrent.TorrentInfo
	err      error

	calls    int
	tag      string
	expected int
}

func (f *fakeWaiter) WaitForCompletion(_ context.Context, tag string, expected int, _ time.Duration) ([]*qbittorrent.TorrentInfo, error) {
	f.calls++
	f.tag = tag
	f.expected = expected
	return f.torrents, f.err
}

type scanCall struct {
	sectionType string
	path        string
}

type fakeScanner struct {
	scans []scanCall
	fail  map[string]bool
}

func (f *fakeScanner) ScanPath(_ context.Context, sectionType, path string) error {
	f.scans = append(f.scans, scanCall{sectionType: sectionType, path: path})
	if f.fail[path] {
		return errors.New("scan refused")
	}
	return nil
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}
