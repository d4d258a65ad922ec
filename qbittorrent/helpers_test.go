package qbittorrent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// mockTorrentAPI implements TorrentAPI for testing
type mockTorrentAPI struct {
	mu       sync.Mutex
	loginErr error
	addErr   error
	version  string
	added    []addCall
	torrents []qbittorrent.Torrent
	// torrentsFunc overrides torrents when set
	torrentsFunc func(call int) ([]qbittorrent.Torrent, error)
	calls        int
	// files maps a torrent hash to its file names
	files map[string][]string
}

type addCall struct {
	url     string
	options map[string]string
}

func (m *mockTorrentAPI) LoginCtx(context.Context) error {
	return m.loginErr
}

func (m *mockTorrentAPI) GetAppVersionCtx(context.Context) (string, error) {
	return m.version, nil
}

func (m *mockTorrentAPI) AddTorrentFromUrlCtx(_ context.Context, url string, options map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.added = append(m.added, addCall{url: url, options: options})
	return nil
}

func (m *mockTorrentAPI) GetTorrentsCtx(_ context.Context, o qbittorrent.TorrentFilterOptions) ([]qbittorrent.Torrent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.torrentsFunc != nil {
		return m.torrentsFunc(m.calls)
	}
	return m.torrents, nil
}

func (m *mockTorrentAPI) GetFilesInformationCtx(_ context.Context, hash string) (*qbittorrent.TorrentFiles, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names, ok := m.files[hash]
	if !ok {
		return nil, errors.New("torrent not found")
	}
	files := make(qbittorrent.TorrentFiles, len(names))
	for i, name := range names {
		files[i].Index = i
		files[i].Name = name
	}
	return &files, nil
}

// fakeSearchServer emulates the qBittorrent auth and search endpoints
type fakeSearchServer struct {
	t *testing.T

	mu sync.Mutex
	// runningPolls is how many status polls report Running before Stopped
	runningPolls int
	// neverStops keeps the search Running forever
	neverStops bool
	results    []SearchResult
	password   string
	// expireOnce answers the next search request with 403
	expireOnce bool
	// conflicts is how many search starts are refused with 409
	conflicts int
	// stopFails answers search/stop with 500
	stopFails bool

	logins   int
	polls    int
	deleted  bool
	stopped  bool
	patterns []string
	limits   []string
}

func newFakeSearchServer(t *testing.T, results []SearchResult) *fakeSearchServer {
	return &fakeSearchServer{t: t, results: results, password: "secret"}
}

func (f *fakeSearchServer) start() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logins++
		f.mu.Unlock()
		if r.FormValue("password") != f.password {
			_, _ = w.Write([]byte("Fails."))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "session", Path: "/"})
		_, _ = w.Write([]byte("Ok."))
	})

	mux.HandleFunc("/api/v2/search/start", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.patterns = append(f.patterns, r.FormValue("pattern"))
		refuse := f.conflicts > 0
		if refuse {
			f.conflicts--
		}
		f.mu.Unlock()
		if refuse {
			http.Error(w, "too many searches", http.StatusConflict)
			return
		}
		writeJSON(w, searchStartResponse{ID: 7})
	}))

	mux.HandleFunc("/api/v2/search/status", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.polls++
		status := "Stopped"
		if f.neverStops || f.polls <= f.runningPolls {
			status = "Running"
		}
		f.mu.Unlock()
		writeJSON(w, []searchStatus{{ID: 7, Status: status, Total: len(f.results)}})
	}))

	mux.HandleFunc("/api/v2/search/results", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.limits = append(f.limits, r.FormValue("limit"))
		f.mu.Unlock()
		writeJSON(w, searchResultsResponse{Results: f.results, Status: "Stopped", Total: len(f.results)})
	}))

	mux.HandleFunc("/api/v2/search/stop", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.stopped = true
		fail := f.stopFails
		f.mu.Unlock()
		if fail {
			http.Error(w, "stop failed", http.StatusInternalServerError)
		}
	}))

	mux.HandleFunc("/api/v2/search/delete", f.authed(func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("id") != strconv.Itoa(7) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.mu.Lock()
		f.deleted = true
		f.mu.Unlock()
	}))

	srv := httptest.NewServer(mux)
	f.t.Cleanup(srv.Close)
	return srv
}

func (f *fakeSearchServer) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		expire := f.expireOnce
		f.expireOnce = false
		f.mu.Unlock()

		if _, err := r.Cookie("SID"); err != nil || expire {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("Forbidden"))
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, name, url string, api TorrentAPI, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithTorrentAPI(api),
		WithPollInterval(time.Millisecond),
		WithSearchTimeout(2 * time.Second),
	}, opts...)

	c, err := NewClient(context.Background(), Config{
		Name:     name,
		URL:      url,
		Username: "admin",
		Password: "secret",
	}, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return c
}
