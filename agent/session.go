package agent

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/s0up4200/cratedigger/qbittorrent"
)

// tagPrefix marks every torrent added by cratedigger
const tagPrefix = "cratedigger"

// Dispatch is a search result handed to qBittorrent during a session
type Dispatch struct {
	Result qbittorrent.SearchResult
	Media  MediaKind
	DryRun bool
}

// Session is the state shared by the tools of a single run
type Session struct {
	Query        string
	Tag          string
	DefaultMedia string

	mu         sync.Mutex
	known      map[string]qbittorrent.SearchResult
	order      []string
	dispatched map[string]bool
	dispatches []Dispatch
}

// NewSession creates a session with a fresh tag
func NewSession(query, defaultMedia string) *Session {
	return &Session{
		Query:        query,
		Tag:          tagPrefix + "-" + uuid.NewString(),
		DefaultMedia: defaultMedia,
		known:        make(map[string]qbittorrent.SearchResult),
		dispatched:   make(map[string]bool),
	}
}

// Tags returns the qBittorrent tags applied to torrents added in the session
func (s *Session) Tags() []string {
	return []string{tagPrefix, s.Tag}
}

// Remember stores search results so later tools can refer to them by name.
// A later result with the same name replaces the earlier one.
func (s *Session) Remember(results []qbittorrent.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range results {
		if _, ok := s.known[r.Name]; !ok {
			s.order = append(s.order, r.Name)
		}
		s.known[r.Name] = r
	}
}

// Resolve finds the remembered result that best matches a loosely typed name
func (s *Session) Resolve(name string) (qbittorrent.SearchResult, qbittorrent.NameMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok := qbittorrent.MatchName(name, s.order)
	if !ok || match.Score < qbittorrent.MinMatchScore {
		return qbittorrent.SearchResult{}, match, fmt.Errorf("%w: %q", ErrUnknownResult, name)
	}
	return s.known[match.Name], match, nil
}

// reserve marks a result as dispatched. It fails when the result was already
// reserved in this session.
func (s *Session) reserve(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dispatched[name] {
		return fmt.Errorf("%w: %s", ErrAlreadyDispatched, name)
	}
	s.dispatched[name] = true
	return nil
}

func (s *Session) release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dispatched, name)
}

func (s *Session) recordDispatch(d Dispatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatches = append(s.dispatches, d)
}

// Dispatches returns the torrents added during the session
func (s *Session) Dispatches() []Dispatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Dispatch(nil), s.dispatches...)
}

// PendingDownloads counts the dispatches that were really sent to qBittorrent
func (s *Session) PendingDownloads() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	for _, d := range s.dispatches {
		if !d.DryRun {
			n++
		}
	}
	return n
}

// MediaKinds returns the distinct kinds dispatched, in first-use order
func (s *Session) MediaKinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	var kinds []string
	for _, d := range s.dispatches {
		if !seen[d.Media.Name] {
			seen[d.Media.Name] = true
			kinds = append(kinds, d.Media.Name)
		}
	}
	return kinds
}
