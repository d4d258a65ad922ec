package agent

import (
	"fmt"
	"sort"
	"strings"
)

// Media kinds understood by the tools
const (
	MediaMusic  = "music"
	MediaMovies = "movies"
)

// MediaKind carries the dispatch settings of one kind of content
type MediaKind struct {
	Name     string
	Category string
	SavePath string
	// SectionType is the Plex section type scanned once downloads finish
	SectionType string
}

// MediaKinds maps kind names to their dispatch settings
type MediaKinds map[string]MediaKind

// Lookup resolves a kind name, falling back to fallback when name is empty
func (m MediaKinds) Lookup(name, fallback string) (MediaKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = fallback
	}
	// Models often say "movie" or "album"
	switch name {
	case "movie", "film", "films":
		name = MediaMovies
	case "album", "albums", "song", "songs":
		name = MediaMusic
	}
	kind, ok := m[name]
	if !ok {
		return MediaKind{}, fmt.Errorf("%w: %q", ErrUnknownMedia, name)
	}
	return kind, nil
}

// ByCategory finds the kind that uses a qBittorrent category
func (m MediaKinds) ByCategory(category string) (MediaKind, bool) {
	for _, kind := range m {
		if strings.EqualFold(kind.Category, category) {
			return kind, true
		}
	}
	return MediaKind{}, false
}

// Names returns the configured kind names in sorted order
func (m MediaKinds) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
