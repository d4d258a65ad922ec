package plex

import (
	"strconv"
	"strings"
)

// ContentType is the numeric metadata type used by the Plex library API
type ContentType int

// Plex metadata types
const (
	TypeMovie          ContentType = 1
	TypeShow           ContentType = 2
	TypeSeason         ContentType = 3
	TypeEpisode        ContentType = 4
	TypeTrailer        ContentType = 5
	TypePerson         ContentType = 7
	TypeArtist         ContentType = 8
	TypeAlbum          ContentType = 9
	TypeTrack          ContentType = 10
	TypeClip           ContentType = 12
	TypePhoto          ContentType = 13
	TypePhotoAlbum     ContentType = 14
	TypePlaylist       ContentType = 15
	TypePlaylistFolder ContentType = 16
)

var contentTypeNames = map[ContentType]string{
	TypeMovie:          "movie",
	TypeShow:           "show",
	TypeSeason:         "season",
	TypeEpisode:        "episode",
	TypeTrailer:        "trailer",
	TypePerson:         "person",
	TypeArtist:         "artist",
	TypeAlbum:          "album",
	TypeTrack:          "track",
	TypeClip:           "clip",
	TypePhoto:          "photo",
	TypePhotoAlbum:     "photoalbum",
	TypePlaylist:       "playlist",
	TypePlaylistFolder: "playlistfolder",
}

// String returns the Plex name of the type
func (t ContentType) String() string {
	if name, ok := contentTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseContentType returns the type for a Plex type name. "song" is accepted for track.
func ParseContentType(name string) (ContentType, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "song" {
		return TypeTrack, true
	}
	for t, n := range contentTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// Query returns the value used for the type query parameter
func (t ContentType) Query() string {
	return strconv.Itoa(int(t))
}

// Metadata is a single library item
type Metadata struct {
	RatingKey        string `json:"ratingKey"`
	Key              string `json:"key"`
	Title            string `json:"title"`
	ParentTitle      string `json:"parentTitle,omitempty"`
	GrandparentTitle string `json:"grandparentTitle,omitempty"`
	Type             string `json:"type"`
	Year             int    `json:"year,omitempty"`
	LibrarySectionID int    `json:"librarySectionID,omitempty"`
}

// Artist returns the artist of an album or track
func (m Metadata) Artist() string {
	switch m.Type {
	case "track":
		return m.GrandparentTitle
	case "album":
		return m.ParentTitle
	}
	return ""
}

// Section is a library section such as "Music" or "Movies"
type Section struct {
	Key       string
	Title     string
	Type      string
	Locations []string
}

// Contains reports whether path lies inside one of the section's locations
func (s Section) Contains(path string) bool {
	for _, loc := range s.Locations {
		loc = strings.TrimRight(loc, "/")
		if loc == "" {
			continue
		}
		if path == loc || strings.HasPrefix(path, loc+"/") {
			return true
		}
	}
	return false
}

type mediaContainerResponse struct {
	MediaContainer struct {
		Size     int        `json:"size"`
		Metadata []Metadata `json:"Metadata"`
	} `json:"MediaContainer"`
}

type sectionsResponse struct {
	MediaContainer struct {
		Directory []struct {
			Key      string `json:"key"`
			Title    string `json:"title"`
			Type     string `json:"type"`
			Location []struct {
				Path string `json:"path"`
			} `json:"Location"`
		} `json:"Directory"`
	} `json:"MediaContainer"`
}

type identityResponse struct {
	MediaContainer struct {
		MachineIdentifier string `json:"machineIdentifier"`
		Version           string `json:"version"`
	} `json:"MediaContainer"`
}

// Identity describes the connected server
type Identity struct {
	MachineIdentifier string
	Version           string
}
