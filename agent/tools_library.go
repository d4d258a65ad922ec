package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/s0up4200/cratedigger/llm"
	"github.com/s0up4200/cratedigger/plex"
)

const noAlbumsReply = "The User does not have any albums that match the query."

// AlbumTool checks the Plex library for albums
type AlbumTool struct {
	library plex.Library
}

// NewAlbumTool creates the check_for_album tool
func NewAlbumTool(library plex.Library) *AlbumTool {
	return &AlbumTool{library: library}
}

// Definition implements Tool
func (t *AlbumTool) Definition() llm.Tool {
	return llm.NewTool(
		"check_for_album",
		"Check whether the user already has an album by an artist. Leave out the title to list every album by the artist. "+
			"Matching is exact, so also try aliases and alternative spellings when that makes sense.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"artist": {"type": "string"},
				"title": {"type": "string", "description": "Album title, optional"}
			},
			"required": ["artist"]
		}`),
	)
}

// Call implements Tool
func (t *AlbumTool) Call(ctx context.Context, _ *Session, args json.RawMessage) (string, error) {
	var params struct {
		Artist string `json:"artist"`
		Title  string `json:"title"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(params.Artist) == "" {
		return "", fmt.Errorf("artist is required")
	}

	albums, err := t.library.FindAlbums(ctx, params.Artist, params.Title)
	if err != nil {
		return "", err
	}
	if len(albums) == 0 {
		return noAlbumsReply, nil
	}

	lines := make([]string, 0, len(albums))
	for _, a := range albums {
		lines = append(lines, fmt.Sprintf("%s by %s", a.Title, a.ParentTitle))
	}
	return "The User already has the following albums:\n" + strings.Join(lines, "\n"), nil
}

// SongTool looks up the library key of a track
type SongTool struct {
	library plex.Library
}

// NewSongTool creates the get_song_id tool
func NewSongTool(library plex.Library) *SongTool {
	return &SongTool{library: library}
}

// Definition implements Tool
func (t *SongTool) Definition() llm.Tool {
	return llm.NewTool(
		"get_song_id",
		"Get the library id of a song from its artist and title. Returns a message when the user does not have the song.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"artist": {"type": "string"},
				"title": {"type": "string"},
				"album": {"type": "string", "description": "Album title, optional"}
			},
			"required": ["artist", "title"]
		}`),
	)
}

// Call implements Tool
func (t *SongTool) Call(ctx context.Context, _ *Session, args json.RawMessage) (string, error) {
	var params struct {
		Artist string `json:"artist"`
		Title  string `json:"title"`
		Album  string `json:"album"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(params.Title) == "" {
		return "", fmt.Errorf("title is required")
	}

	tracks, err := t.library.FindTracks(ctx, params.Artist, params.Title, params.Album)
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		return "The User does not have any songs that match the query.", nil
	}
	return tracks[0].Key, nil
}

// MovieTool checks the Plex library for movies
type MovieTool struct {
	library plex.Library
}

// NewMovieTool creates the check_for_movie tool
func NewMovieTool(library plex.Library) *MovieTool {
	return &MovieTool{library: library}
}

// Definition implements Tool
func (t *MovieTool) Definition() llm.Tool {
	return llm.NewTool(
		"check_for_movie",
		"Check whether the user already has a movie. The year narrows the match when several movies share a title.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {"type": "string"},
				"year": {"type": "integer", "description": "Release year, optional"}
			},
			"required": ["title"]
		}`),
	)
}

// Call implements Tool
func (t *MovieTool) Call(ctx context.Context, _ *Session, args json.RawMessage) (string, error) {
	var params struct {
		Title string `json:"title"`
		Year  int    `json:"year"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(params.Title) == "" {
		return "", fmt.Errorf("title is required")
	}

	movies, err := t.library.FindMovies(ctx, params.Title, params.Year)
	if err != nil {
		return "", err
	}
	if len(movies) == 0 {
		// exact title filters miss punctuation and casing differences
		movies, err = t.library.Matches(ctx, plex.MatchQuery{Title: params.Title, Type: "movie", Year: params.Year})
		if err != nil {
			return "", err
		}
	}
	if len(movies) == 0 {
		return "The User does not have any movies that match the query.", nil
	}

	lines := make([]string, 0, len(movies))
	for _, m := range movies {
		lines = append(lines, withYear(m.Title, m.Year))
	}
	return "The User already has the following movies:\n" + strings.Join(lines, "\n"), nil
}

// LidarrTool checks which albums Lidarr already manages
type LidarrTool struct {
	tracker AlbumTracker
}

// NewLidarrTool creates the check_lidarr tool
func NewLidarrTool(tracker AlbumTracker) *LidarrTool {
	return &LidarrTool{tracker: tracker}
}

// Definition implements Tool
func (t *LidarrTool) Definition() llm.Tool {
	return llm.NewTool(
		"check_lidarr",
		"Check whether Lidarr already tracks an album. Monitored albums will be downloaded by Lidarr and should not be added again.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"artist": {"type": "string"},
				"title": {"type": "string", "description": "Album title, optional"}
			},
			"required": ["artist"]
		}`),
	)
}

// Call implements Tool
func (t *LidarrTool) Call(ctx context.Context, _ *Session, args json.RawMessage) (string, error) {
	var params struct {
		Artist string `json:"artist"`
		Title  string `json:"title"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(params.Artist) == "" {
		return "", fmt.Errorf("artist is required")
	}

	albums, err := t.tracker.FindAlbums(ctx, params.Artist, params.Title)
	if err != nil {
		return "", err
	}
	if len(albums) == 0 {
		return "Lidarr does not track any albums that match the query.", nil
	}

	lines := make([]string, 0, len(albums))
	for _, a := range albums {
		lines = append(lines, fmt.Sprintf("%s by %s (%s)", a.Title, a.Artist, monitoredLabel(a.Monitored)))
	}
	return "Lidarr tracks the following albums:\n" + strings.Join(lines, "\n"), nil
}

// RadarrTool checks which movies Radarr already manages
type RadarrTool struct {
	tracker MovieTracker
}

// NewRadarrTool creates the check_radarr tool
func NewRadarrTool(tracker MovieTracker) *RadarrTool {
	return &RadarrTool{tracker: tracker}
}

// Definition implements Tool
func (t *RadarrTool) Definition() llm.Tool {
	return llm.NewTool(
		"check_radarr",
		"Check whether Radarr already tracks a movie. Monitored movies will be downloaded by Radarr and should not be added again.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {"type": "string"},
				"year": {"type": "integer", "description": "Release year, optional"}
			},
			"required": ["title"]
		}`),
	)
}

// Call implements Tool
func (t *RadarrTool) Call(ctx context.Context, _ *Session, args json.RawMessage) (string, error) {
	var params struct {
		Title string `json:"title"`
		Year  int    `json:"year"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(params.Title) == "" {
		return "", fmt.Errorf("title is required")
	}

	movies, err := t.tracker.FindMovies(ctx, params.Title, params.Year)
	if err != nil {
		return "", err
	}
	if len(movies) == 0 {
		return "Radarr does not track any movies that match the query.", nil
	}

	lines := make([]string, 0, len(movies))
	for _, m := range movies {
		state := monitoredLabel(m.Monitored)
		if m.HasFile {
			state = "downloaded"
		}
		if m.ID > 0 {
			state += fmt.Sprintf(", radarr id %d", m.ID)
		}
		lines = append(lines, fmt.Sprintf("%s (%s)", withYear(m.Title, m.Year), state))
	}
	return "Radarr tracks the following movies:\n" + strings.Join(lines, "\n"), nil
}

func withYear(title string, year int) string {
	if year > 0 {
		return fmt.Sprintf("%s (%d)", title, year)
	}
	return title
}

func monitoredLabel(monitored bool) string {
	if monitored {
		return "monitored"
	}
	return "unmonitored"
}
