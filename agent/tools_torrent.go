package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/cratedigger/filter"
	"github.com/s0up4200/cratedigger/history"
	"github.com/s0up4200/cratedigger/llm"
	"github.com/s0up4200/cratedigger/qbittorrent"
)

// maxListedResults bounds how many results a single search reports to the model
const maxListedResults = 40

// SearchTool runs search plugin queries and remembers what they return
type SearchTool struct {
	searcher TorrentSearcher
	filter   filter.Filter
	logger   zerolog.Logger
}

// NewSearchTool creates the search_torrents tool. A nil filter keeps every result.
func NewSearchTool(searcher TorrentSearcher, f filter.Filter, logger zerolog.Logger) *SearchTool {
	return &SearchTool{searcher: searcher, filter: f, logger: logger}
}

// Definition implements Tool
func (t *SearchTool) Definition() llm.Tool {
	return llm.NewTool(
		"search_torrents",
		"Search the torrent search plugins and return matching releases. Queries are matched loosely against release names, "+
			"so use only the artist and album title, or the movie title. Words like \"discography\" or \"album\" make results worse.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Artist and album title, or movie title"}
			},
			"required": ["query"]
		}`),
	)
}

// Call implements Tool
func (t *SearchTool) Call(ctx context.Context, session *Session, args json.RawMessage) (string, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	results, err := t.searcher.Search(ctx, query)
	if err != nil {
		return "", err
	}
	kept := filter.Apply(t.filter, results)

	t.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Int("kept", len(kept)).
		Msg("Search finished")

	if len(kept) == 0 {
		return "No results found.", nil
	}
	session.Remember(kept)

	var b strings.Builder
	b.WriteString("Search results:")
	for i, r := range kept {
		if i == maxListedResults {
			fmt.Fprintf(&b, "\n(%d more omitted)", len(kept)-maxListedResults)
			break
		}
		fmt.Fprintf(&b, "\n- %s | %s | %d seeders", r.Name, formatSize(r.Size), r.Seeders)
	}
	return b.String(), nil
}

// AddTool adds a previously returned search result to qBittorrent
type AddTool struct {
	adder  TorrentAdder
	ledger Ledger
	media  MediaKinds
	dryRun bool
	logger zerolog.Logger
}

// NewAddTool creates the add_torrent tool. ledger may be nil.
func NewAddTool(adder TorrentAdder, ledger Ledger, media MediaKinds, dryRun bool, logger zerolog.Logger) *AddTool {
	return &AddTool{adder: adder, ledger: ledger, media: media, dryRun: dryRun, logger: logger}
}

// Definition implements Tool
func (t *AddTool) Definition() llm.Tool {
	return llm.NewTool(
		"add_torrent",
		"Download a torrent returned by an earlier search_torrents call. The name is matched loosely against the search results. "+
			"Set media to the kind of content so it is stored in the right library.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "description": "Release name as shown in the search results"},
				"media": {"type": "string", "enum": ["music", "movies"], "description": "Kind of content"}
			},
			"required": ["name"]
		}`),
	)
}

// Call implements Tool
func (t *AddTool) Call(ctx context.Context, session *Session, args json.RawMessage) (string, error) {
	var params struct {
		Name  string `json:"name"`
		Media string `json:"media"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	result, match, err := session.Resolve(params.Name)
	if err != nil {
		return "", err
	}
	kind, err := t.media.Lookup(params.Media, session.DefaultMedia)
	if err != nil {
		return "", err
	}

	logger := t.logger.With().
		Str("name", result.Name).
		Str("client", result.Client).
		Str("hash", result.InfoHash).
		Logger()

	if !match.ExactMatch {
		logger.Debug().Str("requested", params.Name).Int("score", match.Score).Msg("Resolved torrent name")
	}

	if err := session.reserve(result.Name); err != nil {
		return "", err
	}

	if t.ledger != nil && result.InfoHash != "" {
		seen, err := t.ledger.HasInfoHash(ctx, result.InfoHash)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to check history")
		} else if seen {
			logger.Info().Msg("Torrent was downloaded before, skipping")
			return fmt.Sprintf("Skipped %s: it was already downloaded in an earlier run.", result.Name), nil
		}
	}

	opts := qbittorrent.AddOptions{
		SavePath: kind.SavePath,
		Category: kind.Category,
		Tags:     session.Tags(),
	}
	if err := t.adder.AddTorrent(ctx, result, opts); err != nil {
		session.release(result.Name)
		return "", err
	}

	session.recordDispatch(Dispatch{Result: result, Media: kind, DryRun: t.dryRun})

	if t.ledger != nil {
		record := &history.Record{
			Query:    session.Query,
			Name:     result.Name,
			URL:      result.URL,
			InfoHash: result.InfoHash,
			Client:   result.Client,
			Category: kind.Category,
			Tag:      session.Tag,
			DryRun:   t.dryRun,
		}
		if err := t.ledger.Record(ctx, record); err != nil {
			logger.Warn().Err(err).Msg("Failed to record dispatch")
		}
	}

	if t.dryRun {
		return fmt.Sprintf("Dry run: %s would have been added as %s.", result.Name, kind.Name), nil
	}
	return fmt.Sprintf("Torrent added successfully: %s", result.Name), nil
}

// HistoryTool searches the dispatch ledger of earlier runs
type HistoryTool struct {
	ledger Ledger
}

// NewHistoryTool creates the check_history tool
func NewHistoryTool(ledger Ledger) *HistoryTool {
	return &HistoryTool{ledger: ledger}
}

// Definition implements Tool
func (t *HistoryTool) Definition() llm.Tool {
	return llm.NewTool(
		"check_history",
		"Check whether cratedigger already downloaded something matching a term in an earlier run, even if it is not in the library yet.",
		json.RawMessage(`{
			"type": "object",
			"properties": {
				"term": {"type": "string", "description": "Artist, album or movie title"}
			},
			"required": ["term"]
		}`),
	)
}

// Call implements Tool
func (t *HistoryTool) Call(ctx context.Context, _ *Session, args json.RawMessage) (string, error) {
	var params struct {
		Term string `json:"term"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(params.Term) == "" {
		return "", fmt.Errorf("term is required")
	}

	records, err := t.ledger.Search(ctx, params.Term, 20)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, r := range records {
		if r.DryRun {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (added %s)", r.Name, r.CreatedAt.Format(time.DateOnly)))
	}
	if len(lines) == 0 {
		return "Nothing matching the term was downloaded before.", nil
	}
	return "Previously downloaded:\n" + strings.Join(lines, "\n"), nil
}

func formatSize(size int64) string {
	if size < 0 {
		return "unknown size"
	}
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
