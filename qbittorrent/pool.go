package qbittorrent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentClients bounds the fan-out over configured clients
const maxConcurrentClients = 4

// Pool is the set of configured qBittorrent clients
type Pool struct {
	clients []*Client
	byName  map[string]*Client
	logger  zerolog.Logger
}

// NewPool groups already connected clients
func NewPool(clients []*Client, logger zerolog.Logger) (*Pool, error) {
	if len(clients) == 0 {
		return nil, ErrNoClients
	}

	p := &Pool{
		clients: clients,
		byName:  make(map[string]*Client, len(clients)),
		logger:  logger,
	}
	for _, c := range clients {
		if _, dup := p.byName[c.Name()]; dup {
			return nil, fmt.Errorf("duplicate client name %q", c.Name())
		}
		p.byName[c.Name()] = c
	}
	return p, nil
}

// Clients returns the clients in configuration order
func (p *Pool) Clients() []*Client {
	return p.clients
}

// Client looks up a client by name
func (p *Pool) Client(name string) (*Client, error) {
	c, ok := p.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClientNotFound, name)
	}
	return c, nil
}

// AddTorrent sends a search result to the client that found it. A client
// download path overrides the save path in opts.
func (p *Pool) AddTorrent(ctx context.Context, result SearchResult, opts AddOptions) error {
	c, err := p.Client(result.Client)
	if err != nil {
		return err
	}
	if c.DownloadPath() != "" {
		opts.SavePath = c.DownloadPath()
	}
	return c.AddTorrent(ctx, result.URL, opts)
}

// Search queries every client concurrently. A failing client is logged and
// skipped; an error is returned only when no client succeeded. Results are
// de-duplicated and ordered by seeders.
func (p *Pool) Search(ctx context.Context, pattern string) ([]SearchResult, error) {
	perClient := make([][]SearchResult, len(p.clients))
	errs := make([]error, len(p.clients))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentClients)

	for i, c := range p.clients {
		g.Go(func() error {
			results, err := c.Search(gctx, pattern)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", c.Name(), err)
				return nil
			}
			for j := range results {
				results[j].Client = c.Name()
			}
			perClient[i] = results
			return nil
		})
	}
	// Workers never return errors, failures are collected in errs
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var failed int
	for _, err := range errs {
		if err != nil {
			failed++
			p.logger.Warn().Err(err).Str("query", pattern).Msg("Search failed on client")
		}
	}
	if failed == len(p.clients) {
		return nil, fmt.Errorf("search failed on every client: %w", errors.Join(errs...))
	}

	merged := dedupeResults(perClient)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Seeders > merged[j].Seeders
	})

	p.logger.Debug().
		Str("query", pattern).
		Int("results", len(merged)).
		Int("failed_clients", failed).
		Msg("Search complete")

	return merged, nil
}

// dedupeResults keeps the first occurrence of each release. Releases are
// identified by info hash when known, otherwise by name and size.
func dedupeResults(perClient [][]SearchResult) []SearchResult {
	seen := make(map[string]struct{})
	var merged []SearchResult
	for _, results := range perClient {
		for _, r := range results {
			key := resultKey(r)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged
}

func resultKey(r SearchResult) string {
	if r.InfoHash != "" {
		return "hash:" + strings.ToLower(r.InfoHash)
	}
	return "name:" + strings.ToLower(strings.TrimSpace(r.Name)) + "|" + strconv.FormatInt(r.Size, 10)
}

// TorrentsByTag collects tagged torrents from every client
func (p *Pool) TorrentsByTag(ctx context.Context, tag string) ([]*TorrentInfo, error) {
	var (
		mu  sync.Mutex
		all []*TorrentInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentClients)

	for _, c := range p.clients {
		g.Go(func() error {
			torrents, err := c.TorrentsByTag(gctx, tag)
			if err != nil {
				return fmt.Errorf("%s: %w", c.Name(), err)
			}
			mu.Lock()
			all = append(all, torrents...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Client != all[j].Client {
			return all[i].Client < all[j].Client
		}
		return all[i].Name < all[j].Name
	})
	return all, nil
}

// A wait settles early once the tagged set stops changing. Adds that never
// produce a tagged torrent (duplicates qBittorrent ignores, results sharing
// one torrent, failed .torrent fetches) would otherwise block until timeout.
const (
	settlePolls      = 3
	emptySettlePolls = 12
)

const filesTimeout = 10 * time.Second

// WaitForCompletion polls until at least expected torrents carry tag and all
// of them have finished downloading. When fewer torrents show up, it returns
// once every torrent found is complete and the count has held for several
// polls. Transient polling errors are logged and retried on the next tick.
// On cancellation the torrents already complete are returned with the error.
func (p *Pool) WaitForCompletion(ctx context.Context, tag string, expected int, interval time.Duration) ([]*TorrentInfo, error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		last      []*TorrentInfo
		lastCount = -1
		stable    int
	)
	for {
		torrents, err := p.TorrentsByTag(ctx, tag)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return p.finishedOnCancel(ctx, last), ctx.Err()
			}
			p.logger.Warn().Err(err).Str("tag", tag).Msg("Failed to poll torrents")
		case len(torrents) >= expected && allComplete(torrents):
			p.attachFiles(ctx, torrents)
			return torrents, nil
		default:
			if len(torrents) == lastCount && allComplete(torrents) {
				stable++
			} else {
				stable = 0
			}
			last, lastCount = torrents, len(torrents)

			need := settlePolls
			if len(torrents) == 0 {
				need = emptySettlePolls
			}
			if stable >= need {
				p.logger.Warn().
					Str("tag", tag).
					Int("found", len(torrents)).
					Int("expected", expected).
					Msg("Fewer torrents than dispatched, continuing with those found")
				p.attachFiles(ctx, torrents)
				return torrents, nil
			}

			p.logger.Debug().
				Str("tag", tag).
				Int("found", len(torrents)).
				Int("expected", expected).
				Float64("progress", averageProgress(torrents)).
				Msg("Waiting for downloads")
		}

		select {
		case <-ctx.Done():
			return p.finishedOnCancel(ctx, last), ctx.Err()
		case <-ticker.C:
		}
	}
}

func allComplete(torrents []*TorrentInfo) bool {
	for _, t := range torrents {
		if !t.IsComplete() {
			return false
		}
	}
	return true
}

// finishedOnCancel keeps the completed torrents of the last poll. File lists
// are fetched on a short detached context since ctx is already done.
func (p *Pool) finishedOnCancel(ctx context.Context, last []*TorrentInfo) []*TorrentInfo {
	done := completed(last)
	if len(done) == 0 {
		return nil
	}
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), filesTimeout)
	defer cancel()
	p.attachFiles(fctx, done)
	return done
}

// attachFiles fills TorrentInfo.Files. Failures leave Files empty.
func (p *Pool) attachFiles(ctx context.Context, torrents []*TorrentInfo) {
	for _, t := range torrents {
		c, ok := p.byName[t.Client]
		if !ok {
			continue
		}
		files, err := c.Files(ctx, t.Hash)
		if err != nil {
			p.logger.Debug().Err(err).Str("hash", t.Hash).Msg("Failed to list torrent files")
			continue
		}
		t.Files = files
	}
}

func completed(torrents []*TorrentInfo) []*TorrentInfo {
	var done []*TorrentInfo
	for _, t := range torrents {
		if t.IsComplete() {
			done = append(done, t)
		}
	}
	return done
}

func averageProgress(torrents []*TorrentInfo) float64 {
	if len(torrents) == 0 {
		return 0
	}
	var total float64
	for _, t := range torrents {
		total += t.Progress
	}
	return total / float64(len(torrents))
}
