package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/cratedigger/plex"
)

// scanTimeout bounds the Plex scans issued after a timed out wait
const scanTimeout = time.Minute

// Finisher waits for a session's downloads and makes them visible in Plex
type Finisher struct {
	waiter   CompletionWaiter
	scanner  plex.Scanner
	media    MediaKinds
	interval time.Duration
	logger   zerolog.Logger
}

// NewFinisher creates a Finisher polling every interval
func NewFinisher(waiter CompletionWaiter, scanner plex.Scanner, media MediaKinds, interval time.Duration, logger zerolog.Logger) *Finisher {
	return &Finisher{
		waiter:   waiter,
		scanner:  scanner,
		media:    media,
		interval: interval,
		logger:   logger,
	}
}

// Finish blocks until every torrent dispatched in the session has completed,
// then asks Plex to scan each content path. It returns the paths of the
// completed content. When the wait times out, torrents that did finish are
// still scanned and returned along with the error. Sessions without real
// dispatches return immediately.
func (f *Finisher) Finish(ctx context.Context, session *Session) ([]string, error) {
	expected := session.PendingDownloads()
	if expected == 0 {
		return nil, nil
	}

	f.logger.Info().
		Str("tag", session.Tag).
		Int("torrents", expected).
		Msg("Waiting for downloads to complete")

	torrents, waitErr := f.waiter.WaitForCompletion(ctx, session.Tag, expected, f.interval)
	if waitErr != nil {
		waitErr = fmt.Errorf("waiting for downloads: %w", waitErr)
		if len(torrents) == 0 || !errors.Is(waitErr, context.DeadlineExceeded) {
			return nil, waitErr
		}
		f.logger.Warn().Err(waitErr).Int("completed", len(torrents)).Msg("Scanning the downloads that finished")

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), scanTimeout)
		defer cancel()
	}

	fallback := f.fallbackKind(session)
	scanned := make(map[string]bool)
	var paths []string
	for _, t := range torrents {
		paths = append(paths, t.GetFullPath())

		kind, ok := f.media.ByCategory(t.Category)
		if !ok {
			kind = fallback
		}
		dir := t.ContentDir()
		if scanned[kind.SectionType+"|"+dir] {
			continue
		}
		scanned[kind.SectionType+"|"+dir] = true

		if err := f.scanner.ScanPath(ctx, kind.SectionType, dir); err != nil {
			if ctx.Err() != nil {
				return paths, ctx.Err()
			}
			f.logger.Warn().Err(err).Str("path", dir).Msg("Failed to trigger Plex scan")
			continue
		}
		f.logger.Info().Str("path", dir).Str("section_type", kind.SectionType).Msg("Triggered Plex scan")
	}
	return paths, waitErr
}

func (f *Finisher) fallbackKind(session *Session) MediaKind {
	if kinds := session.MediaKinds(); len(kinds) > 0 {
		if kind, ok := f.media[kinds[0]]; ok {
			return kind
		}
	}
	kind, _ := f.media.Lookup("", session.DefaultMedia)
	return kind
}
