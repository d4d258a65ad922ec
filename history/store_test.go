package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Record(context.Background(), &Record{Name: "a", URL: "u", Client: "home"}))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	records, err := second.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, path, second.Path())
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	older := &Record{
		Query:     "ok computer",
		Name:      "Radiohead - OK Computer [FLAC]",
		URL:       "magnet:?xt=urn:btih:ABC",
		InfoHash:  "ABC",
		Client:    "home",
		Category:  "Music",
		Tag:       "run-1",
		CreatedAt: base,
	}
	newer := &Record{
		Query:     "kid a",
		Name:      "Radiohead - Kid A [FLAC]",
		URL:       "http://tracker/kid-a.torrent",
		Client:    "seedbox",
		DryRun:    true,
		CreatedAt: base.Add(time.Hour),
	}
	require.NoError(t, store.Record(ctx, older))
	require.NoError(t, store.Record(ctx, newer))
	assert.NotZero(t, older.ID)
	assert.NotEqual(t, older.ID, newer.ID)

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Radiohead - Kid A [FLAC]", records[0].Name)
	assert.True(t, records[0].DryRun)
	assert.Empty(t, records[0].InfoHash)
	assert.Empty(t, records[0].Category)

	assert.Equal(t, "abc", records[1].InfoHash)
	assert.Equal(t, "Music", records[1].Category)
	assert.Equal(t, "run-1", records[1].Tag)
	assert.True(t, base.Equal(records[1].CreatedAt))

	limited, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecentOrdersSubsecondTimestamps(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)

	require.NoError(t, store.Record(ctx, &Record{Name: "later", URL: "u1", Client: "home", CreatedAt: base.Add(120 * time.Millisecond)}))
	require.NoError(t, store.Record(ctx, &Record{Name: "earlier", URL: "u2", Client: "home", CreatedAt: base.Add(100 * time.Millisecond)}))
	require.NoError(t, store.Record(ctx, &Record{Name: "whole", URL: "u3", Client: "home", CreatedAt: base}))

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"later", "earlier", "whole"}, []string{records[0].Name, records[1].Name, records[2].Name})
	assert.True(t, base.Add(120*time.Millisecond).Equal(records[0].CreatedAt))
}

func TestMigrationPadsLegacyTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	for _, ts := range []string{"2026-03-01T12:00:05.1Z", "2026-03-01T12:00:05.12Z", "2026-03-01T12:00:05Z"} {
		_, err := store.db.ExecContext(ctx,
			"INSERT INTO dispatches (query, name, url, client, created_at) VALUES ('', ?, 'u', 'home', ?)", ts, ts)
		require.NoError(t, err)
	}
	_, err = store.db.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = '002_fixed_width_created_at'")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2026-03-01T12:00:05.12Z", records[0].Name)
	assert.Equal(t, "2026-03-01T12:00:05.1Z", records[1].Name)
	assert.Equal(t, "2026-03-01T12:00:05Z", records[2].Name)
	assert.Equal(t, 120*time.Millisecond, records[0].CreatedAt.Sub(records[2].CreatedAt))
}

func TestRecordRejectsEmpty(t *testing.T) {
	store := openTestStore(t)
	err := store.Record(context.Background(), &Record{Name: "  ", URL: "u"})
	assert.ErrorIs(t, err, ErrEmptyRecord)
}

func TestSearch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, r := range []*Record{
		{Query: "something by portishead", Name: "Portishead - Dummy [FLAC]", URL: "u1", Client: "home"},
		{Query: "ok computer", Name: "Radiohead - OK Computer [FLAC]", URL: "u2", Client: "home"},
		{Query: "100% hits", Name: "Various - 100_Percent [FLAC]", URL: "u3", Client: "home"},
	} {
		require.NoError(t, store.Record(ctx, r))
	}

	records, err := store.Search(ctx, "radiohead", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ok computer", records[0].Query)

	records, err = store.Search(ctx, "PORTISHEAD", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	records, err = store.Search(ctx, "100%", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Various - 100_Percent [FLAC]", records[0].Name)

	records, err = store.Search(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestHasInfoHash(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, &Record{Name: "real", URL: "u1", InfoHash: "AAA", Client: "home"}))
	require.NoError(t, store.Record(ctx, &Record{Name: "dry", URL: "u2", InfoHash: "bbb", Client: "home", DryRun: true}))

	found, err := store.HasInfoHash(ctx, "aaa")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = store.HasInfoHash(ctx, "BBB")
	require.NoError(t, err)
	assert.False(t, found)

	found, err = store.HasInfoHash(ctx, "")
	require.NoError(t, err)
	assert.False(t, found)
}
