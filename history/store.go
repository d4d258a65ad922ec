package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrEmptyRecord is returned when a record lacks a name or URL
var ErrEmptyRecord = errors.New("history record requires a name and url")

const defaultLimit = 20

// timestampLayout is fixed width so created_at sorts as text
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists dispatch records in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the history database at path and applies migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a dispatch and fills in its ID and timestamp.
func (s *Store) Record(ctx context.Context, r *Record) error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.URL) == "" {
		return ErrEmptyRecord
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO dispatches (
            query, name, url, info_hash, client, category, tag, dry_run, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Query,
		r.Name,
		r.URL,
		nullableString(strings.ToLower(r.InfoHash)),
		r.Client,
		nullableString(r.Category),
		nullableString(r.Tag),
		r.DryRun,
		r.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("insert dispatch: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	return nil
}

// Recent returns the newest records first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	return s.query(ctx, selectColumns+" ORDER BY created_at DESC, id DESC LIMIT ?", limit)
}

// Search returns records whose name or query contains term, newest first.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]Record, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.Recent(ctx, limit)
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	pattern := "%" + escapeLike(term) + "%"
	return s.query(ctx,
		selectColumns+` WHERE name LIKE ? ESCAPE '\' OR query LIKE ? ESCAPE '\'
        ORDER BY created_at DESC, id DESC LIMIT ?`,
		pattern, pattern, limit,
	)
}

// HasInfoHash reports whether a non dry-run dispatch of the hash exists.
func (s *Store) HasInfoHash(ctx context.Context, hash string) (bool, error) {
	if hash == "" {
		return false, nil
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM dispatches WHERE info_hash = ? AND dry_run = 0",
		strings.ToLower(hash),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count dispatches: %w", err)
	}
	return count > 0, nil
}

const selectColumns = `SELECT id, query, name, url, info_hash, client, category, tag, dry_run, created_at FROM dispatches`

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r         Record
			infoHash  sql.NullString
			category  sql.NullString
			tag       sql.NullString
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.Query, &r.Name, &r.URL, &infoHash, &r.Client, &category, &tag, &r.DryRun, &createdAt); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		r.InfoHash = infoHash.String
		r.Category = category.String
		r.Tag = tag.String
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			r.CreatedAt = ts
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatches: %w", err)
	}
	return records, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
