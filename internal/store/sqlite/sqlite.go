// Package sqlite implements store.Store on a local SQLite file. It is the
// default local driver: always available, no server required.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/store"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode. The URI parameter ensures better concurrency for read-heavy
// workloads.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Schema statements executed on startup. Items carry no foreign key to
// collections: during a migration pass items may land before their
// collection, and membership is resolved by the coordinator, not the store.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS collections (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        category TEXT NOT NULL DEFAULT '',
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS items (
        id TEXT PRIMARY KEY,
        collection_id TEXT NOT NULL,
        title TEXT NOT NULL,
        done INTEGER NOT NULL DEFAULT 0,
        score REAL,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_items_collection ON items (collection_id)`,
}

// New opens the database file and applies the schema.
func New(path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB allows wiring with an existing connection (used by factory and tests).
func NewWithDB(db *sql.DB) (*Store, error) {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Store is a SQLite-backed store.Store.
type Store struct{ db *sql.DB }

func (s *Store) Collections() store.Collections { return &collections{db: s.db} }
func (s *Store) Items() store.Items             { return &items{db: s.db} }

// DB exposes the underlying *sql.DB connection (local-only use case).
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Timestamps are stored as UTC text with fixed-width nanoseconds so that
// lexicographic ORDER BY matches chronological order. RFC3339Nano would drop
// trailing zeros and break the text sort within a second.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func isDuplicate(err error) bool {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// --- Collections ---

type collections struct{ db *sql.DB }

func (r *collections) Save(ctx context.Context, c *model.Collection) (*model.Collection, error) {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO collections (id, name, category, created_at, updated_at)
        VALUES (?,?,?,?,?)
    `, c.ID, c.Name, c.Category, encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt))
	if err != nil {
		if isDuplicate(err) {
			return nil, model.ErrDuplicateID
		}
		return nil, err
	}
	return c.Clone(), nil
}

func (r *collections) Get(ctx context.Context, id string) (*model.Collection, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, category, created_at, updated_at
        FROM collections WHERE id = ?
    `, id)
	return scanCollection(row.Scan)
}

func (r *collections) List(ctx context.Context) ([]*model.Collection, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, category, created_at, updated_at
        FROM collections ORDER BY created_at DESC, id ASC
    `)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Collection
	for rows.Next() {
		c, err := scanCollection(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *collections) Update(ctx context.Context, c *model.Collection) (*model.Collection, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE collections SET name = ?, category = ?, created_at = ?, updated_at = ?
        WHERE id = ?
    `, c.Name, c.Category, encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt), c.ID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *collections) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *collections) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM collections`)
	return err
}

func scanCollection(scan func(dest ...any) error) (*model.Collection, error) {
	var c model.Collection
	var createdAt, updatedAt string
	if err := scan(&c.ID, &c.Name, &c.Category, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	var err error
	if c.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// --- Items ---

type items struct{ db *sql.DB }

func (r *items) Save(ctx context.Context, it *model.Item) (*model.Item, error) {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO items (id, collection_id, title, done, score, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?)
    `, it.ID, it.CollectionID, it.Title, boolToInt(it.Done), scoreArg(it.Score), encodeTime(it.CreatedAt), encodeTime(it.UpdatedAt))
	if err != nil {
		if isDuplicate(err) {
			return nil, model.ErrDuplicateID
		}
		return nil, err
	}
	return it.Clone(), nil
}

func (r *items) Get(ctx context.Context, id string) (*model.Item, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, collection_id, title, done, score, created_at, updated_at
        FROM items WHERE id = ?
    `, id)
	return scanItem(row.Scan)
}

func (r *items) List(ctx context.Context) ([]*model.Item, error) {
	return r.list(ctx, `
        SELECT id, collection_id, title, done, score, created_at, updated_at
        FROM items ORDER BY created_at DESC, id ASC
    `)
}

func (r *items) ListByCollection(ctx context.Context, collectionID string) ([]*model.Item, error) {
	return r.list(ctx, `
        SELECT id, collection_id, title, done, score, created_at, updated_at
        FROM items WHERE collection_id = ? ORDER BY created_at DESC, id ASC
    `, collectionID)
}

func (r *items) list(ctx context.Context, query string, args ...any) ([]*model.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Item
	for rows.Next() {
		it, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *items) Update(ctx context.Context, it *model.Item) (*model.Item, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE items SET collection_id = ?, title = ?, done = ?, score = ?, created_at = ?, updated_at = ?
        WHERE id = ?
    `, it.CollectionID, it.Title, boolToInt(it.Done), scoreArg(it.Score), encodeTime(it.CreatedAt), encodeTime(it.UpdatedAt), it.ID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return it.Clone(), nil
}

func (r *items) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *items) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM items`)
	return err
}

func scanItem(scan func(dest ...any) error) (*model.Item, error) {
	var it model.Item
	var done int
	var score sql.NullFloat64
	var createdAt, updatedAt string
	if err := scan(&it.ID, &it.CollectionID, &it.Title, &done, &score, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	it.Done = done != 0
	if score.Valid {
		v := score.Float64
		it.Score = &v
	}
	var err error
	if it.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if it.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scoreArg(s *float64) any {
	if s == nil {
		return nil
	}
	return *s
}
