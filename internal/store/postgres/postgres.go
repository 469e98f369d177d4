// Package postgres implements store.Store on PostgreSQL via the pgx stdlib
// driver. It serves as the remote store when the service talks to the cloud
// database directly.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/rankstack/rankstack-sync/internal/model"
	"github.com/rankstack/rankstack-sync/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the embedded goose migrations. goose.NewProvider is used
// instead of the legacy goose.Up so statements are not naively split on
// semicolons.
func Migrate(ctx context.Context, db *sql.DB) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// New opens a connection and brings the schema up to date.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

// Store is a PostgreSQL-backed store.Store.
type Store struct{ db *sql.DB }

func (s *Store) Collections() store.Collections { return &collections{db: s.db} }
func (s *Store) Items() store.Items             { return &items{db: s.db} }

// DB exposes the underlying *sql.DB connection.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// HealthPing implements health.HealthPinger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// --- Collections ---

type collections struct{ db *sql.DB }

func (r *collections) Save(ctx context.Context, c *model.Collection) (*model.Collection, error) {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO collections (id, name, category, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5)
    `, c.ID, c.Name, c.Category, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
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
        FROM collections WHERE id = $1
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
        UPDATE collections SET name = $1, category = $2, created_at = $3, updated_at = $4
        WHERE id = $5
    `, c.Name, c.Category, c.CreatedAt.UTC(), c.UpdatedAt.UTC(), c.ID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *collections) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
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
	if err := scan(&c.ID, &c.Name, &c.Category, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// --- Items ---

type items struct{ db *sql.DB }

func (r *items) Save(ctx context.Context, it *model.Item) (*model.Item, error) {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO items (id, collection_id, title, done, score, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, it.ID, it.CollectionID, it.Title, it.Done, it.Score, it.CreatedAt.UTC(), it.UpdatedAt.UTC())
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
        FROM items WHERE id = $1
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
        FROM items WHERE collection_id = $1 ORDER BY created_at DESC, id ASC
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
        UPDATE items SET collection_id = $1, title = $2, done = $3, score = $4, created_at = $5, updated_at = $6
        WHERE id = $7
    `, it.CollectionID, it.Title, it.Done, it.Score, it.CreatedAt.UTC(), it.UpdatedAt.UTC(), it.ID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return it.Clone(), nil
}

func (r *items) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
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
	var score sql.NullFloat64
	if err := scan(&it.ID, &it.CollectionID, &it.Title, &it.Done, &score, &it.CreatedAt, &it.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if score.Valid {
		v := score.Float64
		it.Score = &v
	}
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	return &it, nil
}
