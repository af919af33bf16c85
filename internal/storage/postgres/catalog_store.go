// Package postgres provides the Postgres-backed catalog store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamcat/hotstar-crawler/internal/catalog"
)

// CatalogStoreConfig controls the Postgres connection pool used for catalog rows.
type CatalogStoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// CatalogStore implements catalog.Store on top of a pgx pool.
type CatalogStore struct {
	pool pgxPool
}

var refTables = map[catalog.RefKind]string{
	catalog.RefGenre:    "genres",
	catalog.RefLanguage: "languages",
}

type assocTable struct {
	table    string
	titleCol string
	refCol   string
	refTable string
}

var assocTables = map[catalog.AssocKind]assocTable{
	catalog.AssocMovieGenre:    {table: "movie_genres", titleCol: "movie_id", refCol: "genre_id", refTable: "genres"},
	catalog.AssocShowGenre:     {table: "show_genres", titleCol: "show_id", refCol: "genre_id", refTable: "genres"},
	catalog.AssocMovieLanguage: {table: "movie_languages", titleCol: "movie_id", refCol: "language_id", refTable: "languages"},
}

// NewCatalogStore creates a Postgres-backed CatalogStore using the provided config.
func NewCatalogStore(ctx context.Context, cfg CatalogStoreConfig) (*CatalogStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &CatalogStore{pool: pool}, nil
}

// NewCatalogStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewCatalogStoreWithPool(pool pgxPool) (*CatalogStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &CatalogStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *CatalogStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// FindMovieByTitle looks a movie up by its exact display name.
func (s *CatalogStore) FindMovieByTitle(ctx context.Context, title string) (catalog.Movie, error) {
	query := `
SELECT id, title, description, release_year, rating, duration, image_url
FROM movies
WHERE title = $1`
	var m catalog.Movie
	err := s.pool.QueryRow(ctx, query, title).Scan(
		&m.ID,
		&m.Title,
		&m.Description,
		&m.ReleaseYear,
		&m.Rating,
		&m.Duration,
		&m.ImageURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Movie{}, catalog.ErrNotFound
		}
		return catalog.Movie{}, fmt.Errorf("find movie: %w", err)
	}
	return m, nil
}

// InsertMovie inserts a movie row and returns its surrogate id.
func (s *CatalogStore) InsertMovie(ctx context.Context, m catalog.Movie) (int64, error) {
	query := `
INSERT INTO movies (title, description, release_year, rating, duration, image_url)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	var id int64
	err := s.pool.QueryRow(ctx, query,
		m.Title, m.Description, m.ReleaseYear, m.Rating, m.Duration, m.ImageURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert movie: %w", err)
	}
	return id, nil
}

// UpdateMovie overwrites all non-key fields of an existing movie.
func (s *CatalogStore) UpdateMovie(ctx context.Context, m catalog.Movie) error {
	query := `
UPDATE movies
SET description = $1, release_year = $2, rating = $3, duration = $4, image_url = $5
WHERE id = $6`
	if _, err := s.pool.Exec(ctx, query,
		m.Description, m.ReleaseYear, m.Rating, m.Duration, m.ImageURL, m.ID,
	); err != nil {
		return fmt.Errorf("update movie: %w", err)
	}
	return nil
}

// FindShowByTitle looks a show up by its exact display name.
func (s *CatalogStore) FindShowByTitle(ctx context.Context, title string) (catalog.Show, error) {
	query := `
SELECT id, title, description, release_year, rating, season, image_url
FROM shows
WHERE title = $1`
	var sh catalog.Show
	err := s.pool.QueryRow(ctx, query, title).Scan(
		&sh.ID,
		&sh.Title,
		&sh.Description,
		&sh.ReleaseYear,
		&sh.Rating,
		&sh.Season,
		&sh.ImageURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Show{}, catalog.ErrNotFound
		}
		return catalog.Show{}, fmt.Errorf("find show: %w", err)
	}
	return sh, nil
}

// InsertShow inserts a show row and returns its surrogate id.
func (s *CatalogStore) InsertShow(ctx context.Context, sh catalog.Show) (int64, error) {
	query := `
INSERT INTO shows (title, description, release_year, rating, season, image_url)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	var id int64
	err := s.pool.QueryRow(ctx, query,
		sh.Title, sh.Description, sh.ReleaseYear, sh.Rating, sh.Season, sh.ImageURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert show: %w", err)
	}
	return id, nil
}

// UpdateShow overwrites all non-key fields of an existing show.
func (s *CatalogStore) UpdateShow(ctx context.Context, sh catalog.Show) error {
	query := `
UPDATE shows
SET description = $1, release_year = $2, rating = $3, season = $4, image_url = $5
WHERE id = $6`
	if _, err := s.pool.Exec(ctx, query,
		sh.Description, sh.ReleaseYear, sh.Rating, sh.Season, sh.ImageURL, sh.ID,
	); err != nil {
		return fmt.Errorf("update show: %w", err)
	}
	return nil
}

// ListReferenceEntities returns every row of a reference-entity table.
func (s *CatalogStore) ListReferenceEntities(ctx context.Context, kind catalog.RefKind) ([]catalog.RefEntity, error) {
	table, ok := refTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown reference kind %q", kind)
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT id, name FROM %s ORDER BY id`, table))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []catalog.RefEntity
	for rows.Next() {
		var e catalog.RefEntity
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", table, err)
	}
	return out, nil
}

// InsertReferenceEntity inserts a reference entity, preserving the caller's casing.
func (s *CatalogStore) InsertReferenceEntity(ctx context.Context, kind catalog.RefKind, name string) (int64, error) {
	table, ok := refTables[kind]
	if !ok {
		return 0, fmt.Errorf("unknown reference kind %q", kind)
	}
	var id int64
	query := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id`, table)
	if err := s.pool.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return id, nil
}

// ListAssociations returns the reference entities linked to a title.
func (s *CatalogStore) ListAssociations(ctx context.Context, kind catalog.AssocKind, titleID int64) ([]catalog.RefEntity, error) {
	at, ok := assocTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown association kind %q", kind)
	}
	query := fmt.Sprintf(`
SELECT r.id, r.name
FROM %s a
JOIN %s r ON r.id = a.%s
WHERE a.%s = $1
ORDER BY r.id`, at.table, at.refTable, at.refCol, at.titleCol)
	rows, err := s.pool.Query(ctx, query, titleID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", at.table, err)
	}
	defer rows.Close()

	var out []catalog.RefEntity
	for rows.Next() {
		var e catalog.RefEntity
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", at.table, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", at.table, err)
	}
	return out, nil
}

// AddAssociation links a title to a reference entity. Re-adding an existing
// link is a no-op so reconciliation stays idempotent.
func (s *CatalogStore) AddAssociation(ctx context.Context, kind catalog.AssocKind, titleID, refID int64) error {
	at, ok := assocTables[kind]
	if !ok {
		return fmt.Errorf("unknown association kind %q", kind)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (%s, %s) VALUES ($1, $2)
ON CONFLICT DO NOTHING`, at.table, at.titleCol, at.refCol)
	if _, err := s.pool.Exec(ctx, query, titleID, refID); err != nil {
		return fmt.Errorf("add %s: %w", at.table, err)
	}
	return nil
}

// RemoveAssociation unlinks a title from a reference entity.
func (s *CatalogStore) RemoveAssociation(ctx context.Context, kind catalog.AssocKind, titleID, refID int64) error {
	at, ok := assocTables[kind]
	if !ok {
		return fmt.Errorf("unknown association kind %q", kind)
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, at.table, at.titleCol, at.refCol)
	if _, err := s.pool.Exec(ctx, query, titleID, refID); err != nil {
		return fmt.Errorf("remove %s: %w", at.table, err)
	}
	return nil
}
