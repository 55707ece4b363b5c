// Package postgres persists accepted catalog products in Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/product-catalog-extractor/internal/catalog"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "products"

// ProductStoreConfig controls the Postgres connection pool used for product rows.
type ProductStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Begin(context.Context) (pgx.Tx, error)
	Close()
}

// ProductStore upserts product rows into Postgres.
type ProductStore struct {
	pool  pool
	table string
}

// NewProductStore creates a Postgres-backed ProductStore using the provided config.
func NewProductStore(ctx context.Context, cfg ProductStoreConfig) (*ProductStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
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
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ProductStore{pool: p, table: table}, nil
}

// NewProductStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewProductStoreWithPool(p pool, table string) (*ProductStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ProductStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *ProductStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the product table when it does not exist.
func (s *ProductStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	images JSONB NOT NULL,
	price TEXT NOT NULL,
	colors JSONB NOT NULL,
	category TEXT NOT NULL,
	brand TEXT NOT NULL DEFAULT '',
	specifications JSONB NOT NULL,
	source_url TEXT NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL,
	live_scraped BOOLEAN NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return &catalog.PersistenceError{Op: "create product table", Err: err}
	}
	return nil
}

// SaveProducts upserts every product of a run inside one transaction.
func (s *ProductStore) SaveProducts(ctx context.Context, runID string, products []catalog.Product) (err error) {
	if s == nil || s.pool == nil {
		return &catalog.PersistenceError{Op: "save products", Err: errors.New("product store is not configured")}
	}
	if runID == "" {
		return &catalog.PersistenceError{Op: "save products", Err: errors.New("run id is required")}
	}
	if len(products) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &catalog.PersistenceError{Op: "begin transaction", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	run_id,
	name,
	description,
	images,
	price,
	colors,
	category,
	brand,
	specifications,
	source_url,
	scraped_at,
	live_scraped
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
)
ON CONFLICT (id) DO UPDATE SET
	run_id = EXCLUDED.run_id,
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	images = EXCLUDED.images,
	price = EXCLUDED.price,
	colors = EXCLUDED.colors,
	category = EXCLUDED.category,
	brand = EXCLUDED.brand,
	specifications = EXCLUDED.specifications,
	source_url = EXCLUDED.source_url,
	scraped_at = EXCLUDED.scraped_at,
	live_scraped = EXCLUDED.live_scraped`, s.table)

	for _, p := range products {
		args, argErr := productArgs(runID, p)
		if argErr != nil {
			return &catalog.PersistenceError{Op: "encode product " + p.ID, Err: argErr}
		}
		if _, err = tx.Exec(ctx, query, args...); err != nil {
			return &catalog.PersistenceError{Op: "upsert product " + p.ID, Err: err}
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return &catalog.PersistenceError{Op: "commit products", Err: err}
	}
	return nil
}

func productArgs(runID string, p catalog.Product) ([]any, error) {
	images, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return nil, fmt.Errorf("marshal images: %w", err)
	}
	colors, err := json.Marshal(nonNil(p.Colors))
	if err != nil {
		return nil, fmt.Errorf("marshal colors: %w", err)
	}
	specs := p.Specifications
	if specs == nil {
		specs = map[string]string{}
	}
	specsJSON, err := json.Marshal(specs)
	if err != nil {
		return nil, fmt.Errorf("marshal specifications: %w", err)
	}
	return []any{
		p.ID,
		runID,
		p.Name,
		p.Description,
		images,
		p.Price,
		colors,
		p.Category,
		p.Brand,
		specsJSON,
		p.SourceURL,
		p.ScrapedAt,
		p.LiveScraped,
	}, nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
