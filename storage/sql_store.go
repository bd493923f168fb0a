package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"wildberries-scraper/models"
)

// SQLStore persists cleaned products to PostgreSQL or SQLite.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

var migrations = map[string][]string{
	"postgres": {
		`CREATE TABLE IF NOT EXISTS products (
			id               BIGSERIAL    PRIMARY KEY,
			wb_id            BIGINT       UNIQUE NOT NULL,
			name             VARCHAR(255) NOT NULL,
			price            INTEGER      NOT NULL DEFAULT 0 CHECK (price >= 0),
			discounted_price INTEGER      NOT NULL DEFAULT 0 CHECK (discounted_price >= 0),
			rating           DOUBLE PRECISION,
			reviews_count    INTEGER      NOT NULL DEFAULT 0 CHECK (reviews_count >= 0),
			brand            VARCHAR(100) NOT NULL DEFAULT '',
			created_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_discounted_price ON products(discounted_price)`,
		`CREATE INDEX IF NOT EXISTS idx_products_rating           ON products(rating)`,
		`CREATE INDEX IF NOT EXISTS idx_products_reviews_count    ON products(reviews_count)`,
		`CREATE INDEX IF NOT EXISTS idx_products_created_at       ON products(created_at)`,
	},
	"sqlite": {
		`CREATE TABLE IF NOT EXISTS products (
			id               INTEGER   PRIMARY KEY AUTOINCREMENT,
			wb_id            INTEGER   UNIQUE NOT NULL,
			name             TEXT      NOT NULL,
			price            INTEGER   NOT NULL DEFAULT 0 CHECK (price >= 0),
			discounted_price INTEGER   NOT NULL DEFAULT 0 CHECK (discounted_price >= 0),
			rating           REAL,
			reviews_count    INTEGER   NOT NULL DEFAULT 0 CHECK (reviews_count >= 0),
			brand            TEXT      NOT NULL DEFAULT '',
			created_at       TIMESTAMP NOT NULL,
			updated_at       TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_discounted_price ON products(discounted_price)`,
		`CREATE INDEX IF NOT EXISTS idx_products_rating           ON products(rating)`,
		`CREATE INDEX IF NOT EXISTS idx_products_reviews_count    ON products(reviews_count)`,
		`CREATE INDEX IF NOT EXISTS idx_products_created_at       ON products(created_at)`,
	},
}

const upsertSQL = `
	INSERT INTO products (wb_id, name, price, discounted_price, rating, reviews_count, brand, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (wb_id) DO UPDATE SET
		name             = excluded.name,
		price            = excluded.price,
		discounted_price = excluded.discounted_price,
		rating           = excluded.rating,
		reviews_count    = excluded.reviews_count,
		brand            = excluded.brand,
		updated_at       = excluded.updated_at
`

// Open connects to the database, runs schema migrations, and returns a
// ready-to-use SQLStore. driver is "postgres" or "sqlite".
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if _, ok := migrations[driver]; !ok {
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	if driver == "sqlite" {
		// one connection keeps ":memory:" databases shared and serialises writers
		db.SetMaxOpenConns(1)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("storage: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping failed after retries: %w", err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range migrations[s.driver] {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Driver returns the database driver name.
func (s *SQLStore) Driver() string {
	return s.driver
}

// UpsertProducts inserts or updates products keyed by wb_id inside a single
// transaction and returns the number of rows written.
func (s *SQLStore) UpsertProducts(ctx context.Context, products []*models.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(upsertSQL))
	if err != nil {
		return 0, fmt.Errorf("storage: prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	written := 0
	for _, p := range products {
		created := p.CreatedAt
		if created.IsZero() {
			created = now
		}
		if _, err := stmt.ExecContext(ctx,
			p.WBID, p.Name, p.Price, p.DiscountedPrice, p.Rating, p.ReviewsCount, p.Brand,
			created.UTC(), now,
		); err != nil {
			return 0, fmt.Errorf("storage: upsert wb_id %d: %w", p.WBID, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: commit: %w", err)
	}
	return written, nil
}

// List returns the products matching filter in the requested order.
func (s *SQLStore) List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	query, args, err := buildListSQL(filter)
	if err != nil {
		return nil, err
	}

	products := make([]*models.Product, 0)
	if err := s.db.SelectContext(ctx, &products, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return products, nil
}

// FetchAll retrieves all stored products, used by the insight service.
func (s *SQLStore) FetchAll(ctx context.Context) ([]*models.Product, error) {
	products := make([]*models.Product, 0)
	err := s.db.SelectContext(ctx, &products, "SELECT "+productColumns+" FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("storage: fetch all: %w", err)
	}
	return products, nil
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
