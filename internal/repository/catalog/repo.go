// Package catalog is the SQLite-backed product catalog. Nested JSON fields are
// decoded here, once, so consumers receive fully typed products.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/db/sqlite"
	"github.com/kailas-cloud/chatsearch/internal/domain"
)

// DefaultScanLimit bounds a catalog scan when the caller passes no limit.
const DefaultScanLimit = 150

const schema = `CREATE TABLE IF NOT EXISTS products (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	category       TEXT NOT NULL DEFAULT '',
	sku            TEXT NOT NULL DEFAULT '',
	price          TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	stock_quantity INTEGER NULL,
	details        TEXT NOT NULL DEFAULT '',
	pricing        TEXT NOT NULL DEFAULT '',
	related        TEXT NOT NULL DEFAULT ''
)`

const columns = `id, name, category, sku, price, description, stock_quantity, details, pricing, related`

type productRow struct {
	ID            string        `db:"id"`
	Name          string        `db:"name"`
	Category      string        `db:"category"`
	SKU           string        `db:"sku"`
	Price         string        `db:"price"`
	Description   string        `db:"description"`
	StockQuantity sql.NullInt64 `db:"stock_quantity"`
	Details       string        `db:"details"`
	Pricing       string        `db:"pricing"`
	Related       string        `db:"related"`
}

// Repo reads and writes catalog products.
type Repo struct {
	conn   *sqlx.DB
	logger *zap.Logger
}

// New creates a catalog repository over an open connection.
func New(conn *sqlx.DB, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{conn: conn, logger: logger}
}

// EnsureSchema creates the products table if it does not exist.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	return sqlite.Migrate(ctx, r.conn, schema)
}

// GetProduct loads a product by id.
func (r *Repo) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	err := r.conn.GetContext(ctx, &row, `SELECT `+columns+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	p := r.toDomain(row)
	return &p, nil
}

// ScanCatalog returns up to limit products ordered by id.
func (r *Repo) ScanCatalog(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = DefaultScanLimit
	}

	var rows []productRow
	if err := r.conn.SelectContext(ctx, &rows,
		`SELECT `+columns+` FROM products ORDER BY id LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("scan catalog: %w", err)
	}

	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.toDomain(row))
	}
	return out, nil
}

// Count returns the number of catalog products.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// Ping verifies the connection.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping catalog: %w", err)
	}
	return nil
}

// Upsert inserts or replaces products in a single transaction.
func (r *Repo) Upsert(ctx context.Context, products ...domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := r.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const stmt = `INSERT INTO products (` + columns + `)
		VALUES (:id, :name, :category, :sku, :price, :description, :stock_quantity, :details, :pricing, :related)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			sku = excluded.sku,
			price = excluded.price,
			description = excluded.description,
			stock_quantity = excluded.stock_quantity,
			details = excluded.details,
			pricing = excluded.pricing,
			related = excluded.related`

	for i := range products {
		if products[i].ID == "" {
			return fmt.Errorf("upsert [%d]: product id is required", i)
		}
		if _, err := tx.NamedExecContext(ctx, stmt, fromDomain(products[i])); err != nil {
			return fmt.Errorf("upsert %s: %w", products[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func (r *Repo) toDomain(row productRow) domain.Product {
	p := domain.Product{
		ID:          row.ID,
		Name:        row.Name,
		Category:    row.Category,
		SKU:         row.SKU,
		Price:       row.Price,
		Description: row.Description,
		Details:     domain.ParseNested[map[string]domain.DetailValue](row.Details),
		Pricing:     domain.ParseNested[[]domain.PriceTier](row.Pricing),
	}
	if row.StockQuantity.Valid {
		q := int(row.StockQuantity.Int64)
		p.StockQuantity = &q
	}
	if related := domain.ParseNested[[]string](row.Related); related.IsParsed() {
		p.Related = related.Value
	}
	if p.Details.Kind == domain.NestedRaw || p.Pricing.Kind == domain.NestedRaw {
		r.logger.Debug("malformed nested catalog field kept raw", zap.String("product_id", row.ID))
	}
	return p
}

func fromDomain(p domain.Product) productRow {
	row := productRow{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		SKU:         p.SKU,
		Price:       p.Price,
		Description: p.Description,
		Details:     p.Details.Encode(),
		Pricing:     p.Pricing.Encode(),
	}
	if p.StockQuantity != nil {
		row.StockQuantity = sql.NullInt64{Int64: int64(*p.StockQuantity), Valid: true}
	}
	if len(p.Related) > 0 {
		if data, err := json.Marshal(p.Related); err == nil {
			row.Related = string(data)
		}
	}
	return row
}
