// Package sqlite provides the SQLite-backed implementation of
// ordering.Store.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa. All writes for one order creation go through a single transaction
// (WithinTx), which is what guarantees that a rejected item rolls back the
// stock decrements of earlier items in the same batch.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/bookshop/internal/ordering"
	"github.com/jcmexdev/bookshop/internal/ordering/domain"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// which keeps Docker (Alpine) builds simple.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup.
// Prices and net amounts are stored as TEXT holding exact decimal strings;
// SQLite's REAL would reintroduce the float rounding the decimal type is
// there to avoid. net_amount is advisory: reads recompute it from the
// current price instead of trusting the stored value.
const schema = `
CREATE TABLE IF NOT EXISTS books (
    id     TEXT    PRIMARY KEY,
    title  TEXT    NOT NULL DEFAULT '',
    price  TEXT    NOT NULL,
    stock  INTEGER NOT NULL CHECK (stock >= 0)
);

CREATE TABLE IF NOT EXISTS orders (
    id          TEXT PRIMARY KEY,
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id    TEXT    NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    book_id     TEXT    NOT NULL,
    amount      INTEGER NOT NULL CHECK (amount > 0),
    net_amount  TEXT    NOT NULL DEFAULT '0'
);

CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
`

// seed inserts the demo catalog on first start. INSERT OR IGNORE keeps it
// idempotent across restarts; a real deployment would load the catalog
// from the catalog subsystem instead.
const seed = `
INSERT OR IGNORE INTO books (id, title, price, stock) VALUES
    ('201', 'Wuthering Heights', '11.11', 12),
    ('207', 'Jane Eyre',         '12.34', 11),
    ('251', 'The Raven',         '13.13', 333),
    ('252', 'Eleonora',          '14.00', 555),
    ('271', 'Catweazle',         '150.00', 22);
`

// dbtx is the subset of *sql.DB and *sql.Tx the queries need, so the same
// code serves both the autocommit path and WithinTx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite implementation of ordering.Store.
type Store struct {
	queries
	db *sql.DB
}

var _ ordering.Store = (*Store)(nil)

// Open opens (or creates) the database at the given path, applies the
// schema and seeds the catalog.
//
//	store, err := sqlite.Open("./bookshop.db")
func Open(path string) (*Store, error) {
	// WAL enables concurrent readers. foreign_keys enforces the
	// order_items -> orders reference. busy_timeout waits for locks
	// instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// Use "sqlite", not "sqlite3", for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection; serialising
	// through one connection also sidesteps write-write conflicts on the
	// read-modify-write stock update.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{queries: queries{db: db}, db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (s *Store) Close() error {
	return s.db.Close()
}

// WithinTx runs fn inside one transaction. Any error from fn rolls back
// every write fn performed through the passed repository.
func (s *Store) WithinTx(ctx context.Context, fn func(ordering.Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(queries{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// applySchema runs the DDL and seed statements once. Idempotent due to
// IF NOT EXISTS / OR IGNORE.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	if _, err := db.Exec(seed); err != nil {
		return fmt.Errorf("sqlite: seed catalog: %w", err)
	}
	return nil
}

// queries implements ordering.Repository against either the *sql.DB
// (autocommit) or an open *sql.Tx.
type queries struct {
	db dbtx
}

func (q queries) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, title, price, stock FROM books WHERE id = ?`, id)

	var (
		b     domain.Book
		price string
	)
	err := row.Scan(&b.ID, &b.Title, &price, &b.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: book %q: %w", id, domain.ErrBookNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get book %q: %w", id, err)
	}

	if b.Price, err = parseDecimal(price); err != nil {
		return nil, fmt.Errorf("sqlite: book %q price: %w", id, err)
	}
	return &b, nil
}

func (q queries) ListBooks(ctx context.Context) ([]domain.Book, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, title, price, stock FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list books: %w", err)
	}
	defer rows.Close()

	var out []domain.Book
	for rows.Next() {
		var (
			b     domain.Book
			price string
		)
		if err := rows.Scan(&b.ID, &b.Title, &price, &b.Stock); err != nil {
			return nil, fmt.Errorf("sqlite: scan book: %w", err)
		}
		if b.Price, err = parseDecimal(price); err != nil {
			return nil, fmt.Errorf("sqlite: book %q price: %w", b.ID, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (q queries) UpdateBookStock(ctx context.Context, id string, stock int) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE books SET stock = ? WHERE id = ?`, stock, id)
	if err != nil {
		return fmt.Errorf("sqlite: update stock for book %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite: book %q: %w", id, domain.ErrBookNotFound)
	}
	return nil
}

func (q queries) SaveOrder(ctx context.Context, order *domain.Order) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO orders (id, created_at) VALUES (?, ?)`,
		order.ID, formatTime(order.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: save order %q: %w", order.ID, err)
	}

	for _, it := range order.Items {
		_, err := q.db.ExecContext(ctx,
			`INSERT INTO order_items (order_id, book_id, amount, net_amount) VALUES (?, ?, ?, ?)`,
			order.ID, it.BookID, it.Amount, it.NetAmount.String())
		if err != nil {
			return fmt.Errorf("sqlite: save item for order %q: %w", order.ID, err)
		}
	}
	return nil
}

func (q queries) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM orders WHERE id = ?`, id)

	var (
		o         domain.Order
		createdAt string
	)
	err := row.Scan(&o.ID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: order %q: %w", id, domain.ErrOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get order %q: %w", id, err)
	}

	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if o.Items, err = q.GetOrderItems(ctx, id); err != nil {
		return nil, err
	}
	return &o, nil
}

func (q queries) GetOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT book_id, amount, net_amount FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: items for order %q: %w", orderID, err)
	}
	defer rows.Close()

	var out []domain.OrderItem
	for rows.Next() {
		var (
			it  domain.OrderItem
			net string
		)
		if err := rows.Scan(&it.BookID, &it.Amount, &net); err != nil {
			return nil, fmt.Errorf("sqlite: scan item for order %q: %w", orderID, err)
		}
		if it.NetAmount, err = parseDecimal(net); err != nil {
			return nil, fmt.Errorf("sqlite: item net amount for order %q: %w", orderID, err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}
