package ordering

import (
	"context"

	"github.com/jcmexdev/bookshop/internal/ordering/domain"
)

// Repository is the narrow data-access port the ordering rules run against.
// The service depends on this abstraction, not on SQLite directly, so it
// can be backed by the in-memory store in tests and local development.
type Repository interface {
	// GetBook returns the book with the given ID, or an error wrapping
	// domain.ErrBookNotFound.
	GetBook(ctx context.Context, id string) (*domain.Book, error)

	// ListBooks returns the whole catalog, ordered by ID.
	ListBooks(ctx context.Context) ([]domain.Book, error)

	// UpdateBookStock persists a new stock level for a book.
	UpdateBookStock(ctx context.Context, id string, stock int) error

	// SaveOrder persists an order together with its items.
	SaveOrder(ctx context.Context, order *domain.Order) error

	// GetOrder returns the order with its items attached, or an error
	// wrapping domain.ErrOrderNotFound.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// GetOrderItems returns the persisted items belonging to an order.
	// This is the authoritative item list used for total calculation.
	GetOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error)
}

// Store is a Repository that can additionally run a function inside one
// atomic transaction. Everything fn does through the passed Repository is
// committed together or rolled back together — this is what makes the
// stock decrement batch all-or-nothing.
type Store interface {
	Repository

	WithinTx(ctx context.Context, fn func(Repository) error) error
}
