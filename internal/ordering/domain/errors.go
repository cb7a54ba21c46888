package domain

import "errors"

// Sentinel errors for the two business failure modes of order creation.
// The messages are client-facing; the HTTP layer matches on the sentinel
// with errors.Is and maps them to 404 / 400 responses.
var (
	// ErrBookNotFound is returned when an order item references a book ID
	// that does not exist in the catalog.
	ErrBookNotFound = errors.New("book does not exist")

	// ErrInsufficientStock is returned when the requested amount exceeds
	// the book's current stock.
	ErrInsufficientStock = errors.New("not enough books in stock")

	// ErrOrderNotFound is returned when an order ID cannot be resolved.
	ErrOrderNotFound = errors.New("order does not exist")

	// ErrInvalidItem is returned for items with an empty book ID or a
	// non-positive amount.
	ErrInvalidItem = errors.New("order item must reference a book and have a positive amount")
)
