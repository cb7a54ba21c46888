package domain

import "github.com/shopspring/decimal"

// Book is a catalog entry. Books are owned by the catalog; the ordering
// core only ever decrements Stock, it never creates or deletes books.
type Book struct {
	ID    string
	Title string
	Price decimal.Decimal
	Stock int
}
