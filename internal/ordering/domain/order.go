package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the aggregate root. Total is derived: it always equals the sum
// of the net amounts of the order's persisted items and is recomputed on
// every read rather than trusted from storage.
type Order struct {
	ID        string
	Items     []OrderItem
	Total     decimal.Decimal
	CreatedAt time.Time
}

// OrderItem is one line of an order. NetAmount is derived from the
// referenced book's current price and is never independently settable.
type OrderItem struct {
	BookID    string
	Amount    int
	NetAmount decimal.Decimal
}

// NetAmountAt returns price * amount with exact decimal arithmetic.
func (i OrderItem) NetAmountAt(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(i.Amount)))
}

// ValidateItems rejects items that could never be fulfilled regardless of
// catalog state. Stock availability is checked later, inside the
// transaction, because it depends on data.
func ValidateItems(items []OrderItem) error {
	for _, it := range items {
		if it.BookID == "" || it.Amount <= 0 {
			return fmt.Errorf("book %q amount %d: %w", it.BookID, it.Amount, ErrInvalidItem)
		}
	}
	return nil
}

// SumNetAmounts adds up the items' net amounts. An empty slice yields zero.
func SumNetAmounts(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.NetAmount)
	}
	return total
}
