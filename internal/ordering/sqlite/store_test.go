package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/bookshop/internal/ordering"
	"github.com/jcmexdev/bookshop/internal/ordering/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "bookshop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestOpen_SeedsCatalog(t *testing.T) {
	store := openTestStore(t)

	book, err := store.GetBook(context.Background(), "201")
	require.NoError(t, err)
	assert.Equal(t, "Wuthering Heights", book.Title)
	assert.True(t, book.Price.Equal(dec(t, "11.11")))
	assert.Equal(t, 12, book.Stock)

	books, err := store.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 5)
}

func TestGetBook_Unknown(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetBook(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func TestUpdateBookStock(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateBookStock(ctx, "201", 7))

	book, err := store.GetBook(ctx, "201")
	require.NoError(t, err)
	assert.Equal(t, 7, book.Stock)

	assert.ErrorIs(t, store.UpdateBookStock(ctx, "no-such-id", 1), domain.ErrBookNotFound)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sentinel := errors.New("late item rejected")

	err := store.WithinTx(ctx, func(r ordering.Repository) error {
		if err := r.UpdateBookStock(ctx, "201", 0); err != nil {
			return err
		}
		if err := r.UpdateBookStock(ctx, "207", 0); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	// Both decrements of the failed batch must be undone.
	for id, want := range map[string]int{"201": 12, "207": 11} {
		book, err := store.GetBook(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, book.Stock, "book %s", id)
	}
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.WithinTx(ctx, func(r ordering.Repository) error {
		return r.UpdateBookStock(ctx, "201", 9)
	})
	require.NoError(t, err)

	book, err := store.GetBook(ctx, "201")
	require.NoError(t, err)
	assert.Equal(t, 9, book.Stock)
}

func TestOrderRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	order := &domain.Order{
		ID: "order-1",
		Items: []domain.OrderItem{
			{BookID: "201", Amount: 3, NetAmount: dec(t, "33.33")},
			{BookID: "207", Amount: 1, NetAmount: dec(t, "12.34")},
		},
		CreatedAt: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.WithinTx(ctx, func(r ordering.Repository) error {
		return r.SaveOrder(ctx, order)
	}))

	got, err := store.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.True(t, got.CreatedAt.Equal(order.CreatedAt))

	require.Len(t, got.Items, 2)
	assert.Equal(t, "201", got.Items[0].BookID)
	assert.Equal(t, 3, got.Items[0].Amount)
	assert.True(t, got.Items[0].NetAmount.Equal(dec(t, "33.33")))

	items, err := store.GetOrderItems(ctx, "order-1")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestGetOrder_Unknown(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestGetOrderItems_NoItems(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveOrder(ctx, &domain.Order{ID: "empty", CreatedAt: time.Now()}))

	items, err := store.GetOrderItems(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, items)
}
