package ordering_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/bookshop/internal/ordering"
	"github.com/jcmexdev/bookshop/internal/ordering/domain"
	"github.com/jcmexdev/bookshop/internal/ordering/memory"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// newCatalog builds a store with the books the scenarios need.
func newCatalog(t *testing.T) *memory.Store {
	t.Helper()
	return memory.NewStore(
		domain.Book{ID: "B1", Title: "Wuthering Heights", Price: dec(t, "12.50"), Stock: 10},
		domain.Book{ID: "B2", Title: "Jane Eyre", Price: dec(t, "12.50"), Stock: 1},
		domain.Book{ID: "B3", Title: "The Raven", Price: dec(t, "13.13"), Stock: 0},
	)
}

func stockOf(t *testing.T, store *memory.Store, id string) int {
	t.Helper()
	book, err := store.GetBook(context.Background(), id)
	require.NoError(t, err)
	return book.Stock
}

func TestCreateOrder_DecrementsStockAndComputesTotals(t *testing.T) {
	store := newCatalog(t)
	svc := ordering.NewService(store)

	order, err := svc.CreateOrder(context.Background(), []domain.OrderItem{
		{BookID: "B1", Amount: 3},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, 7, stockOf(t, store, "B1"))

	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].NetAmount.Equal(dec(t, "37.50")),
		"net amount %s, want 37.50", order.Items[0].NetAmount)
	assert.True(t, order.Total.Equal(dec(t, "37.50")), "total %s, want 37.50", order.Total)
}

func TestCreateOrder_TotalSumsAllItems(t *testing.T) {
	store := newCatalog(t)
	svc := ordering.NewService(store)

	order, err := svc.CreateOrder(context.Background(), []domain.OrderItem{
		{BookID: "B1", Amount: 3}, // 37.50
		{BookID: "B2", Amount: 1}, // 12.50
	})

	require.NoError(t, err)
	assert.True(t, order.Total.Equal(dec(t, "50.00")), "total %s, want 50.00", order.Total)
	assert.Equal(t, 7, stockOf(t, store, "B1"))
	assert.Equal(t, 0, stockOf(t, store, "B2"))
}

func TestCreateOrder_InsufficientStock_NothingChanges(t *testing.T) {
	store := memory.NewStore(
		domain.Book{ID: "B1", Price: dec(t, "12.50"), Stock: 2},
	)
	svc := ordering.NewService(store)

	_, err := svc.CreateOrder(context.Background(), []domain.OrderItem{
		{BookID: "B1", Amount: 5},
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, stockOf(t, store, "B1"))
}

func TestCreateOrder_LateFailureRollsBackEarlierDecrements(t *testing.T) {
	store := newCatalog(t)
	svc := ordering.NewService(store)

	// B1 validates and decrements first; B3 then fails. The transaction
	// must leave B1 untouched.
	_, err := svc.CreateOrder(context.Background(), []domain.OrderItem{
		{BookID: "B1", Amount: 3},
		{BookID: "B3", Amount: 1},
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 10, stockOf(t, store, "B1"))
	assert.Equal(t, 0, stockOf(t, store, "B3"))
}

func TestCreateOrder_UnknownBook(t *testing.T) {
	store := newCatalog(t)
	svc := ordering.NewService(store)

	_, err := svc.CreateOrder(context.Background(), []domain.OrderItem{
		{BookID: "B1", Amount: 1},
		{BookID: "no-such-book", Amount: 1},
	})

	assert.ErrorIs(t, err, domain.ErrBookNotFound)
	assert.Equal(t, 10, stockOf(t, store, "B1"))
}

func TestCreateOrder_InvalidItemRejectedBeforeAnyWrite(t *testing.T) {
	store := newCatalog(t)
	svc := ordering.NewService(store)

	_, err := svc.CreateOrder(context.Background(), []domain.OrderItem{
		{BookID: "B1", Amount: 0},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidItem)
	assert.Equal(t, 10, stockOf(t, store, "B1"))
}

func TestGetOrder_RecomputesFromCurrentPrice(t *testing.T) {
	store := newCatalog(t)
	svc := ordering.NewService(store)

	order, err := svc.CreateOrder(context.Background(), []domain.OrderItem{
		{BookID: "B1", Amount: 2},
	})
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(dec(t, "25.00")))

	// A price change must be reflected on the next read; the persisted
	// net amount is advisory only.
	store.ReplaceBook(domain.Book{ID: "B1", Title: "Wuthering Heights", Price: dec(t, "20.00"), Stock: 8})

	reread, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, reread.Items[0].NetAmount.Equal(dec(t, "40.00")),
		"net amount %s, want 40.00", reread.Items[0].NetAmount)
	assert.True(t, reread.Total.Equal(dec(t, "40.00")), "total %s, want 40.00", reread.Total)
}

func TestGetOrder_TotalComesFromPersistedItems(t *testing.T) {
	store := newCatalog(t)
	svc := ordering.NewService(store)

	// Persist an order with two items directly, bypassing the service.
	order := &domain.Order{
		ID: "order-1",
		Items: []domain.OrderItem{
			{BookID: "B1", Amount: 3},
			{BookID: "B2", Amount: 1},
		},
	}
	require.NoError(t, store.SaveOrder(context.Background(), order))

	got, err := svc.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.True(t, got.Total.Equal(dec(t, "50.00")), "total %s, want 50.00", got.Total)
}

func TestGetOrder_EmptyOrderTotalIsZero(t *testing.T) {
	store := newCatalog(t)
	svc := ordering.NewService(store)

	require.NoError(t, store.SaveOrder(context.Background(), &domain.Order{ID: "empty-order"}))

	got, err := svc.GetOrder(context.Background(), "empty-order")
	require.NoError(t, err)
	assert.True(t, got.Total.IsZero(), "total %s, want 0", got.Total)
	assert.Empty(t, got.Items)
}

func TestGetOrder_Unknown(t *testing.T) {
	svc := ordering.NewService(newCatalog(t))

	_, err := svc.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestListBooks(t *testing.T) {
	svc := ordering.NewService(newCatalog(t))

	books, err := svc.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "B1", books[0].ID)
	assert.Equal(t, "Wuthering Heights", books[0].Title)
}
