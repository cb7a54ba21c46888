// Package memory provides an in-memory implementation of ordering.Store
// intended for unit tests and local development. Do NOT use in production.
//
// Transactions are snapshot-based: WithinTx runs against a copy of the
// state and only swaps it in on success, so rollback semantics match the
// SQLite store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jcmexdev/bookshop/internal/ordering"
	"github.com/jcmexdev/bookshop/internal/ordering/domain"
)

// Store is the in-memory implementation of ordering.Store.
type Store struct {
	mu sync.RWMutex
	st state
}

var _ ordering.Store = (*Store)(nil)

// NewStore returns an empty store pre-loaded with the given books.
func NewStore(books ...domain.Book) *Store {
	s := &Store{st: newState()}
	for _, b := range books {
		s.st.books[b.ID] = b
	}
	return s
}

// ReplaceBook overwrites a catalog entry. Books are owned by the catalog
// subsystem, so this is not part of the ordering port; it exists so tests
// and local setups can adjust prices and stock.
func (s *Store) ReplaceBook(book domain.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.books[book.ID] = book
}

func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetBook(ctx, id)
}

func (s *Store) ListBooks(ctx context.Context) ([]domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListBooks(ctx)
}

func (s *Store) UpdateBookStock(ctx context.Context, id string, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateBookStock(ctx, id, stock)
}

func (s *Store) SaveOrder(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.SaveOrder(ctx, order)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetOrder(ctx, id)
}

func (s *Store) GetOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetOrderItems(ctx, orderID)
}

// WithinTx runs fn against a snapshot of the state. The snapshot replaces
// the live state only if fn succeeds; on error every write fn performed is
// discarded.
func (s *Store) WithinTx(ctx context.Context, fn func(ordering.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(snapshot); err != nil {
		return err
	}
	s.st = snapshot
	return nil
}

// state holds the actual maps and implements ordering.Repository without
// locking; Store and WithinTx take care of synchronisation.
type state struct {
	books  map[string]domain.Book
	orders map[string]domain.Order // stored without items
	items  map[string][]domain.OrderItem
}

var _ ordering.Repository = state{}

func newState() state {
	return state{
		books:  make(map[string]domain.Book),
		orders: make(map[string]domain.Order),
		items:  make(map[string][]domain.OrderItem),
	}
}

func (st state) clone() state {
	c := newState()
	for id, b := range st.books {
		c.books[id] = b
	}
	for id, o := range st.orders {
		c.orders[id] = o
	}
	for id, items := range st.items {
		c.items[id] = append([]domain.OrderItem(nil), items...)
	}
	return c
}

func (st state) GetBook(_ context.Context, id string) (*domain.Book, error) {
	b, ok := st.books[id]
	if !ok {
		return nil, fmt.Errorf("memory: book %q: %w", id, domain.ErrBookNotFound)
	}
	return &b, nil
}

func (st state) ListBooks(_ context.Context) ([]domain.Book, error) {
	out := make([]domain.Book, 0, len(st.books))
	for _, b := range st.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (st state) UpdateBookStock(_ context.Context, id string, stock int) error {
	b, ok := st.books[id]
	if !ok {
		return fmt.Errorf("memory: book %q: %w", id, domain.ErrBookNotFound)
	}
	b.Stock = stock
	st.books[id] = b
	return nil
}

func (st state) SaveOrder(_ context.Context, order *domain.Order) error {
	stored := *order
	stored.Items = nil
	st.orders[order.ID] = stored
	st.items[order.ID] = append([]domain.OrderItem(nil), order.Items...)
	return nil
}

func (st state) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	o, ok := st.orders[id]
	if !ok {
		return nil, fmt.Errorf("memory: order %q: %w", id, domain.ErrOrderNotFound)
	}
	o.Items = append([]domain.OrderItem(nil), st.items[id]...)
	return &o, nil
}

func (st state) GetOrderItems(_ context.Context, orderID string) ([]domain.OrderItem, error) {
	return append([]domain.OrderItem(nil), st.items[orderID]...), nil
}
