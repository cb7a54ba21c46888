package ordering

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/bookshop/internal/ordering/domain"
)

// Service implements the ordering business rules: stock-validated order
// creation and derived amount calculation. Persistence, querying and the
// transaction boundary are delegated to the Store.
type Service struct {
	store  Store
	tracer trace.Tracer
}

func NewService(store Store) *Service {
	return &Service{
		store:  store,
		tracer: otel.Tracer("ordering"),
	}
}

// CreateOrder validates stock for every item, decrements it, and persists
// the order — all inside one transaction, so a failure on any item rolls
// back the decrements already applied for earlier items in the same batch.
// On success the returned order carries freshly computed net amounts and
// the total over the persisted items.
func (s *Service) CreateOrder(ctx context.Context, items []domain.OrderItem) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "ordering.CreateOrder",
		trace.WithAttributes(attribute.Int("order.items", len(items))))
	defer span.End()

	if err := domain.ValidateItems(items); err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:        uuid.NewString(),
		Items:     items,
		CreatedAt: time.Now().UTC(),
	}

	err := s.store.WithinTx(ctx, func(r Repository) error {
		if err := validateAndReserve(ctx, r, order.Items); err != nil {
			return err
		}
		// Net amounts are persisted for inspection only; reads always
		// recompute them from the current price.
		if err := computeNetAmounts(ctx, r, order.Items); err != nil {
			return err
		}
		return r.SaveOrder(ctx, order)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := s.computeOrderTotal(ctx, order); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order created",
		"order_id", order.ID, "items", len(order.Items), "total", order.Total)
	return order, nil
}

// GetOrder loads an order and recomputes its derived fields. Nothing is
// mutated on the read path.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "ordering.GetOrder",
		trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.computeOrderTotal(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListBooks exposes the catalog for browsing.
func (s *Service) ListBooks(ctx context.Context) ([]domain.Book, error) {
	return s.store.ListBooks(ctx)
}

// validateAndReserve checks and decrements stock for each item in input
// order. The first failing item aborts the whole batch; the caller's
// transaction is responsible for undoing earlier decrements.
func validateAndReserve(ctx context.Context, r Repository, items []domain.OrderItem) error {
	for _, it := range items {
		book, err := r.GetBook(ctx, it.BookID)
		if err != nil {
			return err
		}

		if book.Stock < it.Amount {
			return fmt.Errorf("book %s: have %d, want %d: %w",
				it.BookID, book.Stock, it.Amount, domain.ErrInsufficientStock)
		}

		if err := r.UpdateBookStock(ctx, it.BookID, book.Stock-it.Amount); err != nil {
			return fmt.Errorf("decrement stock for book %s: %w", it.BookID, err)
		}
	}
	return nil
}

// computeNetAmounts sets each item's net amount to the referenced book's
// current price times the ordered amount.
func computeNetAmounts(ctx context.Context, r Repository, items []domain.OrderItem) error {
	for i := range items {
		book, err := r.GetBook(ctx, items[i].BookID)
		if err != nil {
			return err
		}
		items[i].NetAmount = items[i].NetAmountAt(book.Price)
	}
	return nil
}

// computeOrderTotal fills in the order's derived fields. The expanded
// in-memory item list is recomputed for response shaping, but the total is
// summed over the items re-fetched from storage: those are authoritative,
// the in-memory list may be a partial caller-supplied subset.
func (s *Service) computeOrderTotal(ctx context.Context, order *domain.Order) error {
	if len(order.Items) > 0 {
		if err := computeNetAmounts(ctx, s.store, order.Items); err != nil {
			return err
		}
	}

	persisted, err := s.store.GetOrderItems(ctx, order.ID)
	if err != nil {
		return err
	}
	if err := computeNetAmounts(ctx, s.store, persisted); err != nil {
		return err
	}

	order.Total = domain.SumNetAmounts(persisted)
	return nil
}
