package httpx

import (
	"time"

	"github.com/jcmexdev/bookshop/internal/ordering/domain"
)

// Monetary fields are serialised as strings ("37.50") so clients are not
// exposed to float rounding.

type CreateOrderRequest struct {
	Items []CreateOrderItemDTO `json:"items"`
}

type CreateOrderItemDTO struct {
	BookID string `json:"book_id"`
	Amount int    `json:"amount"`
}

type OrderResponse struct {
	ID        string              `json:"id"`
	Total     string              `json:"total"`
	Items     []OrderItemResponse `json:"items"`
	CreatedAt string              `json:"created_at"`
}

type OrderItemResponse struct {
	BookID    string `json:"book_id"`
	Amount    int    `json:"amount"`
	NetAmount string `json:"net_amount"`
}

type BookResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
	Stock int    `json:"stock"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapOrderToResponse(order *domain.Order) OrderResponse {
	return OrderResponse{
		ID:        order.ID,
		Total:     order.Total.String(),
		Items:     mapItems(order.Items),
		CreatedAt: order.CreatedAt.Format(time.RFC3339),
	}
}

func mapItems(items []domain.OrderItem) []OrderItemResponse {
	out := make([]OrderItemResponse, len(items))
	for i, it := range items {
		out[i] = OrderItemResponse{
			BookID:    it.BookID,
			Amount:    it.Amount,
			NetAmount: it.NetAmount.String(),
		}
	}
	return out
}

func mapBooksToResponse(books []domain.Book) []BookResponse {
	out := make([]BookResponse, len(books))
	for i, b := range books {
		out[i] = BookResponse{
			ID:    b.ID,
			Title: b.Title,
			Price: b.Price.String(),
			Stock: b.Stock,
		}
	}
	return out
}
