package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// AddToCartRequest body para POST /api/shop/cart. quantity reemplaza la cantidad previa.
type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// CartItemResponse ítem del carrito valorizado al precio de lista.
type CartItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CartResponse carrito del usuario.
type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

// CheckoutRequest body para POST /api/shop/checkout. Sin líneas se usa el carrito.
type CheckoutRequest struct {
	BranchID      string             `json:"branch_id"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	Lines         []BatchLineRequest `json:"lines,omitempty"`
}

// OrderResponse orden creada en el checkout.
type OrderResponse struct {
	ID            string          `json:"id"`
	BranchID      string          `json:"branch_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []ItemResponse  `json:"items"`
}

// OrderFrom arma la respuesta de una orden.
func OrderFrom(o *entity.Order) OrderResponse {
	items := make([]ItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemResponse{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, UnitValue: it.UnitPrice})
	}
	return OrderResponse{
		ID:            o.ID,
		BranchID:      o.BranchID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Status:        o.Status,
		Total:         o.Total,
		CreatedAt:     o.CreatedAt,
		Items:         items,
	}
}
