package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de la tienda online.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
)

// Order representa una orden creada al confirmar el carrito (checkout).
type Order struct {
	ID            string
	CompanyID     string
	BranchID      string
	CustomerName  string
	CustomerEmail string
	Status        string
	Total         decimal.Decimal
	CreatedAt     time.Time
	Items         []OrderItem
}

// OrderItem es una línea de la orden.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
}
