package entity

import "time"

// CartItem es un producto en el carrito de un usuario. Único por (usuario, producto).
type CartItem struct {
	UserID    string
	CompanyID string
	ProductID string
	Quantity  int64
	UpdatedAt time.Time
}
