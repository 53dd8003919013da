package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale representa una venta registrada en el punto de venta.
type Sale struct {
	ID            string
	CompanyID     string
	BranchID      string
	SellerID      string
	PaymentMethod string
	Total         decimal.Decimal
	CreatedAt     time.Time
	Items         []SaleItem
}

// SaleItem es una línea de la venta.
type SaleItem struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
}
