package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase representa una compra a proveedor que repone stock en una sucursal.
type Purchase struct {
	ID         string
	CompanyID  string
	BranchID   string
	SupplierID string
	Date       time.Time
	CreatedBy  string
	TotalCost  decimal.Decimal
	Items      []PurchaseItem
}

// PurchaseItem es una línea de la compra.
type PurchaseItem struct {
	ID         string
	PurchaseID string
	ProductID  string
	Quantity   int64
	UnitCost   decimal.Decimal
}
