package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementPurchase = "PURCHASE" // compra
	MovementSale     = "SALE"     // venta (POS o checkout)
	MovementAdjust   = "ADJUST"   // ajuste manual
)

// StockMovement es un registro inmutable del libro de inventario.
// Nunca se actualiza ni se elimina.
type StockMovement struct {
	ID            string
	CompanyID     string
	BranchID      string
	ProductID     string
	TransactionID string // ID de la compra/venta/orden que lo originó
	Kind          string
	QuantityDelta int64 // positivo reposición, negativo salida
	Reason        string
	CreatedAt     time.Time
	CreatedBy     string // vacío = actor eliminado o desconocido (NULL)
}

// Key devuelve la clave de la línea de stock afectada.
func (m *StockMovement) Key() StockKey {
	return StockKey{CompanyID: m.CompanyID, BranchID: m.BranchID, ProductID: m.ProductID}
}
