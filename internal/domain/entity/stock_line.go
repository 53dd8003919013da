package entity

import "time"

// StockKey identifica una línea de stock: (empresa, sucursal, producto).
type StockKey struct {
	CompanyID string
	BranchID  string
	ProductID string
}

// Less ordena por (sucursal, producto). Es el orden en que el motor toma los bloqueos.
func (k StockKey) Less(o StockKey) bool {
	if k.BranchID != o.BranchID {
		return k.BranchID < o.BranchID
	}
	return k.ProductID < o.ProductID
}

// StockLine es el stock actual de un producto en una sucursal.
// Es una proyección del libro de movimientos: Quantity == SUM(StockMovement.QuantityDelta).
type StockLine struct {
	CompanyID    string
	BranchID     string
	ProductID    string
	Quantity     int64 // nunca negativo
	ReorderPoint int64 // 0 = sin punto de reorden
	UpdatedAt    time.Time
}

// Key devuelve la clave de la línea.
func (s *StockLine) Key() StockKey {
	return StockKey{CompanyID: s.CompanyID, BranchID: s.BranchID, ProductID: s.ProductID}
}

// BelowReorderPoint indica si la línea está en o bajo su punto de reorden.
func (s *StockLine) BelowReorderPoint() bool {
	return s.ReorderPoint > 0 && s.Quantity <= s.ReorderPoint
}
