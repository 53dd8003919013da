package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
)

// BatchLineRequest línea de un lote. unit_value es costo (compras) o precio (ventas).
type BatchLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitValue decimal.Decimal `json:"unit_value"`
}

// ToLines convierte las líneas del request al tipo del dominio.
func ToLines(in []BatchLineRequest) []inventory.Line {
	out := make([]inventory.Line, 0, len(in))
	for _, l := range in {
		out = append(out, inventory.Line{ProductID: l.ProductID, Quantity: l.Quantity, UnitValue: l.UnitValue})
	}
	return out
}

// PurchaseRequest body para POST /api/inventory/purchases.
type PurchaseRequest struct {
	BranchID   string             `json:"branch_id"`
	SupplierID string             `json:"supplier_id"`
	Lines      []BatchLineRequest `json:"lines"`
}

// SaleRequest body para POST /api/inventory/sales.
type SaleRequest struct {
	BranchID      string             `json:"branch_id"`
	PaymentMethod string             `json:"payment_method,omitempty"`
	Lines         []BatchLineRequest `json:"lines"`
}

// AdjustmentRequest body para POST /api/inventory/adjust. delta con signo.
type AdjustmentRequest struct {
	BranchID  string `json:"branch_id"`
	ProductID string `json:"product_id"`
	Delta     int64  `json:"delta"`
	Reason    string `json:"reason,omitempty"`
}

// ReorderPointRequest body para PUT /api/inventory/reorder-point.
type ReorderPointRequest struct {
	BranchID     string `json:"branch_id"`
	ProductID    string `json:"product_id"`
	ReorderPoint int64  `json:"reorder_point"`
}

// ItemResponse línea de una compra, venta u orden.
type ItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitValue decimal.Decimal `json:"unit_value"`
}

// PurchaseResponse compra confirmada.
type PurchaseResponse struct {
	ID         string          `json:"id"`
	BranchID   string          `json:"branch_id"`
	SupplierID string          `json:"supplier_id"`
	Date       time.Time       `json:"date"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Items      []ItemResponse  `json:"items"`
}

// PurchaseFrom arma la respuesta de una compra.
func PurchaseFrom(p *entity.Purchase) PurchaseResponse {
	items := make([]ItemResponse, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, ItemResponse{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, UnitValue: it.UnitCost})
	}
	return PurchaseResponse{ID: p.ID, BranchID: p.BranchID, SupplierID: p.SupplierID, Date: p.Date, TotalCost: p.TotalCost, Items: items}
}

// SaleResponse venta confirmada.
type SaleResponse struct {
	ID            string          `json:"id"`
	BranchID      string          `json:"branch_id"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []ItemResponse  `json:"items"`
}

// SaleFrom arma la respuesta de una venta.
func SaleFrom(s *entity.Sale) SaleResponse {
	items := make([]ItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, ItemResponse{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, UnitValue: it.UnitPrice})
	}
	return SaleResponse{ID: s.ID, BranchID: s.BranchID, PaymentMethod: s.PaymentMethod, Total: s.Total, CreatedAt: s.CreatedAt, Items: items}
}

// AdjustmentResponse resultado de un ajuste.
type AdjustmentResponse struct {
	TransactionID string `json:"transaction_id"`
	NewQuantity   int64  `json:"new_quantity"`
}

// StockLineResponse stock actual de un producto en una sucursal.
type StockLineResponse struct {
	BranchID     string    `json:"branch_id"`
	ProductID    string    `json:"product_id"`
	Quantity     int64     `json:"quantity"`
	ReorderPoint int64     `json:"reorder_point"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StockLineFrom arma la respuesta de una línea de stock.
func StockLineFrom(l *entity.StockLine) StockLineResponse {
	return StockLineResponse{
		BranchID:     l.BranchID,
		ProductID:    l.ProductID,
		Quantity:     l.Quantity,
		ReorderPoint: l.ReorderPoint,
		UpdatedAt:    l.UpdatedAt,
	}
}

// StockLinesFrom arma la respuesta de un listado de stock.
func StockLinesFrom(lines []*entity.StockLine) []StockLineResponse {
	out := make([]StockLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, StockLineFrom(l))
	}
	return out
}

// MovementResponse registro del libro de movimientos.
type MovementResponse struct {
	ID            string    `json:"id"`
	BranchID      string    `json:"branch_id"`
	ProductID     string    `json:"product_id"`
	TransactionID string    `json:"transaction_id"`
	Kind          string    `json:"kind"`
	QuantityDelta int64     `json:"quantity_delta"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by,omitempty"`
}

// MovementsFrom arma la respuesta del libro.
func MovementsFrom(movs []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, MovementResponse{
			ID:            m.ID,
			BranchID:      m.BranchID,
			ProductID:     m.ProductID,
			TransactionID: m.TransactionID,
			Kind:          m.Kind,
			QuantityDelta: m.QuantityDelta,
			Reason:        m.Reason,
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
		})
	}
	return out
}

// MovementListResponse página del libro de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// LowStockResponse línea bajo el punto de reorden con la reposición sugerida.
type LowStockResponse struct {
	BranchID           string          `json:"branch_id"`
	ProductID          string          `json:"product_id"`
	SKU                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	CurrentStock       int64           `json:"current_stock"`
	ReorderPoint       int64           `json:"reorder_point"`
	IdealStock         int64           `json:"ideal_stock"`         // ceil(ReorderPoint * 1.5)
	SuggestedOrderQty  int64           `json:"suggested_order_qty"` // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
	Priority           int             `json:"priority"` // 1 = más urgente
}

// DiscrepancyResponse línea cuya cantidad no coincide con la suma del libro.
type DiscrepancyResponse struct {
	BranchID  string `json:"branch_id"`
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	LedgerSum int64  `json:"ledger_sum"`
}

// DiscrepanciesFrom arma la respuesta de una conciliación.
func DiscrepanciesFrom(diffs []inventory.Discrepancy) []DiscrepancyResponse {
	out := make([]DiscrepancyResponse, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, DiscrepancyResponse{
			BranchID:  d.Key.BranchID,
			ProductID: d.Key.ProductID,
			Quantity:  d.Quantity,
			LedgerSum: d.LedgerSum,
		})
	}
	return out
}
