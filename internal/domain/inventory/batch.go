package inventory

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// BatchKind es el tipo de operación que agrupa líneas de stock en una sola transacción.
type BatchKind string

// Tipos de lote soportados por el motor.
const (
	BatchPurchase   BatchKind = "PURCHASE"
	BatchSale       BatchKind = "SALE"
	BatchCheckout   BatchKind = "CHECKOUT"
	BatchAdjustment BatchKind = "ADJUSTMENT"
)

// Valid indica si el tipo de lote es conocido.
func (k BatchKind) Valid() bool {
	switch k {
	case BatchPurchase, BatchSale, BatchCheckout, BatchAdjustment:
		return true
	}
	return false
}

// MovementKind devuelve el tipo de movimiento que se escribe en el libro.
// El checkout se registra como venta.
func (k BatchKind) MovementKind() string {
	switch k {
	case BatchPurchase:
		return entity.MovementPurchase
	case BatchSale, BatchCheckout:
		return entity.MovementSale
	default:
		return entity.MovementAdjust
	}
}

// DefaultReason es el motivo que se guarda cuando el llamador no entrega uno.
func (k BatchKind) DefaultReason() string {
	switch k {
	case BatchPurchase:
		return "Compra"
	case BatchSale:
		return "Venta"
	case BatchCheckout:
		return "Checkout"
	default:
		return "Ajuste"
	}
}

// Delta convierte la cantidad de una línea en la variación con signo del stock.
// En ajustes la cantidad ya viene con signo.
func (k BatchKind) Delta(quantity int64) int64 {
	switch k {
	case BatchSale, BatchCheckout:
		return -quantity
	default:
		return quantity
	}
}

// Line es una línea de un lote: producto, cantidad y valor unitario (costo o precio).
type Line struct {
	ProductID string
	Quantity  int64
	UnitValue decimal.Decimal
}

// PlannedLine es una línea validada con su clave de stock y su delta con signo.
type PlannedLine struct {
	Index int // posición original en el lote
	Key   entity.StockKey
	Delta int64
	Line  Line
}

// ValidateLine rechaza líneas mal formadas: cantidad 0, cantidades negativas en
// compras/ventas y valores unitarios negativos.
func ValidateLine(kind BatchKind, branchID string, line Line) error {
	if line.ProductID == "" {
		return domain.InvalidReference(branchID, "", "línea sin producto")
	}
	if line.Quantity == 0 {
		return domain.InvalidReference(branchID, line.ProductID, "cantidad 0")
	}
	if kind != BatchAdjustment && line.Quantity < 0 {
		return domain.InvalidReference(branchID, line.ProductID, "cantidad negativa")
	}
	if line.UnitValue.IsNegative() {
		return domain.InvalidReference(branchID, line.ProductID, "valor unitario negativo")
	}
	return nil
}

// Plan valida las líneas y las devuelve ordenadas por (sucursal, producto).
// Ese orden es el orden de adquisición de bloqueos: dos lotes que tocan las mismas
// líneas las bloquean siempre en la misma secuencia y no pueden quedar en espera circular.
func Plan(companyID, branchID string, kind BatchKind, lines []Line) ([]PlannedLine, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if companyID == "" || branchID == "" {
		return nil, domain.InvalidReference(branchID, "", "empresa o sucursal vacía")
	}
	planned := make([]PlannedLine, 0, len(lines))
	for i, l := range lines {
		if err := ValidateLine(kind, branchID, l); err != nil {
			return nil, err
		}
		planned = append(planned, PlannedLine{
			Index: i,
			Key:   entity.StockKey{CompanyID: companyID, BranchID: branchID, ProductID: l.ProductID},
			Delta: kind.Delta(l.Quantity),
			Line:  l,
		})
	}
	sort.SliceStable(planned, func(i, j int) bool {
		return planned[i].Key.Less(planned[j].Key)
	})
	return planned, nil
}

// Total suma cantidad × valor unitario de todas las líneas (cantidades en valor absoluto).
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		q := l.Quantity
		if q < 0 {
			q = -q
		}
		total = total.Add(l.UnitValue.Mul(decimal.NewFromInt(q)))
	}
	return total
}

// ApplyDelta devuelve la nueva cantidad. Falla con ErrInsufficientStock si quedaría negativa
// y con ErrInvalidInput si supera math.MaxInt64.
func ApplyDelta(current, delta int64) (int64, error) {
	if delta > 0 && current > math.MaxInt64-delta {
		return current, domain.ErrInvalidInput
	}
	next := current + delta
	if next < 0 {
		return current, domain.ErrInsufficientStock
	}
	return next, nil
}
