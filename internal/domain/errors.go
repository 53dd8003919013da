package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidReference  = errors.New("referencia inválida")
	ErrEmptyBatch        = errors.New("lote sin líneas válidas")
	ErrLockTimeout       = errors.New("tiempo de espera de bloqueo agotado")
)

// StockError acompaña a un error de dominio con la entidad que lo provocó,
// para que el llamador pueda construir el mensaje al usuario.
// errors.Is(err, domain.ErrInsufficientStock) funciona a través de Unwrap.
type StockError struct {
	Kind      error
	BranchID  string
	ProductID string
	Available int64
	Requested int64
	Detail    string
}

func (e *StockError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.ProductID != "" {
		fmt.Fprintf(&b, ": producto %s", e.ProductID)
	}
	if e.BranchID != "" {
		fmt.Fprintf(&b, " en sucursal %s", e.BranchID)
	}
	if errors.Is(e.Kind, ErrInsufficientStock) {
		fmt.Fprintf(&b, " (disponible %d, solicitado %d)", e.Available, e.Requested)
	}
	if e.Detail != "" {
		b.WriteString(" - ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *StockError) Unwrap() error { return e.Kind }

// InvalidReference construye un ErrInvalidReference con la entidad ofensora.
func InvalidReference(branchID, productID, detail string) error {
	return &StockError{Kind: ErrInvalidReference, BranchID: branchID, ProductID: productID, Detail: detail}
}

// InsufficientStock construye un ErrInsufficientStock para una línea de stock.
func InsufficientStock(branchID, productID string, available, requested int64) error {
	return &StockError{
		Kind:      ErrInsufficientStock,
		BranchID:  branchID,
		ProductID: productID,
		Available: available,
		Requested: requested,
	}
}
