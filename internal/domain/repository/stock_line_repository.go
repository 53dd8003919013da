package repository

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// StockFilter filtra lecturas de líneas de stock. BranchID vacío = todas las sucursales.
type StockFilter struct {
	CompanyID         string
	BranchID          string
	ProductID         string
	BelowReorderPoint bool
}

// StockLineRepository define el puerto del stock actual por (empresa, sucursal, producto).
// Las operaciones de escritura se usan dentro de una transacción (ver TxRepositories).
type StockLineRepository interface {
	// GetOrCreate devuelve la línea o la crea con cantidad 0. Segura ante creaciones concurrentes.
	GetOrCreate(ctx context.Context, key entity.StockKey) (*entity.StockLine, error)
	// LockForUpdate bloquea la línea hasta el fin de la transacción (SELECT FOR UPDATE).
	// Si no existe y create es false devuelve (nil, nil); con create la crea en 0 antes de bloquearla.
	LockForUpdate(ctx context.Context, key entity.StockKey, create bool) (*entity.StockLine, error)
	UpdateQuantity(ctx context.Context, key entity.StockKey, quantity int64) error
	UpdateReorderPoint(ctx context.Context, key entity.StockKey, reorderPoint int64) error
	Get(ctx context.Context, key entity.StockKey) (*entity.StockLine, error)
	List(ctx context.Context, filter StockFilter) ([]*entity.StockLine, error)
}
