package repository

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// SupplierRepository define el puerto de lectura para proveedores.
type SupplierRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
}
