package repository

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// ProductRepository define el puerto de lectura del catálogo de productos.
// GetByID devuelve (nil, nil) si el producto no existe.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByCompanyAndSKU(ctx context.Context, companyID, sku string) (*entity.Product, error)
}
