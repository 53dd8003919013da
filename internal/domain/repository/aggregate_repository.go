package repository

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// PurchaseRepository persiste compras con sus ítems.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *entity.Purchase) error
}

// SaleRepository persiste ventas con sus ítems.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
}

// OrderRepository persiste órdenes de checkout con sus ítems.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
}

// CartRepository define el puerto del carrito de compras por usuario.
type CartRepository interface {
	Upsert(ctx context.Context, item *entity.CartItem) error
	ListByUser(ctx context.Context, companyID, userID string) ([]*entity.CartItem, error)
	// RemoveItems borra solo las filas que coinciden en producto y cantidad con items;
	// lo que se agregó o cambió después de leer el carrito se conserva.
	RemoveItems(ctx context.Context, companyID, userID string, items []*entity.CartItem) error
}

// TxRepositories agrupa los repositorios atados a una misma transacción.
type TxRepositories struct {
	Stock     StockLineRepository
	Movements MovementRepository
	Purchases PurchaseRepository
	Sales     SaleRepository
	Orders    OrderRepository
	Carts     CartRepository
}
