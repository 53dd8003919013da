package inventory

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error (o hace panic) la transacción se revierte y se liberan los bloqueos.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.TxRepositories) error) error
}

// StockCache guarda lecturas de stock por (empresa, sucursal). Sucursal vacía = toda la empresa.
// Get devuelve la generación vigente de la empresa y Set escribe bajo esa generación:
// una lectura que empezó antes de Invalidate no queda visible después.
type StockCache interface {
	Get(ctx context.Context, companyID, branchID string) (lines []*entity.StockLine, gen int64, hit bool, err error)
	Set(ctx context.Context, companyID, branchID string, gen int64, lines []*entity.StockLine) error
	Invalidate(ctx context.Context, companyID string) error
}

// LowStockAlert describe una línea que quedó en o bajo su punto de reorden tras un lote.
type LowStockAlert struct {
	CompanyID     string `json:"company_id"`
	BranchID      string `json:"branch_id"`
	ProductID     string `json:"product_id"`
	Quantity      int64  `json:"quantity"`
	ReorderPoint  int64  `json:"reorder_point"`
	TransactionID string `json:"transaction_id"`
}

// LowStockNotifier publica alertas de stock bajo después del commit.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, alerts []LowStockAlert) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, string, string) ([]*entity.StockLine, int64, bool, error) {
	return nil, 0, false, nil
}
func (noopCache) Set(context.Context, string, string, int64, []*entity.StockLine) error { return nil }
func (noopCache) Invalidate(context.Context, string) error                             { return nil }

type noopNotifier struct{}

func (noopNotifier) NotifyLowStock(context.Context, []LowStockAlert) error { return nil }
