package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// MovementFilter filtra el listado del libro de movimientos.
type MovementFilter struct {
	CompanyID string
	BranchID  string
	ProductID string
	Kind      string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// MovementRepository define el puerto del libro de movimientos (solo inserción).
type MovementRepository interface {
	Append(ctx context.Context, movement *entity.StockMovement) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	// SumDeltas devuelve SUM(quantity_delta) por línea de la empresa (y sucursal si no es vacía).
	SumDeltas(ctx context.Context, companyID, branchID string) (map[entity.StockKey]int64, error)
}
