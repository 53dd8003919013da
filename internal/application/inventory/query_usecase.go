package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// Límites del listado de movimientos.
const (
	DefaultMovementLimit = 50
	MaxMovementLimit     = 500
)

// QueryUseCase es el lado de lectura del motor: no toma bloqueos y ve estados confirmados.
type QueryUseCase struct {
	scope     *TenantScope
	stock     repository.StockLineRepository
	movements repository.MovementRepository
	cache     StockCache
	log       zerolog.Logger
}

// NewQueryUseCase construye el caso de uso de lectura. cache puede ser nil.
func NewQueryUseCase(
	scope *TenantScope,
	stock repository.StockLineRepository,
	movements repository.MovementRepository,
	cache StockCache,
	log zerolog.Logger,
) *QueryUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	return &QueryUseCase{
		scope:     scope,
		stock:     stock,
		movements: movements,
		cache:     cache,
		log:       log.With().Str("component", "stock_query").Logger(),
	}
}

// QueryStock lista las líneas de stock de la empresa, o de una sucursal si branchID no es vacío.
func (uc *QueryUseCase) QueryStock(ctx context.Context, companyID, branchID string) ([]*entity.StockLine, error) {
	if branchID != "" {
		if _, err := uc.scope.CheckBranch(ctx, companyID, branchID); err != nil {
			return nil, err
		}
	}
	lines, gen, ok, cacheErr := uc.cache.Get(ctx, companyID, branchID)
	if cacheErr != nil {
		uc.log.Warn().Err(cacheErr).Str("company_id", companyID).Msg("lectura de caché de stock falló")
	}
	if ok {
		return lines, nil
	}
	lines, err := uc.stock.List(ctx, repository.StockFilter{CompanyID: companyID, BranchID: branchID})
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	// Sin generación conocida no se cachea.
	if cacheErr == nil {
		if err := uc.cache.Set(ctx, companyID, branchID, gen, lines); err != nil {
			uc.log.Warn().Err(err).Str("company_id", companyID).Msg("escritura de caché de stock falló")
		}
	}
	return lines, nil
}

// ListMovements lista el libro de movimientos de la empresa con filtros y paginación.
func (uc *QueryUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	if filter.CompanyID == "" {
		return nil, domain.ErrInvalidInput
	}
	switch filter.Kind {
	case "", entity.MovementPurchase, entity.MovementSale, entity.MovementAdjust:
	default:
		return nil, domain.ErrInvalidInput
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultMovementLimit
	}
	if filter.Limit > MaxMovementLimit {
		filter.Limit = MaxMovementLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	movs, err := uc.movements.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movs, nil
}

// LowStockItem es una línea en o bajo su punto de reorden con la cantidad sugerida de pedido.
type LowStockItem struct {
	Line               *entity.StockLine
	SKU                string
	ProductName        string
	UnitCost           decimal.Decimal
	IdealStock         int64
	SuggestedOrderQty  int64
	EstimatedOrderCost decimal.Decimal
	Priority           int // 1 = más urgente
}

// LowStock devuelve las líneas bajo punto de reorden, ordenadas por mayor déficit relativo.
func (uc *QueryUseCase) LowStock(ctx context.Context, companyID, branchID string) ([]LowStockItem, error) {
	if branchID != "" {
		if _, err := uc.scope.CheckBranch(ctx, companyID, branchID); err != nil {
			return nil, err
		}
	}
	lines, err := uc.stock.List(ctx, repository.StockFilter{CompanyID: companyID, BranchID: branchID, BelowReorderPoint: true})
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}

	items := make([]LowStockItem, 0, len(lines))
	for _, l := range lines {
		suggested := inventory.SuggestedOrderQty(l)
		item := LowStockItem{
			Line:              l,
			IdealStock:        l.Quantity + suggested,
			SuggestedOrderQty: suggested,
		}
		p, err := uc.scope.Product(ctx, l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if p != nil {
			item.SKU = p.SKU
			item.ProductName = p.Name
			item.UnitCost = p.Cost
			item.EstimatedOrderCost = p.Cost.Mul(decimal.NewFromInt(suggested))
		}
		items = append(items, item)
	}

	// Mayor déficit relativo primero: (rp - qty) / rp. Desempate por producto.
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Line, items[j].Line
		da := (a.ReorderPoint - a.Quantity) * b.ReorderPoint
		db := (b.ReorderPoint - b.Quantity) * a.ReorderPoint
		if da != db {
			return da > db
		}
		return a.Key().Less(b.Key())
	})
	for i := range items {
		items[i].Priority = i + 1
	}
	return items, nil
}

// Reconcile compara cada línea con la suma de su libro. Lista vacía = todo cuadra.
func (uc *QueryUseCase) Reconcile(ctx context.Context, companyID, branchID string) ([]inventory.Discrepancy, error) {
	if branchID != "" {
		if _, err := uc.scope.CheckBranch(ctx, companyID, branchID); err != nil {
			return nil, err
		}
	}
	lines, err := uc.stock.List(ctx, repository.StockFilter{CompanyID: companyID, BranchID: branchID})
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	sums, err := uc.movements.SumDeltas(ctx, companyID, branchID)
	if err != nil {
		return nil, fmt.Errorf("sum movements: %w", err)
	}
	out := inventory.Reconcile(lines, sums)
	if len(out) > 0 {
		uc.log.Warn().Str("company_id", companyID).Int("discrepancies", len(out)).Msg("stock no cuadra con el libro de movimientos")
	}
	return out, nil
}
