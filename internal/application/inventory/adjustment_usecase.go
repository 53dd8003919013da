package inventory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// AdjustmentUseCase agrupa los ajustes manuales de cantidad y de punto de reorden.
type AdjustmentUseCase struct {
	exec     *Executor
	scope    *TenantScope
	txRunner TxRunner
	cache    StockCache
	log      zerolog.Logger
}

// NewAdjustmentUseCase construye el caso de uso. cache puede ser nil.
func NewAdjustmentUseCase(exec *Executor, scope *TenantScope, txRunner TxRunner, cache StockCache, log zerolog.Logger) *AdjustmentUseCase {
	if cache == nil {
		cache = noopCache{}
	}
	return &AdjustmentUseCase{
		exec:     exec,
		scope:    scope,
		txRunner: txRunner,
		cache:    cache,
		log:      log.With().Str("component", "stock_adjustment").Logger(),
	}
}

// AdjustmentInput entrada de SubmitAdjustment. Delta con signo, nunca 0.
type AdjustmentInput struct {
	CompanyID string
	BranchID  string
	ProductID string
	Delta     int64
	Reason    string
	ActorID   string
}

// AdjustmentResult es el resultado de un ajuste confirmado.
type AdjustmentResult struct {
	TransactionID string
	NewQuantity   int64
	Movement      *entity.StockMovement
}

// SubmitAdjustment aplica un ajuste manual de una línea a través del Executor.
func (uc *AdjustmentUseCase) SubmitAdjustment(ctx context.Context, in AdjustmentInput) (*AdjustmentResult, error) {
	res, err := uc.exec.Execute(ctx, Batch{
		Kind:      inventory.BatchAdjustment,
		CompanyID: in.CompanyID,
		BranchID:  in.BranchID,
		ActorID:   in.ActorID,
		Reason:    in.Reason,
		Lines:     []inventory.Line{{ProductID: in.ProductID, Quantity: in.Delta}},
	}, nil)
	if err != nil {
		return nil, err
	}
	return &AdjustmentResult{
		TransactionID: res.TransactionID,
		NewQuantity:   res.Lines[0].Quantity,
		Movement:      res.Movements[0],
	}, nil
}

// SetReorderPoint fija el punto de reorden de una línea (la crea en 0 si no existe).
// No cambia la cantidad ni escribe movimientos.
func (uc *AdjustmentUseCase) SetReorderPoint(ctx context.Context, companyID, branchID, productID string, value int64) (*entity.StockLine, error) {
	if value < 0 {
		return nil, domain.ErrInvalidInput
	}
	if _, err := uc.scope.CheckBranch(ctx, companyID, branchID); err != nil {
		return nil, err
	}
	if _, err := uc.scope.CheckProducts(ctx, companyID, branchID, []string{productID}); err != nil {
		return nil, err
	}

	key := entity.StockKey{CompanyID: companyID, BranchID: branchID, ProductID: productID}
	var line *entity.StockLine
	err := uc.txRunner.Run(ctx, func(repos repository.TxRepositories) error {
		l, err := repos.Stock.LockForUpdate(ctx, key, true)
		if err != nil {
			return err
		}
		if err := repos.Stock.UpdateReorderPoint(ctx, key, value); err != nil {
			return err
		}
		l.ReorderPoint = value
		line = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := uc.cache.Invalidate(ctx, companyID); err != nil {
		uc.log.Warn().Err(err).Str("company_id", companyID).Msg("no se pudo invalidar caché de stock")
	}
	return line, nil
}
