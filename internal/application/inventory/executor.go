package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

const tracerName = "github.com/jhoicas/stock-engine/internal/application/inventory"

// Batch es un conjunto de líneas que se aplica todo o nada sobre una sucursal.
type Batch struct {
	Kind      inventory.BatchKind
	CompanyID string
	BranchID  string
	ActorID   string
	Reason    string // vacío = motivo por defecto del tipo
	Lines     []inventory.Line
	// CatalogPrice reemplaza el valor unitario de cada línea por el precio de lista del producto.
	CatalogPrice bool
}

// Result es lo que deja un lote confirmado.
type Result struct {
	TransactionID string
	Total         decimal.Decimal
	Lines         []*entity.StockLine // estado final de cada línea tocada, en orden de bloqueo
	Movements     []*entity.StockMovement
	Products      map[string]*entity.Product
	CreatedAt     time.Time
}

// AggregateWriter persiste la compra/venta/orden del lote con los repositorios de la misma tx.
type AggregateWriter func(ctx context.Context, repos repository.TxRepositories, res *Result) error

// Executor aplica lotes de stock: valida, ordena, bloquea, calcula, escribe y confirma.
type Executor struct {
	txRunner TxRunner
	scope    *TenantScope
	cache    StockCache
	notifier LowStockNotifier
	log      zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewExecutor construye el ejecutor. cache y notifier pueden ser nil.
func NewExecutor(txRunner TxRunner, scope *TenantScope, cache StockCache, notifier LowStockNotifier, log zerolog.Logger) *Executor {
	if cache == nil {
		cache = noopCache{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Executor{
		txRunner: txRunner,
		scope:    scope,
		cache:    cache,
		notifier: notifier,
		log:      log.With().Str("component", "stock_executor").Logger(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

// Execute aplica el lote en una única transacción. Ante cualquier error no se escribe nada.
func (e *Executor) Execute(ctx context.Context, b Batch, write AggregateWriter) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "stock.execute_batch", trace.WithAttributes(
		attribute.String("stock.kind", string(b.Kind)),
		attribute.String("stock.company_id", b.CompanyID),
		attribute.String("stock.branch_id", b.BranchID),
		attribute.Int("stock.lines", len(b.Lines)),
	))
	defer span.End()

	res, err := e.execute(ctx, b, write)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logFailure(b, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("stock.transaction_id", res.TransactionID))
	span.SetStatus(codes.Ok, "")
	e.log.Debug().
		Str("kind", string(b.Kind)).
		Str("company_id", b.CompanyID).
		Str("branch_id", b.BranchID).
		Str("transaction_id", res.TransactionID).
		Int("lines", len(res.Movements)).
		Msg("lote de stock confirmado")

	e.afterCommit(ctx, b, res)
	return res, nil
}

func (e *Executor) execute(ctx context.Context, b Batch, write AggregateWriter) (*Result, error) {
	planned, err := inventory.Plan(b.CompanyID, b.BranchID, b.Kind, b.Lines)
	if err != nil {
		return nil, err
	}
	if _, err := e.scope.CheckBranch(ctx, b.CompanyID, b.BranchID); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(b.Lines))
	for _, l := range b.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := e.scope.CheckProducts(ctx, b.CompanyID, b.BranchID, ids)
	if err != nil {
		return nil, err
	}

	lines := b.Lines
	if b.CatalogPrice {
		lines = make([]inventory.Line, len(b.Lines))
		for i, l := range b.Lines {
			l.UnitValue = products[l.ProductID].Price
			lines[i] = l
		}
		for i := range planned {
			planned[i].Line = lines[planned[i].Index]
		}
	}

	now := e.now()
	res := &Result{
		TransactionID: uuid.New().String(),
		Total:         inventory.Total(lines),
		Products:      products,
		CreatedAt:     now,
	}
	reason := b.Reason
	if reason == "" {
		reason = b.Kind.DefaultReason()
	}

	err = e.txRunner.Run(ctx, func(repos repository.TxRepositories) error {
		if err := e.apply(ctx, repos, b, planned, reason, res); err != nil {
			return err
		}
		if write != nil {
			return write(ctx, repos, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// apply bloquea cada línea distinta una sola vez en orden (sucursal, producto),
// calcula la cantidad candidata acumulada y solo escribe si ninguna queda negativa.
func (e *Executor) apply(
	ctx context.Context,
	repos repository.TxRepositories,
	b Batch,
	planned []inventory.PlannedLine,
	reason string,
	res *Result,
) error {
	restock := make(map[entity.StockKey]bool, len(planned))
	for _, p := range planned {
		if p.Delta > 0 {
			restock[p.Key] = true
		}
	}

	type state struct {
		line      *entity.StockLine
		available int64
		consumed  int64
	}
	locked := make(map[entity.StockKey]*state, len(planned))
	order := make([]entity.StockKey, 0, len(planned))

	for _, p := range planned {
		st, ok := locked[p.Key]
		if !ok {
			line, err := repos.Stock.LockForUpdate(ctx, p.Key, restock[p.Key])
			if err != nil {
				return err
			}
			if line == nil {
				// Línea inexistente en una salida: cuenta como stock 0.
				line = &entity.StockLine{CompanyID: p.Key.CompanyID, BranchID: p.Key.BranchID, ProductID: p.Key.ProductID}
			}
			st = &state{line: line, available: line.Quantity}
			locked[p.Key] = st
			order = append(order, p.Key)
		}
		if p.Delta < 0 {
			st.consumed -= p.Delta
		}
		next, err := inventory.ApplyDelta(st.line.Quantity, p.Delta)
		switch {
		case errors.Is(err, domain.ErrInsufficientStock):
			return domain.InsufficientStock(p.Key.BranchID, p.Key.ProductID, st.available, st.consumed)
		case err != nil:
			return &domain.StockError{
				Kind:      err,
				BranchID:  p.Key.BranchID,
				ProductID: p.Key.ProductID,
				Detail:    "la cantidad resultante excede el máximo",
			}
		}
		st.line.Quantity = next
	}

	for _, k := range order {
		st := locked[k]
		if err := repos.Stock.UpdateQuantity(ctx, k, st.line.Quantity); err != nil {
			return err
		}
		st.line.UpdatedAt = res.CreatedAt
		res.Lines = append(res.Lines, st.line)
	}

	for _, p := range planned {
		m := &entity.StockMovement{
			ID:            uuid.New().String(),
			CompanyID:     p.Key.CompanyID,
			BranchID:      p.Key.BranchID,
			ProductID:     p.Key.ProductID,
			TransactionID: res.TransactionID,
			Kind:          b.Kind.MovementKind(),
			QuantityDelta: p.Delta,
			Reason:        reason,
			CreatedAt:     res.CreatedAt,
			CreatedBy:     b.ActorID,
		}
		if err := repos.Movements.Append(ctx, m); err != nil {
			return err
		}
		res.Movements = append(res.Movements, m)
	}
	return nil
}

// afterCommit invalida la caché y publica alertas de stock bajo. Sus errores no afectan al lote.
func (e *Executor) afterCommit(ctx context.Context, b Batch, res *Result) {
	if err := e.cache.Invalidate(ctx, b.CompanyID); err != nil {
		e.log.Warn().Err(err).Str("company_id", b.CompanyID).Msg("no se pudo invalidar caché de stock")
	}
	var alerts []LowStockAlert
	for _, l := range res.Lines {
		if !l.BelowReorderPoint() {
			continue
		}
		alerts = append(alerts, LowStockAlert{
			CompanyID:     l.CompanyID,
			BranchID:      l.BranchID,
			ProductID:     l.ProductID,
			Quantity:      l.Quantity,
			ReorderPoint:  l.ReorderPoint,
			TransactionID: res.TransactionID,
		})
	}
	if len(alerts) == 0 {
		return
	}
	if err := e.notifier.NotifyLowStock(ctx, alerts); err != nil {
		e.log.Warn().Err(err).Int("alerts", len(alerts)).Msg("no se pudo publicar alerta de stock bajo")
	}
}

func (e *Executor) logFailure(b Batch, err error) {
	ev := e.log.Error()
	switch {
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidReference),
		errors.Is(err, domain.ErrEmptyBatch),
		errors.Is(err, domain.ErrInvalidInput):
		ev = e.log.Info()
	case errors.Is(err, domain.ErrLockTimeout):
		ev = e.log.Warn()
	}
	ev.Err(err).
		Str("kind", string(b.Kind)).
		Str("company_id", b.CompanyID).
		Str("branch_id", b.BranchID).
		Msg("lote de stock rechazado")
}
