package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-engine/internal/domain/inventory"
)

// Tipos de tarea.
const (
	TypeLowStock = "stock:low"
)

// LowStockPayload es el cuerpo de una tarea stock:low: las líneas que un lote dejó bajo su punto de reorden.
type LowStockPayload struct {
	Alerts []inventory.LowStockAlert `json:"alerts"`
}

// NewLowStockTask serializa las alertas en una tarea.
func NewLowStockTask(alerts []inventory.LowStockAlert) (*asynq.Task, error) {
	b, err := json.Marshal(LowStockPayload{Alerts: alerts})
	if err != nil {
		return nil, fmt.Errorf("marshal low stock payload: %w", err)
	}
	return asynq.NewTask(TypeLowStock, b), nil
}

// Enqueuer es la parte de *asynq.Client que usa el publicador.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

var _ inventory.LowStockNotifier = (*Publisher)(nil)

// Publisher encola alertas de stock bajo en asynq.
type Publisher struct {
	client Enqueuer
	log    zerolog.Logger
}

// NewPublisher construye el publicador sobre un cliente asynq.
func NewPublisher(client Enqueuer, log zerolog.Logger) *Publisher {
	return &Publisher{client: client, log: log.With().Str("component", "low_stock_publisher").Logger()}
}

// NotifyLowStock encola una tarea con todas las alertas del lote.
func (p *Publisher) NotifyLowStock(ctx context.Context, alerts []inventory.LowStockAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	task, err := NewLowStockTask(alerts)
	if err != nil {
		return err
	}
	info, err := p.client.EnqueueContext(ctx, task,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeLowStock, err)
	}
	p.log.Debug().
		Str("task_id", info.ID).
		Str("transaction_id", alerts[0].TransactionID).
		Int("alerts", len(alerts)).
		Msg("alerta de stock bajo encolada")
	return nil
}

// LowStockProcessor atiende las tareas stock:low en el worker.
type LowStockProcessor struct {
	log zerolog.Logger
}

// NewLowStockProcessor construye el procesador.
func NewLowStockProcessor(log zerolog.Logger) *LowStockProcessor {
	return &LowStockProcessor{log: log.With().Str("processor", "low_stock").Logger()}
}

// ProcessLowStock registra cada alerta con la cantidad de reposición sugerida.
// Un payload ilegible no se reintenta.
func (p *LowStockProcessor) ProcessLowStock(ctx context.Context, t *asynq.Task) error {
	var payload LowStockPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal low stock payload: %v: %w", err, asynq.SkipRetry)
	}
	for _, a := range payload.Alerts {
		suggested := domaininv.SuggestedOrderQty(&entity.StockLine{
			Quantity:     a.Quantity,
			ReorderPoint: a.ReorderPoint,
		})
		p.log.Warn().
			Str("company_id", a.CompanyID).
			Str("branch_id", a.BranchID).
			Str("product_id", a.ProductID).
			Int64("quantity", a.Quantity).
			Int64("reorder_point", a.ReorderPoint).
			Int64("suggested_order_qty", suggested).
			Str("transaction_id", a.TransactionID).
			Msg("stock bajo el punto de reorden")
	}
	return nil
}
