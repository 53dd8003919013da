package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación del libro de movimientos sobre PostgreSQL (usable con pool o tx).
// La tabla solo recibe INSERT.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append persiste un movimiento. created_by vacío se guarda como NULL.
func (r *MovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, company_id, branch_id, product_id, transaction_id, kind, quantity_delta, reason, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	var createdBy *string
	if m.CreatedBy != "" {
		createdBy = &m.CreatedBy
	}
	_, err := r.q.Exec(ctx, query,
		m.ID, m.CompanyID, m.BranchID, m.ProductID, m.TransactionID,
		m.Kind, m.QuantityDelta, m.Reason, m.CreatedAt, createdBy,
	)
	if err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// List devuelve los movimientos filtrados, más recientes primero.
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	qb := squirrel.Select(
		"id", "company_id", "branch_id", "product_id", "transaction_id",
		"kind", "quantity_delta", "reason", "created_at", "created_by",
	).From("stock_movements").
		Where(squirrel.Eq{"company_id": filter.CompanyID}).
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(squirrel.Dollar)

	if filter.BranchID != "" {
		qb = qb.Where(squirrel.Eq{"branch_id": filter.BranchID})
	}
	if filter.ProductID != "" {
		qb = qb.Where(squirrel.Eq{"product_id": filter.ProductID})
	}
	if filter.Kind != "" {
		qb = qb.Where(squirrel.Eq{"kind": filter.Kind})
	}
	if filter.From != nil {
		qb = qb.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		qb = qb.Where(squirrel.Lt{"created_at": *filter.To})
	}
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		qb = qb.Offset(uint64(filter.Offset))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build movement query: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.StockMovement, 0)
	for rows.Next() {
		var m entity.StockMovement
		var createdBy *string
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.BranchID, &m.ProductID, &m.TransactionID,
			&m.Kind, &m.QuantityDelta, &m.Reason, &m.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if createdBy != nil {
			m.CreatedBy = *createdBy
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// SumDeltas agrega el libro por línea de stock.
func (r *MovementRepo) SumDeltas(ctx context.Context, companyID, branchID string) (map[entity.StockKey]int64, error) {
	qb := squirrel.Select("branch_id", "product_id", "SUM(quantity_delta)::bigint").
		From("stock_movements").
		Where(squirrel.Eq{"company_id": companyID}).
		GroupBy("branch_id", "product_id").
		PlaceholderFormat(squirrel.Dollar)
	if branchID != "" {
		qb = qb.Where(squirrel.Eq{"branch_id": branchID})
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ledger sum query: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum ledger: %w", err)
	}
	defer rows.Close()

	sums := make(map[entity.StockKey]int64)
	for rows.Next() {
		key := entity.StockKey{CompanyID: companyID}
		var sum int64
		if err := rows.Scan(&key.BranchID, &key.ProductID, &sum); err != nil {
			return nil, fmt.Errorf("scan ledger sum: %w", err)
		}
		sums[key] = sum
	}
	return sums, rows.Err()
}
