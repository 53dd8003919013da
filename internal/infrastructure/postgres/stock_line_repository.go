package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ repository.StockLineRepository = (*StockLineRepo)(nil)

const stockLineColumns = "company_id, branch_id, product_id, quantity, reorder_point, updated_at"

// StockLineRepo implementación de StockLineRepository sobre PostgreSQL (usable con pool o tx).
type StockLineRepo struct {
	q Querier
}

// NewStockLineRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockLineRepository(q Querier) *StockLineRepo {
	return &StockLineRepo{q: q}
}

func scanStockLine(row pgx.Row) (*entity.StockLine, error) {
	var s entity.StockLine
	if err := row.Scan(&s.CompanyID, &s.BranchID, &s.ProductID, &s.Quantity, &s.ReorderPoint, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// ensure inserta la línea en 0 si no existe. ON CONFLICT espera a la tx que la esté creando,
// así dos primeros usos concurrentes terminan con una única fila.
func (r *StockLineRepo) ensure(ctx context.Context, key entity.StockKey) error {
	query := `
		INSERT INTO stock_lines (company_id, branch_id, product_id, quantity, reorder_point, updated_at)
		VALUES ($1, $2, $3, 0, 0, now())
		ON CONFLICT (company_id, branch_id, product_id) DO NOTHING`
	_, err := r.q.Exec(ctx, query, key.CompanyID, key.BranchID, key.ProductID)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.InvalidReference(key.BranchID, key.ProductID, "sucursal o producto inexistente")
		}
		return fmt.Errorf("ensure stock line: %w", err)
	}
	return nil
}

// GetOrCreate devuelve la línea creándola en 0 si hace falta.
func (r *StockLineRepo) GetOrCreate(ctx context.Context, key entity.StockKey) (*entity.StockLine, error) {
	if err := r.ensure(ctx, key); err != nil {
		return nil, err
	}
	line, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, fmt.Errorf("get or create stock line %s/%s: %w", key.BranchID, key.ProductID, domain.ErrNotFound)
	}
	return line, nil
}

// LockForUpdate obtiene la línea y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
func (r *StockLineRepo) LockForUpdate(ctx context.Context, key entity.StockKey, create bool) (*entity.StockLine, error) {
	if create {
		if err := r.ensure(ctx, key); err != nil {
			return nil, err
		}
	}
	query := `
		SELECT ` + stockLineColumns + `
		FROM stock_lines WHERE company_id = $1 AND branch_id = $2 AND product_id = $3
		FOR UPDATE`
	line, err := scanStockLine(r.q.QueryRow(ctx, query, key.CompanyID, key.BranchID, key.ProductID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapLockError(fmt.Errorf("get stock line for update: %w", err))
	}
	return line, nil
}

// UpdateQuantity fija la cantidad de la línea. La restricción CHECK rechaza valores negativos.
func (r *StockLineRepo) UpdateQuantity(ctx context.Context, key entity.StockKey, quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("update stock line %s/%s: quantity %d: %w", key.BranchID, key.ProductID, quantity, domain.ErrInvalidInput)
	}
	return r.update(ctx, key, "quantity", quantity)
}

// UpdateReorderPoint fija el punto de reorden de la línea.
func (r *StockLineRepo) UpdateReorderPoint(ctx context.Context, key entity.StockKey, reorderPoint int64) error {
	if reorderPoint < 0 {
		return fmt.Errorf("update reorder point %s/%s: %w", key.BranchID, key.ProductID, domain.ErrInvalidInput)
	}
	return r.update(ctx, key, "reorder_point", reorderPoint)
}

func (r *StockLineRepo) update(ctx context.Context, key entity.StockKey, column string, value int64) error {
	query := `UPDATE stock_lines SET ` + column + ` = $4, updated_at = now()
		WHERE company_id = $1 AND branch_id = $2 AND product_id = $3`
	tag, err := r.q.Exec(ctx, query, key.CompanyID, key.BranchID, key.ProductID, value)
	if err != nil {
		if pgCode(err) == codeCheckViolation {
			return fmt.Errorf("update stock line %s: %w", column, domain.ErrInvalidInput)
		}
		return mapLockError(fmt.Errorf("update stock line %s: %w", column, err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update stock line %s/%s: %w", key.BranchID, key.ProductID, domain.ErrNotFound)
	}
	return nil
}

// Get obtiene la línea sin bloquearla. (nil, nil) si no existe.
func (r *StockLineRepo) Get(ctx context.Context, key entity.StockKey) (*entity.StockLine, error) {
	query := `
		SELECT ` + stockLineColumns + `
		FROM stock_lines WHERE company_id = $1 AND branch_id = $2 AND product_id = $3`
	line, err := scanStockLine(r.q.QueryRow(ctx, query, key.CompanyID, key.BranchID, key.ProductID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock line: %w", err)
	}
	return line, nil
}

// List lista las líneas de la empresa ordenadas por (sucursal, producto).
func (r *StockLineRepo) List(ctx context.Context, filter repository.StockFilter) ([]*entity.StockLine, error) {
	qb := squirrel.Select("company_id", "branch_id", "product_id", "quantity", "reorder_point", "updated_at").
		From("stock_lines").
		Where(squirrel.Eq{"company_id": filter.CompanyID}).
		OrderBy("branch_id", "product_id").
		PlaceholderFormat(squirrel.Dollar)
	if filter.BranchID != "" {
		qb = qb.Where(squirrel.Eq{"branch_id": filter.BranchID})
	}
	if filter.ProductID != "" {
		qb = qb.Where(squirrel.Eq{"product_id": filter.ProductID})
	}
	if filter.BelowReorderPoint {
		qb = qb.Where("reorder_point > 0 AND quantity <= reorder_point")
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stock query: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock lines: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.StockLine, 0)
	for rows.Next() {
		line, err := scanStockLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock line: %w", err)
		}
		list = append(list, line)
	}
	return list, rows.Err()
}
