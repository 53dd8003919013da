package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var (
	_ repository.StockLineRepository = (*stockRepo)(nil)
	_ repository.MovementRepository  = (*movementRepo)(nil)
)

// stockRepo opera sobre la transacción t; con t nil cada escritura se confirma sola.
type stockRepo struct {
	s *Store
	t *tx
}

func (r *stockRepo) GetOrCreate(ctx context.Context, key entity.StockKey) (*entity.StockLine, error) {
	if r.t != nil {
		return r.t.lock(ctx, key, true)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lines[key]
	if !ok {
		l = &entity.StockLine{
			CompanyID: key.CompanyID,
			BranchID:  key.BranchID,
			ProductID: key.ProductID,
			UpdatedAt: time.Now(),
		}
		r.s.lines[key] = l
	}
	c := *l
	return &c, nil
}

func (r *stockRepo) LockForUpdate(ctx context.Context, key entity.StockKey, create bool) (*entity.StockLine, error) {
	if r.t != nil {
		return r.t.lock(ctx, key, create)
	}
	var out *entity.StockLine
	err := r.s.Run(ctx, func(repos repository.TxRepositories) error {
		l, err := repos.Stock.LockForUpdate(ctx, key, create)
		out = l
		return err
	})
	return out, err
}

func (r *stockRepo) UpdateQuantity(ctx context.Context, key entity.StockKey, quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("update stock line %s/%s: quantity %d: %w", key.BranchID, key.ProductID, quantity, domain.ErrInvalidInput)
	}
	return r.update(ctx, key, func(l *entity.StockLine) { l.Quantity = quantity })
}

func (r *stockRepo) UpdateReorderPoint(ctx context.Context, key entity.StockKey, reorderPoint int64) error {
	if reorderPoint < 0 {
		return fmt.Errorf("update reorder point %s/%s: %w", key.BranchID, key.ProductID, domain.ErrInvalidInput)
	}
	return r.update(ctx, key, func(l *entity.StockLine) { l.ReorderPoint = reorderPoint })
}

func (r *stockRepo) update(ctx context.Context, key entity.StockKey, apply func(*entity.StockLine)) error {
	if r.t == nil {
		return r.s.Run(ctx, func(repos repository.TxRepositories) error {
			return repos.Stock.(*stockRepo).update(ctx, key, apply)
		})
	}
	if !r.t.held[key] {
		if _, err := r.t.lock(ctx, key, false); err != nil {
			return err
		}
	}
	l, ok := r.t.pending[key]
	if !ok {
		return fmt.Errorf("update stock line %s/%s: %w", key.BranchID, key.ProductID, domain.ErrNotFound)
	}
	apply(l)
	l.UpdatedAt = time.Now()
	return nil
}

func (r *stockRepo) Get(_ context.Context, key entity.StockKey) (*entity.StockLine, error) {
	if r.t != nil {
		if l, ok := r.t.pending[key]; ok {
			c := *l
			return &c, nil
		}
	}
	return r.s.getLine(key), nil
}

func (r *stockRepo) List(_ context.Context, filter repository.StockFilter) ([]*entity.StockLine, error) {
	return r.s.listLines(filter), nil
}

// movementRepo es el libro de movimientos: solo inserción.
type movementRepo struct {
	s *Store
	t *tx
}

func (r *movementRepo) Append(_ context.Context, m *entity.StockMovement) error {
	c := *m
	if r.t != nil {
		r.t.movements = append(r.t.movements, &c)
		return nil
	}
	r.s.mu.Lock()
	r.s.movements = append(r.s.movements, &c)
	r.s.mu.Unlock()
	return nil
}

func (r *movementRepo) List(_ context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	return r.s.listMovements(filter), nil
}

func (r *movementRepo) SumDeltas(_ context.Context, companyID, branchID string) (map[entity.StockKey]int64, error) {
	return r.s.sumDeltas(companyID, branchID), nil
}
