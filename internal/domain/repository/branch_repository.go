package repository

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// BranchRepository define el puerto de lectura para sucursales.
type BranchRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Branch, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Branch, error)
}
