package repository

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// CompanyRepository define el puerto de lectura para Company (tenant).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}
