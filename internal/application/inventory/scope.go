package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// TenantScope verifica que sucursales, productos y proveedores pertenezcan a la empresa
// del llamador. Se consulta fuera de la transacción: el catálogo es de solo lectura para el motor.
type TenantScope struct {
	companies repository.CompanyRepository
	branches  repository.BranchRepository
	products  repository.ProductRepository
	suppliers repository.SupplierRepository
}

// NewTenantScope construye el verificador de pertenencia.
func NewTenantScope(
	companies repository.CompanyRepository,
	branches repository.BranchRepository,
	products repository.ProductRepository,
	suppliers repository.SupplierRepository,
) *TenantScope {
	return &TenantScope{
		companies: companies,
		branches:  branches,
		products:  products,
		suppliers: suppliers,
	}
}

// CheckBranch falla con ErrInvalidReference si la empresa no existe o la sucursal no es suya.
func (s *TenantScope) CheckBranch(ctx context.Context, companyID, branchID string) (*entity.Branch, error) {
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	if company == nil {
		return nil, domain.InvalidReference(branchID, "", "empresa inexistente")
	}
	branch, err := s.branches.GetByID(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("get branch: %w", err)
	}
	if branch == nil || branch.CompanyID != companyID {
		return nil, domain.InvalidReference(branchID, "", "sucursal no pertenece a la empresa")
	}
	return branch, nil
}

// CheckProducts devuelve los productos indexados por ID, o ErrInvalidReference con el
// primer producto que no pertenece a la empresa.
func (s *TenantScope) CheckProducts(ctx context.Context, companyID, branchID string, productIDs []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(productIDs))
	for _, id := range productIDs {
		if _, ok := out[id]; ok {
			continue
		}
		p, err := s.products.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if p == nil || p.CompanyID != companyID {
			return nil, domain.InvalidReference(branchID, id, "producto no pertenece a la empresa")
		}
		out[id] = p
	}
	return out, nil
}

// CheckSupplier falla con ErrInvalidReference si el proveedor no es de la empresa.
func (s *TenantScope) CheckSupplier(ctx context.Context, companyID, supplierID string) (*entity.Supplier, error) {
	sup, err := s.suppliers.GetByID(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	if sup == nil || sup.CompanyID != companyID {
		return nil, &domain.StockError{Kind: domain.ErrInvalidReference, Detail: "proveedor no pertenece a la empresa: " + supplierID}
	}
	return sup, nil
}

// Product devuelve un producto del catálogo (nil si no existe).
func (s *TenantScope) Product(ctx context.Context, id string) (*entity.Product, error) {
	return s.products.GetByID(ctx, id)
}
