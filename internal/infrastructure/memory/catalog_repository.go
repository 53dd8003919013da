package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var (
	_ repository.CompanyRepository  = (*companyRepo)(nil)
	_ repository.BranchRepository   = (*branchRepo)(nil)
	_ repository.ProductRepository  = (*productRepo)(nil)
	_ repository.SupplierRepository = (*supplierRepo)(nil)
)

// AddCompany, AddBranch, AddProduct y AddSupplier cargan el catálogo (tests y modo memoria).

func (s *Store) AddCompany(c *entity.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.companies[c.ID] = &cp
}

func (s *Store) AddBranch(b *entity.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.branches[b.ID] = &cp
}

func (s *Store) AddProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ID] = &cp
}

func (s *Store) AddSupplier(sup *entity.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sup
	s.suppliers[sup.ID] = &cp
}

// Companies devuelve el repositorio de empresas.
func (s *Store) Companies() repository.CompanyRepository { return &companyRepo{s: s} }

// Branches devuelve el repositorio de sucursales.
func (s *Store) Branches() repository.BranchRepository { return &branchRepo{s: s} }

// Products devuelve el repositorio de productos.
func (s *Store) Products() repository.ProductRepository { return &productRepo{s: s} }

// Suppliers devuelve el repositorio de proveedores.
func (s *Store) Suppliers() repository.SupplierRepository { return &supplierRepo{s: s} }

type companyRepo struct{ s *Store }

func (r *companyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.companies[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

type branchRepo struct{ s *Store }

func (r *branchRepo) GetByID(_ context.Context, id string) (*entity.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if b, ok := r.s.branches[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (r *branchRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Branch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Branch, 0)
	for _, b := range r.s.branches {
		if b.CompanyID == companyID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type productRepo struct{ s *Store }

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *productRepo) GetByCompanyAndSKU(_ context.Context, companyID, sku string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.products {
		if p.CompanyID == companyID && p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

type supplierRepo struct{ s *Store }

func (r *supplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if sup, ok := r.s.suppliers[id]; ok {
		cp := *sup
		return &cp, nil
	}
	return nil, nil
}
