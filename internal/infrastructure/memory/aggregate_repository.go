package memory

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var (
	_ repository.PurchaseRepository = (*purchaseRepo)(nil)
	_ repository.SaleRepository     = (*saleRepo)(nil)
	_ repository.OrderRepository    = (*orderRepo)(nil)
	_ repository.CartRepository     = (*cartRepo)(nil)
)

type purchaseRepo struct {
	s *Store
	t *tx
}

func (r *purchaseRepo) Create(_ context.Context, p *entity.Purchase) error {
	c := *p
	if r.t != nil {
		r.t.purchases = append(r.t.purchases, &c)
		return nil
	}
	r.s.mu.Lock()
	r.s.purchases[c.ID] = &c
	r.s.mu.Unlock()
	return nil
}

type saleRepo struct {
	s *Store
	t *tx
}

func (r *saleRepo) Create(_ context.Context, v *entity.Sale) error {
	c := *v
	if r.t != nil {
		r.t.sales = append(r.t.sales, &c)
		return nil
	}
	r.s.mu.Lock()
	r.s.sales[c.ID] = &c
	r.s.mu.Unlock()
	return nil
}

type orderRepo struct {
	s *Store
	t *tx
}

func (r *orderRepo) Create(_ context.Context, o *entity.Order) error {
	c := *o
	if r.t != nil {
		r.t.orders = append(r.t.orders, &c)
		return nil
	}
	r.s.mu.Lock()
	r.s.orders[c.ID] = &c
	r.s.mu.Unlock()
	return nil
}

type cartRepo struct {
	s *Store
	t *tx
}

func (r *cartRepo) Upsert(_ context.Context, item *entity.CartItem) error {
	c := *item
	if r.t != nil {
		r.t.cartPuts = append(r.t.cartPuts, &c)
		return nil
	}
	r.s.mu.Lock()
	r.s.carts[cartKey{companyID: c.CompanyID, userID: c.UserID, productID: c.ProductID}] = &c
	r.s.mu.Unlock()
	return nil
}

func (r *cartRepo) ListByUser(_ context.Context, companyID, userID string) ([]*entity.CartItem, error) {
	return r.s.listCart(companyID, userID), nil
}

func (r *cartRepo) RemoveItems(_ context.Context, companyID, userID string, items []*entity.CartItem) error {
	removals := make([]cartRemoval, 0, len(items))
	for _, it := range items {
		removals = append(removals, cartRemoval{
			key:      cartKey{companyID: companyID, userID: userID, productID: it.ProductID},
			quantity: it.Quantity,
		})
	}
	if r.t != nil {
		r.t.cartRemovals = append(r.t.cartRemovals, removals...)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.removeCartItems(removals)
	return nil
}
