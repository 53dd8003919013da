package memory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// tx acumula escrituras hasta el commit. Solo la usa la goroutine que llamó a Run.
type tx struct {
	s       *Store
	held    map[entity.StockKey]bool
	order   []entity.StockKey
	pending map[entity.StockKey]*entity.StockLine

	movements  []*entity.StockMovement
	purchases  []*entity.Purchase
	sales      []*entity.Sale
	orders     []*entity.Order
	cartPuts     []*entity.CartItem
	cartRemovals []cartRemoval
}

func newTx(s *Store) *tx {
	return &tx{
		s:       s,
		held:    make(map[entity.StockKey]bool),
		pending: make(map[entity.StockKey]*entity.StockLine),
	}
}

func (t *tx) repositories() repository.TxRepositories {
	return repository.TxRepositories{
		Stock:     &stockRepo{s: t.s, t: t},
		Movements: &movementRepo{s: t.s, t: t},
		Purchases: &purchaseRepo{s: t.s, t: t},
		Sales:     &saleRepo{s: t.s, t: t},
		Orders:    &orderRepo{s: t.s, t: t},
		Carts:     &cartRepo{s: t.s, t: t},
	}
}

func (t *tx) releaseLocks() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.s.release(t.order[i])
	}
	t.order = nil
	t.held = nil
}

// commit aplica todas las escrituras pendientes bajo el candado de escritura del store.
func (t *tx) commit() {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, l := range t.pending {
		c := *l
		s.lines[k] = &c
	}
	s.movements = append(s.movements, t.movements...)
	for _, p := range t.purchases {
		s.purchases[p.ID] = p
	}
	for _, v := range t.sales {
		s.sales[v.ID] = v
	}
	for _, o := range t.orders {
		s.orders[o.ID] = o
	}
	s.removeCartItems(t.cartRemovals)
	for _, it := range t.cartPuts {
		s.carts[cartKey{companyID: it.CompanyID, userID: it.UserID, productID: it.ProductID}] = it
	}
}

// lock toma el bloqueo de la línea una sola vez por transacción y carga su estado.
func (t *tx) lock(ctx context.Context, key entity.StockKey, create bool) (*entity.StockLine, error) {
	if !t.held[key] {
		if err := t.s.acquire(ctx, key); err != nil {
			return nil, err
		}
		t.held[key] = true
		t.order = append(t.order, key)
	}
	if l, ok := t.pending[key]; ok {
		c := *l
		return &c, nil
	}
	l := t.s.getLine(key)
	if l == nil {
		if !create {
			return nil, nil
		}
		l = &entity.StockLine{
			CompanyID: key.CompanyID,
			BranchID:  key.BranchID,
			ProductID: key.ProductID,
			UpdatedAt: time.Now(),
		}
	}
	t.pending[key] = l
	c := *l
	return &c, nil
}
