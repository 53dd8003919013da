// Package memory implementa los puertos del motor de stock en memoria.
// Cada línea de stock tiene su propio bloqueo exclusivo; un lote confirmado se aplica
// completo bajo un único candado de escritura, así los lectores nunca ven estados parciales.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// DefaultLockTimeout es la espera máxima por el bloqueo de una línea.
const DefaultLockTimeout = 5 * time.Second

type cartKey struct {
	companyID string
	userID    string
	productID string
}

// Store guarda catálogo, stock, libro y agregados en memoria.
type Store struct {
	mu        sync.RWMutex
	companies map[string]*entity.Company
	branches  map[string]*entity.Branch
	products  map[string]*entity.Product
	suppliers map[string]*entity.Supplier
	lines     map[entity.StockKey]*entity.StockLine
	movements []*entity.StockMovement
	purchases map[string]*entity.Purchase
	sales     map[string]*entity.Sale
	orders    map[string]*entity.Order
	carts     map[cartKey]*entity.CartItem

	locksMu     sync.Mutex
	locks       map[entity.StockKey]chan struct{}
	lockTimeout time.Duration
}

// NewStore crea un store vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		companies:   make(map[string]*entity.Company),
		branches:    make(map[string]*entity.Branch),
		products:    make(map[string]*entity.Product),
		suppliers:   make(map[string]*entity.Supplier),
		lines:       make(map[entity.StockKey]*entity.StockLine),
		purchases:   make(map[string]*entity.Purchase),
		sales:       make(map[string]*entity.Sale),
		orders:      make(map[string]*entity.Order),
		carts:       make(map[cartKey]*entity.CartItem),
		locks:       make(map[entity.StockKey]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

// ── Bloqueos por línea ──────────────────────────────────────────────────────

func (s *Store) lockChan(key entity.StockKey) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// acquire toma el bloqueo exclusivo de la línea o devuelve ErrLockTimeout.
func (s *Store) acquire(ctx context.Context, key entity.StockKey) error {
	ch := s.lockChan(key)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("lock stock line %s/%s: %w", key.BranchID, key.ProductID, domain.ErrLockTimeout)
	case <-ctx.Done():
		return fmt.Errorf("lock stock line %s/%s: %w (%v)", key.BranchID, key.ProductID, domain.ErrLockTimeout, ctx.Err())
	}
}

func (s *Store) release(key entity.StockKey) {
	<-s.lockChan(key)
}

// ── Transacciones ───────────────────────────────────────────────────────────

// Run ejecuta fn con repositorios atados a una transacción en memoria.
// Las escrituras quedan pendientes hasta el commit; ante error o panic se descartan.
// Los bloqueos tomados se liberan siempre al salir.
func (s *Store) Run(ctx context.Context, fn func(repos repository.TxRepositories) error) error {
	t := newTx(s)
	defer t.releaseLocks()
	if err := fn(t.repositories()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	t.commit()
	return nil
}

// Repositories devuelve repositorios fuera de transacción: cada escritura se confirma sola.
func (s *Store) Repositories() repository.TxRepositories {
	return repository.TxRepositories{
		Stock:     &stockRepo{s: s},
		Movements: &movementRepo{s: s},
		Purchases: &purchaseRepo{s: s},
		Sales:     &saleRepo{s: s},
		Orders:    &orderRepo{s: s},
		Carts:     &cartRepo{s: s},
	}
}

// ── Lecturas confirmadas (bajo RLock) ───────────────────────────────────────

func (s *Store) getLine(key entity.StockKey) *entity.StockLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.lines[key]; ok {
		c := *l
		return &c
	}
	return nil
}

func (s *Store) listLines(f repository.StockFilter) []*entity.StockLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.StockLine, 0)
	for k, l := range s.lines {
		if k.CompanyID != f.CompanyID {
			continue
		}
		if f.BranchID != "" && k.BranchID != f.BranchID {
			continue
		}
		if f.ProductID != "" && k.ProductID != f.ProductID {
			continue
		}
		if f.BelowReorderPoint && !l.BelowReorderPoint() {
			continue
		}
		c := *l
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

func matchMovement(m *entity.StockMovement, f repository.MovementFilter) bool {
	if m.CompanyID != f.CompanyID {
		return false
	}
	if f.BranchID != "" && m.BranchID != f.BranchID {
		return false
	}
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.Kind != "" && m.Kind != f.Kind {
		return false
	}
	if f.From != nil && m.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !m.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}

// listMovements devuelve los movimientos más recientes primero.
func (s *Store) listMovements(f repository.MovementFilter) []*entity.StockMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.StockMovement, 0)
	skipped := 0
	for i := len(s.movements) - 1; i >= 0; i-- {
		m := s.movements[i]
		if !matchMovement(m, f) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		c := *m
		out = append(out, &c)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

func (s *Store) sumDeltas(companyID, branchID string) map[entity.StockKey]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[entity.StockKey]int64)
	for _, m := range s.movements {
		if m.CompanyID != companyID || (branchID != "" && m.BranchID != branchID) {
			continue
		}
		out[m.Key()] += m.QuantityDelta
	}
	return out
}

// cartRemoval borra la fila solo si su cantidad sigue siendo la leída.
type cartRemoval struct {
	key      cartKey
	quantity int64
}

// removeCartItems requiere s.mu tomado para escritura.
func (s *Store) removeCartItems(removals []cartRemoval) {
	for _, rm := range removals {
		if it, ok := s.carts[rm.key]; ok && it.Quantity == rm.quantity {
			delete(s.carts, rm.key)
		}
	}
}

func (s *Store) listCart(companyID, userID string) []*entity.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.CartItem, 0)
	for k, it := range s.carts {
		if k.companyID == companyID && k.userID == userID {
			c := *it
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Purchase, Sale y Order devuelven el agregado confirmado (nil si no existe).

func (s *Store) Purchase(id string) *entity.Purchase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.purchases[id]
}

func (s *Store) Sale(id string) *entity.Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sales[id]
}

func (s *Store) Order(id string) *entity.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders[id]
}
