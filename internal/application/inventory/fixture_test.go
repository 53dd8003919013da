package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
	"github.com/jhoicas/stock-engine/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: catálogo de dos empresas sobre el store en memoria.
// ──────────────────────────────────────────────────────────────────────────────

const (
	companyA  = "company-a"
	companyB  = "company-b"
	branchA1  = "branch-a1"
	branchA2  = "branch-a2"
	branchB1  = "branch-b1"
	productP1 = "product-p1"
	productP2 = "product-p2"
	productB  = "product-b"
	supplierA = "supplier-a"
	supplierB = "supplier-b"
	actor     = "user-1"
)

type fixture struct {
	store    *memory.Store
	scope    *appinv.TenantScope
	exec     *appinv.Executor
	batches  *appinv.BatchUseCase
	adjust   *appinv.AdjustmentUseCase
	queries  *appinv.QueryUseCase
	carts    *appinv.CartUseCase
	cache    *fakeCache
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore(2 * time.Second)

	store.AddCompany(&entity.Company{ID: companyA, Name: "Tienda A"})
	store.AddCompany(&entity.Company{ID: companyB, Name: "Tienda B"})
	store.AddBranch(&entity.Branch{ID: branchA1, CompanyID: companyA, Name: "Centro"})
	store.AddBranch(&entity.Branch{ID: branchA2, CompanyID: companyA, Name: "Norte"})
	store.AddBranch(&entity.Branch{ID: branchB1, CompanyID: companyB, Name: "Sur"})
	store.AddProduct(&entity.Product{ID: productP1, CompanyID: companyA, SKU: "P1", Name: "Café", Price: decimal.NewFromInt(10), Cost: decimal.NewFromInt(6)})
	store.AddProduct(&entity.Product{ID: productP2, CompanyID: companyA, SKU: "P2", Name: "Té", Price: decimal.NewFromInt(4), Cost: decimal.NewFromInt(2)})
	store.AddProduct(&entity.Product{ID: productB, CompanyID: companyB, SKU: "B", Name: "Ajeno", Price: decimal.NewFromInt(1)})
	store.AddSupplier(&entity.Supplier{ID: supplierA, CompanyID: companyA, Name: "Proveedor A"})
	store.AddSupplier(&entity.Supplier{ID: supplierB, CompanyID: companyB, Name: "Proveedor B"})

	scope := appinv.NewTenantScope(store.Companies(), store.Branches(), store.Products(), store.Suppliers())
	cache := &fakeCache{}
	notifier := &fakeNotifier{}
	log := zerolog.Nop()
	repos := store.Repositories()
	exec := appinv.NewExecutor(store, scope, cache, notifier, log)

	return &fixture{
		store:    store,
		scope:    scope,
		exec:     exec,
		batches:  appinv.NewBatchUseCase(exec, scope, repos.Carts),
		adjust:   appinv.NewAdjustmentUseCase(exec, scope, store, cache, log),
		queries:  appinv.NewQueryUseCase(scope, repos.Stock, repos.Movements, cache, log),
		carts:    appinv.NewCartUseCase(scope, repos.Carts),
		cache:    cache,
		notifier: notifier,
	}
}

func lineOf(product string, qty int64, unit int64) inventory.Line {
	return inventory.Line{ProductID: product, Quantity: qty, UnitValue: decimal.NewFromInt(unit)}
}

// purchase repone stock en branchA1 y falla el test si no se confirma.
func (f *fixture) purchase(t *testing.T, lines ...inventory.Line) *entity.Purchase {
	t.Helper()
	p, err := f.batches.SubmitPurchaseBatch(context.Background(), appinv.PurchaseInput{
		CompanyID:  companyA,
		BranchID:   branchA1,
		SupplierID: supplierA,
		ActorID:    actor,
		Lines:      lines,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) quantity(t *testing.T, branchID, productID string) int64 {
	t.Helper()
	l, err := f.store.Repositories().Stock.Get(context.Background(),
		entity.StockKey{CompanyID: companyA, BranchID: branchID, ProductID: productID})
	require.NoError(t, err)
	if l == nil {
		return 0
	}
	return l.Quantity
}

func (f *fixture) movements(t *testing.T) []*entity.StockMovement {
	t.Helper()
	movs, err := f.store.Repositories().Movements.List(context.Background(),
		repository.MovementFilter{CompanyID: companyA})
	require.NoError(t, err)
	return movs
}

type fakeCache struct {
	mu          sync.Mutex
	gen         int64
	data        map[string][]*entity.StockLine
	invalidated int
}

func (c *fakeCache) Get(_ context.Context, companyID, branchID string) ([]*entity.StockLine, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines, ok := c.data[companyID+"/"+branchID]
	return lines, c.gen, ok, nil
}

func (c *fakeCache) Set(_ context.Context, companyID, branchID string, gen int64, lines []*entity.StockLine) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	if c.data == nil {
		c.data = make(map[string][]*entity.StockLine)
	}
	c.data[companyID+"/"+branchID] = lines
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.data = nil
	c.invalidated++
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []appinv.LowStockAlert
}

func (n *fakeNotifier) NotifyLowStock(_ context.Context, alerts []appinv.LowStockAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alerts...)
	return nil
}
