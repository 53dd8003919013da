package inventory_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad y no negatividad
// ──────────────────────────────────────────────────────────────────────────────

func TestExecute_LoteVacioNoHaceNada(t *testing.T) {
	f := newFixture(t)
	_, err := f.exec.Execute(context.Background(), appinv.Batch{
		Kind: inventory.BatchSale, CompanyID: companyA, BranchID: branchA1,
	}, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
	assert.Empty(t, f.movements(t))
}

func TestExecute_UnaLineaInsuficienteRevierteTodo(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, lineOf(productP1, 10, 6), lineOf(productP2, 3, 2))
	before := len(f.movements(t))

	_, err := f.batches.SubmitSaleBatch(context.Background(), appinv.SaleInput{
		CompanyID: companyA, BranchID: branchA1, ActorID: actor,
		Lines: []inventory.Line{lineOf(productP1, 5, 10), lineOf(productP2, 4, 4)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var se *domain.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, productP2, se.ProductID)
	assert.Equal(t, branchA1, se.BranchID)
	assert.Equal(t, int64(3), se.Available)
	assert.Equal(t, int64(4), se.Requested)

	assert.Equal(t, int64(10), f.quantity(t, branchA1, productP1), "la línea válida tampoco se toca")
	assert.Equal(t, int64(3), f.quantity(t, branchA1, productP2))
	assert.Len(t, f.movements(t), before, "un lote rechazado no escribe movimientos")
}

func TestExecute_LineasRepetidasSeAcumulan(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, lineOf(productP1, 10, 6))

	_, err := f.batches.SubmitSaleBatch(context.Background(), appinv.SaleInput{
		CompanyID: companyA, BranchID: branchA1, ActorID: actor,
		Lines: []inventory.Line{lineOf(productP1, 6, 10), lineOf(productP1, 6, 10)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock, "dos líneas de 6 sobre 10 deben fallar juntas")

	var se *domain.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, int64(10), se.Available)
	assert.Equal(t, int64(12), se.Requested)
	assert.Equal(t, int64(10), f.quantity(t, branchA1, productP1))
}

func TestExecute_VentaSinLineaExistenteEsInsuficiente(t *testing.T) {
	f := newFixture(t)
	_, err := f.batches.SubmitSaleBatch(context.Background(), appinv.SaleInput{
		CompanyID: companyA, BranchID: branchA1, ActorID: actor,
		Lines: []inventory.Line{lineOf(productP1, 1, 10)},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	l, err := f.store.Repositories().Stock.Get(context.Background(),
		entity.StockKey{CompanyID: companyA, BranchID: branchA1, ProductID: productP1})
	require.NoError(t, err)
	assert.Nil(t, l, "una salida rechazada no crea la línea")
}

func TestExecute_CompraLuegoSobreventa(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.adjust.SubmitAdjustment(ctx, appinv.AdjustmentInput{
		CompanyID: companyA, BranchID: branchA1, ProductID: productP1, Delta: 50, ActorID: actor,
	})
	require.NoError(t, err)

	p := f.purchase(t, lineOf(productP1, 20, 6))
	assert.Equal(t, int64(70), f.quantity(t, branchA1, productP1))
	assert.Equal(t, "120", p.TotalCost.String(), "total = 20 × 6")

	_, err = f.batches.SubmitSaleBatch(ctx, appinv.SaleInput{
		CompanyID: companyA, BranchID: branchA1, ActorID: actor,
		Lines: []inventory.Line{lineOf(productP1, 90, 10)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(70), f.quantity(t, branchA1, productP1))

	var purchases int
	for _, m := range f.movements(t) {
		if m.Kind == entity.MovementPurchase {
			purchases++
			assert.Equal(t, int64(20), m.QuantityDelta)
			assert.Equal(t, p.ID, m.TransactionID)
			assert.Equal(t, "Compra", m.Reason)
		}
	}
	assert.Equal(t, 1, purchases, "la compra deja exactamente un movimiento")
}

func TestExecute_CompraQueDesbordaEsEntradaInvalida(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, lineOf(productP1, 1, 6))

	_, err := f.batches.SubmitPurchaseBatch(context.Background(), appinv.PurchaseInput{
		CompanyID: companyA, BranchID: branchA1, SupplierID: supplierA, ActorID: actor,
		Lines: []inventory.Line{lineOf(productP1, math.MaxInt64, 0)},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock, "una reposición nunca es stock insuficiente")

	var se *domain.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, productP1, se.ProductID)
	assert.Equal(t, int64(1), f.quantity(t, branchA1, productP1))
	assert.Len(t, f.movements(t), 1, "solo queda la compra inicial")
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación de pertenencia (tenant)
// ──────────────────────────────────────────────────────────────────────────────

func TestExecute_ReferenciasDeOtraEmpresa(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]appinv.PurchaseInput{
		"sucursal ajena":       {CompanyID: companyA, BranchID: branchB1, SupplierID: supplierA, Lines: []inventory.Line{lineOf(productP1, 1, 1)}},
		"producto ajeno":       {CompanyID: companyA, BranchID: branchA1, SupplierID: supplierA, Lines: []inventory.Line{lineOf(productB, 1, 1)}},
		"proveedor ajeno":      {CompanyID: companyA, BranchID: branchA1, SupplierID: supplierB, Lines: []inventory.Line{lineOf(productP1, 1, 1)}},
		"producto inexistente": {CompanyID: companyA, BranchID: branchA1, SupplierID: supplierA, Lines: []inventory.Line{lineOf("nope", 1, 1)}},
		"empresa inexistente":  {CompanyID: "ghost", BranchID: branchA1, SupplierID: supplierA, Lines: []inventory.Line{lineOf(productP1, 1, 1)}},
	}
	for name, in := range cases {
		_, err := f.batches.SubmitPurchaseBatch(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidReference, name)
	}
	assert.Empty(t, f.movements(t))
}

func TestExecute_ProductoAjenoIndicaEntidad(t *testing.T) {
	f := newFixture(t)
	_, err := f.batches.SubmitSaleBatch(context.Background(), appinv.SaleInput{
		CompanyID: companyA, BranchID: branchA1,
		Lines: []inventory.Line{lineOf(productB, 1, 1)},
	})
	var se *domain.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, productB, se.ProductID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Libro de movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestExecute_LibroReconstruyeStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.purchase(t, lineOf(productP1, 30, 6), lineOf(productP2, 8, 2))
	_, err := f.batches.SubmitSaleBatch(ctx, appinv.SaleInput{
		CompanyID: companyA, BranchID: branchA1, ActorID: actor,
		Lines: []inventory.Line{lineOf(productP1, 7, 10), lineOf(productP2, 8, 4)},
	})
	require.NoError(t, err)
	_, err = f.adjust.SubmitAdjustment(ctx, appinv.AdjustmentInput{
		CompanyID: companyA, BranchID: branchA1, ProductID: productP1, Delta: -3, Reason: "merma", ActorID: actor,
	})
	require.NoError(t, err)

	replayed := inventory.Replay(f.movements(t))
	assert.Equal(t, f.quantity(t, branchA1, productP1), replayed[entity.StockKey{CompanyID: companyA, BranchID: branchA1, ProductID: productP1}])
	assert.Equal(t, int64(20), f.quantity(t, branchA1, productP1))
	assert.Equal(t, int64(0), f.quantity(t, branchA1, productP2))

	diffs, err := f.queries.Reconcile(ctx, companyA, "")
	require.NoError(t, err)
	assert.Empty(t, diffs, "stock y libro deben cuadrar")
}

func TestExecute_MovimientosLlevanActorYTransaccion(t *testing.T) {
	f := newFixture(t)
	p := f.purchase(t, lineOf(productP2, 2, 2), lineOf(productP1, 1, 6))

	movs := f.movements(t)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, p.ID, m.TransactionID)
		assert.Equal(t, actor, m.CreatedBy)
		assert.Equal(t, entity.MovementPurchase, m.Kind)
		assert.NotEmpty(t, m.ID)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestExecute_VentasConcurrentesSeSerializan(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, lineOf(productP1, 10, 6))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.batches.SubmitSaleBatch(context.Background(), appinv.SaleInput{
				CompanyID: companyA, BranchID: branchA1, ActorID: actor,
				Lines: []inventory.Line{lineOf(productP1, 6, 10)},
			})
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, int64(4), f.quantity(t, branchA1, productP1))
}

func TestExecute_OrdenInversoNoProduceDeadlock(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, lineOf(productP1, 1000, 6), lineOf(productP2, 1000, 2))

	const rounds = 50
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.batches.SubmitSaleBatch(context.Background(), appinv.SaleInput{
				CompanyID: companyA, BranchID: branchA1,
				Lines: []inventory.Line{lineOf(productP1, 1, 10), lineOf(productP2, 1, 4)},
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.batches.SubmitSaleBatch(context.Background(), appinv.SaleInput{
				CompanyID: companyA, BranchID: branchA1,
				Lines: []inventory.Line{lineOf(productP2, 1, 4), lineOf(productP1, 1, 10)},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000-2*rounds), f.quantity(t, branchA1, productP1))
	assert.Equal(t, int64(1000-2*rounds), f.quantity(t, branchA1, productP2))
}

func TestExecute_PrimerUsoConcurrenteCreaUnaLinea(t *testing.T) {
	f := newFixture(t)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.batches.SubmitPurchaseBatch(context.Background(), appinv.PurchaseInput{
				CompanyID: companyA, BranchID: branchA2, SupplierID: supplierA,
				Lines: []inventory.Line{lineOf(productP1, 1, 6)},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lines, err := f.store.Repositories().Stock.List(context.Background(),
		repository.StockFilter{CompanyID: companyA, BranchID: branchA2})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(workers), lines[0].Quantity)
}

func TestExecute_SucursalesDistintasNoSeBloquean(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	release := make(chan struct{})
	holding := make(chan struct{})
	go func() {
		_ = f.store.Run(ctx, func(r repository.TxRepositories) error {
			_, err := r.Stock.LockForUpdate(ctx, entity.StockKey{CompanyID: companyA, BranchID: branchA1, ProductID: productP1}, true)
			close(holding)
			<-release
			return err
		})
	}()
	<-holding
	defer close(release)

	_, err := f.batches.SubmitPurchaseBatch(ctx, appinv.PurchaseInput{
		CompanyID: companyA, BranchID: branchA2, SupplierID: supplierA,
		Lines: []inventory.Line{lineOf(productP1, 5, 6)},
	})
	require.NoError(t, err, "un lote que no comparte líneas no espera bloqueos ajenos")
	assert.Equal(t, int64(5), f.quantity(t, branchA2, productP1))
}

// ──────────────────────────────────────────────────────────────────────────────
// Post-commit
// ──────────────────────────────────────────────────────────────────────────────

func TestExecute_InvalidaCacheYNotificaStockBajo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.purchase(t, lineOf(productP1, 10, 6))
	_, err := f.adjust.SetReorderPoint(ctx, companyA, branchA1, productP1, 5)
	require.NoError(t, err)
	invalidatedBefore := f.cache.invalidated

	_, err = f.batches.SubmitSaleBatch(ctx, appinv.SaleInput{
		CompanyID: companyA, BranchID: branchA1, ActorID: actor,
		Lines: []inventory.Line{lineOf(productP1, 6, 10)},
	})
	require.NoError(t, err)

	assert.Greater(t, f.cache.invalidated, invalidatedBefore)
	require.Len(t, f.notifier.alerts, 1)
	assert.Equal(t, productP1, f.notifier.alerts[0].ProductID)
	assert.Equal(t, int64(4), f.notifier.alerts[0].Quantity)
	assert.Equal(t, int64(5), f.notifier.alerts[0].ReorderPoint)
}

func TestExecute_LoteRechazadoNoNotifica(t *testing.T) {
	f := newFixture(t)
	_, err := f.batches.SubmitSaleBatch(context.Background(), appinv.SaleInput{
		CompanyID: companyA, BranchID: branchA1,
		Lines: []inventory.Line{lineOf(productP1, 1, 10)},
	})
	require.Error(t, err)
	assert.Empty(t, f.notifier.alerts)
	assert.Zero(t, f.cache.invalidated)
}
