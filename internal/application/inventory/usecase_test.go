package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Checkout y carrito
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckout_DesdeCarritoValorizaYVacia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchase(t, lineOf(productP1, 10, 6), lineOf(productP2, 10, 2))

	_, err := f.carts.AddToCart(ctx, companyA, actor, productP1, 2)
	require.NoError(t, err)
	_, err = f.carts.AddToCart(ctx, companyA, actor, productP2, 3)
	require.NoError(t, err)

	cart, err := f.carts.GetCart(ctx, companyA, actor)
	require.NoError(t, err)
	assert.Equal(t, "32", cart.Total.String(), "2×10 + 3×4")

	order, err := f.batches.SubmitCheckoutBatch(ctx, appinv.CheckoutInput{
		CompanyID: companyA, BranchID: branchA1, ActorID: actor,
		CustomerName: "Ana", CustomerEmail: "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.Equal(t, "32", order.Total.String())
	assert.Len(t, order.Items, 2)
	assert.NotNil(t, f.store.Order(order.ID))

	assert.Equal(t, int64(8), f.quantity(t, branchA1, productP1))
	assert.Equal(t, int64(7), f.quantity(t, branchA1, productP2))

	cart, err = f.carts.GetCart(ctx, companyA, actor)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines, "el carrito se vacía al confirmar la orden")

	for _, m := range f.movements(t) {
		if m.TransactionID == order.ID {
			assert.Equal(t, entity.MovementSale, m.Kind)
			assert.Equal(t, "Checkout", m.Reason)
		}
	}
}

func TestCheckout_FallidoConservaCarritoYStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchase(t, lineOf(productP1, 5, 6), lineOf(productP2, 1, 2))

	_, err := f.carts.AddToCart(ctx, companyA, actor, productP1, 2)
	require.NoError(t, err)
	_, err = f.carts.AddToCart(ctx, companyA, actor, productP2, 4)
	require.NoError(t, err)

	_, err = f.batches.SubmitCheckoutBatch(ctx, appinv.CheckoutInput{
		CompanyID: companyA, BranchID: branchA1, ActorID: actor,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(5), f.quantity(t, branchA1, productP1))
	assert.Equal(t, int64(1), f.quantity(t, branchA1, productP2))

	cart, err := f.carts.GetCart(ctx, companyA, actor)
	require.NoError(t, err)
	assert.Len(t, cart.Lines, 2, "una orden revertida no vacía el carrito")
}

// cartReadSignal avisa cuando el checkout terminó de leer el carrito.
type cartReadSignal struct {
	repository.CartRepository
	read chan struct{}
	once sync.Once
}

func (c *cartReadSignal) ListByUser(ctx context.Context, companyID, userID string) ([]*entity.CartItem, error) {
	items, err := c.CartRepository.ListByUser(ctx, companyID, userID)
	c.once.Do(func() { close(c.read) })
	return items, err
}

func TestCheckout_ConservaLoAgregadoDuranteLaOrden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchase(t, lineOf(productP1, 10, 6), lineOf(productP2, 10, 2))

	_, err := f.carts.AddToCart(ctx, companyA, actor, productP1, 2)
	require.NoError(t, err)

	carts := &cartReadSignal{CartRepository: f.store.Repositories().Carts, read: make(chan struct{})}
	batches := appinv.NewBatchUseCase(f.exec, f.scope, carts)

	// Se retiene la línea de P1 para que el checkout quede esperando tras leer el carrito.
	locked, release, held := make(chan struct{}), make(chan struct{}), make(chan struct{})
	go func() {
		defer close(held)
		_ = f.store.Run(ctx, func(repos repository.TxRepositories) error {
			_, err := repos.Stock.LockForUpdate(ctx,
				entity.StockKey{CompanyID: companyA, BranchID: branchA1, ProductID: productP1}, false)
			close(locked)
			<-release
			return err
		})
	}()
	<-locked

	type result struct {
		order *entity.Order
		err   error
	}
	done := make(chan result, 1)
	go func() {
		o, err := batches.SubmitCheckoutBatch(ctx, appinv.CheckoutInput{
			CompanyID: companyA, BranchID: branchA1, ActorID: actor,
		})
		done <- result{o, err}
	}()

	<-carts.read
	_, err = f.carts.AddToCart(ctx, companyA, actor, productP2, 3)
	require.NoError(t, err)
	close(release)
	<-held

	res := <-done
	require.NoError(t, res.err)
	require.Len(t, res.order.Items, 1)
	assert.Equal(t, productP1, res.order.Items[0].ProductID)

	cart, err := f.carts.GetCart(ctx, companyA, actor)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1, "lo agregado después de leer el carrito no se pierde")
	assert.Equal(t, productP2, cart.Lines[0].Item.ProductID)
	assert.Equal(t, int64(3), cart.Lines[0].Item.Quantity)

	assert.Equal(t, int64(8), f.quantity(t, branchA1, productP1))
	assert.Equal(t, int64(10), f.quantity(t, branchA1, productP2))
}

func TestCheckout_CarritoVacio(t *testing.T) {
	f := newFixture(t)
	_, err := f.batches.SubmitCheckoutBatch(context.Background(), appinv.CheckoutInput{
		CompanyID: companyA, BranchID: branchA1, ActorID: actor,
	})
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
}

func TestCheckout_LineasExplicitasUsanPrecioDeLista(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, lineOf(productP1, 5, 6))

	order, err := f.batches.SubmitCheckoutBatch(context.Background(), appinv.CheckoutInput{
		CompanyID: companyA, BranchID: branchA1, ActorID: actor,
		Lines: []inventory.Line{lineOf(productP1, 2, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, "20", order.Total.String(), "el cliente no fija el precio")
	assert.Equal(t, "10", order.Items[0].UnitPrice.String())
}

func TestAddToCart_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.carts.AddToCart(ctx, companyA, actor, productP1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.carts.AddToCart(ctx, companyA, actor, productB, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidReference, "no se agregan productos de otra empresa")

	_, err = f.carts.AddToCart(ctx, companyA, actor, productP1, 1)
	require.NoError(t, err)
	_, err = f.carts.AddToCart(ctx, companyA, actor, productP1, 4)
	require.NoError(t, err)
	cart, err := f.carts.GetCart(ctx, companyA, actor)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(4), cart.Lines[0].Item.Quantity, "agregar de nuevo reemplaza la cantidad")
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas POS
// ──────────────────────────────────────────────────────────────────────────────

func TestSale_GuardaVentaConItems(t *testing.T) {
	f := newFixture(t)
	f.purchase(t, lineOf(productP1, 5, 6))

	sale, err := f.batches.SubmitSaleBatch(context.Background(), appinv.SaleInput{
		CompanyID: companyA, BranchID: branchA1, ActorID: actor, PaymentMethod: " tarjeta ",
		Lines: []inventory.Line{lineOf(productP1, 3, 9)},
	})
	require.NoError(t, err)
	assert.Equal(t, "tarjeta", sale.PaymentMethod)
	assert.Equal(t, "27", sale.Total.String())
	assert.Equal(t, actor, sale.SellerID)
	stored := f.store.Sale(sale.ID)
	require.NotNil(t, stored)
	assert.Len(t, stored.Items, 1)
}

func TestPurchase_SinProveedor(t *testing.T) {
	f := newFixture(t)
	_, err := f.batches.SubmitPurchaseBatch(context.Background(), appinv.PurchaseInput{
		CompanyID: companyA, BranchID: branchA1,
		Lines: []inventory.Line{lineOf(productP1, 1, 1)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajustes y punto de reorden
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmitAdjustment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.adjust.SubmitAdjustment(ctx, appinv.AdjustmentInput{
		CompanyID: companyA, BranchID: branchA1, ProductID: productP1, Delta: 12, ActorID: actor,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.NewQuantity)
	assert.Equal(t, "Ajuste", res.Movement.Reason, "motivo por defecto")
	assert.Equal(t, entity.MovementAdjust, res.Movement.Kind)

	res, err = f.adjust.SubmitAdjustment(ctx, appinv.AdjustmentInput{
		CompanyID: companyA, BranchID: branchA1, ProductID: productP1, Delta: -5, Reason: "conteo físico", ActorID: actor,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.NewQuantity)
	assert.Equal(t, "conteo físico", res.Movement.Reason)

	_, err = f.adjust.SubmitAdjustment(ctx, appinv.AdjustmentInput{
		CompanyID: companyA, BranchID: branchA1, ProductID: productP1, Delta: -8,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = f.adjust.SubmitAdjustment(ctx, appinv.AdjustmentInput{
		CompanyID: companyA, BranchID: branchA1, ProductID: productP1, Delta: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidReference, "un ajuste de 0 no es válido")
	assert.Equal(t, int64(7), f.quantity(t, branchA1, productP1))
}

func TestSetReorderPoint_NoTocaCantidadNiLibro(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchase(t, lineOf(productP1, 9, 6))
	before := len(f.movements(t))

	line, err := f.adjust.SetReorderPoint(ctx, companyA, branchA1, productP1, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), line.ReorderPoint)
	assert.Equal(t, int64(9), line.Quantity)
	assert.Len(t, f.movements(t), before)

	line, err = f.adjust.SetReorderPoint(ctx, companyA, branchA2, productP2, 3)
	require.NoError(t, err, "crea la línea en 0 si no existe")
	assert.Equal(t, int64(0), line.Quantity)

	_, err = f.adjust.SetReorderPoint(ctx, companyA, branchA1, productP1, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.adjust.SetReorderPoint(ctx, companyA, branchB1, productP1, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas
// ──────────────────────────────────────────────────────────────────────────────

func TestQueryStock_UsaCacheEInvalidaTrasLote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchase(t, lineOf(productP1, 3, 6))

	lines, err := f.queries.QueryStock(ctx, companyA, branchA1)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(3), lines[0].Quantity)

	cached, _, ok, _ := f.cache.Get(ctx, companyA, branchA1)
	require.True(t, ok, "la lectura queda en caché")
	assert.Len(t, cached, 1)

	f.purchase(t, lineOf(productP1, 2, 6))
	lines, err = f.queries.QueryStock(ctx, companyA, branchA1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), lines[0].Quantity, "el lote confirmado invalida la caché")
}

// commitDuringList simula un lote que confirma e invalida la caché mientras se lee la base.
type commitDuringList struct {
	repository.StockLineRepository
	cache *fakeCache
}

func (r commitDuringList) List(ctx context.Context, filter repository.StockFilter) ([]*entity.StockLine, error) {
	lines, err := r.StockLineRepository.List(ctx, filter)
	_ = r.cache.Invalidate(ctx, filter.CompanyID)
	return lines, err
}

func TestQueryStock_NoCacheaLecturaInvalidadaEnCurso(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchase(t, lineOf(productP1, 3, 6))

	repos := f.store.Repositories()
	queries := appinv.NewQueryUseCase(f.scope, commitDuringList{repos.Stock, f.cache}, repos.Movements, f.cache, zerolog.Nop())

	lines, err := queries.QueryStock(ctx, companyA, branchA1)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	_, _, ok, _ := f.cache.Get(ctx, companyA, branchA1)
	assert.False(t, ok, "una lectura anterior a la invalidación no queda en caché")
}

func TestQueryStock_SucursalAjena(t *testing.T) {
	f := newFixture(t)
	_, err := f.queries.QueryStock(context.Background(), companyA, branchB1)
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}

func TestLowStock_SugiereCantidadYPrioriza(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchase(t, lineOf(productP1, 2, 6), lineOf(productP2, 5, 2))
	_, err := f.adjust.SetReorderPoint(ctx, companyA, branchA1, productP1, 10)
	require.NoError(t, err)
	_, err = f.adjust.SetReorderPoint(ctx, companyA, branchA1, productP2, 6)
	require.NoError(t, err)

	items, err := f.queries.LowStock(ctx, companyA, branchA1)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, productP1, items[0].Line.ProductID, "mayor déficit relativo primero")
	assert.Equal(t, 1, items[0].Priority)
	assert.Equal(t, int64(13), items[0].SuggestedOrderQty)
	assert.Equal(t, int64(15), items[0].IdealStock)
	assert.Equal(t, "P1", items[0].SKU)
	assert.Equal(t, "78", items[0].EstimatedOrderCost.String(), "13 × costo 6")

	assert.Equal(t, productP2, items[1].Line.ProductID)
	assert.Equal(t, int64(4), items[1].SuggestedOrderQty)
}

func TestListMovements_FiltrosYLimites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchase(t, lineOf(productP1, 5, 6), lineOf(productP2, 5, 2))
	_, err := f.batches.SubmitSaleBatch(ctx, appinv.SaleInput{
		CompanyID: companyA, BranchID: branchA1, Lines: []inventory.Line{lineOf(productP1, 1, 10)},
	})
	require.NoError(t, err)

	sales, err := f.queries.ListMovements(ctx, repository.MovementFilter{CompanyID: companyA, Kind: entity.MovementSale})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, int64(-1), sales[0].QuantityDelta)

	byProduct, err := f.queries.ListMovements(ctx, repository.MovementFilter{CompanyID: companyA, ProductID: productP2})
	require.NoError(t, err)
	assert.Len(t, byProduct, 1)

	_, err = f.queries.ListMovements(ctx, repository.MovementFilter{CompanyID: companyA, Kind: "GIFT"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	other, err := f.queries.ListMovements(ctx, repository.MovementFilter{CompanyID: companyB})
	require.NoError(t, err)
	assert.Empty(t, other, "cada empresa ve solo su libro")
}

func TestReconcile_DetectaDescuadre(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchase(t, lineOf(productP1, 5, 6))

	// Un movimiento escrito fuera del motor descuadra el libro.
	require.NoError(t, f.store.Repositories().Movements.Append(ctx, &entity.StockMovement{
		ID: "manual", CompanyID: companyA, BranchID: branchA1, ProductID: productP1, Kind: entity.MovementAdjust, QuantityDelta: 2,
	}))

	diffs, err := f.queries.Reconcile(ctx, companyA, branchA1)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, int64(5), diffs[0].Quantity)
	assert.Equal(t, int64(7), diffs[0].LedgerSum)
}
