package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// BatchUseCase expone los lotes de compra, venta POS y checkout sobre el Executor.
type BatchUseCase struct {
	exec  *Executor
	scope *TenantScope
	carts repository.CartRepository
}

// NewBatchUseCase construye el caso de uso. carts es el repositorio fuera de transacción (lectura del carrito).
func NewBatchUseCase(exec *Executor, scope *TenantScope, carts repository.CartRepository) *BatchUseCase {
	return &BatchUseCase{exec: exec, scope: scope, carts: carts}
}

// PurchaseInput entrada de SubmitPurchaseBatch. UnitValue de cada línea es el costo unitario.
type PurchaseInput struct {
	CompanyID  string
	BranchID   string
	SupplierID string
	ActorID    string
	Lines      []inventory.Line
}

// SaleInput entrada de SubmitSaleBatch. UnitValue de cada línea es el precio unitario.
type SaleInput struct {
	CompanyID     string
	BranchID      string
	ActorID       string
	PaymentMethod string
	Lines         []inventory.Line
}

// CheckoutInput entrada de SubmitCheckoutBatch. Sin líneas se usa el carrito del actor.
// Las líneas siempre se valorizan al precio de lista del producto.
type CheckoutInput struct {
	CompanyID     string
	BranchID      string
	ActorID       string
	CustomerName  string
	CustomerEmail string
	Lines         []inventory.Line
}

// maxPaymentMethodLen es el largo de la columna sales.payment_method.
const maxPaymentMethodLen = 50

// SubmitPurchaseBatch registra una compra a proveedor: suma stock y guarda la compra con sus ítems.
func (uc *BatchUseCase) SubmitPurchaseBatch(ctx context.Context, in PurchaseInput) (*entity.Purchase, error) {
	if len(in.Lines) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if in.SupplierID == "" {
		return nil, &domain.StockError{Kind: domain.ErrInvalidReference, Detail: "proveedor requerido"}
	}
	if _, err := uc.scope.CheckSupplier(ctx, in.CompanyID, in.SupplierID); err != nil {
		return nil, err
	}

	var purchase *entity.Purchase
	_, err := uc.exec.Execute(ctx, Batch{
		Kind:      inventory.BatchPurchase,
		CompanyID: in.CompanyID,
		BranchID:  in.BranchID,
		ActorID:   in.ActorID,
		Lines:     in.Lines,
	}, func(ctx context.Context, repos repository.TxRepositories, res *Result) error {
		purchase = &entity.Purchase{
			ID:         res.TransactionID,
			CompanyID:  in.CompanyID,
			BranchID:   in.BranchID,
			SupplierID: in.SupplierID,
			Date:       res.CreatedAt,
			CreatedBy:  in.ActorID,
			TotalCost:  res.Total,
		}
		for _, l := range in.Lines {
			purchase.Items = append(purchase.Items, entity.PurchaseItem{
				ID:         uuid.New().String(),
				PurchaseID: purchase.ID,
				ProductID:  l.ProductID,
				Quantity:   l.Quantity,
				UnitCost:   l.UnitValue,
			})
		}
		if err := repos.Purchases.Create(ctx, purchase); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// SubmitSaleBatch registra una venta POS: descuenta stock y guarda la venta con sus ítems.
func (uc *BatchUseCase) SubmitSaleBatch(ctx context.Context, in SaleInput) (*entity.Sale, error) {
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		method = "efectivo"
	}
	if len(method) > maxPaymentMethodLen {
		return nil, domain.ErrInvalidInput
	}

	var sale *entity.Sale
	_, err := uc.exec.Execute(ctx, Batch{
		Kind:      inventory.BatchSale,
		CompanyID: in.CompanyID,
		BranchID:  in.BranchID,
		ActorID:   in.ActorID,
		Lines:     in.Lines,
	}, func(ctx context.Context, repos repository.TxRepositories, res *Result) error {
		sale = &entity.Sale{
			ID:            res.TransactionID,
			CompanyID:     in.CompanyID,
			BranchID:      in.BranchID,
			SellerID:      in.ActorID,
			PaymentMethod: method,
			Total:         res.Total,
			CreatedAt:     res.CreatedAt,
		}
		for _, l := range in.Lines {
			sale.Items = append(sale.Items, entity.SaleItem{
				ID:        uuid.New().String(),
				SaleID:    sale.ID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitValue,
			})
		}
		if err := repos.Sales.Create(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// SubmitCheckoutBatch confirma una orden de la tienda. Si se usó el carrito, sus filas ordenadas
// se borran en la misma transacción: solo desaparecen si la orden se confirma, y lo agregado
// mientras tanto queda en el carrito.
func (uc *BatchUseCase) SubmitCheckoutBatch(ctx context.Context, in CheckoutInput) (*entity.Order, error) {
	lines := in.Lines
	var cartItems []*entity.CartItem
	if len(lines) == 0 {
		items, err := uc.carts.ListByUser(ctx, in.CompanyID, in.ActorID)
		if err != nil {
			return nil, fmt.Errorf("list cart: %w", err)
		}
		for _, it := range items {
			lines = append(lines, inventory.Line{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		cartItems = items
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	var order *entity.Order
	_, err := uc.exec.Execute(ctx, Batch{
		Kind:         inventory.BatchCheckout,
		CompanyID:    in.CompanyID,
		BranchID:     in.BranchID,
		ActorID:      in.ActorID,
		Lines:        lines,
		CatalogPrice: true,
	}, func(ctx context.Context, repos repository.TxRepositories, res *Result) error {
		order = &entity.Order{
			ID:            res.TransactionID,
			CompanyID:     in.CompanyID,
			BranchID:      in.BranchID,
			CustomerName:  in.CustomerName,
			CustomerEmail: in.CustomerEmail,
			Status:        entity.OrderStatusPending,
			Total:         res.Total,
			CreatedAt:     res.CreatedAt,
		}
		for _, l := range lines {
			order.Items = append(order.Items, entity.OrderItem{
				ID:        uuid.New().String(),
				OrderID:   order.ID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitPrice: res.Products[l.ProductID].Price,
			})
		}
		if err := repos.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if len(cartItems) > 0 {
			if err := repos.Carts.RemoveItems(ctx, in.CompanyID, in.ActorID, cartItems); err != nil {
				return fmt.Errorf("remove ordered cart items: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
