package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var (
	_ repository.PurchaseRepository = (*PurchaseRepo)(nil)
	_ repository.SaleRepository     = (*SaleRepo)(nil)
	_ repository.OrderRepository    = (*OrderRepo)(nil)
	_ repository.CartRepository     = (*CartRepo)(nil)
)

// execBatch envía la cabecera y sus ítems en un solo viaje y revisa cada resultado.
func execBatch(ctx context.Context, q Querier, b *pgx.Batch, what string) error {
	br := q.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			if isUniqueViolation(err) {
				return fmt.Errorf("insert %s: %w", what, domain.ErrDuplicate)
			}
			return fmt.Errorf("insert %s: %w", what, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("insert %s: %w", what, err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PurchaseRepo persiste compras (cabecera + ítems).
type PurchaseRepo struct {
	q Querier
}

// NewPurchaseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseRepository(q Querier) *PurchaseRepo {
	return &PurchaseRepo{q: q}
}

// Create inserta la compra y sus ítems.
func (r *PurchaseRepo) Create(ctx context.Context, p *entity.Purchase) error {
	b := &pgx.Batch{}
	b.Queue(`
		INSERT INTO purchases (id, company_id, branch_id, supplier_id, date, created_by, total_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.CompanyID, p.BranchID, p.SupplierID, p.Date, nullable(p.CreatedBy), p.TotalCost)
	for _, it := range p.Items {
		b.Queue(`
			INSERT INTO purchase_items (id, purchase_id, product_id, quantity, unit_cost)
			VALUES ($1, $2, $3, $4, $5)`,
			it.ID, p.ID, it.ProductID, it.Quantity, it.UnitCost)
	}
	return execBatch(ctx, r.q, b, "purchase")
}

// SaleRepo persiste ventas del punto de venta.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta la venta y sus ítems.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	b := &pgx.Batch{}
	b.Queue(`
		INSERT INTO sales (id, company_id, branch_id, seller_id, payment_method, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.CompanyID, s.BranchID, nullable(s.SellerID), s.PaymentMethod, s.Total, s.CreatedAt)
	for _, it := range s.Items {
		b.Queue(`
			INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)`,
			it.ID, s.ID, it.ProductID, it.Quantity, it.UnitPrice)
	}
	return execBatch(ctx, r.q, b, "sale")
}

// OrderRepo persiste órdenes de checkout.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create inserta la orden y sus ítems.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	b := &pgx.Batch{}
	b.Queue(`
		INSERT INTO orders (id, company_id, branch_id, customer_name, customer_email, status, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.CompanyID, o.BranchID, o.CustomerName, o.CustomerEmail, o.Status, o.Total, o.CreatedAt)
	for _, it := range o.Items {
		b.Queue(`
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)`,
			it.ID, o.ID, it.ProductID, it.Quantity, it.UnitPrice)
	}
	return execBatch(ctx, r.q, b, "order")
}

// CartRepo implementación del carrito sobre PostgreSQL. Un ítem por (usuario, producto).
type CartRepo struct {
	q Querier
}

// NewCartRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCartRepository(q Querier) *CartRepo {
	return &CartRepo{q: q}
}

// Upsert agrega el producto o reemplaza su cantidad.
func (r *CartRepo) Upsert(ctx context.Context, item *entity.CartItem) error {
	query := `
		INSERT INTO cart_items (user_id, company_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(ctx, query, item.UserID, item.CompanyID, item.ProductID, item.Quantity)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

// ListByUser lista el carrito del usuario ordenado por producto.
func (r *CartRepo) ListByUser(ctx context.Context, companyID, userID string) ([]*entity.CartItem, error) {
	query := `
		SELECT user_id, company_id, product_id, quantity, updated_at
		FROM cart_items WHERE company_id = $1 AND user_id = $2
		ORDER BY product_id`
	rows, err := r.q.Query(ctx, query, companyID, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.CartItem, 0)
	for rows.Next() {
		var it entity.CartItem
		if err := rows.Scan(&it.UserID, &it.CompanyID, &it.ProductID, &it.Quantity, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// RemoveItems borra las filas del carrito que coinciden en producto y cantidad.
// Un upsert concurrente espera el commit de esta transacción o cambia la cantidad y su fila se conserva.
func (r *CartRepo) RemoveItems(ctx context.Context, companyID, userID string, items []*entity.CartItem) error {
	if len(items) == 0 {
		return nil
	}
	products := make([]string, 0, len(items))
	quantities := make([]int64, 0, len(items))
	for _, it := range items {
		products = append(products, it.ProductID)
		quantities = append(quantities, it.Quantity)
	}
	query := `
		DELETE FROM cart_items c
		USING unnest($3::text[], $4::bigint[]) AS o(product_id, quantity)
		WHERE c.company_id = $1 AND c.user_id = $2
		  AND c.product_id = o.product_id AND c.quantity = o.quantity`
	if _, err := r.q.Exec(ctx, query, companyID, userID, products, quantities); err != nil {
		return fmt.Errorf("remove cart items: %w", err)
	}
	return nil
}
