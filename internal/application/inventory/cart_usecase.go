package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// CartUseCase maneja el carrito de la tienda. No toca stock: el stock se descuenta en el checkout.
type CartUseCase struct {
	scope *TenantScope
	carts repository.CartRepository
}

// NewCartUseCase construye el caso de uso del carrito.
func NewCartUseCase(scope *TenantScope, carts repository.CartRepository) *CartUseCase {
	return &CartUseCase{scope: scope, carts: carts}
}

// CartLine es un ítem del carrito valorizado al precio de lista.
type CartLine struct {
	Item     *entity.CartItem
	Product  *entity.Product
	Subtotal decimal.Decimal
}

// Cart es el carrito de un usuario con su total.
type Cart struct {
	Lines []CartLine
	Total decimal.Decimal
}

// AddToCart agrega el producto o reemplaza su cantidad si ya estaba en el carrito.
func (uc *CartUseCase) AddToCart(ctx context.Context, companyID, userID, productID string, quantity int64) (*entity.CartItem, error) {
	if userID == "" || quantity < 1 {
		return nil, domain.ErrInvalidInput
	}
	if _, err := uc.scope.CheckProducts(ctx, companyID, "", []string{productID}); err != nil {
		return nil, err
	}
	item := &entity.CartItem{
		UserID:    userID,
		CompanyID: companyID,
		ProductID: productID,
		Quantity:  quantity,
		UpdatedAt: time.Now(),
	}
	if err := uc.carts.Upsert(ctx, item); err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}
	return item, nil
}

// GetCart devuelve el carrito del usuario valorizado al precio de lista.
func (uc *CartUseCase) GetCart(ctx context.Context, companyID, userID string) (*Cart, error) {
	items, err := uc.carts.ListByUser(ctx, companyID, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	cart := &Cart{Lines: make([]CartLine, 0, len(items)), Total: decimal.Zero}
	for _, it := range items {
		p, err := uc.scope.Product(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if p == nil {
			continue
		}
		sub := p.Price.Mul(decimal.NewFromInt(it.Quantity))
		cart.Lines = append(cart.Lines, CartLine{Item: it, Product: p, Subtotal: sub})
		cart.Total = cart.Total.Add(sub)
	}
	return cart, nil
}
