package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-engine/internal/application/dto"
	"github.com/jhoicas/stock-engine/internal/application/inventory"
)

// ShopHandler maneja el carrito y el checkout de la tienda online (protegido).
type ShopHandler struct {
	carts   *inventory.CartUseCase
	batches *inventory.BatchUseCase
}

// NewShopHandler construye el handler.
func NewShopHandler(carts *inventory.CartUseCase, batches *inventory.BatchUseCase) *ShopHandler {
	return &ShopHandler{carts: carts, batches: batches}
}

// AddToCart godoc
// @Summary      Agregar producto al carrito
// @Tags         shop
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddToCartRequest  true  "product_id, quantity"
// @Success      200   {object}  dto.CartResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/shop/cart [post]
func (h *ShopHandler) AddToCart(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.AddToCartRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if _, err := h.carts.AddToCart(c.UserContext(), companyID, userID, in.ProductID, in.Quantity); err != nil {
		return writeError(c, err)
	}
	return h.GetCart(c)
}

// GetCart godoc
// @Summary      Ver carrito
// @Tags         shop
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CartResponse
// @Router       /api/shop/cart [get]
func (h *ShopHandler) GetCart(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	cart, err := h.carts.GetCart(c.UserContext(), companyID, userID)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.CartResponse{Items: make([]dto.CartItemResponse, 0, len(cart.Lines)), Total: cart.Total}
	for _, l := range cart.Lines {
		out.Items = append(out.Items, dto.CartItemResponse{
			ProductID:   l.Item.ProductID,
			ProductName: l.Product.Name,
			Quantity:    l.Item.Quantity,
			UnitPrice:   l.Product.Price,
			Subtotal:    l.Subtotal,
		})
	}
	return c.JSON(out)
}

// Checkout godoc
// @Summary      Confirmar compra de la tienda
// @Description  Sin líneas en el body se usa el carrito; el carrito se vacía solo si la orden se confirma.
// @Tags         shop
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  true  "branch_id, customer_name, customer_email, lines opcionales"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/shop/checkout [post]
func (h *ShopHandler) Checkout(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	o, err := h.batches.SubmitCheckoutBatch(c.UserContext(), inventory.CheckoutInput{
		CompanyID:     companyID,
		BranchID:      in.BranchID,
		ActorID:       userID,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		Lines:         dto.ToLines(in.Lines),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OrderFrom(o))
}
