package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-engine/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ServiceName string
	Batches     *inventory.BatchUseCase
	Adjustments *inventory.AdjustmentUseCase
	Queries     *inventory.QueryUseCase
	Carts       *inventory.CartUseCase
	JWTSecret   string
	JWTIssuer   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})

	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Batches, deps.Adjustments, deps.Queries)
	invGroup.Post("/purchases", inventoryHandler.SubmitPurchase)
	invGroup.Post("/sales", inventoryHandler.SubmitSale)
	invGroup.Post("/adjust", inventoryHandler.SubmitAdjustment)
	invGroup.Put("/reorder-point", inventoryHandler.SetReorderPoint)
	invGroup.Get("/stock", inventoryHandler.QueryStock)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Get("/low-stock", inventoryHandler.LowStock)
	invGroup.Get("/reconcile", inventoryHandler.Reconcile)

	shop := protected.Group("/shop")
	shopHandler := NewShopHandler(deps.Carts, deps.Batches)
	shop.Post("/cart", shopHandler.AddToCart)
	shop.Get("/cart", shopHandler.GetCart)
	shop.Post("/checkout", shopHandler.Checkout)
}
