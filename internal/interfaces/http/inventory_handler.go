package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-engine/internal/application/dto"
	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP de lotes y lecturas de stock (protegido).
type InventoryHandler struct {
	batches *inventory.BatchUseCase
	adjust  *inventory.AdjustmentUseCase
	queries *inventory.QueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(batches *inventory.BatchUseCase, adjust *inventory.AdjustmentUseCase, queries *inventory.QueryUseCase) *InventoryHandler {
	return &InventoryHandler{batches: batches, adjust: adjust, queries: queries}
}

// SubmitPurchase godoc
// @Summary      Registrar compra a proveedor
// @Description  Suma stock en la sucursal para todas las líneas, todo o nada.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PurchaseRequest  true  "branch_id, supplier_id, lines"
// @Success      201   {object}  dto.PurchaseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/purchases [post]
func (h *InventoryHandler) SubmitPurchase(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.PurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	p, err := h.batches.SubmitPurchaseBatch(c.UserContext(), inventory.PurchaseInput{
		CompanyID:  companyID,
		BranchID:   in.BranchID,
		SupplierID: in.SupplierID,
		ActorID:    userID,
		Lines:      dto.ToLines(in.Lines),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PurchaseFrom(p))
}

// SubmitSale godoc
// @Summary      Registrar venta POS
// @Description  Descuenta stock de la sucursal; si alguna línea no alcanza no se descuenta nada.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaleRequest  true  "branch_id, payment_method, lines"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/sales [post]
func (h *InventoryHandler) SubmitSale(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.SaleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	s, err := h.batches.SubmitSaleBatch(c.UserContext(), inventory.SaleInput{
		CompanyID:     companyID,
		BranchID:      in.BranchID,
		ActorID:       userID,
		PaymentMethod: in.PaymentMethod,
		Lines:         dto.ToLines(in.Lines),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SaleFrom(s))
}

// SubmitAdjustment godoc
// @Summary      Ajuste manual de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "branch_id, product_id, delta (con signo), reason"
// @Success      200   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjust [post]
func (h *InventoryHandler) SubmitAdjustment(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.adjust.SubmitAdjustment(c.UserContext(), inventory.AdjustmentInput{
		CompanyID: companyID,
		BranchID:  in.BranchID,
		ProductID: in.ProductID,
		Delta:     in.Delta,
		Reason:    in.Reason,
		ActorID:   userID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AdjustmentResponse{TransactionID: res.TransactionID, NewQuantity: res.NewQuantity})
}

// SetReorderPoint godoc
// @Summary      Fijar punto de reorden
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReorderPointRequest  true  "branch_id, product_id, reorder_point"
// @Success      200   {object}  dto.StockLineResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/reorder-point [put]
func (h *InventoryHandler) SetReorderPoint(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.ReorderPointRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	line, err := h.adjust.SetReorderPoint(c.UserContext(), companyID, in.BranchID, in.ProductID, in.ReorderPoint)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockLineFrom(line))
}

// QueryStock godoc
// @Summary      Stock actual
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Sucursal. Vacío = toda la empresa."
// @Success      200  {array}   dto.StockLineResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) QueryStock(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	lines, err := h.queries.QueryStock(c.UserContext(), companyID, c.Query("branch_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockLinesFrom(lines))
}

// ListMovements godoc
// @Summary      Libro de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id   query  string  false  "Sucursal"
// @Param        product_id  query  string  false  "Producto"
// @Param        kind        query  string  false  "PURCHASE, SALE o ADJUST"
// @Param        limit       query  int     false  "Máximo 500"
// @Param        offset      query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return invalidBody(c)
	}
	filter := repository.MovementFilter{
		CompanyID: companyID,
		BranchID:  c.Query("branch_id"),
		ProductID: c.Query("product_id"),
		Kind:      c.Query("kind"),
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	movs, err := h.queries.ListMovements(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	if filter.Limit <= 0 {
		filter.Limit = inventory.DefaultMovementLimit
	}
	return c.JSON(dto.MovementListResponse{
		Items: dto.MovementsFrom(movs),
		Page:  dto.PageResponse{Limit: min(filter.Limit, inventory.MaxMovementLimit), Offset: filter.Offset, Total: len(movs)},
	})
}

// LowStock godoc
// @Summary      Líneas bajo punto de reorden
// @Description  Incluye la cantidad sugerida de pedido (ceil(punto de reorden × 1.5) − stock), ordenadas por urgencia.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Sucursal. Vacío = toda la empresa."
// @Success      200  {array}   dto.LowStockResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	items, err := h.queries.LowStock(c.UserContext(), companyID, c.Query("branch_id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LowStockResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.LowStockResponse{
			BranchID:           it.Line.BranchID,
			ProductID:          it.Line.ProductID,
			SKU:                it.SKU,
			ProductName:        it.ProductName,
			CurrentStock:       it.Line.Quantity,
			ReorderPoint:       it.Line.ReorderPoint,
			IdealStock:         it.IdealStock,
			SuggestedOrderQty:  it.SuggestedOrderQty,
			UnitCost:           it.UnitCost,
			EstimatedOrderCost: it.EstimatedOrderCost,
			Priority:           it.Priority,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "items": out})
}

// Reconcile godoc
// @Summary      Conciliar stock contra el libro
// @Description  Lista las líneas cuya cantidad difiere de la suma de sus movimientos. Vacío = cuadrado.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Sucursal. Vacío = toda la empresa."
// @Success      200  {array}   dto.DiscrepancyResponse
// @Router       /api/inventory/reconcile [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	diffs, err := h.queries.Reconcile(c.UserContext(), companyID, c.Query("branch_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.DiscrepanciesFrom(diffs))
}
