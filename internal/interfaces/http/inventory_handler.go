package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-pos/internal/application/dto"
	"github.com/jhoicas/retail-pos/internal/application/inventory"
)

// InventoryHandler maneja las peticiones HTTP de stock, recepciones,
// ajustes manuales e historial de movimientos (protegido).
type InventoryHandler struct {
	uc *inventory.UseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.UseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// GetStock godoc
// @Summary      Cantidad disponible de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  map[string]int
// @Router       /api/inventory/stock/{productId} [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	qty, err := h.uc.GetStock(c.Context(), c.Params("productId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"product_id": c.Params("productId"), "quantity": qty})
}

// ListStock godoc
// @Summary      Listado de productos con stock
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {array}  dto.ProductResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) ListStock(c *fiber.Ctx) error {
	views, err := h.uc.ListStock(c.Context(), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ProductResponse, 0, len(views))
	for _, v := range views {
		qty := v.Quantity
		out = append(out, dto.ProductResponse{
			ID:            v.ID,
			SKU:           v.SKU,
			Name:          v.Name,
			Description:   v.Description,
			CategoryID:    v.CategoryID,
			CategoryName:  v.CategoryName,
			SellingPrice:  v.SellingPrice,
			PurchasePrice: v.PurchasePrice,
			MinStock:      v.MinStock,
			Active:        v.Active,
			Quantity:      &qty,
			CreatedAt:     v.CreatedAt,
		})
	}
	return c.JSON(out)
}

// ListLowStock godoc
// @Summary      Productos por debajo de su stock mínimo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ProductResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *fiber.Ctx) error {
	views, err := h.uc.ListLowStock(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ProductResponse, 0, len(views))
	for _, v := range views {
		qty := v.Quantity
		out = append(out, dto.ProductResponse{
			ID:           v.ID,
			SKU:          v.SKU,
			Name:         v.Name,
			CategoryName: v.CategoryName,
			SellingPrice: v.SellingPrice,
			MinStock:     v.MinStock,
			Active:       v.Active,
			Quantity:     &qty,
			CreatedAt:    v.CreatedAt,
		})
	}
	return c.JSON(out)
}

// CreateReceipt godoc
// @Summary      Registrar recepción de mercancía
// @Description  Incrementa el stock de cada línea y registra un movimiento
//               RECEIPT por línea, todo en una sola transacción.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReceiptRequest  true  "Recepción"
// @Success      201   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) CreateReceipt(c *fiber.Ctx) error {
	var in dto.CreateReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.CreateReceipt(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetReceipt godoc
// @Summary      Obtener recepción por ID
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la recepción"
// @Success      200  {object}  dto.ReceiptResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts/{id} [get]
func (h *InventoryHandler) GetReceipt(c *fiber.Ctx) error {
	out, err := h.uc.GetReceipt(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListReceipts godoc
// @Summary      Listar recepciones por período
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        from    query  string  true   "Inicio (RFC3339)"
// @Param        to      query  string  true   "Fin (RFC3339)"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {array}   dto.ReceiptResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [get]
func (h *InventoryHandler) ListReceipts(c *fiber.Ctx) error {
	from, to, err := parsePeriod(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	out, err := h.uc.ListReceipts(c.Context(), from, to, parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// AdjustStock godoc
// @Summary      Ajuste manual de stock
// @Description  Fija la cantidad a un valor absoluto no negativo; el delta
//               decide el tipo de auditoría (ADJUSTMENT o WRITE_OFF). Delta
//               cero no deja rastro.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId  path  string                  true  "ID del producto"
// @Param        body       body  dto.AdjustStockRequest  true  "Cantidad nueva y motivo"
// @Success      200  {object}  dto.StockMovementResponse
// @Success      204  "Delta cero: sin cambios"
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/{productId}/adjust [post]
func (h *InventoryHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.AdjustStock(c.Context(), GetUserID(c), c.Params("productId"), in)
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(out)
}

// ProductHistory godoc
// @Summary      Historial de movimientos de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId  path   string  true   "ID del producto"
// @Param        from       query  string  false  "Inicio (RFC3339)"
// @Param        to         query  string  false  "Fin (RFC3339)"
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.StockMovementResponse
// @Router       /api/inventory/movements/product/{productId} [get]
func (h *InventoryHandler) ProductHistory(c *fiber.Ctx) error {
	from, to := parseOptionalPeriod(c)
	out, err := h.uc.ProductHistory(c.Context(), c.Params("productId"), from, to, parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UserHistory godoc
// @Summary      Movimientos registrados por un usuario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        userId  path   string  true   "ID del usuario"
// @Param        from    query  string  false  "Inicio (RFC3339)"
// @Param        to      query  string  false  "Fin (RFC3339)"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.StockMovementResponse
// @Router       /api/inventory/movements/user/{userId} [get]
func (h *InventoryHandler) UserHistory(c *fiber.Ctx) error {
	from, to := parseOptionalPeriod(c)
	out, err := h.uc.UserHistory(c.Context(), c.Params("userId"), from, to, parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListAdjustments godoc
// @Summary      Log de correcciones manuales
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"  default(20)
// @Param        offset  query  int  false  "Offset"  default(0)
// @Success      200  {array}  dto.StockMovementResponse
// @Router       /api/inventory/movements/adjustments [get]
func (h *InventoryHandler) ListAdjustments(c *fiber.Ctx) error {
	out, err := h.uc.ListAdjustments(c.Context(), parsePage(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// parseOptionalPeriod lee from/to de la query si están presentes.
func parseOptionalPeriod(c *fiber.Ctx) (*time.Time, *time.Time) {
	var from, to *time.Time
	if v, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		from = &v
	}
	if v, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		to = &v
	}
	return from, to
}
