package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-pos/internal/application/dto"
	"github.com/jhoicas/retail-pos/internal/application/sale"
)

// SaleHandler maneja las peticiones HTTP de ventas y devoluciones (protegido).
type SaleHandler struct {
	uc      *sale.UseCase
	tickets *sale.TicketUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *sale.UseCase, tickets *sale.TicketUseCase) *SaleHandler {
	return &SaleHandler{uc: uc, tickets: tickets}
}

// Create godoc
// @Summary      Confirmar venta
// @Description  Confirma el carrito como venta: descuenta stock de forma atómica
//               y registra un movimiento de auditoría por línea. Si alguna línea
//               no tiene stock suficiente, nada se aplica.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSaleRequest  true  "Carrito"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.CreateSale(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener venta por ID
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetSale(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByNumber godoc
// @Summary      Obtener venta por número
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        number  path  string  true  "Número de venta (S-YYYYMMDD-NNNNNN)"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/number/{number} [get]
func (h *SaleHandler) GetByNumber(c *fiber.Ctx) error {
	out, err := h.uc.GetSaleByNumber(c.Context(), c.Params("number"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar ventas por período
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        from    query  string  true   "Inicio (RFC3339)"
// @Param        to      query  string  true   "Fin (RFC3339)"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {array}   dto.SaleResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	from, to, err := parsePeriod(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	page := parsePage(c)
	out, err := h.uc.ListSales(c.Context(), from, to, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Return godoc
// @Summary      Devolver una línea de venta
// @Description  Devuelve una cantidad acotada por lo aún devolvible de la línea.
//               El reembolso se calcula sobre el precio capturado en la venta.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID de la venta"
// @Param        body  body  dto.ReturnRequest  true  "Línea y cantidad"
// @Success      200   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/returns [post]
func (h *SaleHandler) Return(c *fiber.Ctx) error {
	var in dto.ReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.ProcessReturn(c.Context(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Ticket godoc
// @Summary      Ticket de venta en PDF
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la venta"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/ticket [get]
func (h *SaleHandler) Ticket(c *fiber.Ctx) error {
	pdfBytes, err := h.tickets.GenerateTicket(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="ticket.pdf"`)
	return c.Send(pdfBytes)
}

// parsePeriod lee from/to RFC3339 de la query.
func parsePeriod(c *fiber.Ctx) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "from inválido: se espera RFC3339")
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "to inválido: se espera RFC3339")
	}
	return from, to, nil
}

// parsePage lee limit/offset de la query con valores por defecto.
func parsePage(c *fiber.Ctx) dto.PageRequest {
	page := dto.PageRequest{
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
	page.DefaultPage()
	return page
}
