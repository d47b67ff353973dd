package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-pos/internal/application/dto"
	"github.com/jhoicas/retail-pos/internal/application/usecase"
)

// ReportHandler maneja los reportes de solo lectura (MANAGER y ADMIN).
type ReportHandler struct {
	uc *usecase.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *usecase.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Revenue godoc
// @Summary      Ingreso por período
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  true  "Inicio (RFC3339)"
// @Param        to    query  string  true  "Fin (RFC3339)"
// @Success      200  {object}  dto.RevenueResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/revenue [get]
func (h *ReportHandler) Revenue(c *fiber.Ctx) error {
	from, to, err := parsePeriod(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	out, err := h.uc.Revenue(c.Context(), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// TopProducts godoc
// @Summary      Productos más vendidos
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from   query  string  true   "Inicio (RFC3339)"
// @Param        to     query  string  true   "Fin (RFC3339)"
// @Param        limit  query  int     false  "Máximo de filas"  default(10)
// @Success      200  {array}   dto.TopProductResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/top-products [get]
func (h *ReportHandler) TopProducts(c *fiber.Ctx) error {
	from, to, err := parsePeriod(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	out, err := h.uc.TopProducts(c.Context(), from, to, c.QueryInt("limit"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Dashboard godoc
// @Summary      Resumen del panel principal
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DashboardResponse
// @Router       /api/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	out, err := h.uc.Dashboard(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
