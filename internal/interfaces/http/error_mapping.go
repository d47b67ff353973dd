package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-pos/internal/application/dto"
	"github.com/jhoicas/retail-pos/internal/domain"
)

// respondError traduce errores de dominio a respuestas HTTP.
// Los errores tipados (stock insuficiente, devolución excedida) llevan los
// detalles en el mensaje para que el cliente pueda mostrarlos sin reintento.
func respondError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INSUFFICIENT_STOCK",
			Message: fmt.Sprintf("stock insuficiente para el producto %s: solicitado %d, disponible %d",
				insufficient.ProductID, insufficient.Requested, insufficient.Available),
		})
	}
	var exceeds *domain.ReturnExceedsAvailableError
	if errors.As(err, &exceeds) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "RETURN_EXCEEDS_AVAILABLE",
			Message: fmt.Sprintf("la línea %s solo admite devolver %d unidades (solicitadas %d)",
				exceeds.SaleLineID, exceeds.Returnable, exceeds.Requested),
		})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	case errors.Is(err, domain.ErrUserBlocked):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "USER_BLOCKED", Message: "usuario bloqueado o eliminado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrOperationNotPermitted):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "OPERATION_NOT_PERMITTED", Message: "la operación está prohibida sobre este registro"})
	case errors.Is(err, domain.ErrLockTimeout):
		// Contención transitoria: el cliente puede reintentar.
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "LOCK_TIMEOUT", Message: "recurso bloqueado por otra operación, reintente"})
	case errors.Is(err, domain.ErrStorageUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORAGE_UNAVAILABLE", Message: "almacenamiento no disponible"})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
