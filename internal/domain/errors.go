package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrUserNotFound           = errors.New("usuario no encontrado")
	ErrUserBlocked            = errors.New("usuario bloqueado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrReturnExceedsAvailable = errors.New("cantidad a devolver supera lo disponible")
	ErrOperationNotPermitted  = errors.New("operación no permitida sobre un registro inmutable")
	ErrLockTimeout            = errors.New("tiempo de espera por bloqueo de fila agotado") // transitorio: reintentar la operación completa
	ErrStorageUnavailable     = errors.New("almacenamiento no disponible")
)

// InsufficientStockError indica que una venta o salida dejaría el stock en negativo.
// Conserva producto, cantidad pedida y disponible para reportarlo tal cual al caller.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: pedido %d, disponible %d",
		e.ProductID, e.Requested, e.Available)
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ReturnExceedsAvailableError indica que la devolución supera la cantidad
// vendida aún no devuelta de la línea.
type ReturnExceedsAvailableError struct {
	SaleLineID string
	Requested  int
	Returnable int
}

func (e *ReturnExceedsAvailableError) Error() string {
	return fmt.Sprintf("no se pueden devolver %d unidades de la línea %s: disponibles para devolución %d",
		e.Requested, e.SaleLineID, e.Returnable)
}

// Unwrap permite errors.Is(err, ErrReturnExceedsAvailable).
func (e *ReturnExceedsAvailableError) Unwrap() error { return ErrReturnExceedsAvailable }
