package repository

import (
	"time"

	"github.com/jhoicas/retail-pos/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para ventas.
// Create genera el número de venta dentro de la misma transacción del insert
// (secuencia de base de datos), de modo que dos ventas concurrentes nunca
// reciben el mismo número. Las ventas confirmadas son inmutables salvo la
// bandera Returned y ReturnedQty por línea.
type SaleRepository interface {
	Create(sale *entity.Sale) error
	InsertLine(line *entity.SaleLine) error
	GetByID(id string) (*entity.Sale, error)
	GetByNumber(saleNumber string) (*entity.Sale, error)
	ListLines(saleID string) ([]*entity.SaleLine, error)
	ListByPeriod(from, to time.Time, limit, offset int) ([]*entity.Sale, error)
	// UpdateLineReturnedQty actualiza la cantidad devuelta de una línea (motor de devoluciones).
	UpdateLineReturnedQty(lineID string, returnedQty int) error
	// MarkReturned marca la venta como devuelta por completo.
	MarkReturned(saleID string) error
	// Delete siempre retorna domain.ErrOperationNotPermitted.
	Delete(id string) error
}
