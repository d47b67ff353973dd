package repository

import (
	"time"

	"github.com/jhoicas/retail-pos/internal/domain/entity"
)

// StockMovementRepository define el puerto del log de auditoría de stock.
// Es append-only: Update y Delete existen en el puerto solo para señalar
// domain.ErrOperationNotPermitted de forma verificable.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	ListByUser(userID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	// ListAdjustments lista movimientos ADJUSTMENT y WRITE_OFF (log de correcciones manuales).
	ListAdjustments(limit, offset int) ([]*entity.StockMovement, error)
	// Update y Delete siempre retornan domain.ErrOperationNotPermitted.
	Update(movement *entity.StockMovement) error
	Delete(id string) error
}
