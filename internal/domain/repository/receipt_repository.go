package repository

import (
	"time"

	"github.com/jhoicas/retail-pos/internal/domain/entity"
)

// ReceiptRepository define el puerto de persistencia para recepciones de mercancía.
// Create genera el número de recepción dentro de la misma transacción del insert.
// Las recepciones son hechos históricos: Update y Delete siempre retornan
// domain.ErrOperationNotPermitted.
type ReceiptRepository interface {
	Create(receipt *entity.Receipt) error
	InsertLine(line *entity.ReceiptLine) error
	GetByID(id string) (*entity.Receipt, error)
	GetByNumber(receiptNumber string) (*entity.Receipt, error)
	ListLines(receiptID string) ([]*entity.ReceiptLine, error)
	ListByPeriod(from, to time.Time, limit, offset int) ([]*entity.Receipt, error)
	Update(receipt *entity.Receipt) error
	Delete(id string) error
}
