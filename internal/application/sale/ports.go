package sale

import (
	"context"

	"github.com/jhoicas/retail-pos/internal/domain/entity"
	"github.com/jhoicas/retail-pos/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Es la unidad de trabajo del motor de ventas:
// bloqueos de fila, mutaciones del ledger, auditoría y registros de negocio
// se aplican atómicamente o no se aplican en absoluto.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos *repository.TxRepos) error) error
}

// TicketPDFGenerator genera el ticket de venta en PDF (copia para el cliente).
type TicketPDFGenerator interface {
	GenerateTicketPDF(ctx context.Context, sale *entity.Sale) ([]byte, error)
}
