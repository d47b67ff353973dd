package inventory

import (
	"context"

	"github.com/jhoicas/retail-pos/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Recepciones y ajustes manuales usan la misma
// unidad de trabajo que el motor de ventas: bloqueo de fila, mutación del
// ledger y movimiento de auditoría, todo o nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos *repository.TxRepos) error) error
}
