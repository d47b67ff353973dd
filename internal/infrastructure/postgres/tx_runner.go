package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/retail-pos/internal/application/inventory"
	"github.com/jhoicas/retail-pos/internal/application/sale"
	"github.com/jhoicas/retail-pos/internal/domain/repository"
)

// Ensure TxRunner implementa los puertos de los motores.
var _ sale.TxRunner = (*TxRunner)(nil)
var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL: la unidad de
// trabajo de los motores de venta, recepción, ajuste y devolución. Los bloqueos
// de fila adquiridos dentro del callback se liberan solo al Commit o Rollback.
type TxRunner struct {
	pool          *pgxpool.Pool
	lockTimeoutMS int
}

// NewTxRunner construye el runner con el pool y el lock_timeout por transacción.
func NewTxRunner(pool *pgxpool.Pool, lockTimeoutMS int) *TxRunner {
	return &TxRunner{pool: pool, lockTimeoutMS: lockTimeoutMS}
}

// Run inicia una transacción, fija lock_timeout, ejecuta fn con repositorios
// atados a la tx y hace Commit o Rollback. Cualquier error de fn descarta
// todas las mutaciones: ledger, auditoría y registros de negocio quedan
// exactamente como antes de la llamada.
func (r *TxRunner) Run(ctx context.Context, fn func(repos *repository.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", mapTxError(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeoutMS > 0 {
		// SET LOCAL aplica solo a esta transacción; al expirar, PostgreSQL
		// responde 55P03 y la operación completa se reporta como ErrLockTimeout.
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeoutMS)); err != nil {
			return fmt.Errorf("set lock_timeout: %w", mapTxError(err))
		}
	}

	repos := &repository.TxRepos{
		Ledger:    NewStockLedgerRepository(tx),
		Movements: NewStockMovementRepository(tx),
		Sales:     NewSaleRepository(tx),
		Receipts:  NewReceiptRepository(tx),
		Products:  NewProductRepository(tx),
	}

	if err := fn(repos); err != nil {
		return mapTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapTxError(err))
	}
	return nil
}
