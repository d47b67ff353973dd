package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-pos/internal/domain"
	"github.com/jhoicas/retail-pos/internal/domain/entity"
	"github.com/jhoicas/retail-pos/internal/domain/repository"
)

var _ repository.StockLedgerRepository = (*StockLedgerRepo)(nil)

// StockLedgerRepo implementación del ledger de stock sobre PostgreSQL (usable con pool o tx).
// La tabla stock_ledger lleva CHECK (quantity >= 0) como respaldo del invariante;
// la validación de negocio ocurre antes, contra el snapshot bloqueado.
type StockLedgerRepo struct {
	q Querier
}

// NewStockLedgerRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewStockLedgerRepository(q Querier) *StockLedgerRepo {
	return &StockLedgerRepo{q: q}
}

// GetQuantity lectura no bloqueante de la cantidad disponible. 0 si no hay fila.
func (r *StockLedgerRepo) GetQuantity(productID string) (int, error) {
	var qty int
	err := r.q.QueryRow(context.Background(),
		`SELECT quantity FROM stock_ledger WHERE product_id = $1`, productID,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get quantity: %w", err)
	}
	return qty, nil
}

// GetForUpdate obtiene el snapshot y bloquea la fila (SELECT FOR UPDATE).
// El bloqueo se mantiene hasta el Commit o Rollback de la transacción en curso.
func (r *StockLedgerRepo) GetForUpdate(productID string) (*entity.StockLedgerEntry, error) {
	query := `
		SELECT product_id, quantity, reserved, updated_at
		FROM stock_ledger WHERE product_id = $1
		FOR UPDATE`
	var e entity.StockLedgerEntry
	err := r.q.QueryRow(context.Background(), query, productID).Scan(
		&e.ProductID, &e.Quantity, &e.Reserved, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockLedgerEntry{ProductID: productID}, nil
		}
		return nil, fmt.Errorf("get ledger for update: %w", err)
	}
	return &e, nil
}

// Decrease resta cantidad a la fila ya bloqueada. El CHECK quantity >= 0 actúa
// solo como respaldo: si dispara, algo saltó la validación contra el snapshot.
func (r *StockLedgerRepo) Decrease(productID string, amount int) error {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE stock_ledger SET quantity = quantity - $2, updated_at = now() WHERE product_id = $1`,
		productID, amount,
	)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("decrease ledger: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("decrease ledger: fila inexistente para producto %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}

// Increase suma cantidad, creando la fila si no existe (upsert).
func (r *StockLedgerRepo) Increase(productID string, amount int) error {
	query := `
		INSERT INTO stock_ledger (product_id, quantity, reserved, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id)
		DO UPDATE SET quantity = stock_ledger.quantity + EXCLUDED.quantity, updated_at = now()`
	if _, err := r.q.Exec(context.Background(), query, productID, amount); err != nil {
		return fmt.Errorf("increase ledger: %w", err)
	}
	return nil
}

// SetQuantity sobrescribe la cantidad (ajuste manual). Upsert por si la fila
// perezosa aún no existe.
func (r *StockLedgerRepo) SetQuantity(productID string, quantity int) error {
	query := `
		INSERT INTO stock_ledger (product_id, quantity, reserved, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	if _, err := r.q.Exec(context.Background(), query, productID, quantity); err != nil {
		if isCheckViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("set ledger quantity: %w", err)
	}
	return nil
}
