package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/retail-pos/internal/domain"
	"github.com/jhoicas/retail-pos/internal/domain/entity"
	"github.com/jhoicas/retail-pos/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del log de auditoría sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento de stock. Solo inserción, nunca modificación.
func (r *StockMovementRepo) Create(movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO stock_movements (id, product_id, operation, quantity_change, quantity_before, quantity_after, reference_id, reference_type, user_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	referenceID := (*string)(nil)
	if movement.ReferenceID != "" {
		referenceID = &movement.ReferenceID
	}
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.ProductID, movement.Operation,
		movement.QuantityChange, movement.QuantityBefore, movement.QuantityAfter,
		referenceID, movement.ReferenceType, movement.UserID, movement.Notes, movement.CreatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			// quantity_after >= 0 y quantity_after = quantity_before + quantity_change
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	query := `
		SELECT id, product_id, operation, quantity_change, quantity_before, quantity_after, reference_id, reference_type, user_id, notes, created_at
		FROM stock_movements WHERE id = $1`
	var m entity.StockMovement
	var referenceID *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&m.ID, &m.ProductID, &m.Operation, &m.QuantityChange, &m.QuantityBefore,
		&m.QuantityAfter, &referenceID, &m.ReferenceType, &m.UserID, &m.Notes, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	if referenceID != nil {
		m.ReferenceID = *referenceID
	}
	return &m, nil
}

// ListByProduct lista movimientos de un producto en un rango de fechas, con SKU,
// nombre de producto y nombre de usuario denormalizados para el listado.
func (r *StockMovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT sm.id, sm.product_id, sm.operation, sm.quantity_change, sm.quantity_before, sm.quantity_after,
		       sm.reference_id, sm.reference_type, sm.user_id, sm.notes, sm.created_at,
		       p.sku, p.name, u.full_name
		FROM stock_movements sm
		JOIN products p ON p.id = sm.product_id
		JOIN users u ON u.id = sm.user_id
		WHERE sm.product_id = $1`
	args := []any{productID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND sm.created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND sm.created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY sm.created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	return r.list(query, args...)
}

// ListByUser lista movimientos registrados por un usuario en un rango de fechas.
func (r *StockMovementRepo) ListByUser(userID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT sm.id, sm.product_id, sm.operation, sm.quantity_change, sm.quantity_before, sm.quantity_after,
		       sm.reference_id, sm.reference_type, sm.user_id, sm.notes, sm.created_at,
		       p.sku, p.name, u.full_name
		FROM stock_movements sm
		JOIN products p ON p.id = sm.product_id
		JOIN users u ON u.id = sm.user_id
		WHERE sm.user_id = $1`
	args := []any{userID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND sm.created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND sm.created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY sm.created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	return r.list(query, args...)
}

// ListAdjustments lista las correcciones manuales (ADJUSTMENT y WRITE_OFF).
func (r *StockMovementRepo) ListAdjustments(limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT sm.id, sm.product_id, sm.operation, sm.quantity_change, sm.quantity_before, sm.quantity_after,
		       sm.reference_id, sm.reference_type, sm.user_id, sm.notes, sm.created_at,
		       p.sku, p.name, u.full_name
		FROM stock_movements sm
		JOIN products p ON p.id = sm.product_id
		JOIN users u ON u.id = sm.user_id
		WHERE sm.operation IN ($1, $2)
		ORDER BY sm.created_at DESC LIMIT $3 OFFSET $4`
	return r.list(query, entity.OperationAdjustment, entity.OperationWriteOff, limit, offset)
}

// Update no está permitido: el log de auditoría es append-only.
func (r *StockMovementRepo) Update(_ *entity.StockMovement) error {
	return domain.ErrOperationNotPermitted
}

// Delete no está permitido: el log de auditoría es append-only.
func (r *StockMovementRepo) Delete(_ string) error {
	return domain.ErrOperationNotPermitted
}

func (r *StockMovementRepo) list(query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var referenceID *string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Operation, &m.QuantityChange, &m.QuantityBefore,
			&m.QuantityAfter, &referenceID, &m.ReferenceType, &m.UserID, &m.Notes, &m.CreatedAt,
			&m.ProductSKU, &m.ProductName, &m.UserName); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if referenceID != nil {
			m.ReferenceID = *referenceID
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
