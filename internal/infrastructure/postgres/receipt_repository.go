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

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo implementación de ReceiptRepository sobre PostgreSQL (usable con pool o tx).
type ReceiptRepo struct {
	q Querier
}

// NewReceiptRepository construye el adaptador de recepciones. Pasar pool o tx (Querier).
func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

// Create inserta la cabecera de recepción. El número se toma de receipt_number_seq
// dentro de la misma transacción del insert.
func (r *ReceiptRepo) Create(receipt *entity.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.New().String()
	}
	number, err := nextDocumentNumber(r.q, "receipt_number_seq", "R", receipt.ReceiptDate)
	if err != nil {
		return fmt.Errorf("generate receipt number: %w", err)
	}
	receipt.ReceiptNumber = number

	query := `
		INSERT INTO receipts (id, receipt_number, supplier_info, manager_id, receipt_date, total_amount, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`
	_, err = r.q.Exec(context.Background(), query,
		receipt.ID, receipt.ReceiptNumber, receipt.SupplierInfo, receipt.ManagerID,
		receipt.ReceiptDate, receipt.TotalAmount, receipt.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

// InsertLine inserta una línea de recepción.
func (r *ReceiptRepo) InsertLine(line *entity.ReceiptLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	query := `
		INSERT INTO receipt_lines (id, receipt_id, product_id, quantity, purchase_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		line.ID, line.ReceiptID, line.ProductID, line.Quantity, line.PurchasePrice, line.LineTotal,
	)
	if err != nil {
		return fmt.Errorf("insert receipt line: %w", err)
	}
	return nil
}

// GetByID obtiene una recepción por ID, sin líneas.
func (r *ReceiptRepo) GetByID(id string) (*entity.Receipt, error) {
	return r.getOne(receiptSelect+` WHERE rc.id = $1`, id)
}

// GetByNumber obtiene una recepción por su número generado.
func (r *ReceiptRepo) GetByNumber(receiptNumber string) (*entity.Receipt, error) {
	return r.getOne(receiptSelect+` WHERE rc.receipt_number = $1`, receiptNumber)
}

// ListLines lista las líneas de una recepción.
func (r *ReceiptRepo) ListLines(receiptID string) ([]*entity.ReceiptLine, error) {
	query := `
		SELECT rl.id, rl.receipt_id, rl.product_id, rl.quantity, rl.purchase_price, rl.line_total,
		       p.sku, p.name
		FROM receipt_lines rl
		JOIN products p ON p.id = rl.product_id
		WHERE rl.receipt_id = $1
		ORDER BY p.sku`
	rows, err := r.q.Query(context.Background(), query, receiptID)
	if err != nil {
		return nil, fmt.Errorf("list receipt lines: %w", err)
	}
	defer rows.Close()
	var lines []*entity.ReceiptLine
	for rows.Next() {
		var l entity.ReceiptLine
		if err := rows.Scan(&l.ID, &l.ReceiptID, &l.ProductID, &l.Quantity, &l.PurchasePrice,
			&l.LineTotal, &l.ProductSKU, &l.ProductName); err != nil {
			return nil, fmt.Errorf("scan receipt line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

// ListByPeriod lista recepciones dentro de un rango de fechas.
func (r *ReceiptRepo) ListByPeriod(from, to time.Time, limit, offset int) ([]*entity.Receipt, error) {
	query := receiptSelect + `
		WHERE rc.receipt_date >= $1 AND rc.receipt_date <= $2
		ORDER BY rc.receipt_date DESC LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(context.Background(), query, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()
	var receipts []*entity.Receipt
	for rows.Next() {
		var rc entity.Receipt
		if err := rows.Scan(&rc.ID, &rc.ReceiptNumber, &rc.SupplierInfo, &rc.ManagerID,
			&rc.ReceiptDate, &rc.TotalAmount, &rc.Notes, &rc.CreatedAt, &rc.ManagerName); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, &rc)
	}
	return receipts, rows.Err()
}

// Update no está permitido: las recepciones son hechos históricos.
func (r *ReceiptRepo) Update(_ *entity.Receipt) error {
	return domain.ErrOperationNotPermitted
}

// Delete no está permitido para siempre; la corrección es un ajuste manual con
// su propio rastro de auditoría, nunca la mutación de la historia.
func (r *ReceiptRepo) Delete(_ string) error {
	return domain.ErrOperationNotPermitted
}

const receiptSelect = `
	SELECT rc.id, rc.receipt_number, rc.supplier_info, rc.manager_id, rc.receipt_date, rc.total_amount, rc.notes, rc.created_at,
	       u.full_name
	FROM receipts rc
	JOIN users u ON u.id = rc.manager_id`

func (r *ReceiptRepo) getOne(query string, arg any) (*entity.Receipt, error) {
	var rc entity.Receipt
	err := r.q.QueryRow(context.Background(), query, arg).Scan(
		&rc.ID, &rc.ReceiptNumber, &rc.SupplierInfo, &rc.ManagerID,
		&rc.ReceiptDate, &rc.TotalAmount, &rc.Notes, &rc.CreatedAt, &rc.ManagerName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return &rc, nil
}
