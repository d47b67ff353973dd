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

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create inserta la cabecera de venta. El número se genera desde la secuencia
// sale_number_seq dentro de la misma transacción, así dos ventas concurrentes
// nunca reciben el mismo número.
func (r *SaleRepo) Create(sale *entity.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	number, err := nextDocumentNumber(r.q, "sale_number_seq", "S", sale.SaleDate)
	if err != nil {
		return fmt.Errorf("generate sale number: %w", err)
	}
	sale.SaleNumber = number

	query := `
		INSERT INTO sales (id, sale_number, employee_id, sale_date, total_amount, discount, final_amount, is_returned, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, now())`
	_, err = r.q.Exec(context.Background(), query,
		sale.ID, sale.SaleNumber, sale.EmployeeID, sale.SaleDate,
		sale.TotalAmount, sale.Discount, sale.FinalAmount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// La secuencia hace esto imposible por diseño; si ocurre es un bug fatal, no un error recuperable.
			return fmt.Errorf("colisión de número de venta %s: %w", sale.SaleNumber, err)
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// InsertLine inserta una línea de venta con el precio capturado al momento del bloqueo.
func (r *SaleRepo) InsertLine(line *entity.SaleLine) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	query := `
		INSERT INTO sale_lines (id, sale_id, product_id, quantity, price_at_sale, line_total, returned_qty)
		VALUES ($1, $2, $3, $4, $5, $6, 0)`
	_, err := r.q.Exec(context.Background(), query,
		line.ID, line.SaleID, line.ProductID, line.Quantity, line.PriceAtSale, line.LineTotal,
	)
	if err != nil {
		return fmt.Errorf("insert sale line: %w", err)
	}
	return nil
}

// GetByID obtiene una venta por ID, sin líneas.
func (r *SaleRepo) GetByID(id string) (*entity.Sale, error) {
	query := saleSelect + ` WHERE s.id = $1`
	return r.getOne(query, id)
}

// GetByNumber obtiene una venta por su número generado.
func (r *SaleRepo) GetByNumber(saleNumber string) (*entity.Sale, error) {
	query := saleSelect + ` WHERE s.sale_number = $1`
	return r.getOne(query, saleNumber)
}

// ListLines lista las líneas de una venta con SKU y nombre de producto denormalizados.
func (r *SaleRepo) ListLines(saleID string) ([]*entity.SaleLine, error) {
	query := `
		SELECT sl.id, sl.sale_id, sl.product_id, sl.quantity, sl.price_at_sale, sl.line_total, sl.returned_qty,
		       p.sku, p.name
		FROM sale_lines sl
		JOIN products p ON p.id = sl.product_id
		WHERE sl.sale_id = $1
		ORDER BY p.sku`
	rows, err := r.q.Query(context.Background(), query, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	defer rows.Close()
	var lines []*entity.SaleLine
	for rows.Next() {
		var l entity.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.PriceAtSale,
			&l.LineTotal, &l.ReturnedQty, &l.ProductSKU, &l.ProductName); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

// ListByPeriod lista ventas dentro de un rango de fechas.
func (r *SaleRepo) ListByPeriod(from, to time.Time, limit, offset int) ([]*entity.Sale, error) {
	query := saleSelect + `
		WHERE s.sale_date >= $1 AND s.sale_date <= $2
		ORDER BY s.sale_date DESC LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(context.Background(), query, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	var sales []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// UpdateLineReturnedQty actualiza la cantidad devuelta de una línea.
// Único campo mutable de una línea; lo escribe solo el motor de devoluciones.
func (r *SaleRepo) UpdateLineReturnedQty(lineID string, returnedQty int) error {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE sale_lines SET returned_qty = $2 WHERE id = $1`, lineID, returnedQty,
	)
	if err != nil {
		if isCheckViolation(err) {
			// returned_qty BETWEEN 0 AND quantity
			return domain.ErrReturnExceedsAvailable
		}
		return fmt.Errorf("update returned qty: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkReturned marca la venta como devuelta por completo.
func (r *SaleRepo) MarkReturned(saleID string) error {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE sales SET is_returned = true WHERE id = $1`, saleID,
	)
	if err != nil {
		return fmt.Errorf("mark sale returned: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete no está permitido: las ventas confirmadas son hechos históricos.
func (r *SaleRepo) Delete(_ string) error {
	return domain.ErrOperationNotPermitted
}

const saleSelect = `
	SELECT s.id, s.sale_number, s.employee_id, s.sale_date, s.total_amount, s.discount, s.final_amount, s.is_returned, s.created_at,
	       u.full_name
	FROM sales s
	JOIN users u ON u.id = s.employee_id`

func (r *SaleRepo) getOne(query string, arg any) (*entity.Sale, error) {
	row := r.q.QueryRow(context.Background(), query, arg)
	s, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	if err := row.Scan(&s.ID, &s.SaleNumber, &s.EmployeeID, &s.SaleDate, &s.TotalAmount,
		&s.Discount, &s.FinalAmount, &s.Returned, &s.CreatedAt, &s.EmployeeName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan sale: %w", err)
	}
	return &s, nil
}

// nextDocumentNumber toma el siguiente valor de la secuencia y arma un número
// legible con fecha: S-20250115-000042 / R-20250115-000007.
func nextDocumentNumber(q Querier, sequence, prefix string, date time.Time) (string, error) {
	var n int64
	if err := q.QueryRow(context.Background(), `SELECT nextval($1)`, sequence).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%06d", prefix, date.Format("20060102"), n), nil
}
