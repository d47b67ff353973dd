package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-pos/internal/domain"
	"github.com/jhoicas/retail-pos/internal/domain/entity"
	"github.com/jhoicas/retail-pos/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto y su fila perezosa del ledger (cantidad 0).
func (r *ProductRepo) Create(product *entity.Product) error {
	query := `
		INSERT INTO products (id, sku, name, description, category_id, selling_price, purchase_price, min_stock, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.SKU, product.Name, product.Description, nullable(product.CategoryID),
		product.SellingPrice, product.PurchasePrice, product.MinStock, product.Active,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	_, err = r.q.Exec(context.Background(),
		`INSERT INTO stock_ledger (product_id, quantity, reserved, updated_at)
		 VALUES ($1, 0, 0, now()) ON CONFLICT (product_id) DO NOTHING`, product.ID,
	)
	if err != nil {
		return fmt.Errorf("init ledger row: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.getOne(productSelect+` WHERE id = $1`, id)
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	return r.getOne(productSelect+` WHERE sku = $1`, sku)
}

// Update actualiza los campos mutables del catálogo. El SKU no cambia una vez creado.
func (r *ProductRepo) Update(product *entity.Product) error {
	query := `
		UPDATE products SET name = $2, description = $3, category_id = $4, selling_price = $5,
		       purchase_price = $6, min_stock = $7, active = $8, updated_at = now()
		WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query,
		product.ID, product.Name, product.Description, nullable(product.CategoryID),
		product.SellingPrice, product.PurchasePrice, product.MinStock, product.Active,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdatePrice actualiza solo el precio de venta.
func (r *ProductRepo) UpdatePrice(productID string, sellingPrice decimal.Decimal) error {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE products SET selling_price = $2, updated_at = now() WHERE id = $1`,
		productID, sellingPrice,
	)
	if err != nil {
		return fmt.Errorf("update product price: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetActive activa o desactiva un producto del catálogo.
func (r *ProductRepo) SetActive(productID string, active bool) error {
	cmd, err := r.q.Exec(context.Background(),
		`UPDATE products SET active = $2, updated_at = now() WHERE id = $1`,
		productID, active,
	)
	if err != nil {
		return fmt.Errorf("set product active: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos con paginación.
func (r *ProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	query := productSelect + ` ORDER BY name LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ListWithStock proyección de solo lectura: producto + nombre de categoría +
// cantidad en ledger. Conveniencia de reporte; nunca se escribe de vuelta.
func (r *ProductRepo) ListWithStock(limit, offset int) ([]*entity.ProductStockView, error) {
	query := productStockSelect + ` ORDER BY p.name LIMIT $1 OFFSET $2`
	return r.listWithStock(query, limit, offset)
}

// ListLowStock productos activos por debajo de su umbral mínimo.
func (r *ProductRepo) ListLowStock() ([]*entity.ProductStockView, error) {
	query := productStockSelect + `
		WHERE p.active AND COALESCE(sl.quantity, 0) < p.min_stock
		ORDER BY COALESCE(sl.quantity, 0) - p.min_stock`
	return r.listWithStock(query)
}

const productSelect = `
	SELECT id, sku, name, description, COALESCE(category_id, ''), selling_price, purchase_price, min_stock, active, created_at, updated_at
	FROM products`

const productStockSelect = `
	SELECT p.id, p.sku, p.name, p.description, COALESCE(p.category_id, ''), p.selling_price, p.purchase_price, p.min_stock, p.active, p.created_at, p.updated_at,
	       COALESCE(c.name, ''), COALESCE(sl.quantity, 0)
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN stock_ledger sl ON sl.product_id = p.id`

func (r *ProductRepo) getOne(query string, arg any) (*entity.Product, error) {
	row := r.q.QueryRow(context.Background(), query, arg)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID,
		&p.SellingPrice, &p.PurchasePrice, &p.MinStock, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) listWithStock(query string, args ...any) ([]*entity.ProductStockView, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products with stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductStockView
	for rows.Next() {
		var v entity.ProductStockView
		if err := rows.Scan(&v.ID, &v.SKU, &v.Name, &v.Description, &v.CategoryID,
			&v.SellingPrice, &v.PurchasePrice, &v.MinStock, &v.Active, &v.CreatedAt, &v.UpdatedAt,
			&v.CategoryName, &v.Quantity); err != nil {
			return nil, fmt.Errorf("scan product stock view: %w", err)
		}
		list = append(list, &v)
	}
	return list, rows.Err()
}

// nullable convierte cadena vacía en NULL para columnas opcionales.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
