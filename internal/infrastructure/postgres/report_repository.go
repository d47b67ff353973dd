package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-pos/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo consultas de solo lectura sobre ventas y stock para reportes.
// Refleja algún estado confirmado; sin bloqueos ni garantías adicionales.
type ReportRepo struct {
	pool *pgxpool.Pool
}

// NewReportRepository construye el adaptador de reportes.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// RevenueByPeriod suma el importe final de las ventas del período.
// Las ventas totalmente devueltas siguen contando: la devolución es un hecho
// posterior con su propio rastro, no una anulación de la venta.
func (r *ReportRepo) RevenueByPeriod(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(final_amount), 0)
		FROM sales
		WHERE sale_date >= $1 AND sale_date <= $2`, from, to,
	).Scan(&revenue)
	if err != nil {
		return decimal.Zero, fmt.Errorf("revenue by period: %w", err)
	}
	return revenue, nil
}

// TopSellingProducts agrupa unidades vendidas e ingreso bruto por producto.
func (r *ReportRepo) TopSellingProducts(ctx context.Context, from, to time.Time, limit int) ([]repository.TopProductRow, error) {
	const query = `
		SELECT p.id, p.sku, p.name,
		       SUM(sl.quantity)   AS units_sold,
		       SUM(sl.line_total) AS gross_amount
		FROM sale_lines sl
		JOIN sales s ON s.id = sl.sale_id
		JOIN products p ON p.id = sl.product_id
		WHERE s.sale_date >= $1 AND s.sale_date <= $2
		GROUP BY p.id, p.sku, p.name
		ORDER BY units_sold DESC
		LIMIT $3`
	rows, err := r.pool.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("top selling products: %w", err)
	}
	defer rows.Close()
	var results []repository.TopProductRow
	for rows.Next() {
		var row repository.TopProductRow
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.Name, &row.UnitsSold, &row.GrossAmount); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// GetDashboardStats resumen para el panel: ingresos de hoy y del mes,
// ventas de hoy, total de productos y productos bajo mínimo.
func (r *ReportRepo) GetDashboardStats(ctx context.Context) (*repository.DashboardStats, error) {
	const query = `
		SELECT
		    COALESCE((SELECT SUM(final_amount) FROM sales WHERE sale_date::date = CURRENT_DATE), 0),
		    COALESCE((SELECT SUM(final_amount) FROM sales WHERE date_trunc('month', sale_date) = date_trunc('month', CURRENT_DATE)), 0),
		    (SELECT COUNT(*) FROM sales WHERE sale_date::date = CURRENT_DATE),
		    (SELECT COUNT(*) FROM products WHERE active),
		    (SELECT COUNT(*) FROM products p LEFT JOIN stock_ledger sl ON sl.product_id = p.id
		     WHERE p.active AND COALESCE(sl.quantity, 0) < p.min_stock)`
	var stats repository.DashboardStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TodayRevenue, &stats.MonthRevenue, &stats.TodaySales,
		&stats.TotalProducts, &stats.LowStockProducts,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &stats, nil
}
