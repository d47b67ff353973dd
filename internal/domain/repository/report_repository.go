package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TopProductRow fila del reporte de productos más vendidos.
type TopProductRow struct {
	ProductID   string
	SKU         string
	Name        string
	UnitsSold   int
	GrossAmount decimal.Decimal
}

// DashboardStats resumen para el panel principal.
type DashboardStats struct {
	TodayRevenue     decimal.Decimal
	MonthRevenue     decimal.Decimal
	TodaySales       int
	TotalProducts    int
	LowStockProducts int
}

// ReportRepository consultas de solo lectura sobre ventas y stock.
// Son proyecciones: reflejan algún estado confirmado, sin garantías adicionales
// de consistencia, y nunca escriben.
type ReportRepository interface {
	RevenueByPeriod(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	TopSellingProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProductRow, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}
