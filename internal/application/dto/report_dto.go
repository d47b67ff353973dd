package dto

import "github.com/shopspring/decimal"

// RevenueResponse ingreso de un período.
type RevenueResponse struct {
	From    string          `json:"from"`
	To      string          `json:"to"`
	Revenue decimal.Decimal `json:"revenue"`
}

// TopProductResponse fila del reporte de más vendidos.
type TopProductResponse struct {
	ProductID   string          `json:"product_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	UnitsSold   int             `json:"units_sold"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
}

// DashboardResponse resumen del panel principal.
type DashboardResponse struct {
	TodayRevenue     decimal.Decimal `json:"today_revenue"`
	MonthRevenue     decimal.Decimal `json:"month_revenue"`
	TodaySales       int             `json:"today_sales"`
	TotalProducts    int             `json:"total_products"`
	LowStockProducts int             `json:"low_stock_products"`
}
