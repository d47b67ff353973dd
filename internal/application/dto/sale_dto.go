package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLineRequest línea del carrito. El precio NO viene del cliente: se captura
// del catálogo al momento del bloqueo de fila, para impedir precios obsoletos.
type SaleLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateSaleRequest carrito para confirmar una venta.
type CreateSaleRequest struct {
	Discount decimal.Decimal   `json:"discount"`
	Lines    []SaleLineRequest `json:"lines"`
}

// SaleLineResponse línea de venta para respuestas.
type SaleLineResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductSKU  string          `json:"product_sku,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	PriceAtSale decimal.Decimal `json:"price_at_sale"`
	LineTotal   decimal.Decimal `json:"line_total"`
	ReturnedQty int             `json:"returned_qty"`
}

// SaleResponse venta para respuestas.
type SaleResponse struct {
	ID           string             `json:"id"`
	SaleNumber   string             `json:"sale_number"`
	EmployeeID   string             `json:"employee_id"`
	EmployeeName string             `json:"employee_name,omitempty"`
	SaleDate     time.Time          `json:"sale_date"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	Discount     decimal.Decimal    `json:"discount"`
	FinalAmount  decimal.Decimal    `json:"final_amount"`
	Returned     bool               `json:"returned"`
	Lines        []SaleLineResponse `json:"lines,omitempty"`
}

// ReturnRequest devolución parcial o total de una línea de venta.
type ReturnRequest struct {
	SaleLineID string `json:"sale_line_id"`
	Quantity   int    `json:"quantity"`
}

// ReturnResponse resultado de una devolución.
type ReturnResponse struct {
	SaleID       string          `json:"sale_id"`
	SaleLineID   string          `json:"sale_line_id"`
	Quantity     int             `json:"quantity"`
	RefundAmount decimal.Decimal `json:"refund_amount"` // price_at_sale * quantity devuelta
	SaleReturned bool            `json:"sale_returned"` // true si la venta quedó devuelta por completo
}
