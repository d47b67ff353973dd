package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptLineRequest línea de recepción de mercancía.
type ReceiptLineRequest struct {
	ProductID     string          `json:"product_id"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

// CreateReceiptRequest recepción de mercancía de un proveedor.
type CreateReceiptRequest struct {
	SupplierInfo string               `json:"supplier_info"`
	Notes        string               `json:"notes"`
	Lines        []ReceiptLineRequest `json:"lines"`
}

// ReceiptLineResponse línea de recepción para respuestas.
type ReceiptLineResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	ProductSKU    string          `json:"product_sku,omitempty"`
	ProductName   string          `json:"product_name,omitempty"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// ReceiptResponse recepción para respuestas.
type ReceiptResponse struct {
	ID            string                `json:"id"`
	ReceiptNumber string                `json:"receipt_number"`
	SupplierInfo  string                `json:"supplier_info"`
	ManagerID     string                `json:"manager_id"`
	ManagerName   string                `json:"manager_name,omitempty"`
	ReceiptDate   time.Time             `json:"receipt_date"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	Notes         string                `json:"notes,omitempty"`
	Lines         []ReceiptLineResponse `json:"lines,omitempty"`
}

// AdjustStockRequest ajuste manual de inventario a una cantidad absoluta.
type AdjustStockRequest struct {
	NewQuantity int    `json:"new_quantity"`
	Reason      string `json:"reason"`
}

// StockMovementResponse movimiento de auditoría para listados.
type StockMovementResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	ProductSKU     string    `json:"product_sku,omitempty"`
	ProductName    string    `json:"product_name,omitempty"`
	Operation      string    `json:"operation"`
	QuantityChange int       `json:"quantity_change"`
	QuantityBefore int       `json:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after"`
	ReferenceID    string    `json:"reference_id,omitempty"`
	ReferenceType  string    `json:"reference_type,omitempty"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
