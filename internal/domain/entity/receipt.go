package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt representa una recepción de mercancía. Inmutable tras su creación;
// el borrado está prohibido para siempre: la única herramienta correctiva es
// un ajuste manual, que deja su propio rastro de auditoría.
type Receipt struct {
	ID            string
	ReceiptNumber string // generado en la misma transacción del insert; único
	SupplierInfo  string
	ManagerID     string
	ReceiptDate   time.Time
	TotalAmount   decimal.Decimal
	Notes         string
	CreatedAt     time.Time

	// Denormalizado para listados
	ManagerName string

	Lines []ReceiptLine
}

// ReceiptLine es una línea de recepción con el precio de compra pactado.
type ReceiptLine struct {
	ID            string
	ReceiptID     string
	ProductID     string
	Quantity      int
	PurchasePrice decimal.Decimal
	LineTotal     decimal.Decimal // PurchasePrice * Quantity

	// Denormalizado para listados
	ProductSKU  string
	ProductName string
}
