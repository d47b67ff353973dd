package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale representa una venta confirmada. Inmutable tras su creación, salvo la
// bandera Returned y las cantidades devueltas por línea (motor de devoluciones).
type Sale struct {
	ID          string
	SaleNumber  string // generado en la misma transacción del insert; único
	EmployeeID  string
	SaleDate    time.Time
	TotalAmount decimal.Decimal
	Discount    decimal.Decimal
	FinalAmount decimal.Decimal // TotalAmount - Discount
	Returned    bool            // true solo cuando toda línea cumple ReturnedQty == Quantity
	CreatedAt   time.Time

	// Denormalizado para listados
	EmployeeName string

	Lines []SaleLine
}

// SaleLine es una línea de venta. PriceAtSale captura el precio de venta del
// producto en el momento del bloqueo de fila, inmune a cambios posteriores del catálogo.
type SaleLine struct {
	ID          string
	SaleID      string
	ProductID   string
	Quantity    int
	PriceAtSale decimal.Decimal
	LineTotal   decimal.Decimal // PriceAtSale * Quantity, recalculado en servidor
	ReturnedQty int             // invariante: 0 <= ReturnedQty <= Quantity

	// Denormalizado para listados
	ProductSKU  string
	ProductName string
}

// ReturnableQty devuelve la cantidad vendida aún no devuelta de la línea.
func (l SaleLine) ReturnableQty() int {
	return l.Quantity - l.ReturnedQty
}

// FullyReturned indica si toda la venta fue devuelta línea a línea.
func (s Sale) FullyReturned() bool {
	if len(s.Lines) == 0 {
		return false
	}
	for _, l := range s.Lines {
		if l.ReturnedQty != l.Quantity {
			return false
		}
	}
	return true
}
