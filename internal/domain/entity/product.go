package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// La identidad (ID, SKU) es inmutable una vez referenciada por un movimiento de
// stock; el precio de venta y la bandera Active sí pueden cambiar.
type Product struct {
	ID            string
	SKU           string
	Name          string
	Description   string
	CategoryID    string
	SellingPrice  decimal.Decimal
	PurchasePrice decimal.Decimal
	MinStock      int
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProductStockView proyección de solo lectura para listados: producto con
// nombre de categoría y cantidad en stock denormalizados. Nunca se escribe de vuelta.
type ProductStockView struct {
	Product
	CategoryName string
	Quantity     int
}
