package entity

import "time"

// Tipos de operación sobre el stock.
const (
	OperationReceipt    = "RECEIPT"    // entrada por recepción de mercancía
	OperationSale       = "SALE"       // salida por venta
	OperationReturn     = "RETURN"     // devolución de venta
	OperationAdjustment = "ADJUSTMENT" // ajuste manual positivo
	OperationWriteOff   = "WRITE_OFF"  // ajuste manual negativo (baja)
)

// Tipos de referencia del movimiento hacia el registro de negocio que lo causó.
const (
	ReferenceSale       = "SALE"
	ReferenceSaleReturn = "SALE_RETURN"
	ReferenceReceipt    = "RECEIPT"
)

// IsValidOperation verifica que el tipo de operación sea uno de los conocidos.
func IsValidOperation(op string) bool {
	switch op {
	case OperationReceipt, OperationSale, OperationReturn, OperationAdjustment, OperationWriteOff:
		return true
	}
	return false
}

// StockMovement es un registro de auditoría inmutable de una mutación del ledger.
// Invariante: QuantityAfter == QuantityBefore + QuantityChange y QuantityAfter >= 0.
// Solo se inserta; nunca se actualiza ni se borra.
type StockMovement struct {
	ID             string
	ProductID      string
	Operation      string
	QuantityChange int // con signo: negativo en ventas y bajas
	QuantityBefore int
	QuantityAfter  int
	ReferenceID    string // id de venta o recepción; vacío en ajustes manuales
	ReferenceType  string
	UserID         string
	Notes          string
	CreatedAt      time.Time

	// Campos denormalizados para listados (proyección, no estado autoritativo)
	ProductSKU  string
	ProductName string
	UserName    string
}
