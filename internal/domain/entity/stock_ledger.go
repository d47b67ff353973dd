package entity

import "time"

// StockLedgerEntry es la fila autoritativa de stock disponible por producto.
// Se crea de forma perezosa (cantidad 0), se muta solo a través del repositorio
// de ledger dentro de una transacción, y nunca se elimina.
type StockLedgerEntry struct {
	ProductID string
	Quantity  int // invariante: >= 0 en todo estado confirmado
	Reserved  int // reservas futuras; el flujo de venta actual no lo usa
	UpdatedAt time.Time
}
