package repository

import "github.com/jhoicas/retail-pos/internal/domain/entity"

// StockLedgerRepository define el puerto del ledger de stock: la única fuente
// de verdad de la cantidad disponible por producto.
//
// Toda mutación debe ejecutarse dentro de una transacción, después de
// GetForUpdate sobre el mismo producto, y emparejada con exactamente un
// movimiento de auditoría en la misma transacción.
type StockLedgerRepository interface {
	// GetQuantity lectura no bloqueante; devuelve 0 si no existe fila.
	GetQuantity(productID string) (int, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) y devuelve el snapshot
	// actual; si no existe fila devuelve un snapshot en cero. Bloquea hasta que
	// la transacción en conflicto confirme o haga rollback.
	GetForUpdate(productID string) (*entity.StockLedgerEntry, error)
	// Decrease resta cantidad; requiere bloqueo previo en la misma transacción.
	Decrease(productID string, amount int) error
	// Increase suma cantidad, creando la fila si no existe (upsert).
	Increase(productID string, amount int) error
	// SetQuantity sobrescribe la cantidad; solo para ajustes manuales.
	SetQuantity(productID string, quantity int) error
}
