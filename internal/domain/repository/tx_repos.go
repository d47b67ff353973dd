package repository

// TxRepos agrupa los repositorios atados a una misma transacción.
// El TxRunner de infraestructura los construye sobre la tx activa y los pasa
// al callback de cada motor; así ledger, auditoría y registros de negocio
// comparten la misma unidad de trabajo.
type TxRepos struct {
	Ledger    StockLedgerRepository
	Movements StockMovementRepository
	Sales     SaleRepository
	Receipts  ReceiptRepository
	Products  ProductRepository
}
