package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-pos/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetBySKU(sku string) (*entity.Product, error)
	Update(product *entity.Product) error
	UpdatePrice(productID string, sellingPrice decimal.Decimal) error
	SetActive(productID string, active bool) error
	List(limit, offset int) ([]*entity.Product, error)
	// ListWithStock proyección de solo lectura: producto + categoría + cantidad en ledger.
	ListWithStock(limit, offset int) ([]*entity.ProductStockView, error)
	// ListLowStock productos activos con cantidad por debajo de su MinStock.
	ListLowStock() ([]*entity.ProductStockView, error)
}
