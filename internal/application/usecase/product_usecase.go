package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-pos/internal/application/dto"
	"github.com/jhoicas/retail-pos/internal/domain"
	"github.com/jhoicas/retail-pos/internal/domain/entity"
	"github.com/jhoicas/retail-pos/internal/domain/repository"
	"github.com/jhoicas/retail-pos/pkg/logger"
)

// ProductUseCase gestión del catálogo de productos y categorías.
// El borrado físico no existe: un producto sale de circulación desactivándolo,
// porque sus movimientos de stock lo referencian para siempre.
type ProductUseCase struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	log        *logger.Logger
}

// NewProductUseCase crea el caso de uso de catálogo.
func NewProductUseCase(products repository.ProductRepository, categories repository.CategoryRepository, log *logger.Logger) *ProductUseCase {
	return &ProductUseCase{products: products, categories: categories, log: log}
}

// CreateProduct da de alta un producto. El SKU debe ser único.
func (uc *ProductUseCase) CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if req.SKU == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: sku y nombre requeridos", domain.ErrInvalidInput)
	}
	if req.SellingPrice.IsNegative() || req.PurchasePrice.IsNegative() {
		return nil, fmt.Errorf("%w: los precios no pueden ser negativos", domain.ErrInvalidInput)
	}
	if req.MinStock < 0 {
		return nil, fmt.Errorf("%w: el stock mínimo no puede ser negativo", domain.ErrInvalidInput)
	}
	if req.CategoryID != "" {
		category, err := uc.categories.GetByID(req.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, fmt.Errorf("%w: categoría %s", domain.ErrNotFound, req.CategoryID)
		}
	}

	product := &entity.Product{
		ID:            uuid.NewString(),
		SKU:           req.SKU,
		Name:          req.Name,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		SellingPrice:  req.SellingPrice,
		PurchasePrice: req.PurchasePrice,
		MinStock:      req.MinStock,
		Active:        true,
	}
	if err := uc.products.Create(product); err != nil {
		return nil, err
	}

	uc.log.Info().Str("product_id", product.ID).Str("sku", product.SKU).Msg("producto creado")
	return toProductResponse(product), nil
}

// GetProduct devuelve un producto por ID.
func (uc *ProductUseCase) GetProduct(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.products.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	return toProductResponse(product), nil
}

// GetProductBySKU devuelve un producto por SKU (búsqueda de caja con escáner).
func (uc *ProductUseCase) GetProductBySKU(ctx context.Context, sku string) (*dto.ProductResponse, error) {
	product, err := uc.products.GetBySKU(sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: sku %s", domain.ErrNotFound, sku)
	}
	return toProductResponse(product), nil
}

// UpdateProduct actualiza los campos mutables del producto. SKU e ID no cambian.
func (uc *ProductUseCase) UpdateProduct(ctx context.Context, id string, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.products.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	if req.SellingPrice.IsNegative() || req.PurchasePrice.IsNegative() {
		return nil, fmt.Errorf("%w: los precios no pueden ser negativos", domain.ErrInvalidInput)
	}
	if req.MinStock < 0 {
		return nil, fmt.Errorf("%w: el stock mínimo no puede ser negativo", domain.ErrInvalidInput)
	}
	if req.CategoryID != "" && req.CategoryID != product.CategoryID {
		category, err := uc.categories.GetByID(req.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, fmt.Errorf("%w: categoría %s", domain.ErrNotFound, req.CategoryID)
		}
	}

	product.Name = req.Name
	product.Description = req.Description
	product.CategoryID = req.CategoryID
	product.SellingPrice = req.SellingPrice
	product.PurchasePrice = req.PurchasePrice
	product.MinStock = req.MinStock
	if req.Active != nil {
		product.Active = *req.Active
	}
	if err := uc.products.Update(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// UpdatePrice cambia solo el precio de venta. Las ventas ya confirmadas
// conservan el precio capturado en su momento.
func (uc *ProductUseCase) UpdatePrice(ctx context.Context, id string, sellingPrice decimal.Decimal) error {
	if sellingPrice.IsNegative() {
		return fmt.Errorf("%w: el precio no puede ser negativo", domain.ErrInvalidInput)
	}
	return uc.products.UpdatePrice(id, sellingPrice)
}

// SetActive activa o desactiva un producto del catálogo.
func (uc *ProductUseCase) SetActive(ctx context.Context, id string, active bool) error {
	return uc.products.SetActive(id, active)
}

// ListProducts listado paginado del catálogo.
func (uc *ProductUseCase) ListProducts(ctx context.Context, page dto.PageRequest) ([]*dto.ProductResponse, error) {
	products, err := uc.products.List(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

// CreateCategory da de alta una categoría.
func (uc *ProductUseCase) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: nombre requerido", domain.ErrInvalidInput)
	}
	category := &entity.Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := uc.categories.Create(category); err != nil {
		return nil, err
	}
	return toCategoryResponse(category), nil
}

// ListCategories lista todas las categorías.
func (uc *ProductUseCase) ListCategories(ctx context.Context) ([]*dto.CategoryResponse, error) {
	categories, err := uc.categories.List()
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	return out, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		SellingPrice:  p.SellingPrice,
		PurchasePrice: p.PurchasePrice,
		MinStock:      p.MinStock,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
	}
}

func toCategoryResponse(c *entity.Category) *dto.CategoryResponse {
	return &dto.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
	}
}
