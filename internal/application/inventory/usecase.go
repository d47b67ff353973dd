package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-pos/internal/application/dto"
	"github.com/jhoicas/retail-pos/internal/domain"
	"github.com/jhoicas/retail-pos/internal/domain/entity"
	"github.com/jhoicas/retail-pos/internal/domain/repository"
	"github.com/jhoicas/retail-pos/pkg/logger"
)

// UseCase implementa el motor de recepciones y los ajustes manuales de stock.
type UseCase struct {
	txRunner  TxRunner
	ledger    repository.StockLedgerRepository
	movements repository.StockMovementRepository
	receipts  repository.ReceiptRepository
	products  repository.ProductRepository
	log       *logger.Logger
}

// NewUseCase crea el caso de uso de inventario. Los repositorios recibidos son
// los atados al pool, solo para lecturas; las escrituras pasan por txRunner.
func NewUseCase(
	txRunner TxRunner,
	ledger repository.StockLedgerRepository,
	movements repository.StockMovementRepository,
	receipts repository.ReceiptRepository,
	products repository.ProductRepository,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:  txRunner,
		ledger:    ledger,
		movements: movements,
		receipts:  receipts,
		products:  products,
		log:       log,
	}
}

// CreateReceipt registra una recepción de mercancía e incrementa el stock.
//
// Misma disciplina transaccional que la venta: bloqueos en orden ascendente de
// ID de producto, un movimiento RECEIPT por línea, todo dentro de una sola
// transacción.
func (uc *UseCase) CreateReceipt(ctx context.Context, managerID string, req dto.CreateReceiptRequest) (*dto.ReceiptResponse, error) {
	if managerID == "" {
		return nil, fmt.Errorf("%w: responsable requerido", domain.ErrInvalidInput)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: la recepción no puede estar vacía", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(req.Lines))
	for _, l := range req.Lines {
		if l.ProductID == "" {
			return nil, fmt.Errorf("%w: línea sin producto", domain.ErrInvalidInput)
		}
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: la cantidad debe ser positiva (producto %s)", domain.ErrInvalidInput, l.ProductID)
		}
		if l.PurchasePrice.IsNegative() {
			return nil, fmt.Errorf("%w: el precio de compra no puede ser negativo (producto %s)", domain.ErrInvalidInput, l.ProductID)
		}
		if seen[l.ProductID] {
			return nil, fmt.Errorf("%w: producto repetido en la recepción (%s)", domain.ErrInvalidInput, l.ProductID)
		}
		seen[l.ProductID] = true
	}

	lines := make([]dto.ReceiptLineRequest, len(req.Lines))
	copy(lines, req.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var out *entity.Receipt
	err := uc.txRunner.Run(ctx, func(repos *repository.TxRepos) error {
		type checkedLine struct {
			productID     string
			sku           string
			name          string
			quantity      int
			purchasePrice decimal.Decimal
			lineTotal     decimal.Decimal
			qtyBefore     int
		}

		checked := make([]checkedLine, 0, len(lines))
		total := decimal.Zero

		for _, l := range lines {
			product, err := repos.Products.GetByID(l.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("%w: producto %s", domain.ErrNotFound, l.ProductID)
			}

			snapshot, err := repos.Ledger.GetForUpdate(l.ProductID)
			if err != nil {
				return err
			}

			lineTotal := l.PurchasePrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
			total = total.Add(lineTotal)
			checked = append(checked, checkedLine{
				productID:     l.ProductID,
				sku:           product.SKU,
				name:          product.Name,
				quantity:      l.Quantity,
				purchasePrice: l.PurchasePrice,
				lineTotal:     lineTotal,
				qtyBefore:     snapshot.Quantity,
			})
		}

		receipt := &entity.Receipt{
			ID:           uuid.NewString(),
			SupplierInfo: req.SupplierInfo,
			ManagerID:    managerID,
			ReceiptDate:  time.Now(),
			TotalAmount:  total,
			Notes:        req.Notes,
		}
		if err := repos.Receipts.Create(receipt); err != nil {
			return err
		}

		for _, c := range checked {
			line := &entity.ReceiptLine{
				ID:            uuid.NewString(),
				ReceiptID:     receipt.ID,
				ProductID:     c.productID,
				Quantity:      c.quantity,
				PurchasePrice: c.purchasePrice,
				LineTotal:     c.lineTotal,
				ProductSKU:    c.sku,
				ProductName:   c.name,
			}
			if err := repos.Receipts.InsertLine(line); err != nil {
				return err
			}
			if err := repos.Ledger.Increase(c.productID, c.quantity); err != nil {
				return err
			}
			movement := &entity.StockMovement{
				ProductID:      c.productID,
				Operation:      entity.OperationReceipt,
				QuantityChange: c.quantity,
				QuantityBefore: c.qtyBefore,
				QuantityAfter:  c.qtyBefore + c.quantity,
				ReferenceID:    receipt.ID,
				ReferenceType:  entity.ReferenceReceipt,
				UserID:         managerID,
				Notes:          fmt.Sprintf("Recepción %s", receipt.ReceiptNumber),
			}
			if err := repos.Movements.Create(movement); err != nil {
				return err
			}
			receipt.Lines = append(receipt.Lines, *line)
		}

		out = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("receipt_id", out.ID).
		Str("receipt_number", out.ReceiptNumber).
		Str("manager_id", managerID).
		Int("lines", len(out.Lines)).
		Msg("recepción registrada")

	return toReceiptResponse(out), nil
}

// AdjustStock fija la cantidad de un producto a un valor absoluto no negativo.
//
// El delta contra el snapshot bloqueado decide la operación de auditoría:
// ADJUSTMENT si sube, WRITE_OFF si baja. Un delta cero no escribe nada.
func (uc *UseCase) AdjustStock(ctx context.Context, actorID, productID string, req dto.AdjustStockRequest) (*dto.StockMovementResponse, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: producto requerido", domain.ErrInvalidInput)
	}
	if req.NewQuantity < 0 {
		return nil, fmt.Errorf("%w: la cantidad no puede ser negativa", domain.ErrInvalidInput)
	}
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: el motivo del ajuste es obligatorio", domain.ErrInvalidInput)
	}

	var movement *entity.StockMovement
	err := uc.txRunner.Run(ctx, func(repos *repository.TxRepos) error {
		product, err := repos.Products.GetByID(productID)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
		}

		snapshot, err := repos.Ledger.GetForUpdate(productID)
		if err != nil {
			return err
		}

		delta := req.NewQuantity - snapshot.Quantity
		if delta == 0 {
			return nil
		}

		if err := repos.Ledger.SetQuantity(productID, req.NewQuantity); err != nil {
			return err
		}

		operation := entity.OperationAdjustment
		if delta < 0 {
			operation = entity.OperationWriteOff
		}
		movement = &entity.StockMovement{
			ProductID:      productID,
			Operation:      operation,
			QuantityChange: delta,
			QuantityBefore: snapshot.Quantity,
			QuantityAfter:  req.NewQuantity,
			UserID:         actorID,
			Notes:          req.Reason,
		}
		return repos.Movements.Create(movement)
	})
	if err != nil {
		return nil, err
	}
	if movement == nil {
		// Delta cero: sin efecto, sin rastro.
		return nil, nil
	}

	uc.log.Info().
		Str("product_id", productID).
		Str("operation", movement.Operation).
		Int("quantity_before", movement.QuantityBefore).
		Int("quantity_after", movement.QuantityAfter).
		Str("user_id", actorID).
		Msg("ajuste manual de stock")

	return toMovementResponse(movement), nil
}

// GetStock lectura no bloqueante de la cantidad disponible de un producto.
func (uc *UseCase) GetStock(ctx context.Context, productID string) (int, error) {
	if productID == "" {
		return 0, fmt.Errorf("%w: producto requerido", domain.ErrInvalidInput)
	}
	return uc.ledger.GetQuantity(productID)
}

// ListStock listado de productos con su cantidad disponible.
func (uc *UseCase) ListStock(ctx context.Context, page dto.PageRequest) ([]*entity.ProductStockView, error) {
	return uc.products.ListWithStock(page.Limit, page.Offset)
}

// ListLowStock productos activos por debajo de su stock mínimo.
func (uc *UseCase) ListLowStock(ctx context.Context) ([]*entity.ProductStockView, error) {
	return uc.products.ListLowStock()
}

// GetReceipt devuelve una recepción con sus líneas.
func (uc *UseCase) GetReceipt(ctx context.Context, id string) (*dto.ReceiptResponse, error) {
	receipt, err := uc.receipts.GetByID(id)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, fmt.Errorf("%w: recepción %s", domain.ErrNotFound, id)
	}
	lines, err := uc.receipts.ListLines(id)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		receipt.Lines = append(receipt.Lines, *l)
	}
	return toReceiptResponse(receipt), nil
}

// ListReceipts lista recepciones del período, sin líneas.
func (uc *UseCase) ListReceipts(ctx context.Context, from, to time.Time, page dto.PageRequest) ([]*dto.ReceiptResponse, error) {
	receipts, err := uc.receipts.ListByPeriod(from, to, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ReceiptResponse, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, toReceiptResponse(r))
	}
	return out, nil
}

// ProductHistory historial de movimientos de un producto, del más reciente al más antiguo.
func (uc *UseCase) ProductHistory(ctx context.Context, productID string, from, to *time.Time, page dto.PageRequest) ([]*dto.StockMovementResponse, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: producto requerido", domain.ErrInvalidInput)
	}
	movements, err := uc.movements.ListByProduct(productID, from, to, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return toMovementResponses(movements), nil
}

// UserHistory movimientos registrados por un usuario.
func (uc *UseCase) UserHistory(ctx context.Context, userID string, from, to *time.Time, page dto.PageRequest) ([]*dto.StockMovementResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: usuario requerido", domain.ErrInvalidInput)
	}
	movements, err := uc.movements.ListByUser(userID, from, to, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return toMovementResponses(movements), nil
}

// ListAdjustments log de correcciones manuales (ADJUSTMENT y WRITE_OFF).
func (uc *UseCase) ListAdjustments(ctx context.Context, page dto.PageRequest) ([]*dto.StockMovementResponse, error) {
	movements, err := uc.movements.ListAdjustments(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return toMovementResponses(movements), nil
}

func toReceiptResponse(r *entity.Receipt) *dto.ReceiptResponse {
	resp := &dto.ReceiptResponse{
		ID:            r.ID,
		ReceiptNumber: r.ReceiptNumber,
		SupplierInfo:  r.SupplierInfo,
		ManagerID:     r.ManagerID,
		ManagerName:   r.ManagerName,
		ReceiptDate:   r.ReceiptDate,
		TotalAmount:   r.TotalAmount,
		Notes:         r.Notes,
	}
	for _, l := range r.Lines {
		resp.Lines = append(resp.Lines, dto.ReceiptLineResponse{
			ID:            l.ID,
			ProductID:     l.ProductID,
			ProductSKU:    l.ProductSKU,
			ProductName:   l.ProductName,
			Quantity:      l.Quantity,
			PurchasePrice: l.PurchasePrice,
			LineTotal:     l.LineTotal,
		})
	}
	return resp
}

func toMovementResponse(m *entity.StockMovement) *dto.StockMovementResponse {
	return &dto.StockMovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		ProductSKU:     m.ProductSKU,
		ProductName:    m.ProductName,
		Operation:      m.Operation,
		QuantityChange: m.QuantityChange,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		ReferenceID:    m.ReferenceID,
		ReferenceType:  m.ReferenceType,
		UserID:         m.UserID,
		UserName:       m.UserName,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
	}
}

func toMovementResponses(ms []*entity.StockMovement) []*dto.StockMovementResponse {
	out := make([]*dto.StockMovementResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMovementResponse(m))
	}
	return out
}
