package sale

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

// UseCase implementa el motor de ventas y de devoluciones.
//
// CreateSale es todo-o-nada: o se confirma la venta completa (registro, líneas,
// descuentos de ledger y movimientos de auditoría) o no queda ningún efecto.
// Los bloqueos de fila se toman siempre en orden ascendente de ID de producto
// para que dos carritos con productos en común nunca se interbloqueen.
type UseCase struct {
	txRunner TxRunner
	sales    repository.SaleRepository
	log      *logger.Logger
}

// NewUseCase crea el caso de uso de ventas. El repositorio de ventas recibido
// aquí es el atado al pool, solo para lecturas; las escrituras pasan por txRunner.
func NewUseCase(txRunner TxRunner, sales repository.SaleRepository, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, sales: sales, log: log}
}

// CreateSale confirma un carrito como venta.
//
// Dentro de una sola transacción: bloquea las filas de stock en orden
// ascendente de ID de producto, valida disponibilidad contra el snapshot
// bloqueado, captura el precio de venta vigente, descuenta el ledger y registra
// un movimiento SALE por línea. Si cualquier línea carece de stock, ninguna
// línea se aplica.
func (uc *UseCase) CreateSale(ctx context.Context, employeeID string, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if employeeID == "" {
		return nil, fmt.Errorf("%w: empleado requerido", domain.ErrInvalidInput)
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: el carrito no puede estar vacío", domain.ErrInvalidInput)
	}
	if req.Discount.IsNegative() {
		return nil, fmt.Errorf("%w: el descuento no puede ser negativo", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(req.Lines))
	for _, l := range req.Lines {
		if l.ProductID == "" {
			return nil, fmt.Errorf("%w: línea sin producto", domain.ErrInvalidInput)
		}
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: la cantidad debe ser positiva (producto %s)", domain.ErrInvalidInput, l.ProductID)
		}
		if seen[l.ProductID] {
			return nil, fmt.Errorf("%w: producto repetido en el carrito (%s)", domain.ErrInvalidInput, l.ProductID)
		}
		seen[l.ProductID] = true
	}

	// Orden de bloqueo determinista: ascendente por ID de producto.
	lines := make([]dto.SaleLineRequest, len(req.Lines))
	copy(lines, req.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var out *entity.Sale
	err := uc.txRunner.Run(ctx, func(repos *repository.TxRepos) error {
		type pricedLine struct {
			productID   string
			sku         string
			name        string
			quantity    int
			priceAtSale decimal.Decimal
			lineTotal   decimal.Decimal
			qtyBefore   int
		}

		priced := make([]pricedLine, 0, len(lines))
		total := decimal.Zero

		// Fase 1: bloquear, validar disponibilidad y capturar precios.
		for _, l := range lines {
			product, err := repos.Products.GetByID(l.ProductID)
			if err != nil {
				return err
			}
			if product == nil || !product.Active {
				return fmt.Errorf("%w: producto %s no existe o está inactivo", domain.ErrNotFound, l.ProductID)
			}

			snapshot, err := repos.Ledger.GetForUpdate(l.ProductID)
			if err != nil {
				return err
			}
			if snapshot.Quantity < l.Quantity {
				return &domain.InsufficientStockError{
					ProductID: l.ProductID,
					Requested: l.Quantity,
					Available: snapshot.Quantity,
				}
			}

			lineTotal := product.SellingPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
			total = total.Add(lineTotal)
			priced = append(priced, pricedLine{
				productID:   l.ProductID,
				sku:         product.SKU,
				name:        product.Name,
				quantity:    l.Quantity,
				priceAtSale: product.SellingPrice,
				lineTotal:   lineTotal,
				qtyBefore:   snapshot.Quantity,
			})
		}

		if req.Discount.GreaterThan(total) {
			return fmt.Errorf("%w: el descuento (%s) excede el total (%s)",
				domain.ErrInvalidInput, req.Discount.String(), total.String())
		}

		now := time.Now()
		sale := &entity.Sale{
			ID:          uuid.NewString(),
			EmployeeID:  employeeID,
			SaleDate:    now,
			TotalAmount: total,
			Discount:    req.Discount,
			FinalAmount: total.Sub(req.Discount),
		}
		if err := repos.Sales.Create(sale); err != nil {
			return err
		}

		// Fase 2: aplicar efectos por línea, todos dentro de la misma tx.
		for _, p := range priced {
			line := &entity.SaleLine{
				ID:          uuid.NewString(),
				SaleID:      sale.ID,
				ProductID:   p.productID,
				Quantity:    p.quantity,
				PriceAtSale: p.priceAtSale,
				LineTotal:   p.lineTotal,
				ProductSKU:  p.sku,
				ProductName: p.name,
			}
			if err := repos.Sales.InsertLine(line); err != nil {
				return err
			}
			if err := repos.Ledger.Decrease(p.productID, p.quantity); err != nil {
				return err
			}
			movement := &entity.StockMovement{
				ProductID:      p.productID,
				Operation:      entity.OperationSale,
				QuantityChange: -p.quantity,
				QuantityBefore: p.qtyBefore,
				QuantityAfter:  p.qtyBefore - p.quantity,
				ReferenceID:    sale.ID,
				ReferenceType:  entity.ReferenceSale,
				UserID:         employeeID,
				Notes:          fmt.Sprintf("Venta %s", sale.SaleNumber),
			}
			if err := repos.Movements.Create(movement); err != nil {
				return err
			}
			sale.Lines = append(sale.Lines, *line)
		}

		out = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("sale_id", out.ID).
		Str("sale_number", out.SaleNumber).
		Str("employee_id", employeeID).
		Int("lines", len(out.Lines)).
		Str("final_amount", out.FinalAmount.String()).
		Msg("venta confirmada")

	return toSaleResponse(out), nil
}

// ProcessReturn devuelve una cantidad de una línea de venta.
//
// La cantidad a devolver está acotada por lo aún devolvible (vendido menos ya
// devuelto); el reembolso se calcula sobre el precio capturado en la venta, no
// sobre el precio actual del catálogo. Si tras la devolución todas las líneas
// quedan completamente devueltas, la venta entera se marca como devuelta.
func (uc *UseCase) ProcessReturn(ctx context.Context, actorID, saleID string, req dto.ReturnRequest) (*dto.ReturnResponse, error) {
	if saleID == "" || req.SaleLineID == "" {
		return nil, fmt.Errorf("%w: venta y línea requeridas", domain.ErrInvalidInput)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad a devolver debe ser positiva", domain.ErrInvalidInput)
	}

	var out dto.ReturnResponse
	err := uc.txRunner.Run(ctx, func(repos *repository.TxRepos) error {
		sale, err := repos.Sales.GetByID(saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return fmt.Errorf("%w: venta %s", domain.ErrNotFound, saleID)
		}

		lines, err := repos.Sales.ListLines(saleID)
		if err != nil {
			return err
		}
		var target *entity.SaleLine
		for _, l := range lines {
			if l.ID == req.SaleLineID {
				target = l
				break
			}
		}
		if target == nil {
			return fmt.Errorf("%w: línea %s no pertenece a la venta %s", domain.ErrNotFound, req.SaleLineID, saleID)
		}

		returnable := target.ReturnableQty()
		if req.Quantity > returnable {
			return &domain.ReturnExceedsAvailableError{
				SaleLineID: target.ID,
				Requested:  req.Quantity,
				Returnable: returnable,
			}
		}

		snapshot, err := repos.Ledger.GetForUpdate(target.ProductID)
		if err != nil {
			return err
		}
		if err := repos.Ledger.Increase(target.ProductID, req.Quantity); err != nil {
			return err
		}
		movement := &entity.StockMovement{
			ProductID:      target.ProductID,
			Operation:      entity.OperationReturn,
			QuantityChange: req.Quantity,
			QuantityBefore: snapshot.Quantity,
			QuantityAfter:  snapshot.Quantity + req.Quantity,
			ReferenceID:    sale.ID,
			ReferenceType:  entity.ReferenceSaleReturn,
			UserID:         actorID,
			Notes:          fmt.Sprintf("Devolución de venta %s", sale.SaleNumber),
		}
		if err := repos.Movements.Create(movement); err != nil {
			return err
		}

		newReturned := target.ReturnedQty + req.Quantity
		if err := repos.Sales.UpdateLineReturnedQty(target.ID, newReturned); err != nil {
			return err
		}
		target.ReturnedQty = newReturned

		allReturned := true
		for _, l := range lines {
			if l.ReturnedQty != l.Quantity {
				allReturned = false
				break
			}
		}
		if allReturned {
			if err := repos.Sales.MarkReturned(sale.ID); err != nil {
				return err
			}
		}

		out = dto.ReturnResponse{
			SaleID:       sale.ID,
			SaleLineID:   target.ID,
			Quantity:     req.Quantity,
			RefundAmount: target.PriceAtSale.Mul(decimal.NewFromInt(int64(req.Quantity))),
			SaleReturned: allReturned,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("sale_id", out.SaleID).
		Str("sale_line_id", out.SaleLineID).
		Int("quantity", out.Quantity).
		Str("refund", out.RefundAmount.String()).
		Bool("sale_returned", out.SaleReturned).
		Msg("devolución procesada")

	return &out, nil
}

// GetSale devuelve una venta con sus líneas.
func (uc *UseCase) GetSale(ctx context.Context, id string) (*dto.SaleResponse, error) {
	sale, err := uc.sales.GetByID(id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, fmt.Errorf("%w: venta %s", domain.ErrNotFound, id)
	}
	return uc.withLines(sale)
}

// GetSaleByNumber devuelve una venta por su número legible.
func (uc *UseCase) GetSaleByNumber(ctx context.Context, saleNumber string) (*dto.SaleResponse, error) {
	sale, err := uc.sales.GetByNumber(saleNumber)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, fmt.Errorf("%w: venta %s", domain.ErrNotFound, saleNumber)
	}
	return uc.withLines(sale)
}

// ListSales lista ventas del período, sin líneas.
func (uc *UseCase) ListSales(ctx context.Context, from, to time.Time, page dto.PageRequest) ([]*dto.SaleResponse, error) {
	sales, err := uc.sales.ListByPeriod(from, to, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.SaleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, toSaleResponse(s))
	}
	return out, nil
}

func (uc *UseCase) withLines(sale *entity.Sale) (*dto.SaleResponse, error) {
	lines, err := uc.sales.ListLines(sale.ID)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		sale.Lines = append(sale.Lines, *l)
	}
	return toSaleResponse(sale), nil
}

func toSaleResponse(s *entity.Sale) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:           s.ID,
		SaleNumber:   s.SaleNumber,
		EmployeeID:   s.EmployeeID,
		EmployeeName: s.EmployeeName,
		SaleDate:     s.SaleDate,
		TotalAmount:  s.TotalAmount,
		Discount:     s.Discount,
		FinalAmount:  s.FinalAmount,
		Returned:     s.Returned,
	}
	for _, l := range s.Lines {
		resp.Lines = append(resp.Lines, dto.SaleLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductSKU:  l.ProductSKU,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			PriceAtSale: l.PriceAtSale,
			LineTotal:   l.LineTotal,
			ReturnedQty: l.ReturnedQty,
		})
	}
	return resp
}
