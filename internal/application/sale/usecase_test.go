package sale_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-pos/internal/application/apptest"
	"github.com/jhoicas/retail-pos/internal/application/dto"
	"github.com/jhoicas/retail-pos/internal/application/sale"
	"github.com/jhoicas/retail-pos/internal/domain"
	"github.com/jhoicas/retail-pos/internal/domain/entity"
	"github.com/jhoicas/retail-pos/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const testEmployeeID = "00000000-0000-0000-0000-000000000001"

func newTestUseCase(store *apptest.MemStore) *sale.UseCase {
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	return sale.NewUseCase(store.TxRunner(), store.Sales(), log)
}

func addProduct(store *apptest.MemStore, sku string, price int64, qty int) *entity.Product {
	p := &entity.Product{
		ID:           uuid.NewString(),
		SKU:          sku,
		Name:         "Producto " + sku,
		SellingPrice: decimal.NewFromInt(price),
		Active:       true,
	}
	store.AddProduct(p, qty)
	return p
}

func cart(lines ...dto.SaleLineRequest) dto.CreateSaleRequest {
	return dto.CreateSaleRequest{Lines: lines}
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateSale — caso feliz
// ──────────────────────────────────────────────────────────────────────────────

// Venta simple: descuenta el ledger y deja exactamente un movimiento SALE por
// línea con el antes y el después correctos.
func TestCreateSale_DescuentaStockYRegistraMovimiento(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 100, 10)
	uc := newTestUseCase(store)

	out, err := uc.CreateSale(context.Background(), testEmployeeID, cart(
		dto.SaleLineRequest{ProductID: p.ID, Quantity: 3},
	))
	require.NoError(t, err)

	assert.Equal(t, 7, store.Quantity(p.ID), "el ledger debe quedar en 10-3=7")
	assert.Regexp(t, `^S-\d{8}-\d{6}$`, out.SaleNumber, "número de venta legible")
	assert.True(t, out.TotalAmount.Equal(decimal.NewFromInt(300)), "total = precio * cantidad")
	assert.True(t, out.FinalAmount.Equal(decimal.NewFromInt(300)))
	require.Len(t, out.Lines, 1)
	assert.True(t, out.Lines[0].PriceAtSale.Equal(decimal.NewFromInt(100)),
		"el precio capturado es el vigente al vender")

	movs := store.MovementsFor(p.ID)
	require.Len(t, movs, 1, "exactamente un movimiento por línea")
	m := movs[0]
	assert.Equal(t, entity.OperationSale, m.Operation)
	assert.Equal(t, -3, m.QuantityChange)
	assert.Equal(t, 10, m.QuantityBefore)
	assert.Equal(t, 7, m.QuantityAfter)
	assert.Equal(t, m.QuantityBefore+m.QuantityChange, m.QuantityAfter,
		"invariante: after = before + change")
	assert.Equal(t, out.ID, m.ReferenceID, "el movimiento referencia la venta")
	assert.Equal(t, entity.ReferenceSale, m.ReferenceType)
	assert.Equal(t, testEmployeeID, m.UserID)
}

// El total, el descuento y el final se calculan en el servidor; el precio del
// cliente nunca se acepta.
func TestCreateSale_TotalesConDescuento(t *testing.T) {
	store := apptest.NewMemStore()
	a := addProduct(store, "SKU-A", 50, 10)
	b := addProduct(store, "SKU-B", 30, 10)
	uc := newTestUseCase(store)

	req := cart(
		dto.SaleLineRequest{ProductID: a.ID, Quantity: 2}, // 100
		dto.SaleLineRequest{ProductID: b.ID, Quantity: 3}, // 90
	)
	req.Discount = decimal.NewFromInt(40)

	out, err := uc.CreateSale(context.Background(), testEmployeeID, req)
	require.NoError(t, err)

	assert.True(t, out.TotalAmount.Equal(decimal.NewFromInt(190)))
	assert.True(t, out.Discount.Equal(decimal.NewFromInt(40)))
	assert.True(t, out.FinalAmount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 8, store.Quantity(a.ID))
	assert.Equal(t, 7, store.Quantity(b.ID))
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateSale — rechazo por stock insuficiente
// ──────────────────────────────────────────────────────────────────────────────

// Pedir más de lo disponible rechaza la venta con el detalle exacto y no toca
// el ledger ni la auditoría.
func TestCreateSale_StockInsuficiente_RechazaConDetalle(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 100, 2)
	uc := newTestUseCase(store)

	_, err := uc.CreateSale(context.Background(), testEmployeeID, cart(
		dto.SaleLineRequest{ProductID: p.ID, Quantity: 5},
	))
	require.Error(t, err)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, p.ID, insufficient.ProductID)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, 2, insufficient.Available)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 2, store.Quantity(p.ID), "el ledger no debe cambiar")
	assert.Empty(t, store.MovementsFor(p.ID), "sin movimientos de auditoría")
	assert.Zero(t, store.SaleCount(), "sin registro de venta")
}

// Carrito multilínea: si una sola línea falla, ninguna línea se aplica.
func TestCreateSale_FalloEnUnaLinea_NoAplicaNinguna(t *testing.T) {
	store := apptest.NewMemStore()
	ok := addProduct(store, "SKU-OK", 10, 100)
	scarce := addProduct(store, "SKU-ESCASO", 10, 1)
	uc := newTestUseCase(store)

	_, err := uc.CreateSale(context.Background(), testEmployeeID, cart(
		dto.SaleLineRequest{ProductID: ok.ID, Quantity: 5},
		dto.SaleLineRequest{ProductID: scarce.ID, Quantity: 2},
	))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 100, store.Quantity(ok.ID), "la línea válida tampoco debe aplicarse")
	assert.Equal(t, 1, store.Quantity(scarce.ID))
	assert.Empty(t, store.AllMovements())
	assert.Zero(t, store.SaleCount())
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateSale — validación de entrada
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateSale_ValidacionDeEntrada(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 100, 10)
	uc := newTestUseCase(store)
	ctx := context.Background()

	cases := []struct {
		nombre string
		req    dto.CreateSaleRequest
	}{
		{"carrito vacío", cart()},
		{"cantidad cero", cart(dto.SaleLineRequest{ProductID: p.ID, Quantity: 0})},
		{"cantidad negativa", cart(dto.SaleLineRequest{ProductID: p.ID, Quantity: -1})},
		{"línea sin producto", cart(dto.SaleLineRequest{Quantity: 1})},
		{"producto repetido", cart(
			dto.SaleLineRequest{ProductID: p.ID, Quantity: 1},
			dto.SaleLineRequest{ProductID: p.ID, Quantity: 2},
		)},
	}
	for _, tc := range cases {
		t.Run(tc.nombre, func(t *testing.T) {
			_, err := uc.CreateSale(ctx, testEmployeeID, tc.req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	// Descuento negativo
	req := cart(dto.SaleLineRequest{ProductID: p.ID, Quantity: 1})
	req.Discount = decimal.NewFromInt(-5)
	_, err := uc.CreateSale(ctx, testEmployeeID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Descuento mayor que el total
	req = cart(dto.SaleLineRequest{ProductID: p.ID, Quantity: 1})
	req.Discount = decimal.NewFromInt(500)
	_, err = uc.CreateSale(ctx, testEmployeeID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, 10, store.Quantity(p.ID), "ninguna validación fallida toca el ledger")
}

func TestCreateSale_ProductoInexistenteOInactivo(t *testing.T) {
	store := apptest.NewMemStore()
	inactive := addProduct(store, "SKU-OFF", 100, 10)
	inactive.Active = false
	uc := newTestUseCase(store)
	ctx := context.Background()

	_, err := uc.CreateSale(ctx, testEmployeeID, cart(
		dto.SaleLineRequest{ProductID: uuid.NewString(), Quantity: 1},
	))
	assert.ErrorIs(t, err, domain.ErrNotFound, "producto inexistente")

	_, err = uc.CreateSale(ctx, testEmployeeID, cart(
		dto.SaleLineRequest{ProductID: inactive.ID, Quantity: 1},
	))
	assert.ErrorIs(t, err, domain.ErrNotFound, "producto inactivo no se vende")
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateSale — concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// Dos ventas simultáneas de 3 unidades sobre un stock de 5: exactamente una
// confirma, la otra falla con stock insuficiente, y el ledger queda en 2.
// Nunca en -1.
func TestCreateSale_Concurrencia_SoloUnaConfirma(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-HOT", 100, 5)
	uc := newTestUseCase(store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.CreateSale(context.Background(), testEmployeeID, cart(
				dto.SaleLineRequest{ProductID: p.ID, Quantity: 3},
			))
		}(i)
	}
	wg.Wait()

	var oks, insufficients int
	for _, err := range errs {
		switch {
		case err == nil:
			oks++
		default:
			require.ErrorIs(t, err, domain.ErrInsufficientStock)
			insufficients++
		}
	}
	assert.Equal(t, 1, oks, "exactamente una venta confirma")
	assert.Equal(t, 1, insufficients, "la otra falla con stock insuficiente")
	assert.Equal(t, 2, store.Quantity(p.ID), "5 - 3 = 2, nunca negativo")
	assert.Len(t, store.MovementsFor(p.ID), 1, "solo la venta confirmada deja auditoría")
}

// ──────────────────────────────────────────────────────────────────────────────
// ProcessReturn
// ──────────────────────────────────────────────────────────────────────────────

func sellUnits(t *testing.T, uc *sale.UseCase, productID string, qty int) *dto.SaleResponse {
	t.Helper()
	out, err := uc.CreateSale(context.Background(), testEmployeeID, cart(
		dto.SaleLineRequest{ProductID: productID, Quantity: qty},
	))
	require.NoError(t, err)
	return out
}

// Devolución parcial: reingresa stock, deja un movimiento RETURN que referencia
// la venta, y el reembolso usa el precio capturado en la venta.
func TestProcessReturn_Parcial(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 100, 10)
	uc := newTestUseCase(store)
	venta := sellUnits(t, uc, p.ID, 3) // ledger: 7

	// Cambia el precio de catálogo después de la venta: el reembolso no debe verse afectado.
	require.NoError(t, store.Products().UpdatePrice(p.ID, decimal.NewFromInt(999)))

	out, err := uc.ProcessReturn(context.Background(), testEmployeeID, venta.ID, dto.ReturnRequest{
		SaleLineID: venta.Lines[0].ID,
		Quantity:   2,
	})
	require.NoError(t, err)

	assert.Equal(t, 9, store.Quantity(p.ID), "7 + 2 devueltas = 9")
	assert.True(t, out.RefundAmount.Equal(decimal.NewFromInt(200)),
		"reembolso = precio capturado * cantidad, no el precio actual")
	assert.False(t, out.SaleReturned, "queda 1 unidad sin devolver")

	movs := store.MovementsFor(p.ID)
	require.Len(t, movs, 2, "movimiento de venta + movimiento de devolución")
	ret := movs[1]
	assert.Equal(t, entity.OperationReturn, ret.Operation)
	assert.Equal(t, 2, ret.QuantityChange)
	assert.Equal(t, 7, ret.QuantityBefore)
	assert.Equal(t, 9, ret.QuantityAfter)
	assert.Equal(t, venta.ID, ret.ReferenceID)
	assert.Equal(t, entity.ReferenceSaleReturn, ret.ReferenceType)
	assert.Contains(t, ret.Notes, venta.SaleNumber, "la nota menciona el número de venta")
}

// Tras devolver todo lo vendido, la venta queda marcada como devuelta.
func TestProcessReturn_Completa_MarcaLaVenta(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 100, 10)
	uc := newTestUseCase(store)
	venta := sellUnits(t, uc, p.ID, 3)

	_, err := uc.ProcessReturn(context.Background(), testEmployeeID, venta.ID, dto.ReturnRequest{
		SaleLineID: venta.Lines[0].ID, Quantity: 2,
	})
	require.NoError(t, err)

	out, err := uc.ProcessReturn(context.Background(), testEmployeeID, venta.ID, dto.ReturnRequest{
		SaleLineID: venta.Lines[0].ID, Quantity: 1,
	})
	require.NoError(t, err)
	assert.True(t, out.SaleReturned, "todas las líneas devueltas por completo")
	assert.Equal(t, 10, store.Quantity(p.ID), "el stock vuelve al punto de partida")

	consulta, err := uc.GetSale(context.Background(), venta.ID)
	require.NoError(t, err)
	assert.True(t, consulta.Returned)
	assert.Equal(t, 3, consulta.Lines[0].ReturnedQty)
}

// La cantidad a devolver está acotada por lo vendido menos lo ya devuelto.
func TestProcessReturn_ExcedeLoDevolvible(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 100, 10)
	uc := newTestUseCase(store)
	venta := sellUnits(t, uc, p.ID, 3)

	_, err := uc.ProcessReturn(context.Background(), testEmployeeID, venta.ID, dto.ReturnRequest{
		SaleLineID: venta.Lines[0].ID, Quantity: 2,
	})
	require.NoError(t, err)

	// Quedan 1 devolvible; pedir 2 debe fallar con el detalle exacto.
	_, err = uc.ProcessReturn(context.Background(), testEmployeeID, venta.ID, dto.ReturnRequest{
		SaleLineID: venta.Lines[0].ID, Quantity: 2,
	})
	require.Error(t, err)

	var exceeds *domain.ReturnExceedsAvailableError
	require.ErrorAs(t, err, &exceeds)
	assert.Equal(t, venta.Lines[0].ID, exceeds.SaleLineID)
	assert.Equal(t, 2, exceeds.Requested)
	assert.Equal(t, 1, exceeds.Returnable)
	assert.ErrorIs(t, err, domain.ErrReturnExceedsAvailable)

	assert.Equal(t, 9, store.Quantity(p.ID), "la devolución rechazada no toca el ledger")
}

func TestProcessReturn_VentaOLineaInexistente(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 100, 10)
	uc := newTestUseCase(store)
	venta := sellUnits(t, uc, p.ID, 1)
	ctx := context.Background()

	_, err := uc.ProcessReturn(ctx, testEmployeeID, uuid.NewString(), dto.ReturnRequest{
		SaleLineID: venta.Lines[0].ID, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "venta inexistente")

	_, err = uc.ProcessReturn(ctx, testEmployeeID, venta.ID, dto.ReturnRequest{
		SaleLineID: uuid.NewString(), Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "línea ajena a la venta")

	_, err = uc.ProcessReturn(ctx, testEmployeeID, venta.ID, dto.ReturnRequest{
		SaleLineID: venta.Lines[0].ID, Quantity: 0,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad no positiva")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestGetSaleByNumber(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 100, 10)
	uc := newTestUseCase(store)
	venta := sellUnits(t, uc, p.ID, 2)

	out, err := uc.GetSaleByNumber(context.Background(), venta.SaleNumber)
	require.NoError(t, err)
	assert.Equal(t, venta.ID, out.ID)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, 2, out.Lines[0].Quantity)

	_, err = uc.GetSaleByNumber(context.Background(), "S-19700101-000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
