package inventory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-pos/internal/application/apptest"
	"github.com/jhoicas/retail-pos/internal/application/dto"
	"github.com/jhoicas/retail-pos/internal/application/inventory"
	"github.com/jhoicas/retail-pos/internal/domain"
	"github.com/jhoicas/retail-pos/internal/domain/entity"
	"github.com/jhoicas/retail-pos/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const testManagerID = "00000000-0000-0000-0000-000000000002"

func newTestUseCase(store *apptest.MemStore) *inventory.UseCase {
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	return inventory.NewUseCase(
		store.TxRunner(), store.Ledger(), store.Movements(),
		store.Receipts(), store.Products(), log,
	)
}

func addProduct(store *apptest.MemStore, sku string, qty int) *entity.Product {
	p := &entity.Product{
		ID:     uuid.NewString(),
		SKU:    sku,
		Name:   "Producto " + sku,
		Active: true,
	}
	store.AddProduct(p, qty)
	return p
}

// ──────────────────────────────────────────────────────────────────────────────
// CreateReceipt
// ──────────────────────────────────────────────────────────────────────────────

// Recepción simple: incrementa el ledger y deja un movimiento RECEIPT por
// línea con el antes y el después correctos.
func TestCreateReceipt_IncrementaStockYRegistraMovimiento(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 4)
	uc := newTestUseCase(store)

	out, err := uc.CreateReceipt(context.Background(), testManagerID, dto.CreateReceiptRequest{
		SupplierInfo: "Proveedor Central",
		Lines: []dto.ReceiptLineRequest{
			{ProductID: p.ID, Quantity: 6, PurchasePrice: decimal.NewFromInt(20)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 10, store.Quantity(p.ID), "4 + 6 recibidas = 10")
	assert.Regexp(t, `^R-\d{8}-\d{6}$`, out.ReceiptNumber)
	assert.True(t, out.TotalAmount.Equal(decimal.NewFromInt(120)), "total = precio compra * cantidad")

	movs := store.MovementsFor(p.ID)
	require.Len(t, movs, 1)
	m := movs[0]
	assert.Equal(t, entity.OperationReceipt, m.Operation)
	assert.Equal(t, 6, m.QuantityChange)
	assert.Equal(t, 4, m.QuantityBefore)
	assert.Equal(t, 10, m.QuantityAfter)
	assert.Equal(t, out.ID, m.ReferenceID)
	assert.Equal(t, entity.ReferenceReceipt, m.ReferenceType)
	assert.Equal(t, testManagerID, m.UserID)
}

// Si una línea es inválida, la recepción entera se rechaza sin tocar nada.
func TestCreateReceipt_Validacion(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 4)
	uc := newTestUseCase(store)
	ctx := context.Background()

	cases := []struct {
		nombre string
		req    dto.CreateReceiptRequest
	}{
		{"sin líneas", dto.CreateReceiptRequest{}},
		{"cantidad cero", dto.CreateReceiptRequest{Lines: []dto.ReceiptLineRequest{
			{ProductID: p.ID, Quantity: 0},
		}}},
		{"cantidad negativa", dto.CreateReceiptRequest{Lines: []dto.ReceiptLineRequest{
			{ProductID: p.ID, Quantity: -3},
		}}},
		{"precio de compra negativo", dto.CreateReceiptRequest{Lines: []dto.ReceiptLineRequest{
			{ProductID: p.ID, Quantity: 1, PurchasePrice: decimal.NewFromInt(-1)},
		}}},
		{"producto repetido", dto.CreateReceiptRequest{Lines: []dto.ReceiptLineRequest{
			{ProductID: p.ID, Quantity: 1},
			{ProductID: p.ID, Quantity: 2},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.nombre, func(t *testing.T) {
			_, err := uc.CreateReceipt(ctx, testManagerID, tc.req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := uc.CreateReceipt(ctx, testManagerID, dto.CreateReceiptRequest{
		Lines: []dto.ReceiptLineRequest{{ProductID: uuid.NewString(), Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound, "producto inexistente")

	assert.Equal(t, 4, store.Quantity(p.ID), "ninguna recepción rechazada toca el ledger")
	assert.Empty(t, store.AllMovements())
}

// Recepción multilínea: ambas líneas se aplican en la misma transacción.
func TestCreateReceipt_Multilinea(t *testing.T) {
	store := apptest.NewMemStore()
	a := addProduct(store, "SKU-A", 0)
	b := addProduct(store, "SKU-B", 5)
	uc := newTestUseCase(store)

	out, err := uc.CreateReceipt(context.Background(), testManagerID, dto.CreateReceiptRequest{
		Lines: []dto.ReceiptLineRequest{
			{ProductID: a.ID, Quantity: 10, PurchasePrice: decimal.NewFromInt(5)},
			{ProductID: b.ID, Quantity: 3, PurchasePrice: decimal.NewFromInt(7)},
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Lines, 2)

	assert.Equal(t, 10, store.Quantity(a.ID))
	assert.Equal(t, 8, store.Quantity(b.ID))
	assert.Len(t, store.AllMovements(), 2)

	consulta, err := uc.GetReceipt(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, out.ReceiptNumber, consulta.ReceiptNumber)
	assert.Len(t, consulta.Lines, 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// AdjustStock
// ──────────────────────────────────────────────────────────────────────────────

// Ajuste hacia arriba: operación ADJUSTMENT con el delta positivo.
func TestAdjustStock_HaciaArriba(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 5)
	uc := newTestUseCase(store)

	out, err := uc.AdjustStock(context.Background(), testManagerID, p.ID, dto.AdjustStockRequest{
		NewQuantity: 12,
		Reason:      "conteo físico de fin de mes",
	})
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, 12, store.Quantity(p.ID))
	assert.Equal(t, entity.OperationAdjustment, out.Operation)
	assert.Equal(t, 7, out.QuantityChange)
	assert.Equal(t, 5, out.QuantityBefore)
	assert.Equal(t, 12, out.QuantityAfter)
	assert.Equal(t, "conteo físico de fin de mes", out.Notes)
	assert.Empty(t, out.ReferenceID, "los ajustes no referencian documentos")
}

// Ajuste hacia abajo: operación WRITE_OFF (baja) con el delta negativo.
func TestAdjustStock_HaciaAbajo(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 9)
	uc := newTestUseCase(store)

	out, err := uc.AdjustStock(context.Background(), testManagerID, p.ID, dto.AdjustStockRequest{
		NewQuantity: 6,
		Reason:      "mermas por rotura",
	})
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, 6, store.Quantity(p.ID))
	assert.Equal(t, entity.OperationWriteOff, out.Operation)
	assert.Equal(t, -3, out.QuantityChange)
}

// Delta cero: sin efecto y sin rastro de auditoría.
func TestAdjustStock_DeltaCero_NoDejaRastro(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 7)
	uc := newTestUseCase(store)

	out, err := uc.AdjustStock(context.Background(), testManagerID, p.ID, dto.AdjustStockRequest{
		NewQuantity: 7,
		Reason:      "conteo sin diferencias",
	})
	require.NoError(t, err)
	assert.Nil(t, out, "sin movimiento cuando no hay cambio")
	assert.Empty(t, store.MovementsFor(p.ID))
	assert.Equal(t, 7, store.Quantity(p.ID))
}

func TestAdjustStock_Validacion(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 5)
	uc := newTestUseCase(store)
	ctx := context.Background()

	_, err := uc.AdjustStock(ctx, testManagerID, p.ID, dto.AdjustStockRequest{NewQuantity: -1, Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad negativa prohibida")

	_, err = uc.AdjustStock(ctx, testManagerID, p.ID, dto.AdjustStockRequest{NewQuantity: 3})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el motivo es obligatorio")

	_, err = uc.AdjustStock(ctx, testManagerID, uuid.NewString(), dto.AdjustStockRequest{NewQuantity: 3, Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound, "producto inexistente")

	assert.Equal(t, 5, store.Quantity(p.ID))
}

// ──────────────────────────────────────────────────────────────────────────────
// Auditoría inmutable y consultas
// ──────────────────────────────────────────────────────────────────────────────

// El log de auditoría es append-only: modificar o borrar está prohibido por el puerto.
func TestMovimientos_InmutablesPorPuerto(t *testing.T) {
	store := apptest.NewMemStore()
	movements := store.Movements()

	err := movements.Update(&entity.StockMovement{ID: uuid.NewString()})
	assert.ErrorIs(t, err, domain.ErrOperationNotPermitted)

	err = movements.Delete(uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrOperationNotPermitted)
}

func TestHistorialYAjustes(t *testing.T) {
	store := apptest.NewMemStore()
	p := addProduct(store, "SKU-1", 0)
	uc := newTestUseCase(store)
	ctx := context.Background()

	_, err := uc.CreateReceipt(ctx, testManagerID, dto.CreateReceiptRequest{
		Lines: []dto.ReceiptLineRequest{{ProductID: p.ID, Quantity: 10}},
	})
	require.NoError(t, err)
	_, err = uc.AdjustStock(ctx, testManagerID, p.ID, dto.AdjustStockRequest{NewQuantity: 8, Reason: "merma"})
	require.NoError(t, err)

	historial, err := uc.ProductHistory(ctx, p.ID, nil, nil, dto.PageRequest{Limit: 20})
	require.NoError(t, err)
	require.Len(t, historial, 2)

	// En cada movimiento se cumple el invariante de encadenamiento.
	for _, m := range historial {
		assert.Equal(t, m.QuantityBefore+m.QuantityChange, m.QuantityAfter)
	}

	ajustes, err := uc.ListAdjustments(ctx, dto.PageRequest{Limit: 20})
	require.NoError(t, err)
	require.Len(t, ajustes, 1)
	assert.Equal(t, entity.OperationWriteOff, ajustes[0].Operation)

	qty, err := uc.GetStock(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, qty)
}

func TestListLowStock(t *testing.T) {
	store := apptest.NewMemStore()
	low := &entity.Product{ID: uuid.NewString(), SKU: "SKU-LOW", Name: "Bajo", MinStock: 5, Active: true}
	ok := &entity.Product{ID: uuid.NewString(), SKU: "SKU-OK", Name: "Sano", MinStock: 5, Active: true}
	store.AddProduct(low, 2)
	store.AddProduct(ok, 9)
	uc := newTestUseCase(store)

	views, err := uc.ListLowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "SKU-LOW", views[0].SKU)
	assert.Equal(t, 2, views[0].Quantity)
}
