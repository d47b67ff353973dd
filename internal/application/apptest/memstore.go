// Package apptest provee un almacén en memoria para probar los motores de
// venta e inventario sin PostgreSQL. Reproduce la semántica transaccional que
// los motores esperan del TxRunner real: un mutex por producto hace las veces
// de SELECT FOR UPDATE (se adquiere en GetForUpdate y se libera solo al commit
// o rollback), y las mutaciones se acumulan en la transacción y se aplican de
// forma atómica al confirmar.
package apptest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/retail-pos/internal/domain"
	"github.com/jhoicas/retail-pos/internal/domain/entity"
	"github.com/jhoicas/retail-pos/internal/domain/repository"
)

// MemStore estado confirmado compartido entre transacciones.
type MemStore struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex // un mutex por producto: la "fila" bloqueable

	products  map[string]*entity.Product
	ledger    map[string]int
	sales     map[string]*entity.Sale
	saleLines map[string][]*entity.SaleLine
	receipts  map[string]*entity.Receipt
	rcptLines map[string][]*entity.ReceiptLine
	movements []*entity.StockMovement

	saleSeq    int64
	receiptSeq int64
}

// NewMemStore crea un almacén vacío.
func NewMemStore() *MemStore {
	return &MemStore{
		locks:     make(map[string]*sync.Mutex),
		products:  make(map[string]*entity.Product),
		ledger:    make(map[string]int),
		sales:     make(map[string]*entity.Sale),
		saleLines: make(map[string][]*entity.SaleLine),
		receipts:  make(map[string]*entity.Receipt),
		rcptLines: make(map[string][]*entity.ReceiptLine),
	}
}

// AddProduct registra un producto con una cantidad inicial en el ledger.
func (s *MemStore) AddProduct(p *entity.Product, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	s.ledger[p.ID] = qty
}

// Quantity cantidad confirmada de un producto.
func (s *MemStore) Quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger[productID]
}

// MovementsFor movimientos confirmados de un producto, en orden de inserción.
func (s *MemStore) MovementsFor(productID string) []*entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.StockMovement
	for _, m := range s.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out
}

// AllMovements todos los movimientos confirmados.
func (s *MemStore) AllMovements() []*entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.StockMovement, len(s.movements))
	copy(out, s.movements)
	return out
}

// SaleCount ventas confirmadas.
func (s *MemStore) SaleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sales)
}

func (s *MemStore) lockFor(productID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[productID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[productID] = l
	}
	return l
}

// ── TxRunner ──────────────────────────────────────────────────────────────────

// TxRunner devuelve un runner compatible con los puertos de los motores.
func (s *MemStore) TxRunner() *MemTxRunner { return &MemTxRunner{store: s} }

// MemTxRunner ejecuta el callback con repositorios atados a una transacción en
// memoria. Si el callback falla, nada del estado confirmado cambia.
type MemTxRunner struct {
	store *MemStore
}

// Run implementa sale.TxRunner e inventory.TxRunner.
func (r *MemTxRunner) Run(_ context.Context, fn func(repos *repository.TxRepos) error) error {
	tx := &memTx{
		store:       r.store,
		deltas:      make(map[string]int),
		setQty:      make(map[string]int),
		lineReturns: make(map[string]int),
		markRet:     make(map[string]bool),
	}
	repos := &repository.TxRepos{
		Ledger:    &txLedgerRepo{tx},
		Movements: &txMovementRepo{tx},
		Sales:     &txSaleRepo{tx},
		Receipts:  &txReceiptRepo{tx},
		Products:  &productRepo{r.store},
	}
	if err := fn(repos); err != nil {
		tx.release()
		return err
	}
	tx.commit()
	return nil
}

// memTx mutaciones pendientes y bloqueos adquiridos por la transacción.
type memTx struct {
	store *MemStore

	held    []*sync.Mutex
	heldIDs map[string]bool

	deltas      map[string]int
	setQty      map[string]int
	newSales    []*entity.Sale
	newLines    []*entity.SaleLine
	newReceipts []*entity.Receipt
	newRcptLns  []*entity.ReceiptLine
	newMovs     []*entity.StockMovement
	lineReturns map[string]int
	markRet     map[string]bool
}

func (tx *memTx) acquire(productID string) {
	if tx.heldIDs == nil {
		tx.heldIDs = make(map[string]bool)
	}
	if tx.heldIDs[productID] {
		return
	}
	l := tx.store.lockFor(productID)
	l.Lock()
	tx.held = append(tx.held, l)
	tx.heldIDs[productID] = true
}

func (tx *memTx) release() {
	for i := len(tx.held) - 1; i >= 0; i-- {
		tx.held[i].Unlock()
	}
	tx.held = nil
}

func (tx *memTx) effectiveQty(productID string) int {
	base, overridden := tx.setQty[productID]
	if !overridden {
		tx.store.mu.Lock()
		base = tx.store.ledger[productID]
		tx.store.mu.Unlock()
	}
	return base + tx.deltas[productID]
}

func (tx *memTx) commit() {
	s := tx.store
	s.mu.Lock()
	for pid, q := range tx.setQty {
		s.ledger[pid] = q
	}
	for pid, d := range tx.deltas {
		s.ledger[pid] += d
	}
	for _, sale := range tx.newSales {
		s.sales[sale.ID] = sale
	}
	for _, l := range tx.newLines {
		s.saleLines[l.SaleID] = append(s.saleLines[l.SaleID], l)
	}
	for _, r := range tx.newReceipts {
		s.receipts[r.ID] = r
	}
	for _, l := range tx.newRcptLns {
		s.rcptLines[l.ReceiptID] = append(s.rcptLines[l.ReceiptID], l)
	}
	for lineID, q := range tx.lineReturns {
		for _, lines := range s.saleLines {
			for _, l := range lines {
				if l.ID == lineID {
					l.ReturnedQty = q
				}
			}
		}
	}
	for saleID := range tx.markRet {
		if sale, ok := s.sales[saleID]; ok {
			sale.Returned = true
		}
	}
	s.movements = append(s.movements, tx.newMovs...)
	s.mu.Unlock()
	tx.release()
}

// ── Ledger ────────────────────────────────────────────────────────────────────

type txLedgerRepo struct{ tx *memTx }

func (r *txLedgerRepo) GetQuantity(productID string) (int, error) {
	return r.tx.effectiveQty(productID), nil
}

func (r *txLedgerRepo) GetForUpdate(productID string) (*entity.StockLedgerEntry, error) {
	r.tx.acquire(productID)
	return &entity.StockLedgerEntry{
		ProductID: productID,
		Quantity:  r.tx.effectiveQty(productID),
		UpdatedAt: time.Now(),
	}, nil
}

func (r *txLedgerRepo) Decrease(productID string, amount int) error {
	if r.tx.effectiveQty(productID)-amount < 0 {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: amount,
			Available: r.tx.effectiveQty(productID),
		}
	}
	r.tx.deltas[productID] -= amount
	return nil
}

func (r *txLedgerRepo) Increase(productID string, amount int) error {
	r.tx.deltas[productID] += amount
	return nil
}

func (r *txLedgerRepo) SetQuantity(productID string, quantity int) error {
	r.tx.setQty[productID] = quantity
	delete(r.tx.deltas, productID)
	return nil
}

// Ledger repositorio de lectura atado al estado confirmado.
func (s *MemStore) Ledger() repository.StockLedgerRepository { return &committedLedgerRepo{s} }

type committedLedgerRepo struct{ s *MemStore }

func (r *committedLedgerRepo) GetQuantity(productID string) (int, error) {
	return r.s.Quantity(productID), nil
}

func (r *committedLedgerRepo) GetForUpdate(productID string) (*entity.StockLedgerEntry, error) {
	return nil, fmt.Errorf("apptest: GetForUpdate fuera de transacción")
}

func (r *committedLedgerRepo) Decrease(string, int) error {
	return fmt.Errorf("apptest: Decrease fuera de transacción")
}

func (r *committedLedgerRepo) Increase(string, int) error {
	return fmt.Errorf("apptest: Increase fuera de transacción")
}

func (r *committedLedgerRepo) SetQuantity(string, int) error {
	return fmt.Errorf("apptest: SetQuantity fuera de transacción")
}

// ── Movimientos ───────────────────────────────────────────────────────────────

type txMovementRepo struct{ tx *memTx }

func (r *txMovementRepo) Create(m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.tx.newMovs = append(r.tx.newMovs, m)
	return nil
}

func (r *txMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	for _, m := range r.tx.newMovs {
		if m.ID == id {
			return m, nil
		}
	}
	return movementByID(r.tx.store, id), nil
}

func (r *txMovementRepo) ListByProduct(productID string, _, _ *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return paginate(r.tx.store.MovementsFor(productID), limit, offset), nil
}

func (r *txMovementRepo) ListByUser(userID string, _, _ *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.tx.store.AllMovements() {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *txMovementRepo) ListAdjustments(limit, offset int) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.tx.store.AllMovements() {
		if m.Operation == entity.OperationAdjustment || m.Operation == entity.OperationWriteOff {
			out = append(out, m)
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *txMovementRepo) Update(*entity.StockMovement) error { return domain.ErrOperationNotPermitted }
func (r *txMovementRepo) Delete(string) error                { return domain.ErrOperationNotPermitted }

// Movements repositorio de lectura atado al estado confirmado.
func (s *MemStore) Movements() repository.StockMovementRepository {
	return &txMovementRepo{&memTx{store: s}}
}

func movementByID(s *MemStore, id string) *entity.StockMovement {
	for _, m := range s.AllMovements() {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// ── Ventas ────────────────────────────────────────────────────────────────────

type txSaleRepo struct{ tx *memTx }

func (r *txSaleRepo) Create(sale *entity.Sale) error {
	seq := atomic.AddInt64(&r.tx.store.saleSeq, 1)
	sale.SaleNumber = fmt.Sprintf("S-%s-%06d", sale.SaleDate.Format("20060102"), seq)
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	r.tx.newSales = append(r.tx.newSales, sale)
	return nil
}

func (r *txSaleRepo) InsertLine(line *entity.SaleLine) error {
	r.tx.newLines = append(r.tx.newLines, line)
	return nil
}

func (r *txSaleRepo) GetByID(id string) (*entity.Sale, error) {
	for _, s := range r.tx.newSales {
		if s.ID == id {
			return s, nil
		}
	}
	return committedSale(r.tx.store, id), nil
}

func (r *txSaleRepo) GetByNumber(saleNumber string) (*entity.Sale, error) {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	for _, s := range r.tx.store.sales {
		if s.SaleNumber == saleNumber {
			cp := *s
			cp.Lines = nil
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *txSaleRepo) ListLines(saleID string) ([]*entity.SaleLine, error) {
	r.tx.store.mu.Lock()
	var out []*entity.SaleLine
	for _, l := range r.tx.store.saleLines[saleID] {
		cp := *l
		if q, ok := r.tx.lineReturns[l.ID]; ok {
			cp.ReturnedQty = q
		}
		out = append(out, &cp)
	}
	r.tx.store.mu.Unlock()
	for _, l := range r.tx.newLines {
		if l.SaleID == saleID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *txSaleRepo) ListByPeriod(from, to time.Time, limit, offset int) ([]*entity.Sale, error) {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	var out []*entity.Sale
	for _, s := range r.tx.store.sales {
		if !s.SaleDate.Before(from) && s.SaleDate.Before(to) {
			cp := *s
			cp.Lines = nil
			out = append(out, &cp)
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *txSaleRepo) UpdateLineReturnedQty(lineID string, returnedQty int) error {
	r.tx.lineReturns[lineID] = returnedQty
	return nil
}

func (r *txSaleRepo) MarkReturned(saleID string) error {
	r.tx.markRet[saleID] = true
	return nil
}

func (r *txSaleRepo) Delete(string) error { return domain.ErrOperationNotPermitted }

// Sales repositorio de lectura atado al estado confirmado.
func (s *MemStore) Sales() repository.SaleRepository {
	return &txSaleRepo{&memTx{
		store:       s,
		lineReturns: make(map[string]int),
		markRet:     make(map[string]bool),
	}}
}

func committedSale(s *MemStore, id string) *entity.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return nil
	}
	cp := *sale
	cp.Lines = nil
	return &cp
}

// ── Recepciones ───────────────────────────────────────────────────────────────

type txReceiptRepo struct{ tx *memTx }

func (r *txReceiptRepo) Create(receipt *entity.Receipt) error {
	seq := atomic.AddInt64(&r.tx.store.receiptSeq, 1)
	receipt.ReceiptNumber = fmt.Sprintf("R-%s-%06d", receipt.ReceiptDate.Format("20060102"), seq)
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now()
	}
	r.tx.newReceipts = append(r.tx.newReceipts, receipt)
	return nil
}

func (r *txReceiptRepo) InsertLine(line *entity.ReceiptLine) error {
	r.tx.newRcptLns = append(r.tx.newRcptLns, line)
	return nil
}

func (r *txReceiptRepo) GetByID(id string) (*entity.Receipt, error) {
	for _, rc := range r.tx.newReceipts {
		if rc.ID == id {
			return rc, nil
		}
	}
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	rc, ok := r.tx.store.receipts[id]
	if !ok {
		return nil, nil
	}
	cp := *rc
	cp.Lines = nil
	return &cp, nil
}

func (r *txReceiptRepo) GetByNumber(receiptNumber string) (*entity.Receipt, error) {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	for _, rc := range r.tx.store.receipts {
		if rc.ReceiptNumber == receiptNumber {
			cp := *rc
			cp.Lines = nil
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *txReceiptRepo) ListLines(receiptID string) ([]*entity.ReceiptLine, error) {
	r.tx.store.mu.Lock()
	var out []*entity.ReceiptLine
	for _, l := range r.tx.store.rcptLines[receiptID] {
		cp := *l
		out = append(out, &cp)
	}
	r.tx.store.mu.Unlock()
	for _, l := range r.tx.newRcptLns {
		if l.ReceiptID == receiptID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *txReceiptRepo) ListByPeriod(from, to time.Time, limit, offset int) ([]*entity.Receipt, error) {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	var out []*entity.Receipt
	for _, rc := range r.tx.store.receipts {
		if !rc.ReceiptDate.Before(from) && rc.ReceiptDate.Before(to) {
			cp := *rc
			cp.Lines = nil
			out = append(out, &cp)
		}
	}
	return paginate(out, limit, offset), nil
}

func (r *txReceiptRepo) Update(*entity.Receipt) error { return domain.ErrOperationNotPermitted }
func (r *txReceiptRepo) Delete(string) error          { return domain.ErrOperationNotPermitted }

// Receipts repositorio de lectura atado al estado confirmado.
func (s *MemStore) Receipts() repository.ReceiptRepository {
	return &txReceiptRepo{&memTx{store: s}}
}

// ── Productos ─────────────────────────────────────────────────────────────────

// productRepo opera directo sobre el estado confirmado: el catálogo no participa
// de las transacciones de stock en los tests.
type productRepo struct{ s *MemStore }

// Products repositorio de catálogo.
func (s *MemStore) Products() repository.ProductRepository { return &productRepo{s} }

func (r *productRepo) Create(p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.products {
		if existing.SKU == p.SKU {
			return domain.ErrDuplicate
		}
	}
	r.s.products[p.ID] = p
	if _, ok := r.s.ledger[p.ID]; !ok {
		r.s.ledger[p.ID] = 0
	}
	return nil
}

func (r *productRepo) GetByID(id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *productRepo) GetBySKU(sku string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *productRepo) Update(p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[p.ID] = p
	return nil
}

func (r *productRepo) UpdatePrice(productID string, sellingPrice decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.SellingPrice = sellingPrice
	return nil
}

func (r *productRepo) SetActive(productID string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Active = active
	return nil
}

func (r *productRepo) List(limit, offset int) ([]*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.s.products {
		cp := *p
		out = append(out, &cp)
	}
	return paginate(out, limit, offset), nil
}

func (r *productRepo) ListWithStock(limit, offset int) ([]*entity.ProductStockView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ProductStockView
	for _, p := range r.s.products {
		out = append(out, &entity.ProductStockView{Product: *p, Quantity: r.s.ledger[p.ID]})
	}
	return paginate(out, limit, offset), nil
}

func (r *productRepo) ListLowStock() ([]*entity.ProductStockView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ProductStockView
	for _, p := range r.s.products {
		if p.Active && r.s.ledger[p.ID] < p.MinStock {
			out = append(out, &entity.ProductStockView{Product: *p, Quantity: r.s.ledger[p.ID]})
		}
	}
	return out, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func paginate[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
