package purchasing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/purchase-ledger/internal/catalog"
	"github.com/odyssey-erp/purchase-ledger/internal/categories"
	"github.com/odyssey-erp/purchase-ledger/internal/ledger"
	"github.com/odyssey-erp/purchase-ledger/internal/notifications"
	"github.com/odyssey-erp/purchase-ledger/internal/shared"
	"github.com/odyssey-erp/purchase-ledger/internal/stockledger"
)

type memoryState struct {
	products   map[uuid.UUID]catalog.Product
	suppliers  map[uuid.UUID]uuid.UUID
	categories []categories.Category
	invoices   map[uuid.UUID]Invoice
	entries    []stockledger.Entry
	payables   []ledger.Entry
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		products:   make(map[uuid.UUID]catalog.Product, len(s.products)),
		suppliers:  make(map[uuid.UUID]uuid.UUID, len(s.suppliers)),
		categories: append([]categories.Category(nil), s.categories...),
		invoices:   make(map[uuid.UUID]Invoice, len(s.invoices)),
		entries:    append([]stockledger.Entry(nil), s.entries...),
		payables:   append([]ledger.Entry(nil), s.payables...),
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.suppliers {
		out.suppliers[k] = v
	}
	for k, v := range s.invoices {
		out.invoices[k] = v
	}
	return out
}

// memoryRepo commits a cloned state only when the callback succeeds.
type memoryRepo struct {
	mu     sync.Mutex
	state  memoryState
	failOn string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: memoryState{
		products:  make(map[uuid.UUID]catalog.Product),
		suppliers: make(map[uuid.UUID]uuid.UUID),
		invoices:  make(map[uuid.UUID]Invoice),
	}}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memoryTx{state: m.state.clone(), failOn: m.failOn}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *memoryRepo) addProduct(tenantID uuid.UUID, name string, price string) catalog.Product {
	p := catalog.NewProduct(tenantID, name, "")
	p.Price = decimal.RequireFromString(price)
	m.state.products[p.ID] = p
	return p
}

type memoryTx struct {
	state  memoryState
	failOn string
}

var errInjected = errors.New("injected failure")

func (t *memoryTx) fail(op string) error {
	if t.failOn == op {
		return shared.Persistence(op, errInjected)
	}
	return nil
}

func (t *memoryTx) ListStockEntries(ctx context.Context, productID uuid.UUID) ([]stockledger.Entry, error) {
	var out []stockledger.Entry
	for _, e := range t.state.entries {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *memoryTx) WriteCostSnapshot(ctx context.Context, snap stockledger.Snapshot) error {
	if err := t.fail("WriteCostSnapshot"); err != nil {
		return err
	}
	p, ok := t.state.products[snap.ProductID]
	if !ok {
		return shared.NotFound("product", snap.ProductID)
	}
	p.StockQuantity = snap.StockQuantity
	p.AverageCost = snap.AverageCost
	t.state.products[p.ID] = p
	return nil
}

func (t *memoryTx) FindSystemCategory(ctx context.Context, tenantID uuid.UUID, code string) (categories.Category, error) {
	for _, c := range t.state.categories {
		if c.TenantID == tenantID && c.Code == code && c.IsSystem {
			return c, nil
		}
	}
	return categories.Category{}, shared.ErrNotFound
}

func (t *memoryTx) FindCategoryByCode(ctx context.Context, tenantID uuid.UUID, code string) (categories.Category, error) {
	for _, c := range t.state.categories {
		if c.TenantID == tenantID && c.Code == code {
			return c, nil
		}
	}
	return categories.Category{}, shared.ErrNotFound
}

func (t *memoryTx) FindCategoryByName(ctx context.Context, tenantID uuid.UUID, name string, typ categories.Type) (categories.Category, error) {
	for _, c := range t.state.categories {
		if c.TenantID == tenantID && c.Name == name && c.Type == typ {
			return c, nil
		}
	}
	return categories.Category{}, shared.ErrNotFound
}

func (t *memoryTx) CreateCategory(ctx context.Context, c categories.Category) error {
	t.state.categories = append(t.state.categories, c)
	return nil
}

func (t *memoryTx) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (catalog.Product, error) {
	p, ok := t.state.products[productID]
	if !ok || p.TenantID != tenantID {
		return catalog.Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (t *memoryTx) CreateProduct(ctx context.Context, p catalog.Product) error {
	if err := t.fail("CreateProduct"); err != nil {
		return err
	}
	p.StockQuantity = 0
	p.AverageCost = decimal.Zero
	t.state.products[p.ID] = p
	return nil
}

func (t *memoryTx) SupplierExists(ctx context.Context, tenantID, supplierID uuid.UUID) (bool, error) {
	owner, ok := t.state.suppliers[supplierID]
	return ok && owner == tenantID, nil
}

func (t *memoryTx) InsertInvoice(ctx context.Context, inv Invoice) error {
	t.state.invoices[inv.ID] = inv
	return nil
}

func (t *memoryTx) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (Invoice, error) {
	inv, ok := t.state.invoices[invoiceID]
	if !ok || inv.TenantID != tenantID {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (t *memoryTx) DeleteInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) error {
	if _, ok := t.state.invoices[invoiceID]; !ok {
		return shared.NotFound("invoice", invoiceID)
	}
	delete(t.state.invoices, invoiceID)
	kept := t.state.entries[:0:0]
	for _, e := range t.state.entries {
		if e.InvoiceID != invoiceID {
			kept = append(kept, e)
		}
	}
	t.state.entries = kept
	return nil
}

func (t *memoryTx) InsertStockEntry(ctx context.Context, e stockledger.Entry) error {
	t.state.entries = append(t.state.entries, e)
	return nil
}

func (t *memoryTx) ListStockEntriesByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]stockledger.Entry, error) {
	var out []stockledger.Entry
	for _, e := range t.state.entries {
		if e.InvoiceID == invoiceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *memoryTx) InsertLedgerEntry(ctx context.Context, e ledger.Entry) error {
	if err := t.fail("InsertLedgerEntry"); err != nil {
		return err
	}
	t.state.payables = append(t.state.payables, e)
	return nil
}

func (t *memoryTx) ListLedgerEntriesByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range t.state.payables {
		if e.TenantID == tenantID && e.InvoiceID != nil && *e.InvoiceID == invoiceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *memoryTx) DeleteLedgerEntriesByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (int64, error) {
	kept := t.state.payables[:0:0]
	var n int64
	for _, e := range t.state.payables {
		if e.TenantID == tenantID && e.InvoiceID != nil && *e.InvoiceID == invoiceID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	t.state.payables = kept
	return n, nil
}

type recordingSink struct {
	mu   sync.Mutex
	sent []notifications.Notification
	err  error
}

func (s *recordingSink) Create(ctx context.Context, n notifications.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

func (s *recordingSink) ofType(typ notifications.Type) []notifications.Notification {
	var out []notifications.Notification
	for _, n := range s.sent {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository, sink notifications.Sink) *Service {
	return NewService(repo, sink, ServiceConfig{Locale: "en", Now: func() time.Time { return fixedNow }})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func newLine(name string, qty int64, cost string) LineInput {
	return LineInput{NewProduct: &NewProductInput{Name: name}, Quantity: qty, RawUnitCost: dec(cost)}
}

func existingLine(id uuid.UUID, qty int64, cost string) LineInput {
	return LineInput{ProductID: &id, Quantity: qty, RawUnitCost: dec(cost)}
}

func TestCreateInvoiceBooksStockAndPayable(t *testing.T) {
	repo := newMemoryRepo()
	sink := &recordingSink{}
	svc := newTestService(repo, sink)
	tenant := uuid.New()
	entryDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID:      tenant,
		ActorID:       uuid.New(),
		Lines:         []LineInput{newLine("Widget", 10, "10.00")},
		FreightCost:   dec("50"),
		TaxRate:       dec("0.10"),
		EntryDate:     entryDate,
		InvoiceNumber: "NF-1",
	})
	require.NoError(t, err)
	requireAmount(t, "165.00", inv.TotalCost)
	requireAmount(t, "100.00", inv.Subtotal)
	require.Equal(t, PaymentPending, inv.PaymentStatus)

	state := repo.state
	require.Len(t, state.invoices, 1)
	require.Len(t, state.entries, 1)
	entry := state.entries[0]
	requireAmount(t, "16.50", entry.UnitCost)
	requireAmount(t, "10.00", entry.RawUnitCost)
	require.EqualValues(t, 10, entry.RemainingQuantity)

	product := state.products[entry.ProductID]
	require.Equal(t, "Widget", product.Name)
	require.EqualValues(t, 10, product.StockQuantity)
	requireAmount(t, "16.50", product.AverageCost)

	require.Len(t, state.payables, 1)
	payable := state.payables[0]
	require.Equal(t, ledger.Expense, payable.Type)
	require.Equal(t, ledger.Pending, payable.Status)
	requireAmount(t, "165.00", payable.Amount)
	require.Equal(t, entryDate.AddDate(0, 0, 30), payable.DueDate)
	require.Equal(t, entryDate, payable.CompetenceDate)
	require.Equal(t, inv.ID, *payable.InvoiceID)

	require.Len(t, state.categories, 1)
	cmv := state.categories[0]
	require.Equal(t, categories.CodeCostOfGoodsSold, cmv.Code)
	require.True(t, cmv.IsSystem)
	require.Equal(t, cmv.ID, *payable.CategoryID)

	pricing := sink.ofType(notifications.PricingNeeded)
	require.Len(t, pricing, 1)
	require.Equal(t, notifications.RoleSales, pricing[0].TargetRole)
	require.Contains(t, pricing[0].Description, "Widget")
	review := sink.ofType(notifications.PaymentReview)
	require.Len(t, review, 1)
	require.Equal(t, notifications.RoleFinance, review[0].TargetRole)
	requireAmount(t, "165.00", *review[0].ExpectedAmount)
	require.Equal(t, payable.DueDate, review[0].DueAt)
}

func TestCreateInvoiceUpdatesWeightedAverage(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	tenant := uuid.New()
	product := repo.addProduct(tenant, "Bolt", "12.00")
	ctx := context.Background()

	_, err := svc.CreateInvoice(ctx, CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{existingLine(product.ID, 10, "5.00")},
	})
	require.NoError(t, err)
	_, err = svc.CreateInvoice(ctx, CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{existingLine(product.ID, 5, "8.00")},
	})
	require.NoError(t, err)

	got := repo.state.products[product.ID]
	require.EqualValues(t, 15, got.StockQuantity)
	requireAmount(t, "6.00", got.AverageCost)
	require.Len(t, repo.state.categories, 1, "cost of goods category is reused")
}

func TestCreateInvoiceReusesCategoryByName(t *testing.T) {
	repo := newMemoryRepo()
	tenant := uuid.New()
	existing := categories.Category{ID: uuid.New(), TenantID: tenant, Code: "5.1", Name: categories.CostOfGoodsSold.Name, Type: categories.TypeExpense}
	repo.state.categories = append(repo.state.categories, existing)
	svc := newTestService(repo, nil)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{newLine("Nut", 1, "1.00")},
	})
	require.NoError(t, err)
	require.Len(t, repo.state.categories, 1)
	require.Equal(t, existing.ID, *repo.state.payables[0].CategoryID)
}

func TestCreateInvoiceRejectsInvalidInput(t *testing.T) {
	tenant := uuid.New()
	base := func() CreateInvoiceInput {
		return CreateInvoiceInput{TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow, Lines: []LineInput{newLine("A", 1, "1")}}
	}
	cases := map[string]func(*CreateInvoiceInput){
		"empty":        func(in *CreateInvoiceInput) { in.Lines = nil },
		"zero qty":     func(in *CreateInvoiceInput) { in.Lines[0].Quantity = 0 },
		"no product":   func(in *CreateInvoiceInput) { in.Lines[0].NewProduct = nil },
		"blank name":   func(in *CreateInvoiceInput) { in.Lines[0].NewProduct.Name = "  " },
		"negative fee": func(in *CreateInvoiceInput) { in.FreightCost = dec("-1") },
		"negative tax": func(in *CreateInvoiceInput) { in.TaxRate = dec("-0.1") },
		"no date":      func(in *CreateInvoiceInput) { in.EntryDate = time.Time{} },
		"no actor":     func(in *CreateInvoiceInput) { in.ActorID = uuid.Nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newMemoryRepo()
			svc := newTestService(repo, nil)
			in := base()
			mutate(&in)
			_, err := svc.CreateInvoice(context.Background(), in)
			require.ErrorIs(t, err, shared.ErrValidation)
			require.Empty(t, repo.state.invoices)
			require.Empty(t, repo.state.products)
		})
	}

	_, err := newTestService(newMemoryRepo(), nil).CreateInvoice(context.Background(), CreateInvoiceInput{})
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestCreateInvoiceUnknownProductLeavesNothing(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	tenant := uuid.New()

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{newLine("Fresh", 2, "3.00"), existingLine(uuid.New(), 1, "1.00")},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Contains(t, err.Error(), "line 2")
	require.Empty(t, repo.state.invoices)
	require.Empty(t, repo.state.products)
	require.Empty(t, repo.state.entries)
}

func TestCreateInvoicePersistenceFailureRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	tenant := uuid.New()
	product := repo.addProduct(tenant, "Gear", "20.00")
	repo.state.products[product.ID] = withPosition(product, 4, "7.50")
	repo.failOn = "InsertLedgerEntry"
	sink := &recordingSink{}
	svc := newTestService(repo, sink)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{existingLine(product.ID, 6, "9.00"), newLine("Sprocket", 1, "1.00")},
	})
	require.ErrorIs(t, err, shared.ErrPersistence)
	require.ErrorIs(t, err, errInjected)

	require.Empty(t, repo.state.invoices)
	require.Empty(t, repo.state.entries)
	require.Empty(t, repo.state.payables)
	require.Empty(t, repo.state.categories)
	require.Len(t, repo.state.products, 1)
	got := repo.state.products[product.ID]
	require.EqualValues(t, 4, got.StockQuantity)
	requireAmount(t, "7.50", got.AverageCost)
	require.Empty(t, sink.sent)
}

func TestCreateInvoiceSurvivesNotificationFailure(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &recordingSink{err: errors.New("queue down")})

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID: uuid.New(), ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{newLine("Cable", 3, "2.00")},
	})
	require.NoError(t, err)
	require.Contains(t, repo.state.invoices, inv.ID)
	require.Len(t, repo.state.payables, 1)
}

func TestCreateInvoiceSkipsPricingAlertForPricedProducts(t *testing.T) {
	repo := newMemoryRepo()
	sink := &recordingSink{}
	svc := newTestService(repo, sink)
	tenant := uuid.New()
	priced := repo.addProduct(tenant, "Lamp", "30.00")

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{existingLine(priced.ID, 1, "10.00")},
	})
	require.NoError(t, err)
	require.Empty(t, sink.ofType(notifications.PricingNeeded))
	require.Len(t, sink.ofType(notifications.PaymentReview), 1)
}

func TestCreateInvoicePricingAlertNamesOnlyNewProducts(t *testing.T) {
	repo := newMemoryRepo()
	sink := &recordingSink{}
	svc := newTestService(repo, sink)
	tenant := uuid.New()
	unpricedExisting := repo.addProduct(tenant, "Clamp", "0")

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{existingLine(unpricedExisting.ID, 2, "4.00"), newLine("Hinge", 3, "2.00")},
	})
	require.NoError(t, err)
	pricing := sink.ofType(notifications.PricingNeeded)
	require.Len(t, pricing, 1)
	require.Contains(t, pricing[0].Description, "Hinge")
	require.NotContains(t, pricing[0].Description, "Clamp")

	sink.sent = nil
	_, err = svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{existingLine(unpricedExisting.ID, 1, "4.00")},
	})
	require.NoError(t, err)
	require.Empty(t, sink.ofType(notifications.PricingNeeded))
}

func TestCreateInvoiceSharesRepeatedNewProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID: uuid.New(), ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{newLine("Hose", 2, "4.00"), newLine("hose ", 2, "6.00")},
	})
	require.NoError(t, err)
	require.Len(t, repo.state.products, 1)
	for _, p := range repo.state.products {
		require.EqualValues(t, 4, p.StockQuantity)
		requireAmount(t, "5.00", p.AverageCost)
	}
}

func TestCreateInvoiceChecksSupplier(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	tenant := uuid.New()
	supplier := uuid.New()

	_, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow, SupplierID: &supplier,
		Lines: []LineInput{newLine("Pipe", 1, "1.00")},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)

	repo.state.suppliers[supplier] = tenant
	_, err = svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow, SupplierID: &supplier,
		Lines: []LineInput{newLine("Pipe", 1, "1.00")},
	})
	require.NoError(t, err)
	require.Equal(t, supplier, *repo.state.payables[0].SupplierID)
}

func TestDeleteInvoiceRestoresPriorPosition(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	tenant := uuid.New()
	product := repo.addProduct(tenant, "Valve", "50.00")
	ctx := context.Background()

	first, err := svc.CreateInvoice(ctx, CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{existingLine(product.ID, 10, "5.00")},
	})
	require.NoError(t, err)
	before := repo.state.products[product.ID]

	second, err := svc.CreateInvoice(ctx, CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow, FreightCost: dec("10"),
		Lines: []LineInput{existingLine(product.ID, 5, "8.00"), newLine("Seal", 3, "1.00")},
	})
	require.NoError(t, err)
	require.EqualValues(t, 15, repo.state.products[product.ID].StockQuantity)

	require.NoError(t, svc.DeleteInvoice(ctx, tenant, second.ID))

	after := repo.state.products[product.ID]
	require.Equal(t, before.StockQuantity, after.StockQuantity)
	require.True(t, before.AverageCost.Equal(after.AverageCost))
	require.NotContains(t, repo.state.invoices, second.ID)
	require.Contains(t, repo.state.invoices, first.ID)
	require.Len(t, repo.state.payables, 1)
	require.Equal(t, first.ID, *repo.state.payables[0].InvoiceID)

	for _, p := range repo.state.products {
		if p.Name == "Seal" {
			require.Zero(t, p.StockQuantity)
			require.True(t, p.AverageCost.IsZero())
		}
	}
}

func TestDeleteInvoiceWithConsumedLots(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	tenant := uuid.New()
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{newLine("Filter", 4, "2.00")},
	})
	require.NoError(t, err)
	repo.state.entries[0].RemainingQuantity = 1

	require.NoError(t, svc.DeleteInvoice(ctx, tenant, inv.ID))
	require.Empty(t, repo.state.entries)
}

func TestDeleteInvoiceNotFound(t *testing.T) {
	svc := newTestService(newMemoryRepo(), nil)
	err := svc.DeleteInvoice(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)

	err = svc.DeleteInvoice(context.Background(), uuid.Nil, uuid.New())
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestDeleteInvoiceIsTenantScoped(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	owner := uuid.New()

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID: owner, ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{newLine("Chain", 1, "1.00")},
	})
	require.NoError(t, err)

	err = svc.DeleteInvoice(context.Background(), uuid.New(), inv.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Contains(t, repo.state.invoices, inv.ID)
}

func TestGetInvoiceReturnsDetail(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, nil)
	tenant := uuid.New()

	inv, err := svc.CreateInvoice(context.Background(), CreateInvoiceInput{
		TenantID: tenant, ActorID: uuid.New(), EntryDate: fixedNow,
		Lines: []LineInput{newLine("Belt", 2, "3.00"), newLine("Pulley", 1, "4.00")},
	})
	require.NoError(t, err)

	detail, err := svc.GetInvoice(context.Background(), tenant, inv.ID)
	require.NoError(t, err)
	require.Equal(t, inv.ID, detail.ID)
	require.Len(t, detail.Entries, 2)
	require.Len(t, detail.Payables, 1)
}

func withPosition(p catalog.Product, qty int64, avg string) catalog.Product {
	p.StockQuantity = qty
	p.AverageCost = dec(avg)
	return p
}
