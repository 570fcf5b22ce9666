package order

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"resellerdesk/model"
	providerrepo "resellerdesk/repository/provider"
	"resellerdesk/service/provisioning"
	"resellerdesk/util/database"
)

type fakeTx struct {
	committed  bool
	rolledBack bool
}

var _ database.Tx = (*fakeTx)(nil)

func (f *fakeTx) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return nil, nil
}
func (f *fakeTx) QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return nil, nil
}
func (f *fakeTx) QueryRowContext(ctx context.Context, q string, args ...any) *sql.Row { return nil }
func (f *fakeTx) Commit() error                                                       { f.committed = true; return nil }
func (f *fakeTx) Rollback() error                                                     { f.rolledBack = true; return nil }

type fakeBeginner struct{ tx *fakeTx }

func (f *fakeBeginner) BeginTx(ctx context.Context) (database.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type mockResellers struct{ r *model.Reseller }

var _ Resellers = (*mockResellers)(nil)

func (m *mockResellers) ByID(ctx context.Context, id int64) (*model.Reseller, error) {
	return m.r, nil
}

func (m *mockResellers) LockBalance(ctx context.Context, tx database.Tx, id int64) (decimal.Decimal, error) {
	return m.r.Balance, nil
}

type mockProducts struct{ p *model.Product }

var _ Products = (*mockProducts)(nil)

func (m *mockProducts) ByID(ctx context.Context, id int64) (*model.Product, error) {
	return m.p, nil
}

// mockLedger keeps a running balance so debits behave like the real service:
// fail closed when the balance cannot cover the amount.
type mockLedger struct {
	balance decimal.Decimal
	debits  []decimal.Decimal
	credits []decimal.Decimal
}

var _ Ledger = (*mockLedger)(nil)

func (m *mockLedger) Credit(ctx context.Context, tx database.Tx, resellerID int64,
	amount decimal.Decimal, description string) (int64, error) {
	m.balance = m.balance.Add(amount)
	m.credits = append(m.credits, amount)
	return 1, nil
}

func (m *mockLedger) Debit(ctx context.Context, tx database.Tx, resellerID int64,
	amount decimal.Decimal, description string) (int64, error) {
	if m.balance.LessThan(amount) {
		return 0, fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, m.balance, amount)
	}
	m.balance = m.balance.Sub(amount)
	m.debits = append(m.debits, amount)
	return 1, nil
}

// mockStock serves allocations from a finite pool, all or nothing.
type mockStock struct {
	pool []model.StockItem
}

var _ Stock = (*mockStock)(nil)

func (m *mockStock) AvailableCount(ctx context.Context, productID int64) (int, error) {
	return len(m.pool), nil
}

func (m *mockStock) Allocate(ctx context.Context, tx database.Tx, productID int64,
	quantity int, orderID int64) ([]model.StockItem, error) {
	if len(m.pool) < quantity {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientStock, quantity, len(m.pool))
	}
	items := m.pool[:quantity]
	m.pool = m.pool[quantity:]
	return items, nil
}

type mockProvider struct {
	dispatchFn func(ctx context.Context, req providerrepo.DispatchReq) (*providerrepo.DispatchResp, error)
}

var _ Provider = (*mockProvider)(nil)

func (m *mockProvider) Dispatch(ctx context.Context, req providerrepo.DispatchReq) (*providerrepo.DispatchResp, error) {
	return m.dispatchFn(ctx, req)
}

type mockProv struct {
	calls  int
	result *provisioning.Result
}

var _ Provisioner = (*mockProv)(nil)

func (m *mockProv) Fulfill(ctx context.Context, tx database.Tx, po *model.PackageOrder) (*provisioning.Result, error) {
	m.calls++
	return m.result, nil
}

type mockOrders struct {
	order *model.ProductOrder
	pkg   *model.PackageOrder

	inserted        bool
	note            string
	statusUpdates   []model.OrderStatus
	completedMeta   string
	completedNote   string
	pkgStatusWrites []model.PackageOrderStatus
	pkgNotes        []string
}

var _ Repo = (*mockOrders)(nil)

func (m *mockOrders) Insert(ctx context.Context, tx database.Tx, o *model.ProductOrder) error {
	o.ID = 101
	m.inserted = true
	m.order = o
	return nil
}

func (m *mockOrders) ByID(ctx context.Context, id int64) (*model.ProductOrder, error) {
	return m.order, nil
}

func (m *mockOrders) LockByID(ctx context.Context, tx database.Tx, id int64) (*model.ProductOrder, error) {
	return m.order, nil
}

func (m *mockOrders) ListByReseller(ctx context.Context, resellerID int64) ([]model.ProductOrder, error) {
	return nil, nil
}

func (m *mockOrders) UpdateStatus(ctx context.Context, tx database.Tx, id int64,
	status model.OrderStatus, adminNote string) error {
	m.statusUpdates = append(m.statusUpdates, status)
	return nil
}

func (m *mockOrders) MarkCompleted(ctx context.Context, tx database.Tx, id int64,
	externalReference, externalMetadata, adminNote string) error {
	m.completedMeta = externalMetadata
	m.completedNote = adminNote
	return nil
}

func (m *mockOrders) SetNote(ctx context.Context, tx database.Tx, id int64, adminNote string) error {
	m.note = adminNote
	return nil
}

func (m *mockOrders) InsertPackageOrder(ctx context.Context, tx database.Tx, po *model.PackageOrder) error {
	return nil
}

func (m *mockOrders) PackageOrderByID(ctx context.Context, id int64) (*model.PackageOrder, error) {
	return m.pkg, nil
}

func (m *mockOrders) LockPackageOrder(ctx context.Context, tx database.Tx, id int64) (*model.PackageOrder, error) {
	return m.pkg, nil
}

func (m *mockOrders) UpdatePackageOrderStatus(ctx context.Context, tx database.Tx, id int64,
	status model.PackageOrderStatus, adminNote string) error {
	m.pkgStatusWrites = append(m.pkgStatusWrites, status)
	m.pkgNotes = append(m.pkgNotes, adminNote)
	return nil
}

type mockNotifier struct {
	completed  int
	onboarding int
	approved   int
}

func (m *mockNotifier) OrderCompleted(o model.ProductOrder, r model.Reseller) { m.completed++ }
func (m *mockNotifier) Onboarding(r model.Reseller, o model.PackageOrder, pw string) {
	m.onboarding++
}
func (m *mockNotifier) BalanceApproved(id int64, amount decimal.Decimal) { m.approved++ }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	db        *fakeBeginner
	resellers *mockResellers
	products  *mockProducts
	orders    *mockOrders
	ledger    *mockLedger
	stock     *mockStock
	provider  *mockProvider
	prov      *mockProv
	notifier  *mockNotifier
	svc       Service
}

func newFixture() *fixture {
	f := &fixture{
		db: &fakeBeginner{},
		resellers: &mockResellers{r: &model.Reseller{
			ID: 1, Status: model.ResellerActive, Balance: dec("100.00"),
		}},
		products: &mockProducts{p: &model.Product{
			ID: 7, Name: "Game Key", Price: dec("50.00"),
		}},
		orders:   &mockOrders{},
		ledger:   &mockLedger{balance: dec("100.00")},
		stock:    &mockStock{},
		provider: &mockProvider{},
		prov:     &mockProv{},
		notifier: &mockNotifier{},
	}
	f.svc = New(f.db, f.resellers, f.products, f.orders, f.ledger, f.stock,
		f.provider, f.prov, f.notifier)
	return f
}

func TestPlace_StockOrderDelivers(t *testing.T) {
	f := newFixture()
	f.stock.pool = []model.StockItem{
		{ID: 1, Content: "KEY-AAA"},
		{ID: 2, Content: "KEY-BBB"},
	}

	o, err := f.svc.Place(context.Background(), 1, 7, 2, "panel")
	require.NoError(t, err)
	require.Equal(t, model.OrderCompleted, o.Status)
	require.True(t, o.TotalAmount.Equal(dec("100.00")))
	require.Equal(t, "KEY-AAA\nKEY-BBB", o.ExternalMetadata)

	// The debit covers the full order and the reseller ends at zero.
	require.Len(t, f.ledger.debits, 1)
	require.True(t, f.ledger.balance.Equal(decimal.Zero))

	require.True(t, f.db.tx.committed)
	require.Equal(t, 1, f.notifier.completed)
}

func TestPlace_InsufficientBalance(t *testing.T) {
	f := newFixture()
	f.ledger.balance = dec("99.99")
	f.stock.pool = []model.StockItem{{ID: 1}, {ID: 2}}

	_, err := f.svc.Place(context.Background(), 1, 7, 2, "panel")
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.True(t, f.db.tx.rolledBack)
	require.False(t, f.orders.inserted)
	require.Zero(t, f.notifier.completed)
}

func TestPlace_InsufficientStockPreCheck(t *testing.T) {
	f := newFixture()
	f.stock.pool = []model.StockItem{{ID: 1}}

	_, err := f.svc.Place(context.Background(), 1, 7, 2, "panel")
	require.ErrorIs(t, err, ErrInsufficientStock)
	// Refused before any money moved: no transaction was even begun.
	require.Nil(t, f.db.tx)
	require.Empty(t, f.ledger.debits)
}

func TestPlace_ProviderDisabledHoldsOrderPending(t *testing.T) {
	f := newFixture()
	f.products.p.ProviderCode = "smmprov"
	f.products.p.ExternalID = "svc-400"
	f.provider.dispatchFn = func(ctx context.Context, req providerrepo.DispatchReq) (*providerrepo.DispatchResp, error) {
		return nil, providerrepo.ErrDisabled
	}

	o, err := f.svc.Place(context.Background(), 1, 7, 1, "panel")
	require.NoError(t, err)
	require.Equal(t, model.OrderPending, o.Status)
	require.Equal(t, "provider disabled, order held pending", f.orders.note)

	// The debit stands: the money is held against the pending order.
	require.Len(t, f.ledger.debits, 1)
	require.True(t, f.db.tx.committed)
	require.Zero(t, f.notifier.completed)
}

func TestPlace_ProviderSuccess(t *testing.T) {
	f := newFixture()
	f.products.p.ProviderCode = "smmprov"
	f.products.p.ExternalID = "svc-400"
	f.provider.dispatchFn = func(ctx context.Context, req providerrepo.DispatchReq) (*providerrepo.DispatchResp, error) {
		require.Equal(t, "svc-400", req.ExternalID)
		require.Equal(t, "order-101", req.Reference)
		return &providerrepo.DispatchResp{Reference: "prov-555", Metadata: "delivered"}, nil
	}

	o, err := f.svc.Place(context.Background(), 1, 7, 1, "panel")
	require.NoError(t, err)
	require.Equal(t, model.OrderCompleted, o.Status)
	require.Equal(t, "prov-555", o.ExternalReference)
	require.Equal(t, 1, f.notifier.completed)
}

func TestPlace_InactiveReseller(t *testing.T) {
	f := newFixture()
	f.resellers.r.Status = model.ResellerInactive

	_, err := f.svc.Place(context.Background(), 1, 7, 1, "panel")
	require.ErrorIs(t, err, ErrResellerInactive)
}

func TestPlace_InvalidQuantity(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Place(context.Background(), 1, 7, 0, "panel")
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPlaceThenCancel_BalanceRoundTrips(t *testing.T) {
	f := newFixture()
	f.stock.pool = []model.StockItem{{ID: 1, Content: "KEY-AAA"}}
	start := f.ledger.balance

	o, err := f.svc.Place(context.Background(), 1, 7, 1, "panel")
	require.NoError(t, err)
	require.True(t, f.ledger.balance.Equal(start.Sub(o.TotalAmount)))

	_, err = f.svc.SetStatus(context.Background(), 2, o.ID, model.OrderCancelled, "refund")
	require.NoError(t, err)

	// Place debits exactly the total and cancel credits exactly the total,
	// so the balance ends where it started.
	require.True(t, f.ledger.balance.Equal(start))
	require.Len(t, f.ledger.debits, 1)
	require.Len(t, f.ledger.credits, 1)
	require.True(t, f.ledger.debits[0].Equal(f.ledger.credits[0]))
}

func TestPlace_SecondIdenticalOrderFails(t *testing.T) {
	f := newFixture()
	f.products.p.Price = dec("100.00")
	f.stock.pool = []model.StockItem{{ID: 1, Content: "A"}, {ID: 2, Content: "B"}}

	// Balance covers exactly one of the two identical orders.
	_, err := f.svc.Place(context.Background(), 1, 7, 1, "panel")
	require.NoError(t, err)

	_, err = f.svc.Place(context.Background(), 1, 7, 1, "panel")
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Len(t, f.ledger.debits, 1)
	require.True(t, f.ledger.balance.Equal(decimal.Zero))
}

func TestSetStatus_CancelThenFailedReactivation(t *testing.T) {
	f := newFixture()
	f.ledger.balance = dec("10.00")
	f.orders.order = &model.ProductOrder{
		ID: 101, ResellerID: 1, Status: model.OrderCompleted, TotalAmount: dec("25.00"),
	}

	o, err := f.svc.SetStatus(context.Background(), 2, 101, model.OrderCancelled, "")
	require.NoError(t, err)
	require.Equal(t, model.OrderCancelled, o.Status)
	require.True(t, f.ledger.balance.Equal(dec("35.00")))

	// The reseller spends down to 5.00; re-activating the 25.00 order must
	// fail closed and leave it cancelled.
	f.ledger.balance = dec("5.00")
	_, err = f.svc.SetStatus(context.Background(), 2, 101, model.OrderCompleted, "")
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.True(t, f.db.tx.rolledBack)
	require.Equal(t, model.OrderCancelled, f.orders.order.Status)
	require.True(t, f.ledger.balance.Equal(dec("5.00")))
}

func TestSetStatus_CancelRefunds(t *testing.T) {
	f := newFixture()
	f.orders.order = &model.ProductOrder{
		ID: 101, ResellerID: 1, Status: model.OrderCompleted, TotalAmount: dec("40.00"),
	}

	o, err := f.svc.SetStatus(context.Background(), 2, 101, model.OrderCancelled, "refund")
	require.NoError(t, err)
	require.Equal(t, model.OrderCancelled, o.Status)
	require.Len(t, f.ledger.credits, 1)
	require.True(t, f.ledger.credits[0].Equal(dec("40.00")))
	require.Equal(t, []model.OrderStatus{model.OrderCancelled}, f.orders.statusUpdates)
}

func TestSetStatus_ReactivateFailsClosed(t *testing.T) {
	f := newFixture()
	f.ledger.balance = dec("10.00")
	f.orders.order = &model.ProductOrder{
		ID: 101, ResellerID: 1, Status: model.OrderCancelled, TotalAmount: dec("40.00"),
	}

	_, err := f.svc.SetStatus(context.Background(), 2, 101, model.OrderPending, "")
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.True(t, f.db.tx.rolledBack)
	require.Empty(t, f.orders.statusUpdates)
}

func TestSetStatus_SameStatusRejected(t *testing.T) {
	f := newFixture()
	f.orders.order = &model.ProductOrder{
		ID: 101, ResellerID: 1, Status: model.OrderPending, TotalAmount: dec("40.00"),
	}

	_, err := f.svc.SetStatus(context.Background(), 2, 101, model.OrderPending, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Empty(t, f.ledger.credits)
	require.Empty(t, f.ledger.debits)
}

func TestRedispatch_NotPending(t *testing.T) {
	f := newFixture()
	f.orders.order = &model.ProductOrder{ID: 101, ProductID: 7, Status: model.OrderCompleted}

	_, err := f.svc.Redispatch(context.Background(), 101)
	require.ErrorIs(t, err, ErrNotPending)
}

func TestRedispatch_DeliversStock(t *testing.T) {
	f := newFixture()
	f.orders.order = &model.ProductOrder{
		ID: 101, ProductID: 7, ResellerID: 1, Quantity: 1, Status: model.OrderPending,
	}
	f.stock.pool = []model.StockItem{{ID: 3, Content: "KEY-CCC"}}

	o, err := f.svc.Redispatch(context.Background(), 101)
	require.NoError(t, err)
	require.Equal(t, model.OrderCompleted, o.Status)
	require.Equal(t, "KEY-CCC", o.ExternalMetadata)
	require.True(t, f.db.tx.committed)
	require.Equal(t, 1, f.notifier.completed)
}

func TestRedispatch_ShortfallKeepsOrderPending(t *testing.T) {
	f := newFixture()
	f.orders.order = &model.ProductOrder{
		ID: 101, ProductID: 7, ResellerID: 1, Quantity: 2, Status: model.OrderPending,
	}
	f.stock.pool = []model.StockItem{{ID: 3}}

	_, err := f.svc.Redispatch(context.Background(), 101)
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.True(t, f.db.tx.rolledBack)
}

func TestSetPackageStatus_CompletedProvisionsOnce(t *testing.T) {
	f := newFixture()
	f.orders.pkg = &model.PackageOrder{ID: 3, Status: model.PackagePaid, Email: "ayse@example.com"}
	f.prov.result = &provisioning.Result{
		Reseller: &model.Reseller{ID: 77},
		Created:  true,
	}

	po, res, err := f.svc.SetPackageStatus(context.Background(), 2, 3, model.PackageCompleted, "")
	require.NoError(t, err)
	require.Equal(t, model.PackageCompleted, po.Status)
	require.Equal(t, 1, f.prov.calls)
	require.NotNil(t, res)
	require.True(t, res.Created)

	// An empty note gets an audit default naming the acting admin.
	require.Equal(t, []model.PackageOrderStatus{model.PackageCompleted}, f.orders.pkgStatusWrites)
	require.Contains(t, f.orders.pkgNotes[0], "admin #2")
	require.Equal(t, 1, f.notifier.onboarding)
}

func TestSetPackageStatus_TerminalStateRejected(t *testing.T) {
	f := newFixture()
	f.orders.pkg = &model.PackageOrder{ID: 3, Status: model.PackageCompleted}

	_, _, err := f.svc.SetPackageStatus(context.Background(), 2, 3, model.PackagePaid, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Zero(t, f.prov.calls)
	require.True(t, f.db.tx.rolledBack)
}

func TestSetPackageStatus_CancelSkipsProvisioning(t *testing.T) {
	f := newFixture()
	f.orders.pkg = &model.PackageOrder{ID: 3, Status: model.PackagePending}

	po, res, err := f.svc.SetPackageStatus(context.Background(), 2, 3, model.PackageCancelled, "spam")
	require.NoError(t, err)
	require.Equal(t, model.PackageCancelled, po.Status)
	require.Nil(t, res)
	require.Zero(t, f.prov.calls)
	require.Zero(t, f.notifier.onboarding)
}
