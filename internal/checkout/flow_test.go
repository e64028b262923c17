package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sgaibor/tiendafacil-pos/internal/cart"
	"github.com/sgaibor/tiendafacil-pos/internal/catalog"
	"github.com/sgaibor/tiendafacil-pos/internal/notify"
	"github.com/sgaibor/tiendafacil-pos/internal/sales"
	"github.com/sgaibor/tiendafacil-pos/pkg/enums"
	pkgerrors "github.com/sgaibor/tiendafacil-pos/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCreator struct {
	mu       sync.Mutex
	calls    int
	err      error
	block    chan struct{}
	lastSale sales.Sale
}

func (s *stubCreator) Create(_ context.Context, sale sales.Sale) (*sales.CreatedSale, error) {
	s.mu.Lock()
	s.calls++
	s.lastSale = sale
	block := s.block
	err := s.err
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return &sales.CreatedSale{ID: 99, TicketNumber: "V-000123"}, nil
}

func (s *stubCreator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubCreator) LastSale() sales.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSale
}

func testConfig() Config {
	return Config{
		TaxRate:                 decimal.RequireFromString("0.12"),
		SellerID:                1,
		DefaultCustomerName:     "Consumidor Final",
		DefaultCustomerDocument: "9999999999",
		SaleNotes:               "Venta desde POS",
	}
}

func newTestFlow(t *testing.T, creator SaleCreator) (*Flow, *cart.Store, *notify.Recorder) {
	t.Helper()
	recorder := &notify.Recorder{}
	store := cart.NewStore(recorder)
	flow, err := NewFlow(store, creator, recorder, nil, testConfig())
	require.NoError(t, err)
	flow.SelectLocal(4)
	return flow, store, recorder
}

func addProduct(t *testing.T, store *cart.Store, id int64, price string, stock int) {
	t.Helper()
	require.True(t, store.AddItem(context.Background(), catalog.AvailableProduct{
		ProductID:   id,
		Name:        "Producto",
		Code:        "P-001",
		UnitPrice:   decimal.RequireFromString(price),
		StockOnHand: stock,
	}))
}

func TestOpenRequiresNonEmptyCart(t *testing.T) {
	t.Parallel()

	flow, _, recorder := newTestFlow(t, &stubCreator{})

	assert.False(t, flow.Open(context.Background()))
	assert.Equal(t, StateClosed, flow.State())

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelWarning, last.Level)
}

func TestOpenInitializesDraftDefaults(t *testing.T) {
	t.Parallel()

	flow, store, _ := newTestFlow(t, &stubCreator{})
	addProduct(t, store, 1, "10", 5)

	require.True(t, flow.Open(context.Background()))
	assert.Equal(t, StateOpen, flow.State())

	draft := flow.Draft()
	assert.Equal(t, enums.PaymentMethodCash, draft.PaymentMethod)
	assert.Equal(t, "Consumidor Final", draft.CustomerName)
	assert.Equal(t, "9999999999", draft.CustomerDocument)
	assert.False(t, draft.TenderedEntered)
	assert.True(t, draft.ChangeDue.IsZero())
}

func TestCashInsufficiencyBlocksThenSucceeds(t *testing.T) {
	t.Parallel()

	creator := &stubCreator{}
	flow, store, recorder := newTestFlow(t, creator)
	addProduct(t, store, 1, "10", 5)
	require.True(t, flow.Open(context.Background()))

	// total is 11.2; tendering 10 leaves no change and blocks confirmation
	require.True(t, flow.SetCashTendered(decimal.RequireFromString("10")))
	assert.True(t, flow.Draft().ChangeDue.IsZero())
	assert.False(t, flow.CanConfirm())

	require.NoError(t, flow.Confirm(context.Background()))
	assert.Equal(t, 0, creator.Calls())
	assert.Equal(t, StateOpen, flow.State())
	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, "Efectivo Insuficiente", last.Title)

	require.True(t, flow.SetCashTendered(decimal.RequireFromString("20")))
	assert.True(t, flow.Draft().ChangeDue.Equal(decimal.RequireFromString("8.8")),
		"change %s", flow.Draft().ChangeDue)
	assert.True(t, flow.CanConfirm())

	require.NoError(t, flow.Confirm(context.Background()))
	assert.Equal(t, 1, creator.Calls())
	assert.Equal(t, StateClosed, flow.State())
	assert.True(t, store.IsEmpty())

	last, ok = recorder.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelSuccess, last.Level)
	assert.Contains(t, last.Message, "V-000123")
}

func TestConfirmBuildsSalePayload(t *testing.T) {
	t.Parallel()

	creator := &stubCreator{}
	flow, store, _ := newTestFlow(t, creator)
	addProduct(t, store, 1, "10", 5)
	addProduct(t, store, 1, "10", 5)
	require.True(t, flow.Open(context.Background()))
	require.True(t, flow.SetPaymentMethod(enums.PaymentMethodCard))

	require.NoError(t, flow.Confirm(context.Background()))

	sale := creator.LastSale()
	assert.Equal(t, int64(4), sale.LocalID)
	assert.Equal(t, int64(1), sale.SellerID)
	assert.Equal(t, enums.PaymentMethodCard, sale.PaymentMethod)
	assert.InDelta(t, 20, sale.Subtotal, 1e-9)
	assert.InDelta(t, 2.4, sale.Tax, 1e-9)
	assert.InDelta(t, 22.4, sale.Total, 1e-9)
	assert.Zero(t, sale.Discount)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, 2, sale.Items[0].Quantity)
	assert.Zero(t, sale.Items[0].Discount)
	assert.InDelta(t, 20, sale.Items[0].Total, 1e-9)
}

func TestFailedSubmissionKeepsCartAndDraft(t *testing.T) {
	t.Parallel()

	creator := &stubCreator{err: pkgerrors.New(pkgerrors.CodeConflict, "stock insuficiente")}
	flow, store, recorder := newTestFlow(t, creator)
	addProduct(t, store, 1, "10", 5)
	require.True(t, flow.Open(context.Background()))
	require.True(t, flow.SetCashTendered(decimal.RequireFromString("50")))

	err := flow.Confirm(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, creator.Calls())
	assert.Equal(t, StateOpen, flow.State())
	assert.Len(t, store.Lines(), 1, "cart must be preserved for retry")
	assert.True(t, flow.Draft().CashTendered.Equal(decimal.RequireFromString("50")))

	last, ok := recorder.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, last.Level)
	assert.Equal(t, "stock insuficiente", last.Message)

	// the latch is released, so a retry reaches the backend again
	creator.mu.Lock()
	creator.err = nil
	creator.mu.Unlock()
	require.NoError(t, flow.Confirm(context.Background()))
	assert.Equal(t, 2, creator.Calls())
	assert.Equal(t, StateClosed, flow.State())
}

func TestDuplicateConfirmSubmitsOnce(t *testing.T) {
	t.Parallel()

	creator := &stubCreator{block: make(chan struct{})}
	flow, store, _ := newTestFlow(t, creator)
	addProduct(t, store, 1, "10", 5)
	require.True(t, flow.Open(context.Background()))
	require.True(t, flow.SetCashTendered(decimal.RequireFromString("20")))

	done := make(chan error, 1)
	go func() { done <- flow.Confirm(context.Background()) }()

	require.Eventually(t, func() bool { return creator.Calls() == 1 },
		time.Second, time.Millisecond, "first confirm should reach the backend")

	// second confirm lands while the first request is still in flight
	require.NoError(t, flow.Confirm(context.Background()))
	assert.Equal(t, 1, creator.Calls())

	close(creator.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, creator.Calls())
	assert.True(t, store.IsEmpty())
}

func TestCancelDiscardsDraft(t *testing.T) {
	t.Parallel()

	creator := &stubCreator{}
	flow, store, _ := newTestFlow(t, creator)
	addProduct(t, store, 1, "10", 5)
	require.True(t, flow.Open(context.Background()))
	require.True(t, flow.SetCashTendered(decimal.RequireFromString("20")))

	assert.True(t, flow.Cancel())
	assert.Equal(t, StateClosed, flow.State())
	assert.Len(t, store.Lines(), 1, "cancel never touches the cart")
	assert.False(t, flow.Draft().TenderedEntered)

	assert.False(t, flow.Cancel(), "cancel from closed is a no-op")
}

func TestConfirmWhileClosedIsNoOp(t *testing.T) {
	t.Parallel()

	creator := &stubCreator{}
	flow, _, _ := newTestFlow(t, creator)

	require.NoError(t, flow.Confirm(context.Background()))
	assert.Equal(t, 0, creator.Calls())
}

func TestSelectLocalResetsEverything(t *testing.T) {
	t.Parallel()

	flow, store, _ := newTestFlow(t, &stubCreator{})
	addProduct(t, store, 1, "10", 5)
	require.True(t, flow.Open(context.Background()))

	flow.SelectLocal(9)
	assert.Equal(t, StateClosed, flow.State())
	assert.True(t, store.IsEmpty())
	assert.Equal(t, int64(9), flow.LocalID())
}

func TestNonCashMethodsSkipTenderCheck(t *testing.T) {
	t.Parallel()

	creator := &stubCreator{}
	flow, store, _ := newTestFlow(t, creator)
	addProduct(t, store, 1, "10", 5)
	require.True(t, flow.Open(context.Background()))
	require.True(t, flow.SetPaymentMethod(enums.PaymentMethodTransfer))

	assert.True(t, flow.CanConfirm())
	require.NoError(t, flow.Confirm(context.Background()))
	assert.Equal(t, 1, creator.Calls())
}
