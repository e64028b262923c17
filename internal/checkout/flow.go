package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sgaibor/tiendafacil-pos/internal/cart"
	"github.com/sgaibor/tiendafacil-pos/internal/notify"
	"github.com/sgaibor/tiendafacil-pos/internal/sales"
	"github.com/sgaibor/tiendafacil-pos/pkg/enums"
	pkgerrors "github.com/sgaibor/tiendafacil-pos/pkg/errors"
	"github.com/sgaibor/tiendafacil-pos/pkg/guard"
	"github.com/sgaibor/tiendafacil-pos/pkg/metrics"
)

// State is the checkout flow's position.
type State string

const (
	StateClosed     State = "closed"
	StateOpen       State = "open"
	StateSubmitting State = "submitting"
)

// Draft is the transient payment being collected while the flow is open.
// CashTendered and ChangeDue only matter for cash sales; they are kept but
// ignored for other methods.
type Draft struct {
	PaymentMethod    enums.PaymentMethod
	CustomerName     string
	CustomerDocument string
	CashTendered     decimal.Decimal
	TenderedEntered  bool
	ChangeDue        decimal.Decimal
}

// SaleCreator issues the outbound create-sale call.
type SaleCreator interface {
	Create(ctx context.Context, sale sales.Sale) (*sales.CreatedSale, error)
}

// Config carries the fixed inputs of every sale built by the flow.
type Config struct {
	TaxRate                 decimal.Decimal
	SellerID                int64
	DefaultCustomerName     string
	DefaultCustomerDocument string
	SaleNotes               string
}

// Flow is the checkout state machine: Closed -> Open -> Submitting ->
// Closed on success, back to Open on failure with the draft retained. A
// single-permit latch makes Confirm re-entrancy safe; the latch is checked
// before any state inspection and released on every exit path.
type Flow struct {
	mu      sync.Mutex
	state   State
	draft   Draft
	localID int64

	cart     *cart.Store
	creator  SaleCreator
	notifier notify.Notifier
	metrics  *metrics.SaleMetrics
	cfg      Config

	latch guard.Latch
}

// NewFlow wires the checkout dependencies.
func NewFlow(store *cart.Store, creator SaleCreator, notifier notify.Notifier, saleMetrics *metrics.SaleMetrics, cfg Config) (*Flow, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart store required")
	}
	if creator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sale creator required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier required")
	}
	if cfg.TaxRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "tax rate cannot be negative")
	}
	return &Flow{
		state:    StateClosed,
		cart:     store,
		creator:  creator,
		notifier: notifier,
		metrics:  saleMetrics,
		cfg:      cfg,
	}, nil
}

// SelectLocal switches the selling location. Pending cart and draft belong
// to the previous location and are discarded.
func (f *Flow) SelectLocal(localID int64) {
	f.mu.Lock()
	f.localID = localID
	f.state = StateClosed
	f.draft = Draft{}
	f.mu.Unlock()
	f.cart.Clear()
}

// LocalID returns the currently selected location.
func (f *Flow) LocalID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.localID
}

// Open starts a checkout for the current cart. Opening with an empty cart
// is rejected with a warning. The draft starts as a cash sale to the
// configured walk-in customer with no tendered amount.
func (f *Flow) Open(ctx context.Context) bool {
	if f.cart.IsEmpty() {
		notify.Warning(ctx, f.notifier, "Carrito Vacío", "Agregue productos antes de cobrar")
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateClosed {
		return false
	}
	f.state = StateOpen
	f.draft = Draft{
		PaymentMethod:    enums.PaymentMethodCash,
		CustomerName:     f.cfg.DefaultCustomerName,
		CustomerDocument: f.cfg.DefaultCustomerDocument,
		CashTendered:     decimal.Zero,
		ChangeDue:        decimal.Zero,
	}
	return true
}

// SetPaymentMethod updates the draft's payment method. Tendered cash and
// change are left as-is; they simply stop mattering for non-cash methods.
func (f *Flow) SetPaymentMethod(method enums.PaymentMethod) bool {
	if !method.IsValid() {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateOpen {
		return false
	}
	f.draft.PaymentMethod = method
	return true
}

// SetCustomer overrides the walk-in customer identity on the draft.
func (f *Flow) SetCustomer(name, document string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateOpen {
		return false
	}
	if name != "" {
		f.draft.CustomerName = name
	}
	if document != "" {
		f.draft.CustomerDocument = document
	}
	return true
}

// SetCashTendered records the cash handed over and recomputes change due as
// max(0, tendered - total). A tendered amount below the total leaves change
// at zero and keeps the draft unconfirmable.
func (f *Flow) SetCashTendered(amount decimal.Decimal) bool {
	total := f.cart.Totals(f.cfg.TaxRate).Total

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateOpen {
		return false
	}
	f.draft.CashTendered = amount
	f.draft.TenderedEntered = true
	if amount.GreaterThanOrEqual(total) {
		f.draft.ChangeDue = amount.Sub(total)
	} else {
		f.draft.ChangeDue = decimal.Zero
	}
	return true
}

// CanConfirm reports whether Confirm would pass local validation.
func (f *Flow) CanConfirm() bool {
	total := f.cart.Totals(f.cfg.TaxRate).Total

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateOpen {
		return false
	}
	if f.draft.PaymentMethod == enums.PaymentMethodCash {
		return f.draft.CashTendered.GreaterThanOrEqual(total)
	}
	return true
}

// Confirm submits the sale. The latch is taken before anything else so a
// second click landing before the first request settles is a silent no-op.
// Validation rejections notify and leave all state untouched. A failed
// submission returns the flow to Open with the draft intact so the operator
// can retry.
func (f *Flow) Confirm(ctx context.Context) error {
	if !f.latch.TryAcquire() {
		return nil
	}
	defer f.latch.Release()

	f.mu.Lock()
	if f.state != StateOpen {
		f.mu.Unlock()
		return nil
	}
	if f.localID <= 0 {
		f.mu.Unlock()
		notify.Error(ctx, f.notifier, "Error", "Seleccione un local antes de cobrar")
		return nil
	}

	lines := f.cart.Lines()
	if len(lines) == 0 {
		f.state = StateClosed
		f.draft = Draft{}
		f.mu.Unlock()
		notify.Warning(ctx, f.notifier, "Carrito Vacío", "No hay productos para cobrar")
		return nil
	}

	totals := cart.ComputeTotals(lines, f.cfg.TaxRate)
	if f.draft.PaymentMethod == enums.PaymentMethodCash && f.draft.CashTendered.LessThan(totals.Total) {
		f.mu.Unlock()
		notify.Warning(ctx, f.notifier, "Efectivo Insuficiente",
			fmt.Sprintf("El efectivo recibido no cubre el total de %s", totals.Total.StringFixed(2)))
		return nil
	}

	sale := f.buildSale(lines, totals)
	method := f.draft.PaymentMethod.String()
	f.state = StateSubmitting
	f.mu.Unlock()

	start := time.Now()
	created, err := f.creator.Create(ctx, sale)
	f.metrics.ObserveDuration(method, time.Since(start))

	f.mu.Lock()
	if err != nil {
		f.state = StateOpen
		f.mu.Unlock()
		f.metrics.IncFailure(method)
		notify.Error(ctx, f.notifier, "Error al Procesar", pkgerrors.PublicMessage(err))
		return err
	}
	f.state = StateClosed
	f.draft = Draft{}
	f.mu.Unlock()

	f.cart.Clear()
	f.metrics.IncSuccess(method)
	notify.Success(ctx, f.notifier, "Venta Exitosa", fmt.Sprintf("Ticket #%s", created.TicketNumber))
	return nil
}

// Cancel discards the draft and closes the flow. It only applies while the
// flow is open; an in-flight submission cannot be cancelled.
func (f *Flow) Cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateOpen {
		return false
	}
	f.state = StateClosed
	f.draft = Draft{}
	return true
}

// State returns the flow's current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns a copy of the in-progress payment draft.
func (f *Flow) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Totals recomputes order totals for the current cart.
func (f *Flow) Totals() cart.Totals {
	return f.cart.Totals(f.cfg.TaxRate)
}

func (f *Flow) buildSale(lines []cart.Line, totals cart.Totals) sales.Sale {
	items := make([]sales.SaleItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, sales.SaleItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			ProductCode: line.ProductCode,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.InexactFloat64(),
			Subtotal:    line.LineTotal.InexactFloat64(),
			Discount:    0,
			Total:       line.LineTotal.InexactFloat64(),
		})
	}
	return sales.Sale{
		LocalID:          f.localID,
		SellerID:         f.cfg.SellerID,
		CustomerName:     f.draft.CustomerName,
		CustomerDocument: f.draft.CustomerDocument,
		Subtotal:         totals.Subtotal.InexactFloat64(),
		Tax:              totals.Tax.InexactFloat64(),
		Discount:         0,
		Total:            totals.Total.InexactFloat64(),
		PaymentMethod:    f.draft.PaymentMethod,
		Notes:            f.cfg.SaleNotes,
		Items:            items,
	}
}
