package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sgaibor/tiendafacil-pos/internal/catalog"
	"github.com/sgaibor/tiendafacil-pos/internal/notify"
)

// Line is one product's quantity in the in-progress sale. Quantity stays
// within [1, stock known at mutation time]; a line that would drop below 1
// is removed instead.
type Line struct {
	ProductID   int64
	ProductName string
	ProductCode string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// Store holds the unique-by-product line collection for the sale being
// built. Mutations enforce the stock ceiling and surface rejections as
// notifications; rejected mutations leave the cart untouched.
type Store struct {
	mu       sync.Mutex
	lines    []Line
	notifier notify.Notifier
}

// NewStore builds an empty cart.
func NewStore(notifier notify.Notifier) *Store {
	return &Store{notifier: notifier}
}

// AddItem adds one unit of the product, or increments an existing line.
// Products without a configured sale price are rejected, as is any
// increment past the product's known stock. Returns whether the cart
// changed.
func (s *Store) AddItem(ctx context.Context, product catalog.AvailableProduct) bool {
	if product.UnitPrice.LessThanOrEqual(decimal.Zero) {
		notify.Error(ctx, s.notifier, "Error", "Producto sin precio de venta configurado")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID != product.ProductID {
			continue
		}
		if s.lines[i].Quantity >= product.StockOnHand {
			notify.Warning(ctx, s.notifier, "Stock Límite", "No hay más unidades disponibles")
			return false
		}
		s.lines[i].Quantity++
		s.lines[i].LineTotal = product.UnitPrice.Mul(decimal.NewFromInt(int64(s.lines[i].Quantity)))
		return true
	}

	s.lines = append(s.lines, Line{
		ProductID:   product.ProductID,
		ProductName: product.Name,
		ProductCode: product.Code,
		Quantity:    1,
		UnitPrice:   product.UnitPrice,
		LineTotal:   product.UnitPrice,
	})
	return true
}

// SetQuantity replaces a line's quantity, bounded by the product's known
// stock. Quantities below 1 are ignored; callers remove lines explicitly.
// A product without a line is a no-op.
func (s *Store) SetQuantity(ctx context.Context, product catalog.AvailableProduct, quantity int) bool {
	if quantity > product.StockOnHand {
		notify.Warning(ctx, s.notifier, "Stock Insuficiente",
			fmt.Sprintf("Solo quedan %d unidades", product.StockOnHand))
		return false
	}
	if quantity < 1 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID != product.ProductID {
			continue
		}
		s.lines[i].Quantity = quantity
		s.lines[i].LineTotal = s.lines[i].UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
		return true
	}
	return false
}

// RemoveItem deletes the product's line; removing an absent line is a no-op.
func (s *Store) RemoveItem(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// Lines returns a snapshot of the cart in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// Totals recomputes the order totals for the current lines.
func (s *Store) Totals(taxRate decimal.Decimal) Totals {
	return ComputeTotals(s.Lines(), taxRate)
}
