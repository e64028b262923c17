package catalog

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
	"github.com/sgaibor/tiendafacil-pos/internal/api"
	pkgerrors "github.com/sgaibor/tiendafacil-pos/pkg/errors"
	"github.com/sgaibor/tiendafacil-pos/pkg/types"
)

// Local is a selling location.
type Local struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// AvailableProduct is a read-only snapshot of a sellable item at a location.
// StockOnHand is the ceiling for cart quantities in this session; the client
// never mutates it.
type AvailableProduct struct {
	ProductID   int64           `json:"productoId"`
	LocalID     int64           `json:"localId"`
	Name        string          `json:"productoNombre"`
	Code        string          `json:"productoCodigo"`
	UnitPrice   decimal.Decimal `json:"precioVenta"`
	StockOnHand int             `json:"stockActual"`
}

// Service is the inventory-lookup collaborator: locations plus server-side
// paged product search per location. Search is always remote; no client-side
// substring filtering over a prefetched list.
type Service struct {
	api *api.Client
}

// NewService wires the catalog client.
func NewService(client *api.Client) (*Service, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "api client required")
	}
	return &Service{api: client}, nil
}

// Locales lists every selling location.
func (s *Service) Locales(ctx context.Context) ([]Local, error) {
	var locales []Local
	if err := s.api.Get(ctx, "/locales", &locales); err != nil {
		return nil, err
	}
	return locales, nil
}

// SearchByLocal runs the paged free-text product search for a location.
func (s *Service) SearchByLocal(ctx context.Context, localID int64, query string, page int) (*types.Page[AvailableProduct], error) {
	if localID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "local id required")
	}
	if page < 0 {
		page = 0
	}
	path := fmt.Sprintf("/inventario/local/%d/buscar?q=%s&page=%d", localID, url.QueryEscape(query), page)

	var result types.Page[AvailableProduct]
	if err := s.api.Get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ByLocal fetches the full (unpaged) stock listing for a location.
func (s *Service) ByLocal(ctx context.Context, localID int64) ([]AvailableProduct, error) {
	if localID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "local id required")
	}
	var products []AvailableProduct
	if err := s.api.Get(ctx, fmt.Sprintf("/inventario/local/%d", localID), &products); err != nil {
		return nil, err
	}
	return products, nil
}
