package sales

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sgaibor/tiendafacil-pos/internal/api"
	"github.com/sgaibor/tiendafacil-pos/pkg/enums"
	pkgerrors "github.com/sgaibor/tiendafacil-pos/pkg/errors"
	"github.com/sgaibor/tiendafacil-pos/pkg/types"
)

// SaleItem is one sold line on the wire.
type SaleItem struct {
	ProductID   int64   `json:"productoId" validate:"required,gt=0"`
	ProductName string  `json:"productoNombre,omitempty"`
	ProductCode string  `json:"productoCodigo,omitempty"`
	Quantity    int     `json:"cantidad" validate:"required,gt=0"`
	UnitPrice   float64 `json:"precioUnitario" validate:"gte=0"`
	Subtotal    float64 `json:"subtotal" validate:"gte=0"`
	Discount    float64 `json:"descuento" validate:"gte=0"`
	Total       float64 `json:"total" validate:"gte=0"`
}

// Sale is the create-sale payload the backend accepts. The ticket number is
// assigned server-side, never here.
type Sale struct {
	LocalID          int64               `json:"localId" validate:"required,gt=0"`
	SellerID         int64               `json:"vendedorId" validate:"required,gt=0"`
	CustomerName     string              `json:"clienteNombre" validate:"required"`
	CustomerDocument string              `json:"clienteDocumento" validate:"required"`
	Subtotal         float64             `json:"subtotal" validate:"gte=0"`
	Tax              float64             `json:"impuesto" validate:"gte=0"`
	Discount         float64             `json:"descuento" validate:"gte=0"`
	Total            float64             `json:"total" validate:"gte=0"`
	PaymentMethod    enums.PaymentMethod `json:"metodoPago" validate:"required"`
	Notes            string              `json:"observaciones,omitempty"`
	Items            []SaleItem          `json:"items" validate:"required,min=1,dive"`
}

// CreatedSale is the backend's acknowledgement of a stored sale.
type CreatedSale struct {
	ID           int64  `json:"id"`
	TicketNumber string `json:"numeroVenta"`
	Status       string `json:"estado,omitempty"`
}

// Summary is one row of the sale history listing.
type Summary struct {
	ID           int64   `json:"id"`
	TicketNumber string  `json:"numeroVenta"`
	Date         string  `json:"fecha"`
	Customer     string  `json:"cliente"`
	Total        float64 `json:"total"`
	Status       string  `json:"estado"`
}

// Service is the sale-creation collaborator client.
type Service struct {
	api      *api.Client
	validate *validator.Validate
}

// NewService wires the sales client.
func NewService(client *api.Client) (*Service, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "api client required")
	}
	return &Service{
		api:      client,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Create submits the sale and returns the server-assigned ticket. The
// payload is validated locally first so obviously broken sales never reach
// the wire.
func (s *Service) Create(ctx context.Context, sale Sale) (*CreatedSale, error) {
	if !sale.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("método de pago inválido: %s", sale.PaymentMethod))
	}
	if err := s.validate.Struct(sale); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "venta incompleta")
	}

	var created CreatedSale
	if err := s.api.Post(ctx, "/ventas", sale, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// History returns a page of past sales, newest first.
func (s *Service) History(ctx context.Context, page, size int) (*types.Page[Summary], error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 20
	}
	var result types.Page[Summary]
	if err := s.api.Get(ctx, fmt.Sprintf("/ventas?page=%d&size=%d", page, size), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
