package inventory

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sgaibor/tiendafacil-pos/internal/api"
	"github.com/sgaibor/tiendafacil-pos/internal/notify"
	"github.com/sgaibor/tiendafacil-pos/pkg/enums"
	pkgerrors "github.com/sgaibor/tiendafacil-pos/pkg/errors"
	"github.com/sgaibor/tiendafacil-pos/pkg/guard"
)

// Movement is a stock adjustment submitted against a location.
type Movement struct {
	LocalID           int64              `json:"localId" validate:"required,gt=0"`
	ProductID         int64              `json:"productoId" validate:"required,gt=0"`
	Type              enums.MovementType `json:"tipoMovimiento" validate:"required"`
	Quantity          int                `json:"cantidad" validate:"required,gt=0"`
	UnitPrice         *float64           `json:"precioUnitario,omitempty"`
	Reason            string             `json:"motivo,omitempty"`
	ReferenceDocument string             `json:"numeroDocumento,omitempty"`
}

// Service submits stock movements and product assignments. Mutations share
// the single-permit submission latch so a double-tapped form posts once.
type Service struct {
	api      *api.Client
	notifier notify.Notifier
	validate *validator.Validate
	latch    guard.Latch
}

// NewService wires the inventory client.
func NewService(client *api.Client, notifier notify.Notifier) (*Service, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "api client required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier required")
	}
	return &Service{
		api:      client,
		notifier: notifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// RegisterMovement submits a stock movement. Exits are checked against the
// caller's known stock before touching the network; the backend stays the
// final authority on drift.
func (s *Service) RegisterMovement(ctx context.Context, movement Movement, knownStock int) error {
	if !s.latch.TryAcquire() {
		return nil
	}
	defer s.latch.Release()

	if !movement.Type.IsValid() {
		notify.Error(ctx, s.notifier, "Error", fmt.Sprintf("tipo de movimiento inválido: %s", movement.Type))
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type")
	}
	if movement.Type == enums.MovementTypeExit && movement.Quantity > knownStock {
		notify.Warning(ctx, s.notifier, "Stock Insuficiente",
			fmt.Sprintf("Solo hay %d unidades disponibles", knownStock))
		return pkgerrors.New(pkgerrors.CodeValidation, "exit exceeds known stock")
	}
	if err := s.validate.Struct(movement); err != nil {
		notify.Error(ctx, s.notifier, "Error", "Movimiento incompleto")
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "movimiento incompleto")
	}

	if err := s.api.Post(ctx, "/inventario/movimiento", movement, nil); err != nil {
		notify.Error(ctx, s.notifier, "Error", pkgerrors.PublicMessage(err))
		return err
	}
	notify.Success(ctx, s.notifier, "Movimiento Registrado",
		fmt.Sprintf("%s de %d unidades", movement.Type, movement.Quantity))
	return nil
}

// AssignProduct puts a product on a location's shelf with an initial stock.
func (s *Service) AssignProduct(ctx context.Context, localID, productID int64, initialStock int) error {
	if localID <= 0 || productID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "local and product required")
	}
	if initialStock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "initial stock cannot be negative")
	}

	payload := map[string]any{
		"localId":      localID,
		"productoId":   productID,
		"stockInicial": initialStock,
	}
	if err := s.api.Post(ctx, "/inventario/asignar", payload, nil); err != nil {
		notify.Error(ctx, s.notifier, "Error", pkgerrors.PublicMessage(err))
		return err
	}
	notify.Success(ctx, s.notifier, "Producto Asignado", "El producto quedó disponible en el local")
	return nil
}
