package reports

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sgaibor/tiendafacil-pos/internal/api"
	"github.com/sgaibor/tiendafacil-pos/internal/notify"
	pkgerrors "github.com/sgaibor/tiendafacil-pos/pkg/errors"
)

// Format selects the report rendering the backend produces.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatExcel Format = "excel"
)

// Service downloads backend-rendered reports. A 404 means "no rows matched
// the filter" on these endpoints and surfaces as an informational notice,
// not a failure.
type Service struct {
	api      *api.Client
	notifier notify.Notifier
}

// NewService wires the reports client.
func NewService(client *api.Client, notifier notify.Notifier) (*Service, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "api client required")
	}
	if notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier required")
	}
	return &Service{api: client, notifier: notifier}, nil
}

// DownloadSales fetches the sales report for an optional date range.
// Returns nil bytes without error when there is no data for the filter.
func (s *Service) DownloadSales(ctx context.Context, format Format, from, to string) ([]byte, error) {
	params := url.Values{}
	if from != "" {
		params.Set("fechaInicio", from)
	}
	if to != "" {
		params.Set("fechaFin", to)
	}
	params.Set("formato", string(format))
	return s.download(ctx, "/reportes/ventas?"+params.Encode())
}

// DownloadInventory fetches the stock report for a location.
func (s *Service) DownloadInventory(ctx context.Context, format Format, localID int64) ([]byte, error) {
	if localID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "local id required")
	}
	params := url.Values{}
	params.Set("localId", fmt.Sprintf("%d", localID))
	params.Set("formato", string(format))
	return s.download(ctx, "/reportes/inventario?"+params.Encode())
}

func (s *Service) download(ctx context.Context, path string) ([]byte, error) {
	raw, err := s.api.GetRaw(ctx, path)
	if err != nil {
		if pkgerrors.IsNoData(err) {
			notify.Info(ctx, s.notifier, "Sin Datos", "No hay información para el filtro seleccionado")
			return nil, nil
		}
		notify.Error(ctx, s.notifier, "Error", pkgerrors.PublicMessage(err))
		return nil, err
	}
	return raw, nil
}
