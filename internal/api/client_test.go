package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sgaibor/tiendafacil-pos/pkg/config"
	pkgerrors "github.com/sgaibor/tiendafacil-pos/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticUser string

func (s staticUser) Username() string { return string(s) }

func newClient(t *testing.T, handler http.Handler, users UserSource) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(config.APIConfig{BaseURL: server.URL + "/api", Timeout: time.Second}, users, nil)
}

func writeEnvelope(w http.ResponseWriter, data any) {
	encoded, _ := json.Marshal(data)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    json.RawMessage(encoded),
	})
}

func TestGetDecodesEnvelopeData(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Get("/api/locales", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, []map[string]any{{"id": 1, "nombre": "Matriz"}})
	})
	client := newClient(t, router, staticUser("maria"))

	var locales []struct {
		ID   int64  `json:"id"`
		Name string `json:"nombre"`
	}
	require.NoError(t, client.Get(context.Background(), "/locales", &locales))
	require.Len(t, locales, 1)
	assert.Equal(t, "Matriz", locales[0].Name)
}

func TestRequestsCarryIdentityHeader(t *testing.T) {
	t.Parallel()

	var seen string
	router := chi.NewRouter()
	router.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-User")
		writeEnvelope(w, "pong")
	})

	client := newClient(t, router, staticUser("maria"))
	require.NoError(t, client.Get(context.Background(), "/ping", nil))
	assert.Equal(t, "maria", seen)
}

func TestSignedOutRequestsUseGuestMarker(t *testing.T) {
	t.Parallel()

	var seen string
	router := chi.NewRouter()
	router.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-User")
		writeEnvelope(w, "pong")
	})

	client := newClient(t, router, staticUser(""))
	require.NoError(t, client.Get(context.Background(), "/ping", nil))
	assert.Equal(t, GuestUser, seen)
}

func TestMutatingRequestsCarryIdempotencyKey(t *testing.T) {
	t.Parallel()

	keys := map[string]struct{}{}
	router := chi.NewRouter()
	router.Post("/api/ventas", func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("Idempotency-Key")
		if _, err := uuid.Parse(key); err != nil {
			http.Error(w, "bad key", http.StatusBadRequest)
			return
		}
		keys[key] = struct{}{}
		writeEnvelope(w, map[string]any{"id": 1})
	})
	client := newClient(t, router, staticUser("maria"))

	for i := 0; i < 2; i++ {
		require.NoError(t, client.Post(context.Background(), "/ventas", map[string]any{}, nil))
	}
	assert.Len(t, keys, 2, "each submission gets a fresh key")
}

func TestNotFoundMapsToNoData(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Get("/api/reportes/ventas", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "sin ventas en el rango",
		})
	})
	client := newClient(t, router, nil)

	_, err := client.GetRaw(context.Background(), "/reportes/ventas")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNoData(err))
	assert.Equal(t, "sin ventas en el rango", pkgerrors.As(err).Message())
}

func TestConflictKeepsServerMessage(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Post("/api/ventas", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "stock insuficiente",
		})
	})
	client := newClient(t, router, nil)

	err := client.Post(context.Background(), "/ventas", map[string]any{}, nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, "stock insuficiente", typed.Message())
}

func TestFailedEnvelopeIsAnError(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Get("/api/locales", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "backend unhappy",
		})
	})
	client := newClient(t, router, nil)

	var out []any
	err := client.Get(context.Background(), "/locales", &out)
	require.Error(t, err)
	assert.Equal(t, "backend unhappy", pkgerrors.As(err).Message())
}

func TestTransportFailureMapsToTransportCode(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	client := New(config.APIConfig{BaseURL: server.URL + "/api", Timeout: time.Second}, nil, nil)
	server.Close()

	err := client.Get(context.Background(), "/locales", nil)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeTransport, typed.Code())
}
