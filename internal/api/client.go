package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sgaibor/tiendafacil-pos/pkg/config"
	pkgerrors "github.com/sgaibor/tiendafacil-pos/pkg/errors"
	"github.com/sgaibor/tiendafacil-pos/pkg/logger"
	"github.com/sgaibor/tiendafacil-pos/pkg/types"
)

// GuestUser stamps requests issued before anyone signs in.
const GuestUser = "guest"

// UserSource supplies the identity header for outgoing requests.
type UserSource interface {
	Username() string
}

// Client speaks the backend's enveloped JSON dialect. Every response is
// unwrapped from the {success, message, data} envelope and every non-2xx
// status is mapped onto the client error taxonomy, keeping the server's
// human-readable message when it sends one.
type Client struct {
	http    *http.Client
	baseURL string
	users   UserSource
	logg    *logger.Logger
}

// New builds a backend client from configuration.
func New(cfg config.APIConfig, users UserSource, logg *logger.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		users:   users,
		logg:    logg,
	}
}

// Get performs a GET request and decodes the envelope's data into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// GetRaw fetches a binary payload (report downloads) without envelope
// decoding.
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.statusError(resp.StatusCode, raw)
	}
	return raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request")
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if c.logg != nil {
			c.logg.Error(ctx, fmt.Sprintf("%s %s failed", method, path), err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}

	var envelope types.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "decode response")
	}
	if !envelope.Success {
		return pkgerrors.New(pkgerrors.CodeConflict, envelope.Message)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, "decode response data")
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", c.username())
	if method == http.MethodPost || method == http.MethodPut {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}
	return req, nil
}

func (c *Client) username() string {
	if c.users == nil {
		return GuestUser
	}
	if name := strings.TrimSpace(c.users.Username()); name != "" {
		return name
	}
	return GuestUser
}

func (c *Client) statusError(status int, raw []byte) error {
	message := ""
	var body types.ErrorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		message = body.Message
	}
	code := pkgerrors.CodeFromStatus(status)
	if message == "" {
		message = pkgerrors.MetadataFor(code).PublicMessage
	}
	return pkgerrors.New(code, message)
}
