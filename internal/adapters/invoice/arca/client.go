// Package arca talks to the ARCA (ex AFIP) electronic-invoicing web services
// through the Afip SDK REST gateway. Only two WSFE operations are consumed:
// FECompUltimoAutorizado and FECAESolicitar.
package arca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/damianpacheco/facturacion-arca/internal/core/invoice"
	"github.com/damianpacheco/facturacion-arca/internal/infrastructure/cache"
	ctxutil "github.com/damianpacheco/facturacion-arca/internal/infrastructure/context"
)

// HTTPClient abstracts the HTTP transport for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the gateway connection settings.
type Config struct {
	BaseURL     string
	AccessToken string
	CUIT        int64
	Environment string // "dev" or "prod"
	TokenTTL    time.Duration
}

// Client implements invoice.Authorizer against the SDK gateway.
type Client struct {
	cfg        Config
	httpClient HTTPClient
	log        *slog.Logger
	tokenCache *cache.TokenCache
}

// NewClient creates a new gateway client.
func NewClient(cfg Config, httpClient HTTPClient, log *slog.Logger) *Client {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		log:        log,
		tokenCache: cache.NewTokenCache(),
	}
}

// wsAuth is the WSFE session credential negotiated with the gateway. The
// gateway signs the WSAA login ticket on our behalf and hands back the
// token/sign pair the SOAP services expect.
type wsAuth struct {
	Token string `json:"token"`
	Sign  string `json:"sign"`
}

type authRequest struct {
	Environment string `json:"environment"`
	TaxID       int64  `json:"tax_id"`
	WSID        string `json:"wsid"`
}

type wsRequest struct {
	Environment string `json:"environment"`
	TaxID       int64  `json:"tax_id"`
	WS          string `json:"ws"`
	Auth        wsAuth `json:"auth"`
	Method      string `json:"method"`
	Params      any    `json:"params"`
}

// LastVoucherNumber queries FECompUltimoAutorizado for the last voucher number
// the authority has on record. Safe to retry.
func (c *Client) LastVoucherNumber(ctx context.Context, voucherType invoice.VoucherType, salesPoint int) (int64, error) {
	params := map[string]any{
		"PtoVta":   salesPoint,
		"CbteTipo": int(voucherType),
	}

	body, err := c.request(ctx, "FECompUltimoAutorizado", params)
	if err != nil {
		return 0, err
	}

	var result struct {
		CbteNro int64 `json:"CbteNro"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("unmarshal FECompUltimoAutorizado response: %w", err)
	}

	c.log.Debug("last authorized voucher",
		"tipo_comprobante", int(voucherType),
		"punto_venta", salesPoint,
		"numero", result.CbteNro,
	)
	return result.CbteNro, nil
}

// CreateVoucher submits a FECAESolicitar request. The operation is not
// idempotent on the authority side, so callers must attempt it at most once.
func (c *Client) CreateVoucher(ctx context.Context, req invoice.VoucherRequest) (*invoice.Authorization, error) {
	body, err := c.request(ctx, "FECAESolicitar", req)
	if err != nil {
		return nil, err
	}

	var result struct {
		CAE           string `json:"CAE"`
		CAEFchVto     string `json:"CAEFchVto"`
		CbteDesde     int64  `json:"CbteDesde"`
		Resultado     string `json:"Resultado"`
		Observaciones []struct {
			Code int    `json:"Code"`
			Msg  string `json:"Msg"`
		} `json:"Observaciones"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal FECAESolicitar response: %w", err)
	}

	for _, obs := range result.Observaciones {
		c.log.Warn("voucher observation from ARCA", "code", obs.Code, "message", obs.Msg)
	}

	auth := &invoice.Authorization{
		CAE:    result.CAE,
		Number: result.CbteDesde,
		Result: result.Resultado,
	}
	if result.CAEFchVto != "" {
		expiry, err := time.Parse("2006-01-02", result.CAEFchVto)
		if err != nil {
			return nil, fmt.Errorf("parse CAE expiry [%s]: %w", result.CAEFchVto, err)
		}
		auth.CAEExpiry = expiry
	}

	c.log.Info("voucher submitted to ARCA",
		"tipo_comprobante", req.CbteTipo,
		"punto_venta", req.PtoVta,
		"numero", auth.Number,
		"resultado", auth.Result,
	)
	return auth, nil
}

// request executes a WSFE method through the gateway, negotiating the session
// credential first if the cached one expired.
func (c *Client) request(ctx context.Context, method string, params any) ([]byte, error) {
	auth, err := c.authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate against gateway: %w", err)
	}

	payload := wsRequest{
		Environment: c.cfg.Environment,
		TaxID:       c.cfg.CUIT,
		WS:          "wsfe",
		Auth:        auth,
		Method:      method,
		Params:      params,
	}

	body, status, err := c.post(ctx, "/v1/afip/requests", payload)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		// Session credential may have been revoked early; drop it so the
		// next call renegotiates.
		c.tokenCache.Clear()
		return nil, fmt.Errorf("gateway rejected credentials for %s", method)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d for %s: %s", status, method, string(body))
	}

	return body, nil
}

// authenticate returns a valid WSFE session credential, reusing the cached one
// when possible.
func (c *Client) authenticate(ctx context.Context) (wsAuth, error) {
	if cached, ok := c.tokenCache.Get(); ok {
		var auth wsAuth
		if err := json.Unmarshal([]byte(cached), &auth); err == nil {
			return auth, nil
		}
		c.tokenCache.Clear()
	}

	payload := authRequest{
		Environment: c.cfg.Environment,
		TaxID:       c.cfg.CUIT,
		WSID:        "wsfe",
	}

	body, status, err := c.post(ctx, "/v1/afip/auth", payload)
	if err != nil {
		return wsAuth{}, err
	}
	if status != http.StatusOK {
		return wsAuth{}, fmt.Errorf("auth endpoint returned status %d: %s", status, string(body))
	}

	var auth wsAuth
	if err := json.Unmarshal(body, &auth); err != nil {
		return wsAuth{}, fmt.Errorf("unmarshal auth response: %w", err)
	}
	if auth.Token == "" || auth.Sign == "" {
		return wsAuth{}, fmt.Errorf("auth response missing token or sign")
	}

	if raw, err := json.Marshal(auth); err == nil {
		c.tokenCache.Set(string(raw), c.cfg.TokenTTL)
	}

	return auth, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, int, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	url := c.cfg.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}
	if correlationID := ctxutil.GetCorrelationID(ctx); correlationID != "" {
		req.Header.Set("X-Correlation-Id", correlationID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("gateway request failed", "url", url, "error", err)
		return nil, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}
