// Package tiendanube is the REST client for the TiendaNube platform: OAuth
// code exchange, store info, orders and webhook management.
package tiendanube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultAuthBaseURL = "https://www.tiendanube.com"
	defaultAPIBaseURL  = "https://api.tiendanube.com/v1"

	userAgent = "FacturacionARCA (facturacion@arca.com)"
)

// APIError is returned when the platform answers with a non-success status.
// Callers treat it as an external-service failure: logged, surfaced, and in
// listing paths degraded to partial data.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tiendanube API error: status %d: %s", e.StatusCode, e.Body)
}

// HTTPClient abstracts the HTTP transport for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the app credentials registered with TiendaNube.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthBaseURL  string // override for tests
	APIBaseURL   string // override for tests
}

// Client talks to the TiendaNube API on behalf of connected stores.
type Client struct {
	cfg        Config
	httpClient HTTPClient
	log        *slog.Logger
}

// NewClient creates a platform client.
func NewClient(cfg Config, httpClient HTTPClient, log *slog.Logger) *Client {
	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = defaultAuthBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	return &Client{cfg: cfg, httpClient: httpClient, log: log}
}

// TokenResponse is the OAuth token-exchange answer. user_id doubles as the
// store identifier.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	UserID      int64  `json:"user_id"`
}

// StoreID returns the store identifier as a string.
func (t TokenResponse) StoreID() string {
	return strconv.FormatInt(t.UserID, 10)
}

// StoreInfo is the connected shop's public data. The name comes localized.
type StoreInfo struct {
	Name         map[string]string `json:"name"`
	URL          string            `json:"url_with_protocol"`
	Email        string            `json:"email"`
	ContactName  string            `json:"contact_name"`
	ContactEmail string            `json:"contact_email"`
}

// LocalName returns the Spanish store name, falling back to any locale.
func (s StoreInfo) LocalName() string {
	if name := s.Name["es"]; name != "" {
		return name
	}
	for _, name := range s.Name {
		if name != "" {
			return name
		}
	}
	return ""
}

// OrderCustomer is the customer object embedded in an order payload.
type OrderCustomer struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Identification string `json:"identification"`
}

// OrderProduct is one product line of an order. Quantity and price arrive as
// strings on the wire.
type OrderProduct struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	Price     string `json:"price"`
}

// Order is the platform order payload, limited to the fields invoicing needs.
type Order struct {
	ID                    int64          `json:"id"`
	Number                int64          `json:"number"`
	Status                string         `json:"status"`
	PaymentStatus         string         `json:"payment_status"`
	Total                 string         `json:"total"`
	Subtotal              string         `json:"subtotal"`
	Currency              string         `json:"currency"`
	CreatedAt             string         `json:"created_at"`
	BillingName           string         `json:"billing_name"`
	BillingAddress        string         `json:"billing_address"`
	BillingCustomerType   string         `json:"billing_customer_type"`
	BillingDocumentType   string         `json:"billing_document_type"`
	ContactName           string         `json:"contact_name"`
	ContactEmail          string         `json:"contact_email"`
	ContactPhone          string         `json:"contact_phone"`
	ContactIdentification string         `json:"contact_identification"`
	Customer              *OrderCustomer `json:"customer"`
	Products              []OrderProduct `json:"products"`
}

// OrderIDString returns the order id as a string, the form used for tracking
// records and webhooks.
func (o Order) OrderIDString() string {
	return strconv.FormatInt(o.ID, 10)
}

// OrderQuery filters the order listing.
type OrderQuery struct {
	Status        string
	PaymentStatus string
	Page          int
	PerPage       int
}

// Webhook is a registered platform webhook.
type Webhook struct {
	ID    int64  `json:"id"`
	Event string `json:"event"`
	URL   string `json:"url"`
}

// AuthorizationURL builds the OAuth authorization URL the merchant must visit.
func (c *Client) AuthorizationURL(redirectURI string) string {
	return fmt.Sprintf("%s/apps/%s/authorize?redirect_uri=%s",
		c.cfg.AuthBaseURL, c.cfg.ClientID, url.QueryEscape(redirectURI))
}

// ExchangeCode trades an OAuth authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"grant_type":    {"authorization_code"},
		"code":          {code},
	}

	endpoint := c.cfg.AuthBaseURL + "/apps/authorize/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("unmarshal token response: %w", err)
	}
	if token.AccessToken == "" || token.UserID == 0 {
		return nil, fmt.Errorf("token response missing access_token or user_id")
	}

	return &token, nil
}

// GetStoreInfo fetches the connected shop's data.
func (c *Client) GetStoreInfo(ctx context.Context, storeID, accessToken string) (*StoreInfo, error) {
	body, err := c.get(ctx, accessToken, fmt.Sprintf("/%s/store", storeID))
	if err != nil {
		return nil, err
	}

	var info StoreInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("unmarshal store info: %w", err)
	}
	return &info, nil
}

// GetOrders lists the store's orders. A 404 from the platform means the store
// has no orders yet and yields an empty slice.
func (c *Client) GetOrders(ctx context.Context, storeID, accessToken string, query OrderQuery) ([]Order, error) {
	params := url.Values{}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}
	if query.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(query.PerPage))
	}
	if query.Status != "" {
		params.Set("status", query.Status)
	}
	if query.PaymentStatus != "" {
		params.Set("payment_status", query.PaymentStatus)
	}

	path := fmt.Sprintf("/%s/orders", storeID)
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	body, err := c.get(ctx, accessToken, path)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			c.log.Debug("store has no orders", "store_id", storeID)
			return []Order{}, nil
		}
		return nil, err
	}

	var orders []Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("unmarshal orders: %w", err)
	}
	return orders, nil
}

// GetOrder fetches one order by platform ID.
func (c *Client) GetOrder(ctx context.Context, storeID, accessToken, orderID string) (*Order, error) {
	body, err := c.get(ctx, accessToken, fmt.Sprintf("/%s/orders/%s", storeID, orderID))
	if err != nil {
		return nil, err
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &order, nil
}

// RegisterWebhook subscribes the given callback URL to a platform event.
func (c *Client) RegisterWebhook(ctx context.Context, storeID, accessToken, event, callbackURL string) (*Webhook, error) {
	payload := map[string]string{
		"event": event,
		"url":   callbackURL,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal webhook request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/webhooks", c.cfg.APIBaseURL, storeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setAuthHeaders(req, accessToken)

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}

	var webhook Webhook
	if err := json.Unmarshal(body, &webhook); err != nil {
		return nil, fmt.Errorf("unmarshal webhook: %w", err)
	}
	return &webhook, nil
}

// GetWebhooks lists the webhooks registered for the store.
func (c *Client) GetWebhooks(ctx context.Context, storeID, accessToken string) ([]Webhook, error) {
	body, err := c.get(ctx, accessToken, fmt.Sprintf("/%s/webhooks", storeID))
	if err != nil {
		return nil, err
	}

	var webhooks []Webhook
	if err := json.Unmarshal(body, &webhooks); err != nil {
		return nil, fmt.Errorf("unmarshal webhooks: %w", err)
	}
	return webhooks, nil
}

// DeleteWebhook removes a registered webhook.
func (c *Client) DeleteWebhook(ctx context.Context, storeID, accessToken string, webhookID int64) error {
	endpoint := fmt.Sprintf("%s/%s/webhooks/%d", c.cfg.APIBaseURL, storeID, webhookID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setAuthHeaders(req, accessToken)

	body, status, err := c.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return &APIError{StatusCode: status, Body: string(body)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, accessToken, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setAuthHeaders(req, accessToken)

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}
	return body, nil
}

// setAuthHeaders applies the platform's non-standard auth header. TiendaNube
// expects "Authentication" (not "Authorization") with a lowercase scheme.
func (c *Client) setAuthHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Authentication", "bearer "+accessToken)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("tiendanube request failed", "url", req.URL.String(), "error", err)
		return nil, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
