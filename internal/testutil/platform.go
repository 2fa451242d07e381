package testutil

import (
	"context"

	"github.com/damianpacheco/facturacion-arca/internal/adapters/tiendanube"
)

// MockPlatform is a mock implementation of the e-commerce platform client.
type MockPlatform struct {
	AuthorizationURLFunc func(redirectURI string) string
	ExchangeCodeFunc     func(ctx context.Context, code string) (*tiendanube.TokenResponse, error)
	GetStoreInfoFunc     func(ctx context.Context, storeID, accessToken string) (*tiendanube.StoreInfo, error)
	GetOrdersFunc        func(ctx context.Context, storeID, accessToken string, query tiendanube.OrderQuery) ([]tiendanube.Order, error)
	GetOrderFunc         func(ctx context.Context, storeID, accessToken, orderID string) (*tiendanube.Order, error)
	RegisterWebhookFunc  func(ctx context.Context, storeID, accessToken, event, callbackURL string) (*tiendanube.Webhook, error)
	GetWebhooksFunc      func(ctx context.Context, storeID, accessToken string) ([]tiendanube.Webhook, error)
	DeleteWebhookFunc    func(ctx context.Context, storeID, accessToken string, webhookID int64) error

	RegisteredEvents []string
}

func (m *MockPlatform) AuthorizationURL(redirectURI string) string {
	if m.AuthorizationURLFunc != nil {
		return m.AuthorizationURLFunc(redirectURI)
	}
	return "https://www.tiendanube.com/apps/1/authorize?redirect_uri=" + redirectURI
}

func (m *MockPlatform) ExchangeCode(ctx context.Context, code string) (*tiendanube.TokenResponse, error) {
	if m.ExchangeCodeFunc != nil {
		return m.ExchangeCodeFunc(ctx, code)
	}
	return &tiendanube.TokenResponse{AccessToken: "test-token", UserID: 1}, nil
}

func (m *MockPlatform) GetStoreInfo(ctx context.Context, storeID, accessToken string) (*tiendanube.StoreInfo, error) {
	if m.GetStoreInfoFunc != nil {
		return m.GetStoreInfoFunc(ctx, storeID, accessToken)
	}
	return &tiendanube.StoreInfo{}, nil
}

func (m *MockPlatform) GetOrders(ctx context.Context, storeID, accessToken string, query tiendanube.OrderQuery) ([]tiendanube.Order, error) {
	if m.GetOrdersFunc != nil {
		return m.GetOrdersFunc(ctx, storeID, accessToken, query)
	}
	return []tiendanube.Order{}, nil
}

func (m *MockPlatform) GetOrder(ctx context.Context, storeID, accessToken, orderID string) (*tiendanube.Order, error) {
	if m.GetOrderFunc != nil {
		return m.GetOrderFunc(ctx, storeID, accessToken, orderID)
	}
	return &tiendanube.Order{}, nil
}

func (m *MockPlatform) RegisterWebhook(ctx context.Context, storeID, accessToken, event, callbackURL string) (*tiendanube.Webhook, error) {
	m.RegisteredEvents = append(m.RegisteredEvents, event)
	if m.RegisterWebhookFunc != nil {
		return m.RegisterWebhookFunc(ctx, storeID, accessToken, event, callbackURL)
	}
	return &tiendanube.Webhook{ID: int64(len(m.RegisteredEvents)), Event: event, URL: callbackURL}, nil
}

func (m *MockPlatform) GetWebhooks(ctx context.Context, storeID, accessToken string) ([]tiendanube.Webhook, error) {
	if m.GetWebhooksFunc != nil {
		return m.GetWebhooksFunc(ctx, storeID, accessToken)
	}
	return []tiendanube.Webhook{}, nil
}

func (m *MockPlatform) DeleteWebhook(ctx context.Context, storeID, accessToken string, webhookID int64) error {
	if m.DeleteWebhookFunc != nil {
		return m.DeleteWebhookFunc(ctx, storeID, accessToken, webhookID)
	}
	return nil
}
