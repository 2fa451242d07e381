package order

import (
	"context"

	"github.com/damianpacheco/facturacion-arca/internal/adapters/tiendanube"
)

// PlatformClient is the e-commerce platform capability the service consumes.
// *tiendanube.Client is the production implementation.
type PlatformClient interface {
	AuthorizationURL(redirectURI string) string
	ExchangeCode(ctx context.Context, code string) (*tiendanube.TokenResponse, error)
	GetStoreInfo(ctx context.Context, storeID, accessToken string) (*tiendanube.StoreInfo, error)
	GetOrders(ctx context.Context, storeID, accessToken string, query tiendanube.OrderQuery) ([]tiendanube.Order, error)
	GetOrder(ctx context.Context, storeID, accessToken, orderID string) (*tiendanube.Order, error)
	RegisterWebhook(ctx context.Context, storeID, accessToken, event, callbackURL string) (*tiendanube.Webhook, error)
	GetWebhooks(ctx context.Context, storeID, accessToken string) ([]tiendanube.Webhook, error)
	DeleteWebhook(ctx context.Context, storeID, accessToken string, webhookID int64) error
}
