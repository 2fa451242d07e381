package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	analyticsai "github.com/damianpacheco/facturacion-arca/internal/adapters/analytics/openai"
	analyticspg "github.com/damianpacheco/facturacion-arca/internal/adapters/analytics/postgres"
	customerpg "github.com/damianpacheco/facturacion-arca/internal/adapters/customer/postgres"
	"github.com/damianpacheco/facturacion-arca/internal/adapters/document"
	analyticshttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/analytics"
	arcahttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/arca"
	customerhttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/customer"
	healthhttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/health"
	invoicehttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/invoice"
	orderhttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/order"
	tiendanubehttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/tiendanube"
	webhookhttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/webhook"
	"github.com/damianpacheco/facturacion-arca/internal/adapters/invoice/arca"
	invoicepg "github.com/damianpacheco/facturacion-arca/internal/adapters/invoice/postgres"
	orderpg "github.com/damianpacheco/facturacion-arca/internal/adapters/order/postgres"
	"github.com/damianpacheco/facturacion-arca/internal/adapters/tiendanube"
	appanalytics "github.com/damianpacheco/facturacion-arca/internal/application/analytics"
	appcustomer "github.com/damianpacheco/facturacion-arca/internal/application/customer"
	apphealth "github.com/damianpacheco/facturacion-arca/internal/application/health"
	appinvoice "github.com/damianpacheco/facturacion-arca/internal/application/invoice"
	apporder "github.com/damianpacheco/facturacion-arca/internal/application/order"
	"github.com/damianpacheco/facturacion-arca/internal/infrastructure/config"
	"github.com/damianpacheco/facturacion-arca/internal/infrastructure/database"
	"github.com/damianpacheco/facturacion-arca/internal/infrastructure/http/middleware"
	"github.com/damianpacheco/facturacion-arca/internal/infrastructure/http/server"
	"github.com/damianpacheco/facturacion-arca/internal/infrastructure/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Database,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	log.Info("Database connection established", "database", cfg.Database.Database)

	if err := database.RunMigrations(ctx, pool, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Outbound clients.
	arcaClient := arca.NewClient(arca.Config{
		BaseURL:     cfg.ARCA.BaseURL,
		AccessToken: cfg.ARCA.AccessToken,
		CUIT:        cfg.ARCA.CUIT,
		Environment: cfg.ARCA.Environment(),
		TokenTTL:    cfg.ARCA.TokenTTL,
	}, &http.Client{Timeout: cfg.ARCA.APITimeout}, log)

	tnClient := tiendanube.NewClient(tiendanube.Config{
		ClientID:     cfg.TiendaNube.ClientID,
		ClientSecret: cfg.TiendaNube.ClientSecret,
	}, &http.Client{Timeout: cfg.TiendaNube.APITimeout}, log)

	// Repositories.
	customerRepo := customerpg.NewRepository(pool)
	invoiceRepo := invoicepg.NewRepository(pool)
	storeRepo := orderpg.NewStoreRepository(pool)
	recordRepo := orderpg.NewRecordRepository(pool)
	statsRepo := analyticspg.NewRepository(pool)

	// Application services.
	customerSvc := appcustomer.NewService(customerRepo, invoiceRepo, log)
	invoiceSvc := appinvoice.NewService(invoiceRepo, customerRepo, arcaClient, cfg.ARCA.SalesPoint, log)
	orderSvc := apporder.NewService(storeRepo, recordRepo, customerRepo, invoiceRepo, invoiceSvc, tnClient, apporder.Config{
		RedirectURI:        cfg.TiendaNube.RedirectURI,
		WebhookURL:         cfg.TiendaNube.WebhookURL,
		DefaultAutoInvoice: cfg.TiendaNube.AutoInvoice,
		DefaultVoucherType: cfg.TiendaNube.DefaultVoucherType,
	}, log)
	var assistant appanalytics.Assistant
	if cfg.AI.Enabled() {
		assistant = analyticsai.NewClient(analyticsai.Config{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.APITimeout,
		}, log)
	} else {
		log.Warn("AI assistant disabled: AI_API_KEY is not set")
	}
	analyticsSvc := appanalytics.NewService(statsRepo, assistant, log)
	healthSvc := apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}, pool)

	queue := apporder.NewQueue(orderSvc, log)
	queue.Start(ctx)
	defer queue.Stop()

	renderer := document.NewRenderer(document.Issuer{
		LegalName:       cfg.Emitter.LegalName,
		Address:         cfg.Emitter.Address,
		TaxCategory:     cfg.Emitter.TaxCategory,
		GrossIncomeID:   cfg.Emitter.GrossIncomeID,
		ActivitiesStart: cfg.Emitter.ActivitiesStart,
		CUIT:            cfg.ARCA.CUIT,
	})

	auth, err := middleware.NewJWTAuthenticator(cfg.Auth, log)
	if err != nil {
		return fmt.Errorf("init authenticator: %w", err)
	}
	defer auth.Close()

	srv, err := server.New(server.Options{
		HTTP:   cfg.HTTP,
		Logger: log,
		Auth:   auth,
		Handlers: server.Handlers{
			Health:     healthhttp.NewHandler(healthSvc),
			Customers:  customerhttp.NewHandler(customerSvc, log),
			Invoices:   invoicehttp.NewHandler(invoiceSvc, renderer, log),
			ARCA:       arcahttp.NewHandler(invoiceSvc, cfg.ARCA, log),
			TiendaNube: tiendanubehttp.NewHandler(orderSvc, log),
			Orders:     orderhttp.NewHandler(orderSvc, log),
			Webhooks:   webhookhttp.NewHandler(queue, log),
			AI:         analyticshttp.NewHandler(analyticsSvc, log),
		},
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	log.Info("Starting HTTP server", "port", cfg.HTTP.Port, "arca_env", cfg.ARCA.Environment())
	return srv.Run(ctx)
}
