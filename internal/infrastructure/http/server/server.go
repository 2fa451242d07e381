// Package server assembles the chi router and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	analyticshttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/analytics"
	arcahttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/arca"
	customerhttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/customer"
	healthhttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/health"
	invoicehttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/invoice"
	orderhttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/order"
	tiendanubehttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/tiendanube"
	webhookhttp "github.com/damianpacheco/facturacion-arca/internal/adapters/http/webhook"
	"github.com/damianpacheco/facturacion-arca/internal/infrastructure/config"
	"github.com/damianpacheco/facturacion-arca/internal/infrastructure/http/middleware"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Health     *healthhttp.Handler
	Customers  *customerhttp.Handler
	Invoices   *invoicehttp.Handler
	ARCA       *arcahttp.Handler
	TiendaNube *tiendanubehttp.Handler
	Orders     *orderhttp.Handler
	Webhooks   *webhookhttp.Handler
	AI         *analyticshttp.Handler
}

// Options carries the server dependencies.
type Options struct {
	HTTP     config.HTTPSettings
	Logger   *slog.Logger
	Auth     *middleware.JWTAuthenticator
	Handlers Handlers
}

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	log        *slog.Logger
	httpServer *http.Server
	cfg        config.HTTPSettings
}

// New builds the router and the HTTP server.
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(opts.Logger))
	if opts.Auth != nil {
		r.Use(opts.Auth.Middleware)
	}

	r.Get("/health", opts.Handlers.Health.Status)

	r.Route("/api", func(r chi.Router) {
		r.Route("/clientes", func(r chi.Router) {
			r.Get("/", opts.Handlers.Customers.List)
			r.Post("/", opts.Handlers.Customers.Create)
			r.Get("/{id}", opts.Handlers.Customers.Get)
			r.Put("/{id}", opts.Handlers.Customers.Update)
			r.Delete("/{id}", opts.Handlers.Customers.Delete)
		})

		r.Route("/facturas", func(r chi.Router) {
			r.Get("/", opts.Handlers.Invoices.List)
			r.Post("/", opts.Handlers.Invoices.Issue)
			r.Get("/{id}", opts.Handlers.Invoices.Get)
			r.Get("/{id}/pdf", opts.Handlers.Invoices.DownloadPDF)
		})

		r.Route("/arca", func(r chi.Router) {
			r.Get("/status", opts.Handlers.ARCA.Status)
			r.Get("/ultimo-comprobante", opts.Handlers.ARCA.LastVoucherNumber)
			r.Get("/tipos-comprobante", opts.Handlers.ARCA.VoucherTypes)
			r.Get("/tipos-documento", opts.Handlers.ARCA.DocumentTypes)
			r.Get("/alicuotas-iva", opts.Handlers.ARCA.VATAliquots)
			r.Get("/puntos-venta", opts.Handlers.ARCA.SalesPoints)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/chat", opts.Handlers.AI.Chat)
			r.Get("/stats", opts.Handlers.AI.Stats)
		})

		r.Route("/tiendanube", func(r chi.Router) {
			r.Get("/install", opts.Handlers.TiendaNube.Install)
			r.Get("/callback", opts.Handlers.TiendaNube.Callback)
			r.Get("/status", opts.Handlers.TiendaNube.Status)
			r.Put("/config", opts.Handlers.TiendaNube.UpdateConfig)
			r.Delete("/disconnect", opts.Handlers.TiendaNube.Disconnect)
		})

		r.Route("/ordenes", func(r chi.Router) {
			r.Get("/", opts.Handlers.Orders.List)
			r.Get("/{orderID}", opts.Handlers.Orders.Get)
			r.Post("/{orderID}/facturar", opts.Handlers.Orders.Invoice)
			r.Put("/{orderID}/cliente", opts.Handlers.Orders.SetOverride)
		})

		r.Post("/webhooks/tiendanube", opts.Handlers.Webhooks.Receive)
	})

	srv := &http.Server{
		Addr:         opts.HTTP.Address(),
		Handler:      r,
		ReadTimeout:  opts.HTTP.ReadTimeout,
		WriteTimeout: opts.HTTP.WriteTimeout,
		IdleTimeout:  opts.HTTP.IdleTimeout,
	}

	return &Server{log: opts.Logger, httpServer: srv, cfg: opts.HTTP}, nil
}

// Run starts the server and blocks until the context is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server started", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("HTTP server shutdown", "error", err)
			return err
		}
		s.log.Info("HTTP server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}
