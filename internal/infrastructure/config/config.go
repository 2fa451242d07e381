package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App        AppSettings
	HTTP       HTTPSettings
	Auth       AuthSettings
	Log        LogSettings
	Database   DatabaseSettings
	ARCA       ARCASettings
	Emitter    EmitterSettings
	TiendaNube TiendaNubeSettings
	AI         AISettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ARCASettings configures access to the tax-authority SDK gateway.
type ARCASettings struct {
	BaseURL     string
	AccessToken string // gateway token for the testing environment
	CUIT        int64  // emitter CUIT the gateway authenticates as
	Production  bool
	SalesPoint  int
	APITimeout  time.Duration
	TokenTTL    time.Duration
}

// EmitterSettings carries the issuer data printed on documents.
type EmitterSettings struct {
	LegalName       string
	Address         string
	TaxCategory     string
	GrossIncomeID   string
	ActivitiesStart string
}

// TiendaNubeSettings configures the e-commerce platform integration.
type TiendaNubeSettings struct {
	ClientID           string
	ClientSecret       string
	RedirectURI        string
	WebhookURL         string
	APITimeout         time.Duration
	AutoInvoice        bool
	DefaultVoucherType int
}

// AISettings configures the sales-assistant chat backend. The assistant is
// optional; without an API key the endpoints answer with a not-configured
// message.
type AISettings struct {
	APIKey     string
	BaseURL    string
	Model      string
	APITimeout time.Duration
}

// Enabled reports whether the chat backend has credentials.
func (a AISettings) Enabled() bool {
	return a.APIKey != ""
}

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env values.
func Load() (AppConfig, error) {
	// Works both with .env files (local dev) and plain environment
	// variables (Docker, production).
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "facturacion-arca"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:   getEnvAsBool("AUTH_ENABLED", false),
			IssuerURI: strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI: strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew: getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{
				"/health",
				"/api/tiendanube/install",
				"/api/tiendanube/callback",
				"/api/webhooks/tiendanube",
			}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "facturacion"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		ARCA: ARCASettings{
			BaseURL:     strings.TrimSpace(getEnv("ARCA_BASE_URL", "https://app.afipsdk.com")),
			AccessToken: strings.TrimSpace(os.Getenv("ARCA_ACCESS_TOKEN")),
			CUIT:        getEnvAsInt64("ARCA_CUIT", 20409378472), // testing CUIT
			Production:  getEnvAsBool("ARCA_PRODUCTION", false),
			SalesPoint:  getEnvAsInt("ARCA_PUNTO_VENTA", 1),
			APITimeout:  getEnvAsDuration("ARCA_API_TIMEOUT", 60*time.Second),
			TokenTTL:    getEnvAsDuration("ARCA_TOKEN_TTL", 1*time.Hour),
		},
		Emitter: EmitterSettings{
			LegalName:       strings.TrimSpace(os.Getenv("EMISOR_RAZON_SOCIAL")),
			Address:         strings.TrimSpace(os.Getenv("EMISOR_DOMICILIO")),
			TaxCategory:     getEnv("EMISOR_CONDICION_IVA", "Responsable Inscripto"),
			GrossIncomeID:   strings.TrimSpace(os.Getenv("EMISOR_INGRESOS_BRUTOS")),
			ActivitiesStart: strings.TrimSpace(os.Getenv("EMISOR_INICIO_ACTIVIDADES")),
		},
		TiendaNube: TiendaNubeSettings{
			ClientID:           strings.TrimSpace(os.Getenv("TN_CLIENT_ID")),
			ClientSecret:       strings.TrimSpace(os.Getenv("TN_CLIENT_SECRET")),
			RedirectURI:        strings.TrimSpace(os.Getenv("TN_REDIRECT_URI")),
			WebhookURL:         strings.TrimSpace(os.Getenv("TN_WEBHOOK_URL")),
			APITimeout:         getEnvAsDuration("TN_API_TIMEOUT", 30*time.Second),
			AutoInvoice:        getEnvAsBool("TN_AUTO_INVOICE", false),
			DefaultVoucherType: getEnvAsInt("TN_DEFAULT_INVOICE_TYPE", 6), // Factura B
		},
		AI: AISettings{
			APIKey:     strings.TrimSpace(os.Getenv("AI_API_KEY")),
			BaseURL:    strings.TrimSpace(os.Getenv("AI_BASE_URL")),
			Model:      getEnv("AI_MODEL", "gpt-4o-mini"),
			APITimeout: getEnvAsDuration("AI_API_TIMEOUT", 60*time.Second),
		},
	}

	if cfg.ARCA.SalesPoint <= 0 {
		return cfg, errors.New("invalid config: ARCA_PUNTO_VENTA must be greater than 0")
	}
	if cfg.ARCA.CUIT <= 0 {
		return cfg, errors.New("invalid config: ARCA_CUIT must be a valid CUIT number")
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.IssuerURI == "" {
			return cfg, errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI == "" {
			return cfg, errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	return cfg, nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

// Environment returns the gateway environment name for the ARCA SDK.
func (a ARCASettings) Environment() string {
	if a.Production {
		return "prod"
	}
	return "dev"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
