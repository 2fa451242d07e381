package health

import (
	"context"
	"errors"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestStatusUp(t *testing.T) {
	svc := NewService(Metadata{Service: "facturacion-arca", Version: "0.1.0", Environment: "test"},
		pingerFunc(func(ctx context.Context) error { return nil }))

	got := svc.Status(context.Background())
	if got.Status != "UP" {
		t.Errorf("Status = %q, want UP", got.Status)
	}
	if got.Database != "UP" {
		t.Errorf("Database = %q, want UP", got.Database)
	}
	if got.Service != "facturacion-arca" {
		t.Errorf("Service = %q", got.Service)
	}
}

func TestStatusDegradedWhenDatabaseDown(t *testing.T) {
	svc := NewService(Metadata{Service: "facturacion-arca"},
		pingerFunc(func(ctx context.Context) error { return errors.New("connection refused") }))

	got := svc.Status(context.Background())
	if got.Status != "DEGRADED" {
		t.Errorf("Status = %q, want DEGRADED", got.Status)
	}
	if got.Database != "DOWN" {
		t.Errorf("Database = %q, want DOWN", got.Database)
	}
}

func TestStatusWithoutDatabase(t *testing.T) {
	svc := NewService(Metadata{Service: "facturacion-arca"}, nil)

	got := svc.Status(context.Background())
	if got.Status != "UP" {
		t.Errorf("Status = %q, want UP", got.Status)
	}
	if got.Database != "" {
		t.Errorf("Database = %q, want empty", got.Database)
	}
}
