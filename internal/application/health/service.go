package health

import (
	"context"
	"time"

	corehealth "github.com/damianpacheco/facturacion-arca/internal/core/health"
)

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Pinger checks connectivity against a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	db        Pinger
	startedAt time.Time
}

// NewService creates a health service. db may be nil when no database is
// wired (tests).
func NewService(meta Metadata, db Pinger) *Service {
	return &Service{
		meta:      meta,
		db:        db,
		startedAt: time.Now().UTC(),
	}
}

// Status returns the current availability snapshot.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      "UP",
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	if s.db != nil {
		status.Database = "UP"
		if err := s.db.Ping(ctx); err != nil {
			status.Database = "DOWN"
			status.Status = "DEGRADED"
		}
	}

	return status
}
