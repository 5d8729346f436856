// Package health aggregates component checks into a single report.
package health

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatsearch/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
	ComponentCatalog   = "catalog"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	db        Pinger
	embedding EmbeddingChecker
	catalog   Pinger
}

// New creates a Service. Nil components are not reported; the memory
// driver has no database to ping.
func New(db Pinger, embedding EmbeddingChecker, catalog Pinger) *Service {
	return &Service{db: db, embedding: embedding, catalog: catalog}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)
	log := logger.FromContext(ctx)

	record := func(name string, err error) {
		if err != nil {
			log.Warn("Health check failed", zap.String("component", name), zap.Error(err))
			checks[name] = CheckError
			return
		}
		checks[name] = CheckOK
	}

	if s.db != nil {
		record(ComponentDatabase, s.db.Ping(ctx))
	}
	if s.embedding != nil {
		record(ComponentEmbedding, s.embedding.HealthCheck(ctx))
	}
	if s.catalog != nil {
		record(ComponentCatalog, s.catalog.Ping(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
