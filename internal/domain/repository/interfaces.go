package repository

import (
	"context"
	"time"

	"FinRank/internal/domain/models"
)

// ResultSink receives every finished run. Sinks must not modify the result.
type ResultSink interface {
	Name() string
	Publish(ctx context.Context, r *models.RankedResult) error
	Close() error
}

type AuditStore interface {
	Init(ctx context.Context) error // ensure tables
	StoreRun(ctx context.Context, r *models.RankedResult) error
	GetRun(ctx context.Context, runID string) (*models.RunAudit, error)
	QueryRejections(ctx context.Context, since time.Time, limit int) ([]models.RejectionRecord, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordRun(r *models.RankedResult)
	RecordSinkPublished(sink string, err error)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
