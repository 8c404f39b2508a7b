package repository

import (
	"context"

	"FinRank/internal/domain/models"
	domrepo "FinRank/internal/domain/repository"
	pkgkafka "FinRank/pkg/kafka"
)

// KafkaResultSink publishes each run to the results topic keyed by run id,
// so all messages of one run land on the same partition.
type KafkaResultSink struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaResultSink(producer *pkgkafka.Producer, topic string) domrepo.ResultSink {
	return &KafkaResultSink{producer: producer, topic: topic}
}

func (s *KafkaResultSink) Name() string { return "kafka" }

func (s *KafkaResultSink) Publish(ctx context.Context, r *models.RankedResult) error {
	return s.producer.PublishBatch(ctx, s.topic, []pkgkafka.Message{{
		Key:     []byte(r.RunID),
		Value:   r,
		Headers: pkgkafka.RunHeaders(r.RunID, string(r.Regime.Label)),
	}})
}

// Close is a no-op; the producer is shared and closed by its owner.
func (s *KafkaResultSink) Close() error { return nil }

// AuditSink adapts an AuditStore to the sink fan-out.
type AuditSink struct {
	store domrepo.AuditStore
}

func NewAuditSink(store domrepo.AuditStore) domrepo.ResultSink {
	return &AuditSink{store: store}
}

func (s *AuditSink) Name() string { return "clickhouse" }

func (s *AuditSink) Publish(ctx context.Context, r *models.RankedResult) error {
	return s.store.StoreRun(ctx, r)
}

func (s *AuditSink) Close() error { return s.store.Close() }
