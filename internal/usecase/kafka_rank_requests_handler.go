package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"FinRank/internal/domain/models"
	pkgkafka "FinRank/pkg/kafka"
)

var _ pkgkafka.MessageHandler = (*KafkaRankRequestsHandler)(nil)

// KafkaRankRequestsHandler runs one ranking per RankRequest message.
// Results leave through the use case's sinks.
type KafkaRankRequestsHandler struct {
	topic    string
	uc       *RankingUseCase
	validate *validator.Validate
}

func NewKafkaRankRequestsHandler(topic string, uc *RankingUseCase) *KafkaRankRequestsHandler {
	return &KafkaRankRequestsHandler{topic: topic, uc: uc, validate: validator.New()}
}

func (h *KafkaRankRequestsHandler) Topic() string { return h.topic }

func (h *KafkaRankRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var req models.RankRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.uc.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode rank request: %w", err)
	}
	if err := defaults.Set(&req); err != nil {
		return fmt.Errorf("rank request defaults: %w", err)
	}
	if err := h.validate.StructCtx(ctx, &req); err != nil {
		h.uc.metrics.RecordError("consumer_validate")
		return fmt.Errorf("invalid rank request: %w", err)
	}
	_, err := h.uc.Rank(ctx, req)
	return err
}
