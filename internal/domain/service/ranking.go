package service

import (
	"context"

	"FinRank/internal/domain/models"
)

// RankingEngine scores candidates under the detected regime and returns a
// bounded, quota-aware pick list.
type RankingEngine interface {
	Rank(ctx context.Context, req models.RankRequest) (models.RankedResult, error)
	DetectRegime(signals []models.MarketSignal) (models.RegimeState, error)
}
