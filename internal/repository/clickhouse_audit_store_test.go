package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinRank/internal/domain/models"
	pkgch "FinRank/pkg/clickhouse"
)

func newMockStore(t *testing.T, opts ...AuditOption) (*CHAuditStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCHAuditStore(pkgch.NewClientWithDB(db), opts...), mock
}

func sampleResult() *models.RankedResult {
	return &models.RankedResult{
		RunID:       "0b6c3c3e-6d1e-4f64-9d8c-2f5a1a3c7e10",
		GeneratedAt: time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC),
		Regime:      models.RegimeState{Label: models.RegimeRiskOff, Confidence: 0.6},
		Scored:      3,
		Picks: []models.Candidate{
			{Symbol: "AAPL", AssetClass: models.AssetEquity, Bucket: "equity_large", CompositeScore: 87.2, RankScore: 100,
				Classification: models.ClassBuy, ConfirmationStatus: models.StatusConfirmed, PositionSizeCap: 3,
				Breakdown: &models.ScoreBreakdown{Composite: 87.2}},
			{Symbol: "BTC", AssetClass: models.AssetCrypto, Bucket: "crypto", CompositeScore: 70, RankScore: 80,
				Classification: models.ClassBuy, ConfirmationStatus: models.StatusPartial, PositionSizeCap: 3},
		},
		Rejections: []models.Rejection{
			{Symbol: "NANO", AssetClass: models.AssetEquity, Stage: models.StageHardFilter, Reason: "market cap 1 below floor 2"},
		},
	}
}

func TestCHAuditStore_Init(t *testing.T) {
	s, mock := newMockStore(t)
	for range auditSchema {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, s.Init(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHAuditStore_StoreRun(t *testing.T) {
	s, mock := newMockStore(t)
	r := sampleResult()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ranking_runs")).
		WithArgs(r.RunID, r.GeneratedAt, "risk_off", 0.6, 3, 2, 1, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO score_breakdowns") + `.*VALUES \(.*\),\(.*\)$`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ranking_rejections")).
		WithArgs(r.RunID, r.GeneratedAt, "NANO", "equity", models.StageHardFilter, "market cap 1 below floor 2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.StoreRun(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHAuditStore_StoreRunWithoutRows(t *testing.T) {
	s, mock := newMockStore(t)
	r := sampleResult()
	r.Picks, r.Rejections = nil, nil

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ranking_runs")).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.StoreRun(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHAuditStore_BreakerOpens(t *testing.T) {
	s, mock := newMockStore(t, WithBreaker(2, time.Minute))
	down := errors.New("connection refused")
	mock.ExpectExec("INSERT INTO ranking_runs").WillReturnError(down)
	mock.ExpectExec("INSERT INTO ranking_runs").WillReturnError(down)

	for i := 0; i < 2; i++ {
		err := s.StoreRun(context.Background(), sampleResult())
		require.ErrorIs(t, err, down)
	}
	err := s.StoreRun(context.Background(), sampleResult())

	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHAuditStore_GetRunNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM ranking_runs").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"run_id"}))

	_, err := s.GetRun(context.Background(), "missing")

	assert.ErrorIs(t, err, models.ErrRunNotFound)
}

func TestCHAuditStore_GetRun(t *testing.T) {
	s, mock := newMockStore(t)
	at := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	mock.ExpectQuery("FROM ranking_runs").WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"run_id", "generated_at", "regime", "regime_confidence", "scored", "picks", "rejections", "shortfalls"}).
			AddRow("run-1", at, "risk_off", 0.6, 3, 1, 2, 0))
	mock.ExpectQuery("FROM score_breakdowns").WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"symbol", "asset_class", "bucket", "composite_score", "rank_score", "classification", "confirmation_status", "position_size_cap", "breakdown"}).
			AddRow("AAPL", "equity", "equity_large", 87.2, 100.0, "Buy", "confirmed", 3.0, `{"composite":87.2}`))

	got, err := s.GetRun(context.Background(), "run-1")

	require.NoError(t, err)
	assert.Equal(t, models.RegimeRiskOff, got.Run.Regime)
	assert.Equal(t, 2, got.Run.Rejections)
	require.Len(t, got.Scores, 1)
	assert.Equal(t, models.AssetEquity, got.Scores[0].AssetClass)
	assert.Equal(t, models.StatusConfirmed, got.Scores[0].ConfirmationStatus)
	assert.JSONEq(t, `{"composite":87.2}`, got.Scores[0].Breakdown)
}

func TestCHAuditStore_QueryRejections(t *testing.T) {
	s, mock := newMockStore(t)
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM ranking_rejections").WithArgs(since, 50).
		WillReturnRows(sqlmock.NewRows([]string{"run_id", "generated_at", "symbol", "asset_class", "stage", "reason"}).
			AddRow("run-1", since.Add(time.Hour), "SHIB", "crypto", "confluence", "confluence 1/5 below minimum 3"))

	got, err := s.QueryRejections(context.Background(), since, 50)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.AssetCrypto, got[0].AssetClass)
	assert.Equal(t, "confluence", got[0].Stage)
	assert.NoError(t, mock.ExpectationsWereMet())
}
