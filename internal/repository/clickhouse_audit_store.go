package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"FinRank/internal/domain/models"
	domrepo "FinRank/internal/domain/repository"
	pkgch "FinRank/pkg/clickhouse"
	applogger "FinRank/pkg/logger"
)

var _ domrepo.AuditStore = (*CHAuditStore)(nil)

// auditSchema is applied by Init. Every statement is idempotent.
var auditSchema = []string{
	`CREATE TABLE IF NOT EXISTS ranking_runs (
        run_id String,
        generated_at DateTime64(3, 'UTC'),
        regime LowCardinality(String),
        regime_confidence Float64,
        scored UInt32,
        picks UInt32,
        rejections UInt32,
        shortfalls UInt32
    ) ENGINE = MergeTree ORDER BY (generated_at, run_id)`,
	`CREATE TABLE IF NOT EXISTS score_breakdowns (
        run_id String,
        generated_at DateTime64(3, 'UTC'),
        symbol String,
        asset_class LowCardinality(String),
        bucket LowCardinality(String),
        composite_score Float64,
        rank_score Float64,
        classification LowCardinality(String),
        confirmation_status LowCardinality(String),
        position_size_cap Float64,
        breakdown String
    ) ENGINE = MergeTree ORDER BY (run_id, symbol)`,
	`CREATE TABLE IF NOT EXISTS ranking_rejections (
        run_id String,
        generated_at DateTime64(3, 'UTC'),
        symbol String,
        asset_class LowCardinality(String),
        stage LowCardinality(String),
        reason String
    ) ENGINE = MergeTree ORDER BY (generated_at, run_id, symbol)`,
}

var (
	breakdownColumns = []string{
		"run_id", "generated_at", "symbol", "asset_class", "bucket", "composite_score",
		"rank_score", "classification", "confirmation_status", "position_size_cap", "breakdown",
	}
	rejectionColumns = []string{"run_id", "generated_at", "symbol", "asset_class", "stage", "reason"}
)

// CHAuditStore persists ranking runs in ClickHouse. Writes go through a
// circuit breaker so an unavailable server fails fast instead of stalling
// every run.
type CHAuditStore struct {
	ch      *pkgch.Client
	db      *sql.DB
	breaker *gobreaker.CircuitBreaker
	l       *applogger.Logger
}

type AuditOption func(*gobreaker.Settings)

// WithBreaker trips after maxFailures consecutive write failures and probes
// again after openTimeout.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) AuditOption {
	return func(st *gobreaker.Settings) {
		if maxFailures > 0 {
			st.ReadyToTrip = func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= maxFailures
			}
		}
		if openTimeout > 0 {
			st.Timeout = openTimeout
		}
	}
}

func NewCHAuditStore(ch *pkgch.Client, opts ...AuditOption) *CHAuditStore {
	st := gobreaker.Settings{Name: "clickhouse_audit", Timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&st)
	}
	s := &CHAuditStore{ch: ch, db: ch.DB()}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		s.l.Warn("circuit breaker state change",
			applogger.String("breaker", name),
			applogger.String("from", from.String()),
			applogger.String("to", to.String()),
		)
	}
	s.breaker = gobreaker.NewCircuitBreaker(st)
	return s
}

// SetLogger injects a structured logger.
func (s *CHAuditStore) SetLogger(l *applogger.Logger) { s.l = l.Component("audit_store") }

func (s *CHAuditStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, auditSchema)
}

// StoreRun writes the run summary, one row per pick and one row per
// rejection.
func (s *CHAuditStore) StoreRun(ctx context.Context, r *models.RankedResult) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.storeRun(ctx, r)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("audit store unavailable: %w", err)
	}
	return err
}

func (s *CHAuditStore) storeRun(ctx context.Context, r *models.RankedResult) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ranking_runs (run_id, generated_at, regime, regime_confidence, scored, picks, rejections, shortfalls) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.GeneratedAt, string(r.Regime.Label), r.Regime.Confidence,
		r.Scored, len(r.Picks), len(r.Rejections), len(r.QuotaShortfalls),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	picks := make([][]interface{}, 0, len(r.Picks))
	for _, p := range r.Picks {
		breakdown, err := json.Marshal(p.Breakdown)
		if err != nil {
			return fmt.Errorf("encode breakdown %s: %w", p.Symbol, err)
		}
		picks = append(picks, []interface{}{
			r.RunID, r.GeneratedAt, p.Symbol, string(p.AssetClass), p.Bucket,
			p.CompositeScore, p.RankScore, p.Classification, string(p.ConfirmationStatus),
			p.PositionSizeCap, string(breakdown),
		})
	}
	if err := s.ch.InsertRows(ctx, "score_breakdowns", breakdownColumns, picks); err != nil {
		return err
	}

	rejections := make([][]interface{}, 0, len(r.Rejections))
	for _, rej := range r.Rejections {
		rejections = append(rejections, []interface{}{
			r.RunID, r.GeneratedAt, rej.Symbol, string(rej.AssetClass), rej.Stage, rej.Reason,
		})
	}
	if err := s.ch.InsertRows(ctx, "ranking_rejections", rejectionColumns, rejections); err != nil {
		return err
	}

	s.l.Debug("run stored",
		applogger.String("run_id", r.RunID),
		applogger.Int("picks", len(r.Picks)),
		applogger.Int("rejections", len(r.Rejections)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// GetRun returns the stored summary and picks of one run, or
// models.ErrRunNotFound.
func (s *CHAuditStore) GetRun(ctx context.Context, runID string) (*models.RunAudit, error) {
	var (
		out    models.RunAudit
		regime string
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, generated_at, regime, regime_confidence, scored, picks, rejections, shortfalls FROM ranking_runs WHERE run_id = ? LIMIT 1`,
		runID)
	err := row.Scan(&out.Run.RunID, &out.Run.GeneratedAt, &regime, &out.Run.RegimeConfidence,
		&out.Run.Scored, &out.Run.Picks, &out.Run.Rejections, &out.Run.Shortfalls)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	out.Run.Regime = models.RegimeLabel(regime)

	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, asset_class, bucket, composite_score, rank_score, classification, confirmation_status, position_size_cap, breakdown
        FROM score_breakdowns WHERE run_id = ? ORDER BY rank_score DESC, symbol ASC`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("get breakdowns: %w", err)
	}
	defer rows.Close()

	out.Scores = []models.ScoreRecord{}
	for rows.Next() {
		rec := models.ScoreRecord{RunID: runID}
		var class, status string
		if err := rows.Scan(&rec.Symbol, &class, &rec.Bucket, &rec.CompositeScore, &rec.RankScore,
			&rec.Classification, &status, &rec.PositionSizeCap, &rec.Breakdown); err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		rec.AssetClass = models.AssetClass(class)
		rec.ConfirmationStatus = models.ConfirmationStatus(status)
		out.Scores = append(out.Scores, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return &out, nil
}

// QueryRejections lists rejections newer than since, newest first.
func (s *CHAuditStore) QueryRejections(ctx context.Context, since time.Time, limit int) ([]models.RejectionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, generated_at, symbol, asset_class, stage, reason
        FROM ranking_rejections WHERE generated_at >= ? ORDER BY generated_at DESC, symbol ASC LIMIT ?`,
		since, limit)
	if err != nil {
		s.l.Error("clickhouse query_rejections error", applogger.Error(err))
		return nil, fmt.Errorf("query rejections: %w", err)
	}
	defer rows.Close()

	out := make([]models.RejectionRecord, 0, limit)
	for rows.Next() {
		var (
			rec   models.RejectionRecord
			class string
		)
		if err := rows.Scan(&rec.RunID, &rec.GeneratedAt, &rec.Symbol, &class, &rec.Stage, &rec.Reason); err != nil {
			return nil, fmt.Errorf("scan rejection: %w", err)
		}
		rec.AssetClass = models.AssetClass(class)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *CHAuditStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

// Close is a no-op; the pool belongs to the clickhouse client.
func (s *CHAuditStore) Close() error {
	return nil
}
