package models

import "time"

// RunRecord is the persisted summary of one ranking run.
type RunRecord struct {
	RunID            string      `json:"run_id"`
	GeneratedAt      time.Time   `json:"generated_at"`
	Regime           RegimeLabel `json:"regime"`
	RegimeConfidence float64     `json:"regime_confidence"`
	Scored           int         `json:"scored"`
	Picks            int         `json:"picks"`
	Rejections       int         `json:"rejections"`
	Shortfalls       int         `json:"shortfalls"`
}

// ScoreRecord is one persisted pick with its breakdown as JSON.
type ScoreRecord struct {
	RunID              string             `json:"run_id"`
	Symbol             string             `json:"symbol"`
	AssetClass         AssetClass         `json:"asset_class"`
	Bucket             string             `json:"bucket"`
	CompositeScore     float64            `json:"composite_score"`
	RankScore          float64            `json:"rank_score"`
	Classification     string             `json:"classification"`
	ConfirmationStatus ConfirmationStatus `json:"confirmation_status"`
	PositionSizeCap    float64            `json:"position_size_cap"`
	Breakdown          string             `json:"breakdown"`
}

// RejectionRecord is one persisted audit entry.
type RejectionRecord struct {
	RunID       string     `json:"run_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Symbol      string     `json:"symbol"`
	AssetClass  AssetClass `json:"asset_class"`
	Stage       string     `json:"stage"`
	Reason      string     `json:"reason"`
}

// RunAudit is everything persisted for one run.
type RunAudit struct {
	Run    RunRecord     `json:"run"`
	Scores []ScoreRecord `json:"scores"`
}
