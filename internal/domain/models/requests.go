package models

// Requests for ranking HTTP endpoints and Kafka intake.

type RankRequest struct {
	Signals    []MarketSignal `json:"signals" validate:"required,min=1,dive"`
	Candidates []Candidate    `json:"candidates" validate:"required,min=1,max=5000"`
	MaxPicks   int            `json:"max_picks" default:"0" validate:"gte=0,lte=100"`
}

type RegimeRequest struct {
	Signals []MarketSignal `json:"signals" validate:"required,min=1,dive"`
}

type RejectionsQuery struct {
	Since string `query:"since" json:"since"`
	Limit int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type RunQuery struct {
	RunID string `param:"run_id" json:"run_id" validate:"required,uuid"`
}
