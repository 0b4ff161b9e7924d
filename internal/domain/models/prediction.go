package models

// Signal is a trading action recommendation.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
	// SignalClose is accepted at the API boundary for position management but
	// is never produced by a predictor backend.
	SignalClose Signal = "CLOSE"
)

// ValidPredictorSignal reports whether s may be emitted by a backend.
func (s Signal) ValidPredictorSignal() bool {
	return s == SignalBuy || s == SignalSell || s == SignalHold
}

// Directional reports whether s implies an entry direction.
func (s Signal) Directional() bool {
	return s == SignalBuy || s == SignalSell
}

// Backend source tags carried in PredictionResult.Source.
const (
	SourceLocalRule     = "local_rule"
	SourceRemote        = "remote_llm"
	SourceEnsemble      = "ensemble"
	SourceMomentum      = "momentum"
	SourceMeanReversion = "mean_reversion"
	SourceBreakout      = "volatility_breakout"
)

// Complexity labels produced by scenario classification.
const (
	ComplexitySimple  = "simple"
	ComplexityComplex = "complex"
)

// Probabilities is a predictor's probability mass over the three signal
// classes. Components sum to 1 within floating tolerance.
type Probabilities struct {
	Buy  float64 `json:"buy_prob"`
	Hold float64 `json:"hold_prob"`
	Sell float64 `json:"sell_prob"`
}

// Sum returns the total probability mass.
func (p Probabilities) Sum() float64 {
	return p.Buy + p.Hold + p.Sell
}

// PredictionResult is the normalized output of any backend.
type PredictionResult struct {
	Signal        Signal          `json:"signal"`
	Confidence    float64         `json:"confidence"` // [0,1]
	Probabilities Probabilities   `json:"probabilities"`
	PositionSize  float64         `json:"position_size"` // fraction of account, [0,1]
	StopLoss      *float64        `json:"stop_loss,omitempty"`
	TakeProfit    *float64        `json:"take_profit,omitempty"`
	Reasoning     string          `json:"reasoning"`
	Source        string          `json:"source"`
	Metadata      *ResultMetadata `json:"metadata,omitempty"`
}

// ResultMetadata is attached by the orchestrator before responding.
type ResultMetadata struct {
	Complexity           string `json:"complexity"`
	ClassificationReason string `json:"classification_reason"`
	ResponseTimeMs       int64  `json:"response_time_ms"`
	Cached               bool   `json:"cached"`
}

// EnsembleConsensus summarizes agreement between ensemble members on their
// top-choice signals.
type EnsembleConsensus struct {
	BuyCount      int     `json:"buy_count"`
	HoldCount     int     `json:"hold_count"`
	SellCount     int     `json:"sell_count"`
	TotalModels   int     `json:"total_models"`
	ConsensusRate float64 `json:"consensus_rate"` // percent, max vote share
	IsUnanimous   bool    `json:"is_unanimous"`
	IsMajority    bool    `json:"is_majority"`
}
