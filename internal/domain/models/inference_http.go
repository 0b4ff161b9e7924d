package models

// Requests and responses for the inference HTTP surface. Defined in domain
// for consistency and reuse.

type InferenceRequest struct {
	Symbol       string             `json:"symbol" validate:"required"`
	Price        float64            `json:"price" validate:"required,gt=0"`
	High24h      float64            `json:"high_24h" validate:"gte=0"`
	Low24h       float64            `json:"low_24h" validate:"gte=0"`
	Volume24h    float64            `json:"volume_24h" validate:"gte=0"`
	BidAskSpread float64            `json:"bid_ask_spread" validate:"gte=0"`
	FundingRate  float64            `json:"funding_rate"`
	Features     map[string]float64 `json:"features" validate:"required,min=1"`
	Sentiment    map[string]any     `json:"sentiment_data,omitempty"`
	OnChain      map[string]any     `json:"on_chain_data,omitempty"`
	ModelType    string             `json:"model_type" default:"auto" validate:"oneof=auto local remote ensemble"`
}

// Snapshot converts the request's market fields into a MarketSnapshot.
func (r *InferenceRequest) Snapshot() MarketSnapshot {
	return MarketSnapshot{
		Symbol:       r.Symbol,
		Price:        r.Price,
		High24h:      r.High24h,
		Low24h:       r.Low24h,
		Volume24h:    r.Volume24h,
		BidAskSpread: r.BidAskSpread,
		FundingRate:  r.FundingRate,
	}
}

type InferenceResponse struct {
	Signal          Signal             `json:"signal"`
	Confidence      int                `json:"confidence"` // percent
	PositionSize    float64            `json:"position_size"`
	EntryPrice      float64            `json:"entry_price"`
	StopLoss        *float64           `json:"stop_loss,omitempty"`
	TakeProfit      *float64           `json:"take_profit,omitempty"`
	Reasoning       string             `json:"reasoning"`
	RiskScore       int                `json:"risk_score"`
	RiskFactors     map[string]float64 `json:"risk_factors"`
	MarketCondition string             `json:"market_condition"`
	Source          string             `json:"source"`
	Metadata        *ResultMetadata    `json:"metadata,omitempty"`
	Timestamp       int64              `json:"timestamp"`
}
