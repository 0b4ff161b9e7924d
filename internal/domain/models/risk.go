package models

// RiskAssessment is the output of the risk sizing stage.
type RiskAssessment struct {
	RiskScore    float64            `json:"risk_score"`    // [0,100]
	PositionSize float64            `json:"position_size"` // notional, clamped to configured bounds
	StopLoss     *float64           `json:"stop_loss,omitempty"`
	TakeProfit   *float64           `json:"take_profit,omitempty"`
	RiskFactors  map[string]float64 `json:"risk_factors"` // sub-score name -> [0,100]
}
