package risk

import (
	"FinInfer/internal/domain/models"
	domsvc "FinInfer/internal/domain/service"
)

// Manager converts a signal, its confidence, and market statistics into a
// bounded position size, stop levels, and a 0-100 risk score. Pure
// computation; construction fixes the sizing bounds.
type Manager struct {
	baseSize      float64
	maxSize       float64
	minSize       float64
	stopLossPct   float64 // percent of price
	takeProfitPct float64 // percent of price
}

type Config struct {
	BasePositionSize float64 `yaml:"base_position_size"`
	MaxPositionSize  float64 `yaml:"max_position_size"`
	MinPositionSize  float64 `yaml:"min_position_size"`
	StopLossPct      float64 `yaml:"stop_loss_pct"`
	TakeProfitPct    float64 `yaml:"take_profit_pct"`
}

func NewManager(cfg Config) *Manager {
	if cfg.BasePositionSize <= 0 {
		cfg.BasePositionSize = 1000
	}
	if cfg.MaxPositionSize <= 0 {
		cfg.MaxPositionSize = 10000
	}
	if cfg.MinPositionSize <= 0 {
		cfg.MinPositionSize = 100
	}
	if cfg.StopLossPct <= 0 {
		cfg.StopLossPct = 2.0
	}
	if cfg.TakeProfitPct <= 0 {
		cfg.TakeProfitPct = 5.0
	}
	return &Manager{
		baseSize:      cfg.BasePositionSize,
		maxSize:       cfg.MaxPositionSize,
		minSize:       cfg.MinPositionSize,
		stopLossPct:   cfg.StopLossPct,
		takeProfitPct: cfg.TakeProfitPct,
	}
}

// Assess computes four 0-100 sub-scores, averages them into the overall risk
// score, and derives a clamped position size plus volatility-scaled stop
// levels. Confidence is a percentage.
func (m *Manager) Assess(signal models.Signal, confidence, price, volatility, rsi, spread float64) models.RiskAssessment {
	factors := map[string]float64{
		"volatility_risk": volatilityRisk(volatility),
		"confidence_risk": confidenceRisk(confidence),
		"rsi_risk":        rsiRisk(signal, rsi),
		"spread_risk":     spreadRisk(spread, price),
	}

	var total float64
	for _, score := range factors {
		total += score
	}
	riskScore := total / float64(len(factors))

	size := m.baseSize * (confidence / 100) * (1 - riskScore/100*0.5)
	if size < m.minSize {
		size = m.minSize
	}
	if size > m.maxSize {
		size = m.maxSize
	}

	assessment := models.RiskAssessment{
		RiskScore:    riskScore,
		PositionSize: size,
		RiskFactors:  factors,
	}

	if signal.Directional() && price > 0 {
		stopLoss, takeProfit := m.stopLevels(signal, price, volatility)
		assessment.StopLoss = &stopLoss
		assessment.TakeProfit = &takeProfit
	}

	return assessment
}

// stopLevels widens the configured base percentages with volatility; the
// multiplier volatility/2 is clamped to [1,3].
func (m *Manager) stopLevels(signal models.Signal, price, volatility float64) (stopLoss, takeProfit float64) {
	mult := volatility / 2
	if mult < 1 {
		mult = 1
	}
	if mult > 3 {
		mult = 3
	}

	slDist := price * m.stopLossPct / 100 * mult
	tpDist := price * m.takeProfitPct / 100 * mult

	if signal == models.SignalBuy {
		return price - slDist, price + tpDist
	}
	return price + slDist, price - tpDist
}

func volatilityRisk(volatility float64) float64 {
	switch {
	case volatility < 1:
		return 20
	case volatility < 3:
		return 40
	case volatility < 5:
		return 60
	default:
		return 80
	}
}

func confidenceRisk(confidence float64) float64 {
	score := 100 - confidence
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// rsiRisk penalizes entering against an exhausted move: buying into
// overbought or selling into oversold.
func rsiRisk(signal models.Signal, rsi float64) float64 {
	switch signal {
	case models.SignalBuy:
		switch {
		case rsi > 80:
			return 70
		case rsi > 70:
			return 40
		}
	case models.SignalSell:
		switch {
		case rsi < 20:
			return 70
		case rsi < 30:
			return 40
		}
	}
	return 20
}

func spreadRisk(spread, price float64) float64 {
	if price <= 0 {
		return 60
	}
	ratio := spread / price * 100
	switch {
	case ratio < 0.05:
		return 10
	case ratio < 0.1:
		return 20
	case ratio < 0.2:
		return 40
	default:
		return 60
	}
}

var _ domsvc.RiskAssessor = (*Manager)(nil)
