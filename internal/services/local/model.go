package local

import (
	"fmt"
	"strings"

	"FinInfer/internal/domain/models"
	domsvc "FinInfer/internal/domain/service"
)

const (
	maxConfidence = 0.95
	minConfidence = 0.5
)

// Model is the deterministic, dependency-free rule engine. It is always
// available and never fails; it backs every fallback path.
type Model struct{}

func New() *Model { return &Model{} }

func (m *Model) Source() string { return models.SourceLocalRule }

// Predict evaluates four independent technical rules, aggregates them by
// majority vote, and derives confidence, position size, and stop levels from
// fixed ladders.
func (m *Model) Predict(snapshot models.MarketSnapshot, features models.FeatureVector) (models.PredictionResult, error) {
	rsi := features.Get(models.FeatureRSI)
	macd := features.Get(models.FeatureMACD)
	macdSignal := features.Get(models.FeatureMACDSignal)
	bollinger := features.Get(models.FeatureBollingerPosition)
	volumeRatio := features.Get(models.FeatureVolumeRatio)

	var buyVotes, sellVotes int
	var reasons []string

	if rsi > 70 {
		sellVotes++
		reasons = append(reasons, fmt.Sprintf("RSI overbought (%.1f)", rsi))
	} else if features.Has(models.FeatureRSI) && rsi < 30 {
		buyVotes++
		reasons = append(reasons, fmt.Sprintf("RSI oversold (%.1f)", rsi))
	}

	if macd > 0 && macd > macdSignal {
		buyVotes++
		reasons = append(reasons, "MACD bullish cross")
	} else if macd < 0 && macd < macdSignal {
		sellVotes++
		reasons = append(reasons, "MACD bearish cross")
	}

	if bollinger > 0.9 {
		sellVotes++
		reasons = append(reasons, "price at upper Bollinger band")
	} else if features.Has(models.FeatureBollingerPosition) && bollinger < 0.1 {
		buyVotes++
		reasons = append(reasons, "price at lower Bollinger band")
	}

	volumeConfirmed := volumeRatio > 1.5
	if volumeConfirmed {
		reasons = append(reasons, fmt.Sprintf("volume confirmation (%.2fx)", volumeRatio))
	}

	signal := models.SignalHold
	switch {
	case buyVotes > sellVotes:
		signal = models.SignalBuy
	case sellVotes > buyVotes:
		signal = models.SignalSell
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "no clear technical signal")
	}

	margin := buyVotes - sellVotes
	if margin < 0 {
		margin = -margin
	}
	confidence := 0.6 + 0.1*float64(margin)
	if volumeConfirmed {
		confidence += 0.1
	}
	if rsi > 80 || (features.Has(models.FeatureRSI) && rsi < 20) {
		confidence += 0.15
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	if confidence < minConfidence {
		confidence = minConfidence
	}

	result := models.PredictionResult{
		Signal:        signal,
		Confidence:    confidence,
		Probabilities: probabilitiesFor(signal, confidence),
		PositionSize:  positionSizeFor(confidence),
		Reasoning:     strings.Join(reasons, "; "),
		Source:        models.SourceLocalRule,
	}

	if signal.Directional() {
		stopLoss, takeProfit := stopLevels(signal, snapshot.Price, confidence)
		result.StopLoss = &stopLoss
		result.TakeProfit = &takeProfit
	}

	return result, nil
}

// probabilitiesFor puts the confidence mass on the chosen class and splits
// the remainder evenly over the other two, keeping the triple summed to 1.
func probabilitiesFor(signal models.Signal, confidence float64) models.Probabilities {
	rest := (1 - confidence) / 2
	switch signal {
	case models.SignalBuy:
		return models.Probabilities{Buy: confidence, Hold: rest, Sell: rest}
	case models.SignalSell:
		return models.Probabilities{Buy: rest, Hold: rest, Sell: confidence}
	default:
		return models.Probabilities{Buy: rest, Hold: confidence, Sell: rest}
	}
}

// positionSizeFor is a fixed ladder of account fractions keyed by
// confidence band.
func positionSizeFor(confidence float64) float64 {
	switch {
	case confidence < 0.6:
		return 0.1
	case confidence < 0.7:
		return 0.2
	case confidence < 0.8:
		return 0.3
	default:
		return 0.5
	}
}

// stopLevels tightens the stop-loss/take-profit ratio as confidence rises.
func stopLevels(signal models.Signal, price, confidence float64) (stopLoss, takeProfit float64) {
	var slPct, tpPct float64
	switch {
	case confidence >= 0.8:
		slPct, tpPct = 0.02, 0.06
	case confidence >= 0.7:
		slPct, tpPct = 0.03, 0.06
	default:
		slPct, tpPct = 0.03, 0.045
	}

	if signal == models.SignalBuy {
		return price * (1 - slPct), price * (1 + tpPct)
	}
	return price * (1 + slPct), price * (1 - tpPct)
}

var _ domsvc.Predictor = (*Model)(nil)
