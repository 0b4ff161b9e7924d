package ensemble

import (
	"fmt"
	"math"

	"FinInfer/internal/domain/models"
	domsvc "FinInfer/internal/domain/service"
)

// Statistical member models. Their internals are deliberately simple score
// functions over the feature vector; the ensemble only depends on the
// probability-triple contract they share with any trained replacement.

// Momentum scores directional follow-through from RSI distance to midline
// and the MACD histogram.
type Momentum struct{}

func (Momentum) Name() string { return models.SourceMomentum }

func (Momentum) Predict(features models.FeatureVector, _ []models.FeatureVector) (models.PredictionResult, error) {
	rsi := features.Get(models.FeatureRSI)
	macd := features.Get(models.FeatureMACD)
	macdSignal := features.Get(models.FeatureMACDSignal)

	score := (rsi - 50) / 50 // [-1,1]
	if macd > macdSignal {
		score += 0.3
	} else if macd < macdSignal {
		score -= 0.3
	}
	return memberResult(models.SourceMomentum, score,
		fmt.Sprintf("momentum score %.2f", score)), nil
}

// MeanReversion bets against band extremes: stretched Bollinger position and
// extreme RSI argue for a snap back.
type MeanReversion struct{}

func (MeanReversion) Name() string { return models.SourceMeanReversion }

func (MeanReversion) Predict(features models.FeatureVector, _ []models.FeatureVector) (models.PredictionResult, error) {
	rsi := features.Get(models.FeatureRSI)
	bollinger := features.Get(models.FeatureBollingerPosition)

	var score float64
	if features.Has(models.FeatureBollingerPosition) {
		score = (0.5 - bollinger) * 2 // above band -> sell bias
	}
	switch {
	case rsi > 70:
		score -= 0.4
	case features.Has(models.FeatureRSI) && rsi < 30:
		score += 0.4
	}
	return memberResult(models.SourceMeanReversion, score,
		fmt.Sprintf("mean reversion score %.2f", score)), nil
}

// Breakout follows volume-confirmed volatility expansions in the direction
// MACD points.
type Breakout struct{}

func (Breakout) Name() string { return models.SourceBreakout }

func (Breakout) Predict(features models.FeatureVector, _ []models.FeatureVector) (models.PredictionResult, error) {
	volatility := features.Get(models.FeatureVolatility)
	volumeRatio := features.Get(models.FeatureVolumeRatio)
	macd := features.Get(models.FeatureMACD)

	var score float64
	if volatility > 1.5 && volumeRatio > 1.5 {
		if macd > 0 {
			score = 0.6
		} else if macd < 0 {
			score = -0.6
		}
	}
	return memberResult(models.SourceBreakout, score,
		fmt.Sprintf("breakout score %.2f", score)), nil
}

// memberResult converts a directional score into a normalized probability
// triple. Scores near zero keep the mass on HOLD; a direction only wins once
// the magnitude clears 0.5.
func memberResult(source string, score float64, reasoning string) models.PredictionResult {
	mag := math.Min(math.Abs(score), 1)
	lead := 0.15 + 0.6*mag
	lag := 0.15 - 0.1*mag
	hold := 1 - lead - lag

	probs := models.Probabilities{Buy: 0.15, Hold: 0.7, Sell: 0.15}
	switch {
	case score > 0:
		probs = models.Probabilities{Buy: lead, Hold: hold, Sell: lag}
	case score < 0:
		probs = models.Probabilities{Buy: lag, Hold: hold, Sell: lead}
	}

	signal, confidence := argmax(probs)
	return models.PredictionResult{
		Signal:        signal,
		Confidence:    confidence,
		Probabilities: probs,
		Reasoning:     reasoning,
		Source:        source,
	}
}

var (
	_ domsvc.MemberPredictor = Momentum{}
	_ domsvc.MemberPredictor = MeanReversion{}
	_ domsvc.MemberPredictor = Breakout{}
)
