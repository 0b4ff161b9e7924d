package classifier

import (
	"fmt"

	"FinInfer/internal/domain/models"
)

// Classify labels a request simple or complex together with the matched
// reason. It is a pure, total function: a missing indicator reads as zero
// and the default rule always applies.
//
// Rules are priority-ordered; the first match wins. Clear, high-confidence
// technical setups go to the cheap deterministic path, ambiguous or volatile
// conditions go to the higher-cost reasoning path.
func Classify(_ models.MarketSnapshot, f models.FeatureVector) (string, string) {
	rsi := f.Get(models.FeatureRSI)
	volumeRatio := f.Get(models.FeatureVolumeRatio)
	volatility := f.Get(models.FeatureVolatility)
	macd := f.Get(models.FeatureMACD)
	macdSignal := f.Get(models.FeatureMACDSignal)

	// 1. Extreme RSI with volume confirmation: unambiguous setup.
	if (rsi > 80 || rsi < 20) && volumeRatio > 2 {
		return models.ComplexitySimple, fmt.Sprintf("extreme RSI %.1f with volume confirmation", rsi)
	}

	// 2. Clear trend inside a calm market.
	if rsi > 30 && rsi < 70 && volatility < 1.0 && (rsi > 65 || rsi < 35) {
		return models.ComplexitySimple, fmt.Sprintf("clear trend (RSI %.1f) in low volatility", rsi)
	}

	// 3. High volatility needs deeper reasoning.
	if volatility > 3.0 {
		return models.ComplexityComplex, fmt.Sprintf("high volatility %.2f%%", volatility)
	}

	// 4. Neutral RSI gives no directional edge.
	if rsi > 45 && rsi < 55 {
		return models.ComplexityComplex, fmt.Sprintf("neutral RSI %.1f", rsi)
	}

	// 5. Momentum indicators disagree with each other.
	bullishCross := macd > 0 && macd > macdSignal
	bearishCross := macd < 0 && macd < macdSignal
	if (rsi < 40 && bearishCross) || (rsi > 60 && bullishCross) {
		return models.ComplexityComplex, "directional conflict between RSI and MACD"
	}

	return models.ComplexitySimple, "default simple scenario"
}
