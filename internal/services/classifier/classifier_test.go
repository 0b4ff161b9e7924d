package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"FinInfer/internal/domain/models"
)

func TestClassifyPriorityRules(t *testing.T) {
	tests := []struct {
		name     string
		features models.FeatureVector
		want     string
	}{
		{
			name: "extreme rsi with volume confirmation",
			features: models.FeatureVector{
				"rsi": 82, "volume_ratio": 2.5, "atr_percent": 0.8,
			},
			want: models.ComplexitySimple,
		},
		{
			name: "oversold with volume confirmation",
			features: models.FeatureVector{
				"rsi": 15, "volume_ratio": 3.0,
			},
			want: models.ComplexitySimple,
		},
		{
			name: "clear trend in calm market",
			features: models.FeatureVector{
				"rsi": 67, "atr_percent": 0.5, "volume_ratio": 1.0,
			},
			want: models.ComplexitySimple,
		},
		{
			name: "high volatility",
			features: models.FeatureVector{
				"rsi": 66, "atr_percent": 4.2,
			},
			want: models.ComplexityComplex,
		},
		{
			name: "neutral rsi",
			features: models.FeatureVector{
				"rsi": 50, "atr_percent": 1.5,
			},
			want: models.ComplexityComplex,
		},
		{
			name: "directional conflict low rsi bearish macd",
			features: models.FeatureVector{
				"rsi": 35, "atr_percent": 1.5, "macd": -1.2, "macd_signal": -0.5,
			},
			want: models.ComplexityComplex,
		},
		{
			name: "directional conflict high rsi bullish macd",
			features: models.FeatureVector{
				"rsi": 65, "atr_percent": 1.5, "macd": 1.2, "macd_signal": 0.5,
			},
			want: models.ComplexityComplex,
		},
		{
			name: "default simple",
			features: models.FeatureVector{
				"rsi": 62, "atr_percent": 1.5,
			},
			want: models.ComplexitySimple,
		},
		{
			name:     "empty features default via neutral zero rsi",
			features: models.FeatureVector{},
			want:     models.ComplexitySimple,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Classify(models.MarketSnapshot{Symbol: "BTC/USDT", Price: 50000}, tt.features)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// Extreme RSI with volume outranks high volatility.
	complexity, reason := Classify(models.MarketSnapshot{}, models.FeatureVector{
		"rsi": 85, "volume_ratio": 2.5, "atr_percent": 5.0,
	})
	assert.Equal(t, models.ComplexitySimple, complexity)
	assert.Contains(t, reason, "volume confirmation")
}
