package local

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinInfer/internal/domain/models"
)

func TestPredictOversoldYieldsBuy(t *testing.T) {
	m := New()

	result, err := m.Predict(
		models.MarketSnapshot{Symbol: "BTC/USDT", Price: 50000},
		models.FeatureVector{"rsi": 15},
	)
	require.NoError(t, err)

	assert.Equal(t, models.SignalBuy, result.Signal)
	assert.GreaterOrEqual(t, result.Confidence, 0.6)

	require.NotNil(t, result.StopLoss)
	require.NotNil(t, result.TakeProfit)
	assert.Less(t, *result.StopLoss, 50000.0)
	assert.Greater(t, *result.TakeProfit, 50000.0)
}

func TestPredictOverboughtYieldsSell(t *testing.T) {
	m := New()

	result, err := m.Predict(
		models.MarketSnapshot{Symbol: "BTC/USDT", Price: 50000},
		models.FeatureVector{"rsi": 85, "bollinger_position": 0.95},
	)
	require.NoError(t, err)

	assert.Equal(t, models.SignalSell, result.Signal)
	require.NotNil(t, result.StopLoss)
	require.NotNil(t, result.TakeProfit)
	assert.Greater(t, *result.StopLoss, 50000.0)
	assert.Less(t, *result.TakeProfit, 50000.0)
}

func TestPredictNoSignalsYieldsHold(t *testing.T) {
	m := New()

	result, err := m.Predict(models.MarketSnapshot{Price: 100}, models.FeatureVector{})
	require.NoError(t, err)

	assert.Equal(t, models.SignalHold, result.Signal)
	assert.Equal(t, 0.6, result.Confidence)
	assert.Nil(t, result.StopLoss)
	assert.Nil(t, result.TakeProfit)
	assert.Equal(t, "no clear technical signal", result.Reasoning)
}

func TestPredictTiedVotesYieldHold(t *testing.T) {
	m := New()

	// RSI oversold (buy) against a bearish MACD cross (sell).
	result, err := m.Predict(models.MarketSnapshot{Price: 100}, models.FeatureVector{
		"rsi":         25,
		"macd":        -1.0,
		"macd_signal": -0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SignalHold, result.Signal)
}

func TestPredictConfidenceBoostsAndCap(t *testing.T) {
	m := New()

	// Extreme RSI (+0.15) with volume confirmation (+0.1) on a single vote.
	result, err := m.Predict(models.MarketSnapshot{Price: 100}, models.FeatureVector{
		"rsi":          15,
		"volume_ratio": 2.0,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)

	// Cap holds when every rule fires in the same direction.
	result, err = m.Predict(models.MarketSnapshot{Price: 100}, models.FeatureVector{
		"rsi":                15,
		"macd":               1.5,
		"macd_signal":        0.2,
		"bollinger_position": 0.05,
		"volume_ratio":       3.0,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, result.Confidence, 0.95)
}

func TestPredictProbabilitiesSumToOne(t *testing.T) {
	m := New()

	for _, features := range []models.FeatureVector{
		{},
		{"rsi": 15},
		{"rsi": 85, "volume_ratio": 2.0},
		{"rsi": 50, "macd": 1.0, "macd_signal": 0.1},
	} {
		result, err := m.Predict(models.MarketSnapshot{Price: 100}, features)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, result.Probabilities.Sum(), 1e-9)
	}
}

func TestPositionSizeLadder(t *testing.T) {
	assert.Equal(t, 0.1, positionSizeFor(0.55))
	assert.Equal(t, 0.2, positionSizeFor(0.65))
	assert.Equal(t, 0.3, positionSizeFor(0.75))
	assert.Equal(t, 0.5, positionSizeFor(0.85))
}

func TestStopLevelsTightenWithConfidence(t *testing.T) {
	slHigh, tpHigh := stopLevels(models.SignalBuy, 100, 0.85)
	assert.InDelta(t, 98.0, slHigh, 1e-9)
	assert.InDelta(t, 106.0, tpHigh, 1e-9)

	slLow, tpLow := stopLevels(models.SignalBuy, 100, 0.62)
	assert.InDelta(t, 97.0, slLow, 1e-9)
	assert.InDelta(t, 104.5, tpLow, 1e-9)

	slSell, tpSell := stopLevels(models.SignalSell, 100, 0.85)
	assert.InDelta(t, 102.0, slSell, 1e-9)
	assert.InDelta(t, 94.0, tpSell, 1e-9)
}
