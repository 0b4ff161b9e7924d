package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinInfer/internal/domain/models"
)

func TestAnonymizeDropsNonWhitelistedFeatures(t *testing.T) {
	a := NewAnonymizer()

	snapshot := models.MarketSnapshot{
		Symbol:       "BTC/USDT",
		Price:        50000,
		High24h:      51000,
		Low24h:       48000,
		Volume24h:    1_000_000,
		BidAskSpread: 1.5,
		FundingRate:  0.01,
	}
	features := models.FeatureVector{
		"rsi":              65,
		"macd":             1.2,
		"account_exposure": 0.4,
		"custom_alpha":     9.9,
	}

	safeSnap, safeFeatures, _, _ := a.Anonymize(snapshot, features, nil, nil)

	assert.Equal(t, "BTC", safeSnap.Symbol)
	assert.Equal(t, 50000.0, safeSnap.Price)
	assert.Zero(t, safeSnap.BidAskSpread)
	assert.Zero(t, safeSnap.FundingRate)

	assert.Contains(t, safeFeatures, "rsi")
	assert.Contains(t, safeFeatures, "macd")
	assert.NotContains(t, safeFeatures, "account_exposure")
	assert.NotContains(t, safeFeatures, "custom_alpha")
}

func TestAnonymizeFiltersSentimentAndOnChain(t *testing.T) {
	a := NewAnonymizer()

	sentiment := map[string]any{
		"fear_greed_index": 72,
		"trader_id":        "abc",
	}
	onChain := map[string]any{
		"exchange_inflow": 120.5,
		"wallet_tag":      "whale-17",
	}

	_, _, safeSentiment, safeOnChain := a.Anonymize(models.MarketSnapshot{Symbol: "ETH-USD"}, nil, sentiment, onChain)

	assert.Equal(t, map[string]any{"fear_greed_index": 72}, safeSentiment)
	assert.Equal(t, map[string]any{"exchange_inflow": 120.5}, safeOnChain)
}

func TestGeneralizeSymbol(t *testing.T) {
	assert.Equal(t, "BTC", generalizeSymbol("BTC/USDT"))
	assert.Equal(t, "ETH", generalizeSymbol("ETH-USD"))
	assert.Equal(t, "SOL", generalizeSymbol("SOL_PERP"))
	assert.Equal(t, "DOGE", generalizeSymbol("DOGE"))
}

func TestValidateFlagsNestedSensitiveFields(t *testing.T) {
	payload := map[string]any{
		"symbol": "BTC",
		"features": map[string]any{
			"rsi": 65.0,
		},
		"on_chain_data": map[string]any{
			"wallet_address":   "0xdeadbeef",
			"active_addresses": 1000,
		},
	}

	safe, fields := Validate(payload)
	assert.False(t, safe)
	require.Len(t, fields, 1)
	assert.Equal(t, "on_chain_data.wallet_address", fields[0])
}

func TestValidateIsCaseInsensitive(t *testing.T) {
	safe, fields := Validate(map[string]any{"API_Key": "secret"})
	assert.False(t, safe)
	assert.NotEmpty(t, fields)
}

func TestValidateScansSliceElements(t *testing.T) {
	payload := map[string]any{
		"accounts_meta": []any{
			map[string]any{"balance": 12.5},
		},
	}
	safe, fields := Validate(payload)
	assert.False(t, safe)
	assert.NotEmpty(t, fields)
}

func TestValidateCleanPayload(t *testing.T) {
	payload := map[string]any{
		"symbol": "BTC",
		"price":  50000.0,
		"features": map[string]any{
			"rsi":  65.0,
			"macd": 1.2,
		},
		"sentiment_data": map[string]any{
			"fear_greed_index": 72,
		},
	}
	safe, fields := Validate(payload)
	assert.True(t, safe)
	assert.Empty(t, fields)
}
