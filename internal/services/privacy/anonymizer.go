package privacy

import (
	"strings"

	"FinInfer/internal/domain/models"
)

// featureWhitelist enumerates the standard indicator names allowed to leave
// the process boundary. Anything else is dropped silently.
var featureWhitelist = map[string]struct{}{
	"sma_5": {}, "sma_10": {}, "sma_20": {}, "sma_50": {}, "sma_200": {},
	"ema_5": {}, "ema_12": {}, "ema_20": {}, "ema_26": {}, "ema_50": {},
	"macd": {}, "macd_signal": {}, "macd_hist": {},
	"rsi": {}, "rsi_6": {}, "rsi_14": {}, "rsi_24": {},
	"stoch_k": {}, "stoch_d": {}, "cci": {},
	"bollinger_upper": {}, "bollinger_middle": {}, "bollinger_lower": {},
	"bollinger_position": {}, "bollinger_width": {},
	"atr": {}, "atr_percent": {},
	"volume_ratio": {}, "volume_ma": {}, "obv": {}, "mfi": {},
	"adx": {}, "williams_r": {},
}

var sentimentWhitelist = map[string]struct{}{
	"fear_greed_index": {},
	"social_sentiment": {},
	"news_sentiment":   {},
}

var onChainWhitelist = map[string]struct{}{
	"exchange_inflow":    {},
	"exchange_outflow":   {},
	"active_addresses":   {},
	"transaction_volume": {},
}

// Anonymizer strips request data down to whitelisted fields before it is
// sent to a remote backend.
type Anonymizer struct{}

func NewAnonymizer() *Anonymizer { return &Anonymizer{} }

// Anonymize returns sanitized copies of the inputs: market fields reduced to
// a fixed subset with a generalized symbol, features and optional
// sentiment/on-chain metrics filtered against their whitelists.
func (a *Anonymizer) Anonymize(
	snapshot models.MarketSnapshot,
	features models.FeatureVector,
	sentiment map[string]any,
	onChain map[string]any,
) (models.MarketSnapshot, models.FeatureVector, map[string]any, map[string]any) {
	safeSnapshot := models.MarketSnapshot{
		Symbol:    generalizeSymbol(snapshot.Symbol),
		Price:     snapshot.Price,
		High24h:   snapshot.High24h,
		Low24h:    snapshot.Low24h,
		Volume24h: snapshot.Volume24h,
	}

	safeFeatures := make(models.FeatureVector, len(features))
	for key, value := range features {
		if _, ok := featureWhitelist[strings.ToLower(key)]; ok {
			safeFeatures[key] = value
		}
	}

	return safeSnapshot, safeFeatures,
		filterKeys(sentiment, sentimentWhitelist),
		filterKeys(onChain, onChainWhitelist)
}

func filterKeys(in map[string]any, allow map[string]struct{}) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		if _, ok := allow[strings.ToLower(key)]; ok {
			out[key] = value
		}
	}
	return out
}

// generalizeSymbol reduces a trading pair to its base asset so the remote
// side cannot infer the venue or quote currency.
func generalizeSymbol(symbol string) string {
	for _, sep := range []string{"/", "-", "_"} {
		if idx := strings.Index(symbol, sep); idx > 0 {
			return symbol[:idx]
		}
	}
	return symbol
}
