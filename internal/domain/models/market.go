package models

// MarketSnapshot is the caller-supplied view of current market state.
// It is immutable for the lifetime of a request.
type MarketSnapshot struct {
	Symbol       string  `json:"symbol"`
	Price        float64 `json:"price"`
	High24h      float64 `json:"high_24h"`
	Low24h       float64 `json:"low_24h"`
	Volume24h    float64 `json:"volume_24h"`
	BidAskSpread float64 `json:"bid_ask_spread"`
	FundingRate  float64 `json:"funding_rate,omitempty"`
}

// FeatureVector maps technical indicator names (rsi, macd, volume_ratio, ...)
// to their computed values. Produced by the caller's feature pipeline and
// consumed read-only by every component.
type FeatureVector map[string]float64

// Common indicator keys used across classification and rule evaluation.
const (
	FeatureRSI               = "rsi"
	FeatureMACD              = "macd"
	FeatureMACDSignal        = "macd_signal"
	FeatureBollingerPosition = "bollinger_position"
	FeatureVolumeRatio       = "volume_ratio"
	FeatureVolatility        = "atr_percent"
)

// Get returns the named feature, or zero when absent. Missing indicators are
// treated as neutral rather than errors so pure evaluators stay total.
func (f FeatureVector) Get(name string) float64 {
	return f[name]
}

// Has reports whether the named feature is present.
func (f FeatureVector) Has(name string) bool {
	_, ok := f[name]
	return ok
}
