package remote

import (
	"encoding/json"
	"regexp"

	"FinInfer/internal/domain/models"
)

// jsonObject extracts the outermost JSON object from free-form model output.
var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

type signalPayload struct {
	Signal       *string  `json:"signal"`
	Confidence   *float64 `json:"confidence"`
	PositionSize *float64 `json:"position_size"`
	StopLoss     *float64 `json:"stop_loss"`
	TakeProfit   *float64 `json:"take_profit"`
	Reasoning    *string  `json:"reasoning"`
}

// parseResponse validates the model output in strict mode: missing required
// fields or out-of-range values are rejected with a ParseError, never
// clamped. This is deliberately the opposite of the tolerant local parser.
func parseResponse(content string) (models.PredictionResult, error) {
	raw := jsonObject.FindString(content)
	if raw == "" {
		return models.PredictionResult{}, &models.ParseError{Reason: "no JSON object in response"}
	}

	var payload signalPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return models.PredictionResult{}, &models.ParseError{Reason: "invalid JSON: " + err.Error()}
	}

	switch {
	case payload.Signal == nil:
		return models.PredictionResult{}, &models.ParseError{Reason: "missing field: signal"}
	case payload.Confidence == nil:
		return models.PredictionResult{}, &models.ParseError{Reason: "missing field: confidence"}
	case payload.PositionSize == nil:
		return models.PredictionResult{}, &models.ParseError{Reason: "missing field: position_size"}
	case payload.Reasoning == nil:
		return models.PredictionResult{}, &models.ParseError{Reason: "missing field: reasoning"}
	}

	signal := models.Signal(*payload.Signal)
	if !signal.ValidPredictorSignal() {
		return models.PredictionResult{}, &models.ParseError{Reason: "invalid signal: " + *payload.Signal}
	}
	if *payload.Confidence < 0 || *payload.Confidence > 1 {
		return models.PredictionResult{}, &models.ParseError{Reason: "confidence out of range"}
	}
	if *payload.PositionSize < 0 || *payload.PositionSize > 1 {
		return models.PredictionResult{}, &models.ParseError{Reason: "position_size out of range"}
	}

	result := models.PredictionResult{
		Signal:        signal,
		Confidence:    *payload.Confidence,
		Probabilities: probabilitiesFromConfidence(signal, *payload.Confidence),
		PositionSize:  *payload.PositionSize,
		Reasoning:     *payload.Reasoning,
		Source:        models.SourceRemote,
	}
	if signal.Directional() {
		result.StopLoss = payload.StopLoss
		result.TakeProfit = payload.TakeProfit
	}
	return result, nil
}

// probabilitiesFromConfidence back-fills a probability triple for a backend
// that reports only its chosen class and confidence.
func probabilitiesFromConfidence(signal models.Signal, confidence float64) models.Probabilities {
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
