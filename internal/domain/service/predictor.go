package service

import (
	"context"

	"FinInfer/internal/domain/models"
)

// Predictor is the capability contract every signal backend exposes to the
// orchestrator. Implementations are side-effect-free from the orchestrator's
// point of view.
type Predictor interface {
	Predict(snapshot models.MarketSnapshot, features models.FeatureVector) (models.PredictionResult, error)
	Source() string
}

// MemberPredictor is implemented by ensemble member models. History carries
// an optional sequence of past feature vectors for sequence-aware members.
type MemberPredictor interface {
	Predict(features models.FeatureVector, history []models.FeatureVector) (models.PredictionResult, error)
	Name() string
}

// RemoteAnalyzer wraps the external reasoning API. Inputs must already have
// passed the privacy gate.
type RemoteAnalyzer interface {
	Analyze(ctx context.Context, snapshot models.MarketSnapshot, features models.FeatureVector, sentiment, onchain map[string]any) (models.PredictionResult, error)
}

// RiskAssessor converts a signal and market statistics into position sizing.
// Confidence is expressed as a percentage.
type RiskAssessor interface {
	Assess(signal models.Signal, confidence, price, volatility, rsi, spread float64) models.RiskAssessment
}
