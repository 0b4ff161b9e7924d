package ensemble

import (
	"fmt"
	"strings"

	"FinInfer/internal/domain/models"
	domsvc "FinInfer/internal/domain/service"
	"FinInfer/pkg/logger"
)

// Predictor combines the probability triples of several member models by
// weighted averaging. Weights are fixed at construction and renormalized per
// request over the sources that actually produced a result: a failed
// member's weight is dropped, never redistributed implicitly.
type Predictor struct {
	weights map[string]float64
	members []domsvc.MemberPredictor
	log     *logger.Logger
}

// New normalizes the configured per-source weights to sum to 1. Sources with
// no configured weight contribute nothing to the weighted average.
func New(weights map[string]float64, log *logger.Logger, members ...domsvc.MemberPredictor) *Predictor {
	normalized := make(map[string]float64, len(weights))
	var total float64
	for _, w := range weights {
		total += w
	}
	if total > 0 {
		for source, w := range weights {
			normalized[source] = w / total
		}
	}
	return &Predictor{weights: normalized, members: members, log: log}
}

// Predict runs every member and combines the survivors. A member error is
// logged and its result dropped; Predict itself never fails.
func (p *Predictor) Predict(features models.FeatureVector, history []models.FeatureVector) (models.PredictionResult, models.EnsembleConsensus) {
	results := make([]models.PredictionResult, 0, len(p.members))
	for _, member := range p.members {
		res, err := member.Predict(features, history)
		if err != nil {
			if p.log != nil {
				p.log.Warn("ensemble member failed",
					logger.String("member", member.Name()), logger.Error(err))
			}
			continue
		}
		results = append(results, res)
	}
	return p.Combine(results)
}

// Combine performs the weighted average over the present sources. If no
// source produced a result it returns HOLD at confidence 0.5 with an
// explicit marker instead of failing.
func (p *Predictor) Combine(results []models.PredictionResult) (models.PredictionResult, models.EnsembleConsensus) {
	if len(results) == 0 {
		return models.PredictionResult{
			Signal:        models.SignalHold,
			Confidence:    0.5,
			Probabilities: models.Probabilities{Buy: 0.33, Hold: 0.34, Sell: 0.33},
			Reasoning:     "all predictors failed",
			Source:        models.SourceEnsemble,
		}, models.EnsembleConsensus{}
	}

	var weighted models.Probabilities
	var totalWeight float64
	for _, res := range results {
		w := p.weights[res.Source]
		weighted.Buy += res.Probabilities.Buy * w
		weighted.Hold += res.Probabilities.Hold * w
		weighted.Sell += res.Probabilities.Sell * w
		totalWeight += w
	}
	if totalWeight > 0 {
		weighted.Buy /= totalWeight
		weighted.Hold /= totalWeight
		weighted.Sell /= totalWeight
	} else {
		// No present source carries a configured weight; fall back to a
		// uniform distribution.
		weighted = models.Probabilities{Buy: 0.33, Hold: 0.34, Sell: 0.33}
	}

	signal, confidence := argmax(weighted)
	consensus := consensusOf(results)

	sources := make([]string, 0, len(results))
	for _, res := range results {
		sources = append(sources, res.Source)
	}

	return models.PredictionResult{
		Signal:        signal,
		Confidence:    confidence,
		Probabilities: weighted,
		PositionSize:  positionFromConsensus(confidence, consensus),
		Reasoning: fmt.Sprintf("weighted average over %s (consensus %.0f%%)",
			strings.Join(sources, ", "), consensus.ConsensusRate),
		Source: models.SourceEnsemble,
	}, consensus
}

// argmax picks the class with the highest weighted probability. Ties resolve
// to the lowest-index class in the fixed order BUY, HOLD, SELL.
func argmax(p models.Probabilities) (models.Signal, float64) {
	signal, best := models.SignalBuy, p.Buy
	if p.Hold > best {
		signal, best = models.SignalHold, p.Hold
	}
	if p.Sell > best {
		signal, best = models.SignalSell, p.Sell
	}
	return signal, best
}

func consensusOf(results []models.PredictionResult) models.EnsembleConsensus {
	c := models.EnsembleConsensus{TotalModels: len(results)}
	for _, res := range results {
		switch res.Signal {
		case models.SignalBuy:
			c.BuyCount++
		case models.SignalSell:
			c.SellCount++
		default:
			c.HoldCount++
		}
	}

	maxCount := c.BuyCount
	if c.HoldCount > maxCount {
		maxCount = c.HoldCount
	}
	if c.SellCount > maxCount {
		maxCount = c.SellCount
	}
	if c.TotalModels > 0 {
		c.ConsensusRate = float64(maxCount) / float64(c.TotalModels) * 100
	}
	c.IsUnanimous = maxCount == c.TotalModels && c.TotalModels > 0
	c.IsMajority = float64(maxCount) > float64(c.TotalModels)/2
	return c
}

// positionFromConsensus sizes more aggressively when members agree.
func positionFromConsensus(confidence float64, c models.EnsembleConsensus) float64 {
	size := 0.1
	if confidence >= 0.6 {
		size = 0.2
	}
	if confidence >= 0.7 && c.IsMajority {
		size = 0.3
	}
	if confidence >= 0.8 && c.IsUnanimous {
		size = 0.5
	}
	return size
}
