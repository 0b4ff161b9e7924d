package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"FinInfer/internal/domain/models"
	domsvc "FinInfer/internal/domain/service"
	"FinInfer/internal/handler/ws"
	"FinInfer/internal/middleware"
	"FinInfer/internal/service/ratelimit"
	"FinInfer/internal/usecase"
	xhttp "FinInfer/pkg/http"
	applogger "FinInfer/pkg/logger"
)

// InferenceHandler exposes the inference, stats, and health endpoints plus
// the decision WebSocket stream.
type InferenceHandler struct {
	orch     *usecase.Orchestrator
	risk     domsvc.RiskAssessor
	pipeline *middleware.DecisionPipeline
	hub      *ws.Hub
	rl       *ratelimit.Limiter
	log      *applogger.Logger
}

func NewInferenceHandler(
	orch *usecase.Orchestrator,
	risk domsvc.RiskAssessor,
	pipeline *middleware.DecisionPipeline,
	hub *ws.Hub,
	rl *ratelimit.Limiter,
	log *applogger.Logger,
) *InferenceHandler {
	return &InferenceHandler{
		orch:     orch,
		risk:     risk,
		pipeline: pipeline,
		hub:      hub,
		rl:       rl,
		log:      log,
	}
}

// RegisterRoutes implements pkg/http.Handler.
func (h *InferenceHandler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/api/v1")
	v1.POST("/inference", h.Infer)
	v1.GET("/stats", h.Stats)

	e.GET("/health", h.Health)
	if h.hub != nil {
		e.GET("/ws/decisions", h.hub.Handle)
	}
}

// Infer handles a single inference request.
func (h *InferenceHandler) Infer(c echo.Context) error {
	start := time.Now()

	req := new(models.InferenceRequest)
	if errs := xhttp.ReadAndValidateRequest(c, req); errs != nil {
		return xhttp.BadRequestResponse(c, errs)
	}

	if !h.rl.Allow(req.Symbol) {
		h.log.Warn("inference rate limited", applogger.String("symbol", req.Symbol))
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}

	result, err := h.orch.Infer(c.Request().Context(), req)
	if err != nil {
		h.log.Error("inference failed",
			applogger.String("symbol", req.Symbol), applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	features := models.FeatureVector(req.Features)
	confidencePct := result.Confidence * 100
	assessment := h.risk.Assess(
		result.Signal,
		confidencePct,
		req.Price,
		features.Get(models.FeatureVolatility),
		features.Get(models.FeatureRSI),
		req.BidAskSpread,
	)

	resp := buildResponse(req, result, assessment)

	if h.pipeline != nil {
		h.pipeline.Dispatch(models.DecisionRecord{
			Timestamp:  time.Now().UTC(),
			Symbol:     req.Symbol,
			Signal:     result.Signal,
			Confidence: confidencePct,
			Source:     result.Source,
			Complexity: result.Metadata.Complexity,
			Cached:     result.Metadata.Cached,
			RiskScore:  assessment.RiskScore,
			ElapsedMs:  time.Since(start).Milliseconds(),
		})
	}

	return xhttp.SuccessResponse(c, resp)
}

// Stats returns orchestrator counters and derived rates.
func (h *InferenceHandler) Stats(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.Stats())
}

// Health reports component availability. Degraded operation still answers 200
// so that load balancers keep routing; the body carries the detail.
func (h *InferenceHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.Health(c.Request().Context()))
}

func buildResponse(req *models.InferenceRequest, result *models.PredictionResult, assessment models.RiskAssessment) *models.InferenceResponse {
	stopLoss := assessment.StopLoss
	takeProfit := assessment.TakeProfit
	if stopLoss == nil {
		stopLoss = result.StopLoss
	}
	if takeProfit == nil {
		takeProfit = result.TakeProfit
	}

	features := models.FeatureVector(req.Features)
	return &models.InferenceResponse{
		Signal:          result.Signal,
		Confidence:      int(result.Confidence*100 + 0.5),
		PositionSize:    assessment.PositionSize,
		EntryPrice:      req.Price,
		StopLoss:        stopLoss,
		TakeProfit:      takeProfit,
		Reasoning:       result.Reasoning,
		RiskScore:       int(assessment.RiskScore + 0.5),
		RiskFactors:     assessment.RiskFactors,
		MarketCondition: marketCondition(features),
		Source:          result.Source,
		Metadata:        result.Metadata,
		Timestamp:       time.Now().Unix(),
	}
}

// marketCondition reduces the indicator state to a coarse label for clients.
func marketCondition(features models.FeatureVector) string {
	rsi := features.Get(models.FeatureRSI)
	switch {
	case features.Has(models.FeatureRSI) && rsi < 30:
		return "Oversold"
	case features.Has(models.FeatureRSI) && rsi > 70:
		return "Overbought"
	case features.Get(models.FeatureVolatility) > 3:
		return "Volatile"
	default:
		return "Sideways"
	}
}
