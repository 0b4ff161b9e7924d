package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinInfer/internal/domain/models"
	"FinInfer/internal/middleware"
	"FinInfer/internal/service/ratelimit"
	"FinInfer/internal/services/ensemble"
	"FinInfer/internal/services/local"
	"FinInfer/internal/services/risk"
	"FinInfer/internal/usecase"
	applogger "FinInfer/pkg/logger"
)

type noopMetrics struct{}

func (noopMetrics) RecordRequest(string)          {}
func (noopMetrics) RecordCacheHit()               {}
func (noopMetrics) RecordFallback()               {}
func (noopMetrics) RecordError(string)            {}
func (noopMetrics) RecordLatency(string, float64) {}
func (noopMetrics) SetBreakerOpen(bool)           {}

func newTestHandler(t *testing.T, rl *ratelimit.Limiter) *InferenceHandler {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stdout"})
	require.NoError(t, err)

	ens := ensemble.New(map[string]float64{
		models.SourceMomentum:      0.3,
		models.SourceMeanReversion: 0.3,
		models.SourceBreakout:      0.4,
	}, log, ensemble.Momentum{}, ensemble.MeanReversion{}, ensemble.Breakout{})

	orch := usecase.NewOrchestrator(
		usecase.Config{FallbackLocal: true}, nil, nil, local.New(), ens, noopMetrics{}, log)

	pipeline := middleware.NewDecisionPipeline(nil, nil, noopMetrics{}, log)
	riskManager := risk.NewManager(risk.Config{})

	if rl == nil {
		rl = ratelimit.New(100, 100)
	}
	return NewInferenceHandler(orch, riskManager, pipeline, nil, rl, log)
}

func performJSON(t *testing.T, h *InferenceHandler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (int, json.RawMessage) {
	t.Helper()
	var envelope struct {
		Status int             `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Status, envelope.Data
}

const inferenceBody = `{
	"symbol": "BTC",
	"price": 50000,
	"high_24h": 51000,
	"low_24h": 48000,
	"volume_24h": 1000000,
	"bid_ask_spread": 10,
	"features": {"rsi": 18, "bollinger_position": 0.05, "volume_ratio": 2.5, "atr_percent": 0.8}
}`

func TestInferEndpoint(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := performJSON(t, h, http.MethodPost, "/api/v1/inference", inferenceBody)

	require.Equal(t, http.StatusOK, rec.Code)
	status, data := decodeEnvelope(t, rec)
	require.Equal(t, http.StatusOK, status)

	var resp models.InferenceResponse
	require.NoError(t, json.Unmarshal(data, &resp))

	assert.Equal(t, models.SignalBuy, resp.Signal)
	assert.GreaterOrEqual(t, resp.Confidence, 60)
	assert.LessOrEqual(t, resp.Confidence, 100)
	assert.GreaterOrEqual(t, resp.PositionSize, 100.0)
	assert.Equal(t, 50000.0, resp.EntryPrice)
	require.NotNil(t, resp.StopLoss)
	assert.Less(t, *resp.StopLoss, resp.EntryPrice)
	require.NotNil(t, resp.TakeProfit)
	assert.Greater(t, *resp.TakeProfit, resp.EntryPrice)
	assert.Equal(t, "Oversold", resp.MarketCondition)
	assert.Equal(t, models.SourceLocalRule, resp.Source)
	require.NotNil(t, resp.Metadata)
	assert.Equal(t, models.ComplexitySimple, resp.Metadata.Complexity)
	assert.Len(t, resp.RiskFactors, 4)
}

func TestInferEndpointValidation(t *testing.T) {
	h := newTestHandler(t, nil)

	// Missing price and features.
	rec := performJSON(t, h, http.MethodPost, "/api/v1/inference", `{"symbol": "BTC"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	status, _ := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestInferEndpointInvalidModelType(t *testing.T) {
	h := newTestHandler(t, nil)

	body := `{"symbol": "BTC", "price": 50000, "features": {"rsi": 50}, "model_type": "quantum"}`
	rec := performJSON(t, h, http.MethodPost, "/api/v1/inference", body)
	status, _ := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestInferEndpointRateLimited(t *testing.T) {
	h := newTestHandler(t, ratelimit.New(1, 0.001))

	rec := performJSON(t, h, http.MethodPost, "/api/v1/inference", inferenceBody)
	status, _ := decodeEnvelope(t, rec)
	require.Equal(t, http.StatusOK, status)

	rec = performJSON(t, h, http.MethodPost, "/api/v1/inference", inferenceBody)
	status, _ = decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestStatsEndpoint(t *testing.T) {
	h := newTestHandler(t, nil)
	performJSON(t, h, http.MethodPost, "/api/v1/inference", inferenceBody)

	rec := performJSON(t, h, http.MethodGet, "/api/v1/stats", "")
	status, data := decodeEnvelope(t, rec)
	require.Equal(t, http.StatusOK, status)

	var stats models.StatsSnapshot
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.LocalCalls)
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := performJSON(t, h, http.MethodGet, "/health", "")
	status, data := decodeEnvelope(t, rec)
	require.Equal(t, http.StatusOK, status)

	var health models.HealthReport
	require.NoError(t, json.Unmarshal(data, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "disabled", health.Components["remote_api"])
	assert.Equal(t, "disabled", health.Components["cache"])
}
