package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinInfer/internal/domain/models"
	"FinInfer/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func testClient(t *testing.T, url string) *Client {
	t.Helper()
	c := NewClient(Config{
		APIURL:     url,
		APIKey:     "test-key",
		Model:      "test-model",
		MaxRetries: 3,
	}, testLogger(t))
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(body)
}

func validContent() string {
	return `Here is my analysis.
{"signal": "BUY", "confidence": 0.82, "position_size": 0.25,
 "stop_loss": 48500.0, "take_profit": 52000.0,
 "reasoning": "oversold bounce with volume confirmation"}`
}

var testSnapshot = models.MarketSnapshot{
	Symbol:       "BTC",
	Price:        50000,
	High24h:      51000,
	Low24h:       48000,
	Volume24h:    1e6,
	BidAskSpread: 10,
}

var testFeatures = models.FeatureVector{
	models.FeatureRSI:  28,
	models.FeatureMACD: -1.1,
}

func TestAnalyzeSuccess(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "BTC")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatReply(validContent())))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	result, err := c.Analyze(context.Background(), testSnapshot, testFeatures, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, models.SignalBuy, result.Signal)
	assert.Equal(t, 0.82, result.Confidence)
	assert.Equal(t, 0.25, result.PositionSize)
	assert.Equal(t, models.SourceRemote, result.Source)
	require.NotNil(t, result.StopLoss)
	assert.Equal(t, 48500.0, *result.StopLoss)
	require.NotNil(t, result.TakeProfit)
	assert.Equal(t, 52000.0, *result.TakeProfit)
}

func TestAnalyzeRetriesTransportFailures(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(chatReply(validContent())))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	result, err := c.Analyze(context.Background(), testSnapshot, testFeatures, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, models.SignalBuy, result.Signal)
}

func TestAnalyzeExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.Analyze(context.Background(), testSnapshot, testFeatures, nil, nil)

	var apiErr *models.RemoteAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 3, apiErr.Attempts)
	assert.Equal(t, 3, calls)
}

func TestAnalyzeParseFailureDoesNotRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// Missing the required confidence field.
		w.Write([]byte(chatReply(`{"signal": "BUY", "position_size": 0.2, "reasoning": "x"}`)))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.Analyze(context.Background(), testSnapshot, testFeatures, nil, nil)

	var parseErr *models.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, calls, "a well-formed transport with bad content must not retry")
}

func TestAnalyzeContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	c.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Analyze(ctx, testSnapshot, testFeatures, nil, nil)
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		var apiErr *models.RemoteAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, errors.Is(apiErr.Err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("Analyze did not return after context cancellation")
	}
}

func TestParseResponseStrictValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		reason  string
	}{
		{"no json", "SELL with high confidence", "no JSON object"},
		{"missing signal", `{"confidence": 0.8, "position_size": 0.2, "reasoning": "x"}`, "missing field: signal"},
		{"missing reasoning", `{"signal": "SELL", "confidence": 0.8, "position_size": 0.2}`, "missing field: reasoning"},
		{"invalid signal", `{"signal": "SHORT", "confidence": 0.8, "position_size": 0.2, "reasoning": "x"}`, "invalid signal"},
		{"confidence too high", `{"signal": "BUY", "confidence": 1.5, "position_size": 0.2, "reasoning": "x"}`, "confidence out of range"},
		{"negative position", `{"signal": "BUY", "confidence": 0.8, "position_size": -0.1, "reasoning": "x"}`, "position_size out of range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseResponse(tc.content)
			var parseErr *models.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Contains(t, parseErr.Reason, tc.reason)
		})
	}
}

func TestParseResponseHoldDropsStopLevels(t *testing.T) {
	result, err := parseResponse(
		`{"signal": "HOLD", "confidence": 0.6, "position_size": 0,
		  "stop_loss": 49000, "take_profit": 51000, "reasoning": "wait"}`)
	require.NoError(t, err)
	assert.Nil(t, result.StopLoss)
	assert.Nil(t, result.TakeProfit)
	assert.InDelta(t, 0.6, result.Probabilities.Hold, 1e-9)
	assert.InDelta(t, 0.2, result.Probabilities.Buy, 1e-9)
}
