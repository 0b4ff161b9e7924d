package remote

import (
	"context"
	"fmt"
	"time"

	"FinInfer/internal/domain/models"
	domsvc "FinInfer/internal/domain/service"
	xhttp "FinInfer/pkg/http"
	"FinInfer/pkg/logger"
)

// Client wraps one external reasoning API (OpenAI-compatible chat
// completions). It builds a structured prompt, performs the call with
// bounded retries and exponential backoff, and validates the response
// strictly: malformed output is rejected, never coerced.
type Client struct {
	http       *xhttp.Client
	apiURL     string
	apiKey     string
	model      string
	maxRetries int
	log        *logger.Logger

	// backoff is the delay before retry attempt n (0-based). Overridable in
	// tests to avoid real sleeps.
	backoff func(attempt int) time.Duration
}

type Config struct {
	APIURL         string
	APIKey         string
	Model          string
	MaxRetries     int
	RequestTimeout time.Duration
}

func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &Client{
		http:       xhttp.NewClient(xhttp.WithTimeout(cfg.RequestTimeout)),
		apiURL:     cfg.APIURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		log:        log,
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt)) * time.Second
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze requests a trading signal for the sanitized inputs. Transport
// failures are retried up to maxRetries with 2^attempt-second backoff (none
// after the final attempt); exhaustion yields a RemoteAPIError. A response
// that arrives but fails strict validation yields a ParseError immediately.
func (c *Client) Analyze(
	ctx context.Context,
	snapshot models.MarketSnapshot,
	features models.FeatureVector,
	sentiment, onChain map[string]any,
) (models.PredictionResult, error) {
	prompt := buildPrompt(snapshot, features, sentiment, onChain)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		content, err := c.complete(ctx, prompt)
		if err == nil {
			result, perr := parseResponse(content)
			if perr != nil {
				return models.PredictionResult{}, perr
			}
			return result, nil
		}

		lastErr = err
		c.log.Warn("remote analysis attempt failed",
			logger.Int("attempt", attempt+1),
			logger.Int("max_retries", c.maxRetries),
			logger.Error(err))

		if attempt == c.maxRetries-1 {
			break
		}
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return models.PredictionResult{}, &models.RemoteAPIError{Attempts: attempt + 1, Err: ctx.Err()}
		}
	}

	return models.PredictionResult{}, &models.RemoteAPIError{Attempts: c.maxRetries, Err: lastErr}
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	var resp chatResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.apiURL + "/chat/completions",
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + c.apiKey,
		},
		Body: chatRequest{
			Model:       c.model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: 0.7,
		},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ domsvc.RemoteAnalyzer = (*Client)(nil)
