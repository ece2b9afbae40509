// Package openai is a chat-completion client for OpenAI-compatible APIs, used for model-assisted ranking.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/zokey/internal/domain"
	"github.com/kailas-cloud/zokey/internal/metrics"
	"github.com/kailas-cloud/zokey/internal/resilience"
)

const (
	providerName = "openai"

	DefaultModel       = "gpt-4-turbo-preview"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2000
)

// Ranker is a JSON-mode chat completion client (OpenAI or compatible).
type Ranker struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	executor    *resilience.Executor
	logger      *zap.Logger
}

// Config holds the ranking provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Executor    *resilience.Executor
	Logger      *zap.Logger
}

// NewRanker creates an OpenAI-compatible ranking client.
func NewRanker(cfg *Config) *Ranker {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ranker{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		executor:    cfg.Executor,
		logger:      logger,
	}
}

// CompleteJSON implements ranking.Completer. It returns the raw content of the first choice.
func (r *Ranker) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()

	var resp openai.ChatCompletionResponse
	call := func(ctx context.Context) error {
		var err error
		resp, err = r.client.CreateChatCompletion(ctx, req)
		return err
	}
	var err error
	if r.executor != nil {
		err = r.executor.Execute(ctx, providerName, call, classify)
	} else {
		err = call(ctx)
	}

	metrics.ProviderRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		metrics.ProviderRequestsTotal.WithLabelValues(providerName, "empty_response").Inc()
		return "", fmt.Errorf("empty completion: %w", domain.ErrMalformedResponse)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(providerName, "success").Inc()
	domain.UsageFromContext(ctx).Add(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	r.logger.Debug("Ranking completion received",
		zap.String("model", r.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (r *Ranker) HealthCheck(ctx context.Context) error {
	if _, err := r.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// classify maps go-openai errors onto the HTTP retry policy.
func classify(err error) resilience.Classification {
	if code := statusCode(err); code != 0 {
		return resilience.ClassifyHTTP(&resilience.StatusError{StatusCode: code})
	}
	return resilience.ClassifyHTTP(err)
}

func statusCode(err error) int {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	return 0
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrUpstream.
func parseAPIError(err error) error {
	wrap := domain.ErrUpstream

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("ranking API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("ranking API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("ranking API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if resilience.IsCircuitOpen(err) {
		return fmt.Errorf("ranking circuit open: %w: %w", wrap, err)
	}
	return fmt.Errorf("ranking request failed: %w: %w", wrap, err)
}

// extractDetail extracts the "detail" field from a JSON error body (some compatible providers use it).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
