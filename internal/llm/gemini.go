package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"mailtriage/pkg/circuitbreaker"
	"mailtriage/pkg/config"
	"mailtriage/pkg/logger"
	"mailtriage/pkg/metrics"
)

const DefaultModel = "gemini-2.5-pro"

// generator is the slice of the genai Models service the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient implements Completer over the Gemini API.
type GeminiClient struct {
	models  generator
	model   string
	timeout time.Duration
	cb      *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewGeminiClient builds a client from configuration. An empty API key is
// rejected here so the batch fails fast instead of per email.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return newGeminiClient(client.Models, cfg, logger), nil
}

func newGeminiClient(models generator, cfg config.LLMConfig, logger *zap.Logger) *GeminiClient {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	breakerCfg := circuitbreaker.FromConfig(cfg.Breaker)
	// 配额错误不计入熔断：它们已经按封终止
	breakerCfg.IsFailure = func(err error) bool {
		return !IsQuota(err) && !errors.Is(err, context.Canceled)
	}

	return &GeminiClient{
		models:  models,
		model:   model,
		timeout: cfg.Timeout,
		cb:      circuitbreaker.NewCircuitBreaker(breakerCfg),
		logger:  logger,
	}
}

// Complete sends prompt as a single user turn and returns the response text.
func (c *GeminiClient) Complete(ctx context.Context, prompt string, opts ...Option) (string, error) {
	o := Apply(opts...)
	log := logger.WithTrace(ctx, c.logger).With(zap.String("kind", o.Kind), zap.String("model", c.model))

	var text string
	err := c.cb.ExecuteContext(ctx, func(ctx context.Context) error {
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		start := time.Now()
		resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
			Temperature: o.Temperature,
		})
		if err != nil {
			err = classify(err)
			metrics.RecordCompletionLatency(o.Kind, statusLabel(err), time.Since(start))
			return err
		}
		metrics.RecordCompletionLatency(o.Kind, "success", time.Since(start))

		text = resp.Text()
		return nil
	})

	if errors.Is(err, circuitbreaker.ErrOpen) {
		log.Warn("Completion rejected, circuit breaker open")
		return "", ServiceError(err)
	}
	if err != nil {
		log.Error("Completion failed", zap.Error(err))
		var kindErr *Error
		if !errors.As(err, &kindErr) {
			err = ServiceError(err)
		}
		return "", err
	}

	log.Debug("Completion succeeded", zap.Int("chars", len(text)))
	return text, nil
}

// classify maps a genai error onto a failure kind.
func classify(err error) error {
	if isQuotaAPIError(err) {
		return QuotaError(err)
	}
	return ServiceError(err)
}

func isQuotaAPIError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || strings.EqualFold(apiErr.Status, "RESOURCE_EXHAUSTED")
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusTooManyRequests || strings.EqualFold(apiErrPtr.Status, "RESOURCE_EXHAUSTED")
	}
	return false
}

func statusLabel(err error) string {
	if IsQuota(err) {
		return "quota"
	}
	return "error"
}
