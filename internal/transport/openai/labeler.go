package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/topicdex/internal/domain"
	"github.com/kailas-cloud/topicdex/internal/metrics"
)

const (
	systemPrompt = "You label topics discovered in a document collection. " +
		"Reply with a short topic name of at most six words and nothing else."
	maxSampleRunes = 500
	maxTokens      = 32
)

// Labeler names topics through an OpenAI-compatible chat completion API.
type Labeler struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// Config holds the labeling provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewLabeler creates an OpenAI-compatible topic labeler.
func NewLabeler(cfg *Config) *Labeler {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Labeler{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Summarize returns a short human-readable name for a topic described by its
// keywords and a few representative documents.
func (l *Labeler) Summarize(ctx context.Context, keywords, samples []string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       l.model,
		MaxTokens:   maxTokens,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(keywords, samples)},
		},
	})
	duration := time.Since(start)

	if err != nil {
		metrics.LabelingRequestsTotal.WithLabelValues(l.model, "error").Inc()
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.LabelingRequestsTotal.WithLabelValues(l.model, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrLabelingFailed)
	}

	label := cleanLabel(resp.Choices[0].Message.Content)
	if label == "" {
		metrics.LabelingRequestsTotal.WithLabelValues(l.model, "error").Inc()
		return "", fmt.Errorf("blank completion: %w", domain.ErrLabelingFailed)
	}

	metrics.LabelingRequestsTotal.WithLabelValues(l.model, "success").Inc()
	l.logger.Debug("Topic labeled",
		zap.String("label", label),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return label, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (l *Labeler) HealthCheck(ctx context.Context) error {
	if _, err := l.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func buildPrompt(keywords, samples []string) string {
	var b strings.Builder
	b.WriteString("Keywords: ")
	b.WriteString(strings.Join(keywords, ", "))
	if len(samples) > 0 {
		b.WriteString("\n\nRepresentative documents:\n")
		for _, s := range samples {
			b.WriteString("- ")
			b.WriteString(truncate(strings.Join(strings.Fields(s), " "), maxSampleRunes))
			b.WriteString("\n")
		}
	}
	b.WriteString("\nTopic name:")
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// cleanLabel strips quotes, a "Topic:" prefix and trailing punctuation models tend to add.
func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	if line, _, ok := strings.Cut(s, "\n"); ok {
		s = strings.TrimSpace(line)
	}
	for _, prefix := range []string{"Topic name:", "Topic:", "Label:"} {
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			s = strings.TrimSpace(s[len(prefix):])
		}
	}
	s = strings.Trim(s, "\"'`*")
	return strings.TrimRight(strings.TrimSpace(s), ".")
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrLabelingFailed.
func parseAPIError(err error) error {
	wrap := domain.ErrLabelingFailed

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("labeling request: %w: %w", wrap, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("labeling API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("labeling API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("labeling request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
