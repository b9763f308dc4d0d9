// Package gemini talks to a hosted Gemini-style text generation endpoint.
//
// The client owns the cross-document request pacing and the retry policy the
// endpoint contract demands: a minimum wall-clock interval between request
// starts, and up to MaxAttempts tries per logical call with a linear backoff
// that honors a server-supplied Retry-After on 429.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cropguide/cropguide-ingest/internal/core/domain"
)

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	EmbedModel string

	// MinRequestInterval spaces outbound request starts; it is shared by
	// every caller of this client instance.
	MinRequestInterval time.Duration
	MaxAttempts        int
	BaseRetryDelay     time.Duration
	HTTPTimeout        time.Duration

	MaxPromptRunes int
}

func (c Config) normalize() Config {
	out := c
	if out.BaseURL == "" {
		out.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if out.Model == "" {
		out.Model = "gemini-1.5-flash"
	}
	if out.EmbedModel == "" {
		out.EmbedModel = "text-embedding-004"
	}
	if out.MinRequestInterval <= 0 {
		out.MinRequestInterval = time.Second
	}
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = 3
	}
	if out.BaseRetryDelay <= 0 {
		out.BaseRetryDelay = 2 * time.Second
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 60 * time.Second
	}
	if out.MaxPromptRunes <= 0 {
		out.MaxPromptRunes = 12000
	}
	return out
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.normalize()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:    rate.NewLimiter(rate.Every(cfg.MinRequestInterval), 1),
		logger:     logger,
	}
}

// GenerateCropText sends the extraction prompt for one document and returns
// the raw model text.
func (c *Client) GenerateCropText(ctx context.Context, docText, filename string) (string, error) {
	prompt := buildExtractionPrompt(docText, filename, c.cfg.MaxPromptRunes)
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":     0.1,
			"topK":            40,
			"topP":            0.95,
			"maxOutputTokens": 4096,
		},
		"safetySettings": safetySettings(),
	}

	var text string
	err := c.withRetry(ctx, "generate", func(ctx context.Context) error {
		raw, err := c.postJSON(ctx, "/v1beta/models/"+c.cfg.Model+":generateContent", body, "generate")
		if err != nil {
			return err
		}
		decoded, shape, err := decodeGeneratedText(raw)
		if err != nil {
			return err
		}
		c.logger.Debug("gemini.generate.decoded", "shape", shape, "text_len", len(decoded))
		text = decoded
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// EmbedText returns an embedding vector for search indexing and queries,
// under the same pacing and retry policy as generation.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	body := map[string]any{
		"model":   "models/" + c.cfg.EmbedModel,
		"content": map[string]any{"parts": []map[string]any{{"text": text}}},
	}

	var vector []float32
	err := c.withRetry(ctx, "embed", func(ctx context.Context) error {
		raw, err := c.postJSON(ctx, "/v1beta/models/"+c.cfg.EmbedModel+":embedContent", body, "embed")
		if err != nil {
			return err
		}
		values, err := decodeEmbedding(raw)
		if err != nil {
			return err
		}
		vector = values
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}

// withRetry paces the call through the shared limiter and applies the
// endpoint retry contract: up to MaxAttempts tries, waiting Retry-After on
// 429 when the server supplied one, else BaseRetryDelay × attempt. Caller
// cancellation is never retried; a per-request timeout from the HTTP client
// is retried like any other failure. The terminal error distinguishes an
// exhausted rate limit from any other failure.
func (c *Client) withRetry(ctx context.Context, operation string, fn func(context.Context) error) error {
	var (
		lastErr     error
		rateLimited bool
	)

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		// http.Client timeout errors also satisfy errors.Is(err,
		// context.DeadlineExceeded), so only the caller context decides
		// whether the failure is terminal.
		if ctx.Err() != nil {
			return err
		}

		lastErr = err
		wait := c.cfg.BaseRetryDelay * time.Duration(attempt)
		rateLimited = false

		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
			rateLimited = true
			if statusErr.RetryAfter > 0 {
				wait = statusErr.RetryAfter
			}
		}

		if attempt == c.cfg.MaxAttempts {
			break
		}

		c.logger.Warn("gemini.retry",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", c.cfg.MaxAttempts,
			"wait_ms", wait.Milliseconds(),
			"rate_limited", rateLimited,
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if rateLimited {
		return domain.WrapError(domain.ErrRateLimited, "gemini "+operation,
			fmt.Errorf("gave up after %d attempts: %w", c.cfg.MaxAttempts, lastErr))
	}
	return fmt.Errorf("gemini %s: gave up after %d attempts: %w", operation, c.cfg.MaxAttempts, lastErr)
}

func safetySettings() []map[string]string {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}
	settings := make([]map[string]string, 0, len(categories))
	for _, cat := range categories {
		settings = append(settings, map[string]string{
			"category":  cat,
			"threshold": "BLOCK_MEDIUM_AND_ABOVE",
		})
	}
	return settings
}

func joinNonEmpty(parts []string, sep string) string {
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
