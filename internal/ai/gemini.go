// Package ai provides the remote text generation client used by the
// natural-language task parser.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/contracts"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/logging"
	"github.com/mrz1836/taskflow/internal/retry"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// HTTPDoer is the subset of *http.Client used by GeminiClient.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// GeminiClient calls the Gemini generateContent endpoint.
// It implements contracts.TextGenerator.
type GeminiClient struct {
	http     HTTPDoer
	endpoint string
	model    string
	apiKey   string
	timeout  time.Duration
	limiter  *rate.Limiter
	policy   retry.Policy
	logger   zerolog.Logger
}

// Ensure GeminiClient implements contracts.TextGenerator.
var _ contracts.TextGenerator = (*GeminiClient)(nil)

// Option configures a GeminiClient.
type Option func(*GeminiClient)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(g *GeminiClient) { g.http = c }
}

// WithLogger sets the client's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *GeminiClient) { g.logger = logging.WithComponent(l, logging.ComponentParser) }
}

// NewGeminiClient builds a client from parser config. apiKey is read by the
// caller from the environment variable named in cfg.APIKeyEnvVar.
// Requests are throttled to cfg.RequestsPerMinute.
func NewGeminiClient(cfg *config.ParserConfig, apiKey string, opts ...Option) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, tferrors.Wrapf(tferrors.ErrGeneratorUnavailable, "%s is not set", cfg.APIKeyEnvVar)
	}

	rpm := max(cfg.RequestsPerMinute, 1)
	g := &GeminiClient{
		http:     &http.Client{},
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		model:    cfg.Model,
		apiKey:   apiKey,
		timeout:  cfg.Timeout,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		policy: retry.Policy{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: time.Second,
			MaxBackoff:     5 * time.Second,
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate sends prompt to the model and returns the first candidate's text.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := retry.Do(ctx, g.logger, g.policy, func(ctx context.Context) error {
		if err := g.limiter.Wait(ctx); err != nil {
			return retry.Permanent(tferrors.Wrap(tferrors.ErrRateLimited, err.Error()))
		}
		var callErr error
		text, callErr = g.call(ctx, prompt)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// call performs a single generateContent request.
func (g *GeminiClient) call(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	body, err := jsonBody(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", retry.Permanent(err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", g.endpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", retry.Permanent(tferrors.Wrap(tferrors.ErrAIRequestFailed, err.Error()))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	start := time.Now()
	resp, err := g.http.Do(req)
	if err != nil {
		return "", tferrors.Wrap(tferrors.ErrAIRequestFailed, logging.FilterSensitiveValue(err.Error()))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", tferrors.Wrap(tferrors.ErrAIRequestFailed, err.Error())
	}

	g.logger.Debug().
		Str("model", g.model).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("generateContent finished")

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("%w: status %d", tferrors.ErrAIRequestFailed, resp.StatusCode)
		if !retryableStatus(resp.StatusCode) {
			return "", retry.Permanent(statusErr)
		}
		return "", statusErr
	}

	text, err := parseGeminiResponse(data)
	if err != nil {
		return "", retry.Permanent(err)
	}
	return text, nil
}

// retryableStatus reports whether an HTTP status is worth retrying:
// 429 and any 5xx.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}
