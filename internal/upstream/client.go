// Package upstream talks to the OpenAI-compatible chat completions service.
//
// The request and error shapes come from the go-openai SDK, but the
// streaming call itself goes through a plain HTTP client: the relay
// contract requires the raw SSE byte stream forwarded verbatim, which the
// SDK's parsed stream reader cannot provide.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/policy-oracle/policyoracle/internal/domain"
	"github.com/policy-oracle/policyoracle/internal/metrics"
)

const defaultConnectTimeout = 10 * time.Second

// Config holds the completion service settings.
type Config struct {
	BaseURL        string // e.g. https://api.openai.com/v1
	APIKey         string
	Model          string
	ConnectTimeout time.Duration // bounds dial + response headers, not the stream
	Logger         *zap.Logger
}

// Client issues streaming chat completion requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
}

// NewClient creates an upstream client. The connect timeout bounds dialing
// and waiting for response headers; the stream itself is unbounded and
// terminated by context cancellation or upstream EOF.
func NewClient(cfg *Config) *Client {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}

	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: connectTimeout,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     cfg.Logger,
	}
}

// StreamChat sends the message list with streaming enabled and returns the
// raw response body. The caller owns closing it. Non-success responses are
// classified into domain errors and never reach the streaming path.
func (c *Client) StreamChat(ctx context.Context, messages []openai.ChatCompletionMessage) (io.ReadCloser, error) {
	body, err := json.Marshal(openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamStreamsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("completion request failed: %w: %w", domain.ErrUpstreamError, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.classifyError(resp)
	}

	metrics.UpstreamStreamsTotal.WithLabelValues("ok").Inc()
	return resp.Body, nil
}

// classifyError maps upstream non-success responses onto the error
// taxonomy: rate limits and quota exhaustion are distinguished from
// generic failures and never retried here.
func (c *Client) classifyError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := parseAPIError(raw)

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		metrics.UpstreamStreamsTotal.WithLabelValues("rate_limited").Inc()
		return fmt.Errorf("upstream status 429: %w", domain.ErrRateLimited)
	case http.StatusPaymentRequired:
		metrics.UpstreamStreamsTotal.WithLabelValues("quota").Inc()
		return fmt.Errorf("upstream status 402: %w", domain.ErrQuotaExceeded)
	default:
		metrics.UpstreamStreamsTotal.WithLabelValues("error").Inc()
		c.logger.Error("upstream completion error",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail),
		)
		if detail != "" {
			return fmt.Errorf("upstream status %d: %s: %w", resp.StatusCode, detail, domain.ErrUpstreamError)
		}
		return fmt.Errorf("upstream status %d: %w", resp.StatusCode, domain.ErrUpstreamError)
	}
}

// parseAPIError extracts a human-readable message from an OpenAI-format
// error body.
func parseAPIError(raw []byte) string {
	var parsed openai.ErrorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(raw))
}
