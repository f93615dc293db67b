package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "betlogic/errors"
	"betlogic/utils"

	"go.uber.org/zap"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultBaseTimeout = 22 * time.Second
	defaultTimeoutStep = 4 * time.Second
	defaultMaxTokens   = 650
	maxRawBodyBytes    = 8000

	nonJSONBackoff = 300 * time.Millisecond
	statusBackoff  = 350 * time.Millisecond
	fetchBackoff   = 400 * time.Millisecond
)

// FailureKind classifies why an upstream call did not produce text.
type FailureKind string

const (
	KindHTTPStatus FailureKind = "http_status"
	KindNonJSON    FailureKind = "non_json"
	KindTimeout    FailureKind = "timeout"
	KindFetch      FailureKind = "fetch"
	KindDecode     FailureKind = "decode"
)

// Config captures the runtime settings required to talk to the provider.
type Config struct {
	APIKey           string
	BaseURL          string
	Model            string
	Referer          string
	Title            string
	MaxAttempts      int
	BaseTimeout      time.Duration
	TimeoutStep      time.Duration
	Temperature      float64
	RetryTemperature float64
	MaxTokens        int
}

// UpstreamError is the failure half of an upstream call result.
type UpstreamError struct {
	Status   int
	Kind     FailureKind
	Message  string
	Raw      string
	Attempts int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm request: %s (status %d, kind %s, attempts %d)", e.Message, e.Status, e.Kind, e.Attempts)
}

// Unwrap exposes the transient/fatal classification to errors.Is.
func (e *UpstreamError) Unwrap() error {
	if e.Retryable() {
		return apperrors.ErrUpstreamTransient
	}
	return apperrors.ErrUpstreamFatal
}

// Retryable reports whether another try could succeed. Only explicit HTTP
// statuses outside the retryable set are fatal.
func (e *UpstreamError) Retryable() bool {
	if e.Kind == KindHTTPStatus {
		return IsRetryableStatus(e.Status)
	}
	return true
}

// Timeout reports whether the failure was a per-try deadline.
func (e *UpstreamError) Timeout() bool {
	return e.Kind == KindTimeout
}

// IsRetryableStatus reports whether an HTTP status is worth another try.
func IsRetryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout,
		http.StatusConflict,
		http.StatusTooEarly,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
	sleeper    func(context.Context, time.Duration) error
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleeper func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleeper = sleeper
		}
	}
}

func New(cfg Config, logger *zap.Logger, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseTimeout <= 0 {
		cfg.BaseTimeout = defaultBaseTimeout
	}
	if cfg.TimeoutStep < 0 {
		cfg.TimeoutStep = defaultTimeoutStep
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Per-try deadlines come from the request context, so the client itself
	// carries no timeout.
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger,
		sleeper:    sleepContext,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Configured reports whether the client has a credential to call with.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// TryTimeout is the deadline applied to the given 1-based try.
func (c *Client) TryTimeout(try int) time.Duration {
	if try < 1 {
		try = 1
	}
	return c.cfg.BaseTimeout + time.Duration(try-1)*c.cfg.TimeoutStep
}

// TryTemperature is the sampling temperature sent on the given try.
func (c *Client) TryTemperature(try int) float64 {
	if try <= 1 {
		return c.cfg.Temperature
	}
	return c.cfg.RetryTemperature
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
		// Some providers return the streaming schema even when stream=false.
		Delta chatMessage `json:"delta"`
		Text  string      `json:"text"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Call sends prompt as a single user message. Tries run from attempt up to
// the configured maximum; retryable failures back off linearly and resend
// the same prompt. A successful call may return empty text.
func (c *Client) Call(ctx context.Context, prompt string, attempt int) (string, error) {
	if !c.Configured() {
		return "", apperrors.WrapError(apperrors.ErrConfiguration, "llm call: api key required")
	}
	first := attempt
	if first < 1 {
		first = 1
	}
	last := c.cfg.MaxAttempts
	if last < first {
		last = first
	}

	var lastErr *UpstreamError
	for try := first; try <= last; try++ {
		text, upErr, backoff := c.tryOnce(ctx, prompt, try)
		if upErr == nil {
			return text, nil
		}
		upErr.Attempts = try - first + 1
		lastErr = upErr

		retrying := try < last && upErr.Retryable() && ctx.Err() == nil
		c.logger.Warn("OpenRouter attempt failed",
			zap.Int("try", try),
			zap.Int("status", upErr.Status),
			zap.String("kind", string(upErr.Kind)),
			zap.String("message", upErr.Message),
			zap.Bool("retrying", retrying))
		if !retrying {
			break
		}
		if err := c.sleeper(ctx, backoff*time.Duration(try)); err != nil {
			break
		}
	}
	return "", lastErr
}

// tryOnce performs a single HTTP exchange and returns either the completion
// text or a classified failure together with the backoff unit for it.
func (c *Client) tryOnce(ctx context.Context, prompt string, try int) (string, *UpstreamError, time.Duration) {
	payload := chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.TryTemperature(try),
		MaxTokens:   c.cfg.MaxTokens,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", &UpstreamError{Status: http.StatusBadGateway, Kind: KindFetch, Message: "OpenRouter request encoding failed", Raw: err.Error()}, 0
	}

	tryCtx, cancel := context.WithTimeout(ctx, c.TryTimeout(try))
	defer cancel()

	req, err := http.NewRequestWithContext(tryCtx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", &UpstreamError{Status: http.StatusBadGateway, Kind: KindFetch, Message: "OpenRouter fetch failed", Raw: err.Error()}, fetchBackoff
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportFailure(tryCtx, err), fetchBackoff
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportFailure(tryCtx, err), fetchBackoff
	}
	raw := utils.TruncateForLog(string(body), maxRawBodyBytes)

	// CDNs in front of the provider answer 502/504 with HTML pages.
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		status := resp.StatusCode
		if !IsRetryableStatus(status) {
			status = http.StatusBadGateway
		}
		return "", &UpstreamError{Status: status, Kind: KindNonJSON, Message: "Non-JSON response from OpenRouter", Raw: raw}, nonJSONBackoff
	}

	var completion chatCompletionResponse
	decodeErr := json.Unmarshal(body, &completion)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := "OpenRouter request failed"
		if decodeErr == nil && completion.Error != nil && strings.TrimSpace(completion.Error.Message) != "" {
			message = strings.TrimSpace(completion.Error.Message)
		}
		return "", &UpstreamError{Status: resp.StatusCode, Kind: KindHTTPStatus, Message: message, Raw: raw}, statusBackoff
	}
	if decodeErr != nil {
		return "", &UpstreamError{Status: http.StatusBadGateway, Kind: KindDecode, Message: "OpenRouter response decoding failed", Raw: raw}, fetchBackoff
	}
	return extractContent(completion), nil, 0
}

func transportFailure(tryCtx context.Context, err error) *UpstreamError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(tryCtx.Err(), context.DeadlineExceeded) {
		return &UpstreamError{Status: http.StatusGatewayTimeout, Kind: KindTimeout, Message: "OpenRouter timeout", Raw: err.Error()}
	}
	return &UpstreamError{Status: http.StatusBadGateway, Kind: KindFetch, Message: "OpenRouter fetch failed", Raw: err.Error()}
}

func extractContent(completion chatCompletionResponse) string {
	for _, choice := range completion.Choices {
		for _, candidate := range []string{choice.Message.Content, choice.Delta.Content, choice.Text} {
			if strings.TrimSpace(candidate) != "" {
				return candidate
			}
		}
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
