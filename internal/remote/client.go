// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package remote implements the client for the hosted completion endpoint.
//
// The client wraps a single JSON POST with retry, exponential backoff,
// response-shape validation, and a hard per-attempt timeout. Failures are
// mapped to a small typed taxonomy so the session layer can word its
// user-facing fallback text; Send never propagates an error past its own
// boundary.
package remote

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mentorward/mentor-tui/internal/analyze"
	"github.com/mentorward/mentor-tui/internal/editor"
	"github.com/mentorward/mentor-tui/internal/history"
)

// Configuration constants for the completion endpoint.
const (
	// DefaultTimeout bounds every individual HTTP attempt.
	DefaultTimeout = 180 * time.Second

	// DefaultRetryBudget is the number of delivery attempts per Send.
	DefaultRetryBudget = 3

	// retryBaseDelay is the backoff unit; attempt n waits 2^(n-1) units.
	retryBaseDelay = time.Second

	// MaxResponseSize caps the response body read.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// Temperature and token clamps applied to every outbound request.
	maxTemperature    = 0.5
	forceTemperature  = 0.1
	maxTokensCap      = 250
	forceMaxTokensCap = 200

	// contextTagMaxPromptLen is the prompt length cutoff below which an
	// editor context tag may be appended.
	contextTagMaxPromptLen = 200
)

// Typed failures. GenericHTTP statuses are carried by HTTPError instead.
var (
	// ErrNotConfigured indicates the API token is not set.
	ErrNotConfigured = errors.New("completion endpoint token not configured")

	// ErrRateLimited indicates the endpoint returned HTTP 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrAuthFailed indicates the endpoint returned HTTP 401.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrServerUnavailable indicates a 5xx response.
	ErrServerUnavailable = errors.New("server unavailable")

	// ErrEmptyResponse indicates a 2xx response with no completion text
	// in either known field.
	ErrEmptyResponse = errors.New("empty completion")

	// ErrMalformedResponse indicates unparseable response JSON.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNetworkOrTimeout indicates transport failure or attempt timeout.
	ErrNetworkOrTimeout = errors.New("network failure or timeout")
)

// HTTPError carries a non-2xx status outside the named taxonomy.
type HTTPError struct {
	Status int
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.Status)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is a single role-tagged message on the wire.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// completionRequest is the outbound request body.
type completionRequest struct {
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
	ForceMode   bool          `json:"force_mode"`
}

// completionResponse covers both response shapes the endpoint is known to
// produce: OpenAI-style choices and a bare generated_text field.
type completionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	GeneratedText string `json:"generated_text"`
}

// content extracts the completion text, preferring the choices form.
func (r *completionResponse) content() string {
	if len(r.Choices) > 0 && r.Choices[0].Message.Content != "" {
		return r.Choices[0].Message.Content
	}
	return r.GeneratedText
}

// =============================================================================
// REQUEST OPTIONS
// =============================================================================

// Options configures a single remote call. Constructed fresh per call,
// never persisted.
type Options struct {
	Temperature    float64
	MaxTokens      int
	IncludeHistory bool
	ForceMode      bool
	RetryBudget    int
}

// DefaultOptions returns the options used for an ordinary prompt.
func DefaultOptions() Options {
	return Options{
		Temperature:    0.7,
		MaxTokens:      500,
		IncludeHistory: true,
		RetryBudget:    DefaultRetryBudget,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the completion endpoint.
type Client struct {
	endpoint   string
	token      string
	userAgent  string
	httpClient *http.Client
	timeout    time.Duration

	// limiter paces outbound attempts client-side so a burst of sends
	// does not trip the endpoint's rate limit immediately.
	limiter *rate.Limiter

	// verbose enables per-request diagnostics.
	verbose bool

	// sleep performs the context-aware backoff wait. Swappable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client for the given endpoint URL and bearer token.
// An empty token is allowed at construction; Complete fails with
// ErrNotConfigured until one is set.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint:  strings.TrimSuffix(endpoint, "/"),
		token:     strings.TrimSpace(token),
		userAgent: "mentor-tui/" + Version,
		httpClient: &http.Client{
			// Per-attempt deadline is enforced via context; the client
			// timeout is a backstop slightly above it.
			Timeout: DefaultTimeout + 5*time.Second,
		},
		timeout: DefaultTimeout,
		limiter: rate.NewLimiter(rate.Every(time.Second), DefaultRetryBudget),
		sleep:   ctxSleep,
	}
}

// Version is the client version reported in the User-Agent header.
// Overridden at build time by the main package.
var Version = "0.1.0"

// WithTimeout sets the per-attempt timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	c.httpClient.Timeout = d + 5*time.Second
	return c
}

// WithHTTPClient swaps the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithLimiter replaces the client-side pacing limiter.
func (c *Client) WithLimiter(l *rate.Limiter) *Client {
	c.limiter = l
	return c
}

// WithVerbose toggles request/response diagnostics. Quiet by default so
// ordinary runs do not interleave log lines with the conversation.
func (c *Client) WithVerbose(v bool) *Client {
	c.verbose = v
	return c
}

// IsConfigured returns true if a bearer token is set.
func (c *Client) IsConfigured() bool {
	return c.token != ""
}

// TokenFingerprint returns a short SHA-256 fingerprint of the token for
// display and logs. The token itself is never logged.
func (c *Client) TokenFingerprint() string {
	if c.token == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.token))
	return hex.EncodeToString(h[:4])
}

// =============================================================================
// COMPLETION
// =============================================================================

// Complete sends the prompt and returns the trimmed completion text.
//
// Delivery is attempted up to the retry budget, waiting 2^(attempt-1)
// seconds between attempts and not at all after the last one. On success
// the user prompt and the reply are appended to the shared history window,
// user entry first. On exhaustion the error describes the final failure.
func (c *Client) Complete(ctx context.Context, prompt string, opts Options, hist *history.Window, snap *editor.Snapshot) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	budget := opts.RetryBudget
	if budget <= 0 {
		budget = DefaultRetryBudget
	}

	body := c.buildRequest(prompt, opts, hist, snap)

	var lastErr error
	for attempt := 1; attempt <= budget; attempt++ {
		if attempt > 1 {
			delay := retryBaseDelay * time.Duration(1<<(attempt-2))
			if err := c.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		text, err := c.doRequest(ctx, body)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return "", err
			}
			lastErr = err
			continue
		}

		text = strings.TrimSpace(text)
		if hist != nil {
			hist.Append(history.NewUserMessage(prompt))
			hist.Append(history.NewAssistantMessage(text))
		}
		c.logResponseQuality(text, opts.ForceMode)
		return text, nil
	}

	return "", fmt.Errorf("all %d attempts failed: %w", budget, lastErr)
}

// Send is the session-facing wrapper around Complete: it always returns
// displayable text, substituting a templated failure message when every
// attempt was exhausted.
func (c *Client) Send(ctx context.Context, prompt string, opts Options, hist *history.Window, snap *editor.Snapshot) string {
	text, err := c.Complete(ctx, prompt, opts, hist, snap)
	if err != nil {
		return failureMessage(err, hist)
	}
	return text
}

// buildRequest assembles the outbound body: prior history in order (when
// requested), then the new user message, optionally annotated with the
// current editor context.
func (c *Client) buildRequest(prompt string, opts Options, hist *history.Window, snap *editor.Snapshot) completionRequest {
	var messages []ChatMessage
	if opts.IncludeHistory && hist != nil {
		for _, m := range hist.All() {
			messages = append(messages, ChatMessage{Role: string(m.Role), Content: m.Content})
		}
	}
	messages = append(messages, ChatMessage{Role: "user", Content: annotatePrompt(prompt, snap)})

	temperature := opts.Temperature
	maxTokens := opts.MaxTokens
	if opts.ForceMode {
		temperature = forceTemperature
		if maxTokens > forceMaxTokensCap {
			maxTokens = forceMaxTokensCap
		}
	} else {
		if temperature > maxTemperature {
			temperature = maxTemperature
		}
		if maxTokens > maxTokensCap {
			maxTokens = maxTokensCap
		}
	}

	return completionRequest{
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
		ForceMode:   opts.ForceMode,
	}
}

// annotatePrompt appends a short editor-context tag to code-flavored
// prompts. Applied only when a snapshot is available and the prompt is
// short enough that the tag stays proportionate.
func annotatePrompt(prompt string, snap *editor.Snapshot) string {
	if snap == nil || len(prompt) >= contextTagMaxPromptLen {
		return prompt
	}
	p := strings.ToLower(prompt)
	if !strings.Contains(p, "code") && !strings.Contains(p, "function") && !strings.Contains(p, "python") {
		return prompt
	}
	return fmt.Sprintf("%s\n\n[context: file=%s lang=%s lines=%d]",
		prompt, snap.FileName, snap.LanguageID, snap.LineCount)
}

// doRequest performs one HTTP attempt and maps the outcome to the typed
// failure taxonomy.
func (c *Client) doRequest(ctx context.Context, body completionRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)

	// Never let the bearer token linger on a request that might be logged.
	req.Header.Del("Authorization")

	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrNetworkOrTimeout, err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	raw, err := readBody(resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkOrTimeout, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	text := parsed.content()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// statusError maps a non-2xx status to its typed failure.
func statusError(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusUnauthorized:
		return ErrAuthFailed
	case status >= 500:
		return fmt.Errorf("%w: status %d", ErrServerUnavailable, status)
	default:
		return &HTTPError{Status: status}
	}
}

// readBody reads the response with a size cap. One byte past the cap is
// read so a body of exactly MaxResponseSize is accepted as complete.
func readBody(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}
	if int64(len(raw)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return raw, nil
}

// ctxSleep waits for d or until the context is done.
func ctxSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// =============================================================================
// FAILURE MESSAGES
// =============================================================================

// failureMessage words the user-facing text for an exhausted call. The
// wording depends on the final failure kind; the context note tells the
// learner their conversation survives the failure.
func failureMessage(err error, hist *history.Window) string {
	var reason string
	var httpErr *HTTPError

	switch {
	case errors.Is(err, ErrRateLimited):
		reason = "The mentor service is receiving too many requests right now. Give it a short break and ask again."
	case errors.Is(err, ErrAuthFailed):
		reason = "The mentor service rejected this client's credentials. Check the configured API token."
	case errors.Is(err, ErrNetworkOrTimeout):
		reason = "I couldn't reach the mentor service - the connection failed or timed out."
	case errors.Is(err, ErrNotConfigured):
		reason = "No API token is configured, so I can't reach the mentor service yet."
	case errors.As(err, &httpErr):
		reason = fmt.Sprintf("The mentor service answered with an unexpected status (HTTP %d).", httpErr.Status)
	default:
		reason = "Something went wrong talking to the mentor service."
	}

	note := ""
	if hist != nil && hist.Len() > 0 {
		sig := analyze.Analyze(hist)
		note = fmt.Sprintf("\n\nYour conversation is safe: %d earlier messages (last topic: %s) will be included when you try again.",
			hist.Len(), sig.QuestionType)
	}

	return reason + note
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// logRequest logs an attempt without exposing headers or body.
func (c *Client) logRequest(req *http.Request) {
	if !c.verbose {
		return
	}
	log.Printf("completion request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs status and duration only.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	if !c.verbose {
		return
	}
	log.Printf("completion response: %d (%v)", resp.StatusCode, duration)
}

// logResponseQuality emits observability signals about the reply shape.
// These are diagnostics only and never alter control flow.
func (c *Client) logResponseQuality(text string, forceMode bool) {
	if !c.verbose {
		return
	}
	if forceMode {
		hasFence := strings.Contains(text, "```")
		log.Printf("quality: force reply len=%d code_fence=%v substantial=%v",
			len(text), hasFence, len(text) >= 50)
		return
	}
	guiding := strings.Contains(text, "?")
	for _, kw := range []string{"try", "think", "consider", "step"} {
		if strings.Contains(strings.ToLower(text), kw) {
			guiding = true
			break
		}
	}
	log.Printf("quality: reply len=%d guiding=%v", len(text), guiding)
}
