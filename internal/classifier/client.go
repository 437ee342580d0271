// Package classifier sends candidate messages to an LLM in batches and
// records the verdicts on the work queue. A batch whose reply was
// received and interpreted marks every entry in it processed; a
// transport failure leaves the entries untouched so a later run can
// retry them.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/outings/internal/config"
)

const anthropicVersion = "2023-06-01"

// Rate limiter defaults: 50 requests per minute.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// Client is a minimal Anthropic-style messages client. It sends one
// user turn and returns the text of the reply.
type Client struct {
	model      string
	apiKey     string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client from the classifier configuration.
func NewClient(cfg config.ClassifierConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("classifier API key required")
	}
	return &Client{
		model:     cfg.Model,
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURL,
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}, nil
}

// anthropicRequest represents the request format for the messages API.
type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicResponse represents the response from the messages API.
type anthropicResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// anthropicError represents an error response from the messages API.
type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends prompt as a single user message and returns the text
// of the model's reply. Transport-level failures (connection errors,
// timeouts, 429, 5xx) are returned as retryable errors; the caller
// treats those as "no reply received".
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	req := anthropicRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &retryableError{err: fmt.Errorf("API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &retryableError{err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &retryableError{err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		return "", &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))}
	}
	if resp.StatusCode != http.StatusOK {
		var errResp anthropicError
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var claudeResp anthropicResponse
	if err := json.Unmarshal(body, &claudeResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(claudeResp.Content) == 0 {
		return "", fmt.Errorf("empty response from API")
	}
	return claudeResp.Content[0].Text, nil
}

// retryableError wraps an error to indicate the request never produced
// an interpretable reply and may be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// IsRetryable reports whether err is a transport-level failure rather
// than a received-but-rejected reply.
func IsRetryable(err error) bool {
	for e := err; e != nil; {
		if _, ok := e.(*retryableError); ok {
			return true
		}
		if unwrapper, ok := e.(interface{ Unwrap() error }); ok {
			e = unwrapper.Unwrap()
		} else {
			break
		}
	}
	return false
}

// Retryable wraps err so IsRetryable reports true for it. Used by
// alternative Completer implementations.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}
