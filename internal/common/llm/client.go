// internal/common/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"paperless-workers/internal/common/config"
	apphttp "paperless-workers/internal/common/http"
	"paperless-workers/internal/common/metrics"
)

const DefaultModel = "chatgpt-4o-latest"

var (
	ErrRequestFailed = errors.New("LLM_REQUEST_FAILED")
	ErrTimeout       = errors.New("LLM_TIMEOUT")
	ErrNoChoices     = errors.New("LLM_NO_CHOICES")
)

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	baseURL     string
	model       string
	temperature float64
	httpClient  *apphttp.Client
}

func NewClient(cfg config.LLMConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       model,
		temperature: cfg.Temperature,
		httpClient:  apphttp.NewClient(timeout, apphttp.WithHeader("Authorization", "Bearer "+cfg.APIKey)),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as a single user message and returns the trimmed
// content of the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	content, err := c.complete(ctx, prompt)
	metrics.LLMRequestDuration.Observe(time.Since(start).Seconds())

	status := "success"
	switch {
	case errors.Is(err, ErrTimeout):
		status = "timeout"
	case err != nil:
		status = "error"
	}
	metrics.LLMRequests.WithLabelValues(status).Inc()
	return content, err
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	if c.temperature > 0 {
		t := c.temperature
		body.Temperature = &t
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}
	if len(cc.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
