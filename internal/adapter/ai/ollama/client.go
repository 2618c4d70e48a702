// Package ollama implements the model client against an Ollama-compatible
// chat completion endpoint.
package ollama

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/orientis/orientis/internal/adapter/observability"
	"github.com/orientis/orientis/internal/domain"
)

// Client sends single-prompt chat completions to a locally hosted model.
// It performs no retries: any failure maps to domain.ErrModelUnavailable
// and the caller decides whether to fall back.
type Client struct {
	baseURL string
	model   string
	hc      *http.Client
}

// New constructs a Client. A zero timeout leaves the HTTP client unbounded;
// the call then ends only with the request context.
func New(baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		model:   model,
		hc:      &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  requestOptions `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type requestOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Chat posts the prompt as a single user message and returns the raw
// response text.
func (c *Client) Chat(ctx domain.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
		Options: requestOptions{
			Temperature: opts.Temperature,
			TopP:        opts.TopP,
			NumPredict:  opts.NumPredict,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", domain.ErrModelUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	observability.AIRequestsTotal.WithLabelValues("ollama", "chat").Inc()
	observability.AIRequestDuration.WithLabelValues("ollama", "chat").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Error("model request failed", slog.String("model", c.model), slog.Any("error", err))
		return "", fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrModelUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(raw)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		slog.Warn("model endpoint non-2xx", slog.Int("status", resp.StatusCode), slog.String("model", c.model), slog.String("body", snippet))
		return "", fmt.Errorf("%w: status %d", domain.ErrModelUnavailable, resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrModelUnavailable, err)
	}
	return out.Message.Content, nil
}

// Ping probes the model endpoint for readiness checks.
func (c *Client) Ping(ctx domain.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", domain.ErrModelUnavailable, resp.StatusCode)
	}
	return nil
}
