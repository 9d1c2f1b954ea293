// Package llm provides a minimal client for an OpenAI-compatible
// chat-completions API. Only the non-streaming subset the assistant needs is
// implemented; the caller decides how to degrade when a call fails.
package llm

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
)

// Message is a single chat-completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat-completion request body. Fields the backend treats as
// optional are pointers or omitempty so they are absent unless set.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Response is the subset of the chat-completion response the assistant reads.
type Response struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
}

// ErrNotConfigured is returned when the client has no API key and therefore
// no usable backend.
var ErrNotConfigured = errors.New("llm: no backend configured")

// Client talks to one OpenAI-compatible endpoint. A Client with an empty API
// key is valid and reports ErrNotConfigured from every call; callers use that
// to switch to deterministic fallbacks.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient builds a client for the given endpoint and model. An empty apiKey
// produces a disabled client (Configured() == false).
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

// Configured reports whether a backend is available.
func (c *Client) Configured() bool { return c != nil && c.apiKey != "" }

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Complete sends messages to the chat-completions endpoint and returns the
// first choice's content, trimmed. Temperature and maxTokens are forwarded
// as-is; pass maxTokens <= 0 to leave the backend default.
func (c *Client) Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	reqBody := Request{
		Model:       c.model,
		Messages:    messages,
		Temperature: &temperature,
	}
	if maxTokens > 0 {
		reqBody.MaxTokens = maxTokens
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("llm: status %d: %s", resp.StatusCode, string(body))
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("llm: empty choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
