// Package llm provides the Language Model adapter: prompt in, text out.
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

// ErrEmptyResponse indicates the model returned no usable text. Stages treat
// this the same as any other upstream failure and fall back.
var ErrEmptyResponse = errors.New("llm returned empty response")

// Client is the Language Model adapter consumed by the pipeline stages.
// Implementations must return an error rather than panicking; stages catch at
// their boundary regardless.
type Client interface {
	// Complete sends a prompt pair and returns the raw model text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config holds the settings for the OpenAI-compatible HTTP client.
type Config struct {
	Endpoint string        `yaml:"endpoint" validate:"required,url"`
	Model    string        `yaml:"model"    validate:"required"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// HTTPClient talks to an OpenAI-compatible chat-completions endpoint.
type HTTPClient struct {
	cfg  Config
	http *http.Client
}

// NewHTTPClient builds a client from configuration. A zero timeout defaults
// to 30 seconds; every call carries it so the graph never blocks on a dead
// endpoint.
func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClient{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements Client over the chat-completions wire format.
func (c *HTTPClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}

	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	body, err := json.Marshal(chatRequest{Model: c.cfg.Model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return "", fmt.Errorf("llm error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	return parsed.Choices[0].Message.Content, nil
}
