// Package ai turns a suggestion's scoring signals into a single
// conversational sentence via an OpenAI-compatible chat endpoint. It is
// strictly optional: callers fall back to the raw reasons on any error.
package ai

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

	"github.com/tasktide/tasktide/internal/priority"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second

	systemPrompt = "You explain why a task is the user's best next pick. " +
		"Answer in one short, concrete sentence grounded in the signals given. No preamble."
)

// Config carries the connection settings, usually from the ai section
// of the app config.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// Decorator implements priority.Decorator over the chat completions API.
type Decorator struct {
	cfg    Config
	client *http.Client
}

func NewDecorator(cfg Config) *Decorator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Decorator{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Decorate asks the model for a one-line rationale for the suggestion.
func (d *Decorator) Decorate(ctx context.Context, s priority.Suggestion) (string, error) {
	if d.cfg.APIKey == "" {
		return "", errors.New("ai: api key not configured")
	}

	payload := chatRequest{
		Model: d.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: suggestionPrompt(s)},
		},
		Temperature: 0.3,
		MaxTokens:   80,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ai: marshal request: %w", err)
	}

	url := strings.TrimRight(d.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("ai: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai: %s returned %d: %s", d.cfg.Model, resp.StatusCode, snippet(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("ai: response had no choices")
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("ai: response was empty")
	}
	return text, nil
}

func suggestionPrompt(s priority.Suggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %q\n", s.Task.Title)
	fmt.Fprintf(&b, "Priority: %s, effective score %.1f/100\n", s.Task.Priority, s.Effective)
	if at := s.Task.DueAt(); at != nil {
		fmt.Fprintf(&b, "Due: %s\n", at.Format("Mon Jan 2 15:04"))
	}
	if s.Task.EstimatedMinutes != nil {
		fmt.Fprintf(&b, "Estimate: %d minutes\n", *s.Task.EstimatedMinutes)
	}
	if len(s.Breakdown.Reasons) > 0 {
		fmt.Fprintf(&b, "Signals: %s\n", strings.Join(s.Breakdown.Reasons, "; "))
	}
	return b.String()
}

func snippet(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > 200 {
		return text[:200] + "..."
	}
	return text
}
