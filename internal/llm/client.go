// Package llm talks to an OpenAI-compatible chat completions endpoint. The
// reasoning agent behind it decides which capabilities to call; this client
// only carries the round trip.
package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carsch18/AI-OPS/internal/tools"
)

// Message is one chat turn. ToolCallID and ToolCalls are only populated on
// tool-role and assistant-role messages respectively.
type Message struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []tools.ToolCall `json:"tool_calls,omitempty"`
}

// Client calls the configured completion endpoint with bearer auth.
type Client struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(apiURL, apiKey, model string) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Configured reports whether an API key is present. Without one the chat
// surface falls back to direct tool execution.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// ChatCompletion sends one completion request. tools and toolChoice may be
// nil/empty for a plain completion.
func (c *Client) ChatCompletion(messages []Message, toolDefs []map[string]interface{}, toolChoice string) (*Message, error) {
	payload := map[string]interface{}{
		"model":    c.model,
		"messages": messages,
		"stream":   false,
	}
	if len(toolDefs) > 0 {
		payload["tools"] = toolDefs
	}
	if toolChoice != "" {
		payload["tool_choice"] = toolChoice
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion call: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion call: status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var completion struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, fmt.Errorf("parse completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}
	return &completion.Choices[0].Message, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
