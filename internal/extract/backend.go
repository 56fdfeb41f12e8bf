// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns analyzed post evidence into structured place
// candidates through a language model. The model's output is treated as
// untrusted text: a repair ladder recovers the JSON object from fenced,
// truncated, or comment-laden responses, and anything irreparable degrades
// to a not-found result instead of an error.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Backend generates a model completion for a prompt. Implementations wrap a
// concrete model server; tests substitute a canned backend.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OllamaBackend calls a local Ollama server's chat endpoint.
type OllamaBackend struct {
	// Host is the server base URL, e.g. "http://localhost:11434".
	Host        string
	Model       string
	Temperature float64
	Client      *http.Client
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
}

// Generate sends the prompt as a single-message chat and returns the model's
// reply text.
func (o *OllamaBackend) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaRequest{
		Model:    o.Model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Stream:   false,
		Options:  ollamaOptions{Temperature: o.Temperature},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Host+"/api/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling model server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("model server returned %d: %s", resp.StatusCode, string(body))
	}

	var oResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return "", fmt.Errorf("decoding model response: %w", err)
	}

	if oResp.Message.Content == "" {
		return "", fmt.Errorf("model server returned empty content")
	}
	return oResp.Message.Content, nil
}
