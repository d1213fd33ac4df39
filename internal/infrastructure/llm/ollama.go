package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"EthioNews/internal/config"
	"EthioNews/internal/domain"
	"EthioNews/internal/ports"
)

// OllamaSummarizer talks to a self-hosted Ollama-compatible /api/generate endpoint.
type OllamaSummarizer struct {
	endpoint string
	model    string
	http     *http.Client
}

var _ ports.Summarizer = (*OllamaSummarizer)(nil)

// NewOllamaSummarizer creates a reusable HTTP client.
func NewOllamaSummarizer(cfg config.OllamaConfig) *OllamaSummarizer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaSummarizer{
		endpoint: strings.TrimRight(cfg.URL, "/"),
		model:    cfg.Model,
		http:     &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Summarize requests a JSON summary from the model.
func (c *OllamaSummarizer) Summarize(ctx context.Context, title, content string, lang domain.Lang) (domain.Summary, error) {
	payload := generateRequest{
		Model:  c.model,
		System: systemPrompt,
		Prompt: buildPrompt(title, content, lang),
		Format: "json",
	}

	var resp generateResponse
	if err := c.post(ctx, "/api/generate", payload, &resp); err != nil {
		return domain.Summary{}, err
	}

	return parseSummary(resp.Response, lang)
}

func (c *OllamaSummarizer) post(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("ollama error %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
