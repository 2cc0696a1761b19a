// Package gemini implements llm.Client against the Gemini API for setups
// without a local backend.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"cvgenius-backend/internal/llm"
)

const defaultModel = "gemini-2.5-flash"

// Client wraps the GenAI SDK behind the generation interface.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewClient constructs a Gemini-backed client. An empty model falls back to
// defaultModel.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is required for gemini")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{client: client, model: model, timeout: timeout}, nil
}

// Generate sends the prompt with the stage's sampling configuration and
// returns the first textual response.
func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temp := req.Sampling.Temperature
	topP := req.Sampling.TopP
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		MaxOutputTokens: int32(req.Sampling.MaxTokens),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return llm.Response{Elapsed: time.Since(start)}, classify(err)
	}
	if resp == nil {
		return llm.Response{Elapsed: time.Since(start)}, fmt.Errorf("nil response: %w", llm.ErrMalformedResponse)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return llm.Response{Elapsed: time.Since(start)}, fmt.Errorf("empty response: %w", llm.ErrMalformedResponse)
	}

	return llm.Response{Text: text, Elapsed: time.Since(start)}, nil
}

// Ping verifies the configured model is visible to the API key.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := c.client.Models.Get(ctx, c.model, nil); err != nil {
		return classify(err)
	}
	return nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%v: %w", err, llm.ErrTimeout)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "not found") || strings.Contains(msg, "not_found") {
		return fmt.Errorf("%v: %w", err, llm.ErrModelNotFound)
	}
	// Everything else, including API key and permission rejections, needs
	// the backend setup fixed before any stage can succeed. The original
	// message rides along so the caller sees the actual rejection.
	return fmt.Errorf("%v: %w", err, llm.ErrConnection)
}

var _ llm.Client = (*Client)(nil)
