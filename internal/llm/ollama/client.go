// Package ollama implements llm.Client against a local Ollama server.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"cvgenius-backend/internal/llm"
)

const (
	// DefaultBaseURL is where a locally started `ollama serve` listens.
	DefaultBaseURL = "http://localhost:11434"
	// DefaultTimeout allows for CPU-bound local generation.
	DefaultTimeout = 5 * time.Minute

	// numCtx bounds the context window; prompts are truncated upstream to fit.
	numCtx = 4096

	pingTimeout = 5 * time.Second
)

// Client talks to the Ollama generate API.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient constructs a Client for the given base URL and model. An empty
// baseURL falls back to DefaultBaseURL; timeout <= 0 falls back to
// DefaultTimeout.
func NewClient(baseURL, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("LLM_MODEL is required for ollama")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
	NumCtx      int     `json:"num_ctx"`
}

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Generate streams a completion from /api/generate and concatenates the
// chunks until the server marks the stream done. A stream that ends without
// a done marker is reported as llm.ErrMalformedResponse.
func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	start := time.Now()

	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: req.Prompt,
		Stream: true,
		Options: generateOptions{
			Temperature: req.Sampling.Temperature,
			TopP:        req.Sampling.TopP,
			NumPredict:  req.Sampling.MaxTokens,
			NumCtx:      numCtx,
		},
	})
	if err != nil {
		return llm.Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return llm.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return llm.Response{Elapsed: time.Since(start)}, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return llm.Response{Elapsed: time.Since(start)}, classifyStatus(resp)
	}

	var text strings.Builder
	done := false
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Tolerate stray non-JSON lines the way the stream consumer
			// always has; the done marker decides validity.
			continue
		}
		if chunk.Error != "" {
			return llm.Response{Elapsed: time.Since(start)}, classifyBackendError(chunk.Error)
		}
		text.WriteString(chunk.Response)
		if chunk.Done {
			done = true
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return llm.Response{Elapsed: time.Since(start)}, classifyTransport(err)
	}
	if !done {
		return llm.Response{Elapsed: time.Since(start)}, fmt.Errorf("stream ended before done marker: %w", llm.ErrMalformedResponse)
	}

	return llm.Response{
		Text:    strings.TrimSpace(text.String()),
		Elapsed: time.Since(start),
	}, nil
}

// Ping checks backend reachability via the tags endpoint.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tags returned status %d: %w", resp.StatusCode, llm.ErrConnection)
	}
	return nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%v: %w", err, llm.ErrTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%v: %w", err, llm.ErrTimeout)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "client.timeout") {
		return fmt.Errorf("%v: %w", err, llm.ErrTimeout)
	}
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") {
		return fmt.Errorf("%v: %w", err, llm.ErrConnection)
	}
	return fmt.Errorf("%v: %w", err, llm.ErrConnection)
}

func classifyStatus(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Error != "" {
		return classifyBackendError(body.Error)
	}
	return fmt.Errorf("generate returned status %d: %w", resp.StatusCode, llm.ErrMalformedResponse)
}

func classifyBackendError(msg string) error {
	if strings.Contains(strings.ToLower(msg), "not found") {
		return fmt.Errorf("%s: %w", msg, llm.ErrModelNotFound)
	}
	return fmt.Errorf("%s: %w", msg, llm.ErrMalformedResponse)
}

var _ llm.Client = (*Client)(nil)
