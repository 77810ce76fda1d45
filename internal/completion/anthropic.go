package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Iron-Ham/taskwatch/internal/errors"
)

const (
	// anthropicAPIURL is the Anthropic Messages API endpoint.
	anthropicAPIURL = "https://api.anthropic.com/v1/messages"

	// anthropicVersion is sent in the anthropic-version header.
	anthropicVersion = "2023-06-01"

	// defaultAnthropicModel is used when no model is configured.
	defaultAnthropicModel = "claude-3-5-haiku-latest"

	// defaultMaxTokens caps the length of a rationale.
	defaultMaxTokens = 400

	// defaultHTTPTimeout is the per-request timeout.
	defaultHTTPTimeout = 120 * time.Second
)

// AnthropicClient implements Client using the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	model      string
	maxTokens  int
	endpoint   string
	httpClient *http.Client
}

// AnthropicOption configures an AnthropicClient.
type AnthropicOption func(*AnthropicClient)

// WithAnthropicModel sets the model.
func WithAnthropicModel(model string) AnthropicOption {
	return func(c *AnthropicClient) {
		c.model = model
	}
}

// WithAnthropicTimeout sets the HTTP client timeout.
func WithAnthropicTimeout(timeout time.Duration) AnthropicOption {
	return func(c *AnthropicClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithAnthropicEndpoint overrides the Messages API URL.
func WithAnthropicEndpoint(url string) AnthropicOption {
	return func(c *AnthropicClient) {
		c.endpoint = url
	}
}

// WithAnthropicHTTPClient replaces the HTTP client.
func WithAnthropicHTTPClient(hc *http.Client) AnthropicOption {
	return func(c *AnthropicClient) {
		c.httpClient = hc
	}
}

// NewAnthropicClient creates a new client using the ANTHROPIC_API_KEY env var.
// Returns an error if the API key is not set.
func NewAnthropicClient(opts ...AnthropicOption) (*AnthropicClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.NewValidationError("ANTHROPIC_API_KEY environment variable not set").
			WithField("completion.backend").
			WithValue(BackendAnthropic)
	}

	c := &AnthropicClient{
		apiKey:    apiKey,
		model:     defaultAnthropicModel,
		maxTokens: defaultMaxTokens,
		endpoint:  anthropicAPIURL,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Model returns the configured model name.
func (c *AnthropicClient) Model() string {
	return c.model
}

// messagesRequest is the Anthropic Messages API request structure.
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic Messages API response structure.
type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Complete sends prompt as a single user message and returns the joined
// text blocks of the reply.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []message{
			{Role: "user", Content: prompt},
		},
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", c.fail("marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return "", c.fail("create request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", c.fail("send request", errors.Join(ctx.Err(), err))
		}
		// Transport failures are usually transient.
		return "", c.fail("send request", err).WithRetryable(true)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.fail("read response", err).WithRetryable(true)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		var parsed messagesResponse
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", c.fail(fmt.Sprintf("API error: %s", msg), nil).WithStatusCode(resp.StatusCode)
	}

	var respData messagesResponse
	if err := json.Unmarshal(body, &respData); err != nil {
		return "", c.fail("unmarshal response", err)
	}

	if respData.Error != nil {
		return "", c.fail(fmt.Sprintf("API error: %s", respData.Error.Message), nil)
	}

	var sb strings.Builder
	for _, block := range respData.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", c.fail("empty response from API", nil)
	}
	return text, nil
}

func (c *AnthropicClient) fail(msg string, cause error) *errors.CompletionError {
	return errors.NewCompletionError(msg, cause).WithBackend(BackendAnthropic)
}
