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

	"mailtriage/internal/logger"
)

const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
)

var (
	ErrMissingAPIKey   = errors.New("api key is required")
	ErrUnknownProvider = errors.New("unknown ai provider")
	ErrNoCandidates    = errors.New("no candidates returned from model")
)

type Options struct {
	Provider string
	APIKey   string
	// Model overrides the provider default.
	Model string
	// BaseURL overrides the provider endpoint.
	BaseURL    string
	HTTPClient *http.Client
}

// Client sends single-prompt completions to a hosted model.
type Client struct {
	provider   string
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

func NewClient(opts Options, log *logger.Logger) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	provider := strings.ToLower(opts.Provider)
	if provider == "" {
		provider = ProviderGemini
	}
	switch provider {
	case ProviderGemini, ProviderOpenAI, ProviderDeepSeek:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, opts.Provider)
	}

	c := &Client{
		provider:   provider,
		apiKey:     opts.APIKey,
		model:      opts.Model,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		logger:     log,
	}
	if c.model == "" {
		c.model = defaultModel(provider)
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL(provider)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = logger.Nop()
	}
	return c, nil
}

func defaultBaseURL(provider string) string {
	switch provider {
	case ProviderDeepSeek:
		return "https://api.deepseek.com"
	case ProviderGemini:
		return "https://generativelanguage.googleapis.com/v1beta"
	default:
		return "https://api.openai.com/v1"
	}
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderDeepSeek:
		return "deepseek-chat"
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return "gpt-4o"
	}
}

func (c *Client) Provider() string { return c.provider }

func (c *Client) Model() string { return c.model }

// Complete sends prompt as a single user turn and returns the model text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var (
		text string
		err  error
	)
	switch c.provider {
	case ProviderGemini:
		text, err = c.completeWithGemini(ctx, prompt)
	default:
		text, err = c.completeWithOpenAIStyle(ctx, prompt)
	}
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", c.provider, err)
	}
	c.logger.Debugf("%s completion returned %d chars", c.provider, len(text))
	return text, nil
}

// OpenAI/DeepSeek API request/response structures
type chatCompletionRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Gemini API request/response structures
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

func (c *Client) completeWithOpenAIStyle(ctx context.Context, prompt string) (string, error) {
	request := chatCompletionRequest{
		Model:    c.model,
		Messages: []message{{Role: "user", Content: prompt}},
	}

	var resp chatCompletionResponse
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	if err := c.postJSON(ctx, c.baseURL+"/chat/completions", headers, request, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoCandidates
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) completeWithGemini(ctx context.Context, prompt string) (string, error) {
	request := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}

	var resp geminiResponse
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	headers := map[string]string{"x-goog-api-key": c.apiKey}
	if err := c.postJSON(ctx, url, headers, request, &resp); err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (c *Client) postJSON(ctx context.Context, url string, headers map[string]string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
