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

const deepSeekProviderName = "deepseek"

// DeepSeekOptions configures the DeepSeek chat-completion client.
type DeepSeekOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// DeepSeekClient calls the DeepSeek chat completions endpoint. It serves
// the high cost tier used for document-analysis tasks.
type DeepSeekClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type deepSeekRequest struct {
	Model       string            `json:"model"`
	Messages    []deepSeekMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

type deepSeekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepSeekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewDeepSeekClient(opts DeepSeekOptions) (*DeepSeekClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("deepseek api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.deepseek.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &DeepSeekClient{apiKey: opts.APIKey, baseURL: baseURL, client: client}, nil
}

func (c *DeepSeekClient) Name() string {
	return deepSeekProviderName
}

// Complete sends one chat completion. DeepSeek reasoning models respond
// better without a system role, so any system framing is folded into the
// user message.
func (c *DeepSeekClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	content := req.Prompt
	if strings.TrimSpace(req.System) != "" {
		content = req.System + "\n\n" + req.Prompt
	}

	payload := deepSeekRequest{
		Model:       req.Model,
		Messages:    []deepSeekMessage{{Role: "user", Content: content}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("deepseek: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return "", fmt.Errorf("deepseek: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Provider: deepSeekProviderName, Message: err.Error(), Transient: true}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &ProviderError{
			Provider:  deepSeekProviderName,
			Status:    resp.StatusCode,
			Message:   strings.TrimSpace(string(body)),
			Transient: classifyStatus(resp.StatusCode),
		}
	}

	var out deepSeekResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ProviderError{Provider: deepSeekProviderName, Message: "decode response: " + err.Error(), Transient: true}
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", &ProviderError{Provider: deepSeekProviderName, Message: "empty completion", Transient: true}
	}
	return out.Choices[0].Message.Content, nil
}

var _ Provider = (*DeepSeekClient)(nil)
