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

const openRouterProviderName = "openrouter"

// OpenRouterOptions configures the OpenRouter chat-completion client.
type OpenRouterOptions struct {
	APIKey     string
	BaseURL    string
	Referrer   string
	AppName    string
	HTTPClient *http.Client
}

// OpenRouterClient calls the OpenRouter chat completions endpoint. It
// serves the low cost tier.
type OpenRouterClient struct {
	apiKey   string
	baseURL  string
	referrer string
	appName  string
	client   *http.Client
}

type openRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewOpenRouterClient(opts OpenRouterOptions) (*OpenRouterClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openrouter api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &OpenRouterClient{
		apiKey:   opts.APIKey,
		baseURL:  baseURL,
		referrer: opts.Referrer,
		appName:  opts.AppName,
		client:   client,
	}, nil
}

func (c *OpenRouterClient) Name() string {
	return openRouterProviderName
}

func (c *OpenRouterClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openRouterMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openRouterMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, openRouterMessage{Role: "user", Content: req.Prompt})

	payload := openRouterRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("openrouter: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", &buf)
	if err != nil {
		return "", fmt.Errorf("openrouter: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referrer != "" {
		httpReq.Header.Set("HTTP-Referer", c.referrer)
	}
	if c.appName != "" {
		httpReq.Header.Set("X-Title", c.appName)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Provider: openRouterProviderName, Message: err.Error(), Transient: true}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &ProviderError{
			Provider:  openRouterProviderName,
			Status:    resp.StatusCode,
			Message:   strings.TrimSpace(string(body)),
			Transient: classifyStatus(resp.StatusCode),
		}
	}

	var out openRouterResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ProviderError{Provider: openRouterProviderName, Message: "decode response: " + err.Error(), Transient: true}
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", &ProviderError{Provider: openRouterProviderName, Message: "empty completion", Transient: true}
	}
	return out.Choices[0].Message.Content, nil
}

var _ Provider = (*OpenRouterClient)(nil)
